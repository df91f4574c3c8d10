// Package cloudspanner implements store.Store on Cloud Spanner.
package cloudspanner

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"cloud.google.com/go/spanner"
	database "cloud.google.com/go/spanner/admin/database/apiv1"
	"cloud.google.com/go/spanner/admin/database/apiv1/databasepb"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/musui/musui-server/internal/model"
	"github.com/musui/musui-server/internal/store"
)

// Open connects to database (projects/p/instances/i/databases/d). A non-empty
// emulatorHost dials the local emulator without credentials.
func Open(ctx context.Context, databaseName, emulatorHost string) (*spanner.Client, error) {
	if databaseName == "" {
		return nil, fmt.Errorf("spanner database is empty")
	}
	var opts []option.ClientOption
	if emulatorHost != "" {
		opts = append(opts,
			option.WithEndpoint(emulatorHost),
			option.WithoutAuthentication(),
			option.WithGRPCDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())),
		)
	}
	client, err := spanner.NewClient(ctx, databaseName, opts...)
	if err != nil {
		return nil, fmt.Errorf("spanner client: %w", err)
	}
	return client, nil
}

// Schema is the DDL the store expects.
var Schema = []string{
	`CREATE TABLE Archives (
        Id STRING(64) NOT NULL,
        UserId STRING(128) NOT NULL,
        IsPublic BOOL NOT NULL,
        CreatedAt TIMESTAMP NOT NULL,
    ) PRIMARY KEY (Id)`,
	`CREATE INDEX ArchivesByUser ON Archives(UserId, CreatedAt DESC)`,
	`CREATE INDEX ArchivesByVisibility ON Archives(IsPublic, CreatedAt DESC)`,
	`CREATE TABLE ArchiveItems (
        ArchiveId STRING(64) NOT NULL,
        ItemIndex INT64 NOT NULL,
        CourseId STRING(64) NOT NULL,
        Laps STRING(MAX),
        Mood STRING(MAX) NOT NULL,
        Memo STRING(MAX) NOT NULL,
        PhotoUrl STRING(MAX),
        TeaName STRING(MAX),
        TeaType STRING(MAX),
        Origin STRING(MAX),
        BrandOrPurchase STRING(MAX),
        InfusionNotes STRING(MAX) NOT NULL,
    ) PRIMARY KEY (ArchiveId, ItemIndex),
      INTERLEAVE IN PARENT Archives ON DELETE CASCADE`,
	`CREATE TABLE Profiles (
        Id STRING(128) NOT NULL,
        Email STRING(MAX),
        DisplayName STRING(MAX),
        UpdatedAt TIMESTAMP NOT NULL,
    ) PRIMARY KEY (Id)`,
	`CREATE INDEX ProfilesByDisplayName ON Profiles(DisplayName)`,
}

// New returns a store over client.
func New(client *spanner.Client) *Store { return &Store{client: client} }

type Store struct{ client *spanner.Client }

func (s *Store) Archives() store.Archives { return &archives{client: s.client} }
func (s *Store) Profiles() store.Profiles { return &profiles{client: s.client} }

// HealthPing implements health.HealthPinger.
func (s *Store) HealthPing(ctx context.Context) error {
	iter := s.client.Single().Query(ctx, spanner.Statement{SQL: "SELECT 1"})
	defer iter.Stop()
	_, err := iter.Next()
	if err != nil && err != iterator.Done {
		return err
	}
	return nil
}

func (s *Store) Close() error {
	s.client.Close()
	return nil
}

// --- Archives ---

type archives struct{ client *spanner.Client }

var itemColumns = []string{
	"ArchiveId", "ItemIndex", "CourseId", "Laps", "Mood", "Memo", "PhotoUrl",
	"TeaName", "TeaType", "Origin", "BrandOrPurchase", "InfusionNotes",
}

const selectArchive = `SELECT a.Id, a.UserId, a.CreatedAt, a.IsPublic,
       i.ItemIndex, i.CourseId, i.Laps, i.Mood, i.Memo, i.PhotoUrl,
       i.TeaName, i.TeaType, i.Origin, i.BrandOrPurchase, i.InfusionNotes
FROM Archives a
LEFT JOIN ArchiveItems i ON i.ArchiveId = a.Id
`

const orderArchives = ` ORDER BY a.CreatedAt DESC, a.Id DESC, i.ItemIndex ASC`

func (r *archives) Create(ctx context.Context, a *model.Archive) error {
	muts := []*spanner.Mutation{
		spanner.Insert("Archives",
			[]string{"Id", "UserId", "IsPublic", "CreatedAt"},
			[]interface{}{a.ID, a.OwnerID, a.IsPublic, a.CreatedAt.UTC()},
		),
	}
	for idx, it := range a.Items {
		rec := model.RecordOf(it)
		laps, err := store.EncodeLaps(rec.Laps)
		if err != nil {
			return fmt.Errorf("encode item %d: %w", idx, err)
		}
		notes, err := store.EncodeNotes(rec.InfusionNotes)
		if err != nil {
			return fmt.Errorf("encode item %d: %w", idx, err)
		}
		teaName, teaType := spanner.NullString{}, spanner.NullString{}
		if rec.CourseID == model.ManualCourseID {
			teaName = spanner.NullString{StringVal: rec.TeaName, Valid: true}
			teaType = spanner.NullString{StringVal: rec.TeaType, Valid: true}
		}
		muts = append(muts, spanner.Insert("ArchiveItems", itemColumns, []interface{}{
			a.ID, int64(idx), rec.CourseID, laps, rec.Mood, rec.Memo, optional(rec.PhotoDataURL),
			teaName, teaType, optional(rec.Origin), optional(rec.BrandOrPurchase), notes,
		}))
	}
	if _, err := r.client.Apply(ctx, muts); err != nil {
		return fmt.Errorf("failed to create archive: %w", err)
	}
	return nil
}

func (r *archives) ListByOwner(ctx context.Context, ownerID string) ([]*model.Archive, error) {
	return r.query(ctx, spanner.Statement{
		SQL:    selectArchive + `WHERE a.UserId = @userId` + orderArchives,
		Params: map[string]interface{}{"userId": ownerID},
	})
}

func (r *archives) ListPublic(ctx context.Context) ([]*model.Archive, error) {
	return r.query(ctx, spanner.Statement{SQL: selectArchive + `WHERE a.IsPublic = TRUE` + orderArchives})
}

func (r *archives) GetVisible(ctx context.Context, id, callerID string) (*model.Archive, error) {
	out, err := r.query(ctx, spanner.Statement{
		SQL:    selectArchive + `WHERE a.Id = @id AND (a.IsPublic = TRUE OR a.UserId = @userId)` + orderArchives,
		Params: map[string]interface{}{"id": id, "userId": callerID},
	})
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, model.ErrNotFound
	}
	return out[0], nil
}

func (r *archives) SetVisibility(ctx context.Context, ownerID, id string, isPublic bool) (int64, error) {
	return r.update(ctx, spanner.Statement{
		SQL:    `UPDATE Archives SET IsPublic = @isPublic WHERE Id = @id AND UserId = @userId`,
		Params: map[string]interface{}{"isPublic": isPublic, "id": id, "userId": ownerID},
	})
}

// Delete relies on the interleaved table to remove items.
func (r *archives) Delete(ctx context.Context, ownerID, id string) (int64, error) {
	return r.update(ctx, spanner.Statement{
		SQL:    `DELETE FROM Archives WHERE Id = @id AND UserId = @userId`,
		Params: map[string]interface{}{"id": id, "userId": ownerID},
	})
}

func (r *archives) update(ctx context.Context, stmt spanner.Statement) (int64, error) {
	var n int64
	_, err := r.client.ReadWriteTransaction(ctx, func(ctx context.Context, txn *spanner.ReadWriteTransaction) error {
		var err error
		n, err = txn.Update(ctx, stmt)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("failed to update archive: %w", err)
	}
	return n, nil
}

func (r *archives) query(ctx context.Context, stmt spanner.Statement) ([]*model.Archive, error) {
	iter := r.client.Single().Query(ctx, stmt)
	defer iter.Stop()

	var out []*model.Archive
	byID := map[string]*model.Archive{}
	indexes := map[string][]int64{}
	for {
		row, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to query archives: %w", err)
		}
		var (
			a   model.Archive
			idx spanner.NullInt64
			col itemRow
		)
		if err := row.Columns(&a.ID, &a.OwnerID, &a.CreatedAt, &a.IsPublic,
			&idx, &col.CourseID, &col.Laps, &col.Mood, &col.Memo, &col.PhotoURL,
			&col.TeaName, &col.TeaType, &col.Origin, &col.BrandOrPurchase, &col.InfusionNotes,
		); err != nil {
			return nil, fmt.Errorf("failed to scan archive: %w", err)
		}
		cur, ok := byID[a.ID]
		if !ok {
			a.CreatedAt = a.CreatedAt.UTC()
			a.Items = model.Items{}
			cur = &a
			byID[a.ID] = cur
			out = append(out, cur)
		}
		if !idx.Valid {
			continue
		}
		it, err := col.decode()
		if err != nil {
			return nil, fmt.Errorf("decode item %s/%d: %w", a.ID, idx.Int64, err)
		}
		cur.Items = append(cur.Items, it)
		indexes[a.ID] = append(indexes[a.ID], idx.Int64)
	}
	for _, a := range out {
		sortItems(a.Items, indexes[a.ID])
	}
	return out, nil
}

type itemRow struct {
	CourseID, Laps, Mood, Memo, PhotoURL                     spanner.NullString
	TeaName, TeaType, Origin, BrandOrPurchase, InfusionNotes spanner.NullString
}

func (r itemRow) decode() (model.Item, error) {
	laps, err := store.DecodeLaps(r.Laps.StringVal, r.Laps.Valid)
	if err != nil {
		return nil, err
	}
	return model.ItemRecord{
		CourseID:        r.CourseID.StringVal,
		Laps:            laps,
		Mood:            r.Mood.StringVal,
		Memo:            r.Memo.StringVal,
		PhotoDataURL:    r.PhotoURL.StringVal,
		TeaName:         r.TeaName.StringVal,
		TeaType:         r.TeaType.StringVal,
		Origin:          r.Origin.StringVal,
		BrandOrPurchase: r.BrandOrPurchase.StringVal,
		InfusionNotes:   store.DecodeNotes(r.InfusionNotes.StringVal, r.InfusionNotes.Valid),
	}.Item(), nil
}

func sortItems(items model.Items, idx []int64) {
	type pair struct {
		idx  int64
		item model.Item
	}
	ps := make([]pair, len(items))
	for i := range items {
		ps[i] = pair{idx[i], items[i]}
	}
	sort.SliceStable(ps, func(i, j int) bool { return ps[i].idx < ps[j].idx })
	for i := range ps {
		items[i] = ps[i].item
	}
}

// --- Profiles ---

type profiles struct{ client *spanner.Client }

func (p *profiles) Get(ctx context.Context, userID string) (*model.Profile, error) {
	row, err := p.client.Single().ReadRow(ctx, "Profiles", spanner.Key{userID},
		[]string{"Id", "Email", "DisplayName", "UpdatedAt"})
	if err != nil {
		if spanner.ErrCode(err) == codes.NotFound {
			return nil, model.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	var (
		out         model.Profile
		email, name spanner.NullString
	)
	if err := row.Columns(&out.ID, &email, &name, &out.UpdatedAt); err != nil {
		return nil, fmt.Errorf("failed to scan profile: %w", err)
	}
	out.Email = fromNull(email)
	out.DisplayName = fromNull(name)
	out.UpdatedAt = out.UpdatedAt.UTC()
	return &out, nil
}

func (p *profiles) Upsert(ctx context.Context, m *model.Profile) error {
	cols := []string{"Id", "DisplayName", "UpdatedAt"}
	vals := []interface{}{m.ID, toNull(m.DisplayName), m.UpdatedAt.UTC()}
	if m.Email != nil {
		cols = append(cols, "Email")
		vals = append(vals, *m.Email)
	}
	if _, err := p.client.Apply(ctx, []*spanner.Mutation{spanner.InsertOrUpdate("Profiles", cols, vals)}); err != nil {
		return fmt.Errorf("failed to upsert profile: %w", err)
	}
	return nil
}

func (p *profiles) DisplayNames(ctx context.Context, userIDs []string) (map[string]*string, error) {
	out := make(map[string]*string, len(userIDs))
	if len(userIDs) == 0 {
		return out, nil
	}
	iter := p.client.Single().Query(ctx, spanner.Statement{
		SQL:    `SELECT Id, DisplayName FROM Profiles WHERE Id IN UNNEST(@ids)`,
		Params: map[string]interface{}{"ids": userIDs},
	})
	defer iter.Stop()
	for {
		row, err := iter.Next()
		if err == iterator.Done {
			return out, nil
		}
		if err != nil {
			return nil, fmt.Errorf("failed to query display names: %w", err)
		}
		var id string
		var name spanner.NullString
		if err := row.Columns(&id, &name); err != nil {
			return nil, fmt.Errorf("failed to scan display name: %w", err)
		}
		out[id] = fromNull(name)
	}
}

func (p *profiles) DisplayNameOwner(ctx context.Context, name string) (string, error) {
	iter := p.client.Single().Query(ctx, spanner.Statement{
		SQL:    `SELECT Id FROM Profiles WHERE DisplayName = @name LIMIT 1`,
		Params: map[string]interface{}{"name": name},
	})
	defer iter.Stop()
	row, err := iter.Next()
	if errors.Is(err, iterator.Done) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to query display name: %w", err)
	}
	var id string
	if err := row.Columns(&id); err != nil {
		return "", err
	}
	return id, nil
}

func optional(s string) spanner.NullString {
	return spanner.NullString{StringVal: s, Valid: s != ""}
}

func toNull(s *string) spanner.NullString {
	if s == nil {
		return spanner.NullString{}
	}
	return spanner.NullString{StringVal: *s, Valid: true}
}

func fromNull(s spanner.NullString) *string {
	if !s.Valid {
		return nil
	}
	v := s.StringVal
	return &v
}

// EnsureSchema applies Schema when the Archives table is missing. DDL goes
// through the database admin API, which honors SPANNER_EMULATOR_HOST.
func EnsureSchema(ctx context.Context, client *spanner.Client, databaseName, emulatorHost string) error {
	stmt := spanner.Statement{
		SQL:    `SELECT COUNT(*) FROM INFORMATION_SCHEMA.TABLES WHERE TABLE_SCHEMA = '' AND TABLE_NAME = @name`,
		Params: map[string]interface{}{"name": "Archives"},
	}
	iter := client.Single().Query(ctx, stmt)
	defer iter.Stop()
	row, err := iter.Next()
	if err != nil {
		return fmt.Errorf("spanner schema lookup: %w", err)
	}
	var n int64
	if err := row.Columns(&n); err != nil {
		return fmt.Errorf("spanner schema lookup: %w", err)
	}
	if n > 0 {
		return nil
	}

	var opts []option.ClientOption
	if emulatorHost != "" {
		opts = append(opts,
			option.WithEndpoint(emulatorHost),
			option.WithoutAuthentication(),
			option.WithGRPCDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())),
		)
	}
	admin, err := database.NewDatabaseAdminClient(ctx, opts...)
	if err != nil {
		return fmt.Errorf("spanner admin client: %w", err)
	}
	defer admin.Close()
	op, err := admin.UpdateDatabaseDdl(ctx, &databasepb.UpdateDatabaseDdlRequest{
		Database:   databaseName,
		Statements: Schema,
	})
	if err != nil {
		return fmt.Errorf("spanner ddl: %w", err)
	}
	if err := op.Wait(ctx); err != nil {
		return fmt.Errorf("spanner ddl wait: %w", err)
	}
	return nil
}
