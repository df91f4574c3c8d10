// Package sqlstore implements store.Store over database/sql. The postgres and
// sqlite drivers share it and differ only in placeholder syntax and schema.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/musui/musui-server/internal/model"
	"github.com/musui/musui-server/internal/store"
)

// Dialect captures what differs between SQL backends.
type Dialect struct {
	Name string
	// Numbered rewrites ? placeholders as $1, $2, ...
	Numbered bool
}

var (
	Postgres = Dialect{Name: "postgres", Numbered: true}
	SQLite   = Dialect{Name: "sqlite"}
)

// Rebind rewrites ? placeholders for the dialect.
func (d Dialect) Rebind(query string) string {
	if !d.Numbered {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// New returns a store backed by db.
func New(db *sql.DB, d Dialect) *Store {
	return &Store{db: db, d: d}
}

type Store struct {
	db *sql.DB
	d  Dialect
}

func (s *Store) Archives() store.Archives { return &archives{db: s.db, d: s.d} }
func (s *Store) Profiles() store.Profiles { return &profiles{db: s.db, d: s.d} }

// HealthPing implements health.HealthPinger.
func (s *Store) HealthPing(ctx context.Context) error { return s.db.PingContext(ctx) }

// DB exposes the underlying handle for health probes and tests.
func (s *Store) DB() *sql.DB { return s.db }

func (s *Store) Close() error { return s.db.Close() }

// --- Archives ---

type archives struct {
	db *sql.DB
	d  Dialect
}

const selectArchive = `
        SELECT a.id, a.user_id, a.created_at, a.is_public,
               i.item_index, i.course_id, i.laps, i.mood, i.memo, i.photo_url,
               i.tea_name, i.tea_type, i.origin, i.brand_or_purchase, i.infusion_notes
        FROM archives a
        LEFT JOIN archive_items i ON i.archive_id = a.id
`

const orderArchives = `
        ORDER BY a.created_at DESC, a.id DESC, i.item_index ASC
`

func (r *archives) Create(ctx context.Context, a *model.Archive) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, r.d.Rebind(`
        INSERT INTO archives (id, user_id, is_public, created_at)
        VALUES (?,?,?,?)
    `), a.ID, a.OwnerID, a.IsPublic, a.CreatedAt.UTC()); err != nil {
		return fmt.Errorf("insert archive: %w", err)
	}

	insertItem := r.d.Rebind(`
        INSERT INTO archive_items (archive_id, item_index, course_id, laps, mood, memo, photo_url,
                                   tea_name, tea_type, origin, brand_or_purchase, infusion_notes)
        VALUES (?,?,?,?,?,?,?,?,?,?,?,?)
    `)
	for idx, it := range a.Items {
		row, err := EncodeItem(it)
		if err != nil {
			return fmt.Errorf("encode item %d: %w", idx, err)
		}
		if _, err := tx.ExecContext(ctx, insertItem,
			a.ID, idx, row.CourseID, row.Laps, row.Mood, row.Memo, row.PhotoURL,
			row.TeaName, row.TeaType, row.Origin, row.BrandOrPurchase, row.InfusionNotes,
		); err != nil {
			return fmt.Errorf("insert item %d: %w", idx, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (r *archives) ListByOwner(ctx context.Context, ownerID string) ([]*model.Archive, error) {
	return r.query(ctx, selectArchive+` WHERE a.user_id = ?`+orderArchives, ownerID)
}

func (r *archives) ListPublic(ctx context.Context) ([]*model.Archive, error) {
	return r.query(ctx, selectArchive+` WHERE a.is_public = ?`+orderArchives, true)
}

func (r *archives) GetVisible(ctx context.Context, id, callerID string) (*model.Archive, error) {
	out, err := r.query(ctx, selectArchive+` WHERE a.id = ? AND (a.is_public = ? OR a.user_id = ?)`+orderArchives,
		id, true, callerID)
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, model.ErrNotFound
	}
	return out[0], nil
}

func (r *archives) SetVisibility(ctx context.Context, ownerID, id string, isPublic bool) (int64, error) {
	res, err := r.db.ExecContext(ctx, r.d.Rebind(`
        UPDATE archives SET is_public = ? WHERE id = ? AND user_id = ?
    `), isPublic, id, ownerID)
	if err != nil {
		return 0, fmt.Errorf("update visibility: %w", err)
	}
	return res.RowsAffected()
}

func (r *archives) Delete(ctx context.Context, ownerID, id string) (int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, r.d.Rebind(`
        DELETE FROM archive_items
        WHERE archive_id IN (SELECT id FROM archives WHERE id = ? AND user_id = ?)
    `), id, ownerID); err != nil {
		return 0, fmt.Errorf("delete items: %w", err)
	}
	res, err := tx.ExecContext(ctx, r.d.Rebind(`
        DELETE FROM archives WHERE id = ? AND user_id = ?
    `), id, ownerID)
	if err != nil {
		return 0, fmt.Errorf("delete archive: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return n, nil
}

func (r *archives) query(ctx context.Context, q string, args ...any) ([]*model.Archive, error) {
	rows, err := r.db.QueryContext(ctx, r.d.Rebind(q), args...)
	if err != nil {
		return nil, fmt.Errorf("query archives: %w", err)
	}
	defer rows.Close()

	var out []*model.Archive
	byID := map[string]*model.Archive{}
	indexes := map[string][]int{}
	for rows.Next() {
		var (
			id, owner string
			created   time.Time
			isPublic  bool
			idx       sql.NullInt64
			row       ItemRow
		)
		if err := rows.Scan(&id, &owner, &created, &isPublic,
			&idx, &row.CourseID, &row.Laps, &row.Mood, &row.Memo, &row.PhotoURL,
			&row.TeaName, &row.TeaType, &row.Origin, &row.BrandOrPurchase, &row.InfusionNotes,
		); err != nil {
			return nil, fmt.Errorf("scan archive: %w", err)
		}
		a, ok := byID[id]
		if !ok {
			a = &model.Archive{ID: id, OwnerID: owner, CreatedAt: created.UTC(), IsPublic: isPublic, Items: model.Items{}}
			byID[id] = a
			out = append(out, a)
		}
		if !idx.Valid {
			continue
		}
		it, err := row.Decode()
		if err != nil {
			return nil, fmt.Errorf("decode item %s/%d: %w", id, idx.Int64, err)
		}
		a.Items = append(a.Items, it)
		indexes[id] = append(indexes[id], int(idx.Int64))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate archives: %w", err)
	}
	for _, a := range out {
		sortByIndex(a.Items, indexes[a.ID])
	}
	return out, nil
}

// sortByIndex orders items by their stored index regardless of row order.
func sortByIndex(items model.Items, idx []int) {
	if sort.IntsAreSorted(idx) {
		return
	}
	sort.Sort(byIndex{items: items, idx: idx})
}

type byIndex struct {
	items model.Items
	idx   []int
}

func (b byIndex) Len() int           { return len(b.idx) }
func (b byIndex) Less(i, j int) bool { return b.idx[i] < b.idx[j] }
func (b byIndex) Swap(i, j int) {
	b.idx[i], b.idx[j] = b.idx[j], b.idx[i]
	b.items[i], b.items[j] = b.items[j], b.items[i]
}

// --- Profiles ---

type profiles struct {
	db *sql.DB
	d  Dialect
}

func (p *profiles) Get(ctx context.Context, userID string) (*model.Profile, error) {
	var (
		out     model.Profile
		email   sql.NullString
		name    sql.NullString
		updated time.Time
	)
	row := p.db.QueryRowContext(ctx, p.d.Rebind(`
        SELECT id, email, display_name, updated_at FROM profiles WHERE id = ?
    `), userID)
	if err := row.Scan(&out.ID, &email, &name, &updated); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrNotFound
		}
		return nil, fmt.Errorf("get profile: %w", err)
	}
	out.Email = nullable(email)
	out.DisplayName = nullable(name)
	out.UpdatedAt = updated.UTC()
	return &out, nil
}

func (p *profiles) Upsert(ctx context.Context, m *model.Profile) error {
	_, err := p.db.ExecContext(ctx, p.d.Rebind(`
        INSERT INTO profiles (id, email, display_name, updated_at)
        VALUES (?,?,?,?)
        ON CONFLICT (id) DO UPDATE SET
            email = COALESCE(excluded.email, profiles.email),
            display_name = excluded.display_name,
            updated_at = excluded.updated_at
    `), m.ID, m.Email, m.DisplayName, m.UpdatedAt.UTC())
	if err != nil {
		return fmt.Errorf("upsert profile: %w", err)
	}
	return nil
}

func (p *profiles) DisplayNames(ctx context.Context, userIDs []string) (map[string]*string, error) {
	out := make(map[string]*string, len(userIDs))
	if len(userIDs) == 0 {
		return out, nil
	}
	args := make([]any, len(userIDs))
	for i, id := range userIDs {
		args[i] = id
	}
	q := `SELECT id, display_name FROM profiles WHERE id IN (` + placeholders(len(userIDs)) + `)`
	rows, err := p.db.QueryContext(ctx, p.d.Rebind(q), args...)
	if err != nil {
		return nil, fmt.Errorf("display names: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var id string
		var name sql.NullString
		if err := rows.Scan(&id, &name); err != nil {
			return nil, fmt.Errorf("scan display name: %w", err)
		}
		out[id] = nullable(name)
	}
	return out, rows.Err()
}

func (p *profiles) DisplayNameOwner(ctx context.Context, name string) (string, error) {
	var id string
	err := p.db.QueryRowContext(ctx, p.d.Rebind(`
        SELECT id FROM profiles WHERE display_name = ? LIMIT 1
    `), name).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("display name owner: %w", err)
	}
	return id, nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func nullable(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	v := s.String
	return &v
}
