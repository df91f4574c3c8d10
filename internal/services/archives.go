package services

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/musui/musui-server/internal/metrics"
	"github.com/musui/musui-server/internal/model"
	"github.com/musui/musui-server/internal/store"
)

// ArchiveService is the remote archive gateway. Ownership is never checked here:
// the store scopes every mutation by owner id and a zero row count means the
// archive does not exist for this caller.
type ArchiveService struct {
	store store.Store
	log   zerolog.Logger
	now   func() time.Time
}

// NewArchiveService returns a service over s. A nil store means storage is not
// configured: reads come back empty and writes fail with model.ErrNotConfigured.
func NewArchiveService(s store.Store, log zerolog.Logger) *ArchiveService {
	return &ArchiveService{store: s, log: log, now: time.Now}
}

// Configured reports whether a store is attached.
func (s *ArchiveService) Configured() bool { return s.store != nil }

func (s *ArchiveService) writable(user *model.User) error {
	if s.store == nil {
		return model.ErrNotConfigured
	}
	if user == nil {
		return model.ErrUnauthenticated
	}
	return nil
}

// CreateManual stores a one-item archive for a free-form tea record.
func (s *ArchiveService) CreateManual(ctx context.Context, user *model.User, in model.ManualInput) (string, error) {
	if err := s.writable(user); err != nil {
		return "", err
	}
	if err := model.ValidateManualInput(in); err != nil {
		return "", err
	}
	a := model.NewManualArchive(in, s.now())
	a.OwnerID = user.ID
	if err := s.store.Archives().Create(ctx, a); err != nil {
		return "", storageErr("archives.create_manual", err)
	}
	metrics.ArchivesCreated.WithLabelValues("manual").Inc()
	return a.ID, nil
}

// CreateSession stores the items of a finished guided session as a private archive.
func (s *ArchiveService) CreateSession(ctx context.Context, user *model.User, items model.Items) (string, error) {
	if err := s.writable(user); err != nil {
		return "", err
	}
	if err := model.ValidateItems(items); err != nil {
		return "", err
	}
	a := model.NewSessionArchive(items, s.now())
	a.OwnerID = user.ID
	if err := s.store.Archives().Create(ctx, a); err != nil {
		return "", storageErr("archives.create_session", err)
	}
	metrics.ArchivesCreated.WithLabelValues("session").Inc()
	return a.ID, nil
}

// ListMine returns the caller's archives newest first without infusion notes.
// Anonymous callers and an unconfigured store get an empty list.
func (s *ArchiveService) ListMine(ctx context.Context, user *model.User) ([]*model.Archive, error) {
	out := []*model.Archive{}
	if s.store == nil || user == nil {
		return out, nil
	}
	list, err := s.store.Archives().ListByOwner(ctx, user.ID)
	if err != nil {
		return out, storageErr("archives.list_mine", err)
	}
	for _, a := range list {
		out = append(out, a.WithoutInfusionNotes())
	}
	return out, nil
}

// Get returns the full archive when the caller owns it or it is public.
func (s *ArchiveService) Get(ctx context.Context, id string, caller *model.User) (*model.Archive, error) {
	if s.store == nil {
		return nil, model.ErrNotConfigured
	}
	callerID := ""
	if caller != nil {
		callerID = caller.ID
	}
	a, err := s.store.Archives().GetVisible(ctx, id, callerID)
	if err != nil {
		return nil, storageErr("archives.get", err)
	}
	return a, nil
}

// SetVisibility publishes or unpublishes an owned archive. Repeating the
// current value succeeds.
func (s *ArchiveService) SetVisibility(ctx context.Context, user *model.User, id string, isPublic bool) error {
	if err := s.writable(user); err != nil {
		return err
	}
	n, err := s.store.Archives().SetVisibility(ctx, user.ID, id, isPublic)
	if err != nil {
		return storageErr("archives.set_visibility", err)
	}
	if n == 0 {
		return model.ErrNotFound
	}
	metrics.VisibilityChanges.Inc()
	return nil
}

// Delete removes an owned archive and its items.
func (s *ArchiveService) Delete(ctx context.Context, user *model.User, id string) error {
	if err := s.writable(user); err != nil {
		return err
	}
	n, err := s.store.Archives().Delete(ctx, user.ID, id)
	if err != nil {
		return storageErr("archives.delete", err)
	}
	if n == 0 {
		return model.ErrNotFound
	}
	metrics.ArchivesDeleted.Inc()
	return nil
}

// ListPublic returns every public archive newest first, annotated with the
// owner's current display name. Names are resolved in one batch; a failed
// lookup leaves every name null rather than failing the listing.
func (s *ArchiveService) ListPublic(ctx context.Context) ([]*model.PublicArchive, error) {
	out := []*model.PublicArchive{}
	if s.store == nil {
		return out, nil
	}
	list, err := s.store.Archives().ListPublic(ctx)
	if err != nil {
		return out, storageErr("archives.list_public", err)
	}
	if len(list) == 0 {
		return out, nil
	}

	seen := make(map[string]bool, len(list))
	owners := make([]string, 0, len(list))
	for _, a := range list {
		if !seen[a.OwnerID] {
			seen[a.OwnerID] = true
			owners = append(owners, a.OwnerID)
		}
	}
	names, err := s.store.Profiles().DisplayNames(ctx, owners)
	if err != nil {
		s.log.Warn().Err(err).Int("owners", len(owners)).Msg("display name lookup failed")
		names = nil
	}

	for _, a := range list {
		out = append(out, &model.PublicArchive{Archive: *a, AuthorDisplayName: names[a.OwnerID]})
	}
	return out, nil
}
