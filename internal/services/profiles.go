package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/musui/musui-server/internal/model"
	"github.com/musui/musui-server/internal/store"
)

// ProfileService reads and edits the caller's profile.
type ProfileService struct {
	store store.Store
	now   func() time.Time
}

func NewProfileService(s store.Store) *ProfileService {
	return &ProfileService{store: s, now: time.Now}
}

func (s *ProfileService) Configured() bool { return s.store != nil }

// Get returns the caller's profile, or nil when there is none.
func (s *ProfileService) Get(ctx context.Context, user *model.User) (*model.Profile, error) {
	if s.store == nil {
		return nil, model.ErrNotConfigured
	}
	if user == nil {
		return nil, nil
	}
	p, err := s.store.Profiles().Get(ctx, user.ID)
	if errors.Is(err, model.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, storageErr("profiles.get", err)
	}
	return p, nil
}

// NormalizeDisplayName trims name; an empty result clears the display name.
func NormalizeDisplayName(name *string) *string {
	if name == nil {
		return nil
	}
	v := strings.TrimSpace(*name)
	if v == "" {
		return nil
	}
	return &v
}

// SetDisplayName writes the caller's display name. A name held by another user
// is model.ErrConflict; the check is not transactional with the write.
func (s *ProfileService) SetDisplayName(ctx context.Context, user *model.User, name *string) error {
	if s.store == nil {
		return model.ErrNotConfigured
	}
	if user == nil {
		return model.ErrUnauthenticated
	}
	name = NormalizeDisplayName(name)
	if name != nil {
		owner, err := s.store.Profiles().DisplayNameOwner(ctx, *name)
		if err != nil {
			return storageErr("profiles.check_name", err)
		}
		if owner != "" && owner != user.ID {
			return model.ErrConflict
		}
	}
	p := &model.Profile{ID: user.ID, DisplayName: name, UpdatedAt: s.now().UTC()}
	if user.Email != "" {
		email := user.Email
		p.Email = &email
	}
	if err := s.store.Profiles().Upsert(ctx, p); err != nil {
		return storageErr("profiles.upsert", err)
	}
	return nil
}
