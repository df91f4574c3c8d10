package store

import (
	"context"

	"github.com/musui/musui-server/internal/model"
)

// Store exposes persistence operations required by services.
// Implementations live under internal/store/<driver>/ (postgres, sqlite, spanner).
type Store interface {
	Archives() Archives
	Profiles() Profiles
}

// Archives persists archives and their items. Every mutation is scoped by
// owner id and reports the number of archive rows it touched.
type Archives interface {
	// Create writes the archive row and one item row per item in a single transaction.
	Create(ctx context.Context, a *model.Archive) error
	// ListByOwner returns the owner's archives newest first, items ordered by index.
	ListByOwner(ctx context.Context, ownerID string) ([]*model.Archive, error)
	// GetVisible returns the archive when it is public or owned by callerID.
	// Anything else is model.ErrNotFound.
	GetVisible(ctx context.Context, id, callerID string) (*model.Archive, error)
	SetVisibility(ctx context.Context, ownerID, id string, isPublic bool) (int64, error)
	Delete(ctx context.Context, ownerID, id string) (int64, error)
	// ListPublic returns every public archive newest first.
	ListPublic(ctx context.Context) ([]*model.Archive, error)
}

type Profiles interface {
	// Get returns model.ErrNotFound when the user has no profile row.
	Get(ctx context.Context, userID string) (*model.Profile, error)
	// Upsert writes display name and timestamp, keeping a stored email when p.Email is nil.
	Upsert(ctx context.Context, p *model.Profile) error
	// DisplayNames resolves owner ids in one lookup. Ids without a profile are absent.
	DisplayNames(ctx context.Context, userIDs []string) (map[string]*string, error)
	// DisplayNameOwner returns the id holding name, or "" when it is free.
	DisplayNameOwner(ctx context.Context, name string) (string, error)
}
