package services

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/musui/musui-server/internal/model"
	"github.com/musui/musui-server/internal/store"
)

// --- Fakes ---

type fakeStore struct {
	mu       sync.Mutex
	archives map[string]*model.Archive
	profiles map[string]*model.Profile
	fail     error
	namesErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{archives: map[string]*model.Archive{}, profiles: map[string]*model.Profile{}}
}

func (f *fakeStore) Archives() store.Archives { return fakeArchives{f} }
func (f *fakeStore) Profiles() store.Profiles { return fakeProfiles{f} }

type fakeArchives struct{ f *fakeStore }

func (r fakeArchives) Create(_ context.Context, a *model.Archive) error {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	if r.f.fail != nil {
		return r.f.fail
	}
	r.f.archives[a.ID] = a.Clone()
	r.f.archives[a.ID].OwnerID = a.OwnerID
	return nil
}

func (r fakeArchives) sorted(keep func(*model.Archive) bool) []*model.Archive {
	var out []*model.Archive
	for _, a := range r.f.archives {
		if keep(a) {
			c := a.Clone()
			c.OwnerID = a.OwnerID
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (r fakeArchives) ListByOwner(_ context.Context, ownerID string) ([]*model.Archive, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	if r.f.fail != nil {
		return nil, r.f.fail
	}
	return r.sorted(func(a *model.Archive) bool { return a.OwnerID == ownerID }), nil
}

func (r fakeArchives) ListPublic(_ context.Context) ([]*model.Archive, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	if r.f.fail != nil {
		return nil, r.f.fail
	}
	return r.sorted(func(a *model.Archive) bool { return a.IsPublic }), nil
}

func (r fakeArchives) GetVisible(_ context.Context, id, callerID string) (*model.Archive, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	if r.f.fail != nil {
		return nil, r.f.fail
	}
	a, ok := r.f.archives[id]
	if !ok || !(a.IsPublic || (callerID != "" && a.OwnerID == callerID)) {
		return nil, model.ErrNotFound
	}
	return a.Clone(), nil
}

func (r fakeArchives) SetVisibility(_ context.Context, ownerID, id string, isPublic bool) (int64, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	if r.f.fail != nil {
		return 0, r.f.fail
	}
	a, ok := r.f.archives[id]
	if !ok || a.OwnerID != ownerID {
		return 0, nil
	}
	a.IsPublic = isPublic
	return 1, nil
}

func (r fakeArchives) Delete(_ context.Context, ownerID, id string) (int64, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	if r.f.fail != nil {
		return 0, r.f.fail
	}
	a, ok := r.f.archives[id]
	if !ok || a.OwnerID != ownerID {
		return 0, nil
	}
	delete(r.f.archives, id)
	return 1, nil
}

type fakeProfiles struct{ f *fakeStore }

func (p fakeProfiles) Get(_ context.Context, userID string) (*model.Profile, error) {
	p.f.mu.Lock()
	defer p.f.mu.Unlock()
	pr, ok := p.f.profiles[userID]
	if !ok {
		return nil, model.ErrNotFound
	}
	c := *pr
	return &c, nil
}

func (p fakeProfiles) Upsert(_ context.Context, m *model.Profile) error {
	p.f.mu.Lock()
	defer p.f.mu.Unlock()
	if p.f.fail != nil {
		return p.f.fail
	}
	c := *m
	if old, ok := p.f.profiles[m.ID]; ok && c.Email == nil {
		c.Email = old.Email
	}
	p.f.profiles[m.ID] = &c
	return nil
}

func (p fakeProfiles) DisplayNames(_ context.Context, ids []string) (map[string]*string, error) {
	p.f.mu.Lock()
	defer p.f.mu.Unlock()
	if p.f.namesErr != nil {
		return nil, p.f.namesErr
	}
	out := map[string]*string{}
	for _, id := range ids {
		if pr, ok := p.f.profiles[id]; ok {
			out[id] = pr.DisplayName
		}
	}
	return out, nil
}

func (p fakeProfiles) DisplayNameOwner(_ context.Context, name string) (string, error) {
	p.f.mu.Lock()
	defer p.f.mu.Unlock()
	if p.f.fail != nil {
		return "", p.f.fail
	}
	for id, pr := range p.f.profiles {
		if pr.DisplayName != nil && *pr.DisplayName == name {
			return id, nil
		}
	}
	return "", nil
}

type fakeDirectory struct {
	emails map[string]bool
	err    error
}

func (d fakeDirectory) EmailRegistered(_ context.Context, email string) (bool, error) {
	if d.err != nil {
		return false, d.err
	}
	return d.emails[email], nil
}

var errBackend = errors.New("connection refused")

func strptr(s string) *string { return &s }
