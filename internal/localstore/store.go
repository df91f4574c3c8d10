// Package localstore is the in-process archive collection used when no remote
// backend is reachable or the caller is anonymous. It has a single implicit
// owner: the device or process holding it.
package localstore

import (
	"sync"
	"time"

	"github.com/musui/musui-server/internal/model"
)

// Store keeps archives in insertion order. All methods are safe for concurrent
// use and hand out deep copies.
type Store struct {
	mu       sync.RWMutex
	archives []*model.Archive
	now      func() time.Time
}

func New() *Store {
	return &Store{now: time.Now}
}

// Add appends a copy of the archive.
func (s *Store) Add(a *model.Archive) {
	if a == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.archives = append(s.archives, a.Clone())
}

// AddManual wraps the input as a one-item archive using the same defaults as
// the remote gateway and returns its id.
func (s *Store) AddManual(in model.ManualInput) (string, error) {
	if err := model.ValidateManualInput(in); err != nil {
		return "", err
	}
	a := model.NewManualArchive(in, s.now())
	s.Add(a)
	return a.ID, nil
}

// List returns every archive in insertion order.
func (s *Store) List() []*model.Archive {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*model.Archive, 0, len(s.archives))
	for _, a := range s.archives {
		out = append(out, a.Clone())
	}
	return out
}

// ListPublic returns the public archives in insertion order.
func (s *Store) ListPublic() []*model.Archive {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*model.Archive
	for _, a := range s.archives {
		if a.IsPublic {
			out = append(out, a.Clone())
		}
	}
	return out
}

func (s *Store) Get(id string) (*model.Archive, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, a := range s.archives {
		if a.ID == id {
			return a.Clone(), true
		}
	}
	return nil, false
}

// TogglePublic sets the visibility of id. Unknown ids are ignored.
func (s *Store) TogglePublic(id string, isPublic bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.archives {
		if a.ID == id {
			a.IsPublic = isPublic
			return
		}
	}
}

// Len reports the number of archives.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.archives)
}
