package localstore

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/musui/musui-server/internal/model"
)

func archive(id string, public bool) *model.Archive {
	return &model.Archive{
		ID:        id,
		CreatedAt: time.Now().UTC(),
		IsPublic:  public,
		Items:     model.Items{model.GuidedItem{Course: "course-1", Laps: []int{10}}},
	}
}

func TestListKeepsInsertionOrder(t *testing.T) {
	s := New()
	s.Add(archive("a", false))
	s.Add(archive("b", true))
	s.Add(archive("c", true))

	var ids []string
	for _, a := range s.List() {
		ids = append(ids, a.ID)
	}
	assert.Equal(t, []string{"a", "b", "c"}, ids)

	pub := s.ListPublic()
	require.Len(t, pub, 2)
	assert.Equal(t, "b", pub[0].ID)
}

func TestListReturnsCopies(t *testing.T) {
	s := New()
	s.Add(archive("a", false))

	got := s.List()
	got[0].IsPublic = true
	got[0].Items[0].LapSeconds()[0] = 99

	again, ok := s.Get("a")
	require.True(t, ok)
	assert.False(t, again.IsPublic)
	assert.Equal(t, 10, again.Items[0].LapSeconds()[0])
}

func TestTogglePublic(t *testing.T) {
	s := New()
	s.Add(archive("a", false))

	s.TogglePublic("missing", true)
	assert.Empty(t, s.ListPublic())

	s.TogglePublic("a", true)
	s.TogglePublic("a", true)
	require.Len(t, s.ListPublic(), 1)

	s.TogglePublic("a", false)
	assert.Empty(t, s.ListPublic())
}

func TestAddManual(t *testing.T) {
	s := New()
	id, err := s.AddManual(model.ManualInput{TeaName: "", TeaType: "", IsPublic: true})
	require.NoError(t, err)

	a, ok := s.Get(id)
	require.True(t, ok)
	m := a.Items[0].(model.ManualItem)
	assert.Equal(t, model.DefaultTeaName, m.TeaName)
	assert.Equal(t, model.DefaultTeaType, m.TeaType)
	assert.Equal(t, []int{0, 0, 0}, m.Laps)

	_, err = s.AddManual(model.ManualInput{Laps: []int{-1}})
	assert.True(t, errors.Is(err, model.ErrValidation))
	assert.Equal(t, 1, s.Len())
}

func TestConcurrentAdd(t *testing.T) {
	s := New()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Add(archive(model.NewArchiveID("sess_"), true))
			_ = s.ListPublic()
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, s.Len())
}

func TestRegistryEvictsIdleStores(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	r := NewRegistry(time.Minute, zerolog.Nop())
	r.now = func() time.Time { return now }

	a := r.For("dev-a")
	a.Add(archive("x", true))
	assert.Same(t, a, r.For("dev-a"))
	r.For("dev-b")

	now = now.Add(30 * time.Second)
	r.For("dev-a")
	now = now.Add(45 * time.Second)

	assert.Equal(t, 1, r.Sweep())
	assert.Equal(t, 1, r.Len())
	assert.Equal(t, 1, r.For("dev-a").Len())

	now = now.Add(2 * time.Minute)
	fresh := r.For("dev-a")
	assert.Equal(t, 0, fresh.Len())
}

func TestRegistryPeekNeverCreates(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	r := NewRegistry(time.Minute, zerolog.Nop())
	r.now = func() time.Time { return now }

	_, ok := r.Peek("dev-a")
	assert.False(t, ok)
	assert.Equal(t, 0, r.Len())

	a := r.For("dev-a")
	got, ok := r.Peek("dev-a")
	require.True(t, ok)
	assert.Same(t, a, got)

	// peeking counts as activity
	now = now.Add(45 * time.Second)
	r.Peek("dev-a")
	now = now.Add(45 * time.Second)
	assert.Equal(t, 0, r.Sweep())

	now = now.Add(2 * time.Minute)
	_, ok = r.Peek("dev-a")
	assert.False(t, ok)
	assert.Equal(t, 0, r.Len())
}
