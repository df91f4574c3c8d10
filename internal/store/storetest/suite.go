package storetest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/musui/musui-server/internal/model"
	"github.com/musui/musui-server/internal/store"
)

// Run exercises a compliance suite against a store.Store implementation.
// Implementations should provide a clean, isolated store and return it from makeStore.
func Run(t *testing.T, makeStore func(t *testing.T) store.Store) {
	t.Helper()

	s := makeStore(t)
	ctx := context.Background()

	// Unique owners so shared databases do not interfere
	owner := "u-" + uuid.New().String()
	other := "u-" + uuid.New().String()
	base := time.Now().UTC().Truncate(time.Second)

	body := 6
	manual := model.NewManualArchive(model.ManualInput{
		TeaName:       "Dancong",
		TeaType:       "Oolong",
		Origin:        "Chaozhou",
		Laps:          []int{20, 25, 40},
		InfusionNotes: []model.InfusionNote{{Aroma: "honey", Body: &body}, {Aftertaste: "long"}},
		PhotoDataURL:  "data:image/png;base64,AA==",
		IsPublic:      false,
	}, base)
	manual.OwnerID = owner

	session := model.NewSessionArchive(model.Items{
		model.GuidedItem{Course: "course-1", Laps: []int{20, 15}, Mood: "calm", Memo: "floral"},
		model.GuidedItem{Course: "course-2", Laps: []int{}},
		model.GuidedItem{Course: "course-3", Laps: []int{30}, PhotoDataURL: "data:image/jpeg;base64,BB=="},
	}, base.Add(time.Minute))
	session.OwnerID = owner

	foreign := model.NewManualArchive(model.ManualInput{TeaName: "Sencha", IsPublic: true}, base.Add(2*time.Minute))
	foreign.OwnerID = other

	for _, a := range []*model.Archive{manual, session, foreign} {
		if err := s.Archives().Create(ctx, a); err != nil {
			t.Fatalf("Create %s: %v", a.ID, err)
		}
	}

	// ListByOwner: newest first, only mine, items in order
	mine, err := s.Archives().ListByOwner(ctx, owner)
	if err != nil {
		t.Fatalf("ListByOwner: %v", err)
	}
	if len(mine) != 2 || mine[0].ID != session.ID || mine[1].ID != manual.ID {
		t.Fatalf("ListByOwner: got %v", ids(mine))
	}
	if len(mine[0].Items) != 3 {
		t.Fatalf("ListByOwner items: n=%d", len(mine[0].Items))
	}
	for i, want := range []string{"course-1", "course-2", "course-3"} {
		if got := mine[0].Items[i].CourseID(); got != want {
			t.Fatalf("item %d course: got %s want %s", i, got, want)
		}
	}
	if !mine[0].CreatedAt.Equal(session.CreatedAt) {
		t.Fatalf("createdAt: got %v want %v", mine[0].CreatedAt, session.CreatedAt)
	}

	// Round trip of manual fields
	got, err := s.Archives().GetVisible(ctx, manual.ID, owner)
	if err != nil {
		t.Fatalf("GetVisible owner: %v", err)
	}
	m, ok := got.Items[0].(model.ManualItem)
	if !ok {
		t.Fatalf("GetVisible: item is %T", got.Items[0])
	}
	want := manual.Items[0].(model.ManualItem)
	if m.TeaName != want.TeaName || m.TeaType != want.TeaType || m.Origin != want.Origin || m.BrandOrPurchase != "" {
		t.Fatalf("manual fields: got %+v want %+v", m, want)
	}
	if !equalInts(m.Laps, want.Laps) {
		t.Fatalf("laps: got %v want %v", m.Laps, want.Laps)
	}
	if len(m.InfusionNotes) != 2 || m.InfusionNotes[0].Aroma != "honey" || m.InfusionNotes[0].Body == nil || *m.InfusionNotes[0].Body != 6 || m.InfusionNotes[1].Aftertaste != "long" {
		t.Fatalf("infusion notes: got %+v", m.InfusionNotes)
	}
	if m.PhotoDataURL != want.PhotoDataURL {
		t.Fatalf("photo: got %q", m.PhotoDataURL)
	}

	// Body scores are stored as given, in or out of the 1..7 scale
	zero, negative, high := 0, -3, 99
	scored := model.NewManualArchive(model.ManualInput{
		TeaName:       "Pu-erh",
		InfusionNotes: []model.InfusionNote{{Body: &zero}, {Body: &negative}, {Body: &high}, {Aroma: "earth"}},
	}, base.Add(-time.Minute))
	scored.OwnerID = owner
	if err := s.Archives().Create(ctx, scored); err != nil {
		t.Fatalf("Create scored: %v", err)
	}
	got, err = s.Archives().GetVisible(ctx, scored.ID, owner)
	if err != nil {
		t.Fatalf("GetVisible scored: %v", err)
	}
	notes := got.Items[0].(model.ManualItem).InfusionNotes
	if len(notes) != 4 {
		t.Fatalf("scored notes: got %+v", notes)
	}
	for i, want := range []int{zero, negative, high} {
		if notes[i].Body == nil || *notes[i].Body != want {
			t.Fatalf("note %d body: got %v want %d", i, notes[i].Body, want)
		}
	}
	if notes[3].Body != nil || notes[3].Aroma != "earth" {
		t.Fatalf("note 3: got %+v", notes[3])
	}
	if n, err := s.Archives().Delete(ctx, owner, scored.ID); err != nil || n != 1 {
		t.Fatalf("Delete scored: n=%d err=%v", n, err)
	}

	// Private archives are invisible to others
	if _, err := s.Archives().GetVisible(ctx, manual.ID, other); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("GetVisible stranger: want ErrNotFound, got %v", err)
	}
	if _, err := s.Archives().GetVisible(ctx, manual.ID, ""); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("GetVisible anonymous: want ErrNotFound, got %v", err)
	}
	if _, err := s.Archives().GetVisible(ctx, foreign.ID, owner); err != nil {
		t.Fatalf("GetVisible public: %v", err)
	}

	// SetVisibility scoped by owner, idempotent
	if n, err := s.Archives().SetVisibility(ctx, other, manual.ID, true); err != nil || n != 0 {
		t.Fatalf("SetVisibility non-owner: n=%d err=%v", n, err)
	}
	for i := 0; i < 2; i++ {
		if n, err := s.Archives().SetVisibility(ctx, owner, manual.ID, true); err != nil || n != 1 {
			t.Fatalf("SetVisibility #%d: n=%d err=%v", i, n, err)
		}
	}

	pub, err := s.Archives().ListPublic(ctx)
	if err != nil {
		t.Fatalf("ListPublic: %v", err)
	}
	if !containsID(pub, manual.ID) || !containsID(pub, foreign.ID) || containsID(pub, session.ID) {
		t.Fatalf("ListPublic: got %v", ids(pub))
	}
	for _, a := range pub {
		if !a.IsPublic {
			t.Fatalf("ListPublic returned private archive %s", a.ID)
		}
	}

	if _, err := s.Archives().SetVisibility(ctx, owner, manual.ID, false); err != nil {
		t.Fatalf("SetVisibility false: %v", err)
	}
	pub, _ = s.Archives().ListPublic(ctx)
	if containsID(pub, manual.ID) {
		t.Fatalf("ListPublic still contains %s after unpublish", manual.ID)
	}

	// Delete scoped by owner, items go with the archive
	if n, err := s.Archives().Delete(ctx, other, session.ID); err != nil || n != 0 {
		t.Fatalf("Delete non-owner: n=%d err=%v", n, err)
	}
	if n, err := s.Archives().Delete(ctx, owner, session.ID); err != nil || n != 1 {
		t.Fatalf("Delete: n=%d err=%v", n, err)
	}
	if _, err := s.Archives().GetVisible(ctx, session.ID, owner); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("GetVisible after delete: %v", err)
	}
	if n, err := s.Archives().Delete(ctx, owner, session.ID); err != nil || n != 0 {
		t.Fatalf("Delete twice: n=%d err=%v", n, err)
	}

	// Profiles
	if _, err := s.Profiles().Get(ctx, owner); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("Get missing profile: %v", err)
	}
	email := owner + "@example.test"
	name := "leaf-" + owner[2:10]
	if err := s.Profiles().Upsert(ctx, &model.Profile{ID: owner, Email: &email, DisplayName: &name, UpdatedAt: base}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if err := s.Profiles().Upsert(ctx, &model.Profile{ID: owner, DisplayName: &name, UpdatedAt: base.Add(time.Second)}); err != nil {
		t.Fatalf("Upsert again: %v", err)
	}
	p, err := s.Profiles().Get(ctx, owner)
	if err != nil || p.DisplayName == nil || *p.DisplayName != name || p.Email == nil || *p.Email != email {
		t.Fatalf("Get profile: got=%+v err=%v", p, err)
	}
	if id, err := s.Profiles().DisplayNameOwner(ctx, name); err != nil || id != owner {
		t.Fatalf("DisplayNameOwner: id=%q err=%v", id, err)
	}
	if id, err := s.Profiles().DisplayNameOwner(ctx, "free-"+uuid.New().String()); err != nil || id != "" {
		t.Fatalf("DisplayNameOwner free: id=%q err=%v", id, err)
	}
	names, err := s.Profiles().DisplayNames(ctx, []string{owner, other})
	if err != nil {
		t.Fatalf("DisplayNames: %v", err)
	}
	if names[owner] == nil || *names[owner] != name {
		t.Fatalf("DisplayNames owner: %v", names[owner])
	}
	if _, ok := names[other]; ok {
		t.Fatalf("DisplayNames: unexpected entry for %s", other)
	}

	// Clearing the display name stores NULL
	if err := s.Profiles().Upsert(ctx, &model.Profile{ID: owner, UpdatedAt: base.Add(2 * time.Second)}); err != nil {
		t.Fatalf("Upsert clear: %v", err)
	}
	names, _ = s.Profiles().DisplayNames(ctx, []string{owner})
	if v, ok := names[owner]; !ok || v != nil {
		t.Fatalf("DisplayNames after clear: ok=%v v=%v", ok, v)
	}
}

func ids(as []*model.Archive) []string {
	out := make([]string, len(as))
	for i, a := range as {
		out[i] = a.ID
	}
	return out
}

func containsID(as []*model.Archive, id string) bool {
	for _, a := range as {
		if a.ID == id {
			return true
		}
	}
	return false
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
