package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	// ManualCourseID marks a manual item in wire and storage encodings.
	ManualCourseID = "manual"

	DefaultTeaName = "이름 없음"
	DefaultTeaType = "기타"

	// Blank is what display fields fall back to when a value is absent.
	Blank = "—"

	manualIDPrefix  = "manual-"
	sessionIDPrefix = "sess_"
)

// DefaultLaps is used when a manual payload omits laps.
func DefaultLaps() []int { return []int{0, 0, 0} }

// User is the identity resolved from the auth provider.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Profile holds the mutable, user-facing identity attributes.
type Profile struct {
	ID          string    `json:"id"`
	Email       *string   `json:"email"`
	DisplayName *string   `json:"displayName"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Archive is one finished brewing session or manual entry.
type Archive struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"-"`
	CreatedAt time.Time `json:"createdAt"`
	IsPublic  bool      `json:"isPublic"`
	Items     Items     `json:"items"`
}

// Clone returns a deep copy so callers cannot mutate shared state.
func (a *Archive) Clone() *Archive {
	if a == nil {
		return nil
	}
	out := *a
	out.Items = make(Items, len(a.Items))
	for i, it := range a.Items {
		out.Items[i] = RecordOf(it).Item()
	}
	return &out
}

// WithoutInfusionNotes returns a copy whose manual items carry no infusion notes.
// List endpoints return this shape; detail endpoints return the full archive.
func (a *Archive) WithoutInfusionNotes() *Archive {
	out := a.Clone()
	for i, it := range out.Items {
		if m, ok := it.(ManualItem); ok {
			m.InfusionNotes = nil
			out.Items[i] = m
		}
	}
	return out
}

// PublicArchive is an archive as it appears in the community feed source.
type PublicArchive struct {
	Archive
	AuthorDisplayName *string `json:"authorDisplayName"`
}

// ManualInput is the payload of a free-form tea record.
type ManualInput struct {
	TeaName         string         `json:"teaName"`
	TeaType         string         `json:"teaType"`
	Origin          string         `json:"origin,omitempty"`
	BrandOrPurchase string         `json:"brandOrPurchase,omitempty"`
	Laps            []int          `json:"laps"`
	InfusionNotes   []InfusionNote `json:"infusionNotes"`
	PhotoDataURL    string         `json:"photoDataUrl,omitempty"`
	IsPublic        bool           `json:"isPublic"`
}

// NewManualArchive wraps a single manual entry in a fresh archive.
// Empty names and types are replaced with their defaults.
func NewManualArchive(in ManualInput, now time.Time) *Archive {
	return &Archive{
		ID:        NewArchiveID(manualIDPrefix),
		CreatedAt: now.UTC(),
		IsPublic:  in.IsPublic,
		Items:     Items{in.Item()},
	}
}

// NewSessionArchive wraps the items of a guided session. Sessions start private.
func NewSessionArchive(items Items, now time.Time) *Archive {
	return &Archive{
		ID:        NewArchiveID(sessionIDPrefix),
		CreatedAt: now.UTC(),
		IsPublic:  false,
		Items:     items,
	}
}

// NewArchiveID returns a time-ordered id with the given prefix.
func NewArchiveID(prefix string) string {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return prefix + id.String()
}
