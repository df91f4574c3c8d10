package model

import (
	"encoding/json"
	"strings"
)

// InfusionNote is the sensory note for one infusion. Body is 1 (light) to 7 (full)
// when produced by a client, but any value is stored as given.
type InfusionNote struct {
	Aroma      string `json:"aroma,omitempty"`
	Body       *int   `json:"body,omitempty"`
	Aftertaste string `json:"aftertaste,omitempty"`
}

// CourseLookup resolves a course id to its display title.
type CourseLookup interface {
	CourseTitle(id string) (string, bool)
}

// Description is the set of display fields shared by feed cards and detail views.
type Description struct {
	Title           string `json:"title"`
	Category        string `json:"category"`
	Origin          string `json:"origin"`
	BrandOrPurchase string `json:"brandOrPurchase"`
}

// Item is one tasting record inside an archive: a GuidedItem or a ManualItem.
type Item interface {
	CourseID() string
	LapSeconds() []int
	Photo() string
	Describe(courses CourseLookup) Description
	isItem()
}

// GuidedItem is the result of one course of a guided session.
type GuidedItem struct {
	Course       string
	Laps         []int
	Mood         string
	Memo         string
	PhotoDataURL string
}

func (g GuidedItem) CourseID() string  { return g.Course }
func (g GuidedItem) LapSeconds() []int { return g.Laps }
func (g GuidedItem) Photo() string     { return g.PhotoDataURL }
func (GuidedItem) isItem()             {}

// Describe takes the title from the course catalog and tolerates unknown ids.
func (g GuidedItem) Describe(courses CourseLookup) Description {
	title := g.Course
	if courses != nil {
		if t, ok := courses.CourseTitle(g.Course); ok {
			title = t
		}
	}
	return Description{
		Title:           title,
		Category:        orBlank(g.Mood),
		Origin:          Blank,
		BrandOrPurchase: Blank,
	}
}

// ManualItem is a free-form record that is not tied to a course.
type ManualItem struct {
	Laps            []int
	TeaName         string
	TeaType         string
	Origin          string
	BrandOrPurchase string
	InfusionNotes   []InfusionNote
	PhotoDataURL    string
}

func (m ManualItem) CourseID() string  { return ManualCourseID }
func (m ManualItem) LapSeconds() []int { return m.Laps }
func (m ManualItem) Photo() string     { return m.PhotoDataURL }
func (ManualItem) isItem()             {}

// Describe never consults the course catalog.
func (m ManualItem) Describe(CourseLookup) Description {
	title := m.TeaName
	if title == "" {
		title = DefaultTeaName
	}
	return Description{
		Title:           title,
		Category:        orBlank(m.TeaType),
		Origin:          orBlank(m.Origin),
		BrandOrPurchase: orBlank(m.BrandOrPurchase),
	}
}

// Item normalizes the payload into a ManualItem.
func (in ManualInput) Item() ManualItem {
	name := strings.TrimSpace(in.TeaName)
	if name == "" {
		name = DefaultTeaName
	}
	teaType := strings.TrimSpace(in.TeaType)
	if teaType == "" {
		teaType = DefaultTeaType
	}
	laps := in.Laps
	if laps == nil {
		laps = DefaultLaps()
	}
	notes := make([]InfusionNote, len(in.InfusionNotes))
	copy(notes, in.InfusionNotes)
	return ManualItem{
		Laps:            append([]int(nil), laps...),
		TeaName:         name,
		TeaType:         teaType,
		Origin:          strings.TrimSpace(in.Origin),
		BrandOrPurchase: strings.TrimSpace(in.BrandOrPurchase),
		InfusionNotes:   notes,
		PhotoDataURL:    in.PhotoDataURL,
	}
}

// ItemRecord is the flat encoding of an Item used on the wire and in storage rows.
type ItemRecord struct {
	CourseID        string         `json:"courseId"`
	Laps            []int          `json:"laps"`
	Mood            string         `json:"mood"`
	Memo            string         `json:"memo"`
	PhotoDataURL    string         `json:"photoDataUrl,omitempty"`
	TeaName         string         `json:"teaName,omitempty"`
	TeaType         string         `json:"teaType,omitempty"`
	Origin          string         `json:"origin,omitempty"`
	BrandOrPurchase string         `json:"brandOrPurchase,omitempty"`
	InfusionNotes   []InfusionNote `json:"infusionNotes"`
}

// RecordOf flattens an item. Manual items keep their type and name in mood and memo
// as well, which is what older rows and clients read.
func RecordOf(it Item) ItemRecord {
	switch v := it.(type) {
	case ManualItem:
		return ItemRecord{
			CourseID:        ManualCourseID,
			Laps:            cloneInts(v.Laps),
			Mood:            v.TeaType,
			Memo:            v.TeaName,
			PhotoDataURL:    v.PhotoDataURL,
			TeaName:         v.TeaName,
			TeaType:         v.TeaType,
			Origin:          v.Origin,
			BrandOrPurchase: v.BrandOrPurchase,
			InfusionNotes:   cloneNotes(v.InfusionNotes),
		}
	case GuidedItem:
		return ItemRecord{
			CourseID:      v.Course,
			Laps:          cloneInts(v.Laps),
			Mood:          v.Mood,
			Memo:          v.Memo,
			PhotoDataURL:  v.PhotoDataURL,
			InfusionNotes: []InfusionNote{},
		}
	default:
		return ItemRecord{}
	}
}

// Item restores the variant from its flat encoding.
func (r ItemRecord) Item() Item {
	if r.CourseID == ManualCourseID {
		name := r.TeaName
		if name == "" {
			name = r.Memo
		}
		return ManualItem{
			Laps:            cloneInts(r.Laps),
			TeaName:         name,
			TeaType:         r.TeaType,
			Origin:          r.Origin,
			BrandOrPurchase: r.BrandOrPurchase,
			InfusionNotes:   cloneNotes(r.InfusionNotes),
			PhotoDataURL:    r.PhotoDataURL,
		}
	}
	return GuidedItem{
		Course:       r.CourseID,
		Laps:         cloneInts(r.Laps),
		Mood:         r.Mood,
		Memo:         r.Memo,
		PhotoDataURL: r.PhotoDataURL,
	}
}

// Items is the ordered item list of an archive.
type Items []Item

func (s Items) MarshalJSON() ([]byte, error) {
	recs := make([]ItemRecord, len(s))
	for i, it := range s {
		recs[i] = RecordOf(it)
		if recs[i].Laps == nil {
			recs[i].Laps = []int{}
		}
		if recs[i].InfusionNotes == nil {
			recs[i].InfusionNotes = []InfusionNote{}
		}
	}
	return json.Marshal(recs)
}

func (s *Items) UnmarshalJSON(b []byte) error {
	var recs []ItemRecord
	if err := json.Unmarshal(b, &recs); err != nil {
		return err
	}
	out := make(Items, len(recs))
	for i, r := range recs {
		out[i] = r.Item()
	}
	*s = out
	return nil
}

func orBlank(s string) string {
	if s == "" {
		return Blank
	}
	return s
}

func cloneInts(in []int) []int {
	if in == nil {
		return nil
	}
	return append([]int{}, in...)
}

func cloneNotes(in []InfusionNote) []InfusionNote {
	if in == nil {
		return nil
	}
	out := make([]InfusionNote, len(in))
	for i, n := range in {
		out[i] = n
		if n.Body != nil {
			b := *n.Body
			out[i].Body = &b
		}
	}
	return out
}
