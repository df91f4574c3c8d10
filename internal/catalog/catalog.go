// Package catalog holds the static course catalog and the placeholder posts
// that pad the community feed.
package catalog

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalog []byte

// Course is one step of a guided tasting session.
type Course struct {
	ID                string `yaml:"id" json:"id"`
	Title             string `yaml:"title" json:"title"`
	Subtitle          string `yaml:"subtitle" json:"subtitle"`
	Guide             string `yaml:"guide" json:"guide"`
	SuggestedLapsHint string `yaml:"suggested_laps_hint" json:"suggestedLapsHint"`
	PosterSrc         string `yaml:"poster_src" json:"posterSrc"`
	VenueKicker       string `yaml:"venue_kicker,omitempty" json:"venueKicker,omitempty"`
}

// Placeholder is a static community post shown after real archives.
type Placeholder struct {
	ID              string  `yaml:"id" json:"id"`
	TitleType       string  `yaml:"title_type" json:"titleType"`
	Title           string  `yaml:"title" json:"title"`
	Category        string  `yaml:"category" json:"category"`
	Origin          string  `yaml:"origin" json:"origin"`
	BrandOrPurchase string  `yaml:"brand_or_purchase" json:"brandOrPurchase"`
	ImageURL        *string `yaml:"image_url,omitempty" json:"imageUrl"`
}

// Catalog is immutable after load and safe for concurrent use.
type Catalog struct {
	courses      []Course
	placeholders []Placeholder
	byID         map[string]int
}

type document struct {
	Courses      []Course      `yaml:"courses"`
	Placeholders []Placeholder `yaml:"placeholders"`
}

// Default returns the embedded catalog.
func Default() *Catalog {
	c, err := Parse(defaultCatalog)
	if err != nil {
		panic(fmt.Sprintf("embedded catalog: %v", err))
	}
	return c
}

// Load reads a catalog file, or the embedded catalog when path is empty.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %q: %w", path, err)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse catalog %q: %w", path, err)
	}
	return c, nil
}

// Parse decodes a YAML catalog. Courses keep their file order.
func Parse(data []byte) (*Catalog, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if len(doc.Courses) == 0 {
		return nil, fmt.Errorf("catalog has no courses")
	}
	c := &Catalog{
		courses:      doc.Courses,
		placeholders: doc.Placeholders,
		byID:         make(map[string]int, len(doc.Courses)),
	}
	for i, course := range doc.Courses {
		if course.ID == "" {
			return nil, fmt.Errorf("course %d has no id", i)
		}
		if _, dup := c.byID[course.ID]; dup {
			return nil, fmt.Errorf("duplicate course id %q", course.ID)
		}
		c.byID[course.ID] = i
	}
	return c, nil
}

// Courses returns the ordered course list.
func (c *Catalog) Courses() []Course {
	out := make([]Course, len(c.courses))
	copy(out, c.courses)
	return out
}

func (c *Catalog) Len() int { return len(c.courses) }

// At returns the course at position i.
func (c *Catalog) At(i int) Course { return c.courses[i] }

// Index returns the position of the course id, or -1.
func (c *Catalog) Index(id string) int {
	if i, ok := c.byID[id]; ok {
		return i
	}
	return -1
}

func (c *Catalog) Course(id string) (Course, bool) {
	i := c.Index(id)
	if i < 0 {
		return Course{}, false
	}
	return c.courses[i], true
}

// CourseTitle implements model.CourseLookup.
func (c *Catalog) CourseTitle(id string) (string, bool) {
	course, ok := c.Course(id)
	if !ok {
		return "", false
	}
	return course.Title, true
}

func (c *Catalog) Placeholders() []Placeholder {
	out := make([]Placeholder, len(c.placeholders))
	copy(out, c.placeholders)
	return out
}
