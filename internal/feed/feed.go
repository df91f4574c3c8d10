// Package feed flattens public archives into community feed entries.
package feed

import (
	"fmt"

	"github.com/musui/musui-server/internal/catalog"
	"github.com/musui/musui-server/internal/model"
)

const titleTypeTea = "tea"

// Entry is one card of the community feed. Archive-backed entries carry the
// parent archive id and item index for deep links; placeholder posts do not.
type Entry struct {
	ID                string  `json:"id"`
	ArchiveID         string  `json:"archiveId,omitempty"`
	ItemIndex         *int    `json:"itemIndex,omitempty"`
	TitleType         string  `json:"titleType"`
	Title             string  `json:"title"`
	Category          string  `json:"category"`
	Origin            string  `json:"origin"`
	BrandOrPurchase   string  `json:"brandOrPurchase"`
	ImageURL          *string `json:"imageUrl"`
	AuthorDisplayName *string `json:"authorDisplayName"`
	Href              string  `json:"href,omitempty"`
}

// Assembler merges feed sources using the catalog for course titles and placeholders.
type Assembler struct {
	catalog *catalog.Catalog
}

func NewAssembler(c *catalog.Catalog) *Assembler {
	return &Assembler{catalog: c}
}

// Assemble returns [remote public] + [local public] + [placeholders], one entry
// per item. Sources are not de-duplicated against each other.
func (a *Assembler) Assemble(remote []*model.PublicArchive, local []*model.Archive) []Entry {
	out := make([]Entry, 0)
	for _, pa := range remote {
		if pa == nil {
			continue
		}
		out = a.appendArchive(out, &pa.Archive, pa.AuthorDisplayName)
	}
	for _, la := range local {
		if la == nil || !la.IsPublic {
			continue
		}
		out = a.appendArchive(out, la, nil)
	}
	return append(out, a.placeholders()...)
}

func (a *Assembler) appendArchive(out []Entry, arc *model.Archive, author *string) []Entry {
	var lookup model.CourseLookup
	if a.catalog != nil {
		lookup = a.catalog
	}
	for idx, it := range arc.Items {
		d := it.Describe(lookup)
		i := idx
		out = append(out, Entry{
			ID:                fmt.Sprintf("archive-%s-%d", arc.ID, idx),
			ArchiveID:         arc.ID,
			ItemIndex:         &i,
			TitleType:         titleTypeTea,
			Title:             d.Title,
			Category:          d.Category,
			Origin:            d.Origin,
			BrandOrPurchase:   d.BrandOrPurchase,
			ImageURL:          imageURL(it.Photo()),
			AuthorDisplayName: author,
			Href:              fmt.Sprintf("/archive/%s/%d", arc.ID, idx),
		})
	}
	return out
}

func (a *Assembler) placeholders() []Entry {
	if a.catalog == nil {
		return nil
	}
	ps := a.catalog.Placeholders()
	out := make([]Entry, 0, len(ps))
	for _, p := range ps {
		out = append(out, Entry{
			ID:              p.ID,
			TitleType:       p.TitleType,
			Title:           p.Title,
			Category:        p.Category,
			Origin:          p.Origin,
			BrandOrPurchase: p.BrandOrPurchase,
			ImageURL:        p.ImageURL,
		})
	}
	return out
}

func imageURL(photo string) *string {
	if photo == "" {
		return nil
	}
	return &photo
}
