package feed

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/musui/musui-server/internal/catalog"
	"github.com/musui/musui-server/internal/model"
)

func strptr(s string) *string { return &s }

func TestAssemble_OrderAndShape(t *testing.T) {
	cat := catalog.Default()
	now := time.Now()

	remote := &model.PublicArchive{
		Archive: model.Archive{
			ID:        "sess_r",
			CreatedAt: now,
			IsPublic:  true,
			Items: model.Items{
				model.GuidedItem{Course: "course-1", Mood: "calm", PhotoDataURL: "data:image/png;base64,AA=="},
				model.GuidedItem{Course: "retired-course"},
			},
		},
		AuthorDisplayName: strptr("leaf"),
	}
	local := []*model.Archive{
		{ID: "manual-l", IsPublic: true, Items: model.Items{model.ManualItem{TeaName: "Sencha", TeaType: "Green"}}},
		{ID: "manual-private", IsPublic: false, Items: model.Items{model.ManualItem{TeaName: "Hidden"}}},
	}

	entries := NewAssembler(cat).Assemble([]*model.PublicArchive{remote}, local)
	require.Len(t, entries, 3+len(cat.Placeholders()))

	first := entries[0]
	title, _ := cat.CourseTitle("course-1")
	assert.Equal(t, "archive-sess_r-0", first.ID)
	assert.Equal(t, "sess_r", first.ArchiveID)
	assert.Equal(t, 0, *first.ItemIndex)
	assert.Equal(t, "tea", first.TitleType)
	assert.Equal(t, title, first.Title)
	assert.Equal(t, "calm", first.Category)
	assert.Equal(t, model.Blank, first.Origin)
	assert.Equal(t, "data:image/png;base64,AA==", *first.ImageURL)
	assert.Equal(t, "leaf", *first.AuthorDisplayName)
	assert.Equal(t, "/archive/sess_r/0", first.Href)

	assert.Equal(t, "retired-course", entries[1].Title, "unknown course falls back to its id")
	assert.Equal(t, model.Blank, entries[1].Category)
	assert.Nil(t, entries[1].ImageURL)

	assert.Equal(t, "archive-manual-l-0", entries[2].ID)
	assert.Equal(t, "Sencha", entries[2].Title)
	assert.Equal(t, "Green", entries[2].Category)
	assert.Nil(t, entries[2].AuthorDisplayName)

	for i, p := range cat.Placeholders() {
		e := entries[3+i]
		assert.Equal(t, p.ID, e.ID)
		assert.Empty(t, e.Href)
		assert.Nil(t, e.ItemIndex)
	}
}

func TestAssemble_EmptySourcesStillHavePlaceholders(t *testing.T) {
	cat := catalog.Default()
	entries := NewAssembler(cat).Assemble(nil, nil)
	assert.Len(t, entries, len(cat.Placeholders()))
}

func TestAssemble_NoDeduplication(t *testing.T) {
	a := &model.Archive{ID: "manual-x", IsPublic: true, Items: model.Items{model.ManualItem{TeaName: "Same"}}}
	entries := NewAssembler(nil).Assemble([]*model.PublicArchive{{Archive: *a}}, []*model.Archive{a})
	require.Len(t, entries, 2)
	assert.Equal(t, entries[0].ID, entries[1].ID)
}

func TestEntryJSON_NullImageAndAuthor(t *testing.T) {
	entries := NewAssembler(nil).Assemble(nil, []*model.Archive{{ID: "m", IsPublic: true, Items: model.Items{model.ManualItem{}}}})
	b, err := json.Marshal(entries[0])
	require.NoError(t, err)
	assert.Contains(t, string(b), `"imageUrl":null`)
	assert.Contains(t, string(b), `"authorDisplayName":null`)
	assert.Contains(t, string(b), `"title":"`+model.DefaultTeaName+`"`)
}
