package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalog(t *testing.T) {
	c := Default()
	require.Equal(t, 3, c.Len())
	assert.Equal(t, "course-1", c.At(0).ID)
	assert.Equal(t, 2, c.Index("course-3"))
	assert.Equal(t, -1, c.Index("nope"))

	title, ok := c.CourseTitle("course-2")
	assert.True(t, ok)
	assert.Equal(t, "둘째 잔 — 결이 드러나는 시간", title)

	_, ok = c.CourseTitle("manual")
	assert.False(t, ok)
	assert.NotEmpty(t, c.Placeholders())
}

func TestCoursesReturnsCopy(t *testing.T) {
	c := Default()
	list := c.Courses()
	list[0].Title = "changed"
	assert.NotEqual(t, "changed", c.At(0).Title)
}

func TestParseRejectsBadCatalogs(t *testing.T) {
	_, err := Parse([]byte("courses: []"))
	assert.Error(t, err)

	_, err = Parse([]byte("courses:\n  - id: a\n  - id: a\n"))
	assert.ErrorContains(t, err, "duplicate")

	_, err = Parse([]byte("courses: ["))
	assert.Error(t, err)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte("courses:\n  - id: only\n    title: Only\n"), 0o600))

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 1, c.Len())
	assert.Empty(t, c.Placeholders())

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
