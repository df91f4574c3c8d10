package brew

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/musui/musui-server/internal/catalog"
	"github.com/musui/musui-server/internal/model"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)}
}

func TestStopwatchAccumulatesAcrossSegments(t *testing.T) {
	clk := newClock()
	w := NewStopwatch(clk.Now)

	require.True(t, w.Start())
	clk.Advance(3 * time.Second)
	require.True(t, w.Stop())
	clk.Advance(10 * time.Second)
	require.True(t, w.Start())
	clk.Advance(2 * time.Second)
	require.True(t, w.Stop())

	assert.GreaterOrEqual(t, Seconds(w.Elapsed()), 5)
}

func TestStopwatchNoOps(t *testing.T) {
	clk := newClock()
	w := NewStopwatch(clk.Now)

	assert.False(t, w.Stop())
	assert.False(t, w.Lap())
	assert.Empty(t, w.Laps())
	assert.Equal(t, time.Duration(0), w.Elapsed())

	require.True(t, w.Start())
	assert.False(t, w.Start())
	clk.Advance(4 * time.Second)
	require.True(t, w.Stop())

	clk.Advance(5 * time.Second)
	assert.False(t, w.Lap())
	assert.Empty(t, w.Laps())
	assert.Equal(t, 4*time.Second, w.Elapsed())
}

func TestStopwatchLapRestartsSegment(t *testing.T) {
	clk := newClock()
	w := NewStopwatch(clk.Now)

	w.Start()
	clk.Advance(20*time.Second + 400*time.Millisecond)
	require.True(t, w.Lap())
	assert.True(t, w.Running())
	clk.Advance(15*time.Second + 600*time.Millisecond)
	require.True(t, w.Lap())

	assert.Equal(t, []int{20, 16}, w.Laps())
	assert.Equal(t, time.Duration(0), w.Elapsed())
}

func TestSecondsClampsNegative(t *testing.T) {
	assert.Equal(t, 0, Seconds(-time.Second))
	assert.Equal(t, 2, Seconds(1500*time.Millisecond))
}

func TestSkipEveryCourse(t *testing.T) {
	cat := catalog.Default()
	s := NewSession(cat, "", newClock().Now)

	for i := 0; i < cat.Len(); i++ {
		require.Equal(t, StepGuide, s.Step())
		require.True(t, s.BeginBrew())
		require.True(t, s.FinishCourse())
		require.True(t, s.Skip())
		require.True(t, s.NextCourse())
	}

	require.True(t, s.Ended())
	a := s.Result()
	require.NotNil(t, a)
	require.Len(t, a.Items, cat.Len())
	assert.False(t, a.IsPublic)
	for i, it := range a.Items {
		g, ok := it.(model.GuidedItem)
		require.True(t, ok)
		assert.Equal(t, cat.At(i).ID, g.Course)
		assert.Empty(t, g.Laps)
		assert.Empty(t, g.Mood)
		assert.Empty(t, g.Memo)
	}
}

func TestNoteFlow(t *testing.T) {
	clk := newClock()
	s := NewSession(catalog.Default(), "course-3", clk.Now)
	assert.True(t, s.IsLastCourse())

	s.BeginBrew()
	s.Start()
	clk.Advance(25 * time.Second)
	s.Lap()
	clk.Advance(5 * time.Second)
	s.FinishCourse()
	assert.False(t, s.Running())

	require.True(t, s.WriteNote())
	require.True(t, s.CancelNote())
	assert.Equal(t, 0, s.ItemCount())

	require.True(t, s.WriteNote())
	require.True(t, s.SubmitNote(NoteInput{Mood: "calm", Memo: "long finish"}))
	assert.Equal(t, StepConfirmNext, s.Step())

	assert.False(t, s.Skip(), "course already recorded")
	assert.False(t, s.WriteNote())

	require.True(t, s.NextCourse())
	a := s.Result()
	require.Len(t, a.Items, 1)
	g := a.Items[0].(model.GuidedItem)
	assert.Equal(t, "course-3", g.Course)
	assert.Equal(t, []int{25}, g.Laps)
	assert.Equal(t, "calm", g.Mood)
}

func TestOutOfStepCallsAreNoOps(t *testing.T) {
	s := NewSession(catalog.Default(), "unknown", newClock().Now)
	assert.Equal(t, "course-1", s.Course().ID)

	assert.False(t, s.Start())
	assert.False(t, s.Lap())
	assert.False(t, s.FinishCourse())
	assert.False(t, s.Skip())
	assert.False(t, s.SubmitNote(NoteInput{}))
	assert.False(t, s.NextCourse())

	s.BeginBrew()
	assert.False(t, s.BeginBrew())
	assert.False(t, s.Abandon())
}

func TestEndWithoutItemsProducesNoArchive(t *testing.T) {
	s := NewSession(catalog.Default(), "", nil)
	s.BeginBrew()
	require.True(t, s.End())
	assert.True(t, s.Ended())
	assert.Nil(t, s.Result())
	assert.False(t, s.End())
	assert.False(t, s.BeginBrew())
}

func TestAbandon(t *testing.T) {
	s := NewSession(catalog.Default(), "", nil)
	require.True(t, s.Abandon())
	assert.True(t, s.Abandoned())
	assert.Nil(t, s.Result())
}

func TestNextCourseResetsTimer(t *testing.T) {
	clk := newClock()
	s := NewSession(catalog.Default(), "course-1", clk.Now)
	s.BeginBrew()
	s.Start()
	clk.Advance(10 * time.Second)
	s.Lap()
	s.FinishCourse()
	s.Skip()
	require.True(t, s.NextCourse())

	assert.Equal(t, "course-2", s.Course().ID)
	assert.Empty(t, s.Laps())
	assert.Equal(t, 0, s.ElapsedSeconds())
	assert.False(t, s.CourseRecorded())
}
