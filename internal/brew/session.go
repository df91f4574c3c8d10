// Package brew drives one guided tea session across the course catalog.
package brew

import (
	"time"

	"github.com/musui/musui-server/internal/catalog"
	"github.com/musui/musui-server/internal/model"
)

// Step is the position of a session within the current course.
type Step int

const (
	StepGuide Step = iota
	StepBrew
	StepConfirmNext
	StepNote
	StepEnded
)

func (s Step) String() string {
	switch s {
	case StepGuide:
		return "guide"
	case StepBrew:
		return "brew"
	case StepConfirmNext:
		return "confirmNext"
	case StepNote:
		return "note"
	case StepEnded:
		return "ended"
	default:
		return "unknown"
	}
}

// NoteInput is the optional free text and photo captured for a course.
type NoteInput struct {
	Mood         string
	Memo         string
	PhotoDataURL string
}

// Session is a single-use state machine. Out-of-step calls are no-ops and
// report false. Once ended every call is a no-op.
type Session struct {
	courses   *catalog.Catalog
	clock     Clock
	index     int
	step      Step
	watch     *Stopwatch
	items     model.Items
	recorded  bool
	result    *model.Archive
	abandoned bool
}

// NewSession starts at the course with startID, or the first course when the id is unknown.
func NewSession(courses *catalog.Catalog, startID string, clock Clock) *Session {
	if clock == nil {
		clock = time.Now
	}
	idx := courses.Index(startID)
	if idx < 0 {
		idx = 0
	}
	return &Session{
		courses: courses,
		clock:   clock,
		index:   idx,
		step:    StepGuide,
		watch:   NewStopwatch(clock),
		items:   model.Items{},
	}
}

func (s *Session) Step() Step             { return s.step }
func (s *Session) Course() catalog.Course { return s.courses.At(s.index) }
func (s *Session) CourseIndex() int       { return s.index }
func (s *Session) IsLastCourse() bool     { return s.index == s.courses.Len()-1 }
func (s *Session) Ended() bool            { return s.step == StepEnded }
func (s *Session) Running() bool          { return s.watch.Running() }
func (s *Session) Laps() []int            { return s.watch.Laps() }
func (s *Session) CourseRecorded() bool   { return s.recorded }
func (s *Session) Abandoned() bool        { return s.abandoned }
func (s *Session) Result() *model.Archive { return s.result.Clone() }
func (s *Session) ItemCount() int         { return len(s.items) }
func (s *Session) ElapsedSeconds() int    { return Seconds(s.watch.Elapsed()) }
func (s *Session) Elapsed() time.Duration { return s.watch.Elapsed() }

// BeginBrew leaves the guide for the timer.
func (s *Session) BeginBrew() bool {
	if s.step != StepGuide {
		return false
	}
	s.step = StepBrew
	return true
}

// Abandon ends the session from the guide without producing an archive.
func (s *Session) Abandon() bool {
	if s.step != StepGuide {
		return false
	}
	s.step = StepEnded
	s.abandoned = true
	return true
}

func (s *Session) Start() bool {
	if s.step != StepBrew {
		return false
	}
	return s.watch.Start()
}

func (s *Session) Stop() bool {
	if s.step != StepBrew {
		return false
	}
	return s.watch.Stop()
}

func (s *Session) Lap() bool {
	if s.step != StepBrew {
		return false
	}
	return s.watch.Lap()
}

// FinishCourse stops the timer and moves to confirmNext.
func (s *Session) FinishCourse() bool {
	if s.step != StepBrew {
		return false
	}
	s.watch.Stop()
	s.step = StepConfirmNext
	return true
}

// WriteNote opens the note form for the current course.
func (s *Session) WriteNote() bool {
	if s.step != StepConfirmNext || s.recorded {
		return false
	}
	s.step = StepNote
	return true
}

// Skip records a note-less item for the current course.
func (s *Session) Skip() bool {
	if s.step != StepConfirmNext || s.recorded {
		return false
	}
	s.record(NoteInput{})
	return true
}

// SubmitNote records the note and returns to confirmNext.
func (s *Session) SubmitNote(in NoteInput) bool {
	if s.step != StepNote {
		return false
	}
	s.record(in)
	s.step = StepConfirmNext
	return true
}

// CancelNote returns to confirmNext without recording.
func (s *Session) CancelNote() bool {
	if s.step != StepNote {
		return false
	}
	s.step = StepConfirmNext
	return true
}

// NextCourse advances to the next course guide, or ends the session on the last course.
func (s *Session) NextCourse() bool {
	if s.step != StepConfirmNext {
		return false
	}
	if s.IsLastCourse() {
		s.finish()
		return true
	}
	s.index++
	s.watch.Reset()
	s.recorded = false
	s.step = StepGuide
	return true
}

// End finishes the session from any step.
func (s *Session) End() bool {
	if s.step == StepEnded {
		return false
	}
	s.watch.Stop()
	s.finish()
	return true
}

func (s *Session) record(in NoteInput) {
	s.items = append(s.items, model.GuidedItem{
		Course:       s.Course().ID,
		Laps:         s.watch.Laps(),
		Mood:         in.Mood,
		Memo:         in.Memo,
		PhotoDataURL: in.PhotoDataURL,
	})
	s.recorded = true
}

// finish builds the archive. A session without items ends without one.
func (s *Session) finish() {
	s.step = StepEnded
	if len(s.items) == 0 {
		return
	}
	s.result = model.NewSessionArchive(s.items, s.clock())
	s.items = nil
}
