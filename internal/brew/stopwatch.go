package brew

import (
	"math"
	"time"
)

// Clock supplies the current time. Tests inject a fake.
type Clock func() time.Time

// Stopwatch is a segmented timer. Elapsed is accumulated + (now - segmentStart)
// while running; state changes only on Start, Stop and Lap.
type Stopwatch struct {
	now          Clock
	running      bool
	accumulated  time.Duration
	segmentStart time.Time
	laps         []int
}

func NewStopwatch(clock Clock) *Stopwatch {
	if clock == nil {
		clock = time.Now
	}
	return &Stopwatch{now: clock, laps: []int{}}
}

func (w *Stopwatch) Running() bool { return w.running }

// Start is a no-op when already running.
func (w *Stopwatch) Start() bool {
	if w.running {
		return false
	}
	w.running = true
	w.segmentStart = w.now()
	return true
}

// Stop freezes the time accumulated so far. No-op when stopped.
func (w *Stopwatch) Stop() bool {
	if !w.running {
		return false
	}
	w.accumulated += w.sinceStart()
	w.running = false
	return true
}

// Lap records the current segment in whole seconds and restarts it at zero
// without stopping. Only valid while running.
func (w *Stopwatch) Lap() bool {
	if !w.running {
		return false
	}
	w.laps = append(w.laps, Seconds(w.Elapsed()))
	w.accumulated = 0
	w.segmentStart = w.now()
	return true
}

// Elapsed reads the current segment duration.
func (w *Stopwatch) Elapsed() time.Duration {
	d := w.accumulated
	if w.running {
		d += w.sinceStart()
	}
	if d < 0 {
		return 0
	}
	return d
}

// Laps returns a copy of the recorded laps.
func (w *Stopwatch) Laps() []int {
	out := make([]int, len(w.laps))
	copy(out, w.laps)
	return out
}

// Reset clears laps and elapsed time and leaves the stopwatch stopped.
func (w *Stopwatch) Reset() {
	w.running = false
	w.accumulated = 0
	w.segmentStart = time.Time{}
	w.laps = []int{}
}

func (w *Stopwatch) sinceStart() time.Duration {
	d := w.now().Sub(w.segmentStart)
	if d < 0 {
		return 0
	}
	return d
}

// Seconds rounds a duration to the nearest whole second, clamping negatives to zero.
func Seconds(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int(math.Round(d.Seconds()))
}
