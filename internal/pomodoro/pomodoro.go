// Package pomodoro computes work/break phases from elapsed wall-clock time.
// A Timer holds no goroutine or callback; callers poll Phase on whatever
// cadence their render loop uses.
package pomodoro

import (
	"fmt"
	"time"
)

// Default interval lengths.
const (
	DefaultWork  = 25 * time.Minute
	DefaultBreak = 5 * time.Minute
)

// Kind identifies which part of the interval a Phase is in.
type Kind int

const (
	KindWork Kind = iota
	KindBreak
	KindDone
)

// String returns a short label for the phase kind.
func (k Kind) String() string {
	switch k {
	case KindWork:
		return "work"
	case KindBreak:
		return "break"
	case KindDone:
		return "done"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Phase is the result of a timer query. Elapsed is measured from the start
// of the current phase and is zero for KindDone.
type Phase struct {
	Kind    Kind
	Elapsed time.Duration
}

// Work returns a work phase with the given elapsed time.
func Work(elapsed time.Duration) Phase { return Phase{Kind: KindWork, Elapsed: elapsed} }

// Break returns a break phase with the given elapsed time.
func Break(elapsed time.Duration) Phase { return Phase{Kind: KindBreak, Elapsed: elapsed} }

// Done returns the terminal phase.
func Done() Phase { return Phase{Kind: KindDone} }

// String renders the phase as e.g. "work 10:00".
func (p Phase) String() string {
	if p.Kind == KindDone {
		return "done"
	}
	return fmt.Sprintf("%s %s", p.Kind, FormatMinSec(p.Elapsed))
}

// Timer is one work interval followed by one break interval. Durations are
// expected to be positive; the timer does not check.
type Timer struct {
	start time.Time
	work  time.Duration
	brk   time.Duration
}

// New starts a timer now.
func New(work, brk time.Duration) *Timer {
	return NewAt(time.Now(), work, brk)
}

// NewAt starts a timer at the given instant.
func NewAt(start time.Time, work, brk time.Duration) *Timer {
	return &Timer{start: start, work: work, brk: brk}
}

// Start returns the instant the timer was created.
func (t *Timer) Start() time.Time { return t.start }

// WorkDuration returns the configured work length.
func (t *Timer) WorkDuration() time.Duration { return t.work }

// BreakDuration returns the configured break length.
func (t *Timer) BreakDuration() time.Duration { return t.brk }

// Total returns work plus break.
func (t *Timer) Total() time.Duration { return t.work + t.brk }

// Phase reports the phase for the current time.
func (t *Timer) Phase() Phase { return t.PhaseAt(time.Now()) }

// PhaseAt reports the phase at now. Elapsed exactly equal to the work
// length is already Break; elapsed exactly equal to work+break is Done.
func (t *Timer) PhaseAt(now time.Time) Phase {
	elapsed := now.Sub(t.start)
	if elapsed < 0 {
		elapsed = 0
	}
	switch {
	case elapsed < t.work:
		return Work(elapsed)
	case elapsed < t.work+t.brk:
		return Break(elapsed - t.work)
	default:
		return Done()
	}
}

// Progress returns how far through its phase p is, in [0, 1].
func (t *Timer) Progress(p Phase) float64 {
	var total time.Duration
	switch p.Kind {
	case KindWork:
		total = t.work
	case KindBreak:
		total = t.brk
	default:
		return 1
	}
	if total <= 0 {
		return 1
	}
	f := float64(p.Elapsed) / float64(total)
	if f > 1 {
		return 1
	}
	return f
}

// Remaining returns the time left in p's phase.
func (t *Timer) Remaining(p Phase) time.Duration {
	switch p.Kind {
	case KindWork:
		return t.work - p.Elapsed
	case KindBreak:
		return t.brk - p.Elapsed
	default:
		return 0
	}
}

// FormatMinSec renders d as m:ss, truncating to whole seconds.
func FormatMinSec(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	secs := int64(d / time.Second)
	return fmt.Sprintf("%d:%02d", secs/60, secs%60)
}
