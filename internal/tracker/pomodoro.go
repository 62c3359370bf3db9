package tracker

import (
	"fmt"
	"time"

	"github.com/nhle/taskman/internal/model"
	"github.com/nhle/taskman/internal/pomodoro"
)

// PomodoroState is a snapshot of the running timer for display.
type PomodoroState struct {
	Running   bool
	Phase     pomodoro.Phase
	Progress  float64
	Remaining time.Duration

	// Note is set on the first poll that sees a new phase.
	Note *pomodoro.Notification
}

// PomodoroMinutes returns the configured work and break lengths in minutes.
func (t *Tracker) PomodoroMinutes() (work, brk int) {
	return int(t.work / time.Minute), int(t.brk / time.Minute)
}

// SetPomodoroMinutes changes the lengths used by the next timer.
func (t *Tracker) SetPomodoroMinutes(work, brk int) error {
	if err := model.ValidatePomodoroMinutes(work); err != nil {
		return fmt.Errorf("work: %w", err)
	}
	if err := model.ValidatePomodoroMinutes(brk); err != nil {
		return fmt.Errorf("break: %w", err)
	}
	t.work = time.Duration(work) * time.Minute
	t.brk = time.Duration(brk) * time.Minute
	return nil
}

// StartPomodoro starts a new timer, replacing any running one.
func (t *Tracker) StartPomodoro() *pomodoro.Timer {
	t.timer = pomodoro.NewAt(t.now(), t.work, t.brk)
	t.notifier.Reset()
	t.logger.Printf("[pomodoro] started %s work, %s break", t.work, t.brk)
	return t.timer
}

// StopPomodoro discards the running timer.
func (t *Tracker) StopPomodoro() {
	if t.timer != nil {
		t.logger.Printf("[pomodoro] stopped")
	}
	t.timer = nil
	t.notifier.Reset()
}

// TogglePomodoro starts a timer when none runs and stops it otherwise. It
// reports whether a timer is running afterwards.
func (t *Tracker) TogglePomodoro() bool {
	if t.timer != nil {
		t.StopPomodoro()
		return false
	}
	t.StartPomodoro()
	return true
}

// PollPomodoro reads the current phase. Callers poll on their own cadence.
func (t *Tracker) PollPomodoro() PomodoroState {
	if t.timer == nil {
		return PomodoroState{}
	}

	phase := t.timer.PhaseAt(t.now())
	state := PomodoroState{
		Running:   true,
		Phase:     phase,
		Progress:  t.timer.Progress(phase),
		Remaining: t.timer.Remaining(phase),
	}
	if note, ok := t.notifier.Observe(t.timer, phase); ok {
		state.Note = &note
		t.logger.Printf("[pomodoro] %s", note.Summary)
	}
	return state
}
