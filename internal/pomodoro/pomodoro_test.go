package pomodoro

import (
	"testing"
	"time"
)

var epoch = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

func TestPhaseAt(t *testing.T) {
	timer := NewAt(epoch, 25*time.Minute, 5*time.Minute)

	tests := []struct {
		name    string
		elapsed time.Duration
		want    Phase
	}{
		{"start", 0, Work(0)},
		{"mid work", 10 * time.Minute, Work(10 * time.Minute)},
		{"just before break", 25*time.Minute - time.Nanosecond, Work(25*time.Minute - time.Nanosecond)},
		{"work boundary is break", 25 * time.Minute, Break(0)},
		{"late break", 29*time.Minute + 59*time.Second, Break(4*time.Minute + 59*time.Second)},
		{"break boundary is done", 30 * time.Minute, Done()},
		{"long after", 3 * time.Hour, Done()},
		{"clock behind start", -time.Minute, Work(0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := timer.PhaseAt(epoch.Add(tt.elapsed))
			if got != tt.want {
				t.Errorf("PhaseAt(+%s) = %v, want %v", tt.elapsed, got, tt.want)
			}
		})
	}
}

func TestPhaseIsPure(t *testing.T) {
	timer := NewAt(epoch, time.Minute, time.Minute)
	at := epoch.Add(90 * time.Second)

	first := timer.PhaseAt(at)
	for i := 0; i < 3; i++ {
		if got := timer.PhaseAt(at); got != first {
			t.Fatalf("repeat query %d = %v, want %v", i, got, first)
		}
	}
	if got := timer.PhaseAt(epoch.Add(10 * time.Second)); got.Kind != KindWork {
		t.Errorf("earlier query after later one = %v, want work", got)
	}
}

func TestProgressAndRemaining(t *testing.T) {
	timer := NewAt(epoch, 20*time.Minute, 10*time.Minute)

	p := timer.PhaseAt(epoch.Add(5 * time.Minute))
	if got := timer.Progress(p); got != 0.25 {
		t.Errorf("Progress(work 5m) = %v, want 0.25", got)
	}
	if got := timer.Remaining(p); got != 15*time.Minute {
		t.Errorf("Remaining(work 5m) = %v, want 15m", got)
	}

	p = timer.PhaseAt(epoch.Add(25 * time.Minute))
	if got := timer.Progress(p); got != 0.5 {
		t.Errorf("Progress(break 5m) = %v, want 0.5", got)
	}

	if got := timer.Progress(Done()); got != 1 {
		t.Errorf("Progress(done) = %v, want 1", got)
	}
	if got := timer.Remaining(Done()); got != 0 {
		t.Errorf("Remaining(done) = %v, want 0", got)
	}
}

func TestFormatMinSec(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{0, "0:00"},
		{59 * time.Second, "0:59"},
		{4*time.Minute + 59*time.Second, "4:59"},
		{25 * time.Minute, "25:00"},
		{90*time.Minute + 1500*time.Millisecond, "90:01"},
		{-time.Second, "0:00"},
	}
	for _, tt := range tests {
		if got := FormatMinSec(tt.d); got != tt.want {
			t.Errorf("FormatMinSec(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}

func TestNotifierAnnouncesEachPhaseOnce(t *testing.T) {
	timer := NewAt(epoch, 25*time.Minute, 5*time.Minute)
	var n Notifier

	polls := []time.Duration{
		0, time.Minute, 24 * time.Minute,
		25 * time.Minute, 27 * time.Minute,
		30 * time.Minute, 31 * time.Minute, 2 * time.Hour,
	}

	var got []string
	for _, d := range polls {
		if note, ok := n.Observe(timer, timer.PhaseAt(epoch.Add(d))); ok {
			got = append(got, note.Summary)
		}
	}

	want := []string{"Start Working", "Take a Break", "Pomodoro is Done"}
	if len(got) != len(want) {
		t.Fatalf("notifications = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("notification %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestNotifierReset(t *testing.T) {
	timer := NewAt(epoch, time.Minute, time.Minute)
	var n Notifier

	if _, ok := n.Observe(timer, Work(0)); !ok {
		t.Fatal("first work phase should notify")
	}
	if _, ok := n.Observe(timer, Work(time.Second)); ok {
		t.Fatal("second work poll should not notify")
	}

	n.Reset()
	note, ok := n.Observe(timer, Work(0))
	if !ok {
		t.Fatal("work phase after Reset should notify")
	}
	if note.Body != "Working interval time: 1:00" {
		t.Errorf("Body = %q", note.Body)
	}
}
