package pomodoro

// Notification is a user-facing announcement of a phase change.
type Notification struct {
	Kind    Kind
	Summary string
	Body    string
}

// Notifier turns a stream of polled phases into one notification per phase
// entered. It must be Reset when a new timer replaces the old one.
type Notifier struct {
	announced bool
	last      Kind
}

// Reset forgets what has been announced.
func (n *Notifier) Reset() {
	n.announced = false
}

// Observe returns a notification when p is in a phase that has not been
// announced yet for t.
func (n *Notifier) Observe(t *Timer, p Phase) (Notification, bool) {
	if n.announced && n.last == p.Kind {
		return Notification{}, false
	}
	n.announced = true
	n.last = p.Kind

	switch p.Kind {
	case KindWork:
		return Notification{
			Kind:    KindWork,
			Summary: "Start Working",
			Body:    "Working interval time: " + FormatMinSec(t.WorkDuration()),
		}, true
	case KindBreak:
		return Notification{
			Kind:    KindBreak,
			Summary: "Take a Break",
			Body:    "Break interval time: " + FormatMinSec(t.BreakDuration()),
		}, true
	default:
		return Notification{
			Kind:    KindDone,
			Summary: "Pomodoro is Done",
		}, true
	}
}
