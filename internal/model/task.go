package model

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
)

// DefaultTaskName is the name given to tasks created without one.
const DefaultTaskName = "New Task"

// ErrInvalidState reports a task whose timestamps cannot be produced by the
// Start/Finish state machine (finished without started, or finished before
// started).
var ErrInvalidState = errors.New("invalid task state")

// ErrSelfReference reports a task listing its own id as a subtask.
var ErrSelfReference = errors.New("task references itself as a subtask")

// ErrDuplicateSubtask reports a persisted subtask list naming the same task
// more than once.
var ErrDuplicateSubtask = errors.New("subtask listed more than once")

// Status is the lifecycle state of a task, derived from its timestamps.
type Status int

const (
	StatusNotStarted Status = iota
	StatusStarted
	StatusFinished
)

// String returns a short label for the status.
func (s Status) String() string {
	switch s {
	case StatusNotStarted:
		return "not started"
	case StatusStarted:
		return "started"
	case StatusFinished:
		return "finished"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// SubtaskRef is a link from one task to another. Name is a snapshot of the
// referenced task's name taken when the link was made.
type SubtaskRef struct {
	ID   uuid.UUID
	Name string
}

// Task is a single trackable unit of work.
type Task struct {
	id           uuid.UUID
	creationTime time.Time

	// Name is the short title shown in lists.
	Name string

	// Description is free-form detail text.
	Description string

	started  *time.Time
	finished *time.Time

	// subtasks is nil when the task has no subtask list at all, and
	// non-nil (possibly empty) once one has been created.
	subtasks []SubtaskRef
}

// NewTask creates a task with a fresh id and the current UTC time as its
// creation time. An empty name falls back to DefaultTaskName.
func NewTask(name, description string) *Task {
	return NewTaskAt(time.Now(), name, description)
}

// NewTaskAt is NewTask with an explicit creation time.
func NewTaskAt(created time.Time, name, description string) *Task {
	if name == "" {
		name = DefaultTaskName
	}
	return &Task{
		id:           uuid.New(),
		creationTime: created.UTC(),
		Name:         name,
		Description:  description,
	}
}

// Restore rebuilds a task from persisted fields. It rejects combinations the
// state machine can never produce. A nil subtasks slice means "no list".
func Restore(
	id uuid.UUID,
	created time.Time,
	name, description string,
	started, finished *time.Time,
	subtasks []uuid.UUID,
) (*Task, error) {
	if finished != nil && started == nil {
		return nil, fmt.Errorf("finished without started: %w", ErrInvalidState)
	}
	if finished != nil && finished.Before(*started) {
		return nil, fmt.Errorf("finished %s before started %s: %w",
			finished.Format(time.RFC3339), started.Format(time.RFC3339), ErrInvalidState)
	}

	t := &Task{
		id:           id,
		creationTime: created.UTC(),
		Name:         name,
		Description:  description,
		started:      utcPtr(started),
		finished:     utcPtr(finished),
	}

	if subtasks != nil {
		t.subtasks = make([]SubtaskRef, 0, len(subtasks))
		for _, sid := range subtasks {
			if sid == id {
				return nil, ErrSelfReference
			}
			if t.HasSubtask(sid) {
				return nil, fmt.Errorf("%s: %w", sid, ErrDuplicateSubtask)
			}
			t.subtasks = append(t.subtasks, SubtaskRef{ID: sid})
		}
	}

	return t, nil
}

// ID returns the task's immutable identifier.
func (t *Task) ID() uuid.UUID { return t.id }

// CreationTime returns when the task was created (UTC).
func (t *Task) CreationTime() time.Time { return t.creationTime }

// Started returns the start time, if the task has been started.
func (t *Task) Started() (time.Time, bool) { return deref(t.started) }

// Finished returns the finish time, if the task has been finished.
func (t *Task) Finished() (time.Time, bool) { return deref(t.finished) }

// IsStarted reports whether the task has a start time.
func (t *Task) IsStarted() bool { return t.started != nil }

// IsFinished reports whether the task has a finish time.
func (t *Task) IsFinished() bool { return t.finished != nil }

// Start moves a NotStarted task to Started. Any other state is left alone.
func (t *Task) Start() { t.StartAt(time.Now()) }

// StartAt is Start with an explicit timestamp.
func (t *Task) StartAt(at time.Time) {
	if t.started != nil || t.finished != nil {
		return
	}
	at = at.UTC()
	t.started = &at
}

// Finish moves a Started task to Finished. Any other state is left alone.
func (t *Task) Finish() { t.FinishAt(time.Now()) }

// FinishAt is Finish with an explicit timestamp. A time before the start
// time is raised to the start time.
func (t *Task) FinishAt(at time.Time) {
	if t.started == nil || t.finished != nil {
		return
	}
	at = at.UTC()
	if at.Before(*t.started) {
		at = *t.started
	}
	t.finished = &at
}

// Status derives the lifecycle state from the timestamps. A finish time
// without a start time is unreachable through the public API and panics.
func (t *Task) Status() Status {
	switch {
	case t.started != nil && t.finished != nil:
		return StatusFinished
	case t.started != nil:
		return StatusStarted
	case t.finished != nil:
		panic(fmt.Errorf("task %s: finished without started: %w", t.id, ErrInvalidState))
	default:
		return StatusNotStarted
	}
}

// Elapsed returns finished - started for a finished task.
func (t *Task) Elapsed() (time.Duration, bool) {
	if t.Status() != StatusFinished {
		return 0, false
	}
	return t.finished.Sub(*t.started), true
}

// HasSubtaskList reports whether the task carries a subtask list, even an
// empty one.
func (t *Task) HasSubtaskList() bool { return t.subtasks != nil }

// Subtasks returns a copy of the subtask list. The result is nil exactly
// when the task has no list.
func (t *Task) Subtasks() []SubtaskRef { return slices.Clone(t.subtasks) }

// SubtaskIDs returns the referenced ids in list order, nil when there is no
// list.
func (t *Task) SubtaskIDs() []uuid.UUID {
	if t.subtasks == nil {
		return nil
	}
	ids := make([]uuid.UUID, len(t.subtasks))
	for i, ref := range t.subtasks {
		ids[i] = ref.ID
	}
	return ids
}

// HasSubtask reports whether id is listed as a subtask.
func (t *Task) HasSubtask(id uuid.UUID) bool {
	return t.subtaskIndex(id) >= 0
}

// AddSubtask appends a reference to id. Adding the task itself or an id
// already listed does nothing.
func (t *Task) AddSubtask(id uuid.UUID, name string) {
	if id == t.id || t.HasSubtask(id) {
		return
	}
	if t.subtasks == nil {
		t.subtasks = []SubtaskRef{}
	}
	t.subtasks = append(t.subtasks, SubtaskRef{ID: id, Name: name})
}

// RemoveSubtask drops the reference to id if present. The list itself is
// kept, so removing the last entry leaves an empty list.
func (t *Task) RemoveSubtask(id uuid.UUID) bool {
	i := t.subtaskIndex(id)
	if i < 0 {
		return false
	}
	t.subtasks = slices.Delete(t.subtasks, i, i+1)
	return true
}

// SetSubtaskName replaces the cached display name of a listed subtask.
func (t *Task) SetSubtaskName(id uuid.UUID, name string) {
	if i := t.subtaskIndex(id); i >= 0 {
		t.subtasks[i].Name = name
	}
}

// Clone returns a deep copy.
func (t *Task) Clone() *Task {
	c := *t
	c.started = utcPtr(t.started)
	c.finished = utcPtr(t.finished)
	c.subtasks = slices.Clone(t.subtasks)
	return &c
}

// Equal compares every persisted field. Cached subtask names are not
// persisted and are ignored; list presence and order are not.
func (t *Task) Equal(o *Task) bool {
	if t == nil || o == nil {
		return t == o
	}
	if t.id != o.id ||
		!t.creationTime.Equal(o.creationTime) ||
		t.Name != o.Name ||
		t.Description != o.Description ||
		!timePtrEqual(t.started, o.started) ||
		!timePtrEqual(t.finished, o.finished) {
		return false
	}
	if (t.subtasks == nil) != (o.subtasks == nil) || len(t.subtasks) != len(o.subtasks) {
		return false
	}
	for i := range t.subtasks {
		if t.subtasks[i].ID != o.subtasks[i].ID {
			return false
		}
	}
	return true
}

func (t *Task) subtaskIndex(id uuid.UUID) int {
	return slices.IndexFunc(t.subtasks, func(ref SubtaskRef) bool {
		return ref.ID == id
	})
}

func utcPtr(p *time.Time) *time.Time {
	if p == nil {
		return nil
	}
	v := p.UTC()
	return &v
}

func deref(p *time.Time) (time.Time, bool) {
	if p == nil {
		return time.Time{}, false
	}
	return *p, true
}

func timePtrEqual(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}
