// Package registry holds the in-memory collection of tasks.
package registry

import (
	"bytes"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/nhle/taskman/internal/model"
)

var (
	// ErrNotFound is returned by Find when no task matches.
	ErrNotFound = errors.New("task not found")

	// ErrAmbiguous is returned by Find when a prefix matches several tasks.
	ErrAmbiguous = errors.New("ambiguous task reference")
)

// MergePolicy decides what Merge does with an incoming task whose id is
// already present.
type MergePolicy int

const (
	// SkipExisting keeps the current task and discards the incoming one.
	SkipExisting MergePolicy = iota
	// Overwrite replaces the current task entirely.
	Overwrite
)

// String returns the config name of the policy.
func (p MergePolicy) String() string {
	if p == Overwrite {
		return model.ImportPolicyOverwrite
	}
	return model.ImportPolicySkip
}

// ParsePolicy maps "overwrite" or "skip" to a MergePolicy.
func ParsePolicy(s string) (MergePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case model.ImportPolicyOverwrite:
		return Overwrite, nil
	case model.ImportPolicySkip, "skip-existing", "":
		return SkipExisting, nil
	default:
		return 0, fmt.Errorf("unknown import policy %q (want %s or %s)",
			s, model.ImportPolicyOverwrite, model.ImportPolicySkip)
	}
}

// MergeResult counts what Merge did with each incoming task.
type MergeResult struct {
	Added    int
	Replaced int
	Skipped  int

	// Merged lists the ids that were added or replaced, in input order.
	Merged []uuid.UUID
}

// Registry is a keyed collection of tasks. It has a single owner and no
// locking. Tasks are stored by pointer; callers mutate them in place.
type Registry struct {
	tasks map[uuid.UUID]*model.Task
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{tasks: make(map[uuid.UUID]*model.Task)}
}

// Add inserts task, replacing any task with the same id.
func (r *Registry) Add(task *model.Task) {
	r.tasks[task.ID()] = task
}

// Get returns the task with the given id.
func (r *Registry) Get(id uuid.UUID) (*model.Task, bool) {
	t, ok := r.tasks[id]
	return t, ok
}

// Len returns the number of tasks.
func (r *Registry) Len() int { return len(r.tasks) }

// Remove deletes the task and removes its id from every remaining task's
// subtask list. It reports whether the task existed.
func (r *Registry) Remove(id uuid.UUID) bool {
	if _, ok := r.tasks[id]; !ok {
		return false
	}
	delete(r.tasks, id)
	for _, t := range r.tasks {
		t.RemoveSubtask(id)
	}
	return true
}

// List returns every task ordered by creation time, oldest first. Tasks
// created at the same instant are ordered by id.
func (r *Registry) List() []*model.Task {
	out := make([]*model.Task, 0, len(r.tasks))
	for _, t := range r.tasks {
		out = append(out, t)
	}
	slices.SortFunc(out, func(a, b *model.Task) int {
		if c := a.CreationTime().Compare(b.CreationTime()); c != 0 {
			return c
		}
		ida, idb := a.ID(), b.ID()
		return bytes.Compare(ida[:], idb[:])
	})
	return out
}

// Replace discards the current contents and adds tasks.
func (r *Registry) Replace(tasks []*model.Task) {
	r.tasks = make(map[uuid.UUID]*model.Task, len(tasks))
	for _, t := range tasks {
		r.Add(t)
	}
}

// Merge adds tasks according to policy.
func (r *Registry) Merge(tasks []*model.Task, policy MergePolicy) MergeResult {
	var res MergeResult
	for _, t := range tasks {
		_, exists := r.tasks[t.ID()]
		switch {
		case !exists:
			res.Added++
		case policy == Overwrite:
			res.Replaced++
		default:
			res.Skipped++
			continue
		}
		r.tasks[t.ID()] = t
		res.Merged = append(res.Merged, t.ID())
	}
	return res
}

// Find resolves ref to a task. ref is either a full UUID or a prefix of the
// canonical form (dashes optional).
func (r *Registry) Find(ref string) (*model.Task, error) {
	ref = strings.ToLower(strings.TrimSpace(ref))
	if ref == "" {
		return nil, fmt.Errorf("empty reference: %w", ErrNotFound)
	}
	if id, err := uuid.Parse(ref); err == nil {
		if t, ok := r.tasks[id]; ok {
			return t, nil
		}
		return nil, fmt.Errorf("%s: %w", ref, ErrNotFound)
	}

	bare := strings.ReplaceAll(ref, "-", "")
	var match *model.Task
	for id, t := range r.tasks {
		if !strings.HasPrefix(strings.ReplaceAll(id.String(), "-", ""), bare) {
			continue
		}
		if match != nil {
			return nil, fmt.Errorf("%s: %w", ref, ErrAmbiguous)
		}
		match = t
	}
	if match == nil {
		return nil, fmt.Errorf("%s: %w", ref, ErrNotFound)
	}
	return match, nil
}

// Prune drops subtask references to tasks that are not in the registry and
// fills cached subtask names that are still empty. A cached name is never
// overwritten, so a renamed subtask keeps the name it was listed under.
// Only the tasks in ids are visited. It returns the dropped references keyed
// by the task that listed them.
func (r *Registry) Prune(ids ...uuid.UUID) map[uuid.UUID][]uuid.UUID {
	dropped := make(map[uuid.UUID][]uuid.UUID)
	for _, id := range ids {
		t, ok := r.tasks[id]
		if !ok {
			continue
		}
		for _, ref := range t.Subtasks() {
			sub, ok := r.tasks[ref.ID]
			if !ok || ref.ID == id {
				t.RemoveSubtask(ref.ID)
				dropped[id] = append(dropped[id], ref.ID)
				continue
			}
			if ref.Name == "" {
				t.SetSubtaskName(ref.ID, sub.Name)
			}
		}
	}
	return dropped
}

// PruneAll runs Prune over every task.
func (r *Registry) PruneAll() map[uuid.UUID][]uuid.UUID {
	return r.Prune(slices.Collect(maps.Keys(r.tasks))...)
}

// Parents returns the tasks that list id as a subtask, in List order.
func (r *Registry) Parents(id uuid.UUID) []*model.Task {
	var out []*model.Task
	for _, t := range r.List() {
		if t.HasSubtask(id) {
			out = append(out, t)
		}
	}
	return out
}
