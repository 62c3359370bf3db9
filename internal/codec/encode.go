package codec

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/nhle/taskman/internal/model"
)

// wireTask is the current-generation document. Field order here is the
// positional order.
type wireTask struct {
	ID           wireID     `json:"id"`
	CreationTime time.Time  `json:"creationtime"`
	Name         string     `json:"name"`
	Description  string     `json:"description"`
	Started      *time.Time `json:"started"`
	Finished     *time.Time `json:"finished"`
	Subtasks     []wireID   `json:"subtasks"`
}

func toWire(t *model.Task) wireTask {
	w := wireTask{
		ID:           wireID(t.ID()),
		CreationTime: t.CreationTime(),
		Name:         t.Name,
		Description:  t.Description,
	}
	if at, ok := t.Started(); ok {
		w.Started = &at
	}
	if at, ok := t.Finished(); ok {
		w.Finished = &at
	}
	if t.HasSubtaskList() {
		ids := t.SubtaskIDs()
		w.Subtasks = make([]wireID, len(ids))
		for i, id := range ids {
			w.Subtasks[i] = wireID(id)
		}
	}
	return w
}

// EncodeTask writes a single task document. A task without a subtask list
// encodes "subtasks" as null; an empty list encodes as [].
func EncodeTask(t *model.Task) ([]byte, error) {
	data, err := json.Marshal(toWire(t))
	if err != nil {
		return nil, fmt.Errorf("encoding task %s: %w", t.ID(), err)
	}
	return data, nil
}

// EncodeAll writes a task set as a sequence, preserving order. An empty or
// nil set encodes as [].
func EncodeAll(tasks []*model.Task) ([]byte, error) {
	data, err := json.Marshal(toWireAll(tasks))
	if err != nil {
		return nil, fmt.Errorf("encoding task set: %w", err)
	}
	return data, nil
}

// EncodeAllIndent is EncodeAll with two-space indentation, for exports.
func EncodeAllIndent(tasks []*model.Task) ([]byte, error) {
	data, err := json.MarshalIndent(toWireAll(tasks), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding task set: %w", err)
	}
	return append(data, '\n'), nil
}

func toWireAll(tasks []*model.Task) []wireTask {
	out := make([]wireTask, len(tasks))
	for i, t := range tasks {
		out[i] = toWire(t)
	}
	return out
}
