package detail

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/nhle/taskman/internal/keys"
	"github.com/nhle/taskman/internal/model"
)

func TestRenderContent(t *testing.T) {
	created := time.Date(2024, 1, 15, 8, 0, 0, 0, time.UTC)
	child := model.NewTaskAt(created, "child", "")
	child.StartAt(created.Add(time.Minute))

	parent := model.NewTaskAt(created, "parent", "the details")
	parent.AddSubtask(child.ID(), child.Name)
	parent.StartAt(created.Add(time.Minute))
	parent.FinishAt(created.Add(31 * time.Minute))

	lookup := func(id uuid.UUID) (*model.Task, error) {
		if id == child.ID() {
			return child, nil
		}
		return nil, model.ErrInvalidState
	}

	m := New(keys.DefaultKeyMap(), lookup, 100, 40)
	m.SetTask(parent, nil)
	out := m.renderContent()

	for _, want := range []string{"parent", "finished", "the details", "Took", "30m0s", "Subtasks (1)", "child", "started"} {
		if !strings.Contains(out, want) {
			t.Errorf("detail missing %q:\n%s", want, out)
		}
	}

	m.SetTask(child, []*model.Task{parent})
	out = m.renderContent()
	for _, want := range []string{"No subtask list", "No description", "Subtask of", "parent"} {
		if !strings.Contains(out, want) {
			t.Errorf("child detail missing %q:\n%s", want, out)
		}
	}
}

func TestEmptyDetail(t *testing.T) {
	m := New(keys.DefaultKeyMap(), nil, 40, 10)
	if !strings.Contains(m.View(), "No task selected") {
		t.Errorf("View() = %q", m.View())
	}
	if m.Task() != nil {
		t.Error("Task() should be nil before SetTask")
	}
}
