// Package tracker is the application context: it owns the task registry,
// persists it through the codec and a blob store, and runs the pomodoro.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/nhle/taskman/internal/codec"
	"github.com/nhle/taskman/internal/model"
	"github.com/nhle/taskman/internal/pomodoro"
	"github.com/nhle/taskman/internal/registry"
	"github.com/nhle/taskman/internal/store"
)

// ErrTaskNotFound is returned when an id or reference matches no task.
var ErrTaskNotFound = errors.New("task not found")

// Options configures a Tracker.
type Options struct {
	Store  store.Store
	Config *model.AppConfig

	// Logger defaults to a discarding logger.
	Logger *log.Logger

	// Now defaults to time.Now.
	Now func() time.Time
}

// Tracker executes user intents against the registry. It is not safe for
// concurrent use; the UI or CLI that creates it is its only caller.
type Tracker struct {
	reg     *registry.Registry
	store   store.Store
	decoder *codec.Decoder
	logger  *log.Logger
	now     func() time.Time

	key          string
	autosave     bool
	importPolicy registry.MergePolicy

	work     time.Duration
	brk      time.Duration
	timer    *pomodoro.Timer
	notifier pomodoro.Notifier
}

// New creates a Tracker with an empty registry. Call Load to read the
// persisted task list.
func New(opts Options) (*Tracker, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = model.DefaultAppConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	legacy, err := codec.ParseLegacyCreation(cfg.Codec.LegacyCreationTime)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", model.ErrInvalidConfig, err)
	}
	policy, err := registry.ParsePolicy(cfg.Import.Policy)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", model.ErrInvalidConfig, err)
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	return &Tracker{
		reg:          registry.New(),
		store:        opts.Store,
		decoder:      codec.NewDecoder(codec.Options{Now: now, LegacyCreation: legacy}),
		logger:       logger,
		now:          now,
		key:          cfg.Storage.Key,
		autosave:     cfg.Storage.Autosave,
		importPolicy: policy,
		work:         time.Duration(cfg.Pomodoro.WorkMinutes) * time.Minute,
		brk:          time.Duration(cfg.Pomodoro.BreakMinutes) * time.Minute,
	}, nil
}

// Load replaces the registry with the stored task list. A missing list
// loads as empty. On a decode failure the registry is left as it was.
func (t *Tracker) Load(ctx context.Context) error {
	if t.store == nil {
		return nil
	}

	data, ok, err := t.store.GetString(ctx, t.key)
	if err != nil {
		return fmt.Errorf("loading task list: %w", err)
	}
	if !ok {
		t.logger.Printf("[tracker] no stored task list under %q, starting empty", t.key)
		t.reg.Replace(nil)
		return nil
	}

	tasks, err := t.decodeAll([]byte(data))
	if err != nil {
		return fmt.Errorf("decoding stored task list: %w", err)
	}

	t.reg.Replace(tasks)
	t.logDropped(t.reg.PruneAll())
	t.logger.Printf("[tracker] loaded %d tasks", len(tasks))
	return nil
}

// Save writes the full task list to the store.
func (t *Tracker) Save(ctx context.Context) error {
	if t.store == nil {
		return nil
	}

	data, err := codec.EncodeAll(t.reg.List())
	if err != nil {
		return err
	}
	if err := t.store.SetString(ctx, t.key, string(data)); err != nil {
		return fmt.Errorf("saving task list: %w", err)
	}
	return nil
}

// changed persists after a mutation when autosave is on.
func (t *Tracker) changed(ctx context.Context) error {
	if !t.autosave {
		return nil
	}
	return t.Save(ctx)
}

func (t *Tracker) decodeAll(data []byte) ([]*model.Task, error) {
	decoded, err := t.decoder.DecodeAll(data)
	if err != nil {
		return nil, err
	}

	tasks := make([]*model.Task, len(decoded))
	legacy := 0
	for i, d := range decoded {
		tasks[i] = d.Task
		if d.Generation != codec.Current {
			legacy++
		}
	}
	if legacy > 0 {
		t.logger.Printf("[tracker] upgraded %d tasks from older formats", legacy)
	}
	return tasks, nil
}

// Tasks returns every task, oldest first.
func (t *Tracker) Tasks() []*model.Task {
	return t.reg.List()
}

// Len returns the number of tasks.
func (t *Tracker) Len() int { return t.reg.Len() }

// Get returns the task with the given id.
func (t *Tracker) Get(id uuid.UUID) (*model.Task, error) {
	task, ok := t.reg.Get(id)
	if !ok {
		return nil, fmt.Errorf("%s: %w", id, ErrTaskNotFound)
	}
	return task, nil
}

// Find resolves a full id or unique id prefix.
func (t *Tracker) Find(ref string) (*model.Task, error) {
	task, err := t.reg.Find(ref)
	if errors.Is(err, registry.ErrNotFound) {
		return nil, fmt.Errorf("%w: %w", ErrTaskNotFound, err)
	}
	return task, err
}

// Parents returns the tasks listing id as a subtask.
func (t *Tracker) Parents(id uuid.UUID) []*model.Task {
	return t.reg.Parents(id)
}

// CreateTask adds a new task. Every subtask id must name an existing task.
func (t *Tracker) CreateTask(
	ctx context.Context,
	name, description string,
	subtasks []uuid.UUID,
) (*model.Task, error) {
	task := model.NewTaskAt(t.now(), name, description)
	if err := t.setSubtasks(task, subtasks); err != nil {
		return nil, err
	}

	t.reg.Add(task)
	t.logger.Printf("[tracker] created task %s %q", task.ID(), task.Name)
	return task, t.changed(ctx)
}

// UpdateTask changes the text fields and subtask list of an existing task.
// Subtasks already listed keep their cached names and position.
func (t *Tracker) UpdateTask(
	ctx context.Context,
	id uuid.UUID,
	name, description string,
	subtasks []uuid.UUID,
) error {
	task, err := t.Get(id)
	if err != nil {
		return err
	}
	if name == "" {
		name = model.DefaultTaskName
	}

	if err := t.setSubtasks(task, subtasks); err != nil {
		return err
	}
	task.Name = name
	task.Description = description
	return t.changed(ctx)
}

// Rename changes only the name of a task.
func (t *Tracker) Rename(ctx context.Context, id uuid.UUID, name string) error {
	task, err := t.Get(id)
	if err != nil {
		return err
	}
	if name == "" {
		name = model.DefaultTaskName
	}
	task.Name = name
	return t.changed(ctx)
}

// setSubtasks makes the task's list contain exactly ids. A task without a
// list keeps having none when ids is empty. Nothing changes unless every id
// exists.
func (t *Tracker) setSubtasks(task *model.Task, ids []uuid.UUID) error {
	for _, id := range ids {
		if id == task.ID() {
			continue
		}
		if _, ok := t.reg.Get(id); !ok {
			return fmt.Errorf("subtask %s: %w", id, ErrTaskNotFound)
		}
	}

	want := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	for _, existing := range task.SubtaskIDs() {
		if !want[existing] {
			task.RemoveSubtask(existing)
		}
	}
	for _, id := range ids {
		if sub, ok := t.reg.Get(id); ok {
			task.AddSubtask(id, sub.Name)
		}
	}
	return nil
}

// StartTask starts the task. Starting a started or finished task does
// nothing.
func (t *Tracker) StartTask(ctx context.Context, id uuid.UUID) (*model.Task, error) {
	task, err := t.Get(id)
	if err != nil {
		return nil, err
	}
	if task.Status() != model.StatusNotStarted {
		return task, nil
	}
	task.StartAt(t.now())
	t.logger.Printf("[tracker] started %s", task.ID())
	return task, t.changed(ctx)
}

// FinishTask finishes a started task. Other states are left alone.
func (t *Tracker) FinishTask(ctx context.Context, id uuid.UUID) (*model.Task, error) {
	task, err := t.Get(id)
	if err != nil {
		return nil, err
	}
	if task.Status() != model.StatusStarted {
		return task, nil
	}
	task.FinishAt(t.now())
	t.logger.Printf("[tracker] finished %s", task.ID())
	return task, t.changed(ctx)
}

// DeleteTask removes the task and every reference to it.
func (t *Tracker) DeleteTask(ctx context.Context, id uuid.UUID) error {
	if !t.reg.Remove(id) {
		return fmt.Errorf("%s: %w", id, ErrTaskNotFound)
	}
	t.logger.Printf("[tracker] deleted %s", id)
	return t.changed(ctx)
}

// ImportPolicy returns the configured default merge policy.
func (t *Tracker) ImportPolicy() registry.MergePolicy { return t.importPolicy }

// Export writes every task to path.
func (t *Tracker) Export(path string) error {
	data, err := codec.EncodeAllIndent(t.reg.List())
	if err != nil {
		return err
	}
	if err := store.WriteFile(path, data); err != nil {
		return err
	}
	t.logger.Printf("[tracker] exported %d tasks to %s", t.reg.Len(), path)
	return nil
}

// ImportResult reports what Import did.
type ImportResult struct {
	registry.MergeResult

	// Dropped counts subtask references of imported tasks that named
	// tasks present neither in the file nor in the registry.
	Dropped int
}

// String summarises the counts, mentioning dropped references only when
// there were some.
func (r ImportResult) String() string {
	out := fmt.Sprintf("%d added, %d replaced, %d skipped", r.Added, r.Replaced, r.Skipped)
	if r.Dropped > 0 {
		out += fmt.Sprintf(", %d unknown subtask references dropped", r.Dropped)
	}
	return out
}

// Import merges the tasks in path into the registry. The file is decoded
// completely before anything is merged. Only the added and replaced tasks
// are pruned; tasks already in the registry are left as they are.
func (t *Tracker) Import(
	ctx context.Context,
	path string,
	policy registry.MergePolicy,
) (ImportResult, error) {
	data, err := store.ReadFile(path)
	if err != nil {
		return ImportResult{}, err
	}

	tasks, err := t.decodeAll(data)
	if err != nil {
		return ImportResult{}, fmt.Errorf("importing %s: %w", path, err)
	}

	res := ImportResult{MergeResult: t.reg.Merge(tasks, policy)}
	res.Dropped = t.logDropped(t.reg.Prune(res.Merged...))
	t.logger.Printf("[tracker] imported %s (%s): %d added, %d replaced, %d skipped",
		path, policy, res.Added, res.Replaced, res.Skipped)
	return res, t.changed(ctx)
}

// logDropped logs every dangling subtask reference removed by a prune and
// returns how many there were.
func (t *Tracker) logDropped(dropped map[uuid.UUID][]uuid.UUID) int {
	n := 0
	for owner, ids := range dropped {
		for _, id := range ids {
			t.logger.Printf("[tracker] %s: dropped subtask %s, no such task", owner, id)
		}
		n += len(ids)
	}
	return n
}

// Revisions lists earlier saved task lists, newest first.
func (t *Tracker) Revisions(ctx context.Context, limit int) ([]store.Revision, error) {
	if t.store == nil {
		return nil, nil
	}
	return t.store.History(ctx, t.key, limit)
}

// RestoreRevision replaces the registry with an earlier saved task list and
// saves it as the current one.
func (t *Tracker) RestoreRevision(ctx context.Context, id int64) error {
	if t.store == nil {
		return fmt.Errorf("revision %d: %w", id, store.ErrNotFound)
	}

	rev, err := t.store.Revision(ctx, id)
	if err != nil {
		return err
	}
	if rev.Key != t.key {
		return fmt.Errorf("revision %d belongs to %q: %w", id, rev.Key, store.ErrNotFound)
	}

	tasks, err := t.decodeAll([]byte(rev.Value))
	if err != nil {
		return fmt.Errorf("decoding revision %d: %w", id, err)
	}

	t.reg.Replace(tasks)
	t.logDropped(t.reg.PruneAll())
	t.logger.Printf("[tracker] restored revision %d (%d tasks)", id, len(tasks))
	return t.Save(ctx)
}

// Reset deletes the stored task list together with its history and empties
// the registry.
func (t *Tracker) Reset(ctx context.Context) error {
	if t.store != nil {
		if err := t.store.Delete(ctx, t.key); err != nil {
			return err
		}
	}
	n := t.reg.Len()
	t.reg.Replace(nil)
	t.logger.Printf("[tracker] reset %q, discarded %d tasks", t.key, n)
	return nil
}
