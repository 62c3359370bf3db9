package codec

import (
	"errors"
	"math/big"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/nhle/taskman/internal/model"
)

var (
	created = time.Date(2024, 1, 15, 8, 30, 0, 0, time.UTC)
	decoded = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
)

func fixedDecoder(policy LegacyCreation) *Decoder {
	return NewDecoder(Options{
		Now:            func() time.Time { return decoded },
		LegacyCreation: policy,
	})
}

func mustDecode(t *testing.T, doc string) (*model.Task, Generation) {
	t.Helper()
	task, gen, err := fixedDecoder(LegacyCreationNow).Decode([]byte(doc))
	if err != nil {
		t.Fatalf("Decode(%s) error: %v", doc, err)
	}
	return task, gen
}

func wantMalformed(t *testing.T, err error, kind ErrorKind, field string) *MalformedInputError {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %v error for %q, got nil", kind, field)
	}
	if !errors.Is(err, ErrMalformedInput) {
		t.Errorf("errors.Is(%v, ErrMalformedInput) = false", err)
	}
	var me *MalformedInputError
	if !errors.As(err, &me) {
		t.Fatalf("error %T is not *MalformedInputError", err)
	}
	if me.Kind != kind {
		t.Errorf("Kind = %v, want %v (%v)", me.Kind, kind, err)
	}
	if me.Field != field {
		t.Errorf("Field = %q, want %q (%v)", me.Field, field, err)
	}
	return me
}

func TestRoundTrip(t *testing.T) {
	fresh := model.NewTaskAt(created, "fresh", "")

	started := model.NewTaskAt(created, "started", "with description")
	started.StartAt(created.Add(time.Minute))

	done := model.NewTaskAt(created, "done", "")
	done.StartAt(created.Add(time.Minute))
	done.FinishAt(created.Add(90*time.Minute + 123*time.Millisecond))

	withSubs := model.NewTaskAt(created, "parent", "")
	withSubs.AddSubtask(done.ID(), done.Name)
	withSubs.AddSubtask(fresh.ID(), fresh.Name)

	emptySubs := model.NewTaskAt(created, "emptied", "")
	emptySubs.AddSubtask(fresh.ID(), fresh.Name)
	emptySubs.RemoveSubtask(fresh.ID())

	for _, task := range []*model.Task{fresh, started, done, withSubs, emptySubs} {
		t.Run(task.Name, func(t *testing.T) {
			data, err := EncodeTask(task)
			if err != nil {
				t.Fatalf("EncodeTask() error: %v", err)
			}
			got, gen := mustDecode(t, string(data))
			if gen != Current {
				t.Errorf("Generation = %v, want %v", gen, Current)
			}
			if !got.Equal(task) {
				t.Errorf("round trip mismatch\n got: %s", data)
			}
		})
	}
}

func TestRoundTripPreservesSubtaskOrder(t *testing.T) {
	parent := model.NewTaskAt(created, "parent", "")
	var want []uuid.UUID
	for i := 0; i < 5; i++ {
		id := uuid.New()
		want = append(want, id)
		parent.AddSubtask(id, "")
	}

	data, err := EncodeTask(parent)
	if err != nil {
		t.Fatalf("EncodeTask() error: %v", err)
	}
	got, _ := mustDecode(t, string(data))

	ids := got.SubtaskIDs()
	if len(ids) != len(want) {
		t.Fatalf("len(SubtaskIDs) = %d, want %d", len(ids), len(want))
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Errorf("SubtaskIDs[%d] = %s, want %s", i, ids[i], want[i])
		}
	}
}

func TestEncodeNoneVersusEmpty(t *testing.T) {
	none := model.NewTaskAt(created, "none", "")
	data, err := EncodeTask(none)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"subtasks":null`) {
		t.Errorf("no list should encode as null: %s", data)
	}

	empty := model.NewTaskAt(created, "empty", "")
	empty.AddSubtask(uuid.New(), "")
	empty.RemoveSubtask(empty.SubtaskIDs()[0])
	data, err = EncodeTask(empty)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"subtasks":[]`) {
		t.Errorf("empty list should encode as []: %s", data)
	}
}

func TestEncodeIDAsInteger(t *testing.T) {
	id := uuid.MustParse("00000000-0000-0000-0000-00000000002a")
	task, err := model.Restore(id, created, "n", "", nil, nil, nil)
	if err != nil {
		t.Fatal(err)
	}

	data, err := EncodeTask(task)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(data), `{"id":42,"creationtime":"2024-01-15T08:30:00Z"`) {
		t.Errorf("EncodeTask = %s", data)
	}
}

func TestIDIntegerConversion(t *testing.T) {
	maxID := uuid.MustParse("ffffffff-ffff-ffff-ffff-ffffffffffff")
	want, _ := new(big.Int).SetString("340282366920938463463374607431768211455", 10)

	if got := IDToInteger(maxID); got.Cmp(want) != 0 {
		t.Errorf("IDToInteger(max) = %s, want %s", got, want)
	}
	back, err := IDFromInteger(want)
	if err != nil {
		t.Fatalf("IDFromInteger() error: %v", err)
	}
	if back != maxID {
		t.Errorf("IDFromInteger = %s, want %s", back, maxID)
	}

	tooBig := new(big.Int).Lsh(big.NewInt(1), 128)
	if _, err := IDFromInteger(tooBig); err == nil {
		t.Error("IDFromInteger(2^128) should fail")
	}
	if _, err := IDFromInteger(big.NewInt(-1)); err == nil {
		t.Error("IDFromInteger(-1) should fail")
	}
}

func TestDecodeLargeID(t *testing.T) {
	doc := `{"id":340282366920938463463374607431768211455,"creationtime":"2024-01-15T08:30:00Z",` +
		`"name":"n","description":"","started":null,"finished":null,"subtasks":null}`
	task, _ := mustDecode(t, doc)
	if task.ID() != uuid.MustParse("ffffffff-ffff-ffff-ffff-ffffffffffff") {
		t.Errorf("ID = %s", task.ID())
	}
}

func TestDecodeTaggedMissingSubtasksIsNone(t *testing.T) {
	doc := `{"id":7,"creationtime":"2024-01-15T08:30:00Z","name":"n","description":"d",` +
		`"started":"2024-01-15T09:00:00Z","finished":null}`
	task, gen := mustDecode(t, doc)

	if gen != GenerationV3 {
		t.Errorf("Generation = %v, want v3", gen)
	}
	if task.HasSubtaskList() {
		t.Error("missing subtasks should decode as no list")
	}
	if !task.IsStarted() || task.IsFinished() {
		t.Errorf("Status = %v, want started", task.Status())
	}
}

func TestDecodePositionalGenerations(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		gen     Generation
		created time.Time
		hasList bool
	}{
		{
			name:    "v3",
			doc:     `[1,"2024-01-15T08:30:00Z","n","d",null,null,[2,3]]`,
			gen:     GenerationV3,
			created: created,
			hasList: true,
		},
		{
			name:    "v2",
			doc:     `[1,"2024-01-15T08:30:00Z","n","d",null,null]`,
			gen:     GenerationV2,
			created: created,
		},
		{
			name:    "v1",
			doc:     `[1,"n","d",null,null]`,
			gen:     GenerationV1,
			created: decoded,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			task, gen := mustDecode(t, tt.doc)
			if gen != tt.gen {
				t.Errorf("Generation = %v, want %v", gen, tt.gen)
			}
			if !task.CreationTime().Equal(tt.created) {
				t.Errorf("CreationTime = %v, want %v", task.CreationTime(), tt.created)
			}
			if task.HasSubtaskList() != tt.hasList {
				t.Errorf("HasSubtaskList = %v, want %v", task.HasSubtaskList(), tt.hasList)
			}
			if task.Name != "n" || task.Description != "d" {
				t.Errorf("Name/Description = %q/%q", task.Name, task.Description)
			}
		})
	}
}

func TestDecodeTaggedV1InjectsNow(t *testing.T) {
	doc := `{"id":5,"name":"old","description":"","started":null,"finished":null}`
	task, gen := mustDecode(t, doc)

	if gen != GenerationV1 {
		t.Errorf("Generation = %v, want v1", gen)
	}
	if !task.CreationTime().Equal(decoded) {
		t.Errorf("CreationTime = %v, want decode time %v", task.CreationTime(), decoded)
	}
}

func TestDecodeLegacyRejectPolicy(t *testing.T) {
	doc := `{"id":5,"name":"old","description":"","started":null,"finished":null}`
	_, _, err := fixedDecoder(LegacyCreationReject).Decode([]byte(doc))
	wantMalformed(t, err, KindMissingField, "creationtime")

	// Newer generations are unaffected.
	doc = `[1,"2024-01-15T08:30:00Z","n","d",null,null]`
	if _, _, err := fixedDecoder(LegacyCreationReject).Decode([]byte(doc)); err != nil {
		t.Errorf("v2 document with reject policy: %v", err)
	}
}

func TestParseLegacyCreation(t *testing.T) {
	if p, err := ParseLegacyCreation("reject"); err != nil || p != LegacyCreationReject {
		t.Errorf("ParseLegacyCreation(reject) = %v, %v", p, err)
	}
	if p, err := ParseLegacyCreation(""); err != nil || p != LegacyCreationNow {
		t.Errorf("ParseLegacyCreation(\"\") = %v, %v", p, err)
	}
	if _, err := ParseLegacyCreation("guess"); err == nil {
		t.Error("ParseLegacyCreation(guess) should fail")
	}
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name  string
		doc   string
		kind  ErrorKind
		field string
	}{
		{
			name:  "missing name",
			doc:   `{"id":1,"creationtime":"2024-01-15T08:30:00Z","description":"","started":null,"finished":null}`,
			kind:  KindMissingField,
			field: "name",
		},
		{
			name:  "duplicate name",
			doc:   `{"id":1,"creationtime":"2024-01-15T08:30:00Z","name":"a","name":"b","description":"","started":null,"finished":null}`,
			kind:  KindDuplicateField,
			field: "name",
		},
		{
			name:  "unknown field",
			doc:   `{"id":1,"creationtime":"2024-01-15T08:30:00Z","name":"a","description":"","started":null,"finished":null,"priority":3}`,
			kind:  KindUnknownField,
			field: "priority",
		},
		{
			name:  "string id",
			doc:   `{"id":"1","creationtime":"2024-01-15T08:30:00Z","name":"a","description":"","started":null,"finished":null}`,
			kind:  KindInvalidType,
			field: "id",
		},
		{
			name:  "negative id",
			doc:   `[-1,"2024-01-15T08:30:00Z","n","d",null,null,null]`,
			kind:  KindInvalidType,
			field: "id",
		},
		{
			name:  "fractional id",
			doc:   `[1.5,"2024-01-15T08:30:00Z","n","d",null,null,null]`,
			kind:  KindInvalidType,
			field: "id",
		},
		{
			name:  "id overflow",
			doc:   `[340282366920938463463374607431768211456,"2024-01-15T08:30:00Z","n","d",null,null,null]`,
			kind:  KindInvalidType,
			field: "id",
		},
		{
			name:  "bad timestamp",
			doc:   `[1,"yesterday","n","d",null,null,null]`,
			kind:  KindInvalidType,
			field: "creationtime",
		},
		{
			name:  "subtask not integer",
			doc:   `[1,"2024-01-15T08:30:00Z","n","d",null,null,["x"]]`,
			kind:  KindInvalidType,
			field: "subtasks",
		},
		{
			name:  "too many elements",
			doc:   `[1,"2024-01-15T08:30:00Z","n","d",null,null,null,null]`,
			kind:  KindInvalidLength,
			field: "",
		},
		{
			name:  "finished without started",
			doc:   `[1,"2024-01-15T08:30:00Z","n","d",null,"2024-01-15T09:00:00Z",null]`,
			kind:  KindInvalidState,
			field: "finished",
		},
		{
			name:  "self reference",
			doc:   `[1,"2024-01-15T08:30:00Z","n","d",null,null,[1]]`,
			kind:  KindInvalidState,
			field: "subtasks",
		},
		{
			name:  "repeated subtask",
			doc:   `{"id":1,"creationtime":"2024-01-15T08:30:00Z","name":"n","description":"d","started":null,"finished":null,"subtasks":[2,2]}`,
			kind:  KindInvalidState,
			field: "subtasks",
		},
		{
			name:  "not a task",
			doc:   `"task"`,
			kind:  KindInvalidType,
			field: "",
		},
		{
			name:  "syntax",
			doc:   `{"id":1,`,
			kind:  KindSyntax,
			field: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := fixedDecoder(LegacyCreationNow).Decode([]byte(tt.doc))
			me := wantMalformed(t, err, tt.kind, tt.field)
			if me.Index != -1 {
				t.Errorf("Index = %d, want -1 for a single document", me.Index)
			}
		})
	}
}

func TestErrorMessageNamesField(t *testing.T) {
	_, err := Decode([]byte(`{"id":"abc","creationtime":"2024-01-15T08:30:00Z","name":"a","description":"","started":null,"finished":null}`))
	if err == nil || !strings.Contains(err.Error(), `"id"`) {
		t.Errorf("error = %v, want it to name the id field", err)
	}
}

func TestEncodeAllDecodeAllPreservesOrder(t *testing.T) {
	var tasks []*model.Task
	for i, name := range []string{"c", "a", "b"} {
		tasks = append(tasks, model.NewTaskAt(created.Add(time.Duration(-i)*time.Hour), name, ""))
	}

	data, err := EncodeAll(tasks)
	if err != nil {
		t.Fatalf("EncodeAll() error: %v", err)
	}
	got, err := DecodeAll(data)
	if err != nil {
		t.Fatalf("DecodeAll() error: %v", err)
	}
	if len(got) != len(tasks) {
		t.Fatalf("len = %d, want %d", len(got), len(tasks))
	}
	for i := range tasks {
		if !got[i].Equal(tasks[i]) {
			t.Errorf("task %d = %q, want %q", i, got[i].Name, tasks[i].Name)
		}
	}
}

func TestEncodeAllEmpty(t *testing.T) {
	data, err := EncodeAll(nil)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "[]" {
		t.Errorf("EncodeAll(nil) = %s, want []", data)
	}

	got, err := DecodeAll(data)
	if err != nil {
		t.Fatalf("DecodeAll([]) error: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("len = %d, want 0", len(got))
	}
}

func TestEncodeAllIndentDecodes(t *testing.T) {
	task := model.NewTaskAt(created, "exported", "")
	data, err := EncodeAllIndent([]*model.Task{task})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "\n  {") {
		t.Errorf("EncodeAllIndent output not indented: %s", data)
	}
	got, err := DecodeAll(data)
	if err != nil {
		t.Fatalf("DecodeAll() error: %v", err)
	}
	if len(got) != 1 || !got[0].Equal(task) {
		t.Error("indented export did not round trip")
	}
}

func TestDecodeAllMixedGenerations(t *testing.T) {
	data := `[
		[1,"n1","",null,null],
		{"id":2,"creationtime":"2024-01-15T08:30:00Z","name":"n2","description":"","started":null,"finished":null,"subtasks":[1]}
	]`
	got, err := fixedDecoder(LegacyCreationNow).DecodeAll([]byte(data))
	if err != nil {
		t.Fatalf("DecodeAll() error: %v", err)
	}
	if got[0].Generation != GenerationV1 || got[1].Generation != GenerationV3 {
		t.Errorf("generations = %v, %v", got[0].Generation, got[1].Generation)
	}
}

func TestDecodeAllReportsIndex(t *testing.T) {
	data := `[
		[1,"2024-01-15T08:30:00Z","n","d",null,null,null],
		[2,"2024-01-15T08:30:00Z","n","d",null,null,null],
		[3,"2024-01-15T08:30:00Z",7,"d",null,null,null]
	]`
	_, err := DecodeAll([]byte(data))
	me := wantMalformed(t, err, KindInvalidType, "name")
	if me.Index != 2 {
		t.Errorf("Index = %d, want 2", me.Index)
	}
	if !strings.HasPrefix(err.Error(), "task 2:") {
		t.Errorf("Error() = %q, want task index prefix", err.Error())
	}
}

func TestDecodeAllRejectsNonSequence(t *testing.T) {
	for _, doc := range []string{`null`, `{}`, `"x"`} {
		if _, err := DecodeAll([]byte(doc)); !errors.Is(err, ErrMalformedInput) {
			t.Errorf("DecodeAll(%s) err = %v, want ErrMalformedInput", doc, err)
		}
	}
}
