package codec

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/nhle/taskman/internal/model"
)

// Generation identifies which historical document shape a task was read from.
type Generation int

const (
	// GenerationV1 has no creation time and no subtask list.
	GenerationV1 Generation = iota + 1
	// GenerationV2 adds the creation time.
	GenerationV2
	// GenerationV3 adds the subtask list. This is what the encoder writes.
	GenerationV3
)

// String returns the short generation name.
func (g Generation) String() string {
	switch g {
	case GenerationV1:
		return "v1"
	case GenerationV2:
		return "v2"
	case GenerationV3:
		return "v3"
	default:
		return "unknown"
	}
}

// Current is the generation the encoder produces.
const Current = GenerationV3

// Wire field names, in encoding order.
const (
	fieldID           = "id"
	fieldCreationTime = "creationtime"
	fieldName         = "name"
	fieldDescription  = "description"
	fieldStarted      = "started"
	fieldFinished     = "finished"
	fieldSubtasks     = "subtasks"
)

var (
	fieldsV1 = []string{fieldID, fieldName, fieldDescription, fieldStarted, fieldFinished}
	fieldsV2 = []string{fieldID, fieldCreationTime, fieldName, fieldDescription, fieldStarted, fieldFinished}
	fieldsV3 = []string{fieldID, fieldCreationTime, fieldName, fieldDescription, fieldStarted, fieldFinished, fieldSubtasks}
)

// rawTask holds decoded field values before the task invariants are checked.
type rawTask struct {
	id          uuid.UUID
	created     time.Time
	name        string
	description string
	started     *time.Time
	finished    *time.Time
	subtasks    []uuid.UUID
}

// decodeCommon reads the fields every generation shares.
func decodeCommon(set fieldSet) (rawTask, error) {
	var (
		rt  rawTask
		err error
	)
	if rt.id, err = decodeID(set[fieldID], fieldID); err != nil {
		return rt, err
	}
	if rt.name, err = decodeString(set[fieldName], fieldName); err != nil {
		return rt, err
	}
	if rt.description, err = decodeString(set[fieldDescription], fieldDescription); err != nil {
		return rt, err
	}
	if rt.started, err = decodeOptionalTime(set[fieldStarted], fieldStarted); err != nil {
		return rt, err
	}
	if rt.finished, err = decodeOptionalTime(set[fieldFinished], fieldFinished); err != nil {
		return rt, err
	}
	return rt, nil
}

// decodeV3 reads the current shape. A tagged document may omit "subtasks",
// which reads as no subtask list; a positional one may not.
func decodeV3(doc document) (rawTask, error) {
	fields := fieldsV3
	if !doc.positional && !doc.has(fieldSubtasks) {
		fields = fieldsV2
	}
	set, err := doc.collect(fields)
	if err != nil {
		return rawTask{}, err
	}

	rt, err := decodeCommon(set)
	if err != nil {
		return rt, err
	}
	if rt.created, err = decodeTime(set[fieldCreationTime], fieldCreationTime); err != nil {
		return rt, err
	}
	if raw, ok := set[fieldSubtasks]; ok {
		if rt.subtasks, err = decodeIDList(raw, fieldSubtasks); err != nil {
			return rt, err
		}
	}
	return rt, nil
}

// decodeV2 reads the shape with a creation time but no subtask list. It is
// only reached for positional documents, since tagged v2 documents are
// already accepted by decodeV3.
func decodeV2(doc document) (rawTask, error) {
	set, err := doc.collect(fieldsV2)
	if err != nil {
		return rawTask{}, err
	}
	rt, err := decodeCommon(set)
	if err != nil {
		return rt, err
	}
	rt.created, err = decodeTime(set[fieldCreationTime], fieldCreationTime)
	return rt, err
}

// decodeV1 reads the oldest shape. The creation time is filled from now.
func decodeV1(doc document, now time.Time) (rawTask, error) {
	set, err := doc.collect(fieldsV1)
	if err != nil {
		return rawTask{}, err
	}
	rt, err := decodeCommon(set)
	if err != nil {
		return rt, err
	}
	rt.created = now.UTC()
	return rt, nil
}

func (doc document) has(key string) bool {
	for _, e := range doc.entries {
		if e.key == key {
			return true
		}
	}
	return false
}

// build validates rt against the task state machine.
func (rt rawTask) build() (*model.Task, error) {
	t, err := model.Restore(rt.id, rt.created, rt.name, rt.description, rt.started, rt.finished, rt.subtasks)
	if err == nil {
		return t, nil
	}

	field := fieldFinished
	if errors.Is(err, model.ErrSelfReference) || errors.Is(err, model.ErrDuplicateSubtask) {
		field = fieldSubtasks
	}
	return nil, &MalformedInputError{
		Index:  -1,
		Field:  field,
		Kind:   KindInvalidState,
		Detail: err.Error(),
		Err:    err,
	}
}
