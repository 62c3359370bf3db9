package codec

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/nhle/taskman/internal/model"
)

// LegacyCreation controls what happens when a document has no creation time.
type LegacyCreation int

const (
	// LegacyCreationNow fills the creation time with the decode time.
	LegacyCreationNow LegacyCreation = iota
	// LegacyCreationReject fails the decode instead.
	LegacyCreationReject
)

// ParseLegacyCreation maps a config value to a policy.
func ParseLegacyCreation(s string) (LegacyCreation, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", model.LegacyCreationNow:
		return LegacyCreationNow, nil
	case model.LegacyCreationReject:
		return LegacyCreationReject, nil
	default:
		return 0, fmt.Errorf("unknown legacy creation policy %q", s)
	}
}

// Options configures a Decoder.
type Options struct {
	// Now supplies the creation time for legacy documents. Defaults to time.Now.
	Now func() time.Time

	LegacyCreation LegacyCreation
}

// Decoder turns serialized task documents back into tasks.
type Decoder struct {
	now    func() time.Time
	legacy LegacyCreation
}

// NewDecoder creates a Decoder with the given options.
func NewDecoder(opts Options) *Decoder {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Decoder{now: now, legacy: opts.LegacyCreation}
}

// Decoded is one task from a task set together with the generation it was
// read as.
type Decoded struct {
	Task       *model.Task
	Generation Generation
}

// Decode reads a single task document.
func (d *Decoder) Decode(data []byte) (*model.Task, Generation, error) {
	if !json.Valid(data) {
		return nil, 0, syntaxError(data)
	}
	return d.decodeRaw(bytes.TrimSpace(data))
}

// DecodeAll reads a task set. The top level must be a sequence; order is
// preserved. Any bad document fails the whole set.
func (d *Decoder) DecodeAll(data []byte) ([]Decoded, error) {
	if !json.Valid(data) {
		return nil, syntaxError(data)
	}
	if kind := jsonKind(data); kind != "sequence" {
		return nil, malformed(KindInvalidType, "",
			fmt.Sprintf("expected sequence of tasks, found %s", kind))
	}

	var docs []json.RawMessage
	if err := json.Unmarshal(data, &docs); err != nil {
		return nil, &MalformedInputError{Index: -1, Kind: KindSyntax, Detail: err.Error(), Err: err}
	}

	out := make([]Decoded, 0, len(docs))
	for i, raw := range docs {
		task, gen, err := d.decodeRaw(raw)
		if err != nil {
			if me, ok := err.(*MalformedInputError); ok {
				me.Index = i
			}
			return nil, err
		}
		out = append(out, Decoded{Task: task, Generation: gen})
	}
	return out, nil
}

// decodeRaw tries the current generation first and falls back to older
// generations only while the failure is a missing field.
func (d *Decoder) decodeRaw(raw json.RawMessage) (*model.Task, Generation, error) {
	doc, err := parseDocument(raw)
	if err != nil {
		return nil, 0, err
	}

	rt, firstErr := decodeV3(doc)
	if firstErr == nil {
		return finish(rt, GenerationV3)
	}
	if !isMissingField(firstErr) {
		return nil, 0, firstErr
	}

	rt, err = decodeV2(doc)
	if err == nil {
		return finish(rt, GenerationV2)
	}
	if !isMissingField(err) {
		return nil, 0, legacyError(firstErr, err)
	}

	rt, err = decodeV1(doc, d.now())
	if err == nil {
		if d.legacy == LegacyCreationReject {
			return nil, 0, malformed(KindMissingField, fieldCreationTime,
				"document predates creation times and the legacy policy is reject")
		}
		return finish(rt, GenerationV1)
	}
	if !isMissingField(err) {
		return nil, 0, legacyError(firstErr, err)
	}
	return nil, 0, firstErr
}

// legacyError picks the error to report when an older decoder also failed.
// A shape mismatch means the document is not of that generation, so the
// current generation's complaint stands; anything else is a real problem
// with a document that does have the older shape.
func legacyError(current, legacy error) error {
	if me, ok := legacy.(*MalformedInputError); ok {
		switch me.Kind {
		case KindUnknownField, KindInvalidLength:
			return current
		}
	}
	return legacy
}

func finish(rt rawTask, gen Generation) (*model.Task, Generation, error) {
	t, err := rt.build()
	if err != nil {
		return nil, 0, err
	}
	return t, gen, nil
}

func syntaxError(data []byte) error {
	var v any
	err := json.Unmarshal(data, &v)
	if err == nil {
		err = fmt.Errorf("invalid JSON")
	}
	return &MalformedInputError{Index: -1, Kind: KindSyntax, Detail: err.Error(), Err: err}
}

// Decode reads a single task document using the default options.
func Decode(data []byte) (*model.Task, error) {
	t, _, err := NewDecoder(Options{}).Decode(data)
	return t, err
}

// DecodeAll reads a task set using the default options.
func DecodeAll(data []byte) ([]*model.Task, error) {
	decoded, err := NewDecoder(Options{}).DecodeAll(data)
	if err != nil {
		return nil, err
	}
	tasks := make([]*model.Task, len(decoded))
	for i, d := range decoded {
		tasks[i] = d.Task
	}
	return tasks, nil
}
