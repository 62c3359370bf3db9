package codec

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// entry is one key/value pair of a tagged document, in source order.
type entry struct {
	key   string
	value json.RawMessage
}

// document is a single task in either representation: a tagged map
// (entries) or a positional sequence (elems).
type document struct {
	positional bool
	entries    []entry
	elems      []json.RawMessage
}

// parseDocument splits raw into its entries or elements without
// interpreting any values. Duplicate keys are kept so that generation
// decoders can report them.
func parseDocument(raw json.RawMessage) (document, error) {
	switch jsonKind(raw) {
	case "sequence":
		var elems []json.RawMessage
		if err := json.Unmarshal(raw, &elems); err != nil {
			return document{}, &MalformedInputError{Index: -1, Kind: KindSyntax, Err: err, Detail: err.Error()}
		}
		return document{positional: true, elems: elems}, nil
	case "map":
		entries, err := parseEntries(raw)
		if err != nil {
			return document{}, &MalformedInputError{Index: -1, Kind: KindSyntax, Err: err, Detail: err.Error()}
		}
		return document{entries: entries}, nil
	default:
		return document{}, malformed(KindInvalidType, "",
			fmt.Sprintf("expected struct Task as map or sequence, found %s", jsonKind(raw)))
	}
}

func parseEntries(raw json.RawMessage) ([]entry, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))

	if _, err := dec.Token(); err != nil {
		return nil, err
	}

	var entries []entry
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("object key %v is not a string", tok)
		}

		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return nil, fmt.Errorf("reading value of %q: %w", key, err)
		}
		entries = append(entries, entry{key: key, value: value})
	}

	if _, err := dec.Token(); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return entries, nil
}

// fieldSet maps each field of a generation to its raw value.
type fieldSet map[string]json.RawMessage

// collect matches doc against the ordered field list of one generation.
// Positional documents must have exactly len(fields) elements; tagged
// documents must name each field once and nothing else.
func (doc document) collect(fields []string) (fieldSet, error) {
	set := make(fieldSet, len(fields))

	if doc.positional {
		if len(doc.elems) < len(fields) {
			return nil, malformed(KindMissingField, fields[len(doc.elems)],
				fmt.Sprintf("sequence has %d elements, expected %d", len(doc.elems), len(fields)))
		}
		if len(doc.elems) > len(fields) {
			return nil, malformed(KindInvalidLength, "",
				fmt.Sprintf("sequence has %d elements, expected %d", len(doc.elems), len(fields)))
		}
		for i, f := range fields {
			set[f] = doc.elems[i]
		}
		return set, nil
	}

	known := make(map[string]bool, len(fields))
	for _, f := range fields {
		known[f] = true
	}
	for _, e := range doc.entries {
		if !known[e.key] {
			return nil, malformed(KindUnknownField, e.key,
				fmt.Sprintf("expected one of %v", fields))
		}
		if _, dup := set[e.key]; dup {
			return nil, malformed(KindDuplicateField, e.key, "")
		}
		set[e.key] = e.value
	}
	for _, f := range fields {
		if _, ok := set[f]; !ok {
			return nil, malformed(KindMissingField, f, "")
		}
	}
	return set, nil
}
