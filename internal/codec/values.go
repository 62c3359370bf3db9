package codec

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
)

// wireID is a UUID that encodes as an unsigned 128-bit decimal integer,
// reading the 16 bytes big-endian.
type wireID uuid.UUID

// MarshalJSON writes the id as a bare JSON integer.
func (w wireID) MarshalJSON() ([]byte, error) {
	return []byte(IDToInteger(uuid.UUID(w)).String()), nil
}

// IDToInteger returns the u128 value of id.
func IDToInteger(id uuid.UUID) *big.Int {
	return new(big.Int).SetBytes(id[:])
}

// IDFromInteger converts a u128 value back to a UUID.
func IDFromInteger(n *big.Int) (uuid.UUID, error) {
	if n.Sign() < 0 || n.BitLen() > 128 {
		return uuid.Nil, fmt.Errorf("%s out of range for u128", n)
	}
	var id uuid.UUID
	n.FillBytes(id[:])
	return id, nil
}

// jsonKind reports what sort of JSON value raw holds, from its first byte.
func jsonKind(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return "nothing"
	}
	switch raw[0] {
	case '"':
		return "string"
	case '{':
		return "map"
	case '[':
		return "sequence"
	case 'n':
		return "null"
	case 't', 'f':
		return "boolean"
	default:
		return "number"
	}
}

func isNull(raw json.RawMessage) bool {
	return jsonKind(raw) == "null"
}

// decodeID reads a u128 integer. Strings, floats, exponents and negative
// numbers are rejected.
func decodeID(raw json.RawMessage, field string) (uuid.UUID, error) {
	raw = bytes.TrimSpace(raw)
	if jsonKind(raw) != "number" {
		return uuid.Nil, malformed(KindInvalidType, field,
			fmt.Sprintf("expected u128 integer, found %s", jsonKind(raw)))
	}
	for _, c := range raw {
		if c < '0' || c > '9' {
			return uuid.Nil, malformed(KindInvalidType, field,
				fmt.Sprintf("expected u128 integer, found %s", raw))
		}
	}
	n, ok := new(big.Int).SetString(string(raw), 10)
	if !ok {
		return uuid.Nil, malformed(KindInvalidType, field,
			fmt.Sprintf("expected u128 integer, found %s", raw))
	}
	id, err := IDFromInteger(n)
	if err != nil {
		return uuid.Nil, malformed(KindInvalidType, field, err.Error())
	}
	return id, nil
}

func decodeString(raw json.RawMessage, field string) (string, error) {
	if jsonKind(raw) != "string" {
		return "", malformed(KindInvalidType, field,
			fmt.Sprintf("expected string, found %s", jsonKind(raw)))
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", &MalformedInputError{Index: -1, Field: field, Kind: KindInvalidType, Err: err}
	}
	return s, nil
}

func decodeTime(raw json.RawMessage, field string) (time.Time, error) {
	s, err := decodeString(raw, field)
	if err != nil {
		return time.Time{}, malformed(KindInvalidType, field,
			fmt.Sprintf("expected RFC 3339 timestamp, found %s", jsonKind(raw)))
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, &MalformedInputError{
			Index:  -1,
			Field:  field,
			Kind:   KindInvalidType,
			Detail: fmt.Sprintf("expected RFC 3339 timestamp, found %q", s),
			Err:    err,
		}
	}
	return t.UTC(), nil
}

// decodeOptionalTime reads a timestamp or null.
func decodeOptionalTime(raw json.RawMessage, field string) (*time.Time, error) {
	if isNull(raw) {
		return nil, nil
	}
	t, err := decodeTime(raw, field)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// decodeIDList reads null (nil result) or a sequence of u128 integers
// (non-nil result, possibly empty).
func decodeIDList(raw json.RawMessage, field string) ([]uuid.UUID, error) {
	if isNull(raw) {
		return nil, nil
	}
	if jsonKind(raw) != "sequence" {
		return nil, malformed(KindInvalidType, field,
			fmt.Sprintf("expected sequence of u128 integers, found %s", jsonKind(raw)))
	}
	var elems []json.RawMessage
	if err := json.Unmarshal(raw, &elems); err != nil {
		return nil, &MalformedInputError{Index: -1, Field: field, Kind: KindInvalidType, Err: err}
	}
	ids := make([]uuid.UUID, 0, len(elems))
	for i, elem := range elems {
		id, err := decodeID(elem, field)
		if err != nil {
			if me, ok := err.(*MalformedInputError); ok {
				me.Detail = fmt.Sprintf("element %d: %s", i, me.Detail)
			}
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
