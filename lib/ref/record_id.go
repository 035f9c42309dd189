// Copyright 2026 The SDM Core Authors
// SPDX-License-Identifier: Apache-2.0

package ref

import "fmt"

// RecordID is an opaque identifier assigned by the event bus to a
// published record (a goal event, a job, a state update). The bus
// implementation may be HTTP-backed or in-memory, so RecordID carries
// no transport-specific format assumption — only "non-empty, opaque,
// comparable".
//
// RecordID is an immutable value type. The zero value is not valid;
// use IsZero to check.
type RecordID struct {
	id string
}

// ParseRecordID validates and wraps a raw record id string.
func ParseRecordID(raw string) (RecordID, error) {
	if raw == "" {
		return RecordID{}, fmt.Errorf("empty record id")
	}
	return RecordID{id: raw}, nil
}

// MustParseRecordID is like ParseRecordID but panics on error.
func MustParseRecordID(raw string) RecordID {
	r, err := ParseRecordID(raw)
	if err != nil {
		panic(fmt.Sprintf("ref.MustParseRecordID(%q): %v", raw, err))
	}
	return r
}

// String returns the record id string.
func (r RecordID) String() string { return r.id }

// IsZero reports whether the RecordID is the zero value (uninitialized).
func (r RecordID) IsZero() bool { return r.id == "" }

// MarshalText implements encoding.TextMarshaler.
func (r RecordID) MarshalText() ([]byte, error) {
	if r.id == "" {
		return nil, nil
	}
	return []byte(r.id), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. An empty input
// produces the zero value (unset record id).
func (r *RecordID) UnmarshalText(data []byte) error {
	if len(data) == 0 {
		*r = RecordID{}
		return nil
	}
	parsed, err := ParseRecordID(string(data))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}
