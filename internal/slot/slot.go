// SPDX-License-Identifier: MPL-2.0

// Package slot models the host's fixed-size named-layer table.
//
// The table always has exactly Count slots. A slot's index is its stable
// identity; its name is controlled by the host and may change at any time.
// A Snapshot captures every name at one instant and is never mutated.
package slot

import (
	"errors"
	"fmt"
)

// Count is the number of slots in the host's layer table.
const Count = 32

// ErrIndexOutOfRange is returned when a slot index is outside [0, Count).
var ErrIndexOutOfRange = errors.New("slot index out of range")

type (
	// Namer is the host query capability: it returns the name bound to the
	// slot at index, or "" when the slot is unnamed. Implementations are only
	// called with indices in [0, Count).
	Namer interface {
		SlotName(index int) (string, error)
	}

	// TableReader is implemented by hosts that can capture the whole table in
	// one query. ReadSnapshot prefers it over per-slot SlotName calls so a
	// snapshot never mixes two versions of the host's table.
	TableReader interface {
		ReadTable() ([Count]string, error)
	}

	// NamerFunc adapts a plain function to the Namer interface.
	NamerFunc func(index int) (string, error)

	// Snapshot is an immutable capture of all slot names, in index order.
	// The zero value is the all-empty table.
	Snapshot struct {
		names [Count]string
	}

	// Entry is one named slot of a snapshot.
	Entry struct {
		Index int
		Name  string
	}

	// IndexOutOfRangeError is returned when a slot index is invalid.
	// It wraps ErrIndexOutOfRange for errors.Is() compatibility.
	IndexOutOfRangeError struct {
		Index int
	}

	// ReadError reports the slot whose host query failed. Index is -1 when a
	// whole-table read failed.
	ReadError struct {
		Index int
		Err   error
	}
)

// SlotName calls f(index).
func (f NamerFunc) SlotName(index int) (string, error) { return f(index) }

// ReadSnapshot captures the host's table. A namer that is also a
// TableReader is read in one call; otherwise every slot is queried in
// ascending index order, stopping at the first failed query.
func ReadSnapshot(namer Namer) (Snapshot, error) {
	var s Snapshot
	if tr, ok := namer.(TableReader); ok {
		names, err := tr.ReadTable()
		if err != nil {
			return Snapshot{}, &ReadError{Index: -1, Err: err}
		}
		s.names = names
		return s, nil
	}
	for i := range Count {
		name, err := namer.SlotName(i)
		if err != nil {
			return Snapshot{}, &ReadError{Index: i, Err: err}
		}
		s.names[i] = name
	}
	return s, nil
}

// FromNames builds a snapshot from a sparse index→name map. Indices outside
// [0, Count) are rejected.
func FromNames(names map[int]string) (Snapshot, error) {
	var s Snapshot
	for i, name := range names {
		if i < 0 || i >= Count {
			return Snapshot{}, &IndexOutOfRangeError{Index: i}
		}
		s.names[i] = name
	}
	return s, nil
}

// MustFromNames is like FromNames but panics on an invalid index.
// Intended for tests and static tables.
func MustFromNames(names map[int]string) Snapshot {
	s, err := FromNames(names)
	if err != nil {
		panic(err)
	}
	return s
}

// Name returns the name of the slot at index, or "" when the slot is unnamed
// or index is out of range.
func (s Snapshot) Name(index int) string {
	if index < 0 || index >= Count {
		return ""
	}
	return s.names[index]
}

// Names returns a copy of all slot names in index order.
func (s Snapshot) Names() [Count]string {
	return s.names
}

// Named returns the non-empty slots in ascending index order.
func (s Snapshot) Named() []Entry {
	var out []Entry
	for i, name := range s.names {
		if name != "" {
			out = append(out, Entry{Index: i, Name: name})
		}
	}
	return out
}

// Equal reports whether both snapshots bind identical names to every slot.
func (s Snapshot) Equal(other Snapshot) bool {
	return s.names == other.names
}

// SlotName implements Namer so a snapshot can stand in for a host.
func (s Snapshot) SlotName(index int) (string, error) {
	if index < 0 || index >= Count {
		return "", &IndexOutOfRangeError{Index: index}
	}
	return s.names[index], nil
}

// Error implements the error interface for IndexOutOfRangeError.
func (e *IndexOutOfRangeError) Error() string {
	return fmt.Sprintf("slot index %d out of range [0,%d)", e.Index, Count)
}

// Unwrap returns ErrIndexOutOfRange for errors.Is() compatibility.
func (e *IndexOutOfRangeError) Unwrap() error { return ErrIndexOutOfRange }

// Error implements the error interface for ReadError.
func (e *ReadError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("read slot table: %v", e.Err)
	}
	return fmt.Sprintf("read slot %d: %v", e.Index, e.Err)
}

// Unwrap returns the underlying host error.
func (e *ReadError) Unwrap() error { return e.Err }
