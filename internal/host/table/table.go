// SPDX-License-Identifier: MPL-2.0

// Package table reads a slot table from a TOML file, for hosts that export
// their layer names rather than storing them in a Unity asset:
//
//	[layers]
//	0 = "Default"
//	4 = "Water"
//	31 = "Minimap"
package table

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/layergen/layergen/internal/slot"

	"github.com/pelletier/go-toml/v2"
)

// ErrInvalidSlot is returned when a [layers] key is not an index in [0, slot.Count).
var ErrInvalidSlot = errors.New("invalid slot key")

type (
	// File is a slot.Namer backed by a TOML table file. The file is re-read
	// when its size or modification time changes.
	File struct {
		path string

		mu      sync.Mutex
		size    int64
		modTime time.Time
		loaded  bool
		names   [slot.Count]string
	}

	// InvalidSlotError reports the offending key. It wraps ErrInvalidSlot.
	InvalidSlotError struct {
		Key string
	}

	document struct {
		Layers map[string]string `toml:"layers"`
	}
)

// NewFile creates a File reading path.
func NewFile(path string) *File {
	return &File{path: path}
}

// Path returns the table file path.
func (f *File) Path() string { return f.path }

// SlotName implements slot.Namer.
func (f *File) SlotName(index int) (string, error) {
	if index < 0 || index >= slot.Count {
		return "", &slot.IndexOutOfRangeError{Index: index}
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.refresh(); err != nil {
		return "", err
	}
	return f.names[index], nil
}

// ReadTable implements slot.TableReader with one stat and at most one parse.
func (f *File) ReadTable() ([slot.Count]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.refresh(); err != nil {
		return [slot.Count]string{}, err
	}
	return f.names, nil
}

// refresh re-reads the file when its stat changed. Must be called with mu held.
func (f *File) refresh() error {
	info, err := os.Stat(f.path)
	if err != nil {
		return fmt.Errorf("stat %s: %w", f.path, err)
	}
	if f.loaded && info.Size() == f.size && info.ModTime().Equal(f.modTime) {
		return nil
	}

	data, err := os.ReadFile(f.path)
	if err != nil {
		return fmt.Errorf("read %s: %w", f.path, err)
	}
	names, err := Parse(data)
	if err != nil {
		return fmt.Errorf("parse %s: %w", f.path, err)
	}
	f.names, f.size, f.modTime, f.loaded = names, info.Size(), info.ModTime(), true
	return nil
}

// Parse decodes a TOML slot table.
func Parse(data []byte) ([slot.Count]string, error) {
	var names [slot.Count]string

	var doc document
	if err := toml.Unmarshal(data, &doc); err != nil {
		return names, fmt.Errorf("decode toml: %w", err)
	}

	for key, name := range doc.Layers {
		idx, err := strconv.Atoi(key)
		if err != nil || idx < 0 || idx >= slot.Count {
			return names, &InvalidSlotError{Key: key}
		}
		names[idx] = name
	}
	return names, nil
}

// Error implements the error interface for InvalidSlotError.
func (e *InvalidSlotError) Error() string {
	return fmt.Sprintf("invalid slot key %q: must be an integer in [0,%d)", e.Key, slot.Count)
}

// Unwrap returns ErrInvalidSlot for errors.Is() compatibility.
func (e *InvalidSlotError) Unwrap() error { return ErrInvalidSlot }
