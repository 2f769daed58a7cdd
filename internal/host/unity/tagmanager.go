// SPDX-License-Identifier: MPL-2.0

// Package unity reads the layer table of a Unity project from its
// text-serialized ProjectSettings/TagManager.asset.
package unity

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sync"
	"time"

	"github.com/layergen/layergen/internal/slot"

	"gopkg.in/yaml.v3"
)

// DefaultTagManagerPath is the TagManager asset relative to a project root.
var DefaultTagManagerPath = filepath.Join("ProjectSettings", "TagManager.asset")

var (
	// ErrBinaryAsset is returned when the asset is not text-serialized.
	ErrBinaryAsset = errors.New("TagManager.asset is binary-serialized")
	// ErrNoTagManager is returned when the asset has no TagManager document.
	ErrNoTagManager = errors.New("asset has no TagManager document")

	utf8BOM = []byte{0xEF, 0xBB, 0xBF}

	// documentTag matches Unity's "--- !u!78 &1" document start lines, whose
	// class tags are not meaningful to a generic YAML decoder.
	documentTag = regexp.MustCompile(`^--- !u!\d+ &\d+.*$`)
)

type (
	// TagManager is a slot.Namer backed by a TagManager.asset file. The file
	// is re-parsed only when its size or modification time changes.
	TagManager struct {
		path string

		mu      sync.Mutex
		size    int64
		modTime time.Time
		loaded  bool
		layers  [slot.Count]string
	}

	tagManagerAsset struct {
		TagManager *struct {
			Layers []*string `yaml:"layers"`
		} `yaml:"TagManager"`
	}
)

// NewTagManager creates a TagManager reading path. The file is not opened
// until the first query.
func NewTagManager(path string) *TagManager {
	return &TagManager{path: path}
}

// Path returns the asset path.
func (t *TagManager) Path() string { return t.path }

// SlotName implements slot.Namer.
func (t *TagManager) SlotName(index int) (string, error) {
	if index < 0 || index >= slot.Count {
		return "", &slot.IndexOutOfRangeError{Index: index}
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.refresh(); err != nil {
		return "", err
	}
	return t.layers[index], nil
}

// ReadTable implements slot.TableReader with one stat and at most one parse.
func (t *TagManager) ReadTable() ([slot.Count]string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.refresh(); err != nil {
		return [slot.Count]string{}, err
	}
	return t.layers, nil
}

// refresh re-reads the asset when its stat changed. Must be called with mu held.
func (t *TagManager) refresh() error {
	info, err := os.Stat(t.path)
	if err != nil {
		return fmt.Errorf("stat %s: %w", t.path, err)
	}
	if t.loaded && info.Size() == t.size && info.ModTime().Equal(t.modTime) {
		return nil
	}

	data, err := os.ReadFile(t.path)
	if err != nil {
		return fmt.Errorf("read %s: %w", t.path, err)
	}
	layers, err := ParseLayers(data)
	if err != nil {
		return fmt.Errorf("parse %s: %w", t.path, err)
	}

	t.layers = layers
	t.size = info.Size()
	t.modTime = info.ModTime()
	t.loaded = true
	return nil
}

// ParseLayers extracts the layer names from TagManager.asset contents.
// Missing and null entries are empty; entries beyond slot.Count are ignored.
func ParseLayers(data []byte) ([slot.Count]string, error) {
	var layers [slot.Count]string

	data = bytes.TrimPrefix(data, utf8BOM)
	if !bytes.HasPrefix(data, []byte("%YAML")) {
		return layers, ErrBinaryAsset
	}

	doc, err := stripUnityDirectives(data)
	if err != nil {
		return layers, err
	}

	var asset tagManagerAsset
	if err := yaml.Unmarshal(doc, &asset); err != nil {
		return layers, fmt.Errorf("decode yaml: %w", err)
	}
	if asset.TagManager == nil {
		return layers, ErrNoTagManager
	}

	for i, name := range asset.TagManager.Layers {
		if i >= slot.Count {
			break
		}
		if name != nil {
			layers[i] = *name
		}
	}
	return layers, nil
}

// stripUnityDirectives drops %YAML/%TAG directives and reduces Unity's tagged
// document markers to a plain "---".
func stripUnityDirectives(data []byte) ([]byte, error) {
	var out bytes.Buffer
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for sc.Scan() {
		line := sc.Bytes()
		switch {
		case bytes.HasPrefix(line, []byte("%")):
			continue
		case documentTag.Match(line):
			out.WriteString("---\n")
		default:
			out.Write(line)
			out.WriteByte('\n')
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("scan asset: %w", err)
	}
	return out.Bytes(), nil
}
