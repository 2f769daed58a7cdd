// SPDX-License-Identifier: MPL-2.0

package table

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/layergen/layergen/internal/slot"
)

func TestParse(t *testing.T) {
	t.Parallel()

	names, err := Parse([]byte(`
# exported from the level editor
[layers]
0 = "Default"
1 = "Transparent FX"
31 = "Post Processing"
`))
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}

	want := map[int]string{0: "Default", 1: "Transparent FX", 31: "Post Processing"}
	for i := range slot.Count {
		if names[i] != want[i] {
			t.Errorf("names[%d] = %q, want %q", i, names[i], want[i])
		}
	}
}

func TestParse_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		data    string
		wantErr error
	}{
		{"index past table", "[layers]\n32 = \"Overflow\"\n", ErrInvalidSlot},
		{"negative index", "[layers]\n-1 = \"Negative\"\n", ErrInvalidSlot},
		{"non-numeric key", "[layers]\nwater = \"Water\"\n", ErrInvalidSlot},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if _, err := Parse([]byte(tt.data)); !errors.Is(err, tt.wantErr) {
				t.Errorf("Parse() error = %v, want %v", err, tt.wantErr)
			}
		})
	}

	if _, err := Parse([]byte("[layers\n")); err == nil {
		t.Error("Parse() of malformed TOML succeeded")
	}
}

func TestParse_EmptyDocument(t *testing.T) {
	t.Parallel()

	names, err := Parse(nil)
	if err != nil {
		t.Fatalf("Parse(nil) error: %v", err)
	}
	if names != ([slot.Count]string{}) {
		t.Errorf("Parse(nil) = %v, want all empty", names)
	}
}

func TestFile_SlotName(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "layers.toml")
	if err := os.WriteFile(path, []byte("[layers]\n5 = \"Water\"\n"), 0o644); err != nil {
		t.Fatalf("write table: %v", err)
	}

	s, err := slot.ReadSnapshot(NewFile(path))
	if err != nil {
		t.Fatalf("ReadSnapshot() error: %v", err)
	}
	if s.Name(5) != "Water" {
		t.Errorf("Name(5) = %q, want %q", s.Name(5), "Water")
	}
	if len(s.Named()) != 1 {
		t.Errorf("Named() = %v, want one slot", s.Named())
	}
}

func TestFile_ReadTable(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "layers.toml")
	if err := os.WriteFile(path, []byte("[layers]\n0 = \"Old0\"\n1 = \"Old1\"\n"), 0o644); err != nil {
		t.Fatalf("write table: %v", err)
	}

	f := NewFile(path)
	var _ slot.TableReader = f

	names, err := f.ReadTable()
	if err != nil {
		t.Fatalf("ReadTable() error: %v", err)
	}
	if names[0] != "Old0" || names[1] != "Old1" {
		t.Errorf("ReadTable() = %q", names[:2])
	}

	if err := os.WriteFile(path, []byte("[layers]\n0 = \"New0\"\n2 = \"Extra\"\n"), 0o644); err != nil {
		t.Fatalf("rewrite table: %v", err)
	}
	s, err := slot.ReadSnapshot(f)
	if err != nil {
		t.Fatalf("ReadSnapshot() error: %v", err)
	}
	want := slot.MustFromNames(map[int]string{0: "New0", 2: "Extra"})
	if !s.Equal(want) {
		t.Errorf("snapshot after rewrite = %v, want %v", s.Named(), want.Named())
	}

	if err := os.WriteFile(path, []byte("[layers]\n40 = \"Overflow\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err = slot.ReadSnapshot(f)
	var readErr *slot.ReadError
	if !errors.As(err, &readErr) || readErr.Index != -1 || !errors.Is(err, ErrInvalidSlot) {
		t.Errorf("ReadSnapshot() error = %v, want whole-table ReadError wrapping ErrInvalidSlot", err)
	}
}
