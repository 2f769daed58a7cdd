// SPDX-License-Identifier: MPL-2.0

package unity

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/layergen/layergen/internal/slot"
)

func TestParseLayers_ProjectAsset(t *testing.T) {
	t.Parallel()

	data, err := os.ReadFile(filepath.Join("testdata", "TagManager.asset"))
	if err != nil {
		t.Fatalf("read testdata: %v", err)
	}

	layers, err := ParseLayers(data)
	if err != nil {
		t.Fatalf("ParseLayers() error: %v", err)
	}

	want := map[int]string{
		0:  "Default",
		1:  "TransparentFX",
		2:  "Ignore Raycast",
		4:  "Water",
		5:  "UI",
		8:  "Enemy",
		9:  "Player",
		10: "Post Processing",
		31: "Minimap",
	}
	for i := range slot.Count {
		if layers[i] != want[i] {
			t.Errorf("layers[%d] = %q, want %q", i, layers[i], want[i])
		}
	}
}

func TestParseLayers(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		data    string
		want    map[int]string
		wantErr error
	}{
		{
			name: "short sequence leaves tail empty",
			data: "%YAML 1.1\n%TAG !u! tag:unity3d.com,2011:\n--- !u!78 &1\nTagManager:\n  layers:\n  - Default\n  - \n  - Ground\n",
			want: map[int]string{0: "Default", 2: "Ground"},
		},
		{
			name: "entries past the table are ignored",
			data: "%YAML 1.1\n--- !u!78 &1\nTagManager:\n  layers: [" + repeat("L", 34) + "]\n",
			want: fullTable("L"),
		},
		{
			name: "crlf line endings and byte order mark",
			data: "\xEF\xBB\xBF%YAML 1.1\r\n%TAG !u! tag:unity3d.com,2011:\r\n--- !u!78 &1\r\nTagManager:\r\n  layers:\r\n  - Default\r\n  - Water\r\n",
			want: map[int]string{0: "Default", 1: "Water"},
		},
		{
			name:    "binary serialization",
			data:    "\x00\x00\x00\x00\x00\x01\x7e\x00unity",
			wantErr: ErrBinaryAsset,
		},
		{
			name:    "different asset",
			data:    "%YAML 1.1\n--- !u!55 &1\nPhysicsManager:\n  m_Gravity: {x: 0, y: -9.81, z: 0}\n",
			wantErr: ErrNoTagManager,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			layers, err := ParseLayers([]byte(tt.data))
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("ParseLayers() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseLayers() error: %v", err)
			}
			for i := range slot.Count {
				if layers[i] != tt.want[i] {
					t.Errorf("layers[%d] = %q, want %q", i, layers[i], tt.want[i])
				}
			}
		})
	}
}

func TestTagManager_ReloadsOnChange(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "TagManager.asset")
	writeAsset(t, path, "Default")

	tm := NewTagManager(path)
	s, err := slot.ReadSnapshot(tm)
	if err != nil {
		t.Fatalf("ReadSnapshot() error: %v", err)
	}
	if s.Name(0) != "Default" || s.Name(1) != "" {
		t.Fatalf("initial snapshot = %v", s.Named())
	}

	writeAsset(t, path, "Default", "Water Surface")
	// Force a distinct mtime on filesystems with coarse timestamps.
	later := time.Now().Add(2 * time.Second)
	if err := os.Chtimes(path, later, later); err != nil {
		t.Fatalf("chtimes: %v", err)
	}

	s, err = slot.ReadSnapshot(tm)
	if err != nil {
		t.Fatalf("ReadSnapshot() error: %v", err)
	}
	if s.Name(1) != "Water Surface" {
		t.Errorf("Name(1) after edit = %q, want %q", s.Name(1), "Water Surface")
	}
}

func TestTagManager_ReadTable(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "TagManager.asset")
	writeAsset(t, path, "Default", "", "Ignore Raycast")

	tm := NewTagManager(path)
	names, err := tm.ReadTable()
	if err != nil {
		t.Fatalf("ReadTable() error: %v", err)
	}
	if names[0] != "Default" || names[1] != "" || names[2] != "Ignore Raycast" {
		t.Errorf("ReadTable() = %q", names[:3])
	}

	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}
	if _, err := tm.ReadTable(); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("ReadTable() after remove error = %v, want fs.ErrNotExist", err)
	}
}

// Snapshots taken while the asset is being replaced must each match one
// complete version of the file.
func TestTagManager_SnapshotDuringRewrite(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "TagManager.asset")
	versions := [][]string{
		{"Old0", "Old1", "Old2"},
		{"New0", "New1", "New2", "Extra"},
	}
	writeAsset(t, path, versions[0]...)

	stop := make(chan struct{})
	writerErr := make(chan error, 1)
	go func() {
		defer close(writerErr)
		for i := 0; ; i++ {
			select {
			case <-stop:
				return
			default:
			}
			tmp := filepath.Join(dir, "TagManager.asset.tmp")
			if err := os.WriteFile(tmp, []byte(assetContent(versions[(i+1)%2]...)), 0o644); err != nil {
				writerErr <- err
				return
			}
			if err := os.Rename(tmp, path); err != nil {
				writerErr <- err
				return
			}
		}
	}()

	tm := NewTagManager(path)
	for range 200 {
		s, err := slot.ReadSnapshot(tm)
		if err != nil {
			close(stop)
			t.Fatalf("ReadSnapshot() error: %v", err)
		}
		if !matchesVersion(s, versions) {
			close(stop)
			t.Fatalf("snapshot %v mixes file versions", s.Named())
		}
	}
	close(stop)
	if err := <-writerErr; err != nil {
		t.Fatalf("writer: %v", err)
	}
}

func matchesVersion(s slot.Snapshot, versions [][]string) bool {
	for _, v := range versions {
		want := make(map[int]string, len(v))
		for i, name := range v {
			want[i] = name
		}
		if s.Equal(slot.MustFromNames(want)) {
			return true
		}
	}
	return false
}

func TestTagManager_MissingFile(t *testing.T) {
	t.Parallel()

	tm := NewTagManager(filepath.Join(t.TempDir(), "ProjectSettings", "TagManager.asset"))
	_, err := tm.SlotName(0)
	if !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("SlotName() error = %v, want fs.ErrNotExist", err)
	}
}

func TestTagManager_IndexOutOfRange(t *testing.T) {
	t.Parallel()

	tm := NewTagManager("unused")
	if _, err := tm.SlotName(slot.Count); !errors.Is(err, slot.ErrIndexOutOfRange) {
		t.Errorf("SlotName(Count) error = %v, want ErrIndexOutOfRange", err)
	}
}

func assetContent(layers ...string) string {
	content := "%YAML 1.1\n%TAG !u! tag:unity3d.com,2011:\n--- !u!78 &1\nTagManager:\n  serializedVersion: 2\n  tags: []\n  layers:\n"
	for _, l := range layers {
		content += "  - " + l + "\n"
	}
	return content
}

func writeAsset(t *testing.T, path string, layers ...string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(assetContent(layers...)), 0o644); err != nil {
		t.Fatalf("write asset: %v", err)
	}
}

func repeat(name string, n int) string {
	out := ""
	for i := range n {
		if i > 0 {
			out += ", "
		}
		out += name
	}
	return out
}

func fullTable(name string) map[int]string {
	m := make(map[int]string, slot.Count)
	for i := range slot.Count {
		m[i] = name
	}
	return m
}
