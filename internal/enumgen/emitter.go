// SPDX-License-Identifier: MPL-2.0

package enumgen

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/layergen/layergen/internal/slot"
)

// artifactPerm is the mode of a newly written artifact.
const artifactPerm os.FileMode = 0o644

type (
	// Notifier tells the host that a new artifact is available.
	Notifier interface {
		Notify(ctx context.Context, path string) error
	}

	// Emitter renders snapshots and writes them to the configured path.
	// An Emitter is safe to reuse; it holds no per-emission state.
	Emitter struct {
		cfg      Config
		notifier Notifier
		// rename is swapped by tests to simulate IO failures.
		rename func(oldpath, newpath string) error
	}

	// Result describes a successful emission.
	Result struct {
		Path    string
		Members []Member
	}
)

// NewEmitter creates an Emitter for cfg. A nil notifier skips host
// notification.
func NewEmitter(cfg Config, notifier Notifier) (*Emitter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Emitter{cfg: cfg, notifier: notifier, rename: os.Rename}, nil
}

// Config returns a copy of the emitter's configuration.
func (e *Emitter) Config() Config { return e.cfg }

// Emit renders s and replaces the artifact at the configured path. The
// artifact is written to a temporary file in the target directory and renamed
// over the old one, so readers never see a partial file. The notifier runs
// only after a successful rename.
func (e *Emitter) Emit(ctx context.Context, s slot.Snapshot) (Result, error) {
	path := e.cfg.OutputPath

	members, err := Members(s)
	if err != nil {
		return Result{}, &EmitError{Kind: KindNameCollision, Path: path, Err: err}
	}
	data := renderMembers(members, e.cfg)

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return Result{}, &EmitError{Kind: KindDirectoryCreateFailed, Path: path, Err: err}
	}

	if err := e.writeAtomic(path, data); err != nil {
		return Result{}, &EmitError{Kind: KindWriteFailed, Path: path, Err: err}
	}

	res := Result{Path: path, Members: members}
	if e.notifier != nil {
		if err := e.notifier.Notify(ctx, path); err != nil {
			return res, &EmitError{Kind: KindNotifyFailed, Path: path, Err: err}
		}
	}
	return res, nil
}

// writeAtomic writes data next to path and renames it into place. The temp
// file lives in the same directory so the rename stays on one filesystem.
func (e *Emitter) writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	renamed := false
	defer func() {
		if !renamed {
			_ = os.Remove(tmpPath) // best-effort cleanup of the orphaned temp file
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close() // write error takes precedence
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close() // sync error takes precedence
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, artifactPerm); err != nil {
		return fmt.Errorf("set artifact permissions: %w", err)
	}

	if err := e.rename(tmpPath, path); err != nil {
		return fmt.Errorf("replace artifact: %w", err)
	}
	renamed = true
	return nil
}
