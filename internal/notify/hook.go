// SPDX-License-Identifier: MPL-2.0

package notify

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"
)

// OutputEnvVar carries the artifact path into hook scripts.
const OutputEnvVar = "LAYERGEN_OUTPUT"

var (
	// ErrHookFailed is wrapped by HookError.
	ErrHookFailed = errors.New("notify hook failed")
	// ErrEmptyHook is returned when a hook script is blank.
	ErrEmptyHook = errors.New("notify hook script is empty")
)

type (
	// Hook runs a POSIX shell script in-process after each emission. The
	// script sees the artifact path in $LAYERGEN_OUTPUT and as $1.
	Hook struct {
		prog   *syntax.File
		dir    string
		logger *log.Logger
	}

	// HookError reports a hook that exited non-zero or could not run.
	HookError struct {
		ExitCode int
		Stderr   string
		Err      error
	}
)

// NewHook parses script once so syntax errors surface at start-up. dir is the
// working directory the script runs in ("" means the current directory).
func NewHook(script, dir string, logger *log.Logger) (*Hook, error) {
	if strings.TrimSpace(script) == "" {
		return nil, ErrEmptyHook
	}
	prog, err := syntax.NewParser().Parse(strings.NewReader(script), "notify.hook")
	if err != nil {
		return nil, fmt.Errorf("parse notify hook: %w", err)
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Hook{prog: prog, dir: dir, logger: logger}, nil
}

// Notify runs the hook script with the artifact path.
func (h *Hook) Notify(ctx context.Context, path string) error {
	dir := h.dir
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return &HookError{ExitCode: -1, Err: err}
		}
		dir = wd
	}

	var stdout, stderr bytes.Buffer
	env := append(os.Environ(), OutputEnvVar+"="+path)
	runner, err := interp.New(
		interp.Dir(dir),
		interp.Env(expand.ListEnviron(env...)),
		interp.StdIO(nil, &stdout, &stderr),
		interp.Params("--", path),
	)
	if err != nil {
		return &HookError{ExitCode: -1, Err: err}
	}

	runErr := runner.Run(ctx, h.prog)
	if out := strings.TrimSpace(stdout.String()); out != "" {
		h.logger.Debug("notify hook output", "stdout", out)
	}
	if runErr == nil {
		return nil
	}

	var status interp.ExitStatus
	if errors.As(runErr, &status) {
		return &HookError{ExitCode: int(status), Stderr: strings.TrimSpace(stderr.String()), Err: runErr}
	}
	return &HookError{ExitCode: -1, Stderr: strings.TrimSpace(stderr.String()), Err: runErr}
}

// Error implements the error interface for HookError.
func (e *HookError) Error() string {
	msg := fmt.Sprintf("notify hook exited with status %d", e.ExitCode)
	if e.ExitCode < 0 {
		msg = "notify hook could not run"
	}
	if e.Stderr != "" {
		msg += ": " + e.Stderr
	} else if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns ErrHookFailed and the underlying cause.
func (e *HookError) Unwrap() []error {
	return []error{ErrHookFailed, e.Err}
}
