// SPDX-License-Identifier: MPL-2.0

package cueutil

import (
	stderrors "errors"
	"fmt"
	"strings"

	"cuelang.org/go/cue/errors"
)

// DefaultMaxFileSize bounds configuration files read into memory.
const DefaultMaxFileSize int64 = 1 << 20

// FormatError flattens a CUE error into "<file>: <path>: <message>" lines,
// one per underlying CUE error, with paths in JSON notation:
//
//	layergen.cue: monitor.poll_interval: invalid value "soon"
//	layergen.cue: source.kind: 2 errors in empty disjunction
//
// Non-CUE errors are wrapped with the file name only. An empty filePath
// omits the file prefix, for callers that report the file themselves. The
// result always wraps err.
func FormatError(err error, filePath string) error {
	if err == nil {
		return nil
	}

	var cueErr errors.Error
	if !stderrors.As(err, &cueErr) {
		if filePath == "" {
			return err
		}
		return fmt.Errorf("%s: %w", filePath, err)
	}

	cueErrors := errors.Errors(err)
	lines := make([]string, 0, len(cueErrors))
	for _, e := range cueErrors {
		pathStr := formatPath(errors.Path(e))
		// Error() prefixes the raw path, definitions included; Msg() does not.
		format, args := e.Msg()
		msg := fmt.Sprintf(format, args...)
		if pathStr != "" {
			msg = pathStr + ": " + msg
		}
		lines = append(lines, msg)
	}

	var text string
	if len(lines) == 1 {
		text = lines[0]
	} else {
		text = "validation failed:\n  " + strings.Join(lines, "\n  ")
	}
	return &formattedError{text: withFile(filePath, text), err: err}
}

// formattedError carries the flattened message and keeps the CUE error
// reachable through errors.Is and errors.As.
type formattedError struct {
	text string
	err  error
}

func (e *formattedError) Error() string { return e.text }

func (e *formattedError) Unwrap() error { return e.err }

func withFile(filePath, msg string) string {
	if filePath == "" {
		return msg
	}
	return filePath + ": " + msg
}

// formatPath renders ["notify", "hooks", "0"] as "notify.hooks[0]". Leading
// definition selectors such as "#Config" are dropped.
func formatPath(path []string) string {
	for len(path) > 0 && strings.HasPrefix(path[0], "#") {
		path = path[1:]
	}

	var result strings.Builder
	for i, part := range path {
		if i > 0 && isIndex(part) {
			result.WriteString("[" + part + "]")
			continue
		}
		if i > 0 {
			result.WriteString(".")
		}
		result.WriteString(part)
	}
	return result.String()
}

func isIndex(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// CheckFileSize returns an error when data exceeds maxSize bytes. An empty
// filename omits the file prefix.
func CheckFileSize(data []byte, maxSize int64, filename string) error {
	if int64(len(data)) > maxSize {
		return stderrors.New(withFile(filename, fmt.Sprintf("file size %d bytes exceeds maximum %d bytes", len(data), maxSize)))
	}
	return nil
}
