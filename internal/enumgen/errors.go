// SPDX-License-Identifier: MPL-2.0

package enumgen

import (
	"errors"
	"fmt"
	"strings"
)

const (
	// KindDirectoryCreateFailed means the artifact's parent directory could not be created.
	KindDirectoryCreateFailed ErrorKind = iota + 1
	// KindWriteFailed means the artifact could not be written or moved into place.
	KindWriteFailed
	// KindNameCollision means two slot names sanitize to the same identifier.
	KindNameCollision
	// KindNotifyFailed means the artifact was written but the host notification failed.
	KindNotifyFailed
)

var (
	// ErrDirectoryCreateFailed is wrapped by EmitError values of KindDirectoryCreateFailed.
	ErrDirectoryCreateFailed = errors.New("directory create failed")
	// ErrWriteFailed is wrapped by EmitError values of KindWriteFailed.
	ErrWriteFailed = errors.New("write failed")
	// ErrNameCollision is wrapped by CollisionError.
	ErrNameCollision = errors.New("sanitized name collision")
	// ErrNotifyFailed is wrapped by EmitError values of KindNotifyFailed.
	ErrNotifyFailed = errors.New("notify failed")
	// ErrInvalidConfig is returned when a Config cannot produce a valid artifact.
	ErrInvalidConfig = errors.New("invalid generator config")
)

type (
	// ErrorKind classifies an emission failure.
	ErrorKind int

	// EmitError reports a failed emission. It unwraps to both the kind's
	// sentinel (ErrWriteFailed etc.) and the underlying cause.
	EmitError struct {
		Kind ErrorKind
		Path string
		Err  error
	}

	// CollisionError reports distinct slot names that sanitize to one identifier.
	// Slots lists the colliding indices in ascending order.
	CollisionError struct {
		Identifier string
		Slots      []int
		Names      []string
	}
)

// String returns the kind's name as used in logs.
func (k ErrorKind) String() string {
	switch k {
	case KindDirectoryCreateFailed:
		return "DirectoryCreateFailed"
	case KindWriteFailed:
		return "WriteFailed"
	case KindNameCollision:
		return "NameCollision"
	case KindNotifyFailed:
		return "NotifyFailed"
	default:
		return fmt.Sprintf("ErrorKind(%d)", int(k))
	}
}

// sentinel returns the package-level error matching k.
func (k ErrorKind) sentinel() error {
	switch k {
	case KindDirectoryCreateFailed:
		return ErrDirectoryCreateFailed
	case KindWriteFailed:
		return ErrWriteFailed
	case KindNameCollision:
		return ErrNameCollision
	case KindNotifyFailed:
		return ErrNotifyFailed
	default:
		return nil
	}
}

// Error implements the error interface for EmitError.
func (e *EmitError) Error() string {
	var msg strings.Builder
	msg.WriteString("emit ")
	msg.WriteString(e.Kind.String())
	if e.Path != "" {
		msg.WriteString(" (")
		msg.WriteString(e.Path)
		msg.WriteString(")")
	}
	if e.Err != nil {
		msg.WriteString(": ")
		msg.WriteString(e.Err.Error())
	}
	return msg.String()
}

// Unwrap returns the kind sentinel and the cause for errors.Is/As.
func (e *EmitError) Unwrap() []error {
	errs := make([]error, 0, 2)
	if s := e.Kind.sentinel(); s != nil {
		errs = append(errs, s)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// Error implements the error interface for CollisionError.
func (e *CollisionError) Error() string {
	quoted := make([]string, len(e.Names))
	for i, n := range e.Names {
		quoted[i] = fmt.Sprintf("%d:%q", e.Slots[i], n)
	}
	return fmt.Sprintf("identifier %q produced by slots %s", e.Identifier, strings.Join(quoted, ", "))
}

// Unwrap returns ErrNameCollision for errors.Is() compatibility.
func (e *CollisionError) Unwrap() error { return ErrNameCollision }
