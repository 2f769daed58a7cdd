// SPDX-License-Identifier: MPL-2.0

// Package notify tells the host environment that a regenerated artifact is
// available, so editors and build tools re-index it.
package notify

import (
	"context"
	"errors"
	"io"

	"github.com/charmbracelet/log"
)

type (
	// Notifier is invoked after every successful emission with the artifact path.
	Notifier interface {
		Notify(ctx context.Context, path string) error
	}

	// Log reports the refresh on a logger. It never fails.
	Log struct {
		logger *log.Logger
	}

	// Chain runs notifiers in order. Every notifier runs; errors are joined.
	Chain []Notifier
)

// NewLog creates a logging notifier. A nil logger discards output.
func NewLog(logger *log.Logger) *Log {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Log{logger: logger}
}

// Notify logs the refreshed artifact path.
func (l *Log) Notify(_ context.Context, path string) error {
	l.logger.Debug("artifact refreshed", "path", path)
	return nil
}

// Notify runs every notifier in the chain.
func (c Chain) Notify(ctx context.Context, path string) error {
	var errs []error
	for _, n := range c {
		if n == nil {
			continue
		}
		if err := n.Notify(ctx, path); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
