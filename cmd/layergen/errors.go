// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"strings"

	"github.com/layergen/layergen/internal/config"
	"github.com/layergen/layergen/internal/enumgen"
	"github.com/layergen/layergen/internal/host/table"
	"github.com/layergen/layergen/internal/host/unity"
	"github.com/layergen/layergen/internal/issue"
	"github.com/layergen/layergen/internal/slot"
)

// issueStyle is the glamour style used for troubleshooting pages: dark or
// light on a terminal, plain text otherwise.
const issueStyle = "auto"

// withIssue attaches a catalog page to err. Errors that are not already
// actionable are wrapped with operation.
func withIssue(err error, id issue.Id) error {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		if ae.Issue == 0 {
			ae.Issue = id
		}
		return err
	}
	return &issue.ActionableError{Operation: "run layergen", Issue: id, Cause: err}
}

func issueForConfigError(err error) issue.Id {
	if errors.Is(err, config.ErrInvalidConfig) || errors.Is(err, enumgen.ErrInvalidConfig) {
		return issue.InvalidConfigId
	}
	return issue.ConfigLoadFailedId
}

// sourceError explains a failed slot table read.
func sourceError(err error, path string, kind config.SourceKind) error {
	ctx := issue.NewErrorContext().
		WithOperation("read layer table").
		WithResource(path).
		Wrap(err)

	switch {
	case errors.Is(err, unity.ErrBinaryAsset):
		ctx.WithIssue(issue.BinaryAssetId).
			WithSuggestion("Set Edit > Project Settings > Editor > Asset Serialization to Force Text")
	case errors.Is(err, unity.ErrNoTagManager):
		ctx.WithIssue(issue.TagManagerNotFoundId).
			WithSuggestion("source.path points at an asset without a TagManager document")
	case errors.Is(err, table.ErrInvalidSlot):
		ctx.WithIssue(issue.InvalidSlotTableId).
			WithSuggestion("Use integer keys from 0 to 31 under [layers]")
	case errors.Is(err, fs.ErrNotExist) && kind == config.SourceUnity:
		ctx.WithIssue(issue.TagManagerNotFoundId).
			WithSuggestion("Run from the Unity project root or pass --project").
			WithSuggestion("Set source.path if the project layout differs")
	case errors.Is(err, fs.ErrNotExist):
		ctx.WithIssue(issue.InvalidSlotTableId).
			WithSuggestion("Create the table file or fix source.path")
	}
	return ctx.BuildError()
}

// isSourceError reports whether err came from querying the slot table
// rather than from emission.
func isSourceError(err error) bool {
	var readErr *slot.ReadError
	return errors.As(err, &readErr)
}

// emitError explains a failed emission.
func emitError(err error) error {
	ctx := issue.NewErrorContext().
		WithOperation("generate layers enum").
		Wrap(err)

	var emitErr *enumgen.EmitError
	if errors.As(err, &emitErr) {
		ctx.WithResource(emitErr.Path)
	}

	var collision *enumgen.CollisionError
	switch {
	case errors.As(err, &collision):
		quoted := make([]string, len(collision.Names))
		for i, n := range collision.Names {
			quoted[i] = fmt.Sprintf("%q (slot %d)", n, collision.Slots[i])
		}
		ctx.WithIssue(issue.NameCollisionId).
			WithSuggestion("Rename one of " + strings.Join(quoted, ", ")).
			WithSuggestion("Run 'layergen layers' to see every derived identifier")
	case errors.Is(err, enumgen.ErrNotifyFailed):
		ctx.WithIssue(issue.NotifyHookFailedId).
			WithSuggestion("The enum file was written; fix or clear notify.hook")
	default:
		ctx.WithIssue(issue.EmitFailedId).
			WithSuggestion("Check that the output directory is writable")
	}
	return ctx.BuildError()
}

// reportError writes err for the user. Actionable errors show their
// suggestions; in verbose mode the error chain and the linked
// troubleshooting page follow.
func reportError(w io.Writer, err error, verbose bool) {
	var ae *issue.ActionableError
	if !errors.As(err, &ae) {
		fmt.Fprintln(w, ErrorStyle.Render("Error:")+" "+err.Error())
		return
	}

	fmt.Fprintln(w, ErrorStyle.Render("Error:")+" "+ae.Format(verbose))
	if !verbose || ae.Issue == 0 {
		if ae.Issue != 0 {
			fmt.Fprintln(w, SubtitleStyle.Render("Run with --verbose for troubleshooting steps."))
		}
		return
	}
	if page := issue.Get(ae.Issue); page != nil {
		if rendered, renderErr := page.Render(issueStyle); renderErr == nil {
			fmt.Fprint(w, rendered)
		}
	}
}
