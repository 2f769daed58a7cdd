// SPDX-License-Identifier: MPL-2.0

// Package enumgen renders a slot snapshot into a namespace-scoped enum source
// file and writes it to disk.
//
// Every named slot becomes one member, `Identifier = index,`, in ascending
// index order. Identifiers come from Sanitize; distinct names that sanitize to
// the same identifier are rejected with a CollisionError instead of producing
// a file that does not compile. The artifact is always regenerated in full and
// replaced with a temp-file rename.
package enumgen
