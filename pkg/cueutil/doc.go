// SPDX-License-Identifier: MPL-2.0

// Package cueutil holds helpers shared by code that validates files against
// embedded CUE schemas: user-facing error formatting and size limits.
package cueutil
