// SPDX-License-Identifier: MPL-2.0

// Package cmd contains the layergen command tree.
//
// Subcommands receive an App holding the injected services. Each one loads
// the configuration selected by the root flags and builds the generator
// pipeline (slot source, emitter, notifier) from it; watch adds the monitor
// and the file watcher on top.
package cmd
