// SPDX-License-Identifier: MPL-2.0

// Package config handles generator configuration using Viper with CUE as the file format.
//
// A configuration file is looked up in order: an explicit path, layergen.cue in
// the project directory, then config.cue in the user config directory
// (~/.config/layergen on Linux, ~/Library/Application Support/layergen on macOS,
// %APPDATA%\layergen on Windows). LAYERGEN_* environment variables override
// file values. Files are validated against the embedded CUE schema
// (config_schema.cue) before they are merged.
package config
