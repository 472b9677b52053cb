// SPDX-License-Identifier: MPL-2.0

// Package config handles application configuration using Viper with CUE as the file format.
//
// Configuration is loaded from ~/.config/srcload/config.cue (or the XDG equivalent on Linux,
// ~/Library/Application Support/srcload/config.cue on macOS, %APPDATA%\srcload\config.cue
// on Windows), or from config.cue in the working directory. Every key can be overridden by an
// environment variable with the SRCLOAD_ prefix (cache.memory_entries becomes
// SRCLOAD_CACHE_MEMORY_ENTRIES).
//
// Configuration validation is performed against a CUE schema (config_schema.cue) so invalid
// values are reported with the file position that caused them.
package config
