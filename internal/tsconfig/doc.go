// SPDX-License-Identifier: MPL-2.0

// Package tsconfig locates and loads tsconfig.json project files and
// compiles the parts the loader needs: path aliases, JSX options, allowJs,
// and the files/include/exclude matcher.
//
// Documents are JSON with comments and trailing commas. They are
// standardized with hujson and validated against an embedded CUE schema
// before decoding. "extends" chains are followed, with each level's
// relative paths resolved against the directory of the file that declares
// them.
package tsconfig
