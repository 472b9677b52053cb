// SPDX-License-Identifier: MPL-2.0

// Package cueutil validates configuration documents against embedded CUE
// schemas and decodes them into Go structs.
//
// Both CUE files (the srcload config) and JSON-with-comments documents
// (tsconfig.json) go through the same three steps:
//
//  1. Compile the embedded schema
//  2. Compile user data and unify with the schema definition
//  3. Validate and decode to a Go struct
//
// # Usage
//
//	//go:embed tsconfig_schema.cue
//	var schemaBytes []byte
//
//	result, err := cueutil.ParseAndDecode[rawConfig](
//	    schemaBytes,
//	    fileBytes,
//	    "#TSConfig",
//	    cueutil.WithFilename("tsconfig.json"),
//	    cueutil.WithJSONC(true),
//	)
package cueutil
