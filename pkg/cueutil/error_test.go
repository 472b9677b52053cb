// SPDX-License-Identifier: MPL-2.0

package cueutil

import (
	"errors"
	"strings"
	"testing"

	"cuelang.org/go/cue/cuecontext"
)

func TestFormatError(t *testing.T) {
	t.Parallel()

	if err := FormatError(nil, "x.cue"); err != nil {
		t.Errorf("FormatError(nil) = %v, want nil", err)
	}

	plain := errors.New("disk on fire")
	err := FormatError(plain, "x.cue")
	if !errors.Is(err, plain) || !strings.HasPrefix(err.Error(), "x.cue: ") {
		t.Errorf("plain error not wrapped with file: %v", err)
	}
	if errors.Is(err, ErrSchema) {
		t.Errorf("plain error reported as a schema error: %v", err)
	}
	if got, want := err.Error(), "x.cue: disk on fire"; got != want {
		t.Errorf("FormatError(plain) = %q, want %q", got, want)
	}

	v := cuecontext.New().CompileString(`a: int, a: "s"`)
	err = FormatError(v.Validate(), "conf.cue")
	var se *SchemaError
	if !errors.As(err, &se) {
		t.Fatalf("FormatError() = %T, want *SchemaError", err)
	}
	if !errors.Is(err, ErrSchema) {
		t.Error("errors.Is(err, ErrSchema) = false")
	}
	if se.File != "conf.cue" || len(se.Issues) == 0 {
		t.Fatalf("unexpected SchemaError %+v", se)
	}
	if se.Issues[0].Path != "a" {
		t.Errorf("Issues[0].Path = %q, want a", se.Issues[0].Path)
	}
}

func TestSchemaErrorMessage(t *testing.T) {
	t.Parallel()

	one := &SchemaError{File: "tsconfig.json", Issues: []Issue{{Path: "include[0]", Message: "conflicting values"}}}
	if got, want := one.Error(), "tsconfig.json: include[0]: conflicting values"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}

	two := &SchemaError{File: "config.cue", Issues: []Issue{
		{Path: "cache.retention", Message: "out of bound"},
		{Message: "incomplete value"},
	}}
	want := "config.cue: validation failed:\n  cache.retention: out of bound\n  incomplete value"
	if got := two.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestJSONPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		elems []string
		want  string
	}{
		{nil, ""},
		{[]string{"cache"}, "cache"},
		{[]string{"cache", "memory_entries"}, "cache.memory_entries"},
		{[]string{"include", "0"}, "include[0]"},
		{[]string{"compilerOptions", "paths", "@/*", "1"}, "compilerOptions.paths.@/*[1]"},
		{[]string{"0", "name"}, "0.name"},
	}
	for _, tt := range tests {
		if got := jsonPath(tt.elems); got != tt.want {
			t.Errorf("jsonPath(%q) = %q, want %q", tt.elems, got, tt.want)
		}
	}
}

func TestCheckFileSize(t *testing.T) {
	t.Parallel()

	if err := CheckFileSize(make([]byte, 10), 10, "ok.json"); err != nil {
		t.Errorf("CheckFileSize at limit = %v", err)
	}

	err := CheckFileSize(make([]byte, 11), 10, "big.json")
	var fe *FileSizeError
	if !errors.As(err, &fe) {
		t.Fatalf("CheckFileSize() = %T, want *FileSizeError", err)
	}
	if fe.Size != 11 || fe.Limit != 10 || fe.File != "big.json" {
		t.Errorf("unexpected FileSizeError %+v", fe)
	}
	if !errors.Is(err, ErrFileTooLarge) || !strings.Contains(err.Error(), "exceeds maximum") {
		t.Errorf("unexpected error %v", err)
	}
}
