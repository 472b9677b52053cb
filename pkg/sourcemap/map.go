// SPDX-License-Identifier: MPL-2.0

package sourcemap

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
)

// Version is the only source map revision this package reads or writes.
const Version = 3

// ErrUnsupportedVersion is returned by Parse for maps that are not version 3.
var ErrUnsupportedVersion = errors.New("unsupported source map version")

type (
	// Map is the JSON form of a version 3 source map.
	Map struct {
		Version        int      `json:"version"`
		File           string   `json:"file,omitempty"`
		SourceRoot     string   `json:"sourceRoot,omitempty"`
		Sources        []string `json:"sources"`
		SourcesContent []string `json:"sourcesContent,omitempty"`
		Names          []string `json:"names"`
		Mappings       string   `json:"mappings"`
	}

	// Position is an original location returned by Lookup.
	Position struct {
		Source string
		Line   int
		Column int
		Name   string
	}
)

// Parse decodes a source map from its JSON form. An empty or null input
// yields a nil map and no error.
func Parse(data []byte) (*Map, error) {
	if len(data) == 0 || string(data) == "null" {
		return nil, nil
	}
	var m Map
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decode source map: %w", err)
	}
	if m.Version != Version {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, m.Version)
	}
	return &m, nil
}

// Marshal encodes the map as JSON.
func (m *Map) Marshal() ([]byte, error) {
	return json.Marshal(m)
}

// Segments decodes the mappings string.
func (m *Map) Segments() ([][]Segment, error) {
	return DecodeMappings(m.Mappings)
}

// DataURL returns the map as a base64 data URL suitable for an inline
// sourceMappingURL comment.
func (m *Map) DataURL() (string, error) {
	data, err := m.Marshal()
	if err != nil {
		return "", err
	}
	return "data:application/json;charset=utf-8;base64," + base64.StdEncoding.EncodeToString(data), nil
}

// Lookup returns the original position for a zero-based generated position.
// It picks the segment on that line with the greatest generated column not
// after column. Generated-only segments and unmapped positions report false.
func (m *Map) Lookup(line, column int) (Position, bool) {
	lines, err := m.Segments()
	if err != nil {
		return Position{}, false
	}
	seg, ok := findSegment(lines, line, column)
	if !ok || !seg.HasSource() || seg.Source >= len(m.Sources) {
		return Position{}, false
	}
	pos := Position{Source: m.Sources[seg.Source], Line: seg.SourceLine, Column: seg.SourceColumn}
	if seg.HasName() && seg.Name < len(m.Names) {
		pos.Name = m.Names[seg.Name]
	}
	return pos, true
}

// findSegment returns the last segment on line whose generated column is at
// or before column.
func findSegment(lines [][]Segment, line, column int) (Segment, bool) {
	if line < 0 || line >= len(lines) {
		return Segment{}, false
	}
	segs := lines[line]
	found := -1
	for i, seg := range segs {
		if seg.GenColumn > column {
			break
		}
		found = i
	}
	if found < 0 {
		return Segment{}, false
	}
	return segs[found], true
}
