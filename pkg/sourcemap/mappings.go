// SPDX-License-Identifier: MPL-2.0

package sourcemap

import (
	"fmt"
	"strings"
)

// NoIndex marks an absent source or name reference in a Segment.
const NoIndex = -1

// Segment is one decoded mapping entry on a generated line.
//
// A segment with Source == NoIndex maps generated text that has no
// original counterpart (a one-field segment in the encoded form).
type Segment struct {
	GenColumn    int
	Source       int
	SourceLine   int
	SourceColumn int
	Name         int
}

// HasSource reports whether the segment points into an original source.
func (s Segment) HasSource() bool { return s.Source != NoIndex }

// HasName reports whether the segment carries a names reference.
func (s Segment) HasName() bool { return s.Name != NoIndex }

// DecodeMappings parses a VLQ mappings string into per-line segments.
// Segments within a line are returned in the order they were encoded.
func DecodeMappings(mappings string) ([][]Segment, error) {
	lines := make([][]Segment, 0, strings.Count(mappings, ";")+1)
	var (
		line                         []Segment
		genCol, src, srcLine, srcCol int
		name, pos, fieldCount        int
		fields                       [5]int
	)

	flushSegment := func() error {
		switch fieldCount {
		case 0:
			return nil
		case 1:
			genCol += fields[0]
			line = append(line, Segment{GenColumn: genCol, Source: NoIndex, Name: NoIndex})
		case 4, 5:
			genCol += fields[0]
			src += fields[1]
			srcLine += fields[2]
			srcCol += fields[3]
			seg := Segment{GenColumn: genCol, Source: src, SourceLine: srcLine, SourceColumn: srcCol, Name: NoIndex}
			if fieldCount == 5 {
				name += fields[4]
				seg.Name = name
			}
			line = append(line, seg)
		default:
			return fmt.Errorf("%w: segment with %d fields", ErrInvalidVLQ, fieldCount)
		}
		fieldCount = 0
		return nil
	}

	for pos < len(mappings) {
		switch mappings[pos] {
		case ';':
			if err := flushSegment(); err != nil {
				return nil, err
			}
			lines = append(lines, line)
			line = nil
			genCol = 0
			pos++
		case ',':
			if err := flushSegment(); err != nil {
				return nil, err
			}
			pos++
		default:
			if fieldCount == len(fields) {
				return nil, fmt.Errorf("%w: segment with more than %d fields", ErrInvalidVLQ, len(fields))
			}
			v, next, err := readVLQ(mappings, pos)
			if err != nil {
				return nil, fmt.Errorf("%w at offset %d", err, pos)
			}
			fields[fieldCount] = v
			fieldCount++
			pos = next
		}
	}
	if err := flushSegment(); err != nil {
		return nil, err
	}
	lines = append(lines, line)
	return lines, nil
}

// EncodeMappings renders per-line segments as a VLQ mappings string.
func EncodeMappings(lines [][]Segment) string {
	var (
		sb                               strings.Builder
		prevSrc, prevSrcLine, prevSrcCol int
		prevName                         int
	)
	for i, line := range lines {
		if i > 0 {
			sb.WriteByte(';')
		}
		prevGenCol := 0
		for j, seg := range line {
			if j > 0 {
				sb.WriteByte(',')
			}
			writeVLQ(&sb, seg.GenColumn-prevGenCol)
			prevGenCol = seg.GenColumn
			if !seg.HasSource() {
				continue
			}
			writeVLQ(&sb, seg.Source-prevSrc)
			writeVLQ(&sb, seg.SourceLine-prevSrcLine)
			writeVLQ(&sb, seg.SourceColumn-prevSrcCol)
			prevSrc, prevSrcLine, prevSrcCol = seg.Source, seg.SourceLine, seg.SourceColumn
			if seg.HasName() {
				writeVLQ(&sb, seg.Name-prevName)
				prevName = seg.Name
			}
		}
	}
	// Trailing empty lines carry no information.
	return strings.TrimRight(sb.String(), ";")
}
