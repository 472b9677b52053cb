// SPDX-License-Identifier: MPL-2.0

package sourcemap

// Builder accumulates segments in generated order and produces a Map.
// Sources and names are interned in first-use order.
type Builder struct {
	file        string
	sources     []string
	contents    []string
	hasContents bool
	sourceIndex map[string]int
	names       []string
	nameIndex   map[string]int
	lines       [][]Segment
}

// NewBuilder creates a builder for the generated file name (may be empty).
func NewBuilder(file string) *Builder {
	return &Builder{
		file:        file,
		sourceIndex: make(map[string]int),
		nameIndex:   make(map[string]int),
	}
}

// AddSource interns a source and returns its index. A non-empty content is
// recorded as the source's sourcesContent entry.
func (b *Builder) AddSource(source, content string) int {
	if idx, ok := b.sourceIndex[source]; ok {
		if content != "" {
			b.contents[idx] = content
			b.hasContents = true
		}
		return idx
	}
	idx := len(b.sources)
	b.sources = append(b.sources, source)
	b.contents = append(b.contents, content)
	b.sourceIndex[source] = idx
	if content != "" {
		b.hasContents = true
	}
	return idx
}

func (b *Builder) addName(name string) int {
	if idx, ok := b.nameIndex[name]; ok {
		return idx
	}
	idx := len(b.names)
	b.names = append(b.names, name)
	b.nameIndex[name] = idx
	return idx
}

func (b *Builder) line(genLine int) {
	for len(b.lines) <= genLine {
		b.lines = append(b.lines, nil)
	}
}

// AddMapping appends a segment pointing at source. An empty name adds no
// names reference. Segments must be added in generated order per line.
func (b *Builder) AddMapping(genLine, genColumn int, source string, srcLine, srcColumn int, name string) {
	b.line(genLine)
	seg := Segment{
		GenColumn:    genColumn,
		Source:       b.AddSource(source, ""),
		SourceLine:   srcLine,
		SourceColumn: srcColumn,
		Name:         NoIndex,
	}
	if name != "" {
		seg.Name = b.addName(name)
	}
	b.lines[genLine] = append(b.lines[genLine], seg)
}

// AddGenerated appends a segment with no original counterpart.
func (b *Builder) AddGenerated(genLine, genColumn int) {
	b.line(genLine)
	b.lines[genLine] = append(b.lines[genLine], Segment{GenColumn: genColumn, Source: NoIndex, Name: NoIndex})
}

// Map returns the accumulated map.
func (b *Builder) Map() *Map {
	m := &Map{
		Version:  Version,
		File:     b.file,
		Sources:  append([]string{}, b.sources...),
		Names:    append([]string{}, b.names...),
		Mappings: EncodeMappings(b.lines),
	}
	if b.hasContents {
		m.SourcesContent = append([]string{}, b.contents...)
	}
	return m
}
