// SPDX-License-Identifier: MPL-2.0

package sourcemap

import (
	"errors"
	"fmt"
)

// ErrNoMaps is returned by Compose when called without maps.
var ErrNoMaps = errors.New("no source maps to compose")

// Compose chains source maps of successive passes over one file, newest
// first, into a single map from the newest generated code to the oldest
// map's sources. Nil maps are skipped.
//
// Every source reference of a newer map is taken to point at the generated
// code of the next older map. Sources, sourceRoot, sourcesContent, and
// names of the result come from the oldest map; a name survives from a newer map only
// when the traced original segment has none.
func Compose(maps ...*Map) (*Map, error) {
	chain := make([]*Map, 0, len(maps))
	for _, m := range maps {
		if m != nil {
			chain = append(chain, m)
		}
	}
	if len(chain) == 0 {
		return nil, ErrNoMaps
	}
	if len(chain) == 1 {
		out := *chain[0]
		return &out, nil
	}

	decoded := make([][][]Segment, len(chain))
	for i, m := range chain {
		lines, err := m.Segments()
		if err != nil {
			return nil, fmt.Errorf("source map %d: %w", i, err)
		}
		decoded[i] = lines
	}

	oldest := chain[len(chain)-1]
	b := NewBuilder(chain[0].File)
	for i, src := range oldest.Sources {
		content := ""
		if i < len(oldest.SourcesContent) {
			content = oldest.SourcesContent[i]
		}
		b.AddSource(src, content)
	}

	for genLine, segs := range decoded[0] {
		for _, seg := range segs {
			traced, ok := trace(decoded, chain, seg)
			if !ok {
				continue
			}
			if !traced.HasSource() {
				b.AddGenerated(genLine, seg.GenColumn)
				continue
			}
			b.AddMapping(genLine, seg.GenColumn, oldest.Sources[traced.Source], traced.SourceLine, traced.SourceColumn, traced.nameText)
		}
	}
	out := b.Map()
	out.SourceRoot = oldest.SourceRoot
	return out, nil
}

type tracedSegment struct {
	Segment
	nameText string
}

// trace follows seg from the newest map down to the oldest. It reports false
// when some intermediate line has no segment at or before the traced column.
func trace(decoded [][][]Segment, chain []*Map, seg Segment) (tracedSegment, bool) {
	cur := tracedSegment{Segment: seg}
	if seg.HasName() && seg.Name < len(chain[0].Names) {
		cur.nameText = chain[0].Names[seg.Name]
	}
	for level := 1; level < len(decoded); level++ {
		if !cur.HasSource() {
			return cur, true
		}
		next, ok := findSegment(decoded[level], cur.SourceLine, cur.SourceColumn)
		if !ok {
			return tracedSegment{}, false
		}
		name := cur.nameText
		if next.HasName() && next.Name < len(chain[level].Names) {
			name = chain[level].Names[next.Name]
		}
		cur = tracedSegment{Segment: next, nameText: name}
	}
	if cur.HasSource() && cur.Source >= len(chain[len(chain)-1].Sources) {
		return tracedSegment{}, false
	}
	return cur, true
}
