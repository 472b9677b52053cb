// SPDX-License-Identifier: MPL-2.0

package dynimport

import (
	"strings"
	"unicode/utf8"

	"github.com/srcload/srcload/pkg/sourcemap"
)

// Interop is appended after every dynamic import call. A namespace whose
// only export is a "default" carrying the __esModule marker is unwrapped to
// that default.
const Interop = `.then((mod)=>{const exports=Object.keys(mod);if(exports.length===1&&exports[0]==="default"&&mod.default&&mod.default.__esModule){return mod.default}return mod})`

// Result is the outcome of rewriting one module.
type Result struct {
	// Code is the rewritten source.
	Code string
	// Map maps Code back to the input code. Inserted text has no mapping.
	Map *sourcemap.Map
	// Sites are the rewritten calls, as offsets into the input code.
	Sites []Site
}

type chunk struct {
	text     string
	inserted bool
}

// Rewrite appends Interop to every dynamic import call in code. sourceName
// names the input in the returned map. It reports false, with a nil
// Result, when code contains no call site.
func Rewrite(code, sourceName string) (*Result, bool) {
	if !strings.Contains(code, "import") {
		return nil, false
	}
	sites := scan([]byte(code))
	if len(sites) == 0 {
		return nil, false
	}

	chunks := splice(code, sites)
	var sb strings.Builder
	sb.Grow(len(code) + len(sites)*len(Interop))
	for _, c := range chunks {
		sb.WriteString(c.text)
	}
	return &Result{
		Code:  sb.String(),
		Map:   boundaryMap(chunks, sourceName),
		Sites: sites,
	}, true
}

// splice interleaves original chunks with inserted Interop text at the end
// of each site.
func splice(code string, sites []Site) []chunk {
	ends := make([]int, len(sites))
	for i, site := range sites {
		ends[i] = site.End
	}
	// Sites close in source order already; nested calls close first.
	chunks := make([]chunk, 0, 2*len(ends)+1)
	prev := 0
	for _, end := range ends {
		if end > prev {
			chunks = append(chunks, chunk{text: code[prev:end]})
		}
		chunks = append(chunks, chunk{text: Interop, inserted: true})
		prev = end
	}
	if prev < len(code) {
		chunks = append(chunks, chunk{text: code[prev:]})
	}
	return chunks
}

type charClass int

const (
	classSpace charClass = iota
	classWord
	classPunct
)

func classify(r rune) charClass {
	switch {
	case r == ' ' || r == '\t' || r == '\n' || r == '\r':
		return classSpace
	case r < utf8.RuneSelf && !isWordByte(byte(r)):
		return classPunct
	default:
		return classWord
	}
}

// boundaryMap maps every original chunk back to its input position with a
// segment at the chunk start, at each line start, and at each word or
// punctuation boundary. Inserted chunks get generated-only segments.
// Columns count UTF-16 code units.
func boundaryMap(chunks []chunk, sourceName string) *sourcemap.Map {
	b := sourcemap.NewBuilder("")
	b.AddSource(sourceName, "")

	var (
		genLine, genCol int
		srcLine, srcCol int
		lastLine        = -1
		lastCol         = -1
	)
	emit := func(mapped bool) {
		if genLine == lastLine && genCol == lastCol {
			return
		}
		lastLine, lastCol = genLine, genCol
		if mapped {
			b.AddMapping(genLine, genCol, sourceName, srcLine, srcCol, "")
		} else {
			b.AddGenerated(genLine, genCol)
		}
	}

	for _, c := range chunks {
		prevClass := classSpace
		atStart := true
		for _, r := range c.text {
			class := classify(r)
			if atStart || (!c.inserted && class != classSpace && (class == classPunct || class != prevClass)) {
				emit(!c.inserted)
				atStart = false
			}
			prevClass = class

			if r == '\n' {
				genLine++
				genCol = 0
				if !c.inserted {
					srcLine++
					srcCol = 0
				}
				atStart = true
				continue
			}
			w := utf16Len(r)
			genCol += w
			if !c.inserted {
				srcCol += w
			}
		}
	}
	return b.Map()
}

func utf16Len(r rune) int {
	if r >= 0x10000 {
		return 2
	}
	return 1
}
