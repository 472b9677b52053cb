// SPDX-License-Identifier: MPL-2.0

package dynimport

import (
	"github.com/viant/parsly"
	"github.com/viant/parsly/matcher"
)

const (
	whitespaceToken int = iota
	blockCommentToken
	lineCommentToken
	stringToken
	templateToken
	regexToken
	wordToken
	anyToken
)

var (
	whitespaceMatcher   = parsly.NewToken(whitespaceToken, "Whitespace", matcher.NewWhiteSpace())
	blockCommentMatcher = parsly.NewToken(blockCommentToken, "Block comment", matcher.NewSeqBlock("/*", "*/"))
	lineCommentMatcher  = parsly.NewToken(lineCommentToken, "Line comment", &lineComment{})
	singleQuoteMatcher  = parsly.NewToken(stringToken, "String", &quoted{quote: '\''})
	doubleQuoteMatcher  = parsly.NewToken(stringToken, "String", &quoted{quote: '"'})
	templateMatcher     = parsly.NewToken(templateToken, "Template", &template{head: true})
	templateTailMatcher = parsly.NewToken(templateToken, "Template tail", &template{})
	regexMatcher        = parsly.NewToken(regexToken, "Regular expression", &regex{})
	wordMatcher         = parsly.NewToken(wordToken, "Word", &word{})
	anyMatcher          = parsly.NewToken(anyToken, "Any", &anyByte{})
)

// lineComment matches "//" up to (not including) the line break.
type lineComment struct{}

func (m *lineComment) Match(cursor *parsly.Cursor) int {
	input, pos := cursor.Input, cursor.Pos
	if pos+1 >= cursor.InputSize || input[pos] != '/' || input[pos+1] != '/' {
		return 0
	}
	i := pos + 2
	for i < cursor.InputSize && input[i] != '\n' {
		i++
	}
	return i - pos
}

// quoted matches a string literal with backslash escapes. An unterminated
// literal ends at the line break.
type quoted struct {
	quote byte
}

func (m *quoted) Match(cursor *parsly.Cursor) int {
	input, pos := cursor.Input, cursor.Pos
	if input[pos] != m.quote {
		return 0
	}
	for i := pos + 1; i < cursor.InputSize; i++ {
		switch input[i] {
		case '\\':
			i++
		case m.quote:
			return i + 1 - pos
		case '\n':
			return i - pos
		}
	}
	return cursor.InputSize - pos
}

// template matches a template literal chunk. A head chunk starts at the
// backtick; a tail chunk starts right after the "}" closing an
// interpolation. Either ends after the closing backtick or after "${".
type template struct {
	head bool
}

func (m *template) Match(cursor *parsly.Cursor) int {
	input, pos := cursor.Input, cursor.Pos
	start := pos
	if m.head {
		if input[pos] != '`' {
			return 0
		}
		start++
	}
	for i := start; i < cursor.InputSize; i++ {
		switch input[i] {
		case '\\':
			i++
		case '`':
			return i + 1 - pos
		case '$':
			if i+1 < cursor.InputSize && input[i+1] == '{' {
				return i + 2 - pos
			}
		}
	}
	return cursor.InputSize - pos
}

// regex matches a regular-expression literal with its flags. The scanner
// only offers it where an expression may start.
type regex struct{}

func (m *regex) Match(cursor *parsly.Cursor) int {
	input, pos := cursor.Input, cursor.Pos
	if input[pos] != '/' || pos+1 >= cursor.InputSize || input[pos+1] == '/' || input[pos+1] == '*' {
		return 0
	}
	inClass := false
	for i := pos + 1; i < cursor.InputSize; i++ {
		switch input[i] {
		case '\\':
			i++
		case '[':
			inClass = true
		case ']':
			inClass = false
		case '\n':
			return 0
		case '/':
			if inClass {
				continue
			}
			i++
			for i < cursor.InputSize && isWordByte(input[i]) {
				i++
			}
			return i - pos
		}
	}
	return 0
}

// word matches an identifier, keyword or number.
type word struct{}

func (m *word) Match(cursor *parsly.Cursor) int {
	i := cursor.Pos
	for i < cursor.InputSize && isWordByte(cursor.Input[i]) {
		i++
	}
	return i - cursor.Pos
}

type anyByte struct{}

func (m *anyByte) Match(*parsly.Cursor) int { return 1 }

func isWordByte(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z' || b >= '0' && b <= '9' ||
		b == '_' || b == '$' || b >= 0x80
}
