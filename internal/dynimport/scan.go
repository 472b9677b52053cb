// SPDX-License-Identifier: MPL-2.0

package dynimport

import (
	"github.com/viant/parsly"
)

// Site is one dynamic import call: code[Start:End] spans from the import
// keyword through the closing parenthesis.
type Site struct {
	Start int
	End   int
}

// keywordsBeforeExpression are words after which "/" starts a regular
// expression rather than a division.
var keywordsBeforeExpression = map[string]bool{
	"return": true, "typeof": true, "instanceof": true, "in": true, "of": true,
	"new": true, "delete": true, "void": true, "throw": true, "case": true,
	"do": true, "else": true, "yield": true, "await": true,
}

type (
	scanner struct {
		cursor *parsly.Cursor
		sites  []Site

		// regexOK is set where an expression may start.
		regexOK bool
		// member is set after a "." so that x.import(...) is skipped.
		member bool

		parens int
		braces int
		// calls holds open import calls by the paren depth inside them.
		calls []openCall
		// templates holds the brace depth of each open ${ interpolation.
		templates []int
	}

	openCall struct {
		start  int
		parens int
	}
)

// scan returns every dynamic import call site in code, in source order of
// their closing parenthesis.
func scan(code []byte) []Site {
	s := &scanner{cursor: parsly.NewCursor("", code, 0), regexOK: true}
	for s.cursor.Pos < s.cursor.InputSize {
		before := s.cursor.Pos
		s.next()
		if s.cursor.Pos == before {
			s.cursor.Pos++
		}
	}
	return s.sites
}

func (s *scanner) next() {
	cursor := s.cursor
	start := cursor.Pos

	tokens := []*parsly.Token{
		whitespaceMatcher, blockCommentMatcher, lineCommentMatcher,
		singleQuoteMatcher, doubleQuoteMatcher, templateMatcher,
	}
	if s.regexOK {
		tokens = append(tokens, regexMatcher)
	}
	tokens = append(tokens, wordMatcher, anyMatcher)

	matched := cursor.MatchAny(tokens...)
	text := string(cursor.Input[start:cursor.Pos])

	switch matched.Code {
	case whitespaceToken, blockCommentToken, lineCommentToken:
		return
	case stringToken, regexToken:
		s.regexOK, s.member = false, false
	case templateToken:
		if len(text) >= 2 && text[len(text)-2:] == "${" {
			s.templates = append(s.templates, s.braces)
			s.regexOK = true
		} else {
			s.regexOK = false
		}
		s.member = false
	case wordToken:
		s.word(start, text)
	default:
		s.punct(text[0])
	}
}

func (s *scanner) word(start int, text string) {
	wasMember := s.member
	s.member = false
	s.regexOK = keywordsBeforeExpression[text]
	if text != "import" || wasMember {
		return
	}
	open, ok := s.callParen()
	if !ok {
		return
	}
	s.cursor.Pos = open + 1
	s.calls = append(s.calls, openCall{start: start, parens: s.parens})
	s.parens++
	s.regexOK = true
}

// callParen reports the offset of the "(" following the current position,
// skipping whitespace and comments.
func (s *scanner) callParen() (int, bool) {
	cursor := s.cursor
	saved := cursor.Pos
	defer func() { cursor.Pos = saved }()
	for cursor.Pos < cursor.InputSize {
		before := cursor.Pos
		cursor.MatchAny(whitespaceMatcher, blockCommentMatcher, lineCommentMatcher)
		if cursor.Pos == before {
			break
		}
	}
	if cursor.Pos < cursor.InputSize && cursor.Input[cursor.Pos] == '(' {
		return cursor.Pos, true
	}
	return 0, false
}

func (s *scanner) punct(b byte) {
	s.member = b == '.' && !s.spread()
	switch b {
	case '(':
		s.parens++
		s.regexOK = true
	case '[':
		s.regexOK = true
	case ')':
		s.parens--
		if n := len(s.calls); n > 0 && s.calls[n-1].parens == s.parens {
			s.sites = append(s.sites, Site{Start: s.calls[n-1].start, End: s.cursor.Pos})
			s.calls = s.calls[:n-1]
		}
		s.regexOK = false
	case ']':
		s.regexOK = false
	case '{':
		s.braces++
		s.regexOK = true
	case '}':
		if n := len(s.templates); n > 0 && s.templates[n-1] == s.braces {
			s.templates = s.templates[:n-1]
			s.tail()
			return
		}
		s.braces--
		s.regexOK = false
	default:
		s.regexOK = true
	}
}

// spread reports whether the "." just consumed belongs to "...".
func (s *scanner) spread() bool {
	pos := s.cursor.Pos
	return pos >= 2 && s.cursor.Input[pos-2] == '.'
}

// tail consumes the template chunk after a closed interpolation.
func (s *scanner) tail() {
	start := s.cursor.Pos
	if start >= s.cursor.InputSize {
		return
	}
	s.cursor.MatchOne(templateTailMatcher)
	text := s.cursor.Input[start:s.cursor.Pos]
	if n := len(text); n >= 2 && text[n-2] == '$' && text[n-1] == '{' {
		s.templates = append(s.templates, s.braces)
		s.regexOK = true
		return
	}
	s.regexOK = false
}
