// Package selspec parses the selector rule-file grammar — the textual
// notation the meta-tool (cmd/iselgen) compiles into pattern tables
// consumed at runtime by internal/sel — grounded on
// original_source/meta/x64_isel_meta.c's hand-rolled lexer/parser.
package selspec

import (
	"fmt"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokIdent
	tokArrow
	tokString
	tokLParen
	tokRParen
	tokComma
	tokColon
)

type token struct {
	kind tokenKind
	text string
	line int
}

type lexer struct {
	src   string
	pos   int
	line  int
	cache *token
}

func newLexer(src string) *lexer {
	return &lexer{src: src, pos: 0, line: 1}
}

func (l *lexer) errorf(format string, args ...interface{}) error {
	return fmt.Errorf("line %d: %s", l.line, fmt.Sprintf(format, args...))
}

func isIdentChar(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

func (l *lexer) peekByte() byte {
	if l.pos >= len(l.src) {
		return 0
	}
	return l.src[l.pos]
}

func (l *lexer) peekByteAt(off int) byte {
	if l.pos+off >= len(l.src) {
		return 0
	}
	return l.src[l.pos+off]
}

func (l *lexer) skipSpaceAndComments() {
	for {
		for l.pos < len(l.src) {
			c := l.src[l.pos]
			if c == '\n' {
				l.line++
				l.pos++
				continue
			}
			if c == ' ' || c == '\t' || c == '\r' {
				l.pos++
				continue
			}
			break
		}
		if l.peekByte() == '/' && l.peekByteAt(1) == '/' {
			for l.pos < len(l.src) && l.src[l.pos] != '\n' {
				l.pos++
			}
			continue
		}
		return
	}
}

func (l *lexer) next() (token, error) {
	if l.cache != nil {
		t := *l.cache
		l.cache = nil
		return t, nil
	}
	return l.lex()
}

func (l *lexer) peek() (token, error) {
	if l.cache == nil {
		t, err := l.lex()
		if err != nil {
			return token{}, err
		}
		l.cache = &t
	}
	return *l.cache, nil
}

func (l *lexer) lex() (token, error) {
	l.skipSpaceAndComments()

	line := l.line
	if l.pos >= len(l.src) {
		return token{kind: tokEOF, line: line}, nil
	}

	c := l.src[l.pos]

	switch c {
	case '(':
		l.pos++
		return token{kind: tokLParen, text: "(", line: line}, nil
	case ')':
		l.pos++
		return token{kind: tokRParen, text: ")", line: line}, nil
	case ',':
		l.pos++
		return token{kind: tokComma, text: ",", line: line}, nil
	case ':':
		l.pos++
		return token{kind: tokColon, text: ":", line: line}, nil
	case '-':
		if l.peekByteAt(1) == '>' {
			l.pos += 2
			return token{kind: tokArrow, text: "->", line: line}, nil
		}
		return token{}, l.errorf("unexpected character '-'")
	case '"':
		start := l.pos + 1
		l.pos++
		for l.pos < len(l.src) && l.src[l.pos] != '"' && l.src[l.pos] != '\n' {
			l.pos++
		}
		if l.pos >= len(l.src) || l.src[l.pos] != '"' {
			return token{}, l.errorf("unterminated string literal")
		}
		text := l.src[start:l.pos]
		l.pos++
		return token{kind: tokString, text: text, line: line}, nil
	default:
		if isIdentChar(c) {
			start := l.pos
			for l.pos < len(l.src) && isIdentChar(l.src[l.pos]) {
				l.pos++
			}
			return token{kind: tokIdent, text: l.src[start:l.pos], line: line}, nil
		}
		return token{}, l.errorf("unexpected character %q", string(c))
	}
}
