// Package frontend implements a compact recursive-descent front end for the
// tiny C-like source language this backend compiles: a single `int main()`
// function body of declarations, assignments, `while` loops and `return`,
// grounded on original_source/cringe/front/parse.c's token shape but written
// as an idiomatic Go lexer/parser rather than a translation of its explicit
// value-stack state machine.
package frontend

import (
	"strconv"

	"github.com/seaopt/seac/internal/diag"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokIdent
	tokInt
	tokKeywordInt
	tokKeywordReturn
	tokKeywordWhile

	tokLBrace
	tokRBrace
	tokLParen
	tokRParen
	tokSemi
	tokComma
	tokAssign
	tokPlus
	tokMinus
	tokStar
	tokSlash
	tokEq
	tokNe
	tokLt
	tokLe
	tokGt
	tokGe
)

var keywords = map[string]tokenKind{
	"int":    tokKeywordInt,
	"return": tokKeywordReturn,
	"while":  tokKeywordWhile,
}

type token struct {
	kind tokenKind
	text string
	ival int64
	pos  diag.Pos
}

// lexer scans source text into tokens one at a time, tracking line/column
// for diagnostics the way original_source's token_t carries a src pointer.
type lexer struct {
	file string
	src  []byte
	off  int
	line int
	col  int
}

func newLexer(file string, src []byte) *lexer {
	return &lexer{file: file, src: src, line: 1, col: 1}
}

func (l *lexer) pos() diag.Pos {
	return diag.Pos{File: l.file, Line: l.line, Column: l.col}
}

func (l *lexer) peekByte() byte {
	if l.off >= len(l.src) {
		return 0
	}
	return l.src[l.off]
}

func (l *lexer) advance() byte {
	c := l.src[l.off]
	l.off++
	if c == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	return c
}

func isDigit(c byte) bool  { return c >= '0' && c <= '9' }
func isAlpha(c byte) bool  { return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') }
func isAlnum(c byte) bool  { return isAlpha(c) || isDigit(c) }

func (l *lexer) skipTrivia() {
	for l.off < len(l.src) {
		c := l.peekByte()
		switch {
		case c == ' ' || c == '\t' || c == '\r' || c == '\n':
			l.advance()
		case c == '/' && l.off+1 < len(l.src) && l.src[l.off+1] == '/':
			for l.off < len(l.src) && l.peekByte() != '\n' {
				l.advance()
			}
		default:
			return
		}
	}
}

// next scans and returns the next token, or a *diag.UserError for an
// unrecognized character or malformed literal.
func (l *lexer) next() (token, *diag.UserError) {
	l.skipTrivia()
	pos := l.pos()
	if l.off >= len(l.src) {
		return token{kind: tokEOF, pos: pos}, nil
	}

	c := l.peekByte()
	switch {
	case isDigit(c):
		start := l.off
		for l.off < len(l.src) && isDigit(l.peekByte()) {
			l.advance()
		}
		text := string(l.src[start:l.off])
		v, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			return token{}, diag.NewUserError(pos, "invalid integer literal %q", text)
		}
		return token{kind: tokInt, text: text, ival: v, pos: pos}, nil

	case isAlpha(c):
		start := l.off
		for l.off < len(l.src) && isAlnum(l.peekByte()) {
			l.advance()
		}
		text := string(l.src[start:l.off])
		if kw, ok := keywords[text]; ok {
			return token{kind: kw, text: text, pos: pos}, nil
		}
		return token{kind: tokIdent, text: text, pos: pos}, nil

	default:
		return l.punct(pos)
	}
}

func (l *lexer) punct(pos diag.Pos) (token, *diag.UserError) {
	c := l.advance()
	two := func(second byte, withSecond, without tokenKind) token {
		if l.peekByte() == second {
			l.advance()
			return token{kind: withSecond, pos: pos}
		}
		return token{kind: without, pos: pos}
	}

	switch c {
	case '{':
		return token{kind: tokLBrace, pos: pos}, nil
	case '}':
		return token{kind: tokRBrace, pos: pos}, nil
	case '(':
		return token{kind: tokLParen, pos: pos}, nil
	case ')':
		return token{kind: tokRParen, pos: pos}, nil
	case ';':
		return token{kind: tokSemi, pos: pos}, nil
	case ',':
		return token{kind: tokComma, pos: pos}, nil
	case '+':
		return token{kind: tokPlus, pos: pos}, nil
	case '-':
		return token{kind: tokMinus, pos: pos}, nil
	case '*':
		return token{kind: tokStar, pos: pos}, nil
	case '/':
		return token{kind: tokSlash, pos: pos}, nil
	case '=':
		return two('=', tokEq, tokAssign), nil
	case '!':
		if l.peekByte() == '=' {
			l.advance()
			return token{kind: tokNe, pos: pos}, nil
		}
		return token{}, diag.NewUserError(pos, "unexpected character %q", "!")
	case '<':
		return two('=', tokLe, tokLt), nil
	case '>':
		return two('=', tokGe, tokGt), nil
	default:
		return token{}, diag.NewUserError(pos, "unexpected character %q", string(c))
	}
}
