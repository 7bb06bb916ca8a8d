package parser

import (
	"strings"
	"unicode/utf8"
)

// Lexer splits a configuration description into tokens.
//
// Whitespace and newlines separate tokens and are otherwise ignored. '#'
// starts a comment running to the end of the line. Strings are double
// quoted, may not span lines, and accept the escapes \" \\ \n and \t.
type Lexer struct {
	src      string
	filename string

	pos    int // byte index of the rune after ch
	line   int
	column int

	ch    rune // current rune
	width int
	done  bool
}

// NewLexer creates a lexer over src. filename is only used in positions.
func NewLexer(src, filename string) *Lexer {
	l := &Lexer{
		src:      src,
		filename: filename,
		line:     1,
	}
	l.readRune()
	return l
}

func (l *Lexer) readRune() {
	if l.pos >= len(l.src) {
		if !l.done {
			l.column++
		}
		l.ch = 0
		l.width = 0
		l.done = true
		return
	}

	if l.ch == '\n' {
		l.line++
		l.column = 0
	}

	r, w := utf8.DecodeRuneInString(l.src[l.pos:])
	l.ch = r
	l.width = w
	l.pos += w
	l.column++
}

func (l *Lexer) peekRune() rune {
	if l.pos >= len(l.src) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(l.src[l.pos:])
	return r
}

func (l *Lexer) skipSpaceAndComments() {
	for !l.done {
		switch {
		case l.ch == ' ' || l.ch == '\t' || l.ch == '\r' || l.ch == '\n':
			l.readRune()
		case l.ch == '#':
			for !l.done && l.ch != '\n' {
				l.readRune()
			}
		default:
			return
		}
	}
}

// NextToken returns the next token, or TokEOF at the end of input.
func (l *Lexer) NextToken() Token {
	l.skipSpaceAndComments()

	tok := Token{File: l.filename, Line: l.line, Column: l.column}
	if l.done {
		tok.Type = TokEOF
		return tok
	}

	switch {
	case l.ch == '"':
		return l.readString(tok)
	case isIdentStart(l.ch):
		start := l.pos - l.width
		for !l.done && isIdentPart(l.ch) {
			l.readRune()
		}
		tok.Lexeme = l.src[start : l.pos-l.width]
		tok.Type = LookupIdent(tok.Lexeme)
		return tok
	case isDigit(l.ch) || (l.ch == '-' && isDigit(l.peekRune())):
		return l.readNumber(tok)
	}

	two := func(second rune, typ TokenType) bool {
		if l.peekRune() == second {
			l.readRune()
			l.readRune()
			tok.Type = typ
			tok.Lexeme = string(typ)
			return true
		}
		return false
	}

	switch l.ch {
	case '&':
		if two('&', TokAnd) {
			return tok
		}
	case '|':
		if two('|', TokOr) {
			return tok
		}
	case '=':
		if two('=', TokEq) {
			return tok
		}
	case '!':
		if two('=', TokNotEq) {
			return tok
		}
		tok.Type = TokNot
		tok.Lexeme = "!"
		l.readRune()
		return tok
	case '(':
		tok.Type = TokLParen
		tok.Lexeme = "("
		l.readRune()
		return tok
	case ')':
		tok.Type = TokRParen
		tok.Lexeme = ")"
		l.readRune()
		return tok
	}

	tok.Type = TokIllegal
	tok.Lexeme = "unexpected character " + string(l.ch)
	l.readRune()
	return tok
}

func (l *Lexer) readString(tok Token) Token {
	var b strings.Builder
	l.readRune() // opening quote

	for {
		if l.done || l.ch == '\n' {
			tok.Type = TokIllegal
			tok.Lexeme = "unterminated string"
			return tok
		}
		if l.ch == '"' {
			l.readRune()
			break
		}
		if l.ch == '\\' {
			l.readRune()
			switch l.ch {
			case '"', '\\':
				b.WriteRune(l.ch)
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			default:
				tok.Type = TokIllegal
				tok.Lexeme = "invalid escape \\" + string(l.ch)
				return tok
			}
			l.readRune()
			continue
		}
		b.WriteRune(l.ch)
		l.readRune()
	}

	tok.Type = TokString
	tok.Lexeme = b.String()
	return tok
}

func (l *Lexer) readNumber(tok Token) Token {
	start := l.pos - l.width
	if l.ch == '-' {
		l.readRune()
	}
	if l.ch == '0' && (l.peekRune() == 'x' || l.peekRune() == 'X') {
		l.readRune()
		l.readRune()
		for !l.done && isHexDigit(l.ch) {
			l.readRune()
		}
	} else {
		for !l.done && isDigit(l.ch) {
			l.readRune()
		}
	}

	tok.Lexeme = l.src[start : l.pos-l.width]

	if !l.done && isIdentPart(l.ch) {
		for !l.done && isIdentPart(l.ch) {
			l.readRune()
		}
		tok.Type = TokIllegal
		tok.Lexeme = "malformed number " + tok.Lexeme
		return tok
	}
	tok.Type = TokInt
	return tok
}

func isIdentStart(r rune) bool {
	return r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

func isIdentPart(r rune) bool {
	return isIdentStart(r) || isDigit(r)
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

func isHexDigit(r rune) bool {
	return isDigit(r) || (r >= 'a' && r <= 'f') || (r >= 'A' && r <= 'F')
}
