package compiler

import (
	"fmt"
	"unicode/utf8"
)

// ---------------------------------------------------------------------------
// Lexer: tokenizer for s-expression source
// ---------------------------------------------------------------------------

// Lexer tokenizes s-expression source code. Atoms must end at a delimiter
// (whitespace, `)`, or end of input), so runs like `42abc` are one error
// token rather than two atoms.
type Lexer struct {
	input   string
	pos     int  // current position in input
	readPos int  // reading position (after current char)
	ch      rune // current character
	line    int  // current line (1-based)
	col     int  // current column (1-based)
}

// NewLexer creates a new lexer for the given input.
func NewLexer(input string) *Lexer {
	l := &Lexer{
		input: input,
		line:  1,
	}
	l.readChar()
	return l
}

// readChar reads the next character. line and col describe the character
// now in ch.
func (l *Lexer) readChar() {
	if l.readPos >= len(l.input) {
		if l.ch == '\n' {
			l.line++
			l.col = 1
		} else if l.ch != 0 {
			l.col++
		}
		l.ch = 0 // EOF
		l.pos = l.readPos
		return
	}
	if l.ch == '\n' {
		l.line++
		l.col = 0
	}
	r, size := utf8.DecodeRuneInString(l.input[l.readPos:])
	l.ch = r
	l.pos = l.readPos
	l.readPos += size
	l.col++
}

// peekChar returns the next character without consuming it.
func (l *Lexer) peekChar() rune {
	if l.readPos >= len(l.input) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(l.input[l.readPos:])
	return r
}

// position returns the current position.
func (l *Lexer) position() Position {
	return Position{
		Offset: l.pos,
		Line:   l.line,
		Column: l.col,
	}
}

// NextToken returns the next token.
func (l *Lexer) NextToken() Token {
	l.skipWhitespaceAndComments()

	pos := l.position()

	switch {
	case l.ch == 0:
		return Token{Type: TokenEOF, Literal: "", Pos: pos}

	case l.ch == '(':
		l.readChar()
		return Token{Type: TokenLParen, Literal: "(", Pos: pos}

	case l.ch == ')':
		l.readChar()
		return Token{Type: TokenRParen, Literal: ")", Pos: pos}

	case l.ch == '\'':
		return l.readNull(pos)

	case l.ch == '#':
		return l.readHashLiteral(pos)

	case l.ch == '"':
		return l.readString(pos)

	case isDigit(l.ch):
		return l.readNumber(pos)

	case l.ch == '-' && isDigit(l.peekChar()):
		return l.readNumber(pos)

	case IsSymbolStartChar(l.ch):
		return l.readSymbol(pos)

	default:
		ch := l.ch
		l.readChar()
		return Token{Type: TokenError, Literal: fmt.Sprintf("unexpected character: %c", ch), Pos: pos}
	}
}

// skipWhitespaceAndComments skips whitespace and `;` line comments.
func (l *Lexer) skipWhitespaceAndComments() {
	for {
		for l.ch == ' ' || l.ch == '\t' || l.ch == '\n' || l.ch == '\r' {
			l.readChar()
		}
		if l.ch != ';' {
			return
		}
		for l.ch != '\n' && l.ch != 0 {
			l.readChar()
		}
	}
}

// isDelimiter reports whether r legally ends an atom.
func isDelimiter(r rune) bool {
	return r == 0 || r == ' ' || r == '\t' || r == '\n' || r == '\r' || r == ')'
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

// readNull reads the `'()` empty-list literal.
func (l *Lexer) readNull(pos Position) Token {
	l.readChar() // consume '
	if l.ch != '(' || l.peekChar() != ')' {
		return Token{Type: TokenError, Literal: "expected () after '", Pos: pos}
	}
	l.readChar()
	l.readChar()
	return Token{Type: TokenNull, Literal: "'()", Pos: pos}
}

// readHashLiteral reads booleans (#t, #f) and characters (#\a, #\x41).
func (l *Lexer) readHashLiteral(pos Position) Token {
	start := l.pos
	l.readChar() // consume #

	if l.ch == '\\' {
		l.readChar()
		// The first body character may itself be a delimiter char, so that
		// #\) and #\( lex as characters.
		if l.ch == 0 || l.ch == ' ' || l.ch == '\t' || l.ch == '\n' || l.ch == '\r' {
			return Token{Type: TokenError, Literal: "bad character literal", Pos: pos}
		}
		l.readChar()
		for !isDelimiter(l.ch) {
			l.readChar()
		}
		return Token{Type: TokenChar, Literal: l.input[start:l.pos], Pos: pos}
	}

	for !isDelimiter(l.ch) {
		l.readChar()
	}
	lit := l.input[start:l.pos]
	switch lit {
	case "#t", "#T", "#f", "#F":
		return Token{Type: TokenBool, Literal: lit, Pos: pos}
	}
	return Token{Type: TokenError, Literal: fmt.Sprintf("bad hash literal %q", lit), Pos: pos}
}

// readString reads a double-quoted string literal. There are no escape
// sequences; the bytes between the quotes are the string.
func (l *Lexer) readString(pos Position) Token {
	l.readChar() // consume opening quote
	start := l.pos
	for l.ch != '"' && l.ch != 0 {
		l.readChar()
	}
	if l.ch == 0 {
		return Token{Type: TokenError, Literal: "unterminated string", Pos: pos}
	}
	lit := l.input[start:l.pos]
	l.readChar() // consume closing quote
	return Token{Type: TokenString, Literal: lit, Pos: pos}
}

// readNumber reads a decimal integer, optionally signed.
func (l *Lexer) readNumber(pos Position) Token {
	start := l.pos
	if l.ch == '-' {
		l.readChar()
	}
	for isDigit(l.ch) {
		l.readChar()
	}
	if !isDelimiter(l.ch) {
		for !isDelimiter(l.ch) {
			l.readChar()
		}
		return Token{Type: TokenError, Literal: fmt.Sprintf("malformed number %q", l.input[start:l.pos]), Pos: pos}
	}
	return Token{Type: TokenInt, Literal: l.input[start:l.pos], Pos: pos}
}

// readSymbol reads a symbol.
func (l *Lexer) readSymbol(pos Position) Token {
	start := l.pos
	for IsSymbolChar(l.ch) {
		l.readChar()
	}
	if !isDelimiter(l.ch) {
		for !isDelimiter(l.ch) {
			l.readChar()
		}
		return Token{Type: TokenError, Literal: fmt.Sprintf("malformed symbol %q", l.input[start:l.pos]), Pos: pos}
	}
	return Token{Type: TokenSymbol, Literal: l.input[start:l.pos], Pos: pos}
}
