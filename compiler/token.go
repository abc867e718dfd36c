package compiler

import "fmt"

// ---------------------------------------------------------------------------
// Tokens for s-expression source
// ---------------------------------------------------------------------------

// TokenType represents the type of a token.
type TokenType int

const (
	// Special tokens
	TokenEOF TokenType = iota
	TokenError

	// Literals
	TokenInt    // 42, -7
	TokenBool   // #t, #f (either case)
	TokenChar   // #\a, #\x41
	TokenString // "hello"
	TokenNull   // '()

	// Names and structure
	TokenSymbol // add1, string-set!, +
	TokenLParen // (
	TokenRParen // )
)

var tokenNames = map[TokenType]string{
	TokenEOF:    "EOF",
	TokenError:  "ERROR",
	TokenInt:    "INT",
	TokenBool:   "BOOL",
	TokenChar:   "CHAR",
	TokenString: "STRING",
	TokenNull:   "NULL",
	TokenSymbol: "SYMBOL",
	TokenLParen: "(",
	TokenRParen: ")",
}

func (t TokenType) String() string {
	if name, ok := tokenNames[t]; ok {
		return name
	}
	return fmt.Sprintf("Token(%d)", t)
}

// Position represents a source location.
type Position struct {
	Offset int // byte offset
	Line   int // 1-based line number
	Column int // 1-based column number
}

// Token represents a lexical token.
type Token struct {
	Type    TokenType
	Literal string   // the raw text
	Pos     Position // start position
}

func (t Token) String() string {
	if t.Type == TokenEOF {
		return "EOF"
	}
	if t.Type == TokenError {
		return fmt.Sprintf("ERROR(%s)", t.Literal)
	}
	return fmt.Sprintf("%s(%q)", t.Type, t.Literal)
}

// IsSymbolStartChar returns true if r can begin a symbol.
func IsSymbolStartChar(r rune) bool {
	if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
		return true
	}
	switch r {
	case '-', '+', '=', '_', '*', '&', '^', '%', '$', '!', '~', ':', '|', '\\', '?', '/', '<', '>':
		return true
	}
	return false
}

// IsSymbolChar returns true if r can continue a symbol.
func IsSymbolChar(r rune) bool {
	return IsSymbolStartChar(r) || (r >= '0' && r <= '9')
}
