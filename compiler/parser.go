package compiler

import (
	"fmt"
	"strconv"

	"github.com/petrel-lang/petrel/vm"
)

// ---------------------------------------------------------------------------
// Parser: recursive descent parser for s-expression source
// ---------------------------------------------------------------------------

// Parser parses s-expression source code into datums.
type Parser struct {
	lexer     *Lexer
	curToken  Token
	peekToken Token
	errors    []string
}

// NewParser creates a new parser for the given input.
func NewParser(input string) *Parser {
	p := &Parser{
		lexer: NewLexer(input),
	}
	// Read two tokens to fill curToken and peekToken
	p.nextToken()
	p.nextToken()
	return p
}

// nextToken advances to the next token.
func (p *Parser) nextToken() {
	p.curToken = p.peekToken
	p.peekToken = p.lexer.NextToken()
}

// curTokenIs checks if the current token is of the given type.
func (p *Parser) curTokenIs(t TokenType) bool {
	return p.curToken.Type == t
}

// errorf records a parse error at the current token.
func (p *Parser) errorf(format string, args ...interface{}) {
	p.errorfAt(p.curToken.Pos, format, args...)
}

// errorfAt records a parse error at an explicit position.
func (p *Parser) errorfAt(pos Position, format string, args ...interface{}) {
	msg := fmt.Sprintf("line %d:%d: %s", pos.Line, pos.Column, fmt.Sprintf(format, args...))
	p.errors = append(p.errors, msg)
}

// Errors returns accumulated parse errors.
func (p *Parser) Errors() []string {
	return p.errors
}

// Parse parses the whole input: a sequence of top-level datums.
func (p *Parser) Parse() []Datum {
	var datums []Datum
	for !p.curTokenIs(TokenEOF) {
		d := p.parseDatum()
		if d != nil {
			datums = append(datums, d)
		}
	}
	return datums
}

// parseDatum parses one datum and consumes its tokens. It returns nil
// after recording an error, leaving the parser past the offending token.
func (p *Parser) parseDatum() Datum {
	tok := p.curToken

	switch tok.Type {
	case TokenInt:
		p.nextToken()
		return p.parseInt(tok)

	case TokenBool:
		p.nextToken()
		return &BoolDatum{PosVal: tok.Pos, Value: tok.Literal == "#t" || tok.Literal == "#T"}

	case TokenChar:
		p.nextToken()
		return p.parseChar(tok)

	case TokenString:
		p.nextToken()
		return &StringDatum{PosVal: tok.Pos, Value: tok.Literal}

	case TokenNull:
		p.nextToken()
		return &NullDatum{PosVal: tok.Pos}

	case TokenSymbol:
		p.nextToken()
		return &SymbolDatum{PosVal: tok.Pos, Name: tok.Literal}

	case TokenLParen:
		return p.parseForm()

	case TokenRParen:
		p.errorf("unexpected )")
		p.nextToken()
		return nil

	case TokenError:
		p.errorf("%s", tok.Literal)
		p.nextToken()
		return nil

	default:
		p.errorf("unexpected token %s", tok)
		p.nextToken()
		return nil
	}
}

// parseForm parses `(` datum* `)`.
func (p *Parser) parseForm() Datum {
	pos := p.curToken.Pos
	p.nextToken() // consume (

	var items []Datum
	for !p.curTokenIs(TokenRParen) {
		if p.curTokenIs(TokenEOF) {
			p.errorfAt(pos, "unclosed form")
			return nil
		}
		d := p.parseDatum()
		if d != nil {
			items = append(items, d)
		}
	}
	p.nextToken() // consume )

	return &FormDatum{PosVal: pos, Items: items}
}

// parseInt decodes an integer token and checks the value range.
func (p *Parser) parseInt(tok Token) Datum {
	n, err := strconv.ParseInt(tok.Literal, 10, 64)
	if err != nil {
		p.errorfAt(tok.Pos, "integer %s out of range", tok.Literal)
		return nil
	}
	if _, ok := vm.TryFromInt(n); !ok {
		p.errorfAt(tok.Pos, "integer %d out of range", n)
		return nil
	}
	return &IntDatum{PosVal: tok.Pos, Value: n}
}

// parseChar decodes a character token: #\c is the single byte c (which
// makes #\x the letter x), #\xNN is exactly two hex digits.
func (p *Parser) parseChar(tok Token) Datum {
	body := tok.Literal[2:]
	switch {
	case len(body) == 1 && body[0] < 0x80:
		return &CharDatum{PosVal: tok.Pos, Code: body[0]}
	case len(body) == 3 && (body[0] == 'x' || body[0] == 'X'):
		code, err := strconv.ParseUint(body[1:], 16, 8)
		if err == nil {
			return &CharDatum{PosVal: tok.Pos, Code: byte(code)}
		}
	}
	p.errorfAt(tok.Pos, "bad character literal %q", tok.Literal)
	return nil
}
