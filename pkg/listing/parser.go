// Package listing reads and writes quadruple units: the textual listing the
// IR producer dumps, and a YAML form that also carries the symbol table.
package listing

import (
	"errors"
	"fmt"

	"github.com/anchor-lang/anchorc/pkg/lexer"
	"github.com/anchor-lang/anchorc/pkg/quad"
)

// ErrSyntax is wrapped by every error caused by malformed input.
var ErrSyntax = errors.New("syntax error")

const globalsDirective = "globals:"

// Parser parses a textual quadruple listing
type Parser struct {
	l         *lexer.Lexer
	curToken  lexer.Token
	peekToken lexer.Token
	errors    []string
}

// NewParser creates a new Parser for the given lexer
func NewParser(l *lexer.Lexer) *Parser {
	p := &Parser{l: l}
	p.nextToken()
	p.nextToken()
	return p
}

func (p *Parser) nextToken() {
	p.curToken = p.peekToken
	p.peekToken = p.l.NextToken()
}

// Errors returns the list of parsing errors
func (p *Parser) Errors() []string {
	return p.errors
}

func (p *Parser) addError(msg string) {
	p.errors = append(p.errors, fmt.Sprintf("line %d, col %d: %s",
		p.curToken.Line, p.curToken.Column, msg))
}

func (p *Parser) curTokenIs(t lexer.TokenType) bool {
	return p.curToken.Type == t
}

func (p *Parser) expect(t lexer.TokenType) bool {
	if p.curTokenIs(t) {
		p.nextToken()
		return true
	}
	p.addError(fmt.Sprintf("expected %s, got %s", t, p.describe()))
	return false
}

func (p *Parser) describe() string {
	switch p.curToken.Type {
	case lexer.TokenAtom, lexer.TokenString:
		return fmt.Sprintf("%q", p.curToken.Literal)
	}
	return p.curToken.Type.String()
}

// ParseUnit parses the whole listing. Lines that fail to parse are
// reported through Errors and skipped.
func (p *Parser) ParseUnit() *Unit {
	u := &Unit{}
	for !p.curTokenIs(lexer.TokenEOF) {
		if p.curTokenIs(lexer.TokenNewline) {
			p.nextToken()
			continue
		}
		p.parseLine(u)
	}
	return u
}

func (p *Parser) parseLine(u *Unit) {
	if p.curTokenIs(lexer.TokenAtom) && p.curToken.Literal == globalsDirective {
		p.nextToken()
		p.parseGlobals(u)
		return
	}

	// Optional "N:" index prefix; the index itself is not checked.
	if p.curTokenIs(lexer.TokenAtom) && isIndex(p.curToken.Literal) {
		p.nextToken()
	}

	q, ok := p.parseQuad()
	if !ok {
		p.skipLine()
		return
	}
	u.Quads = append(u.Quads, q)
	p.endLine()
}

func (p *Parser) parseGlobals(u *Unit) {
	for !p.curTokenIs(lexer.TokenNewline) && !p.curTokenIs(lexer.TokenEOF) {
		switch p.curToken.Type {
		case lexer.TokenComma:
		case lexer.TokenAtom:
			if !quad.IsVariable(p.curToken.Literal) {
				p.addError(fmt.Sprintf("invalid global name %q", p.curToken.Literal))
			} else {
				u.Globals = append(u.Globals, p.curToken.Literal)
			}
		default:
			p.addError(fmt.Sprintf("unexpected %s in globals directive", p.describe()))
			p.skipLine()
			return
		}
		p.nextToken()
	}
}

// parseQuad parses (op, arg1, arg2, result).
func (p *Parser) parseQuad() (quad.Quad, bool) {
	if !p.expect(lexer.TokenLParen) {
		return quad.Quad{}, false
	}

	var fields [4]string
	for i := range fields {
		if i > 0 && !p.expect(lexer.TokenComma) {
			return quad.Quad{}, false
		}
		switch p.curToken.Type {
		case lexer.TokenAtom, lexer.TokenString:
			fields[i] = p.curToken.Literal
		case lexer.TokenIllegal:
			p.addError(fmt.Sprintf("unterminated literal %s", p.curToken.Literal))
			return quad.Quad{}, false
		default:
			p.addError(fmt.Sprintf("expected operand, got %s", p.describe()))
			return quad.Quad{}, false
		}
		p.nextToken()
	}

	if !p.expect(lexer.TokenRParen) {
		return quad.Quad{}, false
	}
	return quad.New(fields[0], fields[1], fields[2], fields[3]), true
}

func (p *Parser) endLine() {
	if !p.curTokenIs(lexer.TokenNewline) && !p.curTokenIs(lexer.TokenEOF) {
		p.addError(fmt.Sprintf("unexpected %s after quadruple", p.describe()))
	}
	p.skipLine()
}

func (p *Parser) skipLine() {
	for !p.curTokenIs(lexer.TokenNewline) && !p.curTokenIs(lexer.TokenEOF) {
		p.nextToken()
	}
}

func isIndex(s string) bool {
	if len(s) < 2 || s[len(s)-1] != ':' {
		return false
	}
	for i := 0; i < len(s)-1; i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
