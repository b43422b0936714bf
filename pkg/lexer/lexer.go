// Package lexer tokenizes quadruple listings such as
//
//	0:	(+, 2, 3, T0)
//	1:	(PRINT, "a, b", _, _)
//
// Newlines are significant: each listing line holds at most one quadruple.
package lexer

// Lexer tokenizes a quadruple listing
type Lexer struct {
	input   string
	pos     int  // current position in input
	readPos int  // next reading position
	ch      byte // current character
	line    int
	column  int
}

// New creates a new Lexer for the given input
func New(input string) *Lexer {
	l := &Lexer{input: input, line: 1, column: 0}
	l.readChar()
	return l
}

func (l *Lexer) readChar() {
	if l.ch == '\n' {
		l.line++
		l.column = 0
	}
	if l.readPos >= len(l.input) {
		l.ch = 0 // EOF
	} else {
		l.ch = l.input[l.readPos]
	}
	l.pos = l.readPos
	l.readPos++
	l.column++
}

// NextToken returns the next token from the input
func (l *Lexer) NextToken() Token {
	l.skipBlanks()
	l.skipComment()

	tok := Token{Line: l.line, Column: l.column}

	switch l.ch {
	case 0:
		tok.Type = TokenEOF
		return tok
	case '\n':
		tok.Type = TokenNewline
		tok.Literal = "\n"
	case '(':
		tok.Type = TokenLParen
		tok.Literal = "("
	case ')':
		tok.Type = TokenRParen
		tok.Literal = ")"
	case ',':
		tok.Type = TokenComma
		tok.Literal = ","
	case '"', '\'':
		lit, ok := l.readQuoted()
		tok.Literal = lit
		if ok {
			tok.Type = TokenString
		} else {
			tok.Type = TokenIllegal
		}
		return tok
	default:
		tok.Type = TokenAtom
		tok.Literal = l.readAtom()
		return tok
	}

	l.readChar()
	return tok
}

// skipBlanks skips spaces, tabs and carriage returns but not newlines.
func (l *Lexer) skipBlanks() {
	for l.ch == ' ' || l.ch == '\t' || l.ch == '\r' {
		l.readChar()
	}
}

// skipComment skips a # comment up to (not including) the end of the line.
func (l *Lexer) skipComment() {
	if l.ch != '#' {
		return
	}
	for l.ch != '\n' && l.ch != 0 {
		l.readChar()
	}
}

func (l *Lexer) readAtom() string {
	pos := l.pos
	for isAtomChar(l.ch) {
		l.readChar()
	}
	return l.input[pos:l.pos]
}

// readQuoted reads a quoted literal, keeping the quotes. It reports false
// when the literal is not closed before the end of the line.
func (l *Lexer) readQuoted() (string, bool) {
	quote := l.ch
	pos := l.pos
	l.readChar() // consume opening quote
	for l.ch != quote {
		if l.ch == 0 || l.ch == '\n' {
			return l.input[pos:l.pos], false
		}
		if l.ch == '\\' {
			l.readChar() // skip escape char
			if l.ch == 0 || l.ch == '\n' {
				return l.input[pos:l.pos], false
			}
		}
		l.readChar()
	}
	l.readChar() // consume closing quote
	return l.input[pos:l.pos], true
}

func isAtomChar(ch byte) bool {
	switch ch {
	case 0, ' ', '\t', '\r', '\n', '(', ')', ',', '#', '"', '\'':
		return false
	}
	return true
}
