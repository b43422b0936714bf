package lexer

// TokenType represents the type of a token
type TokenType int

const (
	// Special tokens
	TokenEOF TokenType = iota
	TokenIllegal
	TokenNewline

	// Fields
	TokenAtom   // +, JUMPF, x, T3, 42, _, 0:, globals:
	TokenString // "hello" or 'c', quotes included

	// Punctuation
	TokenLParen // (
	TokenRParen // )
	TokenComma  // ,
)

var tokenNames = map[TokenType]string{
	TokenEOF:     "EOF",
	TokenIllegal: "ILLEGAL",
	TokenNewline: "NEWLINE",
	TokenAtom:    "ATOM",
	TokenString:  "STRING",
	TokenLParen:  "(",
	TokenRParen:  ")",
	TokenComma:   ",",
}

func (t TokenType) String() string {
	if name, ok := tokenNames[t]; ok {
		return name
	}
	return "UNKNOWN"
}

// Token represents a lexical token
type Token struct {
	Type    TokenType
	Literal string
	Line    int
	Column  int
}
