package lexer

import "testing"

func TestNextToken(t *testing.T) {
	input := `0:	(+, 2, 3, T0)`

	tests := []struct {
		expectedType    TokenType
		expectedLiteral string
	}{
		{TokenAtom, "0:"},
		{TokenLParen, "("},
		{TokenAtom, "+"},
		{TokenComma, ","},
		{TokenAtom, "2"},
		{TokenComma, ","},
		{TokenAtom, "3"},
		{TokenComma, ","},
		{TokenAtom, "T0"},
		{TokenRParen, ")"},
		{TokenEOF, ""},
	}

	l := New(input)

	for i, tt := range tests {
		tok := l.NextToken()

		if tok.Type != tt.expectedType {
			t.Fatalf("tests[%d] - tokentype wrong. expected=%q, got=%q",
				i, tt.expectedType, tok.Type)
		}

		if tok.Literal != tt.expectedLiteral {
			t.Fatalf("tests[%d] - literal wrong. expected=%q, got=%q",
				i, tt.expectedLiteral, tok.Literal)
		}
	}
}

func TestOperators(t *testing.T) {
	input := `= + - * / && || < > == != >= <=`
	want := []string{"=", "+", "-", "*", "/", "&&", "||", "<", ">", "==", "!=", ">=", "<="}

	l := New(input)
	for i, lit := range want {
		tok := l.NextToken()
		if tok.Type != TokenAtom || tok.Literal != lit {
			t.Fatalf("tests[%d] - got %s %q, want ATOM %q", i, tok.Type, tok.Literal, lit)
		}
	}
	if tok := l.NextToken(); tok.Type != TokenEOF {
		t.Fatalf("expected EOF, got %s", tok.Type)
	}
}

func TestQuotedLiterals(t *testing.T) {
	l := New(`(PRINT, "a, (b)", 'c', "say \"hi\"")`)

	want := []struct {
		typ TokenType
		lit string
	}{
		{TokenLParen, "("},
		{TokenAtom, "PRINT"},
		{TokenComma, ","},
		{TokenString, `"a, (b)"`},
		{TokenComma, ","},
		{TokenString, "'c'"},
		{TokenComma, ","},
		{TokenString, `"say \"hi\""`},
		{TokenRParen, ")"},
	}
	for i, w := range want {
		tok := l.NextToken()
		if tok.Type != w.typ || tok.Literal != w.lit {
			t.Fatalf("tests[%d] - got %s %q, want %s %q", i, tok.Type, tok.Literal, w.typ, w.lit)
		}
	}
}

func TestUnterminatedString(t *testing.T) {
	l := New("(PRINT, \"oops\n")
	for {
		tok := l.NextToken()
		if tok.Type == TokenIllegal {
			if tok.Literal != `"oops` {
				t.Errorf("illegal literal = %q", tok.Literal)
			}
			return
		}
		if tok.Type == TokenEOF {
			t.Fatal("expected ILLEGAL token for unterminated string")
		}
	}
}

func TestCommentsAndLines(t *testing.T) {
	input := "# header\n(JUMP, _, _, L1) # trailing\n\n(LABEL, L1, _, _)"

	l := New(input)
	var types []TokenType
	var lines []int
	for {
		tok := l.NextToken()
		types = append(types, tok.Type)
		lines = append(lines, tok.Line)
		if tok.Type == TokenEOF {
			break
		}
	}

	newlines := 0
	for _, typ := range types {
		if typ == TokenNewline {
			newlines++
		}
	}
	if newlines != 3 {
		t.Errorf("newline count = %d, want 3", newlines)
	}

	// The LABEL quadruple starts on line 4.
	for i, typ := range types {
		if typ == TokenAtom && i > 0 && types[i-1] == TokenLParen && lines[i] == 4 {
			return
		}
	}
	t.Errorf("expected a quadruple on line 4, lines = %v", lines)
}
