package parser

import "testing"

func TestLexer_Tokens(t *testing.T) {
	src := `# leading comment
config FOO_1 bool true # trailing
depends on !(A && B) || C == "x\"y" != 0x1F -12
`
	want := []struct {
		typ    TokenType
		lexeme string
	}{
		{TokConfig, "config"},
		{TokIdent, "FOO_1"},
		{TokBoolType, "bool"},
		{TokTrue, "true"},
		{TokDepends, "depends"},
		{TokOn, "on"},
		{TokNot, "!"},
		{TokLParen, "("},
		{TokIdent, "A"},
		{TokAnd, "&&"},
		{TokIdent, "B"},
		{TokRParen, ")"},
		{TokOr, "||"},
		{TokIdent, "C"},
		{TokEq, "=="},
		{TokString, `x"y`},
		{TokNotEq, "!="},
		{TokInt, "0x1F"},
		{TokInt, "-12"},
		{TokEOF, ""},
	}

	l := NewLexer(src, "test.in")
	for i, w := range want {
		tok := l.NextToken()
		if tok.Type != w.typ || tok.Lexeme != w.lexeme {
			t.Fatalf("token %d: Expected %s(%q), got %s", i, w.typ, w.lexeme, tok)
		}
	}
}

func TestLexer_Positions(t *testing.T) {
	l := NewLexer("menu\n  \"Main\"\n", "pos.in")

	tok := l.NextToken()
	if tok.Line != 1 || tok.Column != 1 {
		t.Errorf("Expected menu at 1:1, got %d:%d", tok.Line, tok.Column)
	}
	tok = l.NextToken()
	if tok.Line != 2 || tok.Column != 3 {
		t.Errorf("Expected string at 2:3, got %d:%d", tok.Line, tok.Column)
	}
	if tok.File != "pos.in" {
		t.Errorf("Expected file pos.in, got %s", tok.File)
	}
}

func TestLexer_Illegal(t *testing.T) {
	tests := []string{
		`"unterminated`,
		"\"split\nstring\"",
		`"bad \q escape"`,
		"12abc",
		"@",
		"a & b",
	}

	for _, src := range tests {
		l := NewLexer(src, "bad.in")
		found := false
		for tok := l.NextToken(); tok.Type != TokEOF; tok = l.NextToken() {
			if tok.Type == TokIllegal {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("Expected an illegal token in %q", src)
		}
	}
}
