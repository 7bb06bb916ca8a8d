package engine

import "testing"

func TestToken_Format(t *testing.T) {
	tests := []struct {
		token Token
		want  string
	}{
		{BoolToken(true), "true"},
		{BoolToken(false), "false"},
		{IntToken(42, 10), "42"},
		{IntToken(255, 16), "0xff"},
		{IntToken(-16, 16), "-0x10"},
		{IntToken(7, 8), "7"},
		{StringToken("a b"), "a b"},
		{SymbolToken("FOO"), "FOO"},
		{InvalidToken(), ""},
	}

	for _, tt := range tests {
		if got := tt.token.Format(); got != tt.want {
			t.Errorf("Expected %q, got %q", tt.want, got)
		}
	}
}

func TestParseInt(t *testing.T) {
	tests := []struct {
		in      string
		base    int
		want    int64
		wantErr bool
	}{
		{"42", 10, 42, false},
		{"0x2a", 10, 42, false},
		{"2a", 16, 42, false},
		{"0X2A", 16, 42, false},
		{"-0x10", 10, -16, false},
		{" 7 ", 10, 7, false},
		{"2a", 10, 0, true},
		{"0x", 16, 0, true},
		{"", 10, 0, true},
	}

	for _, tt := range tests {
		got, err := ParseInt(tt.in, tt.base)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseInt(%q, %d): Expected error=%v, got: %v", tt.in, tt.base, tt.wantErr, err)
			continue
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("ParseInt(%q, %d): Expected %d, got %d", tt.in, tt.base, tt.want, got)
		}
	}
}

func TestExpr_String(t *testing.T) {
	tests := []struct {
		expr *Expr
		want string
	}{
		{Literal(SymbolToken("A")), "A"},
		{Not(Literal(SymbolToken("A"))), "!A"},
		{Equal(SymbolToken("MODE"), StringToken("fast")), `MODE == "fast"`},
		{NotEqual(SymbolToken("BASE"), IntToken(16, 16)), "BASE != 0x10"},
		{And(Or(Literal(SymbolToken("A")), Literal(SymbolToken("B"))), Literal(SymbolToken("C"))), "(A || B) && C"},
		{Or(And(Literal(SymbolToken("A")), Literal(SymbolToken("B"))), Literal(SymbolToken("C"))), "A && B || C"},
		{Not(And(Literal(SymbolToken("A")), Literal(SymbolToken("B")))), "!(A && B)"},
	}

	for _, tt := range tests {
		if got := tt.expr.String(); got != tt.want {
			t.Errorf("Expected %q, got %q", tt.want, got)
		}
	}

	var none *Expr
	if none.String() != "" {
		t.Error("Expected empty rendering for a nil expression")
	}
}

func TestExpr_SymbolsAndConjoin(t *testing.T) {
	e := Conjoin(nil, Literal(SymbolToken("A")))
	e = Conjoin(e, Or(Equal(SymbolToken("B"), SymbolToken("A")), Not(Literal(SymbolToken("C")))))

	got := e.Symbols()
	want := []string{"A", "B", "C"}
	if len(got) != len(want) {
		t.Fatalf("Expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Expected %v, got %v", want, got)
		}
	}

	if Conjoin(nil, nil) != nil {
		t.Error("Expected nil when both sides are nil")
	}
}
