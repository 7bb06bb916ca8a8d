package engine

import "testing"

func TestEvaluate_NilIsTrue(t *testing.T) {
	db, _ := newTestDB()
	if !db.Evaluate(nil) {
		t.Error("Expected nil expression to evaluate true")
	}
}

func TestEvaluate_Literal(t *testing.T) {
	db, b := newTestDB()
	mustBool(t, b, "ON", true)
	mustBool(t, b, "OFF", false)
	if _, err := b.AddConfigEntry("count", "COUNT", IntToken(3, 10), nil, nil, ""); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	tests := []struct {
		name string
		expr *Expr
		want bool
	}{
		{"true symbol", Literal(SymbolToken("ON")), true},
		{"false symbol", Literal(SymbolToken("OFF")), false},
		{"bool literal", Literal(BoolToken(true)), true},
		{"integer symbol", Literal(SymbolToken("COUNT")), false},
		{"undefined symbol", Literal(SymbolToken("MISSING")), false},
		{"not", Not(Literal(SymbolToken("OFF"))), true},
		{"and", And(Literal(SymbolToken("ON")), Literal(SymbolToken("OFF"))), false},
		{"or", Or(Literal(SymbolToken("OFF")), Literal(SymbolToken("ON"))), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := db.Evaluate(tt.expr); got != tt.want {
				t.Errorf("Expected %v, got %v", tt.want, got)
			}
		})
	}

	if !hasDiagnostic(db, DiagUndefinedSymbol) {
		t.Error("Expected an undefined symbol diagnostic")
	}
	if !hasDiagnostic(db, DiagBrokenDependency) {
		t.Error("Expected a broken dependency diagnostic for the integer literal")
	}
}

func TestEvaluate_Equality(t *testing.T) {
	db, b := newTestDB()
	mustBool(t, b, "ON", true)
	if _, err := b.AddConfigEntry("base", "BASE", IntToken(0x1000, 16), nil, nil, ""); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if _, err := b.AddConfigEntry("name", "NAME", StringToken("Board"), nil, nil, ""); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	opts := []*ExtendedToken{
		NewOption(StringToken("small"), false, nil),
		NewOption(StringToken("large"), true, nil),
	}
	if _, err := b.AddChoiceEntry("size", "SIZE", opts, nil, ""); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	tests := []struct {
		name string
		expr *Expr
		want bool
	}{
		{"int equal across bases", Equal(SymbolToken("BASE"), IntToken(4096, 10)), true},
		{"int not equal", NotEqual(SymbolToken("BASE"), IntToken(1, 10)), true},
		{"string exact", Equal(SymbolToken("NAME"), StringToken("Board")), true},
		{"string case sensitive", Equal(SymbolToken("NAME"), StringToken("board")), false},
		{"bool symbol", Equal(SymbolToken("ON"), BoolToken(true)), true},
		{"choice selected option", Equal(SymbolToken("SIZE"), StringToken("large")), true},
		{"type mismatch", Equal(SymbolToken("NAME"), IntToken(1, 10)), false},
		{"type mismatch not equal", NotEqual(SymbolToken("NAME"), IntToken(1, 10)), false},
		{"undefined operand", NotEqual(SymbolToken("MISSING"), IntToken(1, 10)), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := db.Evaluate(tt.expr); got != tt.want {
				t.Errorf("Expected %v, got %v", tt.want, got)
			}
		})
	}

	if !hasDiagnostic(db, DiagTypeMismatch) {
		t.Error("Expected a type mismatch diagnostic")
	}
}

func TestEvaluate_ShortCircuit(t *testing.T) {
	db, b := newTestDB()
	mustBool(t, b, "OFF", false)
	mustBool(t, b, "ON", true)

	db.Evaluate(And(Literal(SymbolToken("OFF")), Literal(SymbolToken("MISSING_A"))))
	db.Evaluate(Or(Literal(SymbolToken("ON")), Literal(SymbolToken("MISSING_B"))))

	if len(db.Diagnostics()) != 0 {
		t.Errorf("Expected right operands to be skipped, got diagnostics: %v", db.Diagnostics())
	}
}

func TestEvaluate_DoesNotMutate(t *testing.T) {
	db, b := newTestDB()
	mustBool(t, b, "FOO", true, "BAR")
	mustBool(t, b, "BAR", false)
	settle(db)

	db.Evaluate(Literal(SymbolToken("FOO")))

	if boolValue(t, db, "BAR") || refcount(t, db, "BAR") != 0 {
		t.Error("Expected evaluation to leave BAR untouched")
	}
}
