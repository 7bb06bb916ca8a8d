package engine

import (
	"errors"
	"testing"
)

func TestBuilder_MenuNesting(t *testing.T) {
	db, b := newTestDB()

	drivers := b.PushMenu("Drivers", nil)
	serial := b.PushMenu("Serial", Literal(SymbolToken("SERIAL")))
	mustBool(t, b, "UART", true)

	if b.Current() != serial {
		t.Fatalf("Expected current menu %d, got %d", serial, b.Current())
	}
	if err := b.PopMenu(); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if b.Current() != drivers {
		t.Errorf("Expected current menu %d after pop, got %d", drivers, b.Current())
	}
	if err := b.PopMenu(); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if b.Current() != MainMenu {
		t.Errorf("Expected main menu after second pop, got %d", b.Current())
	}

	err := b.PopMenu()
	if !errors.Is(err, ErrMenuUnderflow) {
		t.Fatalf("Expected ErrMenuUnderflow, got: %v", err)
	}

	uart, _ := db.Lookup("UART")
	if uart.Menu != serial {
		t.Errorf("Expected UART in menu %d, got %d", serial, uart.Menu)
	}
	if got := db.PathString(uart.Menu); got != "Drivers > Serial" {
		t.Errorf("Expected path 'Drivers > Serial', got %q", got)
	}
	if db.Active(uart) {
		t.Error("Expected UART to be inactive while SERIAL is undefined")
	}
	if !db.Root().IsRoot() || db.Menu(serial).IsRoot() {
		t.Error("Expected only the main menu to be root")
	}
}

func TestBuilder_AddConfigEntry(t *testing.T) {
	_, b := newTestDB()

	it := mustBool(t, b, "FOO", false, "BAR", "BAZ")
	if it.Kind() != KindBool {
		t.Errorf("Expected bool kind, got %s", it.Kind())
	}
	head := it.Head()
	if head == nil || head.Flags != FlagConfigValue|FlagDefaultPending {
		t.Fatalf("Expected head flagged config-value|default-pending, got %v", head)
	}
	if got := it.Selects(); len(got) != 2 || got[0] != "BAR" || got[1] != "BAZ" {
		t.Errorf("Expected selects [BAR BAZ], got %v", got)
	}

	_, err := b.AddConfigEntry("count", "COUNT", IntToken(1, 10), []string{"FOO"}, nil, "")
	if !errors.Is(err, ErrSelectOnNonBool) {
		t.Errorf("Expected ErrSelectOnNonBool, got: %v", err)
	}

	_, err = b.AddConfigEntry("sym", "SYM", SymbolToken("FOO"), nil, nil, "")
	if !IsConstruction(err) {
		t.Errorf("Expected a construction error for a symbol value, got: %v", err)
	}
}

func TestBuilder_AddChoiceEntry(t *testing.T) {
	_, b := newTestDB()

	_, err := b.AddChoiceEntry("empty", "EMPTY", nil, nil, "")
	if !errors.Is(err, ErrInvalidChoice) {
		t.Errorf("Expected ErrInvalidChoice for no options, got: %v", err)
	}

	_, err = b.AddChoiceEntry("two", "TWO", []*ExtendedToken{
		NewOption(StringToken("a"), true, nil),
		NewOption(StringToken("b"), true, nil),
	}, nil, "")
	if !errors.Is(err, ErrInvalidChoice) {
		t.Errorf("Expected ErrInvalidChoice for two defaults, got: %v", err)
	}

	it, err := b.AddChoiceEntry("mode", "MODE", []*ExtendedToken{
		NewOption(StringToken("a"), false, nil),
		NewOption(StringToken("b"), false, Literal(SymbolToken("X"))),
	}, nil, "")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if it.Kind() != KindChoice {
		t.Errorf("Expected choice kind, got %s", it.Kind())
	}
	first := it.Options()[0]
	if first.Flags != FlagDefaultPending|FlagSelected {
		t.Errorf("Expected first option to become the default, got %s", first.Flags)
	}
	if it.Options()[1].Flags != FlagConditional {
		t.Errorf("Expected second option to be conditional only, got %s", it.Options()[1].Flags)
	}
}

func TestBuilder_IncludeQueue(t *testing.T) {
	_, b := newTestDB()

	b.AddConfigFile("a.in")
	sub := b.PushMenu("Sub", nil)
	b.AddConfigFile("b.in")

	if len(b.Includes()) != 2 {
		t.Fatalf("Expected 2 queued includes, got %d", len(b.Includes()))
	}

	d, ok := b.NextInclude()
	if !ok || d.File != "a.in" || d.Menu != MainMenu {
		t.Errorf("Expected a.in into the main menu, got %+v", d)
	}
	d, ok = b.NextInclude()
	if !ok || d.File != "b.in" || d.Menu != sub {
		t.Errorf("Expected b.in into Sub, got %+v", d)
	}
	if _, ok := b.NextInclude(); ok {
		t.Error("Expected the queue to be empty")
	}
}
