package parser

import (
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/openfroyo/uconfig/pkg/engine"
)

func parseString(t *testing.T, src string) (*engine.Database, error) {
	t.Helper()
	db := engine.New(engine.WithLogger(zerolog.New(nil).Level(zerolog.Disabled)))
	err := Parse("test.in", src, engine.NewBuilder(db))
	return db, err
}

func TestParse_ConfigEntries(t *testing.T) {
	db, err := parseString(t, `
config SERIAL
    prompt "Serial console"
    bool true
    select UART
    select CLOCK
    help "Enables the console."

config UART bool false
config CLOCK bool false

config BAUD
    prompt "Baud rate"
    int 115200
    depends on SERIAL
    depends on !LEGACY

config BASE hex 0x3f8
config NAME string "dev\tkit"
`)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	serial, ok := db.Lookup("SERIAL")
	if !ok {
		t.Fatal("Expected SERIAL to be defined")
	}
	if serial.Prompt != "Serial console" || serial.Help != "Enables the console." {
		t.Errorf("Unexpected prompt/help: %q / %q", serial.Prompt, serial.Help)
	}
	if got := serial.Selects(); len(got) != 2 || got[0] != "UART" || got[1] != "CLOCK" {
		t.Errorf("Expected selects [UART CLOCK], got %v", got)
	}
	if !serial.Head().Value.Bool {
		t.Error("Expected SERIAL default true")
	}

	baud, _ := db.Lookup("BAUD")
	if baud.Head().Value.Int != 115200 {
		t.Errorf("Expected 115200, got %d", baud.Head().Value.Int)
	}
	if got := baud.Dependency.String(); got != "SERIAL && !LEGACY" {
		t.Errorf("Expected AND-ed dependency, got %q", got)
	}

	base, _ := db.Lookup("BASE")
	if v := base.Head().Value; v.Int != 0x3f8 || v.Base != 16 {
		t.Errorf("Expected 0x3f8 in base 16, got %d in base %d", v.Int, v.Base)
	}

	name, _ := db.Lookup("NAME")
	if name.Head().Value.Text != "dev\tkit" {
		t.Errorf("Expected unescaped string, got %q", name.Head().Value.Text)
	}
}

func TestParse_MenusAndChoices(t *testing.T) {
	db, err := parseString(t, `
menu "Drivers"
    depends on HAS_IO
    config HAS_UART bool true

    menu "Timers"
    choice TICK_HZ
        prompt "Tick rate"
        option 100
        option 1000 default
        option 250 if HAS_UART && !LOW_POWER
        help "Scheduler tick."
    endchoice
    endmenu
endmenu

config HAS_IO bool true
`)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	root := db.Root()
	if len(root.Children) != 1 || len(root.Entries) != 1 {
		t.Fatalf("Expected 1 child menu and 1 entry at root, got %d and %d", len(root.Children), len(root.Entries))
	}
	drivers := db.Menu(root.Children[0])
	if drivers.Prompt != "Drivers" || drivers.Dependency.String() != "HAS_IO" {
		t.Errorf("Unexpected Drivers menu: %q depends on %q", drivers.Prompt, drivers.Dependency.String())
	}

	tick, ok := db.Lookup("TICK_HZ")
	if !ok {
		t.Fatal("Expected TICK_HZ to be defined")
	}
	if db.PathString(tick.Menu) != "Drivers > Timers" {
		t.Errorf("Expected TICK_HZ under Drivers > Timers, got %q", db.PathString(tick.Menu))
	}
	if tick.Kind() != engine.KindChoice || len(tick.Options()) != 3 {
		t.Fatalf("Expected a choice with 3 options, got %s with %d", tick.Kind(), len(tick.Options()))
	}
	if tick.SelectedOption().Value.Int != 1000 {
		t.Errorf("Expected default 1000, got %d", tick.SelectedOption().Value.Int)
	}
	cond := tick.Options()[2]
	if cond.Flags&engine.FlagConditional == 0 || cond.Condition.String() != "HAS_UART && !LOW_POWER" {
		t.Errorf("Expected conditional option, got flags %s cond %q", cond.Flags, cond.Condition.String())
	}
	if tick.Help != "Scheduler tick." || tick.Prompt != "Tick rate" {
		t.Errorf("Unexpected prompt/help: %q / %q", tick.Prompt, tick.Help)
	}
}

func TestParse_Expressions(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{"A || B && C", "A || B && C"},
		{"(A || B) && C", "(A || B) && C"},
		{"!A && B", "!A && B"},
		{"!(A == 1)", "!(A == 1)"},
		{`MODE != "fast" || WIDTH == 0x20`, `MODE != "fast" || WIDTH == 0x20`},
		{"true", "true"},
	}

	for _, tt := range tests {
		db, err := parseString(t, "config X bool true depends on "+tt.src)
		if err != nil {
			t.Fatalf("%q: Expected no error, got: %v", tt.src, err)
		}
		x, _ := db.Lookup("X")
		if got := x.Dependency.String(); got != tt.want {
			t.Errorf("%q: Expected %q, got %q", tt.src, tt.want, got)
		}
	}
}

func TestParse_Includes(t *testing.T) {
	db := engine.New()
	b := engine.NewBuilder(db)
	err := Parse("main.in", `
include "top.in"
menu "Sub"
include "sub/sub.in"
endmenu
`, b)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	includes := b.Includes()
	if len(includes) != 2 {
		t.Fatalf("Expected 2 includes, got %d", len(includes))
	}
	if includes[0].File != "top.in" || includes[0].Menu != engine.MainMenu {
		t.Errorf("Unexpected first include %+v", includes[0])
	}
	if includes[1].File != "sub/sub.in" || includes[1].Menu == engine.MainMenu {
		t.Errorf("Unexpected second include %+v", includes[1])
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		msg  string
	}{
		{"missing type", "config A prompt \"a\"", "has no bool, int, hex or string value"},
		{"two types", "config A bool true int 1", "more than one type"},
		{"bad bool", "config A bool yes", "expected true or false"},
		{"unclosed menu", "menu \"M\"\nconfig A bool true", "missing endmenu"},
		{"stray endmenu", "endmenu", "endmenu without matching menu"},
		{"missing endchoice", "choice C option 1", "missing endchoice"},
		{"bad statement", "prompt \"x\"", "expected menu, config, choice or include"},
		{"keyword as symbol", "config menu bool true", "expected config symbol"},
		{"select on int", "config A int 1 select B", "select is only allowed on bool entries"},
		{"duplicate", "config A bool true\nconfig A bool false", "already exists"},
		{"empty choice", "choice C endchoice", "choice has no options"},
		{"bad depends", "config A bool true depends A", `expected "on"`},
		{"unbalanced paren", "config A bool true depends on (B", `expected ")"`},
		{"illegal", "config A string \"open", "unterminated string"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseString(t, tt.src)
			if err == nil {
				t.Fatal("Expected an error")
			}
			var se *SyntaxError
			if !errors.As(err, &se) {
				t.Fatalf("Expected a SyntaxError, got %T: %v", err, err)
			}
			if !strings.Contains(err.Error(), tt.msg) {
				t.Errorf("Expected error containing %q, got: %v", tt.msg, err)
			}
			if !strings.HasPrefix(err.Error(), "test.in:") {
				t.Errorf("Expected a positioned error, got: %v", err)
			}
		})
	}
}

func TestParse_DuplicateUnwrapsToEngineError(t *testing.T) {
	_, err := parseString(t, "config A bool true\nconfig A bool false")
	if !errors.Is(err, engine.ErrDuplicateSymbol) {
		t.Fatalf("Expected ErrDuplicateSymbol, got: %v", err)
	}
	var se *SyntaxError
	if errors.As(err, &se) && se.Line != 2 {
		t.Errorf("Expected the duplicate on line 2, got %d", se.Line)
	}
}
