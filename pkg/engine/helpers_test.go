package engine

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
)

func newTestDB() (*Database, *Builder) {
	db := New(WithLogger(zerolog.New(nil).Level(zerolog.Disabled)))
	return db, NewBuilder(db)
}

func mustBool(t *testing.T, b *Builder, symbol string, v bool, selects ...string) *Item {
	t.Helper()
	it, err := b.AddConfigEntry("prompt "+symbol, symbol, BoolToken(v), selects, nil, "")
	if err != nil {
		t.Fatalf("Expected no error adding %s, got: %v", symbol, err)
	}
	return it
}

// settle clears the pending flag of every item, as if each had been read.
func settle(db *Database) {
	for _, it := range db.items {
		it.clearPending()
	}
}

func boolValue(t *testing.T, db *Database, symbol string) bool {
	t.Helper()
	it, ok := db.Lookup(symbol)
	if !ok {
		t.Fatalf("Expected symbol %s to exist", symbol)
	}
	return it.Head().Value.Bool
}

func refcount(t *testing.T, db *Database, symbol string) uint32 {
	t.Helper()
	it, ok := db.Lookup(symbol)
	if !ok {
		t.Fatalf("Expected symbol %s to exist", symbol)
	}
	return it.Refcount
}

func hasDiagnostic(db *Database, kind DiagnosticKind) bool {
	for _, d := range db.Diagnostics() {
		if d.Kind == kind {
			return true
		}
	}
	return false
}

func render(t *testing.T, db *Database) string {
	t.Helper()
	var buf bytes.Buffer
	if err := db.Render(&buf, MainMenu, HeaderOptions{}); err != nil {
		t.Fatalf("Expected no error rendering, got: %v", err)
	}
	return buf.String()
}
