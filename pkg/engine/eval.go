package engine

import "fmt"

// Evaluate computes the truth value of e against the current item values.
// A nil expression is true. Evaluation never fails: unresolvable operands
// make the affected comparison false and are reported as diagnostics.
func (db *Database) Evaluate(e *Expr) bool {
	if e == nil {
		return true
	}

	switch e.Op {
	case OpLiteral:
		return db.evalLiteral(e.A)
	case OpEqual, OpNotEqual:
		a, ok := db.resolveOperand(e.A)
		if !ok {
			return false
		}
		b, ok := db.resolveOperand(e.B)
		if !ok {
			return false
		}
		if a.Kind != b.Kind {
			db.debugDiag(DiagTypeMismatch, e.A.Text,
				fmt.Sprintf("cannot compare %s with %s in %q", a.Kind, b.Kind, e.String()))
			return false
		}
		if e.Op == OpEqual {
			return a.Equal(b)
		}
		return !a.Equal(b)
	case OpNot:
		return !db.Evaluate(e.Left)
	case OpAnd:
		return db.Evaluate(e.Left) && db.Evaluate(e.Right)
	case OpOr:
		return db.Evaluate(e.Left) || db.Evaluate(e.Right)
	}
	return false
}

func (db *Database) evalLiteral(t Token) bool {
	switch t.Kind {
	case TokenBool:
		return t.Bool
	case TokenSymbol:
	default:
		db.debugDiag(DiagTypeMismatch, "", fmt.Sprintf("%s literal %s has no truth value", t.Kind, t.Source()))
		return false
	}

	it, ok := db.Lookup(t.Text)
	if !ok {
		db.debugDiag(DiagUndefinedSymbol, t.Text, "broken dependency: undefined symbol "+t.Text)
		return false
	}
	head := it.Head()
	if head == nil || head.Value.Kind != TokenBool {
		db.debugDiag(DiagBrokenDependency, t.Text, "broken dependency: "+t.Text+" is not a boolean")
		return false
	}
	return head.Value.Bool
}

// resolveOperand replaces a symbol reference by its item's current value.
func (db *Database) resolveOperand(t Token) (Token, bool) {
	if t.Kind != TokenSymbol {
		return t, true
	}
	it, ok := db.Lookup(t.Text)
	if !ok {
		db.debugDiag(DiagUndefinedSymbol, t.Text, "broken dependency: undefined symbol "+t.Text)
		return InvalidToken(), false
	}
	v := it.Value()
	if v.Kind == TokenInvalid {
		db.debugDiag(DiagBrokenDependency, t.Text, "broken dependency: "+t.Text+" has no value")
		return InvalidToken(), false
	}
	return v, true
}
