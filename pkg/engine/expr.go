package engine

import "strings"

// ExprOp identifies the node type of a dependency expression.
type ExprOp int

const (
	OpLiteral ExprOp = iota
	OpEqual
	OpNotEqual
	OpAnd
	OpOr
	OpNot
)

// Expr is a dependency expression tree. A nil *Expr means "no dependency"
// and always evaluates to true.
//
// Literal nodes use A. Equal and NotEqual compare A with B. And and Or
// combine Left with Right. Not negates Left.
type Expr struct {
	Op          ExprOp
	A, B        Token
	Left, Right *Expr
}

// Literal returns a truthiness test of a single token, usually a symbol.
func Literal(t Token) *Expr {
	return &Expr{Op: OpLiteral, A: t}
}

// Equal returns an expression true when both operands resolve to the same value.
func Equal(a, b Token) *Expr {
	return &Expr{Op: OpEqual, A: a, B: b}
}

// NotEqual returns an expression true when both operands resolve to different values.
func NotEqual(a, b Token) *Expr {
	return &Expr{Op: OpNotEqual, A: a, B: b}
}

// And returns the conjunction of l and r.
func And(l, r *Expr) *Expr {
	return &Expr{Op: OpAnd, Left: l, Right: r}
}

// Or returns the disjunction of l and r.
func Or(l, r *Expr) *Expr {
	return &Expr{Op: OpOr, Left: l, Right: r}
}

// Not returns the negation of e.
func Not(e *Expr) *Expr {
	return &Expr{Op: OpNot, Left: e}
}

// Conjoin ANDs two optional expressions, returning the other when one is nil.
func Conjoin(l, r *Expr) *Expr {
	switch {
	case l == nil:
		return r
	case r == nil:
		return l
	default:
		return And(l, r)
	}
}

// Symbols returns the symbol names referenced by e, in first-seen order.
func (e *Expr) Symbols() []string {
	var out []string
	seen := make(map[string]bool)
	var walk func(*Expr)
	add := func(t Token) {
		if t.Kind == TokenSymbol && !seen[t.Text] {
			seen[t.Text] = true
			out = append(out, t.Text)
		}
	}
	walk = func(n *Expr) {
		if n == nil {
			return
		}
		switch n.Op {
		case OpLiteral:
			add(n.A)
		case OpEqual, OpNotEqual:
			add(n.A)
			add(n.B)
		default:
			walk(n.Left)
			walk(n.Right)
		}
	}
	walk(e)
	return out
}

// String renders e in configuration-description syntax.
func (e *Expr) String() string {
	if e == nil {
		return ""
	}
	var b strings.Builder
	e.write(&b)
	return b.String()
}

func (e *Expr) write(b *strings.Builder) {
	switch e.Op {
	case OpLiteral:
		b.WriteString(e.A.Source())
	case OpEqual:
		b.WriteString(e.A.Source() + " == " + e.B.Source())
	case OpNotEqual:
		b.WriteString(e.A.Source() + " != " + e.B.Source())
	case OpAnd:
		e.Left.writeOperand(b, OpOr)
		b.WriteString(" && ")
		e.Right.writeOperand(b, OpOr)
	case OpOr:
		e.Left.write(b)
		b.WriteString(" || ")
		e.Right.write(b)
	case OpNot:
		b.WriteString("!")
		if e.Left.Op == OpLiteral {
			e.Left.write(b)
		} else {
			b.WriteString("(")
			e.Left.write(b)
			b.WriteString(")")
		}
	}
}

// writeOperand parenthesizes e when it is a node of kind wrap.
func (e *Expr) writeOperand(b *strings.Builder, wrap ExprOp) {
	if e.Op == wrap {
		b.WriteString("(")
		e.write(b)
		b.WriteString(")")
		return
	}
	e.write(b)
}
