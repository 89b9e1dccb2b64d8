// Package symdiff is a small computer-algebra core: expression trees,
// symbolic derivatives, and term-rewriting simplification driven to a
// fixed point.
//
// Design goals:
//   - Generic over the symbol type and the numeric domain of constants
//   - Immutable, persistent trees with structural equality
//   - Ordered, named rewrite rules so precedence is observable
//   - Bounded fixed-point iteration that reports non-convergence
package symdiff

import (
	"fmt"
)

// ============================================================
// Core Interface
// ============================================================

// Expr is an immutable expression tree. The set of implementations is
// closed: Variable, Constant, Plus, Times and Power.
type Expr[S comparable, U Number[U]] interface {
	Diff(v S) Expr[S, U]
	LaTeX() string
	String() string
	Equal(other Expr[S, U]) bool
	Depth() int
	exprType() string
	toJSON() map[string]interface{}
}

// ============================================================
// Variable
// ============================================================

type Variable[S comparable, U Number[U]] struct{ Symbol S }

func Var[U Number[U], S comparable](s S) Expr[S, U] { return Variable[S, U]{Symbol: s} }

func (x Variable[S, U]) String() string   { return symbolString(x.Symbol) }
func (x Variable[S, U]) LaTeX() string    { return symbolString(x.Symbol) }
func (x Variable[S, U]) Depth() int       { return 0 }
func (x Variable[S, U]) exprType() string { return "var" }
func (x Variable[S, U]) Equal(other Expr[S, U]) bool {
	o, ok := other.(Variable[S, U])
	return ok && o.Symbol == x.Symbol
}
func (x Variable[S, U]) toJSON() map[string]interface{} {
	return map[string]interface{}{"type": "var", "symbol": symbolString(x.Symbol)}
}

// ============================================================
// Constant
// ============================================================

type Constant[S comparable, U Number[U]] struct{ Value U }

func Const[S comparable, U Number[U]](u U) Expr[S, U] { return Constant[S, U]{Value: u} }

func (c Constant[S, U]) String() string   { return c.Value.String() }
func (c Constant[S, U]) LaTeX() string    { return c.Value.String() }
func (c Constant[S, U]) Depth() int       { return 0 }
func (c Constant[S, U]) exprType() string { return "const" }
func (c Constant[S, U]) Equal(other Expr[S, U]) bool {
	o, ok := other.(Constant[S, U])
	return ok && c.Value.Equal(o.Value)
}
func (c Constant[S, U]) toJSON() map[string]interface{} {
	return map[string]interface{}{"type": "const", "value": c.Value.String()}
}

// ============================================================
// Plus, Times, Power
// ============================================================

type Plus[S comparable, U Number[U]] struct{ Left, Right Expr[S, U] }

type Times[S comparable, U Number[U]] struct{ Left, Right Expr[S, U] }

type Power[S comparable, U Number[U]] struct{ Base, Exponent Expr[S, U] }

// Add, Mul and Pow combine two expressions without simplifying them.
func Add[S comparable, U Number[U]](a, b Expr[S, U]) Expr[S, U] {
	return Plus[S, U]{Left: a, Right: b}
}

func Mul[S comparable, U Number[U]](a, b Expr[S, U]) Expr[S, U] {
	return Times[S, U]{Left: a, Right: b}
}

func Pow[S comparable, U Number[U]](base, exp Expr[S, U]) Expr[S, U] {
	return Power[S, U]{Base: base, Exponent: exp}
}

func (p Plus[S, U]) String() string   { return "(" + p.Left.String() + " + " + p.Right.String() + ")" }
func (p Plus[S, U]) LaTeX() string    { return "(" + p.Left.LaTeX() + ") + (" + p.Right.LaTeX() + ")" }
func (p Plus[S, U]) Depth() int       { return 1 + max(p.Left.Depth(), p.Right.Depth()) }
func (p Plus[S, U]) exprType() string { return "plus" }
func (p Plus[S, U]) Equal(other Expr[S, U]) bool {
	o, ok := other.(Plus[S, U])
	return ok && p.Left.Equal(o.Left) && p.Right.Equal(o.Right)
}
func (p Plus[S, U]) toJSON() map[string]interface{} {
	return map[string]interface{}{"type": "plus", "left": p.Left.toJSON(), "right": p.Right.toJSON()}
}

func (m Times[S, U]) String() string   { return "(" + m.Left.String() + " * " + m.Right.String() + ")" }
func (m Times[S, U]) LaTeX() string    { return "(" + m.Left.LaTeX() + ") * (" + m.Right.LaTeX() + ")" }
func (m Times[S, U]) Depth() int       { return 1 + max(m.Left.Depth(), m.Right.Depth()) }
func (m Times[S, U]) exprType() string { return "times" }
func (m Times[S, U]) Equal(other Expr[S, U]) bool {
	o, ok := other.(Times[S, U])
	return ok && m.Left.Equal(o.Left) && m.Right.Equal(o.Right)
}
func (m Times[S, U]) toJSON() map[string]interface{} {
	return map[string]interface{}{"type": "times", "left": m.Left.toJSON(), "right": m.Right.toJSON()}
}

func (p Power[S, U]) String() string   { return "(" + p.Base.String() + " ^ " + p.Exponent.String() + ")" }
func (p Power[S, U]) LaTeX() string    { return "(" + p.Base.LaTeX() + ")^{" + p.Exponent.LaTeX() + "}" }
func (p Power[S, U]) Depth() int       { return 1 + max(p.Base.Depth(), p.Exponent.Depth()) }
func (p Power[S, U]) exprType() string { return "power" }
func (p Power[S, U]) Equal(other Expr[S, U]) bool {
	o, ok := other.(Power[S, U])
	return ok && p.Base.Equal(o.Base) && p.Exponent.Equal(o.Exponent)
}
func (p Power[S, U]) toJSON() map[string]interface{} {
	return map[string]interface{}{"type": "power", "base": p.Base.toJSON(), "exponent": p.Exponent.toJSON()}
}

// ============================================================
// Symbols
// ============================================================

// Char is a single-character symbol.
type Char rune

func (c Char) String() string { return string(c) }

func ParseChar(s string) (Char, error) {
	r := []rune(s)
	if len(r) != 1 {
		return 0, fmt.Errorf("symbol must be a single character, got %q", s)
	}
	return Char(r[0]), nil
}

func symbolString[S comparable](s S) string {
	switch v := any(s).(type) {
	case fmt.Stringer:
		return v.String()
	case string:
		return v
	}
	return fmt.Sprint(s)
}

// V and C build Expr[Char, Int] leaves.
func V(name rune) Expr[Char, Int] { return Variable[Char, Int]{Symbol: Char(name)} }
func C(n int64) Expr[Char, Int]   { return Constant[Char, Int]{Value: Int(n)} }

// FreeSymbols returns the set of symbols appearing in e.
func FreeSymbols[S comparable, U Number[U]](e Expr[S, U]) map[S]struct{} {
	out := map[S]struct{}{}
	collectSymbols(e, out)
	return out
}

func collectSymbols[S comparable, U Number[U]](e Expr[S, U], out map[S]struct{}) {
	switch v := e.(type) {
	case Variable[S, U]:
		out[v.Symbol] = struct{}{}
	case Plus[S, U]:
		collectSymbols(v.Left, out)
		collectSymbols(v.Right, out)
	case Times[S, U]:
		collectSymbols(v.Left, out)
		collectSymbols(v.Right, out)
	case Power[S, U]:
		collectSymbols(v.Base, out)
		collectSymbols(v.Exponent, out)
	}
}

// DependsOn reports whether s appears anywhere in e.
func DependsOn[S comparable, U Number[U]](e Expr[S, U], s S) bool {
	_, ok := FreeSymbols(e)[s]
	return ok
}

// ============================================================
// Public helpers
// ============================================================

// LaTeX renders e fully parenthesized: (A) + (B), (A) * (B), (A)^{B}.
func LaTeX[S comparable, U Number[U]](e Expr[S, U]) string { return e.LaTeX() }
