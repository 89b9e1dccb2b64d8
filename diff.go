package symdiff

import (
	"errors"
	"fmt"
)

// ErrVariableExponent is returned by DifferentiateChecked when an exponent
// depends on the differentiation variable.
var ErrVariableExponent = errors.New("exponent depends on the differentiation variable")

// ============================================================
// Differentiation
// ============================================================

func (x Variable[S, U]) Diff(v S) Expr[S, U] {
	if x.Symbol == v {
		return Constant[S, U]{Value: one[U]()}
	}
	return Constant[S, U]{Value: zero[U]()}
}

func (c Constant[S, U]) Diff(S) Expr[S, U] { return Constant[S, U]{Value: zero[U]()} }

func (p Plus[S, U]) Diff(v S) Expr[S, U] { return Add(p.Left.Diff(v), p.Right.Diff(v)) }

// Diff applies the product rule. Left and Right appear both verbatim and
// differentiated; sharing them is safe because trees are immutable.
func (m Times[S, U]) Diff(v S) Expr[S, U] {
	return Add(Mul(m.Left, m.Right.Diff(v)), Mul(m.Right, m.Left.Diff(v)))
}

// Diff applies n * b^(n-1) * db. The result is only correct when the
// exponent does not depend on v; see DifferentiateChecked.
func (p Power[S, U]) Diff(v S) Expr[S, U] {
	return Mul(Mul(p.Exponent, Pow(p.Base, decrement(p.Exponent))), p.Base.Diff(v))
}

// decrement returns e - 1. There is no subtraction node, so a non-constant
// exponent gets the constant (0 - 1) added to it.
func decrement[S comparable, U Number[U]](e Expr[S, U]) Expr[S, U] {
	if c, ok := e.(Constant[S, U]); ok {
		return Constant[S, U]{Value: c.Value.Sub(one[U]())}
	}
	return Add(e, Expr[S, U](Constant[S, U]{Value: zero[U]().Sub(one[U]())}))
}

// Differentiate returns the derivative of e with respect to v, unsimplified.
func Differentiate[S comparable, U Number[U]](e Expr[S, U], v S) Expr[S, U] {
	return e.Diff(v)
}

// DifferentiateChecked is Differentiate, but refuses trees where the power
// rule would silently give a wrong answer.
func DifferentiateChecked[S comparable, U Number[U]](e Expr[S, U], v S) (Expr[S, U], error) {
	if p, ok := findVariableExponent(e, v); ok {
		return nil, fmt.Errorf("power %s: %w", p.String(), ErrVariableExponent)
	}
	return e.Diff(v), nil
}

func findVariableExponent[S comparable, U Number[U]](e Expr[S, U], v S) (Power[S, U], bool) {
	switch n := e.(type) {
	case Plus[S, U]:
		if p, ok := findVariableExponent(n.Left, v); ok {
			return p, true
		}
		return findVariableExponent(n.Right, v)
	case Times[S, U]:
		if p, ok := findVariableExponent(n.Left, v); ok {
			return p, true
		}
		return findVariableExponent(n.Right, v)
	case Power[S, U]:
		if DependsOn(n.Exponent, v) {
			return n, true
		}
		return findVariableExponent(n.Base, v)
	}
	return Power[S, U]{}, false
}
