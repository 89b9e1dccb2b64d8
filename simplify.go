package symdiff

import "context"

// Rule names, in default precedence order.
const (
	RuleFoldConstants          = "fold-constants"
	RuleMergePowers            = "merge-powers"
	RuleCollapseNestedPower    = "collapse-nested-power"
	RulePowerIdentities        = "power-identities"
	RuleSelfMultiply           = "self-multiply"
	RuleSelfAdd                = "self-add"
	RuleAdditiveIdentity       = "additive-identity"
	RuleMultiplicativeIdentity = "multiplicative-identity"
	RuleAbsorbZero             = "absorb-zero"
)

// Rule rewrites the root of an expression. Apply reports false when the
// rule does not match.
type Rule[S comparable, U Number[U]] struct {
	Name  string
	Apply func(e Expr[S, U]) (Expr[S, U], bool)
}

// Rules returns the default rewrite rules in precedence order.
func Rules[S comparable, U Number[U]]() []Rule[S, U] {
	return []Rule[S, U]{
		{Name: RuleFoldConstants, Apply: foldConstants[S, U]},
		{Name: RuleMergePowers, Apply: mergePowers[S, U]},
		{Name: RuleCollapseNestedPower, Apply: collapseNestedPower[S, U]},
		{Name: RulePowerIdentities, Apply: powerIdentities[S, U]},
		{Name: RuleSelfMultiply, Apply: selfMultiply[S, U]},
		{Name: RuleSelfAdd, Apply: selfAdd[S, U]},
		{Name: RuleAdditiveIdentity, Apply: additiveIdentity[S, U]},
		{Name: RuleMultiplicativeIdentity, Apply: multiplicativeIdentity[S, U]},
		{Name: RuleAbsorbZero, Apply: absorbZero[S, U]},
	}
}

// ============================================================
// Simplifier
// ============================================================

// DefaultMaxIterations bounds fixed-point simplification unless configured.
const DefaultMaxIterations = 1000

// Simplifier rewrites expressions with an ordered rule set. The zero value
// uses Rules and DefaultMaxIterations.
type Simplifier[S comparable, U Number[U]] struct {
	// Rules overrides the default rule set when non-nil.
	Rules []Rule[S, U]
	// OnRule is called with the name of every rule that fires.
	OnRule func(name string)
	// MaxIterations bounds Simplify. Zero means DefaultMaxIterations,
	// negative means unbounded.
	MaxIterations int
	// Observe sees every intermediate tree of Simplify.
	Observe func(i int, e Expr[S, U])
}

// Step applies one rewriting pass: the first matching rule at the root
// wins, otherwise both children are stepped and the node rebuilt.
func (s *Simplifier[S, U]) Step(e Expr[S, U]) Expr[S, U] {
	rules := s.Rules
	if rules == nil {
		rules = Rules[S, U]()
	}
	return s.step(rules, e)
}

func (s *Simplifier[S, U]) step(rules []Rule[S, U], e Expr[S, U]) Expr[S, U] {
	for _, r := range rules {
		if out, ok := r.Apply(e); ok {
			if s.OnRule != nil {
				s.OnRule(r.Name)
			}
			return out
		}
	}
	switch n := e.(type) {
	case Plus[S, U]:
		return Add(s.step(rules, n.Left), s.step(rules, n.Right))
	case Times[S, U]:
		return Mul(s.step(rules, n.Left), s.step(rules, n.Right))
	case Power[S, U]:
		return Pow(s.step(rules, n.Base), s.step(rules, n.Exponent))
	}
	return e
}

// Simplify steps e until it stops changing. The returned count is the
// number of passes applied.
func (s *Simplifier[S, U]) Simplify(ctx context.Context, e Expr[S, U]) (Expr[S, U], int, error) {
	limit := s.MaxIterations
	switch {
	case limit == 0:
		limit = DefaultMaxIterations
	case limit < 0:
		limit = 0
	}
	rules := s.Rules
	if rules == nil {
		rules = Rules[S, U]()
	}
	fp := FixedPoint[Expr[S, U]]{MaxIterations: limit, Observe: s.Observe}
	return fp.Run(ctx, func(e Expr[S, U]) Expr[S, U] { return s.step(rules, e) }, e)
}

// SimplifyStep applies one pass of the default rules.
func SimplifyStep[S comparable, U Number[U]](e Expr[S, U]) Expr[S, U] {
	var s Simplifier[S, U]
	return s.Step(e)
}

// SimplifyFully drives SimplifyStep to a fixed point.
func SimplifyFully[S comparable, U Number[U]](e Expr[S, U]) (Expr[S, U], error) {
	return Converge(SimplifyStep[S, U], e)
}

// ============================================================
// Rules
// ============================================================

func isValue[S comparable, U Number[U]](e Expr[S, U], u U) bool {
	c, ok := e.(Constant[S, U])
	return ok && c.Value.Equal(u)
}

func two[S comparable, U Number[U]]() Expr[S, U] {
	return Add(Const[S](one[U]()), Const[S](one[U]()))
}

func foldConstants[S comparable, U Number[U]](e Expr[S, U]) (Expr[S, U], bool) {
	switch n := e.(type) {
	case Plus[S, U]:
		l, lok := n.Left.(Constant[S, U])
		r, rok := n.Right.(Constant[S, U])
		if lok && rok {
			return Constant[S, U]{Value: l.Value.Add(r.Value)}, true
		}
	case Times[S, U]:
		l, lok := n.Left.(Constant[S, U])
		r, rok := n.Right.(Constant[S, U])
		if lok && rok {
			return Constant[S, U]{Value: l.Value.Mul(r.Value)}, true
		}
	}
	return nil, false
}

func mergePowers[S comparable, U Number[U]](e Expr[S, U]) (Expr[S, U], bool) {
	n, ok := e.(Times[S, U])
	if !ok {
		return nil, false
	}
	l, ok := n.Left.(Power[S, U])
	if !ok {
		return nil, false
	}
	if r, ok := n.Right.(Power[S, U]); ok && l.Base.Equal(r.Base) {
		return Pow(l.Base, Add(l.Exponent, r.Exponent)), true
	}
	if l.Base.Equal(n.Right) {
		return Pow(l.Base, Add(l.Exponent, Const[S](one[U]()))), true
	}
	return nil, false
}

func collapseNestedPower[S comparable, U Number[U]](e Expr[S, U]) (Expr[S, U], bool) {
	outer, ok := e.(Power[S, U])
	if !ok {
		return nil, false
	}
	inner, ok := outer.Base.(Power[S, U])
	if !ok {
		return nil, false
	}
	y, yok := inner.Exponent.(Constant[S, U])
	z, zok := outer.Exponent.(Constant[S, U])
	if !yok || !zok {
		return nil, false
	}
	return Pow(inner.Base, Const[S](y.Value.Mul(z.Value))), true
}

func powerIdentities[S comparable, U Number[U]](e Expr[S, U]) (Expr[S, U], bool) {
	p, ok := e.(Power[S, U])
	if !ok {
		return nil, false
	}
	switch {
	case isValue(p.Exponent, one[U]()):
		return p.Base, true
	case isValue(p.Exponent, zero[U]()):
		return Const[S](one[U]()), true
	case isValue(p.Base, zero[U]()):
		return Const[S](zero[U]()), true
	case isValue(p.Base, one[U]()):
		return Const[S](one[U]()), true
	}
	b, bok := p.Base.(Constant[S, U])
	x, xok := p.Exponent.(Constant[S, U])
	if !bok || !xok {
		return nil, false
	}
	if d, ok := any(x.Value).(exponentDomain); ok && !d.NonNegativeInteger() {
		return nil, false
	}
	v, ok := intPow(b.Value, x.Value)
	if !ok {
		return nil, false
	}
	return Const[S](v), true
}

// MaxFoldExponent is the largest constant exponent power-identities
// evaluates. Larger powers are left as Power nodes.
const MaxFoldExponent = 4096

// intPow multiplies base by itself until exp has been counted down to zero.
// exp must be reachable from zero by adding one. It reports false once more
// than MaxFoldExponent multiplications would be needed.
func intPow[U Number[U]](base, exp U) (U, bool) {
	result := one[U]()
	for i := 0; !exp.Equal(zero[U]()); i++ {
		if i == MaxFoldExponent {
			return result, false
		}
		result = result.Mul(base)
		exp = exp.Sub(one[U]())
	}
	return result, true
}

func selfMultiply[S comparable, U Number[U]](e Expr[S, U]) (Expr[S, U], bool) {
	if n, ok := e.(Times[S, U]); ok && n.Left.Equal(n.Right) {
		return Pow(n.Left, two[S, U]()), true
	}
	return nil, false
}

func selfAdd[S comparable, U Number[U]](e Expr[S, U]) (Expr[S, U], bool) {
	if n, ok := e.(Plus[S, U]); ok && n.Left.Equal(n.Right) {
		return Mul(two[S, U](), n.Left), true
	}
	return nil, false
}

func additiveIdentity[S comparable, U Number[U]](e Expr[S, U]) (Expr[S, U], bool) {
	n, ok := e.(Plus[S, U])
	if !ok {
		return nil, false
	}
	if isValue(n.Left, zero[U]()) {
		return n.Right, true
	}
	if isValue(n.Right, zero[U]()) {
		return n.Left, true
	}
	return nil, false
}

func multiplicativeIdentity[S comparable, U Number[U]](e Expr[S, U]) (Expr[S, U], bool) {
	n, ok := e.(Times[S, U])
	if !ok {
		return nil, false
	}
	if isValue(n.Left, one[U]()) {
		return n.Right, true
	}
	if isValue(n.Right, one[U]()) {
		return n.Left, true
	}
	return nil, false
}

func absorbZero[S comparable, U Number[U]](e Expr[S, U]) (Expr[S, U], bool) {
	n, ok := e.(Times[S, U])
	if !ok {
		return nil, false
	}
	if isValue(n.Left, zero[U]()) || isValue(n.Right, zero[U]()) {
		return Const[S](zero[U]()), true
	}
	return nil, false
}
