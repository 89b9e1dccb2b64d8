package symdiff_test

import (
	"context"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/njchilds90/symdiff"
)

func step(e IntExpr) IntExpr { return symdiff.SimplifyStep(e) }

// firedRules runs one pass and returns the rules that fired, in order.
func firedRules(e IntExpr) (IntExpr, []string) {
	var fired []string
	s := symdiff.Simplifier[symdiff.Char, symdiff.Int]{
		OnRule: func(name string) { fired = append(fired, name) },
	}
	return s.Step(e), fired
}

// ============================================================
// Individual rules
// ============================================================

func TestStep_FoldConstants(t *testing.T) {
	assertExpr(t, symdiff.C(5), step(symdiff.Add(symdiff.C(2), symdiff.C(3))))
	assertExpr(t, symdiff.C(6), step(symdiff.Mul(symdiff.C(2), symdiff.C(3))))
}

func TestStep_MergePowers(t *testing.T) {
	assertExpr(t,
		symdiff.Pow(x, symdiff.Add(symdiff.C(2), y)),
		step(symdiff.Mul(symdiff.Pow(x, symdiff.C(2)), symdiff.Pow(x, y))))
	assertExpr(t,
		symdiff.Pow(x, symdiff.Add(symdiff.C(2), symdiff.C(1))),
		step(symdiff.Mul(symdiff.Pow(x, symdiff.C(2)), x)))

	// different bases do not merge; the step recurses instead
	e := symdiff.Mul(symdiff.Pow(x, symdiff.C(2)), symdiff.Pow(y, symdiff.C(2)))
	assertExpr(t, e, step(e))
}

func TestStep_CollapseNestedPower(t *testing.T) {
	assertExpr(t,
		symdiff.Pow(x, symdiff.C(6)),
		step(symdiff.Pow(symdiff.Pow(x, symdiff.C(2)), symdiff.C(3))))

	// only constant exponents collapse
	e := symdiff.Pow(symdiff.Pow(x, y), symdiff.C(3))
	assertExpr(t, e, step(e))
}

func TestStep_PowerIdentities(t *testing.T) {
	tests := []struct {
		name string
		in   IntExpr
		want IntExpr
	}{
		{"exponent one", symdiff.Pow(symdiff.Add(x, y), symdiff.C(1)), symdiff.Add(x, y)},
		{"exponent zero", symdiff.Pow(x, symdiff.C(0)), symdiff.C(1)},
		{"zero to the zero", symdiff.Pow(symdiff.C(0), symdiff.C(0)), symdiff.C(1)},
		{"base zero", symdiff.Pow(symdiff.C(0), x), symdiff.C(0)},
		{"base one", symdiff.Pow(symdiff.C(1), x), symdiff.C(1)},
		{"constants", symdiff.Pow(symdiff.C(2), symdiff.C(10)), symdiff.C(1024)},
		{"negative base", symdiff.Pow(symdiff.C(-3), symdiff.C(3)), symdiff.C(-27)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertExpr(t, tt.want, step(tt.in))
		})
	}
}

func TestStep_NegativeExponentLeftAlone(t *testing.T) {
	e := symdiff.Pow(symdiff.C(2), symdiff.C(-1))
	assertExpr(t, e, step(e))

	s, err := symdiff.SimplifyFully(e)
	require.NoError(t, err)
	assertExpr(t, e, s)
}

func TestStep_LargeExponentLeftAlone(t *testing.T) {
	folded := step(symdiff.Pow(symdiff.C(-1), symdiff.C(symdiff.MaxFoldExponent)))
	assertExpr(t, symdiff.C(1), folded)

	huge := symdiff.Pow(symdiff.C(2), symdiff.C(1_000_000_000_000))
	s, err := symdiff.SimplifyFully(huge)
	require.NoError(t, err)
	assertExpr(t, huge, s)

	over := symdiff.Pow(symdiff.C(2), symdiff.C(symdiff.MaxFoldExponent+1))
	assertExpr(t, over, step(over))
}

func TestStep_WrappedNatExponentLeftAlone(t *testing.T) {
	two := symdiff.Const[symdiff.Char](symdiff.Nat(2))
	e := symdiff.Pow(two, symdiff.Const[symdiff.Char](symdiff.Nat(0).Sub(1)))
	assert.True(t, symdiff.SimplifyStep(e).Equal(e))
}

func TestStep_FractionalExponentLeftAlone(t *testing.T) {
	e := symdiff.Pow(
		symdiff.Const[symdiff.Char](symdiff.NewRat(4, 1)),
		symdiff.Const[symdiff.Char](symdiff.NewRat(1, 2)),
	)
	assert.True(t, symdiff.SimplifyStep(e).Equal(e))

	squared := symdiff.Pow(
		symdiff.Const[symdiff.Char](symdiff.NewRat(1, 2)),
		symdiff.Const[symdiff.Char](symdiff.NewRat(2, 1)),
	)
	assert.True(t, symdiff.SimplifyStep(squared).Equal(symdiff.Const[symdiff.Char](symdiff.NewRat(1, 4))))
}

func TestStep_SelfMultiply(t *testing.T) {
	got := step(symdiff.Mul(symdiff.Add(x, y), symdiff.Add(x, y)))
	assertExpr(t, symdiff.Pow(symdiff.Add(x, y), symdiff.Add(symdiff.C(1), symdiff.C(1))), got)
}

func TestStep_SelfAdd(t *testing.T) {
	got := step(symdiff.Add(x, x))
	assertExpr(t, symdiff.Mul(symdiff.Add(symdiff.C(1), symdiff.C(1)), x), got)
}

func TestStep_Identities(t *testing.T) {
	assertExpr(t, x, step(symdiff.Add(symdiff.C(0), x)))
	assertExpr(t, x, step(symdiff.Add(x, symdiff.C(0))))
	assertExpr(t, x, step(symdiff.Mul(symdiff.C(1), x)))
	assertExpr(t, x, step(symdiff.Mul(x, symdiff.C(1))))
}

func TestStep_AbsorbZero(t *testing.T) {
	assertExpr(t, symdiff.C(0), step(symdiff.Mul(symdiff.C(0), symdiff.Add(x, y))))
	assertExpr(t, symdiff.C(0), step(symdiff.Mul(symdiff.Add(x, y), symdiff.C(0))))
}

func TestStep_RecursesWhenNothingMatches(t *testing.T) {
	e := symdiff.Add(symdiff.Add(symdiff.C(2), symdiff.C(3)), symdiff.Mul(x, symdiff.C(1)))
	assertExpr(t, symdiff.Add(symdiff.C(5), x), step(e))

	p := symdiff.Pow(symdiff.Add(x, symdiff.C(0)), symdiff.Mul(symdiff.C(2), symdiff.C(2)))
	assertExpr(t, symdiff.Pow(x, symdiff.C(4)), step(p))
}

func TestStep_OnePassOnly(t *testing.T) {
	// the inner sum folds, but the outer product is not revisited
	e := symdiff.Mul(symdiff.Add(symdiff.C(0), symdiff.C(1)), x)
	assertExpr(t, symdiff.Mul(symdiff.C(1), x), step(e))
	assertExpr(t, x, step(step(e)))
}

func TestStep_Leaves(t *testing.T) {
	assertExpr(t, x, step(x))
	assertExpr(t, symdiff.C(9), step(symdiff.C(9)))
}

// ============================================================
// Precedence
// ============================================================

func TestRules_Order(t *testing.T) {
	var names []string
	for _, r := range symdiff.Rules[symdiff.Char, symdiff.Int]() {
		names = append(names, r.Name)
	}
	assert.Equal(t, []string{
		symdiff.RuleFoldConstants,
		symdiff.RuleMergePowers,
		symdiff.RuleCollapseNestedPower,
		symdiff.RulePowerIdentities,
		symdiff.RuleSelfMultiply,
		symdiff.RuleSelfAdd,
		symdiff.RuleAdditiveIdentity,
		symdiff.RuleMultiplicativeIdentity,
		symdiff.RuleAbsorbZero,
	}, names)
}

func TestPrecedence(t *testing.T) {
	tests := []struct {
		name string
		in   IntExpr
		rule string
		want IntExpr
	}{
		{
			// self-multiply would give (x^1)^(1+1)
			"merge-powers before self-multiply",
			symdiff.Mul(symdiff.Pow(x, symdiff.C(1)), symdiff.Pow(x, symdiff.C(1))),
			symdiff.RuleMergePowers,
			symdiff.Pow(x, symdiff.Add(symdiff.C(1), symdiff.C(1))),
		},
		{
			// power-identities would give 1
			"collapse-nested-power before power-identities",
			symdiff.Pow(symdiff.Pow(x, symdiff.C(2)), symdiff.C(0)),
			symdiff.RuleCollapseNestedPower,
			symdiff.Pow(x, symdiff.C(0)),
		},
		{
			// multiplicative-identity would give 0
			"fold-constants before identities",
			symdiff.Mul(symdiff.C(1), symdiff.C(0)),
			symdiff.RuleFoldConstants,
			symdiff.C(0),
		},
		{
			// stepping the children would give 0 * 0
			"root before children",
			symdiff.Mul(symdiff.Mul(x, symdiff.C(0)), symdiff.Mul(x, symdiff.C(0))),
			symdiff.RuleSelfMultiply,
			symdiff.Pow(symdiff.Mul(x, symdiff.C(0)), symdiff.Add(symdiff.C(1), symdiff.C(1))),
		},
		{
			"self-add at the root",
			symdiff.Add(symdiff.Mul(x, symdiff.C(1)), symdiff.Mul(x, symdiff.C(1))),
			symdiff.RuleSelfAdd,
			symdiff.Mul(symdiff.Add(symdiff.C(1), symdiff.C(1)), symdiff.Mul(x, symdiff.C(1))),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, fired := firedRules(tt.in)
			require.NotEmpty(t, fired)
			assert.Equal(t, tt.rule, fired[0])
			assertExpr(t, tt.want, got)
		})
	}
}

func TestPrecedence_ReorderingChangesResult(t *testing.T) {
	rules := symdiff.Rules[symdiff.Char, symdiff.Int]()
	// move self-multiply ahead of merge-powers
	rules[1], rules[4] = rules[4], rules[1]
	s := symdiff.Simplifier[symdiff.Char, symdiff.Int]{Rules: rules}

	e := symdiff.Mul(symdiff.Pow(x, symdiff.C(1)), symdiff.Pow(x, symdiff.C(1)))
	got := s.Step(e)
	assertExpr(t, symdiff.Pow(symdiff.Pow(x, symdiff.C(1)), symdiff.Add(symdiff.C(1), symdiff.C(1))), got)
	assert.False(t, got.Equal(step(e)))
}

func TestOnRule_NestedFirings(t *testing.T) {
	_, fired := firedRules(symdiff.Add(symdiff.Mul(x, symdiff.C(1)), symdiff.Add(symdiff.C(0), y)))
	assert.Equal(t, []string{symdiff.RuleMultiplicativeIdentity, symdiff.RuleAdditiveIdentity}, fired)
}

// ============================================================
// Fixed point
// ============================================================

func TestSimplifyFully_ConstantFolding(t *testing.T) {
	assertExpr(t, symdiff.C(5), simplified(t, symdiff.Add(symdiff.C(2), symdiff.C(3))))
}

func TestSimplifyFully_Squares(t *testing.T) {
	// x*x*x -> x^2 * x -> x^3
	e := symdiff.Mul(symdiff.Mul(x, x), x)
	assertExpr(t, symdiff.Pow(x, symdiff.C(3)), simplified(t, e))
}

func TestSimplifier_Simplify(t *testing.T) {
	var seen []string
	s := symdiff.Simplifier[symdiff.Char, symdiff.Int]{
		Observe: func(i int, e IntExpr) { seen = append(seen, e.String()) },
	}
	got, iterations, err := s.Simplify(context.Background(), symdiff.Mul(symdiff.Add(symdiff.C(0), symdiff.C(1)), x))
	require.NoError(t, err)

	assertExpr(t, x, got)
	assert.Equal(t, 3, iterations)
	assert.Equal(t, []string{"((0 + 1) * x)", "(1 * x)", "x"}, seen)
}

func TestSimplifier_MaxIterations(t *testing.T) {
	s := symdiff.Simplifier[symdiff.Char, symdiff.Int]{MaxIterations: 1}
	_, _, err := s.Simplify(context.Background(), symdiff.Mul(symdiff.Add(symdiff.C(0), symdiff.C(1)), x))
	assert.ErrorIs(t, err, symdiff.ErrNotConverged)
}

// ============================================================
// Properties over generated trees
// ============================================================

func generated(t *testing.T, n, depth int) []IntExpr {
	t.Helper()
	out := make([]IntExpr, 0, n)
	for i := range n {
		g := symdiff.NewGenerator[symdiff.Int](symdiff.Char('x'), rand.New(rand.NewPCG(11, uint64(i))))
		out = append(out, g.Generate(depth))
	}
	return out
}

func TestProperty_Idempotent(t *testing.T) {
	for _, e := range generated(t, 50, 3) {
		once := simplified(t, e)
		assertExpr(t, once, simplified(t, once))
	}
}

func TestProperty_ZeroRoundTrip(t *testing.T) {
	for _, e := range generated(t, 50, 3) {
		assertExpr(t, simplified(t, e), simplified(t, symdiff.Add(symdiff.C(0), e)))
	}
}

func TestProperty_DerivativesConverge(t *testing.T) {
	for _, e := range generated(t, 50, 4) {
		d := symdiff.Differentiate(e, 'x')
		s := simplified(t, d)
		assertExpr(t, s, step(s))
	}
}
