package symdiff

import (
	"math/rand/v2"
)

// ============================================================
// Generator
// ============================================================

// Generator produces random trees over a single symbol. It is not safe for
// concurrent use.
type Generator[S comparable, U Number[U]] struct {
	// Rand is the random source; a nil Rand is replaced with a randomly
	// seeded one on first use.
	Rand   *rand.Rand
	Symbol S
	// VariableWeight is the probability that a leaf is the variable.
	VariableWeight float64
	// Constant leaves are drawn uniformly from [0, MaxConstant].
	MaxConstant int
	// Exponents are drawn uniformly from [1, MaxExponent].
	MaxExponent int
}

// NewGenerator returns a Generator with default leaf and exponent ranges.
func NewGenerator[U Number[U], S comparable](symbol S, r *rand.Rand) *Generator[S, U] {
	if r == nil {
		r = randomSource()
	}
	return &Generator[S, U]{
		Rand:           r,
		Symbol:         symbol,
		VariableWeight: 0.5,
		MaxConstant:    9,
		MaxExponent:    3,
	}
}

// Generate returns a tree whose depth is exactly depth.
func (g *Generator[S, U]) Generate(depth int) Expr[S, U] {
	if g.Rand == nil {
		g.Rand = randomSource()
	}
	if depth <= 0 {
		return g.leaf()
	}
	switch g.Rand.IntN(3) {
	case 0:
		return Add(g.Generate(depth-1), g.Generate(depth-1))
	case 1:
		return Mul(g.Generate(depth-1), g.Generate(depth-1))
	}
	k := 1
	if g.MaxExponent > 1 {
		k += g.Rand.IntN(g.MaxExponent)
	}
	return Pow(g.Generate(depth-1), Const[S](fromCount[U](k)))
}

func (g *Generator[S, U]) leaf() Expr[S, U] {
	if g.Rand.Float64() < g.VariableWeight {
		return Variable[S, U]{Symbol: g.Symbol}
	}
	n := 0
	if g.MaxConstant > 0 {
		n = g.Rand.IntN(g.MaxConstant + 1)
	}
	return Constant[S, U]{Value: fromCount[U](n)}
}

func randomSource() *rand.Rand {
	return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
}

// Generate returns a random tree of the given depth over symbol.
func Generate[U Number[U], S comparable](depth int, symbol S) Expr[S, U] {
	return NewGenerator[U](symbol, nil).Generate(depth)
}
