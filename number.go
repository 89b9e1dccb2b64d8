package symdiff

import (
	"fmt"
	"math/big"
	"strconv"
)

// ============================================================
// Number: numeric capability of constants
// ============================================================

// Number is the numeric domain a Constant draws its values from. Zero and
// One must not depend on the receiver, so they can be called on the zero
// value of U.
type Number[U any] interface {
	Zero() U
	One() U
	Equal(U) bool
	Add(U) U
	Mul(U) U
	Sub(U) U
	String() string
}

// exponentDomain is implemented by domains that can tell whether a value is
// reachable from zero by repeatedly adding one.
type exponentDomain interface {
	NonNegativeInteger() bool
}

func zero[U Number[U]]() U {
	var u U
	return u.Zero()
}

func one[U Number[U]]() U {
	var u U
	return u.One()
}

// fromCount returns one+one+...+one (n terms), zero for n <= 0.
func fromCount[U Number[U]](n int) U {
	acc := zero[U]()
	for range n {
		acc = acc.Add(one[U]())
	}
	return acc
}

// ============================================================
// Int: signed machine integers
// ============================================================

type Int int64

func (Int) Zero() Int                 { return 0 }
func (Int) One() Int                  { return 1 }
func (a Int) Equal(b Int) bool        { return a == b }
func (a Int) Add(b Int) Int           { return a + b }
func (a Int) Mul(b Int) Int           { return a * b }
func (a Int) Sub(b Int) Int           { return a - b }
func (a Int) String() string          { return strconv.FormatInt(int64(a), 10) }
func (a Int) NonNegativeInteger() bool { return a >= 0 }

func ParseInt(s string) (Int, error) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid int value: %s", s)
	}
	return Int(n), nil
}

// ============================================================
// Nat: unsigned 32-bit integers with wrapping subtraction
// ============================================================

type Nat uint32

func (Nat) Zero() Nat                 { return 0 }
func (Nat) One() Nat                  { return 1 }
func (a Nat) Equal(b Nat) bool        { return a == b }
func (a Nat) Add(b Nat) Nat           { return a + b }
func (a Nat) Mul(b Nat) Nat           { return a * b }
func (a Nat) Sub(b Nat) Nat           { return a - b }
func (a Nat) String() string          { return strconv.FormatUint(uint64(a), 10) }
func (a Nat) NonNegativeInteger() bool { return true }

// ============================================================
// Rat: exact rationals
// ============================================================

// Rat is an exact rational. The zero value is 0.
type Rat struct{ r *big.Rat }

func NewRat(p, q int64) Rat {
	if q == 0 {
		panic("symdiff: denominator is zero")
	}
	return Rat{r: big.NewRat(p, q)}
}

func (a Rat) val() *big.Rat {
	if a.r == nil {
		return new(big.Rat)
	}
	return a.r
}

func (Rat) Zero() Rat          { return Rat{r: new(big.Rat)} }
func (Rat) One() Rat           { return Rat{r: big.NewRat(1, 1)} }
func (a Rat) Equal(b Rat) bool { return a.val().Cmp(b.val()) == 0 }
func (a Rat) Add(b Rat) Rat    { return Rat{r: new(big.Rat).Add(a.val(), b.val())} }
func (a Rat) Mul(b Rat) Rat    { return Rat{r: new(big.Rat).Mul(a.val(), b.val())} }
func (a Rat) Sub(b Rat) Rat    { return Rat{r: new(big.Rat).Sub(a.val(), b.val())} }

// Rat returns a copy of the underlying value.
func (a Rat) Rat() *big.Rat { return new(big.Rat).Set(a.val()) }

func (a Rat) NonNegativeInteger() bool {
	v := a.val()
	return v.IsInt() && v.Sign() >= 0
}

func (a Rat) String() string {
	v := a.val()
	if v.IsInt() {
		return v.Num().String()
	}
	return v.RatString()
}

func ParseRat(s string) (Rat, error) {
	r := new(big.Rat)
	if _, ok := r.SetString(s); !ok {
		return Rat{}, fmt.Errorf("invalid rat value: %s", s)
	}
	return Rat{r: r}, nil
}
