// Package felt describes the field element type of Sierra programs: the prime
// field of the STARK curve, the backend bit widths derived from its modulus,
// and reference arithmetic used to check lowered code.
package felt

import (
	"fmt"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/stark-curve/fp"
)

var prime = fp.Modulus()

// Width is the bit width of felt in the backend. One bit over the modulus
// length keeps the difference of two canonical elements exact as a signed
// value.
var Width = uint64(prime.BitLen()) + 1

// WideWidth is the width values are sign-extended to before reduction. It
// holds the signed product of two canonical elements.
var WideWidth = 2 * Width

// Prime returns a copy of the field modulus.
func Prime() *big.Int {
	return new(big.Int).Set(prime)
}

// Element wraps fp.Element for reference computations.
type Element struct {
	fp.Element
}

// FromBig reduces v into the field.
func FromBig(v *big.Int) Element {
	var e Element
	e.SetBigInt(v)
	return e
}

// FromDecimal parses a base-10 literal, with an optional sign, and reduces it
// into the field.
func FromDecimal(lit string) (Element, error) {
	v, ok := new(big.Int).SetString(lit, 10)
	if !ok {
		return Element{}, fmt.Errorf("invalid decimal literal %q", lit)
	}
	return FromBig(v), nil
}

// Big returns the canonical representative in [0, prime).
func (x Element) Big() *big.Int {
	return x.BigInt(new(big.Int))
}

// Add x + y
func (x Element) Add(y Element) Element {
	var r Element
	r.Element.Add(&x.Element, &y.Element)
	return r
}

// Sub x - y
func (x Element) Sub(y Element) Element {
	var r Element
	r.Element.Sub(&x.Element, &y.Element)
	return r
}

// Mul x * y
func (x Element) Mul(y Element) Element {
	var r Element
	r.Element.Mul(&x.Element, &y.Element)
	return r
}

func (x Element) String() string {
	return x.Big().String()
}
