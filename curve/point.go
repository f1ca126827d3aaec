// Package curve implements secp256k1 point and scalar arithmetic for the
// blind Diffie-Hellman key exchange used by the mint and wallet.
//
// Point wraps btcec/v2's compatibility-layer PublicKey and drives its
// arithmetic through the legacy elliptic.Curve-shaped S256() API.
// Scalar wraps decred's ModNScalar directly, since btcec/v2's PublicKey and
// PrivateKey types are themselves aliases onto the decred secp256k1
// package.
package curve

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"

	"github.com/btcsuite/btcd/btcec/v2"
)

// ErrIdentity is returned by any operation whose mathematical result would
// be the point at infinity. The group used here excludes the identity from
// both inputs and outputs.
var ErrIdentity = errors.New("curve: result is the identity point")

var curveParams = btcec.S256()

// Point is a non-identity element of the secp256k1 group.
type Point struct {
	pub *btcec.PublicKey
}

// NewPoint builds a Point from affine coordinates, rejecting the identity
// and any (x, y) pair not on the curve.
func NewPoint(x, y *big.Int) (*Point, error) {
	if x.Sign() == 0 && y.Sign() == 0 {
		return nil, ErrIdentity
	}
	if !curveParams.IsOnCurve(x, y) {
		return nil, fmt.Errorf("curve: point (%s, %s) is not on the curve", x, y)
	}
	var fx, fy btcec.FieldVal
	fx.SetByteSlice(x.Bytes())
	fy.SetByteSlice(y.Bytes())
	return &Point{pub: btcec.NewPublicKey(&fx, &fy)}, nil
}

// X returns the point's affine x-coordinate.
func (p *Point) X() *big.Int { return p.pub.X() }

// Y returns the point's affine y-coordinate.
func (p *Point) Y() *big.Int { return p.pub.Y() }

// Add returns p + q, failing if the sum is the identity (i.e. q == -p).
func (p *Point) Add(q *Point) (*Point, error) {
	x, y := curveParams.Add(p.X(), p.Y(), q.X(), q.Y())
	return NewPoint(x, y)
}

// Neg returns -p, the reflection of p across the x-axis.
func (p *Point) Neg() *Point {
	negY := new(big.Int).Sub(curveParams.P, p.Y())
	// p is on the curve and non-identity, so its reflection always is too.
	neg, err := NewPoint(p.X(), negY)
	if err != nil {
		panic("curve: negation of a valid point produced an invalid one")
	}
	return neg
}

// Sub returns p - q, equivalent to p + (-q).
func (p *Point) Sub(q *Point) (*Point, error) {
	return p.Add(q.Neg())
}

// ScalarMult returns s*p, failing if the result is the identity (i.e. s is
// zero modulo the group order).
func (p *Point) ScalarMult(s *Scalar) (*Point, error) {
	x, y := curveParams.ScalarMult(p.X(), p.Y(), s.Bytes())
	return NewPoint(x, y)
}

// ScalarBaseMult returns s*G. Since s is drawn from [1, n), the result can
// never be the identity, so this never fails.
func ScalarBaseMult(s *Scalar) *Point {
	x, y := curveParams.ScalarBaseMult(s.Bytes())
	p, err := NewPoint(x, y)
	if err != nil {
		panic("curve: base-point multiplication by a nonzero scalar produced the identity")
	}
	return p
}

// Equal reports whether p and q encode the same point, comparing their
// compressed serializations in constant time.
func (p *Point) Equal(q *Point) bool {
	a := p.SerializeCompressed()
	b := q.SerializeCompressed()
	return subtle.ConstantTimeCompare(a[:], b[:]) == 1
}

// SerializeCompressed returns the 33-byte SEC1 compressed encoding of p.
func (p *Point) SerializeCompressed() [33]byte {
	var out [33]byte
	copy(out[:], p.pub.SerializeCompressed())
	return out
}

// ParsePoint decodes a 33-byte compressed SEC1 point, rejecting malformed
// prefixes and off-curve x-coordinates. The identity point has no valid
// compressed encoding, so it is rejected implicitly.
func ParsePoint(data []byte) (*Point, error) {
	if len(data) != 33 {
		return nil, fmt.Errorf("curve: invalid point encoding: want 33 bytes, got %d", len(data))
	}
	if data[0] != 0x02 && data[0] != 0x03 {
		return nil, fmt.Errorf("curve: invalid point encoding: unexpected prefix 0x%02x", data[0])
	}
	pub, err := btcec.ParsePubKey(data)
	if err != nil {
		log.Debugf("rejected point encoding: %v", err)
		return nil, fmt.Errorf("curve: %w", err)
	}
	return &Point{pub: pub}, nil
}

type pointJSON struct {
	X string `json:"x"`
	Y string `json:"y"`
}

// MarshalJSON encodes the point as decimal {"x": ..., "y": ...}, the
// primary wire encoding named in the mint's HTTP surface.
func (p *Point) MarshalJSON() ([]byte, error) {
	if p == nil || p.pub == nil {
		return nil, errors.New("curve: cannot marshal nil point")
	}
	return json.Marshal(pointJSON{X: p.X().String(), Y: p.Y().String()})
}

// UnmarshalJSON decodes the decimal {"x": ..., "y": ...} form produced by
// MarshalJSON.
func (p *Point) UnmarshalJSON(data []byte) error {
	var w pointJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return fmt.Errorf("curve: decode point: %w", err)
	}
	x, ok := new(big.Int).SetString(w.X, 10)
	if !ok {
		return fmt.Errorf("curve: invalid x coordinate %q", w.X)
	}
	y, ok := new(big.Int).SetString(w.Y, 10)
	if !ok {
		return fmt.Errorf("curve: invalid y coordinate %q", w.Y)
	}
	np, err := NewPoint(x, y)
	if err != nil {
		return err
	}
	*p = *np
	return nil
}
