package curve

import (
	"crypto/rand"
	"math/big"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
)

// curveOrder is the secp256k1 group order n. btcec/v2's S256() compatibility
// shim is the simplest source for it as a big.Int; the scalar arithmetic
// itself is done through decred's ModNScalar below.
var curveOrder = btcec.S256().N

// Scalar is an integer in [1, n), used as a private signing key or a
// blinding factor.
type Scalar struct {
	val secp256k1.ModNScalar
}

// NewRandomScalar draws a scalar uniformly from [1, n) using a
// cryptographically secure RNG, rejecting out-of-range samples rather than
// reducing them modulo n to avoid biasing the low end of the range.
func NewRandomScalar() (*Scalar, error) {
	for {
		var buf [32]byte
		if _, err := rand.Read(buf[:]); err != nil {
			return nil, err
		}
		n := new(big.Int).SetBytes(buf[:])
		if n.Sign() == 0 || n.Cmp(curveOrder) >= 0 {
			continue
		}
		var s secp256k1.ModNScalar
		s.SetByteSlice(buf[:])
		return &Scalar{val: s}, nil
	}
}

// ScalarFromBigInt reduces n modulo the group order and returns the
// resulting scalar. Used for the mint's deterministic per-denomination key
// derivation, where n comes from a SHA-256 digest rather than an RNG.
func ScalarFromBigInt(n *big.Int) *Scalar {
	reduced := new(big.Int).Mod(n, curveOrder)
	if reduced.Sign() == 0 {
		// A derived key of exactly zero is cryptographically void; nudge to
		// 1 rather than produce a scalar with no public point. Astronomically
		// unlikely for any real master secret.
		reduced = big.NewInt(1)
	}
	var buf [32]byte
	reduced.FillBytes(buf[:])
	var s secp256k1.ModNScalar
	s.SetByteSlice(buf[:])
	return &Scalar{val: s}
}

// Bytes returns the scalar's big-endian 32-byte encoding.
func (s *Scalar) Bytes() []byte {
	b := s.val.Bytes()
	out := make([]byte, len(b))
	copy(out, b[:])
	return out
}

// BigInt returns the scalar as a big.Int.
func (s *Scalar) BigInt() *big.Int {
	b := s.val.Bytes()
	return new(big.Int).SetBytes(b[:])
}

// Add returns s + o mod n.
func (s *Scalar) Add(o *Scalar) *Scalar {
	r := s.val
	r.Add(&o.val)
	return &Scalar{val: r}
}

// Mul returns s * o mod n.
func (s *Scalar) Mul(o *Scalar) *Scalar {
	r := s.val
	r.Mul(&o.val)
	return &Scalar{val: r}
}

// Negate returns -s mod n.
func (s *Scalar) Negate() *Scalar {
	var r secp256k1.ModNScalar
	r.NegateVal(&s.val)
	return &Scalar{val: r}
}
