// Package bdhke implements the blind Diffie-Hellman key exchange the mint
// and wallet use to issue and redeem tokens:
//
//	Bob:   Y = hash_to_curve(secret_msg)
//	       r = random blinding factor
//	       B_ = Y + r*G
//	Alice: C_ = a*B_
//	Bob:   C = C_ - r*A            (= a*Y)
//	Alice: C == a*Y  =>  accept
//
// hash_to_curve here is a try-and-increment construction, not a NUMS
// hash-to-curve: the mint can compute the discrete log of Y relative to G.
// This is a known, accepted weakness of the reference protocol, preserved
// deliberately so the package reproduces the fixed test vectors; production
// deployments should replace it with a standardized construction (e.g.
// SSWU) and regenerate vectors.
package bdhke

import (
	"crypto/sha256"
	"errors"

	"github.com/shellcash/ecash/curve"
)

// maxHashToCurveIterations bounds the try-and-increment retry loop. The
// reference construction always terminates in practice; this only guards
// against an adversarial or malformed input looping forever.
const maxHashToCurveIterations = 1 << 16

// ErrNoValidPoint is returned by HashToCurve if no valid curve point was
// found within maxHashToCurveIterations retries. This should never happen
// for any real input.
var ErrNoValidPoint = errors.New("bdhke: no valid curve point found")

// HashToCurve deterministically maps a message to a curve point by
// treating successive SHA-256 digests as candidate compressed-point
// encodings (prefixed with 0x02, i.e. assuming an even y) until one
// deserializes onto the curve.
func HashToCurve(secretMsg []byte) (*curve.Point, error) {
	msg := secretMsg
	for i := 0; i < maxHashToCurveIterations; i++ {
		digest := sha256.Sum256(msg)

		candidate := make([]byte, 33)
		candidate[0] = 0x02
		copy(candidate[1:], digest[:])

		if p, err := curve.ParsePoint(candidate); err == nil {
			return p, nil
		}
		msg = digest[:]
	}
	log.Warnf("hash_to_curve exhausted %d iterations without finding a valid point", maxHashToCurveIterations)
	return nil, ErrNoValidPoint
}

// Blind generates a fresh blinding factor r and returns B_ = Y + r*G, where
// Y = hash_to_curve(secretMsg).
func Blind(secretMsg string) (blinded *curve.Point, r *curve.Scalar, err error) {
	Y, err := HashToCurve([]byte(secretMsg))
	if err != nil {
		return nil, nil, err
	}
	r, err = curve.NewRandomScalar()
	if err != nil {
		return nil, nil, err
	}
	rG := curve.ScalarBaseMult(r)
	blinded, err = Y.Add(rG)
	if err != nil {
		return nil, nil, err
	}
	return blinded, r, nil
}

// Sign computes the mint's blinded signature C_ = a*B_.
func Sign(blinded *curve.Point, a *curve.Scalar) (*curve.Point, error) {
	return blinded.ScalarMult(a)
}

// Unblind removes the blinding factor: C = C_ - r*A, where A = a*G is the
// mint's public key for the signed denomination.
func Unblind(blindSig *curve.Point, r *curve.Scalar, A *curve.Point) (*curve.Point, error) {
	rA, err := A.ScalarMult(r)
	if err != nil {
		return nil, err
	}
	return blindSig.Sub(rA)
}

// Verify reports whether C is a's signature over hash_to_curve(secretMsg),
// i.e. whether C == a*hash_to_curve(secretMsg).
func Verify(a *curve.Scalar, C *curve.Point, secretMsg string) bool {
	Y, err := HashToCurve([]byte(secretMsg))
	if err != nil {
		return false
	}
	aY, err := Y.ScalarMult(a)
	if err != nil {
		return false
	}
	return C.Equal(aY)
}
