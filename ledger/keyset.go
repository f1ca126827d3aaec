package ledger

import (
	"crypto/sha256"
	"encoding/hex"
	"math/big"
	"strconv"

	"github.com/shellcash/ecash/curve"
)

// NumDenominations is the number of denomination tiers the mint derives
// keys for: 2^0 through 2^(NumDenominations-1).
const NumDenominations = MaxDenominationBits

// Keyset is the mint's fixed mapping from denomination to signing scalar
// and its public point, derived once from the master secret and never
// mutated afterward.
type Keyset struct {
	scalars [NumDenominations]*curve.Scalar
	points  [NumDenominations]*curve.Point
}

// DeriveKeyset deterministically derives the keyset from masterSecret.
//
// For each i in [0, NumDenominations), the signing scalar for denomination
// 2^i is:
//
//	k_i = int(hex(SHA256(masterSecret + str(i))), 16) mod n
//
// This exact construction — decimal str(i) with no padding, hex-ASCII of
// the raw digest, then base-16 parse — is fixed for wire compatibility; it
// is not a general-purpose KDF recommendation.
func DeriveKeyset(masterSecret string) *Keyset {
	ks := &Keyset{}
	for i := 0; i < NumDenominations; i++ {
		digest := sha256.Sum256([]byte(masterSecret + strconv.Itoa(i)))
		n := new(big.Int)
		n.SetString(hex.EncodeToString(digest[:]), 16)

		scalar := curve.ScalarFromBigInt(n)
		ks.scalars[i] = scalar
		ks.points[i] = curve.ScalarBaseMult(scalar)
	}
	return ks
}

// denominationIndex returns i such that d == 2^i, or -1 if d is not a
// supported denomination.
func denominationIndex(d int64) int {
	if d <= 0 {
		return -1
	}
	for i := 0; i < NumDenominations; i++ {
		if int64(1)<<uint(i) == d {
			return i
		}
	}
	return -1
}

// Scalar returns the signing scalar for the given denomination.
func (ks *Keyset) Scalar(denomination int64) (*curve.Scalar, bool) {
	i := denominationIndex(denomination)
	if i < 0 {
		return nil, false
	}
	return ks.scalars[i], true
}

// Point returns the public point for the given denomination.
func (ks *Keyset) Point(denomination int64) (*curve.Point, bool) {
	i := denominationIndex(denomination)
	if i < 0 {
		return nil, false
	}
	return ks.points[i], true
}

// PublicKeys returns the public point for every supported denomination.
func (ks *Keyset) PublicKeys() map[int64]*curve.Point {
	out := make(map[int64]*curve.Point, NumDenominations)
	for i := 0; i < NumDenominations; i++ {
		out[int64(1)<<uint(i)] = ks.points[i]
	}
	return out
}
