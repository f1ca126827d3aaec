package ledger

import (
	"crypto/sha256"
	"encoding/hex"
	"math/big"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/shellcash/ecash/curve"
)

func TestDeriveKeysetMatchesHandComputedScalar(t *testing.T) {
	ks := DeriveKeyset("my-master-secret")

	for _, i := range []int{0, 1, 5, 19} {
		digest := sha256.Sum256([]byte("my-master-secret" + strconv.Itoa(i)))
		n := new(big.Int)
		n.SetString(hex.EncodeToString(digest[:]), 16)
		want := curve.ScalarFromBigInt(n)

		got, ok := ks.Scalar(int64(1) << uint(i))
		require.True(t, ok)
		require.Equal(t, want.Bytes(), got.Bytes())
	}
}

func TestDeriveKeysetPublicPointMatchesScalarBaseMult(t *testing.T) {
	ks := DeriveKeyset("another-secret")

	for i := 0; i < NumDenominations; i++ {
		d := int64(1) << uint(i)
		a, ok := ks.Scalar(d)
		require.True(t, ok)
		A, ok := ks.Point(d)
		require.True(t, ok)
		require.True(t, curve.ScalarBaseMult(a).Equal(A))
	}
}

func TestKeysetRejectsNonPowerOfTwoDenomination(t *testing.T) {
	ks := DeriveKeyset("secret")

	_, ok := ks.Scalar(3)
	require.False(t, ok)
	_, ok = ks.Point(0)
	require.False(t, ok)
	_, ok = ks.Scalar(-4)
	require.False(t, ok)
}

func TestDeriveKeysetIsDeterministic(t *testing.T) {
	a := DeriveKeyset("same-secret")
	b := DeriveKeyset("same-secret")

	for i := 0; i < NumDenominations; i++ {
		d := int64(1) << uint(i)
		sa, _ := a.Scalar(d)
		sb, _ := b.Scalar(d)
		require.Equal(t, sa.Bytes(), sb.Bytes())
	}
}

func TestPublicKeysCoversEveryDenomination(t *testing.T) {
	ks := DeriveKeyset("secret")
	pubs := ks.PublicKeys()
	require.Len(t, pubs, NumDenominations)

	for i := 0; i < NumDenominations; i++ {
		d := int64(1) << uint(i)
		point, ok := ks.Point(d)
		require.True(t, ok)
		require.True(t, pubs[d].Equal(point))
	}
}
