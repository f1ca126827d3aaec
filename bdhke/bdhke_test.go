package bdhke_test

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/shellcash/ecash/bdhke"
	"github.com/shellcash/ecash/curve"
)

func TestHashToCurveDeterministicAndOnCurve(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		msg := strconv.FormatInt(rapid.Int64Range(0, 1<<40).Draw(t, "n"), 10)

		p1, err := bdhke.HashToCurve([]byte(msg))
		require.NoError(t, err)
		p2, err := bdhke.HashToCurve([]byte(msg))
		require.NoError(t, err)
		require.True(t, p1.Equal(p2))

		ser := p1.SerializeCompressed()
		parsed, err := curve.ParsePoint(ser[:])
		require.NoError(t, err)
		require.True(t, parsed.Equal(p1))
	})
}

func TestBlindSignUnblindVerify(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		secretMsg := strconv.FormatInt(rapid.Int64Range(1, 1<<40).Draw(t, "secret"), 10)

		a, err := curve.NewRandomScalar()
		require.NoError(t, err)
		A := curve.ScalarBaseMult(a)

		B_, r, err := bdhke.Blind(secretMsg)
		require.NoError(t, err)

		C_, err := bdhke.Sign(B_, a)
		require.NoError(t, err)

		C, err := bdhke.Unblind(C_, r, A)
		require.NoError(t, err)

		require.True(t, bdhke.Verify(a, C, secretMsg))
	})
}

func TestVerifyRejectsTamperedProof(t *testing.T) {
	a, err := curve.NewRandomScalar()
	require.NoError(t, err)
	A := curve.ScalarBaseMult(a)

	secretMsg := "test"
	B_, r, err := bdhke.Blind(secretMsg)
	require.NoError(t, err)
	C_, err := bdhke.Sign(B_, a)
	require.NoError(t, err)
	C, err := bdhke.Unblind(C_, r, A)
	require.NoError(t, err)
	require.True(t, bdhke.Verify(a, C, secretMsg))

	// Tamper: replace C with A itself. A proof's C should never equal the
	// mint's own public key under an honest protocol run.
	require.False(t, bdhke.Verify(a, A, secretMsg))

	// Tamper: add C to itself.
	doubled, err := C.Add(C)
	require.NoError(t, err)
	require.False(t, bdhke.Verify(a, doubled, secretMsg))
}

func TestVerifyRejectsWrongKey(t *testing.T) {
	a, err := curve.NewRandomScalar()
	require.NoError(t, err)
	b, err := curve.NewRandomScalar()
	require.NoError(t, err)
	A := curve.ScalarBaseMult(a)

	secretMsg := "test"
	B_, r, err := bdhke.Blind(secretMsg)
	require.NoError(t, err)
	C_, err := bdhke.Sign(B_, a)
	require.NoError(t, err)
	C, err := bdhke.Unblind(C_, r, A)
	require.NoError(t, err)

	require.False(t, bdhke.Verify(b, C, secretMsg))
}
