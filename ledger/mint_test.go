package ledger

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/shellcash/ecash/bdhke"
	"github.com/shellcash/ecash/curve"
	"github.com/shellcash/ecash/protocol"
)

// issue signs a blinded point at an arbitrary test denomination using the
// package-internal signOutput, standing in for what a validated Split call
// does at denominations other than MintDenomination. It returns the
// resulting redeemable proof, for use as test fixtures.
func issue(t *testing.T, m *Mint, secretMsg string, amount int64) protocol.Proof {
	t.Helper()
	B_, r, err := bdhke.Blind(secretMsg)
	require.NoError(t, err)

	promise, err := m.signOutput(amount, B_)
	require.NoError(t, err)

	A, ok := m.GetPubkeys()[amount]
	require.True(t, ok)

	C, err := bdhke.Unblind(promise.C_, r, A)
	require.NoError(t, err)

	return protocol.Proof{Amount: amount, C: C, SecretMsg: secretMsg}
}

func TestMintAlwaysIssuesFixedDenomination(t *testing.T) {
	m := NewMint("secret", NewMemorySpentStore())
	B_, r, err := bdhke.Blind("s1")
	require.NoError(t, err)

	promise, err := m.Mint(B_)
	require.NoError(t, err)
	require.Equal(t, MintDenomination, promise.Amount)
	require.Equal(t, int64(64), promise.Amount)

	A, ok := m.GetPubkeys()[MintDenomination]
	require.True(t, ok)
	C, err := bdhke.Unblind(promise.C_, r, A)
	require.NoError(t, err)

	a, ok := DeriveKeyset("secret").Scalar(MintDenomination)
	require.True(t, ok)
	require.True(t, bdhke.Verify(a, C, "s1"))
}

func TestMintIssuesVerifiableProof(t *testing.T) {
	m := NewMint("secret", NewMemorySpentStore())
	proof := issue(t, m, "s1", 8)

	a, ok := DeriveKeyset("secret").Scalar(8)
	require.True(t, ok)
	require.True(t, bdhke.Verify(a, proof.C, proof.SecretMsg))
}

func outputsFor(t *testing.T, amounts []int64) ([]protocol.OutputData, []*curve.Scalar, []string) {
	t.Helper()
	outs := make([]protocol.OutputData, 0, len(amounts))
	rs := make([]*curve.Scalar, 0, len(amounts))
	secrets := make([]string, 0, len(amounts))
	for i, amt := range amounts {
		secretMsg := fmt.Sprintf("out-%d", i)
		B_, r, err := bdhke.Blind(secretMsg)
		require.NoError(t, err)
		outs = append(outs, protocol.OutputData{Amount: amt, B_: B_})
		rs = append(rs, r)
		secrets = append(secrets, secretMsg)
	}
	return outs, rs, secrets
}

func TestSplitRedeemsAndReissuesExactly(t *testing.T) {
	m := NewMint("secret", NewMemorySpentStore())
	proof := issue(t, m, "spend-me", 16)

	// 16 = decompose(remainder=12) ++ decompose(amount=4) = [4,8] ++ [4]
	outs, rs, secrets := outputsFor(t, []int64{4, 8, 4})

	fst, snd, err := m.Split([]protocol.Proof{proof}, 4, outs)
	require.NoError(t, err)
	require.Len(t, fst, 2)
	require.Len(t, snd, 1)

	pubs := m.GetPubkeys()
	for i, promise := range append(append([]protocol.Promise{}, fst...), snd...) {
		A, ok := pubs[promise.Amount]
		require.True(t, ok)
		C, err := bdhke.Unblind(promise.C_, rs[i], A)
		require.NoError(t, err)
		a, ok := DeriveKeyset("secret").Scalar(promise.Amount)
		require.True(t, ok)
		require.True(t, bdhke.Verify(a, C, secrets[i]))
	}
}

func TestSplitRejectsDoubleSpend(t *testing.T) {
	m := NewMint("secret", NewMemorySpentStore())
	proof := issue(t, m, "once-only", 8)
	outs, _, _ := outputsFor(t, []int64{4, 4})

	_, _, err := m.Split([]protocol.Proof{proof}, 4, outs)
	require.NoError(t, err)

	outs2, _, _ := outputsFor(t, []int64{4, 4})
	_, _, err = m.Split([]protocol.Proof{proof}, 4, outs2)
	var alreadySpent *AlreadySpentError
	require.ErrorAs(t, err, &alreadySpent)
}

func TestSplitRejectsTamperedProof(t *testing.T) {
	m := NewMint("secret", NewMemorySpentStore())
	proof := issue(t, m, "tampered", 8)
	proof.Amount = 16 // claim a denomination the proof wasn't signed for
	outs, _, _ := outputsFor(t, []int64{8, 8})

	_, _, err := m.Split([]protocol.Proof{proof}, 8, outs)
	require.ErrorIs(t, err, ErrInvalidProof)
}

func TestSplitRejectsAmountExceedingTotal(t *testing.T) {
	m := NewMint("secret", NewMemorySpentStore())
	proof := issue(t, m, "small", 4)
	outs, _, _ := outputsFor(t, []int64{8})

	_, _, err := m.Split([]protocol.Proof{proof}, 8, outs)
	require.ErrorIs(t, err, ErrSplitExceedsTotal)
}

func TestSplitRejectsWrongLayout(t *testing.T) {
	m := NewMint("secret", NewMemorySpentStore())
	proof := issue(t, m, "layout", 16)
	// correct layout would be decompose(12)++decompose(4) = [4,8,4]
	outs, _, _ := outputsFor(t, []int64{1, 1, 2, 4, 8})

	_, _, err := m.Split([]protocol.Proof{proof}, 4, outs)
	require.ErrorIs(t, err, ErrUnexpectedSplitLayout)
}

func TestSplitRejectsDuplicateSecrets(t *testing.T) {
	m := NewMint("secret", NewMemorySpentStore())
	proof := issue(t, m, "dup", 8)
	outs, _, _ := outputsFor(t, []int64{4, 4})

	_, _, err := m.Split([]protocol.Proof{proof, proof}, 8, outs)
	require.ErrorIs(t, err, ErrDuplicateProofsOrPromises)
}

func TestSplitRejectsInvalidSplitAmount(t *testing.T) {
	m := NewMint("secret", NewMemorySpentStore())
	proof := issue(t, m, "badamt", 8)
	outs, _, _ := outputsFor(t, []int64{8})

	_, _, err := m.Split([]protocol.Proof{proof}, -1, outs)
	var invalidSplitAmount *InvalidSplitAmountError
	require.ErrorAs(t, err, &invalidSplitAmount)
}

// TestSplitReportsAlreadySpentEvenWhenAnEarlierProofFailsVerification covers
// a later already-spent proof taking precedence over an earlier proof that
// merely fails verification: spending one proof first, then presenting a
// list with a tampered proof ahead of the now-spent one, must still surface
// AlreadySpentError rather than ErrInvalidProof.
func TestSplitReportsAlreadySpentEvenWhenAnEarlierProofFailsVerification(t *testing.T) {
	m := NewMint("secret", NewMemorySpentStore())

	spent := issue(t, m, "spent-first", 8)
	outs, _, _ := outputsFor(t, []int64{4, 4})
	_, _, err := m.Split([]protocol.Proof{spent}, 4, outs)
	require.NoError(t, err)

	tampered := issue(t, m, "bad-verify", 8)
	tampered.Amount = 16 // claim a denomination it wasn't signed for, so verification fails

	outs2, _, _ := outputsFor(t, []int64{4, 20})
	_, _, err = m.Split([]protocol.Proof{tampered, spent}, 4, outs2)
	var alreadySpent *AlreadySpentError
	require.ErrorAs(t, err, &alreadySpent)
}

func TestSplitRejectsMissingProofPoint(t *testing.T) {
	m := NewMint("secret", NewMemorySpentStore())
	proof := issue(t, m, "missing-c", 8)
	proof.C = nil
	outs, _, _ := outputsFor(t, []int64{4, 4})

	_, _, err := m.Split([]protocol.Proof{proof}, 4, outs)
	require.ErrorIs(t, err, ErrMissingPoint)
}

func TestSplitRejectsMissingOutputPoint(t *testing.T) {
	m := NewMint("secret", NewMemorySpentStore())
	proof := issue(t, m, "missing-b", 8)
	outs, _, _ := outputsFor(t, []int64{4, 4})
	outs[0].B_ = nil

	_, _, err := m.Split([]protocol.Proof{proof}, 4, outs)
	require.ErrorIs(t, err, ErrMissingPoint)
}
