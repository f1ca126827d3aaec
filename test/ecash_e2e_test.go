// Package test holds black-box end-to-end coverage that runs a mint over a
// real HTTP server and drives it only through the wallet's client, the same
// way an external integration would.
package test

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/shellcash/ecash/api"
	"github.com/shellcash/ecash/ledger"
	"github.com/shellcash/ecash/protocol"
	"github.com/shellcash/ecash/wallet"
)

func newEndToEndWallet(t *testing.T) *wallet.Wallet {
	t.Helper()
	mint := ledger.NewMint("supersecretprivatekey", ledger.NewMemorySpentStore())
	srv := httptest.NewServer(api.NewServer(mint, nil))
	t.Cleanup(srv.Close)
	return wallet.NewWallet(wallet.NewLedgerClient(srv.URL))
}

func amountsOfProofs(proofs []protocol.Proof) []int64 {
	out := make([]int64, len(proofs))
	for i, p := range proofs {
		out[i] = p.Amount
	}
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j-1] > out[j]; j-- {
			out[j-1], out[j] = out[j], out[j-1]
		}
	}
	return out
}

// TestEndToEndMintSplitTally walks the reference scenario over HTTP: mint
// 64, split 20 off it, split 5 off the snd group, and check the final
// tally the wallet ends up holding.
func TestEndToEndMintSplitTally(t *testing.T) {
	w := newEndToEndWallet(t)

	proof, err := w.Mint()
	require.NoError(t, err)
	require.Equal(t, int64(64), proof.Amount)

	fst, snd, err := w.Split(w.Proofs(), 20)
	require.NoError(t, err)
	require.Equal(t, []int64{4, 8, 32}, amountsOfProofs(fst))
	require.Equal(t, []int64{4, 16}, amountsOfProofs(snd))

	fst2, snd2, err := w.Split(snd, 5)
	require.NoError(t, err)
	require.Equal(t, []int64{1, 2, 4, 8}, amountsOfProofs(fst2))
	require.Equal(t, []int64{1, 4}, amountsOfProofs(snd2))

	require.Equal(t, []int64{1, 1, 2, 4, 4, 4, 8, 8, 32}, amountsOfProofs(w.Proofs()))
	require.Equal(t, int64(64), w.Balance())
}

// TestEndToEndRejectsDoubleSpendOverHTTP confirms a proof the wallet has
// already redeemed in one split is rejected by the mint if resubmitted,
// even over a fresh request.
func TestEndToEndRejectsDoubleSpendOverHTTP(t *testing.T) {
	w := newEndToEndWallet(t)

	_, err := w.Mint()
	require.NoError(t, err)
	held := w.Proofs()

	_, _, err = w.Split(held, 10)
	require.NoError(t, err)

	_, _, err = w.Split(held, 10)
	require.Error(t, err)
}

