package wallet

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync"

	"github.com/shellcash/ecash/bdhke"
	"github.com/shellcash/ecash/curve"
	"github.com/shellcash/ecash/ledger"
	"github.com/shellcash/ecash/protocol"
)

// newSecretMsg returns a fresh, unpredictable secret_msg for a blinded
// output. The prefix is purely diagnostic; uniqueness and unguessability
// both come from the random suffix.
func newSecretMsg(prefix string) (string, error) {
	var buf [16]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return "", fmt.Errorf("wallet: generate secret: %w", err)
	}
	return fmt.Sprintf("%s-%s", prefix, hex.EncodeToString(buf[:])), nil
}

// pendingOutput is a wallet-side record of a blinded output awaiting the
// mint's signature: the blinding factor and secret message needed to
// unblind the promise once it comes back.
type pendingOutput struct {
	amount    int64
	secretMsg string
	r         *curve.Scalar
}

// Wallet holds a set of redeemed proofs and drives Mint/Split against a
// LedgerAPI, unblinding promises as they arrive. It is safe for concurrent
// use.
type Wallet struct {
	api LedgerAPI

	mu     sync.Mutex
	proofs []protocol.Proof
}

// NewWallet returns an empty wallet talking to api.
func NewWallet(api LedgerAPI) *Wallet {
	return &Wallet{api: api}
}

// Balance returns the sum of the amounts of every proof the wallet holds.
func (w *Wallet) Balance() int64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	var total int64
	for _, p := range w.proofs {
		total += p.Amount
	}
	return total
}

// Proofs returns a copy of the wallet's current proof set.
func (w *Wallet) Proofs() []protocol.Proof {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]protocol.Proof, len(w.proofs))
	copy(out, w.proofs)
	return out
}

// unblindOutput completes a pendingOutput into a redeemable proof, using
// the mint's public key for the output's denomination.
func unblindOutput(po pendingOutput, promise protocol.Promise, pubkeys map[int64]*curve.Point) (protocol.Proof, error) {
	A, ok := pubkeys[po.amount]
	if !ok {
		return protocol.Proof{}, fmt.Errorf("wallet: mint has no key for denomination %d", po.amount)
	}
	C, err := bdhke.Unblind(promise.C_, po.r, A)
	if err != nil {
		return protocol.Proof{}, fmt.Errorf("wallet: unblind: %w", err)
	}
	return protocol.Proof{Amount: po.amount, C: C, SecretMsg: po.secretMsg}, nil
}

// Mint requests a freshly issued proof at the fixed ledger.MintDenomination
// and adds it to the wallet's balance. The mint has no notion of a
// caller-chosen amount here; a wallet that wants a different amount mints
// 64 units and Splits them down.
func (w *Wallet) Mint() (protocol.Proof, error) {
	secretMsg, err := newSecretMsg("mint")
	if err != nil {
		return protocol.Proof{}, err
	}
	B_, r, err := bdhke.Blind(secretMsg)
	if err != nil {
		return protocol.Proof{}, fmt.Errorf("wallet: blind: %w", err)
	}

	promise, err := w.api.Mint(B_)
	if err != nil {
		return protocol.Proof{}, err
	}

	pubkeys, err := w.api.GetKeys()
	if err != nil {
		return protocol.Proof{}, err
	}

	proof, err := unblindOutput(pendingOutput{amount: ledger.MintDenomination, secretMsg: secretMsg, r: r}, *promise, pubkeys)
	if err != nil {
		return protocol.Proof{}, err
	}

	w.mu.Lock()
	w.proofs = append(w.proofs, proof)
	w.mu.Unlock()

	return proof, nil
}

// Split redeems spend and reissues it as two fresh proof groups, fst
// (amounting to total(spend) - amount) and snd (amounting to amount), both
// of which replace spend in the wallet's local store: split reshapes
// denominations, it does not remove value from the wallet. It validates
// locally before contacting the mint so that an obviously malformed
// request fails fast with the same error the mint would otherwise return
// over the wire.
func (w *Wallet) Split(spend []protocol.Proof, amount int64) (fst, snd []protocol.Proof, err error) {
	if err := ledger.ValidateSplitAmount(amount); err != nil {
		return nil, nil, err
	}

	var total int64
	seen := make(map[string]struct{}, len(spend))
	for _, p := range spend {
		if _, dup := seen[p.SecretMsg]; dup {
			return nil, nil, ledger.ErrDuplicateProofsOrPromises
		}
		seen[p.SecretMsg] = struct{}{}
		total += p.Amount
	}
	if amount > total {
		return nil, nil, ledger.ErrSplitExceedsTotal
	}

	remainder := total - amount
	remainderDenoms, err := ledger.Decompose(remainder)
	if err != nil {
		return nil, nil, err
	}
	amountDenoms, err := ledger.Decompose(amount)
	if err != nil {
		return nil, nil, err
	}

	pendings := make([]pendingOutput, 0, len(remainderDenoms)+len(amountDenoms))
	outputs := make([]protocol.OutputData, 0, cap(pendings))
	for i, d := range append(append([]int64{}, remainderDenoms...), amountDenoms...) {
		secretMsg, err := newSecretMsg("split")
		if err != nil {
			return nil, nil, err
		}
		B_, r, err := bdhke.Blind(secretMsg)
		if err != nil {
			return nil, nil, fmt.Errorf("wallet: blind output %d: %w", i, err)
		}
		pendings = append(pendings, pendingOutput{amount: d, secretMsg: secretMsg, r: r})
		outputs = append(outputs, protocol.OutputData{Amount: d, B_: B_})
	}

	fstPromises, sndPromises, err := w.api.Split(spend, amount, outputs)
	if err != nil {
		return nil, nil, err
	}

	pubkeys, err := w.api.GetKeys()
	if err != nil {
		return nil, nil, err
	}

	all := append(append([]protocol.Promise{}, fstPromises...), sndPromises...)
	if len(all) != len(pendings) {
		return nil, nil, fmt.Errorf("wallet: mint returned %d promises for %d requested outputs", len(all), len(pendings))
	}

	for i, promise := range all {
		proof, err := unblindOutput(pendings[i], promise, pubkeys)
		if err != nil {
			return nil, nil, err
		}
		if i < len(remainderDenoms) {
			fst = append(fst, proof)
		} else {
			snd = append(snd, proof)
		}
	}

	w.removeSpent(spend)
	w.mu.Lock()
	w.proofs = append(w.proofs, fst...)
	w.proofs = append(w.proofs, snd...)
	w.mu.Unlock()

	return fst, snd, nil
}

// removeSpent drops every proof in spent from the wallet's held set,
// matching by secret_msg.
func (w *Wallet) removeSpent(spent []protocol.Proof) {
	spentSecrets := make(map[string]struct{}, len(spent))
	for _, p := range spent {
		spentSecrets[p.SecretMsg] = struct{}{}
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	kept := w.proofs[:0]
	for _, p := range w.proofs {
		if _, ok := spentSecrets[p.SecretMsg]; !ok {
			kept = append(kept, p)
		}
	}
	w.proofs = kept
}
