package ledger

import (
	"fmt"
	"sync"

	"github.com/decred/dcrd/lru"

	"github.com/shellcash/ecash/bdhke"
	"github.com/shellcash/ecash/curve"
	"github.com/shellcash/ecash/protocol"
)

// verifyCacheLimit bounds the number of verified-proof results the mint
// memoizes. A verified proof's secret_msg is retired by the same split that
// verified it, so the cache only ever needs to absorb churn within a single
// in-flight request; a generous fixed limit avoids unbounded growth under
// load without tuning.
const verifyCacheLimit = 100000

// Mint issues and redeems tokens against a fixed, deterministically derived
// keyset. A single mutex serializes the verify-spend-emit critical section
// of Split so that two requests racing to spend the same proof cannot both
// succeed.
type Mint struct {
	keyset *Keyset
	spent  SpentStore

	mu          sync.Mutex
	verifyCache *lru.Cache
}

// NewMint derives a keyset from masterSecret and returns a Mint backed by
// store for spent-proof tracking. Passing a fresh NewMemorySpentStore()
// keeps no state persisted across restarts; callers that want durability
// should pass an OpenLevelDBSpentStore instead.
func NewMint(masterSecret string, store SpentStore) *Mint {
	return &Mint{
		keyset:      DeriveKeyset(masterSecret),
		spent:       store,
		verifyCache: lru.NewCache(verifyCacheLimit),
	}
}

// GetPubkeys returns the mint's public key for every supported
// denomination.
func (m *Mint) GetPubkeys() map[int64]*curve.Point {
	return m.keyset.PublicKeys()
}

// MintDenomination is the fixed amount every call to Mint issues: the
// simple policy "one mint yields 64 units". Callers cannot request any
// other amount from Mint; to obtain other denominations, mint 64 units
// and Split them.
const MintDenomination = int64(1) << 6

// Mint signs a blinded point at the fixed MintDenomination, producing a
// promise the caller must present real-world funds for out of band; this
// package does not model the funding side, only the cryptographic
// issuance. An implementer adding proof-of-work or another admission
// control in front of issuance can do so without changing this signature.
func (m *Mint) Mint(B_ *curve.Point) (*protocol.Promise, error) {
	return m.signOutput(MintDenomination, B_)
}

// signOutput signs a blinded point at the given denomination, used both by
// Mint (fixed at MintDenomination) and by Split (at whatever denominations
// the validated output layout calls for).
func (m *Mint) signOutput(amount int64, B_ *curve.Point) (*protocol.Promise, error) {
	a, ok := m.keyset.Scalar(amount)
	if !ok {
		return nil, fmt.Errorf("ledger: no signing key for denomination %d", amount)
	}
	C_, err := bdhke.Sign(B_, a)
	if err != nil {
		return nil, fmt.Errorf("ledger: sign: %w", err)
	}
	return &protocol.Promise{Amount: amount, C_: C_}, nil
}

// Split redeems proofs totaling their sum, reissuing amount in one set of
// fresh promises and the remainder in another, split in denomination-sized
// pieces via Decompose. It enforces, in order: a valid split amount; that
// every proof verifies against the mint's key for its claimed denomination
// and has not already been spent; that the proofs carry no duplicate
// secret_msg and the outputs no duplicate blinded point; that amount does
// not exceed the proofs' total; and that outputData's denominations match
// decompose(total-amount) followed by decompose(amount). Only once every
// check passes does it retire the spent secrets and sign the outputs, so a
// caller never loses value to a request that is rejected partway through.
func (m *Mint) Split(proofs []protocol.Proof, amount int64, outputData []protocol.OutputData) (fst, snd []protocol.Promise, err error) {
	if err := ValidateSplitAmount(amount); err != nil {
		return nil, nil, err
	}
	if err := checkPointsPresent(proofs, outputData); err != nil {
		return nil, nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	// Every proof's spent-status is checked, in order, before any
	// verification failure is allowed to reject the request: an
	// already-spent proof later in the list must still be reported even if
	// an earlier one failed verification, so spent-status is resolved for
	// the whole list first and verification results are only consulted
	// once that full pass comes back clean.
	var total int64
	secrets := make([]string, 0, len(proofs))
	verified := make([]bool, len(proofs))
	for i, p := range proofs {
		spent, err := m.spent.Has(p.SecretMsg)
		if err != nil {
			return nil, nil, fmt.Errorf("ledger: spent-set lookup: %w", err)
		}
		if spent {
			return nil, nil, &AlreadySpentError{SecretMsg: p.SecretMsg}
		}
		verified[i] = m.verifyProofCached(p)
		total += p.Amount
		secrets = append(secrets, p.SecretMsg)
	}
	for _, ok := range verified {
		if !ok {
			return nil, nil, ErrInvalidProof
		}
	}

	if err := checkDuplicateSecrets(secrets); err != nil {
		return nil, nil, err
	}
	if err := checkDuplicateOutputs(outputData); err != nil {
		return nil, nil, err
	}
	if amount > total {
		return nil, nil, ErrSplitExceedsTotal
	}
	if err := layoutMatches(outputData, total-amount, amount); err != nil {
		return nil, nil, err
	}

	if err := m.spent.AddAll(secrets); err != nil {
		return nil, nil, fmt.Errorf("ledger: commit spent set: %w", err)
	}

	fstCount := len(outputData) - len(mustDecompose(amount))
	for i, od := range outputData {
		promise, err := m.signOutput(od.Amount, od.B_)
		if err != nil {
			// The keyset and denomination layout were already validated
			// above; a failure here means an invariant this package is
			// supposed to guarantee has been broken.
			panic(fmt.Sprintf("ledger: sign output %d of validated split: %v", i, err))
		}
		if i < fstCount {
			fst = append(fst, *promise)
		} else {
			snd = append(snd, *promise)
		}
	}

	log.Debugf("split: redeemed %d proof(s) totaling %d, reissued %d/%d", len(proofs), total, total-amount, amount)
	return fst, snd, nil
}

// verifyProofCached reports whether p verifies against the mint's key for
// its claimed denomination, memoizing positive results so that a proof
// re-presented within the same request (or a retried request) doesn't pay
// for elliptic-curve scalar multiplication twice.
func (m *Mint) verifyProofCached(p protocol.Proof) bool {
	key := verifyCacheKey(p)
	if m.verifyCache.Contains(key) {
		return true
	}
	a, ok := m.keyset.Scalar(p.Amount)
	if !ok {
		return false
	}
	if !bdhke.Verify(a, p.C, p.SecretMsg) {
		return false
	}
	m.verifyCache.Add(key)
	return true
}

// verifyCacheKey derives a stable lookup key for a proof's (amount,
// secret_msg, C) triple.
func verifyCacheKey(p protocol.Proof) string {
	c := p.C.SerializeCompressed()
	return fmt.Sprintf("%d:%s:%x", p.Amount, p.SecretMsg, c[:])
}

// checkPointsPresent reports ErrMissingPoint if any proof's C or any
// output's B' is nil, so a request with an absent point is rejected with a
// proper error instead of panicking the first time that field is
// dereferenced.
func checkPointsPresent(proofs []protocol.Proof, outputData []protocol.OutputData) error {
	for _, p := range proofs {
		if p.C == nil {
			return ErrMissingPoint
		}
	}
	for _, od := range outputData {
		if od.B_ == nil {
			return ErrMissingPoint
		}
	}
	return nil
}

// checkDuplicateSecrets reports ErrDuplicateProofsOrPromises if any two
// proofs share a secret_msg.
func checkDuplicateSecrets(secrets []string) error {
	seen := make(map[string]struct{}, len(secrets))
	for _, s := range secrets {
		if _, ok := seen[s]; ok {
			return ErrDuplicateProofsOrPromises
		}
		seen[s] = struct{}{}
	}
	return nil
}

// checkDuplicateOutputs reports ErrDuplicateProofsOrPromises if any two
// requested outputs carry the same blinded point.
func checkDuplicateOutputs(outputData []protocol.OutputData) error {
	seen := make(map[[33]byte]struct{}, len(outputData))
	for _, od := range outputData {
		key := od.B_.SerializeCompressed()
		if _, ok := seen[key]; ok {
			return ErrDuplicateProofsOrPromises
		}
		seen[key] = struct{}{}
	}
	return nil
}

// layoutMatches reports ErrUnexpectedSplitLayout unless outputData's
// amounts, in order, equal decompose(remainder) followed by
// decompose(amount). A remainder or amount that Decompose cannot represent
// has no matching layout and is reported the same way.
func layoutMatches(outputData []protocol.OutputData, remainder, amount int64) error {
	remainderDenoms, err := Decompose(remainder)
	if err != nil {
		return ErrUnexpectedSplitLayout
	}
	amountDenoms, err := Decompose(amount)
	if err != nil {
		return ErrUnexpectedSplitLayout
	}
	want := append(remainderDenoms, amountDenoms...)
	if len(outputData) != len(want) {
		return ErrUnexpectedSplitLayout
	}
	for i, od := range outputData {
		if od.Amount != want[i] {
			return ErrUnexpectedSplitLayout
		}
	}
	return nil
}

// mustDecompose decomposes n, which layoutMatches has already decomposed
// successfully and therefore cannot fail.
func mustDecompose(n int64) []int64 {
	out, err := Decompose(n)
	if err != nil {
		panic(fmt.Sprintf("ledger: decompose %d: %v", n, err))
	}
	return out
}
