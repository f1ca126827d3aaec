package ledger

import (
	"errors"
	"fmt"
)

// InvalidAmountError reports an amount outside (0, 2^32).
type InvalidAmountError struct {
	Value int64
}

func (e *InvalidAmountError) Error() string {
	return fmt.Sprintf("Invalid amount: %d", e.Value)
}

// InvalidSplitAmountError reports a split amount outside (0, 2^32); carries
// the same message shape as InvalidAmountError but is raised in split
// specifically so callers can tell the two apart.
type InvalidSplitAmountError struct {
	Value int64
}

func (e *InvalidSplitAmountError) Error() string {
	return fmt.Sprintf("Invalid split amount: %d", e.Value)
}

// AlreadySpentError reports that a proof's secret_msg has already been
// retired by a prior split.
type AlreadySpentError struct {
	SecretMsg string
}

func (e *AlreadySpentError) Error() string {
	return fmt.Sprintf("Already spent. Secret msg:%s", e.SecretMsg)
}

// ErrDuplicateProofsOrPromises is raised when two input proofs share a
// secret_msg, or two requested outputs share a B_.x.
var ErrDuplicateProofsOrPromises = errors.New("Duplicate proofs or promises.")

// ErrSplitExceedsTotal is raised when the requested split amount exceeds
// the sum of the presented proofs.
var ErrSplitExceedsTotal = errors.New("Split amount is higher than the total sum")

// ErrUnexpectedSplitLayout is raised when the caller's output_data
// denominations don't match decompose(total-amount) ++ decompose(amount).
var ErrUnexpectedSplitLayout = errors.New("Split of promises is not as expected.")

// ErrInvalidProof is returned when a presented proof fails verification
// against the mint's key for its claimed denomination, as a distinguishable
// sentinel rather than a bare boolean, since a Go API returning (T, error)
// should not also need a separate boolean-success convention.
var ErrInvalidProof = errors.New("ledger: proof failed verification")

// ErrMissingPoint is returned when a proof's C or an output's B' is absent
// from a split request, standing in for the malformed-request rejection a
// handler gets from a missing required field.
var ErrMissingPoint = errors.New("Proof or output is missing a required point.")
