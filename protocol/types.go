// Package protocol defines the wire-level shapes exchanged between the
// mint's HTTP server and the wallet's HTTP client: promises, proofs,
// output-data, and the split request/response envelopes. Point fields
// marshal through curve.Point's own decimal {"x", "y"} JSON encoding, so
// these types need no custom (de)serialization of their own.
package protocol

import "github.com/shellcash/ecash/curve"

// Proof is a promise after the wallet has unblinded it: the tuple
// presented to redeem value.
type Proof struct {
	Amount    int64        `json:"amount"`
	C         *curve.Point `json:"C"`
	SecretMsg string       `json:"secret_msg"`
}

// Promise is a blinded signature issued by the mint, before unblinding.
type Promise struct {
	Amount int64        `json:"amount"`
	C_     *curve.Point `json:"C'"`
}

// OutputData pairs a requested denomination with the blinded point the
// mint should sign.
type OutputData struct {
	Amount int64        `json:"amount"`
	B_     *curve.Point `json:"B'"`
}

// SplitRequest is the body of POST /split.
type SplitRequest struct {
	Proofs     []Proof      `json:"proofs"`
	Amount     int64        `json:"amount"`
	OutputData []OutputData `json:"output_data"`
}

// SplitResponse is the success body of POST /split.
type SplitResponse struct {
	Fst []Promise `json:"fst"`
	Snd []Promise `json:"snd"`
}

// ErrorResponse is the failure body of POST /split: HTTP status stays 200,
// the error is conveyed in the body.
type ErrorResponse struct {
	Error string `json:"error"`
}
