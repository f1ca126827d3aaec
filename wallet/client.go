// Package wallet implements the token-holder side of the protocol: an HTTP
// client for talking to a mint, and a Wallet that tracks a proof set and
// drives Mint/Split against it.
package wallet

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/btcsuite/go-socks/socks"

	"github.com/shellcash/ecash/curve"
	"github.com/shellcash/ecash/protocol"
)

// LedgerAPI is the subset of mint operations a Wallet depends on. It is
// satisfied by *LedgerClient against a real mint, and can be faked in
// tests without standing up an HTTP server.
type LedgerAPI interface {
	GetKeys() (map[int64]*curve.Point, error)
	Mint(B_ *curve.Point) (*protocol.Promise, error)
	Split(proofs []protocol.Proof, amount int64, outputData []protocol.OutputData) (fst, snd []protocol.Promise, err error)
}

// LedgerClient talks to a mint's HTTP API.
type LedgerClient struct {
	baseURL    string
	httpClient *http.Client
}

// ClientOption configures a LedgerClient.
type ClientOption func(*LedgerClient)

// WithSOCKSProxy routes the client's requests through a SOCKS5 proxy (for
// example a local Tor daemon) instead of dialing the mint directly.
func WithSOCKSProxy(proxyAddr, username, password string) ClientOption {
	return func(c *LedgerClient) {
		proxy := &socks.Proxy{
			Addr:     proxyAddr,
			Username: username,
			Password: password,
		}
		c.httpClient.Transport = &http.Transport{
			Dial: proxy.Dial,
		}
	}
}

// WithTimeout overrides the client's default request timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *LedgerClient) {
		c.httpClient.Timeout = d
	}
}

// NewLedgerClient returns a client for the mint at baseURL (e.g.
// "http://localhost:3338").
func NewLedgerClient(baseURL string, opts ...ClientOption) *LedgerClient {
	c := &LedgerClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				Dial: (&net.Dialer{Timeout: 10 * time.Second}).Dial,
			},
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// errorResponse mirrors the mint's ErrorResponse wire shape so the client
// can surface the mint's own error text without depending on the mint's
// internal error types.
type errorResponse struct {
	Error string `json:"error"`
}

// postJSON posts body to the mint's path and decodes a successful response
// into out. If the mint replied with a non-empty ErrorResponse, postJSON
// returns that text as an error rather than attempting to decode out.
func (c *LedgerClient) postJSON(path string, body, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("wallet: encode request: %w", err)
	}

	resp, err := c.httpClient.Post(c.baseURL+path, "application/json", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("wallet: request %s: %w", path, err)
	}
	defer resp.Body.Close()

	var raw json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return fmt.Errorf("wallet: decode response from %s: %w", path, err)
	}

	var errResp errorResponse
	if err := json.Unmarshal(raw, &errResp); err == nil && errResp.Error != "" {
		return fmt.Errorf("mint: %s", errResp.Error)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("wallet: decode response body from %s: %w", path, err)
	}
	return nil
}

// GetKeys fetches the mint's current public key for every denomination.
func (c *LedgerClient) GetKeys() (map[int64]*curve.Point, error) {
	resp, err := c.httpClient.Get(c.baseURL + "/keys")
	if err != nil {
		return nil, fmt.Errorf("wallet: request /keys: %w", err)
	}
	defer resp.Body.Close()

	var keys map[int64]*curve.Point
	if err := json.NewDecoder(resp.Body).Decode(&keys); err != nil {
		return nil, fmt.Errorf("wallet: decode /keys response: %w", err)
	}
	return keys, nil
}

// Mint requests a blinded signature at the fixed ledger.MintDenomination.
// The request body is the blinded point itself.
func (c *LedgerClient) Mint(B_ *curve.Point) (*protocol.Promise, error) {
	var promise protocol.Promise
	if err := c.postJSON("/mint", B_, &promise); err != nil {
		return nil, err
	}
	return &promise, nil
}

// Split requests redemption of proofs and reissuance of the result.
func (c *LedgerClient) Split(proofs []protocol.Proof, amount int64, outputData []protocol.OutputData) (fst, snd []protocol.Promise, err error) {
	req := protocol.SplitRequest{Proofs: proofs, Amount: amount, OutputData: outputData}
	var resp protocol.SplitResponse
	if err := c.postJSON("/split", req, &resp); err != nil {
		return nil, nil, err
	}
	return resp.Fst, resp.Snd, nil
}
