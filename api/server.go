package api

import (
	"encoding/json"
	"net/http"

	"github.com/shellcash/ecash/curve"
	"github.com/shellcash/ecash/ledger"
	"github.com/shellcash/ecash/protocol"
)

// MintLedger is the subset of *ledger.Mint the HTTP server depends on.
type MintLedger interface {
	GetPubkeys() map[int64]*curve.Point
	Mint(B_ *curve.Point) (*protocol.Promise, error)
	Split(proofs []protocol.Proof, amount int64, outputData []protocol.OutputData) (fst, snd []protocol.Promise, err error)
}

// Server exposes a MintLedger over HTTP.
type Server struct {
	mint     MintLedger
	notifier *Notifier
	mux      *http.ServeMux
}

// NewServer returns a Server routing GET /keys, POST /mint, and POST
// /split to mint. If notifier is non-nil, GET /notify also upgrades to a
// websocket feed of spent secrets.
func NewServer(mint MintLedger, notifier *Notifier) *Server {
	s := &Server{mint: mint, notifier: notifier, mux: http.NewServeMux()}
	s.mux.HandleFunc("/keys", s.handleKeys)
	s.mux.HandleFunc("/mint", s.handleMint)
	s.mux.HandleFunc("/split", s.handleSplit)
	if notifier != nil {
		s.mux.HandleFunc("/notify", notifier.ServeHTTP)
	}
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) handleKeys(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, s.mint.GetPubkeys())
}

func (s *Server) handleMint(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	// The request body is the blinded point itself: {"x": ..., "y": ...}.
	// mint() takes no amount — see ledger.MintDenomination.
	var B_ curve.Point
	if err := json.NewDecoder(r.Body).Decode(&B_); err != nil {
		writeError(w, "invalid request body: "+err.Error())
		return
	}

	promise, err := s.mint.Mint(&B_)
	if err != nil {
		log.Debugf("mint request rejected: %v", err)
		writeError(w, err.Error())
		return
	}
	writeJSON(w, promise)
}

func (s *Server) handleSplit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req protocol.SplitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request body: "+err.Error())
		return
	}

	fst, snd, err := s.mint.Split(req.Proofs, req.Amount, req.OutputData)
	if err != nil {
		log.Debugf("split request rejected: %v", err)
		writeError(w, translateSplitError(err))
		return
	}

	if s.notifier != nil {
		for _, p := range req.Proofs {
			s.notifier.Broadcast(p.SecretMsg)
		}
	}

	writeJSON(w, protocol.SplitResponse{Fst: fst, Snd: snd})
}

// translateSplitError produces the message sent over the wire for a split
// failure. Every ledger error already carries a client-presentable
// message except ErrInvalidProof, which gets a generic message here rather
// than leaking which proof or denomination failed verification.
func translateSplitError(err error) string {
	if err == ledger.ErrInvalidProof {
		return "Could not verify proofs."
	}
	return err.Error()
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warnf("encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, message string) {
	// Always 200 OK, even on failure; the error is conveyed in the body so
	// a wallet can distinguish a protocol-level rejection from a transport
	// failure.
	writeJSON(w, protocol.ErrorResponse{Error: message})
}
