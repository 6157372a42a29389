// Package alpacahttp implements the two-stage HTTP request pipeline of
// spec.md §4.1: stage 1 resolves device identity and builds the response
// scaffold (or short-circuits with HTTP 400), stage 2 performs typed
// dispatch against the device and serializes the result. Routing is
// built on chi, the router the teacher project's own later revision
// (other_examples' cmd-multiserver-lib.go.go) moved to in place of
// goji.io.
package alpacahttp

import (
	"encoding/json"
	"net/http"

	"github.com/nasa-jpl/alpacahub/alpacaerr"
	"github.com/nasa-jpl/alpacahub/txcounter"
)

// Scaffold is the response envelope of spec.md §6: ServerTransactionID,
// ErrorNumber and ErrorMessage are always present; ClientID/
// ClientTransactionID are omitted (not
// zeroed) when the client didn't supply them, and Value is omitted on
// failure.
type Scaffold struct {
	ClientID            *uint32     `json:"ClientID,omitempty"`
	ClientTransactionID *uint32     `json:"ClientTransactionID,omitempty"`
	ServerTransactionID uint32      `json:"ServerTransactionID"`
	ErrorNumber         int         `json:"ErrorNumber"`
	ErrorMessage        string      `json:"ErrorMessage"`
	Value               interface{} `json:"Value,omitempty"`
}

// buildScaffold parses ClientID/ClientTransactionID case-insensitively
// from the request's query (GET) or form (PUT) and assigns a fresh
// ServerTransactionID. A missing or malformed ClientID/ClientTransactionID
// is a warning, not an error (spec.md §4.1): the field is simply omitted.
func buildScaffold(r *http.Request, counter *txcounter.Counter) Scaffold {
	s := Scaffold{ServerTransactionID: counter.Next()}
	if v, ok := uint32Param(r, "clientid"); ok {
		s.ClientID = &v
	}
	if v, ok := uint32Param(r, "clienttransactionid"); ok {
		s.ClientTransactionID = &v
	}
	return s
}

// writeJSON writes the scaffold as the JSON response envelope with
// HTTP 200 -- domain errors are always in-band per spec.md §4.1.
func writeJSON(w http.ResponseWriter, s Scaffold) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(s)
}

// writeValue completes stage 2 for a successful operation: sets Value
// and writes the envelope.
func writeValue(w http.ResponseWriter, s Scaffold, value interface{}) {
	s.Value = value
	writeJSON(w, s)
}

// writeDomainError completes stage 2 for a failed operation: maps the
// alpacaerr.Error into ErrorNumber/ErrorMessage. HTTP status remains 200.
func writeDomainError(w http.ResponseWriter, s Scaffold, err error) {
	code, msg := alpacaerr.As(err)
	s.ErrorNumber = int(code)
	s.ErrorMessage = msg
	writeJSON(w, s)
}

// write400 is reserved for stage-1 identity/parse failures: HTTP 400
// with a plain-text body carrying the bare message (e.g. "There is no
// camera at 99"), not the "alpaca error 0x401: ..." wrapping used for
// in-band domain errors -- spec.md §8 scenario 6 requires the body begin
// with the literal message.
func write400(w http.ResponseWriter, err error) {
	_, msg := alpacaerr.As(err)
	http.Error(w, msg, http.StatusBadRequest)
}
