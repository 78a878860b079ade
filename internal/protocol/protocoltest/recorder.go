// Package protocoltest provides an in-memory protocol.Client that records
// every batch it receives.
package protocoltest

import (
	"context"
	"encoding/json"
	"strings"
	"sync"

	"github.com/surmigrate/surmigrate/internal/protocol"
)

// Responder decides the outcome of the n-th (zero based) Execute call.
type Responder func(n int, batch protocol.Batch) ([]protocol.StatementResult, error)

// Recorder is a fake protocol.Client. With a nil Respond every statement
// succeeds with an empty result.
type Recorder struct {
	Respond Responder

	mu      sync.Mutex
	batches []protocol.Batch
}

// Execute records batch and returns the Responder's outcome.
func (r *Recorder) Execute(_ context.Context, batch protocol.Batch) ([]protocol.StatementResult, error) {
	r.mu.Lock()
	n := len(r.batches)
	r.batches = append(r.batches, batch)
	r.mu.Unlock()

	if r.Respond == nil {
		return AllOK(batch), nil
	}
	return r.Respond(n, batch)
}

// Batches returns the batches received so far.
func (r *Recorder) Batches() []protocol.Batch {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]protocol.Batch(nil), r.batches...)
}

// Calls returns the number of Execute calls.
func (r *Recorder) Calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.batches)
}

// Contains reports whether any recorded batch has text containing s.
func (r *Recorder) Contains(s string) bool {
	for _, b := range r.Batches() {
		if strings.Contains(b.Text(), s) {
			return true
		}
		for _, p := range b.Params() {
			if p.Value == s {
				return true
			}
		}
	}
	return false
}

// AllOK answers every statement of batch with an empty OK result.
func AllOK(batch protocol.Batch) []protocol.StatementResult {
	results := make([]protocol.StatementResult, len(batch.Statements))
	for i := range results {
		results[i] = protocol.OK{Time: "1ms"}
	}
	return results
}

// FailAt answers batch with OK results except statement i, which fails with
// detail.
func FailAt(batch protocol.Batch, i int, detail string) []protocol.StatementResult {
	results := AllOK(batch)
	results[i] = protocol.Err{Detail: detail, Time: "1ms"}
	return results
}

// Rows builds an OK result holding rows of field = value objects.
func Rows(field string, values ...string) protocol.OK {
	rows := make([]map[string]string, 0, len(values))
	for _, v := range values {
		rows = append(rows, map[string]string{field: v})
	}
	payload, _ := json.Marshal(rows)
	return protocol.OK{Result: payload, Time: "1ms"}
}
