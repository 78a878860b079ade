package protocol

import (
	"encoding/json"
	"fmt"
)

// Status is the wire tag of a statement result.
type Status string

const (
	StatusOK  Status = "OK"
	StatusERR Status = "ERR"
)

// StatementResult is the outcome of one statement. It is either OK or Err;
// callers switch on the concrete type.
type StatementResult interface {
	Status() Status
	Elapsed() string
	isStatementResult()
}

// OK is a successful statement result.
type OK struct {
	Result json.RawMessage
	Time   string
}

func (OK) Status() Status     { return StatusOK }
func (r OK) Elapsed() string  { return r.Time }
func (OK) isStatementResult() {}

// MarshalJSON renders the wire shape.
func (r OK) MarshalJSON() ([]byte, error) {
	result := r.Result
	if len(result) == 0 {
		result = json.RawMessage("null")
	}
	return json.Marshal(struct {
		Status Status          `json:"status"`
		Result json.RawMessage `json:"result"`
		Time   string          `json:"time"`
	}{StatusOK, result, r.Time})
}

// Err is a failed statement result.
type Err struct {
	Detail string
	Time   string
}

func (Err) Status() Status     { return StatusERR }
func (r Err) Elapsed() string  { return r.Time }
func (Err) isStatementResult() {}

// MarshalJSON renders the wire shape.
func (r Err) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Status Status `json:"status"`
		Detail string `json:"detail"`
		Time   string `json:"time"`
	}{StatusERR, r.Detail, r.Time})
}

// wireResult is the union of both wire shapes.
type wireResult struct {
	Status Status          `json:"status"`
	Result json.RawMessage `json:"result"`
	Detail *string         `json:"detail"`
	Time   string          `json:"time"`
}

// DecodeResults parses a JSON array of statement results. Unknown status tags
// and ERR entries without a detail are rejected rather than passed through.
func DecodeResults(data []byte) ([]StatementResult, error) {
	var wire []wireResult
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, fmt.Errorf("unable to parse json: %w", err)
	}

	results := make([]StatementResult, 0, len(wire))
	for i, w := range wire {
		switch w.Status {
		case StatusOK:
			results = append(results, OK{Result: w.Result, Time: w.Time})
		case StatusERR:
			if w.Detail == nil {
				return nil, fmt.Errorf("statement %d: ERR result without detail", i)
			}
			results = append(results, Err{Detail: *w.Detail, Time: w.Time})
		default:
			return nil, fmt.Errorf("statement %d: unknown status %q", i, w.Status)
		}
	}
	return results, nil
}

// AllOK reports whether every result succeeded.
func AllOK(results []StatementResult) bool {
	return FirstErr(results) < 0
}

// FirstErr returns the index of the first failed result, or -1.
func FirstErr(results []StatementResult) int {
	for i, r := range results {
		switch r.(type) {
		case OK:
		case Err:
			return i
		default:
			return i
		}
	}
	return -1
}

// Encode renders results as JSON for error messages.
func Encode(results []StatementResult) string {
	data, err := json.Marshal(results)
	if err != nil {
		return fmt.Sprintf("%v", results)
	}
	return string(data)
}
