package harness

import "github.com/roach88/decstore/internal/ir"

// Trace event types.
const (
	EventRegister = "register"
	EventInsert   = "insert"
	EventQuery    = "query"
)

// TraceEvent records one scenario step.
//
// Insert events carry the document body exactly as stored, so a golden trace
// pins down every order key and raw text the codec produced.
type TraceEvent struct {
	Step       int         `json:"step"`
	Type       string      `json:"type"`
	Collection string      `json:"collection"`
	ID         string      `json:"id,omitempty"`
	Seq        int64       `json:"seq,omitempty"`
	Body       ir.IRObject `json:"body,omitempty"`
	Query      string      `json:"query,omitempty"`
	IDs        []string    `json:"ids,omitempty"`
	Error      string      `json:"error,omitempty"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true if every expectation and assertion held.
	Pass bool `json:"pass"`

	// Trace contains every step in execution order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains one message per failed expectation.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// addEvent appends ev to the trace, numbering it.
func (r *Result) addEvent(ev TraceEvent) {
	ev.Step = len(r.Trace) + 1
	r.Trace = append(r.Trace, ev)
}
