package harness

import (
	"github.com/roach88/replychain/internal/chain"
	"github.com/roach88/replychain/internal/store"
)

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass indicates overall test success: every assertion held.
	Pass bool

	Scenario    string
	Batch       string
	BaseLocator string
	Collection  string

	// Entries are the built chain entries, with identifiers filled in by
	// the store. Nil when the build failed.
	Entries []chain.Entry

	// Stored are the records read back from the store, in key order.
	Stored []store.Record

	// BuildErr is the error Build returned, if any.
	BuildErr error

	// Errors contains assertion failure messages.
	// Empty if Pass is true.
	Errors []string
}

// NewResult creates a new passing result.
func NewResult(scenario, batch string) *Result {
	return &Result{
		Pass:     true,
		Scenario: scenario,
		Batch:    batch,
		Stored:   []store.Record{},
		Errors:   []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
