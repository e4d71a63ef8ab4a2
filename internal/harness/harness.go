package harness

import (
	"context"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/roach88/replychain/internal/chain"
	"github.com/roach88/replychain/internal/compiler"
	"github.com/roach88/replychain/internal/store"
)

// Run executes a scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database. The clock and batch id
// are fixed, so the same scenario always produces the same keys, records and
// identifiers.
//
// A build failure is not an error of Run: it is recorded in Result.BuildErr
// for build_error assertions to inspect. Errors are returned only when the
// scenario itself cannot be executed.
func Run(scenario *Scenario) (*Result, error) {
	thread, err := compiler.LoadThread(scenario.Thread)
	if err != nil {
		return nil, fmt.Errorf("failed to load thread: %w", err)
	}

	start, err := time.Parse(time.RFC3339Nano, scenario.Clock)
	if err != nil {
		return nil, fmt.Errorf("invalid clock: %w", err)
	}

	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	batch := scenario.Batch
	if batch == "" {
		batch = DefaultBatch
	}

	builder := &chain.Builder{
		Collection:   thread.Collection,
		BaseLocator:  thread.BaseLocator(),
		Clock:        clockwork.NewFakeClockAt(start),
		ClockID:      scenario.ClockID,
		IdentifyLast: scenario.IdentifyLast,
		BatchIDs:     chain.NewFixedGenerator(batch),
	}

	ctx := context.Background()
	result := NewResult(scenario.Name, batch)
	result.BaseLocator = thread.BaseLocator()

	c, err := builder.Build(ctx, thread.Posts)
	if err != nil {
		result.BuildErr = err
	} else {
		if err := st.WriteChain(ctx, c); err != nil {
			return nil, fmt.Errorf("failed to write chain: %w", err)
		}
		result.Collection = c.Collection
		result.Entries = c.Entries
	}

	stored, err := st.ListBatch(ctx, batch)
	if err != nil {
		return nil, fmt.Errorf("failed to read back chain: %w", err)
	}
	result.Stored = stored

	for _, msg := range checkStored(result) {
		result.AddError(msg)
	}
	for _, msg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(msg)
	}

	return result, nil
}

// checkStored compares what was read back with what was built.
func checkStored(r *Result) []string {
	if r.BuildErr != nil {
		return nil
	}
	if len(r.Stored) != len(r.Entries) {
		return []string{fmt.Sprintf("stored %d records, built %d", len(r.Stored), len(r.Entries))}
	}
	var errs []string
	for i, e := range r.Entries {
		s := r.Stored[i]
		if s.RKey != e.Key.String() || !s.CID.Equal(e.CID) {
			errs = append(errs, fmt.Sprintf("record %d: stored %s@%s, built %s@%s", i, s.RKey, s.CID, e.Key, e.CID))
		}
	}
	return errs
}
