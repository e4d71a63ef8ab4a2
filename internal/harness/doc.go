// Package harness runs chain-building scenarios end to end and snapshots the
// result for golden comparison.
//
// A scenario names a thread document, a fixed clock and a set of
// assertions. Run compiles the thread, builds the chain against a fake clock,
// writes it to a fresh in-memory store and reads it back, so a scenario
// exercises the compiler, builder and store together.
//
// Golden files live in testdata/golden/{scenario.Name}.golden. To regenerate
// them, run:
//
//	go test ./internal/harness -update
package harness
