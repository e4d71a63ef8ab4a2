package harness

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/replychain/internal/chain"
	"github.com/roach88/replychain/internal/ir"
)

// Snapshot renders a result as indented JSON for golden comparison.
//
// Records are rendered from the built entries, so keys appear in the order
// the record was assembled. A failed build renders only its error code.
func Snapshot(result *Result) ([]byte, error) {
	snap := ir.Object{ir.F("scenario", ir.String(result.Scenario))}

	if result.BuildErr != nil {
		msg := string(ir.CodeOf(result.BuildErr))
		if msg == "" {
			msg = result.BuildErr.Error()
		}
		snap = append(snap, ir.F("error", ir.String(msg)))
	} else {
		records := ir.Array{}
		for _, e := range result.Entries {
			records = append(records, ir.Object{
				ir.F("rkey", ir.String(e.Key.String())),
				ir.F("uri", ir.String(chain.Locator(result.BaseLocator, result.Collection, e.Key))),
				ir.F("cid", ir.String(e.CID.String())),
				ir.F("value", e.Record),
			})
		}
		snap = append(snap,
			ir.F("batch", ir.String(result.Batch)),
			ir.F("records", records),
		)
	}

	compact, err := ir.MarshalJSON(snap)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, compact, "", "  "); err != nil {
		return nil, err
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

// RunWithGolden executes a scenario and compares its snapshot against
// testdata/golden/{scenario.Name}.golden.
//
// Returns error if scenario execution fails.
// Test failure (via goldie) occurs if the snapshot doesn't match.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an existing result against its golden file without
// re-running the scenario.
func AssertGolden(t *testing.T, name string, result *Result) error {
	t.Helper()

	data, err := Snapshot(result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, data)
	return nil
}
