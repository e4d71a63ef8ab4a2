package harness

import (
	"fmt"
	"strings"

	"github.com/roach88/replychain/internal/ir"
)

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string
	Expected string
	Actual   string
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)
	return buf.String()
}

// EvaluateAssertions runs every assertion and returns the failure messages.
//
// A build error that no build_error assertion expects is itself a failure.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var errs []string
	expectsBuildError := false

	for _, a := range assertions {
		if a.Type == AssertBuildError {
			expectsBuildError = true
		}
		if err := evaluate(result, a); err != nil {
			errs = append(errs, err.Error())
		}
	}

	if result.BuildErr != nil && !expectsBuildError {
		errs = append(errs, (&AssertionError{
			Type:     "build",
			Expected: "chain builds",
			Actual:   result.BuildErr.Error(),
		}).Error())
	}
	return errs
}

func evaluate(r *Result, a Assertion) error {
	switch a.Type {
	case AssertRecordCount:
		return assertRecordCount(r, a)
	case AssertChainLinked:
		return assertChainLinked(r)
	case AssertKeysIncreasing:
		return assertKeysIncreasing(r)
	case AssertCID:
		return assertCID(r, a)
	case AssertRKey:
		return assertRKey(r, a)
	case AssertNoReply:
		return assertNoReply(r, a)
	case AssertBuildError:
		return assertBuildError(r, a)
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
}

func assertRecordCount(r *Result, a Assertion) error {
	if len(r.Stored) != a.Count {
		return &AssertionError{
			Type:     AssertRecordCount,
			Expected: fmt.Sprintf("%d stored records", a.Count),
			Actual:   fmt.Sprintf("%d", len(r.Stored)),
		}
	}
	return nil
}

// assertChainLinked checks every stored record after the first: its reply
// parent is the previous stored record and its root is the first.
func assertChainLinked(r *Result) error {
	if r.BuildErr != nil {
		return &AssertionError{Type: AssertChainLinked, Expected: "a built chain", Actual: "build failed"}
	}
	for i, rec := range r.Stored {
		reply, ok := rec.Value.Get("reply")
		if i == 0 {
			if ok {
				return &AssertionError{Type: AssertChainLinked, Expected: "record 0 without reply", Actual: "reply present"}
			}
			continue
		}
		if !ok {
			return &AssertionError{Type: AssertChainLinked, Expected: fmt.Sprintf("record %d with reply", i), Actual: "no reply"}
		}

		wantParent := r.Stored[i-1]
		wantRoot := r.Stored[0]
		if err := checkRef(reply, "parent", wantParent.CID.String(), wantParent.URI(r.BaseLocator)); err != nil {
			return &AssertionError{Type: AssertChainLinked, Expected: fmt.Sprintf("record %d parent = record %d", i, i-1), Actual: err.Error()}
		}
		if err := checkRef(reply, "root", wantRoot.CID.String(), wantRoot.URI(r.BaseLocator)); err != nil {
			return &AssertionError{Type: AssertChainLinked, Expected: fmt.Sprintf("record %d root = record 0", i), Actual: err.Error()}
		}
	}
	return nil
}

func checkRef(reply ir.Value, field, cid, uri string) error {
	obj, ok := reply.(ir.Object)
	if !ok {
		return fmt.Errorf("reply is %T", reply)
	}
	ref, ok := obj.Get(field)
	if !ok {
		return fmt.Errorf("reply.%s missing", field)
	}
	want := ir.Object{ir.F("cid", ir.String(cid)), ir.F("uri", ir.String(uri))}
	if !ir.Equal(want, ref) {
		got, _ := ir.MarshalJSON(ref)
		return fmt.Errorf("reply.%s = %s", field, got)
	}
	return nil
}

func assertKeysIncreasing(r *Result) error {
	for i := 1; i < len(r.Stored); i++ {
		prev, cur := r.Stored[i-1].RKey, r.Stored[i].RKey
		if cur <= prev {
			return &AssertionError{
				Type:     AssertKeysIncreasing,
				Expected: fmt.Sprintf("key %d > key %d", i, i-1),
				Actual:   fmt.Sprintf("%s <= %s", cur, prev),
			}
		}
	}
	return nil
}

func storedAt(r *Result, typ string, index int) (int, error) {
	if index < 0 || index >= len(r.Stored) {
		return 0, &AssertionError{
			Type:     typ,
			Expected: fmt.Sprintf("record %d", index),
			Actual:   fmt.Sprintf("%d records stored", len(r.Stored)),
		}
	}
	return index, nil
}

func assertCID(r *Result, a Assertion) error {
	i, err := storedAt(r, AssertCID, a.Index)
	if err != nil {
		return err
	}
	if got := r.Stored[i].CID.String(); got != a.CID {
		return &AssertionError{Type: AssertCID, Expected: a.CID, Actual: got}
	}
	return nil
}

func assertRKey(r *Result, a Assertion) error {
	i, err := storedAt(r, AssertRKey, a.Index)
	if err != nil {
		return err
	}
	if got := r.Stored[i].RKey; got != a.Key {
		return &AssertionError{Type: AssertRKey, Expected: a.Key, Actual: got}
	}
	return nil
}

func assertNoReply(r *Result, a Assertion) error {
	i, err := storedAt(r, AssertNoReply, a.Index)
	if err != nil {
		return err
	}
	if r.Stored[i].Value.Has("reply") {
		return &AssertionError{Type: AssertNoReply, Expected: fmt.Sprintf("record %d without reply", i), Actual: "reply present"}
	}
	return nil
}

func assertBuildError(r *Result, a Assertion) error {
	if r.BuildErr == nil {
		return &AssertionError{Type: AssertBuildError, Expected: a.Code, Actual: "chain built"}
	}
	if got := string(ir.CodeOf(r.BuildErr)); got != a.Code {
		return &AssertionError{Type: AssertBuildError, Expected: a.Code, Actual: r.BuildErr.Error()}
	}
	return nil
}
