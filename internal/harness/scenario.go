package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Scenario defines one chain-building test.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Thread is the path of the thread document (YAML or CUE).
	// Relative paths are resolved against the scenario file's directory.
	Thread string `yaml:"thread"`

	// Clock is the fixed start time (RFC 3339) the fake clock reports.
	Clock string `yaml:"clock"`

	// ClockID is embedded in every record key.
	ClockID uint16 `yaml:"clock_id,omitempty"`

	// Batch is the fixed batch id. Defaults to DefaultBatch.
	Batch string `yaml:"batch,omitempty"`

	// IdentifyLast asks the builder to identify the final record too.
	IdentifyLast bool `yaml:"identify_last,omitempty"`

	// Assertions validate the built and stored chain.
	Assertions []Assertion `yaml:"assertions"`
}

// DefaultBatch is the batch id used when a scenario does not set one.
const DefaultBatch = "test-batch"

// Assertion validates one property of a scenario result.
type Assertion struct {
	// Type selects the check; see the Assert* constants.
	Type string `yaml:"type"`

	// Index selects a record (used by cid, rkey, no_reply).
	Index int `yaml:"index,omitempty"`

	// CID is the expected identifier string (used by cid).
	CID string `yaml:"cid,omitempty"`

	// Key is the expected record key (used by rkey).
	Key string `yaml:"key,omitempty"`

	// Count is the expected number of stored records (used by record_count).
	Count int `yaml:"count,omitempty"`

	// Code is the expected error code (used by build_error).
	Code string `yaml:"code,omitempty"`
}

// Assertion type constants.
const (
	AssertRecordCount    = "record_count"
	AssertChainLinked    = "chain_linked"
	AssertKeysIncreasing = "keys_increasing"
	AssertCID            = "cid"
	AssertRKey           = "rkey"
	AssertNoReply        = "no_reply"
	AssertBuildError     = "build_error"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Strict field validation catches typos like "assertion:" vs "assertions:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if scenario.Thread != "" && !filepath.IsAbs(scenario.Thread) {
		scenario.Thread = filepath.Join(filepath.Dir(path), scenario.Thread)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if s.Thread == "" {
		return fmt.Errorf("thread is required")
	}
	if _, err := os.Stat(s.Thread); os.IsNotExist(err) {
		return fmt.Errorf("thread file not found: %s", s.Thread)
	}

	if _, err := time.Parse(time.RFC3339Nano, s.Clock); err != nil {
		return fmt.Errorf("clock: %w", err)
	}

	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i := range s.Assertions {
		if err := validateAssertion(i, &s.Assertions[i]); err != nil {
			return err
		}
	}

	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertChainLinked, AssertKeysIncreasing, AssertNoReply:
	case AssertRecordCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for record_count", index)
		}
	case AssertCID:
		if a.CID == "" {
			return fmt.Errorf("assertions[%d]: cid is required for cid", index)
		}
	case AssertRKey:
		if a.Key == "" {
			return fmt.Errorf("assertions[%d]: key is required for rkey", index)
		}
	case AssertBuildError:
		if a.Code == "" {
			return fmt.Errorf("assertions[%d]: code is required for build_error", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
