package store

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/roach88/replychain/internal/ir"
)

// Problem describes one stored item that failed verification.
type Problem struct {
	Kind   string `json:"kind"` // "record" or "blob"
	Key    string `json:"key"`  // collection/rkey for records, cid for blobs
	Reason string `json:"reason"`
}

// VerifyReport summarizes a Verify pass.
type VerifyReport struct {
	Records  int
	Blobs    int
	Problems []Problem
}

// OK reports whether every item verified.
func (r VerifyReport) OK() bool {
	return len(r.Problems) == 0
}

// Verify re-hashes every stored record and blob. Records must also decode as
// canonical DAG-CBOR. Problems are collected rather than returned as errors;
// the error result is for failures to read the database.
func (s *Store) Verify(ctx context.Context) (VerifyReport, error) {
	var report VerifyReport

	if err := s.verifyRecords(ctx, &report); err != nil {
		return VerifyReport{}, err
	}
	if err := s.verifyBlobs(ctx, &report); err != nil {
		return VerifyReport{}, err
	}

	s.logger.Info("verify finished",
		zap.Int("records", report.Records),
		zap.Int("blobs", report.Blobs),
		zap.Int("problems", len(report.Problems)),
	)
	return report, nil
}

func (s *Store) verifyRecords(ctx context.Context, report *VerifyReport) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT collection, rkey, cid, data
		FROM records
		ORDER BY collection, rkey COLLATE BINARY ASC
	`)
	if err != nil {
		return fmt.Errorf("verify records: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var collection, rkey, cidStr string
		var data []byte
		if err := rows.Scan(&collection, &rkey, &cidStr, &data); err != nil {
			return fmt.Errorf("verify records: %w", err)
		}
		report.Records++

		key := collection + "/" + rkey
		if reason := checkRecord(cidStr, data); reason != "" {
			report.Problems = append(report.Problems, Problem{Kind: "record", Key: key, Reason: reason})
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("verify records: %w", err)
	}
	return nil
}

func checkRecord(cidStr string, data []byte) string {
	stored, err := ir.ParseContentID(cidStr)
	if err != nil {
		return "unparseable cid: " + err.Error()
	}
	computed, err := ir.Identify(data, ir.CodecDagCBOR)
	if err != nil {
		return err.Error()
	}
	if !computed.Equal(stored) {
		return fmt.Sprintf("bytes hash to %s, stored %s", computed, stored)
	}
	if _, err := ir.DecodeCanonical(data); err != nil {
		return err.Error()
	}
	return ""
}

func (s *Store) verifyBlobs(ctx context.Context, report *VerifyReport) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT cid, size, data
		FROM blobs
		ORDER BY cid COLLATE BINARY ASC
	`)
	if err != nil {
		return fmt.Errorf("verify blobs: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var cidStr string
		var size int64
		var data []byte
		if err := rows.Scan(&cidStr, &size, &data); err != nil {
			return fmt.Errorf("verify blobs: %w", err)
		}
		report.Blobs++

		computed, err := ir.Identify(data, ir.CodecRaw)
		switch {
		case err != nil:
			report.Problems = append(report.Problems, Problem{Kind: "blob", Key: cidStr, Reason: err.Error()})
		case computed.String() != cidStr:
			report.Problems = append(report.Problems, Problem{Kind: "blob", Key: cidStr, Reason: "bytes hash to " + computed.String()})
		case int64(len(data)) != size:
			report.Problems = append(report.Problems, Problem{Kind: "blob", Key: cidStr, Reason: fmt.Sprintf("size %d, stored %d", len(data), size)})
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("verify blobs: %w", err)
	}
	return nil
}
