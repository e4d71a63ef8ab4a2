package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/replychain/internal/ir"
)

// Record is one stored record.
type Record struct {
	Collection string
	RKey       string
	CID        ir.ContentID
	Value      ir.Object
	Batch      string
}

// URI returns the record locator under base.
func (r Record) URI(base string) string {
	return base + "/" + r.Collection + "/" + r.RKey
}

// GetRecord returns the record stored under collection/rkey.
// Returns ErrNotFound if there is none and ErrCorrupt if the stored bytes no
// longer hash to the stored identifier.
func (s *Store) GetRecord(ctx context.Context, collection, rkey string) (Record, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT collection, rkey, cid, data, batch
		FROM records
		WHERE collection = ? AND rkey = ?
	`, collection, rkey)

	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, fmt.Errorf("get record %s/%s: %w", collection, rkey, ErrNotFound)
	}
	if err != nil {
		return Record{}, fmt.Errorf("get record %s/%s: %w", collection, rkey, err)
	}
	return rec, nil
}

// ListRecords returns every record in a collection in key order.
// Returns an empty slice (not nil) if the collection is empty.
func (s *Store) ListRecords(ctx context.Context, collection string) ([]Record, error) {
	return s.queryRecords(ctx, `
		SELECT collection, rkey, cid, data, batch
		FROM records
		WHERE collection = ?
		ORDER BY rkey COLLATE BINARY ASC
	`, collection)
}

// ListBatch returns the records written by one WriteChain call, in key order.
func (s *Store) ListBatch(ctx context.Context, batch string) ([]Record, error) {
	return s.queryRecords(ctx, `
		SELECT collection, rkey, cid, data, batch
		FROM records
		WHERE batch = ?
		ORDER BY rkey COLLATE BINARY ASC
	`, batch)
}

func (s *Store) queryRecords(ctx context.Context, query string, args ...any) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	records := []Record{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate records: %w", err)
	}
	return records, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (Record, error) {
	var (
		rec    Record
		cidStr string
		data   []byte
	)
	if err := row.Scan(&rec.Collection, &rec.RKey, &cidStr, &data, &rec.Batch); err != nil {
		return Record{}, err
	}

	stored, err := ir.ParseContentID(cidStr)
	if err != nil {
		return Record{}, fmt.Errorf("%s/%s: %w", rec.Collection, rec.RKey, err)
	}
	computed, err := ir.Identify(data, ir.CodecDagCBOR)
	if err != nil {
		return Record{}, err
	}
	if !computed.Equal(stored) {
		return Record{}, fmt.Errorf("%w: %s/%s", ErrCorrupt, rec.Collection, rec.RKey)
	}

	v, err := ir.DecodeCanonical(data)
	if err != nil {
		return Record{}, fmt.Errorf("%s/%s: %w", rec.Collection, rec.RKey, err)
	}
	obj, ok := v.(ir.Object)
	if !ok {
		return Record{}, fmt.Errorf("%s/%s: stored value is %T, not a record", rec.Collection, rec.RKey, v)
	}

	rec.CID = stored
	rec.Value = obj
	return rec, nil
}

// GetBlob returns a blob's bytes and its reference.
func (s *Store) GetBlob(ctx context.Context, id ir.ContentID) ([]byte, *ir.BlobRef, error) {
	var (
		mimeType string
		size     int64
		data     []byte
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT mime_type, size, data FROM blobs WHERE cid = ?`,
		id.String(),
	).Scan(&mimeType, &size, &data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, fmt.Errorf("get blob %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("get blob %s: %w", id, err)
	}

	computed, err := ir.Identify(data, ir.CodecRaw)
	if err != nil {
		return nil, nil, err
	}
	if !computed.Equal(id) || int64(len(data)) != size {
		return nil, nil, fmt.Errorf("get blob %s: %w", id, ErrCorrupt)
	}
	return data, ir.NewBlobRef(id, mimeType, size), nil
}
