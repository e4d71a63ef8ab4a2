package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/roach88/replychain/internal/chain"
	"github.com/roach88/replychain/internal/ir"
)

var (
	_ chain.RecordWriter = (*Store)(nil)
	_ chain.BlobUploader = (*Store)(nil)
)

// PutRecord stores one canonical record and returns its identifier.
//
// Writing the same content to the same key again is a no-op. Writing
// different content to a taken key fails with ErrRecordConflict.
func (s *Store) PutRecord(ctx context.Context, collection, rkey string, record ir.Object) (ir.ContentID, error) {
	var id ir.ContentID
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		var err error
		id, err = putRecord(ctx, tx, collection, rkey, "", record)
		return err
	})
	if err != nil {
		return ir.ContentID{}, fmt.Errorf("put record: %w", err)
	}
	s.logger.Debug("record stored",
		zap.String("collection", collection),
		zap.String("rkey", rkey),
		zap.Stringer("cid", id),
	)
	return id, nil
}

// WriteChain stores every record of a chain in one transaction. Either all
// records are written or none are.
//
// Each identifier is checked against the one the chain computed; entries the
// chain did not identify take the stored identifier.
func (s *Store) WriteChain(ctx context.Context, c *chain.Chain) error {
	ids := make([]ir.ContentID, len(c.Entries))
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		for i, e := range c.Entries {
			rkey := e.Key.String()
			id, err := putRecord(ctx, tx, c.Collection, rkey, c.Batch, e.Record)
			if err != nil {
				return fmt.Errorf("%s/%s: %w", c.Collection, rkey, err)
			}
			if e.Identified() && !id.Equal(e.CID) {
				return fmt.Errorf("%w: %s/%s computed %s, stored %s",
					chain.ErrIdentifierMismatch, c.Collection, rkey, e.CID, id)
			}
			ids[i] = id
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("write chain %s: %w", c.Batch, err)
	}

	for i := range c.Entries {
		c.Entries[i].CID = ids[i]
	}
	s.logger.Info("chain stored",
		zap.String("batch", c.Batch),
		zap.Int("records", len(c.Entries)),
	)
	return nil
}

func putRecord(ctx context.Context, tx *sql.Tx, collection, rkey, batch string, record ir.Object) (ir.ContentID, error) {
	// Records arrive canonical; Encode rejects anything that is not.
	data, err := ir.Encode(record)
	if err != nil {
		return ir.ContentID{}, err
	}
	id, err := ir.Identify(data, ir.CodecDagCBOR)
	if err != nil {
		return ir.ContentID{}, err
	}

	var existing string
	err = tx.QueryRowContext(ctx,
		`SELECT cid FROM records WHERE collection = ? AND rkey = ?`,
		collection, rkey,
	).Scan(&existing)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return ir.ContentID{}, fmt.Errorf("lookup: %w", err)
	case existing == id.String():
		return id, nil
	default:
		return ir.ContentID{}, fmt.Errorf("%w: %s/%s holds %s", ErrRecordConflict, collection, rkey, existing)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO records (collection, rkey, cid, data, batch)
		VALUES (?, ?, ?, ?, ?)
	`, collection, rkey, id.String(), data, batch)
	if err != nil {
		return ir.ContentID{}, fmt.Errorf("insert: %w", err)
	}
	return id, nil
}

// UploadBlob stores raw bytes under their raw-codec identifier and returns
// the placeholder records use to reference them. Uploading the same bytes
// twice is a no-op.
func (s *Store) UploadBlob(ctx context.Context, data []byte, mimeType string) (*ir.BlobRef, error) {
	if mimeType == "" {
		return nil, errors.New("upload blob: mime type is required")
	}
	id, err := ir.Identify(data, ir.CodecRaw)
	if err != nil {
		return nil, fmt.Errorf("upload blob: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO blobs (cid, mime_type, size, data)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(cid) DO NOTHING
	`, id.String(), mimeType, len(data), data)
	if err != nil {
		return nil, fmt.Errorf("upload blob: %w", err)
	}

	s.logger.Debug("blob stored", zap.Stringer("cid", id), zap.Int("size", len(data)))
	return ir.NewBlobRef(id, mimeType, int64(len(data))), nil
}
