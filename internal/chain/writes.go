package chain

import (
	"context"
	"errors"
	"fmt"

	"github.com/roach88/replychain/internal/ir"
)

// ApplyWritesCreate is the $type of a create operation in an applyWrites batch.
const ApplyWritesCreate = "com.atproto.repo.applyWrites#create"

// ErrIdentifierMismatch is returned when a writer reports a different
// identifier than the one computed while building the chain.
var ErrIdentifierMismatch = errors.New("chain: stored identifier does not match computed identifier")

// RecordWriter persists one canonical record and returns the identifier of
// the bytes it stored. It must store exactly ir.Encode(record).
type RecordWriter interface {
	PutRecord(ctx context.Context, collection, rkey string, record ir.Object) (ir.ContentID, error)
}

// BlobUploader stores raw bytes and returns the placeholder that records
// embed to reference them.
type BlobUploader interface {
	UploadBlob(ctx context.Context, data []byte, mimeType string) (*ir.BlobRef, error)
}

// Writes renders the chain as applyWrites create operations, in chain order.
func (c *Chain) Writes() ir.Array {
	writes := make(ir.Array, 0, len(c.Entries))
	for _, e := range c.Entries {
		writes = append(writes, ir.Object{
			ir.F("$type", ir.String(ApplyWritesCreate)),
			ir.F("collection", ir.String(c.Collection)),
			ir.F("rkey", ir.String(e.Key.String())),
			ir.F("value", e.Record),
		})
	}
	return writes
}

// Persist writes every record in order and checks each returned identifier
// against the computed one. Entries that were not identified adopt the
// writer's identifier.
func (c *Chain) Persist(ctx context.Context, w RecordWriter) error {
	for i := range c.Entries {
		e := &c.Entries[i]
		rkey := e.Key.String()

		id, err := w.PutRecord(ctx, c.Collection, rkey, e.Record)
		if err != nil {
			return fmt.Errorf("put %s/%s: %w", c.Collection, rkey, err)
		}
		if !e.Identified() {
			e.CID = id
			continue
		}
		if !id.Equal(e.CID) {
			return fmt.Errorf("%w: %s/%s computed %s, stored %s", ErrIdentifierMismatch, c.Collection, rkey, e.CID, id)
		}
	}
	return nil
}
