package chain

import (
	"context"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/roach88/replychain/internal/ir"
	"github.com/roach88/replychain/internal/tid"
)

// DefaultCollection is the record type used when Builder.Collection is empty.
const DefaultCollection = "app.bsky.feed.post"

// CreatedAtLayout is the timestamp format stamped into createdAt.
const CreatedAtLayout = "2006-01-02T15:04:05.000Z"

// Record fields owned by the builder. A payload may not set them.
const (
	FieldType      = "$type"
	FieldReply     = "reply"
	FieldCreatedAt = "createdAt"
)

// Builder turns payloads into a linked chain of canonical records.
//
// The zero value is usable: it builds app.bsky.feed.post records against the
// real clock with logging disabled. A Builder holds no per-chain state and may
// be reused; every Build starts a fresh key cursor.
type Builder struct {
	// Collection is the record type ($type) and the middle segment of every
	// record locator.
	Collection string

	// BaseLocator prefixes every record locator, e.g. "at://did:plc:xyz".
	BaseLocator string

	// Clock supplies both record keys and createdAt stamps.
	Clock clockwork.Clock

	// ClockID is embedded in every record key.
	ClockID uint16

	// Logger receives one debug line per record and one info line per chain.
	Logger *zap.Logger

	// IdentifyLast also computes the identifier of the final record. Nothing
	// inside the chain needs it; callers that persist or print it do.
	IdentifyLast bool

	// BatchIDs names each build. Defaults to UUIDv7Generator.
	BatchIDs BatchIDGenerator
}

// Entry is one finalized record of a chain.
type Entry struct {
	// Key is the record key (rkey).
	Key tid.TID

	// Record is the canonical record. These are exactly the fields that were
	// hashed, and exactly what must be stored.
	Record ir.Object

	// CID is the record's identifier. Zero for the last entry unless the
	// builder was asked to identify it.
	CID ir.ContentID

	// Ref is the StrongRef the next record links to. Zero when CID is.
	Ref StrongRef

	// Reply is the link embedded in Record. Nil for the first entry.
	Reply *ReplyLink
}

// Identified reports whether the entry's identifier was computed.
func (e Entry) Identified() bool {
	return e.CID.Defined()
}

// Chain is the result of one Build.
type Chain struct {
	Batch      string
	Collection string
	Entries    []Entry
}

// Len returns the number of records.
func (c *Chain) Len() int {
	return len(c.Entries)
}

// Root returns the StrongRef of the first record, if it was identified.
func (c *Chain) Root() (StrongRef, bool) {
	if len(c.Entries) == 0 || !c.Entries[0].Identified() {
		return StrongRef{}, false
	}
	return c.Entries[0].Ref, true
}

// Build produces one record per payload, in order.
//
// Payloads are not modified. A payload that sets $type or reply fails with
// ir.ErrCodeReservedFieldConflict. Any error, including ctx cancellation,
// discards the whole chain.
func (b *Builder) Build(ctx context.Context, payloads []ir.Object) (*Chain, error) {
	collection := b.Collection
	if collection == "" {
		collection = DefaultCollection
	}
	clock := b.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	logger := b.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	gen := b.BatchIDs
	if gen == nil {
		gen = UUIDv7Generator{}
	}

	batch := gen.Generate()
	logger = logger.With(zap.String("batch", batch), zap.String("collection", collection))

	cursor := tid.NewCursor(clock, b.ClockID)
	start := clock.Now().UTC()

	out := &Chain{
		Batch:      batch,
		Collection: collection,
		Entries:    make([]Entry, 0, len(payloads)),
	}

	var root, parent StrongRef
	for i, payload := range payloads {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		key, err := cursor.Next()
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}

		var reply *ReplyLink
		if i > 0 {
			reply = &ReplyLink{Root: root, Parent: parent}
		}

		record, err := assemble(payload, collection, start.Add(time.Duration(i)*time.Millisecond), reply)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}

		entry := Entry{Key: key, Record: record, Reply: reply}

		if i < len(payloads)-1 || b.IdentifyLast {
			id, _, err := ir.RecordID(record)
			if err != nil {
				return nil, fmt.Errorf("record %d: %w", i, err)
			}
			entry.CID = id
			entry.Ref = StrongRef{CID: id, URI: Locator(b.BaseLocator, collection, key)}

			if i == 0 {
				root = entry.Ref
			}
			parent = entry.Ref
		}

		logger.Debug("record built",
			zap.Int("index", i),
			zap.Stringer("rkey", key),
			zap.String("cid", entry.CID.String()),
		)
		out.Entries = append(out.Entries, entry)
	}

	logger.Info("chain built", zap.Int("records", len(out.Entries)))
	return out, nil
}

// assemble merges a payload with the builder-owned fields and canonicalizes
// the result.
func assemble(payload ir.Object, collection string, createdAt time.Time, reply *ReplyLink) (ir.Object, error) {
	for _, key := range []string{FieldType, FieldReply} {
		if payload.Has(key) {
			return nil, ir.NewReservedFieldError(key)
		}
	}

	record := make(ir.Object, 0, len(payload)+3)
	record = append(record, ir.F(FieldType, ir.String(collection)))
	if !payload.Has(FieldCreatedAt) {
		record = append(record, ir.F(FieldCreatedAt, ir.String(createdAt.Format(CreatedAtLayout))))
	}
	record = append(record, payload...)
	if reply != nil {
		record = append(record, ir.F(FieldReply, reply.Value()))
	}

	canonical, err := ir.Canonicalize(record)
	if err != nil {
		return nil, err
	}
	obj, ok := canonical.(ir.Object)
	if !ok {
		// Canonicalizing an Object always yields an Object.
		return nil, &ir.Error{Code: ir.ErrCodeMalformedValue, Message: fmt.Sprintf("record canonicalized to %T", canonical)}
	}
	return obj, nil
}
