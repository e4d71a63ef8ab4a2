package chain

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/replychain/internal/ir"
)

// memWriter identifies records the way a faithful store would.
type memWriter struct {
	keys []string
	bad  bool
}

func (w *memWriter) PutRecord(_ context.Context, collection, rkey string, record ir.Object) (ir.ContentID, error) {
	w.keys = append(w.keys, collection+"/"+rkey)
	if w.bad {
		// Re-adding a field changes the bytes and therefore the identifier.
		record = record.With("extra", ir.Bool(true))
	}
	id, _, err := ir.RecordID(record)
	return id, err
}

type failingWriter struct{}

func (failingWriter) PutRecord(context.Context, string, string, ir.Object) (ir.ContentID, error) {
	return ir.ContentID{}, errors.New("disk full")
}

func TestWrites(t *testing.T) {
	c, err := testBuilder(t, "did:example:abc").Build(context.Background(), posts("Post 1", "Post 2"))
	require.NoError(t, err)

	writes := c.Writes()
	require.Len(t, writes, 2)

	op := writes[1].(ir.Object)
	typ, _ := op.Get("$type")
	assert.Equal(t, ir.String(ApplyWritesCreate), typ)
	rkey, _ := op.Get("rkey")
	assert.Equal(t, ir.String("3khxr26vou322"), rkey)
	value, _ := op.Get("value")
	assert.True(t, ir.Equal(c.Entries[1].Record, value))
}

func TestPersist(t *testing.T) {
	b := testBuilder(t, "did:example:abc")
	b.IdentifyLast = false

	c, err := b.Build(context.Background(), posts("Post 1", "Post 2"))
	require.NoError(t, err)

	w := &memWriter{}
	require.NoError(t, c.Persist(context.Background(), w))
	assert.Equal(t, []string{
		"app.bsky.feed.post/3khxr26vou222",
		"app.bsky.feed.post/3khxr26vou322",
	}, w.keys)

	// The last record adopts the writer's identifier.
	assert.Equal(t, post2CID, c.Entries[1].CID.String())
}

func TestPersistDetectsMismatch(t *testing.T) {
	c, err := testBuilder(t, "did:example:abc").Build(context.Background(), posts("Post 1", "Post 2"))
	require.NoError(t, err)

	err = c.Persist(context.Background(), &memWriter{bad: true})
	assert.ErrorIs(t, err, ErrIdentifierMismatch)
}

func TestPersistWriterError(t *testing.T) {
	c, err := testBuilder(t, "did:example:abc").Build(context.Background(), posts("Post 1"))
	require.NoError(t, err)

	err = c.Persist(context.Background(), failingWriter{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
}

func TestStrongRefEqual(t *testing.T) {
	id := ir.MustParseContentID(post1CID)
	a := StrongRef{CID: id, URI: "at://x/app.bsky.feed.post/3khxr26vou222"}

	assert.True(t, a.Equal(StrongRef{CID: ir.MustParseContentID(post1CID), URI: a.URI}))
	assert.False(t, a.Equal(StrongRef{CID: id, URI: a.URI + "x"}))
	assert.False(t, a.Equal(StrongRef{CID: ir.MustParseContentID(post2CID), URI: a.URI}))
}

func TestFixedGeneratorExhausted(t *testing.T) {
	g := NewFixedGenerator("only")
	assert.Equal(t, "only", g.Generate())
	assert.Panics(t, func() { g.Generate() })
}

func TestUUIDv7GeneratorUnique(t *testing.T) {
	g := UUIDv7Generator{}
	a, b := g.Generate(), g.Generate()
	assert.Len(t, a, 36)
	assert.NotEqual(t, a, b)
}
