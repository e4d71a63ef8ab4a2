package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/replychain/internal/ir"
)

const helloCID = "bafkreibm6jg3ux5qumhcn2b3flc3tyu6dmlb4xa7u5bf44yegnrjhc4yeq"

func TestUploadBlob(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	ref, err := s.UploadBlob(ctx, []byte("hello"), "text/plain")
	require.NoError(t, err)
	assert.Equal(t, helloCID, ref.Ref.String())
	assert.Equal(t, ir.CodecRaw, ref.Ref.Codec())
	assert.Equal(t, "text/plain", ref.MimeType)
	assert.Equal(t, int64(5), ref.Size)

	again, err := s.UploadBlob(ctx, []byte("hello"), "text/plain")
	require.NoError(t, err)
	assert.True(t, ref.Equal(again))

	data, got, err := s.GetBlob(ctx, ref.Ref)
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), data)
	assert.True(t, ref.Equal(got))
}

func TestUploadBlob_RequiresMimeType(t *testing.T) {
	s := createTestStore(t)

	_, err := s.UploadBlob(context.Background(), []byte("x"), "")
	assert.Error(t, err)
}

func TestGetBlob_NotFound(t *testing.T) {
	s := createTestStore(t)

	_, _, err := s.GetBlob(context.Background(), ir.MustParseContentID(helloCID))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUploadedBlobInChain(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	ref, err := s.UploadBlob(ctx, []byte("hello"), "text/plain")
	require.NoError(t, err)

	record, err := ir.Canonicalize(ir.Object{
		ir.F("$type", ir.String("app.bsky.feed.post")),
		ir.F("attachment", ref),
	})
	require.NoError(t, err)

	_, err = s.PutRecord(ctx, "app.bsky.feed.post", "3khxr26vou222", record.(ir.Object))
	require.NoError(t, err)

	got, err := s.GetRecord(ctx, "app.bsky.feed.post", "3khxr26vou222")
	require.NoError(t, err)
	att, _ := got.Value.Get("attachment")
	link, _ := att.(ir.Object).Get("ref")
	assert.True(t, ir.Equal(ir.Link{CID: ref.Ref}, link))
}

func TestVerify_Clean(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.WriteChain(ctx, buildChain(t, "Post 1", "Post 2")))
	_, err := s.UploadBlob(ctx, []byte("hello"), "text/plain")
	require.NoError(t, err)

	report, err := s.Verify(ctx)
	require.NoError(t, err)
	assert.True(t, report.OK())
	assert.Equal(t, 2, report.Records)
	assert.Equal(t, 1, report.Blobs)
}

func TestVerify_DetectsCorruption(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	c := buildChain(t, "Post 1", "Post 2")
	require.NoError(t, s.WriteChain(ctx, c))
	_, err := s.UploadBlob(ctx, []byte("hello"), "text/plain")
	require.NoError(t, err)

	// Swap a record's bytes for a different (still canonical) record.
	other := ir.MustEncode(ir.Object{ir.F("text", ir.String("forged"))})
	_, err = s.DB().Exec(`UPDATE records SET data = ? WHERE rkey = ?`, other, c.Entries[0].Key.String())
	require.NoError(t, err)
	_, err = s.DB().Exec(`UPDATE blobs SET data = ?`, []byte("jello"))
	require.NoError(t, err)

	report, err := s.Verify(ctx)
	require.NoError(t, err)
	require.Len(t, report.Problems, 2)
	assert.Equal(t, "record", report.Problems[0].Kind)
	assert.Equal(t, c.Collection+"/"+c.Entries[0].Key.String(), report.Problems[0].Key)
	assert.Equal(t, "blob", report.Problems[1].Kind)

	_, err = s.GetRecord(ctx, c.Collection, c.Entries[0].Key.String())
	assert.ErrorIs(t, err, ErrCorrupt)

	_, _, err = s.GetBlob(ctx, ir.MustParseContentID(helloCID))
	assert.ErrorIs(t, err, ErrCorrupt)
}

func TestVerify_DetectsNonCanonicalBytes(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	// {"b":1,"a":2} with keys out of canonical order, stored under its own hash.
	data := []byte{0xa2, 0x61, 'b', 0x01, 0x61, 'a', 0x02}
	id, err := ir.Identify(data, ir.CodecDagCBOR)
	require.NoError(t, err)
	_, err = s.DB().Exec(
		`INSERT INTO records (collection, rkey, cid, data) VALUES (?, ?, ?, ?)`,
		"c", "k", id.String(), data,
	)
	require.NoError(t, err)

	report, err := s.Verify(ctx)
	require.NoError(t, err)
	require.Len(t, report.Problems, 1)
	assert.Contains(t, report.Problems[0].Reason, string(ir.ErrCodeNonCanonicalInput))
}
