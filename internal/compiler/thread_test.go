package compiler

import (
	"os"
	"path/filepath"
	"testing"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/replychain/internal/ir"
)

const testBlobCID = "bafkreier5qavjovxx3er6af2gzjpvam4agjgteh4md4t7g3au3quzv643y"

func TestCompileThreadCUE(t *testing.T) {
	thread, err := CompileThreadCUE([]byte(`
repo: "did:plc:ia76kvnndjutgedggx2ibrem"
collection: "app.bsky.feed.post"
posts: [
	{text: "Post 1"},
	{
		text: "Post 2"
		embed: {
			"$type": "app.bsky.embed.images"
			images: [{
				image: {
					"$type": "blob"
					ref: {"$link": "`+testBlobCID+`"}
					mimeType: "image/png"
					size: 318572
				}
				alt: ""
			}]
		}
	},
]
`), "thread.cue")
	require.NoError(t, err)

	assert.Equal(t, "did:plc:ia76kvnndjutgedggx2ibrem", thread.Repo)
	assert.Equal(t, "at://did:plc:ia76kvnndjutgedggx2ibrem", thread.BaseLocator())
	assert.Equal(t, "app.bsky.feed.post", thread.Collection)
	require.Len(t, thread.Posts, 2)
	assert.Equal(t, ir.Object{ir.F("text", ir.String("Post 1"))}, thread.Posts[0])
	assert.Equal(t, []string{"text", "embed"}, thread.Posts[1].Keys())

	embed, _ := thread.Posts[1].Get("embed")
	images, _ := embed.(ir.Object).Get("images")
	image, _ := images.(ir.Array)[0].(ir.Object).Get("image")
	want := ir.NewBlobRef(ir.MustParseContentID(testBlobCID), "image/png", 318572)
	assert.True(t, ir.Equal(want, image), "blob-shaped struct becomes a placeholder")
}

func TestCompileThreadCUEMatchesYAML(t *testing.T) {
	fromCUE, err := CompileThreadCUE([]byte(`
repo: "did:example:abc"
posts: [{text: "a", n: 1, f: 1.5, ok: true, none: null, tags: ["x", "y"]}]
`), "t.cue")
	require.NoError(t, err)

	fromYAML, err := ParseThreadYAML([]byte(`
repo: did:example:abc
posts:
  - {text: a, n: 1, f: 1.5, ok: true, none: null, tags: [x, y]}
`))
	require.NoError(t, err)

	require.Len(t, fromCUE.Posts, 1)
	assert.Equal(t, fromYAML.Posts[0], fromCUE.Posts[0])
	assert.Equal(t, ir.MustEncode(fromYAML.Posts[0]), ir.MustEncode(fromCUE.Posts[0]))
}

func TestValueFromCUEScalars(t *testing.T) {
	ctx := cuecontext.New()
	tests := []struct {
		src  string
		want ir.Value
	}{
		{`null`, ir.Null{}},
		{`true`, ir.Bool(true)},
		{`-3`, ir.Int(-3)},
		{`2.5`, ir.Float(2.5)},
		{`"hi"`, ir.String("hi")},
		{`'\x01\x02'`, ir.Bytes{1, 2}},
		{`[1, "a"]`, ir.Array{ir.Int(1), ir.String("a")}},
		{`{"$bytes": "AQI"}`, ir.Bytes{1, 2}},
	}

	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			v, err := ValueFromCUE(ctx.CompileString(tt.src))
			require.NoError(t, err)
			assert.Equal(t, tt.want, v)
		})
	}
}

func TestValueFromCUESkipsOptionalAndHidden(t *testing.T) {
	ctx := cuecontext.New()
	v := ctx.CompileString(`{
	b: 1
	a?: int
	_hidden: 2
	#Def: {x: int}
	c: "z"
}`)
	got, err := ValueFromCUE(v)
	require.NoError(t, err)
	assert.Equal(t, ir.Object{ir.F("b", ir.Int(1)), ir.F("c", ir.String("z"))}, got)
}

func TestValueFromCUERejectsIncomplete(t *testing.T) {
	ctx := cuecontext.New()
	_, err := ValueFromCUE(ctx.CompileString(`{text: string}`))
	require.Error(t, err)

	var ce *CompileError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "text", ce.Field)
}

func TestCompileThreadIncomplete(t *testing.T) {
	ctx := cuecontext.New()
	v := ctx.CompileString(`
repo: "did:example:abc"
posts: [{text: string}]
`, cue.Filename("bad.cue"))

	_, err := CompileThread(v)
	assert.Error(t, err)
}

func TestParseThreadYAML(t *testing.T) {
	thread, err := ParseThreadYAML([]byte(`
repo: did:example:abc
posts:
  - text: Post 1
  - text: Post 2
    langs: !absent
    embed:
      $type: app.bsky.embed.images
      images:
        - image: !blob {ref: ` + testBlobCID + `, mimeType: image/png, size: 318572}
          alt: ""
`))
	require.NoError(t, err)
	assert.Equal(t, "", thread.Collection)
	require.Len(t, thread.Posts, 2)
	assert.True(t, thread.Posts[1].Has("langs"), "absent entries survive until canonicalization")
}

func TestThreadErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		field string
	}{
		{"missing repo", "posts: []\n", "repo"},
		{"repo with slash", "repo: did:x/y\n", "repo"},
		{"repo not string", "repo: 5\n", "repo"},
		{"bad collection", "repo: did:x\ncollection: post\n", "collection"},
		{"collection bad char", "repo: did:x\ncollection: app.bsky.feed_post\n", "collection"},
		{"posts not list", "repo: did:x\nposts: {}\n", "posts"},
		{"post not mapping", "repo: did:x\nposts: [1]\n", "posts[0]"},
		{"unknown field", "repo: did:x\nextra: 1\n", "extra"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseThreadYAML([]byte(tt.input))
			require.Error(t, err)
			var ce *CompileError
			require.ErrorAs(t, err, &ce)
			assert.Equal(t, tt.field, ce.Field)
		})
	}
}

func TestParseThreadYAMLNotMapping(t *testing.T) {
	_, err := ParseThreadYAML([]byte("- 1\n- 2\n"))
	var ce *CompileError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "document", ce.Field)
}

func TestLoadThread(t *testing.T) {
	dir := t.TempDir()

	cuePath := filepath.Join(dir, "thread.cue")
	require.NoError(t, os.WriteFile(cuePath, []byte(`repo: "did:example:abc"
posts: [{text: "hi"}]
`), 0o644))

	yamlPath := filepath.Join(dir, "thread.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte("repo: did:example:abc\nposts:\n  - text: hi\n"), 0o644))

	a, err := LoadThread(cuePath)
	require.NoError(t, err)
	b, err := LoadThread(yamlPath)
	require.NoError(t, err)
	assert.Equal(t, a, b)

	_, err = LoadThread(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestCompileErrorFormat(t *testing.T) {
	err := &CompileError{Field: "repo", Message: "repo is required"}
	assert.Equal(t, "repo: repo is required", err.Error())
}
