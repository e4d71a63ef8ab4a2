package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testBlobCID = "bafkreier5qavjovxx3er6af2gzjpvam4agjgteh4md4t7g3au3quzv643y"

func testBlob() *BlobRef {
	return NewBlobRef(MustParseContentID(testBlobCID), "image/png", 318572)
}

func TestCanonicalizeScalarsUnchanged(t *testing.T) {
	tests := []struct {
		name  string
		input Value
	}{
		{"null", Null{}},
		{"absent at top level", Absent{}},
		{"bool", Bool(true)},
		{"int", Int(-7)},
		{"float", Float(1.25)},
		{"string", String("hello")},
		{"bytes", Bytes{1, 2, 3}},
		{"link", Link{CID: MustParseContentID(testBlobCID)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, changed, err := canonicalize(tt.input, "")
			require.NoError(t, err)
			assert.False(t, changed)
			assert.True(t, Equal(tt.input, out))
		})
	}
}

func TestCanonicalizeDropsAbsentObjectEntries(t *testing.T) {
	input := Object{
		F("a", Absent{}),
		F("b", Array{Int(1), Absent{}, Int(3)}),
	}

	out, err := Canonicalize(input)
	require.NoError(t, err)

	obj, ok := out.(Object)
	require.True(t, ok)
	assert.Equal(t, []string{"b"}, obj.Keys())

	// Array slots keep their Absent marker.
	arr, _ := obj.Get("b")
	assert.Equal(t, Array{Int(1), Absent{}, Int(3)}, arr)
}

func TestCanonicalizeDropsAbsentAtDepth(t *testing.T) {
	input := Object{
		F("outer", Object{
			F("inner", Object{
				F("gone", Absent{}),
				F("kept", String("x")),
			}),
		}),
		F("list", Array{Object{F("gone", Absent{}), F("n", Int(1))}}),
	}

	out := MustCanonicalize(input)

	want := Object{
		F("outer", Object{
			F("inner", Object{F("kept", String("x"))}),
		}),
		F("list", Array{Object{F("n", Int(1))}}),
	}
	assert.True(t, Equal(want, out), "got %#v", out)
}

func TestCanonicalizeNullIsNotAbsent(t *testing.T) {
	input := Object{F("n", Null{})}

	out, changed, err := canonicalize(input, "")
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, input, out)
}

func TestCanonicalizeReplacesNestedBlob(t *testing.T) {
	input := Object{
		F("text", String("Post 2")),
		F("embed", Object{
			F("image", testBlob()),
			F("alt", String("")),
		}),
	}

	out := MustCanonicalize(input)

	obj := out.(Object)
	assert.Equal(t, []string{"text", "embed"}, obj.Keys(), "surrounding structure keeps its order")

	embed, _ := obj.Get("embed")
	image, _ := embed.(Object).Get("image")
	want := Object{
		F("$type", String("blob")),
		F("ref", Link{CID: MustParseContentID(testBlobCID)}),
		F("mimeType", String("image/png")),
		F("size", Int(318572)),
	}
	assert.True(t, Equal(want, image))

	alt, _ := embed.(Object).Get("alt")
	assert.Equal(t, String(""), alt)
}

func TestCanonicalizeFastPathReturnsInput(t *testing.T) {
	arr := Array{Int(1), String("two")}
	obj := Object{F("arr", arr), F("s", String("x"))}

	out, changed, err := canonicalize(obj, "")
	require.NoError(t, err)
	assert.False(t, changed)

	got := out.(Object)
	// Same backing array: nothing was copied.
	assert.Same(t, &obj[0], &got[0])
}

func TestCanonicalizeArrayCopiesOnChange(t *testing.T) {
	arr := Array{Int(1), testBlob(), Int(3)}

	out, changed, err := canonicalize(arr, "")
	require.NoError(t, err)
	assert.True(t, changed)

	got := out.(Array)
	require.Len(t, got, 3)
	assert.Equal(t, Int(1), got[0])
	assert.IsType(t, Object{}, got[1])
	assert.Equal(t, Int(3), got[2])

	// The input is untouched.
	assert.IsType(t, &BlobRef{}, arr[1])
}

func TestCanonicalizeIdempotent(t *testing.T) {
	inputs := []Value{
		Object{F("a", Absent{}), F("b", Array{Int(1), Absent{}, Int(3)})},
		Object{F("img", testBlob()), F("x", Object{F("y", Absent{})})},
		Array{testBlob(), Object{F("z", Absent{})}},
		String("plain"),
	}

	for _, input := range inputs {
		once := MustCanonicalize(input)
		twice, changed, err := canonicalize(once, "")
		require.NoError(t, err)
		assert.False(t, changed, "second pass must be a no-op")
		assert.True(t, Equal(once, twice))
	}
}

func TestCanonicalizeRejectsNilValue(t *testing.T) {
	_, err := Canonicalize(Object{F("text", String("ok")), F("broken", nil)})
	require.Error(t, err)
	assert.True(t, IsCode(err, ErrCodeMalformedValue))

	var e *Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, "broken", e.Path)
}

func TestCanonicalizeRejectsNilBlob(t *testing.T) {
	var blob *BlobRef
	_, err := Canonicalize(Array{blob})
	assert.True(t, IsCode(err, ErrCodeMalformedValue))
}
