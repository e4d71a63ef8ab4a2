package ir

import (
	"bytes"
	"encoding/hex"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeScalars(t *testing.T) {
	tests := []struct {
		name     string
		input    Value
		expected string
	}{
		{"null", Null{}, "f6"},
		{"true", Bool(true), "f5"},
		{"false", Bool(false), "f4"},
		{"zero", Int(0), "00"},
		{"23", Int(23), "17"},
		{"24", Int(24), "1818"},
		{"1000", Int(1000), "1903e8"},
		{"-1", Int(-1), "20"},
		{"-25", Int(-25), "3818"},
		{"max int64", Int(math.MaxInt64), "1b7fffffffffffffff"},
		{"min int64", Int(math.MinInt64), "3b7fffffffffffffff"},
		{"float is always 64-bit", Float(1.5), "fb3ff8000000000000"},
		{"string", String("hi"), "626869"},
		{"bytes", Bytes{1, 2}, "420102"},
		{"nil bytes", Bytes(nil), "40"},
		{"empty array", Array{}, "80"},
		{"empty object", Object{}, "a0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := Encode(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, hex.EncodeToString(data))
		})
	}
}

func TestEncodeSortsKeysLengthFirst(t *testing.T) {
	obj := Object{
		F("a", Int(1)),
		F("bb", Int(2)),
		F("b", Int(3)),
	}

	data, err := Encode(obj)
	require.NoError(t, err)
	assert.Equal(t, "a361610161620362626202", hex.EncodeToString(data))
}

func TestEncodeIgnoresInsertionOrder(t *testing.T) {
	a := Object{F("text", String("x")), F("$type", String("t"))}
	b := Object{F("$type", String("t")), F("text", String("x"))}

	ea := MustEncode(a)
	eb := MustEncode(b)
	assert.Equal(t, ea, eb)
	assert.Equal(t, "a2647465787461786524747970656174", hex.EncodeToString(ea))
}

func TestEncodeKeyOrderProperty(t *testing.T) {
	obj := Object{
		F("zebra", Int(1)),
		F("$type", Int(2)),
		F("a", Int(3)),
		F("createdAt", Int(4)),
		F("Z", Int(5)),
		F("text", Int(6)),
	}

	data := MustEncode(obj)
	back, err := Decode(data)
	require.NoError(t, err)

	keys := back.(Object).Keys()
	for i := 1; i < len(keys); i++ {
		prev := MustEncode(String(keys[i-1]))
		next := MustEncode(String(keys[i]))
		assert.Negative(t, bytes.Compare(prev, next), "%q must precede %q", keys[i-1], keys[i])
	}
	assert.Equal(t, obj.SortedKeys(), keys)
}

func TestEncodeLink(t *testing.T) {
	empty := MustRecordID(Object{})
	data, err := Encode(Object{F("l", Link{CID: empty})})
	require.NoError(t, err)
	assert.Equal(t,
		"a1616cd82a58250001711220c19a797fa1fd590cd2e5b42d1cf5f246e29b91684e2f87404b81dc345c7a56a0",
		hex.EncodeToString(data))
}

func TestEncodeDeterministic(t *testing.T) {
	v := MustCanonicalize(Object{
		F("text", String("Post 2")),
		F("embed", Object{F("image", testBlob())}),
		F("langs", Array{String("en"), String("de")}),
		F("n", Float(0.1)),
	})

	first := MustEncode(v)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, MustEncode(v))
	}
}

func TestEncodeRejectsNonCanonicalInput(t *testing.T) {
	tests := []struct {
		name  string
		input Value
		path  string
	}{
		{"absent at top", Absent{}, ""},
		{"absent in object", Object{F("a", Absent{})}, "a"},
		{"absent in array", Object{F("b", Array{Int(1), Absent{}})}, "b[1]"},
		{"blob placeholder", Object{F("img", testBlob())}, "img"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Encode(tt.input)
			require.Error(t, err)
			assert.True(t, IsCode(err, ErrCodeNonCanonicalInput), "got %v", err)

			var e *Error
			require.ErrorAs(t, err, &e)
			assert.Equal(t, tt.path, e.Path)
		})
	}
}

func TestEncodeRejectsUnsupportedNumerics(t *testing.T) {
	for _, f := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		_, err := Encode(Array{Float(f)})
		assert.True(t, IsCode(err, ErrCodeUnsupportedNumeric), "float %v: %v", f, err)
	}
}

func TestEncodeRejectsDuplicateKeys(t *testing.T) {
	_, err := Encode(Object{F("a", Int(1)), F("a", Int(2))})
	assert.True(t, IsCode(err, ErrCodeMalformedValue))
}

func TestEncodeRejectsUndefinedLink(t *testing.T) {
	_, err := Encode(Link{})
	assert.True(t, IsCode(err, ErrCodeMalformedValue))
}

func TestDecodeRoundTrip(t *testing.T) {
	v := MustCanonicalize(Object{
		F("text", String("hello")),
		F("count", Int(-3)),
		F("ratio", Float(0.5)),
		F("raw", Bytes{0xde, 0xad}),
		F("none", Null{}),
		F("ok", Bool(true)),
		F("image", testBlob()),
		F("list", Array{Int(1), String("two")}),
	})

	data := MustEncode(v)
	back, err := DecodeCanonical(data)
	require.NoError(t, err)
	assert.True(t, Equal(v, back))
	assert.Equal(t, data, MustEncode(back))
}

func TestDecodeCanonicalRejectsUnsortedKeys(t *testing.T) {
	// {"bb": 1, "a": 2}: keys in the wrong order.
	data, _ := hex.DecodeString("a2626262016161" + "02")
	_, err := DecodeCanonical(data)
	require.Error(t, err)
	assert.True(t, IsCode(err, ErrCodeNonCanonicalInput))
}

func TestDecodeCanonicalRejectsNonMinimalInts(t *testing.T) {
	// 1 encoded with a one-byte argument.
	data, _ := hex.DecodeString("1801")
	_, err := DecodeCanonical(data)
	assert.True(t, IsCode(err, ErrCodeNonCanonicalInput))
}

func TestDecodeRejectsDuplicateKeys(t *testing.T) {
	data, _ := hex.DecodeString("a2616101616102")
	_, err := Decode(data)
	assert.True(t, IsCode(err, ErrCodeMalformedValue))
}

func TestDecodeRejectsForeignTags(t *testing.T) {
	// tag 1 (epoch time) around 0
	data, _ := hex.DecodeString("c100")
	_, err := Decode(data)
	assert.True(t, IsCode(err, ErrCodeMalformedValue))
}
