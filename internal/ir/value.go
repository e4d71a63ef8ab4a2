package ir

import (
	"bytes"
	"slices"
)

// Value is a sealed interface over the record data model.
// Only Absent, Null, Bool, Int, Float, String, Bytes, Array, Object, Link
// and *BlobRef implement it. The variant is fixed when the value is built;
// nothing downstream inspects shapes to guess what a mapping "really" is.
type Value interface {
	irValue() // Sealed - only these types implement it
}

// Absent marks a value that is not there at all. Inside an Object the
// entry is dropped by Canonicalize; it is never encodable.
type Absent struct{}

func (Absent) irValue() {}

// Null is an explicit null. Unlike Absent it survives canonicalization.
type Null struct{}

func (Null) irValue() {}

// Bool is a boolean value.
type Bool bool

func (Bool) irValue() {}

// Int is a signed integer value.
type Int int64

func (Int) irValue() {}

// Float is a 64-bit floating point value. NaN and infinities are rejected
// by Encode.
type Float float64

func (Float) irValue() {}

// String is a UTF-8 text value.
type String string

func (String) irValue() {}

// Bytes is a byte string value.
type Bytes []byte

func (Bytes) irValue() {}

// Array is an ordered sequence of values.
type Array []Value

func (Array) irValue() {}

// Field is one key/value entry of an Object.
type Field struct {
	Key   string
	Value Value
}

// Object is a mapping from text keys to values. Entries keep the order they
// were inserted in; Encode sorts keys, so order only matters for display.
type Object []Field

func (Object) irValue() {}

// Link is a typed content link (CBOR tag 42).
type Link struct {
	CID ContentID
}

func (Link) irValue() {}

// F is a shorthand for Field for ergonomic construction.
// Example: Object{F("text", String("hi")), F("langs", Array{String("en")})}
func F(key string, value Value) Field {
	return Field{Key: key, Value: value}
}

// Get returns the value stored under key.
func (obj Object) Get(key string) (Value, bool) {
	for _, f := range obj {
		if f.Key == key {
			return f.Value, true
		}
	}
	return nil, false
}

// Has reports whether key is present.
func (obj Object) Has(key string) bool {
	_, ok := obj.Get(key)
	return ok
}

// With returns a copy of obj with key set to value. An existing entry keeps
// its position; a new one is appended.
func (obj Object) With(key string, value Value) Object {
	out := make(Object, len(obj), len(obj)+1)
	copy(out, obj)
	for i := range out {
		if out[i].Key == key {
			out[i].Value = value
			return out
		}
	}
	return append(out, Field{Key: key, Value: value})
}

// Keys returns keys in insertion order.
func (obj Object) Keys() []string {
	keys := make([]string, len(obj))
	for i, f := range obj {
		keys[i] = f.Key
	}
	return keys
}

// SortedKeys returns keys in encoding order: shorter keys first, then
// bytewise. This is the order of the keys' CBOR encodings compared as bytes.
func (obj Object) SortedKeys() []string {
	keys := obj.Keys()
	slices.SortFunc(keys, CompareKeys)
	return keys
}

// CompareKeys orders map keys the way the canonical encoding does.
func CompareKeys(a, b string) int {
	if len(a) != len(b) {
		if len(a) < len(b) {
			return -1
		}
		return 1
	}
	return bytes.Compare([]byte(a), []byte(b))
}

// Equal reports deep structural equality. Objects compare as unordered
// mappings; arrays compare element by element.
func Equal(a, b Value) bool {
	switch av := a.(type) {
	case Absent:
		_, ok := b.(Absent)
		return ok
	case Null:
		_, ok := b.(Null)
		return ok
	case Bool:
		bv, ok := b.(Bool)
		return ok && av == bv
	case Int:
		bv, ok := b.(Int)
		return ok && av == bv
	case Float:
		bv, ok := b.(Float)
		return ok && av == bv
	case String:
		bv, ok := b.(String)
		return ok && av == bv
	case Bytes:
		bv, ok := b.(Bytes)
		return ok && bytes.Equal(av, bv)
	case Link:
		bv, ok := b.(Link)
		return ok && av.CID.Equal(bv.CID)
	case *BlobRef:
		bv, ok := b.(*BlobRef)
		return ok && av.Equal(bv)
	case Array:
		bv, ok := b.(Array)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !Equal(av[i], bv[i]) {
				return false
			}
		}
		return true
	case Object:
		bv, ok := b.(Object)
		if !ok || len(av) != len(bv) {
			return false
		}
		for _, f := range av {
			other, found := bv.Get(f.Key)
			if !found || !Equal(f.Value, other) {
				return false
			}
		}
		return true
	default:
		return false
	}
}
