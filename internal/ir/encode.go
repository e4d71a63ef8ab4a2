package ir

import (
	"bytes"
	"fmt"
	"math"
	"reflect"
	"slices"

	"github.com/fxamacker/cbor/v2"
)

// linkTag is the CBOR tag number for content links.
const linkTag = 42

// encMode encodes with deterministic rules: map keys sorted bytewise on
// their encoded form (shorter first), smallest integer encoding, no
// indefinite lengths, and floats always written as 64-bit.
var encMode cbor.EncMode

// decMode rejects duplicate map keys and indefinite lengths. Maps decode
// as map[string]any so non-text keys fail.
var decMode cbor.DecMode

func init() {
	var err error

	encMode, err = cbor.EncOptions{
		Sort:          cbor.SortCoreDeterministic,
		ShortestFloat: cbor.ShortestFloatNone,
		IndefLength:   cbor.IndefLengthForbidden,
		NilContainers: cbor.NilContainerAsEmpty,
	}.EncMode()
	if err != nil {
		panic("ir: CBOR encoder initialization failed: " + err.Error())
	}

	decMode, err = cbor.DecOptions{
		DupMapKey:       cbor.DupMapKeyEnforcedAPF,
		IndefLength:     cbor.IndefLengthForbidden,
		MaxNestedLevels: 128,
		DefaultMapType:  reflect.TypeOf(map[string]any(nil)),
	}.DecMode()
	if err != nil {
		panic("ir: CBOR decoder initialization failed: " + err.Error())
	}
}

// Encode serializes a canonical value to DAG-CBOR.
//
// The input must already be canonical (see Canonicalize). Encode never
// strips or converts anything itself:
//   - Absent or *BlobRef anywhere → ErrCodeNonCanonicalInput
//   - NaN or ±Inf → ErrCodeUnsupportedNumeric
//   - repeated Object key, nil value, undefined Link → ErrCodeMalformedValue
//
// The same canonical value always yields the same bytes.
func Encode(v Value) ([]byte, error) {
	lowered, err := lower(v, "")
	if err != nil {
		return nil, err
	}
	data, err := encMode.Marshal(lowered)
	if err != nil {
		return nil, fmt.Errorf("encode: %w", err)
	}
	return data, nil
}

// MustEncode is like Encode but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustEncode(v Value) []byte {
	data, err := Encode(v)
	if err != nil {
		panic(err)
	}
	return data
}

// lower converts a canonical Value into plain Go values the CBOR encoder
// understands.
func lower(v Value, path string) (any, error) {
	switch val := v.(type) {
	case Null:
		return nil, nil
	case Bool:
		return bool(val), nil
	case Int:
		return int64(val), nil
	case Float:
		f := float64(val)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, newError(ErrCodeUnsupportedNumeric, path, fmt.Sprintf("float %v cannot be encoded", f))
		}
		return f, nil
	case String:
		return string(val), nil
	case Bytes:
		if val == nil {
			return []byte{}, nil
		}
		return []byte(val), nil
	case Link:
		if !val.CID.Defined() {
			return nil, newError(ErrCodeMalformedValue, path, "link has no identifier")
		}
		content := append([]byte{0x00}, val.CID.Bytes()...)
		return cbor.Tag{Number: linkTag, Content: content}, nil
	case Array:
		out := make([]any, len(val))
		for i, elem := range val {
			l, err := lower(elem, indexPath(path, i))
			if err != nil {
				return nil, err
			}
			out[i] = l
		}
		return out, nil
	case Object:
		out := make(map[string]any, len(val))
		for _, f := range val {
			fieldPath := joinPath(path, f.Key)
			if _, dup := out[f.Key]; dup {
				return nil, newError(ErrCodeMalformedValue, fieldPath, "duplicate key")
			}
			l, err := lower(f.Value, fieldPath)
			if err != nil {
				return nil, err
			}
			out[f.Key] = l
		}
		return out, nil
	case Absent:
		return nil, newError(ErrCodeNonCanonicalInput, path, "absent value reached the encoder")
	case *BlobRef:
		return nil, newError(ErrCodeNonCanonicalInput, path, "blob placeholder reached the encoder")
	default:
		return nil, newError(ErrCodeMalformedValue, path, "value is not a known variant")
	}
}

// Decode parses DAG-CBOR bytes into a canonical Value. Object keys come
// back in encoding order.
func Decode(data []byte) (Value, error) {
	var raw any
	if err := decMode.Unmarshal(data, &raw); err != nil {
		return nil, wrapError(ErrCodeMalformedValue, "decode", err)
	}
	return raise(raw, "")
}

// DecodeCanonical is Decode plus a check that re-encoding reproduces data
// byte for byte. Stored records must pass this.
func DecodeCanonical(data []byte) (Value, error) {
	v, err := Decode(data)
	if err != nil {
		return nil, err
	}
	again, err := Encode(v)
	if err != nil {
		return nil, err
	}
	if !bytes.Equal(again, data) {
		return nil, newError(ErrCodeNonCanonicalInput, "", "bytes are not in canonical encoding")
	}
	return v, nil
}

// raise is the inverse of lower.
func raise(raw any, path string) (Value, error) {
	switch val := raw.(type) {
	case nil:
		return Null{}, nil
	case bool:
		return Bool(val), nil
	case uint64:
		if val > math.MaxInt64 {
			return nil, newError(ErrCodeUnsupportedNumeric, path, fmt.Sprintf("integer %d out of range", val))
		}
		return Int(int64(val)), nil
	case int64:
		return Int(val), nil
	case float64:
		return Float(val), nil
	case string:
		return String(val), nil
	case []byte:
		return Bytes(val), nil
	case cbor.Tag:
		return raiseTag(val, path)
	case []any:
		out := make(Array, len(val))
		for i, elem := range val {
			v, err := raise(elem, indexPath(path, i))
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return out, nil
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		slices.SortFunc(keys, CompareKeys)
		out := make(Object, 0, len(val))
		for _, k := range keys {
			v, err := raise(val[k], joinPath(path, k))
			if err != nil {
				return nil, err
			}
			out = append(out, Field{Key: k, Value: v})
		}
		return out, nil
	default:
		return nil, newError(ErrCodeMalformedValue, path, fmt.Sprintf("unsupported CBOR item %T", raw))
	}
}

func raiseTag(tag cbor.Tag, path string) (Value, error) {
	if tag.Number != linkTag {
		return nil, newError(ErrCodeMalformedValue, path, fmt.Sprintf("unsupported tag %d", tag.Number))
	}
	content, ok := tag.Content.([]byte)
	if !ok || len(content) < 2 || content[0] != 0x00 {
		return nil, newError(ErrCodeMalformedValue, path, "malformed link")
	}
	id, err := ContentIDFromBytes(content[1:])
	if err != nil {
		return nil, &Error{Code: ErrCodeMalformedValue, Message: "malformed link", Path: path, Cause: err}
	}
	return Link{CID: id}, nil
}
