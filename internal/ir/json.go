package ir

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
)

// MarshalJSON renders v in the atproto JSON convention: links become
// {"$link": "<cid>"}, byte strings {"$bytes": "<base64>"}. Object keys keep
// insertion order. Absent entries are omitted from objects and rendered as
// null inside arrays; blob placeholders render as their IPLD form.
//
// NOTE: this is a display format. Identifiers are always computed from
// Encode, never from JSON.
func MarshalJSON(v Value) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeJSON(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeJSON(buf *bytes.Buffer, v Value) error {
	switch val := v.(type) {
	case Absent, Null:
		buf.WriteString("null")
	case Bool, Int, String:
		b, err := json.Marshal(val)
		if err != nil {
			return err
		}
		buf.Write(b)
	case Float:
		b, err := json.Marshal(float64(val))
		if err != nil {
			return err
		}
		buf.Write(b)
	case Bytes:
		buf.WriteString(`{"$bytes":"`)
		buf.WriteString(base64.RawStdEncoding.EncodeToString(val))
		buf.WriteString(`"}`)
	case Link:
		buf.WriteString(`{"$link":"`)
		buf.WriteString(val.CID.String())
		buf.WriteString(`"}`)
	case *BlobRef:
		return writeJSON(buf, val.IPLD())
	case Array:
		buf.WriteByte('[')
		for i, elem := range val {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeJSON(buf, elem); err != nil {
				return fmt.Errorf("array[%d]: %w", i, err)
			}
		}
		buf.WriteByte(']')
	case Object:
		buf.WriteByte('{')
		first := true
		for _, f := range val {
			if _, absent := f.Value.(Absent); absent {
				continue
			}
			if !first {
				buf.WriteByte(',')
			}
			first = false
			key, err := json.Marshal(f.Key)
			if err != nil {
				return err
			}
			buf.Write(key)
			buf.WriteByte(':')
			if err := writeJSON(buf, f.Value); err != nil {
				return fmt.Errorf("key %q: %w", f.Key, err)
			}
		}
		buf.WriteByte('}')
	default:
		return fmt.Errorf("unknown Value type: %T", v)
	}
	return nil
}

// ClassifyObject decides, once, what a freshly parsed mapping is:
//   - {"$link": "<cid>"} → Link
//   - {"$bytes": "<base64>"} → Bytes
//   - {"$type": "blob", ref: Link, mimeType, size} → *BlobRef placeholder
//   - anything else → the Object itself
//
// Nested values must already be classified.
func ClassifyObject(obj Object) (Value, error) {
	if len(obj) == 1 {
		switch obj[0].Key {
		case "$link":
			s, ok := obj[0].Value.(String)
			if !ok {
				return nil, newError(ErrCodeMalformedValue, "$link", "$link must be a string")
			}
			id, err := ParseContentID(string(s))
			if err != nil {
				return nil, &Error{Code: ErrCodeMalformedValue, Message: "invalid $link", Path: "$link", Cause: err}
			}
			return Link{CID: id}, nil
		case "$bytes":
			s, ok := obj[0].Value.(String)
			if !ok {
				return nil, newError(ErrCodeMalformedValue, "$bytes", "$bytes must be a string")
			}
			b, err := base64.RawStdEncoding.DecodeString(trimPadding(string(s)))
			if err != nil {
				return nil, &Error{Code: ErrCodeMalformedValue, Message: "invalid $bytes", Path: "$bytes", Cause: err}
			}
			return Bytes(b), nil
		}
	}
	if blob, ok := blobFromObject(obj); ok {
		return blob, nil
	}
	return obj, nil
}

func trimPadding(s string) string {
	for len(s) > 0 && s[len(s)-1] == '=' {
		s = s[:len(s)-1]
	}
	return s
}
