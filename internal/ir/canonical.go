package ir

// Canonicalize strips non-canonical artifacts from v:
//   - Object entries whose value is Absent are dropped, at every depth
//   - *BlobRef placeholders are replaced by their IPLD form
//
// Array slots are never dropped, even when they hold Absent; such an array
// is still rejected later by Encode.
//
// Canonicalize is pure and idempotent. When nothing needs to change the
// input is returned as-is, without copying. Key order is preserved; Encode
// is responsible for sorting.
func Canonicalize(v Value) (Value, error) {
	out, _, err := canonicalize(v, "")
	return out, err
}

// MustCanonicalize is like Canonicalize but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustCanonicalize(v Value) Value {
	out, err := Canonicalize(v)
	if err != nil {
		panic(err)
	}
	return out
}

// canonicalize returns the canonical value and whether it differs from v.
func canonicalize(v Value, path string) (Value, bool, error) {
	switch val := v.(type) {
	case *BlobRef:
		if val == nil {
			return nil, false, newError(ErrCodeMalformedValue, path, "nil blob reference")
		}
		// Terminal: the IPLD form is already canonical.
		return val.IPLD(), true, nil
	case Array:
		return canonicalizeArray(val, path)
	case Object:
		return canonicalizeObject(val, path)
	case Absent, Null, Bool, Int, Float, String, Bytes, Link:
		return v, false, nil
	default:
		return nil, false, newError(ErrCodeMalformedValue, path, "value is not a known variant")
	}
}

func canonicalizeArray(arr Array, path string) (Value, bool, error) {
	var out Array // allocated on first change
	for i, elem := range arr {
		c, changed, err := canonicalize(elem, indexPath(path, i))
		if err != nil {
			return nil, false, err
		}
		if changed && out == nil {
			out = make(Array, len(arr))
			copy(out, arr[:i])
		}
		if out != nil {
			out[i] = c
		}
	}
	if out == nil {
		return arr, false, nil
	}
	return out, true, nil
}

func canonicalizeObject(obj Object, path string) (Value, bool, error) {
	out := make(Object, 0, len(obj))
	pure := true
	for _, f := range obj {
		if _, absent := f.Value.(Absent); absent {
			pure = false
			continue
		}
		c, changed, err := canonicalize(f.Value, joinPath(path, f.Key))
		if err != nil {
			return nil, false, err
		}
		if changed {
			pure = false
		}
		out = append(out, Field{Key: f.Key, Value: c})
	}
	if pure {
		return obj, false, nil
	}
	return out, true, nil
}
