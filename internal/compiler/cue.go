package compiler

import (
	"fmt"

	"cuelang.org/go/cue"

	"github.com/roach88/replychain/internal/ir"
)

// ValueFromCUE converts a concrete CUE value to an ir.Value.
//
// Struct fields keep declaration order. Optional, hidden and definition
// fields are skipped. Structs shaped like {"$link"}, {"$bytes"} or a blob are
// classified into Link, Bytes and *ir.BlobRef.
func ValueFromCUE(v cue.Value) (ir.Value, error) {
	return fromCUE(v, "")
}

func fromCUE(v cue.Value, path string) (ir.Value, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	switch v.IncompleteKind() {
	case cue.NullKind:
		return ir.Null{}, nil

	case cue.BoolKind:
		b, err := v.Bool()
		if err != nil {
			return nil, cueFieldError(v, path, err)
		}
		return ir.Bool(b), nil

	case cue.IntKind:
		i, err := v.Int64()
		if err != nil {
			return nil, cueFieldError(v, path, err)
		}
		return ir.Int(i), nil

	case cue.FloatKind:
		f, err := v.Float64()
		if err != nil {
			return nil, cueFieldError(v, path, err)
		}
		return ir.Float(f), nil

	case cue.StringKind:
		s, err := v.String()
		if err != nil {
			return nil, cueFieldError(v, path, err)
		}
		return ir.String(s), nil

	case cue.BytesKind:
		b, err := v.Bytes()
		if err != nil {
			return nil, cueFieldError(v, path, err)
		}
		return ir.Bytes(b), nil

	case cue.ListKind:
		iter, err := v.List()
		if err != nil {
			return nil, cueFieldError(v, path, err)
		}
		arr := ir.Array{}
		for i := 0; iter.Next(); i++ {
			elem, err := fromCUE(iter.Value(), fmt.Sprintf("%s[%d]", path, i))
			if err != nil {
				return nil, err
			}
			arr = append(arr, elem)
		}
		return arr, nil

	case cue.StructKind:
		iter, err := v.Fields()
		if err != nil {
			return nil, cueFieldError(v, path, err)
		}
		obj := ir.Object{}
		for iter.Next() {
			key := iter.Selector().Unquoted()
			child, err := fromCUE(iter.Value(), joinField(path, key))
			if err != nil {
				return nil, err
			}
			obj = append(obj, ir.F(key, child))
		}
		classified, err := ir.ClassifyObject(obj)
		if err != nil {
			return nil, &CompileError{Field: fieldName(path), Message: err.Error(), Pos: v.Pos()}
		}
		return classified, nil

	default:
		return nil, &CompileError{
			Field:   fieldName(path),
			Message: fmt.Sprintf("value must be concrete, got %v", v.IncompleteKind()),
			Pos:     v.Pos(),
		}
	}
}

func cueFieldError(v cue.Value, path string, err error) error {
	return &CompileError{Field: fieldName(path), Message: err.Error(), Pos: v.Pos()}
}

func joinField(base, key string) string {
	if base == "" {
		return key
	}
	return base + "." + key
}

func fieldName(path string) string {
	if path == "" {
		return "document"
	}
	return path
}
