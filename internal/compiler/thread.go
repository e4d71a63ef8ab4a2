package compiler

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"

	"github.com/roach88/replychain/internal/ir"
)

// Thread is a compiled thread document.
type Thread struct {
	// Repo owns the records, e.g. "did:plc:ia76kvnndjutgedggx2ibrem".
	Repo string

	// Collection is the record type. Empty means the builder default.
	Collection string

	// Posts are the payloads in chain order.
	Posts []ir.Object
}

// BaseLocator returns the at:// prefix every record locator starts with.
func (t *Thread) BaseLocator() string {
	return "at://" + t.Repo
}

// CompileThread compiles a CUE thread document.
func CompileThread(v cue.Value) (*Thread, error) {
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return nil, formatCUEError(err)
	}
	doc, err := ValueFromCUE(v)
	if err != nil {
		return nil, err
	}
	return threadFromValue(doc)
}

// CompileThreadCUE compiles CUE source. filename is used in error positions.
func CompileThreadCUE(src []byte, filename string) (*Thread, error) {
	ctx := cuecontext.New()
	v := ctx.CompileBytes(src, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	return CompileThread(v)
}

// ParseThreadYAML parses a YAML (or JSON) thread document.
func ParseThreadYAML(data []byte) (*Thread, error) {
	doc, err := ir.UnmarshalYAML(data)
	if err != nil {
		return nil, err
	}
	return threadFromValue(doc)
}

// LoadThread reads a thread document, choosing the format by extension:
// .cue is CUE, anything else is YAML.
func LoadThread(path string) (*Thread, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if strings.EqualFold(filepath.Ext(path), ".cue") {
		return CompileThreadCUE(data, path)
	}
	return ParseThreadYAML(data)
}

func threadFromValue(doc ir.Value) (*Thread, error) {
	obj, ok := doc.(ir.Object)
	if !ok {
		return nil, &CompileError{Field: "document", Message: fmt.Sprintf("must be a mapping, got %T", doc)}
	}

	t := &Thread{}
	for _, f := range obj {
		switch f.Key {
		case "repo":
			s, ok := f.Value.(ir.String)
			if !ok {
				return nil, &CompileError{Field: "repo", Message: "must be a string"}
			}
			t.Repo = string(s)
		case "collection":
			s, ok := f.Value.(ir.String)
			if !ok {
				return nil, &CompileError{Field: "collection", Message: "must be a string"}
			}
			t.Collection = string(s)
		case "posts":
			arr, ok := f.Value.(ir.Array)
			if !ok {
				return nil, &CompileError{Field: "posts", Message: "must be a list"}
			}
			for i, elem := range arr {
				post, ok := elem.(ir.Object)
				if !ok {
					return nil, &CompileError{Field: fmt.Sprintf("posts[%d]", i), Message: fmt.Sprintf("must be a mapping, got %T", elem)}
				}
				t.Posts = append(t.Posts, post)
			}
		default:
			return nil, &CompileError{Field: f.Key, Message: "unknown field"}
		}
	}

	if err := Validate(t); err != nil {
		return nil, err
	}
	return t, nil
}
