package ir

import (
	"encoding/base64"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// YAML tags understood by FromYAML in addition to the core schema.
const (
	TagAbsent = "!absent" // value is not there; dropped from mappings by Canonicalize
	TagLink   = "!link"   // scalar content identifier
	TagBlob   = "!blob"   // mapping {ref, mimeType, size}
)

// FromYAML converts a parsed YAML node into a Value. Mapping key order is
// kept. Untagged mappings go through ClassifyObject, so JSON-style
// {"$link": ...} and blob shapes are recognised as well as the explicit tags.
func FromYAML(node *yaml.Node) (Value, error) {
	return fromYAML(node, "")
}

// UnmarshalYAML parses YAML (or JSON) text into a Value.
func UnmarshalYAML(data []byte) (Value, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	if doc.Kind == 0 {
		return nil, fmt.Errorf("parse yaml: empty document")
	}
	return FromYAML(&doc)
}

func fromYAML(node *yaml.Node, path string) (Value, error) {
	switch node.Kind {
	case yaml.DocumentNode:
		if len(node.Content) != 1 {
			return nil, yamlError(node, path, "document must hold exactly one value")
		}
		return fromYAML(node.Content[0], path)
	case yaml.AliasNode:
		return fromYAML(node.Alias, path)
	case yaml.SequenceNode:
		if node.ShortTag() != "!!seq" {
			return nil, yamlError(node, path, "unsupported sequence tag "+node.ShortTag())
		}
		out := make(Array, len(node.Content))
		for i, child := range node.Content {
			v, err := fromYAML(child, indexPath(path, i))
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return out, nil
	case yaml.MappingNode:
		obj, err := yamlObject(node, path)
		if err != nil {
			return nil, err
		}
		switch node.ShortTag() {
		case TagBlob:
			return yamlBlob(node, obj, path)
		case "!!map":
			v, err := ClassifyObject(obj)
			if err != nil {
				return nil, yamlWrap(node, path, err)
			}
			return v, nil
		default:
			return nil, yamlError(node, path, "unsupported mapping tag "+node.ShortTag())
		}
	case yaml.ScalarNode:
		return yamlScalar(node, path)
	default:
		return nil, yamlError(node, path, "unsupported node kind")
	}
}

func yamlObject(node *yaml.Node, path string) (Object, error) {
	out := make(Object, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		keyNode, valNode := node.Content[i], node.Content[i+1]
		if keyNode.Kind != yaml.ScalarNode {
			return nil, yamlError(keyNode, path, "mapping keys must be scalars")
		}
		key := keyNode.Value
		if out.Has(key) {
			return nil, yamlError(keyNode, joinPath(path, key), "duplicate key")
		}
		v, err := fromYAML(valNode, joinPath(path, key))
		if err != nil {
			return nil, err
		}
		out = append(out, Field{Key: key, Value: v})
	}
	return out, nil
}

func yamlScalar(node *yaml.Node, path string) (Value, error) {
	switch tag := node.ShortTag(); tag {
	case "!!null":
		return Null{}, nil
	case TagAbsent:
		return Absent{}, nil
	case "!!bool":
		var b bool
		if err := node.Decode(&b); err != nil {
			return nil, yamlWrap(node, path, err)
		}
		return Bool(b), nil
	case "!!int":
		var n int64
		if err := node.Decode(&n); err != nil {
			return nil, yamlWrap(node, path, err)
		}
		return Int(n), nil
	case "!!float":
		var f float64
		if err := node.Decode(&f); err != nil {
			return nil, yamlWrap(node, path, err)
		}
		return Float(f), nil
	case "!!str", "!!timestamp":
		// Timestamps stay text; records carry datetimes as strings.
		return String(node.Value), nil
	case "!!binary":
		b, err := base64.StdEncoding.DecodeString(strings.Join(strings.Fields(node.Value), ""))
		if err != nil {
			return nil, yamlWrap(node, path, err)
		}
		return Bytes(b), nil
	case TagLink:
		id, err := ParseContentID(node.Value)
		if err != nil {
			return nil, yamlWrap(node, path, err)
		}
		return Link{CID: id}, nil
	default:
		return nil, yamlError(node, path, "unsupported scalar tag "+tag)
	}
}

// yamlBlob builds a placeholder from a !blob mapping. ref may be a plain
// string or a link.
func yamlBlob(node *yaml.Node, obj Object, path string) (Value, error) {
	var ref ContentID
	switch r, _ := obj.Get("ref"); rv := r.(type) {
	case String:
		id, err := ParseContentID(string(rv))
		if err != nil {
			return nil, yamlWrap(node, path, err)
		}
		ref = id
	case Link:
		ref = rv.CID
	default:
		return nil, yamlError(node, path, "!blob needs a ref")
	}
	mime, ok := mustGet[String](obj, "mimeType")
	if !ok {
		return nil, yamlError(node, path, "!blob needs a string mimeType")
	}
	size, ok := mustGet[Int](obj, "size")
	if !ok {
		return nil, yamlError(node, path, "!blob needs an integer size")
	}
	if len(obj) != 3 {
		return nil, yamlError(node, path, "!blob takes only ref, mimeType and size")
	}
	return NewBlobRef(ref, string(mime), int64(size)), nil
}

func mustGet[T Value](obj Object, key string) (T, bool) {
	v, _ := obj.Get(key)
	t, ok := v.(T)
	return t, ok
}

func yamlError(node *yaml.Node, path, msg string) error {
	return &Error{
		Code:    ErrCodeMalformedValue,
		Message: fmt.Sprintf("line %d: %s", node.Line, msg),
		Path:    path,
	}
}

func yamlWrap(node *yaml.Node, path string, err error) error {
	return &Error{
		Code:    ErrCodeMalformedValue,
		Message: fmt.Sprintf("line %d", node.Line),
		Path:    path,
		Cause:   err,
	}
}
