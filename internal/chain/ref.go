package chain

import (
	"github.com/roach88/replychain/internal/ir"
	"github.com/roach88/replychain/internal/tid"
)

// StrongRef points at one specific, already-identified record.
type StrongRef struct {
	CID ir.ContentID
	URI string
}

// Equal reports whether both the identifier and the locator match.
func (r StrongRef) Equal(other StrongRef) bool {
	return r.URI == other.URI && r.CID.Equal(other.CID)
}

// Value returns the record form {cid, uri} with the identifier in its string
// form, as com.atproto.repo.strongRef expects.
func (r StrongRef) Value() ir.Object {
	return ir.Object{
		ir.F("cid", ir.String(r.CID.String())),
		ir.F("uri", ir.String(r.URI)),
	}
}

// ReplyLink threads a record into a chain.
type ReplyLink struct {
	Root   StrongRef
	Parent StrongRef
}

// Value returns the record form {root, parent}.
func (l ReplyLink) Value() ir.Object {
	return ir.Object{
		ir.F("root", l.Root.Value()),
		ir.F("parent", l.Parent.Value()),
	}
}

// Locator builds the URI of a record: base/collection/rkey.
func Locator(base, collection string, key tid.TID) string {
	return base + "/" + collection + "/" + key.String()
}
