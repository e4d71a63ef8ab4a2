// Package compiler turns thread documents into record payloads.
//
// A thread document names the repo that will own the records, optionally the
// collection, and the ordered list of post payloads:
//
//	repo: "did:plc:ia76kvnndjutgedggx2ibrem"
//	posts: [
//		{text: "Post 1"},
//		{text: "Post 2"},
//	]
//
// Documents may be written in CUE or YAML (JSON is accepted as YAML). Both are
// converted to ir values with field order preserved, and both honour the
// atproto JSON conventions for links, bytes and blobs.
package compiler
