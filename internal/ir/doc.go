// Package ir provides the record data model and its content addressing.
//
// This package contains the foundational types. All other internal packages
// import ir; ir imports nothing internal.
//
// The pipeline for one record is:
//
//	Canonicalize → Encode → Identify
//
// Key design constraints:
//   - Value is a closed set of variants decided at construction time
//   - Absent entries are dropped from objects, never turned into null
//   - *BlobRef placeholders are replaced by their IPLD form before encoding
//   - Encode is DAG-CBOR: sorted keys, minimal ints, 64-bit floats, tag 42 links
//   - Identifiers are CIDv1 over sha2-256; the tuple is the identity, the
//     string is only its rendering
package ir
