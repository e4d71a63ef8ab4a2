package ir

import (
	"fmt"

	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multihash"
)

// Content type codes (multicodec) for the identifiers this package derives.
const (
	CodecDagCBOR uint64 = cid.DagCBOR // records
	CodecRaw     uint64 = cid.Raw     // uploaded blobs
)

// HashSHA2_256 is the only digest this package computes. There is no
// negotiation and no fallback.
const HashSHA2_256 uint64 = multihash.SHA2_256

// ContentID is a self-describing content identifier
// (version, content type, digest algorithm, digest).
//
// Two identifiers are equal only when all four parts match; use Equal, never
// a comparison of String() prefixes. The zero value is undefined.
type ContentID struct {
	c cid.Cid
}

// Identify hashes data with sha2-256 and wraps the digest in a CIDv1 tagged
// with codec.
func Identify(data []byte, codec uint64) (ContentID, error) {
	sum, err := multihash.Sum(data, multihash.SHA2_256, -1)
	if err != nil {
		return ContentID{}, wrapError(ErrCodeDigestUnavailable, "sha2-256 digest failed", err)
	}
	return ContentID{c: cid.NewCidV1(codec, sum)}, nil
}

// RecordID canonicalizes v, encodes it and identifies the bytes as
// dag-cbor. It returns the encoded bytes with the identifier so callers can
// persist exactly what was hashed.
func RecordID(v Value) (ContentID, []byte, error) {
	canon, err := Canonicalize(v)
	if err != nil {
		return ContentID{}, nil, err
	}
	data, err := Encode(canon)
	if err != nil {
		return ContentID{}, nil, err
	}
	id, err := Identify(data, CodecDagCBOR)
	if err != nil {
		return ContentID{}, nil, err
	}
	return id, data, nil
}

// MustRecordID is like RecordID but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustRecordID(v Value) ContentID {
	id, _, err := RecordID(v)
	if err != nil {
		panic(err)
	}
	return id
}

// ParseContentID parses the string form of an identifier.
func ParseContentID(s string) (ContentID, error) {
	c, err := cid.Decode(s)
	if err != nil {
		return ContentID{}, fmt.Errorf("parse content id %q: %w", s, err)
	}
	return ContentID{c: c}, nil
}

// MustParseContentID is like ParseContentID but panics on error.
func MustParseContentID(s string) ContentID {
	id, err := ParseContentID(s)
	if err != nil {
		panic(err)
	}
	return id
}

// ContentIDFromBytes parses the binary form of an identifier.
func ContentIDFromBytes(b []byte) (ContentID, error) {
	c, err := cid.Cast(b)
	if err != nil {
		return ContentID{}, fmt.Errorf("cast content id: %w", err)
	}
	return ContentID{c: c}, nil
}

// Defined reports whether id holds an identifier.
func (id ContentID) Defined() bool {
	return id.c.Defined()
}

// Version returns the identifier version (1 for derived identifiers).
func (id ContentID) Version() uint64 {
	return id.c.Version()
}

// Codec returns the content type code.
func (id ContentID) Codec() uint64 {
	return id.c.Type()
}

// HashCode returns the digest algorithm code.
func (id ContentID) HashCode() uint64 {
	dec, err := multihash.Decode(id.c.Hash())
	if err != nil {
		return 0
	}
	return dec.Code
}

// Digest returns the raw digest bytes.
func (id ContentID) Digest() []byte {
	dec, err := multihash.Decode(id.c.Hash())
	if err != nil {
		return nil
	}
	return dec.Digest
}

// Bytes returns the binary form (as embedded in tag 42 links).
func (id ContentID) Bytes() []byte {
	return id.c.Bytes()
}

// String returns the canonical lowercase base32 form, e.g. "bafyrei...".
func (id ContentID) String() string {
	if !id.c.Defined() {
		return ""
	}
	return id.c.String()
}

// Equal compares the full identifier tuple.
func (id ContentID) Equal(other ContentID) bool {
	return id.c.Equals(other.c)
}

// MarshalText implements encoding.TextMarshaler.
func (id ContentID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (id *ContentID) UnmarshalText(text []byte) error {
	parsed, err := ParseContentID(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}
