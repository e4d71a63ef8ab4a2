package ir

// BlobRef points at an out-of-band blob by identifier, media type and size.
// It is a placeholder: records carry it until Canonicalize swaps in IPLD().
// The record never owns the blob's bytes.
type BlobRef struct {
	Ref      ContentID
	MimeType string
	Size     int64
}

func (*BlobRef) irValue() {}

// NewBlobRef creates a BlobRef.
func NewBlobRef(ref ContentID, mimeType string, size int64) *BlobRef {
	return &BlobRef{Ref: ref, MimeType: mimeType, Size: size}
}

// IPLD returns the canonical link representation of the blob.
func (b *BlobRef) IPLD() Object {
	return Object{
		F("$type", String("blob")),
		F("ref", Link{CID: b.Ref}),
		F("mimeType", String(b.MimeType)),
		F("size", Int(b.Size)),
	}
}

// Equal reports whether both references describe the same blob.
func (b *BlobRef) Equal(other *BlobRef) bool {
	if b == nil || other == nil {
		return b == other
	}
	return b.Ref.Equal(other.Ref) && b.MimeType == other.MimeType && b.Size == other.Size
}

// blobFromObject classifies an already-decoded mapping with the blob shape
// ({"$type":"blob", ref, mimeType, size}) as a placeholder. Anything else
// stays a plain Object.
func blobFromObject(obj Object) (*BlobRef, bool) {
	if len(obj) != 4 {
		return nil, false
	}
	typ, ok := obj.Get("$type")
	if !ok || typ != String("blob") {
		return nil, false
	}
	refV, _ := obj.Get("ref")
	mimeV, _ := obj.Get("mimeType")
	sizeV, _ := obj.Get("size")
	ref, ok := refV.(Link)
	if !ok {
		return nil, false
	}
	mime, ok := mimeV.(String)
	if !ok {
		return nil, false
	}
	size, ok := sizeV.(Int)
	if !ok {
		return nil, false
	}
	return NewBlobRef(ref.CID, string(mime), int64(size)), true
}
