// Package page defines the on-disk page format: fixed 4096-byte pages with a
// 64-byte typed header, a body checksum, and the file-wide header stored on
// page 0.
package page

import (
	"encoding/binary"

	"meetdb/pkg/dberr"
	"meetdb/pkg/primitives"
)

const (
	// Size is the size of each page in bytes (4KB).
	Size = 4096
	// HeaderSize is the fixed size of the page header.
	HeaderSize = 64
	// DataSize is the usable body size of a page.
	DataSize = Size - HeaderSize
)

// Type tags the content of a page.
type Type uint8

const (
	// TypeFree marks an unused page on the free list. The file header page
	// also carries this type.
	TypeFree Type = iota
	// TypeBTreeInternal marks an internal B+Tree node.
	TypeBTreeInternal
	// TypeBTreeLeaf marks a B+Tree leaf node.
	TypeBTreeLeaf
	// TypeHashBucket marks a hash bucket page or a hash table header page.
	TypeHashBucket
	// TypeDataOverflow marks a page in a record-data or blob chain.
	TypeDataOverflow
)

// String returns the tag name.
func (t Type) String() string {
	switch t {
	case TypeFree:
		return "free"
	case TypeBTreeInternal:
		return "btree-internal"
	case TypeBTreeLeaf:
		return "btree-leaf"
	case TypeHashBucket:
		return "hash-bucket"
	case TypeDataOverflow:
		return "data-overflow"
	default:
		return "unknown"
	}
}

// Header is the 64-byte typed page header. NextFreePage is the free-list
// link for free pages; overflow and blob pages keep their chain pointer in
// the body instead.
type Header struct {
	Type         Type
	NextFreePage primitives.PageID
	Checksum     uint32
}

// Page is one fixed-size unit of the database file.
type Page struct {
	Header Header
	Data   [DataSize]byte
}

// New returns an empty page of the given type.
func New(t Type) *Page {
	return &Page{Header: Header{Type: t}}
}

// ComputeChecksum returns the arithmetic sum of the body bytes modulo 2^32.
func (p *Page) ComputeChecksum() uint32 {
	var sum uint32
	for _, b := range p.Data {
		sum += uint32(b)
	}
	return sum
}

// UpdateChecksum recomputes and stores the body checksum.
func (p *Page) UpdateChecksum() {
	p.Header.Checksum = p.ComputeChecksum()
}

// VerifyChecksum reports whether the stored checksum matches the body.
func (p *Page) VerifyChecksum() bool {
	return p.Header.Checksum == p.ComputeChecksum()
}

// Serialize writes the page into buf, which must hold at least Size bytes.
// Header layout: type (1), padding to 8, next free page (8), checksum (4),
// padding to HeaderSize.
func (p *Page) Serialize(buf []byte) error {
	if len(buf) < Size {
		return dberr.New(dberr.IOFailure, "page.Serialize",
			"buffer too small: %d < %d", len(buf), Size)
	}
	for i := 0; i < HeaderSize; i++ {
		buf[i] = 0
	}
	buf[0] = byte(p.Header.Type)
	binary.LittleEndian.PutUint64(buf[8:16], uint64(p.Header.NextFreePage))
	binary.LittleEndian.PutUint32(buf[16:20], p.Header.Checksum)
	copy(buf[HeaderSize:Size], p.Data[:])
	return nil
}

// Deserialize reads a page from buf, which must hold at least Size bytes.
func Deserialize(buf []byte) (*Page, error) {
	if len(buf) < Size {
		return nil, dberr.New(dberr.IOFailure, "page.Deserialize",
			"buffer too small: %d < %d", len(buf), Size)
	}
	p := &Page{
		Header: Header{
			Type:         Type(buf[0]),
			NextFreePage: primitives.PageID(binary.LittleEndian.Uint64(buf[8:16])),
			Checksum:     binary.LittleEndian.Uint32(buf[16:20]),
		},
	}
	copy(p.Data[:], buf[HeaderSize:Size])
	return p, nil
}
