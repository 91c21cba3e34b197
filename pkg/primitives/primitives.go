// Package primitives holds the scalar types shared by every storage
// component: page identifiers and record locations.
package primitives

import (
	"encoding/binary"
	"fmt"
)

// PageID identifies a 4096-byte page within the database file. Page ids are
// assigned monotonically by the allocator; id 0 is reserved for the file
// header and doubles as the nil pointer in on-disk linked structures.
type PageID uint64

// String returns a short printable form used in diagnostics.
func (p PageID) String() string {
	return fmt.Sprintf("page(%d)", uint64(p))
}

// RecordLocationSize is the on-disk footprint of a RecordLocation:
// 8 bytes page id, 2 bytes offset, 2 bytes size.
const RecordLocationSize = 12

// RecordLocation identifies a byte range holding a serialized record inside
// a single page. Indexes store locations as their values. When an index is
// used as a set of ids only PageID is meaningful and Offset/Size stay zero.
type RecordLocation struct {
	PageID PageID
	Offset uint16
	Size   uint16
}

// NewRecordLocation builds a location triple.
func NewRecordLocation(id PageID, offset, size uint16) RecordLocation {
	return RecordLocation{PageID: id, Offset: offset, Size: size}
}

// IsZero reports whether the location is the zero triple, the not-found
// sentinel of both indexes.
func (r RecordLocation) IsZero() bool {
	return r.PageID == 0 && r.Offset == 0 && r.Size == 0
}

// PutRecordLocation encodes r into the first RecordLocationSize bytes of b
// in little-endian order.
func PutRecordLocation(b []byte, r RecordLocation) {
	binary.LittleEndian.PutUint64(b[0:8], uint64(r.PageID))
	binary.LittleEndian.PutUint16(b[8:10], r.Offset)
	binary.LittleEndian.PutUint16(b[10:12], r.Size)
}

// GetRecordLocation decodes a location from the first RecordLocationSize
// bytes of b.
func GetRecordLocation(b []byte) RecordLocation {
	return RecordLocation{
		PageID: PageID(binary.LittleEndian.Uint64(b[0:8])),
		Offset: binary.LittleEndian.Uint16(b[8:10]),
		Size:   binary.LittleEndian.Uint16(b[10:12]),
	}
}
