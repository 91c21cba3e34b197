package hash

import (
	"encoding/binary"

	"meetdb/pkg/dberr"
	"meetdb/pkg/primitives"
)

const (
	// BucketCount is the fixed number of primary buckets.
	BucketCount = 256
	// MaxEntriesPerBucket is the entry capacity of one bucket page,
	// dictated by the page body budget (~150 bytes per entry).
	MaxEntriesPerBucket = 24
	// MaxKeyLength is the longest accepted key; the on-disk key buffer is
	// 128 bytes holding a null-terminated string.
	MaxKeyLength = 127

	keyBufSize = 128
	// entrySize: hash (8) + key buffer (128) + key length (2) + record
	// location (12).
	entrySize  = 8 + keyBufSize + 2 + primitives.RecordLocationSize
	entriesOff = 10 // entry count (2) + overflow pointer (8)
)

// entry is one key binding inside a bucket page.
type entry struct {
	hash uint64
	key  string
	loc  primitives.RecordLocation
}

// bucket is the in-memory form of a bucket page: the entries in slot order
// plus the overflow chain pointer (0 at the end of the chain).
type bucket struct {
	overflowPage primitives.PageID
	entries      []entry
}

// serialize writes the bucket into a page body. Slots beyond the entry
// count are zeroed so the layout stays fixed.
func (b *bucket) serialize(data []byte) {
	for i := 0; i < entriesOff+MaxEntriesPerBucket*entrySize; i++ {
		data[i] = 0
	}
	binary.LittleEndian.PutUint16(data[0:2], uint16(len(b.entries)))
	binary.LittleEndian.PutUint64(data[2:10], uint64(b.overflowPage))

	for i, e := range b.entries {
		off := entriesOff + i*entrySize
		binary.LittleEndian.PutUint64(data[off:], e.hash)
		copy(data[off+8:off+8+keyBufSize], e.key)
		binary.LittleEndian.PutUint16(data[off+8+keyBufSize:], uint16(len(e.key)))
		primitives.PutRecordLocation(data[off+8+keyBufSize+2:], e.loc)
	}
}

// deserializeBucket reads a bucket from a page body.
func deserializeBucket(data []byte) *bucket {
	count := int(binary.LittleEndian.Uint16(data[0:2]))
	b := &bucket{
		overflowPage: primitives.PageID(binary.LittleEndian.Uint64(data[2:10])),
		entries:      make([]entry, 0, count),
	}
	for i := 0; i < count; i++ {
		off := entriesOff + i*entrySize
		keyLen := int(binary.LittleEndian.Uint16(data[off+8+keyBufSize:]))
		if keyLen > MaxKeyLength {
			keyLen = MaxKeyLength
		}
		b.entries = append(b.entries, entry{
			hash: binary.LittleEndian.Uint64(data[off:]),
			key:  string(data[off+8 : off+8+keyLen]),
			loc:  primitives.GetRecordLocation(data[off+8+keyBufSize+2:]),
		})
	}
	return b
}

// tableHeader is the hash-table header page: the bucket count and the page
// ids of the 256 primary buckets.
type tableHeader struct {
	bucketCount uint32
	buckets     [BucketCount]primitives.PageID
}

func newTableHeader() tableHeader {
	return tableHeader{bucketCount: BucketCount}
}

func (h *tableHeader) serialize(data []byte) {
	binary.LittleEndian.PutUint32(data[0:4], h.bucketCount)
	for i, id := range h.buckets {
		binary.LittleEndian.PutUint64(data[4+i*8:], uint64(id))
	}
}

func deserializeTableHeader(data []byte) (tableHeader, error) {
	var h tableHeader
	h.bucketCount = binary.LittleEndian.Uint32(data[0:4])
	if h.bucketCount != BucketCount {
		return h, dberr.New(dberr.StructuralViolation, "hash.Load",
			"unexpected bucket count %d", h.bucketCount)
	}
	for i := range h.buckets {
		h.buckets[i] = primitives.PageID(binary.LittleEndian.Uint64(data[4+i*8:]))
	}
	return h, nil
}
