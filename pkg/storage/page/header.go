package page

import (
	"bytes"
	"encoding/binary"

	"meetdb/pkg/dberr"
	"meetdb/pkg/primitives"
)

const (
	// MagicSize is the length of the file magic.
	MagicSize = 4
	// Version is the current file format version.
	Version = 1
	// FileHeaderSize is the serialized size of the file header inside the
	// body of page 0.
	FileHeaderSize = MagicSize + 4 + 4 + 8 + 5*8 + 4*8 + 8 + 5*8
)

// Magic identifies a database file.
var Magic = [MagicSize]byte{'M', 'T', 'D', 'B'}

// FileHeader is the file-wide header stored in the body of page 0. It holds
// the roots of the five B+Tree indexes, the header pages of the four hash
// tables, the free-list head, and the monotonic id counters.
type FileHeader struct {
	Magic      [MagicSize]byte
	Version    uint32
	PageSize   uint32
	TotalPages uint64

	UsersRoot      primitives.PageID
	MeetingsRoot   primitives.PageID
	MessagesRoot   primitives.PageID
	FilesRoot      primitives.PageID
	WhiteboardRoot primitives.PageID

	LoginHash       primitives.PageID
	MeetingCodeHash primitives.PageID
	FileDedupHash   primitives.PageID
	ChatSearchHash  primitives.PageID

	FreeListHead primitives.PageID

	LastUserID       uint64
	LastMeetingID    uint64
	LastMessageID    uint64
	LastFileID       uint64
	LastWhiteboardID uint64
}

// NewFileHeader returns the header of a freshly initialized file: one page
// (the header itself), empty indexes, empty free list, zeroed counters.
func NewFileHeader() FileHeader {
	return FileHeader{
		Magic:      Magic,
		Version:    Version,
		PageSize:   Size,
		TotalPages: 1,
	}
}

// Serialize writes the header into buf, which must hold at least
// FileHeaderSize bytes. All integers are little-endian.
func (h *FileHeader) Serialize(buf []byte) error {
	if len(buf) < FileHeaderSize {
		return dberr.New(dberr.IOFailure, "header.Serialize",
			"buffer too small: %d < %d", len(buf), FileHeaderSize)
	}
	copy(buf[0:4], h.Magic[:])
	binary.LittleEndian.PutUint32(buf[4:8], h.Version)
	binary.LittleEndian.PutUint32(buf[8:12], h.PageSize)
	binary.LittleEndian.PutUint64(buf[12:20], h.TotalPages)

	off := 20
	for _, id := range []primitives.PageID{
		h.UsersRoot, h.MeetingsRoot, h.MessagesRoot, h.FilesRoot, h.WhiteboardRoot,
		h.LoginHash, h.MeetingCodeHash, h.FileDedupHash, h.ChatSearchHash,
		h.FreeListHead,
	} {
		binary.LittleEndian.PutUint64(buf[off:off+8], uint64(id))
		off += 8
	}
	for _, c := range []uint64{
		h.LastUserID, h.LastMeetingID, h.LastMessageID, h.LastFileID, h.LastWhiteboardID,
	} {
		binary.LittleEndian.PutUint64(buf[off:off+8], c)
		off += 8
	}
	return nil
}

// DeserializeFileHeader reads a header from buf and validates magic, version,
// and page size.
func DeserializeFileHeader(buf []byte) (FileHeader, error) {
	var h FileHeader
	if len(buf) < FileHeaderSize {
		return h, dberr.New(dberr.InvalidFile, "header.Deserialize",
			"buffer too small: %d < %d", len(buf), FileHeaderSize)
	}
	copy(h.Magic[:], buf[0:4])
	h.Version = binary.LittleEndian.Uint32(buf[4:8])
	h.PageSize = binary.LittleEndian.Uint32(buf[8:12])
	h.TotalPages = binary.LittleEndian.Uint64(buf[12:20])

	ids := make([]primitives.PageID, 10)
	off := 20
	for i := range ids {
		ids[i] = primitives.PageID(binary.LittleEndian.Uint64(buf[off : off+8]))
		off += 8
	}
	h.UsersRoot, h.MeetingsRoot, h.MessagesRoot, h.FilesRoot, h.WhiteboardRoot =
		ids[0], ids[1], ids[2], ids[3], ids[4]
	h.LoginHash, h.MeetingCodeHash, h.FileDedupHash, h.ChatSearchHash =
		ids[5], ids[6], ids[7], ids[8]
	h.FreeListHead = ids[9]

	counters := make([]uint64, 5)
	for i := range counters {
		counters[i] = binary.LittleEndian.Uint64(buf[off : off+8])
		off += 8
	}
	h.LastUserID, h.LastMeetingID, h.LastMessageID, h.LastFileID, h.LastWhiteboardID =
		counters[0], counters[1], counters[2], counters[3], counters[4]

	if !bytes.Equal(h.Magic[:], Magic[:]) {
		return h, dberr.New(dberr.InvalidFile, "header.Deserialize",
			"bad magic %q", h.Magic)
	}
	if h.Version != Version {
		return h, dberr.New(dberr.InvalidFile, "header.Deserialize",
			"unsupported version %d", h.Version)
	}
	if h.PageSize != Size {
		return h, dberr.New(dberr.InvalidFile, "header.Deserialize",
			"unexpected page size %d", h.PageSize)
	}
	return h, nil
}
