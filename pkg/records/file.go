package records

import (
	"encoding/binary"

	"meetdb/pkg/primitives"
)

// FileSize is the serialized size of a File record:
// file id (8) + meeting id (8) + uploader id (8) + filename (256) + content
// hash (64) + byte size (8) + uploaded at (8) + data page id (8).
const FileSize = 8 + 8 + 8 + 256 + 64 + 8 + 8 + 8

// File is an uploaded-file record keyed by FileID in the files B+Tree and
// by content hash in the dedup hash table. DataPageID points at the first
// page of the file's blob chain.
type File struct {
	FileID      uint64
	MeetingID   uint64
	UploaderID  uint64
	Filename    string `validate:"required,max=255"`
	ContentHash string `validate:"required,max=64"`
	ByteSize    uint64
	UploadedAt  uint64
	DataPageID  primitives.PageID
}

// Validate checks the string fields against their on-disk limits.
func (f *File) Validate() error {
	return checkValid("records.File", f)
}

// SerializedSize returns FileSize.
func (f *File) SerializedSize() int {
	return FileSize
}

// Serialize writes the record into the first FileSize bytes of buf.
func (f *File) Serialize(buf []byte) error {
	if err := bufCheck("records.File.Serialize", buf, FileSize); err != nil {
		return err
	}
	binary.LittleEndian.PutUint64(buf[0:8], f.FileID)
	binary.LittleEndian.PutUint64(buf[8:16], f.MeetingID)
	binary.LittleEndian.PutUint64(buf[16:24], f.UploaderID)
	putString(buf[24:280], f.Filename)
	putString(buf[280:344], f.ContentHash)
	binary.LittleEndian.PutUint64(buf[344:352], f.ByteSize)
	binary.LittleEndian.PutUint64(buf[352:360], f.UploadedAt)
	binary.LittleEndian.PutUint64(buf[360:368], uint64(f.DataPageID))
	return nil
}

// DeserializeFile reads a record from the first FileSize bytes of buf.
func DeserializeFile(buf []byte) (*File, error) {
	if err := bufCheck("records.DeserializeFile", buf, FileSize); err != nil {
		return nil, err
	}
	return &File{
		FileID:      binary.LittleEndian.Uint64(buf[0:8]),
		MeetingID:   binary.LittleEndian.Uint64(buf[8:16]),
		UploaderID:  binary.LittleEndian.Uint64(buf[16:24]),
		Filename:    getString(buf[24:280]),
		ContentHash: getString(buf[280:344]),
		ByteSize:    binary.LittleEndian.Uint64(buf[344:352]),
		UploadedAt:  binary.LittleEndian.Uint64(buf[352:360]),
		DataPageID:  primitives.PageID(binary.LittleEndian.Uint64(buf[360:368])),
	}, nil
}
