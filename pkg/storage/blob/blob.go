// Package blob chunks variable-length payloads across chains of data
// overflow pages. Each page in a chain reserves the first 8 bytes of its
// body for the forward pointer (0 at the tail) and carries up to ChunkSize
// bytes of payload.
package blob

import (
	"encoding/binary"

	"meetdb/pkg/dberr"
	"meetdb/pkg/primitives"
	"meetdb/pkg/storage/engine"
	"meetdb/pkg/storage/page"
)

// ChunkSize is the payload capacity of one chain page.
const ChunkSize = page.DataSize - 16

// Store writes and reads blob chains on a paged heap.
type Store struct {
	eng *engine.Engine
}

// NewStore creates a blob store over the engine.
func NewStore(eng *engine.Engine) *Store {
	return &Store{eng: eng}
}

// WriteBlob chunks data into a linked chain of data overflow pages and
// returns the id of the first page, 0 when data is empty. Chain pages are
// not reclaimed when the owning record is deleted.
func (s *Store) WriteBlob(data []byte) (primitives.PageID, error) {
	var firstPageID, prevPageID primitives.PageID
	bytesWritten := 0

	for bytesWritten < len(data) {
		pageID, err := s.eng.AllocatePage()
		if err != nil {
			return 0, err
		}
		if firstPageID == 0 {
			firstPageID = pageID
		}

		p := page.New(page.TypeDataOverflow)
		// Forward pointer starts at 0; linking happens when the next
		// chunk is written.
		chunk := len(data) - bytesWritten
		if chunk > ChunkSize {
			chunk = ChunkSize
		}
		copy(p.Data[8:], data[bytesWritten:bytesWritten+chunk])

		if err := s.eng.WritePage(pageID, p); err != nil {
			return 0, err
		}

		if prevPageID != 0 {
			prev, err := s.eng.ReadPage(prevPageID)
			if err != nil {
				return 0, err
			}
			binary.LittleEndian.PutUint64(prev.Data[0:8], uint64(pageID))
			if err := s.eng.WritePage(prevPageID, prev); err != nil {
				return 0, err
			}
		}

		prevPageID = pageID
		bytesWritten += chunk
	}

	return firstPageID, nil
}

// ReadBlob follows the chain from firstPageID, accumulating exactly size
// bytes. A chain that ends early surfaces a short read.
func (s *Store) ReadBlob(firstPageID primitives.PageID, size int) ([]byte, error) {
	out := make([]byte, 0, size)
	currentPageID := firstPageID

	for currentPageID != 0 && len(out) < size {
		p, err := s.eng.ReadPage(currentPageID)
		if err != nil {
			return nil, err
		}
		nextPageID := primitives.PageID(binary.LittleEndian.Uint64(p.Data[0:8]))

		chunk := size - len(out)
		if chunk > ChunkSize {
			chunk = ChunkSize
		}
		out = append(out, p.Data[8:8+chunk]...)

		currentPageID = nextPageID
	}

	if len(out) != size {
		return nil, dberr.New(dberr.ShortRead, "blob.ReadBlob",
			"chain ended after %d of %d bytes", len(out), size)
	}
	return out, nil
}
