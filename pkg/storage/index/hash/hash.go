// Package hash implements the disk-resident chained-bucket hash index
// mapping string keys to record locations. A header page addresses 256
// primary bucket pages; each bucket overflows into a singly linked chain of
// further bucket pages.
package hash

import (
	"hash/fnv"
	"sync"

	"go.uber.org/zap"

	"meetdb/pkg/dberr"
	"meetdb/pkg/logging"
	"meetdb/pkg/primitives"
	"meetdb/pkg/storage/engine"
	"meetdb/pkg/storage/page"
)

// HashTable is an unordered index stored in engine pages.
//
// Like the B+Tree, the table carries its own writer lock so concurrent
// writers cannot interleave chain rewiring; the engine's file mutex stays
// per page access underneath.
type HashTable struct {
	eng          *engine.Engine
	headerPageID primitives.PageID
	header       tableHeader
	mu           sync.RWMutex
	log          *zap.Logger
}

// New creates a hash table handle. Call Initialize for a fresh table or
// Load to adopt an existing header page.
func New(eng *engine.Engine) *HashTable {
	return &HashTable{eng: eng, log: logging.GetLogger()}
}

// Initialize allocates the header page and 256 empty bucket pages.
func (h *HashTable) Initialize() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	headerID, err := h.eng.AllocatePage()
	if err != nil {
		return err
	}
	h.headerPageID = headerID
	h.header = newTableHeader()

	for i := range h.header.buckets {
		bucketID, err := h.eng.AllocatePage()
		if err != nil {
			return err
		}
		h.header.buckets[i] = bucketID
		if err := h.saveBucket(bucketID, &bucket{}); err != nil {
			return err
		}
	}

	if err := h.saveHeader(); err != nil {
		return err
	}

	h.log.Debug("hash table initialized",
		zap.Uint64("header_page", uint64(headerID)),
		zap.Uint32("buckets", h.header.bucketCount))
	return nil
}

// Load re-reads the table header from an existing header page.
func (h *HashTable) Load(headerPageID primitives.PageID) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	p, err := h.eng.ReadPage(headerPageID)
	if err != nil {
		return err
	}
	header, err := deserializeTableHeader(p.Data[:])
	if err != nil {
		return err
	}
	h.headerPageID = headerPageID
	h.header = header
	return nil
}

// HeaderPageID returns the page holding the table header; callers register
// it in the file header.
func (h *HashTable) HeaderPageID() primitives.PageID {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.headerPageID
}

// Insert binds key to loc, updating the existing entry if the key is
// already present anywhere in the bucket chain.
func (h *HashTable) Insert(key string, loc primitives.RecordLocation) error {
	if len(key) > MaxKeyLength {
		return dberr.New(dberr.KeyTooLong, "hash.Insert",
			"key length %d exceeds %d", len(key), MaxKeyLength)
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	hashValue := hashString(key)
	chainHead := h.header.buckets[h.bucketIndex(hashValue)]

	// First pass: the key may already live anywhere in the chain, and the
	// invariant is at most one entry per key.
	currentPage := chainHead
	for currentPage != 0 {
		b, err := h.loadBucket(currentPage)
		if err != nil {
			return err
		}
		for i := range b.entries {
			if b.entries[i].hash == hashValue && b.entries[i].key == key {
				b.entries[i].loc = loc
				return h.saveBucket(currentPage, b)
			}
		}
		currentPage = b.overflowPage
	}

	// Second pass: append to the first page with room, growing the chain
	// when every page is full.
	currentPage = chainHead
	for {
		b, err := h.loadBucket(currentPage)
		if err != nil {
			return err
		}
		if len(b.entries) < MaxEntriesPerBucket {
			b.entries = append(b.entries, entry{hash: hashValue, key: key, loc: loc})
			return h.saveBucket(currentPage, b)
		}
		if b.overflowPage == 0 {
			overflowID, err := h.eng.AllocatePage()
			if err != nil {
				return err
			}
			b.overflowPage = overflowID
			if err := h.saveBucket(currentPage, b); err != nil {
				return err
			}
			if err := h.saveBucket(overflowID, &bucket{}); err != nil {
				return err
			}
		}
		currentPage = b.overflowPage
	}
}

// Search returns the location bound to key, with ok=false when the key is
// absent. Both the stored hash and the key bytes must match.
func (h *HashTable) Search(key string) (primitives.RecordLocation, bool, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	hashValue := hashString(key)
	currentPage := h.header.buckets[h.bucketIndex(hashValue)]

	for currentPage != 0 {
		b, err := h.loadBucket(currentPage)
		if err != nil {
			return primitives.RecordLocation{}, false, err
		}
		for i := range b.entries {
			if b.entries[i].hash == hashValue && b.entries[i].key == key {
				return b.entries[i].loc, true, nil
			}
		}
		currentPage = b.overflowPage
	}
	return primitives.RecordLocation{}, false, nil
}

// Remove deletes the entry for key, compacting its bucket page by shifting
// subsequent entries left. Returns true when the key was present. Emptied
// overflow pages are not reclaimed.
func (h *HashTable) Remove(key string) (bool, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	hashValue := hashString(key)
	currentPage := h.header.buckets[h.bucketIndex(hashValue)]

	for currentPage != 0 {
		b, err := h.loadBucket(currentPage)
		if err != nil {
			return false, err
		}
		for i := range b.entries {
			if b.entries[i].hash == hashValue && b.entries[i].key == key {
				b.entries = append(b.entries[:i], b.entries[i+1:]...)
				if err := h.saveBucket(currentPage, b); err != nil {
					return false, err
				}
				return true, nil
			}
		}
		currentPage = b.overflowPage
	}
	return false, nil
}

// Keys enumerates every key across all buckets and overflow pages.
func (h *HashTable) Keys() ([]string, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	keys := []string{}
	for _, bucketID := range h.header.buckets {
		currentPage := bucketID
		for currentPage != 0 {
			b, err := h.loadBucket(currentPage)
			if err != nil {
				return nil, err
			}
			for i := range b.entries {
				keys = append(keys, b.entries[i].key)
			}
			currentPage = b.overflowPage
		}
	}
	return keys, nil
}

// hashString is 64-bit FNV-1a.
func hashString(s string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(s))
	return h.Sum64()
}

func (h *HashTable) bucketIndex(hashValue uint64) uint32 {
	return uint32(hashValue % uint64(h.header.bucketCount))
}

func (h *HashTable) loadBucket(pageID primitives.PageID) (*bucket, error) {
	p, err := h.eng.ReadPage(pageID)
	if err != nil {
		return nil, err
	}
	return deserializeBucket(p.Data[:]), nil
}

func (h *HashTable) saveBucket(pageID primitives.PageID, b *bucket) error {
	p := page.New(page.TypeHashBucket)
	b.serialize(p.Data[:])
	return h.eng.WritePage(pageID, p)
}

func (h *HashTable) saveHeader() error {
	p := page.New(page.TypeHashBucket)
	h.header.serialize(p.Data[:])
	return h.eng.WritePage(h.headerPageID, p)
}
