// Package btree implements the disk-resident B+Tree index mapping 64-bit
// keys to record locations. Every node occupies one page; leaves are linked
// left to right for range scans.
package btree

import (
	"sync"

	"go.uber.org/zap"

	"meetdb/pkg/logging"
	"meetdb/pkg/primitives"
	"meetdb/pkg/storage/engine"
	"meetdb/pkg/storage/page"
)

// BTree is an order-64 B+Tree stored in engine pages.
//
// The tree carries its own writer lock: Insert and Remove take the write
// lock, Search and RangeSearch the read lock, so concurrent writers cannot
// interleave node rewiring. The engine's file mutex stays per page access
// underneath.
type BTree struct {
	eng        *engine.Engine
	rootPageID primitives.PageID
	mu         sync.RWMutex
	log        *zap.Logger
}

// New creates a B+Tree handle with no root. Call Initialize for a fresh
// tree or Load to adopt an existing root.
func New(eng *engine.Engine) *BTree {
	return &BTree{eng: eng, log: logging.GetLogger()}
}

// Initialize allocates an empty leaf root.
func (t *BTree) Initialize() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.initLocked()
}

func (t *BTree) initLocked() error {
	rootID, err := t.eng.AllocatePage()
	if err != nil {
		return err
	}
	if err := t.saveNode(rootID, newLeaf()); err != nil {
		return err
	}
	t.rootPageID = rootID
	t.log.Debug("btree initialized", zap.Uint64("root_page", uint64(rootID)))
	return nil
}

// Load adopts an existing root page.
func (t *BTree) Load(rootID primitives.PageID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.rootPageID = rootID
}

// RootPageID returns the current root. The root changes whenever a full
// root is split and on root collapse during deletion; callers re-register it in the file
// header after mutating operations.
func (t *BTree) RootPageID() primitives.PageID {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.rootPageID
}

// Search returns the location bound to key, with ok=false when the key is
// absent.
func (t *BTree) Search(key uint64) (primitives.RecordLocation, bool, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.rootPageID == 0 {
		return primitives.RecordLocation{}, false, nil
	}
	return t.searchAt(t.rootPageID, key)
}

// searchAt walks down from the node at pageID. At an internal node a key
// equal to the separator descends right; smaller keys descend left.
func (t *BTree) searchAt(pageID primitives.PageID, key uint64) (primitives.RecordLocation, bool, error) {
	n, err := t.loadNode(pageID)
	if err != nil {
		return primitives.RecordLocation{}, false, err
	}

	pos := searchKeyPos(n, key)

	if n.isLeaf {
		if pos < int(n.numKeys) && n.keys[pos] == key {
			return n.records[pos], true, nil
		}
		return primitives.RecordLocation{}, false, nil
	}

	if pos < int(n.numKeys) && n.keys[pos] == key {
		return t.searchAt(n.children[pos+1], key)
	}
	return t.searchAt(n.children[pos], key)
}

// Insert binds key to loc. Duplicate keys are placed in sorted position
// rather than replaced; callers keep the key space unique by construction
// (monotonic ids), and lookups on a duplicated key return one of its
// locations.
func (t *BTree) Insert(key uint64, loc primitives.RecordLocation) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.rootPageID == 0 {
		if err := t.initLocked(); err != nil {
			return err
		}
	}

	root, err := t.loadNode(t.rootPageID)
	if err != nil {
		return err
	}

	if root.numKeys == MaxKeys {
		// Root is full: grow the tree by one level, then split the old
		// root under the new one.
		newRootID, err := t.eng.AllocatePage()
		if err != nil {
			return err
		}
		newRoot := &node{isLeaf: false}
		newRoot.children[0] = t.rootPageID
		if err := t.saveNode(newRootID, newRoot); err != nil {
			return err
		}
		if err := t.splitChild(newRootID, 0, t.rootPageID); err != nil {
			return err
		}
		t.rootPageID = newRootID
		return t.insertNonFull(newRootID, key, loc)
	}

	return t.insertNonFull(t.rootPageID, key, loc)
}

// RangeSearch returns the locations of all keys in [startKey, endKey] in
// ascending key order, scanning the leaf chain.
func (t *BTree) RangeSearch(startKey, endKey uint64) ([]primitives.RecordLocation, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	results := []primitives.RecordLocation{}
	if t.rootPageID == 0 {
		return results, nil
	}

	// Descend to the leftmost leaf that can contain startKey.
	currentPage := t.rootPageID
	n, err := t.loadNode(currentPage)
	if err != nil {
		return nil, err
	}
	for !n.isLeaf {
		pos := searchKeyPos(n, startKey)
		currentPage = n.children[pos]
		if n, err = t.loadNode(currentPage); err != nil {
			return nil, err
		}
	}

	for currentPage != 0 {
		if n, err = t.loadNode(currentPage); err != nil {
			return nil, err
		}
		for i := 0; i < int(n.numKeys); i++ {
			if n.keys[i] >= startKey && n.keys[i] <= endKey {
				results = append(results, n.records[i])
			} else if n.keys[i] > endKey {
				return results, nil
			}
		}
		currentPage = n.nextLeaf
	}
	return results, nil
}

// loadNode reads and decodes the node stored at pageID.
func (t *BTree) loadNode(pageID primitives.PageID) (*node, error) {
	p, err := t.eng.ReadPage(pageID)
	if err != nil {
		return nil, err
	}
	return deserializeNode(p.Data[:]), nil
}

// saveNode encodes and writes the node to pageID.
func (t *BTree) saveNode(pageID primitives.PageID, n *node) error {
	p := page.New(n.pageType())
	n.serialize(p.Data[:])
	return t.eng.WritePage(pageID, p)
}
