package btree

import (
	"meetdb/pkg/dberr"
	"meetdb/pkg/primitives"
)

// splitChild splits the full child at childIndex of the parent node and
// installs a separator in the parent. Leaves split copy-up: the right half
// keeps the separator key so every record stays reachable at leaf level and
// the leaf chain stays complete. Internal nodes split push-up: the median
// key moves into the parent and leaves both halves.
func (t *BTree) splitChild(parentPageID primitives.PageID, childIndex int, childPageID primitives.PageID) error {
	parent, err := t.loadNode(parentPageID)
	if err != nil {
		return err
	}
	child, err := t.loadNode(childPageID)
	if err != nil {
		return err
	}

	newPageID, err := t.eng.AllocatePage()
	if err != nil {
		return err
	}
	newNode := &node{isLeaf: child.isLeaf, parentPage: parentPageID}

	mid := MaxKeys / 2
	var separator uint64

	if child.isLeaf {
		newNode.numKeys = MaxKeys - uint16(mid)
		for i := 0; i < int(newNode.numKeys); i++ {
			newNode.keys[i] = child.keys[mid+i]
			newNode.records[i] = child.records[mid+i]
		}
		newNode.nextLeaf = child.nextLeaf
		child.nextLeaf = newPageID
		separator = newNode.keys[0]
	} else {
		newNode.numKeys = MaxKeys - uint16(mid) - 1
		for i := 0; i < int(newNode.numKeys); i++ {
			newNode.keys[i] = child.keys[mid+1+i]
		}
		for i := 0; i <= int(newNode.numKeys); i++ {
			newNode.children[i] = child.children[mid+1+i]
		}
		separator = child.keys[mid]
	}

	child.numKeys = uint16(mid)

	// Shift the parent's keys and children right to open slot childIndex,
	// then install the separator and the new sibling.
	for i := int(parent.numKeys); i > childIndex; i-- {
		parent.keys[i] = parent.keys[i-1]
		parent.children[i+1] = parent.children[i]
	}
	parent.keys[childIndex] = separator
	parent.children[childIndex+1] = newPageID
	parent.numKeys++

	if err := t.saveNode(childPageID, child); err != nil {
		return err
	}
	if err := t.saveNode(newPageID, newNode); err != nil {
		return err
	}
	return t.saveNode(parentPageID, parent)
}

// insertNonFull descends from a node known to have room, splitting any full
// child before entering it, and places the pair at the leaf. Keys equal to
// a separator descend right, matching the search path.
func (t *BTree) insertNonFull(nodePageID primitives.PageID, key uint64, loc primitives.RecordLocation) error {
	n, err := t.loadNode(nodePageID)
	if err != nil {
		return err
	}

	pos := searchKeyPos(n, key)

	if n.isLeaf {
		if n.numKeys >= MaxKeys {
			// Cannot happen after preventive splitting.
			return dberr.New(dberr.StructuralViolation, "btree.Insert",
				"leaf %d full on descent", nodePageID)
		}
		for i := int(n.numKeys); i > pos; i-- {
			n.keys[i] = n.keys[i-1]
			n.records[i] = n.records[i-1]
		}
		n.keys[pos] = key
		n.records[pos] = loc
		n.numKeys++
		return t.saveNode(nodePageID, n)
	}

	if pos < int(n.numKeys) && n.keys[pos] == key {
		pos++
	}

	childPageID := n.children[pos]
	child, err := t.loadNode(childPageID)
	if err != nil {
		return err
	}

	if child.numKeys == MaxKeys {
		if err := t.splitChild(nodePageID, pos, childPageID); err != nil {
			return err
		}
		// The split installed a new separator; re-resolve the slot.
		if n, err = t.loadNode(nodePageID); err != nil {
			return err
		}
		if key >= n.keys[pos] {
			pos++
		}
	}

	return t.insertNonFull(n.children[pos], key, loc)
}
