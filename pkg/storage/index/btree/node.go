package btree

import (
	"encoding/binary"

	"meetdb/pkg/primitives"
	"meetdb/pkg/storage/page"
)

const (
	// Order is the maximum branching factor: 64 children, 63 keys.
	Order = 64
	// MaxKeys is the key capacity of a node.
	MaxKeys = Order - 1
	// MinKeys is the minimum fill of a non-root node.
	MinKeys = Order/2 - 1
)

// Node body layout inside a page, all little-endian:
//
//	offset 0   is_leaf      u8
//	offset 1   num_keys     u16
//	offset 3   parent_page  u64
//	offset 11  next_leaf    u64
//	offset 19  keys         63 x u64
//	offset 523 union        records 63 x 12 bytes (leaf)
//	                        children 64 x u64    (internal)
//
// Leaf and internal bodies occupy the same fixed footprint so any node page
// can be repurposed when a node changes role.
const (
	offIsLeaf   = 0
	offNumKeys  = 1
	offParent   = 3
	offNextLeaf = 11
	offKeys     = 19
	offUnion    = offKeys + MaxKeys*8
	// nodeFootprint is the serialized size of either node variant; the leaf
	// record array is the larger arm of the union.
	nodeFootprint = offUnion + MaxKeys*primitives.RecordLocationSize
)

// node is a B+Tree node held in memory. The records array is meaningful for
// leaves, the children array for internal nodes; isLeaf discriminates.
// parentPage is informational only and never relied on for correctness.
type node struct {
	isLeaf     bool
	numKeys    uint16
	parentPage primitives.PageID
	nextLeaf   primitives.PageID
	keys       [MaxKeys]uint64
	children   [Order]primitives.PageID
	records    [MaxKeys]primitives.RecordLocation
}

// newLeaf returns an empty leaf node.
func newLeaf() *node {
	return &node{isLeaf: true}
}

// serialize writes the node into a page body.
func (n *node) serialize(data []byte) {
	for i := 0; i < nodeFootprint; i++ {
		data[i] = 0
	}
	if n.isLeaf {
		data[offIsLeaf] = 1
	}
	binary.LittleEndian.PutUint16(data[offNumKeys:], n.numKeys)
	binary.LittleEndian.PutUint64(data[offParent:], uint64(n.parentPage))
	binary.LittleEndian.PutUint64(data[offNextLeaf:], uint64(n.nextLeaf))

	for i := 0; i < MaxKeys; i++ {
		binary.LittleEndian.PutUint64(data[offKeys+i*8:], n.keys[i])
	}

	if n.isLeaf {
		for i := 0; i < MaxKeys; i++ {
			primitives.PutRecordLocation(
				data[offUnion+i*primitives.RecordLocationSize:], n.records[i])
		}
	} else {
		for i := 0; i < Order; i++ {
			binary.LittleEndian.PutUint64(data[offUnion+i*8:], uint64(n.children[i]))
		}
	}
}

// deserializeNode reads a node from a page body.
func deserializeNode(data []byte) *node {
	n := &node{
		isLeaf:     data[offIsLeaf] == 1,
		numKeys:    binary.LittleEndian.Uint16(data[offNumKeys:]),
		parentPage: primitives.PageID(binary.LittleEndian.Uint64(data[offParent:])),
		nextLeaf:   primitives.PageID(binary.LittleEndian.Uint64(data[offNextLeaf:])),
	}

	for i := 0; i < MaxKeys; i++ {
		n.keys[i] = binary.LittleEndian.Uint64(data[offKeys+i*8:])
	}

	if n.isLeaf {
		for i := 0; i < MaxKeys; i++ {
			n.records[i] = primitives.GetRecordLocation(
				data[offUnion+i*primitives.RecordLocationSize:])
		}
	} else {
		for i := 0; i < Order; i++ {
			n.children[i] = primitives.PageID(binary.LittleEndian.Uint64(data[offUnion+i*8:]))
		}
	}
	return n
}

// pageType returns the page tag matching the node variant.
func (n *node) pageType() page.Type {
	if n.isLeaf {
		return page.TypeBTreeLeaf
	}
	return page.TypeBTreeInternal
}

// searchKeyPos binary-searches for key and returns its index when present,
// otherwise the insertion position.
func searchKeyPos(n *node, key uint64) int {
	left, right := 0, int(n.numKeys)-1
	for left <= right {
		mid := left + (right-left)/2
		switch {
		case n.keys[mid] == key:
			return mid
		case n.keys[mid] < key:
			left = mid + 1
		default:
			right = mid - 1
		}
	}
	return left
}
