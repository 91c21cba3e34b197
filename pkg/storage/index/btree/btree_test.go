package btree

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"meetdb/pkg/primitives"
	"meetdb/pkg/storage/engine"
)

func setupTestTree(t *testing.T) *BTree {
	t.Helper()
	eng, err := engine.Initialize(filepath.Join(t.TempDir(), "btree.db"))
	require.NoError(t, err)
	t.Cleanup(func() { eng.Close() })

	tr := New(eng)
	require.NoError(t, tr.Initialize())
	return tr
}

func locFor(key uint64) primitives.RecordLocation {
	return primitives.NewRecordLocation(primitives.PageID(key), uint16(key%100), 64)
}

// verifySubtree checks key ordering, fill, and separation bounds for the
// subtree rooted at pageID and returns its leaf depth. Bounds are
// half-open: every key k satisfies lo <= k, and k < *hi when hi is set.
func verifySubtree(t *testing.T, tr *BTree, pageID primitives.PageID, isRoot bool, lo uint64, hi *uint64) int {
	t.Helper()

	n, err := tr.loadNode(pageID)
	require.NoError(t, err)

	if !isRoot {
		require.GreaterOrEqual(t, int(n.numKeys), MinKeys,
			"non-root node %d underfull", pageID)
	}

	for i := 0; i < int(n.numKeys); i++ {
		if i > 0 {
			require.Less(t, n.keys[i-1], n.keys[i],
				"keys not strictly increasing in node %d", pageID)
		}
		require.GreaterOrEqual(t, n.keys[i], lo, "key below bound in node %d", pageID)
		if hi != nil {
			require.Less(t, n.keys[i], *hi, "key above bound in node %d", pageID)
		}
	}

	if n.isLeaf {
		return 0
	}

	depth := -1
	for i := 0; i <= int(n.numKeys); i++ {
		childLo := lo
		if i > 0 {
			childLo = n.keys[i-1]
		}
		var childHi *uint64
		if i < int(n.numKeys) {
			k := n.keys[i]
			childHi = &k
		} else {
			childHi = hi
		}
		d := verifySubtree(t, tr, n.children[i], false, childLo, childHi)
		if depth == -1 {
			depth = d
		}
		require.Equal(t, depth, d, "leaves at unequal depth under node %d", pageID)
	}
	return depth + 1
}

// leafChainKeys walks the leaf chain from the leftmost leaf and returns
// every key in order.
func leafChainKeys(t *testing.T, tr *BTree) []uint64 {
	t.Helper()

	id := tr.rootPageID
	n, err := tr.loadNode(id)
	require.NoError(t, err)
	for !n.isLeaf {
		id = n.children[0]
		n, err = tr.loadNode(id)
		require.NoError(t, err)
	}

	var keys []uint64
	for id != 0 {
		n, err = tr.loadNode(id)
		require.NoError(t, err)
		for i := 0; i < int(n.numKeys); i++ {
			keys = append(keys, n.keys[i])
		}
		id = n.nextLeaf
	}
	return keys
}

func checkInvariants(t *testing.T, tr *BTree) {
	t.Helper()
	verifySubtree(t, tr, tr.rootPageID, true, 0, nil)
}

func TestSearchEmptyTree(t *testing.T) {
	tr := setupTestTree(t)

	_, found, err := tr.Search(42)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestInsertAndSearch(t *testing.T) {
	tr := setupTestTree(t)

	require.NoError(t, tr.Insert(42, locFor(42)))

	loc, found, err := tr.Search(42)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, locFor(42), loc)

	_, found, err = tr.Search(43)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestRootFillsWithoutSplit(t *testing.T) {
	tr := setupTestTree(t)

	for key := uint64(1); key <= MaxKeys; key++ {
		require.NoError(t, tr.Insert(key, locFor(key)))
	}

	root, err := tr.loadNode(tr.rootPageID)
	require.NoError(t, err)
	assert.True(t, root.isLeaf)
	assert.Equal(t, uint16(MaxKeys), root.numKeys)
}

func TestFirstSplitGrowsRoot(t *testing.T) {
	tr := setupTestTree(t)

	for key := uint64(1); key <= Order; key++ {
		require.NoError(t, tr.Insert(key, locFor(key)))
	}

	root, err := tr.loadNode(tr.rootPageID)
	require.NoError(t, err)
	assert.False(t, root.isLeaf)
	assert.Equal(t, uint16(1), root.numKeys)

	for key := uint64(1); key <= Order; key++ {
		loc, found, err := tr.Search(key)
		require.NoError(t, err)
		require.True(t, found, "key %d lost in split", key)
		assert.Equal(t, locFor(key), loc)
	}
	checkInvariants(t, tr)
}

func TestThousandKeys(t *testing.T) {
	tr := setupTestTree(t)

	// Interleave two ascending runs so splits see mid-leaf insertions too.
	for key := uint64(1); key <= 1000; key += 2 {
		require.NoError(t, tr.Insert(key, locFor(key)))
	}
	for key := uint64(2); key <= 1000; key += 2 {
		require.NoError(t, tr.Insert(key, locFor(key)))
	}

	for key := uint64(1); key <= 1000; key++ {
		loc, found, err := tr.Search(key)
		require.NoError(t, err)
		require.True(t, found, "key %d missing", key)
		require.Equal(t, locFor(key), loc)
	}

	results, err := tr.RangeSearch(250, 260)
	require.NoError(t, err)
	require.Len(t, results, 11)
	for i, loc := range results {
		assert.Equal(t, locFor(uint64(250+i)), loc)
	}

	chain := leafChainKeys(t, tr)
	require.Len(t, chain, 1000)
	for i, key := range chain {
		require.Equal(t, uint64(i+1), key)
	}

	checkInvariants(t, tr)
}

func TestRangeSearchBounds(t *testing.T) {
	tr := setupTestTree(t)

	for _, key := range []uint64{10, 20, 30, 40, 50} {
		require.NoError(t, tr.Insert(key, locFor(key)))
	}

	results, err := tr.RangeSearch(15, 45)
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, locFor(20), results[0])
	assert.Equal(t, locFor(30), results[1])
	assert.Equal(t, locFor(40), results[2])

	results, err = tr.RangeSearch(60, 100)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestRemoveThenSearch(t *testing.T) {
	tr := setupTestTree(t)

	for _, key := range []uint64{10, 20, 30, 40, 50} {
		require.NoError(t, tr.Insert(key, locFor(key)))
	}

	removed, err := tr.Remove(30)
	require.NoError(t, err)
	assert.True(t, removed)

	_, found, err := tr.Search(30)
	require.NoError(t, err)
	assert.False(t, found)

	results, err := tr.RangeSearch(0, 100)
	require.NoError(t, err)
	require.Len(t, results, 4)
	for i, key := range []uint64{10, 20, 40, 50} {
		assert.Equal(t, locFor(key), results[i])
	}
}

func TestRemoveMissingKey(t *testing.T) {
	tr := setupTestTree(t)

	require.NoError(t, tr.Insert(1, locFor(1)))
	removed, err := tr.Remove(2)
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestRemoveTriggersRebalance(t *testing.T) {
	tr := setupTestTree(t)

	for key := uint64(1); key <= 200; key++ {
		require.NoError(t, tr.Insert(key, locFor(key)))
	}

	// Draining keys 1..150 forces borrows and merges across the leaf
	// level and the root.
	for key := uint64(1); key <= 150; key++ {
		removed, err := tr.Remove(key)
		require.NoError(t, err)
		require.True(t, removed, "key %d should have been present", key)
	}

	for key := uint64(1); key <= 150; key++ {
		_, found, err := tr.Search(key)
		require.NoError(t, err)
		require.False(t, found, "key %d should be gone", key)
	}
	for key := uint64(151); key <= 200; key++ {
		loc, found, err := tr.Search(key)
		require.NoError(t, err)
		require.True(t, found, "key %d should survive", key)
		require.Equal(t, locFor(key), loc)
	}

	chain := leafChainKeys(t, tr)
	require.Len(t, chain, 50)
	checkInvariants(t, tr)
}

func TestDeepTreeDeletion(t *testing.T) {
	tr := setupTestTree(t)

	const total = 2500
	for key := uint64(1); key <= total; key++ {
		require.NoError(t, tr.Insert(key, locFor(key)))
	}

	rootDepth := verifySubtree(t, tr, tr.rootPageID, true, 0, nil)
	require.GreaterOrEqual(t, rootDepth, 2, "expected a tree of at least depth 3")

	for key := uint64(500); key <= 2000; key++ {
		removed, err := tr.Remove(key)
		require.NoError(t, err)
		require.True(t, removed, "key %d should have been present", key)
	}

	for key := uint64(1); key < 500; key++ {
		_, found, err := tr.Search(key)
		require.NoError(t, err)
		require.True(t, found, "key %d should survive", key)
	}
	for key := uint64(500); key <= 2000; key++ {
		_, found, err := tr.Search(key)
		require.NoError(t, err)
		require.False(t, found, "key %d should be gone", key)
	}

	checkInvariants(t, tr)
}

func TestRemoveEverything(t *testing.T) {
	tr := setupTestTree(t)

	for key := uint64(1); key <= 300; key++ {
		require.NoError(t, tr.Insert(key, locFor(key)))
	}
	for key := uint64(1); key <= 300; key++ {
		removed, err := tr.Remove(key)
		require.NoError(t, err)
		require.True(t, removed)
	}

	root, err := tr.loadNode(tr.rootPageID)
	require.NoError(t, err)
	assert.True(t, root.isLeaf)
	assert.Equal(t, uint16(0), root.numKeys)

	results, err := tr.RangeSearch(0, ^uint64(0))
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestLoadAdoptsExistingRoot(t *testing.T) {
	eng, err := engine.Initialize(filepath.Join(t.TempDir(), "btree.db"))
	require.NoError(t, err)
	defer eng.Close()

	tr := New(eng)
	require.NoError(t, tr.Initialize())
	require.NoError(t, tr.Insert(7, locFor(7)))
	root := tr.RootPageID()

	adopted := New(eng)
	adopted.Load(root)
	loc, found, err := adopted.Search(7)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, locFor(7), loc)
}
