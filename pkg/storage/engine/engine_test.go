package engine

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"meetdb/pkg/dberr"
	"meetdb/pkg/primitives"
	"meetdb/pkg/storage/page"
)

func setupTestEngine(t *testing.T) (*Engine, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	eng, err := Initialize(path)
	require.NoError(t, err)
	t.Cleanup(func() { eng.Close() })
	return eng, path
}

func TestInitializeAndOpen(t *testing.T) {
	eng, path := setupTestEngine(t)
	assert.Equal(t, uint64(1), eng.TotalPages())
	require.NoError(t, eng.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	defer reopened.Close()
	assert.Equal(t, uint64(1), reopened.TotalPages())
}

func TestOpenRejectsForeignFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bogus.db")
	buf := make([]byte, page.Size)
	copy(buf, "NOPE")
	require.NoError(t, os.WriteFile(path, buf, 0o644))

	_, err := Open(path)
	require.Error(t, err)
}

func TestAllocateExtendsFile(t *testing.T) {
	eng, _ := setupTestEngine(t)

	p1, err := eng.AllocatePage()
	require.NoError(t, err)
	p2, err := eng.AllocatePage()
	require.NoError(t, err)

	assert.Equal(t, primitives.PageID(1), p1)
	assert.Equal(t, primitives.PageID(2), p2)
	assert.Equal(t, uint64(3), eng.TotalPages())
}

func TestFreeListIsLIFO(t *testing.T) {
	eng, _ := setupTestEngine(t)

	p1, err := eng.AllocatePage()
	require.NoError(t, err)
	p2, err := eng.AllocatePage()
	require.NoError(t, err)
	p3, err := eng.AllocatePage()
	require.NoError(t, err)

	// Give every allocated page content on disk before freeing one.
	for _, id := range []primitives.PageID{p1, p2, p3} {
		require.NoError(t, eng.WritePage(id, page.New(page.TypeDataOverflow)))
	}

	require.NoError(t, eng.FreePage(p2))
	assert.Equal(t, p2, eng.FreeListHead())

	got, err := eng.AllocatePage()
	require.NoError(t, err)
	assert.Equal(t, p2, got)
	assert.Equal(t, primitives.PageID(0), eng.FreeListHead())
}

func TestFreeListChainsAcrossReopen(t *testing.T) {
	eng, path := setupTestEngine(t)

	var ids []primitives.PageID
	for i := 0; i < 3; i++ {
		id, err := eng.AllocatePage()
		require.NoError(t, err)
		require.NoError(t, eng.WritePage(id, page.New(page.TypeDataOverflow)))
		ids = append(ids, id)
	}
	for _, id := range ids {
		require.NoError(t, eng.FreePage(id))
	}
	require.NoError(t, eng.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	defer reopened.Close()

	// LIFO order: last freed comes back first.
	for i := len(ids) - 1; i >= 0; i-- {
		got, err := reopened.AllocatePage()
		require.NoError(t, err)
		assert.Equal(t, ids[i], got)
	}
}

func TestWriteThenReadPage(t *testing.T) {
	eng, _ := setupTestEngine(t)

	id, err := eng.AllocatePage()
	require.NoError(t, err)

	p := page.New(page.TypeDataOverflow)
	for i := range p.Data {
		p.Data[i] = byte(i % 251)
	}
	require.NoError(t, eng.WritePage(id, p))

	got, err := eng.ReadPage(id)
	require.NoError(t, err)
	assert.Equal(t, p.Data, got.Data)
	assert.True(t, got.VerifyChecksum())
}

func TestReadPrefersCachedWrite(t *testing.T) {
	eng, _ := setupTestEngine(t)

	id, err := eng.AllocatePage()
	require.NoError(t, err)

	p := page.New(page.TypeDataOverflow)
	p.Data[0] = 1
	require.NoError(t, eng.WritePage(id, p))

	p.Data[0] = 2
	require.NoError(t, eng.WritePage(id, p))

	got, err := eng.ReadPage(id)
	require.NoError(t, err)
	assert.Equal(t, byte(2), got.Data[0])
}

func TestReadSurvivesCorruptChecksum(t *testing.T) {
	eng, path := setupTestEngine(t)

	id, err := eng.AllocatePage()
	require.NoError(t, err)
	p := page.New(page.TypeDataOverflow)
	p.Data[0] = 42
	require.NoError(t, eng.WritePage(id, p))
	require.NoError(t, eng.Close())

	// Flip a body byte behind the engine's back.
	f, err := os.OpenFile(path, os.O_RDWR, 0o644)
	require.NoError(t, err)
	_, err = f.WriteAt([]byte{43}, int64(id)*page.Size+page.HeaderSize)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	defer reopened.Close()

	// The corrupt page is surfaced as a diagnostic, not an error.
	got, err := reopened.ReadPage(id)
	require.NoError(t, err)
	assert.Equal(t, byte(43), got.Data[0])
	assert.False(t, got.VerifyChecksum())
}

func TestCountersPersistAcrossReopen(t *testing.T) {
	eng, path := setupTestEngine(t)

	assert.Equal(t, uint64(1), eng.NextUserID())
	assert.Equal(t, uint64(2), eng.NextUserID())
	assert.Equal(t, uint64(1), eng.NextMeetingID())
	assert.Equal(t, uint64(1), eng.NextMessageID())
	assert.Equal(t, uint64(1), eng.NextFileID())
	assert.Equal(t, uint64(1), eng.NextWhiteboardID())
	require.NoError(t, eng.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	defer reopened.Close()

	assert.Equal(t, uint64(3), reopened.NextUserID())
	assert.Equal(t, uint64(2), reopened.NextMeetingID())
	assert.Equal(t, uint64(2), reopened.NextWhiteboardID())
}

func TestRootRegistrationPersists(t *testing.T) {
	eng, path := setupTestEngine(t)

	eng.SetIndexRoot(UsersIndex, 17)
	eng.SetIndexRoot(WhiteboardIndex, 21)
	eng.SetLookupHeader(LoginLookup, 33)
	eng.SetLookupHeader(ChatSearchLookup, 44)
	require.NoError(t, eng.WriteHeader())
	require.NoError(t, eng.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	defer reopened.Close()

	assert.Equal(t, primitives.PageID(17), reopened.IndexRoot(UsersIndex))
	assert.Equal(t, primitives.PageID(21), reopened.IndexRoot(WhiteboardIndex))
	assert.Equal(t, primitives.PageID(0), reopened.IndexRoot(MeetingsIndex))
	assert.Equal(t, primitives.PageID(33), reopened.LookupHeader(LoginLookup))
	assert.Equal(t, primitives.PageID(44), reopened.LookupHeader(ChatSearchLookup))
}

func TestConcurrentAllocationsAreDistinct(t *testing.T) {
	eng, _ := setupTestEngine(t)

	const workers = 8
	const perWorker = 20

	var g errgroup.Group
	results := make([][]primitives.PageID, workers)
	for w := 0; w < workers; w++ {
		w := w
		g.Go(func() error {
			for i := 0; i < perWorker; i++ {
				id, err := eng.AllocatePage()
				if err != nil {
					return err
				}
				if err := eng.WritePage(id, page.New(page.TypeDataOverflow)); err != nil {
					return err
				}
				results[w] = append(results[w], id)
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	seen := make(map[primitives.PageID]bool)
	for _, ids := range results {
		for _, id := range ids {
			assert.False(t, seen[id], "page %d allocated twice", id)
			seen[id] = true
		}
	}
	assert.Len(t, seen, workers*perWorker)
}

func TestKeyTooLongKindSurfaces(t *testing.T) {
	// Guard the dberr plumbing the indexes depend on.
	err := dberr.New(dberr.KeyTooLong, "test", "too long")
	assert.True(t, dberr.HasKind(err, dberr.KeyTooLong))
	assert.False(t, dberr.HasKind(err, dberr.IOFailure))
}
