// Package engine implements the paged heap: a single growable file of
// 4096-byte pages fronted by a bounded cache, with a free-list allocator and
// the file-wide header on page 0.
//
// A single mutex guards the file handle, the cache, the in-memory header,
// and the id counters. Each exported operation acquires the mutex only for
// its own file-access window; AllocatePage and FreePage mutate the header
// under the mutex and persist pages and header only after releasing it, so
// no call path ever acquires the mutex twice.
package engine

import (
	"io"
	"os"
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"meetdb/pkg/dberr"
	"meetdb/pkg/logging"
	"meetdb/pkg/memory"
	"meetdb/pkg/primitives"
	"meetdb/pkg/storage/page"
)

// MaxCacheSize bounds the page cache.
const MaxCacheSize = 100

// Engine is the process-wide paged heap shared by all indexes and chunkers.
type Engine struct {
	path   string
	file   *os.File
	header page.FileHeader
	cache  *memory.LRUPageCache
	mu     sync.Mutex
	log    *zap.Logger
}

// Initialize creates (or truncates) the database file at path and writes a
// fresh header to page 0.
func Initialize(path string) (*Engine, error) {
	file, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, dberr.Wrap(dberr.IOFailure, "engine.Initialize",
			errors.Wrapf(err, "failed to create database file %s", path))
	}

	e := &Engine{
		path:   path,
		file:   file,
		header: page.NewFileHeader(),
		cache:  memory.NewLRUPageCache(MaxCacheSize),
		log:    logging.GetLogger(),
	}

	if err := e.WriteHeader(); err != nil {
		file.Close()
		return nil, err
	}

	e.log.Info("database initialized", zap.String("path", path))
	return e, nil
}

// Open opens an existing database file and validates its header.
func Open(path string) (*Engine, error) {
	file, err := os.OpenFile(path, os.O_RDWR, 0o644)
	if err != nil {
		return nil, dberr.Wrap(dberr.IOFailure, "engine.Open",
			errors.Wrapf(err, "failed to open database file %s", path))
	}

	e := &Engine{
		path:  path,
		file:  file,
		cache: memory.NewLRUPageCache(MaxCacheSize),
		log:   logging.GetLogger(),
	}

	headerPage, err := e.readPageAt(0)
	if err != nil {
		file.Close()
		return nil, err
	}
	if !headerPage.VerifyChecksum() {
		file.Close()
		return nil, dberr.New(dberr.ChecksumMismatch, "engine.Open",
			"file header checksum failed")
	}

	header, err := page.DeserializeFileHeader(headerPage.Data[:])
	if err != nil {
		file.Close()
		return nil, err
	}
	e.header = header

	e.log.Info("database opened",
		zap.String("path", path),
		zap.Uint64("total_pages", header.TotalPages))
	return e, nil
}

// Close persists the header and closes the file. The engine is unusable
// afterwards.
func (e *Engine) Close() error {
	if e.file == nil {
		return nil
	}
	if err := e.WriteHeader(); err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.file.Sync(); err != nil {
		return dberr.Wrap(dberr.IOFailure, "engine.Close",
			errors.Wrap(err, "failed to sync database file"))
	}
	if err := e.file.Close(); err != nil {
		return dberr.Wrap(dberr.IOFailure, "engine.Close",
			errors.Wrap(err, "failed to close database file"))
	}
	e.file = nil
	e.cache.Clear()
	e.log.Info("database closed", zap.String("path", e.path))
	return nil
}

// AllocatePage returns an unused page id: the free-list head when the list
// is non-empty, otherwise a fresh id at the end of the file. The header is
// persisted after the mutex is released.
func (e *Engine) AllocatePage() (primitives.PageID, error) {
	e.mu.Lock()
	var id primitives.PageID
	if e.header.FreeListHead != 0 {
		id = e.header.FreeListHead
		freePage, err := e.readPageAt(id)
		if err != nil {
			e.mu.Unlock()
			return 0, err
		}
		e.header.FreeListHead = freePage.Header.NextFreePage
	} else {
		id = primitives.PageID(e.header.TotalPages)
		e.header.TotalPages++
	}
	e.mu.Unlock()

	if err := e.WriteHeader(); err != nil {
		return 0, err
	}
	return id, nil
}

// FreePage links a page into the free list. The page itself and the header
// are written after the mutex is released.
func (e *Engine) FreePage(id primitives.PageID) error {
	e.mu.Lock()
	prevHead := e.header.FreeListHead
	e.header.FreeListHead = id
	e.mu.Unlock()

	freePage := page.New(page.TypeFree)
	freePage.Header.NextFreePage = prevHead

	if err := e.WritePage(id, freePage); err != nil {
		return err
	}
	return e.WriteHeader()
}

// ReadPage returns the page with the given id, preferring the cache. A body
// checksum mismatch on a disk read is surfaced as a diagnostic and the page
// is still returned, so callers may attempt best-effort recovery.
func (e *Engine) ReadPage(id primitives.PageID) (*page.Page, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if cached, ok := e.cache.Get(id); ok {
		cp := *cached
		return &cp, nil
	}

	p, err := e.readPageAt(id)
	if err != nil {
		return nil, err
	}
	if !p.VerifyChecksum() {
		e.log.Warn("page checksum mismatch",
			zap.Uint64("page_id", uint64(id)),
			zap.Uint32("stored", p.Header.Checksum),
			zap.Uint32("computed", p.ComputeChecksum()))
	}

	e.cache.Put(id, p)
	cp := *p
	return &cp, nil
}

// WritePage recomputes the checksum, writes the page at id*Size, and updates
// the cache.
func (e *Engine) WritePage(id primitives.PageID, p *page.Page) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	cp := *p
	cp.UpdateChecksum()

	var buf [page.Size]byte
	if err := cp.Serialize(buf[:]); err != nil {
		return err
	}
	if _, err := e.file.WriteAt(buf[:], int64(id)*page.Size); err != nil {
		return dberr.Wrap(dberr.IOFailure, "engine.WritePage",
			errors.Wrapf(err, "failed to write page %d", id))
	}

	e.cache.Put(id, &cp)
	return nil
}

// WriteHeader serializes the in-memory header into page 0 and writes it out.
func (e *Engine) WriteHeader() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.writeHeaderLocked()
}

func (e *Engine) writeHeaderLocked() error {
	headerPage := page.New(page.TypeFree)
	if err := e.header.Serialize(headerPage.Data[:]); err != nil {
		return err
	}
	headerPage.UpdateChecksum()

	var buf [page.Size]byte
	if err := headerPage.Serialize(buf[:]); err != nil {
		return err
	}
	if _, err := e.file.WriteAt(buf[:], 0); err != nil {
		return dberr.Wrap(dberr.IOFailure, "engine.WriteHeader",
			errors.Wrap(err, "failed to write file header"))
	}
	return nil
}

// readPageAt reads a raw page from disk, bypassing the cache. Callers hold
// the mutex.
func (e *Engine) readPageAt(id primitives.PageID) (*page.Page, error) {
	var buf [page.Size]byte
	if _, err := e.file.ReadAt(buf[:], int64(id)*page.Size); err != nil && err != io.EOF {
		return nil, dberr.Wrap(dberr.IOFailure, "engine.ReadPage",
			errors.Wrapf(err, "failed to read page %d", id))
	}
	return page.Deserialize(buf[:])
}

// TotalPages returns the current page count, header page included.
func (e *Engine) TotalPages() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.header.TotalPages
}

// FreeListHead returns the current head of the free list, 0 when empty.
func (e *Engine) FreeListHead() primitives.PageID {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.header.FreeListHead
}

// Path returns the database file path.
func (e *Engine) Path() string {
	return e.path
}
