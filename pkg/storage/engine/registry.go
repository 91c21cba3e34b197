package engine

import "meetdb/pkg/primitives"

// Index names one of the five B+Tree indexes whose roots live in the file
// header.
type Index int

const (
	UsersIndex Index = iota
	MeetingsIndex
	MessagesIndex
	FilesIndex
	WhiteboardIndex
)

// Lookup names one of the four hash tables whose header pages live in the
// file header.
type Lookup int

const (
	LoginLookup Lookup = iota
	MeetingCodeLookup
	FileDedupLookup
	ChatSearchLookup
)

// IndexRoot returns the registered root page of a B+Tree index, 0 when the
// index has never been initialized.
func (e *Engine) IndexRoot(ix Index) primitives.PageID {
	e.mu.Lock()
	defer e.mu.Unlock()
	return *e.indexRootField(ix)
}

// SetIndexRoot registers the root page of a B+Tree index. The caller
// persists the change with WriteHeader.
func (e *Engine) SetIndexRoot(ix Index, root primitives.PageID) {
	e.mu.Lock()
	defer e.mu.Unlock()
	*e.indexRootField(ix) = root
}

// LookupHeader returns the registered header page of a hash table, 0 when
// the table has never been initialized.
func (e *Engine) LookupHeader(l Lookup) primitives.PageID {
	e.mu.Lock()
	defer e.mu.Unlock()
	return *e.lookupHeaderField(l)
}

// SetLookupHeader registers the header page of a hash table. The caller
// persists the change with WriteHeader.
func (e *Engine) SetLookupHeader(l Lookup, id primitives.PageID) {
	e.mu.Lock()
	defer e.mu.Unlock()
	*e.lookupHeaderField(l) = id
}

func (e *Engine) indexRootField(ix Index) *primitives.PageID {
	switch ix {
	case UsersIndex:
		return &e.header.UsersRoot
	case MeetingsIndex:
		return &e.header.MeetingsRoot
	case MessagesIndex:
		return &e.header.MessagesRoot
	case FilesIndex:
		return &e.header.FilesRoot
	default:
		return &e.header.WhiteboardRoot
	}
}

func (e *Engine) lookupHeaderField(l Lookup) *primitives.PageID {
	switch l {
	case LoginLookup:
		return &e.header.LoginHash
	case MeetingCodeLookup:
		return &e.header.MeetingCodeHash
	case FileDedupLookup:
		return &e.header.FileDedupHash
	default:
		return &e.header.ChatSearchHash
	}
}
