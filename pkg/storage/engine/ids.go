package engine

// Monotonic id allocation. Counters live in the file header and survive
// restarts; each call increments under the engine mutex and returns the new
// value. Callers persist the header (WriteHeader) at their own commit
// boundary, typically right after the record reaches an index.

// NextUserID returns the next user id.
func (e *Engine) NextUserID() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.header.LastUserID++
	return e.header.LastUserID
}

// NextMeetingID returns the next meeting id.
func (e *Engine) NextMeetingID() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.header.LastMeetingID++
	return e.header.LastMeetingID
}

// NextMessageID returns the next message id.
func (e *Engine) NextMessageID() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.header.LastMessageID++
	return e.header.LastMessageID
}

// NextFileID returns the next file id.
func (e *Engine) NextFileID() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.header.LastFileID++
	return e.header.LastFileID
}

// NextWhiteboardID returns the next whiteboard element id.
func (e *Engine) NextWhiteboardID() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.header.LastWhiteboardID++
	return e.header.LastWhiteboardID
}
