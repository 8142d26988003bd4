// Package reader implements the two cursor readers built on top of
// buffer.Buffer: DataReader, a plain sequential byte cursor, and
// LineReader, a '\n'/'\r\n' line-discovery state machine. Both track the
// Buffer's data_revision and reset to the head whenever it changes out
// from under them — the only defense a reader has against a Buffer
// mutated by something other than the reader's own consume/seek calls.
package reader

import "github.com/orizon-lang/pagebuf/buffer"

// DataReader is a stateful, non-consuming-by-default cursor over a
// Buffer: Read copies bytes and advances the cursor without touching the
// Buffer itself; Consume does the same and then removes the copied bytes
// from the Buffer's head.
type DataReader struct {
	buf      buffer.Buffer
	revision uint64
	pit      buffer.PageIterator
	off      int
}

// New returns a DataReader positioned at buf's current head.
func New(buf buffer.Buffer) *DataReader {
	r := &DataReader{buf: buf}
	r.Reset()
	return r
}

// Reset repositions the cursor at the Buffer's current head and resyncs
// the saved data_revision snapshot.
func (r *DataReader) Reset() {
	r.pit = r.buf.Iterator()
	r.off = 0
	r.revision = r.buf.DataRevision()
}

// Clone returns an independent DataReader at the same cursor position.
// PageIterator is a small value type, so this is a plain struct copy.
func (r *DataReader) Clone() *DataReader {
	c := *r
	return &c
}

func (r *DataReader) syncIfStale() {
	if r.revision != r.buf.DataRevision() {
		r.Reset()
	}
}

// Read copies up to len(p) bytes starting at the cursor into p and
// advances the cursor by that many bytes. It does not modify the
// Buffer. Once the cursor reaches END, Read returns 0 — but a later call
// notices if the Buffer has since grown: the cursor parks on the last
// real Page it reached rather than collapsing into END, so a fresh
// Next() from there picks up pages appended afterward instead of
// wrapping back around to head.
func (r *DataReader) Read(p []byte) int {
	r.syncIfStale()
	if r.pit.IsEnd() {
		r.pit = r.buf.Iterator()
		r.off = 0
	}
	copied := 0
	for copied < len(p) && !r.pit.IsEnd() {
		b := r.pit.Bytes()
		if r.off >= len(b) {
			nxt := r.pit.Next()
			if nxt.IsEnd() {
				break
			}
			r.pit = nxt
			r.off = 0
			continue
		}
		avail := len(b) - r.off
		n := len(p) - copied
		if n > avail {
			n = avail
		}
		copy(p[copied:copied+n], b[r.off:r.off+n])
		copied += n
		r.off += n
	}
	return copied
}

// Consume reads exactly as Read does, then calls the Buffer's Seek with
// the number of bytes actually copied, removing them from the Buffer's
// head. Seek can shift the head Page's window in place rather than
// unlinking it, which invalidates the reader's saved offset into that
// same Page object, so the cursor is re-derived from the buffer's new
// head rather than patched in place.
func (r *DataReader) Consume(p []byte) int {
	n := r.Read(p)
	if n > 0 {
		r.buf.Seek(n)
		r.Reset()
	}
	return n
}
