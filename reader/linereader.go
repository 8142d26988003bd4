package reader

import "github.com/orizon-lang/pagebuf/buffer"

// MaxLineLength bounds a discovered line's reported length; a would-be
// longer line is truncated to this many bytes by GetLineLen/GetLineData,
// though the scan itself still runs to the real terminator.
const MaxLineLength = 16 * 1024 * 1024

type lineState int

const (
	scanning lineState = iota
	hasLine
)

// LineReader discovers '\n'- and '\r\n'-terminated lines at a Buffer's
// head by scanning forward from the last scan position, without copying
// anything until the caller asks for the line's bytes.
type LineReader struct {
	buf      buffer.Buffer
	revision uint64

	pit            buffer.PageIterator
	off            int
	offsetFromHead int

	state     lineState
	lastWasCR bool

	terminated      bool // forced end-of-line at END, no real terminator byte
	eofStripCR      bool // strip a trailing lone '\r' under the _check_cr variant
	sawRealNewline  bool // the current line ended on an actual '\n' byte
}

// NewLineReader returns a LineReader scanning from buf's current head.
func NewLineReader(buf buffer.Buffer) *LineReader {
	r := &LineReader{buf: buf}
	r.reset()
	return r
}

func (r *LineReader) reset() {
	r.pit = r.buf.Iterator()
	r.off = 0
	r.offsetFromHead = 0
	r.state = scanning
	r.lastWasCR = false
	r.terminated = false
	r.eofStripCR = false
	r.sawRealNewline = false
	r.revision = r.buf.DataRevision()
}

func (r *LineReader) syncIfStale() {
	if r.revision != r.buf.DataRevision() {
		r.reset()
	}
}

// HasLine reports whether a complete line is available at the head,
// scanning forward byte by byte from the last scan position until it
// finds a '\n', reaches a forced termination, or runs out of buffered
// data. A false result is not permanent: more data written to the
// Buffer lets a later call resume scanning from where this one stopped.
func (r *LineReader) HasLine() bool {
	r.syncIfStale()
	if r.state == hasLine {
		return true
	}
	if r.pit.IsEnd() {
		r.pit = r.buf.Iterator()
		r.off = 0
	}
	for !r.pit.IsEnd() {
		b := r.pit.Bytes()
		for r.off < len(b) {
			c := b[r.off]
			r.off++
			if c == '\n' {
				r.state = hasLine
				r.sawRealNewline = true
				return true
			}
			r.offsetFromHead++
			r.lastWasCR = c == '\r'
		}
		// Fully scanned this Page. Try to move on, but don't collapse
		// into END if nothing more is there yet: staying parked on the
		// real Page lets a later call notice data appended after it
		// (the Page's own Next link gets updated in place), instead of
		// wrapping back around to head the way re-deriving from a
		// stored END iterator would.
		nxt := r.pit.Next()
		if nxt.IsEnd() {
			break
		}
		r.pit = nxt
		r.off = 0
	}
	if r.terminated {
		r.state = hasLine
		r.sawRealNewline = false
		return true
	}
	return false
}

// GetLineLen returns the current line's length, excluding its terminator
// ('\n' or '\r\n'), capped at MaxLineLength. Only meaningful after
// HasLine returns true.
func (r *LineReader) GetLineLen() int {
	n := r.offsetFromHead
	strip := false
	if r.sawRealNewline {
		strip = r.lastWasCR
	} else {
		strip = r.eofStripCR && r.lastWasCR
	}
	if strip {
		n--
	}
	if n < 0 {
		n = 0
	}
	if n > MaxLineLength {
		n = MaxLineLength
	}
	return n
}

// GetLineData copies up to len(p) bytes of the current line (excluding
// its terminator) from the Buffer's head into p.
func (r *LineReader) GetLineData(p []byte) int {
	n := r.GetLineLen()
	if n > len(p) {
		n = len(p)
	}
	copied := 0
	it := r.buf.Iterator()
	for copied < n && !it.IsEnd() {
		b := it.Bytes()
		take := n - copied
		if take > len(b) {
			take = len(b)
		}
		copy(p[copied:copied+take], b[:take])
		copied += take
		it = it.Next()
	}
	return copied
}

// SeekLine advances the Buffer's head past the current line and its
// terminator (nothing, if the line was forcibly terminated at END with
// no real terminator byte present), then resets the reader to scan the
// new head.
func (r *LineReader) SeekLine() int {
	// offsetFromHead is the uncapped line length including any '\r'
	// before the terminator.
	total := r.offsetFromHead
	if r.sawRealNewline {
		total++
	} else if r.eofStripCR && r.lastWasCR {
		total--
	}
	n := r.buf.Seek(total)
	r.reset()
	return n
}

// TerminateLine marks END as a line end even though no terminator byte
// has been seen, so that trailing unterminated data can still be read
// as a final line (e.g. on EOF of an underlying stream).
func (r *LineReader) TerminateLine() {
	r.terminated = true
	r.eofStripCR = false
}

// TerminateLineCheckCR is TerminateLine, additionally stripping a
// trailing lone '\r' from the forced final line.
func (r *LineReader) TerminateLineCheckCR() {
	r.terminated = true
	r.eofStripCR = true
}
