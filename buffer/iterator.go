package buffer

import "github.com/orizon-lang/pagebuf/internal/page"

// PageIterator is a bidirectional cursor over a Buffer's Pages. The zero
// value is not usable; obtain one via Buffer.Iterator()/EndIterator(). Two
// iterators compare Equal iff they reference the same Page in the same
// Buffer. PageIterator is a small value type: copying it is explicit and
// cheap, matching the spec's requirement that iterators never expose a
// raw internal pointer to callers (callers hold this struct, never a
// *page.Page).
type PageIterator struct {
	core *Core
	node *page.Page
}

// IsEnd reports whether the iterator is positioned at END.
func (it PageIterator) IsEnd() bool { return it.core == nil || it.node == it.core.endNode() }

// Equal reports whether it and other reference the same Page in the same
// Buffer.
func (it PageIterator) Equal(other PageIterator) bool {
	return it.core == other.core && it.node == other.node
}

// Len returns the current Page's window length, or 0 at END.
func (it PageIterator) Len() int {
	if it.IsEnd() {
		return 0
	}
	return it.node.Len()
}

// Bytes returns the current Page's window, or nil at END. The returned
// slice aliases the Page's Region; callers must not retain it across a
// mutating Buffer operation.
func (it PageIterator) Bytes() []byte {
	if it.IsEnd() {
		return nil
	}
	return it.node.Bytes()
}

// Next returns an iterator at the following Page, or END if it was
// already the last one. Reaching END from a forward-only source such as
// the mmap Buffer may first materialise one additional Page on demand.
func (it PageIterator) Next() PageIterator {
	return PageIterator{core: it.core, node: it.core.advance(it.node)}
}

// Prev returns an iterator at the preceding Page, or END if it was
// already the first one.
func (it PageIterator) Prev() PageIterator {
	return PageIterator{core: it.core, node: it.core.retreat(it.node)}
}

// ByteIterator is a PageIterator plus a byte offset within the current
// Page's window, giving byte-granularity iteration.
type ByteIterator struct {
	pit PageIterator
	off int
}

// IsEnd reports whether the iterator is positioned at END.
func (b ByteIterator) IsEnd() bool { return b.pit.IsEnd() }

// Byte returns the byte at the current position and true, or (0, false)
// at END.
func (b ByteIterator) Byte() (byte, bool) {
	if b.pit.IsEnd() {
		return 0, false
	}
	return b.pit.Bytes()[b.off], true
}

// PageIterator returns the underlying page-granularity iterator.
func (b ByteIterator) PageIterator() PageIterator { return b.pit }

// Offset returns the byte offset within the current Page's window.
func (b ByteIterator) Offset() int { return b.off }

// Next advances by one byte, crossing into the next Page (materialising
// one if needed) on overflow. Advancing past END is stable.
func (b ByteIterator) Next() ByteIterator {
	if b.pit.IsEnd() {
		return b
	}
	if b.off+1 < b.pit.Len() {
		return ByteIterator{pit: b.pit, off: b.off + 1}
	}
	nxt := b.pit.Next()
	return ByteIterator{pit: nxt, off: 0}
}

// Prev retreats by one byte, crossing into the previous Page's last byte
// on underflow.
func (b ByteIterator) Prev() ByteIterator {
	if !b.pit.IsEnd() && b.off > 0 {
		return ByteIterator{pit: b.pit, off: b.off - 1}
	}
	prv := b.pit.Prev()
	if prv.IsEnd() {
		return ByteIterator{pit: prv, off: 0}
	}
	return ByteIterator{pit: prv, off: prv.Len() - 1}
}
