package buffer

import (
	"github.com/orizon-lang/pagebuf/alloc"
	"github.com/orizon-lang/pagebuf/internal/page"
)

// Core is the state shared by every Buffer variant: the circular
// doubly-linked Page list (with a sentinel standing in for END), the
// monotonic data_revision counter, the cached data_size, the immutable
// Strategy and Allocator. Variants build on a *Core rather than
// inheriting from a base type, per the library's "capability set, not
// inheritance" design: the heap Buffer in this package is a bare *Core,
// and the mmap Buffer in package mmapbuf embeds *Core and shadows the
// methods that need variant-specific behaviour (DataSize, Extend, Seek,
// ...), while methods it doesn't shadow are promoted straight from Core
// and already satisfy the Buffer interface.
//
// Lazy page materialisation (used only by the mmap Buffer) is injected as
// two optional hook functions rather than by subclassing: when iteration
// reaches the sentinel in either direction, Core calls the matching hook
// to materialise and link one more Page on demand. A Core with nil hooks
// behaves like a plain in-memory list, which is exactly the heap Buffer.
type Core struct {
	sentinel page.Page
	revision uint64
	size     int
	strategy Strategy
	alloc    alloc.Allocator

	forward  func(after *page.Page) *page.Page
	backward func(before *page.Page) *page.Page
}

// NewCore initialises an empty Core with the given strategy and
// allocator.
func NewCore(strategy Strategy, a alloc.Allocator) *Core {
	c := &Core{strategy: strategy, alloc: a}
	c.sentinel.Next = &c.sentinel
	c.sentinel.Prev = &c.sentinel
	return c
}

// SetMaterializers installs the lazy forward/backward page materialisers
// used by the mmap Buffer. Passing nil for either disables materialising
// in that direction (a plain list walk then terminates at END).
func (c *Core) SetMaterializers(forward, backward func(*page.Page) *page.Page) {
	c.forward, c.backward = forward, backward
}

// Strategy returns the Buffer's immutable Strategy.
func (c *Core) Strategy() Strategy { return c.strategy }

// Allocator returns the Buffer's Allocator.
func (c *Core) Allocator() alloc.Allocator { return c.alloc }

// DataSize returns the cached sum of all Pages' window lengths.
func (c *Core) DataSize() int { return c.size }

// DataRevision returns the monotonic structural-mutation counter.
func (c *Core) DataRevision() uint64 { return c.revision }

// bumpRevision increments data_revision; called by every operation that
// alters bytes already in the buffer (seek, rewind, trim, insert,
// overwrite, clear) but never by pure append/extend/read.
func (c *Core) bumpRevision() { c.revision++ }

// endNode returns the address that represents END for this Core.
func (c *Core) endNode() *page.Page { return &c.sentinel }

// head returns the first real Page, or the sentinel if empty.
func (c *Core) head() *page.Page { return c.sentinel.Next }

// tail returns the last real Page, or the sentinel if empty.
func (c *Core) tail() *page.Page { return c.sentinel.Prev }

// Empty reports whether the page list has no real pages cached. For the
// mmap Buffer this does not imply DataSize()==0: pages may simply not be
// materialised yet.
func (c *Core) Empty() bool { return c.head() == c.endNode() }

// AppendPage links p at the tail and accounts its length into data_size.
// It does not bump data_revision: callers materialising lazily, or
// appending during a pure-append operation, must decide that themselves.
func (c *Core) AppendPage(p *page.Page) {
	p.InsertBefore(&c.sentinel)
	c.size += p.Len()
}

// PrependPage links p at the head and accounts its length into data_size.
func (c *Core) PrependPage(p *page.Page) {
	p.InsertAfter(&c.sentinel)
	c.size += p.Len()
}

// PopHead unlinks and returns the first real Page (nil if empty),
// subtracting its length from data_size. The caller owns destroying it.
func (c *Core) PopHead() *page.Page {
	h := c.head()
	if h == c.endNode() {
		return nil
	}
	h.Unlink()
	c.size -= h.Len()
	return h
}

// PopTail unlinks and returns the last real Page (nil if empty),
// subtracting its length from data_size.
func (c *Core) PopTail() *page.Page {
	tl := c.tail()
	if tl == c.endNode() {
		return nil
	}
	tl.Unlink()
	c.size -= tl.Len()
	return tl
}

// ShrinkSize adjusts the cached data_size by delta without touching the
// list; used when a Page's window is trimmed in place rather than
// unlinked.
func (c *Core) ShrinkSize(delta int) { c.size -= delta }

// Clear destroys every cached Page (releasing Region references),
// resets data_size to zero, and bumps data_revision.
func (c *Core) Clear() {
	for p := c.head(); p != c.endNode(); {
		next := p.Next
		p.Unlink()
		p.Destroy()
		p = next
	}
	c.size = 0
	c.bumpRevision()
}

// advance returns the Page following node, materialising one lazily via
// the forward hook if node is the last cached page and a hook is
// installed. Advancing past END is stable and returns END again
// (OutOfBounds per spec §7 must not crash).
func (c *Core) advance(node *page.Page) *page.Page {
	if node == c.endNode() {
		return c.endNode()
	}
	nxt := node.Next
	if nxt == c.endNode() && c.forward != nil {
		if np := c.forward(node); np != nil {
			c.AppendPage(np)
			return np
		}
	}
	return nxt
}

// retreat returns the Page preceding node, materialising one lazily via
// the backward hook if node is the first cached page and a hook is
// installed.
func (c *Core) retreat(node *page.Page) *page.Page {
	if node == c.endNode() {
		tl := c.tail()
		if tl == c.endNode() && c.backward != nil {
			if np := c.backward(nil); np != nil {
				c.PrependPage(np)
				return np
			}
		}
		return tl
	}
	prv := node.Prev
	if prv == c.endNode() && c.backward != nil {
		if np := c.backward(node); np != nil {
			np.InsertBefore(node)
			c.size += np.Len()
			return np
		}
	}
	return prv
}

// Iterator positions at the first real Page, materialising it lazily if
// the Core is backed by an on-demand source (mmap) and nothing is cached
// yet, or at END if truly empty.
func (c *Core) Iterator() PageIterator {
	if c.Empty() && c.forward != nil {
		if np := c.forward(nil); np != nil {
			c.AppendPage(np)
		}
	}
	return PageIterator{core: c, node: c.head()}
}

// EndIterator returns an iterator positioned at END.
func (c *Core) EndIterator() PageIterator {
	return PageIterator{core: c, node: c.endNode()}
}

// ByteIterator returns a byte-granularity iterator positioned at the
// first byte, or at END if empty.
func (c *Core) ByteIterator() ByteIterator {
	return ByteIterator{pit: c.Iterator(), off: 0}
}
