package buffer

import (
	"github.com/orizon-lang/pagebuf/alloc"
	"github.com/orizon-lang/pagebuf/internal/page"
	"github.com/orizon-lang/pagebuf/internal/region"
)

// This file implements the heap Buffer's operations directly on *Core:
// append (WriteData/Extend/Reserve/WriteBuffer), head/tail shrink
// (Seek/Trim), head growth (Rewind), structural insert (InsertData/
// InsertDataRef/InsertBuffer), in-place overwrite (OverwriteData/
// OverwriteBuffer) and non-destructive read (ReadData). Because *Core
// already carries the shared list/revision/size/strategy/allocator state,
// a *Core IS the heap Buffer: buffer.New and friends hand one back
// directly. The mmap Buffer (package mmapbuf) embeds a *Core and shadows
// only the methods that must touch a file instead of an in-memory Region
// list (see §4.5 of the design): from this file it shadows Extend,
// Reserve, Rewind, Seek, Trim, WriteData, WriteBuffer and Destroy, and
// it reaches the file during iteration through Core's materialiser hooks
// rather than by shadowing the iterator methods. Everything else defined
// in this file is promoted unchanged to the mmap Buffer.

// newOwnedPage allocates a fresh Owned Region of size bytes via a and
// wraps it in a Page holding the Region's only live reference. Region
// creation hands back a Region at refcount 1 representing its own
// existence; wrapping it in a Page bumps that to 2, and the immediate
// Put() here drops the creation reference, leaving exactly the Page's own
// reference alive — the hand-off convention used throughout this file.
func newOwnedPage(a alloc.Allocator, size int) *page.Page {
	r := region.New(a, size)
	if r == nil {
		return nil
	}
	pg := page.New(r)
	r.Put()
	return pg
}

// allocPages splits n bytes into one or more newly allocated owned Pages,
// each sized min(PageSize, remaining) (or exactly remaining when
// PageSize==0). It stops at the first allocation failure, returning
// whatever was built so far — the partial-success contract for AllocFail.
func (c *Core) allocPages(n int) []*page.Page {
	var pages []*page.Page
	remaining := n
	for remaining > 0 {
		sz := remaining
		if c.strategy.PageSize > 0 && sz > c.strategy.PageSize {
			sz = c.strategy.PageSize
		}
		pg := newOwnedPage(c.alloc, sz)
		if pg == nil {
			break
		}
		pages = append(pages, pg)
		remaining -= sz
	}
	return pages
}

// Extend appends n bytes of fresh, uninitialised-content storage at the
// tail, split according to PageSize. It never bumps data_revision (pure
// append) and returns the number of bytes actually added.
func (c *Core) Extend(n int) int {
	if c.strategy.RejectsExtend || n <= 0 {
		return 0
	}
	pages := c.allocPages(n)
	added := 0
	for _, pg := range pages {
		c.AppendPage(pg)
		added += pg.Len()
	}
	return added
}

// Reserve extends the buffer so that DataSize() >= size, adding
// max(0, size-DataSize()) bytes.
func (c *Core) Reserve(size int) int {
	need := size - c.size
	if need <= 0 {
		return 0
	}
	return c.Extend(need)
}

// WriteData extends the buffer by len(p) bytes (bounded by AllocFail) and
// copies p into the newly added range. It never bumps data_revision.
func (c *Core) WriteData(p []byte) int {
	if c.strategy.RejectsWrite || len(p) == 0 {
		return 0
	}
	pages := c.allocPages(len(p))
	off := 0
	total := 0
	for _, pg := range pages {
		b := pg.Bytes()
		copy(b, p[off:off+len(b)])
		off += len(b)
		total += len(b)
		c.AppendPage(pg)
	}
	return total
}

// Rewind prepends n bytes of fresh storage at the head, ahead of whatever
// is already there. Unlike append, this changes addressing as seen by an
// in-flight reader, so it bumps data_revision.
func (c *Core) Rewind(n int) int {
	if c.strategy.RejectsRewind || n <= 0 {
		return 0
	}
	pages := c.allocPages(n)
	if len(pages) == 0 {
		return 0
	}
	oldHead := c.head()
	added := 0
	for _, pg := range pages {
		pg.InsertBefore(oldHead)
		c.size += pg.Len()
		added += pg.Len()
	}
	c.bumpRevision()
	return added
}

// Seek consumes up to n bytes from the head, destroying fully-consumed
// Pages and shrinking a partially-consumed one. It bumps data_revision
// whenever it consumes at least one byte.
func (c *Core) Seek(n int) int {
	if c.strategy.RejectsSeek || n <= 0 {
		return 0
	}
	remaining := n
	consumed := 0
	for remaining > 0 {
		h := c.head()
		if h == c.endNode() {
			break
		}
		if h.Len() <= remaining {
			c.PopHead()
			remaining -= h.Len()
			consumed += h.Len()
			h.Destroy()
		} else {
			h.AdvanceHead(remaining)
			c.size -= remaining
			consumed += remaining
			remaining = 0
		}
	}
	if consumed > 0 {
		c.bumpRevision()
	}
	return consumed
}

// Trim consumes up to n bytes from the tail, symmetric to Seek.
func (c *Core) Trim(n int) int {
	if c.strategy.RejectsTrim || n <= 0 {
		return 0
	}
	remaining := n
	consumed := 0
	for remaining > 0 {
		tl := c.tail()
		if tl == c.endNode() {
			break
		}
		if tl.Len() <= remaining {
			c.PopTail()
			remaining -= tl.Len()
			consumed += tl.Len()
			tl.Destroy()
		} else {
			tl.ShrinkTail(remaining)
			c.size -= remaining
			consumed += remaining
			remaining = 0
		}
	}
	if consumed > 0 {
		c.bumpRevision()
	}
	return consumed
}

// ReadData copies up to len(p) bytes from the head into p without
// consuming them; the caller must Seek to actually advance the buffer.
// It walks via advance() so that a lazily materialising Buffer (mmap)
// reads through to not-yet-cached content too.
func (c *Core) ReadData(p []byte) int {
	remaining := len(p)
	copied := 0
	node := c.Iterator().node
	for remaining > 0 && node != c.endNode() {
		b := node.Bytes()
		n := len(b)
		if n > remaining {
			n = remaining
		}
		copy(p[copied:copied+n], b[:n])
		copied += n
		remaining -= n
		node = c.advance(node)
	}
	return copied
}

// buildTransferPages materialises up to n bytes read from src into a
// sequence of new, unlinked Pages, honouring CloneOnWrite and
// FragmentAsTarget. With CloneOnWrite==false the new Pages share src's
// Regions via Transfer (zero-copy); with it true, bytes are copied into
// freshly allocated Regions. It returns the built Pages and the total
// bytes they cover (which may be less than n on AllocFail).
func (c *Core) buildTransferPages(src Buffer, n int) ([]*page.Page, int) {
	it := src.Iterator()
	remaining := n
	var out []*page.Page
	total := 0
	for remaining > 0 && !it.IsEnd() {
		srcLen := it.Len()
		take := srcLen
		if take > remaining {
			take = remaining
		}
		if take <= 0 {
			break
		}
		if !c.strategy.CloneOnWrite {
			np := page.Transfer(it.node, 0, take)
			if c.strategy.FragmentAsTarget && c.strategy.PageSize > 0 && take > c.strategy.PageSize {
				off := 0
				for off < take {
					sz := c.strategy.PageSize
					if sz > take-off {
						sz = take - off
					}
					out = append(out, page.Transfer(np, off, sz))
					off += sz
				}
				np.Destroy()
			} else {
				out = append(out, np)
			}
			total += take
		} else {
			fragSize := take
			if c.strategy.FragmentAsTarget {
				if c.strategy.PageSize > 0 {
					fragSize = c.strategy.PageSize
				}
			} else if fragSize > srcLen {
				fragSize = srcLen
			}
			srcBytes := it.Bytes()
			copied := 0
			for copied < take {
				chunk := fragSize
				if chunk > take-copied {
					chunk = take - copied
				}
				pg := newOwnedPage(c.alloc, chunk)
				if pg == nil {
					break
				}
				copy(pg.Bytes(), srcBytes[copied:copied+chunk])
				out = append(out, pg)
				copied += chunk
			}
			total += copied
			if copied < take {
				return out, total
			}
		}
		remaining -= take
		it = it.Next()
	}
	return out, total
}

// WriteBuffer appends up to n bytes read from src at the tail. Pure
// append: never bumps data_revision.
func (c *Core) WriteBuffer(src Buffer, n int) int {
	if c.strategy.RejectsWrite || n <= 0 {
		return 0
	}
	pages, total := c.buildTransferPages(src, n)
	for _, pg := range pages {
		c.AppendPage(pg)
	}
	return total
}

// linkInsert splices newPages into the list at the position described by
// (at, offset): before the anchor Page if offset==0, after it if
// offset>=its window length, splitting it in two around offset otherwise,
// or at the tail if at is END. It returns an iterator to the first
// spliced-in Page (or to at if nothing was inserted).
func (c *Core) linkInsert(at PageIterator, offset int, newPages []*page.Page) PageIterator {
	if len(newPages) == 0 {
		return at
	}
	if at.IsEnd() {
		for _, pg := range newPages {
			c.AppendPage(pg)
		}
		return PageIterator{core: c, node: newPages[0]}
	}
	anchor := at.node
	switch {
	case offset <= 0:
		for _, pg := range newPages {
			pg.InsertBefore(anchor)
			c.size += pg.Len()
		}
	case offset >= anchor.Len():
		target := anchor.Next
		for _, pg := range newPages {
			pg.InsertBefore(target)
			c.size += pg.Len()
		}
	default:
		// Zero-copy split: both halves keep pointing into the same
		// Region, only window bounds change.
		tailHalf := page.Transfer(anchor, offset, anchor.Len()-offset)
		anchor.TruncateTo(offset)
		tailHalf.InsertAfter(anchor)
		for _, pg := range newPages {
			pg.InsertBefore(tailHalf)
			c.size += pg.Len()
		}
	}
	return PageIterator{core: c, node: newPages[0]}
}

// InsertData inserts a copy of p at the position (at, offset), splitting
// the anchor Page if necessary. It bumps data_revision when it inserts at
// least one byte and returns (iterator to the first inserted Page, bytes
// inserted).
func (c *Core) InsertData(at PageIterator, offset int, p []byte) (PageIterator, int) {
	if c.strategy.RejectsInsert || len(p) == 0 {
		return at, 0
	}
	pages := c.allocPages(len(p))
	off := 0
	total := 0
	for _, pg := range pages {
		b := pg.Bytes()
		copy(b, p[off:off+len(b)])
		off += len(b)
		total += len(b)
	}
	first := c.linkInsert(at, offset, pages)
	if total > 0 {
		c.bumpRevision()
	}
	return first, total
}

// InsertDataRef inserts a single REFERENCED Page describing p directly,
// with no copy: p must remain valid and unmodified by the caller for as
// long as the Buffer (or anything it was transferred into) can still
// reach that Page.
func (c *Core) InsertDataRef(at PageIterator, offset int, p []byte) (PageIterator, int) {
	if c.strategy.RejectsInsert || len(p) == 0 {
		return at, 0
	}
	r := region.NewRef(c.alloc, p)
	pg := page.New(r)
	r.Put()
	first := c.linkInsert(at, offset, []*page.Page{pg})
	c.bumpRevision()
	return first, pg.Len()
}

// InsertBuffer inserts up to n bytes read from src at the position (at,
// offset), honouring CloneOnWrite/FragmentAsTarget exactly as
// WriteBuffer does.
func (c *Core) InsertBuffer(at PageIterator, offset int, src Buffer, n int) (PageIterator, int) {
	if c.strategy.RejectsInsert || n <= 0 {
		return at, 0
	}
	pages, total := c.buildTransferPages(src, n)
	first := c.linkInsert(at, offset, pages)
	if total > 0 {
		c.bumpRevision()
	}
	return first, total
}

// ensureOwnedUnshared guarantees node's Region is exclusively owned
// before in-place mutation: if it is shared (refcount>1) or merely
// Referenced, it is replaced with a freshly allocated Owned copy of the
// window's current contents so that aliased consumers (another Buffer
// holding the same Region, or the external owner of a Referenced range)
// are never silently mutated by an overwrite.
func (c *Core) ensureOwnedUnshared(node *page.Page) {
	r := node.Region
	if r.RefCount() <= 1 && r.Responsibility() == region.Owned {
		return
	}
	data := append([]byte(nil), node.Bytes()...)
	nr := region.New(c.alloc, len(data))
	if nr == nil {
		return
	}
	copy(nr.Bytes(), data)
	old := node.Region
	node.Region = nr
	node.ResetWindow(0, len(data))
	old.Put()
}

// OverwriteData writes up to len(p) bytes into the existing Page windows
// starting at the head, never growing the buffer. It bumps data_revision
// whenever it writes at least one byte.
func (c *Core) OverwriteData(p []byte) int {
	if c.strategy.RejectsOverwrite || len(p) == 0 {
		return 0
	}
	remaining := len(p)
	off := 0
	node := c.Iterator().node
	written := 0
	for remaining > 0 && node != c.endNode() {
		c.ensureOwnedUnshared(node)
		b := node.Bytes()
		n := len(b)
		if n > remaining {
			n = remaining
		}
		copy(b[:n], p[off:off+n])
		off += n
		written += n
		remaining -= n
		node = c.advance(node)
	}
	if written > 0 {
		c.bumpRevision()
	}
	return written
}

// OverwriteBuffer writes up to n bytes read from src into the existing
// Page windows starting at the head, never growing the buffer.
func (c *Core) OverwriteBuffer(src Buffer, n int) int {
	if c.strategy.RejectsOverwrite || n <= 0 {
		return 0
	}
	remaining := n
	dstNode := c.Iterator().node
	dstOff := 0
	srcIt := src.Iterator()
	srcOff := 0
	written := 0
	for remaining > 0 && dstNode != c.endNode() && !srcIt.IsEnd() {
		c.ensureOwnedUnshared(dstNode)
		dstBytes := dstNode.Bytes()
		srcBytes := srcIt.Bytes()
		take := remaining
		if avail := len(dstBytes) - dstOff; take > avail {
			take = avail
		}
		if avail := len(srcBytes) - srcOff; take > avail {
			take = avail
		}
		if take <= 0 {
			break
		}
		copy(dstBytes[dstOff:dstOff+take], srcBytes[srcOff:srcOff+take])
		written += take
		remaining -= take
		dstOff += take
		srcOff += take
		if dstOff >= len(dstBytes) {
			dstNode = c.advance(dstNode)
			dstOff = 0
		}
		if srcOff >= len(srcBytes) {
			srcIt = srcIt.Next()
			srcOff = 0
		}
	}
	if written > 0 {
		c.bumpRevision()
	}
	return written
}

// Destroy releases every Page's Region reference. In Go there is no
// separate "free the struct" step (the garbage collector reclaims the
// Core itself); Destroy's contract is exhausted by releasing everything
// the Buffer was keeping alive.
func (c *Core) Destroy() {
	c.Clear()
}
