// Package page implements the Page primitive: a mutable window into a
// Region, linked into a Buffer's doubly-linked FIFO list. A Page belongs to
// exactly one Buffer at a time and holds exactly one Region reference
// count, acquired on creation and released on Destroy.
package page

import "github.com/orizon-lang/pagebuf/internal/region"

// Page is a window (base, len) into a Region plus list links. The window
// is always a (non-proper) subrange of the Region's full range:
// 0 <= base and base+len <= region.Len().
type Page struct {
	Region *region.Region
	base   int
	len    int

	Prev, Next *Page
}

// New creates a Page covering the Region's full byte range, acquiring one
// reference. r must not be nil.
func New(r *region.Region) *Page {
	r.Get()
	return &Page{Region: r, base: 0, len: r.Len()}
}

// NewWindow creates a Page covering [base, base+length) of r's byte
// range, acquiring one reference.
func NewWindow(r *region.Region, base, length int) *Page {
	r.Get()
	return &Page{Region: r, base: base, len: length}
}

// Transfer creates a new Page sharing src's Region, windowing
// [srcOff, srcOff+length) relative to src's own window, acquiring a new
// reference on the shared Region. It is the zero-copy primitive behind
// cross-buffer writes and page splitting on insert.
func Transfer(src *Page, srcOff, length int) *Page {
	return NewWindow(src.Region, src.base+srcOff, length)
}

// Destroy releases the Page's Region reference. The Page must not be used
// afterward.
func (p *Page) Destroy() {
	p.Region.Put()
	p.Region = nil
	p.Prev, p.Next = nil, nil
}

// Len returns the window length.
func (p *Page) Len() int { return p.len }

// Base returns the window's offset into the Region's byte range.
func (p *Page) Base() int { return p.base }

// Bytes returns the window's byte slice, a subrange of the Region's full
// byte range.
func (p *Page) Bytes() []byte { return p.Region.Bytes()[p.base : p.base+p.len] }

// AdvanceHead moves the window's start forward by n bytes, shrinking it
// from the front (used by seek-within-a-page).
func (p *Page) AdvanceHead(n int) {
	p.base += n
	p.len -= n
}

// ShrinkTail moves the window's end backward by n bytes (used by
// trim-within-a-page).
func (p *Page) ShrinkTail(n int) {
	p.len -= n
}

// TruncateTo shrinks the window to length n from its current base (used
// when splitting a Page on insert: the anchor half keeps [base, base+n)).
func (p *Page) TruncateTo(n int) {
	p.len = n
}

// ResetWindow replaces the window bounds outright, used when a Page's
// Region is swapped for a freshly allocated one (overwrite of shared or
// referenced storage).
func (p *Page) ResetWindow(base, length int) {
	p.base, p.len = base, length
}

// Unlink removes p from its doubly-linked list, relinking its neighbours,
// and clears p's own links. It does not Destroy p.
func (p *Page) Unlink() {
	if p.Prev != nil {
		p.Prev.Next = p.Next
	}
	if p.Next != nil {
		p.Next.Prev = p.Prev
	}
	p.Prev, p.Next = nil, nil
}

// InsertAfter links p immediately after anchor.
func (p *Page) InsertAfter(anchor *Page) {
	n := anchor.Next
	p.Prev = anchor
	p.Next = n
	anchor.Next = p
	if n != nil {
		n.Prev = p
	}
}

// InsertBefore links p immediately before anchor.
func (p *Page) InsertBefore(anchor *Page) {
	pr := anchor.Prev
	p.Next = anchor
	p.Prev = pr
	anchor.Prev = p
	if pr != nil {
		pr.Next = p
	}
}
