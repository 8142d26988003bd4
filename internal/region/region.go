// Package region implements the reference-counted memory-region primitive
// that pagebuf Pages window into. A Region either owns a byte range it
// obtained from an Allocator, or merely describes a byte range owned
// elsewhere (REFERENCED); in both cases the range is immutable in
// description and stays valid for the Region's whole lifetime. Mutability
// lives entirely in the Pages that window into a Region, which is what
// lets cross-buffer sharing stay cheap: many Pages, possibly in many
// Buffers, can hold a Get on the same Region without copying its bytes.
package region

import (
	"sync/atomic"

	"github.com/orizon-lang/pagebuf/alloc"
)

// Responsibility records whether a Region owns the byte range it
// describes (and must release it through its Allocator) or merely
// references a byte range owned elsewhere.
type Responsibility int

const (
	// Owned means the byte range was obtained from the Region's Allocator
	// at construction and must be freed through it when the last
	// reference drops.
	Owned Responsibility = iota
	// Referenced means the byte range is externally owned; the Region
	// only describes it and never frees it.
	Referenced
)

// Region is a refcounted, immutable-in-description byte range.
//
// Concurrency discipline: refcount updates use sync/atomic. A Buffer
// itself is still owned by exactly one goroutine at a time (no internal
// locking on the Page list or Core state), but a Region can legitimately
// be shared between Pages living in Buffers on different goroutines —
// that is the whole point of zero-copy cross-buffer writes — so Get/Put
// must be safe without the caller arranging its own synchronization.
// This is a deliberate, consistently applied choice; see DESIGN.md "Open
// Questions".
type Region struct {
	bytes []byte
	resp  Responsibility
	alloc alloc.Allocator
	refs  int32

	// onRelease, when non-nil, replaces the default teardown (allocator
	// Free for Owned, plain drop for Referenced) entirely. Subtypes such
	// as the mmap Region use this to unmap instead of calling Free.
	onRelease func()

	// Backref is an optional, opaque back-pointer for subtype-specific
	// bookkeeping — e.g. the mmap Region stashes its aligned file offset
	// and owning MmapAllocator here. The region package never interprets
	// it.
	Backref any
}

// New creates an Owned Region of size bytes, allocated via a.
// It returns nil if the allocation fails (AllocFail, per spec §7).
func New(a alloc.Allocator, size int) *Region {
	b := a.Alloc(alloc.KindRegion, size)
	if b == nil {
		return nil
	}
	return &Region{bytes: b, resp: Owned, alloc: a, refs: 1}
}

// NewRef creates a Referenced Region describing an externally owned byte
// range. It performs no allocation of the byte range itself (only the
// Region struct, conceptually a KindStruct allocation; in Go this is just
// a regular composite literal).
func NewRef(a alloc.Allocator, b []byte) *Region {
	return &Region{bytes: b, resp: Referenced, alloc: a, refs: 1}
}

// NewCustom creates a Region whose teardown is entirely delegated to
// onRelease instead of the Allocator, for subtypes (mmap) that must run
// their own release logic (munmap) on last Put. resp still records the
// conceptual ownership for introspection via Responsibility().
func NewCustom(a alloc.Allocator, b []byte, resp Responsibility, onRelease func()) *Region {
	return &Region{bytes: b, resp: resp, alloc: a, refs: 1, onRelease: onRelease}
}

// Bytes returns the Region's full byte range. Callers must not grow or
// reslice beyond what was returned; Pages window into sub-ranges of it.
func (r *Region) Bytes() []byte { return r.bytes }

// Len returns the length of the Region's full byte range.
func (r *Region) Len() int { return len(r.bytes) }

// Responsibility reports whether the Region owns its byte range.
func (r *Region) Responsibility() Responsibility { return r.resp }

// RefCount returns the current reference count, for tests and invariant
// checks only; callers must not use it to make release decisions.
func (r *Region) RefCount() int32 { return atomic.LoadInt32(&r.refs) }

// Get increments the reference count and returns r, so call sites read as
// `p.region = src.region.Get()`.
func (r *Region) Get() *Region {
	atomic.AddInt32(&r.refs, 1)
	return r
}

// Put decrements the reference count. When it reaches zero, the byte
// range is released — through onRelease if the Region has one, otherwise
// through the Allocator for Owned Regions, or simply dropped for
// Referenced ones — and the Region must not be used again.
func (r *Region) Put() {
	if atomic.AddInt32(&r.refs, -1) > 0 {
		return
	}
	if r.onRelease != nil {
		r.onRelease()
		return
	}
	if r.resp == Owned {
		r.alloc.Free(alloc.KindRegion, r.bytes)
	}
	r.bytes = nil
}
