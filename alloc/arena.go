package alloc

import (
	"sync"
)

// Arena is a bump allocator: it carves fixed-size slices off one big
// backing buffer and never reclaims individual allocations, only the whole
// arena at once via Reset. It is adapted from the teacher's
// ArenaAllocatorImpl (internal/allocator/arena.go), trading raw-pointer
// bump allocation for slice re-slicing, which is the idiomatic Go
// equivalent with the same O(1) allocation cost and no per-allocation
// metadata.
//
// Free is a no-op, matching the teacher's arena: individual allocations
// cannot be reclaimed, only the arena as a whole via Reset.
type Arena struct {
	mu      sync.Mutex
	buf     []byte
	offset  int
	allocs  uint64
	peak    int
	current int
}

// NewArena creates an Arena backed by a single size-byte allocation.
func NewArena(size int) *Arena {
	if size < 0 {
		size = 0
	}
	return &Arena{buf: make([]byte, size)}
}

// Alloc implements Allocator. KindStruct and KindRegion are treated
// identically: both carve a zero-filled slice from the arena (make() has
// already zeroed the backing buffer, and Reset zeroes the used part
// before rewinding, so a later Alloc never re-exposes stale bytes).
func (a *Arena) Alloc(kind Kind, size int) []byte {
	if size <= 0 {
		return nil
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.offset+size > len(a.buf) {
		return nil
	}
	b := a.buf[a.offset : a.offset+size : a.offset+size]
	a.offset += size
	a.allocs++
	a.current += size
	if a.current > a.peak {
		a.peak = a.current
	}
	return b
}

// Free is a no-op: the arena only reclaims memory on Reset. A KindStruct
// buffer is zeroed in place anyway, so a caller relying on zeroed teardown
// still observes it even though the bytes remain carved out of the arena.
func (a *Arena) Free(kind Kind, buf []byte) {
	if kind == KindStruct {
		for i := range buf {
			buf[i] = 0
		}
	}
}

// Reset frees the whole arena in one step, invalidating every slice handed
// out by Alloc. Callers must guarantee no outstanding Region or Page still
// references arena memory before calling Reset.
func (a *Arena) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	clear(a.buf[:a.offset])
	a.offset = 0
	a.allocs = 0
	a.current = 0
}

// Stats reports cumulative allocation counters.
type ArenaStats struct {
	Capacity        int
	Used            int
	PeakUsed        int
	AllocationCount uint64
}

// Stats returns the arena's current usage snapshot.
func (a *Arena) Stats() ArenaStats {
	a.mu.Lock()
	defer a.mu.Unlock()
	return ArenaStats{
		Capacity:        len(a.buf),
		Used:            a.current,
		PeakUsed:        a.peak,
		AllocationCount: a.allocs,
	}
}
