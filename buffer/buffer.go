// Package buffer implements the fragment-tolerant Buffer: a sequence of
// Pages forming one logical byte stream, writable at the tail, trimmable
// from either end, insertable/overwritable in the middle, and readable
// through forward or reverse page- and byte-granularity iterators. Core
// holds the state and operations common to every variant; the heap
// variant (this package, allocating plain Regions) is a bare *Core, and
// the mmap variant (package mmapbuf, windowing a memory-mapped file)
// satisfies Buffer by embedding a *Core.
package buffer

import "github.com/orizon-lang/pagebuf/alloc"

// Buffer is a fragment-tolerant byte stream built from a doubly-linked
// list of Pages. All mutating operations report the number of bytes
// actually affected, which may be less than requested on allocation
// failure or because the operation is rejected by Strategy.
type Buffer interface {
	// DataSize returns the total number of bytes currently held.
	DataSize() int
	// DataRevision returns a counter that increments on every operation
	// that changes the byte addressing of existing content (seek, trim,
	// rewind, insert, overwrite, clear). On the heap Buffer, append-only
	// operations (WriteData, WriteBuffer, Extend, Reserve) never bump it:
	// a cursor reader can keep reading across an append without
	// invalidation. The mmap Buffer's WriteData/WriteBuffer bump it once,
	// when the write lands in a Buffer that held no bytes.
	DataRevision() uint64
	// Strategy returns the Buffer's immutable configuration.
	Strategy() Strategy

	// WriteData copies p into newly allocated storage appended at the
	// tail.
	WriteData(p []byte) int
	// WriteBuffer appends up to n bytes read from src at the tail,
	// zero-copy unless Strategy.CloneOnWrite is set.
	WriteBuffer(src Buffer, n int) int
	// Extend appends n bytes of freshly allocated, unspecified-content
	// storage at the tail.
	Extend(n int) int
	// Reserve extends the buffer so DataSize() >= size.
	Reserve(size int) int

	// Rewind prepends n bytes of freshly allocated storage at the head.
	Rewind(n int) int
	// Seek discards up to n bytes from the head.
	Seek(n int) int
	// Trim discards up to n bytes from the tail.
	Trim(n int) int
	// ReadData copies up to len(p) bytes from the head into p without
	// consuming them.
	ReadData(p []byte) int

	// InsertData copies p into newly allocated storage spliced at
	// (at, offset).
	InsertData(at PageIterator, offset int, p []byte) (PageIterator, int)
	// InsertDataRef splices a single Page directly describing p, with no
	// copy; p must outlive every reference to that Page.
	InsertDataRef(at PageIterator, offset int, p []byte) (PageIterator, int)
	// InsertBuffer splices up to n bytes read from src at (at, offset).
	InsertBuffer(at PageIterator, offset int, src Buffer, n int) (PageIterator, int)

	// OverwriteData writes up to len(p) bytes into existing storage
	// starting at the head, without growing the buffer.
	OverwriteData(p []byte) int
	// OverwriteBuffer writes up to n bytes read from src into existing
	// storage starting at the head, without growing the buffer.
	OverwriteBuffer(src Buffer, n int) int

	// Iterator returns a page-granularity iterator positioned at the
	// first byte.
	Iterator() PageIterator
	// EndIterator returns a page-granularity iterator positioned at END.
	EndIterator() PageIterator
	// ByteIterator returns a byte-granularity iterator positioned at the
	// first byte.
	ByteIterator() ByteIterator

	// Clear discards all content, releasing every Region reference it
	// holds.
	Clear()
	// Destroy releases all resources the Buffer holds. The Buffer must
	// not be used afterward.
	Destroy()
}

// compile-time assertion that the heap Buffer (a bare *Core) satisfies
// Buffer; the mmap Buffer asserts itself in package mmapbuf.
var _ Buffer = (*Core)(nil)

// New returns an empty heap Buffer with DefaultStrategy and the Trivial
// allocator.
func New() Buffer {
	return NewCore(DefaultStrategy(), &alloc.Trivial{})
}

// NewWithStrategy returns an empty heap Buffer with the given Strategy
// and the Trivial allocator.
func NewWithStrategy(strategy Strategy) Buffer {
	return NewCore(strategy, &alloc.Trivial{})
}

// NewWithAllocator returns an empty heap Buffer with DefaultStrategy and
// the given Allocator.
func NewWithAllocator(a alloc.Allocator) Buffer {
	return NewCore(DefaultStrategy(), a)
}

// NewWithStrategyAndAllocator returns an empty heap Buffer with the given
// Strategy and Allocator.
func NewWithStrategyAndAllocator(strategy Strategy, a alloc.Allocator) Buffer {
	return NewCore(strategy, a)
}
