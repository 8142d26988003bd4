package mmapbuf

import (
	"github.com/orizon-lang/pagebuf/buffer"
	"github.com/orizon-lang/pagebuf/internal/page"
)

// strategy is the mmap Buffer's fixed Strategy: page size pinned to the
// mapping granule, writes always clone into the file rather than sharing
// another Buffer's Regions, cross-buffer write fragmentation follows this
// Buffer's own granule boundaries, and structural inserts are rejected
// because the backing store is a flat file, not a splice-friendly list.
func strategy() buffer.Strategy {
	return buffer.NewStrategy(
		buffer.WithPageSize(MapGranule),
		buffer.WithCloneOnWrite(true),
		buffer.WithFragmentAsTarget(true),
		buffer.WithRejectsInsert(true),
	)
}

// Buffer is a Buffer backed by a memory-mapped file. It embeds
// *buffer.Core for the parts of the Buffer contract that need no
// file-specific behaviour (iteration, overwrite, Clear) and overrides
// DataSize, Extend, Reserve, Rewind, Seek, Trim, WriteData, WriteBuffer
// and Destroy, exactly the set the design calls out as needing to touch
// the file or allocator state directly.
type Buffer struct {
	*buffer.Core
	alloc *allocator
}

var _ buffer.Buffer = (*Buffer)(nil)

// Create opens or creates the file at path per action and returns an
// empty-list mmap Buffer over it, using the Trivial allocator for any
// incidental struct allocations.
func Create(path string, openAction OpenAction, closeAction CloseAction) (*Buffer, error) {
	a, err := newAllocator(path, openAction, closeAction)
	if err != nil {
		return nil, err
	}
	b := &Buffer{
		Core:  buffer.NewCore(strategy(), a),
		alloc: a,
	}
	b.Core.SetMaterializers(b.materializeForward, b.materializeBackward)
	return b, nil
}

// fileOffsetOfPageEnd returns the file offset just past p's window, using
// the Region's Backref (set by allocator.mapNew to the Region's aligned
// file offset) plus the Page's own window bounds — this is how the mmap
// Buffer recovers "where in the file am I" without tracking it
// separately per Page.
func fileOffsetOfPageEnd(p *page.Page) int64 {
	aligned := p.Region.Backref.(int64)
	return aligned + int64(p.Base()) + int64(p.Len())
}

// fileOffsetOfPageStart returns the file offset of p's window start.
func fileOffsetOfPageStart(p *page.Page) int64 {
	aligned := p.Region.Backref.(int64)
	return aligned + int64(p.Base())
}

// materializeForward implements the forward page-materialisation rule:
// given the last cached Page (or nil, meaning "nothing cached yet"),
// produce a new Page covering the next byte of the file, or nil at EOF.
func (b *Buffer) materializeForward(after *page.Page) *page.Page {
	var fileOffset int64
	if after == nil {
		fileOffset = b.alloc.fileHeadOffset
	} else {
		fileOffset = fileOffsetOfPageEnd(after)
	}
	size, err := b.alloc.refreshSize()
	if err != nil || fileOffset >= size {
		return nil
	}
	r, winOff, isNew, err := b.alloc.ensureMapped(fileOffset)
	if err != nil || r == nil {
		return nil
	}
	winLen := int64(r.Len()) - winOff
	pg := page.NewWindow(r, int(winOff), int(winLen))
	if isNew {
		r.Put()
	}
	return pg
}

// materializeBackward implements the reverse page-materialisation rule,
// symmetric to materializeForward: given the first cached Page (or nil at
// the tail end of the file if nothing is cached), produce a new Page
// ending exactly where it begins, or nil if already at file_head_offset.
func (b *Buffer) materializeBackward(before *page.Page) *page.Page {
	var fileOffset int64
	if before == nil {
		size, err := b.alloc.refreshSize()
		if err != nil {
			return nil
		}
		fileOffset = size
	} else {
		fileOffset = fileOffsetOfPageStart(before)
	}
	if fileOffset <= b.alloc.fileHeadOffset {
		return nil
	}
	aligned := alignDown(fileOffset - 1)
	r, _, isNew, err := b.alloc.ensureMapped(aligned)
	if err != nil || r == nil {
		return nil
	}
	winEnd := fileOffset - aligned
	if winEnd > int64(r.Len()) {
		winEnd = int64(r.Len())
	}
	var winStart int64
	if aligned < b.alloc.fileHeadOffset {
		winStart = b.alloc.fileHeadOffset - aligned
	}
	pg := page.NewWindow(r, int(winStart), int(winEnd-winStart))
	if isNew {
		r.Put()
	}
	return pg
}

// DataSize returns file_size - file_head_offset: the mmap Buffer's total
// byte count is defined by the file, not by how many Pages happen to be
// cached.
func (b *Buffer) DataSize() int {
	size, err := b.alloc.refreshSize()
	if err != nil {
		return 0
	}
	n := size - b.alloc.fileHeadOffset
	if n < 0 {
		return 0
	}
	return int(n)
}

// Extend grows the file by n bytes via ftruncate. Pure append: never
// bumps data_revision.
func (b *Buffer) Extend(n int) int {
	if b.Strategy().RejectsExtend || n <= 0 {
		return 0
	}
	size, err := b.alloc.refreshSize()
	if err != nil {
		return 0
	}
	if err := b.alloc.growTo(size + int64(n)); err != nil {
		return 0
	}
	return n
}

// Reserve extends the file so DataSize() >= size.
func (b *Buffer) Reserve(size int) int {
	need := size - b.DataSize()
	if need <= 0 {
		return 0
	}
	return b.Extend(need)
}

// Rewind moves file_head_offset back by up to n bytes (never below 0)
// and purges cached Pages, which re-materialise on demand.
func (b *Buffer) Rewind(n int) int {
	if b.Strategy().RejectsRewind || n <= 0 {
		return 0
	}
	moved := n
	if int64(moved) > b.alloc.fileHeadOffset {
		moved = int(b.alloc.fileHeadOffset)
	}
	if moved <= 0 {
		return 0
	}
	b.alloc.fileHeadOffset -= int64(moved)
	b.Core.Clear()
	return moved
}

// Seek moves file_head_offset forward by up to n bytes (never past
// file_size) and purges cached Pages.
func (b *Buffer) Seek(n int) int {
	if b.Strategy().RejectsSeek || n <= 0 {
		return 0
	}
	avail := b.DataSize()
	moved := n
	if moved > avail {
		moved = avail
	}
	if moved <= 0 {
		return 0
	}
	b.alloc.fileHeadOffset += int64(moved)
	b.Core.Clear()
	return moved
}

// Trim truncates the file by up to n bytes from the tail via ftruncate,
// evicting any mapping past the new end, and purges cached Pages.
func (b *Buffer) Trim(n int) int {
	if b.Strategy().RejectsTrim || n <= 0 {
		return 0
	}
	size, err := b.alloc.refreshSize()
	if err != nil {
		return 0
	}
	avail := size - b.alloc.fileHeadOffset
	moved := int64(n)
	if moved > avail {
		moved = avail
	}
	if moved <= 0 {
		return 0
	}
	if err := b.alloc.shrinkTo(size - moved); err != nil {
		return 0
	}
	b.Core.Clear()
	return int(moved)
}

// WriteData appends p directly to the file via a positioned write(2),
// bypassing the page list entirely. data_revision is bumped only when
// the buffer held no bytes before this write, matching the rule that a
// reader's very first bytes becoming visible is the one write-time event
// worth invalidating a cursor over.
func (b *Buffer) WriteData(p []byte) int {
	if b.Strategy().RejectsWrite || len(p) == 0 {
		return 0
	}
	wasEmpty := b.DataSize() == 0
	size, err := b.alloc.refreshSize()
	if err != nil {
		return 0
	}
	if err := b.alloc.growTo(size + int64(len(p))); err != nil {
		return 0
	}
	n, err := writeAt(b.alloc.file, p, size)
	if err != nil {
		return 0
	}
	if wasEmpty && n > 0 {
		b.Core.Clear()
	}
	return n
}

// writevMaxRanges caps a single writev(2) call's scatter vector, growing
// the vector geometrically up to this fixed ceiling and issuing
// additional writev calls for any remainder.
const writevMaxRanges = 1024

// WriteBuffer gathers up to n bytes of src's Page windows into a vector
// of byte ranges and issues scatter writes via writev(2), growing the
// vector geometrically up to writevMaxRanges ranges per call.
func (b *Buffer) WriteBuffer(src buffer.Buffer, n int) int {
	if b.Strategy().RejectsWrite || n <= 0 {
		return 0
	}
	wasEmpty := b.DataSize() == 0
	size, err := b.alloc.refreshSize()
	if err != nil {
		return 0
	}
	writeOffset := size
	remaining := n
	total := 0
	it := src.Iterator()
	for remaining > 0 && !it.IsEnd() {
		var bufs [][]byte
		batch := 0
		for remaining > 0 && !it.IsEnd() && len(bufs) < writevMaxRanges {
			chunk := it.Bytes()
			if len(chunk) > remaining {
				chunk = chunk[:remaining]
			}
			if len(chunk) == 0 {
				break
			}
			bufs = append(bufs, chunk)
			batch += len(chunk)
			remaining -= len(chunk)
			it = it.Next()
		}
		if len(bufs) == 0 {
			break
		}
		if err := b.alloc.growTo(writeOffset + int64(batch)); err != nil {
			break
		}
		written, err := writevAt(b.alloc.file, bufs, writeOffset)
		total += written
		writeOffset += int64(written)
		if err != nil || written < batch {
			break
		}
	}
	if wasEmpty && total > 0 {
		b.Core.Clear()
	}
	return total
}

// Destroy purges every cached Page and closes (and, per CloseAction,
// unlinks) the backing file.
func (b *Buffer) Destroy() {
	b.Core.Clear()
	b.alloc.close()
}

// Path returns the backing file's path.
func (b *Buffer) Path() string { return b.alloc.path }

// Fd returns the backing file descriptor.
func (b *Buffer) Fd() uintptr { return b.alloc.file.Fd() }

// CloseAction returns the current close action, mutable post-construction
// via SetCloseAction.
func (b *Buffer) CloseAction() CloseAction { return b.alloc.closeAction }

// SetCloseAction changes what Destroy does to the backing file.
func (b *Buffer) SetCloseAction(action CloseAction) { b.alloc.closeAction = action }
