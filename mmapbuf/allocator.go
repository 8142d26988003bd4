package mmapbuf

import (
	"fmt"
	"os"
	"sync"

	"github.com/orizon-lang/pagebuf/alloc"
	"github.com/orizon-lang/pagebuf/internal/region"
)

// allocator owns the open file and the aligned-offset → current-mapping
// cache that backs one mmap Buffer. It also satisfies alloc.Allocator so
// a Region can carry it as its alloc field. Every mapped Region is built
// with region.NewCustom, which never calls Alloc; the embedded Trivial
// Alloc/Free are reached only by heap Regions created through the Core
// with this allocator, such as the copy that an overwrite of a shared or
// referenced Page allocates.
type allocator struct {
	alloc.Trivial

	mu sync.Mutex

	path           string
	file           *os.File
	fileHeadOffset int64
	fileSize       int64
	openAction     OpenAction
	closeAction    CloseAction
	closed         bool

	// granules maps an aligned file offset to the Region currently
	// mapping it. An entry is removed the instant a larger mapping
	// replaces it (the old Region becomes OBSOLETE: still valid for any
	// Page still holding it, just no longer discoverable here).
	granules map[int64]*region.Region
}

// newAllocator opens path per openAction and returns a ready allocator
// positioned at file_head_offset=0.
func newAllocator(path string, openAction OpenAction, closeAction CloseAction) (*allocator, error) {
	if openAction != OpenRead && openAction != OpenAppend && openAction != OpenOverwrite {
		return nil, ErrInvalidOpenAction
	}
	if closeAction != CloseRetain && closeAction != CloseRemove {
		return nil, ErrInvalidCloseAction
	}
	f, size, err := openFile(path, openAction)
	if err != nil {
		return nil, err
	}
	a := &allocator{
		path:        path,
		file:        f,
		fileSize:    size,
		openAction:  openAction,
		closeAction: closeAction,
		granules:    make(map[int64]*region.Region),
	}
	if openAction == OpenAppend {
		a.fileHeadOffset = 0
	}
	return a, nil
}

// refreshSize re-reads the file size via fstat, for callers (such as
// forward materialisation) that need to notice growth performed outside
// this allocator's own Extend/WriteData calls.
func (a *allocator) refreshSize() (int64, error) {
	if a.closed {
		return 0, ErrClosed
	}
	sz, err := fileSize(a.file)
	if err != nil {
		return 0, err
	}
	a.fileSize = sz
	return sz, nil
}

// granuleAt returns the current Region mapping the aligned offset, its
// mapped length, and whether this call created that mapping. An existing
// mapping is reused when it covers at least want bytes past aligned or a
// whole granule. It creates or replaces the mapping as needed per the forward/
// reverse materialisation rule: miss → map fresh; hit and short because
// the file grew → remap larger and evict the stale entry (which stays
// alive, OBSOLETE, for any Page still referencing it).
func (a *allocator) granuleAt(aligned int64, want int64) (r *region.Region, mappedLen int64, isNew bool, err error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return nil, 0, false, ErrClosed
	}

	size, err := fileSize(a.file)
	if err != nil {
		return nil, 0, false, err
	}
	a.fileSize = size

	mappedLen = size - aligned
	if mappedLen > MapGranule {
		mappedLen = MapGranule
	}
	if mappedLen <= 0 {
		return nil, 0, false, nil
	}

	if existing, ok := a.granules[aligned]; ok {
		if existing.Len() >= int(want) || existing.Len() >= MapGranule {
			return existing, int64(existing.Len()), false, nil
		}
		// File grew past the existing short mapping: remap larger and
		// evict; existing stays valid for whoever already holds a Get on
		// it, it is simply no longer the discoverable current mapping.
		delete(a.granules, aligned)
	}

	r, err = a.mapNew(aligned, mappedLen)
	if err != nil {
		return nil, 0, false, err
	}
	a.granules[aligned] = r
	return r, mappedLen, true, nil
}

// mapNew creates and maps a fresh granule-aligned Region of length bytes
// at aligned, wired to unmap and evict itself from the cache on last Put.
func (a *allocator) mapNew(aligned, length int64) (*region.Region, error) {
	b, err := mapGranule(a.file, aligned, length)
	if err != nil {
		return nil, err
	}
	var r *region.Region
	r = region.NewCustom(a, b, region.Owned, func() {
		a.mu.Lock()
		if cur, ok := a.granules[aligned]; ok && cur == r {
			delete(a.granules, aligned)
		}
		a.mu.Unlock()
		unmapGranule(b)
	})
	r.Backref = aligned
	return r, nil
}

// ensureMapped returns the Region currently mapping offset's aligned
// granule, the offset's position within that Region's window, and
// whether this call just created the mapping (in which case the caller
// owns the creation reference and must Put() it once it has taken its
// own reference, per the Region hand-off convention used throughout this
// module).
func (a *allocator) ensureMapped(offset int64) (r *region.Region, winOffset int64, isNew bool, err error) {
	aligned := alignDown(offset)
	r, _, isNew, err = a.granuleAt(aligned, offset-aligned+1)
	if err != nil {
		return nil, 0, false, err
	}
	if r == nil {
		return nil, 0, false, nil
	}
	return r, offset - aligned, isNew, nil
}

// growTo extends the file to at least size bytes via ftruncate.
func (a *allocator) growTo(size int64) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return ErrClosed
	}
	if size <= a.fileSize {
		return nil
	}
	if err := truncateFile(a.file, size); err != nil {
		return err
	}
	a.fileSize = size
	return nil
}

// shrinkTo truncates the file down to size bytes, evicting (but not
// forcibly unmapping — that still happens via refcount on Put) any
// cached granule that starts at or past size.
func (a *allocator) shrinkTo(size int64) error {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return ErrClosed
	}
	if err := truncateFile(a.file, size); err != nil {
		a.mu.Unlock()
		return err
	}
	a.fileSize = size
	for off := range a.granules {
		if off >= size {
			delete(a.granules, off)
		}
	}
	a.mu.Unlock()
	return nil
}

// close closes the file, unlinking it first if closeAction is
// CloseRemove. Calling close more than once is a no-op: every later
// allocator operation then reports ErrClosed instead of touching a closed
// fd.
func (a *allocator) close() error {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return nil
	}
	a.closed = true
	a.mu.Unlock()

	var unlinkErr error
	if a.closeAction == CloseRemove {
		unlinkErr = removeFile(a.path)
	}
	closeErr := a.file.Close()
	if unlinkErr != nil {
		return unlinkErr
	}
	if closeErr != nil {
		return fmt.Errorf("mmapbuf: close: %w", closeErr)
	}
	return nil
}
