// Package mmapbuf implements the mmap-backed Buffer: a Buffer whose Pages
// window into a file on disk through lazily materialised, granule-aligned
// memory mappings instead of heap-allocated Regions. Reads and writes of
// arbitrarily large files behave like an in-memory Buffer while keeping
// resident memory bounded to the mapped working set.
//
// The mmap Buffer embeds *buffer.Core and overrides exactly the
// operations that must touch the file directly (DataSize, Extend,
// Reserve, Rewind, Seek, Trim, WriteData, WriteBuffer, Destroy); every
// other Buffer method — iteration, overwrite, and insert (rejected via
// Strategy) — is promoted unchanged from Core. Iteration itself needs no
// override at all: Core.advance/retreat already call through to optional
// forward/backward materialiser hooks, and this package supplies those
// hooks instead of a parallel iterator implementation.
package mmapbuf

import "errors"

// MapGranule is the alignment unit for mmap windows, matching the
// platform page size used by every example in the retrieval pack that
// mmaps a file (4 KiB).
const MapGranule = 4096

// OpenAction selects how Create behaves toward an existing file.
type OpenAction int

const (
	// OpenRead opens an existing file read-only; the Buffer starts
	// positioned at its full existing contents.
	OpenRead OpenAction = iota
	// OpenAppend opens (creating if necessary) and positions writes
	// after any existing content.
	OpenAppend
	// OpenOverwrite opens (creating if necessary) and truncates any
	// existing content to zero length.
	OpenOverwrite
)

// CloseAction selects what Destroy does to the backing file.
type CloseAction int

const (
	// CloseRetain leaves the file on disk.
	CloseRetain CloseAction = iota
	// CloseRemove unlinks the file as part of Destroy.
	CloseRemove
)

// Sentinel errors matching the library's fixed error taxonomy (spec §7):
// ErrInvalidOpenAction/ErrInvalidCloseAction are InvalidArg, surfaced only
// at construction; ErrClosed reports use-after-destroy, returned
// internally by every allocator method that touches the file once Destroy
// has closed it — callers still see the usual "0" per §7's closed-fd rule,
// since Buffer's own methods never propagate errors, but the allocator's
// error path is real rather than falling through to a syscall failure.
var (
	ErrInvalidOpenAction  = errors.New("mmapbuf: invalid open action")
	ErrInvalidCloseAction = errors.New("mmapbuf: invalid close action")
	ErrClosed             = errors.New("mmapbuf: buffer is closed")
)

func alignDown(offset int64) int64 {
	return offset &^ (MapGranule - 1)
}
