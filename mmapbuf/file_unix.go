//go:build unix

package mmapbuf

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// openFile opens path according to action, returning the backing *os.File
// and its size at open time.
func openFile(path string, action OpenAction) (*os.File, int64, error) {
	var flag int
	switch action {
	case OpenRead:
		flag = os.O_RDONLY
	case OpenAppend:
		flag = os.O_RDWR | os.O_CREATE
	case OpenOverwrite:
		flag = os.O_RDWR | os.O_CREATE | os.O_TRUNC
	default:
		return nil, 0, ErrInvalidOpenAction
	}
	f, err := os.OpenFile(path, flag, 0o644)
	if err != nil {
		return nil, 0, fmt.Errorf("mmapbuf: open %s: %w", path, err)
	}
	st, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, 0, fmt.Errorf("mmapbuf: stat %s: %w", path, err)
	}
	return f, st.Size(), nil
}

// fileSize reports the current size of f via fstat.
func fileSize(f *os.File) (int64, error) {
	var st unix.Stat_t
	if err := unix.Fstat(int(f.Fd()), &st); err != nil {
		return 0, fmt.Errorf("mmapbuf: fstat: %w", err)
	}
	return st.Size, nil
}

// truncateFile grows or shrinks f to exactly size bytes.
func truncateFile(f *os.File, size int64) error {
	if err := unix.Ftruncate(int(f.Fd()), size); err != nil {
		return fmt.Errorf("mmapbuf: ftruncate: %w", err)
	}
	return nil
}

// mapGranule maps [offset, offset+length) of f, offset must already be
// MapGranule-aligned.
func mapGranule(f *os.File, offset, length int64) ([]byte, error) {
	b, err := unix.Mmap(int(f.Fd()), offset, int(length), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		return nil, fmt.Errorf("mmapbuf: mmap: %w", err)
	}
	return b, nil
}

// unmapGranule releases a mapping produced by mapGranule.
func unmapGranule(b []byte) error {
	if err := unix.Munmap(b); err != nil {
		return fmt.Errorf("mmapbuf: munmap: %w", err)
	}
	return nil
}

// writeAt writes p to f at offset via a plain positioned write(2).
func writeAt(f *os.File, p []byte, offset int64) (int, error) {
	n, err := f.WriteAt(p, offset)
	if err != nil {
		return n, fmt.Errorf("mmapbuf: write: %w", err)
	}
	return n, nil
}

// writevAt gathers bufs into a single scatter write at offset via
// writev(2), capped by the caller at 1024 ranges per call.
func writevAt(f *os.File, bufs [][]byte, offset int64) (int, error) {
	if _, err := f.Seek(offset, os.SEEK_SET); err != nil {
		return 0, fmt.Errorf("mmapbuf: seek: %w", err)
	}
	iovs := make([][]byte, len(bufs))
	copy(iovs, bufs)
	n, err := unix.Writev(int(f.Fd()), iovs)
	if err != nil {
		return n, fmt.Errorf("mmapbuf: writev: %w", err)
	}
	return n, nil
}

// removeFile unlinks path, used by CloseRemove.
func removeFile(path string) error {
	if err := unix.Unlink(path); err != nil {
		return fmt.Errorf("mmapbuf: unlink %s: %w", path, err)
	}
	return nil
}
