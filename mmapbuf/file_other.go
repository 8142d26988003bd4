//go:build !unix

package mmapbuf

import (
	"errors"
	"os"
)

// ErrUnsupported is returned by every file primitive on platforms without
// a unix mmap/writev implementation wired in.
var ErrUnsupported = errors.New("mmapbuf: unsupported on this platform")

func openFile(path string, action OpenAction) (*os.File, int64, error) {
	return nil, 0, ErrUnsupported
}

func fileSize(f *os.File) (int64, error) { return 0, ErrUnsupported }

func truncateFile(f *os.File, size int64) error { return ErrUnsupported }

func mapGranule(f *os.File, offset, length int64) ([]byte, error) {
	return nil, ErrUnsupported
}

func unmapGranule(b []byte) error { return ErrUnsupported }

func writeAt(f *os.File, p []byte, offset int64) (int, error) { return 0, ErrUnsupported }

func writevAt(f *os.File, bufs [][]byte, offset int64) (int, error) { return 0, ErrUnsupported }

func removeFile(path string) error { return ErrUnsupported }
