//go:build unix

package serialization

import (
	"fmt"
	"os"
	"syscall"
)

// mmapFile maps size bytes of f into memory, read-only.
func mmapFile(f *os.File, size int64) ([]byte, error) {
	data, err := syscall.Mmap(
		int(f.Fd()), //nolint:gosec // G115: file descriptor fits in int
		0,
		int(size), //nolint:gosec // G115: file size validated by caller
		syscall.PROT_READ,
		syscall.MAP_SHARED,
	)
	if err != nil {
		return nil, fmt.Errorf("mmap: %w", err)
	}
	return data, nil
}

// munmapFile releases a mapping created by mmapFile.
func munmapFile(data []byte) error {
	return syscall.Munmap(data)
}
