package mcarecover

import (
	"fmt"
	"io/fs"
	"os"
	"syscall"

	"github.com/google/vectorio"
	"golang.org/x/sys/unix"
)

// readRegionFile loads the whole file into an owned, mutable buffer.
// The file is mapped read-only and copied out so the buffer never aliases the page cache.
func readRegionFile(path string) ([]byte, fs.FileMode, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to open region file: %w", err)
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to stat region file: %w", err)
	}
	if stat.IsDir() {
		return nil, 0, fmt.Errorf("region file %s is a directory", path)
	}

	size := stat.Size()
	if size == 0 {
		return []byte{}, stat.Mode().Perm(), nil
	}
	if size > int64(^uint(0)>>1) {
		return nil, 0, fmt.Errorf("region file too large: %d bytes", size)
	}

	mapped, err := unix.Mmap(int(file.Fd()), 0, int(size), unix.PROT_READ, unix.MAP_PRIVATE)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to mmap region file: %w", err)
	}
	defer unix.Munmap(mapped)

	data := make([]byte, len(mapped))
	copy(data, mapped)

	VerboseLog(3, "read %s: %d bytes, %d sectors", path, len(data), len(data)/SectorSize)
	return data, stat.Mode().Perm(), nil
}

// writeRegionFile replaces path with data. The header tables and the payload sectors
// go out as one writev to a temp file, which is synced and renamed over the original.
func writeRegionFile(path string, data []byte, perm fs.FileMode) error {
	if perm == 0 {
		perm = 0644
	}

	tmpPath := path + TempSuffix
	defer func() {
		if _, err := os.Stat(tmpPath); err == nil {
			os.Remove(tmpPath)
		}
	}()

	file, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm)
	if err != nil {
		return fmt.Errorf("failed to create temp region file %s: %w", tmpPath, err)
	}

	if err := writeAllVectored(file, data); err != nil {
		file.Close()
		return err
	}

	if err := file.Sync(); err != nil {
		file.Close()
		return fmt.Errorf("failed to sync temp region file: %w", err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("failed to close temp region file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to replace region file: %w", err)
	}
	return nil
}

// writeAllVectored writes data split at the end of the header tables
func writeAllVectored(file *os.File, data []byte) error {
	split := HeaderTablesSize
	if split > len(data) {
		split = len(data)
	}

	var iovecs []syscall.Iovec
	for _, part := range [][]byte{data[:split], data[split:]} {
		if len(part) == 0 {
			continue
		}
		iovec := syscall.Iovec{Base: &part[0]}
		iovec.SetLen(len(part))
		iovecs = append(iovecs, iovec)
	}
	if len(iovecs) == 0 {
		return nil
	}

	written, err := vectorio.WritevRaw(uintptr(file.Fd()), iovecs)
	if err != nil {
		return fmt.Errorf("failed to write region file with vectorio: %w", err)
	}

	// writev may stop short on very large buffers; finish with plain writes
	for written < len(data) {
		n, err := file.Write(data[written:])
		if err != nil {
			return fmt.Errorf("failed to write region file tail: %w", err)
		}
		written += n
	}
	return nil
}
