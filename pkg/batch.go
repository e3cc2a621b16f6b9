package mcarecover

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofrs/flock"
)

// FileFailure records a region file that could not be processed
type FileFailure struct {
	Path string
	Err  error
}

func (f FileFailure) Error() string {
	return fmt.Sprintf("%s: %v", filepath.Base(f.Path), f.Err)
}

// BatchResult collects the outcome of every region file in a world
type BatchResult struct {
	RegionDir   string
	Files       []*FileResult
	Failures    []FileFailure
	Interrupted bool
}

// Failed reports whether any file could not be processed
func (b *BatchResult) Failed() bool {
	return len(b.Failures) > 0
}

// RegionDir returns the directory holding a world's region files
func RegionDir(worldPath string) string {
	return filepath.Join(worldPath, RegionDirName)
}

// IsRegionFile reports whether name looks like a region file for the given extension.
// The last extension only has to end with the suffix, so "mca" also matches "xmca".
func IsRegionFile(name, extension string) bool {
	if extension == "" {
		extension = DefaultExtension
	}
	ext := strings.TrimPrefix(filepath.Ext(name), ".")
	return ext != "" && strings.HasSuffix(ext, extension)
}

// ListRegionFiles returns the region files directly under regionDir, sorted by name
func ListRegionFiles(regionDir, extension string) ([]string, error) {
	entries, err := os.ReadDir(regionDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read region directory: %w", err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() || !IsRegionFile(entry.Name(), extension) {
			continue
		}
		files = append(files, filepath.Join(regionDir, entry.Name()))
	}
	return files, nil
}

// LockRegionDir takes an exclusive lock on a region directory for the duration of a run
func LockRegionDir(regionDir string) (*flock.Flock, error) {
	fileLock := flock.New(filepath.Join(regionDir, LockFileName))
	held, err := fileLock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("failed to lock region directory: %w", err)
	}
	if !held {
		return nil, fmt.Errorf("%w: %s", ErrRegionLocked, regionDir)
	}
	return fileLock, nil
}

// RecoverWorld processes every region file under <worldPath>/region one after another.
// A failing file is recorded and the batch moves on. Closing shutdown stops the batch
// before the next file starts; a file in progress is always finished.
func RecoverWorld(worldPath string, opts Options, shutdown <-chan struct{}) (*BatchResult, error) {
	defer VerboseEnter()()

	regionDir := RegionDir(worldPath)
	files, err := ListRegionFiles(regionDir, opts.Extension)
	if err != nil {
		return nil, err
	}

	var fileLock *flock.Flock
	if !opts.DryRun {
		fileLock, err = LockRegionDir(regionDir)
		if err != nil {
			return nil, err
		}
		defer fileLock.Unlock()
	}

	VerboseLog(1, "Found %d region files in %s", len(files), regionDir)

	batch := &BatchResult{RegionDir: regionDir}
	for _, path := range files {
		if isShutdown(shutdown) {
			batch.Interrupted = true
			VerboseLog(1, "Shutdown requested, stopping before %s", filepath.Base(path))
			break
		}

		result, err := RecoverRegionFile(path, opts)
		if err != nil {
			batch.Failures = append(batch.Failures, FileFailure{Path: path, Err: err})
			VerboseLog(1, "Error parsing region file %s: %v", filepath.Base(path), err)
			continue
		}

		batch.Files = append(batch.Files, result)
		if err := WriteReport(opts.Out, result, opts.Format); err != nil {
			VerboseLog(1, "Warning: failed to write report for %s: %v", filepath.Base(path), err)
		}
	}

	return batch, nil
}

func isShutdown(shutdown <-chan struct{}) bool {
	if shutdown == nil {
		return false
	}
	select {
	case <-shutdown:
		return true
	default:
		return false
	}
}
