package mcarecover

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/cespare/xxhash/v2"
	json "github.com/goccy/go-json"
)

// BackupMetadata describes one saved copy of a region file taken before it was rewritten
type BackupMetadata struct {
	ID           snowflake.ID `json:"id"`
	Timestamp    time.Time    `json:"timestamp"`
	RegionFile   string       `json:"region_file"`
	BackupFile   string       `json:"backup_file"`
	Size         int64        `json:"size"`
	Checksum     uint64       `json:"xxhash"`
	SlotsChanged int          `json:"slots_changed"`
}

var (
	backupNodeOnce sync.Once
	backupNode     *snowflake.Node
	backupNodeErr  error
)

func nextBackupID() (snowflake.ID, error) {
	backupNodeOnce.Do(func() {
		backupNode, backupNodeErr = snowflake.NewNode(1)
	})
	if backupNodeErr != nil {
		return 0, fmt.Errorf("snowflake.NewNode(1) failed: %w", backupNodeErr)
	}
	return backupNode.Generate(), nil
}

// BackupRoot returns the directory holding backups for region files in regionDir
func BackupRoot(regionDir string) string {
	return filepath.Join(regionDir, StateDirName, BackupDirName)
}

// backupDirFor returns the backup directory for a single region file
func backupDirFor(regionFile string) string {
	return filepath.Join(BackupRoot(filepath.Dir(regionFile)), filepath.Base(regionFile))
}

// CreateBackup copies regionFile into its backup stack and records its checksum
func CreateBackup(regionFile string, slotsChanged int) (*BackupMetadata, error) {
	backupDir := backupDirFor(regionFile)
	if err := os.MkdirAll(backupDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create backup directory: %w", err)
	}

	id, err := nextBackupID()
	if err != nil {
		return nil, err
	}
	backupPath := filepath.Join(backupDir, id.String()+filepath.Ext(regionFile))

	size, checksum, err := copyFileWithChecksum(regionFile, backupPath)
	if err != nil {
		os.Remove(backupPath)
		return nil, fmt.Errorf("failed to create backup: %w", err)
	}

	absRegion, err := filepath.Abs(regionFile)
	if err != nil {
		absRegion = regionFile
	}

	metadata := &BackupMetadata{
		ID:           id,
		Timestamp:    time.Now(),
		RegionFile:   absRegion,
		BackupFile:   backupPath,
		Size:         size,
		Checksum:     checksum,
		SlotsChanged: slotsChanged,
	}

	if err := saveMetadata(metadata, metadataPath(backupPath)); err != nil {
		os.Remove(backupPath)
		return nil, fmt.Errorf("failed to save backup metadata: %w", err)
	}

	VerboseLog(1, "Created backup %s of %s", id, filepath.Base(regionFile))
	return metadata, nil
}

// copyFileWithChecksum copies src to dst and returns the byte count and xxhash of the content
func copyFileWithChecksum(src, dst string) (int64, uint64, error) {
	srcFile, err := os.Open(src)
	if err != nil {
		return 0, 0, err
	}
	defer srcFile.Close()

	dstFile, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return 0, 0, err
	}

	digest := xxhash.New()
	n, err := io.Copy(io.MultiWriter(dstFile, digest), srcFile)
	if err != nil {
		dstFile.Close()
		return 0, 0, err
	}
	if err := dstFile.Sync(); err != nil {
		dstFile.Close()
		return 0, 0, err
	}
	if err := dstFile.Close(); err != nil {
		return 0, 0, err
	}
	return n, digest.Sum64(), nil
}

func metadataPath(backupPath string) string {
	return strings.TrimSuffix(backupPath, filepath.Ext(backupPath)) + ".json"
}

func saveMetadata(metadata *BackupMetadata, path string) error {
	data, err := json.MarshalIndent(metadata, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func loadMetadata(path string) (*BackupMetadata, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var metadata BackupMetadata
	if err := json.Unmarshal(data, &metadata); err != nil {
		return nil, err
	}
	return &metadata, nil
}

// ListBackups returns backups newest first. regionName restricts the listing to one
// region file base name ("r.0.0.mca"); empty lists every region in regionDir.
func ListBackups(regionDir, regionName string) ([]*BackupMetadata, error) {
	root := BackupRoot(regionDir)

	var dirs []string
	if regionName != "" {
		dirs = []string{filepath.Join(root, filepath.Base(regionName))}
	} else {
		entries, err := os.ReadDir(root)
		if os.IsNotExist(err) {
			return []*BackupMetadata{}, nil
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read backup directory: %w", err)
		}
		for _, entry := range entries {
			if entry.IsDir() {
				dirs = append(dirs, filepath.Join(root, entry.Name()))
			}
		}
	}

	backups := []*BackupMetadata{}
	for _, dir := range dirs {
		entries, err := os.ReadDir(dir)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read backup directory: %w", err)
		}
		for _, entry := range entries {
			if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
				continue
			}
			metadata, err := loadMetadata(filepath.Join(dir, entry.Name()))
			if err != nil {
				VerboseLog(1, "Warning: skipping unreadable backup metadata %s: %v", entry.Name(), err)
				continue
			}
			backups = append(backups, metadata)
		}
	}

	// Snowflake IDs grow with time, so they order backups even within one millisecond
	sort.Slice(backups, func(i, j int) bool {
		return backups[i].ID > backups[j].ID
	})
	return backups, nil
}

// PopBackup restores the newest backup over its region file and removes it from the stack
func PopBackup(regionDir, regionName string) (*BackupMetadata, error) {
	latest, err := latestBackup(regionDir, regionName)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(latest.BackupFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read backup: %w", err)
	}
	if int64(len(data)) != latest.Size || xxhash.Sum64(data) != latest.Checksum {
		return nil, fmt.Errorf("%w: %s", ErrBackupChecksum, latest.BackupFile)
	}

	perm := os.FileMode(0644)
	if stat, err := os.Stat(latest.RegionFile); err == nil {
		perm = stat.Mode().Perm()
	}
	if err := writeRegionFile(latest.RegionFile, data, perm); err != nil {
		return nil, fmt.Errorf("failed to restore backup: %w", err)
	}

	if err := removeBackupFiles(latest); err != nil {
		return latest, err
	}
	return latest, nil
}

// DiscardBackup removes the newest backup without restoring it
func DiscardBackup(regionDir, regionName string) (*BackupMetadata, error) {
	latest, err := latestBackup(regionDir, regionName)
	if err != nil {
		return nil, err
	}
	return latest, removeBackupFiles(latest)
}

// ClearBackups removes every backup and returns how many were removed
func ClearBackups(regionDir, regionName string) (int, error) {
	backups, err := ListBackups(regionDir, regionName)
	if err != nil {
		return 0, err
	}
	removed := 0
	for _, backup := range backups {
		if err := removeBackupFiles(backup); err != nil {
			return removed, err
		}
		removed++
	}
	return removed, nil
}

func latestBackup(regionDir, regionName string) (*BackupMetadata, error) {
	backups, err := ListBackups(regionDir, regionName)
	if err != nil {
		return nil, err
	}
	if len(backups) == 0 {
		return nil, ErrNoBackups
	}
	return backups[0], nil
}

// removeBackupFiles removes both the backup file and its metadata
func removeBackupFiles(metadata *BackupMetadata) error {
	if err := os.Remove(metadata.BackupFile); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove backup file: %w", err)
	}
	if err := os.Remove(metadataPath(metadata.BackupFile)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove metadata file: %w", err)
	}
	return nil
}
