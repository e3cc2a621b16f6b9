package mcarecover

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/dustin/go-humanize"
	json "github.com/goccy/go-json"
)

// SlotAction is the reported outcome for one slot that had candidates
type SlotAction struct {
	Slot      int        `json:"slot"`
	ChunkX    int32      `json:"chunk_x"`
	ChunkZ    int32      `json:"chunk_z"`
	Current   int        `json:"current"`
	Untracked int        `json:"untracked"`
	Kind      ActionKind `json:"kind"`
	Offset    uint32     `json:"offset,omitempty"`
	Size      uint8      `json:"size,omitempty"`
}

// FileResult summarises recovery of one region file
type FileResult struct {
	Path       string         `json:"path"`
	Region     RegionPosition `json:"region"`
	Size       int64          `json:"size"`
	Sectors    int            `json:"sectors"`
	Candidates int            `json:"candidates"`
	Rejected   int            `json:"rejected"`
	Failed     int            `json:"failed"`
	Actions    []SlotAction   `json:"actions"`
	Overlaps   []Overlap      `json:"overlaps,omitempty"`
	Recovered  int            `json:"recovered"`
	Modified   bool           `json:"modified"`
	DryRun     bool           `json:"dry_run"`
	BackupID   string         `json:"backup_id,omitempty"`
}

func newSlotAction(decision SlotDecision) SlotAction {
	action := SlotAction{
		Slot:      decision.Slot,
		ChunkX:    decision.ChunkX,
		ChunkZ:    decision.ChunkZ,
		Current:   decision.Current,
		Untracked: decision.Untracked,
		Kind:      decision.Kind,
	}
	if decision.Chosen != nil {
		action.Offset = decision.Chosen.OffsetSectors
		action.Size = decision.Chosen.SizeSectors
	}
	return action
}

// WriteReport prints a file result in the requested format
func WriteReport(w io.Writer, result *FileResult, format string) error {
	if w == nil || result == nil {
		return nil
	}
	if format == FormatJSON {
		data, err := json.Marshal(result)
		if err != nil {
			return fmt.Errorf("failed to encode report: %w", err)
		}
		_, err = fmt.Fprintf(w, "%s\n", data)
		return err
	}
	return writeHumanReport(w, result)
}

func writeHumanReport(w io.Writer, result *FileResult) error {
	for _, action := range result.Actions {
		switch action.Kind {
		case ActionRecovered:
			fmt.Fprintf(w, "Chunk (%d, %d) recovered unknown entry!\n", action.ChunkX, action.ChunkZ)
		case ActionKeptCurrent:
			if GetVerboseLevel() >= 1 {
				fmt.Fprintf(w, "Chunk (%d, %d) kept current entry (%d unknown entries ignored)\n",
					action.ChunkX, action.ChunkZ, action.Untracked)
			}
		}
	}

	for _, overlap := range result.Overlaps {
		fmt.Fprintf(w, "Warning: payload at sector %d (slot %d) overlaps payload at sector %d (slot %d)\n",
			overlap.FirstOffset, overlap.FirstSlot, overlap.SecondOffset, overlap.SecondSlot)
	}

	name := filepath.Base(result.Path)
	switch {
	case result.Modified:
		fmt.Fprintf(w, "Wrote to region %s\n", name)
	case result.DryRun && result.Recovered > 0:
		fmt.Fprintf(w, "Would write %d header entries to region %s (dry run)\n", result.Recovered, name)
	case GetVerboseLevel() >= 1:
		fmt.Fprintf(w, "Region %s unchanged (%s, %d candidates)\n",
			name, humanize.IBytes(uint64(result.Size)), result.Candidates)
	}

	if result.BackupID != "" && GetVerboseLevel() >= 1 {
		fmt.Fprintf(w, "Backup %s saved for %s\n", result.BackupID, name)
	}
	return nil
}

// WriteBatchSummary prints totals for a batch run
func WriteBatchSummary(w io.Writer, batch *BatchResult) {
	if w == nil || batch == nil {
		return
	}
	var totalBytes int64
	modified := 0
	recovered := 0
	for _, result := range batch.Files {
		totalBytes += result.Size
		recovered += result.Recovered
		if result.Modified {
			modified++
		}
	}
	fmt.Fprintf(w, "Processed %d region files (%s): %d chunks recovered, %d files modified, %d failed\n",
		len(batch.Files)+len(batch.Failures), humanize.IBytes(uint64(totalBytes)), recovered, modified, len(batch.Failures))
}
