package mcarecover

import (
	"errors"
	"fmt"
	"io"
)

// Options configures a recovery run. It is built once and never changed during the run.
type Options struct {
	Behaviour DuplicateBehaviour // Policy for slots with current and untracked entries
	Asker     Asker              // Consulted when the policy cannot decide
	Decoder   Decoder            // Payload decoder, NBTDecoder when nil
	Extension string             // Region file suffix, "mca" when empty
	DryRun    bool               // Report only, never write
	Backup    bool               // Save the original before rewriting
	Out       io.Writer          // Per-file reports, nothing printed when nil
	Format    string             // FormatHuman or FormatJSON
}

// DefaultOptions returns options matching the built-in configuration defaults
func DefaultOptions() Options {
	return Options{
		Behaviour: BehaviourUnset,
		Decoder:   NBTDecoder{},
		Extension: DefaultExtension,
		Backup:    true,
		Format:    FormatHuman,
	}
}

func (o Options) decoder() Decoder {
	if o.Decoder == nil {
		return NBTDecoder{}
	}
	return o.Decoder
}

// RecoverRegionFile scans one region file, repairs header slots whose chunk data is
// found elsewhere in the file, and rewrites the file only if a slot changed.
// An InvariantError leaves the file untouched.
func RecoverRegionFile(path string, opts Options) (*FileResult, error) {
	defer VerboseEnter()()

	region, err := ParseRegionFileName(path)
	if err != nil {
		return nil, err
	}

	data, perm, err := readRegionFile(path)
	if err != nil {
		return nil, err
	}

	result, err := recoverBuffer(data, region, opts)
	if err != nil {
		var invariant *InvariantError
		if errors.As(err, &invariant) && invariant.Path == "" {
			invariant.Path = path
		}
		return nil, err
	}
	result.Path = path

	if result.Recovered == 0 || opts.DryRun {
		return result, nil
	}

	if opts.Backup {
		backup, err := CreateBackup(path, result.Recovered)
		if err != nil {
			return nil, fmt.Errorf("refusing to rewrite without backup: %w", err)
		}
		result.BackupID = backup.ID.String()
	}

	if err := writeRegionFile(path, data, perm); err != nil {
		return nil, err
	}
	result.Modified = true
	VerboseLog(1, "Wrote %d header entries to %s", result.Recovered, path)

	return result, nil
}

// recoverBuffer runs discovery, resolution and header writes against an in-memory
// region file. data is modified in place when slots are recovered.
func recoverBuffer(data []byte, region RegionPosition, opts Options) (*FileResult, error) {
	discovery := DiscoverEntries(data, opts.decoder())

	sectors := buildSectorMap(discovery)
	overlaps := sectors.Overlaps()
	for _, overlap := range overlaps {
		VerboseLog(1, "Warning: payload at sector %d (slot %d) overlaps payload at sector %d (slot %d)",
			overlap.FirstOffset, overlap.FirstSlot, overlap.SecondOffset, overlap.SecondSlot)
	}
	VerboseLog(2, "%s: %d candidates (%d current, %d untracked), %d rejected sectors, %d undecodable",
		region, sectors.Length(), sectors.Count(CurrentContext), sectors.Count(UntrackedContext),
		discovery.Rejected, discovery.Failed)

	decisions, err := Resolve(region, discovery, opts.Behaviour, opts.Asker)
	if err != nil {
		return nil, err
	}

	changed, err := ApplyDecisions(data, decisions)
	if err != nil {
		return nil, err
	}

	result := &FileResult{
		Region:     region,
		Size:       int64(len(data)),
		Sectors:    len(data) / SectorSize,
		Candidates: discovery.Candidates(),
		Rejected:   discovery.Rejected,
		Failed:     discovery.Failed,
		Overlaps:   overlaps,
		Recovered:  changed,
		DryRun:     opts.DryRun,
	}
	for _, decision := range decisions {
		result.Actions = append(result.Actions, newSlotAction(decision))
	}
	return result, nil
}
