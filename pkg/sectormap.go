package mcarecover

import (
	zcsl "github.com/mattkeenan/zerocopyskiplist"
)

// Skiplist contexts for discovered runs
const (
	CurrentContext   = "current"
	UntrackedContext = "untracked"
)

// sectorRun is one discovered payload as a range of sectors
type sectorRun struct {
	Offset uint32
	Size   uint8
	Slot   int
}

func (r *sectorRun) end() uint32 {
	return r.Offset + uint32(r.Size)
}

// Overlap is a pair of discovered payloads whose sector ranges intersect
type Overlap struct {
	FirstSlot    int    `json:"first_slot"`
	FirstOffset  uint32 `json:"first_offset"`
	FirstSize    uint8  `json:"first_size"`
	SecondSlot   int    `json:"second_slot"`
	SecondOffset uint32 `json:"second_offset"`
	SecondSize   uint8  `json:"second_size"`
}

// sectorMap orders every discovered payload by its first sector
type sectorMap struct {
	skiplist *zcsl.ZeroCopySkiplist[sectorRun, uint32, string]
}

func newSectorMap() *sectorMap {
	getKey := func(run *sectorRun) uint32 {
		return run.Offset
	}
	getSize := func(run *sectorRun) int {
		return int(run.Size) * SectorSize
	}
	cmpKey := func(a, b uint32) int {
		switch {
		case a < b:
			return -1
		case a > b:
			return 1
		default:
			return 0
		}
	}

	return &sectorMap{
		skiplist: zcsl.MakeZeroCopySkiplist[sectorRun, uint32, string](16, getKey, getSize, cmpKey),
	}
}

// buildSectorMap indexes every candidate in a discovery
func buildSectorMap(discovery *Discovery) *sectorMap {
	sm := newSectorMap()
	for slot, entries := range discovery.Slots {
		for _, entry := range entries {
			context := UntrackedContext
			if entry.IsCurrent {
				context = CurrentContext
			}
			sm.skiplist.Insert(&sectorRun{Offset: entry.OffsetSectors, Size: entry.SizeSectors, Slot: slot}, context)
		}
	}
	return sm
}

// Length returns the number of indexed payloads
func (sm *sectorMap) Length() int {
	return sm.skiplist.Length()
}

// Count returns how many payloads carry the given context
func (sm *sectorMap) Count(context string) int {
	count := 0
	for node := sm.skiplist.First(); node != nil; node = node.Next() {
		if node.Context() == context {
			count++
		}
	}
	return count
}

// Overlaps walks payloads in sector order and reports ranges that run into a later payload
func (sm *sectorMap) Overlaps() []Overlap {
	var overlaps []Overlap
	var open []*sectorRun

	for node := sm.skiplist.First(); node != nil; node = node.Next() {
		run := node.Item()

		kept := open[:0]
		for _, prev := range open {
			if prev.end() > run.Offset {
				overlaps = append(overlaps, Overlap{
					FirstSlot:    prev.Slot,
					FirstOffset:  prev.Offset,
					FirstSize:    prev.Size,
					SecondSlot:   run.Slot,
					SecondOffset: run.Offset,
					SecondSize:   run.Size,
				})
				kept = append(kept, prev)
			}
		}
		open = append(kept, run)
	}

	return overlaps
}
