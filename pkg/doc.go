// Package mcarecover finds chunk payloads that are still present in Minecraft region
// files but no longer referenced by the header table, and points the header back at them.
//
// # Region files
//
// A region file holds a 32x32 grid of chunks. The first sector is a table of 1024
// big-endian slots, each packing a sector offset (24 bits) and sector count (8 bits);
// the second sector holds timestamps. Chunk payloads follow, each sector-aligned and
// prefixed with a 4-byte length and a 1-byte compression tag (1 gzip, 2 zlib).
//
// # Recovery
//
// Recovery of one file runs in three steps:
//
//	discovery := mcarecover.DiscoverEntries(data, mcarecover.NBTDecoder{})
//	decisions, err := mcarecover.Resolve(region, discovery, mcarecover.TakeCurrent, asker)
//	changed, err := mcarecover.ApplyDecisions(data, decisions)
//
// RecoverRegionFile wraps those steps with file I/O, backups and reporting, and
// RecoverWorld runs it over every region file of a world:
//
//	opts := mcarecover.DefaultOptions()
//	opts.Behaviour = mcarecover.TakeUntracked
//	opts.Asker = &mcarecover.ScriptedAsker{Selections: []int{1}}
//	batch, err := mcarecover.RecoverWorld("/path/to/world", opts, nil)
//
// When a slot has both a current entry and untracked copies, the DuplicateBehaviour
// decides. With no behaviour set the Asker is consulted per slot.
//
// # Configuration
//
// Options can be loaded from an INI file (mcarecover.ini) with FindConfig, and
// diagnostics are controlled with SetVerboseLevel and SetDebugFlags:
//
//	mcarecover.SetDebugFlags("scan,resolve")
//	mcarecover.SetVerboseLevel(2)
package mcarecover
