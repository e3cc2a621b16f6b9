package mcarecover

import (
	"encoding/binary"
	"errors"
)

// RegionEntry is a payload found by scanning that decoded and maps to a header slot
type RegionEntry struct {
	OffsetSectors uint32 // First sector of the payload
	SizeSectors   uint8  // ceil(length / SectorSize)
	IsCurrent     bool   // Header slot already records exactly this location
}

// Discovery holds the candidates found for every header slot, in ascending sector order
type Discovery struct {
	Slots    [HeaderSlots][]RegionEntry
	Scanned  int // Sectors examined
	Rejected int // Sectors with an impossible length or compression tag
	Failed   int // Plausible payloads that did not decode into a chunk
}

// Candidates returns the number of entries discovered over all slots
func (d *Discovery) Candidates() int {
	total := 0
	for _, entries := range d.Slots {
		total += len(entries)
	}
	return total
}

// Entries returns the candidates for a slot
func (d *Discovery) Entries(slot int) []RegionEntry {
	if slot < 0 || slot >= HeaderSlots {
		return nil
	}
	return d.Slots[slot]
}

// DiscoverEntries walks every payload sector looking for structurally valid chunks.
// A sector is a candidate when its length prefix fits in the file and its compression
// tag is gzip or zlib; it is kept only if the decoder yields chunk coordinates.
func DiscoverEntries(data []byte, decoder Decoder) *Discovery {
	defer VerboseEnter()()

	if decoder == nil {
		decoder = NBTDecoder{}
	}

	discovery := &Discovery{}
	sectorCount := len(data) / SectorSize

	for sectorIdx := HeaderSectors; sectorIdx < sectorCount; sectorIdx++ {
		discovery.Scanned++
		byteOffset := sectorIdx * SectorSize

		payload, compression, ok := payloadAt(data, byteOffset)
		if !ok {
			discovery.Rejected++
			if IsDebugEnabled("scan") {
				VerboseLog(3, "sector %d: invalid length or compression tag, skipping", sectorIdx)
			}
			continue
		}

		sizeSectors, ok := sectorsForLength(len(payload) + 1)
		if !ok {
			discovery.Rejected++
			VerboseLog(2, "sector %d: payload of %d bytes cannot be addressed by a header slot", sectorIdx, len(payload)+1)
			continue
		}

		tree, err := decoder.Decode(payload, compression)
		if err != nil {
			discovery.Failed++
			VerboseLog(2, "%v", &DecodeError{Sector: sectorIdx, Compression: compression, Err: err})
			continue
		}

		chunkX, chunkZ, err := ChunkCoordinates(tree)
		if err != nil {
			discovery.Failed++
			if errors.Is(err, ErrMissingCoordinates) {
				VerboseLog(1, "Found valid compressed entry at sector %d, but no chunk position: %v", sectorIdx, err)
			}
			continue
		}

		slot := SlotIndex(chunkX, chunkZ)
		headerOffset, headerSize := ReadHeaderEntry(data, slot)
		entry := RegionEntry{
			OffsetSectors: uint32(sectorIdx),
			SizeSectors:   sizeSectors,
			IsCurrent:     headerOffset == uint32(sectorIdx) && headerSize == sizeSectors,
		}
		discovery.Slots[slot] = append(discovery.Slots[slot], entry)

		VerboseLog(2, "sector %d: chunk (%d, %d) -> slot %d, %d sectors, current=%v",
			sectorIdx, chunkX, chunkZ, slot, sizeSectors, entry.IsCurrent)
	}

	return discovery
}

// payloadAt returns the compressed bytes and compression tag of a payload starting
// at byteOffset, or false when the prefix cannot describe a payload in this file.
func payloadAt(data []byte, byteOffset int) ([]byte, byte, bool) {
	if byteOffset < 0 || byteOffset+PayloadPrefix > len(data) {
		return nil, 0, false
	}

	length := int(binary.BigEndian.Uint32(data[byteOffset : byteOffset+4]))
	compression := data[byteOffset+4]

	// length covers the compression tag plus the compressed bytes
	if length < 1 || length > len(data)-byteOffset-4 {
		return nil, 0, false
	}
	if compression != CompressionGzip && compression != CompressionZlib {
		return nil, 0, false
	}

	start := byteOffset + PayloadPrefix
	end := byteOffset + 4 + length
	return data[start:end], compression, true
}

// sectorsForLength returns ceil(length / SectorSize) if it fits in a header size field
func sectorsForLength(length int) (uint8, bool) {
	sectors := (length + SectorSize - 1) / SectorSize
	if sectors > SizeMask {
		return 0, false
	}
	return uint8(sectors), true
}
