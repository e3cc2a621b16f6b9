package mcarecover

import (
	"encoding/binary"
	"fmt"
)

// PackHeaderEntry encodes a chunk location as (offset << 8) | size, big endian.
// Offsets wider than 24 bits are truncated; SetHeaderEntry catches that on read back.
func PackHeaderEntry(offsetSectors uint32, sizeSectors uint8) [HeaderEntrySize]byte {
	var packed [HeaderEntrySize]byte
	binary.BigEndian.PutUint32(packed[:], (offsetSectors&OffsetMask)<<SizeBits|uint32(sizeSectors))
	return packed
}

// UnpackHeaderEntry decodes a 4-byte header slot into its sector offset and sector count
func UnpackHeaderEntry(b []byte) (offsetSectors uint32, sizeSectors uint8) {
	packed := binary.BigEndian.Uint32(b[:HeaderEntrySize])
	return packed >> SizeBits, uint8(packed & SizeMask)
}

// ReadHeaderEntry returns the location currently recorded for a slot.
// A buffer too short to hold the slot reads as an empty location.
func ReadHeaderEntry(data []byte, slot int) (offsetSectors uint32, sizeSectors uint8) {
	pos := slot * HeaderEntrySize
	if slot < 0 || pos+HeaderEntrySize > len(data) {
		return 0, 0
	}
	return UnpackHeaderEntry(data[pos : pos+HeaderEntrySize])
}

// SetHeaderEntry overwrites one header slot and verifies it reads back unchanged
func SetHeaderEntry(data []byte, slot int, offsetSectors uint32, sizeSectors uint8) error {
	if slot < 0 || slot >= HeaderSlots {
		return invariantf(slot, "header slot out of range")
	}
	pos := slot * HeaderEntrySize
	if pos+HeaderEntrySize > len(data) {
		return invariantf(slot, "header slot beyond end of file (%d bytes)", len(data))
	}

	packed := PackHeaderEntry(offsetSectors, sizeSectors)
	copy(data[pos:pos+HeaderEntrySize], packed[:])

	writtenOffset, writtenSize := ReadHeaderEntry(data, slot)
	if writtenOffset != offsetSectors || writtenSize != sizeSectors {
		return &InvariantError{
			Slot:   slot,
			Reason: "header write did not round-trip",
			Err: fmt.Errorf("wrote (%d, %d), read back (%d, %d)",
				offsetSectors, sizeSectors, writtenOffset, writtenSize),
		}
	}

	if IsDebugEnabled("header") {
		VerboseLog(3, "slot %d set to offset=%d size=%d", slot, offsetSectors, sizeSectors)
	}
	return nil
}
