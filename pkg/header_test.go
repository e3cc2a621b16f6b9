package mcarecover

import (
	"errors"
	"testing"
)

func TestPackUnpackHeaderEntry(t *testing.T) {
	tests := []struct {
		name   string
		offset uint32
		size   uint8
		packed [4]byte
	}{
		{"empty", 0, 0, [4]byte{0, 0, 0, 0}},
		{"first payload sector", 2, 1, [4]byte{0, 0, 2, 1}},
		{"multi sector", 0x0102, 0x05, [4]byte{0x00, 0x01, 0x02, 0x05}},
		{"largest", OffsetMask, SizeMask, [4]byte{0xff, 0xff, 0xff, 0xff}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			packed := PackHeaderEntry(tt.offset, tt.size)
			if packed != tt.packed {
				t.Fatalf("PackHeaderEntry(%d, %d) = %v, want %v", tt.offset, tt.size, packed, tt.packed)
			}
			offset, size := UnpackHeaderEntry(packed[:])
			if offset != tt.offset || size != tt.size {
				t.Errorf("UnpackHeaderEntry = (%d, %d), want (%d, %d)", offset, size, tt.offset, tt.size)
			}
		})
	}
}

func TestReadHeaderEntryOutOfBounds(t *testing.T) {
	data := make([]byte, 8)
	copy(data[4:], []byte{0, 0, 3, 2})

	if offset, size := ReadHeaderEntry(data, 1); offset != 3 || size != 2 {
		t.Errorf("slot 1 = (%d, %d), want (3, 2)", offset, size)
	}
	if offset, size := ReadHeaderEntry(data, 2); offset != 0 || size != 0 {
		t.Errorf("slot beyond buffer = (%d, %d), want (0, 0)", offset, size)
	}
	if offset, size := ReadHeaderEntry(data, -1); offset != 0 || size != 0 {
		t.Errorf("negative slot = (%d, %d), want (0, 0)", offset, size)
	}
}

func TestSetHeaderEntry(t *testing.T) {
	data := make([]byte, HeaderTablesSize)

	if err := SetHeaderEntry(data, 1023, 40, 3); err != nil {
		t.Fatalf("SetHeaderEntry failed: %v", err)
	}
	if offset, size := ReadHeaderEntry(data, 1023); offset != 40 || size != 3 {
		t.Errorf("slot 1023 = (%d, %d), want (40, 3)", offset, size)
	}

	// Neighbouring slots are untouched
	if offset, size := ReadHeaderEntry(data, 1022); offset != 0 || size != 0 {
		t.Errorf("slot 1022 changed to (%d, %d)", offset, size)
	}
	// The timestamp table is never written
	for i := SectorSize; i < len(data); i++ {
		if data[i] != 0 {
			t.Fatalf("timestamp byte %d changed", i)
		}
	}
}

func TestSetHeaderEntryErrors(t *testing.T) {
	tests := []struct {
		name   string
		data   []byte
		slot   int
		offset uint32
	}{
		{"slot too large", make([]byte, HeaderTablesSize), HeaderSlots, 2},
		{"negative slot", make([]byte, HeaderTablesSize), -1, 2},
		{"buffer too short", make([]byte, 16), 10, 2},
		{"offset wider than 24 bits", make([]byte, HeaderTablesSize), 0, OffsetMask + 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := SetHeaderEntry(tt.data, tt.slot, tt.offset, 1)
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.Is(err, ErrInvariantViolation) {
				t.Errorf("expected invariant violation, got %v", err)
			}
			var invariant *InvariantError
			if !errors.As(err, &invariant) {
				t.Fatalf("expected *InvariantError, got %T", err)
			}
			if invariant.Slot != tt.slot {
				t.Errorf("error slot = %d, want %d", invariant.Slot, tt.slot)
			}
		})
	}
}
