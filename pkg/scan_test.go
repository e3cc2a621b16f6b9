package mcarecover

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiscoverEntriesNBT(t *testing.T) {
	b := newRegionBuilder(6)

	// chunk (3, 4): tracked copy at sector 2, older copy at sector 3
	size := b.putPayload(t, 2, CompressionGzip, modernChunk(t, 3, 4, CompressionGzip))
	b.setHeader(t, SlotIndex(3, 4), 2, size)
	b.putPayload(t, 3, CompressionZlib, modernChunk(t, 3, 4, CompressionZlib))

	// chunk (5, 0): lost, header slot empty
	b.putPayload(t, 4, CompressionZlib, encodeChunk(t, legacyChunkFixture{Level: levelFixture{XPos: 5, ZPos: 0}}, CompressionZlib))

	// sector 5: unknown compression tag
	b.putRawPrefix(5, 10, 9)

	discovery := DiscoverEntries(b.bytes(), nil)

	assert.Equal(t, []RegionEntry{
		{OffsetSectors: 2, SizeSectors: 1, IsCurrent: true},
		{OffsetSectors: 3, SizeSectors: 1, IsCurrent: false},
	}, discovery.Entries(SlotIndex(3, 4)))
	assert.Equal(t, []RegionEntry{
		{OffsetSectors: 4, SizeSectors: 1, IsCurrent: false},
	}, discovery.Entries(5))

	assert.Equal(t, 3, discovery.Candidates())
	assert.Equal(t, 4, discovery.Scanned)
	assert.Equal(t, 1, discovery.Rejected)
	assert.Equal(t, 0, discovery.Failed)
}

func TestDiscoverEntriesPayloadBounds(t *testing.T) {
	t.Run("payload slice excludes prefix and padding", func(t *testing.T) {
		b := newRegionBuilder(3)
		b.putPayload(t, 2, CompressionZlib, textChunk(1, 1))

		decoder := &textDecoder{}
		DiscoverEntries(b.bytes(), decoder)

		require.Len(t, decoder.payloads, 1)
		assert.Equal(t, textChunk(1, 1), decoder.payloads[0])
	})

	t.Run("length reaching end of file is accepted", func(t *testing.T) {
		b := newRegionBuilder(3)
		copy(b.data[2*SectorSize+PayloadPrefix:], textChunk(0, 0))
		b.putRawPrefix(2, SectorSize-4, CompressionZlib)

		decoder := &textDecoder{}
		discovery := DiscoverEntries(b.bytes(), decoder)

		require.Len(t, decoder.payloads, 1)
		assert.Len(t, decoder.payloads[0], SectorSize-PayloadPrefix)
		assert.Equal(t, []RegionEntry{{OffsetSectors: 2, SizeSectors: 1}}, discovery.Entries(0))
	})

	t.Run("length past end of file is rejected", func(t *testing.T) {
		b := newRegionBuilder(3)
		copy(b.data[2*SectorSize+PayloadPrefix:], textChunk(0, 0))
		b.putRawPrefix(2, SectorSize-3, CompressionZlib)

		decoder := &textDecoder{}
		discovery := DiscoverEntries(b.bytes(), decoder)

		assert.Empty(t, decoder.payloads)
		assert.Equal(t, 0, discovery.Candidates())
		assert.Equal(t, 1, discovery.Rejected)
	})

	t.Run("huge length does not overflow", func(t *testing.T) {
		b := newRegionBuilder(3)
		b.putRawPrefix(2, 0xffffffff, CompressionGzip)

		discovery := DiscoverEntries(b.bytes(), &textDecoder{})
		assert.Equal(t, 1, discovery.Rejected)
	})

	t.Run("zero length and bad tags are rejected", func(t *testing.T) {
		b := newRegionBuilder(6)
		b.putRawPrefix(2, 0, CompressionGzip)
		b.putPayload(t, 3, 0, textChunk(0, 0))
		b.putPayload(t, 4, 3, textChunk(0, 1))
		b.putPayload(t, 5, 0x7f, textChunk(0, 2))

		decoder := &textDecoder{}
		discovery := DiscoverEntries(b.bytes(), decoder)

		assert.Empty(t, decoder.payloads)
		assert.Equal(t, 4, discovery.Rejected)
	})

	t.Run("trailing partial sector is not scanned", func(t *testing.T) {
		b := newRegionBuilder(4)
		b.putPayload(t, 3, CompressionZlib, textChunk(2, 2))
		data := b.bytes()[:3*SectorSize+100]

		discovery := DiscoverEntries(data, &textDecoder{})
		assert.Equal(t, 1, discovery.Scanned)
		assert.Equal(t, 0, discovery.Candidates())
	})

	t.Run("files without payload sectors", func(t *testing.T) {
		for _, size := range []int{0, 100, SectorSize, HeaderTablesSize} {
			discovery := DiscoverEntries(make([]byte, size), &textDecoder{})
			assert.Equal(t, 0, discovery.Scanned, "size %d", size)
			assert.Equal(t, 0, discovery.Candidates(), "size %d", size)
		}
	})
}

func TestDiscoverEntriesSizeSectors(t *testing.T) {
	tests := []struct {
		payloadLen int
		want       uint8
	}{
		{len(textChunk(0, 0)), 1},
		{SectorSize - 1, 1}, // length == SectorSize
		{SectorSize, 2},     // length == SectorSize+1
		{3*SectorSize - 1, 3},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("payload %d", tt.payloadLen), func(t *testing.T) {
			payload := make([]byte, tt.payloadLen)
			copy(payload, textChunk(0, 0))

			b := newRegionBuilder(6)
			b.putPayload(t, 2, CompressionZlib, payload)

			discovery := DiscoverEntries(b.bytes(), &textDecoder{})
			entries := discovery.Entries(0)
			require.NotEmpty(t, entries)
			assert.Equal(t, tt.want, entries[0].SizeSectors)
		})
	}
}

func TestDiscoverEntriesOversizedPayload(t *testing.T) {
	// 256 sectors cannot be recorded in the 8-bit size field
	b := newRegionBuilder(2 + 257)
	payload := make([]byte, 255*SectorSize)
	copy(payload, textChunk(0, 0))
	b.putRawPrefix(2, uint32(len(payload)+1), CompressionZlib)
	copy(b.data[2*SectorSize+PayloadPrefix:], payload)

	decoder := &textDecoder{}
	discovery := DiscoverEntries(b.bytes(), decoder)

	assert.Empty(t, decoder.payloads)
	assert.Equal(t, 0, discovery.Candidates())
}

func TestDiscoverEntriesIsCurrent(t *testing.T) {
	b := newRegionBuilder(5)
	b.putPayload(t, 2, CompressionZlib, textChunk(7, 7))
	b.putPayload(t, 3, CompressionZlib, textChunk(8, 8))
	b.putPayload(t, 4, CompressionZlib, textChunk(9, 9))

	b.setHeader(t, SlotIndex(7, 7), 2, 1) // exact match
	b.setHeader(t, SlotIndex(8, 8), 3, 2) // right offset, wrong size
	b.setHeader(t, SlotIndex(9, 9), 2, 1) // points at another chunk

	discovery := DiscoverEntries(b.bytes(), &textDecoder{})

	assert.True(t, discovery.Entries(SlotIndex(7, 7))[0].IsCurrent)
	assert.False(t, discovery.Entries(SlotIndex(8, 8))[0].IsCurrent)
	assert.False(t, discovery.Entries(SlotIndex(9, 9))[0].IsCurrent)
}

func TestDiscoverEntriesDecodeFailures(t *testing.T) {
	b := newRegionBuilder(5)
	b.putPayload(t, 2, CompressionZlib, []byte("not a chunk"))
	b.putPayload(t, 3, CompressionZlib, textChunk(1, 0))
	b.putPayload(t, 4, CompressionGzip, []byte{0x1f, 0x8b, 0x00}) // truncated gzip

	discovery := DiscoverEntries(b.bytes(), NBTDecoder{})
	assert.Equal(t, 3, discovery.Failed)
	assert.Equal(t, 0, discovery.Candidates())

	// Chunks found by coordinates land in the slot their coordinates name, wherever they sit
	discovery = DiscoverEntries(b.bytes(), &textDecoder{})
	assert.Equal(t, []RegionEntry{{OffsetSectors: 3, SizeSectors: 1}}, discovery.Entries(1))
}
