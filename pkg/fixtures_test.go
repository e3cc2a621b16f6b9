package mcarecover

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/Tnze/go-mc/nbt"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"
)

// chunkFixture is the modern chunk layout with coordinates at the root
type chunkFixture struct {
	DataVersion int32  `nbt:"DataVersion"`
	XPos        int32  `nbt:"xPos"`
	ZPos        int32  `nbt:"zPos"`
	Status      string `nbt:"Status"`
}

type levelFixture struct {
	XPos int32 `nbt:"xPos"`
	ZPos int32 `nbt:"zPos"`
}

// legacyChunkFixture keeps the coordinates inside a Level compound
type legacyChunkFixture struct {
	DataVersion int32        `nbt:"DataVersion"`
	Level       levelFixture `nbt:"Level"`
}

func compress(t *testing.T, raw []byte, compression byte) []byte {
	t.Helper()

	var buf bytes.Buffer
	switch compression {
	case CompressionGzip:
		w := gzip.NewWriter(&buf)
		if _, err := w.Write(raw); err != nil {
			t.Fatalf("gzip write: %v", err)
		}
		if err := w.Close(); err != nil {
			t.Fatalf("gzip close: %v", err)
		}
	case CompressionZlib:
		w := zlib.NewWriter(&buf)
		if _, err := w.Write(raw); err != nil {
			t.Fatalf("zlib write: %v", err)
		}
		if err := w.Close(); err != nil {
			t.Fatalf("zlib close: %v", err)
		}
	default:
		t.Fatalf("unsupported fixture compression %d", compression)
	}
	return buf.Bytes()
}

// encodeChunk returns a compressed NBT payload for v
func encodeChunk(t *testing.T, v interface{}, compression byte) []byte {
	t.Helper()

	raw, err := nbt.Marshal(v)
	if err != nil {
		t.Fatalf("nbt.Marshal: %v", err)
	}
	return compress(t, raw, compression)
}

func modernChunk(t *testing.T, chunkX, chunkZ int32, compression byte) []byte {
	t.Helper()
	return encodeChunk(t, chunkFixture{DataVersion: 3465, XPos: chunkX, ZPos: chunkZ, Status: "minecraft:full"}, compression)
}

// regionBuilder assembles region file bytes sector by sector
type regionBuilder struct {
	data []byte
}

func newRegionBuilder(sectors int) *regionBuilder {
	return &regionBuilder{data: make([]byte, sectors*SectorSize)}
}

// putPayload writes a length-prefixed payload at sector and returns its size in sectors
func (b *regionBuilder) putPayload(t *testing.T, sector int, compression byte, payload []byte) uint8 {
	t.Helper()

	offset := sector * SectorSize
	end := offset + PayloadPrefix + len(payload)
	if end > len(b.data) {
		t.Fatalf("payload at sector %d needs %d bytes, region has %d", sector, end, len(b.data))
	}
	binary.BigEndian.PutUint32(b.data[offset:], uint32(len(payload)+1))
	b.data[offset+4] = compression
	copy(b.data[offset+PayloadPrefix:], payload)

	size, ok := sectorsForLength(len(payload) + 1)
	if !ok {
		t.Fatalf("payload of %d bytes does not fit a header slot", len(payload))
	}
	return size
}

// putRawPrefix writes an arbitrary length and tag, for malformed sectors
func (b *regionBuilder) putRawPrefix(sector int, length uint32, compression byte) {
	offset := sector * SectorSize
	binary.BigEndian.PutUint32(b.data[offset:], length)
	b.data[offset+4] = compression
}

func (b *regionBuilder) setHeader(t *testing.T, slot int, offset uint32, size uint8) {
	t.Helper()
	if err := SetHeaderEntry(b.data, slot, offset, size); err != nil {
		t.Fatalf("SetHeaderEntry(%d): %v", slot, err)
	}
}

func (b *regionBuilder) bytes() []byte {
	out := make([]byte, len(b.data))
	copy(out, b.data)
	return out
}

// writeRegion writes data to dir/name and returns the path
func writeRegion(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("write region %s: %v", name, err)
	}
	return path
}

// textDecoder decodes payloads of the form "chunk:X:Z" (zero padding allowed)
// without compression, so scanner and orchestrator tests control exactly what decodes.
type textDecoder struct {
	payloads [][]byte
}

func (d *textDecoder) Decode(payload []byte, compression byte) (Tree, error) {
	d.payloads = append(d.payloads, append([]byte(nil), payload...))

	fields := strings.Split(strings.TrimRight(string(payload), "\x00"), ":")
	if len(fields) != 3 || fields[0] != "chunk" {
		return nil, fmt.Errorf("not a text chunk")
	}
	chunkX, err := strconv.Atoi(fields[1])
	if err != nil {
		return nil, err
	}
	chunkZ, err := strconv.Atoi(fields[2])
	if err != nil {
		return nil, err
	}
	return nbtCompound{"xPos": int32(chunkX), "zPos": int32(chunkZ)}, nil
}

func textChunk(chunkX, chunkZ int32) []byte {
	return []byte(fmt.Sprintf("chunk:%d:%d", chunkX, chunkZ))
}
