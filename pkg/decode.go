package mcarecover

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/Tnze/go-mc/nbt"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"
)

// MaxDecompressedSize bounds how much a single payload may inflate to.
// Real chunks are well below this; anything larger is treated as garbage.
const MaxDecompressedSize = 64 << 20

// Tree is a decoded chunk payload. Only field lookup and integer leaves are needed.
type Tree interface {
	// Has reports whether a field with this name exists, whatever its type
	Has(name string) bool
	// Compound returns the named field if it is itself a compound
	Compound(name string) (Tree, bool)
	// Int returns the named field if it is a 32-bit integer
	Int(name string) (int32, bool)
}

// Decoder turns a compressed payload into a Tree
type Decoder interface {
	Decode(payload []byte, compression byte) (Tree, error)
}

// NBTDecoder decodes gzip or zlib compressed NBT, the format chunks are stored in
type NBTDecoder struct{}

// Decode decompresses payload according to the compression tag and parses the NBT root compound
func (NBTDecoder) Decode(payload []byte, compression byte) (Tree, error) {
	var (
		r   io.ReadCloser
		err error
	)
	switch compression {
	case CompressionGzip:
		r, err = gzip.NewReader(bytes.NewReader(payload))
	case CompressionZlib:
		r, err = zlib.NewReader(bytes.NewReader(payload))
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownCompression, compression)
	}
	if err != nil {
		return nil, fmt.Errorf("%s reader: %w", CompressionName(compression), err)
	}
	defer r.Close()

	raw, err := io.ReadAll(io.LimitReader(r, MaxDecompressedSize+1))
	if err != nil {
		return nil, fmt.Errorf("%s decompress: %w", CompressionName(compression), err)
	}
	if len(raw) > MaxDecompressedSize {
		return nil, fmt.Errorf("payload inflates beyond %d bytes", MaxDecompressedSize)
	}

	var root map[string]interface{}
	if err := nbt.Unmarshal(raw, &root); err != nil {
		return nil, fmt.Errorf("nbt: %w", err)
	}
	if root == nil {
		return nil, errors.New("nbt: root is not a compound")
	}

	return nbtCompound(root), nil
}

// nbtCompound wraps a decoded NBT compound
type nbtCompound map[string]interface{}

func (c nbtCompound) Has(name string) bool {
	_, ok := c[name]
	return ok
}

func (c nbtCompound) Compound(name string) (Tree, bool) {
	switch v := c[name].(type) {
	case map[string]interface{}:
		return nbtCompound(v), true
	case nbtCompound:
		return v, true
	default:
		return nil, false
	}
}

func (c nbtCompound) Int(name string) (int32, bool) {
	v, ok := c[name].(int32)
	return v, ok
}

// ChunkCoordinates reads xPos/zPos from a decoded chunk. Older formats keep them
// inside a "Level" compound; when a Level field exists it is the only place looked at.
func ChunkCoordinates(tree Tree) (int32, int32, error) {
	level := tree
	if tree.Has("Level") {
		nested, ok := tree.Compound("Level")
		if !ok {
			return 0, 0, fmt.Errorf("%w: Level is not a compound", ErrMissingCoordinates)
		}
		level = nested
	}

	chunkX, okX := level.Int("xPos")
	chunkZ, okZ := level.Int("zPos")
	if !okX || !okZ {
		return 0, 0, fmt.Errorf("%w: xPos/zPos missing or not integers", ErrMissingCoordinates)
	}
	return chunkX, chunkZ, nil
}
