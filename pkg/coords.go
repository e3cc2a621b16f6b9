package mcarecover

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
)

// RegionPosition is the (X, Z) coordinate of a region file, taken from its name
type RegionPosition struct {
	X int32
	Z int32
}

// String returns the region file base name without extension, e.g. "r.-1.2"
func (rp RegionPosition) String() string {
	return fmt.Sprintf("r.%d.%d", rp.X, rp.Z)
}

// FileName returns the conventional file name for this region
func (rp RegionPosition) FileName(extension string) string {
	if extension == "" {
		extension = DefaultExtension
	}
	return rp.String() + "." + extension
}

// SlotIndex maps chunk coordinates to a header slot. Only the low 5 bits of each
// axis are used, so any chunk maps into its region's 32x32 grid.
func SlotIndex(chunkX, chunkZ int32) int {
	return int(chunkX&(RegionDiameter-1)) | int(chunkZ&(RegionDiameter-1))<<5
}

// SlotPosition returns the region-relative chunk position of a header slot
func SlotPosition(slot int) (int32, int32) {
	return int32(slot & (RegionDiameter - 1)), int32(slot >> 5)
}

// AbsolutePosition returns the world chunk coordinates a header slot stands for
func AbsolutePosition(region RegionPosition, slot int) (int32, int32) {
	localX, localZ := SlotPosition(slot)
	return region.X*RegionDiameter + localX, region.Z*RegionDiameter + localZ
}

// ParseRegionFileName extracts the region position from names like "r.-3.7.mca".
// The position is the 2nd and 3rd dot-separated token of the base name.
func ParseRegionFileName(path string) (RegionPosition, error) {
	base := filepath.Base(path)
	fields := strings.Split(base, ".")
	if len(fields) < 3 {
		return RegionPosition{}, fmt.Errorf("%w: %q", ErrInvalidRegionName, base)
	}

	x, err := strconv.ParseInt(fields[1], 10, 32)
	if err != nil {
		return RegionPosition{}, fmt.Errorf("%w: %q: bad x field: %v", ErrInvalidRegionName, base, err)
	}
	z, err := strconv.ParseInt(fields[2], 10, 32)
	if err != nil {
		return RegionPosition{}, fmt.Errorf("%w: %q: bad z field: %v", ErrInvalidRegionName, base, err)
	}

	return RegionPosition{X: int32(x), Z: int32(z)}, nil
}
