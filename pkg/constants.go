package mcarecover

// Region file layout constants
const (
	SectorSize       = 4096 // Alignment unit for every table and payload
	HeaderSlots      = 1024 // Number of chunk location slots in the header table
	HeaderEntrySize  = 4    // offset(24) + size(8), big endian
	HeaderSectors    = 2    // Location table + timestamp table
	HeaderTablesSize = HeaderSectors * SectorSize
	RegionDiameter   = 32 // Chunks per region along each axis
	PayloadPrefix    = 5  // length(4) + compression tag(1)
)

// Header entry bit layout
const (
	SizeBits   = 8
	SizeMask   = (1 << SizeBits) - 1
	OffsetBits = 24
	OffsetMask = (1 << OffsetBits) - 1
)

// Compression tags stored in front of each payload
const (
	CompressionGzip byte = 1
	CompressionZlib byte = 2
)

// CompressionName returns the human-readable name for a compression tag
func CompressionName(tag byte) string {
	switch tag {
	case CompressionGzip:
		return "gzip"
	case CompressionZlib:
		return "zlib"
	default:
		return "unknown"
	}
}

// File constants
const (
	DefaultExtension = "mca"
	RegionDirName    = "region"
	ConfigFileName   = "mcarecover.ini"
	LockFileName     = ".mcarecover.lock"
	StateDirName     = ".mcarecover"
	BackupDirName    = "backups"
	TempSuffix       = ".recover.tmp"
)

// Output formats
const (
	FormatHuman = "human"
	FormatJSON  = "json"
)
