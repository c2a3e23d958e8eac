// Package types holds the extent-map data structures shared by the query,
// persistence and reporting layers, along with their on-disk sizes.
package types

// Extent map constants
const (
	// ExtentCapacity is the number of extent records reserved in every
	// extent-map buffer. Files with more extents report only the first
	// ExtentCapacity of them.
	ExtentCapacity = 128

	// UpdateSentinel is written to the update-flag slot after a new extent
	// map has been stored. It signals "new result available"; it is not a
	// checksum of the payload.
	UpdateSentinel uint32 = 0x7763

	// TargetPath is the boot-image file whose layout is mapped.
	TargetPath = "/spu/edtbo/edtbo.img"

	// MaxRequestLength requests every extent from the start offset onward.
	MaxRequestLength = ^uint64(0)
)

// Wire sizes of struct fiemap and struct fiemap_extent (linux/fiemap.h)
const (
	FiemapHeaderSize = 32
	FiemapExtentSize = 56

	// ExtentMapPayloadSize is the size of a header plus ExtentCapacity
	// extent records, which is the persisted result payload.
	ExtentMapPayloadSize = FiemapHeaderSize + ExtentCapacity*FiemapExtentSize

	// UpdateFlagSize is the size of the persisted sentinel.
	UpdateFlagSize = 4
)

// FIEMAP request flags (fm_flags)
const (
	FiemapFlagSync  uint32 = 0x00000001 // sync file data before map
	FiemapFlagXattr uint32 = 0x00000002 // map extended attribute tree
	FiemapFlagCache uint32 = 0x00000004 // request caching of the extents
)

// FIEMAP extent flags (fe_flags). These are carried opaquely; nothing in the
// update path branches on them.
const (
	FiemapExtentLast          uint32 = 0x00000001
	FiemapExtentUnknown       uint32 = 0x00000002
	FiemapExtentDelalloc      uint32 = 0x00000004
	FiemapExtentEncoded       uint32 = 0x00000008
	FiemapExtentDataEncrypted uint32 = 0x00000080
	FiemapExtentNotAligned    uint32 = 0x00000100
	FiemapExtentDataInline    uint32 = 0x00000200
	FiemapExtentDataTail      uint32 = 0x00000400
	FiemapExtentUnwritten     uint32 = 0x00000800
	FiemapExtentMerged        uint32 = 0x00001000
	FiemapExtentShared        uint32 = 0x00002000
)

// Extent is one physical run backing a logical region of a file.
// Mirrors struct fiemap_extent.
type Extent struct {
	// Byte offset of the extent in the file
	Logical uint64
	// Byte offset of the extent on disk
	Physical uint64
	// Length in bytes
	Length uint64
	// FIEMAP_EXTENT_* flags
	Flags uint32
}

// ExtentMapRequest describes the range and buffer size of an extent query.
type ExtentMapRequest struct {
	Start          uint64
	Length         uint64
	Flags          uint32
	ExtentCapacity uint32
}

// NewExtentMapRequest returns the whole-file request used by the update
// path: offset 0, maximal length, ExtentCapacity records.
func NewExtentMapRequest() ExtentMapRequest {
	return ExtentMapRequest{
		Start:          0,
		Length:         MaxRequestLength,
		ExtentCapacity: ExtentCapacity,
	}
}

// ExtentMapResult is the filled buffer returned by an extent query.
// MappedCount never exceeds ExtentCapacity; entries past MappedCount are zero.
type ExtentMapResult struct {
	Flags       uint32
	MappedCount uint32
	Extents     [ExtentCapacity]Extent
}

// Mapped returns the populated prefix of Extents.
func (r *ExtentMapResult) Mapped() []Extent {
	n := r.MappedCount
	if n > ExtentCapacity {
		n = ExtentCapacity
	}
	return r.Extents[:n]
}
