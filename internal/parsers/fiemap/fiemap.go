package fiemap

import (
	"encoding/binary"
	"fmt"

	"github.com/deploymenttheory/go-sysup/internal/types"
)

// Header mirrors the fixed part of struct fiemap
type Header struct {
	Start         uint64
	Length        uint64
	Flags         uint32
	MappedExtents uint32
	ExtentCount   uint32
}

// BufferSize returns the size of a struct fiemap with room for count extents.
func BufferSize(count uint32) int {
	return types.FiemapHeaderSize + int(count)*types.FiemapExtentSize
}

// PutHeader encodes h into the first FiemapHeaderSize bytes of buf.
func PutHeader(buf []byte, h Header, endian binary.ByteOrder) error {
	if len(buf) < types.FiemapHeaderSize {
		return fmt.Errorf("buffer too small for fiemap header: %d bytes", len(buf))
	}

	endian.PutUint64(buf[0:8], h.Start)
	endian.PutUint64(buf[8:16], h.Length)
	endian.PutUint32(buf[16:20], h.Flags)
	endian.PutUint32(buf[20:24], h.MappedExtents)
	endian.PutUint32(buf[24:28], h.ExtentCount)
	endian.PutUint32(buf[28:32], 0) // fm_reserved

	return nil
}

// ParseHeader decodes the fixed part of a struct fiemap.
func ParseHeader(data []byte, endian binary.ByteOrder) (Header, error) {
	if len(data) < types.FiemapHeaderSize {
		return Header{}, fmt.Errorf("insufficient data for fiemap header: %d bytes", len(data))
	}

	return Header{
		Start:         endian.Uint64(data[0:8]),
		Length:        endian.Uint64(data[8:16]),
		Flags:         endian.Uint32(data[16:20]),
		MappedExtents: endian.Uint32(data[20:24]),
		ExtentCount:   endian.Uint32(data[24:28]),
	}, nil
}

// PutExtent encodes e as a struct fiemap_extent into buf.
func PutExtent(buf []byte, e types.Extent, endian binary.ByteOrder) error {
	if len(buf) < types.FiemapExtentSize {
		return fmt.Errorf("buffer too small for fiemap extent: %d bytes", len(buf))
	}

	endian.PutUint64(buf[0:8], e.Logical)
	endian.PutUint64(buf[8:16], e.Physical)
	endian.PutUint64(buf[16:24], e.Length)
	clear(buf[24:40]) // fe_reserved64[2]
	endian.PutUint32(buf[40:44], e.Flags)
	clear(buf[44:56]) // fe_reserved[3]

	return nil
}

// ParseExtent decodes one struct fiemap_extent.
func ParseExtent(data []byte, endian binary.ByteOrder) (types.Extent, error) {
	if len(data) < types.FiemapExtentSize {
		return types.Extent{}, fmt.Errorf("insufficient data for fiemap extent: %d bytes", len(data))
	}

	return types.Extent{
		Logical:  endian.Uint64(data[0:8]),
		Physical: endian.Uint64(data[8:16]),
		Length:   endian.Uint64(data[16:24]),
		Flags:    endian.Uint32(data[40:44]),
	}, nil
}

// ParseExtents decodes the first len(out) extent records that follow the
// header in data.
func ParseExtents(data []byte, out []types.Extent, endian binary.ByteOrder) error {
	need := BufferSize(uint32(len(out)))
	if len(data) < need {
		return fmt.Errorf("insufficient data for %d fiemap extents: have %d bytes, need %d", len(out), len(data), need)
	}

	for i := range out {
		offset := types.FiemapHeaderSize + i*types.FiemapExtentSize
		extent, err := ParseExtent(data[offset:offset+types.FiemapExtentSize], endian)
		if err != nil {
			return fmt.Errorf("failed to parse extent %d: %w", i, err)
		}
		out[i] = extent
	}

	return nil
}

// EncodeResult serialises a request and its result into the persisted
// struct fiemap payload. The payload always has room for req.ExtentCapacity
// records; slots past MappedCount are zero.
func EncodeResult(req types.ExtentMapRequest, result *types.ExtentMapResult, endian binary.ByteOrder) ([]byte, error) {
	if req.ExtentCapacity > types.ExtentCapacity {
		return nil, fmt.Errorf("extent capacity %d exceeds %d", req.ExtentCapacity, types.ExtentCapacity)
	}
	if result.MappedCount > req.ExtentCapacity {
		return nil, fmt.Errorf("mapped extents %d exceed capacity %d", result.MappedCount, req.ExtentCapacity)
	}

	buf := make([]byte, BufferSize(req.ExtentCapacity))
	header := Header{
		Start:         req.Start,
		Length:        req.Length,
		Flags:         result.Flags,
		MappedExtents: result.MappedCount,
		ExtentCount:   req.ExtentCapacity,
	}
	if err := PutHeader(buf, header, endian); err != nil {
		return nil, err
	}

	for i, extent := range result.Mapped() {
		offset := types.FiemapHeaderSize + i*types.FiemapExtentSize
		if err := PutExtent(buf[offset:], extent, endian); err != nil {
			return nil, fmt.Errorf("failed to encode extent %d: %w", i, err)
		}
	}

	return buf, nil
}

// DecodeResult parses a persisted struct fiemap payload.
func DecodeResult(data []byte, endian binary.ByteOrder) (Header, *types.ExtentMapResult, error) {
	header, err := ParseHeader(data, endian)
	if err != nil {
		return Header{}, nil, err
	}

	if header.ExtentCount > types.ExtentCapacity {
		return Header{}, nil, fmt.Errorf("extent count %d exceeds %d", header.ExtentCount, types.ExtentCapacity)
	}
	if header.MappedExtents > header.ExtentCount {
		return Header{}, nil, fmt.Errorf("mapped extents %d exceed extent count %d", header.MappedExtents, header.ExtentCount)
	}

	result := &types.ExtentMapResult{
		Flags:       header.Flags,
		MappedCount: header.MappedExtents,
	}
	if err := ParseExtents(data, result.Extents[:header.MappedExtents], endian); err != nil {
		return Header{}, nil, err
	}

	return header, result, nil
}

// EncodeUpdateFlag serialises the update sentinel.
func EncodeUpdateFlag(value uint32, endian binary.ByteOrder) []byte {
	buf := make([]byte, types.UpdateFlagSize)
	endian.PutUint32(buf, value)
	return buf
}

// DecodeUpdateFlag parses a persisted update sentinel.
func DecodeUpdateFlag(data []byte, endian binary.ByteOrder) (uint32, error) {
	if len(data) < types.UpdateFlagSize {
		return 0, fmt.Errorf("insufficient data for update flag: %d bytes", len(data))
	}
	return endian.Uint32(data[:types.UpdateFlagSize]), nil
}
