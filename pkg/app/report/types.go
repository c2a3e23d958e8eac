package report

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"

	"github.com/zeebo/blake3"

	"github.com/deploymenttheory/go-sysup/internal/parsers/fiemap"
	"github.com/deploymenttheory/go-sysup/internal/types"
)

// Report is the decoded content of the extent update parameters
type Report struct {
	Store         string          `json:"store" yaml:"store"`
	Start         uint64          `json:"start" yaml:"start"`
	Length        uint64          `json:"length" yaml:"length"`
	Flags         uint32          `json:"flags" yaml:"flags"`
	MappedExtents uint32          `json:"mapped_extents" yaml:"mapped_extents"`
	ExtentCount   uint32          `json:"extent_count" yaml:"extent_count"`
	UpdateFlag    uint32          `json:"update_flag" yaml:"update_flag"`
	UpdatePending bool            `json:"update_pending" yaml:"update_pending"`
	Digest        string          `json:"digest" yaml:"digest"`
	Extents       []ExtentSummary `json:"extents" yaml:"extents"`
}

// ExtentSummary is one extent as shown to an operator
type ExtentSummary struct {
	Logical  uint64 `json:"logical" yaml:"logical"`
	Physical uint64 `json:"physical" yaml:"physical"`
	Length   uint64 `json:"length" yaml:"length"`
	Flags    uint32 `json:"flags" yaml:"flags"`
}

// FromPayload decodes the persisted result and update-flag slots. The
// digest is a blake3 hash of the raw result slot, so two runs can be
// compared at a glance.
func FromPayload(store string, result, flag []byte) (*Report, error) {
	header, decoded, err := fiemap.DecodeResult(result, binary.LittleEndian)
	if err != nil {
		return nil, fmt.Errorf("failed to decode extent map: %w", err)
	}

	updateFlag, err := fiemap.DecodeUpdateFlag(flag, binary.LittleEndian)
	if err != nil {
		return nil, fmt.Errorf("failed to decode update flag: %w", err)
	}

	sum := blake3.Sum256(result)

	report := &Report{
		Store:         store,
		Start:         header.Start,
		Length:        header.Length,
		Flags:         header.Flags,
		MappedExtents: header.MappedExtents,
		ExtentCount:   header.ExtentCount,
		UpdateFlag:    updateFlag,
		UpdatePending: updateFlag == types.UpdateSentinel,
		Digest:        hex.EncodeToString(sum[:]),
		Extents:       make([]ExtentSummary, 0, decoded.MappedCount),
	}

	for _, extent := range decoded.Mapped() {
		report.Extents = append(report.Extents, ExtentSummary(extent))
	}

	return report, nil
}

// TotalLength returns the number of bytes covered by the mapped extents
func (r *Report) TotalLength() uint64 {
	var total uint64
	for _, extent := range r.Extents {
		total += extent.Length
	}
	return total
}
