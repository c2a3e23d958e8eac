// Package param implements a file-backed, index-addressed parameter store.
// Each index owns a fixed slot (offset and size) in a single backing file or
// partition, so a later boot stage can read a slot without any metadata.
package param

import (
	"fmt"
	"sort"

	"github.com/deploymenttheory/go-sysup/internal/types"
)

// Slot is the fixed location of one parameter
type Slot struct {
	Offset int64
	Size   int
}

// End returns the first byte past the slot.
func (s Slot) End() int64 {
	return s.Offset + int64(s.Size)
}

// Layout maps parameter indices to their slots
type Layout map[int]Slot

// DefaultUpdateOffset places the update flag on the first 512-byte boundary
// past the result slot.
const DefaultUpdateOffset = 7680

// DefaultLayout returns the layout for the extent update parameters with
// the result at offset 0.
func DefaultLayout() Layout {
	return NewLayout(0, DefaultUpdateOffset)
}

// NewLayout returns the extent update layout with each slot at the given
// offset.
func NewLayout(resultOffset, updateOffset int64) Layout {
	return Layout{
		types.ParamIndexFiemapResult: {Offset: resultOffset, Size: types.ExtentMapPayloadSize},
		types.ParamIndexFiemapUpdate: {Offset: updateOffset, Size: types.UpdateFlagSize},
	}
}

// Validate checks that every slot is non-empty, starts at a non-negative
// offset and does not overlap any other slot.
func (l Layout) Validate() error {
	if len(l) == 0 {
		return fmt.Errorf("layout has no slots")
	}

	indices := make([]int, 0, len(l))
	for index, slot := range l {
		if slot.Offset < 0 {
			return fmt.Errorf("slot %s has negative offset %d", types.ParamIndexName(index), slot.Offset)
		}
		if slot.Size <= 0 {
			return fmt.Errorf("slot %s has invalid size %d", types.ParamIndexName(index), slot.Size)
		}
		indices = append(indices, index)
	}

	sort.Slice(indices, func(i, j int) bool {
		return l[indices[i]].Offset < l[indices[j]].Offset
	})

	for i := 1; i < len(indices); i++ {
		prev, cur := l[indices[i-1]], l[indices[i]]
		if cur.Offset < prev.End() {
			return fmt.Errorf("slot %s [%d,%d) overlaps slot %s [%d,%d)",
				types.ParamIndexName(indices[i]), cur.Offset, cur.End(),
				types.ParamIndexName(indices[i-1]), prev.Offset, prev.End())
		}
	}

	return nil
}

// Slot returns the slot for index.
func (l Layout) Slot(index int) (Slot, error) {
	slot, ok := l[index]
	if !ok {
		return Slot{}, fmt.Errorf("no slot for parameter index %d", index)
	}
	return slot, nil
}
