package extents

import (
	"github.com/deploymenttheory/go-sysup/internal/interfaces"
	"github.com/deploymenttheory/go-sysup/internal/sysup"
	"github.com/deploymenttheory/go-sysup/internal/types"
)

// Mapper returns the extent-query capability of object, or an
// UnsupportedOperation error if the object does not provide one.
func Mapper(object interfaces.StorageObject) (interfaces.ExtentMapper, error) {
	if object == nil {
		return nil, sysup.Errorf(sysup.KindUnsupportedOperation, "query", "no storage object")
	}
	mapper, ok := object.(interfaces.ExtentMapper)
	if !ok {
		return nil, sysup.Errorf(sysup.KindUnsupportedOperation, "query", "storage object %v has no extent map capability", object)
	}
	return mapper, nil
}

// Query maps [start, start+length) of object into a result holding at most
// capacity extents. A query that maps nothing fails with NoExtentsMapped.
func Query(object interfaces.StorageObject, start, length uint64, capacity uint32) (*types.ExtentMapResult, error) {
	if capacity == 0 || capacity > types.ExtentCapacity {
		return nil, sysup.Errorf(sysup.KindRequestInvalid, "query", "extent capacity %d out of range 1..%d", capacity, types.ExtentCapacity)
	}

	mapper, err := Mapper(object)
	if err != nil {
		return nil, err
	}

	req := types.ExtentMapRequest{
		Start:          start,
		Length:         length,
		ExtentCapacity: capacity,
	}

	result := &types.ExtentMapResult{}
	// Full slice expression: an append by the backend reallocates instead of
	// writing past capacity.
	buffer := result.Extents[:capacity:capacity]

	mapped, flags, err := mapper.MapExtents(req, buffer)
	if err != nil {
		if sysup.KindOf(err) != sysup.KindUnknown {
			return nil, err
		}
		return nil, sysup.NewError(sysup.KindQueryFailed, "query", err)
	}

	if mapped > capacity {
		return nil, sysup.Errorf(sysup.KindQueryFailed, "query", "backend reported %d extents for a buffer of %d", mapped, capacity)
	}

	if mapped == 0 {
		return nil, sysup.Errorf(sysup.KindNoExtentsMapped, "query", "no extents mapped in range [%d, +%d)", start, length)
	}

	result.Flags = flags
	result.MappedCount = mapped

	return result, nil
}
