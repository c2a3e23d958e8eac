// Package extents validates extent-map ranges and runs extent queries
// against storage objects that support them.
package extents

import (
	"github.com/deploymenttheory/go-sysup/internal/sysup"
)

// CheckRanges clamps a requested [start, start+length) range to what a
// backend with the given storage limit can address. A zero length is
// invalid and a start past the limit is too large; any other request is
// shrunk rather than rejected.
func CheckRanges(storageLimit, start, length uint64) (uint64, error) {
	if length == 0 {
		return 0, sysup.Errorf(sysup.KindRequestInvalid, "check ranges", "zero length request")
	}

	if start > storageLimit {
		return 0, sysup.Errorf(sysup.KindRangeTooLarge, "check ranges",
			"start %d exceeds storage limit %d", start, storageLimit)
	}

	// Shrink request scope to what the filesystem can actually handle.
	if length > storageLimit || storageLimit-length < start {
		return storageLimit - start, nil
	}

	return length, nil
}
