package types

// Parameter store indices used by the extent update
const (
	// ParamIndexFiemapResult holds the ExtentMapPayloadSize-byte extent map
	ParamIndexFiemapResult = iota
	// ParamIndexFiemapUpdate holds the UpdateSentinel flag
	ParamIndexFiemapUpdate
)

// ParamIndexName returns a readable name for a parameter index.
func ParamIndexName(index int) string {
	switch index {
	case ParamIndexFiemapResult:
		return "fiemap_result"
	case ParamIndexFiemapUpdate:
		return "fiemap_update"
	default:
		return "unknown"
	}
}
