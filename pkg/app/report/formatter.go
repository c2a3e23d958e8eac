package report

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/deploymenttheory/go-sysup/internal/types"
	"gopkg.in/yaml.v3"
)

// Format writes report to w in the given output format
func Format(w io.Writer, report *Report, format string) error {
	switch format {
	case "json":
		return formatJSON(w, report)
	case "yaml":
		return formatYAML(w, report)
	case "table", "":
		return formatTable(w, report)
	default:
		return fmt.Errorf("unsupported output format: %s", format)
	}
}

// formatTable formats the report as a table
func formatTable(w io.Writer, report *Report) error {
	fmt.Fprintf(w, "Store:    %s\n", report.Store)
	fmt.Fprintf(w, "Range:    start=%d length=0x%X\n", report.Start, report.Length)
	fmt.Fprintf(w, "Extents:  %d of %d mapped, %s\n", report.MappedExtents, report.ExtentCount, formatBytes(report.TotalLength()))
	if report.UpdatePending {
		fmt.Fprintf(w, "Update:   pending (0x%X)\n", report.UpdateFlag)
	} else {
		fmt.Fprintf(w, "Update:   none (0x%X)\n", report.UpdateFlag)
	}
	fmt.Fprintf(w, "Digest:   %s\n\n", report.Digest)

	if len(report.Extents) == 0 {
		fmt.Fprintln(w, "No extents recorded.")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	fmt.Fprintf(tw, "#\tLOGICAL\tPHYSICAL\tLENGTH\tFLAGS\n")
	fmt.Fprintf(tw, "-\t-------\t--------\t------\t-----\n")

	for i, extent := range report.Extents {
		fmt.Fprintf(tw, "%d\t0x%X\t0x%X\t%s\t%s\n",
			i, extent.Logical, extent.Physical, formatBytes(extent.Length), formatFlags(extent.Flags))
	}

	return tw.Flush()
}

// formatJSON formats the report as JSON
func formatJSON(w io.Writer, report *Report) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(report)
}

// formatYAML formats the report as YAML
func formatYAML(w io.Writer, report *Report) error {
	encoder := yaml.NewEncoder(w)
	defer encoder.Close()
	encoder.SetIndent(2)
	return encoder.Encode(report)
}

var extentFlagNames = []struct {
	flag uint32
	name string
}{
	{types.FiemapExtentLast, "last"},
	{types.FiemapExtentUnknown, "unknown"},
	{types.FiemapExtentDelalloc, "delalloc"},
	{types.FiemapExtentEncoded, "encoded"},
	{types.FiemapExtentDataEncrypted, "encrypted"},
	{types.FiemapExtentNotAligned, "not_aligned"},
	{types.FiemapExtentDataInline, "inline"},
	{types.FiemapExtentDataTail, "tail"},
	{types.FiemapExtentUnwritten, "unwritten"},
	{types.FiemapExtentMerged, "merged"},
	{types.FiemapExtentShared, "shared"},
}

// formatFlags renders extent flags as a comma-separated list
func formatFlags(flags uint32) string {
	if flags == 0 {
		return "-"
	}

	out := ""
	for _, f := range extentFlagNames {
		if flags&f.flag == 0 {
			continue
		}
		if out != "" {
			out += ","
		}
		out += f.name
		flags &^= f.flag
	}
	if flags != 0 {
		if out != "" {
			out += ","
		}
		out += fmt.Sprintf("0x%X", flags)
	}
	return out
}

// formatBytes formats byte count as human readable
func formatBytes(bytes uint64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := uint64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
