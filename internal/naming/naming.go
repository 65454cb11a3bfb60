// Package naming derives the file and job names of generated runs.
package naming

import (
	"fmt"
	"strconv"
	"strings"
)

// RunTableSuffix names the run table written next to the setup files.
const RunTableSuffix = "_run_table.csv"

// ScriptSuffix is appended to the experiment name of an array job script.
const ScriptSuffix = "_script"

var sanitizer = strings.NewReplacer(" ", "_", "/", "-", `\`, "-")

// Sanitize makes an experiment name usable in file names by replacing
// spaces with underscores and path separators with dashes. Other characters
// are kept as they are.
func Sanitize(name string) string {
	return sanitizer.Replace(name)
}

// Width is the number of decimal digits in total, the padding used for
// run indices.
func Width(total int) int {
	if total < 0 {
		total = -total
	}
	return len(strconv.Itoa(total))
}

// Pad zero-pads index to the width of total.
func Pad(index, total int) string {
	return fmt.Sprintf("%0*d", Width(total), index)
}

// FileName builds prefix + sanitized name + zero-padded index + ext.
func FileName(experiment string, index, total int, prefix, ext string) string {
	return prefix + Sanitize(experiment) + Pad(index, total) + ext
}

// JobName is the per-run job identifier used in scripts.
func JobName(experiment string, index, total int, prefix string) string {
	return FileName(experiment, index, total, prefix, "")
}

// RunTableName names the run table of an experiment.
func RunTableName(experiment, prefix string) string {
	return prefix + Sanitize(experiment) + RunTableSuffix
}

// ScriptName names the single array job script of an experiment.
func ScriptName(experiment, prefix, ext string) string {
	return prefix + Sanitize(experiment) + ScriptSuffix + ext
}
