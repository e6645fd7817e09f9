// Package statlog prints the shutdown statistics the CLI's -v/-C flags
// ask for. format.go implements the human-readable byte formatting
// grounded on the original's utils.c bytes_to_size; report.go wires it
// through logrus, the teacher's chosen structured-logging library for
// anything beyond a one-line CLI status message.
package statlog

import "fmt"

const (
	kilobyte = 1024
	megabyte = kilobyte * 1024
	gigabyte = megabyte * 1024
	terabyte = gigabyte * 1024
)

// BytesToSize formats bytes the way the original's bytes_to_size does:
// truncating (not rounding) division into the largest unit under a
// terabyte, falling back to a bare byte count at or above a terabyte
// rather than introducing a TB unit the original never had.
func BytesToSize(bytes uint64) string {
	switch {
	case bytes < kilobyte:
		return fmt.Sprintf("%d B", bytes)
	case bytes < megabyte:
		return fmt.Sprintf("%d KB", bytes/kilobyte)
	case bytes < gigabyte:
		return fmt.Sprintf("%d MB", bytes/megabyte)
	case bytes < terabyte:
		return fmt.Sprintf("%d GB", bytes/gigabyte)
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}
