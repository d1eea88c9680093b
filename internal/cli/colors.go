// Package cli provides terminal output helpers for the bankpki CLI.
package cli

// ANSI color codes for terminal output.
const (
	ColorReset  = "\033[0m"
	ColorRed    = "\033[31m"
	ColorGreen  = "\033[32m"
	ColorYellow = "\033[33m"
	ColorBlue   = "\033[34m"
)

// FormatStatus returns a colored batch status string.
func FormatStatus(status string) string {
	switch status {
	case "completed", "success":
		return ColorGreen + status + ColorReset
	case "failed":
		return ColorRed + status + ColorReset
	case "running", "partial":
		return ColorYellow + status + ColorReset
	default:
		return status
	}
}
