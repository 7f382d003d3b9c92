// Package theme provides the Lip Gloss color palette and reusable styles
// for the timelock-scope TUI. It is a leaf package with no internal imports
// to avoid import cycles.
package theme

import "github.com/charmbracelet/lipgloss"

// Severity colors.
var (
	ColorCritical = lipgloss.Color("#dc2626")
	ColorWarning  = lipgloss.Color("#d97706")
	ColorInfo     = lipgloss.Color("#2563eb")
	ColorDefault  = lipgloss.Color("#9ca3af")
)

// Lightning classification colors.
var (
	ColorCommitment  = lipgloss.Color("#a855f7")
	ColorHTLCTimeout = lipgloss.Color("#f59e0b")
	ColorHTLCSuccess = lipgloss.Color("#16a34a")
	ColorClassNone   = lipgloss.Color("#4b5563")
)

// Connection state colors.
var (
	ColorConnected    = lipgloss.Color("#22c55e")
	ColorDisconnected = lipgloss.Color("#6b7280")
	ColorError        = lipgloss.Color("#dc2626")
)

// UI chrome colors.
var (
	ColorBorder   = lipgloss.Color("#4b5563")
	ColorDimmed   = lipgloss.Color("#6b7280")
	ColorBright   = lipgloss.Color("#f9fafb")
	ColorAccent   = lipgloss.Color("#06b6d4")
	ColorTimelock = lipgloss.Color("#7c3aed")
)

// SeverityColor returns the color for an alert severity string.
func SeverityColor(severity string) lipgloss.Color {
	switch severity {
	case "critical":
		return ColorCritical
	case "warning":
		return ColorWarning
	case "informational":
		return ColorInfo
	default:
		return ColorDefault
	}
}

// SeverityGlyph returns a glyph marking an alert severity.
func SeverityGlyph(severity string) string {
	switch severity {
	case "critical":
		return "‼"
	case "warning":
		return "!"
	case "informational":
		return "·"
	default:
		return " "
	}
}

// ClassificationColor returns the color for a Lightning classification.
func ClassificationColor(class string) lipgloss.Color {
	switch class {
	case "commitment":
		return ColorCommitment
	case "htlc_timeout":
		return ColorHTLCTimeout
	case "htlc_success":
		return ColorHTLCSuccess
	default:
		return ColorClassNone
	}
}

// ConnectionColor returns the color for a feed connection state.
func ConnectionColor(state string) lipgloss.Color {
	switch state {
	case "connected":
		return ColorConnected
	case "error":
		return ColorError
	default:
		return ColorDisconnected
	}
}

// Reusable styles.
var (
	StyleBorder = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(ColorBorder)

	StyleHeader = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorBright)

	StyleDimmed = lipgloss.NewStyle().
			Foreground(ColorDimmed)

	StyleSelected = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorBright)

	StyleError = lipgloss.NewStyle().
			Foreground(ColorError)

	StyleAccent = lipgloss.NewStyle().
			Foreground(ColorAccent)
)
