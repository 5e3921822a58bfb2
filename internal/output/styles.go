package output

import (
	"github.com/charmbracelet/lipgloss"
)

// Color palette — named constants for all ANSI 256 colors used in the CLI.
// These are the single source of truth; never use inline lipgloss.Color literals.
var (
	// ColorCyan is used for identifiable nouns: bundle ids, paths, scopes.
	ColorCyan = lipgloss.Color("14")

	// ColorGreen is used for the "installed" status.
	ColorGreen = lipgloss.Color("82")

	// ColorYellow is used for "modified" and "local-only" markers.
	ColorYellow = lipgloss.Color("220")

	// ColorRed is used for the "missing" and "removed" statuses.
	ColorRed = lipgloss.Color("196")

	// ColorBoldRed is used for the "failed" status (matches ERROR level).
	ColorBoldRed = lipgloss.Color("204")

	// ColorGreenCheck is used for the completion checkmark (✔).
	ColorGreenCheck = lipgloss.Color("10")

	// ColorDimGray is used for borders and other structural chrome.
	ColorDimGray = lipgloss.Color("240")

	// ColorBlue is used for table headers.
	ColorBlue = lipgloss.Color("12")
)

// Semantic styles — map domain concepts to visual presentation.
var (
	// StyleNoun styles identifiable nouns (bundle ids, file paths, scopes).
	StyleNoun = lipgloss.NewStyle().Foreground(ColorCyan)

	// StyleAction styles action verbs (installing, removing, migrating).
	StyleAction = lipgloss.NewStyle().Bold(true)

	// StyleDim styles structural chrome (prefixes, separators, timestamps).
	StyleDim = lipgloss.NewStyle().Faint(true)

	// StyleSummary styles completion and summary lines.
	StyleSummary = lipgloss.NewStyle().Bold(true)
)

// Bundle status constants.
const (
	StatusInstalled = "installed"
	StatusModified  = "modified"
	StatusMissing   = "missing"
	StatusRemoved   = "removed"
	StatusSkipped   = "skipped"
	StatusFailed    = "failed"
)

// StatusStyle returns the lipgloss style for a given status string.
// Unknown statuses return an unstyled default.
func StatusStyle(status string) lipgloss.Style {
	switch status {
	case StatusInstalled:
		return lipgloss.NewStyle().Foreground(ColorGreen)
	case StatusModified:
		return lipgloss.NewStyle().Foreground(ColorYellow)
	case StatusMissing, StatusRemoved:
		return lipgloss.NewStyle().Foreground(ColorRed)
	case StatusSkipped:
		return lipgloss.NewStyle().Faint(true)
	case StatusFailed:
		return lipgloss.NewStyle().Bold(true).Foreground(ColorBoldRed)
	default:
		return lipgloss.NewStyle()
	}
}

// FormatCheckmark renders a green checkmark with a message for stdout output.
func FormatCheckmark(msg string) string {
	check := lipgloss.NewStyle().Foreground(ColorGreenCheck).Render("✔")
	return check + " " + msg
}
