package ui

import "github.com/charmbracelet/lipgloss"

// Color palette. One lime accent plus grays keeps result lists readable
// on both dark and light terminals.
const (
	ColorLime     = "154" // primary accent
	ColorLimeDim  = "106" // secondary accent
	ColorWhite    = "255" // titles
	ColorGray     = "245" // labels, secondary text
	ColorDarkGray = "238" // separators, de-emphasized detail
	ColorRed      = "196" // errors
	ColorYellow   = "220" // warnings, degraded responses
)

// Styles holds the render styles for terminal output.
type Styles struct {
	Header   lipgloss.Style
	Title    lipgloss.Style
	Score    lipgloss.Style
	Category lipgloss.Style
	Label    lipgloss.Style
	Dim      lipgloss.Style
	Warning  lipgloss.Style
	Error    lipgloss.Style
}

// DefaultStyles returns the styled palette for interactive terminals.
func DefaultStyles() Styles {
	return Styles{
		Header:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(ColorLime)),
		Title:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(ColorWhite)),
		Score:    lipgloss.NewStyle().Foreground(lipgloss.Color(ColorLime)),
		Category: lipgloss.NewStyle().Foreground(lipgloss.Color(ColorLimeDim)),
		Label:    lipgloss.NewStyle().Foreground(lipgloss.Color(ColorGray)),
		Dim:      lipgloss.NewStyle().Foreground(lipgloss.Color(ColorDarkGray)),
		Warning:  lipgloss.NewStyle().Foreground(lipgloss.Color(ColorYellow)),
		Error:    lipgloss.NewStyle().Foreground(lipgloss.Color(ColorRed)),
	}
}

// NoColorStyles returns unstyled components for plain mode.
func NoColorStyles() Styles {
	return Styles{
		Header:   lipgloss.NewStyle(),
		Title:    lipgloss.NewStyle(),
		Score:    lipgloss.NewStyle(),
		Category: lipgloss.NewStyle(),
		Label:    lipgloss.NewStyle(),
		Dim:      lipgloss.NewStyle(),
		Warning:  lipgloss.NewStyle(),
		Error:    lipgloss.NewStyle(),
	}
}

// GetStyles returns the appropriate styles based on color preference.
func GetStyles(noColor bool) Styles {
	if noColor {
		return NoColorStyles()
	}
	return DefaultStyles()
}
