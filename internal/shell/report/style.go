// Package report renders the end-of-run summary.
package report

import (
	"github.com/artpar/moodle-bootstrap/internal/core/outcome"
	"github.com/fatih/color"
)

// OutputStyle holds the colors used for terminal output. It is built once at
// startup and passed by value; it never touches the global color state.
type OutputStyle struct {
	Success *color.Color
	Warning *color.Color
	Failure *color.Color
	Muted   *color.Color
	Heading *color.Color
}

// NewOutputStyle builds the style. Colors are used only when writing to a
// terminal and noColor is false.
func NewOutputStyle(noColor, isTerminal bool) OutputStyle {
	style := OutputStyle{
		Success: color.New(color.FgGreen),
		Warning: color.New(color.FgYellow),
		Failure: color.New(color.FgRed, color.Bold),
		Muted:   color.New(color.Faint),
		Heading: color.New(color.Bold),
	}

	enabled := isTerminal && !noColor
	for _, c := range []*color.Color{style.Success, style.Warning, style.Failure, style.Muted, style.Heading} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return style
}

// ForStatus picks the color for a step status.
func (s OutputStyle) ForStatus(status outcome.Status) *color.Color {
	switch status {
	case outcome.StatusSucceeded:
		return s.Success
	case outcome.StatusFailedTolerated:
		return s.Warning
	case outcome.StatusFailed:
		return s.Failure
	default:
		return s.Muted
	}
}
