// Package ui provides terminal styling for foolery CLI output.
// Uses the Nord color palette with adaptive light/dark mode support.
package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/fooleryhq/foolery/internal/types"
	"github.com/fooleryhq/foolery/internal/workflow"
)

// Nord palette: https://www.nordtheme.com/docs/colors-and-palettes
var (
	ColorOpen = lipgloss.AdaptiveColor{
		Light: "#5e81ac", // nord10 blue
		Dark:  "#81a1c1", // nord9 blue
	}
	ColorActive = lipgloss.AdaptiveColor{
		Light: "#d08770", // nord12 orange
		Dark:  "#ebcb8b", // nord13 yellow
	}
	ColorBlocked = lipgloss.AdaptiveColor{
		Light: "#bf616a", // nord11 red
		Dark:  "#bf616a",
	}
	ColorDone = lipgloss.AdaptiveColor{
		Light: "#a3be8c", // nord14 green
		Dark:  "#a3be8c",
	}
	ColorMuted = lipgloss.AdaptiveColor{
		Light: "#4c566a", // nord3
		Dark:  "#616e88",
	}
)

var (
	OpenStyle    = lipgloss.NewStyle().Foreground(ColorOpen)
	ActiveStyle  = lipgloss.NewStyle().Foreground(ColorActive)
	BlockedStyle = lipgloss.NewStyle().Foreground(ColorBlocked)
	DoneStyle    = lipgloss.NewStyle().Foreground(ColorDone)
	MutedStyle   = lipgloss.NewStyle().Foreground(ColorMuted)

	IDStyle     = lipgloss.NewStyle().Bold(true)
	HeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(ColorOpen)
	HumanStyle  = lipgloss.NewStyle().Bold(true).Foreground(ColorBlocked)
)

// Status icons used in listings.
const (
	IconOpen    = "○"
	IconActive  = "◐"
	IconBlocked = "✗"
	IconDone    = "✓"
	IconHuman   = "⚑"
)

// StatusStyle returns the style for a coarse bead status.
func StatusStyle(s types.Status) lipgloss.Style {
	switch s {
	case types.StatusInProgress:
		return ActiveStyle
	case types.StatusBlocked:
		return BlockedStyle
	case types.StatusClosed:
		return DoneStyle
	case types.StatusDeferred:
		return MutedStyle
	default:
		return OpenStyle
	}
}

// StatusIcon returns the icon for a coarse bead status.
func StatusIcon(s types.Status) string {
	switch s {
	case types.StatusInProgress:
		return IconActive
	case types.StatusBlocked:
		return IconBlocked
	case types.StatusClosed:
		return IconDone
	default:
		return IconOpen
	}
}

// RenderState renders a workflow state with its status color.
func RenderState(state string) string {
	return StatusStyle(workflow.MapWorkflowStateToCompatStatus(state)).Render(state)
}

// RenderOwner renders the next-action owner, flagging human gates.
func RenderOwner(kind workflow.OwnerKind) string {
	if kind == workflow.OwnerHuman {
		return HumanStyle.Render(IconHuman + " human")
	}
	return MutedStyle.Render(string(kind))
}
