// Package ui provides terminal render helpers for the wl CLI.
package ui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

var (
	passStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	failStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	accentStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
)

func init() {
	// Respect NO_COLOR and dumb terminals.
	if termenv.EnvNoColor() {
		lipgloss.SetColorProfile(termenv.Ascii)
	}
}

// RenderPass renders success markers (green).
func RenderPass(s string) string { return passStyle.Render(s) }

// RenderWarn renders warning markers (orange).
func RenderWarn(s string) string { return warnStyle.Render(s) }

// RenderFail renders failure markers (red).
func RenderFail(s string) string { return failStyle.Render(s) }

// RenderAccent renders informational highlights (blue).
func RenderAccent(s string) string { return accentStyle.Render(s) }

// RenderDim renders secondary detail (gray).
func RenderDim(s string) string { return dimStyle.Render(s) }
