// Package ui holds the lipgloss styles of the annotation surface.
package ui

import "github.com/charmbracelet/lipgloss"

// Colors used throughout the TUI.
var (
	ColorRed     = lipgloss.Color("#FF0000")
	ColorGreen   = lipgloss.Color("#00FF00")
	ColorYellow  = lipgloss.Color("#FFFF00")
	ColorCyan    = lipgloss.Color("#00FFFF")
	ColorGray    = lipgloss.Color("#666666")
	ColorDimGray = lipgloss.Color("#444444")
	ColorWhite   = lipgloss.Color("#FFFFFF")
	ColorMagenta = lipgloss.Color("#FF00FF")
)

// Pin glyphs drawn on the artwork.
const (
	GlyphOpen     = "●"
	GlyphResolved = "✓"
	GlyphPending  = "◌"
	GlyphDraft    = "✚"
	GlyphCanvas   = "·"
)

// Base styles reused by UI components.
var (
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorCyan)

	StatusStyle = lipgloss.NewStyle().
			Foreground(ColorGray)

	CommentModeBadgeStyle = lipgloss.NewStyle().
				Foreground(ColorMagenta).
				Bold(true)

	ReadOnlyBadgeStyle = lipgloss.NewStyle().
				Foreground(ColorYellow).
				Bold(true)

	FilterBadgeStyle = lipgloss.NewStyle().
				Foreground(ColorCyan).
				Bold(true)

	RecordingDotStyle = lipgloss.NewStyle().
				Foreground(ColorRed).
				Bold(true)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(ColorRed).
			Bold(true)

	ErrorTextStyle = lipgloss.NewStyle().
			Foreground(ColorRed)

	NoticeStyle = lipgloss.NewStyle().
			Foreground(ColorYellow)

	CanvasStyle = lipgloss.NewStyle().
			Foreground(ColorDimGray)

	PinOpenStyle = lipgloss.NewStyle().
			Foreground(ColorYellow).
			Bold(true)

	PinResolvedStyle = lipgloss.NewStyle().
				Foreground(ColorGreen)

	PinPendingStyle = lipgloss.NewStyle().
			Foreground(ColorGray)

	PinSelectedStyle = lipgloss.NewStyle().
				Foreground(ColorCyan).
				Bold(true).
				Reverse(true)

	DraftPinStyle = lipgloss.NewStyle().
			Foreground(ColorMagenta).
			Bold(true)

	PanelTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorWhite)

	SelectedStyle = lipgloss.NewStyle().
			Foreground(ColorCyan).
			Bold(true)

	DimStyle = lipgloss.NewStyle().
			Foreground(ColorGray)

	AuthorStyle = lipgloss.NewStyle().
			Foreground(ColorCyan)

	InputStyle = lipgloss.NewStyle().
			Foreground(ColorWhite)

	FooterKeyStyle = lipgloss.NewStyle().
			Foreground(ColorYellow).
			Bold(true)

	FooterDescStyle = lipgloss.NewStyle().
			Foreground(ColorGray)

	DividerStyle = lipgloss.NewStyle().
			Foreground(ColorDimGray)
)
