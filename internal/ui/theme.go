package ui

import (
	"github.com/charmbracelet/lipgloss"
	darkmode "github.com/thiagokokada/dark-mode-go"

	"github.com/tabrail/tabrail/internal/config"
)

// Theme is one resolved palette. The theme setting only ever picks between
// these two; nothing is computed from terminal colors.
type Theme struct {
	Name config.Theme

	ColorText    lipgloss.Color
	ColorDim     lipgloss.Color
	ColorBorder  lipgloss.Color
	ColorAccent  lipgloss.Color
	ColorSurface lipgloss.Color
	ColorUnseen  lipgloss.Color
	ColorRecent  lipgloss.Color
	ColorClose   lipgloss.Color
}

var darkTheme = Theme{
	Name:         config.ThemeDark,
	ColorText:    lipgloss.Color("#f8f8f2"),
	ColorDim:     lipgloss.Color("#6272a4"),
	ColorBorder:  lipgloss.Color("#44475a"),
	ColorAccent:  lipgloss.Color("#bd93f9"),
	ColorSurface: lipgloss.Color("#44475a"),
	ColorUnseen:  lipgloss.Color("#8be9fd"),
	ColorRecent:  lipgloss.Color("#50fa7b"),
	ColorClose:   lipgloss.Color("#ff5555"),
}

var lightTheme = Theme{
	Name:         config.ThemeLight,
	ColorText:    lipgloss.Color("#24292f"),
	ColorDim:     lipgloss.Color("#8c959f"),
	ColorBorder:  lipgloss.Color("#d0d7de"),
	ColorAccent:  lipgloss.Color("#8250df"),
	ColorSurface: lipgloss.Color("#d0d7de"),
	ColorUnseen:  lipgloss.Color("#0969da"),
	ColorRecent:  lipgloss.Color("#1a7f37"),
	ColorClose:   lipgloss.Color("#cf222e"),
}

// ResolveTheme maps the configured theme onto a palette. Auto asks the
// desktop which mode it is in and falls back to dark when that fails.
func ResolveTheme(mode config.Theme) Theme {
	switch mode {
	case config.ThemeDark:
		return darkTheme
	case config.ThemeLight:
		return lightTheme
	}

	dark, err := darkmode.IsDarkMode()
	if err != nil || dark {
		return darkTheme
	}
	return lightTheme
}

// styleSet holds the pre-built lipgloss styles for one theme.
type styleSet struct {
	tab         lipgloss.Style
	tabActive   lipgloss.Style
	tabHover    lipgloss.Style
	tabGhost    lipgloss.Style
	groupHeader lipgloss.Style
	ghostHeader lipgloss.Style
	border      lipgloss.Style
	unseen      lipgloss.Style
	recent      lipgloss.Style
	closeGlyph  lipgloss.Style
	editText    lipgloss.Style
	contentText lipgloss.Style
	contentDim  lipgloss.Style
	statusBar   lipgloss.Style
	switcherBox lipgloss.Style
	switcherSel lipgloss.Style
	matchedRune lipgloss.Style
}

func newStyles(t Theme) styleSet {
	return styleSet{
		tab:         lipgloss.NewStyle().Foreground(t.ColorText),
		tabActive:   lipgloss.NewStyle().Foreground(t.ColorText).Background(t.ColorSurface).Bold(true),
		tabHover:    lipgloss.NewStyle().Foreground(t.ColorText).Underline(true),
		tabGhost:    lipgloss.NewStyle().Foreground(t.ColorDim).Italic(true),
		groupHeader: lipgloss.NewStyle().Foreground(t.ColorAccent).Bold(true),
		ghostHeader: lipgloss.NewStyle().Foreground(t.ColorDim).Bold(true).Italic(true),
		border:      lipgloss.NewStyle().Foreground(t.ColorBorder),
		unseen:      lipgloss.NewStyle().Foreground(t.ColorUnseen),
		recent:      lipgloss.NewStyle().Foreground(t.ColorRecent),
		closeGlyph:  lipgloss.NewStyle().Foreground(t.ColorClose),
		editText:    lipgloss.NewStyle().Foreground(t.ColorText).Underline(true),
		contentText: lipgloss.NewStyle().Foreground(t.ColorText),
		contentDim:  lipgloss.NewStyle().Foreground(t.ColorDim),
		statusBar:   lipgloss.NewStyle().Foreground(t.ColorDim),
		switcherBox: lipgloss.NewStyle().Foreground(t.ColorText),
		switcherSel: lipgloss.NewStyle().Foreground(t.ColorText).Background(t.ColorSurface).Bold(true),
		matchedRune: lipgloss.NewStyle().Foreground(t.ColorAccent).Bold(true),
	}
}
