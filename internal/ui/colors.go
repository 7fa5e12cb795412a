package ui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/desertthunder/calday/internal/session"
)

var styles = NewPalette("#1A73E8", "#04B575", "#D93025", "#F29900", "#626262")

// struct Palette is a simple stylesheet built with named [lipgloss.Style] fields
type Palette struct {
	title   lipgloss.Style
	success lipgloss.Style
	error   lipgloss.Style
	warning lipgloss.Style
	help    lipgloss.Style
}

func NewPalette(t, s, e, w, h string) *Palette {
	return &Palette{
		title:   NewBold(t).MarginBottom(1),
		success: NewBold(s),
		error:   NewBold(e),
		warning: NewStyle(w),
		help:    NewEm(h),
	}
}

// Notice picks the style for a session notification.
func (p *Palette) Notice(level session.Level) lipgloss.Style {
	if level == session.LevelError {
		return p.error
	}
	return p.success
}

func NewStyle(fg string) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(fg))
}

func NewBold(fg string) lipgloss.Style {
	return NewStyle(fg).Bold(true)
}

func NewEm(fg string) lipgloss.Style {
	return NewStyle(fg).Italic(true)
}
