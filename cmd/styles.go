// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Jan Hofmeier

package cmd

import (
	"encoding/json"
	"io"

	"github.com/charmbracelet/lipgloss"

	"github.com/jan-hofmeier/winc-wifi/pkg/stream"
)

// Styles shared by the text report and the TUI
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("12")).
			Background(lipgloss.Color("235")).
			Padding(0, 1)

	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("12")).
			Bold(true)

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("10"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9")).
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("11"))

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)
)

// renderStats boxes the statistics summary. Colors are dropped when the
// output is not a terminal.
func renderStats(s *stream.Statistics) string {
	body := s.String()
	if s.Fatal > 0 || s.Truncated > 0 {
		return boxStyle.BorderForeground(lipgloss.Color("9")).Render(body) + "\n"
	}
	return boxStyle.Render(body) + "\n"
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
