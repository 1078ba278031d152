// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Jan Hofmeier

package cmd

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jan-hofmeier/winc-wifi/pkg/spi"
	"github.com/jan-hofmeier/winc-wifi/pkg/stream"
)

// eventItem is one decoded event in the browser list
type eventItem struct {
	summary stream.Summary
}

// Implement list.Item interface
func (e eventItem) Title() string {
	s := e.summary
	name := s.GOP
	if name == "" {
		name = s.Command
	}
	if name == "" {
		name = strings.ToUpper(s.Kind)
	}
	mark := " "
	if len(s.Anomalies) > 0 {
		mark = "!"
	}
	return fmt.Sprintf("%s [%d] %s", mark, s.Offset, name)
}

func (e eventItem) Description() string {
	s := e.summary
	switch {
	case len(s.Anomalies) > 0:
		return s.Anomalies[0]
	case s.Record != "":
		return s.Record
	case s.Register != "":
		return s.Register
	}
	return s.Kind
}

func (e eventItem) FilterValue() string { return e.Title() + " " + e.Description() }

// browserModel is the Bubble Tea model for the event browser
type browserModel struct {
	title     string
	summaries []stream.Summary
	stats     *stream.Statistics

	events     list.Model
	detail     viewport.Model
	errorsOnly bool

	width    int
	height   int
	quitting bool
}

func newBrowserModel(title string, summaries []stream.Summary, stats *stream.Statistics, errorsOnly bool) browserModel {
	delegate := list.NewDefaultDelegate()
	delegate.ShowDescription = true
	delegate.SetHeight(2)
	events := list.New(nil, delegate, 40, 20)
	events.Title = "Events"
	events.SetShowStatusBar(true)
	events.SetShowHelp(false)

	m := browserModel{
		title:      title,
		summaries:  summaries,
		stats:      stats,
		events:     events,
		detail:     viewport.New(40, 20),
		errorsOnly: errorsOnly,
		width:      80,
		height:     24,
	}
	m.refreshItems()
	return m
}

// refreshItems rebuilds the list from the summaries and the filter mode
func (m *browserModel) refreshItems() {
	items := make([]list.Item, 0, len(m.summaries))
	for _, s := range m.summaries {
		if m.errorsOnly && len(s.Anomalies) == 0 {
			continue
		}
		items = append(items, eventItem{summary: s})
	}
	m.events.SetItems(items)
	m.events.ResetSelected()
	m.refreshDetail()
}

func (m *browserModel) refreshDetail() {
	item, ok := m.events.SelectedItem().(eventItem)
	if !ok {
		m.detail.SetContent(headerStyle.Render("(no events)"))
		return
	}
	m.detail.SetContent(formatDetail(item.summary))
	m.detail.GotoTop()
}

// formatDetail renders the detail pane for one event
func formatDetail(s stream.Summary) string {
	var sb strings.Builder
	sb.WriteString(s.Text)

	if len(s.Anomalies) > 0 {
		sb.WriteString("\n")
		sb.WriteString(labelStyle.Render("Anomalies:"))
		sb.WriteString("\n")
		for _, a := range s.Anomalies {
			sb.WriteString(errorStyle.Render("✗ " + a))
			sb.WriteString("\n")
		}
	}

	if len(s.Payload) > 0 {
		sb.WriteString("\n")
		sb.WriteString(labelStyle.Render(fmt.Sprintf("Payload (%d bytes):", len(s.Payload))))
		sb.WriteString("\n")
		for i := 0; i < len(s.Payload); i += 16 {
			end := min(i+16, len(s.Payload))
			sb.WriteString(headerStyle.Render(fmt.Sprintf("%04x  ", i)))
			sb.WriteString(spi.FormatHex(s.Payload[i:end]))
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

func (m browserModel) Init() tea.Cmd {
	return nil
}

func (m *browserModel) resize() {
	bodyHeight := max(m.height-5, 5)
	listWidth := max(m.width*2/5, 30)
	m.events.SetSize(listWidth, bodyHeight)
	m.detail.Width = max(m.width-listWidth-4, 20)
	m.detail.Height = max(bodyHeight-2, 3)
}

func (m browserModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.events.FilterState() != list.Filtering {
			switch msg.String() {
			case "q", "ctrl+c":
				m.quitting = true
				return m, tea.Quit
			case "e":
				m.errorsOnly = !m.errorsOnly
				m.refreshItems()
				return m, nil
			case "pgdown", "pgup":
				var cmd tea.Cmd
				m.detail, cmd = m.detail.Update(msg)
				return m, cmd
			}
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		return m, nil
	}

	var cmd tea.Cmd
	before := m.events.Index()
	m.events, cmd = m.events.Update(msg)
	if m.events.Index() != before {
		m.refreshDetail()
	}
	return m, cmd
}

func (m browserModel) View() string {
	if m.quitting {
		return ""
	}

	var s strings.Builder
	s.WriteString(titleStyle.Render("WINC-SPI - EVENT BROWSER"))
	s.WriteString("\n")
	mode := "All events"
	if m.errorsOnly {
		mode = "Anomalies only"
	}
	s.WriteString(headerStyle.Render(fmt.Sprintf("%s | Mode: %s | 'e' toggle, '/' filter, pgup/pgdn scroll, 'q' quit", m.title, mode)))
	s.WriteString("\n")

	if m.stats != nil {
		line := fmt.Sprintf("%s %s   %s %s   %s %s",
			labelStyle.Render("Transactions:"), valueStyle.Render(fmt.Sprintf("%d", m.stats.Transactions)),
			labelStyle.Render("Messages:"), valueStyle.Render(fmt.Sprintf("%d", m.stats.Messages)),
			labelStyle.Render("Partial:"), func() string {
				if m.stats.PartialMessages > 0 {
					return warningStyle.Render(fmt.Sprintf("%d", m.stats.PartialMessages))
				}
				return valueStyle.Render("0")
			}(),
		)
		if m.stats.Fatal > 0 {
			line += "   " + errorStyle.Render("decode aborted")
		} else if m.stats.Truncated > 0 {
			line += "   " + warningStyle.Render("capture truncated")
		}
		s.WriteString(line)
	}
	s.WriteString("\n\n")

	body := lipgloss.JoinHorizontal(lipgloss.Top,
		m.events.View(),
		boxStyle.Render(m.detail.View()),
	)
	s.WriteString(body)
	return s.String()
}
