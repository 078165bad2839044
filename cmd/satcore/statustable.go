package main

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/satband/satcore/internal/issuerd"
)

var (
	borderColor = lipgloss.AdaptiveColor{Light: "#6C6CFF", Dark: "#6C6CFF"}
	headerStyle = lipgloss.NewStyle().Bold(true)
	baseCell    = lipgloss.NewStyle().Padding(0, 1)
)

// renderStatusTable renders one row per channel as a bordered lipgloss
// table (no lock-state chip coloring here, just plain counters).
func renderStatusTable(rows []issuerd.ChannelStatus) string {
	data := make([][]string, 0, len(rows))
	for _, r := range rows {
		data = append(data, []string{
			fmt.Sprintf("%d", r.Channel),
			fmt.Sprintf("%d", r.FramesEncoded),
			fmt.Sprintf("%d", r.LastTimestamp),
		})
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(borderColor)).
		Headers(headerStyle.Render("channel"), headerStyle.Render("frames"), headerStyle.Render("last_t")).
		Rows(data...).
		StyleFunc(func(row, col int) lipgloss.Style {
			s := baseCell
			if col >= 1 {
				s = s.Align(lipgloss.Right)
			}
			return s
		})

	return t.Render()
}
