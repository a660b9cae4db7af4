package main

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// reportStyles are the styles of CLI reports.
type reportStyles struct {
	Title   lipgloss.Style
	Header  lipgloss.Style
	Body    lipgloss.Style
	Muted   lipgloss.Style
	Success lipgloss.Style
	Failure lipgloss.Style
}

func defaultReportStyles() reportStyles {
	return reportStyles{
		Title:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#2196F3")),
		Header:  lipgloss.NewStyle().Bold(true),
		Body:    lipgloss.NewStyle(),
		Muted:   lipgloss.NewStyle().Foreground(lipgloss.Color("#6c757d")),
		Success: lipgloss.NewStyle().Foreground(lipgloss.Color("#8BC34A")),
		Failure: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#e53935")),
	}
}

// table renders static rows as aligned columns.
type table struct {
	Title   string
	Headers []string
	Rows    [][]string
}

func newTable(title string, headers ...string) *table {
	return &table{Title: title, Headers: headers}
}

func (t *table) AddRow(row ...string) {
	t.Rows = append(t.Rows, row)
}

// View renders the table; an empty table renders as nothing.
func (t *table) View(styles reportStyles) string {
	if len(t.Rows) == 0 {
		return ""
	}

	var sb strings.Builder
	if t.Title != "" {
		sb.WriteString(styles.Title.Render(t.Title))
		sb.WriteString("\n")
	}

	widths := make([]int, len(t.Headers))
	for i, h := range t.Headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range t.Rows {
		for i, cell := range row {
			if i < len(widths) && lipgloss.Width(cell) > widths[i] {
				widths[i] = lipgloss.Width(cell)
			}
		}
	}
	// Width includes padding.
	total := len(widths) - 1
	for i := range widths {
		widths[i] += 2
		total += widths[i]
	}

	header := styles.Header.Padding(0, 1)
	body := styles.Body.Padding(0, 1)
	sep := styles.Muted.Render("|")

	writeRow := func(row []string, style func(i int, cell string) lipgloss.Style) {
		for i, cell := range row {
			if i >= len(widths) {
				break
			}
			sb.WriteString(style(i, cell).Width(widths[i]).Render(cell))
			if i < len(row)-1 {
				sb.WriteString(sep)
			}
		}
		sb.WriteString("\n")
	}

	writeRow(t.Headers, func(int, string) lipgloss.Style { return header })
	sb.WriteString(styles.Muted.Render(strings.Repeat("-", total)))
	sb.WriteString("\n")
	for _, row := range t.Rows {
		writeRow(row, func(_ int, cell string) lipgloss.Style {
			switch cell {
			case statusRegressed:
				return styles.Failure.Padding(0, 1)
			case statusOK:
				return styles.Success.Padding(0, 1)
			}
			return body
		})
	}
	return sb.String()
}

const (
	statusOK        = "ok"
	statusRegressed = "REGRESSED"
)

func status(regressed bool) string {
	if regressed {
		return statusRegressed
	}
	return statusOK
}
