package view

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/jedib0t/go-pretty/v6/table"
)

// RenderText writes the heading and a table of rows to w.
func RenderText(w io.Writer, l Layout, rows []Row) error {
	heading := lipgloss.NewRenderer(w).NewStyle().Bold(true)
	if _, err := fmt.Fprintln(w, heading.Render(l.Title)); err != nil {
		return err
	}

	if len(rows) == 0 {
		_, err := fmt.Fprintln(w, "(0 rows)")
		return err
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{l.Key, l.Name, l.Category, l.Value})
	for _, r := range rows {
		t.AppendRow(table.Row{r.Key, r.Name, r.Category, r.Value})
	}
	t.Render()

	_, err := fmt.Fprintf(w, "(%d rows)\n", len(rows))
	return err
}
