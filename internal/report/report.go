// Package report prints matched events as an aligned markdown table.
package report

import (
	"fmt"
	"io"
	"schedcal/internal/models"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"
)

var header = []string{"Date", "Start", "End", "Summary", "Location"}

// WriteTable writes one row per event with times shown in loc.
func WriteTable(w io.Writer, events []models.Event, loc *time.Location) error {
	rows := [][]string{header}
	for _, e := range events {
		start, end := e.Start.In(loc), e.End.In(loc)
		rows = append(rows, []string{
			start.Format("2006-01-02"),
			start.Format("15:04"),
			end.Format("15:04"),
			e.Summary(),
			e.Location,
		})
	}

	widths := make([]int, len(header))
	for _, row := range rows {
		for i, cell := range row {
			if cw := runewidth.StringWidth(cell); cw > widths[i] {
				widths[i] = cw
			}
		}
	}
	for i := range widths {
		if widths[i] < 3 {
			widths[i] = 3
		}
	}

	var sb strings.Builder
	for i, row := range rows {
		writeRow(&sb, row, widths)
		if i == 0 {
			sep := make([]string, len(widths))
			for j, width := range widths {
				sep[j] = strings.Repeat("-", width)
			}
			writeRow(&sb, sep, widths)
		}
	}

	if _, err := io.WriteString(w, sb.String()); err != nil {
		return fmt.Errorf("failed to write table: %w", err)
	}
	return nil
}

func writeRow(sb *strings.Builder, row []string, widths []int) {
	sb.WriteString("|")
	for i, cell := range row {
		sb.WriteString(" ")
		sb.WriteString(cell)
		if pad := widths[i] - runewidth.StringWidth(cell); pad > 0 {
			sb.WriteString(strings.Repeat(" ", pad))
		}
		sb.WriteString(" |")
	}
	sb.WriteString("\n")
}
