// Package ui renders run results for the terminal. Styled output is used
// when stdout is a terminal; plain output otherwise, so piped and logged
// invocations stay grep-friendly.
package ui

import (
	"fmt"
	"os"
	"strings"
	"time"

	"golang.org/x/term"

	"github.com/vvka-141/tikiload/pkg/tikiload"
)

// IsTerminal reports whether the file descriptor is attached to a TTY.
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

type summaryRow struct {
	label string
	value string
	warn  bool
}

func summaryRows(s *tikiload.RunSummary) []summaryRow {
	return []summaryRow{
		{label: "Files found", value: fmt.Sprintf("%d", s.FilesFound)},
		{label: "Files loaded", value: fmt.Sprintf("%d", s.FilesLoaded)},
		{label: "Products seen", value: fmt.Sprintf("%d", s.ProductsSeen)},
		{label: "Products upserted", value: fmt.Sprintf("%d", s.ProductsUpserted)},
		{label: "Images upserted", value: fmt.Sprintf("%d", s.ImagesUpserted)},
		{label: "Malformed records", value: fmt.Sprintf("%d", s.MalformedRecords), warn: s.MalformedRecords > 0},
		{label: "Malformed files", value: fmt.Sprintf("%d", s.MalformedFiles), warn: s.MalformedFiles > 0},
		{label: "Duration", value: s.Duration.Round(time.Millisecond).String()},
	}
}

// RenderSummary formats a finished run. With styled set, the output is a
// bordered, colored panel; otherwise plain "label: value" lines.
func RenderSummary(s *tikiload.RunSummary, styled bool) string {
	rows := summaryRows(s)

	if !styled {
		var b strings.Builder
		fmt.Fprintf(&b, "Run %s\n", s.RunID)
		for _, row := range rows {
			fmt.Fprintf(&b, "%-18s %s\n", row.label+":", row.value)
		}
		return b.String()
	}

	width := 0
	for _, row := range rows {
		if len(row.label) > width {
			width = len(row.label)
		}
	}

	var b strings.Builder
	b.WriteString(TitleStyle.Render("Ingestion complete"))
	b.WriteByte('\n')
	b.WriteString(MutedStyle.Render("run " + s.RunID.String()))
	b.WriteByte('\n')
	for i, row := range rows {
		if i > 0 {
			b.WriteByte('\n')
		}
		style := ValueStyle
		if row.warn {
			style = WarningStyle
		}
		b.WriteString(LabelStyle.Render(fmt.Sprintf("%-*s", width+2, row.label)))
		b.WriteString(style.Render(row.value))
	}

	return BoxStyle.Render(b.String()) + "\n"
}
