package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/go-pdf/fpdf"
)

// WritePDF renders a printable sprint report.
func WritePDF(w io.Writer, d Data) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle("Sprint report", true)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.Cell(0, 10, tr(fmt.Sprintf("Sprint report: %s", d.UserID)))
	pdf.Ln(8)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, d.ExportedAt.Format("2006-01-02 15:04 MST"))
	pdf.Ln(10)

	total, done := 0, 0
	for _, sp := range d.Sprints {
		pdf.SetFont("Arial", "B", 13)
		header := sp.Title
		if sp.Icon != "" {
			header = sp.Icon + " " + header
		}
		header += fmt.Sprintf(" (%d/%d)", sp.CompletedCount(), len(sp.Stories))
		if sp.IsArchived() {
			header += " [archived]"
		}
		pdf.Cell(0, 9, tr(header))
		pdf.Ln(8)

		pdf.SetFont("Arial", "", 11)
		if len(sp.Stories) == 0 {
			pdf.Cell(0, 7, "  - No stories.")
			pdf.Ln(7)
		}
		for _, st := range sp.Stories {
			total++
			mark := "[ ]"
			if st.Completed {
				mark = "[x]"
				done++
			}
			line := fmt.Sprintf("  %s %s  %s", mark, st.Number, st.Title)
			if len(st.Tags) > 0 {
				line += "  #" + strings.Join(st.Tags, " #")
			}
			pdf.MultiCell(0, 6, tr(line), "", "", false)
		}
		pdf.Ln(4)
	}

	pdf.Ln(6)
	pdf.SetFont("Arial", "B", 12)
	pdf.Cell(0, 10, fmt.Sprintf("Stories completed: %d of %d", done, total))

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("rendering pdf: %w", err)
	}
	return nil
}
