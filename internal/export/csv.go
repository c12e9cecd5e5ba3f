package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

// CSVHeader is the column order of CSV exports.
var CSVHeader = []string{
	"number",
	"title",
	"description",
	"tags",
	"completed",
	"completed_at",
	"sprint",
	"sprint_id",
	"position",
	"created_at",
	"archived_at",
}

// WriteCSV writes one row per story, in sprint order.
func WriteCSV(w io.Writer, d Data) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return fmt.Errorf("writing csv header: %w", err)
	}
	for _, sp := range d.Sprints {
		for _, st := range sp.Stories {
			row := []string{
				st.Number,
				st.Title,
				st.Description,
				strings.Join(st.Tags, ";"),
				strconv.FormatBool(st.Completed),
				formatTime(st.CompletedAt),
				sp.Title,
				sp.ID,
				strconv.Itoa(st.Position),
				st.CreatedAt.UTC().Format(time.RFC3339),
				formatTime(st.ArchivedAt),
			}
			if err := cw.Write(row); err != nil {
				return fmt.Errorf("writing csv row %s: %w", st.Number, err)
			}
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flushing csv: %w", err)
	}
	return nil
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
