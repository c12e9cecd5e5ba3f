// Package export renders a user's board as JSON, CSV or a printable PDF.
package export

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/nhle/sprint-board/internal/model"
)

// Version is the document version written to JSON exports.
const Version = 1

// Format selects an export encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
	FormatPDF  Format = "pdf"
)

// ParseFormat validates a user-supplied format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatJSON, FormatCSV, FormatPDF:
		return f, nil
	}
	return "", fmt.Errorf("unknown export format %q (want json, csv or pdf)", s)
}

// Extension returns the file extension for f, including the dot.
func (f Format) Extension() string {
	return "." + string(f)
}

// ContentType returns the MIME type for f.
func (f Format) ContentType() string {
	switch f {
	case FormatCSV:
		return "text/csv; charset=utf-8"
	case FormatPDF:
		return "application/pdf"
	}
	return "application/json"
}

// Data is the full object graph of an export.
type Data struct {
	Version    int            `json:"version"`
	ExportedAt time.Time      `json:"exported_at"`
	UserID     string         `json:"user_id"`
	Sprints    []model.Sprint `json:"sprints"`
}

// New assembles export data for a user's sprints.
func New(userID string, sprints []model.Sprint, at time.Time) Data {
	if sprints == nil {
		sprints = []model.Sprint{}
	}
	for i := range sprints {
		if sprints[i].Stories == nil {
			sprints[i].Stories = []model.Story{}
		}
	}
	return Data{Version: Version, ExportedAt: at.UTC(), UserID: userID, Sprints: sprints}
}

// Write encodes d to w in format f.
func Write(w io.Writer, f Format, d Data) error {
	switch f {
	case FormatJSON:
		return WriteJSON(w, d)
	case FormatCSV:
		return WriteCSV(w, d)
	case FormatPDF:
		return WritePDF(w, d)
	}
	return fmt.Errorf("unknown export format %q", f)
}

// WriteJSON writes d as indented JSON.
func WriteJSON(w io.Writer, d Data) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(d); err != nil {
		return fmt.Errorf("encoding json export: %w", err)
	}
	return nil
}

// Filename returns a default download name such as
// "sprintboard-local-2024-05-01.csv".
func Filename(userID string, f Format, at time.Time) string {
	return fmt.Sprintf("sprintboard-%s-%s%s", userID, at.Format("2006-01-02"), f.Extension())
}
