package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/sprint-board/internal/model"
)

func sampleData() Data {
	created := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	done := created.Add(2 * time.Hour)
	sprints := []model.Sprint{
		{
			ID: model.PrioritySprintID, UserID: "u1", Title: "Priority", Icon: "!",
			Stories: []model.Story{{
				ID: "s1", Number: "STORY-001", Title: "Fix login, now", Description: "line one\nline two",
				Tags: []string{"auth", "urgent"}, Completed: true, CompletedAt: &done,
				SprintID: model.PrioritySprintID, Position: 0, CreatedAt: created,
			}},
		},
		{ID: "sp2", UserID: "u1", Title: "Empty"},
	}
	return New("u1", sprints, created)
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat(" CSV ")
	require.NoError(t, err)
	assert.Equal(t, FormatCSV, f)

	_, err = ParseFormat("xml")
	assert.Error(t, err)
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatJSON, sampleData()))

	var got struct {
		Version int    `json:"version"`
		UserID  string `json:"user_id"`
		Sprints []struct {
			ID      string            `json:"id"`
			Stories []json.RawMessage `json:"stories"`
		} `json:"sprints"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, Version, got.Version)
	assert.Equal(t, "u1", got.UserID)
	require.Len(t, got.Sprints, 2)
	assert.Len(t, got.Sprints[0].Stories, 1)
	assert.NotNil(t, got.Sprints[1].Stories)
	assert.Contains(t, buf.String(), `"stories": []`)
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatCSV, sampleData()))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, CSVHeader, records[0])
	assert.Equal(t, []string{
		"STORY-001", "Fix login, now", "line one\nline two", "auth;urgent", "true",
		"2024-05-01T11:00:00Z", "Priority", "priority", "0", "2024-05-01T09:00:00Z", "",
	}, records[1])
}

func TestWritePDF(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatPDF, sampleData()))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
}

func TestFilename(t *testing.T) {
	at := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "sprintboard-u1-2024-05-01.pdf", Filename("u1", FormatPDF, at))
}
