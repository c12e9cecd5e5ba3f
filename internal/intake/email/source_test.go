package email

import (
	"context"
	"testing"

	"github.com/emersion/go-imap/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/sprint-board/internal/model"
)

type fakeBox struct {
	msgs []Message
	seen []imap.UID
}

func (f *fakeBox) Check(context.Context) error { return nil }

func (f *fakeBox) FetchUnseen(context.Context, int) ([]Message, error) {
	return f.msgs, nil
}

func (f *fakeBox) MarkSeen(_ context.Context, uids []imap.UID) error {
	f.seen = append(f.seen, uids...)
	return nil
}

func TestFetchAndAck(t *testing.T) {
	box := &fakeBox{msgs: []Message{
		{UID: 7, MessageID: "<abc@mail>", Subject: "Bug in PROJ-12", From: "Ada", TextBody: "Also relates to OPS-3."},
		{UID: 9, Subject: "  "},
	}}
	src := newSource("inbox", box)

	items, err := src.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []model.IntakeItem{
		{
			ExternalRef: "email:abc@mail",
			Title:       "Bug in PROJ-12",
			Description: "From: Ada\n\nAlso relates to OPS-3.",
			Tags:        []string{"email", "PROJ-12", "OPS-3"},
		},
		{
			ExternalRef: "email:uid:9",
			Title:       "(no subject)",
			Description: "",
			Tags:        []string{"email"},
		},
	}, items)

	require.NoError(t, src.Ack(context.Background(), items[:1]))
	assert.Equal(t, []imap.UID{7}, box.seen)

	require.NoError(t, src.Ack(context.Background(), items[:1]))
	assert.Equal(t, []imap.UID{7}, box.seen)
}

func TestTextBody(t *testing.T) {
	raw := "From: a@example.com\r\n" +
		"Subject: hi\r\n" +
		"MIME-Version: 1.0\r\n" +
		"Content-Type: multipart/alternative; boundary=XX\r\n" +
		"\r\n" +
		"--XX\r\n" +
		"Content-Type: text/html\r\n" +
		"\r\n" +
		"<p>html</p>\r\n" +
		"--XX\r\n" +
		"Content-Type: text/plain\r\n" +
		"\r\n" +
		"plain body\r\n" +
		"--XX--\r\n"
	assert.Equal(t, "plain body", textBody([]byte(raw)))
}
