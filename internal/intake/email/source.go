// Package email turns unread mailbox messages into story candidates.
package email

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/emersion/go-imap/v2"

	"github.com/nhle/sprint-board/internal/crossref"
	"github.com/nhle/sprint-board/internal/intake"
	"github.com/nhle/sprint-board/internal/model"
)

const maxDescription = 4000

// mailbox is the subset of IMAPClient the source needs.
type mailbox interface {
	Check(ctx context.Context) error
	FetchUnseen(ctx context.Context, limit int) ([]Message, error)
	MarkSeen(ctx context.Context, uids []imap.UID) error
}

// Source implements intake.Source for an IMAP mailbox.
type Source struct {
	id    string
	box   mailbox
	limit int

	mu   sync.Mutex
	uids map[string]imap.UID
}

// New creates an email source reading from client.
func New(id string, client *IMAPClient) *Source {
	return newSource(id, client)
}

func newSource(id string, box mailbox) *Source {
	return &Source{id: id, box: box, limit: 50, uids: make(map[string]imap.UID)}
}

func (s *Source) ID() string        { return s.id }
func (s *Source) Type() intake.Type { return intake.TypeEmail }

// ValidateConnection logs in and selects the mailbox.
func (s *Source) ValidateConnection(ctx context.Context) (string, error) {
	if err := s.box.Check(ctx); err != nil {
		return "", fmt.Errorf("validating mailbox: %w", err)
	}
	return "mailbox reachable", nil
}

// Fetch returns one item per unread message. Jira keys mentioned in the
// subject or body become tags.
func (s *Source) Fetch(ctx context.Context) ([]model.IntakeItem, error) {
	msgs, err := s.box.FetchUnseen(ctx, s.limit)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	items := make([]model.IntakeItem, 0, len(msgs))
	for _, m := range msgs {
		it := toItem(m)
		s.uids[it.ExternalRef] = m.UID
		items = append(items, it)
	}
	return items, nil
}

// Ack marks the messages behind items as seen.
func (s *Source) Ack(ctx context.Context, items []model.IntakeItem) error {
	s.mu.Lock()
	var uids []imap.UID
	for _, it := range items {
		if uid, ok := s.uids[it.ExternalRef]; ok {
			uids = append(uids, uid)
			delete(s.uids, it.ExternalRef)
		}
	}
	s.mu.Unlock()

	if err := s.box.MarkSeen(ctx, uids); err != nil {
		return fmt.Errorf("marking messages seen: %w", err)
	}
	return nil
}

func toItem(m Message) model.IntakeItem {
	ref := "email:" + strings.Trim(m.MessageID, "<>")
	if m.MessageID == "" {
		ref = fmt.Sprintf("email:uid:%d", m.UID)
	}

	title := strings.TrimSpace(m.Subject)
	if title == "" {
		title = "(no subject)"
	}

	desc := m.TextBody
	if len(desc) > maxDescription {
		desc = desc[:maxDescription]
	}
	if m.From != "" {
		desc = strings.TrimSpace("From: " + m.From + "\n\n" + desc)
	}

	tags := append([]string{"email"}, crossref.ExtractJiraKeys(m.Subject, m.TextBody)...)
	return model.IntakeItem{
		ExternalRef: ref,
		Title:       title,
		Description: desc,
		Tags:        model.NormalizeTags(tags),
	}
}
