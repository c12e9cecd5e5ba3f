package email

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"
	"github.com/emersion/go-message/mail"

	"github.com/nhle/sprint-board/internal/intake"
)

// Message is an unread message with its plain-text body.
type Message struct {
	UID       imap.UID
	MessageID string
	Subject   string
	From      string
	Date      time.Time
	TextBody  string
}

// IMAPClient connects to an IMAP mailbox on demand.
type IMAPClient struct {
	addr     string
	username string
	password string
	mailbox  string
	tls      bool
}

// NewIMAPClient creates an IMAP client for addr (host:port).
func NewIMAPClient(addr, username, password, mailbox string, tls bool) *IMAPClient {
	if mailbox == "" {
		mailbox = "INBOX"
	}
	return &IMAPClient{addr: addr, username: username, password: password, mailbox: mailbox, tls: tls}
}

// connect dials, authenticates and selects the mailbox. The caller must
// log out of the returned client.
func (c *IMAPClient) connect(ctx context.Context) (*imapclient.Client, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var (
		client *imapclient.Client
		err    error
	)
	if c.tls {
		client, err = imapclient.DialTLS(c.addr, nil)
	} else {
		client, err = imapclient.DialStartTLS(c.addr, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("connecting to IMAP %s: %w", c.addr, err)
	}

	if err := client.Login(c.username, c.password).Wait(); err != nil {
		_ = client.Logout().Wait()
		return nil, &intake.AuthError{
			Type:    intake.TypeEmail,
			Message: fmt.Sprintf("authentication failed for %s: %v", c.username, err),
		}
	}

	if _, err := client.Select(c.mailbox, nil).Wait(); err != nil {
		_ = client.Logout().Wait()
		return nil, fmt.Errorf("selecting %s: %w", c.mailbox, err)
	}
	return client, nil
}

// Check logs in and selects the mailbox.
func (c *IMAPClient) Check(ctx context.Context) error {
	client, err := c.connect(ctx)
	if err != nil {
		return err
	}
	return client.Logout().Wait()
}

// FetchUnseen returns up to limit of the most recent messages without the
// \Seen flag. Bodies are fetched with PEEK so the flag is left untouched.
func (c *IMAPClient) FetchUnseen(ctx context.Context, limit int) ([]Message, error) {
	client, err := c.connect(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = client.Logout().Wait() }()

	searchData, err := client.UIDSearch(&imap.SearchCriteria{
		NotFlag: []imap.Flag{imap.FlagSeen},
	}, nil).Wait()
	if err != nil {
		return nil, fmt.Errorf("searching unseen messages: %w", err)
	}

	uids := searchData.AllUIDs()
	if len(uids) == 0 {
		return nil, nil
	}
	if limit > 0 && len(uids) > limit {
		uids = uids[len(uids)-limit:]
	}

	bodySection := &imap.FetchItemBodySection{Peek: true}
	fetchCmd := client.Fetch(imap.UIDSetNum(uids...), &imap.FetchOptions{
		Envelope:    true,
		UID:         true,
		BodySection: []*imap.FetchItemBodySection{bodySection},
	})
	defer fetchCmd.Close()

	var msgs []Message
	for {
		msg := fetchCmd.Next()
		if msg == nil {
			break
		}
		buf, err := msg.Collect()
		if err != nil {
			continue
		}
		m := Message{UID: buf.UID}
		if env := buf.Envelope; env != nil {
			m.MessageID = env.MessageID
			m.Subject = env.Subject
			m.Date = env.Date
			if len(env.From) > 0 {
				if env.From[0].Name != "" {
					m.From = env.From[0].Name
				} else {
					m.From = env.From[0].Addr()
				}
			}
		}
		if raw := buf.FindBodySection(bodySection); raw != nil {
			m.TextBody = textBody(raw)
		}
		msgs = append(msgs, m)
	}

	if err := fetchCmd.Close(); err != nil {
		return msgs, fmt.Errorf("fetching messages: %w", err)
	}
	return msgs, nil
}

// MarkSeen adds the \Seen flag to the given messages.
func (c *IMAPClient) MarkSeen(ctx context.Context, uids []imap.UID) error {
	if len(uids) == 0 {
		return nil
	}
	client, err := c.connect(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = client.Logout().Wait() }()

	return client.Store(imap.UIDSetNum(uids...), &imap.StoreFlags{
		Op:     imap.StoreFlagsAdd,
		Silent: true,
		Flags:  []imap.Flag{imap.FlagSeen},
	}, nil).Close()
}

// textBody extracts the text/plain part of a raw RFC 5322 message,
// falling back to the raw bytes when the message cannot be parsed.
func textBody(raw []byte) string {
	mr, err := mail.CreateReader(bytes.NewReader(raw))
	if err != nil {
		return strings.TrimSpace(string(raw))
	}
	defer mr.Close()

	for {
		part, err := mr.NextPart()
		if err != nil {
			break
		}
		h, ok := part.Header.(*mail.InlineHeader)
		if !ok {
			continue
		}
		contentType, _, _ := h.ContentType()
		if !strings.HasPrefix(contentType, "text/plain") {
			continue
		}
		body, err := io.ReadAll(part.Body)
		if err != nil {
			continue
		}
		return strings.TrimSpace(string(body))
	}
	return ""
}
