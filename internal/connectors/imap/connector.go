package imap

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/emersion/go-imap"
	imapclient "github.com/emersion/go-imap/client"

	"orderdesk/internal"
	"orderdesk/internal/config"
)

type Connector struct {
	host     string
	port     int
	secure   bool
	user     string
	password string
	markSeen bool
}

func NewConnector(cfg config.Config) (*Connector, error) {
	if err := cfg.Require("IMAP_HOST", cfg.IMAPHost); err != nil {
		return nil, err
	}
	if err := cfg.Require("IMAP_USER", cfg.IMAPUser); err != nil {
		return nil, err
	}
	if err := cfg.Require("IMAP_PASSWORD", cfg.IMAPPassword); err != nil {
		return nil, err
	}

	return &Connector{
		host:     cfg.IMAPHost,
		port:     cfg.IMAPPort,
		secure:   cfg.IMAPSecure,
		user:     cfg.IMAPUser,
		password: cfg.IMAPPassword,
		markSeen: cfg.IMAPMarkSeen,
	}, nil
}

func (c *Connector) dial() (*imapclient.Client, error) {
	addr := fmt.Sprintf("%s:%d", c.host, c.port)
	if c.secure {
		return imapclient.DialTLS(addr, &tls.Config{ServerName: c.host})
	}
	return imapclient.Dial(addr)
}

// FetchInbox returns up to max unseen messages of a mailbox, oldest first.
// Bodies are read with BODY.PEEK so nothing is flagged until the whole
// batch has been fetched. go-imap has no context support; ctx is checked
// between steps.
func (c *Connector) FetchInbox(ctx context.Context, mailbox string, max int) ([]internal.FetchedMailMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	client, err := c.dial()
	if err != nil {
		return nil, fmt.Errorf("imap dial %s: %w", c.host, err)
	}
	defer client.Logout()

	if err := client.Login(c.user, c.password); err != nil {
		return nil, fmt.Errorf("imap login: %w", err)
	}
	if _, err := client.Select(mailbox, false); err != nil {
		return nil, fmt.Errorf("select %q: %w", mailbox, err)
	}

	uids, err := unseenUIDs(client, max)
	if err != nil || len(uids) == 0 {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out, err := fetchMessages(client, uids)
	if err != nil {
		return nil, err
	}

	if c.markSeen && len(out) > 0 {
		set := new(imap.SeqSet)
		set.AddNum(uids...)
		if err := client.UidStore(set, imap.FormatFlagsOp(imap.AddFlags, true), []interface{}{imap.SeenFlag}, nil); err != nil {
			return nil, fmt.Errorf("mark seen: %w", err)
		}
	}
	return out, nil
}

// unseenUIDs keeps the newest max unseen UIDs, ascending.
func unseenUIDs(client *imapclient.Client, max int) ([]uint32, error) {
	criteria := imap.NewSearchCriteria()
	criteria.WithoutFlags = []string{imap.SeenFlag}
	uids, err := client.UidSearch(criteria)
	if err != nil {
		return nil, err
	}
	sort.Slice(uids, func(i, j int) bool { return uids[i] < uids[j] })
	if max > 0 && len(uids) > max {
		uids = uids[len(uids)-max:]
	}
	return uids, nil
}

func fetchMessages(client *imapclient.Client, uids []uint32) ([]internal.FetchedMailMessage, error) {
	set := new(imap.SeqSet)
	set.AddNum(uids...)

	section := &imap.BodySectionName{Peek: true}
	items := []imap.FetchItem{imap.FetchEnvelope, imap.FetchInternalDate, imap.FetchUid, section.FetchItem()}
	messages := make(chan *imap.Message, len(uids))
	done := make(chan error, 1)
	go func() { done <- client.UidFetch(set, items, messages) }()

	out := make([]internal.FetchedMailMessage, 0, len(uids))
	var readErr error
	for msg := range messages {
		if msg == nil || readErr != nil {
			continue
		}
		fetched, ok, err := toFetched(msg, section, time.Now())
		if err != nil {
			readErr = err
			continue
		}
		if ok {
			out = append(out, fetched)
		}
	}

	if err := <-done; err != nil {
		return nil, err
	}
	if readErr != nil {
		return nil, readErr
	}
	return out, nil
}

func toFetched(msg *imap.Message, section *imap.BodySectionName, now time.Time) (internal.FetchedMailMessage, bool, error) {
	body := msg.GetBody(section)
	if body == nil {
		return internal.FetchedMailMessage{}, false, nil
	}
	raw, err := io.ReadAll(body)
	if err != nil {
		return internal.FetchedMailMessage{}, false, err
	}

	fetched := internal.FetchedMailMessage{
		Provider:   "imap",
		MessageID:  fmt.Sprintf("imap-%d", msg.Uid),
		ReceivedAt: now.UTC().Format(time.RFC3339),
		Raw:        raw,
	}
	if env := msg.Envelope; env != nil {
		if env.MessageId != "" {
			fetched.MessageID = env.MessageId
		}
		fetched.Subject = env.Subject
		fetched.From = formatAddresses(env.From)
	}
	if !msg.InternalDate.IsZero() {
		fetched.ReceivedAt = msg.InternalDate.UTC().Format(time.RFC3339)
	}
	return fetched, true, nil
}

func formatAddresses(addrs []*imap.Address) string {
	parts := make([]string, 0, len(addrs))
	for _, a := range addrs {
		if a == nil {
			continue
		}
		email := a.Address()
		if a.PersonalName != "" {
			parts = append(parts, fmt.Sprintf("%s <%s>", a.PersonalName, email))
		} else {
			parts = append(parts, email)
		}
	}
	return strings.Join(parts, ", ")
}
