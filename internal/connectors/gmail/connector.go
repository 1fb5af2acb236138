package gmail

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"mime"
	"net/mail"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"orderdesk/internal"
	"orderdesk/internal/config"
)

type Connector struct {
	service *gmail.Service
}

// NewConnector builds a read-only Gmail client from a stored refresh token.
func NewConnector(ctx context.Context, cfg config.Config) (*Connector, error) {
	if err := cfg.Require("GMAIL_CLIENT_ID", cfg.GmailClientID); err != nil {
		return nil, err
	}
	if err := cfg.Require("GMAIL_CLIENT_SECRET", cfg.GmailClientSecret); err != nil {
		return nil, err
	}
	if err := cfg.Require("GMAIL_REFRESH_TOKEN", cfg.GmailRefreshToken); err != nil {
		return nil, err
	}

	oauthCfg := &oauth2.Config{
		ClientID:     cfg.GmailClientID,
		ClientSecret: cfg.GmailClientSecret,
		Endpoint:     google.Endpoint,
		RedirectURL:  cfg.GmailRedirectURI,
		Scopes:       []string{gmail.GmailReadonlyScope},
	}

	tokenSource := oauthCfg.TokenSource(ctx, &oauth2.Token{RefreshToken: cfg.GmailRefreshToken})
	svc, err := gmail.NewService(ctx, option.WithTokenSource(tokenSource))
	if err != nil {
		return nil, err
	}
	return &Connector{service: svc}, nil
}

// FetchInbox lists up to max messages under a label and downloads each in
// raw form. Headers are read from the raw message itself.
func (c *Connector) FetchInbox(ctx context.Context, label string, max int) ([]internal.FetchedMailMessage, error) {
	listResp, err := c.service.Users.Messages.List("me").LabelIds(label).MaxResults(int64(max)).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("gmail list %s: %w", label, err)
	}

	out := make([]internal.FetchedMailMessage, 0, len(listResp.Messages))
	for _, ref := range listResp.Messages {
		if ref.Id == "" {
			continue
		}
		msg, err := c.service.Users.Messages.Get("me", ref.Id).Format("raw").Context(ctx).Do()
		if err != nil {
			return nil, fmt.Errorf("gmail get %s: %w", ref.Id, err)
		}
		if msg.Raw == "" {
			continue
		}
		raw, err := decodeBase64URL(msg.Raw)
		if err != nil {
			return nil, err
		}
		out = append(out, toFetched(ref.Id, msg.InternalDate, raw))
	}
	return out, nil
}

// toFetched fills the envelope fields from the message headers, falling
// back to the Gmail id and internal date when they are missing.
func toFetched(gmailID string, internalDateMs int64, raw []byte) internal.FetchedMailMessage {
	fetched := internal.FetchedMailMessage{
		Provider:  "gmail",
		MessageID: gmailID,
		Raw:       raw,
	}

	received := time.Now()
	if internalDateMs > 0 {
		received = time.UnixMilli(internalDateMs)
	}

	if m, err := mail.ReadMessage(bytes.NewReader(raw)); err == nil {
		dec := new(mime.WordDecoder)
		subject := m.Header.Get("Subject")
		if decoded, err := dec.DecodeHeader(subject); err == nil {
			subject = decoded
		}
		fetched.Subject = subject
		fetched.From = m.Header.Get("From")
		if id := strings.TrimSpace(m.Header.Get("Message-ID")); id != "" {
			fetched.MessageID = id
		}
		if t, err := parseDate(m.Header.Get("Date")); err == nil {
			received = t
		}
	}
	fetched.ReceivedAt = received.UTC().Format(time.RFC3339)
	return fetched
}

func decodeBase64URL(input string) ([]byte, error) {
	decoded, err := base64.RawURLEncoding.DecodeString(input)
	if err == nil {
		return decoded, nil
	}
	decoded, err = base64.URLEncoding.DecodeString(input)
	if err == nil {
		return decoded, nil
	}
	return nil, fmt.Errorf("decode gmail raw payload: %w", err)
}

// parseDate accepts RFC 5322 dates and the older layouts some mailers
// still send.
func parseDate(value string) (time.Time, error) {
	if t, err := mail.ParseDate(value); err == nil {
		return t, nil
	}
	layouts := []string{time.RFC1123, time.RFC822, time.RFC850, time.ANSIC}
	for _, layout := range layouts {
		if parsed, err := time.Parse(layout, value); err == nil {
			return parsed, nil
		}
	}
	return time.Time{}, fmt.Errorf("unsupported date format %q", value)
}
