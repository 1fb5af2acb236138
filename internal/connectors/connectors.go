package connectors

import (
	"context"
	"fmt"

	"orderdesk/internal"
	"orderdesk/internal/config"
	"orderdesk/internal/connectors/gmail"
	"orderdesk/internal/connectors/imap"
)

type MailConnector interface {
	FetchInbox(ctx context.Context, label string, max int) ([]internal.FetchedMailMessage, error)
}

// New picks the connector named by INBOX_PROVIDER.
func New(ctx context.Context, cfg config.Config) (MailConnector, error) {
	switch cfg.InboxProvider {
	case "gmail":
		return gmail.NewConnector(ctx, cfg)
	case "imap":
		return imap.NewConnector(cfg)
	default:
		return nil, fmt.Errorf("unsupported INBOX_PROVIDER %q (gmail, imap)", cfg.InboxProvider)
	}
}
