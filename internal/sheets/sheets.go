package sheets

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"orderdesk/internal"
	"orderdesk/internal/config"
)

var ErrNotConfigured = errors.New("order sheet is not configured")

type Submitter interface {
	Submit(ctx context.Context, payload internal.SheetPayload) error
}

// Off accepts nothing. Orders still reach the store and history.
type Off struct{}

func (Off) Submit(context.Context, internal.SheetPayload) error { return ErrNotConfigured }

// New picks the submitter named by SHEET_MODE.
func New(ctx context.Context, cfg config.Config, infoLog *log.Logger) (Submitter, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.SheetMode)) {
	case "", "off":
		return Off{}, nil
	case "webhook":
		return NewWebhook(cfg, infoLog)
	case "api":
		return NewAPI(ctx, cfg, infoLog)
	case "xlsx":
		return NewXLSX(cfg.SheetXLSXPath), nil
	default:
		return nil, fmt.Errorf("unsupported SHEET_MODE: %s", cfg.SheetMode)
	}
}
