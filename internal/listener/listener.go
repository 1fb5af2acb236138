package listener

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"time"

	"orderdesk/internal"
	"orderdesk/internal/config"
	"orderdesk/internal/connectors"
	"orderdesk/internal/intake"
)

type Store interface {
	connectors.EmailStore
	ListEmailsByStatus(ctx context.Context, status string, limit int) ([]internal.EmailRow, error)
	GetDraft(ctx context.Context, emailID int) (*internal.InboxDraft, error)
	UpdateEmailStatus(ctx context.Context, emailID int, status string) error
}

type Processor interface {
	ProcessPending(ctx context.Context, limit int, provider string) (emails, lines int, err error)
}

// Service polls the mailbox, drafts orders from new mail and, when enabled,
// writes each draft to an xlsx file for review.
type Service struct {
	db        Store
	connector connectors.MailConnector
	processor Processor
	cfg       config.Config
	infoLog   *log.Logger
	errorLog  *log.Logger
}

func NewService(db Store, connector connectors.MailConnector, processor Processor, cfg config.Config, infoLog, errorLog *log.Logger) *Service {
	return &Service{db: db, connector: connector, processor: processor, cfg: cfg, infoLog: infoLog, errorLog: errorLog}
}

func (s *Service) Run(ctx context.Context) error {
	interval := time.Duration(s.cfg.InboxIntervalSec) * time.Second
	if interval <= 0 {
		interval = time.Minute
	}
	for {
		if err := s.RunCycle(ctx); err != nil {
			s.errorLog.Printf("listener cycle: %v", err)
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(interval):
		}
	}
}

func (s *Service) RunCycle(ctx context.Context) error {
	provider := strings.ToLower(strings.TrimSpace(s.cfg.InboxProvider))

	fetchService := connectors.NewFetchService(s.db, s.cfg.RawMailDir, s.connector)
	fetchResult, err := fetchService.FetchAndStore(ctx, s.cfg.InboxLabel, s.cfg.InboxFetchMax)
	if err != nil {
		return err
	}

	processed, lines, err := s.processor.ProcessPending(ctx, s.cfg.InboxProcessBatch, provider)
	if err != nil {
		return err
	}

	exported := 0
	if s.cfg.InboxAutoExport {
		if exported, err = s.exportProcessed(ctx, provider); err != nil {
			return err
		}
	}

	s.infoLog.Printf("listener cycle done provider=%s fetched=%d stored=%d processed=%d lines=%d exported=%d",
		provider, fetchResult.Fetched, fetchResult.Stored, processed, lines, exported)
	return nil
}

func (s *Service) exportProcessed(ctx context.Context, provider string) (int, error) {
	emails, err := s.db.ListEmailsByStatus(ctx, "processed", 200)
	if err != nil {
		return 0, err
	}

	exported := 0
	for _, email := range emails {
		if provider != "" && email.Provider != provider {
			continue
		}
		draft, err := s.db.GetDraft(ctx, email.ID)
		if err != nil {
			return exported, err
		}
		if draft == nil || len(draft.Lines) == 0 {
			continue
		}
		outputPath := filepath.Join(s.cfg.OutputDir, "listener", DraftFilename(email))
		if err := intake.ExportDraftXLSX(*draft, outputPath); err != nil {
			return exported, err
		}
		if err := s.db.UpdateEmailStatus(ctx, email.ID, "exported"); err != nil {
			return exported, err
		}
		exported++
	}
	return exported, nil
}

func DraftFilename(email internal.EmailRow) string {
	return fmt.Sprintf("%d_%s.xlsx", email.ID, sanitizeMessageID(email.MessageID))
}

func sanitizeMessageID(input string) string {
	repl := strings.NewReplacer("<", "_", ">", "_", ":", "_", "/", "_", "\\", "_", "|", "_", "?", "_", "*", "_", " ", "_")
	out := repl.Replace(input)
	if len(out) > 120 {
		out = out[:120]
	}
	return out
}
