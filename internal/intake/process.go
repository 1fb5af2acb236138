package intake

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/google/uuid"

	"orderdesk/internal"
	"orderdesk/internal/catalog"
	"orderdesk/internal/extract"
	"orderdesk/internal/metrics"
	"orderdesk/internal/util"
)

type Store interface {
	MustEmailByProviderMessageID(ctx context.Context, provider, messageID string) (internal.EmailRow, error)
	ListEmailsByStatus(ctx context.Context, status string, limit int) ([]internal.EmailRow, error)
	UpdateEmailStatus(ctx context.Context, emailID int, status string) error
	SaveDraft(ctx context.Context, draft internal.InboxDraft) error
	DeleteDraft(ctx context.Context, emailID int) error
	InsertRun(ctx context.Context, traceID string, emailID int, timings map[string]float64, counts map[string]int) error
}

type CustomerSource interface {
	ListCustomers(ctx context.Context) ([]internal.Customer, error)
}

type CatalogSource interface {
	Index() *catalog.Index
}

// ProcessingService turns fetched order e-mails into order drafts.
type ProcessingService struct {
	db        Store
	catalog   CatalogSource
	customers CustomerSource
	minScore  int
	metrics   *metrics.Registry
	infoLog   *log.Logger
	errorLog  *log.Logger
}

func NewProcessingService(db Store, cat CatalogSource, cust CustomerSource, minScore int, m *metrics.Registry, infoLog, errorLog *log.Logger) *ProcessingService {
	return &ProcessingService{db: db, catalog: cat, customers: cust, minScore: minScore, metrics: m, infoLog: infoLog, errorLog: errorLog}
}

type ProcessResult struct {
	EmailID int
	Skipped bool
	Lines   int
	Matched int
}

func (s *ProcessingService) ProcessByProviderMessageID(ctx context.Context, provider, messageID string) (ProcessResult, error) {
	email, err := s.db.MustEmailByProviderMessageID(ctx, provider, messageID)
	if err != nil {
		return ProcessResult{}, err
	}
	return s.ProcessEmail(ctx, email)
}

// ProcessPending handles up to limit fetched e-mails, optionally only those
// of one provider, and stops at the first failure.
func (s *ProcessingService) ProcessPending(ctx context.Context, limit int, provider string) (emails, lines int, err error) {
	pending, err := s.db.ListEmailsByStatus(ctx, "fetched", limit)
	if err != nil {
		return 0, 0, err
	}
	for _, email := range pending {
		if provider != "" && email.Provider != provider {
			continue
		}
		res, err := s.ProcessEmail(ctx, email)
		if err != nil {
			return emails, lines, fmt.Errorf("email %d: %w", email.ID, err)
		}
		emails++
		lines += res.Lines
	}
	return emails, lines, nil
}

func (s *ProcessingService) ProcessEmail(ctx context.Context, email internal.EmailRow) (ProcessResult, error) {
	start := time.Now()
	raw, err := os.ReadFile(email.RawRef)
	if err != nil {
		return ProcessResult{}, err
	}

	parsed, err := extract.FromEmail(raw)
	if err != nil {
		return ProcessResult{}, err
	}
	if err := s.db.DeleteDraft(ctx, email.ID); err != nil {
		return ProcessResult{}, err
	}

	detect := extract.DetectOrderRequest(util.FirstNonEmpty(parsed.Subject, email.Subject), parsed.Text, parsed.HTML, parsed.Attachments, s.minScore)
	if !detect.IsOrder || len(parsed.Lines) == 0 {
		if err := s.db.UpdateEmailStatus(ctx, email.ID, "skipped"); err != nil {
			return ProcessResult{}, err
		}
		s.recordRun(ctx, email.ID, start, map[string]int{"extracted": len(parsed.Lines), "score": detect.Score})
		s.infoLog.Printf("inbox: email %d skipped (score=%d lines=%d)", email.ID, detect.Score, len(parsed.Lines))
		return ProcessResult{EmailID: email.ID, Skipped: true}, nil
	}

	known, err := s.customers.ListCustomers(ctx)
	if err != nil {
		s.errorLog.Println("inbox:", &internal.RemoteReadError{Op: "customers", Err: err})
		known = nil
	}

	draft := BuildDraft(s.catalog.Index(), known, parsed.Lines, parsed.Hints)
	draft.EmailID = email.ID
	if err := s.db.SaveDraft(ctx, draft); err != nil {
		return ProcessResult{}, err
	}
	if err := s.db.UpdateEmailStatus(ctx, email.ID, "processed"); err != nil {
		return ProcessResult{}, err
	}

	counts := map[string]int{"extracted": len(draft.Lines), "score": detect.Score}
	for _, l := range draft.Lines {
		counts[string(l.Status)]++
	}
	s.recordRun(ctx, email.ID, start, counts)
	s.metrics.DraftCreated()

	matched := len(draft.Lines) - counts[string(internal.MatchNotFound)]
	s.infoLog.Printf("inbox: email %d drafted customer=%q lines=%d matched=%d", email.ID, draft.Header.CustomerName, len(draft.Lines), matched)
	return ProcessResult{EmailID: email.ID, Lines: len(draft.Lines), Matched: matched}, nil
}

func (s *ProcessingService) recordRun(ctx context.Context, emailID int, start time.Time, counts map[string]int) {
	timings := map[string]float64{"totalMs": float64(time.Since(start).Milliseconds())}
	if err := s.db.InsertRun(ctx, uuid.NewString(), emailID, timings, counts); err != nil {
		s.errorLog.Printf("inbox: run record for email %d: %v", emailID, err)
	}
}
