package order

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"orderdesk/internal"
	"orderdesk/internal/customers"
	"orderdesk/internal/metrics"
	"orderdesk/internal/roster"
)

type Store interface {
	ListSalesPersons(ctx context.Context) ([]internal.SalesPerson, error)
	SaveOrder(ctx context.Context, salesPersonID string, order internal.SubmittedOrder) error
}

type CustomerBook interface {
	Load(ctx context.Context, branchID, salesPerson string) []internal.Customer
	Directory(remote []internal.Customer, branchID, salesPerson string) customers.Directory
	Create(ctx context.Context, ownerID string, header internal.OrderHeader) (internal.Customer, error)
}

type Sheet interface {
	Submit(ctx context.Context, payload internal.SheetPayload) error
}

type HistoryStore interface {
	RecordOrder(ctx context.Context, entry internal.HistoryEntry) error
	ListHistory(ctx context.Context, salesPersonID string, since time.Time) ([]internal.HistoryEntry, error)
	PruneHistory(ctx context.Context, before time.Time) (int, error)
}

// Session identifies the operator submitting an order.
type Session struct {
	SalesPersonID string `json:"salesPersonId"`
	Name          string `json:"name"`
	BranchID      string `json:"branchId"`
}

// SubmitResult reports one submission. OrderID keys the stored order and
// its history entry; SubmissionID is the millisecond stamp shown on the
// sheet and is not unique.
type SubmitResult struct {
	OrderID         string          `json:"orderId"`
	SubmissionID    string          `json:"submissionId"`
	SalesPersonID   string          `json:"salesPersonId"`
	CustomerCreated bool            `json:"customerCreated"`
	StoreSaved      bool            `json:"storeSaved"`
	StoreError      string          `json:"storeError,omitempty"`
	SheetSaved      bool            `json:"sheetSaved"`
	SheetError      string          `json:"sheetError,omitempty"`
	Total           decimal.Decimal `json:"total"`
	NetTotal        decimal.Decimal `json:"netTotal"`
}

type Service struct {
	store     Store
	customers CustomerBook
	sheet     Sheet
	history   HistoryStore
	retention time.Duration
	metrics   *metrics.Registry
	infoLog   *log.Logger
	errorLog  *log.Logger
	now       func() time.Time
}

func NewService(store Store, book CustomerBook, sheet Sheet, history HistoryStore, retentionDays int, m *metrics.Registry, infoLog, errorLog *log.Logger) *Service {
	if retentionDays <= 0 {
		retentionDays = 5
	}
	return &Service{
		store:     store,
		customers: book,
		sheet:     sheet,
		history:   history,
		retention: time.Duration(retentionDays) * 24 * time.Hour,
		metrics:   m,
		infoLog:   infoLog,
		errorLog:  errorLog,
		now:       time.Now,
	}
}

// Submit validates the draft and sends it to the store and the order
// sheet. Only validation fails the call; store and sheet failures are
// reported in the result and the order is still recorded in history.
func (s *Service) Submit(ctx context.Context, session Session, draft *Draft) (SubmitResult, error) {
	if err := draft.Validate(); err != nil {
		return SubmitResult{}, err
	}

	now := s.now()
	header := draft.Header
	if strings.TrimSpace(header.SalesPerson) == "" {
		header.SalesPerson = session.Name
	}
	if strings.TrimSpace(header.Branch) == "" {
		header.Branch = session.BranchID
	}
	lines := draft.Lines()
	payload := BuildPayload(header, lines, now)

	result := SubmitResult{
		OrderID:       uuid.NewString(),
		SubmissionID:  payload.SubmissionID,
		SalesPersonID: s.salesPersonID(ctx, session, header.SalesPerson),
		Total:         draft.Total(),
		NetTotal:      draft.NetTotal(),
	}

	dir := s.customers.Directory(s.customers.Load(ctx, header.Branch, header.SalesPerson), header.Branch, header.SalesPerson)
	if _, ok := dir.FindExact(header.CustomerName); !ok {
		if _, err := s.customers.Create(ctx, result.SalesPersonID, header); err != nil {
			s.errorLog.Printf("order %s: create customer %q: %v", result.OrderID, header.CustomerName, err)
		} else {
			result.CustomerCreated = true
		}
	}

	submitted := internal.SubmittedOrder{ID: result.OrderID, SubmissionID: payload.SubmissionID, SubmittedAt: now.UTC(), Header: header, Lines: lines}
	if err := s.store.SaveOrder(ctx, result.SalesPersonID, submitted); err != nil {
		werr := &internal.RemoteWriteError{Op: "orders", Batch: 1, Err: err}
		s.errorLog.Printf("order %s: %v", result.OrderID, werr)
		result.StoreError = werr.Error()
	} else {
		result.StoreSaved = true
	}

	if err := s.sheet.Submit(ctx, payload); err != nil {
		s.errorLog.Printf("order %s: sheet: %v", result.OrderID, err)
		result.SheetError = err.Error()
	} else {
		result.SheetSaved = true
	}

	entry := internal.HistoryEntry{
		ID:            result.OrderID,
		SalesPersonID: result.SalesPersonID,
		Order:         submitted,
		StoreSaved:    result.StoreSaved,
		SheetSaved:    result.SheetSaved,
	}
	if err := s.history.RecordOrder(ctx, entry); err != nil {
		s.errorLog.Printf("order %s: history: %v", result.OrderID, err)
	}

	s.metrics.OrderSubmitted(result.SheetSaved)
	s.infoLog.Printf("order %s: customer=%q lines=%d total=%s store=%t sheet=%t",
		result.OrderID, header.CustomerName, len(lines), result.Total.StringFixed(2), result.StoreSaved, result.SheetSaved)
	return result, nil
}

func (s *Service) salesPersonID(ctx context.Context, session Session, name string) string {
	users, err := s.store.ListSalesPersons(ctx)
	if err != nil {
		s.errorLog.Println("order: roster:", &internal.RemoteReadError{Op: "app_users", Err: err})
		return session.SalesPersonID
	}
	if sp, ok := roster.ExactByFullName(name, users); ok {
		return sp.ID
	}
	return session.SalesPersonID
}

// History returns the operator's orders inside the retention window,
// newest first, after dropping older entries from the store.
func (s *Service) History(ctx context.Context, salesPersonID string) ([]internal.HistoryEntry, error) {
	cutoff := s.now().Add(-s.retention)
	if n, err := s.history.PruneHistory(ctx, cutoff); err != nil {
		s.errorLog.Println("history prune:", err)
	} else if n > 0 {
		s.infoLog.Printf("history prune: removed %d orders before %s", n, cutoff.UTC().Format(time.RFC3339))
	}
	entries, err := s.history.ListHistory(ctx, salesPersonID, cutoff)
	if err != nil {
		return nil, errors.Join(errors.New("order history"), err)
	}
	return entries, nil
}
