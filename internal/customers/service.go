package customers

import (
	"context"
	"log"
	"strings"
	"sync"

	"orderdesk/internal"
	"orderdesk/internal/roster"
)

type Store interface {
	ListCustomers(ctx context.Context) ([]internal.Customer, error)
	InsertCustomer(ctx context.Context, c internal.CustomerUpsert) (internal.Customer, error)
}

type RosterSource interface {
	ListSalesPersons(ctx context.Context) ([]internal.SalesPerson, error)
}

// Service loads branch customer lists and creates customers from the order
// form. Customers it creates are kept as pending until the next Load of the
// same list sees them. Pending customers are only visible to the branch and
// sales person they were created for.
type Service struct {
	store    Store
	roster   RosterSource
	infoLog  *log.Logger
	errorLog *log.Logger

	mu      sync.Mutex
	pending []pendingCustomer
}

type pendingCustomer struct {
	internal.Customer
	requestedBy string
}

func (p pendingCustomer) visibleTo(variations []string, salesPerson string) bool {
	if !matchesBranch(p.Branch, variations) {
		return false
	}
	return salesPerson == "" || strings.EqualFold(p.requestedBy, salesPerson) || strings.EqualFold(p.SalesPersonID, salesPerson)
}

func NewService(store Store, roster RosterSource, infoLog, errorLog *log.Logger) *Service {
	return &Service{store: store, roster: roster, infoLog: infoLog, errorLog: errorLog}
}

// Load returns the customers of a branch owned by salesPerson. Owners are
// matched by name or by the roster id of that name. Read failures yield an
// empty list.
func (s *Service) Load(ctx context.Context, branchID, salesPerson string) []internal.Customer {
	all, err := s.store.ListCustomers(ctx)
	if err != nil {
		s.errorLog.Println("customers load:", &internal.RemoteReadError{Op: "customers", Err: err})
		return nil
	}

	variations := BranchVariations(branchID)
	ownerID := ""
	if strings.TrimSpace(salesPerson) != "" {
		ownerID = s.rosterID(ctx, salesPerson)
	}

	out := make([]internal.Customer, 0, len(all))
	for _, c := range all {
		if strings.TrimSpace(c.Name) == "" {
			continue
		}
		if !matchesBranch(c.Branch, variations) {
			continue
		}
		if salesPerson != "" && !strings.EqualFold(c.SalesPersonID, salesPerson) && (ownerID == "" || c.SalesPersonID != ownerID) {
			continue
		}
		out = append(out, c)
	}

	if len(out) == 0 {
		s.infoLog.Printf("customers load: no match for branch=%s salesPerson=%q (tried %v over %d rows)", branchID, salesPerson, variations, len(all))
	}
	s.prunePending(out, variations, salesPerson)
	return out
}

func (s *Service) rosterID(ctx context.Context, salesPerson string) string {
	users, err := s.roster.ListSalesPersons(ctx)
	if err != nil {
		s.errorLog.Println("customers load:", &internal.RemoteReadError{Op: "app_users", Err: err})
		return ""
	}
	if sp, ok := roster.ExactByFullName(salesPerson, users); ok {
		return sp.ID
	}
	return ""
}

func matchesBranch(branch string, variations []string) bool {
	for _, v := range variations {
		if v != "" && strings.EqualFold(branch, v) {
			return true
		}
	}
	return false
}

// Directory pairs a loaded list with the customers created since for the
// same branch and sales person.
func (s *Service) Directory(remote []internal.Customer, branchID, salesPerson string) Directory {
	return Directory{Remote: remote, Pending: s.Pending(branchID, salesPerson)}
}

func (s *Service) Pending(branchID, salesPerson string) []internal.Customer {
	variations := BranchVariations(branchID)
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []internal.Customer
	for _, p := range s.pending {
		if p.visibleTo(variations, salesPerson) {
			out = append(out, p.Customer)
		}
	}
	return out
}

// prunePending drops the pending customers of this scope that the loaded
// list already contains.
func (s *Service) prunePending(loaded []internal.Customer, variations []string, salesPerson string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.pending) == 0 {
		return
	}
	remote := Directory{Remote: loaded}
	kept := s.pending[:0]
	for _, p := range s.pending {
		if p.visibleTo(variations, salesPerson) {
			if _, ok := remote.FindExact(p.Name); ok {
				continue
			}
		}
		kept = append(kept, p)
	}
	s.pending = kept
}

// Create inserts the customer named in the order header under ownerID and
// adds it to the pending list once the store has accepted it.
func (s *Service) Create(ctx context.Context, ownerID string, header internal.OrderHeader) (internal.Customer, error) {
	if strings.TrimSpace(header.CustomerName) == "" {
		return internal.Customer{}, internal.Invalid("customerName", "Customer name is required")
	}
	if strings.TrimSpace(ownerID) == "" {
		return internal.Customer{}, internal.Invalid("salesPerson", "Sales person must be selected")
	}
	if strings.TrimSpace(header.Branch) == "" {
		return internal.Customer{}, internal.Invalid("branch", "Branch must be selected")
	}

	created, err := s.store.InsertCustomer(ctx, internal.CustomerUpsert{
		SalesPersonID:   ownerID,
		Name:            header.CustomerName,
		Email:           header.CustomerEmail,
		ContactNo:       header.CustomerContactNo,
		BillingAddress:  header.BillingAddress,
		DeliveryAddress: header.DeliveryAddress,
		Branch:          HeadOfficeLabel(header.Branch),
	})
	if err != nil {
		return internal.Customer{}, &internal.RemoteWriteError{Op: "customers", Batch: 1, Err: err}
	}

	s.mu.Lock()
	s.pending = append(s.pending, pendingCustomer{Customer: created, requestedBy: strings.TrimSpace(header.SalesPerson)})
	s.mu.Unlock()
	s.infoLog.Printf("customer created: %q owner=%s branch=%s", created.Name, ownerID, created.Branch)
	return created, nil
}

// SalesPersons lists the registered users of a branch, including accounts
// filed under its head-office alias.
func (s *Service) SalesPersons(ctx context.Context, branchID string) []internal.SalesPerson {
	users, err := s.roster.ListSalesPersons(ctx)
	if err != nil {
		s.errorLog.Println("sales persons:", &internal.RemoteReadError{Op: "app_users", Err: err})
		return nil
	}
	var out []internal.SalesPerson
	for _, id := range BranchIDs(branchID) {
		out = append(out, roster.VisibleForBranch(id, users)...)
	}
	return out
}
