package storage

import (
	"context"

	"orderdesk/internal"
)

// Backend is the set of tables shared by the local database and the hosted
// REST store. Order history and the inbox always live in the local DB.
type Backend interface {
	ListItemRows(ctx context.Context) ([]map[string]any, error)
	UpsertItems(ctx context.Context, batch []internal.ItemUpsert) error
	ListCustomers(ctx context.Context) ([]internal.Customer, error)
	InsertCustomer(ctx context.Context, c internal.CustomerUpsert) (internal.Customer, error)
	UpsertCustomers(ctx context.Context, batch []internal.CustomerUpsert) error
	ListSalesPersons(ctx context.Context) ([]internal.SalesPerson, error)
	CreateSalesPerson(ctx context.Context, sp internal.SalesPerson) (internal.SalesPerson, error)
	SaveOrder(ctx context.Context, salesPersonID string, order internal.SubmittedOrder) error
	Close() error
}

var _ Backend = (*DB)(nil)
