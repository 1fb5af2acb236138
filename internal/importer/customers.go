package importer

import (
	"context"
	"fmt"
	"strings"

	"orderdesk/internal"
	"orderdesk/internal/roster"
	"orderdesk/internal/util"
)

var (
	salesPersonHeaders = []string{"sales_person_name", "sales person name"}
	customerHeaders    = []string{"customer_name", "customer name"}
	billingHeaders     = []string{"billing_address", "billing address"}
	mobileHeaders      = []string{"mob_no", "mob_no.", "mob no"}
	emailHeaders       = []string{"email_id", "email id"}
	branchHeaders      = []string{"branch"}
)

// ImportCustomersCSV loads customers and attaches each to the roster member
// whose name overlaps the row's sales-person cell. Names with no such
// member get a placeholder account filed under defaultBranch first.
func (im *Importer) ImportCustomersCSV(ctx context.Context, raw []byte, users []internal.SalesPerson, defaultBranch string) (internal.ImportResult, error) {
	rows, err := ReadCSV(raw)
	if err != nil {
		return internal.ImportResult{Kind: internal.ImportCustomers}, internal.Invalid("file", "CSV empty or invalid: %v", err)
	}
	return im.importCustomers(ctx, rows, users, defaultBranch)
}

func (im *Importer) ImportCustomersXLSX(ctx context.Context, blob []byte, users []internal.SalesPerson, defaultBranch string) (internal.ImportResult, error) {
	rows, err := ReadXLSX(blob)
	if err != nil {
		return internal.ImportResult{Kind: internal.ImportCustomers}, internal.Invalid("file", "workbook unreadable: %v", err)
	}
	return im.importCustomers(ctx, rows, users, defaultBranch)
}

type customerColumns struct {
	salesPerson, customer, billing, mobile, email, branch int
}

func (im *Importer) importCustomers(ctx context.Context, rows [][]string, users []internal.SalesPerson, defaultBranch string) (internal.ImportResult, error) {
	im.mu.Lock()
	defer im.mu.Unlock()

	result := internal.ImportResult{Kind: internal.ImportCustomers}
	if len(rows) < 2 {
		return result, internal.Invalid("file", "CSV empty or invalid")
	}

	header := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		header[i] = util.NormalizeHeader(h)
	}
	cols := customerColumns{
		salesPerson: indexOf(header, salesPersonHeaders...),
		customer:    indexOf(header, customerHeaders...),
		billing:     indexOf(header, billingHeaders...),
		mobile:      indexOf(header, mobileHeaders...),
		email:       indexOf(header, emailHeaders...),
		branch:      indexOf(header, branchHeaders...),
	}
	if cols.salesPerson < 0 || cols.customer < 0 {
		return result, internal.Invalid("file", "Required columns not found. Need 'sales_person_name' and 'customer_name'. Found: %s", strings.Join(rows[0], ", "))
	}

	var retained [][]string
	var names []string
	seen := map[string]bool{}
	for _, row := range rows[1:] {
		result.RowsChecked++
		sp := cell(row, cols.salesPerson)
		if len(row) < 2 || sp == "" {
			continue
		}
		retained = append(retained, row)
		if !seen[sp] {
			seen[sp] = true
			names = append(names, sp)
		}
	}

	ghosts := im.createGhosts(ctx, names, users, defaultBranch)
	if len(ghosts) > 0 {
		result.GhostUsersCreated = len(ghosts)
		result.GhostBranch = defaultBranch
		refreshed, err := im.customers.ListSalesPersons(ctx)
		if err != nil {
			im.errorLog.Println("customers import: roster refresh:", &internal.RemoteReadError{Op: "app_users", Err: err})
			refreshed = append(append([]internal.SalesPerson(nil), users...), ghosts...)
		}
		users = refreshed
	}

	var records []internal.CustomerUpsert
	for _, row := range retained {
		name := cell(row, cols.customer)
		if name == "" {
			continue
		}
		owner, ok := roster.Find(cell(row, cols.salesPerson), users)
		if !ok {
			continue
		}
		records = append(records, internal.CustomerUpsert{
			SalesPersonID:  owner.ID,
			Name:           name,
			Email:          cell(row, cols.email),
			ContactNo:      cell(row, cols.mobile),
			BillingAddress: cell(row, cols.billing),
			Branch:         cell(row, cols.branch),
		})
	}
	result.Emitted = len(records)
	if len(records) == 0 {
		return result, internal.Invalid("file", "No valid customers matched to users. Checked %d rows.", result.RowsChecked)
	}

	committed, batches, err := writeBatches(ctx, "customers", records, im.batchSize, im.customers.UpsertCustomers)
	result.Committed = committed
	result.Batches = batches
	im.metrics.CustomersCommitted(committed)
	if err != nil {
		im.metrics.BatchFailed(string(internal.ImportCustomers))
		im.errorLog.Println("customers import:", err)
		return result, err
	}

	result.Message = fmt.Sprintf("Success! %d customers imported.", committed)
	im.recordImport(ctx, internal.ImportCustomers)
	if len(ghosts) > 0 {
		result.Message += fmt.Sprintf("\nAlso created %d new Sales Person accounts (under branch: %s).", len(ghosts), defaultBranch)
	}
	im.infoLog.Printf("customers import: %d rows, %d customers in %d batches, %d ghosts", result.RowsChecked, committed, batches, len(ghosts))
	return result, nil
}

// createGhosts adds a placeholder account for every name that overlaps no
// member of the roster as it was before the import. Failures are logged and
// the name is skipped.
func (im *Importer) createGhosts(ctx context.Context, names []string, users []internal.SalesPerson, branch string) []internal.SalesPerson {
	var created []internal.SalesPerson
	for _, name := range names {
		if _, ok := roster.Find(name, users); ok {
			continue
		}
		ghost, _, err := roster.NewGhost(name, branch, im.ghostDomain, im.now())
		if err != nil {
			im.errorLog.Printf("customers import: ghost %q: %v", name, err)
			continue
		}
		saved, err := im.customers.CreateSalesPerson(ctx, ghost)
		if err != nil {
			im.errorLog.Printf("customers import: ghost %q: %v", name, &internal.RemoteWriteError{Op: "app_users", Batch: 1, Err: err})
			continue
		}
		im.metrics.GhostCreated()
		im.infoLog.Printf("customers import: created sales person %q (%s)", saved.FullName(), saved.Email)
		created = append(created, saved)
	}
	return created
}
