package importer

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"orderdesk/internal"
	"orderdesk/internal/catalog"
	"orderdesk/internal/metrics"
	"orderdesk/internal/util"
)

const defaultBatchSize = 100

type ItemStore interface {
	UpsertItems(ctx context.Context, batch []internal.ItemUpsert) error
}

type CustomerStore interface {
	UpsertCustomers(ctx context.Context, batch []internal.CustomerUpsert) error
	ListSalesPersons(ctx context.Context) ([]internal.SalesPerson, error)
	CreateSalesPerson(ctx context.Context, sp internal.SalesPerson) (internal.SalesPerson, error)
}

type Options struct {
	BatchSize        int
	GhostEmailDomain string
	Journal          Journal
}

// Importer bulk-loads items and customers from uploaded tables. Runs are
// serialized; a second upload waits for the first to finish.
type Importer struct {
	items       ItemStore
	customers   CustomerStore
	batchSize   int
	ghostDomain string
	journal     Journal
	metrics     *metrics.Registry
	infoLog     *log.Logger
	errorLog    *log.Logger
	now         func() time.Time

	mu sync.Mutex
}

func New(items ItemStore, customers CustomerStore, opts Options, m *metrics.Registry, infoLog, errorLog *log.Logger) *Importer {
	size := opts.BatchSize
	if size <= 0 {
		size = defaultBatchSize
	}
	domain := opts.GhostEmailDomain
	if domain == "" {
		domain = "orderdesk.local"
	}
	return &Importer{
		items:       items,
		customers:   customers,
		batchSize:   size,
		ghostDomain: domain,
		journal:     opts.Journal,
		metrics:     m,
		infoLog:     infoLog,
		errorLog:    errorLog,
		now:         time.Now,
	}
}

func (im *Importer) ImportItemsCSV(ctx context.Context, raw []byte) (internal.ImportResult, error) {
	rows, err := ReadCSV(raw)
	if err != nil {
		return internal.ImportResult{Kind: internal.ImportItems}, internal.Invalid("file", "CSV empty or invalid: %v", err)
	}
	return im.importItems(ctx, rows)
}

func (im *Importer) ImportItemsXLSX(ctx context.Context, blob []byte) (internal.ImportResult, error) {
	rows, err := ReadXLSX(blob)
	if err != nil {
		return internal.ImportResult{Kind: internal.ImportItems}, internal.Invalid("file", "workbook unreadable: %v", err)
	}
	return im.importItems(ctx, rows)
}

func (im *Importer) importItems(ctx context.Context, rows [][]string) (internal.ImportResult, error) {
	im.mu.Lock()
	defer im.mu.Unlock()

	result := internal.ImportResult{Kind: internal.ImportItems}
	if len(rows) < 2 {
		return result, internal.Invalid("file", "CSV empty or invalid")
	}
	result.RowsChecked = len(rows) - 1

	items := ParseItemTable(rows[0], rows[1:])
	result.Emitted = len(items)
	if len(items) == 0 {
		return result, internal.Invalid("file", "No valid items found. Please check column headers (e.g., 'warp', 'width-warp').")
	}

	committed, batches, err := writeBatches(ctx, "items_new", items, im.batchSize, im.items.UpsertItems)
	result.Committed = committed
	result.Batches = batches
	im.metrics.ItemsCommitted(committed)
	if err != nil {
		im.metrics.BatchFailed(string(internal.ImportItems))
		im.errorLog.Println("items import:", err)
		return result, err
	}

	result.Message = fmt.Sprintf("Success! %d items imported.", committed)
	im.recordImport(ctx, internal.ImportItems)
	im.infoLog.Printf("items import: %d rows, %d items in %d batches", result.RowsChecked, committed, batches)
	return result, nil
}

// ParseItemTable emits one ItemUpsert per non-empty category cell. The
// header is matched case-insensitively against the category tokens; widths
// come from a width-<token> or width_<token> column.
func ParseItemTable(header []string, rows [][]string) []internal.ItemUpsert {
	cols := make([]string, len(header))
	for i, h := range header {
		cols[i] = util.NormalizeHeader(h)
	}

	type column struct {
		category string
		item     int
		width    int
	}
	var present []column
	for _, c := range catalog.Schema {
		idx := indexOf(cols, c.Token)
		if idx < 0 {
			continue
		}
		width := indexOf(cols, "width-"+c.Token)
		if width < 0 {
			width = indexOf(cols, "width_"+c.Token)
		}
		present = append(present, column{category: c.Name, item: idx, width: width})
	}

	var out []internal.ItemUpsert
	for _, row := range rows {
		for _, col := range present {
			name := cell(row, col.item)
			if name == "" {
				continue
			}
			out = append(out, internal.ItemUpsert{
				Category:     col.category,
				ItemName:     name,
				DefaultWidth: cell(row, col.width),
			})
		}
	}
	return out
}
