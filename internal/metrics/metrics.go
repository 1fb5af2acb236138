package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds the service counters on a private prometheus registry.
// A nil *Registry is valid and records nothing, so packages can be used
// without metrics in tests and one-shot CLI commands.
type Registry struct {
	reg *prometheus.Registry

	ItemsImported       prometheus.Counter
	CustomersImported   prometheus.Counter
	GhostUsersCreated   prometheus.Counter
	ImportBatchesFailed *prometheus.CounterVec
	OrdersSubmitted     prometheus.Counter
	SheetFailures       prometheus.Counter
	InboxDrafts         prometheus.Counter
	CatalogSize         prometheus.Gauge
}

func NewRegistry() *Registry {
	r := prometheus.NewRegistry()
	itemsImported := prometheus.NewCounter(prometheus.CounterOpts{Name: "orderdesk_items_imported_total"})
	customersImported := prometheus.NewCounter(prometheus.CounterOpts{Name: "orderdesk_customers_imported_total"})
	ghosts := prometheus.NewCounter(prometheus.CounterOpts{Name: "orderdesk_ghost_users_created_total"})
	batchesFailed := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "orderdesk_import_batches_failed_total"}, []string{"kind"})
	orders := prometheus.NewCounter(prometheus.CounterOpts{Name: "orderdesk_orders_submitted_total"})
	sheetFailures := prometheus.NewCounter(prometheus.CounterOpts{Name: "orderdesk_sheet_failures_total"})
	inboxDrafts := prometheus.NewCounter(prometheus.CounterOpts{Name: "orderdesk_inbox_drafts_total"})
	catalogSize := prometheus.NewGauge(prometheus.GaugeOpts{Name: "orderdesk_catalog_items"})

	r.MustRegister(itemsImported, customersImported, ghosts, batchesFailed, orders, sheetFailures, inboxDrafts, catalogSize)
	return &Registry{
		reg:                 r,
		ItemsImported:       itemsImported,
		CustomersImported:   customersImported,
		GhostUsersCreated:   ghosts,
		ImportBatchesFailed: batchesFailed,
		OrdersSubmitted:     orders,
		SheetFailures:       sheetFailures,
		InboxDrafts:         inboxDrafts,
		CatalogSize:         catalogSize,
	}
}

func (r *Registry) Handler() http.Handler { return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{}) }

func (r *Registry) ItemsCommitted(n int) {
	if r == nil {
		return
	}
	r.ItemsImported.Add(float64(n))
}

func (r *Registry) CustomersCommitted(n int) {
	if r == nil {
		return
	}
	r.CustomersImported.Add(float64(n))
}

func (r *Registry) GhostCreated() {
	if r == nil {
		return
	}
	r.GhostUsersCreated.Inc()
}

func (r *Registry) BatchFailed(kind string) {
	if r == nil {
		return
	}
	r.ImportBatchesFailed.WithLabelValues(kind).Inc()
}

func (r *Registry) OrderSubmitted(sheetSaved bool) {
	if r == nil {
		return
	}
	r.OrdersSubmitted.Inc()
	if !sheetSaved {
		r.SheetFailures.Inc()
	}
}

func (r *Registry) DraftCreated() {
	if r == nil {
		return
	}
	r.InboxDrafts.Inc()
}

func (r *Registry) SetCatalogSize(n int) {
	if r == nil {
		return
	}
	r.CatalogSize.Set(float64(n))
}
