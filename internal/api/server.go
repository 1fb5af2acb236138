package api

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"orderdesk/internal"
	"orderdesk/internal/catalog"
	"orderdesk/internal/customers"
	"orderdesk/internal/importer"
	"orderdesk/internal/metrics"
	"orderdesk/internal/order"
)

// Store is the part of the backend the handlers read directly.
type Store interface {
	ListCustomers(ctx context.Context) ([]internal.Customer, error)
	ListSalesPersons(ctx context.Context) ([]internal.SalesPerson, error)
}

type Deps struct {
	Store     Store
	Catalog   *catalog.Service
	Customers *customers.Service
	Importer  *importer.Importer
	Orders    *order.Service
	Metrics   *metrics.Registry
	RateLimit string
	InfoLog   *log.Logger
	ErrorLog  *log.Logger
}

type Server struct {
	store     Store
	catalog   *catalog.Service
	customers *customers.Service
	importer  *importer.Importer
	orders    *order.Service
	metrics   *metrics.Registry
	rateLimit string
	infoLog   *log.Logger
	errorLog  *log.Logger
}

func NewServer(d Deps) *Server {
	return &Server{
		store:     d.Store,
		catalog:   d.Catalog,
		customers: d.Customers,
		importer:  d.Importer,
		orders:    d.Orders,
		metrics:   d.Metrics,
		rateLimit: d.RateLimit,
		infoLog:   d.InfoLog,
		errorLog:  d.ErrorLog,
	}
}

func (s *Server) Router() (*gin.Engine, error) {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestLog(s))

	r.GET("/healthz", s.health)
	if s.metrics != nil {
		r.GET("/metrics", gin.WrapH(s.metrics.Handler()))
	}

	v1 := r.Group("/api/v1")
	{
		v1.GET("/items", s.listItems)
		v1.GET("/items/resolve", s.resolveItem)
		v1.POST("/catalog/reload", s.reloadCatalog)

		v1.GET("/customers", s.listCustomers)
		v1.POST("/customers", s.createCustomer)
		v1.GET("/sales-persons", s.listSalesPersons)

		v1.POST("/orders", s.submitOrder)
		v1.POST("/orders/parse", s.parseOrder)
		v1.GET("/orders/history", s.orderHistory)
	}

	limit := s.rateLimit
	if limit == "" {
		limit = "30-M"
	}
	limited, err := RateLimit(limit)
	if err != nil {
		return nil, err
	}
	imports := v1.Group("/imports")
	imports.Use(limited)
	{
		imports.POST("/items", s.importItems)
		imports.POST("/customers", s.importCustomers)
	}
	return r, nil
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":       "ok",
		"catalogItems": len(s.catalog.Snapshot()),
		"loadedAt":     s.catalog.LoadedAt(),
		"lastImports": gin.H{
			"items":     s.importer.LastImport(c.Request.Context(), internal.ImportItems),
			"customers": s.importer.LastImport(c.Request.Context(), internal.ImportCustomers),
		},
	})
}

func success(c *gin.Context, status int, data any) {
	c.JSON(status, gin.H{"success": true, "data": data})
}

func fail(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{"success": false, "error": message})
}

// respondError maps validation failures to 400 and failed remote writes
// to 502.
func (s *Server) respondError(c *gin.Context, err error) {
	var verr *internal.ValidationError
	var werr *internal.RemoteWriteError
	switch {
	case errors.As(err, &verr):
		fail(c, http.StatusBadRequest, verr.Error())
	case errors.As(err, &werr):
		s.errorLog.Printf("%s %s: %v", c.Request.Method, c.Request.URL.Path, err)
		fail(c, http.StatusBadGateway, werr.Error())
	default:
		s.errorLog.Printf("%s %s: %v", c.Request.Method, c.Request.URL.Path, err)
		fail(c, http.StatusInternalServerError, "internal error")
	}
}

// session reads the operator from request headers. Body fields, when
// present, take precedence.
func session(c *gin.Context) order.Session {
	return order.Session{
		SalesPersonID: strings.TrimSpace(c.GetHeader("X-Sales-Person-Id")),
		Name:          strings.TrimSpace(c.GetHeader("X-Sales-Person-Name")),
		BranchID:      strings.TrimSpace(c.GetHeader("X-Branch-Id")),
	}
}
