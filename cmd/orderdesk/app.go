package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"orderdesk/internal/catalog"
	"orderdesk/internal/config"
	"orderdesk/internal/customers"
	"orderdesk/internal/importer"
	"orderdesk/internal/intake"
	"orderdesk/internal/metrics"
	"orderdesk/internal/order"
	"orderdesk/internal/remote"
	"orderdesk/internal/sheets"
	"orderdesk/internal/storage"
)

var _ storage.Backend = (*remote.Client)(nil)

// app holds the services shared by every command. The local database is
// always opened: it holds order history and the inbox even when the shared
// tables live in the hosted store.
type app struct {
	cfg      config.Config
	local    *storage.DB
	backend  storage.Backend
	metrics  *metrics.Registry
	infoLog  *log.Logger
	errorLog *log.Logger

	catalog   *catalog.Service
	customers *customers.Service
	importer  *importer.Importer
	orders    *order.Service
	intake    *intake.ProcessingService
}

func newApp(ctx context.Context, cfg config.Config) (*app, error) {
	a := &app{
		cfg:      cfg,
		metrics:  metrics.NewRegistry(),
		infoLog:  log.New(os.Stdout, "INFO\t", log.Ldate|log.Ltime),
		errorLog: log.New(os.Stderr, "ERROR\t", log.Ldate|log.Ltime|log.Lshortfile),
	}

	local, err := storage.Open(cfg.DBPath)
	if err != nil {
		return nil, err
	}
	a.local = local

	switch cfg.StoreBackend {
	case "", "sqlite":
		a.backend = local
	case "rest":
		client, err := remote.NewClient(cfg)
		if err != nil {
			local.Close()
			return nil, err
		}
		a.backend = client
	default:
		local.Close()
		return nil, fmt.Errorf("unsupported STORE_BACKEND %q (sqlite, rest)", cfg.StoreBackend)
	}

	sheet, err := sheets.New(ctx, cfg, a.infoLog)
	if err != nil {
		a.errorLog.Printf("sheet disabled: %v", err)
		sheet = sheets.Off{}
	}

	a.catalog = catalog.NewService(a.backend, a.metrics, a.infoLog, a.errorLog)
	a.customers = customers.NewService(a.backend, a.backend, a.infoLog, a.errorLog)
	a.importer = importer.New(a.backend, a.backend, importer.Options{
		BatchSize:        cfg.ImportBatchSize,
		GhostEmailDomain: cfg.GhostEmailDomain,
		Journal:          a.local,
	}, a.metrics, a.infoLog, a.errorLog)
	a.orders = order.NewService(a.backend, a.customers, sheet, a.local, cfg.HistoryRetentionDays, a.metrics, a.infoLog, a.errorLog)
	a.intake = intake.NewProcessingService(a.local, a.catalog, a.backend, cfg.InboxMinScore, a.metrics, a.infoLog, a.errorLog)
	return a, nil
}

func (a *app) Close() {
	if a.backend != a.local {
		_ = a.backend.Close()
	}
	_ = a.local.Close()
}
