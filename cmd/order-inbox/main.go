package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"orderdesk/internal/catalog"
	"orderdesk/internal/config"
	"orderdesk/internal/connectors"
	"orderdesk/internal/intake"
	"orderdesk/internal/listener"
	"orderdesk/internal/metrics"
	"orderdesk/internal/remote"
	"orderdesk/internal/storage"
)

// order-inbox polls the configured mailbox and drafts orders from new mail
// until interrupted.
func main() {
	cfg, err := config.Load()
	must(err)

	infoLog := log.New(os.Stdout, "INFO\t", log.Ldate|log.Ltime)
	errorLog := log.New(os.Stderr, "ERROR\t", log.Ldate|log.Ltime|log.Lshortfile)

	db, err := storage.Open(cfg.DBPath)
	must(err)
	defer db.Close()

	var shared storage.Backend = db
	if cfg.StoreBackend == "rest" {
		client, err := remote.NewClient(cfg)
		must(err)
		defer client.Close()
		shared = client
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	conn, err := connectors.New(ctx, cfg)
	must(err)

	m := metrics.NewRegistry()
	cat := catalog.NewService(shared, m, infoLog, errorLog)
	cat.Load(ctx)
	processor := intake.NewProcessingService(db, cat, shared, cfg.InboxMinScore, m, infoLog, errorLog)

	svc := listener.NewService(db, conn, processor, cfg, infoLog, errorLog)
	must(svc.Run(ctx))
}

func must(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
