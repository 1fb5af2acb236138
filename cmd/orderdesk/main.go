package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"orderdesk/internal"
	"orderdesk/internal/api"
	"orderdesk/internal/config"
	"orderdesk/internal/connectors"
	"orderdesk/internal/extract"
	"orderdesk/internal/intake"
	"orderdesk/internal/listener"
	"orderdesk/internal/order"
	"orderdesk/internal/roster"
	"orderdesk/internal/util"
)

func main() {
	cfg, err := config.Load()
	must(err)

	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	a, err := newApp(ctx, cfg)
	must(err)
	defer a.Close()

	cmd := os.Args[1]
	switch cmd {
	case "catalog:list":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		category := fs.String("category", "", "category filter")
		_ = fs.Parse(os.Args[2:])
		a.catalog.Load(ctx)
		count := 0
		for _, it := range a.catalog.Snapshot() {
			if *category != "" && !strings.EqualFold(it.Category, *category) {
				continue
			}
			fmt.Printf("%-14s %-40s %8s %s\n", it.Category, it.ItemName, it.DefaultRate.StringFixed(2), it.DefaultWidth)
			count++
		}
		fmt.Printf("%d items\n", count)
	case "catalog:search":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		q := fs.String("q", "", "search text")
		category := fs.String("category", "", "category filter")
		_ = fs.Parse(os.Args[2:])
		a.catalog.Load(ctx)
		for _, it := range a.catalog.Index().Suggest(*q, *category) {
			fmt.Printf("%-14s %s\n", it.Category, it.ItemName)
		}
	case "items:import":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		file := fs.String("file", "", "csv or xlsx file")
		_ = fs.Parse(os.Args[2:])
		blob, xlsx := readInputFile(*file)
		var res internal.ImportResult
		if xlsx {
			res, err = a.importer.ImportItemsXLSX(ctx, blob)
		} else {
			res, err = a.importer.ImportItemsCSV(ctx, blob)
		}
		printImport(res, err)
	case "customers:import":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		file := fs.String("file", "", "csv or xlsx file")
		branch := fs.String("branch", "", "branch for new sales-person accounts")
		sessionBranch := fs.String("session-branch", cfg.DefaultBranch, "branch of the operator running the import")
		_ = fs.Parse(os.Args[2:])
		blob, xlsx := readInputFile(*file)
		users, err := a.backend.ListSalesPersons(ctx)
		must(err)
		ghostBranch := *branch
		if ghostBranch == "" {
			ghostBranch = roster.GhostBranch(*sessionBranch)
		}
		var res internal.ImportResult
		if xlsx {
			res, err = a.importer.ImportCustomersXLSX(ctx, blob, users, ghostBranch)
		} else {
			res, err = a.importer.ImportCustomersCSV(ctx, blob, users, ghostBranch)
		}
		printImport(res, err)
	case "customers:search":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		branch := fs.String("branch", cfg.DefaultBranch, "branch id")
		salesPerson := fs.String("sales-person", "", "sales person full name")
		q := fs.String("q", "", "search text")
		_ = fs.Parse(os.Args[2:])
		dir := a.customers.Directory(a.customers.Load(ctx, *branch, *salesPerson), *branch, *salesPerson)
		for _, c := range dir.Search(*q) {
			fmt.Printf("%-30s %-14s %s\n", c.Name, c.ContactNo, c.Email)
		}
	case "order:submit":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		file := fs.String("file", "", "order json {session, formData, items}")
		_ = fs.Parse(os.Args[2:])
		if strings.TrimSpace(*file) == "" {
			must(fmt.Errorf("--file is required"))
		}
		blob, err := os.ReadFile(*file)
		must(err)
		var req struct {
			Session  order.Session       `json:"session"`
			FormData internal.OrderHeader `json:"formData"`
			Items    []internal.LineItem  `json:"items"`
		}
		must(json.Unmarshal(blob, &req))
		draft, err := order.NewDraft(req.FormData, req.Items...)
		must(err)
		res, err := a.orders.Submit(ctx, req.Session, draft)
		must(err)
		printJSON(res)
	case "order:parse":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		input := fs.String("input", "", "input file path or raw text")
		inType := fs.String("type", "text", "text|email_text|email_table|xlsx|pdf|eml")
		output := fs.String("output", "", "optional xlsx path for the draft")
		_ = fs.Parse(os.Args[2:])
		if *input == "" {
			must(fmt.Errorf("--input is required"))
		}
		lines, err := extract.FromInput(*inType, *input)
		must(err)
		hints := extract.CustomerHints{}
		if *inType == "text" || *inType == "paste" || *inType == "email_text" {
			hints = extract.ParseHints(*input)
		}
		a.catalog.Load(ctx)
		known, err := a.backend.ListCustomers(ctx)
		if err != nil {
			a.errorLog.Println("order:parse:", err)
		}
		draft := intake.BuildDraft(a.catalog.Index(), known, lines, hints)
		if *output != "" {
			must(intake.ExportDraftXLSX(draft, *output))
			fmt.Printf("parsed %d lines to %s\n", len(draft.Lines), *output)
			return
		}
		printJSON(draft)
	case "history:export":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		out := fs.String("out", "", "output xlsx path")
		spID := fs.String("sales-person-id", "", "only this sales person")
		_ = fs.Parse(os.Args[2:])
		if strings.TrimSpace(*out) == "" {
			must(fmt.Errorf("--out is required"))
		}
		entries, err := a.orders.History(ctx, *spID)
		must(err)
		must(order.ExportHistoryXLSX(entries, *out))
		fmt.Printf("exported %d orders to %s\n", len(entries), *out)
	case "inbox:fetch":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		label := fs.String("label", cfg.InboxLabel, "mailbox/label")
		max := fs.Int("max", cfg.InboxFetchMax, "max messages")
		_ = fs.Parse(os.Args[2:])
		conn, err := connectors.New(ctx, cfg)
		must(err)
		res, err := connectors.NewFetchService(a.local, cfg.RawMailDir, conn).FetchAndStore(ctx, *label, *max)
		must(err)
		fmt.Printf("inbox fetch done provider=%s fetched=%d stored=%d\n", cfg.InboxProvider, res.Fetched, res.Stored)
	case "inbox:process":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		provider := fs.String("provider", "", "gmail|imap, empty for all")
		messageID := fs.String("messageId", "", "specific message-id")
		batch := fs.Int("batch", cfg.InboxProcessBatch, "batch size")
		_ = fs.Parse(os.Args[2:])
		a.catalog.Load(ctx)
		if strings.TrimSpace(*messageID) != "" {
			res, err := a.intake.ProcessByProviderMessageID(ctx, util.FirstNonEmpty(*provider, cfg.InboxProvider), *messageID)
			must(err)
			fmt.Printf("processed email id=%d lines=%d matched=%d skipped=%t\n", res.EmailID, res.Lines, res.Matched, res.Skipped)
			return
		}
		emails, lines, err := a.intake.ProcessPending(ctx, *batch, *provider)
		must(err)
		fmt.Printf("processed pending emails=%d lines=%d\n", emails, lines)
	case "inbox:listen":
		must(runListener(ctx, a))
	case "serve":
		must(serve(ctx, a))
	default:
		usage()
		os.Exit(1)
	}
}

func runListener(ctx context.Context, a *app) error {
	conn, err := connectors.New(ctx, a.cfg)
	if err != nil {
		return err
	}
	a.catalog.Load(ctx)
	return listener.NewService(a.local, conn, a.intake, a.cfg, a.infoLog, a.errorLog).Run(ctx)
}

func serve(ctx context.Context, a *app) error {
	a.catalog.Load(ctx)
	router, err := api.NewServer(api.Deps{
		Store:     a.backend,
		Catalog:   a.catalog,
		Customers: a.customers,
		Importer:  a.importer,
		Orders:    a.orders,
		Metrics:   a.metrics,
		RateLimit: a.cfg.HTTPRateLimit,
		InfoLog:   a.infoLog,
		ErrorLog:  a.errorLog,
	}).Router()
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              a.cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ErrorLog:          a.errorLog,
	}
	go func() {
		<-ctx.Done()
		shutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdown)
	}()

	a.infoLog.Printf("listening on %s", a.cfg.HTTPAddr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func readInputFile(path string) ([]byte, bool) {
	if strings.TrimSpace(path) == "" {
		must(fmt.Errorf("--file is required"))
	}
	blob, err := os.ReadFile(path)
	must(err)
	return blob, strings.EqualFold(filepath.Ext(path), ".xlsx")
}

func printImport(res internal.ImportResult, err error) {
	if err != nil {
		if res.Committed > 0 {
			fmt.Fprintf(os.Stderr, "%d records committed before the failure\n", res.Committed)
		}
		must(err)
	}
	fmt.Println(res.Message)
}

func printJSON(v any) {
	blob, err := json.MarshalIndent(v, "", "  ")
	must(err)
	fmt.Println(string(blob))
}

func usage() {
	fmt.Println("usage: orderdesk <command>")
	fmt.Println("commands:")
	fmt.Println("  catalog:list [--category=WARP]")
	fmt.Println("  catalog:search --q=cotton [--category=WARP]")
	fmt.Println("  items:import --file=items.csv|items.xlsx")
	fmt.Println("  customers:import --file=customers.csv [--branch=mum] [--session-branch=ho_uls]")
	fmt.Println("  customers:search --branch=mumbai --sales-person='Ravi Kumar' [--q=acme]")
	fmt.Println("  order:submit --file=order.json")
	fmt.Println("  order:parse --input=... --type=text|email_text|email_table|xlsx|pdf|eml [--output=draft.xlsx]")
	fmt.Println("  history:export --out=./out/history.xlsx [--sales-person-id=7]")
	fmt.Println("  inbox:fetch [--label=INBOX] [--max=20]")
	fmt.Println("  inbox:process [--provider=gmail|imap] [--messageId=...] [--batch=20]")
	fmt.Println("  inbox:listen")
	fmt.Println("  serve")
}

func must(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
