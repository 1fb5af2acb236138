package intake

import (
	"context"
	"errors"
	"io"
	"log"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"orderdesk/internal"
	"orderdesk/internal/catalog"
	"orderdesk/internal/extract"
)

type fakeStore struct {
	emails   []internal.EmailRow
	status   map[int]string
	drafts   map[int]internal.InboxDraft
	runs     []map[string]int
	deleted  []int
	customer []internal.Customer
	custErr  error
}

func newFakeStore(emails ...internal.EmailRow) *fakeStore {
	return &fakeStore{emails: emails, status: map[int]string{}, drafts: map[int]internal.InboxDraft{}}
}

func (f *fakeStore) MustEmailByProviderMessageID(_ context.Context, provider, messageID string) (internal.EmailRow, error) {
	for _, e := range f.emails {
		if e.Provider == provider && e.MessageID == messageID {
			return e, nil
		}
	}
	return internal.EmailRow{}, errors.New("not found")
}

func (f *fakeStore) ListEmailsByStatus(_ context.Context, status string, limit int) ([]internal.EmailRow, error) {
	var out []internal.EmailRow
	for _, e := range f.emails {
		if e.Status == status && len(out) < limit {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeStore) UpdateEmailStatus(_ context.Context, id int, status string) error {
	f.status[id] = status
	return nil
}

func (f *fakeStore) SaveDraft(_ context.Context, d internal.InboxDraft) error {
	f.drafts[d.EmailID] = d
	return nil
}

func (f *fakeStore) DeleteDraft(_ context.Context, id int) error {
	f.deleted = append(f.deleted, id)
	delete(f.drafts, id)
	return nil
}

func (f *fakeStore) InsertRun(_ context.Context, _ string, _ int, _ map[string]float64, counts map[string]int) error {
	f.runs = append(f.runs, counts)
	return nil
}

func (f *fakeStore) ListCustomers(context.Context) ([]internal.Customer, error) {
	return f.customer, f.custErr
}

type fixedCatalog struct{ idx *catalog.Index }

func (c fixedCatalog) Index() *catalog.Index { return c.idx }

func testCatalog() fixedCatalog {
	return fixedCatalog{idx: catalog.BuildIndex([]internal.CatalogItem{
		{Category: "WARP", ItemName: "40s Cotton Warp", DefaultRate: decimal.NewFromInt(180), DefaultWidth: "44"},
		{Category: "ELASTIC", ItemName: "Flat Elastic 10mm"},
		{Category: "TAPE", ItemName: "Printed Tape 1in Red"},
	})}
}

func discard() *log.Logger { return log.New(io.Discard, "", 0) }

func copyFixture(t *testing.T) string {
	t.Helper()
	raw, err := os.ReadFile(filepath.Join("..", "extract", "testdata", "sample_order.eml"))
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "order.eml")
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestProcessEmailBuildsDraft(t *testing.T) {
	store := newFakeStore(internal.EmailRow{ID: 3, Provider: "imap", MessageID: "m-3", Status: "fetched", RawRef: copyFixture(t)})
	store.customer = []internal.Customer{
		{ID: "9", Name: "Acme Knits", ContactNo: "9820011111", BillingAddress: "Plot 7, MIDC", Branch: "Mumbai HO"},
	}
	svc := NewProcessingService(store, testCatalog(), store, 3, nil, discard(), discard())

	res, err := svc.ProcessByProviderMessageID(context.Background(), "imap", "m-3")
	if err != nil {
		t.Fatal(err)
	}
	if res.Skipped || res.Lines != 4 || res.Matched != 3 {
		t.Fatalf("unexpected result %+v", res)
	}
	if store.status[3] != "processed" {
		t.Fatalf("status=%q", store.status[3])
	}

	draft := store.drafts[3]
	if draft.Header.CustomerName != "Acme Knits" || draft.Header.CustomerContactNo != "9820011111" || draft.Header.Branch != "mumbai" {
		t.Fatalf("unexpected header %+v", draft.Header)
	}

	wantStatus := []internal.MatchStatus{internal.MatchExact, internal.MatchExact, internal.MatchNotFound, internal.MatchPartial}
	for i, want := range wantStatus {
		if draft.Lines[i].Status != want {
			t.Fatalf("line %d status=%s want %s", i, draft.Lines[i].Status, want)
		}
	}
	warp := draft.Lines[0].Line
	if warp.ItemName != "40s Cotton Warp" || warp.Category != "WARP" || !warp.Rate.Equal(decimal.NewFromInt(180)) || warp.Width != "44" {
		t.Fatalf("defaults not applied %+v", warp)
	}
	if warp.QuantityText != "120" || !warp.Quantity.Equal(decimal.NewFromInt(120)) || warp.UOM != "Kg" {
		t.Fatalf("quantity not carried %+v", warp)
	}
	manual := draft.Lines[2].Line
	if manual.ItemName != "" || manual.ManualItemName != "Hook 3x2 Black" {
		t.Fatalf("unmatched line %+v", manual)
	}
	if len(store.runs) != 1 || store.runs[0]["extracted"] != 4 || store.runs[0]["NOT_FOUND"] != 1 {
		t.Fatalf("runs=%+v", store.runs)
	}
}

func TestProcessEmailSkipsChatter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chat.eml")
	raw := "From: a@b.example\r\nSubject: Lunch on Friday?\r\nContent-Type: text/plain\r\n\r\nAre you free at 1pm on Friday?\r\n"
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatal(err)
	}
	store := newFakeStore(internal.EmailRow{ID: 5, Provider: "gmail", Status: "fetched", RawRef: path})
	svc := NewProcessingService(store, testCatalog(), store, 3, nil, discard(), discard())

	emails, lines, err := svc.ProcessPending(context.Background(), 10, "")
	if err != nil {
		t.Fatal(err)
	}
	if emails != 1 || lines != 0 {
		t.Fatalf("emails=%d lines=%d", emails, lines)
	}
	if store.status[5] != "skipped" || len(store.drafts) != 0 {
		t.Fatalf("status=%q drafts=%d", store.status[5], len(store.drafts))
	}
}

func TestProcessPendingFiltersProvider(t *testing.T) {
	store := newFakeStore(
		internal.EmailRow{ID: 1, Provider: "gmail", Status: "fetched", RawRef: "/nonexistent"},
		internal.EmailRow{ID: 2, Provider: "imap", Status: "fetched", RawRef: copyFixture(t)},
	)
	store.custErr = errors.New("offline")
	svc := NewProcessingService(store, testCatalog(), store, 3, nil, discard(), discard())

	emails, lines, err := svc.ProcessPending(context.Background(), 10, "imap")
	if err != nil {
		t.Fatal(err)
	}
	if emails != 1 || lines != 4 {
		t.Fatalf("emails=%d lines=%d", emails, lines)
	}
	if got := store.drafts[2].Header.CustomerName; got != "Acme Knits" {
		t.Fatalf("hint name not used: %q", got)
	}
}

func TestHeaderFromHintsMatchesByPhone(t *testing.T) {
	known := []internal.Customer{
		{Name: "Bharat Lace", ContactNo: "98-98-98", Email: "orders@bharat.example", Branch: "Surat"},
	}
	h := headerFromHints(known, extract.CustomerHints{Name: "BL Surat", Phone: "98 98 98"})
	if h.CustomerName != "Bharat Lace" || h.CustomerEmail != "orders@bharat.example" || h.Branch != "surat" {
		t.Fatalf("unexpected %+v", h)
	}

	h = headerFromHints(known, extract.CustomerHints{Name: "New Party", Address: "Ludhiana Road", Branch: "Ludhiana"})
	if h.CustomerName != "New Party" || h.BillingAddress != "Ludhiana Road" || h.Branch != "ludhiana" {
		t.Fatalf("unexpected %+v", h)
	}
}

func TestExportDraftXLSX(t *testing.T) {
	qty := 120.0
	draft := BuildDraft(testCatalog().idx, nil, []internal.ExtractedLine{
		{LineNo: 1, Source: internal.SourceEmailText, RawLine: "40s Cotton Warp 120 kg", Name: "40s Cotton Warp", Qty: &qty},
	}, extract.CustomerHints{Name: "Acme Knits"})

	path := filepath.Join(t.TempDir(), "out", "draft.xlsx")
	if err := ExportDraftXLSX(draft, path); err != nil {
		t.Fatal(err)
	}
	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	rows, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 || rows[1][6] != "EXACT" || rows[1][8] != "40s Cotton Warp" || rows[1][14] != "Acme Knits" {
		t.Fatalf("rows=%v", rows)
	}
}
