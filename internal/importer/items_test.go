package importer

import (
	"context"
	"errors"
	"io"
	"log"
	"strings"
	"testing"
	"time"

	"orderdesk/internal"
)

type fakeStore struct {
	itemBatches     [][]internal.ItemUpsert
	customerBatches [][]internal.CustomerUpsert
	failAt          int
	calls           int

	users        []internal.SalesPerson
	listErr      error
	created      []internal.SalesPerson
	createErrFor string
}

func (f *fakeStore) UpsertItems(_ context.Context, batch []internal.ItemUpsert) error {
	f.calls++
	if f.failAt > 0 && f.calls == f.failAt {
		return errors.New("boom")
	}
	f.itemBatches = append(f.itemBatches, append([]internal.ItemUpsert(nil), batch...))
	return nil
}

func (f *fakeStore) UpsertCustomers(_ context.Context, batch []internal.CustomerUpsert) error {
	f.calls++
	if f.failAt > 0 && f.calls == f.failAt {
		return errors.New("boom")
	}
	f.customerBatches = append(f.customerBatches, append([]internal.CustomerUpsert(nil), batch...))
	return nil
}

func (f *fakeStore) ListSalesPersons(context.Context) ([]internal.SalesPerson, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append(append([]internal.SalesPerson(nil), f.users...), f.created...), nil
}

func (f *fakeStore) CreateSalesPerson(_ context.Context, sp internal.SalesPerson) (internal.SalesPerson, error) {
	if f.createErrFor != "" && strings.EqualFold(sp.FullName(), f.createErrFor) {
		return internal.SalesPerson{}, errors.New("duplicate email")
	}
	sp.ID = "g" + string(rune('0'+len(f.created)+1))
	f.created = append(f.created, sp)
	return sp, nil
}

func discard() *log.Logger { return log.New(io.Discard, "", 0) }

func newTestImporter(store *fakeStore, batch int) *Importer {
	return New(store, store, Options{BatchSize: batch, GhostEmailDomain: "test.local"}, nil, discard(), discard())
}

func TestParseItemTable(t *testing.T) {
	header := []string{"WARP", "width-warp", "Elastic", "width_elastic", "notes"}
	rows := [][]string{
		{"40s Cotton", "44", "Flat 10mm", "", "x"},
		{"", "", "Round 3mm", "3"},
		{"Poly 2/40"},
	}
	got := ParseItemTable(header, rows)
	want := []internal.ItemUpsert{
		{Category: "WARP", ItemName: "40s Cotton", DefaultWidth: "44"},
		{Category: "ELASTIC", ItemName: "Flat 10mm"},
		{Category: "ELASTIC", ItemName: "Round 3mm", DefaultWidth: "3"},
		{Category: "WARP", ItemName: "Poly 2/40"},
	}
	if len(got) != len(want) {
		t.Fatalf("len=%d want %d: %+v", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("item %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestParseItemTablePrefersHyphenWidth(t *testing.T) {
	got := ParseItemTable([]string{"cup", "width_cup", "width-cup"}, [][]string{{"Moulded", "30", "32"}})
	if len(got) != 1 || got[0].DefaultWidth != "32" {
		t.Fatalf("unexpected %+v", got)
	}
}

func TestImportItemsCSVBatches(t *testing.T) {
	var b strings.Builder
	b.WriteString("\ufeffwarp,cku\n")
	for i := 0; i < 5; i++ {
		b.WriteString("W,C\n")
	}
	store := &fakeStore{}
	res, err := newTestImporter(store, 4).ImportItemsCSV(context.Background(), []byte(b.String()))
	if err != nil {
		t.Fatal(err)
	}
	if res.Emitted != 10 || res.Committed != 10 || res.Batches != 3 {
		t.Fatalf("unexpected result %+v", res)
	}
	if len(store.itemBatches) != 3 || len(store.itemBatches[2]) != 2 {
		t.Fatalf("unexpected batches %+v", store.itemBatches)
	}
	if res.Message != "Success! 10 items imported." {
		t.Fatalf("message=%q", res.Message)
	}
}

func TestImportItemsCSVFailures(t *testing.T) {
	cases := []struct {
		name string
		csv  string
		want string
	}{
		{name: "header only", csv: "warp\n", want: "CSV empty or invalid"},
		{name: "no tokens", csv: "name,qty\nfoo,1\n", want: "No valid items found"},
		{name: "empty cells", csv: "warp,cku\n,\n", want: "No valid items found"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store := &fakeStore{}
			_, err := newTestImporter(store, 100).ImportItemsCSV(context.Background(), []byte(tc.csv))
			var verr *internal.ValidationError
			if !errors.As(err, &verr) || !strings.Contains(verr.Message, tc.want) {
				t.Fatalf("expected validation error %q, got %v", tc.want, err)
			}
			if store.calls != 0 {
				t.Fatalf("store was called %d times", store.calls)
			}
		})
	}
}

func TestImportItemsCSVStopsAtFailedBatch(t *testing.T) {
	csv := "warp\na\nb\nc\nd\ne\n"
	store := &fakeStore{failAt: 2}
	res, err := newTestImporter(store, 2).ImportItemsCSV(context.Background(), []byte(csv))
	var werr *internal.RemoteWriteError
	if !errors.As(err, &werr) {
		t.Fatalf("expected write error, got %v", err)
	}
	if werr.Batch != 2 || werr.Committed != 2 || res.Committed != 2 {
		t.Fatalf("unexpected error %+v result %+v", werr, res)
	}
	if store.calls != 2 {
		t.Fatalf("expected no batch after the failure, calls=%d", store.calls)
	}
}

func TestImportItemsCSVStrayQuoteStaysOnItsLine(t *testing.T) {
	csv := "warp,width-warp\n\"A\" Grade Warp,40mm\nPolyesterWarp,50mm\nNylonWarp,60mm\n"
	store := &fakeStore{}
	res, err := newTestImporter(store, 100).ImportItemsCSV(context.Background(), []byte(csv))
	if err != nil {
		t.Fatal(err)
	}
	if res.Emitted != 3 || len(store.itemBatches) != 1 {
		t.Fatalf("unexpected result %+v batches %+v", res, store.itemBatches)
	}
	items := store.itemBatches[0]
	if items[0].ItemName != `"A" Grade Warp` || items[0].DefaultWidth != "40mm" {
		t.Fatalf("first item %+v", items[0])
	}
	if items[1].ItemName != "PolyesterWarp" || items[1].DefaultWidth != "50mm" {
		t.Fatalf("second item %+v", items[1])
	}
	if items[2].ItemName != "NylonWarp" || items[2].DefaultWidth != "60mm" {
		t.Fatalf("third item %+v", items[2])
	}
}

func TestReadCSVLines(t *testing.T) {
	rows, err := ReadCSV([]byte("\ufeffa, b\r\n\r\n\"x,y\",z\n  \nbad\"quote,2\n"))
	if err != nil {
		t.Fatal(err)
	}
	want := [][]string{{"a", "b"}, {"x,y", "z"}, {`bad"quote`, "2"}}
	if len(rows) != len(want) {
		t.Fatalf("rows=%q", rows)
	}
	for i := range want {
		if strings.Join(rows[i], "|") != strings.Join(want[i], "|") {
			t.Fatalf("row %d = %q, want %q", i, rows[i], want[i])
		}
	}
}

type mapJournal map[string]string

func (m mapJournal) SetMetadata(_ context.Context, key, value string) error {
	m[key] = value
	return nil
}

func (m mapJournal) GetMetadata(_ context.Context, key string) (*string, error) {
	v, ok := m[key]
	if !ok {
		return nil, nil
	}
	return &v, nil
}

func TestImportRecordsLastRun(t *testing.T) {
	journal := mapJournal{}
	store := &fakeStore{users: testRoster}
	im := New(store, store, Options{Journal: journal}, nil, discard(), discard())
	im.now = func() time.Time { return time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC) }

	if !im.LastImport(context.Background(), internal.ImportItems).IsZero() {
		t.Fatalf("expected no import yet")
	}
	if _, err := im.ImportItemsCSV(context.Background(), []byte("warp\nfoo\n")); err != nil {
		t.Fatal(err)
	}
	if _, err := im.ImportItemsCSV(context.Background(), []byte("warp\n")); err == nil {
		t.Fatalf("expected validation error")
	}
	if got := im.LastImport(context.Background(), internal.ImportItems); !got.Equal(im.now()) {
		t.Fatalf("last items import %v", got)
	}
	if !im.LastImport(context.Background(), internal.ImportCustomers).IsZero() {
		t.Fatalf("customers journal written by items import: %v", journal)
	}
	if journal["last_import_items"] != "2026-03-01T10:00:00Z" {
		t.Fatalf("journal=%v", journal)
	}
}
