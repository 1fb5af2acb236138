package importer

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"orderdesk/internal"
)

var testRoster = []internal.SalesPerson{
	{ID: "1", FirstName: "Ravindra", LastName: "Shah", BranchID: "mum"},
	{ID: "2", FirstName: "Meena", LastName: "Iyer", BranchID: "del"},
}

func TestImportCustomersMatchesRoster(t *testing.T) {
	csv := "Sales Person Name,Customer Name,Billing Address,Mob No,Email ID,Branch\n" +
		"ravindra shah,Acme Knits,Dadar,99,a@x.in,Mumbai HO\n" +
		"Meena,Bharat Lace,,98,,Delhi HO\n" +
		"Meena,,,,,\n"
	store := &fakeStore{users: testRoster}
	res, err := newTestImporter(store, 100).ImportCustomersCSV(context.Background(), []byte(csv), testRoster, "mum")
	if err != nil {
		t.Fatal(err)
	}
	if res.Committed != 2 || res.RowsChecked != 3 || res.GhostUsersCreated != 0 {
		t.Fatalf("unexpected result %+v", res)
	}
	if len(store.created) != 0 {
		t.Fatalf("roster matches must not create accounts: %+v", store.created)
	}
	got := store.customerBatches[0]
	if got[0].SalesPersonID != "1" || got[0].Email != "a@x.in" || got[0].ContactNo != "99" || got[0].BillingAddress != "Dadar" {
		t.Fatalf("unexpected first record %+v", got[0])
	}
	if got[1].SalesPersonID != "2" || got[1].Branch != "Delhi HO" || got[1].DeliveryAddress != "" {
		t.Fatalf("unexpected second record %+v", got[1])
	}
	if res.Message != "Success! 2 customers imported." {
		t.Fatalf("message=%q", res.Message)
	}
}

func TestImportCustomersCreatesGhosts(t *testing.T) {
	csv := "sales_person_name,customer_name\n" +
		"Kiran Rao,Alpha\n" +
		"Kiran Rao,Beta\n" +
		"Ravindra,Gamma\n"
	store := &fakeStore{users: testRoster}
	im := newTestImporter(store, 100)
	im.now = func() time.Time { return time.UnixMilli(1700000012345) }

	res, err := im.ImportCustomersCSV(context.Background(), []byte(csv), testRoster, "uls")
	if err != nil {
		t.Fatal(err)
	}
	if len(store.created) != 1 {
		t.Fatalf("expected one ghost, got %+v", store.created)
	}
	ghost := store.created[0]
	if ghost.FirstName != "Kiran" || ghost.LastName != "Rao" || ghost.BranchID != "uls" || ghost.Email != "kiranrao.2345@test.local" {
		t.Fatalf("unexpected ghost %+v", ghost)
	}
	if res.Committed != 3 || res.GhostUsersCreated != 1 || res.GhostBranch != "uls" {
		t.Fatalf("unexpected result %+v", res)
	}
	if !strings.Contains(res.Message, "Also created 1 new Sales Person accounts (under branch: uls).") {
		t.Fatalf("message=%q", res.Message)
	}
	for _, rec := range store.customerBatches[0][:2] {
		if rec.SalesPersonID != ghost.ID {
			t.Fatalf("record not assigned to ghost: %+v", rec)
		}
	}
}

func TestImportCustomersRosterRefreshFallsBack(t *testing.T) {
	csv := "sales_person_name,customer_name\nKiran,Alpha\n"
	store := &fakeStore{users: testRoster, listErr: errors.New("offline")}
	res, err := newTestImporter(store, 100).ImportCustomersCSV(context.Background(), []byte(csv), testRoster, "mum")
	if err != nil {
		t.Fatal(err)
	}
	if res.Committed != 1 || store.customerBatches[0][0].SalesPersonID != store.created[0].ID {
		t.Fatalf("unexpected result %+v batches %+v", res, store.customerBatches)
	}
}

func TestImportCustomersFailedGhostDropsRows(t *testing.T) {
	csv := "sales_person_name,customer_name\nKiran,Alpha\nRavindra,Beta\n"
	store := &fakeStore{users: testRoster, createErrFor: "Kiran Sales"}
	res, err := newTestImporter(store, 100).ImportCustomersCSV(context.Background(), []byte(csv), testRoster, "mum")
	if err != nil {
		t.Fatal(err)
	}
	if res.Committed != 1 || res.GhostUsersCreated != 0 || store.customerBatches[0][0].Name != "Beta" {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestImportCustomersValidation(t *testing.T) {
	cases := []struct {
		name string
		csv  string
		want string
	}{
		{name: "missing column", csv: "Customer Name,Branch\nA,mum\n", want: "Found: Customer Name, Branch"},
		{name: "no rows kept", csv: "sales_person_name,customer_name\n,A\n", want: "No valid customers matched to users. Checked 1 rows."},
		{name: "empty", csv: "", want: "CSV empty or invalid"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store := &fakeStore{users: testRoster}
			_, err := newTestImporter(store, 100).ImportCustomersCSV(context.Background(), []byte(tc.csv), testRoster, "mum")
			var verr *internal.ValidationError
			if !errors.As(err, &verr) || !strings.Contains(verr.Message, tc.want) {
				t.Fatalf("expected %q, got %v", tc.want, err)
			}
			if len(store.customerBatches) != 0 {
				t.Fatalf("unexpected writes")
			}
		})
	}
}

func TestImportCustomersStopsAtFailedBatch(t *testing.T) {
	csv := "sales_person_name,customer_name\nRavindra,Alpha\nRavindra,Beta\nMeena,Gamma\n"
	store := &fakeStore{users: testRoster, failAt: 2}
	res, err := newTestImporter(store, 1).ImportCustomersCSV(context.Background(), []byte(csv), testRoster, "mum")
	var werr *internal.RemoteWriteError
	if !errors.As(err, &werr) {
		t.Fatalf("expected write error, got %v", err)
	}
	if werr.Batch != 2 || werr.Committed != 1 || res.Committed != 1 {
		t.Fatalf("unexpected error %+v result %+v", werr, res)
	}
	if store.calls != 2 || len(store.customerBatches) != 1 || store.customerBatches[0][0].Name != "Alpha" {
		t.Fatalf("unexpected writes calls=%d batches=%+v", store.calls, store.customerBatches)
	}
}

func TestImportCustomersStrayQuoteStaysOnItsLine(t *testing.T) {
	csv := "sales_person_name,customer_name\n" +
		"Ravindra,\"A\" Grade Mills\n" +
		"Ravindra,Beta\n" +
		"Meena,Gamma\n"
	store := &fakeStore{users: testRoster}
	res, err := newTestImporter(store, 100).ImportCustomersCSV(context.Background(), []byte(csv), testRoster, "mum")
	if err != nil {
		t.Fatal(err)
	}
	if res.Committed != 3 || res.RowsChecked != 3 {
		t.Fatalf("unexpected result %+v", res)
	}
	got := store.customerBatches[0]
	if got[0].Name != `"A" Grade Mills` || got[1].Name != "Beta" || got[2].Name != "Gamma" || got[2].SalesPersonID != "2" {
		t.Fatalf("unexpected records %+v", got)
	}
}
