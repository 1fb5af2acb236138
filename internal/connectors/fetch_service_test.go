package connectors

import (
	"context"
	"os"
	"testing"

	"orderdesk/internal"
	"orderdesk/internal/config"
)

type stubConnector struct {
	msgs  []internal.FetchedMailMessage
	label string
}

func (c *stubConnector) FetchInbox(_ context.Context, label string, max int) ([]internal.FetchedMailMessage, error) {
	c.label = label
	if len(c.msgs) > max {
		return c.msgs[:max], nil
	}
	return c.msgs, nil
}

type memStore struct {
	rows map[string]internal.EmailRow
}

func (m *memStore) UpsertEmail(_ context.Context, msg internal.FetchedMailMessage, hash, rawRef string) (internal.EmailRow, error) {
	key := msg.Provider + "|" + msg.MessageID
	row, ok := m.rows[key]
	if !ok {
		row = internal.EmailRow{ID: len(m.rows) + 1, Status: "fetched"}
	}
	row.Provider, row.MessageID, row.Subject, row.Hash, row.RawRef = msg.Provider, msg.MessageID, msg.Subject, hash, rawRef
	m.rows[key] = row
	return row, nil
}

func TestFetchAndStoreWritesRawOnce(t *testing.T) {
	dir := t.TempDir()
	store := &memStore{rows: map[string]internal.EmailRow{}}
	conn := &stubConnector{msgs: []internal.FetchedMailMessage{
		{Provider: "imap", MessageID: "a", Subject: "PO 1", Raw: []byte("Subject: PO 1\r\n\r\nbody")},
		{Provider: "imap", MessageID: "b", Subject: "PO 2", Raw: []byte("Subject: PO 2\r\n\r\nbody")},
		{Provider: "imap", MessageID: "c", Subject: "PO 3", Raw: []byte("x")},
	}}
	svc := NewFetchService(store, dir, conn)

	res, err := svc.FetchAndStore(context.Background(), "Orders", 2)
	if err != nil {
		t.Fatal(err)
	}
	if res.Fetched != 2 || res.Stored != 2 || conn.label != "Orders" {
		t.Fatalf("unexpected %+v label=%q", res, conn.label)
	}

	if _, err := svc.FetchAndStore(context.Background(), "Orders", 2); err != nil {
		t.Fatal(err)
	}
	if len(store.rows) != 2 {
		t.Fatalf("rows=%d", len(store.rows))
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Fatalf("raw files=%d", len(entries))
	}
	row := store.rows["imap|a"]
	blob, err := os.ReadFile(row.RawRef)
	if err != nil || string(blob) != "Subject: PO 1\r\n\r\nbody" {
		t.Fatalf("raw=%q err=%v", blob, err)
	}
	if len(row.Hash) != 64 {
		t.Fatalf("hash=%q", row.Hash)
	}
}

func TestNewRejectsUnknownProvider(t *testing.T) {
	if _, err := New(context.Background(), configWithProvider("pop3")); err == nil {
		t.Fatal("expected error")
	}
}

func configWithProvider(p string) config.Config {
	return config.Config{InboxProvider: p}
}
