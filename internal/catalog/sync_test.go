package catalog

import (
	"context"
	"errors"
	"io"
	"log"
	"testing"
)

type fakeRows struct {
	rows []map[string]any
	err  error
}

func (f fakeRows) ListItemRows(context.Context) ([]map[string]any, error) {
	return f.rows, f.err
}

func discard() *log.Logger { return log.New(io.Discard, "", 0) }

func TestServiceLoad(t *testing.T) {
	svc := NewService(fakeRows{rows: []map[string]any{{"id": int64(1), "cku": "Tape", "tlu": "Loop"}}}, nil, discard(), discard())
	if n := svc.Load(context.Background()); n != 2 {
		t.Fatalf("n=%d", n)
	}
	if len(svc.Snapshot()) != 2 {
		t.Fatalf("snapshot len=%d", len(svc.Snapshot()))
	}
	if _, ok := svc.Index().Resolve("tape", "CKU"); !ok {
		t.Fatalf("index not rebuilt")
	}
	if svc.LoadedAt().IsZero() {
		t.Fatalf("loadedAt not set")
	}
}

func TestServiceLoadDegradesOnReadError(t *testing.T) {
	svc := NewService(fakeRows{rows: []map[string]any{{"id": int64(1), "cku": "Tape"}}}, nil, discard(), discard())
	svc.Load(context.Background())

	svc.src = fakeRows{err: errors.New("connection refused")}
	if n := svc.Load(context.Background()); n != 0 {
		t.Fatalf("n=%d", n)
	}
	if len(svc.Snapshot()) != 0 {
		t.Fatalf("expected empty catalog after failed read")
	}
}
