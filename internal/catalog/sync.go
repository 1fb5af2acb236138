package catalog

import (
	"context"
	"log"
	"sync"
	"time"

	"orderdesk/internal"
	"orderdesk/internal/metrics"
)

type RowSource interface {
	ListItemRows(ctx context.Context) ([]map[string]any, error)
}

// Service keeps the flattened catalog in memory. Snapshot and Index may be
// called concurrently with Load.
type Service struct {
	src      RowSource
	metrics  *metrics.Registry
	infoLog  *log.Logger
	errorLog *log.Logger

	mu       sync.RWMutex
	items    []internal.CatalogItem
	index    *Index
	loadedAt time.Time
}

func NewService(src RowSource, m *metrics.Registry, infoLog, errorLog *log.Logger) *Service {
	return &Service{
		src:      src,
		metrics:  m,
		infoLog:  infoLog,
		errorLog: errorLog,
		index:    BuildIndex(nil),
	}
}

// Load re-reads the items table. A read failure leaves an empty catalog
// rather than failing the caller.
func (s *Service) Load(ctx context.Context) int {
	rows, err := s.src.ListItemRows(ctx)
	if err != nil {
		s.errorLog.Println("catalog load:", &internal.RemoteReadError{Op: "items_new", Err: err})
		rows = nil
	}

	items := FlattenRows(rows)
	idx := BuildIndex(items)

	s.mu.Lock()
	s.items = items
	s.index = idx
	s.loadedAt = time.Now().UTC()
	s.mu.Unlock()

	s.metrics.SetCatalogSize(len(items))
	if len(rows) > 0 && len(items) == 0 {
		s.infoLog.Printf("catalog load: %d rows but no item columns recognised", len(rows))
	} else {
		s.infoLog.Printf("catalog load: %d rows, %d items across %d categories", len(rows), len(items), len(idx.ByCategory))
	}
	return len(items)
}

func (s *Service) Snapshot() []internal.CatalogItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.items
}

func (s *Service) Index() *Index {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index
}

func (s *Service) LoadedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loadedAt
}
