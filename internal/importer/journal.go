package importer

import (
	"context"
	"time"

	"orderdesk/internal"
)

// Journal keeps small key/value markers next to the order history.
type Journal interface {
	SetMetadata(ctx context.Context, key, value string) error
	GetMetadata(ctx context.Context, key string) (*string, error)
}

func lastImportKey(kind internal.ImportKind) string {
	return "last_import_" + string(kind)
}

func (im *Importer) recordImport(ctx context.Context, kind internal.ImportKind) {
	if im.journal == nil {
		return
	}
	if err := im.journal.SetMetadata(ctx, lastImportKey(kind), im.now().UTC().Format(time.RFC3339)); err != nil {
		im.errorLog.Printf("%s import: journal: %v", kind, err)
	}
}

// LastImport reports when an import of kind last committed rows. The zero
// time means never, or no journal is configured.
func (im *Importer) LastImport(ctx context.Context, kind internal.ImportKind) time.Time {
	if im.journal == nil {
		return time.Time{}
	}
	v, err := im.journal.GetMetadata(ctx, lastImportKey(kind))
	if err != nil {
		im.errorLog.Printf("%s import: journal: %v", kind, err)
		return time.Time{}
	}
	if v == nil {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, *v)
	if err != nil {
		return time.Time{}
	}
	return t
}
