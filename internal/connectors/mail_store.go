package connectors

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"

	"orderdesk/internal"
)

type EmailStore interface {
	UpsertEmail(ctx context.Context, msg internal.FetchedMailMessage, hash, rawRef string) (internal.EmailRow, error)
}

// MailStoreService keeps each raw message on disk under its content hash
// and records it in the inbox table.
type MailStoreService struct {
	db         EmailStore
	rawMailDir string
}

func NewMailStoreService(db EmailStore, rawMailDir string) *MailStoreService {
	return &MailStoreService{db: db, rawMailDir: rawMailDir}
}

func (s *MailStoreService) Store(ctx context.Context, msg internal.FetchedMailMessage) (internal.EmailRow, error) {
	sum := sha256.Sum256(msg.Raw)
	hash := hex.EncodeToString(sum[:])

	if err := os.MkdirAll(s.rawMailDir, 0o755); err != nil {
		return internal.EmailRow{}, err
	}

	rawPath := filepath.Join(s.rawMailDir, hash+".eml")
	if _, err := os.Stat(rawPath); os.IsNotExist(err) {
		if err := os.WriteFile(rawPath, msg.Raw, 0o644); err != nil {
			return internal.EmailRow{}, err
		}
	}

	return s.db.UpsertEmail(ctx, msg, hash, rawPath)
}
