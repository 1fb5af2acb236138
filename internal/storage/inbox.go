package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"orderdesk/internal"
)

const emailColumns = `id, provider, messageId, subject, sender, receivedAt, hash, status, rawRef`

func scanEmail(s interface{ Scan(...any) error }) (internal.EmailRow, error) {
	var row internal.EmailRow
	var subject, sender, received sql.NullString
	err := s.Scan(&row.ID, &row.Provider, &row.MessageID, &subject, &sender, &received, &row.Hash, &row.Status, &row.RawRef)
	row.Subject = subject.String
	row.Sender = sender.String
	row.ReceivedAt = received.String
	return row, err
}

// UpsertEmail records a fetched message. A message seen before keeps its
// status.
func (d *DB) UpsertEmail(ctx context.Context, msg internal.FetchedMailMessage, hash, rawRef string) (internal.EmailRow, error) {
	_, err := d.conn.ExecContext(ctx, `
INSERT INTO inbox_emails (provider, messageId, subject, sender, receivedAt, hash, status, rawRef)
VALUES (?, ?, ?, ?, ?, ?, 'fetched', ?)
ON CONFLICT(provider, messageId) DO UPDATE SET
  subject=excluded.subject,
  sender=excluded.sender,
  receivedAt=excluded.receivedAt,
  hash=excluded.hash,
  rawRef=excluded.rawRef,
  updatedAt=CURRENT_TIMESTAMP
`, msg.Provider, msg.MessageID, msg.Subject, msg.From, msg.ReceivedAt, hash, rawRef)
	if err != nil {
		return internal.EmailRow{}, err
	}

	row, err := d.GetEmailByProviderMessageID(ctx, msg.Provider, msg.MessageID)
	if err != nil {
		return internal.EmailRow{}, err
	}
	if row == nil {
		return internal.EmailRow{}, errors.New("failed to upsert email")
	}
	return *row, nil
}

func (d *DB) GetEmailByProviderMessageID(ctx context.Context, provider, messageID string) (*internal.EmailRow, error) {
	row, err := scanEmail(d.conn.QueryRowContext(ctx, `SELECT `+emailColumns+` FROM inbox_emails WHERE provider = ? AND messageId = ?`, provider, messageID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (d *DB) GetEmailByID(ctx context.Context, id int) (*internal.EmailRow, error) {
	row, err := scanEmail(d.conn.QueryRowContext(ctx, `SELECT `+emailColumns+` FROM inbox_emails WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (d *DB) MustEmailByProviderMessageID(ctx context.Context, provider, messageID string) (internal.EmailRow, error) {
	row, err := d.GetEmailByProviderMessageID(ctx, provider, messageID)
	if err != nil {
		return internal.EmailRow{}, err
	}
	if row == nil {
		return internal.EmailRow{}, fmt.Errorf("email not found: provider=%s messageId=%s", provider, messageID)
	}
	return *row, nil
}

func (d *DB) ListEmailsByStatus(ctx context.Context, status string, limit int) ([]internal.EmailRow, error) {
	rows, err := d.conn.QueryContext(ctx, `SELECT `+emailColumns+` FROM inbox_emails WHERE status = ? ORDER BY receivedAt ASC LIMIT ?`, status, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.EmailRow
	for rows.Next() {
		row, err := scanEmail(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (d *DB) UpdateEmailStatus(ctx context.Context, emailID int, status string) error {
	_, err := d.conn.ExecContext(ctx, `UPDATE inbox_emails SET status = ?, updatedAt = CURRENT_TIMESTAMP WHERE id = ?`, status, emailID)
	return err
}

// SaveDraft stores the order draft built from an e-mail, replacing an
// earlier draft of the same message.
func (d *DB) SaveDraft(ctx context.Context, draft internal.InboxDraft) error {
	blob, err := json.Marshal(draft)
	if err != nil {
		return err
	}
	matched := 0
	for _, l := range draft.Lines {
		if l.Status != internal.MatchNotFound {
			matched++
		}
	}
	_, err = d.conn.ExecContext(ctx, `
INSERT INTO inbox_drafts (emailId, draftJson, lineCount, matchedCount) VALUES (?, ?, ?, ?)
ON CONFLICT(emailId) DO UPDATE SET
  draftJson=excluded.draftJson,
  lineCount=excluded.lineCount,
  matchedCount=excluded.matchedCount,
  createdAt=CURRENT_TIMESTAMP
`, draft.EmailID, string(blob), len(draft.Lines), matched)
	return err
}

func (d *DB) GetDraft(ctx context.Context, emailID int) (*internal.InboxDraft, error) {
	var blob string
	err := d.conn.QueryRowContext(ctx, `SELECT draftJson FROM inbox_drafts WHERE emailId = ?`, emailID).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var draft internal.InboxDraft
	if err := json.Unmarshal([]byte(blob), &draft); err != nil {
		return nil, err
	}
	return &draft, nil
}

func (d *DB) DeleteDraft(ctx context.Context, emailID int) error {
	_, err := d.conn.ExecContext(ctx, `DELETE FROM inbox_drafts WHERE emailId = ?`, emailID)
	return err
}

func (d *DB) InsertRun(ctx context.Context, traceID string, emailID int, timings map[string]float64, counts map[string]int) error {
	timingsJSON, _ := json.Marshal(timings)
	countsJSON, _ := json.Marshal(counts)
	_, err := d.conn.ExecContext(ctx, `INSERT INTO runs (traceId, emailId, timingsJson, countsJson) VALUES (?, ?, ?, ?)`, traceID, emailID, string(timingsJSON), string(countsJSON))
	return err
}
