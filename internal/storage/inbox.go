package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// InboxMessage is a rendered notification addressed to one user.
type InboxMessage struct {
	ID          string
	UserID      int64
	Kind        string
	FeeID       int64
	Title       string
	Body        string
	ScheduledAt time.Time
	Read        bool
	CreatedAt   time.Time
}

// SaveInboxMessages stores a batch atomically. Re-delivered batches are
// absorbed by the primary key, so consuming the same message twice is safe.
func (r *SQLiteRepository) SaveInboxMessages(ctx context.Context, msgs []InboxMessage) error {
	if len(msgs) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin inbox tx: %w", err)
	}
	defer tx.Rollback()

	for _, m := range msgs {
		_, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO inbox (id, user_id, kind, fee_id, title, body, scheduled_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			m.ID, m.UserID, m.Kind, m.FeeID, m.Title, m.Body, encodeTime(m.ScheduledAt))
		if err != nil {
			return fmt.Errorf("insert inbox message %s: %w", m.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit inbox tx: %w", err)
	}
	return nil
}

// InboxFor lists a user's messages, newest first.
func (r *SQLiteRepository) InboxFor(ctx context.Context, userID int64, limit int) ([]InboxMessage, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, kind, fee_id, title, body, scheduled_at, read, created_at
		 FROM inbox WHERE user_id = ? ORDER BY created_at DESC, id LIMIT ?`,
		userID, limit)
	if err != nil {
		return nil, fmt.Errorf("query inbox: %w", err)
	}
	defer rows.Close()

	var msgs []InboxMessage
	for rows.Next() {
		var (
			m           InboxMessage
			scheduledAt string
			createdAt   string
		)
		if err := rows.Scan(&m.ID, &m.UserID, &m.Kind, &m.FeeID, &m.Title, &m.Body, &scheduledAt, &m.Read, &createdAt); err != nil {
			return nil, fmt.Errorf("scan inbox message: %w", err)
		}
		if m.ScheduledAt, err = parseTime(scheduledAt); err != nil {
			return nil, fmt.Errorf("parse scheduled_at: %w", err)
		}
		if m.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, fmt.Errorf("parse created_at: %w", err)
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

// MarkInboxRead flips one message to read.
func (r *SQLiteRepository) MarkInboxRead(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE inbox SET read = 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("mark inbox read: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark inbox read rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("inbox message %s: %w", id, sql.ErrNoRows)
	}
	return nil
}
