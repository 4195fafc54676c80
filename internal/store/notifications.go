package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/enkou97/ses-job-crawler/internal/model"
)

// NotificationStore appends to the delivery audit log. Rows are never
// updated or deleted.
type NotificationStore struct {
	pool *pgxpool.Pool
}

// NewNotificationStore returns a NotificationStore backed by pool.
func NewNotificationStore(pool *pgxpool.Pool) *NotificationStore {
	return &NotificationStore{pool: pool}
}

// Append inserts one audit row per record in a single batch round trip.
func (s *NotificationStore) Append(ctx context.Context, records []model.NotificationRecord) error {
	if len(records) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, r := range records {
		batch.Queue(
			`INSERT INTO notifications (job_id, channel, sent_at) VALUES ($1, $2, $3)`,
			r.JobID, r.Channel, r.SentAt)
	}

	results := s.pool.SendBatch(ctx, batch)
	defer results.Close()

	for range records {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("append notification record: %w", err)
		}
	}
	return nil
}

// SentSince returns audit rows written at or after the given time, oldest
// first.
func (s *NotificationStore) SentSince(ctx context.Context, since time.Time) ([]model.NotificationRecord, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, job_id, channel, sent_at FROM notifications
		 WHERE sent_at >= $1 ORDER BY sent_at`,
		since)
	if err != nil {
		return nil, fmt.Errorf("sentSince: %w", err)
	}
	defer rows.Close()

	var records []model.NotificationRecord
	for rows.Next() {
		var r model.NotificationRecord
		if err := rows.Scan(&r.ID, &r.JobID, &r.Channel, &r.SentAt); err != nil {
			return nil, fmt.Errorf("sentSince scan: %w", err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}
