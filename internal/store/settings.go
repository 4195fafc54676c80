package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/enkou97/ses-job-crawler/internal/model"
)

const settingsColumns = `id, email_enabled, email_address, line_enabled, line_token,
	slack_enabled, slack_webhook_url, min_price_threshold, skills_filter,
	remote_only, notify_interval_hours, last_notified_at, created_at, updated_at`

func scanSettings(row rowScanner) (*model.NotificationSettings, error) {
	var ns model.NotificationSettings
	err := row.Scan(
		&ns.ID, &ns.EmailEnabled, &ns.EmailAddress, &ns.LineEnabled, &ns.LineToken,
		&ns.SlackEnabled, &ns.SlackWebhookURL, &ns.MinPriceThreshold, &ns.SkillsFilter,
		&ns.RemoteOnly, &ns.NotifyIntervalHours, &ns.LastNotifiedAt, &ns.CreatedAt, &ns.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &ns, nil
}

// SettingsStore provides access to the singleton notification_settings row.
type SettingsStore struct {
	pool *pgxpool.Pool
}

// NewSettingsStore returns a SettingsStore backed by pool.
func NewSettingsStore(pool *pgxpool.Pool) *SettingsStore {
	return &SettingsStore{pool: pool}
}

// GetOrCreate returns the settings row, inserting the defaults row on first
// use. Exactly one logical row exists; the oldest wins if the table somehow
// grows more.
func (s *SettingsStore) GetOrCreate(ctx context.Context) (*model.NotificationSettings, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+settingsColumns+` FROM notification_settings ORDER BY id LIMIT 1`)

	ns, err := scanSettings(row)
	if errors.Is(err, pgx.ErrNoRows) {
		row = s.pool.QueryRow(ctx,
			`INSERT INTO notification_settings DEFAULT VALUES RETURNING `+settingsColumns)
		ns, err = scanSettings(row)
		if err != nil {
			return nil, fmt.Errorf("create default settings: %w", err)
		}
		return ns, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get settings: %w", err)
	}
	return ns, nil
}

// Save writes the user-editable settings fields back by id. last_notified_at
// is deliberately not part of the column list: it belongs to the notification
// run and only moves through TouchLastNotified, so a settings update carrying
// a stale snapshot can never roll the watermark back.
func (s *SettingsStore) Save(ctx context.Context, ns *model.NotificationSettings) (*model.NotificationSettings, error) {
	row := s.pool.QueryRow(ctx,
		`UPDATE notification_settings SET
		   email_enabled = $2, email_address = $3,
		   line_enabled = $4, line_token = $5,
		   slack_enabled = $6, slack_webhook_url = $7,
		   min_price_threshold = $8, skills_filter = $9, remote_only = $10,
		   notify_interval_hours = $11,
		   updated_at = NOW()
		 WHERE id = $1
		 RETURNING `+settingsColumns,
		ns.ID, ns.EmailEnabled, ns.EmailAddress,
		ns.LineEnabled, ns.LineToken,
		ns.SlackEnabled, ns.SlackWebhookURL,
		ns.MinPriceThreshold, ns.SkillsFilter, ns.RemoteOnly,
		ns.NotifyIntervalHours,
	)

	saved, err := scanSettings(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("save settings: %w", err)
	}
	return saved, nil
}

// TouchLastNotified advances the watermark without touching any other column,
// so it cannot clobber a settings update that landed while a notification run
// was in flight.
func (s *SettingsStore) TouchLastNotified(ctx context.Context, id int64, t time.Time) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE notification_settings SET last_notified_at = $2, updated_at = NOW() WHERE id = $1`,
		id, t,
	)
	if err != nil {
		return fmt.Errorf("touch last_notified_at: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
