package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aussiebroadwan/invoicely/internal/authgw/domain"
	"github.com/aussiebroadwan/invoicely/internal/authgw/store"
	"github.com/aussiebroadwan/invoicely/pkg/idx"
)

type devicesRepo struct {
	pool *pgxpool.Pool
}

const deviceColumns = `id, user_id, device_id, device_name, user_agent, created_at, expires_at, last_used_at`

func (r *devicesRepo) UpsertDevice(ctx context.Context, d domain.DeviceRecord) error {
	if d.ID == "" {
		d.ID = idx.NewAt(d.CreatedAt).String()
	}

	_, err := r.pool.Exec(ctx, `
		INSERT INTO user_devices (`+deviceColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (user_id, device_id) DO UPDATE SET
			device_name  = EXCLUDED.device_name,
			user_agent   = EXCLUDED.user_agent,
			expires_at   = EXCLUDED.expires_at,
			last_used_at = EXCLUDED.last_used_at`,
		d.ID, d.UserID, d.DeviceID, d.DeviceName, d.UserAgent,
		d.CreatedAt.UTC(), d.ExpiresAt.UTC(), d.LastUsedAt,
	)
	return err
}

func (r *devicesRepo) GetDevice(ctx context.Context, userID, deviceID string) (domain.DeviceRecord, error) {
	var d domain.DeviceRecord
	err := r.pool.QueryRow(ctx,
		`SELECT `+deviceColumns+` FROM user_devices WHERE user_id = $1 AND device_id = $2`,
		userID, deviceID,
	).Scan(&d.ID, &d.UserID, &d.DeviceID, &d.DeviceName, &d.UserAgent, &d.CreatedAt, &d.ExpiresAt, &d.LastUsedAt)
	if err != nil {
		return domain.DeviceRecord{}, mapNotFound(err)
	}
	return d, nil
}

func (r *devicesRepo) TouchDevice(ctx context.Context, userID, deviceID string, at time.Time) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE user_devices SET last_used_at = $1 WHERE user_id = $2 AND device_id = $3`,
		at.UTC(), userID, deviceID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *devicesRepo) DeleteDevice(ctx context.Context, userID, deviceID string) error {
	_, err := r.pool.Exec(ctx,
		`DELETE FROM user_devices WHERE user_id = $1 AND device_id = $2`,
		userID, deviceID,
	)
	return err
}

func (r *devicesRepo) DeleteExpiredDevices(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM user_devices WHERE expires_at < $1`, cutoff.UTC())
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
