package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/aussiebroadwan/invoicely/internal/authgw/domain"
	"github.com/aussiebroadwan/invoicely/pkg/idx"
)

type devicesRepo struct {
	db *sql.DB
}

const deviceColumns = `id, user_id, device_id, device_name, user_agent, created_at, expires_at, last_used_at`

func (r *devicesRepo) UpsertDevice(ctx context.Context, d domain.DeviceRecord) error {
	if d.ID == "" {
		d.ID = idx.NewAt(d.CreatedAt).String()
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO user_devices (`+deviceColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id, device_id) DO UPDATE SET
			device_name  = excluded.device_name,
			user_agent   = excluded.user_agent,
			expires_at   = excluded.expires_at,
			last_used_at = excluded.last_used_at`,
		d.ID, d.UserID, d.DeviceID, d.DeviceName, d.UserAgent,
		toMillis(d.CreatedAt), toMillis(d.ExpiresAt), mapOptionalMillis(d.LastUsedAt),
	)
	return err
}

func (r *devicesRepo) GetDevice(ctx context.Context, userID, deviceID string) (domain.DeviceRecord, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+deviceColumns+` FROM user_devices WHERE user_id = ? AND device_id = ?`,
		userID, deviceID,
	)

	var (
		d                    domain.DeviceRecord
		createdAt, expiresAt int64
		lastUsedAt           sql.NullInt64
	)
	if err := row.Scan(&d.ID, &d.UserID, &d.DeviceID, &d.DeviceName, &d.UserAgent, &createdAt, &expiresAt, &lastUsedAt); err != nil {
		return domain.DeviceRecord{}, mapNotFound(err)
	}

	d.CreatedAt = fromMillis(createdAt)
	d.ExpiresAt = fromMillis(expiresAt)
	d.LastUsedAt = mapNullMillisPtr(lastUsedAt)
	return d, nil
}

func (r *devicesRepo) TouchDevice(ctx context.Context, userID, deviceID string, at time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE user_devices SET last_used_at = ? WHERE user_id = ? AND device_id = ?`,
		toMillis(at), userID, deviceID,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return mapNotFound(sql.ErrNoRows)
	}
	return nil
}

func (r *devicesRepo) DeleteDevice(ctx context.Context, userID, deviceID string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM user_devices WHERE user_id = ? AND device_id = ?`,
		userID, deviceID,
	)
	return err
}

func (r *devicesRepo) DeleteExpiredDevices(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM user_devices WHERE expires_at < ?`, toMillis(cutoff))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
