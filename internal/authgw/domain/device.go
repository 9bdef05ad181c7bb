package domain

import "time"

// DefaultDeviceTrustTTL bounds how long a remembered device skips MFA.
const DefaultDeviceTrustTTL = 30 * 24 * time.Hour

// DeviceToken is the locally cached "this device is trusted for this user" marker.
type DeviceToken struct {
	UserID    string    `json:"user_id"`
	DeviceID  string    `json:"device_id"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (t DeviceToken) Expired(now time.Time) bool { return now.After(t.ExpiresAt) }

// Same reports whether o is the same token, ignoring time zone.
func (t DeviceToken) Same(o DeviceToken) bool {
	return t.UserID == o.UserID && t.DeviceID == o.DeviceID && t.ExpiresAt.Equal(o.ExpiresAt)
}

// DeviceRecord is the authoritative server-side trust record, unique per
// (UserID, DeviceID).
type DeviceRecord struct {
	ID         string
	UserID     string
	DeviceID   string
	DeviceName string
	UserAgent  string
	CreatedAt  time.Time
	ExpiresAt  time.Time
	LastUsedAt *time.Time
}

func (r DeviceRecord) Expired(now time.Time) bool { return now.After(r.ExpiresAt) }
