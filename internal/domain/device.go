package domain

import "time"

// Device is a registered field client. Its ID is the deviceId scoping every
// localId the client generates while offline.
type Device struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	Name       string    `json:"name"`
	Platform   string    `json:"platform"`
	AppVersion string    `json:"app_version"`
	LastSeen   time.Time `json:"last_seen"`
	CreatedAt  time.Time `json:"created_at"`
	IsRevoked  bool      `json:"is_revoked"`
}

type RegisterDeviceRequest struct {
	Name       string `json:"name" validate:"required"`
	Platform   string `json:"platform" validate:"required"`
	AppVersion string `json:"app_version" validate:"required"`
}

type DeviceResponse struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Platform   string    `json:"platform"`
	AppVersion string    `json:"app_version"`
	LastSeen   time.Time `json:"last_seen"`
	IsRevoked  bool      `json:"is_revoked"`
}
