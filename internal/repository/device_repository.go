package repository

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"aquifer-sync-server/internal/domain"

	"github.com/go-kivik/kivik/v4"
)

type DeviceRepository interface {
	Create(ctx context.Context, device *domain.Device) error
	List(ctx context.Context, userID string) ([]*domain.Device, error)
	FindByID(ctx context.Context, deviceID string) (*domain.Device, error)
	Revoke(ctx context.Context, deviceID string) error
	UpdateLastSeen(ctx context.Context, deviceID string, at time.Time) error
}

type deviceRepository struct {
	client *kivik.Client
	dbName string
}

func NewDeviceRepository(client *kivik.Client, dbName string) DeviceRepository {
	return &deviceRepository{
		client: client,
		dbName: dbName,
	}
}

func deviceDocID(id string) string {
	return fmt.Sprintf("device:%s", id)
}

func (r *deviceRepository) Create(ctx context.Context, device *domain.Device) error {
	db := r.client.DB(r.dbName)

	if _, err := db.Put(ctx, deviceDocID(device.ID), device); err != nil {
		return fmt.Errorf("failed to create device: %w", err)
	}

	return nil
}

func (r *deviceRepository) List(ctx context.Context, userID string) ([]*domain.Device, error) {
	db := r.client.DB(r.dbName)

	query := map[string]interface{}{
		"selector": map[string]interface{}{
			"user_id":  userID,
			"platform": map[string]interface{}{"$exists": true},
		},
	}

	rows := db.Find(ctx, query)
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list devices: %w", err)
	}
	defer rows.Close()

	var devices []*domain.Device
	for rows.Next() {
		var d domain.Device
		if err := rows.ScanDoc(&d); err != nil {
			continue
		}
		devices = append(devices, &d)
	}

	return devices, nil
}

func (r *deviceRepository) FindByID(ctx context.Context, deviceID string) (*domain.Device, error) {
	db := r.client.DB(r.dbName)

	var device domain.Device
	row := db.Get(ctx, deviceDocID(deviceID))
	if err := row.ScanDoc(&device); err != nil {
		if kivik.HTTPStatus(err) == http.StatusNotFound {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to find device: %w", err)
	}

	return &device, nil
}

func (r *deviceRepository) setField(ctx context.Context, deviceID string, mutate func(map[string]interface{})) error {
	db := r.client.DB(r.dbName)
	docID := deviceDocID(deviceID)

	var existing map[string]interface{}
	row := db.Get(ctx, docID)
	if err := row.ScanDoc(&existing); err != nil {
		if kivik.HTTPStatus(err) == http.StatusNotFound {
			return ErrNotFound
		}
		return fmt.Errorf("failed to fetch device: %w", err)
	}

	mutate(existing)

	if _, err := db.Put(ctx, docID, existing); err != nil {
		return fmt.Errorf("failed to update device: %w", err)
	}

	return nil
}

func (r *deviceRepository) Revoke(ctx context.Context, deviceID string) error {
	return r.setField(ctx, deviceID, func(doc map[string]interface{}) {
		doc["is_revoked"] = true
	})
}

func (r *deviceRepository) UpdateLastSeen(ctx context.Context, deviceID string, at time.Time) error {
	return r.setField(ctx, deviceID, func(doc map[string]interface{}) {
		doc["last_seen"] = at.UTC()
	})
}
