package repository

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"aquifer-sync-server/internal/domain"

	"github.com/go-kivik/kivik/v4"
)

// IdentityMap maps a (kind, deviceId, localId) triple to the canonical
// server-issued record id, exactly once per triple.
type IdentityMap interface {
	// Resolve returns the canonical record id for the triple, or ErrNotFound
	// if no record has been created from it yet.
	Resolve(ctx context.Context, kind domain.RecordKind, deviceID, localID string) (string, error)
	// Reserve claims the triple for a newly created record. A concurrent
	// reservation of the same triple fails with ErrIdentityTaken, which is
	// what makes retried pushes idempotent: CouchDB rejects a second write
	// to the deterministic mapping document id.
	Reserve(ctx context.Context, kind domain.RecordKind, deviceID, localID, recordID string) error
}

type identityDoc struct {
	RecordID   string    `json:"record_id"`
	RecordType string    `json:"record_type"`
	DeviceID   string    `json:"device_id"`
	LocalID    string    `json:"local_id"`
	CreatedAt  time.Time `json:"created_at"`
}

type identityMap struct {
	client *kivik.Client
	dbName string
}

func NewIdentityMap(client *kivik.Client, dbName string) IdentityMap {
	return &identityMap{
		client: client,
		dbName: dbName,
	}
}

func identityDocID(kind domain.RecordKind, deviceID, localID string) string {
	return fmt.Sprintf("identity:%s:%s:%s", kind, deviceID, localID)
}

func (m *identityMap) Resolve(ctx context.Context, kind domain.RecordKind, deviceID, localID string) (string, error) {
	db := m.client.DB(m.dbName)

	var doc identityDoc
	row := db.Get(ctx, identityDocID(kind, deviceID, localID))
	if err := row.ScanDoc(&doc); err != nil {
		if kivik.HTTPStatus(err) == http.StatusNotFound {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("failed to resolve identity: %w", err)
	}

	return doc.RecordID, nil
}

func (m *identityMap) Reserve(ctx context.Context, kind domain.RecordKind, deviceID, localID, recordID string) error {
	db := m.client.DB(m.dbName)

	doc := identityDoc{
		RecordID:   recordID,
		RecordType: string(kind),
		DeviceID:   deviceID,
		LocalID:    localID,
		CreatedAt:  time.Now().UTC(),
	}

	_, err := db.Put(ctx, identityDocID(kind, deviceID, localID), doc)
	if err != nil {
		if kivik.HTTPStatus(err) == http.StatusConflict {
			return ErrIdentityTaken
		}
		return fmt.Errorf("failed to reserve identity: %w", err)
	}

	return nil
}
