package repository

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"aquifer-sync-server/internal/domain"

	"github.com/go-kivik/kivik/v4"
)

type ConflictRepository interface {
	Create(ctx context.Context, conflict *domain.Conflict) error
	Get(ctx context.Context, conflictID string) (*domain.Conflict, error)
	// LatestForRecord returns the most recently detected conflict for the
	// record, resolved or not, or ErrNotFound.
	LatestForRecord(ctx context.Context, kind domain.RecordKind, recordID string) (*domain.Conflict, error)
	ListOpenByUser(ctx context.Context, userID string) ([]*domain.Conflict, error)
	MarkResolved(ctx context.Context, conflictID string, resolution domain.Resolution, at time.Time) error
}

type conflictRepository struct {
	client *kivik.Client
	dbName string
}

func NewConflictRepository(client *kivik.Client, dbName string) ConflictRepository {
	return &conflictRepository{
		client: client,
		dbName: dbName,
	}
}

func conflictDocID(id string) string {
	return fmt.Sprintf("conflict:%s", id)
}

func (r *conflictRepository) Create(ctx context.Context, conflict *domain.Conflict) error {
	db := r.client.DB(r.dbName)

	if _, err := db.Put(ctx, conflictDocID(conflict.ID), conflict); err != nil {
		return fmt.Errorf("failed to create conflict: %w", err)
	}

	return nil
}

func (r *conflictRepository) Get(ctx context.Context, conflictID string) (*domain.Conflict, error) {
	db := r.client.DB(r.dbName)

	var conflict domain.Conflict
	row := db.Get(ctx, conflictDocID(conflictID))
	if err := row.ScanDoc(&conflict); err != nil {
		if kivik.HTTPStatus(err) == http.StatusNotFound {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to find conflict: %w", err)
	}

	return &conflict, nil
}

func (r *conflictRepository) LatestForRecord(ctx context.Context, kind domain.RecordKind, recordID string) (*domain.Conflict, error) {
	db := r.client.DB(r.dbName)

	query := map[string]interface{}{
		"selector": map[string]interface{}{
			"record_type": string(kind),
			"record_id":   recordID,
			"detected_at": map[string]interface{}{"$exists": true},
		},
	}

	rows := db.Find(ctx, query)
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to query conflicts: %w", err)
	}
	defer rows.Close()

	var latest *domain.Conflict
	for rows.Next() {
		var c domain.Conflict
		if err := rows.ScanDoc(&c); err != nil {
			continue
		}
		if latest == nil || c.DetectedAt.After(latest.DetectedAt) {
			conflict := c
			latest = &conflict
		}
	}

	if latest == nil {
		return nil, ErrNotFound
	}

	return latest, nil
}

func (r *conflictRepository) ListOpenByUser(ctx context.Context, userID string) ([]*domain.Conflict, error) {
	db := r.client.DB(r.dbName)

	query := map[string]interface{}{
		"selector": map[string]interface{}{
			"user_id":     userID,
			"detected_at": map[string]interface{}{"$exists": true},
			"resolved_at": map[string]interface{}{"$exists": false},
		},
	}

	rows := db.Find(ctx, query)
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list conflicts: %w", err)
	}
	defer rows.Close()

	var conflicts []*domain.Conflict
	for rows.Next() {
		var c domain.Conflict
		if err := rows.ScanDoc(&c); err != nil {
			continue
		}
		conflicts = append(conflicts, &c)
	}

	return conflicts, nil
}

func (r *conflictRepository) MarkResolved(ctx context.Context, conflictID string, resolution domain.Resolution, at time.Time) error {
	db := r.client.DB(r.dbName)
	docID := conflictDocID(conflictID)

	var existing map[string]interface{}
	row := db.Get(ctx, docID)
	if err := row.ScanDoc(&existing); err != nil {
		if kivik.HTTPStatus(err) == http.StatusNotFound {
			return ErrNotFound
		}
		return fmt.Errorf("failed to fetch conflict for resolution: %w", err)
	}

	existing["resolved_at"] = at.UTC()
	existing["resolution"] = string(resolution)

	if _, err := db.Put(ctx, docID, existing); err != nil {
		return fmt.Errorf("failed to mark conflict resolved: %w", err)
	}

	return nil
}
