package repository

import (
	"context"
	"fmt"

	"aquifer-sync-server/internal/domain"

	"github.com/go-kivik/kivik/v4"
)

// SyncLogRepository is the append-only audit sink for push and pull calls.
type SyncLogRepository interface {
	Append(ctx context.Context, entry *domain.SyncLogEntry) error
	ListByUser(ctx context.Context, userID string) ([]*domain.SyncLogEntry, error)
}

type syncLogRepository struct {
	client *kivik.Client
	dbName string
}

func NewSyncLogRepository(client *kivik.Client, dbName string) SyncLogRepository {
	return &syncLogRepository{
		client: client,
		dbName: dbName,
	}
}

func (r *syncLogRepository) Append(ctx context.Context, entry *domain.SyncLogEntry) error {
	db := r.client.DB(r.dbName)

	docID := fmt.Sprintf("synclog:%s", entry.ID)
	if _, err := db.Put(ctx, docID, entry); err != nil {
		return fmt.Errorf("failed to append sync log entry: %w", err)
	}

	return nil
}

func (r *syncLogRepository) ListByUser(ctx context.Context, userID string) ([]*domain.SyncLogEntry, error) {
	db := r.client.DB(r.dbName)

	query := map[string]interface{}{
		"selector": map[string]interface{}{
			"user_id":   userID,
			"operation": map[string]interface{}{"$exists": true},
		},
	}

	rows := db.Find(ctx, query)
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list sync log: %w", err)
	}
	defer rows.Close()

	var entries []*domain.SyncLogEntry
	for rows.Next() {
		var e domain.SyncLogEntry
		if err := rows.ScanDoc(&e); err != nil {
			continue
		}
		entries = append(entries, &e)
	}

	return entries, nil
}
