package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"aquifer-sync-server/internal/domain"

	"github.com/go-kivik/kivik/v4"
)

// RecordStore is the per-kind storage contract the sync engine runs against.
// One kivik-backed implementation exists; it is instantiated once per record
// kind so that push and pull contain no per-kind branching.
type RecordStore interface {
	Kind() domain.RecordKind
	FindByID(ctx context.Context, id string) (domain.Record, error)
	FindByDeviceLocalID(ctx context.Context, deviceID, localID string) (domain.Record, error)
	Create(ctx context.Context, rec domain.Record) error
	Update(ctx context.Context, rec domain.Record) error
	// ListChangedBetween returns every record of this kind owned by one of
	// the given projects with after < updated_at <= until.
	ListChangedBetween(ctx context.Context, projectIDs []string, after, until time.Time) ([]domain.Record, error)
}

type recordStore struct {
	client *kivik.Client
	dbName string
	kind   domain.RecordKind
}

func NewRecordStore(client *kivik.Client, dbName string, kind domain.RecordKind) RecordStore {
	return &recordStore{
		client: client,
		dbName: dbName,
		kind:   kind,
	}
}

// NewRecordStores builds one store per trackable kind, keyed by kind.
func NewRecordStores(client *kivik.Client, dbName string) map[domain.RecordKind]RecordStore {
	stores := make(map[domain.RecordKind]RecordStore, len(domain.Kinds))
	for _, kind := range domain.Kinds {
		stores[kind] = NewRecordStore(client, dbName, kind)
	}
	return stores
}

func (r *recordStore) Kind() domain.RecordKind { return r.kind }

func (r *recordStore) docID(id string) string {
	return fmt.Sprintf("%s:%s", r.kind, id)
}

func (r *recordStore) FindByID(ctx context.Context, id string) (domain.Record, error) {
	db := r.client.DB(r.dbName)

	rec := domain.NewRecord(r.kind)
	row := db.Get(ctx, r.docID(id))
	if err := row.ScanDoc(rec); err != nil {
		if kivik.HTTPStatus(err) == http.StatusNotFound {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to find %s: %w", r.kind, err)
	}

	return rec, nil
}

func (r *recordStore) FindByDeviceLocalID(ctx context.Context, deviceID, localID string) (domain.Record, error) {
	db := r.client.DB(r.dbName)

	query := map[string]interface{}{
		"selector": map[string]interface{}{
			"record_type": string(r.kind),
			"device_id":   deviceID,
			"local_id":    localID,
		},
		"limit": 1,
	}

	rows := db.Find(ctx, query)
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to query %s by device/local id: %w", r.kind, err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, ErrNotFound
	}

	rec := domain.NewRecord(r.kind)
	if err := rows.ScanDoc(rec); err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", r.kind, err)
	}

	return rec, nil
}

func (r *recordStore) Create(ctx context.Context, rec domain.Record) error {
	db := r.client.DB(r.dbName)

	rec.Meta().RecordType = string(r.kind)
	_, err := db.Put(ctx, r.docID(rec.Meta().ID), rec)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", r.kind, err)
	}

	return nil
}

func (r *recordStore) Update(ctx context.Context, rec domain.Record) error {
	db := r.client.DB(r.dbName)
	docID := r.docID(rec.Meta().ID)

	var existing map[string]interface{}
	row := db.Get(ctx, docID)
	if err := row.ScanDoc(&existing); err != nil {
		if kivik.HTTPStatus(err) == http.StatusNotFound {
			return ErrNotFound
		}
		return fmt.Errorf("failed to fetch %s for update: %w", r.kind, err)
	}

	doc, err := toDoc(rec)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", r.kind, err)
	}
	doc["_id"] = docID
	doc["_rev"] = existing["_rev"]
	doc["record_type"] = string(r.kind)

	if _, err := db.Put(ctx, docID, doc); err != nil {
		return fmt.Errorf("failed to update %s: %w", r.kind, err)
	}

	return nil
}

func (r *recordStore) ListChangedBetween(ctx context.Context, projectIDs []string, after, until time.Time) ([]domain.Record, error) {
	if len(projectIDs) == 0 {
		return nil, nil
	}

	db := r.client.DB(r.dbName)

	updated := map[string]interface{}{
		"$lte": until.UTC().Format(time.RFC3339Nano),
	}
	if !after.IsZero() {
		updated["$gt"] = after.UTC().Format(time.RFC3339Nano)
	}

	query := map[string]interface{}{
		"selector": map[string]interface{}{
			"record_type": string(r.kind),
			"project_id":  map[string]interface{}{"$in": projectIDs},
			"updated_at":  updated,
		},
	}

	rows := db.Find(ctx, query)
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list changed %s: %w", r.kind, err)
	}
	defer rows.Close()

	var records []domain.Record
	for rows.Next() {
		rec := domain.NewRecord(r.kind)
		if err := rows.ScanDoc(rec); err != nil {
			continue
		}
		records = append(records, rec)
	}

	return records, nil
}

// toDoc round-trips a value through JSON so the update path can attach
// CouchDB bookkeeping fields without per-kind knowledge.
func toDoc(v interface{}) (map[string]interface{}, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}

	var doc map[string]interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}

	return doc, nil
}
