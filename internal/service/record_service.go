package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"aquifer-sync-server/internal/domain"
	"aquifer-sync-server/internal/repository"

	"github.com/google/uuid"
)

// RecordService is the server-side editing path: records created or updated
// here get server-stamped updatedAt values, because the sync engine treats
// them like any other write when detecting stale pushes from devices.
type RecordService struct {
	stores map[domain.RecordKind]repository.RecordStore
	now    func() time.Time
}

func NewRecordService(stores map[domain.RecordKind]repository.RecordStore) *RecordService {
	return &RecordService{
		stores: stores,
		now:    time.Now,
	}
}

func (s *RecordService) Create(ctx context.Context, user *domain.User, kind domain.RecordKind, data json.RawMessage) (domain.Record, error) {
	if !kind.Valid() {
		return nil, ErrUnknownEntityType
	}

	rec, err := domain.DecodeRecord(kind, data)
	if err != nil {
		return nil, err
	}

	if !user.CanAccessProject(rec.Meta().ProjectID) {
		return nil, ErrAccessDenied
	}

	now := s.now().UTC()
	meta := rec.Meta()
	meta.ID = uuid.New().String()
	meta.LocalID = ""
	meta.DeviceID = ""
	meta.CreatedBy = user.ID
	meta.CreatedAt = now
	meta.UpdatedAt = now

	if err := s.stores[kind].Create(ctx, rec); err != nil {
		return nil, err
	}

	return rec, nil
}

func (s *RecordService) Get(ctx context.Context, user *domain.User, kind domain.RecordKind, id string) (domain.Record, error) {
	if !kind.Valid() {
		return nil, ErrUnknownEntityType
	}

	rec, err := s.stores[kind].FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if !user.CanAccessProject(rec.Meta().ProjectID) {
		return nil, ErrAccessDenied
	}

	return rec, nil
}

// List returns every record of the kind in the given project, or in all of
// the caller's projects when projectID is empty.
func (s *RecordService) List(ctx context.Context, user *domain.User, kind domain.RecordKind, projectID string) ([]domain.Record, error) {
	if !kind.Valid() {
		return nil, ErrUnknownEntityType
	}

	projects := user.ProjectIDs
	if projectID != "" {
		if !user.CanAccessProject(projectID) {
			return nil, ErrAccessDenied
		}
		projects = []string{projectID}
	}

	records, err := s.stores[kind].ListChangedBetween(ctx, projects, time.Time{}, s.now().UTC())
	if err != nil {
		return nil, err
	}
	if records == nil {
		records = []domain.Record{}
	}

	return records, nil
}

// Update applies a server-side edit unconditionally and re-stamps updatedAt.
func (s *RecordService) Update(ctx context.Context, user *domain.User, kind domain.RecordKind, id string, data json.RawMessage) (domain.Record, error) {
	existing, err := s.Get(ctx, user, kind, id)
	if err != nil {
		return nil, err
	}

	merged, err := applyPayload(existing, data)
	if err != nil {
		return nil, err
	}
	merged.Meta().UpdatedAt = s.now().UTC()

	if err := s.stores[kind].Update(ctx, merged); err != nil {
		return nil, err
	}

	return merged, nil
}
