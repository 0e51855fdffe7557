package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"aquifer-sync-server/internal/domain"
	"aquifer-sync-server/internal/logging"
	"aquifer-sync-server/internal/repository"

	"github.com/google/uuid"
)

// EvalOutcome is the conflict detector's verdict for one incoming mutation.
type EvalOutcome int

const (
	ApplyClean EvalOutcome = iota
	ConflictStale
)

// ConflictService detects stale writes during push and applies explicit
// resolution decisions afterwards.
type ConflictService struct {
	stores    map[domain.RecordKind]repository.RecordStore
	conflicts repository.ConflictRepository
	log       logging.Logger
	now       func() time.Time
}

func NewConflictService(
	stores map[domain.RecordKind]repository.RecordStore,
	conflicts repository.ConflictRepository,
	log logging.Logger,
) *ConflictService {
	return &ConflictService{
		stores:    stores,
		conflicts: conflicts,
		log:       log,
		now:       time.Now,
	}
}

// Evaluate compares the stored record's updatedAt with the base timestamp the
// client's mutation claims. The write is stale, and therefore a conflict,
// only when the stored timestamp is strictly newer: the server accepted
// another write after the client last saw this record. A missing claimed base
// is the zero time, so any existing server write makes the mutation stale.
func (s *ConflictService) Evaluate(existing domain.Record, claimedBase time.Time) EvalOutcome {
	if existing == nil {
		return ApplyClean
	}
	if existing.Meta().UpdatedAt.After(claimedBase) {
		return ConflictStale
	}
	return ApplyClean
}

// Flag persists a conflict record for a stale mutation, keeping a snapshot of
// the stored record and the client payload for later resolution.
func (s *ConflictService) Flag(ctx context.Context, userID string, existing domain.Record, mutation domain.PushMutation, deviceID string) (*domain.Conflict, error) {
	snapshot, err := json.Marshal(existing)
	if err != nil {
		return nil, err
	}

	conflict := &domain.Conflict{
		ID:            uuid.New().String(),
		RecordType:    existing.Kind(),
		RecordID:      existing.Meta().ID,
		LocalID:       mutation.LocalID,
		DeviceID:      deviceID,
		UserID:        userID,
		Reason:        domain.ReasonStaleWrite,
		ServerRecord:  snapshot,
		ClientPayload: mutation.Data,
		DetectedAt:    s.now().UTC(),
	}

	if err := s.conflicts.Create(ctx, conflict); err != nil {
		return nil, err
	}

	return conflict, nil
}

// Resolve applies an explicit resolution decision to a previously flagged
// conflict, keyed by entity kind and canonical id.
//
// SERVER_WINS leaves the stored record untouched and is idempotent.
// LOCAL_WINS replays the recorded client payload as an unconditional update.
// MERGED applies the caller-supplied payload unconditionally. Anything else
// is rejected before any state change.
func (s *ConflictService) Resolve(ctx context.Context, user *domain.User, req *domain.ResolveRequest) (*domain.ResolveResponse, error) {
	if !req.Resolution.Valid() {
		return nil, ErrInvalidResolution
	}
	if !req.EntityType.Valid() {
		return nil, ErrUnknownEntityType
	}
	if req.Resolution == domain.ResolutionMerged && len(req.MergedData) == 0 {
		return nil, ErrMergedDataRequired
	}

	store := s.stores[req.EntityType]
	existing, err := store.FindByID(ctx, req.EntityID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if !user.CanAccessProject(existing.Meta().ProjectID) {
		return nil, ErrAccessDenied
	}

	conflict, err := s.conflicts.LatestForRecord(ctx, req.EntityType, req.EntityID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	resolved := existing

	switch req.Resolution {
	case domain.ResolutionServerWins:
		// No mutation; re-invoking is a no-op.

	case domain.ResolutionLocalWins:
		if conflict == nil || len(conflict.ClientPayload) == 0 {
			return nil, ErrNoRecordedConflict
		}
		resolved, err = s.applyUnconditional(ctx, existing, conflict.ClientPayload)
		if err != nil {
			return nil, err
		}

	case domain.ResolutionMerged:
		resolved, err = s.applyUnconditional(ctx, existing, req.MergedData)
		if err != nil {
			return nil, err
		}
	}

	if conflict != nil && !conflict.Resolved() {
		if err := s.conflicts.MarkResolved(ctx, conflict.ID, req.Resolution, s.now().UTC()); err != nil {
			s.log.Warn(ctx, "failed to mark conflict resolved", "conflict_id", conflict.ID, "error", err)
		}
	}

	return &domain.ResolveResponse{
		EntityID:   req.EntityID,
		Resolution: req.Resolution,
		Record:     resolved,
	}, nil
}

// ListOpen returns the caller's unresolved conflicts.
func (s *ConflictService) ListOpen(ctx context.Context, userID string) ([]*domain.Conflict, error) {
	return s.conflicts.ListOpenByUser(ctx, userID)
}

func (s *ConflictService) applyUnconditional(ctx context.Context, existing domain.Record, payload json.RawMessage) (domain.Record, error) {
	merged, err := applyPayload(existing, payload)
	if err != nil {
		return nil, err
	}

	merged.Meta().UpdatedAt = s.now().UTC()

	store := s.stores[merged.Kind()]
	if err := store.Update(ctx, merged); err != nil {
		return nil, err
	}

	return merged, nil
}
