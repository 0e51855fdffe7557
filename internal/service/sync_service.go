package service

import (
	"context"
	"errors"
	"time"

	"aquifer-sync-server/internal/domain"
	"aquifer-sync-server/internal/logging"
	"aquifer-sync-server/internal/repository"
	"aquifer-sync-server/internal/websocket"

	"github.com/google/uuid"
)

// SyncService moves record mutations between field devices and the central
// store: push applies batched client mutations, pull returns everything a
// device has not seen yet.
type SyncService struct {
	stores       map[domain.RecordKind]repository.RecordStore
	identity     repository.IdentityMap
	conflicts    *ConflictService
	syncLog      repository.SyncLogRepository
	wsManager    *websocket.Manager
	log          logging.Logger
	maxBatchSize int
	now          func() time.Time
}

func NewSyncService(
	stores map[domain.RecordKind]repository.RecordStore,
	identity repository.IdentityMap,
	conflicts *ConflictService,
	syncLog repository.SyncLogRepository,
	wsManager *websocket.Manager,
	log logging.Logger,
	maxBatchSize int,
) *SyncService {
	return &SyncService{
		stores:       stores,
		identity:     identity,
		conflicts:    conflicts,
		syncLog:      syncLog,
		wsManager:    wsManager,
		log:          log,
		maxBatchSize: maxBatchSize,
		now:          time.Now,
	}
}

// Push applies a batch of client mutations. Each mutation independently ends
// up in exactly one of created, updated or conflicts; a failure on one item
// never aborts the rest of the batch. The whole call is a safe retry: a
// mutation whose (deviceId, localId) was already materialized routes to the
// update or conflict path instead of creating a duplicate.
func (s *SyncService) Push(ctx context.Context, user *domain.User, req *domain.PushRequest) (*domain.PushResponse, error) {
	if len(req.Entities) == 0 {
		return nil, ErrEmptyBatch
	}
	if s.maxBatchSize > 0 && len(req.Entities) > s.maxBatchSize {
		return nil, ErrBatchTooLarge
	}
	for _, m := range req.Entities {
		if !m.EntityType.Valid() {
			return nil, ErrUnknownEntityType
		}
	}

	resp := &domain.PushResponse{
		Created:   []domain.PushResult{},
		Updated:   []domain.PushResult{},
		Conflicts: []domain.PushConflictEntry{},
	}

	for _, mutation := range req.Entities {
		s.processMutation(ctx, user, req.DeviceID, mutation, resp)
	}

	s.audit(ctx, user.ID, req.DeviceID, domain.SyncOpPush,
		len(req.Entities), len(resp.Created)+len(resp.Updated), len(resp.Conflicts))

	if len(resp.Created)+len(resp.Updated) > 0 {
		s.notifyRecordsChanged(user.ID, req.DeviceID)
	}

	return resp, nil
}

func (s *SyncService) processMutation(ctx context.Context, user *domain.User, deviceID string, mutation domain.PushMutation, resp *domain.PushResponse) {
	incoming, err := domain.DecodeRecord(mutation.EntityType, mutation.Data)
	if err != nil {
		resp.Conflicts = append(resp.Conflicts, domain.PushConflictEntry{
			LocalID:    mutation.LocalID,
			EntityType: mutation.EntityType,
			Reason:     domain.ReasonInvalidPayload,
			Message:    err.Error(),
			Client:     mutation.Data,
		})
		return
	}

	existing, reservedID, err := s.resolveExisting(ctx, mutation.EntityType, deviceID, mutation.LocalID)
	if err != nil {
		s.appendStorageFailure(resp, mutation, err)
		return
	}

	if existing == nil {
		s.createRecord(ctx, user, deviceID, mutation, incoming, reservedID, resp)
		return
	}

	s.updateRecord(ctx, user, deviceID, mutation, incoming, existing, resp)
}

// resolveExisting is the identity map lookup: (deviceId, localId, kind) to the
// already-materialized record, or nil when the mutation has no prior identity.
// A mapping whose record is absent means an earlier create reserved the
// identity but died before the record write landed; the reserved id is
// returned so the retry can create under it instead of wedging on the stale
// reservation.
func (s *SyncService) resolveExisting(ctx context.Context, kind domain.RecordKind, deviceID, localID string) (domain.Record, string, error) {
	if deviceID == "" || localID == "" {
		return nil, "", nil
	}

	recordID, err := s.identity.Resolve(ctx, kind, deviceID, localID)
	if err == nil {
		rec, err := s.stores[kind].FindByID(ctx, recordID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, recordID, nil
			}
			return nil, "", err
		}
		return rec, "", nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, "", err
	}

	// No mapping document; fall back to the store in case the record predates
	// the identity map.
	rec, err := s.stores[kind].FindByDeviceLocalID(ctx, deviceID, localID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, "", nil
		}
		return nil, "", err
	}
	return rec, "", nil
}

func (s *SyncService) createRecord(ctx context.Context, user *domain.User, deviceID string, mutation domain.PushMutation, incoming domain.Record, reservedID string, resp *domain.PushResponse) {
	if !user.CanAccessProject(incoming.Meta().ProjectID) {
		s.appendAccessDenied(resp, mutation)
		return
	}

	now := s.now().UTC()

	meta := incoming.Meta()
	meta.ID = reservedID
	if meta.ID == "" {
		meta.ID = uuid.New().String()
	}
	meta.LocalID = mutation.LocalID
	meta.DeviceID = deviceID
	meta.CreatedBy = user.ID
	meta.CreatedAt = now
	meta.UpdatedAt = now

	if reservedID == "" && deviceID != "" && mutation.LocalID != "" {
		err := s.identity.Reserve(ctx, mutation.EntityType, deviceID, mutation.LocalID, meta.ID)
		if errors.Is(err, repository.ErrIdentityTaken) {
			// Lost the race to a concurrent retry of the same mutation;
			// the winner's record is the canonical one.
			existing, raceID, rerr := s.resolveExisting(ctx, mutation.EntityType, deviceID, mutation.LocalID)
			if rerr != nil {
				s.appendStorageFailure(resp, mutation, rerr)
				return
			}
			if existing != nil {
				s.updateRecord(ctx, user, deviceID, mutation, incoming, existing, resp)
				return
			}
			if raceID == "" {
				s.appendStorageFailure(resp, mutation, err)
				return
			}
			// The racing create reserved the identity but its record write
			// has not landed; adopt the reserved id.
			meta.ID = raceID
		}
		if err != nil && !errors.Is(err, repository.ErrIdentityTaken) {
			s.appendStorageFailure(resp, mutation, err)
			return
		}
	}

	if err := s.stores[mutation.EntityType].Create(ctx, incoming); err != nil {
		s.appendStorageFailure(resp, mutation, err)
		return
	}

	resp.Created = append(resp.Created, domain.PushResult{
		LocalID: mutation.LocalID,
		ID:      meta.ID,
		Record:  incoming,
	})
}

func (s *SyncService) updateRecord(ctx context.Context, user *domain.User, deviceID string, mutation domain.PushMutation, incoming, existing domain.Record, resp *domain.PushResponse) {
	if !user.CanAccessProject(existing.Meta().ProjectID) {
		s.appendAccessDenied(resp, mutation)
		return
	}

	claimedBase := incoming.Meta().UpdatedAt

	if s.conflicts.Evaluate(existing, claimedBase) == ConflictStale {
		entry := domain.PushConflictEntry{
			LocalID:    mutation.LocalID,
			EntityType: mutation.EntityType,
			ServerID:   existing.Meta().ID,
			Reason:     domain.ReasonStaleWrite,
			Server:     existing,
			Client:     mutation.Data,
		}

		conflict, err := s.conflicts.Flag(ctx, user.ID, existing, mutation, deviceID)
		if err != nil {
			s.log.Warn(ctx, "failed to persist conflict", "record_id", existing.Meta().ID, "error", err)
		} else {
			entry.ConflictID = conflict.ID
			s.notifyConflictFlagged(user.ID, deviceID, conflict)
		}

		resp.Conflicts = append(resp.Conflicts, entry)
		return
	}

	merged, err := applyPayload(existing, mutation.Data)
	if err != nil {
		resp.Conflicts = append(resp.Conflicts, domain.PushConflictEntry{
			LocalID:    mutation.LocalID,
			EntityType: mutation.EntityType,
			ServerID:   existing.Meta().ID,
			Reason:     domain.ReasonInvalidPayload,
			Message:    err.Error(),
			Client:     mutation.Data,
		})
		return
	}
	merged.Meta().UpdatedAt = s.now().UTC()

	if err := s.stores[mutation.EntityType].Update(ctx, merged); err != nil {
		s.appendStorageFailure(resp, mutation, err)
		return
	}

	resp.Updated = append(resp.Updated, domain.PushResult{
		LocalID: mutation.LocalID,
		ID:      merged.Meta().ID,
		Record:  merged,
	})
}

func (s *SyncService) appendAccessDenied(resp *domain.PushResponse, mutation domain.PushMutation) {
	resp.Conflicts = append(resp.Conflicts, domain.PushConflictEntry{
		LocalID:    mutation.LocalID,
		EntityType: mutation.EntityType,
		Reason:     domain.ReasonAccessDenied,
		Message:    "project not accessible",
		Client:     mutation.Data,
	})
}

func (s *SyncService) appendStorageFailure(resp *domain.PushResponse, mutation domain.PushMutation, err error) {
	resp.Conflicts = append(resp.Conflicts, domain.PushConflictEntry{
		LocalID:    mutation.LocalID,
		EntityType: mutation.EntityType,
		Reason:     domain.ReasonStorageError,
		Message:    err.Error(),
		Client:     mutation.Data,
	})
}

// Pull returns every record in the caller's accessible projects modified
// after the checkpoint, up to a server-assigned snapshot time the client
// stores as its next checkpoint. Records written after the snapshot time are
// excluded and arrive on the next pull, so the cutoff never depends on client
// clocks.
func (s *SyncService) Pull(ctx context.Context, user *domain.User, req *domain.PullRequest) (*domain.PullResponse, error) {
	snapshotTime := s.now().UTC()

	projects := user.AccessibleProjects(req.ProjectIDs)

	var checkpoint time.Time
	if req.LastSyncTimestamp != nil {
		checkpoint = *req.LastSyncTimestamp
	}

	entities := make(map[string][]domain.Record, len(domain.Kinds))
	total := 0
	for _, kind := range domain.Kinds {
		records, err := s.stores[kind].ListChangedBetween(ctx, projects, checkpoint, snapshotTime)
		if err != nil {
			return nil, err
		}
		if records == nil {
			records = []domain.Record{}
		}
		entities[kind.PluralKey()] = records
		total += len(records)
	}

	s.audit(ctx, user.ID, "", domain.SyncOpPull, total, total, 0)

	return &domain.PullResponse{
		Timestamp: snapshotTime,
		Entities:  entities,
	}, nil
}

// SyncLog returns the caller's audit entries, newest-first ordering is left
// to the client.
func (s *SyncService) SyncLog(ctx context.Context, userID string) ([]*domain.SyncLogEntry, error) {
	return s.syncLog.ListByUser(ctx, userID)
}

// audit appends one sync-log entry. The log is diagnostic; a failed append is
// logged and swallowed so it can never fail a sync call.
func (s *SyncService) audit(ctx context.Context, userID, deviceID string, op domain.SyncOperation, attempted, succeeded, failed int) {
	entry := &domain.SyncLogEntry{
		ID:        uuid.New().String(),
		UserID:    userID,
		DeviceID:  deviceID,
		Operation: op,
		Attempted: attempted,
		Succeeded: succeeded,
		Failed:    failed,
		CreatedAt: s.now().UTC(),
	}

	if err := s.syncLog.Append(ctx, entry); err != nil {
		s.log.Warn(ctx, "failed to append sync log entry", "operation", op, "error", err)
	}
}

func (s *SyncService) notifyRecordsChanged(userID, excludeDeviceID string) {
	if s.wsManager == nil {
		return
	}

	msg, err := websocket.NewMessage(websocket.TypeRecordsChanged, &websocket.RecordsChangedPayload{
		DeviceID:  excludeDeviceID,
		ChangedAt: s.now().UTC(),
	})
	if err != nil {
		return
	}

	_ = s.wsManager.BroadcastToUser(userID, msg, excludeDeviceID)
}

func (s *SyncService) notifyConflictFlagged(userID, excludeDeviceID string, conflict *domain.Conflict) {
	if s.wsManager == nil {
		return
	}

	msg, err := websocket.NewMessage(websocket.TypeConflictFlagged, &websocket.ConflictFlaggedPayload{
		ConflictID: conflict.ID,
		RecordType: string(conflict.RecordType),
		RecordID:   conflict.RecordID,
	})
	if err != nil {
		return
	}

	_ = s.wsManager.BroadcastToUser(userID, msg, excludeDeviceID)
}
