package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"aquifer-sync-server/internal/domain"
	"aquifer-sync-server/internal/middleware"
	"aquifer-sync-server/internal/service"
	"aquifer-sync-server/pkg/response"

	"github.com/go-playground/validator/v10"
)

type SyncHandler struct {
	syncService     *service.SyncService
	conflictService *service.ConflictService
	userService     *service.UserService
	deviceService   *service.DeviceService
	validator       *validator.Validate
}

func NewSyncHandler(
	syncService *service.SyncService,
	conflictService *service.ConflictService,
	userService *service.UserService,
	deviceService *service.DeviceService,
) *SyncHandler {
	return &SyncHandler{
		syncService:     syncService,
		conflictService: conflictService,
		userService:     userService,
		deviceService:   deviceService,
		validator:       validator.New(),
	}
}

func (h *SyncHandler) currentUser(w http.ResponseWriter, r *http.Request) *domain.User {
	userID := middleware.GetUserID(r)
	if userID == "" {
		response.Unauthorized(w, "unauthorized")
		return nil
	}

	user, err := h.userService.GetByID(r.Context(), userID)
	if err != nil {
		response.Unauthorized(w, "unauthorized")
		return nil
	}

	return user
}

// Push accepts a batch of device mutations and answers with one outcome per
// submitted item.
func (h *SyncHandler) Push(w http.ResponseWriter, r *http.Request) {
	user := h.currentUser(w, r)
	if user == nil {
		return
	}

	var req domain.PushRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	res, err := h.syncService.Push(r.Context(), user, &req)
	if err != nil {
		if errors.Is(err, service.ErrUnknownEntityType) ||
			errors.Is(err, service.ErrEmptyBatch) ||
			errors.Is(err, service.ErrBatchTooLarge) {
			response.BadRequest(w, err.Error())
			return
		}
		response.InternalError(w, err.Error())
		return
	}

	h.deviceService.Touch(r.Context(), req.DeviceID)

	response.JSON(w, http.StatusOK, res)
}

// Pull returns a snapshot of every accessible record changed after the
// client's checkpoint, plus the new checkpoint.
func (h *SyncHandler) Pull(w http.ResponseWriter, r *http.Request) {
	user := h.currentUser(w, r)
	if user == nil {
		return
	}

	var req domain.PullRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.BadRequest(w, "invalid request body")
			return
		}
	}

	res, err := h.syncService.Pull(r.Context(), user, &req)
	if err != nil {
		response.InternalError(w, err.Error())
		return
	}

	response.JSON(w, http.StatusOK, res)
}

// Resolve applies an explicit conflict resolution decision.
func (h *SyncHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	user := h.currentUser(w, r)
	if user == nil {
		return
	}

	var req domain.ResolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	res, err := h.conflictService.Resolve(r.Context(), user, &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidResolution),
			errors.Is(err, service.ErrUnknownEntityType),
			errors.Is(err, service.ErrMergedDataRequired),
			errors.Is(err, service.ErrNoRecordedConflict):
			response.BadRequest(w, err.Error())
		case errors.Is(err, service.ErrNotFound):
			response.NotFound(w, "record not found")
		case errors.Is(err, service.ErrAccessDenied):
			response.Forbidden(w, "access denied")
		default:
			response.InternalError(w, err.Error())
		}
		return
	}

	response.JSON(w, http.StatusOK, res)
}

// ListConflicts returns the caller's unresolved conflicts.
func (h *SyncHandler) ListConflicts(w http.ResponseWriter, r *http.Request) {
	user := h.currentUser(w, r)
	if user == nil {
		return
	}

	conflicts, err := h.conflictService.ListOpen(r.Context(), user.ID)
	if err != nil {
		response.InternalError(w, err.Error())
		return
	}

	response.JSON(w, http.StatusOK, conflicts)
}

// SyncLog returns the caller's push/pull audit entries.
func (h *SyncHandler) SyncLog(w http.ResponseWriter, r *http.Request) {
	user := h.currentUser(w, r)
	if user == nil {
		return
	}

	entries, err := h.syncService.SyncLog(r.Context(), user.ID)
	if err != nil {
		response.InternalError(w, err.Error())
		return
	}

	response.JSON(w, http.StatusOK, entries)
}
