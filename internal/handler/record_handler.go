package handler

import (
	"errors"
	"io"
	"net/http"

	"aquifer-sync-server/internal/domain"
	"aquifer-sync-server/internal/middleware"
	"aquifer-sync-server/internal/service"
	"aquifer-sync-server/pkg/response"

	"github.com/gorilla/mux"
)

// RecordHandler exposes server-side CRUD over field records, keyed by kind in
// the URL path. Device writes go through the sync endpoints instead.
type RecordHandler struct {
	recordService *service.RecordService
	userService   *service.UserService
}

func NewRecordHandler(recordService *service.RecordService, userService *service.UserService) *RecordHandler {
	return &RecordHandler{
		recordService: recordService,
		userService:   userService,
	}
}

func (h *RecordHandler) currentUser(w http.ResponseWriter, r *http.Request) *domain.User {
	userID := middleware.GetUserID(r)
	if userID == "" {
		response.Unauthorized(w, "Unauthorized")
		return nil
	}

	user, err := h.userService.GetByID(r.Context(), userID)
	if err != nil {
		response.Unauthorized(w, "Unauthorized")
		return nil
	}

	return user
}

func recordKind(w http.ResponseWriter, r *http.Request) (domain.RecordKind, bool) {
	kind := domain.RecordKind(mux.Vars(r)["kind"])
	if !kind.Valid() {
		response.BadRequest(w, "Unknown record type")
		return "", false
	}
	return kind, true
}

func (h *RecordHandler) Create(w http.ResponseWriter, r *http.Request) {
	user := h.currentUser(w, r)
	if user == nil {
		return
	}

	kind, ok := recordKind(w, r)
	if !ok {
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil || len(body) == 0 {
		response.BadRequest(w, "Invalid request body")
		return
	}

	rec, err := h.recordService.Create(r.Context(), user, kind, body)
	if err != nil {
		if errors.Is(err, service.ErrAccessDenied) {
			response.Forbidden(w, "Access denied")
			return
		}
		response.BadRequest(w, err.Error())
		return
	}

	response.Created(w, rec)
}

func (h *RecordHandler) Get(w http.ResponseWriter, r *http.Request) {
	user := h.currentUser(w, r)
	if user == nil {
		return
	}

	kind, ok := recordKind(w, r)
	if !ok {
		return
	}

	rec, err := h.recordService.Get(r.Context(), user, kind, mux.Vars(r)["id"])
	if err != nil {
		if errors.Is(err, service.ErrAccessDenied) {
			response.Forbidden(w, "Access denied")
			return
		}
		response.NotFound(w, "Record not found")
		return
	}

	response.Success(w, rec)
}

func (h *RecordHandler) List(w http.ResponseWriter, r *http.Request) {
	user := h.currentUser(w, r)
	if user == nil {
		return
	}

	kind, ok := recordKind(w, r)
	if !ok {
		return
	}

	projectID := r.URL.Query().Get("project_id")

	records, err := h.recordService.List(r.Context(), user, kind, projectID)
	if err != nil {
		if errors.Is(err, service.ErrAccessDenied) {
			response.Forbidden(w, "Access denied")
			return
		}
		response.InternalError(w, "Failed to list records")
		return
	}

	response.Success(w, records)
}

func (h *RecordHandler) Update(w http.ResponseWriter, r *http.Request) {
	user := h.currentUser(w, r)
	if user == nil {
		return
	}

	kind, ok := recordKind(w, r)
	if !ok {
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil || len(body) == 0 {
		response.BadRequest(w, "Invalid request body")
		return
	}

	rec, err := h.recordService.Update(r.Context(), user, kind, mux.Vars(r)["id"], body)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrAccessDenied):
			response.Forbidden(w, "Access denied")
		case errors.Is(err, service.ErrNotFound):
			response.NotFound(w, "Record not found")
		default:
			response.BadRequest(w, err.Error())
		}
		return
	}

	response.Success(w, rec)
}
