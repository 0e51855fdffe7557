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
	"github.com/gorilla/mux"
)

type ProjectHandler struct {
	projectService *service.ProjectService
	userService    *service.UserService
	validator      *validator.Validate
}

func NewProjectHandler(projectService *service.ProjectService, userService *service.UserService) *ProjectHandler {
	return &ProjectHandler{
		projectService: projectService,
		userService:    userService,
		validator:      validator.New(),
	}
}

func (h *ProjectHandler) currentUser(w http.ResponseWriter, r *http.Request) *domain.User {
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

func (h *ProjectHandler) Create(w http.ResponseWriter, r *http.Request) {
	user := h.currentUser(w, r)
	if user == nil {
		return
	}

	var req domain.CreateProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	project, err := h.projectService.Create(r.Context(), user, &req)
	if err != nil {
		response.InternalError(w, "Failed to create project")
		return
	}

	response.Created(w, project)
}

func (h *ProjectHandler) List(w http.ResponseWriter, r *http.Request) {
	user := h.currentUser(w, r)
	if user == nil {
		return
	}

	projects, err := h.projectService.List(r.Context(), user)
	if err != nil {
		response.InternalError(w, "Failed to list projects")
		return
	}

	response.Success(w, projects)
}

func (h *ProjectHandler) Get(w http.ResponseWriter, r *http.Request) {
	user := h.currentUser(w, r)
	if user == nil {
		return
	}

	projectID := mux.Vars(r)["id"]

	project, err := h.projectService.Get(r.Context(), user, projectID)
	if err != nil {
		if errors.Is(err, service.ErrAccessDenied) {
			response.Forbidden(w, "Access denied")
			return
		}
		response.NotFound(w, "Project not found")
		return
	}

	response.Success(w, project)
}

func (h *ProjectHandler) Update(w http.ResponseWriter, r *http.Request) {
	user := h.currentUser(w, r)
	if user == nil {
		return
	}

	projectID := mux.Vars(r)["id"]

	var req domain.UpdateProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	project, err := h.projectService.Update(r.Context(), user, projectID, &req)
	if err != nil {
		if errors.Is(err, service.ErrAccessDenied) {
			response.Forbidden(w, "Access denied")
			return
		}
		response.NotFound(w, "Project not found")
		return
	}

	response.Success(w, project)
}

// AssignMember adds a user to the project's assignment set, which is what
// grants pull visibility and record access.
func (h *ProjectHandler) AssignMember(w http.ResponseWriter, r *http.Request) {
	user := h.currentUser(w, r)
	if user == nil {
		return
	}

	projectID := mux.Vars(r)["id"]

	// The caller must be able to see the project in their organization.
	if _, err := h.projectService.Get(r.Context(), user, projectID); err != nil {
		if errors.Is(err, service.ErrAccessDenied) {
			response.Forbidden(w, "Access denied")
			return
		}
		response.NotFound(w, "Project not found")
		return
	}

	var req struct {
		UserID string `json:"userId" validate:"required"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	member, err := h.userService.AssignProject(r.Context(), req.UserID, projectID)
	if err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	response.Success(w, member)
}
