package service

import (
	"context"
	"errors"
	"time"

	"aquifer-sync-server/internal/domain"
	"aquifer-sync-server/internal/repository"

	"github.com/google/uuid"
)

type ProjectService struct {
	projectRepo repository.ProjectRepository
	userRepo    repository.UserRepository
	now         func() time.Time
}

func NewProjectService(projectRepo repository.ProjectRepository, userRepo repository.UserRepository) *ProjectService {
	return &ProjectService{
		projectRepo: projectRepo,
		userRepo:    userRepo,
		now:         time.Now,
	}
}

// Create creates a project in the caller's organization and assigns the
// caller to it.
func (s *ProjectService) Create(ctx context.Context, user *domain.User, req *domain.CreateProjectRequest) (*domain.ProjectResponse, error) {
	now := s.now().UTC()
	project := &domain.Project{
		ID:             uuid.New().String(),
		OrganizationID: user.OrganizationID,
		Name:           req.Name,
		Description:    req.Description,
		CreatedBy:      user.ID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.projectRepo.Create(ctx, project); err != nil {
		return nil, err
	}

	user.ProjectIDs = append(user.ProjectIDs, project.ID)
	user.UpdatedAt = now
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}

	return projectToResponse(project), nil
}

// List returns the projects of the caller's organization.
func (s *ProjectService) List(ctx context.Context, user *domain.User) ([]*domain.ProjectResponse, error) {
	projects, err := s.projectRepo.ListByOrganization(ctx, user.OrganizationID)
	if err != nil {
		return nil, err
	}

	responses := make([]*domain.ProjectResponse, len(projects))
	for i, p := range projects {
		responses[i] = projectToResponse(p)
	}

	return responses, nil
}

func (s *ProjectService) Get(ctx context.Context, user *domain.User, projectID string) (*domain.ProjectResponse, error) {
	project, err := s.projectRepo.Get(ctx, projectID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if project.OrganizationID != user.OrganizationID {
		return nil, ErrAccessDenied
	}

	return projectToResponse(project), nil
}

func (s *ProjectService) Update(ctx context.Context, user *domain.User, projectID string, req *domain.UpdateProjectRequest) (*domain.ProjectResponse, error) {
	project, err := s.projectRepo.Get(ctx, projectID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if project.OrganizationID != user.OrganizationID {
		return nil, ErrAccessDenied
	}

	if req.Name != "" {
		project.Name = req.Name
	}
	if req.Description != "" {
		project.Description = req.Description
	}
	project.UpdatedAt = s.now().UTC()

	if err := s.projectRepo.Update(ctx, project); err != nil {
		return nil, err
	}

	return projectToResponse(project), nil
}

func projectToResponse(p *domain.Project) *domain.ProjectResponse {
	return &domain.ProjectResponse{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
		IsArchived:  p.IsArchived,
	}
}
