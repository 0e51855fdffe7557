package service

import (
	"context"
	"fmt"
	"time"

	"aquifer-sync-server/internal/domain"
	"aquifer-sync-server/internal/repository"
)

type UserService struct {
	userRepo repository.UserRepository
	now      func() time.Time
}

func NewUserService(userRepo repository.UserRepository) *UserService {
	return &UserService{
		userRepo: userRepo,
		now:      time.Now,
	}
}

func (s *UserService) GetByID(ctx context.Context, id string) (*domain.User, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("user not found")
	}

	user.Password = ""
	return user, nil
}

func (s *UserService) UpdateUsername(ctx context.Context, userID, newUsername string) (*domain.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("user not found")
	}

	usernameExists, err := s.userRepo.UsernameExists(ctx, newUsername)
	if err != nil {
		return nil, fmt.Errorf("failed to check username: %w", err)
	}
	if usernameExists && user.Username != newUsername {
		return nil, fmt.Errorf("username already taken")
	}

	user.Username = newUsername
	user.UpdatedAt = s.now().UTC()

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	user.Password = ""
	return user, nil
}

// AssignProject adds a project to the user's assignment set. Pull visibility
// and record access follow from this set.
func (s *UserService) AssignProject(ctx context.Context, userID, projectID string) (*domain.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("user not found")
	}

	if user.CanAccessProject(projectID) {
		user.Password = ""
		return user, nil
	}

	user.ProjectIDs = append(user.ProjectIDs, projectID)
	user.UpdatedAt = s.now().UTC()

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	user.Password = ""
	return user, nil
}
