package service

import (
	"context"
	"errors"
	"time"

	"aquifer-sync-server/internal/domain"
	"aquifer-sync-server/internal/repository"

	"github.com/google/uuid"
)

type DeviceService struct {
	repo repository.DeviceRepository
	now  func() time.Time
}

func NewDeviceService(repo repository.DeviceRepository) *DeviceService {
	return &DeviceService{
		repo: repo,
		now:  time.Now,
	}
}

func (s *DeviceService) Register(ctx context.Context, userID string, req *domain.RegisterDeviceRequest) (*domain.DeviceResponse, error) {
	now := s.now().UTC()
	device := &domain.Device{
		ID:         uuid.New().String(),
		UserID:     userID,
		Name:       req.Name,
		Platform:   req.Platform,
		AppVersion: req.AppVersion,
		LastSeen:   now,
		CreatedAt:  now,
	}

	if err := s.repo.Create(ctx, device); err != nil {
		return nil, err
	}

	return deviceToResponse(device), nil
}

func (s *DeviceService) List(ctx context.Context, userID string) ([]*domain.DeviceResponse, error) {
	devices, err := s.repo.List(ctx, userID)
	if err != nil {
		return nil, err
	}

	var responses []*domain.DeviceResponse
	for _, d := range devices {
		responses = append(responses, deviceToResponse(d))
	}

	return responses, nil
}

func (s *DeviceService) Revoke(ctx context.Context, userID, deviceID string) error {
	device, err := s.repo.FindByID(ctx, deviceID)
	if err != nil {
		return err
	}

	if device.UserID != userID {
		return errors.New("unauthorized: device does not belong to user")
	}

	return s.repo.Revoke(ctx, deviceID)
}

// Touch records device activity after a sync call; failures are not
// interesting to the caller.
func (s *DeviceService) Touch(ctx context.Context, deviceID string) {
	if deviceID == "" {
		return
	}
	_ = s.repo.UpdateLastSeen(ctx, deviceID, s.now().UTC())
}

func deviceToResponse(d *domain.Device) *domain.DeviceResponse {
	return &domain.DeviceResponse{
		ID:         d.ID,
		Name:       d.Name,
		Platform:   d.Platform,
		AppVersion: d.AppVersion,
		LastSeen:   d.LastSeen,
		IsRevoked:  d.IsRevoked,
	}
}
