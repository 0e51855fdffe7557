package service

import (
	"context"
	"testing"
	"time"

	"aquifer-sync-server/internal/domain"
	"aquifer-sync-server/internal/repository"
	"aquifer-sync-server/pkg/hash"
)

type mockUserRepository struct {
	users map[string]*domain.User
}

func newMockUserRepository() *mockUserRepository {
	return &mockUserRepository{
		users: make(map[string]*domain.User),
	}
}

func (m *mockUserRepository) Create(ctx context.Context, user *domain.User) error {
	m.users[user.ID] = user
	return nil
}

func (m *mockUserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	for _, user := range m.users {
		if user.Email == email {
			return user, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *mockUserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	if user, ok := m.users[id]; ok {
		return user, nil
	}
	return nil, repository.ErrNotFound
}

func (m *mockUserRepository) Update(ctx context.Context, user *domain.User) error {
	m.users[user.ID] = user
	return nil
}

func (m *mockUserRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	_, err := m.FindByEmail(ctx, email)
	return err == nil, nil
}

func (m *mockUserRepository) UsernameExists(ctx context.Context, username string) (bool, error) {
	for _, user := range m.users {
		if user.Username == username {
			return true, nil
		}
	}
	return false, nil
}

func TestAuthService_Register(t *testing.T) {
	repo := newMockUserRepository()
	service := NewAuthService(repo, "test-secret", 15*time.Minute, 7*24*time.Hour)
	ctx := context.Background()

	tests := []struct {
		name    string
		req     *domain.RegisterRequest
		wantErr bool
		setup   func()
	}{
		{
			name: "successful registration",
			req: &domain.RegisterRequest{
				Username:     "newuser",
				Email:        "new@example.com",
				Password:     "Password123!",
				Organization: "org-1",
			},
			wantErr: false,
			setup:   func() {},
		},
		{
			name: "duplicate email",
			req: &domain.RegisterRequest{
				Username:     "anotheruser",
				Email:        "existing@example.com",
				Password:     "Password123!",
				Organization: "org-1",
			},
			wantErr: true,
			setup: func() {
				hashedPw, _ := hash.Hash("ExistingPass123!")
				repo.Create(ctx, &domain.User{
					ID:       "existing-id",
					Username: "existinguser",
					Email:    "existing@example.com",
					Password: hashedPw,
				})
			},
		},
		{
			name: "duplicate username",
			req: &domain.RegisterRequest{
				Username:     "duplicateuser",
				Email:        "unique@example.com",
				Password:     "Password123!",
				Organization: "org-1",
			},
			wantErr: true,
			setup: func() {
				hashedPw, _ := hash.Hash("Pass123!")
				repo.Create(ctx, &domain.User{
					ID:       "dup-id",
					Username: "duplicateuser",
					Email:    "other@example.com",
					Password: hashedPw,
				})
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo.users = make(map[string]*domain.User)
			tt.setup()

			err := service.Register(ctx, tt.req)

			if tt.wantErr {
				if err == nil {
					t.Error("Register() expected error but got none")
				}
			} else {
				if err != nil {
					t.Errorf("Register() unexpected error = %v", err)
				}

				exists, _ := repo.EmailExists(ctx, tt.req.Email)
				if !exists {
					t.Error("Register() user not created in repository")
				}
			}
		})
	}
}

func TestAuthService_Login(t *testing.T) {
	repo := newMockUserRepository()
	service := NewAuthService(repo, "test-secret-key", 15*time.Minute, 7*24*time.Hour)
	ctx := context.Background()

	password := "UserPassword123!"
	hashedPassword, _ := hash.Hash(password)

	repo.Create(ctx, &domain.User{
		ID:       "test-user-id",
		Username: "testuser",
		Email:    "test@example.com",
		Password: hashedPassword,
	})

	tests := []struct {
		name    string
		req     *domain.LoginRequest
		wantErr bool
	}{
		{
			name: "successful login",
			req: &domain.LoginRequest{
				Email:    "test@example.com",
				Password: password,
			},
			wantErr: false,
		},
		{
			name: "wrong password",
			req: &domain.LoginRequest{
				Email:    "test@example.com",
				Password: "WrongPassword",
			},
			wantErr: true,
		},
		{
			name: "non-existent email",
			req: &domain.LoginRequest{
				Email:    "nonexistent@example.com",
				Password: password,
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := service.Login(ctx, tt.req)

			if tt.wantErr {
				if err == nil {
					t.Error("Login() expected error but got none")
				}
				return
			}

			if err != nil {
				t.Errorf("Login() unexpected error = %v", err)
				return
			}

			if resp.AccessToken == "" {
				t.Error("Login() returned empty access token")
			}

			if resp.RefreshToken == "" {
				t.Error("Login() returned empty refresh token")
			}

			if resp.User == nil {
				t.Error("Login() returned nil user")
			}

			if resp.User.Password != "" {
				t.Error("Login() returned user with password (security issue)")
			}

			if resp.ExpiresIn != int64(15*time.Minute.Seconds()) {
				t.Errorf("Login() expiresIn = %v, want %v", resp.ExpiresIn, 15*60)
			}
		})
	}
}

func TestAuthService_RefreshToken(t *testing.T) {
	repo := newMockUserRepository()
	service := NewAuthService(repo, "refresh-test-secret-key", 15*time.Minute, 7*24*time.Hour)
	ctx := context.Background()

	password := "UserPassword123!"
	hashedPassword, _ := hash.Hash(password)

	repo.Create(ctx, &domain.User{
		ID:       "refresh-user-id",
		Username: "refreshuser",
		Email:    "refresh@example.com",
		Password: hashedPassword,
	})

	loginResp, err := service.Login(ctx, &domain.LoginRequest{
		Email:    "refresh@example.com",
		Password: password,
	})
	if err != nil {
		t.Fatalf("Login() unexpected error = %v", err)
	}

	tokenResp, err := service.RefreshToken(ctx, &domain.RefreshTokenRequest{
		RefreshToken: loginResp.RefreshToken,
	})
	if err != nil {
		t.Fatalf("RefreshToken() unexpected error = %v", err)
	}

	if tokenResp.AccessToken == "" {
		t.Error("RefreshToken() returned empty access token")
	}

	_, err = service.RefreshToken(ctx, &domain.RefreshTokenRequest{
		RefreshToken: "not-a-token",
	})
	if err == nil {
		t.Error("RefreshToken() expected error for garbage token")
	}
}
