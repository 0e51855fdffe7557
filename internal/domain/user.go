package domain

import "time"

type User struct {
	ID             string    `json:"id"`
	Username       string    `json:"username" validate:"required,min=3,max=30,alphanum"`
	Email          string    `json:"email" validate:"required,email"`
	Password       string    `json:"password,omitempty"` // Save to DB but omit from responses when empty
	OrganizationID string    `json:"organization_id"`
	ProjectIDs     []string  `json:"project_ids"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// CanAccessProject reports whether the user is assigned to the project.
func (u *User) CanAccessProject(projectID string) bool {
	for _, id := range u.ProjectIDs {
		if id == projectID {
			return true
		}
	}
	return false
}

// AccessibleProjects intersects the requested project set with the user's
// assignments. An empty request means the full assignment set.
func (u *User) AccessibleProjects(requested []string) []string {
	if len(requested) == 0 {
		return u.ProjectIDs
	}
	var out []string
	for _, id := range requested {
		if u.CanAccessProject(id) {
			out = append(out, id)
		}
	}
	return out
}

type RegisterRequest struct {
	Username     string `json:"username" validate:"required,min=3,max=30,alphanum"`
	Email        string `json:"email" validate:"required,email"`
	Password     string `json:"password" validate:"required,min=8"`
	Organization string `json:"organization" validate:"required"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	User         *User  `json:"user"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type TokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
}
