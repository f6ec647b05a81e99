package models

import (
	"time"
)

// User is an account. The password hash never leaves the service.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	PasswordHash string    `json:"-"`
	DateJoined   time.Time `json:"date_joined"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// CreateUserRequest represents the request body for registering a user.
// PUT on a user binds the same body.
type CreateUserRequest struct {
	Username  string `json:"username" binding:"required,max=150"`
	Email     string `json:"email" binding:"omitempty,email,max=254"`
	Password  string `json:"password" binding:"required,min=8,max=128"`
	FirstName string `json:"first_name" binding:"max=150"`
	LastName  string `json:"last_name" binding:"max=150"`
}

// UpdateUserRequest represents a partial update of a user.
type UpdateUserRequest struct {
	Username  *string `json:"username,omitempty" binding:"omitempty,min=1,max=150"`
	Email     *string `json:"email,omitempty" binding:"omitempty,email,max=254"`
	Password  *string `json:"password,omitempty" binding:"omitempty,min=8,max=128"`
	FirstName *string `json:"first_name,omitempty" binding:"omitempty,max=150"`
	LastName  *string `json:"last_name,omitempty" binding:"omitempty,max=150"`
}

// Replacement turns a full body into an update that touches every field.
func (r *CreateUserRequest) Replacement() *UpdateUserRequest {
	return &UpdateUserRequest{
		Username:  &r.Username,
		Email:     &r.Email,
		Password:  &r.Password,
		FirstName: &r.FirstName,
		LastName:  &r.LastName,
	}
}

// Apply copies the set profile fields onto u. Passwords are hashed by the caller.
func (r *UpdateUserRequest) Apply(u *User) {
	if r.Username != nil {
		u.Username = *r.Username
	}
	if r.Email != nil {
		u.Email = *r.Email
	}
	if r.FirstName != nil {
		u.FirstName = *r.FirstName
	}
	if r.LastName != nil {
		u.LastName = *r.LastName
	}
}

// TokenRequest is the body of a token exchange.
type TokenRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// TokenResponse carries an issued access token.
type TokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}
