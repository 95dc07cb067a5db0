package dto

import (
	"time"

	"kgv/internal/domain/auth"
)

// LoginRequest for POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// UserResponse is the public view of a personnel account.
type UserResponse struct {
	ID               string `json:"id"`
	Email            string `json:"email"`
	FirstName        string `json:"firstName"`
	LastName         string `json:"lastName"`
	IsAdmin          bool   `json:"isAdmin"`
	CanAdministrate  bool   `json:"canAdministrate"`
	CanManageLists   bool   `json:"canManageLists"`
	CanManageRecords bool   `json:"canManageRecords"`
}

// FromUser creates UserResponse from auth.User.
func FromUser(u *auth.User) UserResponse {
	return UserResponse{
		ID:               u.ID.String(),
		Email:            u.Email,
		FirstName:        u.FirstName,
		LastName:         u.LastName,
		IsAdmin:          u.IsAdmin,
		CanAdministrate:  u.CanAdministrate,
		CanManageLists:   u.CanManageLists,
		CanManageRecords: u.CanManageRecords,
	}
}

// LoginResponse for successful logins.
type LoginResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expiresAt"`
	User      UserResponse `json:"user"`
}

// CreateUserRequest for POST /auth/users.
type CreateUserRequest struct {
	Email            string `json:"email" binding:"required,email"`
	Password         string `json:"password" binding:"required"`
	FirstName        string `json:"firstName"`
	LastName         string `json:"lastName" binding:"required"`
	IsAdmin          bool   `json:"isAdmin"`
	CanAdministrate  bool   `json:"canAdministrate"`
	CanManageLists   bool   `json:"canManageLists"`
	CanManageRecords bool   `json:"canManageRecords"`
}

// ToUser converts the request into a domain user.
func (r *CreateUserRequest) ToUser() *auth.User {
	return &auth.User{
		Email:            r.Email,
		FirstName:        r.FirstName,
		LastName:         r.LastName,
		IsAdmin:          r.IsAdmin,
		CanAdministrate:  r.CanAdministrate,
		CanManageLists:   r.CanManageLists,
		CanManageRecords: r.CanManageRecords,
	}
}
