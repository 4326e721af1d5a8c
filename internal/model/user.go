package model

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Role codes. Matching is exact membership, admin does not imply staff.
const (
	RoleAdmin = "admin"
	RoleStaff = "staff"
	RoleUser  = "user"
)

// User represents an account in the users table. The password field holds a
// bcrypt hash; it round-trips through export/import but is stripped from
// every API response and session snapshot.
type User struct {
	Base
	Username  string     `json:"username" validate:"required,min=3"`
	Email     string     `json:"email" validate:"required,email"`
	Password  string     `json:"password"`
	FullName  string     `json:"full_name" validate:"required"`
	Role      string     `json:"role" validate:"required,oneof=admin staff user"`
	Status    string     `json:"status"`
	LastLogin *time.Time `json:"last_login"`
}

// UserPatch updates a user. Nil fields keep their stored value.
type UserPatch struct {
	Username  *string    `json:"username,omitempty"`
	Email     *string    `json:"email,omitempty"`
	Password  *string    `json:"password,omitempty"`
	FullName  *string    `json:"full_name,omitempty"`
	Role      *string    `json:"role,omitempty" validate:"omitempty,oneof=admin staff user"`
	Status    *string    `json:"status,omitempty" validate:"omitempty,oneof=active inactive"`
	LastLogin *time.Time `json:"last_login,omitempty"`
}

// SetPassword hashes and sets the user's password
func (u *User) SetPassword(password string) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.Password = string(hashedPassword)
	return nil
}

// CheckPassword verifies if the provided password matches the stored hash
func (u *User) CheckPassword(password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password))
	return err == nil
}

// SessionUser is the minimal snapshot that lives inside the auth state.
// Never carries the password hash.
type SessionUser struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	Role     string `json:"role"`
}

// Snapshot converts a stored user into its session snapshot.
func (u *User) Snapshot() SessionUser {
	return SessionUser{
		ID:       u.ID,
		Username: u.Username,
		Email:    u.Email,
		FullName: u.FullName,
		Role:     u.Role,
	}
}

// UserResponse is used for API responses (without sensitive data)
type UserResponse struct {
	ID        string     `json:"id"`
	Username  string     `json:"username"`
	Email     string     `json:"email"`
	FullName  string     `json:"full_name"`
	Role      string     `json:"role"`
	Status    string     `json:"status"`
	LastLogin *time.Time `json:"last_login,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// ToResponse converts User to UserResponse
func (u *User) ToResponse() UserResponse {
	return UserResponse{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		FullName:  u.FullName,
		Role:      u.Role,
		Status:    u.Status,
		LastLogin: u.LastLogin,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}
