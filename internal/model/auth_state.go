package model

import "time"

// AuthState is the single "who is logged in, until when" snapshot. At most
// one instance exists in the store at any time.
type AuthState struct {
	User         SessionUser `json:"user"`
	CreatedAt    time.Time   `json:"createdAt"`
	ExpiresAt    time.Time   `json:"expiresAt"`
	RememberMe   bool        `json:"rememberMe"`
	LastActivity time.Time   `json:"lastActivity"`
}

// Expired reports whether the state is past its expiry at the given instant.
// An expired state is treated everywhere as if no session exists.
func (s *AuthState) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// HasRole reports whether the session's role is in the allowed set.
// Matching is exact membership, there is no role hierarchy.
func (s *AuthState) HasRole(roles ...string) bool {
	for _, role := range roles {
		if s.User.Role == role {
			return true
		}
	}
	return false
}
