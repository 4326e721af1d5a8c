package authtoken

import (
	"errors"
	"os"

	"go-stockwise/internal/model"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken covers every way a stored blob can fail to parse: bad
// format, bad signature, wrong signing method. Callers treat all of them
// as "no session".
var ErrInvalidToken = errors.New("invalid or tampered auth token")

// Claims is the signed wire form of the auth state. Signing makes a
// hand-edited or truncated blob indistinguishable from a missing one.
type Claims struct {
	User         model.SessionUser `json:"user"`
	RememberMe   bool              `json:"remember_me"`
	LastActivity *jwt.NumericDate  `json:"last_activity"`
	jwt.RegisteredClaims
}

// Codec signs and parses auth-state blobs with a shared HS256 secret.
type Codec struct {
	secret []byte
}

// New returns a Codec using the given secret.
func New(secret []byte) *Codec {
	return &Codec{secret: secret}
}

// SecretFromEnv returns the AUTH_SECRET environment value or a development
// default.
func SecretFromEnv() []byte {
	secret := os.Getenv("AUTH_SECRET")
	if secret == "" {
		secret = "stockwise-dev-secret-change-in-production"
	}
	return []byte(secret)
}

// Encode signs the state. Each refresh re-encodes with the extended expiry.
func (c *Codec) Encode(state model.AuthState) (string, error) {
	claims := &Claims{
		User:         state.User,
		RememberMe:   state.RememberMe,
		LastActivity: jwt.NewNumericDate(state.LastActivity),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   state.User.ID,
			IssuedAt:  jwt.NewNumericDate(state.CreatedAt),
			ExpiresAt: jwt.NewNumericDate(state.ExpiresAt),
			Issuer:    "go-stockwise",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(c.secret)
}

// Decode parses and verifies a stored blob. Expiry is deliberately not
// enforced here: the session manager must be able to read an expired state
// so it can record why the session ended.
func (c *Codec) Decode(raw string) (*model.AuthState, error) {
	token, err := jwt.ParseWithClaims(raw, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return c.secret, nil
	}, jwt.WithoutClaimsValidation())
	if err != nil {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || claims.ExpiresAt == nil || claims.IssuedAt == nil {
		return nil, ErrInvalidToken
	}

	state := &model.AuthState{
		User:       claims.User,
		CreatedAt:  claims.IssuedAt.Time,
		ExpiresAt:  claims.ExpiresAt.Time,
		RememberMe: claims.RememberMe,
	}
	if claims.LastActivity != nil {
		state.LastActivity = claims.LastActivity.Time
	}
	return state, nil
}
