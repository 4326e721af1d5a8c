package authtoken

import (
	"testing"
	"time"

	"go-stockwise/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testState() model.AuthState {
	now := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	return model.AuthState{
		User: model.SessionUser{
			ID:       "u-1",
			Username: "admin",
			Email:    "admin@stockwise.com",
			FullName: "System Administrator",
			Role:     "admin",
		},
		CreatedAt:    now,
		ExpiresAt:    now.Add(time.Hour),
		RememberMe:   true,
		LastActivity: now,
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	codec := New([]byte("test-secret"))

	raw, err := codec.Encode(testState())
	require.NoError(t, err)

	got, err := codec.Decode(raw)
	require.NoError(t, err)

	want := testState()
	assert.Equal(t, want.User, got.User)
	assert.True(t, got.RememberMe)
	// Timestamps survive at second precision; compare instants, not
	// time.Time internals.
	assert.True(t, got.CreatedAt.Equal(want.CreatedAt))
	assert.True(t, got.ExpiresAt.Equal(want.ExpiresAt))
	assert.True(t, got.LastActivity.Equal(want.LastActivity))
}

func TestDecodeExpiredStillReadable(t *testing.T) {
	codec := New([]byte("test-secret"))

	state := testState()
	state.ExpiresAt = time.Now().Add(-2 * time.Hour)

	raw, err := codec.Encode(state)
	require.NoError(t, err)

	// Expiry is the session manager's call, not the codec's; an expired
	// blob must still decode so the logout can name its user.
	got, err := codec.Decode(raw)
	require.NoError(t, err)
	assert.Equal(t, "admin", got.User.Username)
}

func TestDecodeRejectsGarbage(t *testing.T) {
	codec := New([]byte("test-secret"))

	for _, raw := range []string{"", "not-a-token", "{\"user\":{}}", "a.b.c"} {
		_, err := codec.Decode(raw)
		assert.ErrorIs(t, err, ErrInvalidToken, "input %q", raw)
	}
}

func TestDecodeRejectsTampering(t *testing.T) {
	raw, err := New([]byte("secret-a")).Encode(testState())
	require.NoError(t, err)

	_, err = New([]byte("secret-b")).Decode(raw)
	assert.ErrorIs(t, err, ErrInvalidToken)

	// Flipping a payload byte breaks the signature.
	mangled := []byte(raw)
	mangled[len(mangled)/2] ^= 0x01
	_, err = New([]byte("secret-a")).Decode(string(mangled))
	assert.ErrorIs(t, err, ErrInvalidToken)
}
