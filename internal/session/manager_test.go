package session

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"go-stockwise/internal/model"
	"go-stockwise/pkg/authtoken"
	"go-stockwise/pkg/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func setupManager(t *testing.T) (*Manager, storage.KV, *fakeClock) {
	t.Helper()

	kv := storage.Memory()
	clock := newFakeClock()
	m := NewManager(kv, authtoken.New([]byte("test-secret")), WithClock(clock.Now))
	t.Cleanup(m.Close)
	return m, kv, clock
}

func testUser() model.SessionUser {
	return model.SessionUser{
		ID:       "u-1",
		Username: "admin",
		Email:    "admin@stockwise.com",
		FullName: "Administrator",
		Role:     model.RoleAdmin,
	}
}

func TestCreateSession(t *testing.T) {
	m, _, clock := setupManager(t)

	state, err := m.CreateSession(testUser(), false)
	require.NoError(t, err)
	assert.Equal(t, clock.Now().Add(SessionDuration), state.ExpiresAt)

	got := m.GetAuthState()
	require.NotNil(t, got)
	assert.Equal(t, "admin", got.User.Username)
	assert.True(t, m.IsAuthenticated())

	logs := m.RecentActivity()
	require.Len(t, logs, 1)
	assert.Equal(t, model.ActionLogin, logs[0].Action)
	assert.Equal(t, "u-1", logs[0].UserID)
}

func TestSessionExpires(t *testing.T) {
	m, _, clock := setupManager(t)

	_, err := m.CreateSession(testUser(), false)
	require.NoError(t, err)

	clock.Advance(SessionDuration + time.Minute)

	assert.Nil(t, m.GetAuthState())
	assert.False(t, m.IsAuthenticated())

	logs := m.RecentActivity()
	require.Len(t, logs, 2)
	assert.Equal(t, model.ActionLogout, logs[1].Action)
	assert.Equal(t, ReasonExpired, logs[1].Details)
}

func TestSlidingExpiration(t *testing.T) {
	m, _, clock := setupManager(t)

	_, err := m.CreateSession(testUser(), false)
	require.NoError(t, err)

	// Each successful auth check pushes the window out from now, so
	// activity at 50 minute intervals keeps the session alive well past
	// the original expiry.
	for i := 0; i < 3; i++ {
		clock.Advance(50 * time.Minute)
		user, err := m.RequireAuth()
		require.NoError(t, err)
		assert.Equal(t, "admin", user.Username)
	}

	state := m.GetAuthState()
	require.NotNil(t, state)
	assert.True(t, state.ExpiresAt.Equal(clock.Now().Add(SessionDuration)))
}

func TestRequireAuthUnauthenticated(t *testing.T) {
	m, _, _ := setupManager(t)

	user, err := m.RequireAuth()
	assert.Nil(t, user)
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestRequireAuthRoleDenied(t *testing.T) {
	m, _, clock := setupManager(t)

	staff := testUser()
	staff.Username = "staff"
	staff.Role = model.RoleStaff
	_, err := m.CreateSession(staff, false)
	require.NoError(t, err)

	clock.Advance(30 * time.Minute)
	user, err := m.RequireAuth(model.RoleAdmin)
	assert.Nil(t, user)
	assert.ErrorIs(t, err, ErrAccessDenied)

	// A denied check must not slide the expiry. The session still ends
	// one window after it was created.
	state := m.GetAuthState()
	require.NotNil(t, state)
	assert.True(t, state.ExpiresAt.Equal(clock.Now().Add(30*time.Minute)))

	// Roles are an exact set with no hierarchy. Staff passes a check
	// that names staff.
	user, err = m.RequireAuth(model.RoleAdmin, model.RoleStaff)
	require.NoError(t, err)
	assert.Equal(t, "staff", user.Username)
}

func TestCorruptStateTreatedAsSignedOut(t *testing.T) {
	m, kv, _ := setupManager(t)

	_, err := m.CreateSession(testUser(), false)
	require.NoError(t, err)

	require.NoError(t, kv.Set(authStateKey, []byte("{not a token}")))

	assert.Nil(t, m.GetAuthState())
	assert.False(t, m.IsAuthenticated())
}

func TestTamperedStateTreatedAsSignedOut(t *testing.T) {
	kv := storage.Memory()
	clock := newFakeClock()

	other := NewManager(kv, authtoken.New([]byte("other-secret")), WithClock(clock.Now))
	_, err := other.CreateSession(testUser(), false)
	require.NoError(t, err)
	other.Close()

	m := NewManager(kv, authtoken.New([]byte("test-secret")), WithClock(clock.Now))
	t.Cleanup(m.Close)

	assert.Nil(t, m.GetAuthState())
}

func TestClearSession(t *testing.T) {
	m, _, _ := setupManager(t)

	_, err := m.CreateSession(testUser(), false)
	require.NoError(t, err)

	m.ClearSession("")
	assert.False(t, m.IsAuthenticated())

	logs := m.RecentActivity()
	require.Len(t, logs, 2)
	assert.Equal(t, model.ActionLogout, logs[1].Action)
	assert.Equal(t, ReasonUserLogout, logs[1].Details)

	// Clearing again is a no-op and records nothing.
	m.ClearSession("")
	assert.Len(t, m.RecentActivity(), 2)
}

func TestAuthLogCapped(t *testing.T) {
	m, _, _ := setupManager(t)

	for i := 0; i < 60; i++ {
		user := testUser()
		user.Username = fmt.Sprintf("user%d", i)
		_, err := m.CreateSession(user, false)
		require.NoError(t, err)
		m.ClearSession("")
	}

	logs := m.RecentActivity()
	require.Len(t, logs, maxAuthLogEntries)
	// 120 entries were written; the oldest 20 fell off the front.
	assert.Equal(t, "user10", logs[0].Username)
	assert.Equal(t, model.ActionLogin, logs[0].Action)
	assert.Equal(t, "user59", logs[len(logs)-1].Username)
	assert.Equal(t, model.ActionLogout, logs[len(logs)-1].Action)
}

func TestObservers(t *testing.T) {
	m, _, _ := setupManager(t)

	var events []Event
	cancel := m.OnChange(func(ev Event) {
		events = append(events, ev)
	})

	_, err := m.CreateSession(testUser(), false)
	require.NoError(t, err)
	m.ClearSession("")

	require.Len(t, events, 2)
	assert.True(t, events[0].Authenticated)
	assert.Equal(t, "admin", events[0].User.Username)
	assert.False(t, events[1].Authenticated)
	assert.Equal(t, ReasonUserLogout, events[1].Reason)

	cancel()
	_, err = m.CreateSession(testUser(), false)
	require.NoError(t, err)
	assert.Len(t, events, 2)
}

func TestCrossInstanceChange(t *testing.T) {
	kv := storage.Memory()
	clock := newFakeClock()
	codec := authtoken.New([]byte("test-secret"))

	a := NewManager(kv, codec, WithClock(clock.Now))
	t.Cleanup(a.Close)
	b := NewManager(kv, codec, WithClock(clock.Now))
	t.Cleanup(b.Close)

	var events []Event
	b.OnChange(func(ev Event) {
		events = append(events, ev)
	})

	// A session opened by one instance is visible to the other, and the
	// other's observers hear about it through the storage subscription.
	_, err := a.CreateSession(testUser(), false)
	require.NoError(t, err)

	assert.True(t, b.IsAuthenticated())
	require.NotEmpty(t, events)
	assert.True(t, events[0].Authenticated)

	a.ClearSession("")
	assert.False(t, b.IsAuthenticated())
	last := events[len(events)-1]
	assert.False(t, last.Authenticated)
}

func TestCurrentActor(t *testing.T) {
	m, _, clock := setupManager(t)

	id, name := m.CurrentActor()
	assert.Empty(t, id)
	assert.Empty(t, name)

	_, err := m.CreateSession(testUser(), false)
	require.NoError(t, err)

	id, name = m.CurrentActor()
	assert.Equal(t, "u-1", id)
	assert.Equal(t, "admin", name)

	// CurrentActor is a passive read: an expired session reports no
	// actor but is not cleared and logs nothing.
	clock.Advance(SessionDuration + time.Minute)
	id, name = m.CurrentActor()
	assert.Empty(t, id)
	assert.Empty(t, name)
	assert.Len(t, m.RecentActivity(), 1)
}
