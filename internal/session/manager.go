package session

import (
	"encoding/json"
	"errors"
	"log"
	"sync"
	"time"

	"go-stockwise/internal/model"
	"go-stockwise/pkg/authtoken"
	"go-stockwise/pkg/storage"

	"github.com/google/uuid"
)

const (
	authStateKey = "stockwise_auth_state"
	authLogKey   = "stockwise_auth_logs"

	// SessionDuration is the sliding window a session stays valid without a
	// successful auth check.
	SessionDuration = time.Hour

	monitorInterval   = 60 * time.Second
	maxAuthLogEntries = 100
)

// Logout reasons recorded in the auth activity log.
const (
	ReasonUserLogout = "User logout"
	ReasonExpired    = "Session expired"
)

var (
	// ErrUnauthenticated signals that no valid session exists and the caller
	// should be sent to the login view.
	ErrUnauthenticated = errors.New("authentication required")

	// ErrAccessDenied signals that a session exists but its role is not in
	// the allowed set; the caller should be sent to a role-appropriate
	// landing view after a blocking notice.
	ErrAccessDenied = errors.New("access denied")
)

// Event describes a change of auth state, delivered to observers.
type Event struct {
	Authenticated bool
	User          *model.SessionUser
	Reason        string
}

// Manager owns the single auth-state blob: creating, validating, refreshing
// and clearing it, plus role-gated authorization checks. It keeps no state
// of its own beyond the blob, so any number of instances over the same
// medium observe the same session.
type Manager struct {
	kv       storage.KV
	codec    *authtoken.Codec
	now      func() time.Time
	duration time.Duration

	mu        sync.Mutex
	selfWrite bool

	obsMu     sync.Mutex
	obsNext   int
	observers map[int]func(Event)

	cancelWatch func()
	stopMonitor chan struct{}
	stopOnce    sync.Once
}

// Option configures a Manager at construction.
type Option func(*Manager)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// WithDuration overrides the session window.
func WithDuration(d time.Duration) Option {
	return func(m *Manager) { m.duration = d }
}

// NewManager constructs a Manager over the shared medium and subscribes to
// external changes of the auth blob so a session cleared elsewhere is
// observed here. Call Close to detach.
func NewManager(kv storage.KV, codec *authtoken.Codec, opts ...Option) *Manager {
	m := &Manager{
		kv:          kv,
		codec:       codec,
		now:         time.Now,
		duration:    SessionDuration,
		observers:   make(map[int]func(Event)),
		stopMonitor: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}

	m.cancelWatch = kv.Subscribe(func(key string) {
		if key == authStateKey {
			m.handleStorageChange()
		}
	})

	return m
}

// StartMonitor launches the periodic liveness check that expires stale
// sessions even when no auth check happens.
func (m *Manager) StartMonitor() {
	go func() {
		ticker := time.NewTicker(monitorInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				// GetAuthState clears and logs if the session lapsed.
				m.GetAuthState()
			case <-m.stopMonitor:
				return
			}
		}
	}()
}

// Close stops the monitor and the storage subscription.
func (m *Manager) Close() {
	m.stopOnce.Do(func() {
		close(m.stopMonitor)
		if m.cancelWatch != nil {
			m.cancelWatch()
		}
	})
}

// OnChange registers an observer for auth-state transitions. The returned
// func cancels the subscription.
func (m *Manager) OnChange(fn func(Event)) func() {
	m.obsMu.Lock()
	id := m.obsNext
	m.obsNext++
	m.observers[id] = fn
	m.obsMu.Unlock()

	return func() {
		m.obsMu.Lock()
		delete(m.observers, id)
		m.obsMu.Unlock()
	}
}

func (m *Manager) notify(ev Event) {
	m.obsMu.Lock()
	fns := make([]func(Event), 0, len(m.observers))
	for _, fn := range m.observers {
		fns = append(fns, fn)
	}
	m.obsMu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
}

// peek reads and decodes the stored state without side effects. A missing,
// corrupt or unreadable blob is nil; an expired state is returned as-is so
// callers can decide what to do with it.
func (m *Manager) peek() *model.AuthState {
	raw, ok, err := m.kv.Get(authStateKey)
	if err != nil {
		log.Printf("session: storage unavailable reading auth state: %v", err)
		return nil
	}
	if !ok {
		return nil
	}
	state, err := m.codec.Decode(string(raw))
	if err != nil {
		log.Printf("session: corrupt auth state, treating as signed out: %v", err)
		return nil
	}
	return state
}

func (m *Manager) writeState(state model.AuthState) error {
	raw, err := m.codec.Encode(state)
	if err != nil {
		return err
	}

	m.setSelfWrite(true)
	err = m.kv.Set(authStateKey, []byte(raw))
	m.setSelfWrite(false)
	return err
}

// setSelfWrite marks writes made by this Manager so the storage
// subscription, which fires synchronously inside Set/Remove, can tell
// its own writes from another tab's.
func (m *Manager) setSelfWrite(v bool) {
	m.mu.Lock()
	m.selfWrite = v
	m.mu.Unlock()
}

func (m *Manager) removeState() error {
	m.setSelfWrite(true)
	err := m.kv.Remove(authStateKey)
	m.setSelfWrite(false)
	return err
}

// CreateSession snapshots the user (never the password hash) and opens a
// session expiring one window from now.
func (m *Manager) CreateSession(user model.SessionUser, remember bool) (*model.AuthState, error) {
	now := m.now()
	state := model.AuthState{
		User:         user,
		CreatedAt:    now,
		ExpiresAt:    now.Add(m.duration),
		RememberMe:   remember,
		LastActivity: now,
	}

	if err := m.writeState(state); err != nil {
		return nil, err
	}

	m.logAuthActivity(model.ActionLogin, user.ID, user.Username, "")
	m.notify(Event{Authenticated: true, User: &state.User})
	return &state, nil
}

// GetAuthState returns the current valid state, or nil. Observing an
// expired state clears it, which records the LOGOUT and notifies observers.
func (m *Manager) GetAuthState() *model.AuthState {
	state := m.peek()
	if state == nil {
		return nil
	}
	if state.Expired(m.now()) {
		m.ClearSession(ReasonExpired)
		return nil
	}
	return state
}

// IsAuthenticated reports whether a valid session exists.
func (m *Manager) IsAuthenticated() bool {
	return m.GetAuthState() != nil
}

// CurrentUser returns the session's user snapshot, or nil.
func (m *Manager) CurrentUser() *model.SessionUser {
	state := m.GetAuthState()
	if state == nil {
		return nil
	}
	return &state.User
}

// CurrentActor attributes audit entries. Unlike CurrentUser it never
// mutates state or notifies observers, so the store may call it while
// holding its own lock.
func (m *Manager) CurrentActor() (userID, username string) {
	state := m.peek()
	if state == nil || state.Expired(m.now()) {
		return "", ""
	}
	return state.User.ID, state.User.Username
}

// RefreshSession extends a valid session by one full window (sliding
// expiration). Returns false when there is nothing to refresh.
func (m *Manager) RefreshSession() bool {
	state := m.GetAuthState()
	if state == nil {
		return false
	}

	now := m.now()
	state.ExpiresAt = now.Add(m.duration)
	state.LastActivity = now

	if err := m.writeState(*state); err != nil {
		log.Printf("session: failed to persist refresh: %v", err)
		return false
	}
	return true
}

// ClearSession removes the auth state and records a LOGOUT with the given
// reason. Clearing an already-absent session is a no-op.
func (m *Manager) ClearSession(reason string) {
	if reason == "" {
		reason = ReasonUserLogout
	}

	state := m.peek()
	if state == nil {
		return
	}

	if err := m.removeState(); err != nil {
		log.Printf("session: failed to clear auth state: %v", err)
	}

	m.logAuthActivity(model.ActionLogout, state.User.ID, state.User.Username, reason)
	m.notify(Event{Authenticated: false, Reason: reason})
}

// HasRole reports whether the current session's role is in the allowed set.
func (m *Manager) HasRole(roles ...string) bool {
	state := m.GetAuthState()
	return state != nil && state.HasRole(roles...)
}

// RequireAuth gates access to a protected operation. With no valid session
// it returns ErrUnauthenticated. With roles given and the session's role
// outside the set it returns ErrAccessDenied without refreshing the
// session. Otherwise it refreshes the sliding expiry and returns the user.
func (m *Manager) RequireAuth(roles ...string) (*model.SessionUser, error) {
	state := m.GetAuthState()
	if state == nil {
		return nil, ErrUnauthenticated
	}

	if len(roles) > 0 && !state.HasRole(roles...) {
		return nil, ErrAccessDenied
	}

	m.RefreshSession()
	user := state.User
	return &user, nil
}

// handleStorageChange re-validates after the auth blob changed underneath
// us (another tab or process wrote or cleared it).
func (m *Manager) handleStorageChange() {
	m.mu.Lock()
	self := m.selfWrite
	m.mu.Unlock()
	if self {
		return
	}

	state := m.GetAuthState()
	if state == nil {
		m.notify(Event{Authenticated: false, Reason: "Signed out elsewhere"})
		return
	}
	m.notify(Event{Authenticated: true, User: &state.User})
}

// logAuthActivity appends to the bounded auth log. Failures are logged and
// swallowed; auth logging is best-effort.
func (m *Manager) logAuthActivity(action model.ActivityAction, userID, username, details string) {
	entry := model.ActivityLogEntry{
		ID:        uuid.NewString(),
		Action:    action,
		UserID:    userID,
		Username:  username,
		Details:   details,
		Timestamp: m.now(),
	}

	entries := m.RecentActivity()
	entries = append(entries, entry)
	if len(entries) > maxAuthLogEntries {
		entries = entries[len(entries)-maxAuthLogEntries:]
	}

	raw, err := json.Marshal(entries)
	if err != nil {
		log.Printf("session: failed to encode auth log: %v", err)
		return
	}
	if err := m.kv.Set(authLogKey, raw); err != nil {
		log.Printf("session: failed to write auth log: %v", err)
	}
}

// RecentActivity returns the bounded LOGIN/LOGOUT trail, oldest first.
func (m *Manager) RecentActivity() []model.ActivityLogEntry {
	raw, ok, err := m.kv.Get(authLogKey)
	if err != nil || !ok {
		return nil
	}
	var entries []model.ActivityLogEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		log.Printf("session: corrupt auth log, starting fresh: %v", err)
		return nil
	}
	return entries
}
