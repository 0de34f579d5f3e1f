// Package session owns the operator credential on the client side. A
// Manager logs in, keeps the bearer token in memory and in a Store, and
// gates every protected request on holding one.
package session

import (
	"context"
	"net/http"
	"strings"
	"sync"

	"github.com/knoxite/admin"
	"github.com/knoxite/admin/kit/platform/errors"
	"go.uber.org/zap"
)

// State is the authentication state of a Manager.
type State int

const (
	Anonymous State = iota
	Authenticating
	Authenticated
)

func (s State) String() string {
	switch s {
	case Anonymous:
		return "anonymous"
	case Authenticating:
		return "authenticating"
	case Authenticated:
		return "authenticated"
	}
	return "unknown"
}

// ErrNotAuthenticated is returned by guarded operations while no credential
// is held. Nothing is sent in that case.
var ErrNotAuthenticated = &errors.Error{
	Code: errors.EUnauthorized,
	Msg:  "not logged in",
}

// ErrLoginInProgress is returned when Login is called while another login
// has not finished.
var ErrLoginInProgress = &errors.Error{
	Code: errors.EConflict,
	Msg:  "login already in progress",
}

// ErrLoginCancelled is returned by a Login that was overtaken by a Logout
// before the server answered. The credential it received is dropped.
var ErrLoginCancelled = &errors.Error{
	Code: errors.EConflict,
	Msg:  "login cancelled by logout",
}

// Manager holds the session of one operator against one server.
type Manager struct {
	log      *zap.Logger
	loginSvc admin.LoginService
	store    Store
	onLogout []func()

	mu       sync.RWMutex
	state    State
	cred     admin.Credential
	epoch    uint64
	restored bool
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger.
func WithLogger(log *zap.Logger) Option {
	return func(m *Manager) {
		m.log = log
	}
}

// WithStore sets where the credential is persisted. The default keeps it in
// memory only.
func WithStore(s Store) Option {
	return func(m *Manager) {
		m.store = s
	}
}

// WithLogoutHook registers fn to run every time the manager leaves the
// Authenticated state. Hooks run without the manager's lock held.
func WithLogoutHook(fn func()) Option {
	return func(m *Manager) {
		m.onLogout = append(m.onLogout, fn)
	}
}

// NewManager returns an anonymous Manager logging in through loginSvc.
func NewManager(loginSvc admin.LoginService, opts ...Option) *Manager {
	m := &Manager{
		log:      zap.NewNop(),
		loginSvc: loginSvc,
		store:    &MemoryStore{},
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// State returns the current state.
func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// Credential returns the held credential, if any.
func (m *Manager) Credential() (admin.Credential, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cred, !m.cred.Empty()
}

// Login exchanges username and password for a credential and persists it.
// On failure the manager is Anonymous, whatever it held before.
func (m *Manager) Login(ctx context.Context, username, password string) (admin.Credential, error) {
	if strings.TrimSpace(username) == "" || password == "" {
		return "", &errors.Error{
			Code: errors.EEmptyValue,
			Op:   "session.Login",
			Msg:  "username and password are required",
		}
	}

	m.mu.Lock()
	if m.state == Authenticating {
		m.mu.Unlock()
		return "", ErrLoginInProgress
	}
	wasAuthenticated := m.state == Authenticated
	m.state = Authenticating
	m.cred = ""
	m.epoch++
	epoch := m.epoch
	m.mu.Unlock()
	m.log.Debug("Session state changed", zap.Stringer("state", Authenticating))

	cred, err := m.loginSvc.Login(ctx, username, password)
	if err == nil && cred.Empty() {
		err = &errors.Error{Code: errors.EInternal, Op: "session.Login", Msg: "login returned no credential"}
	}
	if err != nil {
		m.mu.Lock()
		if m.epoch == epoch {
			m.state = Anonymous
		}
		m.mu.Unlock()
		m.log.Info("Login failed", zap.String("username", username), zap.Error(err))
		if wasAuthenticated {
			m.clearStore(ctx)
			m.fireLogout()
		}
		return "", err
	}

	m.mu.Lock()
	if m.state != Authenticating || m.epoch != epoch {
		m.mu.Unlock()
		m.log.Info("Login overtaken by logout; dropping credential", zap.String("username", username))
		return "", ErrLoginCancelled
	}
	m.state = Authenticated
	m.cred = cred
	m.mu.Unlock()
	m.log.Info("Logged in", zap.String("username", username))

	if err := m.Persist(ctx, cred); err != nil {
		m.log.Warn("Unable to persist credential; session will not survive a restart", zap.Error(err))
	}
	// a logout that ran while saving must not leave the credential stored
	m.mu.RLock()
	stale := m.epoch != epoch
	m.mu.RUnlock()
	if stale {
		m.clearStore(ctx)
	}
	return cred, nil
}

// Persist writes cred to the store.
func (m *Manager) Persist(ctx context.Context, cred admin.Credential) error {
	if err := m.store.Save(ctx, cred); err != nil {
		return &errors.Error{
			Code: errors.EInternal,
			Op:   "session.Persist",
			Msg:  "unable to store credential",
			Err:  err,
		}
	}
	return nil
}

// Restore loads a persisted credential and, if one exists, enters the
// Authenticated state. Only the first call reads the store; later calls
// report the current credential.
func (m *Manager) Restore(ctx context.Context) (admin.Credential, bool, error) {
	m.mu.Lock()
	if m.restored {
		cred := m.cred
		m.mu.Unlock()
		return cred, !cred.Empty(), nil
	}
	m.restored = true
	m.mu.Unlock()

	cred, err := m.store.Load(ctx)
	if err != nil {
		return "", false, &errors.Error{
			Code: errors.EInternal,
			Op:   "session.Restore",
			Msg:  "unable to load stored credential",
			Err:  err,
		}
	}
	if cred.Empty() {
		return "", false, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != Anonymous {
		// a login finished first
		return m.cred, !m.cred.Empty(), nil
	}
	m.state = Authenticated
	m.cred = cred
	m.log.Debug("Session restored")
	return cred, true, nil
}

// Logout forgets the credential in memory and in the store.
func (m *Manager) Logout(ctx context.Context) error {
	m.mu.Lock()
	was := m.state
	m.state = Anonymous
	m.cred = ""
	m.epoch++
	m.mu.Unlock()

	err := m.store.Clear(ctx)
	if was == Authenticated {
		m.log.Info("Logged out")
		m.fireLogout()
	}
	if err != nil {
		return &errors.Error{
			Code: errors.EInternal,
			Op:   "session.Logout",
			Msg:  "unable to clear stored credential",
			Err:  err,
		}
	}
	return nil
}

// Guard returns ErrNotAuthenticated unless a credential is held.
func (m *Manager) Guard(ctx context.Context) error {
	if _, ok := m.Credential(); !ok {
		return ErrNotAuthenticated
	}
	return nil
}

// Authorize sets the bearer credential on req.
func (m *Manager) Authorize(req *http.Request) error {
	cred, ok := m.Credential()
	if !ok {
		return ErrNotAuthenticated
	}
	req.Header.Set("Authorization", "Bearer "+cred.Token())
	return nil
}

// Check forces a logout when err is an authorization failure and returns
// err unchanged.
func (m *Manager) Check(ctx context.Context, err error) error {
	if err != nil && errors.IsAuthFailure(err) {
		m.expire(ctx, "")
	}
	return err
}

// expire drops the session after the server rejected it. A non-empty used
// credential only expires the session if it is still the one held, so a
// late rejection cannot end a newer login.
func (m *Manager) expire(ctx context.Context, used admin.Credential) {
	m.mu.Lock()
	if m.state != Authenticated || (!used.Empty() && used != m.cred) {
		m.mu.Unlock()
		return
	}
	m.state = Anonymous
	m.cred = ""
	m.epoch++
	m.mu.Unlock()

	m.log.Warn("Session rejected by server; logged out")
	m.clearStore(ctx)
	m.fireLogout()
}

func (m *Manager) clearStore(ctx context.Context) {
	if err := m.store.Clear(ctx); err != nil {
		m.log.Warn("Unable to clear stored credential", zap.Error(err))
	}
}

func (m *Manager) fireLogout() {
	for _, fn := range m.onLogout {
		fn()
	}
}

// Transport wraps next so that requests carry the credential and a 401 or
// 403 response ends the session. Without a credential the request is not
// sent and ErrNotAuthenticated is returned.
func (m *Manager) Transport(next http.RoundTripper) http.RoundTripper {
	if next == nil {
		next = http.DefaultTransport
	}
	return roundTripFunc(func(req *http.Request) (*http.Response, error) {
		cred, ok := m.Credential()
		if !ok {
			return nil, ErrNotAuthenticated
		}

		req = req.Clone(req.Context())
		req.Header.Set("Authorization", "Bearer "+cred.Token())

		resp, err := next.RoundTrip(req)
		if err != nil {
			return nil, err
		}
		switch resp.StatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			m.expire(req.Context(), cred)
		}
		return resp, nil
	})
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) { return f(req) }
