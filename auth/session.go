package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// ErrInvalidRequest signals a registration payload that fails
// validation before any store access.
var ErrInvalidRequest = errors.New("auth: invalid request")

// Config assembles Manager dependencies.
type Config struct {
	Store    CredentialStore
	Sessions SessionStore
	Logger   *slog.Logger
	Metrics  *Metrics

	// CheckLatency models the credential check as a bounded-latency
	// operation. Zero in tests; a deployment can set it to mimic the
	// upstream round trip the dashboard originally simulated.
	CheckLatency time.Duration

	// ReserveDemoEmails makes Register reject emails held by seeded
	// demo accounts. Off by default: the observed behavior lets a demo
	// email be registered, after which the demo credentials keep
	// winning at login.
	ReserveDemoEmails bool
}

// Manager owns the single current session for the process. It mediates
// login, registration, logout and startup restoration against the
// seeded demo table and the durable registry, and publishes the current
// identity to the rest of the application.
//
// One mutex serializes the whole check-mutate-publish sequence of every
// operation, so observers never see partial state: the identity is
// published only after validation and persistence have succeeded.
type Manager struct {
	store    CredentialStore
	sessions SessionStore
	logger   *slog.Logger
	metrics  *Metrics

	latency     time.Duration
	reserveDemo bool

	mu      sync.Mutex // serializes login/register/logout/restore
	stateMu sync.RWMutex
	current *User

	loading atomic.Bool
}

// NewManager builds a session manager in the Anonymous state. Call
// Restore to pick up a persisted session.
func NewManager(cfg Config) *Manager {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		store:       cfg.Store,
		sessions:    cfg.Sessions,
		logger:      logger,
		metrics:     cfg.Metrics,
		latency:     cfg.CheckLatency,
		reserveDemo: cfg.ReserveDemoEmails,
	}
}

// Restore loads the persisted current-session record at startup. A
// missing record leaves the manager Anonymous; a corrupt record is
// discarded, cleared from durable storage and logged, and the manager
// stays Anonymous. Neither case is an error to the caller.
func (m *Manager) Restore(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	user, err := m.sessions.Load(ctx)
	switch {
	case err == nil:
		m.publish(&user)
		m.metrics.restore("restored")
		m.logger.Info("session restored", "email", user.Email, "role", user.Role)
		return nil
	case errors.Is(err, ErrNoSession):
		m.metrics.restore("empty")
		return nil
	case errors.Is(err, ErrCorruptSession):
		m.logger.Warn("discarding corrupt session record", "error", err)
		if clearErr := m.sessions.Clear(ctx); clearErr != nil {
			return fmt.Errorf("auth: clear corrupt session: %w", clearErr)
		}
		m.metrics.restore("corrupt")
		return nil
	default:
		return fmt.Errorf("auth: restore session: %w", err)
	}
}

// Login authenticates the credential pair. The seeded demo table is
// checked first and is authoritative on email collisions; only when it
// does not match exactly is the durable registry consulted. On success
// the stripped identity is persisted and then published. On failure the
// current identity is unchanged.
func (m *Manager) Login(ctx context.Context, req LoginRequest) (User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.loading.Store(true)
	defer m.loading.Store(false)

	m.wait()

	if acct, ok := demoAccounts[req.Email]; ok && req.Password == demoPassword {
		if err := m.sessions.Save(ctx, acct); err != nil {
			return User{}, fmt.Errorf("auth: persist session: %w", err)
		}
		m.publish(&acct)
		m.metrics.login("demo", "success")
		m.logger.Info("login succeeded", "email", acct.Email, "role", acct.Role, "source", "demo")
		return acct, nil
	}

	user, err := m.store.FindByEmailAndPassword(ctx, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			m.metrics.login("registry", "failure")
			m.logger.Info("login failed", "email", req.Email)
			return User{}, ErrInvalidCredentials
		}
		return User{}, err
	}

	if err := m.sessions.Save(ctx, user); err != nil {
		return User{}, fmt.Errorf("auth: persist session: %w", err)
	}
	m.publish(&user)
	m.metrics.login("registry", "success")
	m.logger.Info("login succeeded", "email", user.Email, "role", user.Role, "source", "registry")
	return user, nil
}

// Register creates a new identity in the durable registry and logs it
// in. On ErrDuplicateEmail nothing is mutated and the current identity
// is unchanged.
func (m *Manager) Register(ctx context.Context, req RegisterRequest) (User, error) {
	if req.Email == "" || req.Password == "" || req.Name == "" {
		return User{}, fmt.Errorf("%w: email, password and name are required", ErrInvalidRequest)
	}
	if !req.Role.Valid() {
		return User{}, fmt.Errorf("%w: unknown role %q", ErrInvalidRequest, req.Role)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.loading.Store(true)
	defer m.loading.Store(false)

	m.wait()

	if m.reserveDemo && IsDemoEmail(req.Email) {
		m.metrics.registration("duplicate")
		return User{}, ErrDuplicateEmail
	}

	exists, err := m.store.ExistsByEmail(ctx, req.Email)
	if err != nil {
		return User{}, err
	}
	if exists {
		m.metrics.registration("duplicate")
		return User{}, ErrDuplicateEmail
	}

	user := User{
		ID:      uuid.NewString(),
		Email:   req.Email,
		Name:    req.Name,
		Role:    req.Role,
		Profile: req.Profile,
	}

	if err := m.store.Append(ctx, user, req.Password); err != nil {
		if errors.Is(err, ErrDuplicateEmail) {
			m.metrics.registration("duplicate")
		}
		return User{}, err
	}

	// Auto-login: persist the stripped identity, then publish.
	if err := m.sessions.Save(ctx, user); err != nil {
		return User{}, fmt.Errorf("auth: persist session: %w", err)
	}
	m.publish(&user)
	m.metrics.registration("success")
	m.logger.Info("user registered", "email", user.Email, "role", user.Role)
	return user, nil
}

// Logout clears the current identity and the persisted session record.
// Always succeeds on an already-Anonymous manager.
func (m *Manager) Logout(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.publish(nil)
	if err := m.sessions.Clear(ctx); err != nil {
		return fmt.Errorf("auth: clear session: %w", err)
	}
	m.logger.Info("logged out")
	return nil
}

// Current returns the published identity, or false when Anonymous.
// Pure read, no side effects.
func (m *Manager) Current() (User, bool) {
	m.stateMu.RLock()
	defer m.stateMu.RUnlock()
	if m.current == nil {
		return User{}, false
	}
	return *m.current, true
}

// Loading reports whether a login or registration is in flight. Purely
// advisory, for callers that want to disable their UI.
func (m *Manager) Loading() bool {
	return m.loading.Load()
}

func (m *Manager) publish(user *User) {
	m.stateMu.Lock()
	m.current = user
	m.stateMu.Unlock()
}

func (m *Manager) wait() {
	if m.latency > 0 {
		time.Sleep(m.latency)
	}
}
