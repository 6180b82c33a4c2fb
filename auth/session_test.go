package auth

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
)

func testManager(t *testing.T, cfg Config) *Manager {
	t.Helper()
	if cfg.Store == nil {
		cfg.Store = newFakeCredentialStore()
	}
	if cfg.Sessions == nil {
		cfg.Sessions = &fakeSessionStore{}
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return NewManager(cfg)
}

func TestManager_DemoLogin(t *testing.T) {
	sessions := &fakeSessionStore{}
	m := testManager(t, Config{Sessions: sessions})
	ctx := context.Background()

	user, err := m.Login(ctx, LoginRequest{Email: "farmer@demo.com", Password: "demo123"})
	if err != nil {
		t.Fatalf("demo login: unexpected error: %v", err)
	}
	if user.Role != RoleFarmer {
		t.Fatalf("expected role %s got %s", RoleFarmer, user.Role)
	}
	if user.Profile == nil || user.Profile.District != "Cuttack" {
		t.Fatalf("expected demo farmer profile, got %+v", user.Profile)
	}

	current, ok := m.Current()
	if !ok || current.ID != "farmer-1" {
		t.Fatalf("expected current identity farmer-1, got %+v ok=%v", current, ok)
	}
	if sessions.raw == nil {
		t.Fatal("expected session record to be persisted")
	}

	// A wrong secret fails and leaves the session untouched.
	if _, err := m.Login(ctx, LoginRequest{Email: "farmer@demo.com", Password: "wrong"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if current, ok := m.Current(); !ok || current.ID != "farmer-1" {
		t.Fatalf("failed login must not change state, got %+v ok=%v", current, ok)
	}
}

func TestManager_RegisterAutoLoginAndDuplicate(t *testing.T) {
	m := testManager(t, Config{})
	ctx := context.Background()

	first, err := m.Register(ctx, RegisterRequest{
		Email:    "a@x.com",
		Password: "p1",
		Name:     "A",
		Role:     RoleFarmer,
	})
	if err != nil {
		t.Fatalf("register: unexpected error: %v", err)
	}
	if first.ID == "" {
		t.Fatal("expected a fresh id to be assigned")
	}
	if current, ok := m.Current(); !ok || current.Email != "a@x.com" {
		t.Fatalf("expected auto-login as a@x.com, got %+v ok=%v", current, ok)
	}

	_, err = m.Register(ctx, RegisterRequest{
		Email:    "a@x.com",
		Password: "p2",
		Name:     "A again",
		Role:     RoleFarmer,
	})
	if !errors.Is(err, ErrDuplicateEmail) {
		t.Fatalf("expected ErrDuplicateEmail, got %v", err)
	}
	if current, ok := m.Current(); !ok || current.ID != first.ID {
		t.Fatalf("duplicate registration must not change state, got %+v ok=%v", current, ok)
	}
}

func TestManager_RegisterValidation(t *testing.T) {
	m := testManager(t, Config{})
	ctx := context.Background()

	if _, err := m.Register(ctx, RegisterRequest{Email: "a@x.com", Role: RoleFarmer}); !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("expected ErrInvalidRequest for missing fields, got %v", err)
	}
	if _, err := m.Register(ctx, RegisterRequest{
		Email:    "a@x.com",
		Password: "p1",
		Name:     "A",
		Role:     Role("admin"),
	}); !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("expected ErrInvalidRequest for unknown role, got %v", err)
	}
}

func TestManager_DemoTableWinsEmailCollision(t *testing.T) {
	m := testManager(t, Config{})
	ctx := context.Background()

	// The default policy lets a demo email be registered.
	registered, err := m.Register(ctx, RegisterRequest{
		Email:    "farmer@demo.com",
		Password: "secret1",
		Name:     "Shadow",
		Role:     RoleResearcher,
	})
	if err != nil {
		t.Fatalf("register demo email: unexpected error: %v", err)
	}

	// The demo secret resolves to the demo identity, not the registered one.
	user, err := m.Login(ctx, LoginRequest{Email: "farmer@demo.com", Password: "demo123"})
	if err != nil {
		t.Fatalf("demo login: unexpected error: %v", err)
	}
	if user.ID != "farmer-1" || user.Role != RoleFarmer {
		t.Fatalf("expected the seeded demo identity, got %+v", user)
	}

	// The registered secret still reaches the registry record.
	user, err = m.Login(ctx, LoginRequest{Email: "farmer@demo.com", Password: "secret1"})
	if err != nil {
		t.Fatalf("registry login: unexpected error: %v", err)
	}
	if user.ID != registered.ID {
		t.Fatalf("expected registered identity %q, got %q", registered.ID, user.ID)
	}
}

func TestManager_ReserveDemoEmails(t *testing.T) {
	m := testManager(t, Config{ReserveDemoEmails: true})

	_, err := m.Register(context.Background(), RegisterRequest{
		Email:    "govt@demo.com",
		Password: "whatever",
		Name:     "Shadow",
		Role:     RoleGovernment,
	})
	if !errors.Is(err, ErrDuplicateEmail) {
		t.Fatalf("expected ErrDuplicateEmail for reserved demo email, got %v", err)
	}
}

func TestManager_RestoreRoundTrip(t *testing.T) {
	sessions := &fakeSessionStore{}
	ctx := context.Background()

	m := testManager(t, Config{Sessions: sessions})
	if _, err := m.Login(ctx, LoginRequest{Email: "research@demo.com", Password: "demo123"}); err != nil {
		t.Fatalf("login: %v", err)
	}

	// A fresh manager over the same durable record restores the session.
	restarted := testManager(t, Config{Sessions: sessions})
	if err := restarted.Restore(ctx); err != nil {
		t.Fatalf("restore: %v", err)
	}
	current, ok := restarted.Current()
	if !ok || current.ID != "research-1" || current.Role != RoleResearcher {
		t.Fatalf("expected restored researcher session, got %+v ok=%v", current, ok)
	}
}

func TestManager_RestoreEmpty(t *testing.T) {
	m := testManager(t, Config{})
	if err := m.Restore(context.Background()); err != nil {
		t.Fatalf("restore: %v", err)
	}
	if _, ok := m.Current(); ok {
		t.Fatal("expected Anonymous after restoring nothing")
	}
}

func TestManager_RestoreCorruptRecord(t *testing.T) {
	sessions := &fakeSessionStore{raw: []byte("{not json")}
	m := testManager(t, Config{Sessions: sessions})

	if err := m.Restore(context.Background()); err != nil {
		t.Fatalf("restore must recover from a corrupt record: %v", err)
	}
	if _, ok := m.Current(); ok {
		t.Fatal("expected Anonymous after discarding corrupt record")
	}
	if sessions.raw != nil {
		t.Fatal("expected the corrupt record to be cleared from durable storage")
	}
}

func TestManager_LogoutIdempotent(t *testing.T) {
	sessions := &fakeSessionStore{}
	m := testManager(t, Config{Sessions: sessions})
	ctx := context.Background()

	// Logout while Anonymous is a no-op that still succeeds.
	if err := m.Logout(ctx); err != nil {
		t.Fatalf("logout while anonymous: %v", err)
	}

	if _, err := m.Login(ctx, LoginRequest{Email: "govt@demo.com", Password: "demo123"}); err != nil {
		t.Fatalf("login: %v", err)
	}
	if err := m.Logout(ctx); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if _, ok := m.Current(); ok {
		t.Fatal("expected Anonymous after logout")
	}
	if sessions.raw != nil {
		t.Fatal("expected persisted session record to be cleared")
	}
	if err := m.Logout(ctx); err != nil {
		t.Fatalf("second logout: %v", err)
	}
}

func TestManager_PublishedIdentityCarriesNoSecret(t *testing.T) {
	m := testManager(t, Config{})
	ctx := context.Background()

	user, err := m.Register(ctx, RegisterRequest{
		Email:    "b@x.com",
		Password: "hunter2",
		Name:     "B",
		Role:     RoleFarmer,
		Profile:  &FarmProfile{FarmSize: "1.2", District: "Puri", Crops: []string{"rice"}},
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	raw, err := json.Marshal(user)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if strings.Contains(string(raw), "password") || strings.Contains(string(raw), "hunter2") {
		t.Fatalf("published identity leaked the secret: %s", raw)
	}
}

type fakeCredentialStore struct {
	records []credentialRecord
}

func newFakeCredentialStore() *fakeCredentialStore {
	return &fakeCredentialStore{}
}

func (f *fakeCredentialStore) FindByEmailAndPassword(ctx context.Context, email, password string) (User, error) {
	for _, rec := range f.records {
		if rec.Email == email && rec.Password == password {
			return rec.User, nil
		}
	}
	return User{}, ErrUserNotFound
}

func (f *fakeCredentialStore) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	for _, rec := range f.records {
		if rec.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeCredentialStore) Append(ctx context.Context, user User, password string) error {
	for _, rec := range f.records {
		if rec.Email == user.Email {
			return ErrDuplicateEmail
		}
	}
	f.records = append(f.records, credentialRecord{User: user, Password: password})
	return nil
}

// fakeSessionStore keeps the record as raw JSON so corrupt-record
// handling behaves like the durable implementations.
type fakeSessionStore struct {
	raw []byte
}

func (f *fakeSessionStore) Load(ctx context.Context) (User, error) {
	if f.raw == nil {
		return User{}, ErrNoSession
	}
	var user User
	if err := json.Unmarshal(f.raw, &user); err != nil {
		return User{}, ErrCorruptSession
	}
	return user, nil
}

func (f *fakeSessionStore) Save(ctx context.Context, user User) error {
	raw, err := json.Marshal(user)
	if err != nil {
		return err
	}
	f.raw = raw
	return nil
}

func (f *fakeSessionStore) Clear(ctx context.Context) error {
	f.raw = nil
	return nil
}
