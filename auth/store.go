package auth

import (
	"context"
	"errors"
)

var (
	// ErrInvalidCredentials signals wrong email or password.
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
	// ErrDuplicateEmail signals that the email is already registered.
	ErrDuplicateEmail = errors.New("auth: email already exists")
	// ErrUserNotFound signals that no registered user matches.
	ErrUserNotFound = errors.New("auth: user not found")
	// ErrNoSession signals that no current-session record is persisted.
	ErrNoSession = errors.New("auth: no session record")
	// ErrCorruptSession signals that the persisted current-session
	// record exists but cannot be parsed.
	ErrCorruptSession = errors.New("auth: corrupt session record")
)

// CredentialStore is the durable registry of self-registered users.
// Demo accounts never pass through it.
type CredentialStore interface {
	// FindByEmailAndPassword returns the user whose stored credentials
	// match. The comparison is exact (case-sensitive, untrimmed) unless
	// the store was built with hashed secrets. Returns ErrUserNotFound
	// when nothing matches.
	FindByEmailAndPassword(ctx context.Context, email, password string) (User, error)
	// ExistsByEmail reports whether a registered user holds the email.
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	// Append persists a new user with their secret. The whole registry
	// is rewritten as one unit; readers never observe a partial write.
	// Returns ErrDuplicateEmail when the email is already registered.
	Append(ctx context.Context, user User, password string) error
}

// SessionStore persists the single current-session record so an
// authenticated identity survives process restarts.
type SessionStore interface {
	// Load returns the persisted identity, ErrNoSession when absent, or
	// ErrCorruptSession when the record exists but fails to parse.
	Load(ctx context.Context) (User, error)
	Save(ctx context.Context, user User) error
	// Clear removes the record. Clearing an absent record is a no-op.
	Clear(ctx context.Context) error
}

// credentialRecord is the registry entry shape: the published identity
// plus the write-only secret. It never leaves the store implementations.
type credentialRecord struct {
	User
	Password string `json:"password"`
}
