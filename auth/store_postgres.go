package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"
)

// PGStore implements CredentialStore backed by PostgreSQL, for server
// deployments where the registry is shared. The current-session record
// stays in the local BoltStore either way; it is per-process state.
type PGStore struct {
	pool        *pgxpool.Pool
	hashSecrets bool
}

var _ CredentialStore = (*PGStore)(nil)

// NewPGStore creates a PostgreSQL-backed credential store.
func NewPGStore(pool *pgxpool.Pool, opts StoreOptions) *PGStore {
	return &PGStore{pool: pool, hashSecrets: opts.HashSecrets}
}

// FindByEmailAndPassword retrieves the user by email and verifies the
// secret in Go, so exact and bcrypt modes share one query.
func (s *PGStore) FindByEmailAndPassword(ctx context.Context, email, password string) (User, error) {
	const selectSQL = `
		SELECT id, email, name, role, profile, password
		FROM users
		WHERE email = $1
	`

	var (
		user       User
		profileRaw []byte
		secret     string
	)
	err := s.pool.QueryRow(ctx, selectSQL, email).Scan(
		&user.ID,
		&user.Email,
		&user.Name,
		&user.Role,
		&profileRaw,
		&secret,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, ErrUserNotFound
		}
		return User{}, fmt.Errorf("auth: find user: %w", err)
	}

	if !s.matchSecret(secret, password) {
		return User{}, ErrUserNotFound
	}

	if len(profileRaw) > 0 {
		var profile FarmProfile
		if err := json.Unmarshal(profileRaw, &profile); err != nil {
			return User{}, fmt.Errorf("auth: decode profile: %w", err)
		}
		user.Profile = &profile
	}

	return user, nil
}

// ExistsByEmail reports whether a registered user holds the email.
func (s *PGStore) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	const existsSQL = `SELECT EXISTS (SELECT 1 FROM users WHERE email = $1)`

	var exists bool
	if err := s.pool.QueryRow(ctx, existsSQL, email).Scan(&exists); err != nil {
		return false, fmt.Errorf("auth: exists by email: %w", err)
	}
	return exists, nil
}

// Append inserts a new user. The unique index on email enforces the
// duplicate check atomically with the write.
func (s *PGStore) Append(ctx context.Context, user User, password string) error {
	const insertSQL = `
		INSERT INTO users (id, email, name, role, profile, password)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	secret := password
	if s.hashSecrets {
		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("auth: hash secret: %w", err)
		}
		secret = string(hash)
	}

	var profileRaw []byte
	if user.Profile != nil {
		raw, err := json.Marshal(user.Profile)
		if err != nil {
			return fmt.Errorf("auth: encode profile: %w", err)
		}
		profileRaw = raw
	}

	_, err := s.pool.Exec(ctx, insertSQL, user.ID, user.Email, user.Name, user.Role, profileRaw, secret)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("auth: append user: %w", err)
	}

	return nil
}

func (s *PGStore) matchSecret(stored, supplied string) bool {
	if s.hashSecrets {
		return bcrypt.CompareHashAndPassword([]byte(stored), []byte(supplied)) == nil
	}
	return stored == supplied
}
