package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"
	"golang.org/x/crypto/bcrypt"
)

var (
	bucketRegistry = []byte("registry")
	bucketSession  = []byte("session")

	keyUsers       = []byte("users")
	keyCurrentUser = []byte("user")
)

// BoltStore keeps the user registry and the current-session record in a
// local bbolt database. The registry lives as a single JSON array value
// and the session record as a single JSON object, so each write
// replaces the whole record in one transaction.
type BoltStore struct {
	db          *bbolt.DB
	hashSecrets bool
}

var _ CredentialStore = (*BoltStore)(nil)
var _ SessionStore = (*BoltStore)(nil)

// StoreOptions tunes the store.
type StoreOptions struct {
	// HashSecrets stores bcrypt hashes instead of verbatim secrets.
	// Off by default: the registry then matches credentials exactly,
	// case-sensitive and untrimmed.
	HashSecrets bool
}

// OpenBoltStore opens (creating if needed) the database at path.
func OpenBoltStore(path string, opts StoreOptions) (*BoltStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("auth: create data directory: %w", err)
		}
	}

	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("auth: open store: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{bucketRegistry, bucketSession} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("auth: init buckets: %w", err)
	}

	return &BoltStore{db: db, hashSecrets: opts.HashSecrets}, nil
}

// Close releases the underlying database.
func (s *BoltStore) Close() error {
	return s.db.Close()
}

// FindByEmailAndPassword scans the registry in insertion order for a
// matching credential pair.
func (s *BoltStore) FindByEmailAndPassword(ctx context.Context, email, password string) (User, error) {
	var found *User
	err := s.db.View(func(tx *bbolt.Tx) error {
		records, err := readRegistry(tx)
		if err != nil {
			return err
		}
		for _, rec := range records {
			if rec.Email == email && s.matchSecret(rec.Password, password) {
				u := rec.User
				found = &u
				return nil
			}
		}
		return nil
	})
	if err != nil {
		return User{}, fmt.Errorf("auth: find user: %w", err)
	}
	if found == nil {
		return User{}, ErrUserNotFound
	}
	return *found, nil
}

// ExistsByEmail reports whether any registered user holds the email.
func (s *BoltStore) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	exists := false
	err := s.db.View(func(tx *bbolt.Tx) error {
		records, err := readRegistry(tx)
		if err != nil {
			return err
		}
		for _, rec := range records {
			if rec.Email == email {
				exists = true
				return nil
			}
		}
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("auth: exists by email: %w", err)
	}
	return exists, nil
}

// Append adds a user to the registry. The duplicate check and the
// rewrite happen inside one write transaction, so concurrent callers
// never observe a partial registry.
func (s *BoltStore) Append(ctx context.Context, user User, password string) error {
	secret := password
	if s.hashSecrets {
		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("auth: hash secret: %w", err)
		}
		secret = string(hash)
	}

	err := s.db.Update(func(tx *bbolt.Tx) error {
		records, err := readRegistry(tx)
		if err != nil {
			return err
		}
		for _, rec := range records {
			if rec.Email == user.Email {
				return ErrDuplicateEmail
			}
		}
		records = append(records, credentialRecord{User: user, Password: secret})
		raw, err := json.Marshal(records)
		if err != nil {
			return err
		}
		return tx.Bucket(bucketRegistry).Put(keyUsers, raw)
	})
	if err != nil {
		if errors.Is(err, ErrDuplicateEmail) {
			return err
		}
		return fmt.Errorf("auth: append user: %w", err)
	}
	return nil
}

// Load returns the persisted current-session record.
func (s *BoltStore) Load(ctx context.Context) (User, error) {
	var user User
	err := s.db.View(func(tx *bbolt.Tx) error {
		raw := tx.Bucket(bucketSession).Get(keyCurrentUser)
		if raw == nil {
			return ErrNoSession
		}
		if err := json.Unmarshal(raw, &user); err != nil {
			return fmt.Errorf("%w: %v", ErrCorruptSession, err)
		}
		if user.ID == "" || user.Email == "" || !user.Role.Valid() {
			return fmt.Errorf("%w: incomplete identity", ErrCorruptSession)
		}
		return nil
	})
	if err != nil {
		return User{}, err
	}
	return user, nil
}

// Save persists the current-session record, replacing any previous one.
func (s *BoltStore) Save(ctx context.Context, user User) error {
	raw, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("auth: encode session: %w", err)
	}
	err = s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketSession).Put(keyCurrentUser, raw)
	})
	if err != nil {
		return fmt.Errorf("auth: save session: %w", err)
	}
	return nil
}

// Clear removes the current-session record. Idempotent.
func (s *BoltStore) Clear(ctx context.Context) error {
	err := s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketSession).Delete(keyCurrentUser)
	})
	if err != nil {
		return fmt.Errorf("auth: clear session: %w", err)
	}
	return nil
}

func (s *BoltStore) matchSecret(stored, supplied string) bool {
	if s.hashSecrets {
		return bcrypt.CompareHashAndPassword([]byte(stored), []byte(supplied)) == nil
	}
	return stored == supplied
}

func readRegistry(tx *bbolt.Tx) ([]credentialRecord, error) {
	raw := tx.Bucket(bucketRegistry).Get(keyUsers)
	if raw == nil {
		return nil, nil
	}
	var records []credentialRecord
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, fmt.Errorf("decode registry: %w", err)
	}
	return records, nil
}
