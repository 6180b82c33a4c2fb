package auth_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"harvestmind/auth"
	"harvestmind/test/infra"
)

// TestPGStore_Integration runs the credential store against a real
// PostgreSQL. It starts a throwaway container unless
// HARVESTMIND_TEST_PG_DSN points at a live database.
func TestPGStore_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("short mode")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	container, dsn, err := infra.StartPostgres16(ctx)
	if err != nil {
		t.Skipf("postgres unavailable: %v", err)
	}
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	pool, err := infra.ApplyMigrations(ctx, dsn)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(pool.Close)

	store := auth.NewPGStore(pool, auth.StoreOptions{})

	user := auth.User{
		ID:    "u-pg-1",
		Email: "pg@x.com",
		Name:  "PG",
		Role:  auth.RoleFarmer,
		Profile: &auth.FarmProfile{
			FarmSize: "3.0",
			District: "Ganjam",
			Crops:    []string{"rice"},
		},
	}
	if err := store.Append(ctx, user, "p1"); err != nil {
		t.Fatalf("append: %v", err)
	}

	exists, err := store.ExistsByEmail(ctx, "pg@x.com")
	if err != nil || !exists {
		t.Fatalf("expected email to exist, got exists=%v err=%v", exists, err)
	}

	got, err := store.FindByEmailAndPassword(ctx, "pg@x.com", "p1")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if got.ID != user.ID || got.Profile == nil || got.Profile.District != "Ganjam" {
		t.Fatalf("unexpected user: %+v", got)
	}

	if _, err := store.FindByEmailAndPassword(ctx, "pg@x.com", "wrong"); !errors.Is(err, auth.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}

	if err := store.Append(ctx, auth.User{ID: "u-pg-2", Email: "pg@x.com", Name: "PG2", Role: auth.RoleFarmer}, "p2"); !errors.Is(err, auth.ErrDuplicateEmail) {
		t.Fatalf("expected ErrDuplicateEmail, got %v", err)
	}
}
