package linkagestore

import (
	"context"
	"errors"
	"net"
	"os"
	"path/filepath"
	"testing"

	"github.com/uptrace/bun/driver/pgdriver"

	"github.com/balai/budget-middleware/pkg/linkage"
	"github.com/balai/budget-middleware/pkg/pgutil"
	mghelper "github.com/balai/budget-middleware/pkg/pgutil/migrations"
)

func setupStore(t *testing.T) (context.Context, *pgStore) {
	t.Helper()
	requireDockerAccess(t)

	ctx := context.Background()
	db, cleanup := pgutil.SetupTestDB(t)
	t.Cleanup(cleanup)

	if err := mghelper.CreateSchema(ctx, db, &LinkageDao{}); err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}

	return ctx, NewStore(db)
}

func requireDockerAccess(t *testing.T) {
	t.Helper()

	candidates := []string{
		"/var/run/docker.sock",
		filepath.Join(os.Getenv("HOME"), ".docker/run/docker.sock"),
	}

	for _, sock := range candidates {
		if sock == "" {
			continue
		}
		if _, err := os.Stat(sock); err != nil {
			continue
		}
		conn, err := (&net.Dialer{}).DialContext(context.Background(), "unix", sock)
		if err == nil {
			_ = conn.Close()
			return
		}
	}

	t.Skip("docker daemon socket is not accessible; skipping testcontainer-backed linkagestore tests")
}

func TestGetNotLinked(t *testing.T) {
	ctx, s := setupStore(t)

	if _, err := s.Get(ctx, 1); !errors.Is(err, ErrNotLinked) {
		t.Fatalf("expected ErrNotLinked, got: %v", err)
	}
	if _, err := s.GetByItemID(ctx, "item-1"); !errors.Is(err, ErrNotLinked) {
		t.Fatalf("expected ErrNotLinked by item id, got: %v", err)
	}
}

func TestUpsertAndLookup(t *testing.T) {
	ctx, s := setupStore(t)

	lnk := &linkage.Linkage{UserID: 1, AccessToken: "enc-token-1", ItemID: "item-1"}
	if err := s.Upsert(ctx, lnk); err != nil {
		t.Fatalf("Upsert() failed: %v", err)
	}

	got, err := s.Get(ctx, 1)
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if got.AccessToken != "enc-token-1" || got.ItemID != "item-1" {
		t.Fatalf("unexpected linkage: %+v", got)
	}
	if got.Cursor != "" {
		t.Fatalf("fresh linkage must have an empty cursor, got %q", got.Cursor)
	}

	byItem, err := s.GetByItemID(ctx, "item-1")
	if err != nil {
		t.Fatalf("GetByItemID() failed: %v", err)
	}
	if byItem.UserID != 1 {
		t.Fatalf("expected user 1, got %d", byItem.UserID)
	}
}

func TestItemIDUniqueAcrossUsers(t *testing.T) {
	ctx, s := setupStore(t)

	if err := s.Upsert(ctx, &linkage.Linkage{UserID: 1, AccessToken: "enc-1", ItemID: "item-shared"}); err != nil {
		t.Fatalf("Upsert() failed: %v", err)
	}

	// An item belongs to exactly one linkage; a second user claiming the
	// same item must be rejected so GetByItemID stays unambiguous
	err := s.Upsert(ctx, &linkage.Linkage{UserID: 2, AccessToken: "enc-2", ItemID: "item-shared"})
	if err == nil {
		t.Fatalf("expected duplicate item id to fail")
	}
	var pgErr pgdriver.Error
	if !errors.As(err, &pgErr) || !pgErr.IntegrityViolation() {
		t.Fatalf("expected unique violation, got: %v", err)
	}

	got, err := s.GetByItemID(ctx, "item-shared")
	if err != nil {
		t.Fatalf("GetByItemID() failed: %v", err)
	}
	if got.UserID != 1 {
		t.Fatalf("expected item to stay with user 1, got %d", got.UserID)
	}
}

func TestAdvanceCursorCAS(t *testing.T) {
	ctx, s := setupStore(t)

	if err := s.Upsert(ctx, &linkage.Linkage{UserID: 1, AccessToken: "enc", ItemID: "item-1"}); err != nil {
		t.Fatalf("Upsert() failed: %v", err)
	}

	// Empty `from` matches the never-synced cursor
	advanced, err := s.AdvanceCursor(ctx, 1, "", "c1")
	if err != nil {
		t.Fatalf("AdvanceCursor() failed: %v", err)
	}
	if !advanced {
		t.Fatalf("expected first advance from empty to succeed")
	}

	// A second sync that also started from empty has lost the race
	advanced, err = s.AdvanceCursor(ctx, 1, "", "c2")
	if err != nil {
		t.Fatalf("AdvanceCursor() failed: %v", err)
	}
	if advanced {
		t.Fatalf("stale advance from empty must fail")
	}

	advanced, err = s.AdvanceCursor(ctx, 1, "c1", "c2")
	if err != nil {
		t.Fatalf("AdvanceCursor() failed: %v", err)
	}
	if !advanced {
		t.Fatalf("expected advance from current cursor to succeed")
	}

	// The old value no longer matches
	advanced, err = s.AdvanceCursor(ctx, 1, "c1", "c3")
	if err != nil {
		t.Fatalf("AdvanceCursor() failed: %v", err)
	}
	if advanced {
		t.Fatalf("stale advance must fail")
	}

	got, err := s.Get(ctx, 1)
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if got.Cursor != "c2" {
		t.Fatalf("expected cursor c2, got %q", got.Cursor)
	}
}

func TestRelinkRotatesCredentialAndClearsCursor(t *testing.T) {
	ctx, s := setupStore(t)

	if err := s.Upsert(ctx, &linkage.Linkage{UserID: 1, AccessToken: "enc-old", ItemID: "item-old"}); err != nil {
		t.Fatalf("first Upsert() failed: %v", err)
	}
	if _, err := s.AdvanceCursor(ctx, 1, "", "c9"); err != nil {
		t.Fatalf("AdvanceCursor() failed: %v", err)
	}

	if err := s.Upsert(ctx, &linkage.Linkage{UserID: 1, AccessToken: "enc-new", ItemID: "item-new"}); err != nil {
		t.Fatalf("re-link Upsert() failed: %v", err)
	}

	got, err := s.Get(ctx, 1)
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if got.AccessToken != "enc-new" || got.ItemID != "item-new" {
		t.Fatalf("re-link did not rotate credential: %+v", got)
	}
	if got.Cursor != "" {
		t.Fatalf("re-link must clear the cursor, got %q", got.Cursor)
	}

	// The cleared cursor behaves like never-synced again
	advanced, err := s.AdvanceCursor(ctx, 1, "", "fresh")
	if err != nil {
		t.Fatalf("AdvanceCursor() failed: %v", err)
	}
	if !advanced {
		t.Fatalf("expected advance from cleared cursor to succeed")
	}
}

func TestDelete(t *testing.T) {
	ctx, s := setupStore(t)

	if err := s.Upsert(ctx, &linkage.Linkage{UserID: 1, AccessToken: "enc", ItemID: "item-1"}); err != nil {
		t.Fatalf("Upsert() failed: %v", err)
	}
	if err := s.Delete(ctx, 1); err != nil {
		t.Fatalf("Delete() failed: %v", err)
	}
	if _, err := s.Get(ctx, 1); !errors.Is(err, ErrNotLinked) {
		t.Fatalf("expected ErrNotLinked after delete, got: %v", err)
	}
}
