package sqlite_test

import (
	"context"
	"errors"
	"testing"

	"github.com/example/bpbot/internal/adapters/sqlite"
	"github.com/example/bpbot/internal/ports/secondary"
)

func TestIdentityRepository_Register(t *testing.T) {
	db := setupTestDB(t)
	repo := sqlite.NewIdentityRepository(db)
	ctx := context.Background()

	record, created, err := repo.Register(ctx, 42, "+15551234", "1.1.1")
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if !created {
		t.Error("expected created = true on first registration")
	}
	if record.Phone != "+15551234" {
		t.Errorf("Phone = %q, want %q", record.Phone, "+15551234")
	}
	if record.InterfaceVersion != "1.1.1" {
		t.Errorf("InterfaceVersion = %q, want %q", record.InterfaceVersion, "1.1.1")
	}
	if record.CreatedAt.IsZero() {
		t.Error("expected CreatedAt to be set")
	}
}

func TestIdentityRepository_RegisterIsIdempotent(t *testing.T) {
	db := setupTestDB(t)
	repo := sqlite.NewIdentityRepository(db)
	ctx := context.Background()

	first, _, err := repo.Register(ctx, 42, "+15551234", "")
	if err != nil {
		t.Fatalf("first Register failed: %v", err)
	}

	second, created, err := repo.Register(ctx, 42, "+19999999", "9.9")
	if err != nil {
		t.Fatalf("second Register failed: %v", err)
	}
	if created {
		t.Error("expected created = false on repeated registration")
	}
	if second.Phone != first.Phone {
		t.Errorf("Phone changed from %q to %q", first.Phone, second.Phone)
	}
	if !second.CreatedAt.Equal(first.CreatedAt) {
		t.Errorf("CreatedAt changed from %v to %v", first.CreatedAt, second.CreatedAt)
	}
	if second.InterfaceVersion != "1.0" {
		t.Errorf("InterfaceVersion = %q, want column default 1.0", second.InterfaceVersion)
	}

	var rows int
	if err := db.QueryRow("SELECT COUNT(*) FROM identities").Scan(&rows); err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if rows != 1 {
		t.Errorf("identities rows = %d, want 1", rows)
	}
}

func TestIdentityRepository_GetByID_NotFound(t *testing.T) {
	db := setupTestDB(t)
	repo := sqlite.NewIdentityRepository(db)

	_, err := repo.GetByID(context.Background(), 999)
	if !errors.Is(err, secondary.ErrNotFound) {
		t.Fatalf("GetByID error = %v, want ErrNotFound", err)
	}
}

func TestIdentityRepository_GetByID_NullVersion(t *testing.T) {
	db := setupTestDB(t)
	repo := sqlite.NewIdentityRepository(db)

	if _, err := db.Exec("INSERT INTO identities (identity_id, phone, interface_version) VALUES (3, '+1', NULL)"); err != nil {
		t.Fatalf("insert failed: %v", err)
	}

	record, err := repo.GetByID(context.Background(), 3)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if record.InterfaceVersion != "" {
		t.Errorf("InterfaceVersion = %q, want empty", record.InterfaceVersion)
	}
}

func TestIdentityRepository_SetInterfaceVersion(t *testing.T) {
	db := setupTestDB(t)
	repo := sqlite.NewIdentityRepository(db)
	ctx := context.Background()
	seedIdentity(t, db, 5, "+15550005", "1.0")

	if err := repo.SetInterfaceVersion(ctx, 5, "1.1.1"); err != nil {
		t.Fatalf("SetInterfaceVersion failed: %v", err)
	}

	record, err := repo.GetByID(ctx, 5)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if record.InterfaceVersion != "1.1.1" {
		t.Errorf("InterfaceVersion = %q, want 1.1.1", record.InterfaceVersion)
	}
	if record.Phone != "+15550005" {
		t.Errorf("Phone = %q, want unchanged", record.Phone)
	}

	if err := repo.SetInterfaceVersion(ctx, 6, "1.1.1"); !errors.Is(err, secondary.ErrNotFound) {
		t.Errorf("SetInterfaceVersion on missing identity error = %v, want ErrNotFound", err)
	}
}

func TestIdentityRepository_BulkSetInterfaceVersion(t *testing.T) {
	db := setupTestDB(t)
	repo := sqlite.NewIdentityRepository(db)
	ctx := context.Background()
	seedIdentity(t, db, 1, "", "1.0")
	seedIdentity(t, db, 2, "", "1.1")
	seedIdentity(t, db, 3, "", "1.1.1")

	count, err := repo.BulkSetInterfaceVersion(ctx, "2.0")
	if err != nil {
		t.Fatalf("BulkSetInterfaceVersion failed: %v", err)
	}
	if count != 3 {
		t.Errorf("count = %d, want 3", count)
	}

	ids, err := repo.ListIDs(ctx)
	if err != nil {
		t.Fatalf("ListIDs failed: %v", err)
	}
	for _, id := range ids {
		record, err := repo.GetByID(ctx, id)
		if err != nil {
			t.Fatalf("GetByID(%d) failed: %v", id, err)
		}
		if record.InterfaceVersion != "2.0" {
			t.Errorf("identity %d version = %q, want 2.0", id, record.InterfaceVersion)
		}
	}
}

func TestIdentityRepository_ListIDs(t *testing.T) {
	db := setupTestDB(t)
	repo := sqlite.NewIdentityRepository(db)
	seedIdentity(t, db, 30, "", "")
	seedIdentity(t, db, 10, "", "")
	seedIdentity(t, db, 20, "", "")

	ids, err := repo.ListIDs(context.Background())
	if err != nil {
		t.Fatalf("ListIDs failed: %v", err)
	}

	want := []int64{10, 20, 30}
	if len(ids) != len(want) {
		t.Fatalf("ListIDs = %v, want %v", ids, want)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Errorf("ids[%d] = %d, want %d", i, ids[i], want[i])
		}
	}
}
