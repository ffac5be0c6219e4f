package sqlite_test

import (
	"context"
	"testing"

	"github.com/example/bpbot/internal/adapters/sqlite"
	"github.com/example/bpbot/internal/ports/secondary"
)

func TestMeasurementRepository_Append(t *testing.T) {
	db := setupTestDB(t)
	repo := sqlite.NewMeasurementRepository(db)
	ctx := context.Background()
	seedIdentity(t, db, 42, "", "")

	comment := "after coffee"
	id, err := repo.Append(ctx, secondary.NewMeasurement{
		IdentityID: 42, Systolic: 120, Diastolic: 80, Pulse: 75, Comment: &comment,
	})
	if err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	if id == 0 {
		t.Error("expected non-zero measurement id")
	}

	records, err := repo.All(ctx, 42)
	if err != nil {
		t.Fatalf("All failed: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("len(records) = %d, want 1", len(records))
	}
	got := records[0]
	if got.ID != id || got.Systolic != 120 || got.Diastolic != 80 || got.Pulse != 75 {
		t.Errorf("record = %+v", got)
	}
	if got.Comment == nil || *got.Comment != comment {
		t.Errorf("Comment = %v, want %q", got.Comment, comment)
	}
	if got.RecordedAt.IsZero() {
		t.Error("expected RecordedAt to be stamped")
	}
}

func TestMeasurementRepository_AppendNullComment(t *testing.T) {
	db := setupTestDB(t)
	repo := sqlite.NewMeasurementRepository(db)
	ctx := context.Background()
	seedIdentity(t, db, 42, "", "")

	if _, err := repo.Append(ctx, secondary.NewMeasurement{IdentityID: 42, Systolic: 1, Diastolic: 2, Pulse: 3}); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	var isNull bool
	if err := db.QueryRow("SELECT comment IS NULL FROM measurements").Scan(&isNull); err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if !isNull {
		t.Error("expected stored comment to be NULL")
	}
}

func TestMeasurementRepository_Ordering(t *testing.T) {
	db := setupTestDB(t)
	repo := sqlite.NewMeasurementRepository(db)
	ctx := context.Background()
	seedIdentity(t, db, 1, "", "")
	seedIdentity(t, db, 2, "", "")

	mid := seedMeasurement(t, db, 1, 120, 80, 70, "2026-03-02 08:00:00")
	oldest := seedMeasurement(t, db, 1, 110, 70, 60, "2026-03-01 08:00:00")
	newest := seedMeasurement(t, db, 1, 130, 90, 80, "2026-03-03 08:00:00")
	sameSecond := seedMeasurement(t, db, 1, 131, 91, 81, "2026-03-03 08:00:00")
	seedMeasurement(t, db, 2, 150, 95, 90, "2026-03-04 08:00:00")

	recent, err := repo.Recent(ctx, 1, 3)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	wantRecent := []int64{sameSecond, newest, mid}
	if len(recent) != len(wantRecent) {
		t.Fatalf("len(Recent) = %d, want %d", len(recent), len(wantRecent))
	}
	for i, want := range wantRecent {
		if recent[i].ID != want {
			t.Errorf("Recent[%d].ID = %d, want %d", i, recent[i].ID, want)
		}
	}

	all, err := repo.All(ctx, 1)
	if err != nil {
		t.Fatalf("All failed: %v", err)
	}
	wantAll := []int64{oldest, mid, newest, sameSecond}
	if len(all) != len(wantAll) {
		t.Fatalf("len(All) = %d, want %d", len(all), len(wantAll))
	}
	for i, want := range wantAll {
		if all[i].ID != want {
			t.Errorf("All[%d].ID = %d, want %d", i, all[i].ID, want)
		}
	}
	if all[0].RecordedAt.Format("2006-01-02") != "2026-03-01" {
		t.Errorf("RecordedAt = %v", all[0].RecordedAt)
	}
}

func TestMeasurementRepository_CountAndDump(t *testing.T) {
	db := setupTestDB(t)
	repo := sqlite.NewMeasurementRepository(db)
	ctx := context.Background()
	seedIdentity(t, db, 1, "", "")
	seedIdentity(t, db, 2, "", "")
	seedMeasurement(t, db, 1, 120, 80, 70, "2026-03-01 08:00:00")
	seedMeasurement(t, db, 2, 121, 81, 71, "2026-03-01 09:00:00")
	seedMeasurement(t, db, 1, 122, 82, 72, "2026-03-01 10:00:00")

	count, err := repo.Count(ctx, 1)
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if count != 2 {
		t.Errorf("Count = %d, want 2", count)
	}

	none, err := repo.Count(ctx, 99)
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if none != 0 {
		t.Errorf("Count(99) = %d, want 0", none)
	}

	dump, err := repo.Dump(ctx)
	if err != nil {
		t.Fatalf("Dump failed: %v", err)
	}
	if len(dump) != 3 {
		t.Fatalf("len(Dump) = %d, want 3", len(dump))
	}
	if dump[1].IdentityID != 2 {
		t.Errorf("Dump[1].IdentityID = %d, want 2", dump[1].IdentityID)
	}
}

func TestMeasurementRepository_EmptyHistory(t *testing.T) {
	db := setupTestDB(t)
	repo := sqlite.NewMeasurementRepository(db)

	records, err := repo.Recent(context.Background(), 7, 10)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("len(Recent) = %d, want 0", len(records))
	}
}
