package dashboard

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/nerrad567/gray-logic-dashboard/internal/infrastructure/database"
	_ "github.com/nerrad567/gray-logic-dashboard/migrations"
)

// openTestDB opens a migrated in-memory database.
func openTestDB(t *testing.T) *database.DB {
	t.Helper()
	ctx := context.Background()

	db, err := database.Open(ctx, database.Config{Path: ":memory:"})
	if err != nil {
		t.Fatalf("database.Open() error = %v", err)
	}
	t.Cleanup(func() { db.Close() }) //nolint:errcheck // Test cleanup

	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	return db
}

func TestSQLiteActivityRepository_AppendRecent(t *testing.T) {
	ctx := context.Background()
	repo := NewSQLiteActivityRepository(openTestDB(t).DB)

	base := time.Date(2026, 10, 19, 8, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		e := LogEntry{Kind: KindReceive, Line: fmt.Sprintf("line %d", i), Time: base.Add(time.Duration(i) * time.Second)}
		if err := repo.Append(ctx, e); err != nil {
			t.Fatalf("Append() error = %v", err)
		}
	}

	got, err := repo.Recent(ctx, 3)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("Recent(3) returned %d entries", len(got))
	}
	for i, want := range []string{"line 2", "line 3", "line 4"} {
		if got[i].Line != want {
			t.Errorf("Recent()[%d] = %q, want %q (oldest first)", i, got[i].Line, want)
		}
	}
	if !got[2].Time.Equal(base.Add(4 * time.Second)) {
		t.Errorf("Recent()[2].Time = %v", got[2].Time)
	}
	if got[0].Kind != KindReceive {
		t.Errorf("Kind = %q", got[0].Kind)
	}

	if none, err := repo.Recent(ctx, 0); err != nil || len(none) != 0 {
		t.Errorf("Recent(0) = %v, %v", none, err)
	}
}

func TestSQLiteActivityRepository_Defaults(t *testing.T) {
	ctx := context.Background()
	repo := NewSQLiteActivityRepository(openTestDB(t).DB)

	if err := repo.Append(ctx, LogEntry{Line: "bare"}); err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	got, err := repo.Recent(ctx, 10)
	if err != nil || len(got) != 1 {
		t.Fatalf("Recent() = %v, %v", got, err)
	}
	if got[0].Kind != KindInfo {
		t.Errorf("default Kind = %q, want %q", got[0].Kind, KindInfo)
	}
	if got[0].Time.IsZero() {
		t.Error("zero Time was not stamped")
	}
}

func TestSQLiteActivityRepository_Trim(t *testing.T) {
	ctx := context.Background()
	repo := NewSQLiteActivityRepository(openTestDB(t).DB)

	for i := 0; i < 10; i++ {
		if err := repo.Append(ctx, LogEntry{Kind: KindInfo, Line: fmt.Sprintf("%d", i)}); err != nil {
			t.Fatalf("Append() error = %v", err)
		}
	}
	if err := repo.Trim(ctx, 4); err != nil {
		t.Fatalf("Trim() error = %v", err)
	}

	got, err := repo.Recent(ctx, 100)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(got) != 4 || got[0].Line != "6" || got[3].Line != "9" {
		t.Errorf("after Trim(4) entries = %+v", got)
	}
}

func TestSQLiteActivityRepository_TrimEdges(t *testing.T) {
	ctx := context.Background()
	repo := NewSQLiteActivityRepository(openTestDB(t).DB)

	for i := 0; i < 3; i++ {
		_ = repo.Append(ctx, LogEntry{Line: fmt.Sprintf("%d", i)})
	}

	// Fewer rows than keep: nothing goes.
	if err := repo.Trim(ctx, 5); err != nil {
		t.Fatalf("Trim(5) error = %v", err)
	}
	if got, _ := repo.Recent(ctx, 100); len(got) != 3 {
		t.Errorf("after Trim(5) %d entries, want 3", len(got))
	}

	if err := repo.Trim(ctx, 0); err != nil {
		t.Fatalf("Trim(0) error = %v", err)
	}
	if got, _ := repo.Recent(ctx, 100); len(got) != 0 {
		t.Errorf("after Trim(0) %d entries, want 0", len(got))
	}
}

func TestSQLiteActivityRepository_ClosedDB(t *testing.T) {
	db := openTestDB(t)
	repo := NewSQLiteActivityRepository(db.DB)
	db.Close() //nolint:errcheck // closing early on purpose

	ctx := context.Background()
	if err := repo.Append(ctx, LogEntry{Line: "x"}); err == nil {
		t.Error("Append() on closed db = nil error")
	}
	if _, err := repo.Recent(ctx, 5); err == nil {
		t.Error("Recent() on closed db = nil error")
	}
	if err := repo.Trim(ctx, 5); err == nil {
		t.Error("Trim() on closed db = nil error")
	}
}
