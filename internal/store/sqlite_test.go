package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/arthshield/fraudlabs/internal/domain"
)

func newTestStore(t *testing.T) Repository {
	t.Helper()

	repo, err := NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() {
		if err := repo.Close(); err != nil {
			t.Errorf("Failed to close store: %v", err)
		}
	})
	return repo
}

func testUser(userID string) *domain.User {
	now := time.Now().Truncate(time.Second)
	return &domain.User{
		UserID:     userID,
		Username:   "anon-" + userID,
		LastSeenAt: now,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

func testResult(score int, completedAt time.Time) domain.RunResult {
	return domain.RunResult{
		AwarenessScore: score,
		MaxScore:       domain.MaxAwarenessScore,
		Language:       "en",
		CompletedAt:    completedAt,
		ChoiceLog: []domain.ChoiceLogEntry{
			{Step: domain.StepIntro, ChoiceID: "accept_invite", ScoreDelta: 0, At: completedAt},
			{Step: domain.StepSocialProof, ChoiceID: "looks_suspicious", ScoreDelta: 2, At: completedAt},
		},
	}
}

func TestSQLiteStore_UserRoundTrip(t *testing.T) {
	repo := newTestStore(t)
	ctx := context.Background()

	got, err := repo.GetUser(ctx, "missing")
	if err != nil {
		t.Fatalf("GetUser failed: %v", err)
	}
	if got != nil {
		t.Fatal("Expected nil for an unknown user")
	}

	user := testUser("u1")
	if err := repo.UpsertUser(ctx, user); err != nil {
		t.Fatalf("UpsertUser failed: %v", err)
	}

	got, err = repo.GetUser(ctx, "u1")
	if err != nil {
		t.Fatalf("GetUser failed: %v", err)
	}
	if got == nil || got.Username != user.Username {
		t.Fatalf("Unexpected user %+v", got)
	}
	if !got.LastSeenAt.Equal(user.LastSeenAt) {
		t.Errorf("LastSeenAt mismatch: %v vs %v", got.LastSeenAt, user.LastSeenAt)
	}

	// Upserting again updates rather than duplicating.
	user.Username = "renamed"
	if err := repo.UpsertUser(ctx, user); err != nil {
		t.Fatalf("Second UpsertUser failed: %v", err)
	}
	got, _ = repo.GetUser(ctx, "u1")
	if got.Username != "renamed" {
		t.Errorf("Expected renamed user, got %q", got.Username)
	}
}

func TestSQLiteStore_UpdateLastSeen(t *testing.T) {
	repo := newTestStore(t)
	ctx := context.Background()

	if err := repo.UpsertUser(ctx, testUser("u1")); err != nil {
		t.Fatalf("UpsertUser failed: %v", err)
	}

	later := time.Now().Add(time.Hour).Truncate(time.Second)
	if err := repo.UpdateLastSeen(ctx, "u1", later); err != nil {
		t.Fatalf("UpdateLastSeen failed: %v", err)
	}

	got, _ := repo.GetUser(ctx, "u1")
	if !got.LastSeenAt.Equal(later) {
		t.Errorf("Expected last seen %v, got %v", later, got.LastSeenAt)
	}

	// Updating a missing user is a warning, not an error.
	if err := repo.UpdateLastSeen(ctx, "missing", later); err != nil {
		t.Errorf("UpdateLastSeen for missing user failed: %v", err)
	}
}

func TestSQLiteStore_RunResults(t *testing.T) {
	repo := newTestStore(t)
	ctx := context.Background()

	records, err := repo.ListRunResults(ctx, "u1", 10)
	if err != nil {
		t.Fatalf("ListRunResults failed: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("Expected no runs, got %d", len(records))
	}

	now := time.Now().Truncate(time.Second)
	first, err := repo.SaveRunResult(ctx, "u1", testResult(5, now.Add(-time.Hour)))
	if err != nil {
		t.Fatalf("SaveRunResult failed: %v", err)
	}
	second, err := repo.SaveRunResult(ctx, "u1", testResult(8, now))
	if err != nil {
		t.Fatalf("SaveRunResult failed: %v", err)
	}
	if first == second {
		t.Error("Expected distinct record IDs")
	}
	if _, err := repo.SaveRunResult(ctx, "u2", testResult(3, now)); err != nil {
		t.Fatalf("SaveRunResult failed: %v", err)
	}

	records, err = repo.ListRunResults(ctx, "u1", 10)
	if err != nil {
		t.Fatalf("ListRunResults failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("Expected 2 runs for u1, got %d", len(records))
	}
	// Newest first.
	if records[0].Result.AwarenessScore != 8 || records[1].Result.AwarenessScore != 5 {
		t.Errorf("Expected scores [8 5], got [%d %d]",
			records[0].Result.AwarenessScore, records[1].Result.AwarenessScore)
	}
	if len(records[0].Result.ChoiceLog) != 2 {
		t.Errorf("Expected 2 choice log entries, got %d", len(records[0].Result.ChoiceLog))
	}
	if records[0].Result.ChoiceLog[1].ChoiceID != "looks_suspicious" {
		t.Errorf("Choice log did not round-trip: %+v", records[0].Result.ChoiceLog)
	}

	records, err = repo.ListRunResults(ctx, "u1", 1)
	if err != nil {
		t.Fatalf("ListRunResults failed: %v", err)
	}
	if len(records) != 1 || records[0].Result.AwarenessScore != 8 {
		t.Errorf("Limit must keep the newest run, got %+v", records)
	}
}

func TestSQLiteStore_CleanupOldRuns(t *testing.T) {
	repo := newTestStore(t)
	ctx := context.Background()

	now := time.Now()
	if _, err := repo.SaveRunResult(ctx, "u1", testResult(8, now)); err != nil {
		t.Fatalf("SaveRunResult failed: %v", err)
	}
	if _, err := repo.SaveRunResult(ctx, "u1", testResult(5, now.Add(-100*24*time.Hour))); err != nil {
		t.Fatalf("SaveRunResult failed: %v", err)
	}

	deleted, err := repo.CleanupOldRuns(ctx, 90*24*time.Hour)
	if err != nil {
		t.Fatalf("CleanupOldRuns failed: %v", err)
	}
	if deleted != 1 {
		t.Fatalf("Expected 1 deleted run, got %d", deleted)
	}

	records, _ := repo.ListRunResults(ctx, "u1", 10)
	if len(records) != 1 || records[0].Result.AwarenessScore != 8 {
		t.Errorf("Expected only the recent run to survive, got %+v", records)
	}
}

func TestSQLiteStore_Ping(t *testing.T) {
	repo := newTestStore(t)
	if err := repo.Ping(context.Background()); err != nil {
		t.Errorf("Ping failed: %v", err)
	}
}
