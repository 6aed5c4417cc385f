package stats

import (
	"os"
	"testing"

	"github.com/rs/zerolog"

	"codementor/internal/exercises"
)

func getTestQueries(t *testing.T) *Queries {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set, skipping database tests")
	}
	store, err := exercises.Connect(dsn, zerolog.Nop())
	if err != nil {
		t.Fatalf("Connect() error: %v", err)
	}
	if err := store.Migrate(); err != nil {
		t.Fatalf("Migrate() error: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return NewQueries(store)
}

func TestGetExerciseStats(t *testing.T) {
	q := getTestQueries(t)

	seedID := "sum-two-numbers"
	if err := q.DB.RecordAttempt(seedID, "stats-p1", "output_mismatch", false); err != nil {
		t.Fatalf("RecordAttempt() error: %v", err)
	}
	if err := q.DB.RecordAttempt(seedID, "stats-p1", "ok", true); err != nil {
		t.Fatalf("RecordAttempt() error: %v", err)
	}

	list, err := q.GetExerciseStats()
	if err != nil {
		t.Fatalf("GetExerciseStats() error: %v", err)
	}

	var found *ExerciseStats
	for i := range list {
		if list[i].ExerciseID == seedID {
			found = &list[i]
		}
	}
	if found == nil {
		t.Fatalf("stats missing for %s", seedID)
	}
	if found.Attempts < 2 {
		t.Errorf("Attempts = %d, want >= 2", found.Attempts)
	}
	if found.Passes < 1 {
		t.Errorf("Passes = %d, want >= 1", found.Passes)
	}
	if found.PassRate <= 0 || found.PassRate > 100 {
		t.Errorf("PassRate = %f, want within (0, 100]", found.PassRate)
	}
}
