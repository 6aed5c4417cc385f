package exercises

import (
	"errors"
	"os"
	"testing"

	"github.com/rs/zerolog"
)

func getTestStore(t *testing.T) *Store {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set, skipping database tests")
	}
	store, err := Connect(dsn, zerolog.Nop())
	if err != nil {
		t.Fatalf("Connect() error: %v", err)
	}
	if err := store.Migrate(); err != nil {
		t.Fatalf("Migrate() error: %v", err)
	}
	t.Cleanup(func() {
		store.conn.Exec("DELETE FROM attempts")
		store.conn.Exec("DELETE FROM exercises WHERE id LIKE 'test-%'")
		store.conn.Exec("UPDATE exercises SET current_code = ''")
		store.Close()
	})
	return store
}

func insertTestExercise(t *testing.T, store *Store, id string) {
	t.Helper()
	_, err := store.conn.Exec(`
		INSERT INTO exercises (id, title, explanation, starter_code, solution, param_names, arguments, expected_output)
		VALUES ($1, 'Test', 'A test exercise', 'return 0;', 'return a + b;', '["a","b"]', '[2,3]', '5')
		ON CONFLICT (id) DO NOTHING
	`, id)
	if err != nil {
		t.Fatalf("inserting test exercise: %v", err)
	}
}

func TestFetchByID(t *testing.T) {
	store := getTestStore(t)
	insertTestExercise(t, store, "test-sum")

	ex, err := store.FetchByID("test-sum")
	if err != nil {
		t.Fatalf("FetchByID() error: %v", err)
	}
	if ex.Title != "Test" {
		t.Errorf("Title = %q, want %q", ex.Title, "Test")
	}
	if ex.Code != "return 0;" {
		t.Errorf("Code = %q, want starter snippet", ex.Code)
	}
	if len(ex.ParamNames) != 2 || ex.ParamNames[0] != "a" {
		t.Errorf("ParamNames = %v, want [a b]", ex.ParamNames)
	}
	if !ex.ExecMode() {
		t.Error("exercise with params should be in exec mode")
	}
}

func TestFetchByID_NotFound(t *testing.T) {
	store := getTestStore(t)

	_, err := store.FetchByID("test-missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("FetchByID() error = %v, want ErrNotFound", err)
	}
}

func TestUpdateText_RoundTrip(t *testing.T) {
	store := getTestStore(t)
	insertTestExercise(t, store, "test-roundtrip")

	if err := store.UpdateText("test-roundtrip", "return a + b;"); err != nil {
		t.Fatalf("UpdateText() error: %v", err)
	}

	ex, err := store.FetchByID("test-roundtrip")
	if err != nil {
		t.Fatalf("FetchByID() error: %v", err)
	}
	if ex.Code != "return a + b;" {
		t.Errorf("Code = %q, want persisted buffer", ex.Code)
	}
}

func TestUpdateText_NotFound(t *testing.T) {
	store := getTestStore(t)

	err := store.UpdateText("test-missing", "x")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("UpdateText() error = %v, want ErrNotFound", err)
	}
}

func TestListAll(t *testing.T) {
	store := getTestStore(t)
	insertTestExercise(t, store, "test-list")

	list, err := store.ListAll()
	if err != nil {
		t.Fatalf("ListAll() error: %v", err)
	}
	found := false
	for _, sum := range list {
		if sum.ID == "test-list" {
			found = true
		}
	}
	if !found {
		t.Error("ListAll() should include the inserted exercise")
	}
}

func TestRecordAttempt(t *testing.T) {
	store := getTestStore(t)
	insertTestExercise(t, store, "test-attempt")

	if err := store.RecordAttempt("test-attempt", "p1", "output_mismatch", false); err != nil {
		t.Fatalf("RecordAttempt() error: %v", err)
	}
	if err := store.RecordAttempt("test-attempt", "p1", "ok", true); err != nil {
		t.Fatalf("RecordAttempt() error: %v", err)
	}

	var count int
	store.conn.QueryRow("SELECT COUNT(*) FROM attempts WHERE exercise_id = 'test-attempt'").Scan(&count)
	if count != 2 {
		t.Errorf("attempt count = %d, want 2", count)
	}
}
