package exercises

import (
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"

	_ "github.com/lib/pq"
	"github.com/rs/zerolog"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// ErrNotFound is returned when no exercise exists for the requested id.
var ErrNotFound = errors.New("exercise not found")

// Store is the Postgres-backed exercise data store.
type Store struct {
	conn *sql.DB
	log  zerolog.Logger
}

func Connect(dsn string, log zerolog.Logger) (*Store, error) {
	conn, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := conn.Ping(); err != nil {
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	log = log.With().Str("component", "exercises").Logger()
	log.Info().Msg("connected to PostgreSQL")
	return &Store{conn: conn, log: log}, nil
}

func (s *Store) Close() error {
	return s.conn.Close()
}

func (s *Store) Ping() error {
	return s.conn.Ping()
}

func (s *Store) QueryRow(query string, args ...any) *sql.Row {
	return s.conn.QueryRow(query, args...)
}

func (s *Store) Query(query string, args ...any) (*sql.Rows, error) {
	return s.conn.Query(query, args...)
}

func (s *Store) Migrate() error {
	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("reading migrations dir: %w", err)
	}

	for _, entry := range entries {
		content, err := migrationsFS.ReadFile("migrations/" + entry.Name())
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", entry.Name(), err)
		}
		if _, err := s.conn.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", entry.Name(), err)
		}
		s.log.Info().Str("migration", entry.Name()).Msg("applied migration")
	}
	return nil
}

// FetchByID loads an exercise and its judge data. The returned Code is the
// last persisted buffer, or the starter snippet if nothing was saved yet.
func (s *Store) FetchByID(id string) (*Exercise, error) {
	var (
		ex          Exercise
		currentCode string
		paramsJSON  []byte
		argsJSON    []byte
	)
	err := s.conn.QueryRow(`
		SELECT id, title, explanation, starter_code, current_code,
		       solution, param_names, arguments, expected_output
		FROM exercises WHERE id = $1
	`, id).Scan(&ex.ID, &ex.Title, &ex.Explanation, &ex.Code, &currentCode,
		&ex.Solution, &paramsJSON, &argsJSON, &ex.Expected)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("fetching exercise %s: %w", id, err)
	}

	if currentCode != "" {
		ex.Code = currentCode
	}
	if err := json.Unmarshal(paramsJSON, &ex.ParamNames); err != nil {
		return nil, fmt.Errorf("decoding param names for %s: %w", id, err)
	}
	if err := json.Unmarshal(argsJSON, &ex.Args); err != nil {
		return nil, fmt.Errorf("decoding arguments for %s: %w", id, err)
	}
	return &ex, nil
}

// ListAll returns lobby summaries ordered by title.
func (s *Store) ListAll() ([]Summary, error) {
	rows, err := s.conn.Query(`SELECT id, title FROM exercises ORDER BY title`)
	if err != nil {
		return nil, fmt.Errorf("listing exercises: %w", err)
	}
	defer rows.Close()

	var list []Summary
	for rows.Next() {
		var sum Summary
		if err := rows.Scan(&sum.ID, &sum.Title); err != nil {
			return nil, fmt.Errorf("scanning exercise row: %w", err)
		}
		list = append(list, sum)
	}
	return list, rows.Err()
}

// UpdateText persists the room's settled buffer for an exercise.
func (s *Store) UpdateText(id, text string) error {
	res, err := s.conn.Exec(`
		UPDATE exercises SET current_code = $2, updated_at = now() WHERE id = $1
	`, id, text)
	if err != nil {
		return fmt.Errorf("updating exercise %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// RecordAttempt stores one evaluation outcome for later statistics.
func (s *Store) RecordAttempt(exerciseID, participantID, kind string, passed bool) error {
	_, err := s.conn.Exec(`
		INSERT INTO attempts (exercise_id, participant_id, kind, passed)
		VALUES ($1, $2, $3, $4)
	`, exerciseID, participantID, kind, passed)
	if err != nil {
		return fmt.Errorf("recording attempt: %w", err)
	}
	return nil
}
