package stats

import (
	"fmt"

	"codementor/internal/exercises"
)

// ExerciseStats aggregates evaluation attempts for one exercise.
type ExerciseStats struct {
	ExerciseID string  `json:"exerciseId"`
	Title      string  `json:"title"`
	Attempts   int     `json:"attempts"`
	Passes     int     `json:"passes"`
	PassRate   float64 `json:"passRate"`
}

type Queries struct {
	DB *exercises.Store
}

func NewQueries(store *exercises.Store) *Queries {
	return &Queries{DB: store}
}

// GetExerciseStats returns attempt counts and pass rates per exercise.
func (q *Queries) GetExerciseStats() ([]ExerciseStats, error) {
	rows, err := q.DB.Query(`
		SELECT e.id, e.title,
		       COUNT(a.id) AS attempts,
		       COUNT(a.id) FILTER (WHERE a.passed) AS passes
		FROM exercises e
		LEFT JOIN attempts a ON a.exercise_id = e.id
		GROUP BY e.id, e.title
		ORDER BY e.title
	`)
	if err != nil {
		return nil, fmt.Errorf("getting exercise stats: %w", err)
	}
	defer rows.Close()

	var list []ExerciseStats
	for rows.Next() {
		var s ExerciseStats
		if err := rows.Scan(&s.ExerciseID, &s.Title, &s.Attempts, &s.Passes); err != nil {
			return nil, fmt.Errorf("scanning stats row: %w", err)
		}
		if s.Attempts > 0 {
			s.PassRate = float64(s.Passes) / float64(s.Attempts) * 100
		}
		list = append(list, s)
	}
	return list, rows.Err()
}
