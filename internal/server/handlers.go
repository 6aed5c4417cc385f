package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"codementor/internal/broadcast"
	"codementor/internal/exercises"
	"codementor/internal/judge"
	"codementor/internal/rooms"
	"codementor/internal/stats"
	"codementor/internal/wshub"
)

// ExerciseStore is the subset of the database layer the handlers need.
type ExerciseStore interface {
	FetchByID(id string) (*exercises.Exercise, error)
	ListAll() ([]exercises.Summary, error)
	RecordAttempt(exerciseID, participantID, kind string, passed bool) error
}

// StatsSource provides aggregate attempt data.
type StatsSource interface {
	GetExerciseStats() ([]stats.ExerciseStats, error)
}

// Server holds the handler dependencies.
type Server struct {
	Rooms     *rooms.Store
	Exercises ExerciseStore
	Hub       *wshub.Hub
	Channel   *broadcast.Channel
	Judge     *judge.Evaluator
	Stats     StatsSource
	Log       zerolog.Logger
}

func (s *Server) handleListExercises(w http.ResponseWriter, r *http.Request) {
	list, err := s.Exercises.ListAll()
	if err != nil {
		s.Log.Error().Err(err).Msg("listing exercises")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}
	if list == nil {
		list = []exercises.Summary{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleGetExercise(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	ex, err := s.Exercises.FetchByID(id)
	if errors.Is(err, exercises.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "exercise not found"})
		return
	}
	if err != nil {
		s.Log.Error().Err(err).Str("exercise", id).Msg("fetching exercise")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}

	// A live room holds the freshest text; prefer it over the stored copy.
	if room := s.Rooms.Get(id); room != nil {
		ex.Code = room.Buffer()
	}
	writeJSON(w, http.StatusOK, ex)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	list, err := s.Stats.GetExerciseStats()
	if err != nil {
		s.Log.Error().Err(err).Msg("getting exercise stats")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}
	if list == nil {
		list = []stats.ExerciseStats{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
