package server

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"codementor/internal/broadcast"
	"codementor/internal/config"
	"codementor/internal/events"
	"codementor/internal/exercises"
	"codementor/internal/judge"
	"codementor/internal/logging"
	"codementor/internal/rooms"
	"codementor/internal/stats"
	"codementor/internal/wshub"
)

func Run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	log := logging.New(cfg.LogLevel, cfg.Environment)

	if cfg.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	store, err := exercises.Connect(cfg.DatabaseURL, log)
	if err != nil {
		return fmt.Errorf("connecting exercise store: %w", err)
	}
	defer store.Close()
	if err := store.Migrate(); err != nil {
		return fmt.Errorf("migrating exercise store: %w", err)
	}

	bus := events.NewBus()
	roomStore := rooms.NewStore(store, bus, log, cfg.RoomSweepInterval, cfg.RoomStaleTTL)
	hub := wshub.NewHub(log)

	channel := broadcast.NewChannel(cfg.DebounceInterval, roomStore.CommitText,
		func(roomID, originID, text string) {
			hub.BroadcastExcept(roomID, originID, wshub.ServerMessage{
				Type: "text",
				Room: roomID,
				Text: text,
			})
		}, log)

	var runner judge.Runner
	if cfg.SandboxURL != "" {
		runner = judge.NewRemoteRunner(cfg.SandboxURL)
		log.Info().Str("sandbox", cfg.SandboxURL).Msg("using remote sandbox runner")
	} else {
		runner = judge.NewNodeRunner(cfg.NodePath)
		log.Info().Str("node", cfg.NodePath).Msg("using subprocess runner")
	}
	evaluator := judge.New(runner, cfg.EvalTimeout, log)

	srv := &Server{
		Rooms:     roomStore,
		Exercises: store,
		Hub:       hub,
		Channel:   channel,
		Judge:     evaluator,
		Stats:     stats.NewQueries(store),
		Log:       log.With().Str("component", "server").Logger(),
	}
	go srv.rosterLoop(bus)

	log.Info().Str("addr", cfg.Addr()).Msg("server listening")
	return http.ListenAndServe(cfg.Addr(), srv.routes())
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/exercises", s.handleListExercises)
	mux.HandleFunc("GET /api/exercises/{id}", s.handleGetExercise)
	mux.HandleFunc("GET /api/stats", s.handleStats)
	mux.HandleFunc("/ws", s.handleWS)
	mux.HandleFunc("/health", s.handleHealth)
	mux.Handle("/metrics", promhttp.Handler())
	return corsMiddleware(mux)
}

// rosterLoop forwards room membership events to connected peers.
func (s *Server) rosterLoop(bus *events.Bus) {
	for ev := range bus.RoomEvents {
		switch ev.Kind {
		case events.ParticipantJoined:
			s.Hub.BroadcastExcept(ev.RoomID, ev.ParticipantID, wshub.ServerMessage{
				Type:          "join",
				Room:          ev.RoomID,
				ParticipantID: ev.ParticipantID,
			})
		case events.ParticipantLeft:
			s.Hub.BroadcastExcept(ev.RoomID, ev.ParticipantID, wshub.ServerMessage{
				Type:          "leave",
				Room:          ev.RoomID,
				ParticipantID: ev.ParticipantID,
			})
		}
	}
}

// corsMiddleware allows the lesson-viewer SPA to call from another origin.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
