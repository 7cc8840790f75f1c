package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/avasilyev/rps-arena-go/internal/middleware"
	"github.com/avasilyev/rps-arena-go/internal/services/arena"
	"github.com/avasilyev/rps-arena-go/internal/ws"
)

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger       *slog.Logger
	ArenaService *arena.Service
	WSHandler    *ws.Handler
	Hub          *ws.Hub
}

// NewRouter creates a new router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	loggingMiddleware := middleware.Logging(cfg.Logger)
	recoveryMiddleware := middleware.Recovery(cfg.Logger, middleware.DefaultPanicHandler)

	r.Use(recoveryMiddleware)
	r.Use(loggingMiddleware)

	// Game traffic runs over a single websocket endpoint.
	r.Handle("/ws", cfg.WSHandler).Methods(http.MethodGet)

	api := r.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/health", healthHandler).Methods(http.MethodGet)
	api.HandleFunc("/arena", arenaHandler(cfg)).Methods(http.MethodGet)

	return r
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

// arenaHandler reports the lobby queue and connection count, for
// operators and the CLI client.
func arenaHandler(cfg RouterConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		queue, err := cfg.ArenaService.Snapshot(r.Context())
		if err != nil {
			cfg.Logger.Error("arena snapshot failed", slog.Any("error", err))
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		type row struct {
			Name  string `json:"name"`
			Ready bool   `json:"ready"`
		}
		rows := make([]row, len(queue))
		for i, q := range queue {
			rows[i] = row{Name: q.Name, Ready: q.Ready}
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"queue":     rows,
			"connected": cfg.Hub.Count(),
		})
	}
}
