package ws

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/avasilyev/rps-arena-go/internal/dispatch"
	"github.com/avasilyev/rps-arena-go/internal/model"
	"github.com/avasilyev/rps-arena-go/internal/services/arena"
	"github.com/avasilyev/rps-arena-go/internal/services/session"
)

// Handler upgrades HTTP requests to websocket connections and runs the
// per-connection lifecycle: identity bootstrap, pump startup and
// disconnect cleanup.
type Handler struct {
	hub        *Hub
	dispatcher *dispatch.Dispatcher
	arena      *arena.Service
	sessions   *session.Service
	upgrader   websocket.Upgrader
	logger     *slog.Logger
}

// NewHandler creates a websocket Handler
func NewHandler(hub *Hub, dispatcher *dispatch.Dispatcher, arenaService *arena.Service, sessions *session.Service, logger *slog.Logger) *Handler {
	return &Handler{
		hub:        hub,
		dispatcher: dispatcher,
		arena:      arenaService,
		sessions:   sessions,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// The game is cookie-scoped, not origin-scoped.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		logger: logger.With(slog.String("component", "ws_handler")),
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	playerID, setCookie, err := h.identify(r)
	if err != nil {
		h.logger.Error("identity bootstrap failed", slog.Any("error", err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	var header http.Header
	if setCookie != nil {
		header = http.Header{}
		header.Add("Set-Cookie", setCookie.String())
	}

	conn, err := h.upgrader.Upgrade(w, r, header)
	if err != nil {
		// Upgrade already wrote the error response.
		h.logger.Info("upgrade rejected", slog.Any("error", err))
		return
	}

	client := newClient(playerID, conn, h.logger)
	h.hub.Register(client)
	go client.writePump()

	h.dispatcher.Connect(ctx, playerID)

	client.readPump(ctx, func(ctx context.Context, raw []byte) {
		h.dispatcher.HandleMessage(ctx, playerID, raw)
	})

	// The request context may be torn down with the connection; cleanup
	// runs on its own.
	h.dispatcher.Disconnect(context.Background(), playerID)
	h.hub.Unregister(client)
}

// identify resolves the player behind the request's session cookie,
// creating a player and session on first contact. The returned cookie,
// when non-nil, must be set on the upgrade response.
func (h *Handler) identify(r *http.Request) (model.PlayerID, *http.Cookie, error) {
	ctx := r.Context()

	if c, err := r.Cookie(session.CookieName); err == nil {
		playerID, err := h.sessions.Resolve(ctx, c.Value)
		if err == nil {
			// Recreate the record if storage lost it (e.g. TTL expiry).
			if _, err := h.arena.RegisterOrFetch(ctx, playerID, ""); err != nil {
				return 0, nil, err
			}
			return playerID, nil, nil
		}
		if err != model.ErrSessionNotFound {
			return 0, nil, err
		}
	}

	player, err := h.arena.CreatePlayer(ctx)
	if err != nil {
		return 0, nil, err
	}
	token, err := h.sessions.Create(ctx, player.ID)
	if err != nil {
		return 0, nil, err
	}

	cookie := &http.Cookie{
		Name:     session.CookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	return player.ID, cookie, nil
}
