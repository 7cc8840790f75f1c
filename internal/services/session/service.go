package session

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/avasilyev/rps-arena-go/internal/model"
	"github.com/avasilyev/rps-arena-go/internal/storage"
)

// CookieName is the cookie carrying the session token
const CookieName = "rps_session"

// Service maps opaque session tokens to player ids so a client keeps its
// identity across reconnects.
type Service struct {
	storage storage.Storage
	logger  *slog.Logger
}

// New creates a new session Service
func New(storage storage.Storage, logger *slog.Logger) *Service {
	return &Service{
		storage: storage,
		logger:  logger.With(slog.String("component", "session")),
	}
}

// Create mints a fresh token bound to the given player
func (s *Service) Create(ctx context.Context, playerID model.PlayerID) (string, error) {
	token := uuid.NewString()
	if err := s.storage.SaveSession(ctx, token, playerID); err != nil {
		return "", err
	}
	return token, nil
}

// Resolve returns the player id a token is bound to, or
// ErrSessionNotFound.
func (s *Service) Resolve(ctx context.Context, token string) (model.PlayerID, error) {
	return s.storage.GetSession(ctx, token)
}

// Destroy invalidates a token
func (s *Service) Destroy(ctx context.Context, token string) error {
	return s.storage.DeleteSession(ctx, token)
}
