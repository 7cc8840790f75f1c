package match

import (
	"context"
	"log/slog"

	"github.com/avasilyev/rps-arena-go/internal/dependencies/clock"
	"github.com/avasilyev/rps-arena-go/internal/dependencies/random"
	"github.com/avasilyev/rps-arena-go/internal/model"
	"github.com/avasilyev/rps-arena-go/internal/storage"
)

const (
	matchIDLength   = 16
	matchIDAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"
)

// Service manages match lifecycle: creation, per-round throws,
// resolution and cancellation.
type Service struct {
	storage storage.Storage
	clock   clock.Clock
	random  random.Random
	logger  *slog.Logger
}

// New creates a new match Service
func New(storage storage.Storage, clock clock.Clock, random random.Random, logger *slog.Logger) *Service {
	return &Service{
		storage: storage,
		clock:   clock,
		random:  random,
		logger:  logger.With(slog.String("component", "match")),
	}
}

// Create starts a match between the initiator and its rivals at round 1.
func (s *Service) Create(ctx context.Context, initiator *model.Player, rivals []*model.Player) (*model.Match, error) {
	now := s.clock.Now()
	m := &model.Match{
		ID:             model.MatchID(s.random.String(matchIDLength, matchIDAlphabet)),
		Status:         model.MatchStateStarted,
		Round:          1,
		Throws:         map[model.PlayerID]model.Throw{},
		Players:        make([]model.PlayerID, 0, len(rivals)+1),
		RoundStartedAt: now,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	m.Players = append(m.Players, initiator.ID)
	for _, r := range rivals {
		m.Players = append(m.Players, r.ID)
	}

	if err := s.storage.SaveMatch(ctx, m); err != nil {
		return nil, err
	}

	s.logger.Info("match created",
		slog.String("match_id", string(m.ID)),
		slog.Int("players", len(m.Players)))
	return m, nil
}

// Get retrieves a match by id
func (s *Service) Get(ctx context.Context, id model.MatchID) (*model.Match, error) {
	return s.storage.GetMatch(ctx, id)
}

// FindByPlayer returns the match a player is bound to via the
// player-to-match index, or ErrMatchNotFound.
func (s *Service) FindByPlayer(ctx context.Context, playerID model.PlayerID) (*model.Match, error) {
	matchID, err := s.storage.MatchIDForPlayer(ctx, playerID)
	if err != nil {
		return nil, err
	}
	return s.storage.GetMatch(ctx, matchID)
}

// Players loads the player records participating in a match, in the
// match's seating order.
func (s *Service) Players(ctx context.Context, m *model.Match) ([]*model.Player, error) {
	players := make([]*model.Player, 0, len(m.Players))
	for _, id := range m.Players {
		p, err := s.storage.GetPlayer(ctx, id)
		if err != nil {
			return nil, err
		}
		players = append(players, p)
	}
	return players, nil
}

// Throw records a player's throw for the current round and resolves the
// round once every participant has thrown. A throw arriving after the
// previous round finished rolls the match into the next round first.
// A second throw from the same player in one round is ignored.
func (s *Service) Throw(ctx context.Context, m *model.Match, playerID model.PlayerID, throw model.Throw) error {
	if m.Status == model.MatchStateCanceled {
		return nil
	}

	if m.Status == model.MatchStateFinished {
		s.beginRound(m)
	}

	if _, thrown := m.Throws[playerID]; thrown {
		return nil
	}

	m.Status = model.MatchStateProcessing
	m.Throws[playerID] = throw
	m.UpdatedAt = s.clock.Now()

	if m.AllThrown() {
		if err := s.resolve(ctx, m); err != nil {
			return err
		}
	}

	return s.storage.SaveMatch(ctx, m)
}

// StartNewRound rolls a finished match into its next round. Matches in
// any other state are left untouched.
func (s *Service) StartNewRound(ctx context.Context, m *model.Match) error {
	if m.Status != model.MatchStateFinished {
		return nil
	}
	s.beginRound(m)
	m.Status = model.MatchStateProcessing
	return s.storage.SaveMatch(ctx, m)
}

// Cancel marks the match canceled and unbinds its players so they can be
// matched again. The match record itself is removed from storage; the
// returned snapshot carries the final state for one last broadcast.
func (s *Service) Cancel(ctx context.Context, m *model.Match) (*model.Match, error) {
	m.Status = model.MatchStateCanceled
	m.UpdatedAt = s.clock.Now()

	if err := s.storage.DeleteMatch(ctx, m.ID); err != nil {
		return nil, err
	}

	s.logger.Info("match canceled", slog.String("match_id", string(m.ID)))
	return m, nil
}

func (s *Service) beginRound(m *model.Match) {
	m.Round++
	m.Throws = map[model.PlayerID]model.Throw{}
	m.Winner = model.Winner{}
	m.Status = model.MatchStateProcessing
	m.RoundStartedAt = s.clock.Now()
}
