package arena

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/avasilyev/rps-arena-go/internal/dependencies/clock"
	"github.com/avasilyev/rps-arena-go/internal/dependencies/random"
	"github.com/avasilyev/rps-arena-go/internal/model"
	"github.com/avasilyev/rps-arena-go/internal/storage"
)

const (
	// playerIDDigits is the width of generated player ids
	playerIDDigits = 6
	// playerIDAttempts bounds the uniqueness retry loop
	playerIDAttempts = 100
)

// Service manages the arena: the join-ordered registry of known players
// and rival selection for matchmaking.
type Service struct {
	storage storage.Storage
	clock   clock.Clock
	random  random.Random
	logger  *slog.Logger
}

// New creates a new arena Service
func New(storage storage.Storage, clock clock.Clock, random random.Random, logger *slog.Logger) *Service {
	return &Service{
		storage: storage,
		clock:   clock,
		random:  random,
		logger:  logger.With(slog.String("component", "arena")),
	}
}

// CreatePlayer creates a player with a fresh unique id and default name.
func (s *Service) CreatePlayer(ctx context.Context) (*model.Player, error) {
	id, err := s.generateID(ctx)
	if err != nil {
		return nil, err
	}

	player := &model.Player{
		ID:        id,
		Name:      model.DefaultName(id),
		MatchSize: model.DefaultMatchSize,
		History:   []string{},
		CreatedAt: s.clock.Now(),
	}

	if err := s.storage.SavePlayer(ctx, player); err != nil {
		return nil, err
	}

	s.logger.Info("player created", slog.Int64("player_id", int64(player.ID)))
	return player, nil
}

// RegisterOrFetch returns the existing player for id or creates one with the
// given identity. Used on reconnect, where the session already carries a
// stable id.
func (s *Service) RegisterOrFetch(ctx context.Context, id model.PlayerID, name string) (*model.Player, error) {
	player, err := s.storage.GetPlayer(ctx, id)
	if err == nil {
		return player, nil
	}
	if err != model.ErrPlayerNotFound {
		return nil, err
	}

	if name == "" {
		name = model.DefaultName(id)
	}
	player = &model.Player{
		ID:        id,
		Name:      name,
		MatchSize: model.DefaultMatchSize,
		History:   []string{},
		CreatedAt: s.clock.Now(),
	}
	if err := s.storage.SavePlayer(ctx, player); err != nil {
		return nil, err
	}

	s.logger.Info("player registered", slog.Int64("player_id", int64(id)))
	return player, nil
}

// GetPlayer retrieves a player by id
func (s *Service) GetPlayer(ctx context.Context, id model.PlayerID) (*model.Player, error) {
	return s.storage.GetPlayer(ctx, id)
}

// SavePlayer persists a mutated player record
func (s *Service) SavePlayer(ctx context.Context, player *model.Player) error {
	return s.storage.SavePlayer(ctx, player)
}

// ListPlayers returns all known players in join order
func (s *Service) ListPlayers(ctx context.Context) ([]*model.Player, error) {
	return s.storage.ListPlayers(ctx)
}

// RemovePlayer drops a player from the arena
func (s *Service) RemovePlayer(ctx context.Context, id model.PlayerID) error {
	return s.storage.DeletePlayer(ctx, id)
}

// Snapshot returns the queue rows broadcast to every client: one
// (name, ready) pair per player, in join order.
func (s *Service) Snapshot(ctx context.Context) ([]model.QueueEntry, error) {
	players, err := s.storage.ListPlayers(ctx)
	if err != nil {
		return nil, err
	}
	queue := make([]model.QueueEntry, len(players))
	for i, p := range players {
		queue[i] = model.QueueEntry{Name: p.Name, Ready: p.Ready}
	}
	return queue, nil
}

// FindRivals selects opponents for gamer. Candidates are every other player
// that is ready and wants the same match size. Returns ErrNoRivals when the
// pool is too small; otherwise consumes (un-readies) exactly
// gamer.MatchSize distinct candidates and returns them. The gamer's own
// ready flag is left untouched.
func (s *Service) FindRivals(ctx context.Context, gamer *model.Player) ([]*model.Player, error) {
	players, err := s.storage.ListPlayers(ctx)
	if err != nil {
		return nil, err
	}

	needed := gamer.MatchSize
	var candidates []*model.Player
	for _, p := range players {
		if p.ID != gamer.ID && p.Ready && p.MatchSize == needed {
			candidates = append(candidates, p)
		}
	}

	if len(candidates) < needed {
		return nil, model.ErrNoRivals
	}

	var rivals []*model.Player
	if len(candidates) == needed {
		rivals = candidates
	} else {
		// Draw without replacement so the same candidate can never be
		// picked twice.
		for _, idx := range s.random.Sample(len(candidates), needed) {
			rivals = append(rivals, candidates[idx])
		}
	}

	for _, r := range rivals {
		r.Ready = false
		if err := s.storage.SavePlayer(ctx, r); err != nil {
			return nil, err
		}
	}

	return rivals, nil
}

// generateID draws 6-digit ids until one is unused.
func (s *Service) generateID(ctx context.Context) (model.PlayerID, error) {
	min := 1
	for i := 1; i < playerIDDigits; i++ {
		min *= 10
	}

	for attempt := 0; attempt < playerIDAttempts; attempt++ {
		id := model.PlayerID(min + s.random.Intn(min*9))
		exists, err := s.storage.PlayerExists(ctx, id)
		if err != nil {
			return 0, err
		}
		if !exists {
			return id, nil
		}
	}
	return 0, fmt.Errorf("could not generate a unique player id after %d attempts", playerIDAttempts)
}
