package memory

import (
	"context"
	"sync"

	"github.com/avasilyev/rps-arena-go/internal/model"
	"github.com/avasilyev/rps-arena-go/internal/storage"
)

// Storage is an in-memory implementation of the storage interface
type Storage struct {
	mu sync.RWMutex

	players     map[model.PlayerID]*model.Player
	playerOrder []model.PlayerID
	matches     map[model.MatchID]*model.Match
	matchOrder  []model.MatchID
	playerMatch map[model.PlayerID]model.MatchID
	sessions    map[string]model.PlayerID
}

// New creates a new in-memory storage instance
func New() *Storage {
	return &Storage{
		players:     make(map[model.PlayerID]*model.Player),
		matches:     make(map[model.MatchID]*model.Match),
		playerMatch: make(map[model.PlayerID]model.MatchID),
		sessions:    make(map[string]model.PlayerID),
	}
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Player operations

func (s *Storage) SavePlayer(ctx context.Context, player *model.Player) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.players[player.ID]; !ok {
		s.playerOrder = append(s.playerOrder, player.ID)
	}
	s.players[player.ID] = player
	return nil
}

func (s *Storage) GetPlayer(ctx context.Context, id model.PlayerID) (*model.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	player, ok := s.players[id]
	if !ok {
		return nil, model.ErrPlayerNotFound
	}
	return player, nil
}

func (s *Storage) ListPlayers(ctx context.Context) ([]*model.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	players := make([]*model.Player, 0, len(s.playerOrder))
	for _, id := range s.playerOrder {
		if p, ok := s.players[id]; ok {
			players = append(players, p)
		}
	}
	return players, nil
}

func (s *Storage) DeletePlayer(ctx context.Context, id model.PlayerID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.players[id]; !ok {
		return nil
	}
	delete(s.players, id)
	for i, pid := range s.playerOrder {
		if pid == id {
			s.playerOrder = append(s.playerOrder[:i], s.playerOrder[i+1:]...)
			break
		}
	}
	return nil
}

func (s *Storage) PlayerExists(ctx context.Context, id model.PlayerID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.players[id]
	return ok, nil
}

// Match operations

func (s *Storage) SaveMatch(ctx context.Context, match *model.Match) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.matches[match.ID]; !ok {
		s.matchOrder = append(s.matchOrder, match.ID)
	}
	s.matches[match.ID] = match
	// First match wins: do not re-point a player already indexed elsewhere.
	for _, pid := range match.Players {
		if _, ok := s.playerMatch[pid]; !ok {
			s.playerMatch[pid] = match.ID
		}
	}
	return nil
}

func (s *Storage) GetMatch(ctx context.Context, id model.MatchID) (*model.Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	match, ok := s.matches[id]
	if !ok {
		return nil, model.ErrMatchNotFound
	}
	return match, nil
}

func (s *Storage) DeleteMatch(ctx context.Context, id model.MatchID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.matches, id)
	for i, mid := range s.matchOrder {
		if mid == id {
			s.matchOrder = append(s.matchOrder[:i], s.matchOrder[i+1:]...)
			break
		}
	}
	for pid, mid := range s.playerMatch {
		if mid != id {
			continue
		}
		// Rebind the player to their earliest remaining match, so the index
		// keeps answering like a creation-order scan would.
		if next, ok := s.earliestMatchWith(pid); ok {
			s.playerMatch[pid] = next
		} else {
			delete(s.playerMatch, pid)
		}
	}
	return nil
}

func (s *Storage) earliestMatchWith(pid model.PlayerID) (model.MatchID, bool) {
	for _, mid := range s.matchOrder {
		if m, ok := s.matches[mid]; ok && m.HasPlayer(pid) {
			return mid, true
		}
	}
	return "", false
}

func (s *Storage) MatchIDForPlayer(ctx context.Context, id model.PlayerID) (model.MatchID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	mid, ok := s.playerMatch[id]
	if !ok {
		return "", model.ErrMatchNotFound
	}
	return mid, nil
}

// Session operations

func (s *Storage) SaveSession(ctx context.Context, token string, id model.PlayerID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[token] = id
	return nil
}

func (s *Storage) GetSession(ctx context.Context, token string) (model.PlayerID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.sessions[token]
	if !ok {
		return 0, model.ErrSessionNotFound
	}
	return id, nil
}

func (s *Storage) DeleteSession(ctx context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, token)
	return nil
}
