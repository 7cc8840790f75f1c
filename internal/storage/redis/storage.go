package redis

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/avasilyev/rps-arena-go/internal/model"
	"github.com/avasilyev/rps-arena-go/internal/storage"
)

// Storage is a Redis-backed implementation of the storage interface
type Storage struct {
	client *redis.Client
	cfg    Config
}

// New creates a new Redis storage instance
func New(cfg Config) (*Storage, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &Storage{
		client: client,
		cfg:    cfg,
	}, nil
}

// NewWithClient creates a Redis storage with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config) *Storage {
	return &Storage{
		client: client,
		cfg:    cfg,
	}
}

// Close closes the Redis connection
func (s *Storage) Close() error {
	return s.client.Close()
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Player operations

func (s *Storage) SavePlayer(ctx context.Context, player *model.Player) error {
	data, err := json.Marshal(player)
	if err != nil {
		return err
	}

	key := playerKey(player.ID)

	exists, err := s.client.Exists(ctx, key).Result()
	if err != nil {
		return err
	}

	pipe := s.client.Pipeline()
	pipe.Set(ctx, key, data, s.cfg.PlayerTTL)
	if exists == 0 {
		// First save appends to the arena join order
		pipe.RPush(ctx, arenaOrderKey(), int64(player.ID))
	}
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Storage) GetPlayer(ctx context.Context, id model.PlayerID) (*model.Player, error) {
	data, err := s.client.Get(ctx, playerKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrPlayerNotFound
		}
		return nil, err
	}

	var player model.Player
	if err := json.Unmarshal(data, &player); err != nil {
		return nil, err
	}
	return &player, nil
}

func (s *Storage) ListPlayers(ctx context.Context) ([]*model.Player, error) {
	ids, err := s.client.LRange(ctx, arenaOrderKey(), 0, -1).Result()
	if err != nil {
		return nil, err
	}

	players := make([]*model.Player, 0, len(ids))
	for _, raw := range ids {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			continue
		}
		player, err := s.GetPlayer(ctx, model.PlayerID(id))
		if err != nil {
			if errors.Is(err, model.ErrPlayerNotFound) {
				// Expired player record still listed in the order; skip it.
				continue
			}
			return nil, err
		}
		players = append(players, player)
	}
	return players, nil
}

func (s *Storage) DeletePlayer(ctx context.Context, id model.PlayerID) error {
	pipe := s.client.Pipeline()
	pipe.Del(ctx, playerKey(id))
	pipe.LRem(ctx, arenaOrderKey(), 0, int64(id))
	_, err := pipe.Exec(ctx)
	return err
}

func (s *Storage) PlayerExists(ctx context.Context, id model.PlayerID) (bool, error) {
	exists, err := s.client.Exists(ctx, playerKey(id)).Result()
	if err != nil {
		return false, err
	}
	return exists > 0, nil
}

// Match operations

func (s *Storage) SaveMatch(ctx context.Context, match *model.Match) error {
	data, err := json.Marshal(match)
	if err != nil {
		return err
	}

	exists, err := s.client.Exists(ctx, matchKey(match.ID)).Result()
	if err != nil {
		return err
	}

	pipe := s.client.Pipeline()
	pipe.Set(ctx, matchKey(match.ID), data, s.cfg.MatchTTL)
	if exists == 0 {
		// First save appends to the match creation order
		pipe.RPush(ctx, matchOrderKey(), string(match.ID))
	}
	// First match wins: SETNX leaves a player already indexed elsewhere alone.
	for _, pid := range match.Players {
		pipe.SetNX(ctx, playerMatchIndexKey(pid), string(match.ID), s.cfg.MatchTTL)
	}
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Storage) GetMatch(ctx context.Context, id model.MatchID) (*model.Match, error) {
	data, err := s.client.Get(ctx, matchKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrMatchNotFound
		}
		return nil, err
	}

	var match model.Match
	if err := json.Unmarshal(data, &match); err != nil {
		return nil, err
	}
	return &match, nil
}

func (s *Storage) DeleteMatch(ctx context.Context, id model.MatchID) error {
	match, err := s.GetMatch(ctx, id)
	if err != nil {
		if errors.Is(err, model.ErrMatchNotFound) {
			return nil
		}
		return err
	}

	pipe := s.client.Pipeline()
	pipe.Del(ctx, matchKey(id))
	pipe.LRem(ctx, matchOrderKey(), 0, string(id))
	if _, err := pipe.Exec(ctx); err != nil {
		return err
	}

	for _, pid := range match.Players {
		// Touch only index entries that still point at this match
		indexed, err := s.client.Get(ctx, playerMatchIndexKey(pid)).Result()
		if err != nil || model.MatchID(indexed) != id {
			continue
		}
		// Rebind the player to their earliest remaining match, so the index
		// keeps answering like a creation-order scan would.
		next, err := s.earliestMatchWith(ctx, pid)
		if err != nil {
			return err
		}
		if next == "" {
			if err := s.client.Del(ctx, playerMatchIndexKey(pid)).Err(); err != nil {
				return err
			}
			continue
		}
		if err := s.client.Set(ctx, playerMatchIndexKey(pid), string(next), s.cfg.MatchTTL).Err(); err != nil {
			return err
		}
	}
	return nil
}

func (s *Storage) earliestMatchWith(ctx context.Context, pid model.PlayerID) (model.MatchID, error) {
	ids, err := s.client.LRange(ctx, matchOrderKey(), 0, -1).Result()
	if err != nil {
		return "", err
	}
	for _, raw := range ids {
		match, err := s.GetMatch(ctx, model.MatchID(raw))
		if err != nil {
			if errors.Is(err, model.ErrMatchNotFound) {
				// Expired match record still listed in the order; skip it.
				continue
			}
			return "", err
		}
		if match.HasPlayer(pid) {
			return match.ID, nil
		}
	}
	return "", nil
}

func (s *Storage) MatchIDForPlayer(ctx context.Context, id model.PlayerID) (model.MatchID, error) {
	mid, err := s.client.Get(ctx, playerMatchIndexKey(id)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", model.ErrMatchNotFound
		}
		return "", err
	}
	return model.MatchID(mid), nil
}

// Session operations

func (s *Storage) SaveSession(ctx context.Context, token string, id model.PlayerID) error {
	return s.client.Set(ctx, sessionKey(token), int64(id), s.cfg.SessionTTL).Err()
}

func (s *Storage) GetSession(ctx context.Context, token string) (model.PlayerID, error) {
	raw, err := s.client.Get(ctx, sessionKey(token)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, model.ErrSessionNotFound
		}
		return 0, err
	}

	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, err
	}
	return model.PlayerID(id), nil
}

func (s *Storage) DeleteSession(ctx context.Context, token string) error {
	return s.client.Del(ctx, sessionKey(token)).Err()
}
