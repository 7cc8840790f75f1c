package redis

import (
	"fmt"

	"github.com/avasilyev/rps-arena-go/internal/model"
)

// Key prefix for all game-related data
const keyPrefix = "rpsarena"

// playerKey returns the Redis key for a Player
func playerKey(id model.PlayerID) string {
	return fmt.Sprintf("%s:player:%d", keyPrefix, id)
}

// arenaOrderKey returns the Redis key for the LIST of player ids in join order
func arenaOrderKey() string {
	return fmt.Sprintf("%s:arena:order", keyPrefix)
}

// matchKey returns the Redis key for a Match
func matchKey(id model.MatchID) string {
	return fmt.Sprintf("%s:match:%s", keyPrefix, id)
}

// matchOrderKey returns the Redis key for the LIST of match ids in creation order
func matchOrderKey() string {
	return fmt.Sprintf("%s:match:order", keyPrefix)
}

// playerMatchIndexKey returns the Redis key for the player_id -> match_id index
func playerMatchIndexKey(id model.PlayerID) string {
	return fmt.Sprintf("%s:idx:player_match:%d", keyPrefix, id)
}

// sessionKey returns the Redis key for a session token binding
func sessionKey(token string) string {
	return fmt.Sprintf("%s:session:%s", keyPrefix, token)
}
