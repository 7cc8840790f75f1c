package storage

import (
	"context"

	"github.com/avasilyev/rps-arena-go/internal/model"
)

// Storage defines the interface for data persistence.
//
// Player listing preserves join order: the first SavePlayer call for an id
// appends it to the arena order, later calls update in place. SaveMatch and
// DeleteMatch maintain the player -> match index alongside the match record;
// the index keeps the FIRST match a player was entered into until that match
// is deleted.
type Storage interface {
	// Player operations
	SavePlayer(ctx context.Context, player *model.Player) error
	GetPlayer(ctx context.Context, id model.PlayerID) (*model.Player, error)
	ListPlayers(ctx context.Context) ([]*model.Player, error)
	DeletePlayer(ctx context.Context, id model.PlayerID) error
	PlayerExists(ctx context.Context, id model.PlayerID) (bool, error)

	// Match operations
	SaveMatch(ctx context.Context, match *model.Match) error
	GetMatch(ctx context.Context, id model.MatchID) (*model.Match, error)
	DeleteMatch(ctx context.Context, id model.MatchID) error
	MatchIDForPlayer(ctx context.Context, id model.PlayerID) (model.MatchID, error)

	// Session operations
	SaveSession(ctx context.Context, token string, id model.PlayerID) error
	GetSession(ctx context.Context, token string) (model.PlayerID, error)
	DeleteSession(ctx context.Context, token string) error
}
