package model

import (
	"fmt"
	"time"
)

// PlayerID uniquely identifies a player across the system.
// IDs are opaque numeric values, stable across reconnects.
type PlayerID int64

// Player represents a connected (or previously seen) participant.
// The outbound connection is deliberately not part of the model; the
// websocket hub owns the id -> connection mapping.
type Player struct {
	ID          PlayerID
	Name        string
	Ready       bool
	MatchSize   int // number of opponents wanted: 1 = duel, 2 = three-way
	Wins        int
	GamesPlayed int
	History     []string // append-only match summaries, oldest first
	CreatedAt   time.Time
}

// DefaultMatchSize is the match size assigned to newly created players.
const DefaultMatchSize = 1

// DefaultName derives the display name used until a player picks their own.
func DefaultName(id PlayerID) string {
	return fmt.Sprintf("User_%d", id)
}

// QueueEntry is one row of the arena queue snapshot.
type QueueEntry struct {
	Name  string
	Ready bool
}
