package model

import (
	"encoding/json"
	"strconv"
	"time"
)

// MatchID uniquely identifies a match.
type MatchID string

// MatchStatus represents the current phase of a match.
type MatchStatus string

const (
	MatchStateStarted    MatchStatus = "started"    // created, no throw of round 1 yet
	MatchStateProcessing MatchStatus = "processing" // a round is in progress
	MatchStateFinished   MatchStatus = "finished"   // round resolved, winner set
	MatchStateCanceled   MatchStatus = "canceled"   // terminal, removed from the registry
)

// Throw is a player's per-round choice.
type Throw string

const (
	ThrowPass     Throw = "PASS"
	ThrowRock     Throw = "ROCK"
	ThrowPaper    Throw = "PAPER"
	ThrowScissors Throw = "SCISSORS"
)

// ValidThrow reports whether v is one of the four playable values.
func ValidThrow(v Throw) bool {
	switch v {
	case ThrowPass, ThrowRock, ThrowPaper, ThrowScissors:
		return true
	}
	return false
}

// Beats reports whether a defeats b under the standard relation.
// PASS never beats anything; callers strip it before comparing.
func Beats(a, b Throw) bool {
	switch {
	case a == ThrowRock && b == ThrowScissors:
		return true
	case a == ThrowScissors && b == ThrowPaper:
		return true
	case a == ThrowPaper && b == ThrowRock:
		return true
	}
	return false
}

// Winner is the outcome of a resolved round: unset (zero value), a tie,
// or a single player. It marshals to null, "TIE", or the player's id.
type Winner struct {
	Tie    bool
	Player PlayerID
}

// TieWinner marks the round a tie among all participants.
func TieWinner() Winner {
	return Winner{Tie: true}
}

// PlayerWinner marks id as the round's single victor.
func PlayerWinner(id PlayerID) Winner {
	return Winner{Player: id}
}

// IsSet reports whether the round has been resolved.
func (w Winner) IsSet() bool {
	return w.Tie || w.Player != 0
}

// String renders the winner the way history entries record it.
func (w Winner) String() string {
	switch {
	case w.Tie:
		return "TIE"
	case w.Player != 0:
		return strconv.FormatInt(int64(w.Player), 10)
	}
	return "none"
}

// MarshalJSON emits null for unset, "TIE" for ties, and the numeric id
// otherwise.
func (w Winner) MarshalJSON() ([]byte, error) {
	switch {
	case w.Tie:
		return json.Marshal("TIE")
	case w.Player != 0:
		return json.Marshal(int64(w.Player))
	}
	return []byte("null"), nil
}

// UnmarshalJSON accepts the three encodings MarshalJSON produces.
func (w *Winner) UnmarshalJSON(data []byte) error {
	*w = Winner{}
	if string(data) == "null" {
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if s == "TIE" {
			w.Tie = true
		}
		return nil
	}
	var id int64
	if err := json.Unmarshal(data, &id); err != nil {
		return err
	}
	w.Player = PlayerID(id)
	return nil
}

// Match represents one running contest among 2 or 3 players.
// The player list is fixed at creation; players cannot join or leave a
// match in progress.
type Match struct {
	ID             MatchID
	Status         MatchStatus
	Round          int // starts at 1, increments on reset
	Winner         Winner
	Throws         map[PlayerID]Throw
	Players        []PlayerID // initiator first, then rivals in selection order
	RoundStartedAt time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// HasPlayer reports whether id participates in this match.
func (m *Match) HasPlayer(id PlayerID) bool {
	for _, p := range m.Players {
		if p == id {
			return true
		}
	}
	return false
}

// AllThrown reports whether every participant has thrown this round.
func (m *Match) AllThrown() bool {
	return len(m.Throws) == len(m.Players)
}
