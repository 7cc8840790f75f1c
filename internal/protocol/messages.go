// Package protocol defines the JSON messages exchanged with clients
// over the websocket and the converters that build them from the domain
// model.
package protocol

import (
	"encoding/json"
	"strconv"

	"github.com/avasilyev/rps-arena-go/internal/model"
)

// Outbound action names
const (
	ActionQueueUpdates = "queue_updates"
	ActionGameUpdates  = "game_updates"
)

// ResultDone marks a successful broadcast
const ResultDone = "Done"

// ResultFail marks a rejected client message
const ResultFail = "Fail"

// User is the per-recipient view of their own player record carried in
// lobby broadcasts.
type User struct {
	ID          int64    `json:"id"`
	Name        string   `json:"name"`
	Ready       bool     `json:"ready"`
	MatchSize   int      `json:"match_size"`
	Wins        int      `json:"wins"`
	GamesPlayed int      `json:"games_played"`
	History     []string `json:"history"`
}

// QueueEntry is one lobby row. It marshals as a [name, ready] tuple.
type QueueEntry struct {
	Name  string
	Ready bool
}

func (e QueueEntry) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{e.Name, e.Ready})
}

func (e *QueueEntry) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw[0], &e.Name); err != nil {
			return err
		}
	}
	if len(raw) > 1 {
		if err := json.Unmarshal(raw[1], &e.Ready); err != nil {
			return err
		}
	}
	return nil
}

// QueueUpdate is the lobby broadcast message
type QueueUpdate struct {
	Action string       `json:"action"`
	Result string       `json:"result"`
	User   User         `json:"user"`
	Queue  []QueueEntry `json:"queue"`
}

// GamePlayer is the per-participant summary inside a game broadcast
type GamePlayer struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Wins        int    `json:"wins"`
	GamesPlayed int    `json:"games_played"`
}

// GameStat is the full round state shared by every participant
type GameStat struct {
	Status  model.MatchStatus      `json:"status"`
	Round   int                    `json:"round"`
	Winner  model.Winner           `json:"winner"`
	Throws  map[string]model.Throw `json:"throws"`
	Players []GamePlayer           `json:"players"`
}

// GameUpdate is the match broadcast message
type GameUpdate struct {
	Action   string   `json:"action"`
	Result   string   `json:"result"`
	GameStat GameStat `json:"game_stat"`
}

// Failure is sent back to a client whose message was rejected
type Failure struct {
	Result string `json:"result"`
	Data   string `json:"data"`
}

// NewQueueUpdate builds the lobby broadcast for one recipient
func NewQueueUpdate(recipient *model.Player, queue []model.QueueEntry) QueueUpdate {
	entries := make([]QueueEntry, len(queue))
	for i, q := range queue {
		entries[i] = QueueEntry{Name: q.Name, Ready: q.Ready}
	}
	return QueueUpdate{
		Action: ActionQueueUpdates,
		Result: ResultDone,
		User:   NewUser(recipient),
		Queue:  entries,
	}
}

// NewUser converts a player record to its wire form
func NewUser(p *model.Player) User {
	history := p.History
	if history == nil {
		history = []string{}
	}
	return User{
		ID:          int64(p.ID),
		Name:        p.Name,
		Ready:       p.Ready,
		MatchSize:   p.MatchSize,
		Wins:        p.Wins,
		GamesPlayed: p.GamesPlayed,
		History:     history,
	}
}

// NewGameUpdate builds the match broadcast shared by all participants
func NewGameUpdate(m *model.Match, players []*model.Player) GameUpdate {
	throws := make(map[string]model.Throw, len(m.Throws))
	for id, t := range m.Throws {
		throws[strconv.FormatInt(int64(id), 10)] = t
	}

	gamePlayers := make([]GamePlayer, len(players))
	for i, p := range players {
		gamePlayers[i] = GamePlayer{
			ID:          int64(p.ID),
			Name:        p.Name,
			Wins:        p.Wins,
			GamesPlayed: p.GamesPlayed,
		}
	}

	return GameUpdate{
		Action: ActionGameUpdates,
		Result: ResultDone,
		GameStat: GameStat{
			Status:  m.Status,
			Round:   m.Round,
			Winner:  m.Winner,
			Throws:  throws,
			Players: gamePlayers,
		},
	}
}

// NewFailure builds a client error response
func NewFailure(msg string) Failure {
	return Failure{Result: ResultFail, Data: msg}
}

// HistoryResponse marshals a player's history as a bare JSON array,
// never null.
func HistoryResponse(history []string) ([]byte, error) {
	if history == nil {
		history = []string{}
	}
	return json.Marshal(history)
}
