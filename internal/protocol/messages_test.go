package protocol

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avasilyev/rps-arena-go/internal/model"
)

func TestQueueEntryMarshalsAsTuple(t *testing.T) {
	data, err := json.Marshal(QueueEntry{Name: "Alice", Ready: true})
	require.NoError(t, err)
	assert.JSONEq(t, `["Alice", true]`, string(data))
}

func TestQueueEntryUnmarshalsFromTuple(t *testing.T) {
	var e QueueEntry
	require.NoError(t, json.Unmarshal([]byte(`["Alice", true]`), &e))
	assert.Equal(t, "Alice", e.Name)
	assert.True(t, e.Ready)
}

func TestNewQueueUpdate(t *testing.T) {
	recipient := &model.Player{
		ID:          123456,
		Name:        "Alice",
		Ready:       true,
		MatchSize:   2,
		Wins:        3,
		GamesPlayed: 7,
		History:     []string{"entry"},
	}
	queue := []model.QueueEntry{
		{Name: "Alice", Ready: true},
		{Name: "Bob", Ready: false},
	}

	msg := NewQueueUpdate(recipient, queue)
	data, err := json.Marshal(msg)
	require.NoError(t, err)

	assert.JSONEq(t, `{
		"action": "queue_updates",
		"result": "Done",
		"user": {
			"id": 123456,
			"name": "Alice",
			"ready": true,
			"match_size": 2,
			"wins": 3,
			"games_played": 7,
			"history": ["entry"]
		},
		"queue": [["Alice", true], ["Bob", false]]
	}`, string(data))
}

func TestNewUserNilHistoryMarshalsAsEmptyArray(t *testing.T) {
	user := NewUser(&model.Player{ID: 100001, Name: "Alice"})
	data, err := json.Marshal(user)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"history":[]`)
}

func TestNewGameUpdate(t *testing.T) {
	m := &model.Match{
		ID:     "match1",
		Status: model.MatchStateFinished,
		Round:  2,
		Winner: model.PlayerWinner(100001),
		Throws: map[model.PlayerID]model.Throw{
			100001: model.ThrowRock,
			100002: model.ThrowScissors,
		},
		Players: []model.PlayerID{100001, 100002},
	}
	players := []*model.Player{
		{ID: 100001, Name: "Alice", Wins: 1, GamesPlayed: 2},
		{ID: 100002, Name: "Bob", Wins: 0, GamesPlayed: 2},
	}

	msg := NewGameUpdate(m, players)
	data, err := json.Marshal(msg)
	require.NoError(t, err)

	assert.JSONEq(t, `{
		"action": "game_updates",
		"result": "Done",
		"game_stat": {
			"status": "finished",
			"round": 2,
			"winner": 100001,
			"throws": {"100001": "ROCK", "100002": "SCISSORS"},
			"players": [
				{"id": 100001, "name": "Alice", "wins": 1, "games_played": 2},
				{"id": 100002, "name": "Bob", "wins": 0, "games_played": 2}
			]
		}
	}`, string(data))
}

func TestGameUpdateTieWinner(t *testing.T) {
	m := &model.Match{
		Status:  model.MatchStateFinished,
		Round:   1,
		Winner:  model.TieWinner(),
		Throws:  map[model.PlayerID]model.Throw{},
		Players: []model.PlayerID{},
	}

	data, err := json.Marshal(NewGameUpdate(m, nil))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"winner":"TIE"`)
}

func TestGameUpdateUnsetWinnerIsNull(t *testing.T) {
	m := &model.Match{
		Status:  model.MatchStateProcessing,
		Round:   1,
		Throws:  map[model.PlayerID]model.Throw{},
		Players: []model.PlayerID{},
	}

	data, err := json.Marshal(NewGameUpdate(m, nil))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"winner":null`)
}

func TestNewFailure(t *testing.T) {
	data, err := json.Marshal(NewFailure("unsupported action"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"result":"Fail","data":"unsupported action"}`, string(data))
}

func TestHistoryResponse(t *testing.T) {
	data, err := HistoryResponse([]string{"one", "two"})
	require.NoError(t, err)
	assert.JSONEq(t, `["one","two"]`, string(data))

	empty, err := HistoryResponse(nil)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(empty))
}
