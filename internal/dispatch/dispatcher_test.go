package dispatch

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/avasilyev/rps-arena-go/internal/dependencies/mocks"
	"github.com/avasilyev/rps-arena-go/internal/model"
	"github.com/avasilyev/rps-arena-go/internal/protocol"
	"github.com/avasilyev/rps-arena-go/internal/services/arena"
	"github.com/avasilyev/rps-arena-go/internal/services/match"
	"github.com/avasilyev/rps-arena-go/internal/storage/memory"
	"github.com/avasilyev/rps-arena-go/internal/testutil"
)

// recordingSender captures everything the dispatcher sends, per player.
type recordingSender struct {
	sent map[model.PlayerID][][]byte
}

func newRecordingSender() *recordingSender {
	return &recordingSender{sent: make(map[model.PlayerID][][]byte)}
}

func (r *recordingSender) Send(playerID model.PlayerID, payload []byte) {
	r.sent[playerID] = append(r.sent[playerID], payload)
}

func (r *recordingSender) reset() {
	r.sent = make(map[model.PlayerID][][]byte)
}

func (r *recordingSender) last(playerID model.PlayerID) []byte {
	msgs := r.sent[playerID]
	if len(msgs) == 0 {
		return nil
	}
	return msgs[len(msgs)-1]
}

type DispatcherSuite struct {
	suite.Suite
	storage    *memory.Storage
	clock      *mocks.MockClock
	random     *mocks.MockRandom
	sender     *recordingSender
	dispatcher *Dispatcher
	ctx        context.Context
}

func TestDispatcherSuite(t *testing.T) {
	suite.Run(t, new(DispatcherSuite))
}

func (s *DispatcherSuite) SetupTest() {
	s.storage = memory.New()
	s.clock = mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	s.random = mocks.NewMockRandom()
	s.sender = newRecordingSender()

	logger := testutil.NopLogger()
	arenaService := arena.New(s.storage, s.clock, s.random, logger)
	matchService := match.New(s.storage, s.clock, s.random, logger)
	s.dispatcher = New(arenaService, matchService, s.sender, logger)
	s.ctx = context.Background()
}

func (s *DispatcherSuite) addPlayer(id model.PlayerID, matchSize int) *model.Player {
	p := &model.Player{
		ID:        id,
		Name:      model.DefaultName(id),
		MatchSize: matchSize,
		History:   []string{},
		CreatedAt: s.clock.Now(),
	}
	s.Require().NoError(s.storage.SavePlayer(s.ctx, p))
	return p
}

func (s *DispatcherSuite) handle(id model.PlayerID, raw string) {
	s.dispatcher.HandleMessage(s.ctx, id, []byte(raw))
}

func (s *DispatcherSuite) lastQueueUpdate(id model.PlayerID) protocol.QueueUpdate {
	raw := s.sender.last(id)
	s.Require().NotNil(raw, "no message sent to player %d", id)
	var msg protocol.QueueUpdate
	s.Require().NoError(json.Unmarshal(raw, &msg))
	s.Require().Equal(protocol.ActionQueueUpdates, msg.Action)
	return msg
}

func (s *DispatcherSuite) lastGameUpdate(id model.PlayerID) protocol.GameUpdate {
	raw := s.sender.last(id)
	s.Require().NotNil(raw, "no message sent to player %d", id)
	var msg protocol.GameUpdate
	s.Require().NoError(json.Unmarshal(raw, &msg))
	s.Require().Equal(protocol.ActionGameUpdates, msg.Action)
	return msg
}

// Validation failures

func (s *DispatcherSuite) TestInvalidMessageSendsFailure() {
	s.addPlayer(100001, 1)

	s.handle(100001, `garbage`)

	var failure protocol.Failure
	s.Require().NoError(json.Unmarshal(s.sender.last(100001), &failure))
	s.Equal(protocol.ResultFail, failure.Result)
	s.Equal("message is not serializable", failure.Data)
}

// mark_as_ready

func (s *DispatcherSuite) TestMarkAsReadyWithoutRivalsBroadcastsLobby() {
	s.addPlayer(100001, 1)
	s.addPlayer(100002, 1) // present but not ready

	s.handle(100001, `{"action":"mark_as_ready"}`)

	msg := s.lastQueueUpdate(100001)
	s.True(msg.User.Ready)
	s.Require().Len(msg.Queue, 2)
	s.Equal("User_100001", msg.Queue[0].Name)
	s.True(msg.Queue[0].Ready)

	// Everyone in the lobby hears about it, each with their own record.
	other := s.lastQueueUpdate(100002)
	s.Equal(int64(100002), other.User.ID)
	s.False(other.User.Ready)
}

func (s *DispatcherSuite) TestMarkAsReadyWithRivalCreatesMatch() {
	s.addPlayer(100001, 1)
	ready := s.addPlayer(100002, 1)
	ready.Ready = true
	s.Require().NoError(s.storage.SavePlayer(s.ctx, ready))
	s.addPlayer(100003, 1) // bystander
	s.random.QueueString("match1")

	s.handle(100001, `{"action":"mark_as_ready"}`)

	// Both participants get the match broadcast.
	for _, id := range []model.PlayerID{100001, 100002} {
		msg := s.lastGameUpdate(id)
		s.Equal(model.MatchStateStarted, msg.GameStat.Status)
		s.Equal(1, msg.GameStat.Round)
		s.Require().Len(msg.GameStat.Players, 2)
		s.Equal(int64(100001), msg.GameStat.Players[0].ID)
		s.Equal(int64(100002), msg.GameStat.Players[1].ID)
	}

	// The bystander only hears the lobby update.
	bystander := s.lastQueueUpdate(100003)
	s.Equal(int64(100003), bystander.User.ID)
}

// throw

func (s *DispatcherSuite) TestThrowResolvesAndBroadcastsMatch() {
	s.addPlayer(100001, 1)
	ready := s.addPlayer(100002, 1)
	ready.Ready = true
	s.Require().NoError(s.storage.SavePlayer(s.ctx, ready))
	s.random.QueueString("match1")

	s.handle(100001, `{"action":"mark_as_ready"}`)
	s.sender.reset()

	s.handle(100001, `{"action":"throw","data":"ROCK"}`)
	s.handle(100002, `{"action":"throw","data":"SCISSORS"}`)

	msg := s.lastGameUpdate(100002)
	s.Equal(model.MatchStateFinished, msg.GameStat.Status)
	s.Equal(model.PlayerWinner(100001), msg.GameStat.Winner)
	s.Equal(model.ThrowRock, msg.GameStat.Throws["100001"])
	s.Equal(model.ThrowScissors, msg.GameStat.Throws["100002"])
	s.Equal(1, msg.GameStat.Players[0].Wins)
	s.Equal(0, msg.GameStat.Players[1].Wins)
}

func (s *DispatcherSuite) TestThrowWithoutMatchIsSilentlyIgnored() {
	s.addPlayer(100001, 1)

	s.handle(100001, `{"action":"throw","data":"ROCK"}`)

	s.Empty(s.sender.sent)
}

// show_history

func (s *DispatcherSuite) TestShowHistoryGoesOnlyToCaller() {
	p := s.addPlayer(100001, 1)
	p.History = []string{"first entry", "second entry"}
	s.Require().NoError(s.storage.SavePlayer(s.ctx, p))
	s.addPlayer(100002, 1)

	s.handle(100001, `{"action":"show_history"}`)

	var history []string
	s.Require().NoError(json.Unmarshal(s.sender.last(100001), &history))
	s.Equal([]string{"first entry", "second entry"}, history)
	s.Empty(s.sender.sent[100002])
}

func (s *DispatcherSuite) TestShowHistoryEmptyIsArrayNotNull() {
	s.addPlayer(100001, 1)

	s.handle(100001, `{"action":"show_history"}`)

	s.Equal("[]", string(s.sender.last(100001)))
}

// change_name / change_type

func (s *DispatcherSuite) TestChangeNameBroadcastsLobby() {
	s.addPlayer(100001, 1)
	s.addPlayer(100002, 1)

	s.handle(100001, `{"action":"change_name","data":"Alice"}`)

	msg := s.lastQueueUpdate(100002)
	s.Equal("Alice", msg.Queue[0].Name)
}

func (s *DispatcherSuite) TestChangeTypeUpdatesMatchSize() {
	s.addPlayer(100001, 1)

	s.handle(100001, `{"action":"change_type","data":2}`)

	msg := s.lastQueueUpdate(100001)
	s.Equal(2, msg.User.MatchSize)
}

// cancel_game

func (s *DispatcherSuite) TestCancelGameBroadcastsCanceledStateAndLobby() {
	s.addPlayer(100001, 1)
	ready := s.addPlayer(100002, 1)
	ready.Ready = true
	s.Require().NoError(s.storage.SavePlayer(s.ctx, ready))
	s.random.QueueString("match1")

	s.handle(100001, `{"action":"mark_as_ready"}`)
	s.sender.reset()

	s.handle(100001, `{"action":"cancel_game"}`)

	// First message to a participant is the canceled match state.
	var gameMsg protocol.GameUpdate
	s.Require().NotEmpty(s.sender.sent[100002])
	s.Require().NoError(json.Unmarshal(s.sender.sent[100002][0], &gameMsg))
	s.Equal(model.MatchStateCanceled, gameMsg.GameStat.Status)

	// Followed by a lobby broadcast.
	lobbyMsg := s.lastQueueUpdate(100002)
	s.Equal(protocol.ActionQueueUpdates, lobbyMsg.Action)

	// A throw after cancellation does nothing.
	s.sender.reset()
	s.handle(100001, `{"action":"throw","data":"ROCK"}`)
	s.Empty(s.sender.sent)
}

func (s *DispatcherSuite) TestCancelGameWithoutMatchStillBroadcastsLobby() {
	s.addPlayer(100001, 1)

	s.handle(100001, `{"action":"cancel_game"}`)

	msg := s.lastQueueUpdate(100001)
	s.Equal(int64(100001), msg.User.ID)
}

// Connect / Disconnect

func (s *DispatcherSuite) TestConnectBroadcastsLobby() {
	s.addPlayer(100001, 1)
	s.addPlayer(100002, 1)

	s.dispatcher.Connect(s.ctx, 100002)

	s.Require().Len(s.sender.sent[100001], 1)
	s.Require().Len(s.sender.sent[100002], 1)
}

func (s *DispatcherSuite) TestDisconnectCancelsMatch() {
	s.addPlayer(100001, 1)
	ready := s.addPlayer(100002, 1)
	ready.Ready = true
	s.Require().NoError(s.storage.SavePlayer(s.ctx, ready))
	s.random.QueueString("match1")

	s.handle(100001, `{"action":"mark_as_ready"}`)
	s.sender.reset()

	s.dispatcher.Disconnect(s.ctx, 100001)

	var gameMsg protocol.GameUpdate
	s.Require().NotEmpty(s.sender.sent[100002])
	s.Require().NoError(json.Unmarshal(s.sender.sent[100002][0], &gameMsg))
	s.Equal(model.MatchStateCanceled, gameMsg.GameStat.Status)

	// The survivor can queue up again.
	_, err := s.storage.MatchIDForPlayer(s.ctx, 100002)
	s.ErrorIs(err, model.ErrMatchNotFound)
}
