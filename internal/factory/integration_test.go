package factory

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/avasilyev/rps-arena-go/internal/model"
)

type IntegrationSuite struct {
	suite.Suite
	app *TestApp
	ctx context.Context
}

func TestIntegrationSuite(t *testing.T) {
	suite.Run(t, new(IntegrationSuite))
}

func (s *IntegrationSuite) SetupTest() {
	s.app = NewTestApp()
	s.ctx = context.Background()
}

func (s *IntegrationSuite) register(id model.PlayerID, name string) *model.Player {
	player, err := s.app.ArenaService.RegisterOrFetch(s.ctx, id, name)
	s.Require().NoError(err)
	return player
}

func (s *IntegrationSuite) send(id model.PlayerID, raw string) {
	s.app.Dispatcher.HandleMessage(s.ctx, id, []byte(raw))
}

func (s *IntegrationSuite) player(id model.PlayerID) *model.Player {
	player, err := s.app.ArenaService.GetPlayer(s.ctx, id)
	s.Require().NoError(err)
	return player
}

// Test: two players queue up, duel, and the winner's record updates
func (s *IntegrationSuite) TestTwoPlayerDuel() {
	s.app.MockRandom.QueueString("match1")
	p1 := s.register(100001, "P1")
	p2 := s.register(100002, "P2")

	// P1 queues first; no opponent is available yet.
	s.send(p1.ID, `{"action":"mark_as_ready"}`)
	s.True(s.player(p1.ID).Ready)

	// P2 queues and is matched against P1.
	s.send(p2.ID, `{"action":"mark_as_ready"}`)

	m, err := s.app.MatchService.FindByPlayer(s.ctx, p1.ID)
	s.Require().NoError(err)
	s.Equal(model.MatchStateStarted, m.Status)
	s.Len(m.Players, 2)
	s.Contains(m.Players, p1.ID)
	s.Contains(m.Players, p2.ID)

	// Both players are bound to the same match.
	other, err := s.app.MatchService.FindByPlayer(s.ctx, p2.ID)
	s.Require().NoError(err)
	s.Equal(m.ID, other.ID)

	s.send(p1.ID, `{"action":"throw","data":"ROCK"}`)
	s.send(p2.ID, `{"action":"throw","data":"SCISSORS"}`)

	resolved, err := s.app.MatchService.FindByPlayer(s.ctx, p1.ID)
	s.Require().NoError(err)
	s.Equal(model.MatchStateFinished, resolved.Status)
	s.Equal(model.PlayerWinner(p1.ID), resolved.Winner)

	winner := s.player(p1.ID)
	s.Equal(1, winner.Wins)
	s.Equal(1, winner.GamesPlayed)
	s.Len(winner.History, 1)

	loser := s.player(p2.ID)
	s.Equal(0, loser.Wins)
	s.Equal(1, loser.GamesPlayed)
	s.Len(loser.History, 1)
}

// Test: three players with match_size=2 form one match; the lone
// scissors player beats two papers
func (s *IntegrationSuite) TestThreePlayerMatch() {
	s.app.MockRandom.QueueString("match1")
	p1 := s.register(100001, "P1")
	p2 := s.register(100002, "P2")
	p3 := s.register(100003, "P3")

	for _, id := range []model.PlayerID{p1.ID, p2.ID, p3.ID} {
		s.send(id, `{"action":"change_type","data":2}`)
	}

	s.send(p1.ID, `{"action":"mark_as_ready"}`)
	s.send(p2.ID, `{"action":"mark_as_ready"}`)
	// Two ready candidates now exist, so the third queuer forms the match.
	s.send(p3.ID, `{"action":"mark_as_ready"}`)

	m, err := s.app.MatchService.FindByPlayer(s.ctx, p3.ID)
	s.Require().NoError(err)
	s.Len(m.Players, 3)

	s.send(p1.ID, `{"action":"throw","data":"SCISSORS"}`)
	s.send(p2.ID, `{"action":"throw","data":"PAPER"}`)
	s.send(p3.ID, `{"action":"throw","data":"PAPER"}`)

	resolved, err := s.app.MatchService.FindByPlayer(s.ctx, p1.ID)
	s.Require().NoError(err)
	s.Equal(model.MatchStateFinished, resolved.Status)
	s.Equal(model.PlayerWinner(p1.ID), resolved.Winner)
	s.Equal(1, s.player(p1.ID).Wins)
	s.Equal(0, s.player(p2.ID).Wins)
	s.Equal(0, s.player(p3.ID).Wins)
}

// Test: consecutive rounds of the same match
func (s *IntegrationSuite) TestMultipleRounds() {
	s.app.MockRandom.QueueString("match1")
	p1 := s.register(100001, "P1")
	p2 := s.register(100002, "P2")

	s.send(p1.ID, `{"action":"mark_as_ready"}`)
	s.send(p2.ID, `{"action":"mark_as_ready"}`)

	// Round 1: P1 wins.
	s.send(p1.ID, `{"action":"throw","data":"ROCK"}`)
	s.send(p2.ID, `{"action":"throw","data":"SCISSORS"}`)

	// Round 2 via explicit reset: P2 wins.
	s.send(p1.ID, `{"action":"start_new_round"}`)
	s.send(p1.ID, `{"action":"throw","data":"ROCK"}`)
	s.send(p2.ID, `{"action":"throw","data":"PAPER"}`)

	// Round 3 via implicit reset on throw: tie.
	s.send(p1.ID, `{"action":"throw","data":"PASS"}`)
	s.send(p2.ID, `{"action":"throw","data":"PASS"}`)

	m, err := s.app.MatchService.FindByPlayer(s.ctx, p1.ID)
	s.Require().NoError(err)
	s.Equal(3, m.Round)
	s.Equal(model.TieWinner(), m.Winner)

	s.Equal(1, s.player(p1.ID).Wins)
	s.Equal(1, s.player(p2.ID).Wins)
	s.Equal(3, s.player(p1.ID).GamesPlayed)
	s.Len(s.player(p1.ID).History, 3)
}

// Test: canceling a match unbinds both players and later throws are no-ops
func (s *IntegrationSuite) TestCancelMatch() {
	s.app.MockRandom.QueueString("match1")
	p1 := s.register(100001, "P1")
	p2 := s.register(100002, "P2")

	s.send(p1.ID, `{"action":"mark_as_ready"}`)
	s.send(p2.ID, `{"action":"mark_as_ready"}`)

	s.send(p1.ID, `{"action":"cancel_game"}`)

	for _, id := range []model.PlayerID{p1.ID, p2.ID} {
		_, err := s.app.MatchService.FindByPlayer(s.ctx, id)
		s.ErrorIs(err, model.ErrMatchNotFound)
	}

	// Former participants can throw without effect.
	s.send(p2.ID, `{"action":"throw","data":"ROCK"}`)
	s.Equal(0, s.player(p2.ID).GamesPlayed)
}

// Test: a disconnect mid-match cancels it for the survivor
func (s *IntegrationSuite) TestDisconnectCancelsMatch() {
	s.app.MockRandom.QueueString("match1")
	p1 := s.register(100001, "P1")
	p2 := s.register(100002, "P2")

	s.send(p1.ID, `{"action":"mark_as_ready"}`)
	s.send(p2.ID, `{"action":"mark_as_ready"}`)

	s.app.Dispatcher.Disconnect(s.ctx, p1.ID)

	_, err := s.app.MatchService.FindByPlayer(s.ctx, p2.ID)
	s.ErrorIs(err, model.ErrMatchNotFound)
}

// Test: fresh players queue again after a canceled match and get a new one
func (s *IntegrationSuite) TestRequeueAfterCancel() {
	s.app.MockRandom.QueueString("match1", "match2")
	p1 := s.register(100001, "P1")
	p2 := s.register(100002, "P2")

	s.send(p1.ID, `{"action":"mark_as_ready"}`)
	s.send(p2.ID, `{"action":"mark_as_ready"}`)
	s.send(p1.ID, `{"action":"cancel_game"}`)

	s.send(p1.ID, `{"action":"mark_as_ready"}`)
	s.send(p2.ID, `{"action":"mark_as_ready"}`)

	m, err := s.app.MatchService.FindByPlayer(s.ctx, p1.ID)
	s.Require().NoError(err)
	s.Equal(model.MatchID("match2"), m.ID)
}

// Test: a player bound to two live matches falls through to the second
// when the first is canceled
func (s *IntegrationSuite) TestCancelFallsThroughToNextMatch() {
	s.app.MockRandom.QueueString("match1", "match2")
	p1 := s.register(100001, "P1")
	p2 := s.register(100002, "P2")
	p3 := s.register(100003, "P3")

	s.send(p1.ID, `{"action":"mark_as_ready"}`)
	s.send(p2.ID, `{"action":"mark_as_ready"}`)
	// P2 queues again while match1 is live and lands in match2 with P3.
	s.send(p3.ID, `{"action":"mark_as_ready"}`)
	s.send(p2.ID, `{"action":"mark_as_ready"}`)

	m, err := s.app.MatchService.FindByPlayer(s.ctx, p2.ID)
	s.Require().NoError(err)
	s.Equal(model.MatchID("match1"), m.ID)

	s.send(p1.ID, `{"action":"cancel_game"}`)

	// P2 is still a member of match2, so lookups must now resolve there.
	m, err = s.app.MatchService.FindByPlayer(s.ctx, p2.ID)
	s.Require().NoError(err)
	s.Equal(model.MatchID("match2"), m.ID)

	_, err = s.app.MatchService.FindByPlayer(s.ctx, p1.ID)
	s.ErrorIs(err, model.ErrMatchNotFound)
}

// Test: session bootstrap yields stable identity
func (s *IntegrationSuite) TestSessionRoundTrip() {
	s.app.MockRandom.QueueIntn(23456)

	player, err := s.app.ArenaService.CreatePlayer(s.ctx)
	s.Require().NoError(err)
	s.Equal(fmt.Sprintf("User_%d", player.ID), player.Name)

	token, err := s.app.SessionService.Create(s.ctx, player.ID)
	s.Require().NoError(err)

	resolved, err := s.app.SessionService.Resolve(s.ctx, token)
	s.Require().NoError(err)
	s.Equal(player.ID, resolved)
}
