package match

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/avasilyev/rps-arena-go/internal/model"
)

// resolve settles a round where every participant has thrown: it works
// out the winning throw, credits wins, bumps games-played counters,
// marks the match finished and writes a history line to every
// participant.
func (s *Service) resolve(ctx context.Context, m *model.Match) error {
	players, err := s.Players(ctx, m)
	if err != nil {
		return err
	}

	winningThrow, decided := winningThrow(m.Throws)

	m.Winner = model.TieWinner()
	var winners []*model.Player
	if decided {
		for _, p := range players {
			if m.Throws[p.ID] == winningThrow {
				p.Wins++
				winners = append(winners, p)
			}
		}
		// Two or more players sharing the winning throw still count the
		// win individually, but the round as a whole reports a tie.
		if len(winners) == 1 {
			m.Winner = model.PlayerWinner(winners[0].ID)
		}
	}

	m.Status = model.MatchStateFinished
	m.UpdatedAt = s.clock.Now()

	entry := s.historyEntry(m, players)
	for _, p := range players {
		p.GamesPlayed++
		p.History = append(p.History, entry)
		if err := s.storage.SavePlayer(ctx, p); err != nil {
			return err
		}
	}

	s.logger.Info("round resolved",
		slog.String("match_id", string(m.ID)),
		slog.Int("round", m.Round),
		slog.String("winner", m.Winner.String()))
	return nil
}

// winningThrow reduces the set of thrown values to a single winning
// value. The second return is false when the round is an outright tie.
func winningThrow(throws map[model.PlayerID]model.Throw) (model.Throw, bool) {
	distinct := map[model.Throw]bool{}
	for _, t := range throws {
		distinct[t] = true
	}

	// Everyone threw the same thing.
	if len(distinct) == 1 {
		return "", false
	}

	delete(distinct, model.ThrowPass)

	// Only one real throw among passes.
	if len(distinct) == 1 {
		for t := range distinct {
			return t, true
		}
	}

	// Rock, paper and scissors all present cancel each other out.
	if len(distinct) == 3 {
		return "", false
	}

	var a, b model.Throw
	for t := range distinct {
		if a == "" {
			a = t
		} else {
			b = t
		}
	}
	if model.Beats(a, b) {
		return a, true
	}
	return b, true
}

func (s *Service) historyEntry(m *model.Match, players []*model.Player) string {
	names := make([]string, len(players))
	for i, p := range players {
		names[i] = p.Name
	}
	return fmt.Sprintf("%s game finished rounds #%d participants: %v winner: %s",
		s.clock.Now().Format(time.RFC3339), m.Round, names, m.Winner)
}
