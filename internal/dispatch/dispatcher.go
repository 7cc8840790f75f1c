// Package dispatch routes validated client actions to the arena and
// match services and fans the resulting state out to connected players.
package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"

	"github.com/avasilyev/rps-arena-go/internal/model"
	"github.com/avasilyev/rps-arena-go/internal/protocol"
	"github.com/avasilyev/rps-arena-go/internal/services/arena"
	"github.com/avasilyev/rps-arena-go/internal/services/match"
)

// Sender delivers an encoded payload to a connected player. Delivery is
// best-effort; a missing or stalled connection must not block the
// caller.
type Sender interface {
	Send(playerID model.PlayerID, payload []byte)
}

// Outbound is one payload addressed to one or more players. Handlers
// build these under the state lock; the dispatcher sends them after
// releasing it.
type Outbound struct {
	Targets []model.PlayerID
	Payload []byte
}

// Dispatcher serializes all game-state mutation behind a single mutex
// and owns the broadcast obligations of each action.
type Dispatcher struct {
	mu      sync.Mutex
	arena   *arena.Service
	matches *match.Service
	sender  Sender
	logger  *slog.Logger
}

// New creates a new Dispatcher
func New(arenaService *arena.Service, matchService *match.Service, sender Sender, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		arena:   arenaService,
		matches: matchService,
		sender:  sender,
		logger:  logger.With(slog.String("component", "dispatch")),
	}
}

// HandleMessage validates and executes one raw client message.
// Validation failures and internal errors are reported back to the
// sender as Fail responses; internal errors are additionally logged.
func (d *Dispatcher) HandleMessage(ctx context.Context, playerID model.PlayerID, raw []byte) {
	action, err := ParseAction(raw)
	if err != nil {
		d.sendFailure(playerID, err.Error())
		return
	}

	d.mu.Lock()
	out, err := d.handle(ctx, playerID, action)
	d.mu.Unlock()

	if err != nil {
		var clientErr *ClientError
		if errors.As(err, &clientErr) {
			d.sendFailure(playerID, clientErr.Error())
			return
		}
		d.logger.Error("action failed",
			slog.Int64("player_id", int64(playerID)),
			slog.String("action", string(action.Kind)),
			slog.Any("error", err))
		d.sendFailure(playerID, "Unknown error")
		return
	}

	d.deliver(out)
}

// Connect announces a newly attached player by broadcasting the lobby
// to everyone.
func (d *Dispatcher) Connect(ctx context.Context, playerID model.PlayerID) {
	d.mu.Lock()
	out, err := d.lobbyBroadcast(ctx, nil)
	d.mu.Unlock()

	if err != nil {
		d.logger.Error("connect broadcast failed",
			slog.Int64("player_id", int64(playerID)),
			slog.Any("error", err))
		return
	}
	d.deliver(out)
}

// Disconnect cancels the departing player's match, if any, and
// broadcasts the lobby.
func (d *Dispatcher) Disconnect(ctx context.Context, playerID model.PlayerID) {
	d.mu.Lock()
	out, err := d.disconnect(ctx, playerID)
	d.mu.Unlock()

	if err != nil {
		d.logger.Error("disconnect handling failed",
			slog.Int64("player_id", int64(playerID)),
			slog.Any("error", err))
		return
	}
	d.deliver(out)
}

func (d *Dispatcher) disconnect(ctx context.Context, playerID model.PlayerID) ([]Outbound, error) {
	var out []Outbound

	m, err := d.matches.FindByPlayer(ctx, playerID)
	if err == nil {
		canceled, err := d.matches.Cancel(ctx, m)
		if err != nil {
			return nil, err
		}
		matchOut, err := d.matchBroadcast(ctx, canceled)
		if err != nil {
			return nil, err
		}
		out = append(out, matchOut...)
	} else if err != model.ErrMatchNotFound {
		return nil, err
	}

	lobbyOut, err := d.lobbyBroadcast(ctx, nil)
	if err != nil {
		return nil, err
	}
	return append(out, lobbyOut...), nil
}

func (d *Dispatcher) handle(ctx context.Context, playerID model.PlayerID, action Action) ([]Outbound, error) {
	player, err := d.arena.GetPlayer(ctx, playerID)
	if err != nil {
		return nil, err
	}

	switch action.Kind {
	case KindMarkAsReady:
		return d.markAsReady(ctx, player)
	case KindThrow:
		return d.throw(ctx, player, action.Throw)
	case KindStartNewRound:
		return d.startNewRound(ctx, player)
	case KindCancelGame:
		return d.cancelGame(ctx, player)
	case KindShowHistory:
		return d.showHistory(player)
	case KindChangeName:
		player.Name = action.Name
		if err := d.arena.SavePlayer(ctx, player); err != nil {
			return nil, err
		}
		return d.lobbyBroadcast(ctx, nil)
	case KindChangeType:
		player.MatchSize = action.MatchSize
		if err := d.arena.SavePlayer(ctx, player); err != nil {
			return nil, err
		}
		return d.lobbyBroadcast(ctx, nil)
	default:
		return nil, clientErrorf("unsupported action")
	}
}

func (d *Dispatcher) markAsReady(ctx context.Context, player *model.Player) ([]Outbound, error) {
	rivals, err := d.arena.FindRivals(ctx, player)
	if err == model.ErrNoRivals {
		player.Ready = true
		if err := d.arena.SavePlayer(ctx, player); err != nil {
			return nil, err
		}
		return d.lobbyBroadcast(ctx, nil)
	}
	if err != nil {
		return nil, err
	}

	m, err := d.matches.Create(ctx, player, rivals)
	if err != nil {
		return nil, err
	}

	out, err := d.matchBroadcast(ctx, m)
	if err != nil {
		return nil, err
	}

	exclude := map[model.PlayerID]bool{player.ID: true}
	for _, r := range rivals {
		exclude[r.ID] = true
	}
	lobbyOut, err := d.lobbyBroadcast(ctx, exclude)
	if err != nil {
		return nil, err
	}
	return append(out, lobbyOut...), nil
}

func (d *Dispatcher) throw(ctx context.Context, player *model.Player, throw model.Throw) ([]Outbound, error) {
	m, err := d.matches.FindByPlayer(ctx, player.ID)
	if err == model.ErrMatchNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if err := d.matches.Throw(ctx, m, player.ID, throw); err != nil {
		return nil, err
	}
	return d.matchBroadcast(ctx, m)
}

func (d *Dispatcher) startNewRound(ctx context.Context, player *model.Player) ([]Outbound, error) {
	m, err := d.matches.FindByPlayer(ctx, player.ID)
	if err == model.ErrMatchNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if err := d.matches.StartNewRound(ctx, m); err != nil {
		return nil, err
	}
	return d.matchBroadcast(ctx, m)
}

func (d *Dispatcher) cancelGame(ctx context.Context, player *model.Player) ([]Outbound, error) {
	var out []Outbound

	m, err := d.matches.FindByPlayer(ctx, player.ID)
	if err == nil {
		canceled, err := d.matches.Cancel(ctx, m)
		if err != nil {
			return nil, err
		}
		out, err = d.matchBroadcast(ctx, canceled)
		if err != nil {
			return nil, err
		}
	} else if err != model.ErrMatchNotFound {
		return nil, err
	}

	lobbyOut, err := d.lobbyBroadcast(ctx, nil)
	if err != nil {
		return nil, err
	}
	return append(out, lobbyOut...), nil
}

func (d *Dispatcher) showHistory(player *model.Player) ([]Outbound, error) {
	payload, err := protocol.HistoryResponse(player.History)
	if err != nil {
		return nil, err
	}
	return []Outbound{{Targets: []model.PlayerID{player.ID}, Payload: payload}}, nil
}

// lobbyBroadcast builds one queue_updates payload per recipient, since
// each carries the recipient's own record.
func (d *Dispatcher) lobbyBroadcast(ctx context.Context, exclude map[model.PlayerID]bool) ([]Outbound, error) {
	players, err := d.arena.ListPlayers(ctx)
	if err != nil {
		return nil, err
	}
	queue, err := d.arena.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	var out []Outbound
	for _, p := range players {
		if exclude[p.ID] {
			continue
		}
		payload, err := json.Marshal(protocol.NewQueueUpdate(p, queue))
		if err != nil {
			return nil, err
		}
		out = append(out, Outbound{Targets: []model.PlayerID{p.ID}, Payload: payload})
	}
	return out, nil
}

// matchBroadcast builds the shared game_updates payload addressed to
// every match member.
func (d *Dispatcher) matchBroadcast(ctx context.Context, m *model.Match) ([]Outbound, error) {
	players, err := d.matches.Players(ctx, m)
	if err != nil {
		return nil, err
	}
	payload, err := json.Marshal(protocol.NewGameUpdate(m, players))
	if err != nil {
		return nil, err
	}
	return []Outbound{{Targets: append([]model.PlayerID{}, m.Players...), Payload: payload}}, nil
}

func (d *Dispatcher) deliver(out []Outbound) {
	for _, o := range out {
		for _, target := range o.Targets {
			d.sender.Send(target, o.Payload)
		}
	}
}

func (d *Dispatcher) sendFailure(playerID model.PlayerID, msg string) {
	payload, err := json.Marshal(protocol.NewFailure(msg))
	if err != nil {
		return
	}
	d.sender.Send(playerID, payload)
}
