// Package factory wires the application's components together.
package factory

import (
	"errors"
	"io"
	"log/slog"

	"github.com/avasilyev/rps-arena-go/internal/dependencies/clock"
	"github.com/avasilyev/rps-arena-go/internal/dependencies/random"
	"github.com/avasilyev/rps-arena-go/internal/dispatch"
	"github.com/avasilyev/rps-arena-go/internal/services/arena"
	"github.com/avasilyev/rps-arena-go/internal/services/match"
	"github.com/avasilyev/rps-arena-go/internal/services/session"
	"github.com/avasilyev/rps-arena-go/internal/storage"
	"github.com/avasilyev/rps-arena-go/internal/storage/memory"
	redisstorage "github.com/avasilyev/rps-arena-go/internal/storage/redis"
	"github.com/avasilyev/rps-arena-go/internal/ws"
)

// Storage type constants
const (
	StorageTypeMemory = "memory"
	StorageTypeRedis  = "redis"
)

// App contains all wired application components
type App struct {
	// Storage
	Storage storage.Storage

	// External dependencies
	Clock  clock.Clock
	Random random.Random

	// Services
	ArenaService   *arena.Service
	MatchService   *match.Service
	SessionService *session.Service

	// Transport
	Hub        *ws.Hub
	Dispatcher *dispatch.Dispatcher
	WSHandler  *ws.Handler
}

// Config holds configuration for the application factory
type Config struct {
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// StorageType selects the storage backend ("memory" or "redis")
	// If empty, defaults to "memory"
	StorageType string
	// RedisConfig holds Redis connection settings (required if StorageType is "redis")
	RedisConfig *redisstorage.Config
}

// New creates a new application with all dependencies wired
func New(cfg Config) (*App, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	var store storage.Storage
	storageType := cfg.StorageType
	if storageType == "" {
		storageType = StorageTypeMemory
	}

	switch storageType {
	case StorageTypeMemory:
		store = memory.New()
	case StorageTypeRedis:
		if cfg.RedisConfig == nil {
			return nil, errors.New("RedisConfig required when StorageType is redis")
		}
		redisStore, err := redisstorage.New(*cfg.RedisConfig)
		if err != nil {
			return nil, err
		}
		store = redisStore
	default:
		return nil, errors.New("invalid StorageType: must be 'memory' or 'redis'")
	}

	return newWithDependencies(store, clock.New(), random.New(), logger), nil
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(store storage.Storage, clk clock.Clock, rnd random.Random, logger *slog.Logger) *App {
	arenaService := arena.New(store, clk, rnd, logger)
	matchService := match.New(store, clk, rnd, logger)
	sessionService := session.New(store, logger)

	hub := ws.NewHub(logger)
	dispatcher := dispatch.New(arenaService, matchService, hub, logger)
	wsHandler := ws.NewHandler(hub, dispatcher, arenaService, sessionService, logger)

	return &App{
		Storage:        store,
		Clock:          clk,
		Random:         rnd,
		ArenaService:   arenaService,
		MatchService:   matchService,
		SessionService: sessionService,
		Hub:            hub,
		Dispatcher:     dispatcher,
		WSHandler:      wsHandler,
	}
}
