// ABOUTME: Application wiring shared by CLI commands and the TUI
// ABOUTME: Opens storage, constructs stores, and assembles the sync orchestrator
package cli

import (
	"database/sql"
	"fmt"

	"github.com/focusden/focusden/db"
	"github.com/focusden/focusden/economy"
	"github.com/focusden/focusden/events"
	"github.com/focusden/focusden/store"
	"github.com/focusden/focusden/sync"
)

// App bundles the process-wide services: storage, economy stores, the
// operation queue, and the sync orchestrator. Constructed once at startup.
type App struct {
	Config       *sync.Config
	DB           *sql.DB
	States       *store.Store
	Queue        *db.Queue
	Coins        *economy.CoinStore
	XP           *economy.XPStore
	Monitor      *sync.Monitor
	Bus          *events.Bus
	Orchestrator *sync.Orchestrator
}

// OpenApp builds the full service graph from config. dbPath and stateDir
// override the defaults when non-empty (used by tests and --db-path).
func OpenApp(dbPath, stateDir string) (*App, error) {
	cfg, err := sync.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if dbPath == "" {
		dbPath = sync.DatabasePath()
	}
	if stateDir == "" {
		stateDir = sync.StateDir()
	}

	database, err := db.OpenDatabase(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	states, err := store.Open(stateDir)
	if err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to open state store: %w", err)
	}

	bus := events.NewBus()

	coins, err := economy.NewCoinStore(states)
	if err != nil {
		states.Close()
		database.Close()
		return nil, fmt.Errorf("failed to load coin store: %w", err)
	}
	xp, err := economy.NewXPStore(states, bus)
	if err != nil {
		states.Close()
		database.Close()
		return nil, fmt.Errorf("failed to load xp store: %w", err)
	}

	queue := db.NewQueue(database)
	monitor := sync.NewMonitor(false)
	backend := sync.NewHTTPBackend(cfg.Server, cfg.Token, cfg.UserID)
	orch := sync.NewOrchestrator(database, queue, coins, xp, backend, monitor, bus)

	return &App{
		Config:       cfg,
		DB:           database,
		States:       states,
		Queue:        queue,
		Coins:        coins,
		XP:           xp,
		Monitor:      monitor,
		Bus:          bus,
		Orchestrator: orch,
	}, nil
}

// Backend returns the configured backend client.
func (a *App) Backend() sync.Backend {
	return sync.NewHTTPBackend(a.Config.Server, a.Config.Token, a.Config.UserID)
}

// Close releases storage resources.
func (a *App) Close() {
	if a.States != nil {
		_ = a.States.Close()
	}
	if a.DB != nil {
		_ = a.DB.Close()
	}
}
