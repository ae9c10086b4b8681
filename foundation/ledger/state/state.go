// Package state is the core API for the star registry ledger and implements
// all the business rules and processing.
package state

import (
	"sync"
	"time"

	"github.com/startrail/starregistry/foundation/ledger/database"
	"github.com/startrail/starregistry/foundation/ledger/genesis"
)

// EventHandler defines a function that is called when events occur in the
// processing of the chain.
type EventHandler func(v string, args ...any)

// Worker interface represents the behavior required to be implemented by
// any package providing background support such as the chain audit.
type Worker interface {
	Shutdown()
	SignalAudit()
}

// =============================================================================

// Config represents the configuration required to start the registry node.
type Config struct {
	Genesis   genesis.Genesis
	Storage   database.Storage
	EvHandler EventHandler
}

// State manages the registry chain and the ownership gate in front of it.
type State struct {
	mu        sync.Mutex
	genesis   genesis.Genesis
	db        *database.Database
	evHandler EventHandler
	consumed  map[string]time.Time

	Worker Worker
}

// New constructs a new registry state for chain management.
func New(cfg Config) (*State, error) {

	// Build a safe event handler function for use.
	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	db, err := database.New(cfg.Genesis, cfg.Storage, ev)
	if err != nil {
		return nil, err
	}

	state := State{
		genesis:   cfg.Genesis,
		db:        db,
		evHandler: ev,
		consumed:  make(map[string]time.Time),
	}

	// The Worker is not set here. The call to worker.Run will assign itself
	// and start everything up and running for the node.

	return &state, nil
}

// Shutdown cleanly brings the node down.
func (s *State) Shutdown() error {

	// Make sure the database is properly closed.
	defer func() {
		s.db.Close()
	}()

	// Stop all background chain activity.
	if s.Worker != nil {
		s.Worker.Shutdown()
	}

	return nil
}

// Genesis returns a copy of the genesis information.
func (s *State) Genesis() genesis.Genesis {
	return s.genesis
}
