// Package state is the core API for the ledger and implements all the
// business rules and processing.
package state

import (
	"errors"
	"sync"
	"time"

	"github.com/agrochain/ledger/foundation/blockchain/database"
	"github.com/agrochain/ledger/foundation/blockchain/digest"
	"github.com/agrochain/ledger/foundation/blockchain/genesis"
	"github.com/agrochain/ledger/foundation/blockchain/mempool"
)

// ErrChainInvalid is returned when the chain fails an integrity check.
var ErrChainInvalid = errors.New("chain invalid")

// =============================================================================

// EventHandler defines a function that is called when events
// occur in the processing of persisting blocks.
type EventHandler func(v string, args ...any)

// Worker interface represents the behavior required to be implemented by any
// package providing support for background mining.
type Worker interface {
	Shutdown()
	SignalStartMining()
	SignalCancelMining()
}

// IDGenerator interface represents the behavior required to produce
// transaction and product identifiers.
type IDGenerator interface {
	TxID() string
	ProductID(prefix string, now time.Time) string
}

// defaultIDs generates identifiers with the database package.
type defaultIDs struct{}

func (defaultIDs) TxID() string { return database.NewTxID() }

func (defaultIDs) ProductID(prefix string, now time.Time) string {
	return database.NewProductID(prefix, now)
}

// =============================================================================

// Config represents the configuration required to start the ledger.
type Config struct {
	Genesis       genesis.Genesis
	Storage       database.Serializer
	Clock         func() time.Time
	IDs           IDGenerator
	MiningTimeout time.Duration
	EvHandler     EventHandler
}

// State manages the ledger. The mu lock serializes submissions with the
// snapshot and commit steps of mining. The miningMu lock allows only one
// mining operation at a time and is held across the proof of work.
type State struct {
	mu       sync.Mutex
	miningMu sync.Mutex

	evHandler     EventHandler
	clock         func() time.Time
	ids           IDGenerator
	miningTimeout time.Duration

	genesis genesis.Genesis
	mempool *mempool.Mempool
	db      *database.Database

	Worker Worker
}

// New constructs a new ledger for data management.
func New(cfg Config) (*State, error) {

	// Build a safe event handler function for use.
	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	clock := cfg.Clock
	if clock == nil {
		clock = func() time.Time { return time.Now().UTC() }
	}

	ids := cfg.IDs
	if ids == nil {
		ids = defaultIDs{}
	}

	if err := cfg.Genesis.Validate(); err != nil {
		return nil, err
	}

	// Access the storage for the blockchain and replay anything it holds.
	db, err := database.New(cfg.Genesis, cfg.Storage, ev)
	if err != nil {
		return nil, err
	}

	mempool, err := mempool.New()
	if err != nil {
		return nil, err
	}

	state := State{
		evHandler:     ev,
		clock:         clock,
		ids:           ids,
		miningTimeout: cfg.MiningTimeout,

		genesis: cfg.Genesis,
		mempool: mempool,
		db:      db,
	}

	// The Worker is not set here. The call to worker.Run will assign itself
	// and start everything up and running for the node.

	return &state, nil
}

// Shutdown cleanly brings the ledger down.
func (s *State) Shutdown() error {
	s.evHandler("state: shutdown: started")
	defer s.evHandler("state: shutdown: completed")

	// Stop all blockchain writing activity.
	if s.Worker != nil {
		s.Worker.Shutdown()
	}

	// Make sure the database is properly closed.
	return s.db.Close()
}

// Genesis returns a copy of the genesis information.
func (s *State) Genesis() genesis.Genesis {
	return s.genesis
}

// HashStrategy returns the hash strategy used for blocks and merkle roots.
func (s *State) HashStrategy() digest.Strategy {
	return s.db.HashStrategy()
}

// Now returns the current time from the configured clock.
func (s *State) Now() time.Time {
	return s.clock()
}

// NewTxID generates a new transaction id.
func (s *State) NewTxID() string {
	return s.ids.TxID()
}

// NewProductID generates a new product id with the specified prefix.
func (s *State) NewProductID(prefix string) string {
	return s.ids.ProductID(prefix, s.clock())
}
