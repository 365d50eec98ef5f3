// Package state is the core API for the ledger and implements all the
// business rules and processing. State is the single point of exclusive
// access to the chain.
package state

import (
	"errors"
	"fmt"
	"sync"

	"github.com/ardanlabs/powledger/foundation/blockchain/database"
)

// Default range for the difficulty when the configuration doesn't provide one.
const (
	DefaultDifficulty    = 2
	DefaultMinDifficulty = 1
	DefaultMaxDifficulty = 10
)

// =============================================================================

// EventHandler defines a function that is called when events
// occur in the processing of the ledger.
type EventHandler func(v string, args ...any)

// DifficultyError is returned when a difficulty outside of the configured
// range is requested. The chain is not changed.
type DifficultyError struct {
	Requested int
	Min       int
	Max       int
}

// Error implements the error interface.
func (de *DifficultyError) Error() string {
	return fmt.Sprintf("difficulty must be between %d and %d, got %d", de.Min, de.Max, de.Requested)
}

// =============================================================================

// Config represents the configuration required to start the ledger.
//
// A zero Difficulty keeps the difficulty stored with an existing ledger and
// uses DefaultDifficulty for a new one. Zero Min/MaxDifficulty select the
// default range.
type Config struct {
	Storage       database.Storage
	Hasher        database.Hasher
	Difficulty    int
	MinDifficulty int
	MaxDifficulty int
	Miner         database.Miner
	EvHandler     EventHandler
}

// State manages the ledger. Every read and write of the chain, including the
// mining performed by Append, happens while holding the one mutex, so only
// one block is mined at a time and readers wait for it to complete.
type State struct {
	mu sync.Mutex

	chain         *database.Chain
	storage       database.Storage
	minDifficulty int
	maxDifficulty int
	evHandler     EventHandler
}

// New constructs the ledger state. The ledger is loaded from storage and if
// that fails for any reason a new chain holding only the genesis block is
// started instead.
func New(cfg Config) (*State, error) {

	// Build a safe event handler function for use.
	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	if cfg.Storage == nil {
		return nil, errors.New("storage is required")
	}

	minDifficulty := cfg.MinDifficulty
	if minDifficulty == 0 {
		minDifficulty = DefaultMinDifficulty
	}

	maxDifficulty := cfg.MaxDifficulty
	if maxDifficulty == 0 {
		maxDifficulty = DefaultMaxDifficulty
	}

	if minDifficulty > maxDifficulty {
		return nil, fmt.Errorf("min difficulty %d is greater than max difficulty %d", minDifficulty, maxDifficulty)
	}

	// A zero difficulty keeps what is stored with the ledger.
	difficulty := cfg.Difficulty
	if difficulty == 0 {
		difficulty = DefaultDifficulty
	}

	if difficulty < minDifficulty || difficulty > maxDifficulty {
		return nil, &DifficultyError{Requested: difficulty, Min: minDifficulty, Max: maxDifficulty}
	}

	dbCfg := database.Config{
		Hasher:     cfg.Hasher,
		Difficulty: difficulty,
		Miner:      cfg.Miner,
		EvHandler:  ev,
	}

	s := State{
		storage:       cfg.Storage,
		minDifficulty: minDifficulty,
		maxDifficulty: maxDifficulty,
		evHandler:     ev,
	}

	// Load the existing ledger. A missing or malformed ledger is not fatal.
	chain, err := load(cfg.Storage, dbCfg)
	if err == nil && (chain.Difficulty() < minDifficulty || chain.Difficulty() > maxDifficulty) {
		err = fmt.Errorf("stored %w", &DifficultyError{Requested: chain.Difficulty(), Min: minDifficulty, Max: maxDifficulty})
	}

	switch {
	case err != nil:
		ev("state: New: WARNING: unable to load ledger: %s: starting new chain", err)
		s.chain = database.New(dbCfg)
		s.persist()

	default:
		ev("state: New: loaded ledger: blocks[%d]: difficulty[%d]: hasher[%s]", chain.Len(), chain.Difficulty(), chain.Hasher())
		s.chain = chain

		if chain.Hasher() != dbCfg.Hasher && dbCfg.Hasher != "" {
			ev("state: New: WARNING: ledger uses hasher[%s], configured hasher[%s] ignored", chain.Hasher(), dbCfg.Hasher)
		}

		// The configured difficulty replaces the one stored with the ledger.
		if cfg.Difficulty != 0 && chain.Difficulty() != cfg.Difficulty {
			ev("state: New: updating difficulty from[%d] to[%d]", chain.Difficulty(), cfg.Difficulty)
			s.chain.SetDifficulty(cfg.Difficulty)
			s.persist()
		}
	}

	if err := s.chain.Validate(); err != nil {
		ev("state: New: ERROR: ledger validation failed: %s", err)
	} else {
		ev("state: New: ledger validation passed")
	}

	return &s, nil
}

// Shutdown cleanly brings the ledger down.
func (s *State) Shutdown() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.evHandler("state: Shutdown: closing storage")

	return s.storage.Close()
}

// =============================================================================

// load reads the ledger from storage and converts it into a chain.
func load(strg database.Storage, cfg database.Config) (*database.Chain, error) {
	chainData, err := strg.Read()
	if err != nil {
		return nil, err
	}

	return database.ToChain(chainData, cfg)
}

// persist writes the full chain to storage. A failure is reported through
// the event handler and the in memory chain stands. The caller must hold
// the mutex.
func (s *State) persist() {
	if err := s.storage.Write(database.NewChainData(s.chain)); err != nil {
		s.evHandler("state: persist: ERROR: unable to write ledger: %s", err)
		return
	}

	s.evHandler("state: persist: ledger written: blocks[%d]", s.chain.Len())
}
