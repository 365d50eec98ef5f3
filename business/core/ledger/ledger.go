// Package ledger provides the business level support for opening the ledger
// state on top of the configured storage.
package ledger

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ardanlabs/powledger/foundation/blockchain/database"
	"github.com/ardanlabs/powledger/foundation/blockchain/database/storage"
	"github.com/ardanlabs/powledger/foundation/blockchain/database/storage/boltdb"
	"github.com/ardanlabs/powledger/foundation/blockchain/database/storage/memory"
	"github.com/ardanlabs/powledger/foundation/blockchain/state"
	"github.com/ardanlabs/powledger/foundation/blockchain/worker"
)

// Set of storage kinds that can be used to hold the ledger.
const (
	StorageDisk   = "disk"
	StorageBolt   = "bolt"
	StorageMemory = "memory"
)

// Config represents the settings required to open the ledger.
type Config struct {
	Storage    string
	Path       string
	Hasher     string
	Difficulty int
	Workers    int
	EvHandler  state.EventHandler
}

// Open constructs the storage and the ledger state on top of it. A zero
// difficulty keeps the difficulty stored with an existing ledger. More than
// one worker spreads the mining across that many goroutines.
func Open(cfg Config) (*state.State, error) {
	hasher, err := database.ParseHasher(cfg.Hasher)
	if err != nil {
		return nil, err
	}

	strg, err := NewStorage(cfg.Storage, cfg.Path)
	if err != nil {
		return nil, err
	}

	var miner database.Miner
	if cfg.Workers > 1 {
		miner = worker.New(cfg.Workers, cfg.EvHandler)
	}

	st, err := state.New(state.Config{
		Storage:    strg,
		Hasher:     hasher,
		Difficulty: cfg.Difficulty,
		Miner:      miner,
		EvHandler:  cfg.EvHandler,
	})
	if err != nil {
		strg.Close()
		return nil, err
	}

	return st, nil
}

// NewStorage constructs the storage for the specified kind.
func NewStorage(kind string, path string) (database.Storage, error) {
	switch strings.ToLower(kind) {
	case "", StorageDisk:
		return storage.NewDisk(path)

	case StorageBolt:
		return boltdb.New(path)

	case StorageMemory:
		return memory.New()
	}

	return nil, fmt.Errorf("unknown storage kind %q", kind)
}

// ParseDifficulty converts the configured difficulty. A value that is not a
// number or is outside of the allowed range is reported through the event
// handler and the default difficulty is returned.
func ParseDifficulty(value string, evHandler state.EventHandler) int {
	ev := func(v string, args ...any) {
		if evHandler != nil {
			evHandler(v, args...)
		}
	}

	difficulty, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		ev("ledger: ParseDifficulty: WARNING: invalid difficulty %q: using default[%d]", value, state.DefaultDifficulty)
		return state.DefaultDifficulty
	}

	if difficulty < state.DefaultMinDifficulty || difficulty > state.DefaultMaxDifficulty {
		ev("ledger: ParseDifficulty: WARNING: difficulty[%d] must be between %d and %d: using default[%d]",
			difficulty, state.DefaultMinDifficulty, state.DefaultMaxDifficulty, state.DefaultDifficulty)
		return state.DefaultDifficulty
	}

	return difficulty
}
