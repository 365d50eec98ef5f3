// Package memory implements the ability to read and write the ledger to
// memory.
package memory

import (
	"sync"

	"github.com/ardanlabs/powledger/foundation/blockchain/database"
	"github.com/ardanlabs/powledger/foundation/blockchain/database/storage"
)

// Memory represents the serialization implementation for reading and storing
// the ledger in memory. The ledger is kept encoded so callers never share
// state with what was written. This implements the database.Storage
// interface.
type Memory struct {
	mu     sync.RWMutex
	data   []byte
	writes int
	err    error
}

// New constructs a Memory value for use.
func New() (*Memory, error) {
	return &Memory{}, nil
}

// Close in this implementation has nothing to do since everything
// is in memory.
func (m *Memory) Close() error {
	return nil
}

// Write takes the specified ledger and stores it in memory.
func (m *Memory) Write(chainData database.ChainData) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return m.err
	}

	data, err := storage.Encode(storage.JSON, chainData)
	if err != nil {
		return err
	}

	m.data = data
	m.writes++

	return nil
}

// Read returns the last ledger that was written.
func (m *Memory) Read() (database.ChainData, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.data == nil {
		return database.ChainData{}, database.ErrNoLedger
	}

	return storage.Decode(storage.JSON, m.data)
}

// Writes returns the number of successful writes.
func (m *Memory) Writes() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.writes
}

// FailWrites makes every following call to Write return the error. Passing
// nil restores normal behavior.
func (m *Memory) FailWrites(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.err = err
}
