// Package worker implements a proof of work miner that spreads the nonce
// search across a set of goroutines.
package worker

import (
	"math"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/ardanlabs/powledger/foundation/blockchain/database"
)

// Miner performs the nonce search with a fixed number of goroutines. Each
// goroutine checks every Nth nonce and the smallest solving nonce wins, so
// the result is the same block the sequential search produces.
// This implements the database.Miner interface.
type Miner struct {
	workers   int
	evHandler func(v string, args ...any)
}

// New constructs a miner. Zero workers selects the number of CPUs.
func New(workers int, evHandler func(v string, args ...any)) *Miner {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	ev := func(v string, args ...any) {
		if evHandler != nil {
			evHandler(v, args...)
		}
	}

	return &Miner{
		workers:   workers,
		evHandler: ev,
	}
}

// Workers returns the number of goroutines used for a search.
func (m *Miner) Workers() int {
	return m.workers
}

// Mine implements the database.Miner interface.
func (m *Miner) Mine(block *database.Block, hasher database.Hasher, difficulty int) {
	m.evHandler("worker: Mine: MINING: started: difficulty[%d] workers[%d] trans[%d]", difficulty, m.workers, len(block.Transactions))

	start := block.Nonce

	// The smallest solving nonce found so far. MaxUint64 means none yet.
	var best atomic.Uint64
	best.Store(math.MaxUint64)

	var wg sync.WaitGroup
	wg.Add(m.workers)

	// We don't want to wait on the search until we know all the G's are up
	// and running.
	hasStarted := make(chan bool)

	for i := 0; i < m.workers; i++ {
		go func(offset uint64) {
			defer wg.Done()
			hasStarted <- true

			b := block.Copy()
			for nonce := start + offset; nonce < best.Load(); nonce += uint64(m.workers) {
				b.Nonce = nonce
				if !database.IsHashSolved(difficulty, b.ComputeHash(hasher)) {
					continue
				}

				// Lower the best nonce unless another G already found a
				// smaller one.
				for {
					cur := best.Load()
					if nonce >= cur || best.CompareAndSwap(cur, nonce) {
						break
					}
				}
				return
			}
		}(uint64(i))
	}

	for i := 0; i < m.workers; i++ {
		<-hasStarted
	}

	wg.Wait()

	block.Nonce = best.Load()
	block.CurrentHash = block.ComputeHash(hasher)

	m.evHandler("worker: Mine: MINING: SOLVED: prevBlk[%s]: newBlk[%s]: nonce[%d]", block.PrevHash, block.CurrentHash, block.Nonce)
}
