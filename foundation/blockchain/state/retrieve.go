package state

import "github.com/ardanlabs/powledger/foundation/blockchain/database"

// Snapshot returns a copy of the full chain for read only use.
func (s *State) Snapshot() *database.Chain {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.chain.Copy()
}

// Validate reports if the full chain passes validation.
func (s *State) Validate() bool {
	return s.Verify() == nil
}

// Verify validates the full chain and returns the reason it failed.
func (s *State) Verify() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.chain.Validate()
}

// Verification is the outcome of validating the chain along with the
// difficulty and number of blocks it was validated with.
type Verification struct {
	Err        error
	Difficulty int
	Blocks     int
}

// VerifyChain validates the full chain and reports the difficulty and block
// count it was validated with under the same lock.
func (s *State) VerifyChain() Verification {
	s.mu.Lock()
	defer s.mu.Unlock()

	return Verification{
		Err:        s.chain.Validate(),
		Difficulty: s.chain.Difficulty(),
		Blocks:     s.chain.Len(),
	}
}

// LatestBlock returns a copy of the tip of the chain.
func (s *State) LatestBlock() (database.Block, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.chain.LatestBlock()
}

// Difficulty returns the current difficulty and the number of blocks.
func (s *State) Difficulty() (difficulty int, blocks int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.chain.Difficulty(), s.chain.Len()
}

// DifficultyRange returns the allowed range for the difficulty.
func (s *State) DifficultyRange() (lo int, hi int) {
	return s.minDifficulty, s.maxDifficulty
}
