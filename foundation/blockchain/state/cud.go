package state

import "github.com/ardanlabs/powledger/foundation/blockchain/database"

// AppendOutcome describes the block that was added to the chain.
type AppendOutcome struct {
	Block      database.Block
	Number     int
	Difficulty int
}

// Append validates the transactions, mines a new block and adds it to the
// chain. The chain is persisted after the block is added. An invalid batch
// returns a *database.TxError and doesn't change the chain.
func (s *State) Append(trans []database.Tx) (AppendOutcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	block, err := s.chain.Append(trans)
	if err != nil {
		return AppendOutcome{}, err
	}

	s.persist()

	out := AppendOutcome{
		Block:      block,
		Number:     s.chain.Len() - 1,
		Difficulty: s.chain.Difficulty(),
	}

	return out, nil
}

// SetDifficulty changes the difficulty used for future appends and
// validations and persists the change. The previous difficulty is returned.
// A difficulty outside of the configured range returns a *DifficultyError.
func (s *State) SetDifficulty(difficulty int) (int, error) {
	if difficulty < s.minDifficulty || difficulty > s.maxDifficulty {
		return 0, &DifficultyError{Requested: difficulty, Min: s.minDifficulty, Max: s.maxDifficulty}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	old := s.chain.Difficulty()
	s.chain.SetDifficulty(difficulty)
	s.persist()

	return old, nil
}
