// Package database handles the in memory ledger of blocks, the rules for
// appending new blocks and the rules for validating the full chain.
package database

import (
	"errors"
	"fmt"
)

// Set of errors returned when the chain fails validation.
var (
	ErrEmptyChain       = errors.New("chain has no blocks")
	ErrHashMismatch     = errors.New("block hash does not match block content")
	ErrChainBroken      = errors.New("previous hash does not match previous block")
	ErrDifficultyNotMet = errors.New("block hash does not meet difficulty")
)

// =============================================================================

// Config represents the settings required to construct a chain.
type Config struct {
	Hasher     Hasher
	Difficulty int
	Miner      Miner
	EvHandler  func(v string, args ...any)
}

// Chain manages the ordered set of blocks and the difficulty used to mine
// and validate them. Chain has no synchronization of its own, the caller
// is responsible for serializing access.
type Chain struct {
	hasher     Hasher
	difficulty int
	blocks     []Block
	miner      Miner
	evHandler  func(v string, args ...any)
}

// New constructs a chain holding only the genesis block.
func New(cfg Config) *Chain {
	c := newChain(cfg)

	genesis := NewBlock(c.hasher, []Tx{}, GenesisPrevHash)
	c.blocks = []Block{genesis}

	c.evHandler("database: New: genesis: hash[%s]: difficulty[%d]: hasher[%s]", genesis.CurrentHash, c.difficulty, c.hasher)

	return c
}

// newChain applies the configuration defaults without any blocks.
func newChain(cfg Config) *Chain {
	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	hasher := cfg.Hasher
	if hasher == "" {
		hasher = SHA256
	}

	miner := cfg.Miner
	if miner == nil {
		miner = POW{EvHandler: ev}
	}

	return &Chain{
		hasher:     hasher,
		difficulty: cfg.Difficulty,
		miner:      miner,
		evHandler:  ev,
	}
}

// Append validates the transactions and mines a new block linked to the
// latest block using the current difficulty. If any transaction is invalid
// the chain is not changed and a TxError is returned.
func (c *Chain) Append(trans []Tx) (Block, error) {
	if err := ValidateTxs(trans); err != nil {
		return Block{}, err
	}

	latest, exists := c.LatestBlock()
	if !exists {
		return Block{}, ErrEmptyChain
	}

	txs := make([]Tx, len(trans))
	copy(txs, trans)

	c.evHandler("database: Append: MINING: block[%d]: trans[%d]", len(c.blocks), len(txs))

	block := NewBlock(c.hasher, txs, latest.CurrentHash)
	c.miner.Mine(&block, c.hasher, c.difficulty)

	c.blocks = append(c.blocks, block)

	c.evHandler("database: Append: block[%d]: added: hash[%s]", len(c.blocks)-1, block.CurrentHash)

	return block.Copy(), nil
}

// Validate walks the chain and checks every block after genesis is linked
// to its parent, has a hash that matches its content and a hash that
// satisfies the current difficulty. Raising the difficulty can invalidate
// blocks that were mined at a lower difficulty.
func (c *Chain) Validate() error {
	if len(c.blocks) == 0 {
		return ErrEmptyChain
	}

	for i := 1; i < len(c.blocks); i++ {
		block := c.blocks[i]
		prevBlock := c.blocks[i-1]

		if block.CurrentHash != block.ComputeHash(c.hasher) {
			c.evHandler("database: Validate: block[%d]: invalid hash", i)
			return fmt.Errorf("block %d: %w", i, ErrHashMismatch)
		}

		if block.PrevHash != prevBlock.CurrentHash {
			c.evHandler("database: Validate: block[%d]: chain broken", i)
			return fmt.Errorf("block %d: %w", i, ErrChainBroken)
		}

		if !IsHashSolved(c.difficulty, block.CurrentHash) {
			c.evHandler("database: Validate: block[%d]: difficulty[%d] not met", i, c.difficulty)
			return fmt.Errorf("block %d: %w", i, ErrDifficultyNotMet)
		}
	}

	return nil
}

// SetDifficulty replaces the difficulty for future appends and validations.
// Existing blocks are not mined again.
func (c *Chain) SetDifficulty(difficulty int) {
	c.difficulty = difficulty
	c.evHandler("database: SetDifficulty: difficulty[%d]", difficulty)
}

// Difficulty returns the current difficulty.
func (c *Chain) Difficulty() int {
	return c.difficulty
}

// Hasher returns the digest algorithm used by the chain.
func (c *Chain) Hasher() Hasher {
	return c.hasher
}

// Len returns the number of blocks including genesis.
func (c *Chain) Len() int {
	return len(c.blocks)
}

// LatestBlock returns the tip of the chain.
func (c *Chain) LatestBlock() (Block, bool) {
	if len(c.blocks) == 0 {
		return Block{}, false
	}

	return c.blocks[len(c.blocks)-1].Copy(), true
}

// Blocks returns a copy of the blocks in chain order.
func (c *Chain) Blocks() []Block {
	blocks := make([]Block, len(c.blocks))
	for i, block := range c.blocks {
		blocks[i] = block.Copy()
	}

	return blocks
}

// Copy returns a copy of the chain that shares no blocks with the original.
func (c *Chain) Copy() *Chain {
	cpy := *c
	cpy.blocks = c.Blocks()

	return &cpy
}
