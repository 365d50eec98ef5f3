package database

import (
	"errors"
	"fmt"
)

// RecordVersion is the version of the persisted ledger layout written by
// this package.
const RecordVersion = 1

// ErrNoLedger is returned by a Storage when nothing has been persisted yet.
var ErrNoLedger = errors.New("ledger does not exist")

// Storage interface represents the behavior required to be implemented by any
// package providing support for storing and reading the ledger.
type Storage interface {
	Write(chainData ChainData) error
	Read() (ChainData, error)
	Close() error
}

// =============================================================================

// TxData represents a transaction as it is persisted.
type TxData struct {
	Amount float64 `json:"amount" yaml:"amount"`
	From   string  `json:"from" yaml:"from"`
	To     string  `json:"to" yaml:"to"`
}

// BlockData represents a block as it is persisted.
type BlockData struct {
	Trans       []TxData `json:"transactions" yaml:"transactions"`
	PrevHash    string   `json:"prev_hash" yaml:"prev_hash"`
	CurrentHash string   `json:"current_hash" yaml:"current_hash"`
	TimeStamp   int64    `json:"timestamp" yaml:"timestamp"`
	Nonce       uint64   `json:"nonce" yaml:"nonce"`
}

// ChainData represents the full ledger as it is persisted. The layout is
// versioned and kept separate from the in memory types so the two can
// change independently.
type ChainData struct {
	Version    int         `json:"version" yaml:"version"`
	Hasher     string      `json:"hasher" yaml:"hasher"`
	Difficulty int         `json:"difficulty" yaml:"difficulty"`
	Blocks     []BlockData `json:"blocks" yaml:"blocks"`
}

// NewChainData constructs the value to persist for the chain.
func NewChainData(c *Chain) ChainData {
	blocks := make([]BlockData, len(c.blocks))
	for i, block := range c.blocks {
		trans := make([]TxData, len(block.Transactions))
		for j, tx := range block.Transactions {
			trans[j] = TxData{
				Amount: tx.Amount,
				From:   tx.From,
				To:     tx.To,
			}
		}

		blocks[i] = BlockData{
			Trans:       trans,
			PrevHash:    block.PrevHash,
			CurrentHash: block.CurrentHash,
			TimeStamp:   block.TimeStamp,
			Nonce:       block.Nonce,
		}
	}

	return ChainData{
		Version:    RecordVersion,
		Hasher:     c.hasher.String(),
		Difficulty: c.difficulty,
		Blocks:     blocks,
	}
}

// ToChain converts the persisted ledger into a chain. The hasher and
// difficulty are taken from the record, cfg provides the miner and the
// event handler. The chain is not validated, that is left to the caller.
func ToChain(chainData ChainData, cfg Config) (*Chain, error) {
	if chainData.Version != RecordVersion {
		return nil, fmt.Errorf("unsupported ledger version %d, exp %d", chainData.Version, RecordVersion)
	}

	hasher, err := ParseHasher(chainData.Hasher)
	if err != nil {
		return nil, err
	}

	if len(chainData.Blocks) == 0 {
		return nil, ErrEmptyChain
	}

	if chainData.Difficulty < 1 || chainData.Difficulty > hashLength {
		return nil, fmt.Errorf("invalid difficulty %d", chainData.Difficulty)
	}

	cfg.Hasher = hasher
	cfg.Difficulty = chainData.Difficulty
	c := newChain(cfg)

	c.blocks = make([]Block, len(chainData.Blocks))
	for i, blockData := range chainData.Blocks {
		trans := make([]Tx, len(blockData.Trans))
		for j, txData := range blockData.Trans {
			trans[j] = NewTx(txData.Amount, txData.From, txData.To)
		}

		c.blocks[i] = Block{
			Transactions: trans,
			PrevHash:     blockData.PrevHash,
			CurrentHash:  blockData.CurrentHash,
			TimeStamp:    blockData.TimeStamp,
			Nonce:        blockData.Nonce,
		}
	}

	return c, nil
}
