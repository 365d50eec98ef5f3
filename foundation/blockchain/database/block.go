package database

import (
	"encoding/json"
	"strings"
	"time"
)

// GenesisPrevHash is the previous hash recorded by the genesis block.
const GenesisPrevHash = "0"

// hashLength is the number of hex characters in a 256 bit digest.
const hashLength = 64

// =============================================================================

// Block represents a batch of transactions linked to the previous block
// in the chain by its hash.
type Block struct {
	Transactions []Tx   `json:"transactions"` // Ordered set of transactions in this block.
	PrevHash     string `json:"prev_hash"`    // Hash of the previous block in the chain.
	CurrentHash  string `json:"current_hash"` // Hash of this block, solved by mining.
	TimeStamp    int64  `json:"timestamp"`    // Unix seconds when the block was constructed.
	Nonce        uint64 `json:"nonce"`        // Value identified to solve the hash solution.
}

// NewBlock constructs a block linked to the specified previous hash. The
// block's hash is computed so an unmined block is self consistent.
func NewBlock(hasher Hasher, trans []Tx, prevHash string) Block {
	b := Block{
		Transactions: trans,
		PrevHash:     prevHash,
		TimeStamp:    time.Now().UTC().Unix(),
		Nonce:        0,
	}
	b.CurrentHash = b.ComputeHash(hasher)

	return b
}

// ComputeHash calculates the hash for the block's content. Fields are
// marshaled in a fixed order so any change to the content, including the
// order of transactions, produces a different hash.
func (b Block) ComputeHash(hasher Hasher) string {
	content := struct {
		TimeStamp int64  `json:"timestamp"`
		Trans     []Tx   `json:"trans"`
		PrevHash  string `json:"prev_hash"`
		Nonce     uint64 `json:"nonce"`
	}{
		TimeStamp: b.TimeStamp,
		Trans:     b.Trans(),
		PrevHash:  b.PrevHash,
		Nonce:     b.Nonce,
	}

	data, err := json.Marshal(content)
	if err != nil {
		return ""
	}

	return hasher.Sum(data)
}

// Trans returns the block's transactions, never nil.
func (b Block) Trans() []Tx {
	if b.Transactions == nil {
		return []Tx{}
	}
	return b.Transactions
}

// Mine performs the proof of work for the block. Starting at the current
// nonce, the nonce is incremented until the hash has the difficulty number
// of leading zeros. Pointer semantics are being used since a nonce is being
// discovered. The search can't be cancelled and is deterministic for the
// same content and starting nonce.
func (b *Block) Mine(hasher Hasher, difficulty int, evHandler func(v string, args ...any)) {
	ev := func(v string, args ...any) {
		if evHandler != nil {
			evHandler(v, args...)
		}
	}

	ev("database: Mine: MINING: started: difficulty[%d] trans[%d]", difficulty, len(b.Transactions))

	var attempts uint64
	for {
		attempts++
		if attempts%1_000_000 == 0 {
			ev("database: Mine: MINING: attempts[%d]", attempts)
		}

		hash := b.ComputeHash(hasher)
		if IsHashSolved(difficulty, hash) {
			b.CurrentHash = hash

			ev("database: Mine: MINING: SOLVED: prevBlk[%s]: newBlk[%s]: nonce[%d]", b.PrevHash, hash, b.Nonce)
			ev("database: Mine: MINING: attempts[%d]", attempts)
			return
		}

		b.Nonce++
	}
}

// Copy returns a copy of the block that doesn't share the transactions.
func (b Block) Copy() Block {
	cpy := b
	if b.Transactions != nil {
		cpy.Transactions = make([]Tx, len(b.Transactions))
		copy(cpy.Transactions, b.Transactions)
	}
	return cpy
}

// =============================================================================

// Miner represents the behavior of performing the proof of work for a block.
// The chain only depends on this interface so the search can be moved off
// the calling goroutine without changing how blocks are appended.
type Miner interface {
	Mine(block *Block, hasher Hasher, difficulty int)
}

// POW is the sequential proof of work Miner.
type POW struct {
	EvHandler func(v string, args ...any)
}

// Mine implements the Miner interface.
func (p POW) Mine(block *Block, hasher Hasher, difficulty int) {
	block.Mine(hasher, difficulty, p.EvHandler)
}

// =============================================================================

// IsHashSolved checks the hash to make sure it complies with
// the POW rules. We need to match a difficulty number of 0's.
func IsHashSolved(difficulty int, hash string) bool {
	if len(hash) != hashLength || difficulty > hashLength {
		return false
	}

	if difficulty <= 0 {
		return true
	}

	return strings.HasPrefix(hash, strings.Repeat("0", difficulty))
}
