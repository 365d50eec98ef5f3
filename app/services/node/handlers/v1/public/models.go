package public

import "github.com/ardanlabs/powledger/foundation/blockchain/database"

type tx struct {
	Amount float64 `json:"amount" validate:"gt=0"`
	From   string  `json:"from" validate:"required"`
	To     string  `json:"to" validate:"required"`
}

func toDBTxs(trans []tx) []database.Tx {
	txs := make([]database.Tx, len(trans))
	for i, tran := range trans {
		txs[i] = database.NewTx(tran.Amount, tran.From, tran.To)
	}
	return txs
}

type health struct {
	Status  string `json:"status"`
	Service string `json:"service"`
}

type chain struct {
	Blocks     []database.Block `json:"blocks"`
	Difficulty int              `json:"difficulty"`
}

type blockAdded struct {
	Message           string `json:"message"`
	BlockHeight       int    `json:"block_height"`
	CurrentDifficulty int    `json:"current_difficulty"`
}

type validation struct {
	Valid       bool   `json:"valid"`
	Message     string `json:"message"`
	ChainLength int    `json:"chain_length"`
	Difficulty  int    `json:"difficulty"`
}

type latestBlock struct {
	Block             database.Block `json:"block"`
	BlockNumber       int            `json:"block_number"`
	CurrentDifficulty int            `json:"current_difficulty"`
}

type difficulty struct {
	CurrentDifficulty int `json:"current_difficulty"`
	TotalBlocks       int `json:"total_blocks"`
}

type difficultyUpdate struct {
	Difficulty int `json:"difficulty"`
}

type difficultyUpdated struct {
	Message       string `json:"message"`
	OldDifficulty int    `json:"old_difficulty"`
	NewDifficulty int    `json:"new_difficulty"`
}
