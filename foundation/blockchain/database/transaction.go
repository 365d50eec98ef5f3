package database

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// Set of errors returned when a transaction fails the acceptance rules.
var (
	ErrInvalidAmount = errors.New("amount must be positive")
	ErrEmptyFrom     = errors.New("from address cannot be empty")
	ErrEmptyTo       = errors.New("to address cannot be empty")
)

// =============================================================================

// Tx is a request to transfer an amount between two parties. A Tx is a value
// and is never modified once it has been included into a block.
type Tx struct {
	Amount float64 `json:"amount"` // Amount being transferred, must be positive.
	From   string  `json:"from"`   // Identifier of the sending party.
	To     string  `json:"to"`     // Identifier of the receiving party.
}

// NewTx constructs a new transaction.
func NewTx(amount float64, from string, to string) Tx {
	return Tx{
		Amount: amount,
		From:   from,
		To:     to,
	}
}

// Validate checks the transaction conforms to the acceptance rules. The
// rules are enforced when the transaction is submitted and not stored.
func (tx Tx) Validate() error {
	if !(tx.Amount > 0) || math.IsInf(tx.Amount, 1) {
		return ErrInvalidAmount
	}

	if strings.TrimSpace(tx.From) == "" {
		return ErrEmptyFrom
	}

	if strings.TrimSpace(tx.To) == "" {
		return ErrEmptyTo
	}

	return nil
}

// IsValid is the predicate form of Validate.
func (tx Tx) IsValid() bool {
	return tx.Validate() == nil
}

// String implements the fmt.Stringer interface for logging.
func (tx Tx) String() string {
	return fmt.Sprintf("%s:%s:%g", tx.From, tx.To, tx.Amount)
}

// =============================================================================

// TxError represents a transaction in a submitted batch that failed validation.
// Batches are accepted all or nothing, so only the first failure is reported.
type TxError struct {
	Index int
	Tx    Tx
	Err   error
}

// Error implements the error interface.
func (txe *TxError) Error() string {
	return fmt.Sprintf("invalid transaction at index %d: %s", txe.Index, txe.Err)
}

// Unwrap provides access to the rule that was violated.
func (txe *TxError) Unwrap() error {
	return txe.Err
}

// ValidateTxs checks every transaction in the batch and returns a TxError
// for the first transaction that fails.
func ValidateTxs(txs []Tx) error {
	for i, tx := range txs {
		if err := tx.Validate(); err != nil {
			return &TxError{Index: i, Tx: tx, Err: err}
		}
	}

	return nil
}
