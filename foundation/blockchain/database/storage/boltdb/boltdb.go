// Package boltdb implements the ability to read and write the ledger to a
// bolt key/value database.
package boltdb

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ardanlabs/powledger/foundation/blockchain/database"
	"github.com/ardanlabs/powledger/foundation/blockchain/database/storage"
	"github.com/boltdb/bolt"
)

var (
	bucketName = []byte("ledger")
	chainKey   = []byte("chain")
)

// Bolt represents the serialization implementation for reading and storing
// the ledger inside a bolt database. The ledger is kept as a single JSON
// document under one key and replaced inside a single bolt transaction.
// This implements the database.Storage interface.
type Bolt struct {
	db *bolt.DB
}

// New opens or creates the bolt database at the specified path.
func New(path string) (*Bolt, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, err
		}
	}

	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening bolt database: %w", err)
	}

	f := func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketName)
		return err
	}

	if err := db.Update(f); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating bucket: %w", err)
	}

	return &Bolt{db: db}, nil
}

// Close releases the file lock held on the bolt database.
func (b *Bolt) Close() error {
	return b.db.Close()
}

// Write replaces the ledger stored in the database.
func (b *Bolt) Write(chainData database.ChainData) error {
	data, err := storage.Encode(storage.JSON, chainData)
	if err != nil {
		return fmt.Errorf("encoding ledger: %w", err)
	}

	f := func(tx *bolt.Tx) error {
		return tx.Bucket(bucketName).Put(chainKey, data)
	}

	return b.db.Update(f)
}

// Read loads the ledger from the database.
func (b *Bolt) Read() (database.ChainData, error) {
	var data []byte

	f := func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketName).Get(chainKey)
		if v == nil {
			return database.ErrNoLedger
		}

		// The value is only valid for the life of the transaction.
		data = make([]byte, len(v))
		copy(data, v)

		return nil
	}

	if err := b.db.View(f); err != nil {
		return database.ChainData{}, err
	}

	return storage.Decode(storage.JSON, data)
}
