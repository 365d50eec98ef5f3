package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/ardanlabs/powledger/foundation/blockchain/database"
)

// Disk represents the serialization implementation for reading and storing
// the ledger as a single document on disk. This implements the
// database.Storage interface.
type Disk struct {
	path   string
	format Format
}

// NewDisk constructs a Disk value for use. The format of the document is
// selected by the file extension.
func NewDisk(path string) (*Disk, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, err
		}
	}

	d := Disk{
		path:   path,
		format: FormatFromPath(path),
	}

	return &d, nil
}

// Close in this implementation has nothing to do since the file is
// written and then immediately closed.
func (d *Disk) Close() error {
	return nil
}

// Path returns the location of the ledger document.
func (d *Disk) Path() string {
	return d.path
}

// Write replaces the ledger on disk. The document is written to a temporary
// file in the same folder and then renamed over the ledger so a reader never
// sees a partial document.
func (d *Disk) Write(chainData database.ChainData) error {
	data, err := Encode(d.format, chainData)
	if err != nil {
		return fmt.Errorf("encoding ledger: %w", err)
	}

	f, err := os.CreateTemp(filepath.Dir(d.path), filepath.Base(d.path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpPath := f.Name()

	// Make sure the temporary file doesn't linger if anything fails.
	defer os.Remove(tmpPath)

	if _, err := f.Write(data); err != nil {
		f.Close()
		return err
	}

	if err := f.Sync(); err != nil {
		f.Close()
		return err
	}

	if err := f.Close(); err != nil {
		return err
	}

	if err := os.Chmod(tmpPath, 0600); err != nil {
		return err
	}

	return os.Rename(tmpPath, d.path)
}

// Read loads the ledger from disk.
func (d *Disk) Read() (database.ChainData, error) {
	data, err := os.ReadFile(d.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return database.ChainData{}, fmt.Errorf("%s: %w", d.path, database.ErrNoLedger)
		}
		return database.ChainData{}, err
	}

	return Decode(d.format, data)
}
