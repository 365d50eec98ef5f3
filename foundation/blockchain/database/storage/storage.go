// Package storage handles all the lower level support for reading and writing
// the ledger to disk.
package storage

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ardanlabs/powledger/foundation/blockchain/database"
	"gopkg.in/yaml.v2"
)

// Format represents the textual encoding used for a ledger file.
type Format string

// Set of supported ledger file formats.
const (
	JSON Format = "json"
	YAML Format = "yaml"
)

// FormatFromPath selects the format based on the file extension. Anything
// other than .yaml or .yml is treated as JSON.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return YAML
	}

	return JSON
}

// Encode marshals the ledger in a human readable form.
func Encode(format Format, chainData database.ChainData) ([]byte, error) {
	switch format {
	case YAML:
		return yaml.Marshal(chainData)
	default:
		return json.MarshalIndent(chainData, "", "  ")
	}
}

// Decode unmarshals the ledger. Fields that are not part of the layout
// are treated as a malformed ledger.
func Decode(format Format, data []byte) (database.ChainData, error) {
	var chainData database.ChainData

	switch format {
	case YAML:
		if err := yaml.UnmarshalStrict(data, &chainData); err != nil {
			return database.ChainData{}, fmt.Errorf("decoding yaml ledger: %w", err)
		}

	default:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&chainData); err != nil {
			return database.ChainData{}, fmt.Errorf("decoding json ledger: %w", err)
		}
	}

	return chainData, nil
}
