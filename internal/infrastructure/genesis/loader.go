// Package genesis reads the YAML file listing the programs and funded
// accounts a fresh ledger starts with.
package genesis

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"invokesigned/internal/application/dto"

	"gopkg.in/yaml.v3"
)

// Load returns an empty genesis when path is empty.
func Load(path string) (dto.Genesis, error) {
	if path == "" {
		return dto.Genesis{}, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return dto.Genesis{}, fmt.Errorf("read genesis %s: %w", path, err)
	}
	return Parse(raw)
}

// Parse rejects unknown keys so a misspelled field does not silently drop an
// account.
func Parse(raw []byte) (dto.Genesis, error) {
	var genesis dto.Genesis
	decoder := yaml.NewDecoder(bytes.NewReader(raw))
	decoder.KnownFields(true)
	if err := decoder.Decode(&genesis); err != nil {
		if errors.Is(err, io.EOF) {
			return dto.Genesis{}, nil
		}
		return dto.Genesis{}, fmt.Errorf("decode genesis: %w", err)
	}
	return genesis, nil
}
