// Package uuid generates sync run and request identifiers.
package uuid

import (
	"fmt"

	"github.com/google/uuid"
)

// Generator creates time-ordered UUID v7 strings, optionally prefixed.
type Generator struct {
	prefix string
}

// New creates a Generator. A non-empty prefix is joined to every ID with a
// dash, e.g. "sync-0190...".
func New(prefix string) *Generator {
	return &Generator{prefix: prefix}
}

// NewID returns a new identifier.
func (g *Generator) NewID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("generate uuid7: %w", err)
	}
	if g == nil || g.prefix == "" {
		return id.String(), nil
	}
	return g.prefix + "-" + id.String(), nil
}

// Valid reports whether id is an identifier this package could have
// produced for prefix.
func Valid(prefix, id string) bool {
	if prefix != "" {
		if len(id) <= len(prefix)+1 || id[:len(prefix)+1] != prefix+"-" {
			return false
		}
		id = id[len(prefix)+1:]
	}
	parsed, err := uuid.Parse(id)
	return err == nil && parsed.Version() == 7
}
