// Package cmd provides common initialization functions for command-line
// applications.
package cmd

import (
	"fmt"
	"strings"

	"github.com/flowcanvas/flowcanvas/pkg/persistence"
	"github.com/flowcanvas/flowcanvas/pkg/persistence/file"
	"github.com/flowcanvas/flowcanvas/pkg/persistence/redis"
)

// NewPersistence selects a storage backend from the database URL scheme.
// redis:// connects to redis; anything else is treated as a file root.
func NewPersistence(databaseURL string) (persistence.Persistence, error) {
	switch parseScheme(databaseURL) {
	case "redis", "rediss":
		store, err := redis.NewPersistence(databaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to create redis persistence: %w", err)
		}

		return store, nil
	default:
		return file.NewPersistence(databaseURL), nil
	}
}

func parseScheme(databaseURL string) string {
	scheme, _, found := strings.Cut(databaseURL, "://")
	if !found {
		return "file"
	}

	return scheme
}
