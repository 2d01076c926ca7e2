// Package database opens the embedded bbolt file that backs the durable
// key-value store of the client.
package database

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/DHBWLoerrach/CampusRallyeApp-sub000/internal/logging"
	bolt "go.etcd.io/bbolt"
)

const openTimeout = time.Second

type Config struct {
	FilePath string `envconfig:"RALLY_DB_PATH" default:"rally.db"`
}

type DB struct {
	DB *bolt.DB
}

// NewFromEnv opens the file at config.FilePath, creating missing parent
// directories. A second client on the same file fails after openTimeout.
func NewFromEnv(ctx context.Context, config *Config) (*DB, error) {
	logger := logging.FromContext(ctx).Named("database.NewFromEnv")
	logger.Infof("opening %s", config.FilePath)

	if dir := filepath.Dir(config.FilePath); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := bolt.Open(config.FilePath, 0o600, &bolt.Options{Timeout: openTimeout})
	if err != nil {
		return nil, fmt.Errorf("open db %s: %w", config.FilePath, err)
	}

	return &DB{DB: db}, nil
}

func (db *DB) Close(ctx context.Context) error {
	logging.FromContext(ctx).Named("database.Close").Infof("closing %s", db.DB.Path())

	if err := db.DB.Close(); err != nil {
		return fmt.Errorf("close db: %w", err)
	}

	return nil
}
