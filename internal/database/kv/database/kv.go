package database

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/DHBWLoerrach/CampusRallyeApp-sub000/internal/cache"
	"github.com/DHBWLoerrach/CampusRallyeApp-sub000/internal/database"
	bolt "go.etcd.io/bbolt"
)

var ErrNotFound = fmt.Errorf("not found")

const bucket = "kv"

func New(db *database.DB, cache cache.Cache) *DB {
	return &DB{sDB: db, cache: cache}
}

// DB is a namespaced key-value store of small JSON documents. Reads go
// through the optional cache; a missing key is reported as ErrNotFound.
type DB struct {
	sDB *database.DB

	// held for reading while a cache miss is filled and for writing while
	// a value changes, so a fill never caches an overwritten value
	mtx   sync.RWMutex
	cache cache.Cache
}

func (db *DB) raw(key string) ([]byte, error) {
	if db.cache != nil {
		if v, ok := db.cache.Get(key); ok {
			return v.([]byte), nil
		}
	}

	if db.cache != nil {
		db.mtx.RLock()
		defer db.mtx.RUnlock()
	}

	var bytes []byte
	if err := db.sDB.DB.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucket))
		if b == nil {
			return nil
		}
		if v := b.Get([]byte(key)); v != nil {
			bytes = make([]byte, len(v))
			copy(bytes, v)
		}
		return nil
	}); err != nil {
		return nil, fmt.Errorf("view transaction error: %w", err)
	}

	if len(bytes) > 0 && db.cache != nil {
		db.cache.Add(key, bytes)
	}

	return bytes, nil
}

func (db *DB) Get(ctx context.Context, key string, v interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	bytes, err := db.raw(key)
	if err != nil {
		return fmt.Errorf("fetch %q: %w", key, err)
	}

	if len(bytes) == 0 {
		return ErrNotFound
	}

	if err := json.Unmarshal(bytes, v); err != nil {
		return fmt.Errorf("unmarshal %q: %w", key, err)
	}

	return nil
}

func (db *DB) Set(ctx context.Context, key string, v interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	bytes, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %q: %w", key, err)
	}

	return db.Update(ctx, key, func([]byte) ([]byte, error) {
		return bytes, nil
	})
}

// Update replaces the value under key with the result of fn inside a single
// write transaction. fn receives nil when the key is absent; returning nil
// removes the key.
func (db *DB) Update(ctx context.Context, key string, fn func(current []byte) ([]byte, error)) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if db.cache != nil {
		db.mtx.Lock()
		defer db.mtx.Unlock()
	}

	if err := db.sDB.DB.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists([]byte(bucket))
		if err != nil {
			return fmt.Errorf("create bucket: %w", err)
		}

		var current []byte
		if v := b.Get([]byte(key)); v != nil {
			current = make([]byte, len(v))
			copy(current, v)
		}

		next, err := fn(current)
		if err != nil {
			return err
		}

		if next == nil {
			if err := b.Delete([]byte(key)); err != nil {
				return fmt.Errorf("delete from bucket error: %w", err)
			}
			if db.cache != nil {
				db.cache.Delete(key)
			}
			return nil
		}

		if err := b.Put([]byte(key), next); err != nil {
			return fmt.Errorf("put to bucket error: %w", err)
		}
		if db.cache != nil {
			db.cache.Add(key, next)
		}
		return nil
	}); err != nil {
		// the transaction rolled back after the cache saw the new value
		if db.cache != nil {
			db.cache.Delete(key)
		}
		return fmt.Errorf("update transaction error: %w", err)
	}

	return nil
}

func (db *DB) Remove(ctx context.Context, key string) error {
	return db.Update(ctx, key, func([]byte) ([]byte, error) {
		return nil, nil
	})
}
