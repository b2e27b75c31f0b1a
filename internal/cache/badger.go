// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"
)

// Badger is an embedded key/value cache. Expiry uses Badger's entry TTL.
type Badger struct {
	db     *badger.DB
	logger *slog.Logger
}

// OpenBadger opens the cache directory at dir. An empty dir keeps the cache
// in memory for the life of the process.
func OpenBadger(dir string, logger *slog.Logger) (*Badger, error) {
	opts := badger.DefaultOptions(dir)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("opening badger cache: %w", err)
	}
	return &Badger{db: db, logger: orDiscard(logger)}, nil
}

// Get returns the live value under key.
func (b *Badger) Get(_ context.Context, key string) ([]byte, bool) {
	var value []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		if !errors.Is(err, badger.ErrKeyNotFound) {
			b.logger.Debug("badger cache get failed", "key", key, "error", err)
		}
		return nil, false
	}
	return value, true
}

// Set stores value under key with an optional TTL.
func (b *Badger) Set(_ context.Context, key string, value []byte, ttl time.Duration) {
	err := b.db.Update(func(txn *badger.Txn) error {
		e := badger.NewEntry([]byte(key), value)
		if ttl > 0 {
			e = e.WithTTL(ttl)
		}
		return txn.SetEntry(e)
	})
	if err != nil {
		b.logger.Debug("badger cache set failed", "key", key, "error", err)
	}
}

// Close flushes and closes the database.
func (b *Badger) Close() error {
	return b.db.Close()
}
