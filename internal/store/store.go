// Package store holds pending team invites in Badger.
//
// Invites are process-scoped: by default the database runs in memory and is
// discarded on shutdown. A data path may be configured for operators who want
// pending invites to survive a restart, but the on-disk layout is not a
// stable format.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dgraph-io/badger/v4"
)

// Store wraps a Badger database instance.
type Store struct {
	db     *badger.DB
	logger *slog.Logger
}

// New opens the invite store. An empty path opens an in-memory database.
func New(path string, logger *slog.Logger) (*Store, error) {
	var opts badger.Options
	if path == "" {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		opts = badger.DefaultOptions(path)
		opts.SyncWrites = true
		opts.CompactL0OnClose = true
	}
	opts.Logger = nil // Badger's internal logging is too chatty

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger db: %w", err)
	}

	if logger != nil {
		if path == "" {
			logger.Info("Invite store opened in memory")
		} else {
			logger.Info("Invite store opened", "path", path)
		}
	}

	return &Store{db: db, logger: logger}, nil
}

// Close closes the database. Closing twice is a no-op.
func (s *Store) Close() error {
	if s.db.IsClosed() {
		return nil
	}
	if s.logger != nil {
		s.logger.Info("Closing invite store")
	}
	return s.db.Close()
}

// Healthy reports whether the database is open.
func (s *Store) Healthy() bool {
	return !s.db.IsClosed()
}

// getTxn reads key inside txn and decodes it into dest.
func getTxn(txn *badger.Txn, key []byte, dest any) error {
	item, err := txn.Get(key)
	if err != nil {
		return err
	}
	return item.Value(func(val []byte) error {
		return json.Unmarshal(val, dest)
	})
}

// exists checks if a key exists.
func (s *Store) exists(key []byte) (bool, error) {
	err := s.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get(key)
		return err
	})

	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
