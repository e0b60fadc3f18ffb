// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package chatbot

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"
)

// ErrNoPendingUpdate is returned when a session has nothing to confirm.
var ErrNoPendingUpdate = errors.New("No pending stock update to confirm")

// PendingUpdate is a stock change waiting for the user's confirmation.
type PendingUpdate struct {
	ProductID   int64     `json:"product_id"`
	ProductName string    `json:"product_name"`
	SKU         string    `json:"sku"`
	Operation   string    `json:"operation"`
	Quantity    int       `json:"quantity"`
	CreatedAt   time.Time `json:"created_at"`
}

// Delta is the signed stock change.
func (p PendingUpdate) Delta() int {
	return UpdateRequest{Operation: p.Operation, Quantity: p.Quantity}.Delta()
}

// PendingStore keeps one pending update per session key in an in-memory
// badger database. Entries expire after their TTL.
//
// # Thread Safety
//
// Safe for concurrent use. Take is atomic: two concurrent confirmations
// of the same session apply the update once.
type PendingStore struct {
	db *badger.DB
}

// OpenPendingStore opens the in-memory store. logger may be nil to
// silence badger.
func OpenPendingStore(logger *slog.Logger) (*PendingStore, error) {
	opts := badger.DefaultOptions("").WithInMemory(true)
	if logger != nil {
		opts = opts.WithLogger(&badgerLogger{logger: logger})
	} else {
		opts = opts.WithLogger(nil)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open pending store: %w", err)
	}
	return &PendingStore{db: db}, nil
}

// Put stores u under key, replacing any previous update.
func (s *PendingStore) Put(key string, u PendingUpdate, ttl time.Duration) error {
	data, err := json.Marshal(u)
	if err != nil {
		return fmt.Errorf("encode pending update: %w", err)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.SetEntry(badger.NewEntry([]byte(key), data).WithTTL(ttl))
	})
}

// Peek returns the pending update without removing it.
func (s *PendingStore) Peek(key string) (PendingUpdate, error) {
	var u PendingUpdate
	err := s.db.View(func(txn *badger.Txn) error {
		return readPending(txn, key, &u)
	})
	return u, err
}

// Take returns and removes the pending update.
func (s *PendingStore) Take(key string) (PendingUpdate, error) {
	var u PendingUpdate
	err := s.db.Update(func(txn *badger.Txn) error {
		if err := readPending(txn, key, &u); err != nil {
			return err
		}
		return txn.Delete([]byte(key))
	})
	if errors.Is(err, badger.ErrConflict) {
		return PendingUpdate{}, ErrNoPendingUpdate
	}
	return u, err
}

// Delete drops the pending update, if any.
func (s *PendingStore) Delete(key string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
}

func (s *PendingStore) Close() error {
	return s.db.Close()
}

func readPending(txn *badger.Txn, key string, u *PendingUpdate) error {
	item, err := txn.Get([]byte(key))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return ErrNoPendingUpdate
	}
	if err != nil {
		return err
	}
	return item.Value(func(val []byte) error {
		return json.Unmarshal(val, u)
	})
}

type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}
