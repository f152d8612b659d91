// Copyright 2026 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package storage

import (
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
)

// ErrKeyNotFound is returned by Get when a key is absent
var ErrKeyNotFound = errors.New("key not found")

// Visitor is called for each key/value pair during iteration. Returning
// false stops the iteration.
type Visitor func(key, value []byte) bool

// KvStore is totally ordered byte-keyed storage with range iteration.
// Iteration always yields keys in ascending byte order.
type KvStore interface {
	Get(key []byte) ([]byte, error)
	Put(key, value []byte) error
	Delete(key []byte) error
	// ForEach visits all keys with the given prefix in ascending order
	ForEach(prefix []byte, visitor Visitor) error
	// ForEachFrom visits all keys with the given prefix starting at the
	// given key (inclusive) in ascending order
	ForEachFrom(prefix, from []byte, visitor Visitor) error
}

// BadgerStore is the persistent KvStore backend
type BadgerStore struct {
	db *badger.DB
}

// OpenBadger opens (or creates) a Badger-backed store at the given directory
func OpenBadger(dir string) (*BadgerStore, error) {
	badgerOpts := badger.DefaultOptions(dir).
		// The default INFO logging is a bit verbose
		WithLoggingLevel(badger.WARNING)
	db, err := badger.Open(badgerOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}
	return &BadgerStore{db: db}, nil
}

// Close closes the underlying database
func (s *BadgerStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Get returns the value stored under key, or ErrKeyNotFound
func (s *BadgerStore) Get(key []byte) ([]byte, error) {
	var ret []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		return item.Value(func(v []byte) error {
			// Create copy of value for use outside of transaction
			ret = append([]byte{}, v...)
			return nil
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrKeyNotFound
	}
	return ret, err
}

// Put stores value under key
func (s *BadgerStore) Put(key, value []byte) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(append([]byte{}, key...), append([]byte{}, value...))
	})
}

// Delete removes key
func (s *BadgerStore) Delete(key []byte) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(append([]byte{}, key...))
	})
}

// ForEach visits all keys with the given prefix in ascending order
func (s *BadgerStore) ForEach(prefix []byte, visitor Visitor) error {
	return s.ForEachFrom(prefix, prefix, visitor)
}

// ForEachFrom visits keys with the given prefix starting at from
func (s *BadgerStore) ForEachFrom(prefix, from []byte, visitor Visitor) error {
	return s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = append([]byte{}, prefix...)
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Seek(from); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			key := item.KeyCopy(nil)
			var stop bool
			err := item.Value(func(v []byte) error {
				valCopy := append([]byte{}, v...)
				if !visitor(key, valCopy) {
					stop = true
				}
				return nil
			})
			if err != nil {
				return err
			}
			if stop {
				break
			}
		}
		return nil
	})
}
