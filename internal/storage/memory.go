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
	"bytes"

	"github.com/google/btree"
)

type memItem struct {
	key   []byte
	value []byte
}

func memItemLess(a, b memItem) bool {
	return bytes.Compare(a.key, b.key) < 0
}

// MemStore is a btree-backed in-memory KvStore, used for tests and as the
// backing of transactional overlays.
type MemStore struct {
	tree *btree.BTreeG[memItem]
}

// NewMemStore creates an empty in-memory store
func NewMemStore() *MemStore {
	return &MemStore{
		tree: btree.NewG[memItem](16, memItemLess),
	}
}

// Get returns the value stored under key, or ErrKeyNotFound
func (s *MemStore) Get(key []byte) ([]byte, error) {
	item, ok := s.tree.Get(memItem{key: key})
	if !ok {
		return nil, ErrKeyNotFound
	}
	return append([]byte{}, item.value...), nil
}

// Put stores value under key
func (s *MemStore) Put(key, value []byte) error {
	s.tree.ReplaceOrInsert(memItem{
		key:   append([]byte{}, key...),
		value: append([]byte{}, value...),
	})
	return nil
}

// Delete removes key
func (s *MemStore) Delete(key []byte) error {
	s.tree.Delete(memItem{key: key})
	return nil
}

// ForEach visits all keys with the given prefix in ascending order
func (s *MemStore) ForEach(prefix []byte, visitor Visitor) error {
	return s.ForEachFrom(prefix, prefix, visitor)
}

// ForEachFrom visits keys with the given prefix starting at from
func (s *MemStore) ForEachFrom(prefix, from []byte, visitor Visitor) error {
	s.tree.AscendGreaterOrEqual(memItem{key: from}, func(item memItem) bool {
		if !bytes.HasPrefix(item.key, prefix) {
			return false
		}
		return visitor(
			append([]byte{}, item.key...),
			append([]byte{}, item.value...),
		)
	})
	return nil
}
