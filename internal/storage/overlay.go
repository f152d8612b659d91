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

type overlayItem struct {
	key       []byte
	value     []byte
	tombstone bool
}

func overlayItemLess(a, b overlayItem) bool {
	return bytes.Compare(a.key, b.key) < 0
}

// Overlay is an in-memory write-through view over a parent store. It records
// inserts, overwrites and tombstones; Flush applies them to the parent
// atomically from the caller's perspective (single-writer model), Discard
// drops them. Iteration sees a consistent merge of the overlay and parent.
type Overlay struct {
	parent  KvStore
	changes *btree.BTreeG[overlayItem]
}

// NewOverlay opens an overlay over the given parent
func NewOverlay(parent KvStore) *Overlay {
	return &Overlay{
		parent:  parent,
		changes: btree.NewG[overlayItem](16, overlayItemLess),
	}
}

// Get returns the overlay's view of key
func (o *Overlay) Get(key []byte) ([]byte, error) {
	if item, ok := o.changes.Get(overlayItem{key: key}); ok {
		if item.tombstone {
			return nil, ErrKeyNotFound
		}
		return append([]byte{}, item.value...), nil
	}
	return o.parent.Get(key)
}

// Put records an insert or overwrite
func (o *Overlay) Put(key, value []byte) error {
	o.changes.ReplaceOrInsert(overlayItem{
		key:   append([]byte{}, key...),
		value: append([]byte{}, value...),
	})
	return nil
}

// Delete records a tombstone
func (o *Overlay) Delete(key []byte) error {
	o.changes.ReplaceOrInsert(overlayItem{
		key:       append([]byte{}, key...),
		tombstone: true,
	})
	return nil
}

// ForEach visits the merged view of overlay and parent in ascending order
func (o *Overlay) ForEach(prefix []byte, visitor Visitor) error {
	return o.ForEachFrom(prefix, prefix, visitor)
}

// ForEachFrom visits the merged view starting at from
func (o *Overlay) ForEachFrom(prefix, from []byte, visitor Visitor) error {
	// Snapshot overlay changes in range; they are few relative to the parent
	var pending []overlayItem
	o.changes.AscendGreaterOrEqual(
		overlayItem{key: from},
		func(item overlayItem) bool {
			if !bytes.HasPrefix(item.key, prefix) {
				return false
			}
			pending = append(pending, item)
			return true
		},
	)
	idx := 0
	stopped := false
	emit := func(key, value []byte) bool {
		if !visitor(key, value) {
			stopped = true
			return false
		}
		return true
	}
	err := o.parent.ForEachFrom(prefix, from, func(key, value []byte) bool {
		// Emit overlay entries sorting strictly before the parent key
		for idx < len(pending) && bytes.Compare(pending[idx].key, key) < 0 {
			item := pending[idx]
			idx++
			if item.tombstone {
				continue
			}
			if !emit(item.key, item.value) {
				return false
			}
		}
		// Overlay entry for the same key shadows the parent
		if idx < len(pending) && bytes.Equal(pending[idx].key, key) {
			item := pending[idx]
			idx++
			if item.tombstone {
				return true
			}
			return emit(item.key, item.value)
		}
		return emit(key, value)
	})
	if err != nil || stopped {
		return err
	}
	for ; idx < len(pending); idx++ {
		item := pending[idx]
		if item.tombstone {
			continue
		}
		if !emit(item.key, item.value) {
			break
		}
	}
	return nil
}

// Flush applies all recorded changes to the parent and empties the overlay
func (o *Overlay) Flush() error {
	var err error
	o.changes.Ascend(func(item overlayItem) bool {
		if item.tombstone {
			err = o.parent.Delete(item.key)
		} else {
			err = o.parent.Put(item.key, item.value)
		}
		return err == nil
	})
	if err != nil {
		return err
	}
	o.Discard()
	return nil
}

// Discard drops all recorded changes
func (o *Overlay) Discard() {
	o.changes.Clear(false)
}

// Dirty reports whether the overlay holds any changes
func (o *Overlay) Dirty() bool {
	return o.changes.Len() > 0
}
