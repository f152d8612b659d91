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

	"github.com/fxamacker/cbor/v2"
)

// UndoEntry records a single key's prior state in the parent store. Existed
// false means the key was absent and restoring it means deleting it.
type UndoEntry struct {
	_       struct{} `cbor:",toarray"`
	Key     []byte
	Value   []byte
	Existed bool
}

// Undo is a reverse patch for one block's writes. Applying it against the
// exact state it was constructed against restores the prior state; it is
// idempotent on that state.
type Undo struct {
	Entries []UndoEntry
}

// ConstructUndo records, for each key touched by the overlay, the parent's
// prior value (or absence). Entries are emitted in ascending key order.
func ConstructUndo(o *Overlay) (*Undo, error) {
	undo := &Undo{}
	var outerErr error
	o.changes.Ascend(func(item overlayItem) bool {
		prior, err := o.parent.Get(item.key)
		if err != nil {
			if !errors.Is(err, ErrKeyNotFound) {
				outerErr = err
				return false
			}
			undo.Entries = append(undo.Entries, UndoEntry{
				Key: append([]byte{}, item.key...),
			})
			return true
		}
		undo.Entries = append(undo.Entries, UndoEntry{
			Key:     append([]byte{}, item.key...),
			Value:   prior,
			Existed: true,
		})
		return true
	})
	if outerErr != nil {
		return nil, outerErr
	}
	return undo, nil
}

// ApplyUndo restores each recorded key to its prior state
func ApplyUndo(store KvStore, undo *Undo) error {
	for _, entry := range undo.Entries {
		if entry.Existed {
			if err := store.Put(entry.Key, entry.Value); err != nil {
				return err
			}
		} else {
			if err := store.Delete(entry.Key); err != nil {
				return err
			}
		}
	}
	return nil
}

// Marshal serializes the undo patch
func (u *Undo) Marshal() ([]byte, error) {
	return cbor.Marshal(u.Entries)
}

// UnmarshalUndo deserializes an undo patch
func UnmarshalUndo(data []byte) (*Undo, error) {
	undo := &Undo{}
	if err := cbor.Unmarshal(data, &undo.Entries); err != nil {
		return nil, err
	}
	return undo, nil
}
