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

package state

import (
	"encoding/binary"
	"fmt"

	"github.com/blinklabs-io/naiad/internal/common"
	"github.com/blinklabs-io/naiad/internal/storage"
)

// WriteUndo persists a block's undo patch
func (v *View) WriteUndo(height uint32, blockHash common.TxID, undo *storage.Undo) error {
	raw, err := undo.Marshal()
	if err != nil {
		return err
	}
	return v.kv.Put(undoKey(height, blockHash), raw)
}

// GetUndo loads a block's undo patch
func (v *View) GetUndo(height uint32, blockHash common.TxID) (*storage.Undo, error) {
	raw, err := v.kv.Get(undoKey(height, blockHash))
	if err != nil {
		if err == storage.ErrKeyNotFound {
			return nil, fmt.Errorf("undo %d/%s: %w", height, blockHash, common.ErrNotFound)
		}
		return nil, err
	}
	return storage.UnmarshalUndo(raw)
}

// DeleteUndo drops a block's undo patch (pruning)
func (v *View) DeleteUndo(height uint32, blockHash common.TxID) error {
	return v.kv.Delete(undoKey(height, blockHash))
}

// PruneUndo drops undo patches older than the given height
func (v *View) PruneUndo(olderThan uint32) error {
	var keys [][]byte
	err := v.kv.ForEach([]byte{prefixUndo}, func(key, _ []byte) bool {
		if len(key) < 5 {
			return true
		}
		if binary.BigEndian.Uint32(key[1:5]) < olderThan {
			keys = append(keys, key)
			return true
		}
		return false
	})
	if err != nil {
		return err
	}
	for _, key := range keys {
		if err := v.kv.Delete(key); err != nil {
			return err
		}
	}
	return nil
}
