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
	"fmt"

	"github.com/blinklabs-io/naiad/internal/common"
)

// Masternode is the registry entry created by a CreateMasternode
// transaction. Owner changes are delayed and applied by the block pipeline.
type Masternode struct {
	Owner              common.Script
	Operator           common.Script
	CreationHeight     uint32
	ResignHeight       uint32
	PendingOwner       common.Script
	PendingOwnerHeight uint32
}

// IsActive reports whether the masternode has not resigned
func (m *Masternode) IsActive() bool {
	return m.ResignHeight == 0
}

func masternodeKey(id common.TxID) []byte {
	return append([]byte{prefixMasternode}, id[:]...)
}

// SetMasternode writes a masternode record
func (v *View) SetMasternode(id common.TxID, node *Masternode) error {
	return v.putRecord(masternodeKey(id), node)
}

// GetMasternode returns a masternode by its creation transaction
func (v *View) GetMasternode(id common.TxID) (*Masternode, error) {
	var node Masternode
	ok, err := v.getRecord(masternodeKey(id), &node)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("masternode %s: %w", id, common.ErrNotFound)
	}
	return &node, nil
}

// ForEachMasternode visits all masternodes in ID order
func (v *View) ForEachMasternode(visitor func(id common.TxID, node *Masternode) bool) error {
	return v.kv.ForEach([]byte{prefixMasternode}, func(key, value []byte) bool {
		if len(key) != 33 {
			return true
		}
		var id common.TxID
		copy(id[:], key[1:])
		var node Masternode
		if err := decodeRecord(value, &node); err != nil {
			return true
		}
		return visitor(id, &node)
	})
}
