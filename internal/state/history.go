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

	"github.com/blinklabs-io/naiad/internal/common"
)

// HistoryEntry is one account-history row written by the transaction applier
// when the account index is enabled.
type HistoryEntry struct {
	TxID     common.TxID
	Category string
	Amounts  []common.TokenAmount
}

// WriteHistory appends an account-history row keyed by (owner, height, txn)
func (v *View) WriteHistory(owner common.Script, height uint32, txn uint32, entry *HistoryEntry) error {
	return v.putRecord(historyKey(owner, height, txn), entry)
}

// ForEachHistory visits an owner's history rows in (height, txn) order
func (v *View) ForEachHistory(owner common.Script, visitor func(height uint32, txn uint32, entry *HistoryEntry) bool) error {
	prefix := append([]byte{prefixHistory}, owner...)
	return v.kv.ForEach(prefix, func(key, value []byte) bool {
		if len(key) < len(prefix)+8 {
			return true
		}
		height := binary.BigEndian.Uint32(key[len(key)-8 : len(key)-4])
		txn := binary.BigEndian.Uint32(key[len(key)-4:])
		var entry HistoryEntry
		if err := decodeRecord(value, &entry); err != nil {
			return true
		}
		return visitor(height, txn, &entry)
	})
}
