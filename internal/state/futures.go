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

// FuturesUserKey orders futures intents by (submitHeight, owner, ordinal)
type FuturesUserKey struct {
	Height  uint32
	Owner   common.Script
	Ordinal uint32
}

// FuturesEntry is a queued token futures swap intent
type FuturesEntry struct {
	Source      common.TokenAmount
	Destination common.TokenID
}

func parseFuturesKey(key []byte) (FuturesUserKey, bool) {
	if len(key) < 9 {
		return FuturesUserKey{}, false
	}
	return FuturesUserKey{
		Height:  binary.BigEndian.Uint32(key[1:5]),
		Owner:   common.Script(key[5 : len(key)-4]),
		Ordinal: binary.BigEndian.Uint32(key[len(key)-4:]),
	}, true
}

// SetFuturesEntry writes a token futures intent
func (v *View) SetFuturesEntry(k FuturesUserKey, entry *FuturesEntry) error {
	return v.putRecord(futuresKey(prefixFuturesToken, k), entry)
}

// GetFuturesEntry returns a token futures intent, nil if absent
func (v *View) GetFuturesEntry(k FuturesUserKey) (*FuturesEntry, error) {
	var entry FuturesEntry
	ok, err := v.getRecord(futuresKey(prefixFuturesToken, k), &entry)
	if err != nil || !ok {
		return nil, err
	}
	return &entry, nil
}

// DeleteFuturesEntry removes a token futures intent
func (v *View) DeleteFuturesEntry(k FuturesUserKey) error {
	return v.kv.Delete(futuresKey(prefixFuturesToken, k))
}

// ForEachFuturesEntry visits all token futures intents in key order
func (v *View) ForEachFuturesEntry(visitor func(k FuturesUserKey, entry *FuturesEntry) bool) error {
	return v.kv.ForEach([]byte{prefixFuturesToken}, func(key, value []byte) bool {
		k, ok := parseFuturesKey(key)
		if !ok {
			return true
		}
		var entry FuturesEntry
		if err := decodeRecord(value, &entry); err != nil {
			return true
		}
		return visitor(k, &entry)
	})
}

// SetDUSDFuturesEntry writes a native-coin futures intent
func (v *View) SetDUSDFuturesEntry(k FuturesUserKey, amount common.Amount) error {
	return v.putRecord(futuresKey(prefixFuturesDUSD, k), amount)
}

// GetDUSDFuturesEntry returns a native-coin futures intent amount, zero if absent
func (v *View) GetDUSDFuturesEntry(k FuturesUserKey) (common.Amount, error) {
	var amount common.Amount
	if _, err := v.getRecord(futuresKey(prefixFuturesDUSD, k), &amount); err != nil {
		return 0, err
	}
	return amount, nil
}

// DeleteDUSDFuturesEntry removes a native-coin futures intent
func (v *View) DeleteDUSDFuturesEntry(k FuturesUserKey) error {
	return v.kv.Delete(futuresKey(prefixFuturesDUSD, k))
}

// ForEachDUSDFuturesEntry visits all native-coin futures intents in key order
func (v *View) ForEachDUSDFuturesEntry(visitor func(k FuturesUserKey, amount common.Amount) bool) error {
	return v.kv.ForEach([]byte{prefixFuturesDUSD}, func(key, value []byte) bool {
		k, ok := parseFuturesKey(key)
		if !ok {
			return true
		}
		var amount common.Amount
		if err := decodeRecord(value, &amount); err != nil {
			return true
		}
		return visitor(k, amount)
	})
}
