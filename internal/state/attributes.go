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

	"github.com/blinklabs-io/naiad/internal/storage"
)

// AttrKey is the v0 attribute key tuple. The typed layer above interprets
// (Type, Key) pairs; state stores opaque value bytes.
type AttrKey struct {
	Type  byte
	TypeID uint32
	Key   uint32
	SubID uint32
}

// GetAttribute returns the raw value bytes stored under an attribute key
func (v *View) GetAttribute(k AttrKey) ([]byte, error) {
	raw, err := v.kv.Get(attributeKey(k))
	if err != nil {
		if err == storage.ErrKeyNotFound {
			return nil, nil
		}
		return nil, err
	}
	return raw, nil
}

// SetAttribute stores raw value bytes under an attribute key
func (v *View) SetAttribute(k AttrKey, value []byte) error {
	return v.kv.Put(attributeKey(k), value)
}

// DeleteAttribute removes an attribute
func (v *View) DeleteAttribute(k AttrKey) error {
	return v.kv.Delete(attributeKey(k))
}

// ForEachAttribute visits all attributes in key order (type, id, key, subId)
func (v *View) ForEachAttribute(visitor func(k AttrKey, value []byte) bool) error {
	return v.kv.ForEach([]byte{prefixAttribute}, func(key, value []byte) bool {
		if len(key) != 14 {
			return true
		}
		k := AttrKey{
			Type:   key[1],
			TypeID: binary.BigEndian.Uint32(key[2:6]),
			Key:    binary.BigEndian.Uint32(key[6:10]),
			SubID:  binary.BigEndian.Uint32(key[10:14]),
		}
		return visitor(k, value)
	})
}
