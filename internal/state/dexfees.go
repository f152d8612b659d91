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
	"github.com/blinklabs-io/naiad/internal/common"
)

// DexFeeDir matches the attribute fee-direction values
const (
	DexFeeDirBoth uint8 = iota
	DexFeeDirIn
	DexFeeDirOut
)

// DexFee is the per-(pool, token) swap fee row written when the matching
// poolpairs attribute is applied.
type DexFee struct {
	Pct common.Amount
	Dir uint8
}

func dexFeeKey(pool, token common.TokenID) []byte {
	key := appendU32([]byte{prefixDexFee}, uint32(pool))
	return appendU32(key, uint32(token))
}

// SetDexFee writes a DEX fee row
func (v *View) SetDexFee(pool, token common.TokenID, fee *DexFee) error {
	if fee.Pct == 0 && fee.Dir == DexFeeDirBoth {
		return v.kv.Delete(dexFeeKey(pool, token))
	}
	return v.putRecord(dexFeeKey(pool, token), fee)
}

// GetDexFee returns the DEX fee row for (pool, token), nil if absent
func (v *View) GetDexFee(pool, token common.TokenID) (*DexFee, error) {
	var fee DexFee
	ok, err := v.getRecord(dexFeeKey(pool, token), &fee)
	if err != nil || !ok {
		return nil, err
	}
	return &fee, nil
}
