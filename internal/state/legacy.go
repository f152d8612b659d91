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

// LegacyLoanToken is the pre-attribute loan token record, migrated into the
// attribute store by the one-shot pipeline step.
type LegacyLoanToken struct {
	Token                common.TokenID
	FixedIntervalPriceID common.CurrencyPair
	Interest             common.Amount
	Mintable             bool
}

// LegacyCollateralToken is the pre-attribute collateral token record
type LegacyCollateralToken struct {
	Token                common.TokenID
	FixedIntervalPriceID common.CurrencyPair
	Factor               common.Amount
}

// SetLegacyLoanToken writes a legacy loan token record
func (v *View) SetLegacyLoanToken(rec *LegacyLoanToken) error {
	return v.putRecord(legacyLoanTokenKey(rec.Token), rec)
}

// ForEachLegacyLoanToken visits legacy loan token records in token order
func (v *View) ForEachLegacyLoanToken(visitor func(rec *LegacyLoanToken) bool) error {
	return v.kv.ForEach([]byte{prefixLegacyLoanToken}, func(_, value []byte) bool {
		var rec LegacyLoanToken
		if err := decodeRecord(value, &rec); err != nil {
			return true
		}
		return visitor(&rec)
	})
}

// DeleteLegacyLoanToken removes a legacy loan token record
func (v *View) DeleteLegacyLoanToken(token common.TokenID) error {
	return v.kv.Delete(legacyLoanTokenKey(token))
}

// SetLegacyCollateralToken writes a legacy collateral token record
func (v *View) SetLegacyCollateralToken(rec *LegacyCollateralToken) error {
	return v.putRecord(legacyCollateralTokenKey(rec.Token), rec)
}

// ForEachLegacyCollateralToken visits legacy collateral token records
func (v *View) ForEachLegacyCollateralToken(visitor func(rec *LegacyCollateralToken) bool) error {
	return v.kv.ForEach([]byte{prefixLegacyCollateralToken}, func(key, value []byte) bool {
		if len(key) != 5 {
			return true
		}
		var rec LegacyCollateralToken
		if err := decodeRecord(value, &rec); err != nil {
			return true
		}
		rec.Token = common.TokenID(binary.BigEndian.Uint32(key[1:]))
		return visitor(&rec)
	})
}

// DeleteLegacyCollateralToken removes a legacy collateral token record
func (v *View) DeleteLegacyCollateralToken(token common.TokenID) error {
	return v.kv.Delete(legacyCollateralTokenKey(token))
}
