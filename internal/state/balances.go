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
)

// GetBalance returns the owner's balance of a token, zero if absent
func (v *View) GetBalance(owner common.Script, token common.TokenID) (common.Amount, error) {
	var amount common.Amount
	ok, err := v.getRecord(balanceKey(owner, token), &amount)
	if err != nil || !ok {
		return 0, err
	}
	return amount, nil
}

// AddBalance credits an amount to an owner. A row reaching zero is erased;
// a row that would go negative fails with ErrInsufficientFunds.
func (v *View) AddBalance(owner common.Script, delta common.TokenAmount) error {
	current, err := v.GetBalance(owner, delta.Token)
	if err != nil {
		return err
	}
	sum, err := common.SafeAdd(current, delta.Amount)
	if err != nil {
		return err
	}
	if sum < 0 {
		return fmt.Errorf(
			"account %s: %w: %s available, %s required",
			owner, common.ErrInsufficientFunds, current, -delta.Amount,
		)
	}
	if sum == 0 {
		return v.kv.Delete(balanceKey(owner, delta.Token))
	}
	return v.putRecord(balanceKey(owner, delta.Token), sum)
}

// SubBalance debits an amount from an owner
func (v *View) SubBalance(owner common.Script, delta common.TokenAmount) error {
	return v.AddBalance(owner, common.TokenAmount{Token: delta.Token, Amount: -delta.Amount})
}

// AddBalances credits a balance map to an owner
func (v *View) AddBalances(owner common.Script, balances common.Balances) error {
	for _, token := range balances.SortedTokens() {
		if err := v.AddBalance(owner, common.TokenAmount{Token: token, Amount: balances[token]}); err != nil {
			return err
		}
	}
	return nil
}

// SubBalances debits a balance map from an owner
func (v *View) SubBalances(owner common.Script, balances common.Balances) error {
	for _, token := range balances.SortedTokens() {
		if err := v.SubBalance(owner, common.TokenAmount{Token: token, Amount: balances[token]}); err != nil {
			return err
		}
	}
	return nil
}

// GetBalances returns all balances held by an owner
func (v *View) GetBalances(owner common.Script) (common.Balances, error) {
	ret := make(common.Balances)
	err := v.forEachBalanceRow(balancePrefix(owner), func(_ common.Script, token common.TokenID, amount common.Amount) bool {
		ret[token] = amount
		return true
	})
	return ret, err
}

// ForEachBalance visits every balance row ordered by (owner, tokenId)
func (v *View) ForEachBalance(visitor func(owner common.Script, token common.TokenID, amount common.Amount) bool) error {
	return v.forEachBalanceRow([]byte{prefixBalance}, visitor)
}

func (v *View) forEachBalanceRow(prefix []byte, visitor func(common.Script, common.TokenID, common.Amount) bool) error {
	return v.kv.ForEach(prefix, func(key, value []byte) bool {
		if len(key) < 5 {
			return true
		}
		owner := common.Script(key[1 : len(key)-4])
		token := common.TokenID(binary.BigEndian.Uint32(key[len(key)-4:]))
		var amount common.Amount
		if err := decodeRecord(value, &amount); err != nil {
			return true
		}
		return visitor(owner, token, amount)
	})
}
