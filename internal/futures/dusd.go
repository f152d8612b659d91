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

package futures

import (
	"fmt"

	"github.com/blinklabs-io/naiad/internal/attributes"
	"github.com/blinklabs-io/naiad/internal/common"
	"github.com/blinklabs-io/naiad/internal/state"
)

// SubmitDUSDFutureSwap queues a native-coin to DUSD intent
func (e *Engine) SubmitDUSDFutureSwap(owner common.Script, amount common.Amount, height uint32, ordinal uint32) error {
	cfg := e.settings(attributes.ParamDFIP2206F)
	if !cfg.active {
		return fmt.Errorf("native coin futures are not currently active")
	}
	if amount <= 0 {
		return fmt.Errorf("amount must be positive")
	}
	source := common.TokenAmount{Token: common.TokenIDNative, Amount: amount}
	if err := e.view.SubBalance(owner, source); err != nil {
		return err
	}
	if err := e.view.AddBalance(common.DUSDSwapContract, source); err != nil {
		return err
	}
	key := state.FuturesUserKey{Height: height, Owner: owner, Ordinal: ordinal}
	if err := e.view.SetDUSDFuturesEntry(key, amount); err != nil {
		return err
	}
	return e.attrs.AddEconomyBalance(attributes.EconDFIP2206FCurrent, source)
}

// ProcessDUSDFutures settles the native-coin queue, minting DUSD at the
// discounted oracle price. Intents without a live price are refunded.
func (e *Engine) ProcessDUSDFutures(height uint32) error {
	cfg := e.settings(attributes.ParamDFIP2206F)
	if !cfg.settlementDue(height) {
		return nil
	}
	dusd, err := e.dUSDToken()
	if err != nil {
		return nil //nolint:nilerr // nothing to settle before DUSD exists
	}
	discount := common.COIN - cfg.rewardPct

	type queued struct {
		key    state.FuturesUserKey
		amount common.Amount
	}
	var entries []queued
	err = e.view.ForEachDUSDFuturesEntry(func(k state.FuturesUserKey, amount common.Amount) bool {
		entries = append(entries, queued{key: k, amount: amount})
		return true
	})
	if err != nil {
		return err
	}
	price, live := e.livePrice(common.TokenIDNative)
	for _, q := range entries {
		source := common.TokenAmount{Token: common.TokenIDNative, Amount: q.amount}
		if live {
			value, err := common.MulDiv(q.amount, price, common.COIN)
			if err != nil {
				return err
			}
			out, err := common.MulDiv(value, discount, common.COIN)
			if err != nil {
				return err
			}
			if err := e.view.SubBalance(common.DUSDSwapContract, source); err != nil {
				return err
			}
			if err := e.view.AddBalance(common.BurnAddress, source); err != nil {
				return err
			}
			payout := common.TokenAmount{Token: dusd, Amount: out}
			if err := e.view.AddBalance(q.key.Owner, payout); err != nil {
				return err
			}
			if err := e.view.AddMintedAmount(dusd, out); err != nil {
				return err
			}
			if err := e.attrs.AddEconomyBalance(attributes.EconDFIP2206FBurned, source); err != nil {
				return err
			}
			if err := e.attrs.AddEconomyBalance(attributes.EconDFIP2206FMinted, payout); err != nil {
				return err
			}
		} else {
			if err := e.view.SubBalance(common.DUSDSwapContract, source); err != nil {
				return err
			}
			if err := e.view.AddBalance(q.key.Owner, source); err != nil {
				return err
			}
		}
		if err := e.attrs.AddEconomyBalance(attributes.EconDFIP2206FCurrent, common.TokenAmount{
			Token:  common.TokenIDNative,
			Amount: -q.amount,
		}); err != nil {
			return err
		}
		if err := e.view.DeleteDUSDFuturesEntry(q.key); err != nil {
			return err
		}
	}
	return nil
}

// RefundTokenSplitFutures refunds every queued token intent referencing a
// token about to split
func (e *Engine) RefundTokenSplitFutures(token common.TokenID) error {
	return e.attrs.RefundTokenFutures(func(entry *state.FuturesEntry) bool {
		return entry.Source.Token == token || entry.Destination == token
	})
}
