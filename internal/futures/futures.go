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
	"log/slog"

	"github.com/blinklabs-io/naiad/internal/attributes"
	"github.com/blinklabs-io/naiad/internal/common"
	"github.com/blinklabs-io/naiad/internal/config"
	"github.com/blinklabs-io/naiad/internal/oracle"
	"github.com/blinklabs-io/naiad/internal/state"
)

// DUSDSymbol is the ecosystem stablecoin's token symbol
const DUSDSymbol = "DUSD"

// Engine runs the deferred-settlement futures queues
type Engine struct {
	view   *state.View
	attrs  *attributes.Store
	cfg    *config.ChainConfig
	logger *slog.Logger
}

// New creates a futures engine over a view
func New(view *state.View, cfg *config.ChainConfig, logger *slog.Logger) *Engine {
	return &Engine{
		view:   view,
		attrs:  attributes.NewStore(view),
		cfg:    cfg,
		logger: logger,
	}
}

type settings struct {
	active      bool
	startBlock  uint32
	blockPeriod uint32
	rewardPct   common.Amount
}

func (e *Engine) settings(paramID uint32) settings {
	return settings{
		active:      e.attrs.GetBool(attributes.ParamKey(paramID, attributes.ParamActive)),
		startBlock:  uint32(e.attrs.GetUint64(attributes.ParamKey(paramID, attributes.ParamStartBlock), 0)),
		blockPeriod: uint32(e.attrs.GetUint64(attributes.ParamKey(paramID, attributes.ParamBlockPeriod), 0)),
		rewardPct:   e.attrs.GetAmount(attributes.ParamKey(paramID, attributes.ParamRewardPct), 0),
	}
}

func (s settings) settlementDue(height uint32) bool {
	if !s.active || s.blockPeriod == 0 || height < s.startBlock {
		return false
	}
	return (height-s.startBlock)%s.blockPeriod == 0
}

func (e *Engine) dUSDToken() (common.TokenID, error) {
	token, id := e.view.GetTokenBySymbol(DUSDSymbol)
	if token == nil {
		return 0, fmt.Errorf("token %s: %w", DUSDSymbol, common.ErrNotFound)
	}
	return id, nil
}

// SubmitFutureSwap queues a token futures intent, escrowing the source
func (e *Engine) SubmitFutureSwap(owner common.Script, source common.TokenAmount, destination common.TokenID, height uint32, ordinal uint32) error {
	cfg := e.settings(attributes.ParamDFIP2203)
	if !cfg.active {
		return fmt.Errorf("token futures are not currently active")
	}
	if source.Amount <= 0 {
		return fmt.Errorf("source amount must be positive")
	}
	dusd, err := e.dUSDToken()
	if err != nil {
		return err
	}
	// One side of the swap must be DUSD; the other a futures-enabled loan token
	var loanSide common.TokenID
	switch {
	case source.Token == dusd:
		loanSide = destination
	case destination == dusd:
		loanSide = source.Token
	default:
		return fmt.Errorf("future swap must trade against %s", DUSDSymbol)
	}
	if !e.attrs.GetBool(attributes.TokenKey(loanSide, attributes.TokenDFIP2203)) {
		return fmt.Errorf("token %d is not enabled for futures", loanSide)
	}
	if err := e.view.SubBalance(owner, source); err != nil {
		return err
	}
	if err := e.view.AddBalance(common.FutureSwapContract, source); err != nil {
		return err
	}
	key := state.FuturesUserKey{Height: height, Owner: owner, Ordinal: ordinal}
	if err := e.view.SetFuturesEntry(key, &state.FuturesEntry{Source: source, Destination: destination}); err != nil {
		return err
	}
	return e.attrs.AddEconomyBalance(attributes.EconDFIP2203Current, source)
}

// WithdrawFutureSwap cancels a still-queued intent and reverses its escrow
func (e *Engine) WithdrawFutureSwap(owner common.Script, source common.TokenAmount, destination common.TokenID) error {
	remaining := source.Amount
	type match struct {
		key   state.FuturesUserKey
		entry *state.FuturesEntry
	}
	var matches []match
	err := e.view.ForEachFuturesEntry(func(k state.FuturesUserKey, entry *state.FuturesEntry) bool {
		if k.Owner.Equal(owner) && entry.Source.Token == source.Token && entry.Destination == destination {
			matches = append(matches, match{key: k, entry: entry})
		}
		return true
	})
	if err != nil {
		return err
	}
	for _, m := range matches {
		if remaining <= 0 {
			break
		}
		take := m.entry.Source.Amount
		if take > remaining {
			// Partial withdrawal shrinks the queued entry in place
			m.entry.Source.Amount -= remaining
			take = remaining
			if err := e.view.SetFuturesEntry(m.key, m.entry); err != nil {
				return err
			}
		} else {
			if err := e.view.DeleteFuturesEntry(m.key); err != nil {
				return err
			}
		}
		remaining -= take
	}
	if remaining > 0 {
		return fmt.Errorf("withdrawal exceeds queued amount by %s", remaining)
	}
	if err := e.view.SubBalance(common.FutureSwapContract, source); err != nil {
		return err
	}
	if err := e.view.AddBalance(owner, source); err != nil {
		return err
	}
	return e.attrs.AddEconomyBalance(attributes.EconDFIP2203Current, common.TokenAmount{
		Token:  source.Token,
		Amount: -source.Amount,
	})
}

// ProcessFutures drains and settles the token futures queue at each
// settlement boundary. Intents without a live price are refunded.
func (e *Engine) ProcessFutures(height uint32) error {
	cfg := e.settings(attributes.ParamDFIP2203)
	if !cfg.settlementDue(height) {
		return nil
	}
	dusd, err := e.dUSDToken()
	if err != nil {
		return nil //nolint:nilerr // nothing to settle before DUSD exists
	}
	discount := common.COIN - cfg.rewardPct
	premium := common.COIN + cfg.rewardPct

	type queued struct {
		key   state.FuturesUserKey
		entry *state.FuturesEntry
	}
	var entries []queued
	err = e.view.ForEachFuturesEntry(func(k state.FuturesUserKey, entry *state.FuturesEntry) bool {
		entries = append(entries, queued{key: k, entry: entry})
		return true
	})
	if err != nil {
		return err
	}
	var settled, refunded int
	for _, q := range entries {
		source := q.entry.Source
		var payout common.TokenAmount
		paid := false
		if source.Token == dusd {
			// DUSD in, loan token out at the premium price
			if price, ok := e.livePrice(q.entry.Destination); ok {
				premiumPrice, err := common.MulDiv(price, premium, common.COIN)
				if err != nil {
					return err
				}
				out, err := common.MulDiv(source.Amount, common.COIN, premiumPrice)
				if err != nil {
					return err
				}
				payout = common.TokenAmount{Token: q.entry.Destination, Amount: out}
				paid = out > 0
			}
		} else if q.entry.Destination == dusd {
			// Loan token in, DUSD out at the discount price
			if price, ok := e.livePrice(source.Token); ok {
				discountPrice, err := common.MulDiv(price, discount, common.COIN)
				if err != nil {
					return err
				}
				out, err := common.MulDiv(source.Amount, discountPrice, common.COIN)
				if err != nil {
					return err
				}
				payout = common.TokenAmount{Token: dusd, Amount: out}
				paid = out > 0
			}
		}
		if paid {
			// The escrowed source leaves circulation; the payout is minted
			if err := e.view.SubBalance(common.FutureSwapContract, source); err != nil {
				return err
			}
			if err := e.view.AddBalance(common.BurnAddress, source); err != nil {
				return err
			}
			if err := e.view.AddBalance(q.key.Owner, payout); err != nil {
				return err
			}
			if err := e.view.AddMintedAmount(payout.Token, payout.Amount); err != nil {
				return err
			}
			if err := e.attrs.AddEconomyBalance(attributes.EconDFIP2203Burned, source); err != nil {
				return err
			}
			if err := e.attrs.AddEconomyBalance(attributes.EconDFIP2203Minted, payout); err != nil {
				return err
			}
			settled++
		} else {
			// Unpaid intents move the escrow straight back to the owner
			if err := e.view.SubBalance(common.FutureSwapContract, source); err != nil {
				return err
			}
			if err := e.view.AddBalance(q.key.Owner, source); err != nil {
				return err
			}
			refunded++
		}
		if err := e.attrs.AddEconomyBalance(attributes.EconDFIP2203Current, common.TokenAmount{
			Token:  source.Token,
			Amount: -source.Amount,
		}); err != nil {
			return err
		}
		if err := e.view.DeleteFuturesEntry(q.key); err != nil {
			return err
		}
	}
	if settled > 0 || refunded > 0 {
		e.logger.Info(
			"token futures settled",
			"height", height,
			"settled", settled,
			"refunded", refunded,
		)
	}
	return nil
}

// livePrice returns the active fixed-interval price for a token when live
func (e *Engine) livePrice(token common.TokenID) (common.Amount, bool) {
	pair, ok := e.attrs.GetPair(attributes.TokenKey(token, attributes.TokenFixedIntervalPriceID))
	if !ok {
		return 0, false
	}
	price, err := e.view.GetFixedIntervalPrice(pair)
	if err != nil {
		return 0, false
	}
	if !price.IsLive(oracle.MaxDeviation(e.cfg)) {
		return 0, false
	}
	return price.Prices[state.PriceSlotActive], true
}
