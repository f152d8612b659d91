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

package tokensplit

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/blinklabs-io/naiad/internal/attributes"
	"github.com/blinklabs-io/naiad/internal/common"
	"github.com/blinklabs-io/naiad/internal/config"
	"github.com/blinklabs-io/naiad/internal/futures"
	"github.com/blinklabs-io/naiad/internal/pool"
	"github.com/blinklabs-io/naiad/internal/state"
)

// Multiplier is a token split factor: positive integers multiply, negative
// integers divide (a merge), fractional multipliers scale by Frac/COIN.
type Multiplier struct {
	IsFrac bool
	Int    int32
	Frac   common.Amount
}

// Apply scales an amount by the multiplier, truncating toward zero
func (m Multiplier) Apply(a common.Amount) common.Amount {
	if m.IsFrac {
		if m.Frac == 0 {
			return 0
		}
		scaled, err := common.MulDiv(a, m.Frac, common.COIN)
		if err != nil {
			return 0
		}
		return scaled
	}
	switch {
	case m.Int > 0:
		return a * common.Amount(m.Int)
	case m.Int < 0:
		return a / common.Amount(-m.Int)
	}
	return 0
}

// Engine performs scheduled destructive token splits
type Engine struct {
	view    *state.View
	attrs   *attributes.Store
	pools   *pool.Engine
	futures *futures.Engine
	cfg     *config.ChainConfig
	logger  *slog.Logger
}

// New creates a split engine over a view
func New(view *state.View, cfg *config.ChainConfig, logger *slog.Logger) *Engine {
	return &Engine{
		view:    view,
		attrs:   attributes.NewStore(view),
		pools:   pool.New(view),
		futures: futures.New(view, cfg, logger),
		cfg:     cfg,
		logger:  logger,
	}
}

// ProcessSplits executes every split scheduled for this height. The whole
// migration either lands or the caller discards the block overlay.
func (e *Engine) ProcessSplits(height uint32) error {
	val, ok, err := e.attrs.Get(attributes.SplitKey(height))
	if err != nil || !ok {
		return err
	}
	run := func(token common.TokenID, mult Multiplier) error {
		if err := e.performSplit(token, mult, height); err != nil {
			return fmt.Errorf("token %d split: %w", token, err)
		}
		return nil
	}
	switch splits := val.(type) {
	case attributes.OracleSplitsValue:
		tokens := make([]common.TokenID, 0, len(splits))
		for token := range splits {
			tokens = append(tokens, token)
		}
		sort.Slice(tokens, func(i, j int) bool { return tokens[i] < tokens[j] })
		for _, token := range tokens {
			if err := run(token, Multiplier{Int: splits[token]}); err != nil {
				return err
			}
		}
	case attributes.OracleSplits64Value:
		tokens := make([]common.TokenID, 0, len(splits))
		for token := range splits {
			tokens = append(tokens, token)
		}
		sort.Slice(tokens, func(i, j int) bool { return tokens[i] < tokens[j] })
		for _, token := range tokens {
			if err := run(token, Multiplier{IsFrac: true, Frac: splits[token]}); err != nil {
				return err
			}
		}
	}
	return e.attrs.Delete(attributes.SplitKey(height))
}

func (e *Engine) performSplit(oldID common.TokenID, mult Multiplier, height uint32) error {
	oldToken, err := e.view.GetToken(oldID)
	if err != nil {
		return err
	}
	e.logger.Info(
		"performing token split",
		"token", oldID,
		"symbol", oldToken.Symbol,
	)

	// 1. Refund every queued futures intent touching the token
	if err := e.futures.RefundTokenSplitFutures(oldID); err != nil {
		return err
	}

	// 2. Destroy the old token and create its successor
	newID, err := e.replaceToken(oldID, oldToken, height)
	if err != nil {
		return err
	}

	// 3+4. Rewrite attributes keyed on the old id and link the lineage
	if err := e.migrateAttributes(oldID, newID, height); err != nil {
		return err
	}

	// 5. Consolidate pending pool rewards for every holder of the token
	if err := e.consolidateRewards(oldID, height); err != nil {
		return err
	}

	// 6. Migrate plain balances
	minted, err := e.migrateBalances(oldID, newID, mult)
	if err != nil {
		return err
	}

	// Reissue every pool containing the token
	poolMinted, err := e.migratePools(oldID, newID, mult, height)
	if err != nil {
		return err
	}
	minted += poolMinted

	// 7. Rewrite vault loans, interest rows, auction batches and bids
	if err := e.migrateVaults(oldID, newID, mult, height); err != nil {
		return err
	}

	// 8. The successor's minted supply equals holders plus pool reserves
	newToken, err := e.view.GetToken(newID)
	if err != nil {
		return err
	}
	newToken.Minted = minted
	if err := e.view.SetToken(newID, newToken); err != nil {
		return err
	}

	// 9. Move the lock flag to the successor
	if err := e.attrs.Delete(attributes.LockKey(oldID)); err != nil {
		return err
	}
	return e.attrs.Set(attributes.LockKey(newID), attributes.BoolValue(true))
}

// highestSymbolVersion finds the highest /vN successor version recorded
// for a base symbol
func (e *Engine) highestSymbolVersion(base string) (int, error) {
	highest := 0
	err := e.view.ForEachToken(func(_ common.TokenID, token *state.Token) bool {
		if strings.HasPrefix(token.Symbol, base+"/v") {
			var version int
			if _, err := fmt.Sscanf(token.Symbol[len(base):], "/v%d", &version); err == nil && version > highest {
				highest = version
			}
		}
		return true
	})
	return highest, err
}

// retireTokenSymbol frees a token's symbol by renaming it with the next
// /vN suffix
func (e *Engine) retireTokenSymbol(id common.TokenID) error {
	token, err := e.view.GetToken(id)
	if err != nil {
		return err
	}
	base := token.Symbol
	if idx := strings.Index(base, "/v"); idx >= 0 {
		base = base[:idx]
	}
	highest, err := e.highestSymbolVersion(base)
	if err != nil {
		return err
	}
	retired := state.NextSplitSymbol(base, highest)
	if err := e.view.EraseTokenSymbol(token.Symbol); err != nil {
		return err
	}
	token.Symbol = retired
	if err := e.view.SetToken(id, token); err != nil {
		return err
	}
	return e.view.SetTokenSymbol(retired, id)
}

// replaceToken renames the destroyed predecessor with a /vN suffix and
// creates the successor under the original symbol
func (e *Engine) replaceToken(oldID common.TokenID, oldToken *state.Token, height uint32) (common.TokenID, error) {
	base := oldToken.Symbol
	if idx := strings.Index(base, "/v"); idx >= 0 {
		base = base[:idx]
	}
	highest, err := e.highestSymbolVersion(base)
	if err != nil {
		return 0, err
	}
	retired := state.NextSplitSymbol(base, highest)
	if err := e.view.EraseTokenSymbol(oldToken.Symbol); err != nil {
		return 0, err
	}
	oldToken.Symbol = retired
	oldToken.DestructionHeight = height
	oldToken.Flags &^= state.TokenFlagMintable | state.TokenFlagTradeable
	if err := e.view.SetToken(oldID, oldToken); err != nil {
		return 0, err
	}
	if err := e.view.SetTokenSymbol(retired, oldID); err != nil {
		return 0, err
	}
	newToken := &state.Token{
		Symbol:         base,
		Name:           oldToken.Name,
		CreationTx:     oldToken.CreationTx,
		CreationHeight: height,
		Flags:          oldToken.Flags | state.TokenFlagMintable | state.TokenFlagTradeable,
	}
	return e.view.CreateToken(newToken)
}

// migrateAttributes copies every attribute keyed on the old token to the
// new id and records the ascendant/descendant lineage
func (e *Engine) migrateAttributes(oldID, newID common.TokenID, height uint32) error {
	type moved struct {
		old attributes.Key
		new attributes.Key
		val attributes.Value
	}
	var moves []moved
	err := e.attrs.ForEach(func(k attributes.Key, v attributes.Value) bool {
		if k.Type == attributes.TypeToken && k.TypeID == uint32(oldID) {
			nk := k
			nk.TypeID = uint32(newID)
			moves = append(moves, moved{old: k, new: nk, val: v})
		} else if k.Type == attributes.TypeToken && k.SubID == uint32(oldID) {
			nk := k
			nk.SubID = uint32(newID)
			moves = append(moves, moved{old: k, new: nk, val: v})
		}
		return true
	})
	if err != nil {
		return err
	}
	for _, m := range moves {
		if err := e.attrs.Delete(m.old); err != nil {
			return err
		}
		if err := e.attrs.Set(m.new, m.val); err != nil {
			return err
		}
	}
	if err := e.attrs.Set(
		attributes.TokenKey(newID, attributes.TokenAscendant),
		attributes.RefValue{Token: oldID, Tag: "split"},
	); err != nil {
		return err
	}
	return e.attrs.Set(
		attributes.TokenKey(oldID, attributes.TokenDescendant),
		attributes.RefValue{Token: newID, Height: height},
	)
}

// migrateBalances rewrites every holder balance and returns the migrated
// total for the minted-supply adjustment
func (e *Engine) migrateBalances(oldID, newID common.TokenID, mult Multiplier) (common.Amount, error) {
	type holding struct {
		owner  common.Script
		amount common.Amount
	}
	var holders []holding
	err := e.view.ForEachBalance(func(owner common.Script, token common.TokenID, amount common.Amount) bool {
		if token == oldID {
			holders = append(holders, holding{owner: owner, amount: amount})
		}
		return true
	})
	if err != nil {
		return 0, err
	}
	var minted common.Amount
	for _, h := range holders {
		if err := e.view.SubBalance(h.owner, common.TokenAmount{Token: oldID, Amount: h.amount}); err != nil {
			return 0, err
		}
		scaled := mult.Apply(h.amount)
		if scaled > 0 {
			if err := e.view.AddBalance(h.owner, common.TokenAmount{Token: newID, Amount: scaled}); err != nil {
				return 0, err
			}
			minted += scaled
		}
	}
	return minted, nil
}

// migrateVaults scales loans and interest snapshots and rewrites auction
// batches and bids referencing the old token
func (e *Engine) migrateVaults(oldID, newID common.TokenID, mult Multiplier, height uint32) error {
	var vaultIDs []common.VaultID
	err := e.view.ForEachVault(func(id common.VaultID, _ *state.Vault) bool {
		vaultIDs = append(vaultIDs, id)
		return true
	})
	if err != nil {
		return err
	}
	for _, vaultID := range vaultIDs {
		loans, err := e.view.GetVaultLoans(vaultID)
		if err != nil {
			return err
		}
		if amount, ok := loans[oldID]; ok {
			delete(loans, oldID)
			if scaled := mult.Apply(amount); scaled > 0 {
				loans[newID] = scaled
			}
			if err := e.view.SetVaultLoans(vaultID, loans); err != nil {
				return err
			}
		}
		row, err := e.view.GetVaultInterest(vaultID, oldID)
		if err != nil {
			return err
		}
		if row != nil {
			if err := e.view.DeleteVaultInterest(vaultID, oldID); err != nil {
				return err
			}
			if !mult.IsFrac {
				row.PerBlock = row.PerBlock.ScaleMultiplier(mult.Int)
				row.ToHeight = row.ToHeight.ScaleMultiplier(mult.Int)
			} else {
				per, _ := row.PerBlock.ToSatoshisCeil()
				to, _ := row.ToHeight.ToSatoshisCeil()
				row.PerBlock = common.InterestFromAmount(mult.Apply(per))
				row.ToHeight = common.InterestFromAmount(mult.Apply(to))
			}
			row.Height = height
			if err := e.view.SetVaultInterest(vaultID, newID, row); err != nil {
				return err
			}
		}
		// Auction batches and bids follow the loan token
		auction, err := e.view.GetAuction(vaultID)
		if err != nil {
			continue
		}
		for index := uint32(0); index < auction.BatchCount; index++ {
			batch, err := e.view.GetAuctionBatch(vaultID, index)
			if err != nil {
				return err
			}
			changed := false
			if batch.LoanToken == oldID {
				batch.LoanToken = newID
				batch.LoanAmount = mult.Apply(batch.LoanAmount)
				batch.LoanInterest = mult.Apply(batch.LoanInterest)
				changed = true
			}
			if amount, ok := batch.Collaterals[oldID]; ok {
				delete(batch.Collaterals, oldID)
				if scaled := mult.Apply(amount); scaled > 0 {
					batch.Collaterals[newID] = scaled
				}
				changed = true
			}
			if changed {
				if err := e.view.SetAuctionBatch(vaultID, index, batch); err != nil {
					return err
				}
			}
			bid, err := e.view.GetAuctionBid(vaultID, index)
			if err != nil {
				return err
			}
			if bid != nil && bid.Bid.Token == oldID {
				bid.Bid.Token = newID
				bid.Bid.Amount = mult.Apply(bid.Bid.Amount)
				if err := e.view.SetAuctionBid(vaultID, index, bid); err != nil {
					return err
				}
			}
		}
	}
	return nil
}
