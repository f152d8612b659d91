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

package pool

import (
	"fmt"

	"github.com/blinklabs-io/naiad/internal/common"
	"github.com/blinklabs-io/naiad/internal/state"
)

// CreatePoolPair registers a pool for a token pair and mints its LP-share
// token. The pair is identified by the LP token's ID.
func (e *Engine) CreatePoolPair(pool *state.PoolPair, symbolOverride string) (common.TokenID, error) {
	if pool.TokenA == pool.TokenB {
		return 0, fmt.Errorf("pool tokens must differ")
	}
	tokenA, err := e.view.GetToken(pool.TokenA)
	if err != nil {
		return 0, err
	}
	tokenB, err := e.view.GetToken(pool.TokenB)
	if err != nil {
		return 0, err
	}
	if pool.Commission < 0 || pool.Commission > common.COIN {
		return 0, fmt.Errorf("commission outside [0, 1]: %s", pool.Commission)
	}
	symbol := symbolOverride
	if symbol == "" {
		symbol = tokenA.Symbol + "-" + tokenB.Symbol
		if len(symbol) > common.MaxSymbolLength {
			symbol = symbol[:common.MaxSymbolLength]
		}
	}
	lpToken := &state.Token{
		Symbol:         symbol,
		Name:           tokenA.Name + "-" + tokenB.Name,
		CreationTx:     pool.CreationTx,
		CreationHeight: pool.CreationHeight,
		Flags:          state.TokenFlagDAT | state.TokenFlagLPS | state.TokenFlagTradeable | state.TokenFlagFinalized,
	}
	id, err := e.view.CreateToken(lpToken)
	if err != nil {
		return 0, err
	}
	if err := e.view.SetPoolPair(id, pool); err != nil {
		return 0, err
	}
	return id, nil
}

// FindPoolPair returns the pool holding exactly the given token pair
func (e *Engine) FindPoolPair(tokenA, tokenB common.TokenID) (common.TokenID, *state.PoolPair, error) {
	var (
		foundID   common.TokenID
		foundPool *state.PoolPair
	)
	err := e.view.ForEachPoolPair(func(id common.TokenID, pool *state.PoolPair) bool {
		if (pool.TokenA == tokenA && pool.TokenB == tokenB) ||
			(pool.TokenA == tokenB && pool.TokenB == tokenA) {
			foundID, foundPool = id, pool
			return false
		}
		return true
	})
	if err != nil {
		return 0, nil, err
	}
	if foundPool == nil {
		return 0, nil, fmt.Errorf("pool for tokens %d, %d: %w", tokenA, tokenB, common.ErrNotFound)
	}
	return foundID, foundPool, nil
}

// AddLiquidity deposits two amounts matching a pool's pair and mints LP
// tokens to the recipient.
func (e *Engine) AddLiquidity(from, shareAddress common.Script, amountA, amountB common.TokenAmount, height uint32) (common.Amount, error) {
	if amountA.Amount <= 0 || amountB.Amount <= 0 {
		return 0, fmt.Errorf("liquidity amounts must be positive")
	}
	poolID, pool, err := e.FindPoolPair(amountA.Token, amountB.Token)
	if err != nil {
		return 0, err
	}
	if amountA.Token != pool.TokenA {
		amountA, amountB = amountB, amountA
	}
	if err := e.view.SubBalance(from, amountA); err != nil {
		return 0, err
	}
	if err := e.view.SubBalance(from, amountB); err != nil {
		return 0, err
	}

	var liquidity common.Amount
	if pool.TotalLiquidity == 0 {
		liquidity = common.Isqrt(amountA.Amount, amountB.Amount) - state.MinimumLiquidity
		// The minimum liquidity is locked forever to pin the share price
		pool.TotalLiquidity = state.MinimumLiquidity
	} else {
		liqA, err := common.MulDiv(amountA.Amount, pool.TotalLiquidity, pool.ReserveA)
		if err != nil {
			return 0, err
		}
		liqB, err := common.MulDiv(amountB.Amount, pool.TotalLiquidity, pool.ReserveB)
		if err != nil {
			return 0, err
		}
		liquidity = liqA
		if liqB < liqA {
			liquidity = liqB
		}
	}
	if liquidity <= 0 {
		return 0, fmt.Errorf("liquidity amount too small")
	}

	// Settle pending rewards before the LP balance changes
	if err := e.CalculateOwnerRewards(shareAddress, height); err != nil {
		return 0, err
	}

	pool.ReserveA += amountA.Amount
	pool.ReserveB += amountB.Amount
	pool.TotalLiquidity += liquidity
	if err := e.view.SetPoolPair(poolID, pool); err != nil {
		return 0, err
	}
	if err := e.view.AddBalance(shareAddress, common.TokenAmount{Token: poolID, Amount: liquidity}); err != nil {
		return 0, err
	}
	if err := e.view.AddMintedAmount(poolID, liquidity); err != nil {
		return 0, err
	}
	return liquidity, e.refreshPoolShare(poolID, shareAddress, height)
}

// RemoveLiquidity burns LP tokens and pays out the proportional reserves
func (e *Engine) RemoveLiquidity(owner common.Script, amount common.TokenAmount, height uint32) (common.TokenAmount, common.TokenAmount, error) {
	var none common.TokenAmount
	if amount.Amount <= 0 {
		return none, none, fmt.Errorf("liquidity amount must be positive")
	}
	poolID := amount.Token
	pool, err := e.view.GetPoolPair(poolID)
	if err != nil {
		return none, none, err
	}
	outA, err := common.MulDiv(amount.Amount, pool.ReserveA, pool.TotalLiquidity)
	if err != nil {
		return none, none, err
	}
	outB, err := common.MulDiv(amount.Amount, pool.ReserveB, pool.TotalLiquidity)
	if err != nil {
		return none, none, err
	}
	if outA <= 0 || outB <= 0 {
		return none, none, fmt.Errorf("liquidity amount too small")
	}

	// Settle pending rewards before the LP balance changes
	if err := e.CalculateOwnerRewards(owner, height); err != nil {
		return none, none, err
	}
	if err := e.view.SubBalance(owner, amount); err != nil {
		return none, none, err
	}
	if err := e.view.AddMintedAmount(poolID, -amount.Amount); err != nil {
		return none, none, err
	}
	pool.ReserveA -= outA
	pool.ReserveB -= outB
	pool.TotalLiquidity -= amount.Amount
	if err := e.view.SetPoolPair(poolID, pool); err != nil {
		return none, none, err
	}
	retA := common.TokenAmount{Token: pool.TokenA, Amount: outA}
	retB := common.TokenAmount{Token: pool.TokenB, Amount: outB}
	if err := e.view.AddBalance(owner, retA); err != nil {
		return none, none, err
	}
	if err := e.view.AddBalance(owner, retB); err != nil {
		return none, none, err
	}
	return retA, retB, e.refreshPoolShare(poolID, owner, height)
}

// SettleAndRefreshShare settles pending rewards and re-pins the owner's
// share row after an LP-token balance change outside add/remove liquidity
// (plain transfers, splits).
func (e *Engine) SettleAndRefreshShare(poolID common.TokenID, owner common.Script, height uint32) error {
	if err := e.CalculateOwnerRewards(owner, height); err != nil {
		return err
	}
	return e.refreshPoolShare(poolID, owner, height)
}

// refreshPoolShare keeps the share row in lockstep with the owner's LP
// balance: a row exists iff the balance is non-zero.
func (e *Engine) refreshPoolShare(poolID common.TokenID, owner common.Script, height uint32) error {
	balance, err := e.view.GetBalance(owner, poolID)
	if err != nil {
		return err
	}
	if balance == 0 {
		return e.view.DeletePoolShare(poolID, owner)
	}
	share, err := e.view.GetPoolShare(poolID, owner)
	if err != nil {
		return err
	}
	if share == nil {
		share = &state.PoolShare{Indexes: make(map[common.TokenID][]byte)}
	}
	share.Height = height
	if err := e.snapshotIndexes(poolID, share); err != nil {
		return err
	}
	return e.view.SetPoolShare(poolID, owner, share)
}

// snapshotIndexes records the pool's current cumulative reward indexes on
// the share row so future accrual starts from here
func (e *Engine) snapshotIndexes(poolID common.TokenID, share *state.PoolShare) error {
	pool, err := e.view.GetPoolPair(poolID)
	if err != nil {
		return err
	}
	if share.Indexes == nil {
		share.Indexes = make(map[common.TokenID][]byte)
	}
	for _, rewardToken := range rewardTokens(pool) {
		index, err := e.view.GetPoolRewardIndex(poolID, rewardToken)
		if err != nil {
			return err
		}
		share.Indexes[rewardToken] = index.Bytes()
	}
	return nil
}
