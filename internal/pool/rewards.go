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
	"log/slog"
	"math"

	"github.com/blinklabs-io/naiad/internal/common"
	"github.com/blinklabs-io/naiad/internal/state"

	"github.com/holiman/uint256"
)

func rewardTokens(pool *state.PoolPair) []common.TokenID {
	tokens := []common.TokenID{common.TokenIDNative}
	tokens = append(tokens, common.Balances(pool.CustomRewards).SortedTokens()...)
	return tokens
}

// DistributeRewards pays the per-block pool rewards by advancing each
// pool's cumulative reward index. Owner credit is deferred until the owner
// next settles (CalculateOwnerRewards).
func (e *Engine) DistributeRewards(height uint32, loanRewardsActive bool, logger *slog.Logger) error {
	incentiveFund, err := e.view.GetCommunityBalance(state.CommunityIncentiveFunding)
	if err != nil {
		return err
	}
	loanFund, err := e.view.GetCommunityBalance(state.CommunityLoan)
	if err != nil {
		return err
	}
	var pools []struct {
		id   common.TokenID
		pool *state.PoolPair
	}
	err = e.view.ForEachPoolPair(func(id common.TokenID, pool *state.PoolPair) bool {
		pools = append(pools, struct {
			id   common.TokenID
			pool *state.PoolPair
		}{id, pool})
		return true
	})
	if err != nil {
		return err
	}
	var distributedIncentive, distributedLoan common.Amount
	for _, entry := range pools {
		id, pool := entry.id, entry.pool
		if pool.TotalLiquidity <= 0 || pool.RewardPct <= 0 {
			continue
		}
		baseReward, err := common.MulDiv(incentiveFund, pool.RewardPct, common.COIN)
		if err != nil {
			return err
		}
		reward := baseReward
		var loanReward common.Amount
		if loanRewardsActive {
			loanReward, err = common.MulDiv(loanFund, pool.RewardPct, common.COIN)
			if err != nil {
				return err
			}
			reward += loanReward
		}
		// Never overdraw the funding sources; log the shortfall instead
		if distributedIncentive+baseReward > incentiveFund {
			logger.Warn(
				"pool reward shortfall",
				"pool", id,
				"available", (incentiveFund - distributedIncentive).String(),
				"required", baseReward.String(),
			)
			continue
		}
		if reward > 0 {
			if err := e.advanceIndex(id, common.TokenIDNative, reward, pool.TotalLiquidity); err != nil {
				return err
			}
			distributedIncentive += baseReward
			distributedLoan += loanReward
		}
		// Custom rewards come out of the pool owner's balance
		for _, rewardToken := range common.Balances(pool.CustomRewards).SortedTokens() {
			perBlock := pool.CustomRewards[rewardToken]
			ownerBalance, err := e.view.GetBalance(pool.OwnerAddress, rewardToken)
			if err != nil {
				return err
			}
			if ownerBalance < perBlock {
				logger.Warn(
					"custom pool reward unfunded",
					"pool", id,
					"token", rewardToken,
					"available", ownerBalance.String(),
				)
				continue
			}
			if err := e.view.SubBalance(pool.OwnerAddress, common.TokenAmount{Token: rewardToken, Amount: perBlock}); err != nil {
				return err
			}
			if err := e.advanceIndex(id, rewardToken, perBlock, pool.TotalLiquidity); err != nil {
				return err
			}
		}
	}
	if distributedIncentive > 0 {
		if err := e.view.AddCommunityBalance(state.CommunityIncentiveFunding, -distributedIncentive); err != nil {
			return err
		}
	}
	if distributedLoan > 0 {
		if err := e.view.AddCommunityBalance(state.CommunityLoan, -distributedLoan); err != nil {
			return err
		}
	}
	return nil
}

// advanceIndex folds reward*COIN/totalLiquidity into the pool's cumulative
// index for a reward token, using 128-bit intermediates
func (e *Engine) advanceIndex(poolID, rewardToken common.TokenID, reward, totalLiquidity common.Amount) error {
	index, err := e.view.GetPoolRewardIndex(poolID, rewardToken)
	if err != nil {
		return err
	}
	delta := new(uint256.Int).Mul(
		uint256.NewInt(uint64(reward)),
		uint256.NewInt(uint64(common.COIN)),
	)
	delta.Div(delta, uint256.NewInt(uint64(totalLiquidity)))
	index.Add(index, delta)
	return e.view.SetPoolRewardIndex(poolID, rewardToken, index)
}

// CalculateOwnerRewards materializes the owner's accrued pool rewards for
// every share the owner holds, advancing the share's settled indexes.
func (e *Engine) CalculateOwnerRewards(owner common.Script, upTo uint32) error {
	type poolEntry struct {
		id    common.TokenID
		pool  *state.PoolPair
		share *state.PoolShare
	}
	var entries []poolEntry
	err := e.view.ForEachPoolPair(func(id common.TokenID, pool *state.PoolPair) bool {
		share, err := e.view.GetPoolShare(id, owner)
		if err != nil || share == nil {
			return true
		}
		entries = append(entries, poolEntry{id: id, pool: pool, share: share})
		return true
	})
	if err != nil {
		return err
	}
	for _, entry := range entries {
		balance, err := e.view.GetBalance(owner, entry.id)
		if err != nil {
			return err
		}
		if balance > 0 {
			for _, rewardToken := range rewardTokens(entry.pool) {
				current, err := e.view.GetPoolRewardIndex(entry.id, rewardToken)
				if err != nil {
					return err
				}
				last := new(uint256.Int)
				if raw, ok := entry.share.Indexes[rewardToken]; ok {
					last.SetBytes(raw)
				}
				if current.Cmp(last) <= 0 {
					continue
				}
				accrued := new(uint256.Int).Sub(current, last)
				accrued.Mul(accrued, uint256.NewInt(uint64(balance)))
				accrued.Div(accrued, uint256.NewInt(uint64(common.COIN)))
				if accrued.IsZero() {
					continue
				}
				if !accrued.IsUint64() || accrued.Uint64() > uint64(math.MaxInt64) {
					return common.ErrAmountOverflow
				}
				if err := e.view.AddBalance(owner, common.TokenAmount{
					Token:  rewardToken,
					Amount: common.Amount(accrued.Uint64()),
				}); err != nil {
					return err
				}
			}
		}
		entry.share.Height = upTo
		if err := e.snapshotIndexes(entry.id, entry.share); err != nil {
			return err
		}
		if err := e.view.SetPoolShare(entry.id, owner, entry.share); err != nil {
			return err
		}
	}
	return nil
}
