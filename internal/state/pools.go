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

	"github.com/holiman/uint256"
)

// PoolPair is the AMM pool registry entry, identified by its LP-share token
type PoolPair struct {
	TokenA           common.TokenID
	TokenB           common.TokenID
	ReserveA         common.Amount
	ReserveB         common.Amount
	TotalLiquidity   common.Amount
	Commission       common.Amount
	RewardPct        common.Amount
	CustomRewards    common.Balances
	Status           bool
	OwnerAddress     common.Script
	CreationTx       common.TxID
	CreationHeight   uint32
	BlockCommissionA common.Amount
	BlockCommissionB common.Amount
}

// MinimumLiquidity is the irredeemable liquidity seeded at pool creation
const MinimumLiquidity common.Amount = 1000

// PoolShare marks LP-token ownership and records the cumulative reward
// indexes at which the owner last settled, per reward token.
type PoolShare struct {
	Height  uint32
	Indexes map[common.TokenID][]byte
}

// SetPoolPair writes a pool record
func (v *View) SetPoolPair(id common.TokenID, pool *PoolPair) error {
	return v.putRecord(poolPairKey(id), pool)
}

// GetPoolPair returns a pool by its LP token ID
func (v *View) GetPoolPair(id common.TokenID) (*PoolPair, error) {
	var pool PoolPair
	ok, err := v.getRecord(poolPairKey(id), &pool)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("pool %d: %w", id, common.ErrNotFound)
	}
	return &pool, nil
}

// DeletePoolPair removes a pool record (token-split dismantle)
func (v *View) DeletePoolPair(id common.TokenID) error {
	return v.kv.Delete(poolPairKey(id))
}

// ForEachPoolPair visits all pools in ascending LP token ID order
func (v *View) ForEachPoolPair(visitor func(id common.TokenID, pool *PoolPair) bool) error {
	return v.kv.ForEach([]byte{prefixPoolPair}, func(key, value []byte) bool {
		if len(key) != 5 {
			return true
		}
		id := common.TokenID(binary.BigEndian.Uint32(key[1:]))
		var pool PoolPair
		if err := decodeRecord(value, &pool); err != nil {
			return true
		}
		return visitor(id, &pool)
	})
}

// SetPoolShare writes a share row
func (v *View) SetPoolShare(pool common.TokenID, owner common.Script, share *PoolShare) error {
	return v.putRecord(poolShareKey(pool, owner), share)
}

// GetPoolShare returns a share row if present
func (v *View) GetPoolShare(pool common.TokenID, owner common.Script) (*PoolShare, error) {
	var share PoolShare
	ok, err := v.getRecord(poolShareKey(pool, owner), &share)
	if err != nil || !ok {
		return nil, err
	}
	return &share, nil
}

// DeletePoolShare removes a share row
func (v *View) DeletePoolShare(pool common.TokenID, owner common.Script) error {
	return v.kv.Delete(poolShareKey(pool, owner))
}

// ForEachPoolShare visits all share rows of a pool ordered by owner
func (v *View) ForEachPoolShare(pool common.TokenID, visitor func(owner common.Script, share *PoolShare) bool) error {
	prefix := appendU32([]byte{prefixPoolShare}, uint32(pool))
	return v.kv.ForEach(prefix, func(key, value []byte) bool {
		owner := common.Script(key[5:])
		var share PoolShare
		if err := decodeRecord(value, &share); err != nil {
			return true
		}
		return visitor(owner, &share)
	})
}

// ForEachPoolShareOwner visits every share row across all pools
func (v *View) ForEachPoolShareOwner(visitor func(pool common.TokenID, owner common.Script, share *PoolShare) bool) error {
	return v.kv.ForEach([]byte{prefixPoolShare}, func(key, value []byte) bool {
		if len(key) < 6 {
			return true
		}
		pool := common.TokenID(binary.BigEndian.Uint32(key[1:5]))
		owner := common.Script(key[5:])
		var share PoolShare
		if err := decodeRecord(value, &share); err != nil {
			return true
		}
		return visitor(pool, owner, &share)
	})
}

// GetPoolRewardIndex returns a pool's cumulative reward index for a reward
// token. The index accumulates COIN-scaled reward per unit of liquidity.
func (v *View) GetPoolRewardIndex(pool, rewardToken common.TokenID) (*uint256.Int, error) {
	raw, err := v.kv.Get(poolRewardIndexKey(pool, rewardToken))
	if err != nil {
		return new(uint256.Int), nil //nolint:nilerr // absent index is zero
	}
	return new(uint256.Int).SetBytes(raw), nil
}

// SetPoolRewardIndex writes a pool's cumulative reward index
func (v *View) SetPoolRewardIndex(pool, rewardToken common.TokenID, index *uint256.Int) error {
	return v.kv.Put(poolRewardIndexKey(pool, rewardToken), index.Bytes())
}

// DeletePoolRewardIndexes drops all reward indexes of a pool
func (v *View) DeletePoolRewardIndexes(pool common.TokenID) error {
	prefix := appendU32([]byte{prefixPoolRewardIndex}, uint32(pool))
	var keys [][]byte
	err := v.kv.ForEach(prefix, func(key, _ []byte) bool {
		keys = append(keys, key)
		return true
	})
	if err != nil {
		return err
	}
	for _, key := range keys {
		if err := v.kv.Delete(key); err != nil {
			return err
		}
	}
	return nil
}
