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
	"runtime"
	"sort"

	"github.com/blinklabs-io/naiad/internal/common"
	"github.com/blinklabs-io/naiad/internal/pool"
	"github.com/blinklabs-io/naiad/internal/state"
	"github.com/blinklabs-io/naiad/internal/storage"

	"golang.org/x/sync/errgroup"
)

func splitWorkers() int {
	n := runtime.NumCPU() - 1
	if n < 3 {
		n = 3
	}
	return n
}

// consolidateRewards settles pending pool rewards for every holder of the
// token. Workers compute each owner's settlement in a private child
// overlay; the merge flushes overlays in submission order so the result is
// deterministic regardless of scheduling.
func (e *Engine) consolidateRewards(token common.TokenID, height uint32) error {
	ownerSet := make(map[string]common.Script)
	err := e.view.ForEachBalance(func(owner common.Script, balToken common.TokenID, _ common.Amount) bool {
		if balToken == token {
			ownerSet[owner.String()] = append(common.Script{}, owner...)
		}
		return true
	})
	if err != nil {
		return err
	}
	// Holders of pools containing the token settle too, since their LP
	// positions are about to be dismantled
	err = e.view.ForEachPoolPair(func(id common.TokenID, p *state.PoolPair) bool {
		if p.TokenA != token && p.TokenB != token {
			return true
		}
		_ = e.view.ForEachPoolShare(id, func(owner common.Script, _ *state.PoolShare) bool {
			ownerSet[owner.String()] = append(common.Script{}, owner...)
			return true
		})
		return true
	})
	if err != nil {
		return err
	}
	owners := make([]common.Script, 0, len(ownerSet))
	for _, owner := range ownerSet {
		owners = append(owners, owner)
	}
	sort.Slice(owners, func(i, j int) bool {
		return owners[i].String() < owners[j].String()
	})
	if len(owners) == 0 {
		return nil
	}

	overlays := make([]*storage.Overlay, len(owners))
	var group errgroup.Group
	group.SetLimit(splitWorkers())
	for i, owner := range owners {
		group.Go(func() error {
			child, overlay := e.view.Child()
			if err := pool.New(child).CalculateOwnerRewards(owner, height); err != nil {
				return err
			}
			overlays[i] = overlay
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return err
	}
	// Flush in submission order
	for i, overlay := range overlays {
		if overlay == nil {
			continue
		}
		if err := overlay.Flush(); err != nil {
			return err
		}
		if (i+1)%1000 == 0 {
			e.logger.Info(
				"reward consolidation progress",
				"done", i+1,
				"total", len(owners),
			)
		}
	}
	return nil
}

// migratePools reissues every pool containing the token: holders are
// withdrawn largest-LP-first, the old-token side is scaled, and the
// position re-added to the successor pool. Holders whose re-add would fail
// keep the two underlying amounts as plain balances.
func (e *Engine) migratePools(oldID, newID common.TokenID, mult Multiplier, height uint32) (common.Amount, error) {
	type affectedPool struct {
		id   common.TokenID
		pool *state.PoolPair
	}
	var affected []affectedPool
	err := e.view.ForEachPoolPair(func(id common.TokenID, p *state.PoolPair) bool {
		if p.TokenA == oldID || p.TokenB == oldID {
			affected = append(affected, affectedPool{id: id, pool: p})
		}
		return true
	})
	if err != nil {
		return 0, err
	}
	var totalReserve common.Amount
	for _, entry := range affected {
		reserve, err := e.migratePool(entry.id, entry.pool, oldID, newID, mult, height)
		if err != nil {
			return 0, err
		}
		totalReserve += reserve
	}
	return totalReserve, nil
}

func (e *Engine) migratePool(oldPoolID common.TokenID, oldPool *state.PoolPair, oldID, newID common.TokenID, mult Multiplier, height uint32) (common.Amount, error) {
	// Free the LP symbol so the successor pool can claim it
	if err := e.retireTokenSymbol(oldPoolID); err != nil {
		return 0, err
	}
	// Successor pool keeps the surviving side and takes the new token
	newPair := &state.PoolPair{
		TokenA:         oldPool.TokenA,
		TokenB:         oldPool.TokenB,
		Commission:     oldPool.Commission,
		RewardPct:      oldPool.RewardPct,
		CustomRewards:  oldPool.CustomRewards,
		Status:         oldPool.Status,
		OwnerAddress:   oldPool.OwnerAddress,
		CreationTx:     oldPool.CreationTx,
		CreationHeight: height,
	}
	if newPair.TokenA == oldID {
		newPair.TokenA = newID
	}
	if newPair.TokenB == oldID {
		newPair.TokenB = newID
	}
	newPoolID, err := e.pools.CreatePoolPair(newPair, "")
	if err != nil {
		return 0, err
	}

	// Collect holders, largest LP position first with owner order as the
	// deterministic tie-break
	type lpHolding struct {
		owner   common.Script
		balance common.Amount
	}
	var holders []lpHolding
	err = e.view.ForEachPoolShare(oldPoolID, func(owner common.Script, _ *state.PoolShare) bool {
		balance, err := e.view.GetBalance(owner, oldPoolID)
		if err == nil && balance > 0 {
			holders = append(holders, lpHolding{owner: append(common.Script{}, owner...), balance: balance})
		}
		return true
	})
	if err != nil {
		return 0, err
	}
	sort.SliceStable(holders, func(i, j int) bool {
		if holders[i].balance != holders[j].balance {
			return holders[i].balance > holders[j].balance
		}
		return holders[i].owner.String() < holders[j].owner.String()
	})

	for _, holder := range holders {
		outA, outB, err := e.pools.RemoveLiquidity(
			holder.owner,
			common.TokenAmount{Token: oldPoolID, Amount: holder.balance},
			height,
		)
		if err != nil {
			return 0, err
		}
		// Scale the old-token side before the re-add
		for _, out := range []*common.TokenAmount{&outA, &outB} {
			if out.Token == oldID {
				if err := e.view.SubBalance(holder.owner, *out); err != nil {
					return 0, err
				}
				out.Token = newID
				out.Amount = mult.Apply(out.Amount)
				if out.Amount > 0 {
					if err := e.view.AddBalance(holder.owner, *out); err != nil {
						return 0, err
					}
				}
			}
		}
		if outA.Amount > 0 && outB.Amount > 0 {
			if _, err := e.pools.AddLiquidity(holder.owner, holder.owner, outA, outB, height); err == nil {
				continue
			}
		}
		// The re-add failed (dust); the holder keeps the plain balances
		e.logger.Debug(
			"pool migration left underlying balances",
			"pool", oldPoolID,
			"owner", holder.owner.String(),
		)
	}

	// Dismantle the old pool and retire its LP token
	if err := e.view.DeletePoolRewardIndexes(oldPoolID); err != nil {
		return 0, err
	}
	if err := e.view.DeletePoolPair(oldPoolID); err != nil {
		return 0, err
	}
	lpToken, err := e.view.GetToken(oldPoolID)
	if err == nil {
		lpToken.DestructionHeight = height
		if err := e.view.SetToken(oldPoolID, lpToken); err != nil {
			return 0, err
		}
	}
	newPool, err := e.view.GetPoolPair(newPoolID)
	if err != nil {
		return 0, err
	}
	if newPool.TokenA == newID {
		return newPool.ReserveA, nil
	}
	return newPool.ReserveB, nil
}
