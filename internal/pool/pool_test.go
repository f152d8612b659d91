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

package pool_test

import (
	"io"
	"log/slog"
	"testing"

	"github.com/blinklabs-io/naiad/internal/common"
	"github.com/blinklabs-io/naiad/internal/pool"
	"github.com/blinklabs-io/naiad/internal/state"
	"github.com/blinklabs-io/naiad/internal/storage"

	"github.com/holiman/uint256"
)

var (
	alice = common.Script("alice")
	lp    = common.Script("lp")
)

func newTestEngine(t *testing.T) (*pool.Engine, *state.View, common.TokenID) {
	t.Helper()
	view := state.NewView(storage.NewMemStore())
	engine := pool.New(view)
	for _, spec := range []struct{ symbol, name string }{
		{"GOLD", "Gold"},
		{"SILVER", "Silver"},
	} {
		_, err := view.CreateToken(&state.Token{
			Symbol: spec.symbol,
			Name:   spec.name,
			Flags:  state.TokenFlagDAT | state.TokenFlagTradeable | state.TokenFlagMintable,
		})
		if err != nil {
			t.Fatalf("token creation failed: %s", err)
		}
	}
	poolID, err := engine.CreatePoolPair(&state.PoolPair{
		TokenA:     common.DctIDStart,
		TokenB:     common.DctIDStart + 1,
		Commission: 300000, // 0.003
		Status:     true,
	}, "")
	if err != nil {
		t.Fatalf("pool creation failed: %s", err)
	}
	return engine, view, poolID
}

func fund(t *testing.T, view *state.View, owner common.Script, token common.TokenID, amount common.Amount) {
	t.Helper()
	if err := view.AddBalance(owner, common.TokenAmount{Token: token, Amount: amount}); err != nil {
		t.Fatalf("funding failed: %s", err)
	}
}

func TestAddLiquiditySeedsMinimum(t *testing.T) {
	engine, view, poolID := newTestEngine(t)
	fund(t, view, lp, common.DctIDStart, 500*common.COIN)
	fund(t, view, lp, common.DctIDStart+1, 500*common.COIN)
	liq, err := engine.AddLiquidity(
		lp, lp,
		common.TokenAmount{Token: common.DctIDStart, Amount: 500 * common.COIN},
		common.TokenAmount{Token: common.DctIDStart + 1, Amount: 500 * common.COIN},
		10,
	)
	if err != nil {
		t.Fatalf("add liquidity failed: %s", err)
	}
	expected := 500*common.COIN - state.MinimumLiquidity
	if liq != expected {
		t.Errorf("minted liquidity %d, expected %d", liq, expected)
	}
	pair, err := view.GetPoolPair(poolID)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if pair.TotalLiquidity != 500*common.COIN {
		t.Errorf("total liquidity %d, expected %d", pair.TotalLiquidity, 500*common.COIN)
	}
	// A share row exists for the LP holder
	share, err := view.GetPoolShare(poolID, lp)
	if err != nil || share == nil {
		t.Errorf("missing pool share row: %v", err)
	}
}

func TestSimpleSwapScenario(t *testing.T) {
	engine, view, poolID := newTestEngine(t)
	fund(t, view, lp, common.DctIDStart, 500*common.COIN)
	fund(t, view, lp, common.DctIDStart+1, 500*common.COIN)
	if _, err := engine.AddLiquidity(
		lp, lp,
		common.TokenAmount{Token: common.DctIDStart, Amount: 500 * common.COIN},
		common.TokenAmount{Token: common.DctIDStart + 1, Amount: 500 * common.COIN},
		10,
	); err != nil {
		t.Fatalf("add liquidity failed: %s", err)
	}
	fund(t, view, alice, common.DctIDStart, 1000*common.COIN)

	before, _ := view.GetPoolPair(poolID)
	out, err := engine.Swap(
		alice, alice,
		common.TokenAmount{Token: common.DctIDStart, Amount: 100 * common.COIN},
		[]common.TokenID{poolID},
		pool.MaxPrice{Integer: 2},
	)
	if err != nil {
		t.Fatalf("swap failed: %s", err)
	}

	// alice lost exactly 100 GOLD
	balance, err := view.GetBalance(alice, common.DctIDStart)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if balance != 900*common.COIN {
		t.Errorf("alice GOLD balance %s, expected 900", balance)
	}
	// and gained the computed SILVER output
	gained, err := view.GetBalance(alice, common.DctIDStart+1)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if gained != out.Amount || gained <= 0 {
		t.Errorf("alice SILVER balance %s, expected %s", gained, out.Amount)
	}

	after, _ := view.GetPoolPair(poolID)
	// Commission accumulator took 0.3 GOLD off the input
	if after.BlockCommissionA != 30000000 {
		t.Errorf("commission accumulator %d, expected 30000000", after.BlockCommissionA)
	}
	// Constant product never decreases
	kBefore := new(uint256.Int).Mul(
		uint256.NewInt(uint64(before.ReserveA)),
		uint256.NewInt(uint64(before.ReserveB)),
	)
	kAfter := new(uint256.Int).Mul(
		uint256.NewInt(uint64(after.ReserveA)),
		uint256.NewInt(uint64(after.ReserveB)),
	)
	if kAfter.Cmp(kBefore) < 0 {
		t.Errorf("constant product decreased: %s < %s", kAfter, kBefore)
	}
	// Reserves moved in the expected directions
	if after.ReserveA <= before.ReserveA || after.ReserveB >= before.ReserveB {
		t.Error("reserves did not move with the swap")
	}
}

func TestSwapRejectsBadPrice(t *testing.T) {
	engine, view, poolID := newTestEngine(t)
	fund(t, view, lp, common.DctIDStart, 500*common.COIN)
	fund(t, view, lp, common.DctIDStart+1, 500*common.COIN)
	if _, err := engine.AddLiquidity(
		lp, lp,
		common.TokenAmount{Token: common.DctIDStart, Amount: 500 * common.COIN},
		common.TokenAmount{Token: common.DctIDStart + 1, Amount: 500 * common.COIN},
		10,
	); err != nil {
		t.Fatalf("add liquidity failed: %s", err)
	}
	fund(t, view, alice, common.DctIDStart, 1000*common.COIN)
	// A max price of zero cannot be satisfied
	_, err := engine.Swap(
		alice, alice,
		common.TokenAmount{Token: common.DctIDStart, Amount: 100 * common.COIN},
		[]common.TokenID{poolID},
		pool.MaxPrice{},
	)
	if err == nil {
		t.Error("expected price rejection")
	}
}

func TestRemoveLiquidityProportional(t *testing.T) {
	engine, view, poolID := newTestEngine(t)
	fund(t, view, lp, common.DctIDStart, 400*common.COIN)
	fund(t, view, lp, common.DctIDStart+1, 100*common.COIN)
	liq, err := engine.AddLiquidity(
		lp, lp,
		common.TokenAmount{Token: common.DctIDStart, Amount: 400 * common.COIN},
		common.TokenAmount{Token: common.DctIDStart + 1, Amount: 100 * common.COIN},
		10,
	)
	if err != nil {
		t.Fatalf("add liquidity failed: %s", err)
	}
	outA, outB, err := engine.RemoveLiquidity(
		lp,
		common.TokenAmount{Token: poolID, Amount: liq / 2},
		20,
	)
	if err != nil {
		t.Fatalf("remove liquidity failed: %s", err)
	}
	// Ratio of returned amounts matches the reserve ratio
	if outA.Amount/outB.Amount != 4 {
		t.Errorf("proportions off: %s vs %s", outA.Amount, outB.Amount)
	}
}

func TestRewardDistributionAndSettle(t *testing.T) {
	engine, view, poolID := newTestEngine(t)
	fund(t, view, lp, common.DctIDStart, 500*common.COIN)
	fund(t, view, lp, common.DctIDStart+1, 500*common.COIN)
	if _, err := engine.AddLiquidity(
		lp, lp,
		common.TokenAmount{Token: common.DctIDStart, Amount: 500 * common.COIN},
		common.TokenAmount{Token: common.DctIDStart + 1, Amount: 500 * common.COIN},
		10,
	); err != nil {
		t.Fatalf("add liquidity failed: %s", err)
	}
	pair, _ := view.GetPoolPair(poolID)
	pair.RewardPct = common.COIN // 100% of the fund
	if err := view.SetPoolPair(poolID, pair); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if err := view.AddCommunityBalance(state.CommunityIncentiveFunding, 10*common.COIN); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	if err := engine.DistributeRewards(11, false, logger); err != nil {
		t.Fatalf("reward distribution failed: %s", err)
	}
	// The fund was drained into the pool index
	fundBalance, err := view.GetCommunityBalance(state.CommunityIncentiveFunding)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if fundBalance != 0 {
		t.Errorf("community fund %s, expected 0", fundBalance)
	}
	// Settling materializes the owner's share of the reward
	nativeBefore, _ := view.GetBalance(lp, common.TokenIDNative)
	if err := engine.CalculateOwnerRewards(lp, 12); err != nil {
		t.Fatalf("owner reward settle failed: %s", err)
	}
	nativeAfter, _ := view.GetBalance(lp, common.TokenIDNative)
	if nativeAfter <= nativeBefore {
		t.Error("owner received no reward")
	}
	// The locked minimum liquidity keeps a sliver of the reward unclaimed
	if nativeAfter > 10*common.COIN {
		t.Errorf("owner over-credited: %s", nativeAfter)
	}
}
