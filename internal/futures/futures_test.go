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

package futures_test

import (
	"io"
	"log/slog"
	"testing"

	"github.com/blinklabs-io/naiad/internal/attributes"
	"github.com/blinklabs-io/naiad/internal/common"
	"github.com/blinklabs-io/naiad/internal/config"
	"github.com/blinklabs-io/naiad/internal/futures"
	"github.com/blinklabs-io/naiad/internal/state"
	"github.com/blinklabs-io/naiad/internal/storage"
)

var (
	bob     = common.Script("bob")
	tslaUSD = common.CurrencyPair{Token: "TSLA", Currency: "USD"}
)

type fixture struct {
	engine *futures.Engine
	view   *state.View
	attrs  *attributes.Store
	dusd   common.TokenID
	tsla   common.TokenID
}

// newFixture enables dfip2203 with start block 100, period 20, reward 5%
func newFixture(t *testing.T) *fixture {
	t.Helper()
	view := state.NewView(storage.NewMemStore())
	cfg := &config.ChainConfig{
		BlocksPerYear:          1051200,
		BlocksPerPriceInterval: 120,
		MaxPriceDeviationPct:   30,
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	engine := futures.New(view, cfg, logger)
	attrs := attributes.NewStore(view)

	dusd, err := view.CreateToken(&state.Token{
		Symbol: "DUSD",
		Name:   "Decentralized USD",
		Flags:  state.TokenFlagDAT | state.TokenFlagLoanToken | state.TokenFlagMintable,
	})
	if err != nil {
		t.Fatalf("token creation failed: %s", err)
	}
	tsla, err := view.CreateToken(&state.Token{
		Symbol: "TSLA",
		Name:   "Tesla",
		Flags:  state.TokenFlagDAT | state.TokenFlagLoanToken | state.TokenFlagMintable,
	})
	if err != nil {
		t.Fatalf("token creation failed: %s", err)
	}
	for _, setup := range []struct {
		key attributes.Key
		val attributes.Value
	}{
		{attributes.ParamKey(attributes.ParamDFIP2203, attributes.ParamActive), attributes.BoolValue(true)},
		{attributes.ParamKey(attributes.ParamDFIP2203, attributes.ParamStartBlock), attributes.Uint64Value(100)},
		{attributes.ParamKey(attributes.ParamDFIP2203, attributes.ParamBlockPeriod), attributes.Uint64Value(20)},
		{attributes.ParamKey(attributes.ParamDFIP2203, attributes.ParamRewardPct), attributes.AmountValue(5 * common.CENT)},
		{attributes.TokenKey(tsla, attributes.TokenDFIP2203), attributes.BoolValue(true)},
		{attributes.TokenKey(tsla, attributes.TokenFixedIntervalPriceID), attributes.CurrencyPairValue(tslaUSD)},
	} {
		if err := attrs.Set(setup.key, setup.val); err != nil {
			t.Fatalf("attribute setup failed: %s", err)
		}
	}
	return &fixture{engine: engine, view: view, attrs: attrs, dusd: dusd, tsla: tsla}
}

func (f *fixture) setTSLAPrice(t *testing.T, value common.Amount) {
	t.Helper()
	err := f.view.SetFixedIntervalPrice(&state.FixedIntervalPrice{
		PriceFeedID: tslaUSD,
		Prices:      [2]common.Amount{value, value},
	})
	if err != nil {
		t.Fatalf("price setup failed: %s", err)
	}
}

func TestFutureSwapDUSDToToken(t *testing.T) {
	f := newFixture(t)
	f.setTSLAPrice(t, 10*common.COIN)
	if err := f.view.AddBalance(bob, common.TokenAmount{Token: f.dusd, Amount: 100 * common.COIN}); err != nil {
		t.Fatalf("funding failed: %s", err)
	}
	// Submitted at height 105, settles at 120
	err := f.engine.SubmitFutureSwap(bob, common.TokenAmount{
		Token:  f.dusd,
		Amount: 100 * common.COIN,
	}, f.tsla, 105, 0)
	if err != nil {
		t.Fatalf("submit failed: %s", err)
	}
	// The source is escrowed
	escrowed, _ := f.view.GetBalance(common.FutureSwapContract, f.dusd)
	if escrowed != 100*common.COIN {
		t.Errorf("escrow %s, expected 100", escrowed)
	}
	// Off-boundary heights do nothing
	if err := f.engine.ProcessFutures(119); err != nil {
		t.Fatalf("settlement failed: %s", err)
	}
	if got, _ := f.view.GetBalance(bob, f.tsla); got != 0 {
		t.Error("settled before the boundary")
	}
	if err := f.engine.ProcessFutures(120); err != nil {
		t.Fatalf("settlement failed: %s", err)
	}
	// 100 / (10.00 * 1.05) = 9.52380952
	got, _ := f.view.GetBalance(bob, f.tsla)
	if got != 952380952 {
		t.Errorf("settled TSLA %d, expected 952380952", got)
	}
	// Economy counters moved
	burned, _, err := f.attrs.Get(attributes.EconKey(attributes.EconDFIP2203Burned))
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if balances, ok := burned.(attributes.BalancesValue); !ok ||
		common.Balances(balances)[f.dusd] != 100*common.COIN {
		t.Errorf("burned counter %#v", burned)
	}
	// The queue entry is gone
	count := 0
	_ = f.view.ForEachFuturesEntry(func(state.FuturesUserKey, *state.FuturesEntry) bool {
		count++
		return true
	})
	if count != 0 {
		t.Errorf("queue not drained: %d entries", count)
	}
}

func TestFutureSwapTokenToDUSD(t *testing.T) {
	f := newFixture(t)
	f.setTSLAPrice(t, 10*common.COIN)
	if err := f.view.AddBalance(bob, common.TokenAmount{Token: f.tsla, Amount: 2 * common.COIN}); err != nil {
		t.Fatalf("funding failed: %s", err)
	}
	err := f.engine.SubmitFutureSwap(bob, common.TokenAmount{
		Token:  f.tsla,
		Amount: 2 * common.COIN,
	}, f.dusd, 105, 0)
	if err != nil {
		t.Fatalf("submit failed: %s", err)
	}
	if err := f.engine.ProcessFutures(120); err != nil {
		t.Fatalf("settlement failed: %s", err)
	}
	// 2 * 10.00 * 0.95 = 19
	got, _ := f.view.GetBalance(bob, f.dusd)
	if got != 19*common.COIN {
		t.Errorf("settled DUSD %s, expected 19", got)
	}
}

func TestFutureSwapRefundWithoutLivePrice(t *testing.T) {
	f := newFixture(t)
	// Deviating price: not live
	err := f.view.SetFixedIntervalPrice(&state.FixedIntervalPrice{
		PriceFeedID: tslaUSD,
		Prices:      [2]common.Amount{10 * common.COIN, 20 * common.COIN},
	})
	if err != nil {
		t.Fatalf("price setup failed: %s", err)
	}
	if err := f.view.AddBalance(bob, common.TokenAmount{Token: f.dusd, Amount: 100 * common.COIN}); err != nil {
		t.Fatalf("funding failed: %s", err)
	}
	err = f.engine.SubmitFutureSwap(bob, common.TokenAmount{
		Token:  f.dusd,
		Amount: 100 * common.COIN,
	}, f.tsla, 105, 0)
	if err != nil {
		t.Fatalf("submit failed: %s", err)
	}
	if err := f.engine.ProcessFutures(120); err != nil {
		t.Fatalf("settlement failed: %s", err)
	}
	// The intent was refunded, not settled
	refunded, _ := f.view.GetBalance(bob, f.dusd)
	if refunded != 100*common.COIN {
		t.Errorf("refund %s, expected 100", refunded)
	}
	if got, _ := f.view.GetBalance(bob, f.tsla); got != 0 {
		t.Error("no TSLA should be minted without a live price")
	}
}

func TestWithdrawFutureSwap(t *testing.T) {
	f := newFixture(t)
	f.setTSLAPrice(t, 10*common.COIN)
	if err := f.view.AddBalance(bob, common.TokenAmount{Token: f.dusd, Amount: 100 * common.COIN}); err != nil {
		t.Fatalf("funding failed: %s", err)
	}
	err := f.engine.SubmitFutureSwap(bob, common.TokenAmount{
		Token:  f.dusd,
		Amount: 100 * common.COIN,
	}, f.tsla, 105, 0)
	if err != nil {
		t.Fatalf("submit failed: %s", err)
	}
	// Partial withdrawal shrinks the queued intent
	err = f.engine.WithdrawFutureSwap(bob, common.TokenAmount{
		Token:  f.dusd,
		Amount: 40 * common.COIN,
	}, f.tsla)
	if err != nil {
		t.Fatalf("withdraw failed: %s", err)
	}
	balance, _ := f.view.GetBalance(bob, f.dusd)
	if balance != 40*common.COIN {
		t.Errorf("owner balance %s after withdrawal, expected 40", balance)
	}
	// Over-withdrawal is rejected
	err = f.engine.WithdrawFutureSwap(bob, common.TokenAmount{
		Token:  f.dusd,
		Amount: 61 * common.COIN,
	}, f.tsla)
	if err == nil {
		t.Error("withdrawal above the queued amount should fail")
	}
}

func TestSubmitRequiresActive(t *testing.T) {
	f := newFixture(t)
	key := attributes.ParamKey(attributes.ParamDFIP2203, attributes.ParamActive)
	if err := f.attrs.Set(key, attributes.BoolValue(false)); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	err := f.engine.SubmitFutureSwap(bob, common.TokenAmount{
		Token:  f.dusd,
		Amount: common.COIN,
	}, f.tsla, 105, 0)
	if err == nil {
		t.Error("submit should fail while inactive")
	}
}
