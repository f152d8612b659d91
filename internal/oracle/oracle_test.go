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

package oracle_test

import (
	"testing"

	"github.com/blinklabs-io/naiad/internal/common"
	"github.com/blinklabs-io/naiad/internal/config"
	"github.com/blinklabs-io/naiad/internal/oracle"
	"github.com/blinklabs-io/naiad/internal/state"
	"github.com/blinklabs-io/naiad/internal/storage"
)

var tslaUSD = common.CurrencyPair{Token: "TSLA", Currency: "USD"}

func testConfig() *config.ChainConfig {
	return &config.ChainConfig{
		BlocksPerPriceInterval: 120,
		OracleFreshnessSeconds: 3600,
		MinOracleFeeders:       2,
		MaxPriceDeviationPct:   30,
	}
}

func newEngine(t *testing.T) (*oracle.Engine, *state.View) {
	t.Helper()
	view := state.NewView(storage.NewMemStore())
	return oracle.New(view, testConfig()), view
}

func appoint(t *testing.T, engine *oracle.Engine, seed byte, weightage uint8) common.TxID {
	t.Helper()
	var id common.TxID
	id[0] = seed
	err := engine.AppointOracle(
		id,
		common.Script{seed},
		weightage,
		[]common.CurrencyPair{tslaUSD},
	)
	if err != nil {
		t.Fatalf("appoint failed: %s", err)
	}
	return id
}

func TestAggregateRequiresMinFeeders(t *testing.T) {
	engine, _ := newEngine(t)
	id := appoint(t, engine, 1, 50)
	err := engine.SetOracleData(id, 1000, map[common.CurrencyPair]common.Amount{
		tslaUSD: 10 * common.COIN,
	})
	if err != nil {
		t.Fatalf("set data failed: %s", err)
	}
	// Only one live feeder: below the minimum
	if got := engine.Aggregate(tslaUSD, 1000); got != state.PriceSentinel {
		t.Errorf("aggregate = %s, expected sentinel", got)
	}
}

func TestAggregateWeightedMedian(t *testing.T) {
	engine, _ := newEngine(t)
	feeds := []struct {
		seed      byte
		weightage uint8
		price     common.Amount
	}{
		{1, 10, 9 * common.COIN},
		{2, 80, 10 * common.COIN},
		{3, 10, 50 * common.COIN},
	}
	for _, feed := range feeds {
		id := appoint(t, engine, feed.seed, feed.weightage)
		err := engine.SetOracleData(id, 1000, map[common.CurrencyPair]common.Amount{
			tslaUSD: feed.price,
		})
		if err != nil {
			t.Fatalf("set data failed: %s", err)
		}
	}
	// The heavy middle feed dominates the outliers
	if got := engine.Aggregate(tslaUSD, 1000); got != 10*common.COIN {
		t.Errorf("weighted median = %s, expected 10", got)
	}
}

func TestAggregateIgnoresStaleFeeds(t *testing.T) {
	engine, _ := newEngine(t)
	for seed := byte(1); seed <= 2; seed++ {
		id := appoint(t, engine, seed, 50)
		err := engine.SetOracleData(id, 1000, map[common.CurrencyPair]common.Amount{
			tslaUSD: 10 * common.COIN,
		})
		if err != nil {
			t.Fatalf("set data failed: %s", err)
		}
	}
	// Both feeds are far older than the freshness window
	if got := engine.Aggregate(tslaUSD, 1000+7200); got != state.PriceSentinel {
		t.Errorf("aggregate = %s, expected sentinel for stale feeds", got)
	}
}

func TestPriceIntervalRotation(t *testing.T) {
	engine, view := newEngine(t)
	for seed := byte(1); seed <= 2; seed++ {
		id := appoint(t, engine, seed, 50)
		err := engine.SetOracleData(id, 1000, map[common.CurrencyPair]common.Amount{
			tslaUSD: 10 * common.COIN,
		})
		if err != nil {
			t.Fatalf("set data failed: %s", err)
		}
	}
	err := view.SetFixedIntervalPrice(&state.FixedIntervalPrice{
		PriceFeedID: tslaUSD,
		Prices:      [2]common.Amount{state.PriceSentinel, state.PriceSentinel},
	})
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	// First boundary: active stays sentinel, next takes the aggregate
	if err := engine.ProcessPriceInterval(120, 1000); err != nil {
		t.Fatalf("interval processing failed: %s", err)
	}
	price, err := view.GetFixedIntervalPrice(tslaUSD)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if price.Prices[state.PriceSlotActive] != state.PriceSentinel {
		t.Errorf("active price %s, expected sentinel", price.Prices[state.PriceSlotActive])
	}
	if price.Prices[state.PriceSlotNext] != 10*common.COIN {
		t.Errorf("next price %s, expected 10", price.Prices[state.PriceSlotNext])
	}
	// Second boundary: next rotates into active
	if err := engine.ProcessPriceInterval(240, 1100); err != nil {
		t.Fatalf("interval processing failed: %s", err)
	}
	price, err = view.GetFixedIntervalPrice(tslaUSD)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if price.Prices[state.PriceSlotActive] != 10*common.COIN {
		t.Errorf("active price %s, expected 10 after rotation", price.Prices[state.PriceSlotActive])
	}
	// Off-boundary heights never touch the record
	if err := engine.ProcessPriceInterval(241, 1200); err != nil {
		t.Fatalf("interval processing failed: %s", err)
	}
	unchanged, _ := view.GetFixedIntervalPrice(tslaUSD)
	if unchanged.Timestamp != price.Timestamp {
		t.Error("record changed outside an interval boundary")
	}
}

func TestLivenessDeviation(t *testing.T) {
	price := &state.FixedIntervalPrice{
		PriceFeedID: tslaUSD,
		Prices:      [2]common.Amount{10 * common.COIN, 10 * common.COIN},
	}
	maxDeviation := oracle.MaxDeviation(testConfig())
	if !price.IsLive(maxDeviation) {
		t.Error("matching prices should be live")
	}
	// A 50% jump exceeds the 30% bound
	price.Prices[state.PriceSlotNext] = 15 * common.COIN
	if price.IsLive(maxDeviation) {
		t.Error("50% deviation should not be live")
	}
	price.Prices[state.PriceSlotNext] = state.PriceSentinel
	if price.IsLive(maxDeviation) {
		t.Error("sentinel next price should not be live")
	}
}
