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

package oracle

import (
	"fmt"
	"sort"

	"github.com/blinklabs-io/naiad/internal/common"
	"github.com/blinklabs-io/naiad/internal/config"
	"github.com/blinklabs-io/naiad/internal/state"
)

// Engine aggregates oracle feeds and rolls the fixed-interval price slots
type Engine struct {
	view *state.View
	cfg  *config.ChainConfig
}

// New creates an oracle engine over a view
func New(view *state.View, cfg *config.ChainConfig) *Engine {
	return &Engine{view: view, cfg: cfg}
}

// AppointOracle registers a price oracle
func (e *Engine) AppointOracle(id common.TxID, address common.Script, weightage uint8, pairs []common.CurrencyPair) error {
	if weightage == 0 || weightage > 100 {
		return fmt.Errorf("oracle weightage outside (0, 100]: %d", weightage)
	}
	for _, pair := range pairs {
		if err := pair.Validate(); err != nil {
			return err
		}
	}
	return e.view.SetOracle(id, &state.Oracle{
		Address:        address,
		Weightage:      weightage,
		AvailablePairs: pairs,
		Feeds:          make(map[string]state.OracleFeed),
	})
}

// UpdateOracle replaces an oracle's address, weightage and pair set,
// keeping feeds for pairs that survive.
func (e *Engine) UpdateOracle(id common.TxID, address common.Script, weightage uint8, pairs []common.CurrencyPair) error {
	oracle, err := e.view.GetOracle(id)
	if err != nil {
		return err
	}
	if weightage == 0 || weightage > 100 {
		return fmt.Errorf("oracle weightage outside (0, 100]: %d", weightage)
	}
	feeds := make(map[string]state.OracleFeed)
	for _, pair := range pairs {
		if err := pair.Validate(); err != nil {
			return err
		}
		if feed, ok := oracle.Feeds[pair.String()]; ok {
			feeds[pair.String()] = feed
		}
	}
	return e.view.SetOracle(id, &state.Oracle{
		Address:        address,
		Weightage:      weightage,
		AvailablePairs: pairs,
		Feeds:          feeds,
	})
}

// RemoveOracle removes an oracle
func (e *Engine) RemoveOracle(id common.TxID) error {
	if _, err := e.view.GetOracle(id); err != nil {
		return err
	}
	return e.view.DeleteOracle(id)
}

// SetOracleData records reported prices for an appointed oracle
func (e *Engine) SetOracleData(id common.TxID, timestamp int64, prices map[common.CurrencyPair]common.Amount) error {
	oracle, err := e.view.GetOracle(id)
	if err != nil {
		return err
	}
	if oracle.Feeds == nil {
		oracle.Feeds = make(map[string]state.OracleFeed)
	}
	for pair, value := range prices {
		if !oracle.SupportsPair(pair) {
			return fmt.Errorf("oracle %s is not appointed for pair %s", id, pair)
		}
		if value <= 0 {
			return fmt.Errorf("non-positive price for pair %s", pair)
		}
		oracle.Feeds[pair.String()] = state.OracleFeed{
			Value:     value,
			Timestamp: timestamp,
		}
	}
	return e.view.SetOracle(id, oracle)
}

// ProcessPriceInterval rolls every registered fixed-interval price at an
// interval boundary: active takes the prior next price when positive, next
// takes the fresh aggregate or the sentinel.
func (e *Engine) ProcessPriceInterval(height uint32, blockTime int64) error {
	if height%e.cfg.BlocksPerPriceInterval != 0 {
		return nil
	}
	var prices []*state.FixedIntervalPrice
	err := e.view.ForEachFixedIntervalPrice(func(price *state.FixedIntervalPrice) bool {
		prices = append(prices, price)
		return true
	})
	if err != nil {
		return err
	}
	for _, price := range prices {
		if next := price.Prices[state.PriceSlotNext]; next > 0 {
			price.Prices[state.PriceSlotActive] = next
		}
		price.Prices[state.PriceSlotNext] = e.Aggregate(price.PriceFeedID, blockTime)
		price.Timestamp = blockTime
		if err := e.view.SetFixedIntervalPrice(price); err != nil {
			return err
		}
	}
	return nil
}

type weightedFeed struct {
	value  common.Amount
	weight uint64
}

// Aggregate computes the weighted median of live feeds for a pair, or the
// sentinel when too few oracles reported recently enough.
func (e *Engine) Aggregate(pair common.CurrencyPair, blockTime int64) common.Amount {
	var feeds []weightedFeed
	_ = e.view.ForEachOracle(func(_ common.TxID, oracle *state.Oracle) bool {
		if !oracle.SupportsPair(pair) {
			return true
		}
		feed, ok := oracle.Feeds[pair.String()]
		if !ok {
			return true
		}
		age := blockTime - feed.Timestamp
		if age < 0 {
			age = -age
		}
		if age > e.cfg.OracleFreshnessSeconds {
			return true
		}
		feeds = append(feeds, weightedFeed{
			value:  feed.Value,
			weight: uint64(oracle.Weightage),
		})
		return true
	})
	if len(feeds) < e.cfg.MinOracleFeeders {
		return state.PriceSentinel
	}
	sort.Slice(feeds, func(i, j int) bool { return feeds[i].value < feeds[j].value })
	var totalWeight uint64
	for _, f := range feeds {
		totalWeight += f.weight
	}
	half := totalWeight / 2
	var running uint64
	for _, f := range feeds {
		running += f.weight
		if running > half {
			return f.value
		}
	}
	return feeds[len(feeds)-1].value
}

// MaxDeviation converts the configured percentage bound into the
// COIN-scaled deviation used by liveness checks
func MaxDeviation(cfg *config.ChainConfig) common.Amount {
	return common.Amount(cfg.MaxPriceDeviationPct) * common.COIN / 100
}

// IsLive reports whether a pair's price may be used for valuation
func IsLive(view *state.View, cfg *config.ChainConfig, pair common.CurrencyPair) bool {
	price, err := view.GetFixedIntervalPrice(pair)
	if err != nil {
		return false
	}
	return price.IsLive(MaxDeviation(cfg))
}
