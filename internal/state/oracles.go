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
	"fmt"

	"github.com/blinklabs-io/naiad/internal/common"
)

// OracleFeed is a single reported price point
type OracleFeed struct {
	Value     common.Amount
	Timestamp int64
}

// Oracle is an appointed price oracle with its latest reported feeds,
// keyed by the pair's string form.
type Oracle struct {
	Address        common.Script
	Weightage      uint8
	AvailablePairs []common.CurrencyPair
	Feeds          map[string]OracleFeed
}

// SupportsPair reports whether the oracle is appointed for a pair
func (o *Oracle) SupportsPair(pair common.CurrencyPair) bool {
	for _, p := range o.AvailablePairs {
		if p == pair {
			return true
		}
	}
	return false
}

// SetOracle writes an oracle record
func (v *View) SetOracle(id common.TxID, oracle *Oracle) error {
	return v.putRecord(oracleKey(id), oracle)
}

// GetOracle returns an oracle by ID
func (v *View) GetOracle(id common.TxID) (*Oracle, error) {
	var oracle Oracle
	ok, err := v.getRecord(oracleKey(id), &oracle)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("oracle %s: %w", id, common.ErrNotFound)
	}
	return &oracle, nil
}

// DeleteOracle removes an oracle
func (v *View) DeleteOracle(id common.TxID) error {
	return v.kv.Delete(oracleKey(id))
}

// ForEachOracle visits all oracles in key order
func (v *View) ForEachOracle(visitor func(id common.TxID, oracle *Oracle) bool) error {
	return v.kv.ForEach([]byte{prefixOracle}, func(key, value []byte) bool {
		if len(key) != 33 {
			return true
		}
		var id common.TxID
		copy(id[:], key[1:])
		var oracle Oracle
		if err := decodeRecord(value, &oracle); err != nil {
			return true
		}
		return visitor(id, &oracle)
	})
}

// OracleServesPair reports whether any appointed oracle lists the pair
func (v *View) OracleServesPair(pair common.CurrencyPair) (bool, error) {
	served := false
	err := v.ForEachOracle(func(_ common.TxID, oracle *Oracle) bool {
		if oracle.SupportsPair(pair) {
			served = true
			return false
		}
		return true
	})
	return served, err
}

// PriceSlot indexes into FixedIntervalPrice.Prices
const (
	PriceSlotActive = 0
	PriceSlotNext   = 1
)

// PriceSentinel marks "no next price produced this interval"
const PriceSentinel common.Amount = -1

// FixedIntervalPrice advances only at price-interval boundaries, keeping an
// active and a next slot.
type FixedIntervalPrice struct {
	PriceFeedID common.CurrencyPair
	Timestamp   int64
	Prices      [2]common.Amount
}

// IsLive reports whether the pair may be used for valuation: both slots
// positive and the next price within maxDeviation of the active one.
func (p *FixedIntervalPrice) IsLive(maxDeviation common.Amount) bool {
	active := p.Prices[PriceSlotActive]
	next := p.Prices[PriceSlotNext]
	if active <= 0 || next <= 0 {
		return false
	}
	diff := next - active
	if diff < 0 {
		diff = -diff
	}
	deviation, err := common.MulDiv(diff, common.COIN, active)
	if err != nil {
		return false
	}
	return deviation <= maxDeviation
}

// SetFixedIntervalPrice writes a price record
func (v *View) SetFixedIntervalPrice(price *FixedIntervalPrice) error {
	return v.putRecord(fixedIntervalPriceKey(price.PriceFeedID), price)
}

// GetFixedIntervalPrice returns the price record for a pair
func (v *View) GetFixedIntervalPrice(pair common.CurrencyPair) (*FixedIntervalPrice, error) {
	var price FixedIntervalPrice
	ok, err := v.getRecord(fixedIntervalPriceKey(pair), &price)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("fixed interval price %s: %w", pair, common.ErrNotFound)
	}
	return &price, nil
}

// DeleteFixedIntervalPrice removes a price record
func (v *View) DeleteFixedIntervalPrice(pair common.CurrencyPair) error {
	return v.kv.Delete(fixedIntervalPriceKey(pair))
}

// ForEachFixedIntervalPrice visits all registered pairs in key order
func (v *View) ForEachFixedIntervalPrice(visitor func(price *FixedIntervalPrice) bool) error {
	return v.kv.ForEach([]byte{prefixFixedIntervalPrice}, func(_, value []byte) bool {
		var price FixedIntervalPrice
		if err := decodeRecord(value, &price); err != nil {
			return true
		}
		return visitor(&price)
	})
}
