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

package loan

import (
	"fmt"

	"github.com/blinklabs-io/naiad/internal/attributes"
	"github.com/blinklabs-io/naiad/internal/common"
	"github.com/blinklabs-io/naiad/internal/oracle"
	"github.com/blinklabs-io/naiad/internal/state"

	"github.com/holiman/uint256"
)

// VaultAssets is the USD valuation of a vault's collaterals and loans
type VaultAssets struct {
	TotalCollaterals common.Amount
	TotalLoans       common.Amount
	// Ratio is collateral/loan in integer percent, 0 when no loans
	Ratio uint32
	// PrecisionRatio differentiates vaults at the same integer percent
	PrecisionRatio common.InterestAmount
	// CollateralValues and LoanValues are per-token USD values
	CollateralValues common.Balances
	LoanValues       common.Balances
}

// tokenPrice resolves a token's USD price from its fixed-interval price
// attribute. requireLive fails with ErrNoLivePrice on stale or deviating
// prices.
func (e *Engine) tokenPrice(token common.TokenID, useNextPrice, requireLive bool) (common.Amount, error) {
	pair, ok := e.attrs.GetPair(attributes.TokenKey(token, attributes.TokenFixedIntervalPriceID))
	if !ok {
		return 0, fmt.Errorf("token %d has no fixed interval price id: %w", token, common.ErrNoLivePrice)
	}
	price, err := e.view.GetFixedIntervalPrice(pair)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", pair, common.ErrNoLivePrice)
	}
	if requireLive && !price.IsLive(oracle.MaxDeviation(e.cfg)) {
		return 0, fmt.Errorf("%s: %w", pair, common.ErrNoLivePrice)
	}
	slot := state.PriceSlotActive
	if useNextPrice {
		slot = state.PriceSlotNext
	}
	value := price.Prices[slot]
	if value <= 0 {
		return 0, fmt.Errorf("%s: %w", pair, common.ErrNoLivePrice)
	}
	return value, nil
}

// collateralFactor returns the token's collateral factor, COIN when unset
func (e *Engine) collateralFactor(token common.TokenID) common.Amount {
	return e.attrs.GetAmount(
		attributes.TokenKey(token, attributes.TokenLoanCollateralFactor),
		common.COIN,
	)
}

// VaultAssets values the given collaterals against the vault's loans plus
// outstanding interest at the given height.
func (e *Engine) VaultAssets(vaultID common.VaultID, collaterals common.Balances, height uint32, useNextPrice, requireLive bool) (*VaultAssets, error) {
	assets := &VaultAssets{
		CollateralValues: make(common.Balances),
		LoanValues:       make(common.Balances),
	}
	for _, token := range collaterals.SortedTokens() {
		price, err := e.tokenPrice(token, useNextPrice, requireLive)
		if err != nil {
			return nil, err
		}
		value, err := common.MulDiv(collaterals[token], price, common.COIN)
		if err != nil {
			return nil, err
		}
		value, err = common.MulDiv(value, e.collateralFactor(token), common.COIN)
		if err != nil {
			return nil, err
		}
		assets.CollateralValues[token] = value
		assets.TotalCollaterals += value
	}
	loans, err := e.view.GetVaultLoans(vaultID)
	if err != nil {
		return nil, err
	}
	for _, token := range loans.SortedTokens() {
		price, err := e.tokenPrice(token, useNextPrice, requireLive)
		if err != nil {
			return nil, err
		}
		interest, err := e.TotalInterest(vaultID, token, height)
		if err != nil {
			return nil, err
		}
		owed, err := common.SafeAdd(loans[token], interest)
		if err != nil {
			return nil, err
		}
		if owed < 0 {
			owed = 0
		}
		value, err := common.MulDiv(owed, price, common.COIN)
		if err != nil {
			return nil, err
		}
		assets.LoanValues[token] = value
		assets.TotalLoans += value
	}
	if assets.TotalLoans > 0 {
		ratio := new(uint256.Int).Mul(
			uint256.NewInt(uint64(assets.TotalCollaterals)),
			uint256.NewInt(100),
		)
		ratio.Div(ratio, uint256.NewInt(uint64(assets.TotalLoans)))
		if ratio.IsUint64() && ratio.Uint64() <= 0xffffffff {
			assets.Ratio = uint32(ratio.Uint64())
		} else {
			assets.Ratio = 0xffffffff
		}
		precise := common.InterestFromAmount(assets.TotalCollaterals).MulBlocks(100)
		precise.Magnitude.Div(&precise.Magnitude, uint256.NewInt(uint64(assets.TotalLoans)))
		precise.Magnitude.Mul(&precise.Magnitude, uint256.NewInt(uint64(common.COIN)))
		assets.PrecisionRatio = precise
	}
	return assets, nil
}
