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
	"github.com/blinklabs-io/naiad/internal/attributes"
	"github.com/blinklabs-io/naiad/internal/common"
	"github.com/blinklabs-io/naiad/internal/state"
)

// netRate combines the vault scheme's annual rate with the loan token's
// minting interest; the sum may be negative.
func (e *Engine) netRate(schemeID string, token common.TokenID) (common.Amount, error) {
	scheme, err := e.view.GetLoanScheme(schemeID)
	if err != nil {
		return 0, err
	}
	tokenRate := e.attrs.GetAmount(
		attributes.TokenKey(token, attributes.TokenLoanMintingInterest), 0,
	)
	return scheme.Rate + tokenRate, nil
}

// updateInterest folds accrued interest into the row and re-seeds the
// per-block rate from the vault's current loan balance. Called whenever a
// loan token is added to or removed from a vault.
func (e *Engine) updateInterest(vaultID common.VaultID, schemeID string, token common.TokenID, height uint32) error {
	loans, err := e.view.GetVaultLoans(vaultID)
	if err != nil {
		return err
	}
	row, err := e.view.GetVaultInterest(vaultID, token)
	if err != nil {
		return err
	}
	if row == nil {
		row = &state.VaultInterest{Height: height}
	}
	row.ToHeight = row.TotalInterest(height)
	row.Height = height
	rate, err := e.netRate(schemeID, token)
	if err != nil {
		return err
	}
	row.PerBlock = common.InterestPerBlock(loans[token], rate, e.cfg.BlocksPerYear)
	return e.view.SetVaultInterest(vaultID, token, row)
}

// TotalInterest returns the outstanding interest for (vault, token) at a
// height, converted to Amount precision: positive interest rounds up,
// negative interest rounds toward zero.
func (e *Engine) TotalInterest(vaultID common.VaultID, token common.TokenID, height uint32) (common.Amount, error) {
	row, err := e.view.GetVaultInterest(vaultID, token)
	if err != nil || row == nil {
		return 0, err
	}
	return row.TotalInterest(height).ToSatoshisCeil()
}

// trackNegativeInterest feeds the separate economy counter used to report
// net negative interest flows
func (e *Engine) trackNegativeInterest(token common.TokenID, amount common.Amount) error {
	if amount >= 0 {
		return nil
	}
	return e.attrs.AddEconomyBalance(attributes.EconNegativeInterest, common.TokenAmount{
		Token:  token,
		Amount: -amount,
	})
}
