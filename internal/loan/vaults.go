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
	"github.com/blinklabs-io/naiad/internal/state"
)

// CreateVault opens a vault pinned to a loan scheme (default when empty)
func (e *Engine) CreateVault(vaultID common.VaultID, owner common.Script, schemeID string) error {
	if schemeID == "" {
		def, err := e.view.GetDefaultLoanScheme()
		if err != nil {
			return err
		}
		if def == "" {
			return fmt.Errorf("no loan scheme available")
		}
		schemeID = def
	}
	if _, err := e.view.GetLoanScheme(schemeID); err != nil {
		return err
	}
	return e.view.SetVault(vaultID, &state.Vault{
		Owner:    owner,
		SchemeID: schemeID,
	})
}

// UpdateVault changes a vault's owner or scheme; the vault must stay above
// its new scheme's minimum ratio.
func (e *Engine) UpdateVault(vaultID common.VaultID, owner common.Script, schemeID string, height uint32) error {
	vault, err := e.view.GetVault(vaultID)
	if err != nil {
		return err
	}
	if vault.UnderLiquidation {
		return fmt.Errorf("vault %s is under liquidation", vaultID)
	}
	scheme, err := e.view.GetLoanScheme(schemeID)
	if err != nil {
		return err
	}
	vault.Owner = owner
	vault.SchemeID = schemeID
	if err := e.view.SetVault(vaultID, vault); err != nil {
		return err
	}
	// Re-seed interest rates under the new scheme
	loans, err := e.view.GetVaultLoans(vaultID)
	if err != nil {
		return err
	}
	for _, token := range loans.SortedTokens() {
		if err := e.updateInterest(vaultID, schemeID, token, height); err != nil {
			return err
		}
	}
	if len(loans) > 0 {
		collaterals, err := e.view.GetVaultCollateral(vaultID)
		if err != nil {
			return err
		}
		assets, err := e.VaultAssets(vaultID, collaterals, height, false, true)
		if err != nil {
			return err
		}
		if assets.Ratio < scheme.MinColRatio {
			return fmt.Errorf(
				"vault ratio %d%% below scheme minimum %d%%",
				assets.Ratio, scheme.MinColRatio,
			)
		}
	}
	return nil
}

// CloseVault returns remaining collateral to the target and removes the
// vault. Open loans block the close.
func (e *Engine) CloseVault(vaultID common.VaultID, to common.Script) error {
	vault, err := e.view.GetVault(vaultID)
	if err != nil {
		return err
	}
	if vault.UnderLiquidation {
		return fmt.Errorf("vault %s is under liquidation", vaultID)
	}
	loans, err := e.view.GetVaultLoans(vaultID)
	if err != nil {
		return err
	}
	if len(loans) > 0 {
		return fmt.Errorf("vault %s has open loans", vaultID)
	}
	collaterals, err := e.view.GetVaultCollateral(vaultID)
	if err != nil {
		return err
	}
	if err := e.view.AddBalances(to, collaterals); err != nil {
		return err
	}
	return e.view.DeleteVault(vaultID)
}

// DepositToVault moves collateral from an account into the vault
func (e *Engine) DepositToVault(vaultID common.VaultID, from common.Script, amount common.TokenAmount) error {
	vault, err := e.view.GetVault(vaultID)
	if err != nil {
		return err
	}
	if vault.UnderLiquidation {
		return fmt.Errorf("vault %s is under liquidation", vaultID)
	}
	if !e.attrs.GetBool(attributes.TokenKey(amount.Token, attributes.TokenLoanCollateralEnabled)) &&
		amount.Token != common.TokenIDNative {
		return fmt.Errorf("token %d is not enabled as loan collateral", amount.Token)
	}
	if err := e.view.SubBalance(from, amount); err != nil {
		return err
	}
	collaterals, err := e.view.GetVaultCollateral(vaultID)
	if err != nil {
		return err
	}
	if err := collaterals.Add(amount); err != nil {
		return err
	}
	return e.view.SetVaultCollateral(vaultID, collaterals)
}

// WithdrawFromVault moves collateral out; the remaining collateral must
// keep the vault above its scheme's minimum ratio at live prices.
func (e *Engine) WithdrawFromVault(vaultID common.VaultID, to common.Script, amount common.TokenAmount, height uint32) error {
	vault, err := e.view.GetVault(vaultID)
	if err != nil {
		return err
	}
	if vault.UnderLiquidation {
		return fmt.Errorf("vault %s is under liquidation", vaultID)
	}
	collaterals, err := e.view.GetVaultCollateral(vaultID)
	if err != nil {
		return err
	}
	if err := collaterals.Sub(amount); err != nil {
		return err
	}
	loans, err := e.view.GetVaultLoans(vaultID)
	if err != nil {
		return err
	}
	if len(loans) > 0 {
		scheme, err := e.view.GetLoanScheme(vault.SchemeID)
		if err != nil {
			return err
		}
		assets, err := e.VaultAssets(vaultID, collaterals, height, false, true)
		if err != nil {
			return err
		}
		if assets.Ratio < scheme.MinColRatio {
			return fmt.Errorf(
				"vault ratio %d%% below scheme minimum %d%%",
				assets.Ratio, scheme.MinColRatio,
			)
		}
	}
	if err := e.view.SetVaultCollateral(vaultID, collaterals); err != nil {
		return err
	}
	return e.view.AddBalance(to, amount)
}

// TakeLoan mints loan tokens against the vault's collateral
func (e *Engine) TakeLoan(vaultID common.VaultID, to common.Script, amount common.TokenAmount, height uint32) error {
	vault, err := e.view.GetVault(vaultID)
	if err != nil {
		return err
	}
	if vault.UnderLiquidation {
		return fmt.Errorf("vault %s is under liquidation", vaultID)
	}
	if amount.Amount <= 0 {
		return fmt.Errorf("loan amount must be positive")
	}
	if !e.attrs.GetBool(attributes.TokenKey(amount.Token, attributes.TokenLoanMintingEnabled)) {
		return fmt.Errorf("token %d is not enabled for loan minting", amount.Token)
	}
	if e.attrs.TokenLocked(amount.Token) {
		return fmt.Errorf("token %d is locked", amount.Token)
	}
	loans, err := e.view.GetVaultLoans(vaultID)
	if err != nil {
		return err
	}
	if err := loans.Add(amount); err != nil {
		return err
	}
	if err := e.view.SetVaultLoans(vaultID, loans); err != nil {
		return err
	}
	if err := e.updateInterest(vaultID, vault.SchemeID, amount.Token, height); err != nil {
		return err
	}
	scheme, err := e.view.GetLoanScheme(vault.SchemeID)
	if err != nil {
		return err
	}
	collaterals, err := e.view.GetVaultCollateral(vaultID)
	if err != nil {
		return err
	}
	assets, err := e.VaultAssets(vaultID, collaterals, height, true, true)
	if err != nil {
		return err
	}
	if assets.Ratio < scheme.MinColRatio {
		return fmt.Errorf(
			"vault ratio %d%% below scheme minimum %d%%",
			assets.Ratio, scheme.MinColRatio,
		)
	}
	if err := e.view.AddMintedAmount(amount.Token, amount.Amount); err != nil {
		return err
	}
	return e.view.AddBalance(to, amount)
}

// PaybackLoan burns tokens from the payer against the vault's loan,
// settling outstanding interest first.
func (e *Engine) PaybackLoan(vaultID common.VaultID, from common.Script, amount common.TokenAmount, height uint32) error {
	vault, err := e.view.GetVault(vaultID)
	if err != nil {
		return err
	}
	if vault.UnderLiquidation {
		return fmt.Errorf("vault %s is under liquidation", vaultID)
	}
	loans, err := e.view.GetVaultLoans(vaultID)
	if err != nil {
		return err
	}
	principal, ok := loans[amount.Token]
	if !ok {
		return fmt.Errorf("vault %s has no loan of token %d", vaultID, amount.Token)
	}
	interest, err := e.TotalInterest(vaultID, amount.Token, height)
	if err != nil {
		return err
	}
	if err := e.trackNegativeInterest(amount.Token, interest); err != nil {
		return err
	}
	owed, err := common.SafeAdd(principal, interest)
	if err != nil {
		return err
	}
	if owed < 0 {
		owed = 0
	}
	pay := amount.Amount
	if pay > owed {
		pay = owed
	}
	if err := e.view.SubBalance(from, common.TokenAmount{Token: amount.Token, Amount: pay}); err != nil {
		return err
	}
	// Interest settles before principal
	principalPaid := pay - interest
	if principalPaid < 0 {
		principalPaid = 0
	}
	if err := loans.Sub(common.TokenAmount{Token: amount.Token, Amount: principalPaid}); err != nil {
		return err
	}
	if err := e.view.SetVaultLoans(vaultID, loans); err != nil {
		return err
	}
	if _, stillOpen := loans[amount.Token]; stillOpen {
		row, err := e.view.GetVaultInterest(vaultID, amount.Token)
		if err != nil {
			return err
		}
		if row != nil {
			// The paid interest portion comes off the accrued total
			row.ToHeight = row.TotalInterest(height).Sub(common.InterestFromAmount(pay - principalPaid))
			row.Height = height
			if err := e.view.SetVaultInterest(vaultID, amount.Token, row); err != nil {
				return err
			}
		}
		if err := e.updateInterest(vaultID, vault.SchemeID, amount.Token, height); err != nil {
			return err
		}
	} else {
		if err := e.view.DeleteVaultInterest(vaultID, amount.Token); err != nil {
			return err
		}
	}
	// Principal burns against the minted supply; interest is pure burn
	return e.view.AddMintedAmount(amount.Token, -principalPaid)
}
