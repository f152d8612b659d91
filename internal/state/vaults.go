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
)

// Vault is a user account in the loan system
type Vault struct {
	Owner            common.Script
	SchemeID         string
	UnderLiquidation bool
}

// VaultInterest tracks per-(vault, loan token) interest accrual. At query
// height h the outstanding interest is ToHeight + (h - Height) * PerBlock.
type VaultInterest struct {
	Height   uint32
	PerBlock common.InterestAmount
	ToHeight common.InterestAmount
}

// TotalInterest folds the per-block accrual up to the given height
func (i *VaultInterest) TotalInterest(height uint32) common.InterestAmount {
	if height <= i.Height {
		return i.ToHeight
	}
	return i.ToHeight.Add(i.PerBlock.MulBlocks(height - i.Height))
}

// LoanScheme is a named (min ratio, annual rate) tuple pinned by vaults
type LoanScheme struct {
	ID          string
	MinColRatio uint32
	Rate        common.Amount
}

// LoanSchemeOp is a scheme change or deletion delayed to a height
type LoanSchemeOp struct {
	Scheme LoanScheme
	Delete bool
}

// SetVault writes a vault record
func (v *View) SetVault(id common.VaultID, vault *Vault) error {
	return v.putRecord(vaultKey(id), vault)
}

// GetVault returns a vault by ID
func (v *View) GetVault(id common.VaultID) (*Vault, error) {
	var vault Vault
	ok, err := v.getRecord(vaultKey(id), &vault)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("vault %s: %w", id, common.ErrNotFound)
	}
	return &vault, nil
}

// DeleteVault removes a vault and its collateral/loan/interest rows
func (v *View) DeleteVault(id common.VaultID) error {
	if err := v.kv.Delete(vaultKey(id)); err != nil {
		return err
	}
	if err := v.kv.Delete(vaultCollateralKey(id)); err != nil {
		return err
	}
	if err := v.kv.Delete(vaultLoanKey(id)); err != nil {
		return err
	}
	return v.deleteByPrefix(append([]byte{prefixVaultInterest}, id[:]...))
}

// ForEachVault visits all vaults in ID order
func (v *View) ForEachVault(visitor func(id common.VaultID, vault *Vault) bool) error {
	return v.kv.ForEach([]byte{prefixVault}, func(key, value []byte) bool {
		if len(key) != 33 {
			return true
		}
		var id common.VaultID
		copy(id[:], key[1:])
		var vault Vault
		if err := decodeRecord(value, &vault); err != nil {
			return true
		}
		return visitor(id, &vault)
	})
}

// GetVaultCollateral returns the vault's collateral balances
func (v *View) GetVaultCollateral(id common.VaultID) (common.Balances, error) {
	ret := make(common.Balances)
	if _, err := v.getRecord(vaultCollateralKey(id), &ret); err != nil {
		return nil, err
	}
	return ret, nil
}

// SetVaultCollateral writes the vault's collateral balances
func (v *View) SetVaultCollateral(id common.VaultID, balances common.Balances) error {
	if len(balances) == 0 {
		return v.kv.Delete(vaultCollateralKey(id))
	}
	return v.putRecord(vaultCollateralKey(id), balances)
}

// GetVaultLoans returns the vault's loan balances
func (v *View) GetVaultLoans(id common.VaultID) (common.Balances, error) {
	ret := make(common.Balances)
	if _, err := v.getRecord(vaultLoanKey(id), &ret); err != nil {
		return nil, err
	}
	return ret, nil
}

// SetVaultLoans writes the vault's loan balances
func (v *View) SetVaultLoans(id common.VaultID, balances common.Balances) error {
	if len(balances) == 0 {
		return v.kv.Delete(vaultLoanKey(id))
	}
	return v.putRecord(vaultLoanKey(id), balances)
}

// GetVaultInterest returns the interest row for a (vault, token), nil if absent
func (v *View) GetVaultInterest(id common.VaultID, token common.TokenID) (*VaultInterest, error) {
	var interest VaultInterest
	ok, err := v.getRecord(vaultInterestKey(id, token), &interest)
	if err != nil || !ok {
		return nil, err
	}
	return &interest, nil
}

// SetVaultInterest writes an interest row
func (v *View) SetVaultInterest(id common.VaultID, token common.TokenID, interest *VaultInterest) error {
	return v.putRecord(vaultInterestKey(id, token), interest)
}

// DeleteVaultInterest removes an interest row
func (v *View) DeleteVaultInterest(id common.VaultID, token common.TokenID) error {
	return v.kv.Delete(vaultInterestKey(id, token))
}

// ForEachVaultInterest visits the vault's interest rows in token order
func (v *View) ForEachVaultInterest(id common.VaultID, visitor func(token common.TokenID, interest *VaultInterest) bool) error {
	prefix := append([]byte{prefixVaultInterest}, id[:]...)
	return v.kv.ForEach(prefix, func(key, value []byte) bool {
		token := common.TokenID(binary.BigEndian.Uint32(key[len(key)-4:]))
		var interest VaultInterest
		if err := decodeRecord(value, &interest); err != nil {
			return true
		}
		return visitor(token, &interest)
	})
}

// SetLoanScheme writes a loan scheme
func (v *View) SetLoanScheme(scheme *LoanScheme) error {
	return v.putRecord(loanSchemeKey(scheme.ID), scheme)
}

// GetLoanScheme returns a loan scheme by identifier
func (v *View) GetLoanScheme(id string) (*LoanScheme, error) {
	var scheme LoanScheme
	ok, err := v.getRecord(loanSchemeKey(id), &scheme)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("loan scheme %q: %w", id, common.ErrNotFound)
	}
	return &scheme, nil
}

// DeleteLoanScheme removes a loan scheme
func (v *View) DeleteLoanScheme(id string) error {
	return v.kv.Delete(loanSchemeKey(id))
}

// ForEachLoanScheme visits all schemes in identifier order
func (v *View) ForEachLoanScheme(visitor func(scheme *LoanScheme) bool) error {
	return v.kv.ForEach([]byte{prefixLoanScheme}, func(_, value []byte) bool {
		var scheme LoanScheme
		if err := decodeRecord(value, &scheme); err != nil {
			return true
		}
		return visitor(&scheme)
	})
}

// StrictestSchemeRatio returns the lowest minimum collateralization ratio
// across all schemes, zero when no scheme exists
func (v *View) StrictestSchemeRatio() (uint32, error) {
	var strictest uint32
	err := v.ForEachLoanScheme(func(scheme *LoanScheme) bool {
		if strictest == 0 || scheme.MinColRatio < strictest {
			strictest = scheme.MinColRatio
		}
		return true
	})
	return strictest, err
}

const defaultSchemeMeta = "default_loan_scheme"

// SetDefaultLoanScheme records the default scheme identifier
func (v *View) SetDefaultLoanScheme(id string) error {
	return v.putRecord(metaKey(defaultSchemeMeta), id)
}

// GetDefaultLoanScheme returns the default scheme identifier, empty if unset
func (v *View) GetDefaultLoanScheme() (string, error) {
	var id string
	if _, err := v.getRecord(metaKey(defaultSchemeMeta), &id); err != nil {
		return "", err
	}
	return id, nil
}

// SetLoanSchemeOp schedules a delayed scheme change or deletion
func (v *View) SetLoanSchemeOp(height uint32, op *LoanSchemeOp) error {
	return v.putRecord(loanSchemeOpKey(height, op.Scheme.ID), op)
}

// ForEachLoanSchemeOp visits delayed ops scheduled at the given height
func (v *View) ForEachLoanSchemeOp(height uint32, visitor func(op *LoanSchemeOp) bool) error {
	prefix := appendU32([]byte{prefixLoanSchemeOp}, height)
	return v.kv.ForEach(prefix, func(_, value []byte) bool {
		var op LoanSchemeOp
		if err := decodeRecord(value, &op); err != nil {
			return true
		}
		return visitor(&op)
	})
}

// DeleteLoanSchemeOp removes a delayed op
func (v *View) DeleteLoanSchemeOp(height uint32, id string) error {
	return v.kv.Delete(loanSchemeOpKey(height, id))
}

func (v *View) deleteByPrefix(prefix []byte) error {
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
