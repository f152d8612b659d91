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

	"github.com/blinklabs-io/naiad/internal/common"
	"github.com/blinklabs-io/naiad/internal/state"
)

// SetLoanScheme creates or updates a loan scheme, optionally delayed to a
// future height. The first scheme created becomes the default.
func (e *Engine) SetLoanScheme(id string, minColRatio uint32, rate common.Amount, activateAt uint32, height uint32) error {
	if id == "" || len(id) > 8 {
		return fmt.Errorf("loan scheme identifier must be 1-8 characters")
	}
	if minColRatio < 100 {
		return fmt.Errorf("minimum collateralization ratio below 100%%")
	}
	if rate < 0 {
		return fmt.Errorf("interest rate must not be negative")
	}
	scheme := state.LoanScheme{ID: id, MinColRatio: minColRatio, Rate: rate}
	if activateAt > height {
		return e.view.SetLoanSchemeOp(activateAt, &state.LoanSchemeOp{Scheme: scheme})
	}
	if err := e.view.SetLoanScheme(&scheme); err != nil {
		return err
	}
	def, err := e.view.GetDefaultLoanScheme()
	if err != nil {
		return err
	}
	if def == "" {
		return e.view.SetDefaultLoanScheme(id)
	}
	return nil
}

// SetDefaultLoanScheme marks an existing scheme as the default
func (e *Engine) SetDefaultLoanScheme(id string) error {
	if _, err := e.view.GetLoanScheme(id); err != nil {
		return err
	}
	return e.view.SetDefaultLoanScheme(id)
}

// DestroyLoanScheme removes a scheme, optionally delayed. Vaults pinned to
// it fall back to the default scheme when the deletion lands.
func (e *Engine) DestroyLoanScheme(id string, deleteAt uint32, height uint32) error {
	if _, err := e.view.GetLoanScheme(id); err != nil {
		return err
	}
	def, err := e.view.GetDefaultLoanScheme()
	if err != nil {
		return err
	}
	if id == def {
		return fmt.Errorf("cannot destroy the default loan scheme")
	}
	if deleteAt > height {
		return e.view.SetLoanSchemeOp(deleteAt, &state.LoanSchemeOp{
			Scheme: state.LoanScheme{ID: id},
			Delete: true,
		})
	}
	return e.destroyScheme(id, height)
}

func (e *Engine) destroyScheme(id string, height uint32) error {
	def, err := e.view.GetDefaultLoanScheme()
	if err != nil {
		return err
	}
	type vaultRef struct {
		id    common.VaultID
		vault *state.Vault
	}
	var repinned []vaultRef
	err = e.view.ForEachVault(func(vid common.VaultID, vault *state.Vault) bool {
		if vault.SchemeID == id {
			repinned = append(repinned, vaultRef{id: vid, vault: vault})
		}
		return true
	})
	if err != nil {
		return err
	}
	for _, ref := range repinned {
		ref.vault.SchemeID = def
		if err := e.view.SetVault(ref.id, ref.vault); err != nil {
			return err
		}
		loans, err := e.view.GetVaultLoans(ref.id)
		if err != nil {
			return err
		}
		for _, token := range loans.SortedTokens() {
			if err := e.updateInterest(ref.id, def, token, height); err != nil {
				return err
			}
		}
	}
	return e.view.DeleteLoanScheme(id)
}

// ProcessSchemeEvents applies scheme activations and deletions delayed to
// this height
func (e *Engine) ProcessSchemeEvents(height uint32) error {
	var ops []*state.LoanSchemeOp
	err := e.view.ForEachLoanSchemeOp(height, func(op *state.LoanSchemeOp) bool {
		ops = append(ops, op)
		return true
	})
	if err != nil {
		return err
	}
	for _, op := range ops {
		if op.Delete {
			if err := e.destroyScheme(op.Scheme.ID, height); err != nil {
				return err
			}
		} else {
			if err := e.view.SetLoanScheme(&op.Scheme); err != nil {
				return err
			}
		}
		if err := e.view.DeleteLoanSchemeOp(height, op.Scheme.ID); err != nil {
			return err
		}
	}
	return nil
}
