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
	"errors"
	"runtime"

	"github.com/blinklabs-io/naiad/internal/attributes"
	"github.com/blinklabs-io/naiad/internal/common"
	"github.com/blinklabs-io/naiad/internal/state"

	"golang.org/x/sync/errgroup"
)

type sweepResult struct {
	vaultID common.VaultID
	scheme  *state.LoanScheme
	assets  *VaultAssets
	skip    bool
}

// workerCount bounds the valuation pool per the consensus concurrency model
func workerCount() int {
	n := runtime.NumCPU() - 1
	if n < 3 {
		n = 3
	}
	return n
}

// ProcessLiquidations re-evaluates every vault against live prices at the
// configured cadence. Valuations run on a bounded worker pool; mutations
// are merged serially in vault-ID order to keep consensus deterministic.
func (e *Engine) ProcessLiquidations(height uint32) error {
	if e.cfg.BlocksCollateralizationRatio == 0 ||
		height%e.cfg.BlocksCollateralizationRatio != 0 {
		return nil
	}
	type vaultEntry struct {
		id    common.VaultID
		vault *state.Vault
	}
	var vaults []vaultEntry
	err := e.view.ForEachVault(func(id common.VaultID, vault *state.Vault) bool {
		if !vault.UnderLiquidation {
			vaults = append(vaults, vaultEntry{id: id, vault: vault})
		}
		return true
	})
	if err != nil {
		return err
	}
	if len(vaults) == 0 {
		return nil
	}

	// Read-only valuation fan-out; results land at their submission index
	results := make([]sweepResult, len(vaults))
	var group errgroup.Group
	group.SetLimit(workerCount())
	for i, entry := range vaults {
		group.Go(func() error {
			res := sweepResult{vaultID: entry.id}
			scheme, err := e.view.GetLoanScheme(entry.vault.SchemeID)
			if err != nil {
				return err
			}
			res.scheme = scheme
			collaterals, err := e.view.GetVaultCollateral(entry.id)
			if err != nil {
				return err
			}
			assets, err := e.VaultAssets(entry.id, collaterals, height, false, true)
			if err != nil {
				// Vaults without live prices are skipped this sweep
				if errors.Is(err, common.ErrNoLivePrice) {
					res.skip = true
					results[i] = res
					return nil
				}
				return err
			}
			res.assets = assets
			res.skip = assets.TotalLoans == 0 || assets.Ratio >= scheme.MinColRatio
			results[i] = res
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return err
	}
	// Serial merge in submission order
	for _, res := range results {
		if res.skip {
			continue
		}
		if err := e.liquidateVault(res.vaultID, res.assets, res.scheme, height); err != nil {
			return err
		}
	}
	return nil
}

// liquidateVault moves a vault into auction: loans absorb their interest,
// collateral is partitioned into batches, and the auction is scheduled.
func (e *Engine) liquidateVault(vaultID common.VaultID, assets *VaultAssets, scheme *state.LoanScheme, height uint32) error {
	vault, err := e.view.GetVault(vaultID)
	if err != nil {
		return err
	}
	vault.UnderLiquidation = true
	if err := e.view.SetVault(vaultID, vault); err != nil {
		return err
	}
	loans, err := e.view.GetVaultLoans(vaultID)
	if err != nil {
		return err
	}
	collaterals, err := e.view.GetVaultCollateral(vaultID)
	if err != nil {
		return err
	}
	// Fold interest into the loan amounts and clear the interest rows
	loanTotals := make(common.Balances)
	loanInterests := make(common.Balances)
	for _, token := range loans.SortedTokens() {
		interest, err := e.TotalInterest(vaultID, token, height)
		if err != nil {
			return err
		}
		total, err := common.SafeAdd(loans[token], interest)
		if err != nil {
			return err
		}
		if total < 0 {
			// Negative interest cannot exceed the remaining principal; the
			// clamped remainder is reported, never redistributed
			if err := e.attrs.AddEconomyAmount(attributes.EconBatchRoundingExcess, -total); err != nil {
				return err
			}
			total = 0
		}
		if total > 0 {
			loanTotals[token] = total
		}
		if interest > 0 {
			loanInterests[token] = interest
		}
		if err := e.trackNegativeInterest(token, interest); err != nil {
			return err
		}
		if err := e.view.DeleteVaultInterest(vaultID, token); err != nil {
			return err
		}
	}
	if err := e.view.SetVaultLoans(vaultID, nil); err != nil {
		return err
	}
	if err := e.view.SetVaultCollateral(vaultID, nil); err != nil {
		return err
	}

	batches := collectAuctionBatches(assets, collaterals, loanTotals, loanInterests, e.logger)
	penalty := e.attrs.GetAmount(
		attributes.Key{Type: attributes.TypeVaults, TypeID: attributes.VaultsParams, KeyID: attributes.VaultsLiquidationPenalty},
		5*common.CENT,
	)
	auction := &state.Auction{
		BatchCount:         uint32(len(batches)),
		LiquidationHeight:  height + e.cfg.BlocksCollateralAuction,
		LiquidationPenalty: penalty,
	}
	if err := e.view.SetAuction(vaultID, auction); err != nil {
		return err
	}
	for i, batch := range batches {
		if err := e.view.SetAuctionBatch(vaultID, uint32(i), batch); err != nil {
			return err
		}
	}
	e.logger.Info(
		"vault entered liquidation",
		"vault", vaultID.String(),
		"ratio", assets.Ratio,
		"minRatio", scheme.MinColRatio,
		"batches", len(batches),
	)
	return nil
}
