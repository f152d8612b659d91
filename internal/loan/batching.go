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
	"log/slog"

	"github.com/blinklabs-io/naiad/internal/common"
	"github.com/blinklabs-io/naiad/internal/state"
)

func mulDiv0(a, b, c common.Amount) common.Amount {
	if c == 0 {
		return 0
	}
	ret, err := common.MulDiv(a, b, c)
	if err != nil {
		return 0
	}
	return ret
}

// collectAuctionBatches partitions a liquidated vault's loans and
// collaterals into bounded batches. Loans are processed in ascending token
// order; each loan's value share determines its collateral chunk, and
// chunks over the threshold split into equal slices. Rounding residuals are
// redistributed one sat at a time in stable batch order, so the batches
// partition the inputs exactly.
func collectAuctionBatches(assets *VaultAssets, collaterals, loanTotals, loanInterests common.Balances, logger *slog.Logger) []*state.AuctionBatch {
	var batches []*state.AuctionBatch
	allocated := make(common.Balances)
	totalLoanValue := assets.TotalLoans

	for _, loanToken := range loanTotals.SortedTokens() {
		loanAmount := loanTotals[loanToken]
		loanInterest := loanInterests[loanToken]
		loanValue := assets.LoanValues[loanToken]
		chunkValue := mulDiv0(assets.TotalCollaterals, loanValue, totalLoanValue)
		slices := 1
		if chunkValue > BatchThreshold {
			slices = int((chunkValue + BatchThreshold - 1) / BatchThreshold)
		}

		sliceLoans := splitEven(loanAmount, slices)
		sliceInterests := splitEven(loanInterest, slices)
		loanBatches := make([]*state.AuctionBatch, slices)
		for i := range loanBatches {
			loanBatches[i] = &state.AuctionBatch{
				LoanToken:    loanToken,
				LoanAmount:   sliceLoans[i],
				LoanInterest: sliceInterests[i],
				Collaterals:  make(common.Balances),
			}
		}
		// Each batch receives collaterals in proportion to this loan's
		// share of the collateral mix
		for _, collToken := range collaterals.SortedTokens() {
			alloc := mulDiv0(collaterals[collToken], loanValue, totalLoanValue)
			if remaining := collaterals[collToken] - allocated[collToken]; alloc > remaining {
				alloc = remaining
			}
			allocated[collToken] += alloc
			for i, amount := range splitEven(alloc, slices) {
				if amount > 0 {
					loanBatches[i].Collaterals[collToken] = amount
				}
			}
		}
		batches = append(batches, loanBatches...)
	}

	// A vault can carry collateral with no surviving loans; it still forms
	// one batch so settlement has somewhere to return it
	if len(batches) == 0 {
		batch := &state.AuctionBatch{Collaterals: collaterals.Copy()}
		return []*state.AuctionBatch{batch}
	}

	// Redistribute per-collateral residuals one sat at a time in stable
	// batch order
	for _, collToken := range collaterals.SortedTokens() {
		residual := collaterals[collToken] - allocated[collToken]
		for residual > 0 {
			distributed := false
			for _, batch := range batches {
				if residual == 0 {
					break
				}
				if _, holds := batch.Collaterals[collToken]; holds {
					batch.Collaterals[collToken]++
					residual--
					distributed = true
				}
			}
			if !distributed {
				// No batch holds this collateral; attach the remainder to
				// the first batch
				batches[0].Collaterals[collToken] += residual
				logger.Warn(
					"unrecoverable collateral residual attached to first batch",
					"token", collToken,
					"amount", residual.String(),
				)
				residual = 0
			}
		}
	}
	return batches
}

// splitEven divides an amount into n integer slices whose sum is exact;
// the remainder lands one sat at a time on the leading slices.
func splitEven(amount common.Amount, n int) []common.Amount {
	ret := make([]common.Amount, n)
	if n == 0 || amount <= 0 {
		return ret
	}
	base := amount / common.Amount(n)
	rem := amount % common.Amount(n)
	for i := range ret {
		ret[i] = base
		if common.Amount(i) < rem {
			ret[i]++
		}
	}
	return ret
}
