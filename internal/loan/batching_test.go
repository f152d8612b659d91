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
	"io"
	"log/slog"
	"testing"

	"github.com/blinklabs-io/naiad/internal/common"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSplitEvenExactPartition(t *testing.T) {
	slices := splitEven(10*common.COIN+7, 3)
	var sum common.Amount
	for _, slice := range slices {
		sum += slice
	}
	if sum != 10*common.COIN+7 {
		t.Errorf("slices sum to %d, expected %d", sum, 10*common.COIN+7)
	}
	// The residual lands on the leading slices
	if slices[0] < slices[2] {
		t.Errorf("unexpected slice shape: %v", slices)
	}
}

func TestCollectBatchesSingleSmallLoan(t *testing.T) {
	assets := &VaultAssets{
		TotalCollaterals: 70 * common.COIN,
		TotalLoans:       50 * common.COIN,
		LoanValues:       common.Balances{128: 50 * common.COIN},
	}
	collaterals := common.Balances{0: 100 * common.COIN}
	loans := common.Balances{128: 50 * common.COIN}
	batches := collectAuctionBatches(assets, collaterals, loans, nil, discardLogger())
	if len(batches) != 1 {
		t.Fatalf("batch count %d, expected 1", len(batches))
	}
	if batches[0].LoanAmount != 50*common.COIN {
		t.Errorf("batch loan %s", batches[0].LoanAmount)
	}
	if batches[0].Collaterals[0] != 100*common.COIN {
		t.Errorf("batch collateral %s", batches[0].Collaterals[0])
	}
}

func TestCollectBatchesSplitsOverThreshold(t *testing.T) {
	// 25k USD of collateral backing one loan: 3 batches at the 10k cap
	assets := &VaultAssets{
		TotalCollaterals: 25_000 * common.COIN,
		TotalLoans:       20_000 * common.COIN,
		LoanValues:       common.Balances{128: 20_000 * common.COIN},
	}
	collaterals := common.Balances{0: 25_000 * common.COIN}
	loans := common.Balances{128: 20_000 * common.COIN}
	interests := common.Balances{128: 3}
	batches := collectAuctionBatches(assets, collaterals, loans, interests, discardLogger())
	if len(batches) != 3 {
		t.Fatalf("batch count %d, expected 3", len(batches))
	}
	// The batches partition loans, interest and collaterals exactly
	var loanSum, interestSum, collSum common.Amount
	for _, batch := range batches {
		loanSum += batch.LoanAmount
		interestSum += batch.LoanInterest
		collSum += batch.Collaterals[0]
	}
	if loanSum != 20_000*common.COIN {
		t.Errorf("loan sum %s, expected 20000", loanSum)
	}
	if interestSum != 3 {
		t.Errorf("interest sum %d, expected 3", interestSum)
	}
	if collSum != 25_000*common.COIN {
		t.Errorf("collateral sum %s, expected 25000", collSum)
	}
}

func TestCollectBatchesMultiLoanPartition(t *testing.T) {
	// Two loans share two collaterals; partitions must be exact per token
	assets := &VaultAssets{
		TotalCollaterals: 90 * common.COIN,
		TotalLoans:       60 * common.COIN,
		LoanValues: common.Balances{
			128: 40 * common.COIN,
			129: 20 * common.COIN,
		},
	}
	collaterals := common.Balances{
		0: 70 * common.COIN,
		1: 33*common.COIN + 1,
	}
	loans := common.Balances{
		128: 40 * common.COIN,
		129: 20 * common.COIN,
	}
	batches := collectAuctionBatches(assets, collaterals, loans, nil, discardLogger())
	if len(batches) != 2 {
		t.Fatalf("batch count %d, expected 2", len(batches))
	}
	sums := make(common.Balances)
	for _, batch := range batches {
		for token, amount := range batch.Collaterals {
			sums[token] += amount
		}
	}
	for _, token := range collaterals.SortedTokens() {
		if sums[token] != collaterals[token] {
			t.Errorf(
				"collateral %d partition %s, expected %s",
				token, sums[token], collaterals[token],
			)
		}
	}
}

func TestCollectBatchesNoLoans(t *testing.T) {
	assets := &VaultAssets{
		LoanValues:       common.Balances{},
		CollateralValues: common.Balances{},
	}
	collaterals := common.Balances{0: 5 * common.COIN}
	batches := collectAuctionBatches(assets, collaterals, nil, nil, discardLogger())
	if len(batches) != 1 {
		t.Fatalf("batch count %d, expected 1", len(batches))
	}
	if batches[0].Collaterals[0] != 5*common.COIN {
		t.Error("collateral-only batch should hold the full collateral")
	}
}
