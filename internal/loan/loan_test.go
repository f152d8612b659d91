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

package loan_test

import (
	"io"
	"log/slog"
	"testing"

	"github.com/blinklabs-io/naiad/internal/attributes"
	"github.com/blinklabs-io/naiad/internal/common"
	"github.com/blinklabs-io/naiad/internal/config"
	"github.com/blinklabs-io/naiad/internal/loan"
	"github.com/blinklabs-io/naiad/internal/state"
	"github.com/blinklabs-io/naiad/internal/storage"
)

var (
	owner   = common.Script("vault_owner")
	bidder  = common.Script("bidder")
	dfiUSD  = common.CurrencyPair{Token: "DFI", Currency: "USD"}
	dusdUSD = common.CurrencyPair{Token: "DUSD", Currency: "USD"}
)

func testConfig() *config.ChainConfig {
	return &config.ChainConfig{
		BlocksPerDay:                 2880,
		BlocksPerYear:                1051200,
		BlocksPerPriceInterval:       120,
		BlocksCollateralAuction:      720,
		BlocksCollateralizationRatio: 1,
		OracleFreshnessSeconds:       3600,
		MinOracleFeeders:             2,
		MaxPriceDeviationPct:         30,
	}
}

type fixture struct {
	engine *loan.Engine
	view   *state.View
	attrs  *attributes.Store
	dusd   common.TokenID
}

// newFixture builds a world with a DEFAULT scheme, native collateral at
// price 1.00 and a DUSD loan token at price 1.00
func newFixture(t *testing.T) *fixture {
	t.Helper()
	view := state.NewView(storage.NewMemStore())
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	engine := loan.New(view, testConfig(), logger)
	attrs := attributes.NewStore(view)

	dusd, err := view.CreateToken(&state.Token{
		Symbol: "DUSD",
		Name:   "Decentralized USD",
		Flags:  state.TokenFlagDAT | state.TokenFlagLoanToken | state.TokenFlagMintable,
	})
	if err != nil {
		t.Fatalf("token creation failed: %s", err)
	}
	if err := engine.SetLoanScheme("DEFAULT", 150, common.COIN/100, 0, 10); err != nil {
		t.Fatalf("scheme creation failed: %s", err)
	}
	for _, setup := range []struct {
		key attributes.Key
		val attributes.Value
	}{
		{attributes.TokenKey(common.TokenIDNative, attributes.TokenFixedIntervalPriceID), attributes.CurrencyPairValue(dfiUSD)},
		{attributes.TokenKey(dusd, attributes.TokenFixedIntervalPriceID), attributes.CurrencyPairValue(dusdUSD)},
		{attributes.TokenKey(dusd, attributes.TokenLoanMintingEnabled), attributes.BoolValue(true)},
	} {
		if err := attrs.Set(setup.key, setup.val); err != nil {
			t.Fatalf("attribute setup failed: %s", err)
		}
	}
	f := &fixture{engine: engine, view: view, attrs: attrs, dusd: dusd}
	f.setPrice(t, dfiUSD, common.COIN)
	f.setPrice(t, dusdUSD, common.COIN)
	return f
}

func (f *fixture) setPrice(t *testing.T, pair common.CurrencyPair, value common.Amount) {
	t.Helper()
	err := f.view.SetFixedIntervalPrice(&state.FixedIntervalPrice{
		PriceFeedID: pair,
		Prices:      [2]common.Amount{value, value},
	})
	if err != nil {
		t.Fatalf("price setup failed: %s", err)
	}
}

func (f *fixture) openVault(t *testing.T, seed byte, collateral, debt common.Amount, height uint32) common.VaultID {
	t.Helper()
	var vaultID common.VaultID
	vaultID[0] = seed
	if err := f.engine.CreateVault(vaultID, owner, "DEFAULT"); err != nil {
		t.Fatalf("vault creation failed: %s", err)
	}
	if err := f.view.AddBalance(owner, common.TokenAmount{Token: common.TokenIDNative, Amount: collateral}); err != nil {
		t.Fatalf("funding failed: %s", err)
	}
	if err := f.engine.DepositToVault(vaultID, owner, common.TokenAmount{
		Token:  common.TokenIDNative,
		Amount: collateral,
	}); err != nil {
		t.Fatalf("deposit failed: %s", err)
	}
	if debt > 0 {
		if err := f.engine.TakeLoan(vaultID, owner, common.TokenAmount{
			Token:  f.dusd,
			Amount: debt,
		}, height); err != nil {
			t.Fatalf("take loan failed: %s", err)
		}
	}
	return vaultID
}

func TestTakeLoanEnforcesRatio(t *testing.T) {
	f := newFixture(t)
	vaultID := f.openVault(t, 1, 100*common.COIN, 0, 100)
	// 100 collateral at ratio 150% supports at most ~66 debt
	err := f.engine.TakeLoan(vaultID, owner, common.TokenAmount{
		Token:  f.dusd,
		Amount: 80 * common.COIN,
	}, 100)
	if err == nil {
		t.Error("expected ratio rejection")
	}
}

func TestTakeLoanMintsAndTracksInterest(t *testing.T) {
	f := newFixture(t)
	vaultID := f.openVault(t, 1, 100*common.COIN, 50*common.COIN, 100)
	balance, err := f.view.GetBalance(owner, f.dusd)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if balance != 50*common.COIN {
		t.Errorf("owner DUSD balance %s, expected 50", balance)
	}
	token, err := f.view.GetToken(f.dusd)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if token.Minted != 50*common.COIN {
		t.Errorf("minted %s, expected 50", token.Minted)
	}
	interest, err := f.engine.TotalInterest(vaultID, f.dusd, 200)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if interest <= 0 {
		t.Error("interest should accrue over 100 blocks")
	}
}

func TestLiquidationSweep(t *testing.T) {
	f := newFixture(t)
	vaultID := f.openVault(t, 1, 100*common.COIN, 50*common.COIN, 100)

	// At price 1.00 the vault sits at 200%: the sweep must not touch it
	if err := f.engine.ProcessLiquidations(101); err != nil {
		t.Fatalf("sweep failed: %s", err)
	}
	vault, err := f.view.GetVault(vaultID)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if vault.UnderLiquidation {
		t.Fatal("healthy vault was liquidated")
	}

	// Collateral price falls to 0.70: 140% is below the 150% minimum
	f.setPrice(t, dfiUSD, 70*common.CENT)
	if err := f.engine.ProcessLiquidations(102); err != nil {
		t.Fatalf("sweep failed: %s", err)
	}
	vault, err = f.view.GetVault(vaultID)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if !vault.UnderLiquidation {
		t.Fatal("undercollateralized vault was not liquidated")
	}
	auction, err := f.view.GetAuction(vaultID)
	if err != nil {
		t.Fatalf("auction missing: %s", err)
	}
	if auction.LiquidationHeight != 102+720 {
		t.Errorf(
			"liquidation height %d, expected %d",
			auction.LiquidationHeight, 102+720,
		)
	}
	if auction.BatchCount != 1 {
		t.Fatalf("batch count %d, expected 1", auction.BatchCount)
	}
	// The single batch holds the whole collateral and the loan plus interest
	batch, err := f.view.GetAuctionBatch(vaultID, 0)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if batch.Collaterals[common.TokenIDNative] != 100*common.COIN {
		t.Errorf(
			"batch collateral %s, expected 100",
			batch.Collaterals[common.TokenIDNative],
		)
	}
	if batch.LoanToken != f.dusd || batch.LoanAmount < 50*common.COIN {
		t.Errorf("batch loan %s@%d", batch.LoanAmount, batch.LoanToken)
	}
	// The vault's own books are cleared
	loans, _ := f.view.GetVaultLoans(vaultID)
	collaterals, _ := f.view.GetVaultCollateral(vaultID)
	if len(loans) != 0 || len(collaterals) != 0 {
		t.Error("liquidated vault still holds loans or collateral")
	}
}

func TestAuctionBidAndSettlement(t *testing.T) {
	f := newFixture(t)
	vaultID := f.openVault(t, 1, 100*common.COIN, 50*common.COIN, 100)
	f.setPrice(t, dfiUSD, 70*common.CENT)
	if err := f.engine.ProcessLiquidations(102); err != nil {
		t.Fatalf("sweep failed: %s", err)
	}
	batch, err := f.view.GetAuctionBatch(vaultID, 0)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}

	// An underbid is rejected
	if err := f.view.AddBalance(bidder, common.TokenAmount{Token: f.dusd, Amount: 100 * common.COIN}); err != nil {
		t.Fatalf("funding failed: %s", err)
	}
	err = f.engine.PlaceAuctionBid(vaultID, 0, bidder, common.TokenAmount{
		Token:  f.dusd,
		Amount: batch.LoanAmount,
	})
	if err == nil {
		t.Error("bid below the penalty minimum should be rejected")
	}

	bid := common.TokenAmount{Token: f.dusd, Amount: 55 * common.COIN}
	if err := f.engine.PlaceAuctionBid(vaultID, 0, bidder, bid); err != nil {
		t.Fatalf("bid failed: %s", err)
	}
	// The bid is escrowed
	balance, _ := f.view.GetBalance(bidder, f.dusd)
	if balance != 45*common.COIN {
		t.Errorf("bidder balance %s after escrow, expected 45", balance)
	}

	mintedBefore, _ := f.view.GetToken(f.dusd)
	if err := f.engine.ProcessAuctionEvents(102 + 720); err != nil {
		t.Fatalf("settlement failed: %s", err)
	}
	// The bidder won the collateral
	won, _ := f.view.GetBalance(bidder, common.TokenIDNative)
	if won != 100*common.COIN {
		t.Errorf("bidder collateral %s, expected 100", won)
	}
	// The repaid principal reduced the minted supply
	mintedAfter, _ := f.view.GetToken(f.dusd)
	if mintedAfter.Minted >= mintedBefore.Minted {
		t.Error("minted supply did not shrink on repayment")
	}
	// The vault exits liquidation and the auction is gone
	vault, _ := f.view.GetVault(vaultID)
	if vault.UnderLiquidation {
		t.Error("vault still under liquidation after settlement")
	}
	if _, err := f.view.GetAuction(vaultID); err == nil {
		t.Error("auction should be deleted after settlement")
	}
}

func TestAuctionNoBidRestoresVault(t *testing.T) {
	f := newFixture(t)
	vaultID := f.openVault(t, 1, 100*common.COIN, 50*common.COIN, 100)
	f.setPrice(t, dfiUSD, 70*common.CENT)
	if err := f.engine.ProcessLiquidations(102); err != nil {
		t.Fatalf("sweep failed: %s", err)
	}
	if err := f.engine.ProcessAuctionEvents(102 + 720); err != nil {
		t.Fatalf("settlement failed: %s", err)
	}
	vault, err := f.view.GetVault(vaultID)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if vault.UnderLiquidation {
		t.Error("vault should exit liquidation")
	}
	collaterals, _ := f.view.GetVaultCollateral(vaultID)
	if collaterals[common.TokenIDNative] != 100*common.COIN {
		t.Errorf(
			"restored collateral %s, expected 100",
			collaterals[common.TokenIDNative],
		)
	}
	loans, _ := f.view.GetVaultLoans(vaultID)
	if loans[f.dusd] < 50*common.COIN {
		t.Errorf("restored loan %s, expected at least 50", loans[f.dusd])
	}
}

func TestPaybackLoanSettlesInterestFirst(t *testing.T) {
	f := newFixture(t)
	vaultID := f.openVault(t, 1, 100*common.COIN, 50*common.COIN, 100)
	if err := f.view.AddBalance(owner, common.TokenAmount{Token: f.dusd, Amount: 10 * common.COIN}); err != nil {
		t.Fatalf("funding failed: %s", err)
	}
	if err := f.engine.PaybackLoan(vaultID, owner, common.TokenAmount{
		Token:  f.dusd,
		Amount: 60 * common.COIN,
	}, 200); err != nil {
		t.Fatalf("payback failed: %s", err)
	}
	loans, _ := f.view.GetVaultLoans(vaultID)
	if len(loans) != 0 {
		t.Errorf("loan not cleared: %v", loans)
	}
	// The interest row goes with the loan
	row, err := f.view.GetVaultInterest(vaultID, f.dusd)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if row != nil {
		t.Error("interest row should be erased on full payback")
	}
}

func TestSchemeDelayedDeletion(t *testing.T) {
	f := newFixture(t)
	if err := f.engine.SetLoanScheme("HIGH", 200, 2*common.COIN/100, 0, 10); err != nil {
		t.Fatalf("scheme creation failed: %s", err)
	}
	if err := f.engine.DestroyLoanScheme("HIGH", 500, 100); err != nil {
		t.Fatalf("delayed destroy failed: %s", err)
	}
	// Still present before the scheduled height
	if _, err := f.view.GetLoanScheme("HIGH"); err != nil {
		t.Fatalf("scheme disappeared early: %s", err)
	}
	if err := f.engine.ProcessSchemeEvents(500); err != nil {
		t.Fatalf("scheme events failed: %s", err)
	}
	if _, err := f.view.GetLoanScheme("HIGH"); err == nil {
		t.Error("scheme should be deleted at the scheduled height")
	}
}
