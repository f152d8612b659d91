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

package tokensplit_test

import (
	"io"
	"log/slog"
	"testing"

	"github.com/blinklabs-io/naiad/internal/attributes"
	"github.com/blinklabs-io/naiad/internal/common"
	"github.com/blinklabs-io/naiad/internal/config"
	"github.com/blinklabs-io/naiad/internal/state"
	"github.com/blinklabs-io/naiad/internal/storage"
	"github.com/blinklabs-io/naiad/internal/tokensplit"
)

var (
	alice = common.Script("alice")
	bob   = common.Script("bob")
)

func testConfig() *config.ChainConfig {
	return &config.ChainConfig{
		BlocksPerDay:  2880,
		BlocksPerYear: 1051200,
	}
}

func TestMultiplierApply(t *testing.T) {
	double := tokensplit.Multiplier{Int: 2}
	if got := double.Apply(5 * common.COIN); got != 10*common.COIN {
		t.Errorf("2x of 5 = %s", got)
	}
	merge := tokensplit.Multiplier{Int: -3}
	if got := merge.Apply(10 * common.COIN); got != 10*common.COIN/3 {
		t.Errorf("1/3 of 10 = %s", got)
	}
	frac := tokensplit.Multiplier{IsFrac: true, Frac: common.COIN * 3 / 2}
	if got := frac.Apply(10 * common.COIN); got != 15*common.COIN {
		t.Errorf("1.5x of 10 = %s", got)
	}
}

func TestTokenSplitTwoForOne(t *testing.T) {
	view := state.NewView(storage.NewMemStore())
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	engine := tokensplit.New(view, testConfig(), logger)
	attrs := attributes.NewStore(view)

	tokenID, err := view.CreateToken(&state.Token{
		Symbol: "TSLA",
		Name:   "Tesla",
		Flags:  state.TokenFlagDAT | state.TokenFlagLoanToken | state.TokenFlagMintable,
		Minted: 30 * common.COIN,
	})
	if err != nil {
		t.Fatalf("token creation failed: %s", err)
	}
	if err := view.AddBalance(alice, common.TokenAmount{Token: tokenID, Amount: 10 * common.COIN}); err != nil {
		t.Fatalf("funding failed: %s", err)
	}
	if err := view.AddBalance(bob, common.TokenAmount{Token: tokenID, Amount: 20 * common.COIN}); err != nil {
		t.Fatalf("funding failed: %s", err)
	}
	// Schedule the split at height 200 and lock the token
	if err := attrs.Set(attributes.SplitKey(200), attributes.OracleSplitsValue{tokenID: 2}); err != nil {
		t.Fatalf("attribute setup failed: %s", err)
	}
	if err := attrs.Set(attributes.LockKey(tokenID), attributes.BoolValue(true)); err != nil {
		t.Fatalf("attribute setup failed: %s", err)
	}

	if err := engine.ProcessSplits(200); err != nil {
		t.Fatalf("split failed: %s", err)
	}

	// The old token is destroyed and renamed with a version suffix
	oldToken, err := view.GetToken(tokenID)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if !oldToken.IsDestroyed() {
		t.Error("predecessor should be destroyed")
	}
	if oldToken.Symbol != "TSLA/v1" {
		t.Errorf("predecessor symbol %q, expected TSLA/v1", oldToken.Symbol)
	}
	// The successor takes the original symbol
	newToken, newID := view.GetTokenBySymbol("TSLA")
	if newToken == nil || newID == tokenID {
		t.Fatalf("successor token missing")
	}
	// Every balance doubled
	aliceBalance, _ := view.GetBalance(alice, newID)
	if aliceBalance != 20*common.COIN {
		t.Errorf("alice balance %s, expected 20", aliceBalance)
	}
	bobBalance, _ := view.GetBalance(bob, newID)
	if bobBalance != 40*common.COIN {
		t.Errorf("bob balance %s, expected 40", bobBalance)
	}
	oldAlice, _ := view.GetBalance(alice, tokenID)
	if oldAlice != 0 {
		t.Error("old token balance should be gone")
	}
	// Minted supply equals the sum of holder balances
	if newToken.Minted != 60*common.COIN {
		t.Errorf("successor minted %s, expected 60", newToken.Minted)
	}
	// The lock moved to the successor
	if attrs.TokenLocked(tokenID) {
		t.Error("predecessor lock should be cleared")
	}
	if !attrs.TokenLocked(newID) {
		t.Error("successor should be locked")
	}
	// The lineage is recorded
	asc, ok, err := attrs.Get(attributes.TokenKey(newID, attributes.TokenAscendant))
	if err != nil || !ok {
		t.Fatalf("missing ascendant: %v", err)
	}
	if ref := asc.(attributes.RefValue); ref.Token != tokenID || ref.Tag != "split" {
		t.Errorf("unexpected ascendant %#v", ref)
	}
	// The schedule entry is consumed
	if _, ok, _ := attrs.Get(attributes.SplitKey(200)); ok {
		t.Error("split schedule should be removed")
	}
}

func TestTokenSplitScalesVaultLoans(t *testing.T) {
	view := state.NewView(storage.NewMemStore())
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	engine := tokensplit.New(view, testConfig(), logger)
	attrs := attributes.NewStore(view)

	tokenID, err := view.CreateToken(&state.Token{
		Symbol: "TSLA",
		Name:   "Tesla",
		Flags:  state.TokenFlagDAT | state.TokenFlagLoanToken | state.TokenFlagMintable,
	})
	if err != nil {
		t.Fatalf("token creation failed: %s", err)
	}
	var vaultID common.VaultID
	vaultID[0] = 1
	if err := view.SetVault(vaultID, &state.Vault{Owner: alice, SchemeID: "DEFAULT"}); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if err := view.SetVaultLoans(vaultID, common.Balances{tokenID: 5 * common.COIN}); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if err := view.SetVaultInterest(vaultID, tokenID, &state.VaultInterest{
		Height:   100,
		PerBlock: common.InterestFromAmount(1),
	}); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if err := attrs.Set(attributes.SplitKey(200), attributes.OracleSplitsValue{tokenID: 2}); err != nil {
		t.Fatalf("attribute setup failed: %s", err)
	}
	if err := engine.ProcessSplits(200); err != nil {
		t.Fatalf("split failed: %s", err)
	}

	_, newID := view.GetTokenBySymbol("TSLA")
	loans, _ := view.GetVaultLoans(vaultID)
	if loans[newID] != 10*common.COIN {
		t.Errorf("scaled loan %s, expected 10", loans[newID])
	}
	if _, stillOld := loans[tokenID]; stillOld {
		t.Error("old token loan row should be gone")
	}
	row, err := view.GetVaultInterest(vaultID, newID)
	if err != nil || row == nil {
		t.Fatalf("missing migrated interest row: %v", err)
	}
	doubled := common.InterestFromAmount(2)
	if row.PerBlock.Magnitude.Cmp(&doubled.Magnitude) != 0 {
		t.Errorf("interest per block %s, expected doubled", row.PerBlock)
	}
}
