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

package state_test

import (
	"errors"
	"testing"

	"github.com/blinklabs-io/naiad/internal/common"
	"github.com/blinklabs-io/naiad/internal/state"
	"github.com/blinklabs-io/naiad/internal/storage"
)

func newTestView() *state.View {
	return state.NewView(storage.NewMemStore())
}

func TestBalanceZeroRowErased(t *testing.T) {
	view := newTestView()
	owner := common.Script("alice")
	if err := view.AddBalance(owner, common.TokenAmount{Token: 1, Amount: 100}); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if err := view.SubBalance(owner, common.TokenAmount{Token: 1, Amount: 100}); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	count := 0
	err := view.ForEachBalance(func(_ common.Script, _ common.TokenID, _ common.Amount) bool {
		count++
		return true
	})
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if count != 0 {
		t.Errorf("expected no balance rows, found %d", count)
	}
}

func TestBalanceUnderflow(t *testing.T) {
	view := newTestView()
	owner := common.Script("alice")
	err := view.SubBalance(owner, common.TokenAmount{Token: 1, Amount: 1})
	if !errors.Is(err, common.ErrInsufficientFunds) {
		t.Errorf("expected ErrInsufficientFunds, got %v", err)
	}
}

func TestCreateTokenIDAllocation(t *testing.T) {
	view := newTestView()
	id1, err := view.CreateToken(&state.Token{Symbol: "GOLD", Name: "Gold"})
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if id1 != common.DctIDStart {
		t.Errorf("first user token id = %d, expected %d", id1, common.DctIDStart)
	}
	id2, err := view.CreateToken(&state.Token{Symbol: "SILVER", Name: "Silver"})
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if id2 != id1+1 {
		t.Errorf("second token id = %d, expected %d", id2, id1+1)
	}
}

func TestCreateTokenDuplicateSymbol(t *testing.T) {
	view := newTestView()
	if _, err := view.CreateToken(&state.Token{Symbol: "GOLD", Name: "Gold"}); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if _, err := view.CreateToken(&state.Token{Symbol: "GOLD", Name: "Gold2"}); err == nil {
		t.Error("expected duplicate symbol rejection")
	}
}

func TestTokenSymbolLookup(t *testing.T) {
	view := newTestView()
	id, err := view.CreateToken(&state.Token{Symbol: "GOLD", Name: "Gold"})
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	token, gotID := view.GetTokenBySymbol("GOLD")
	if token == nil || gotID != id {
		t.Errorf("symbol lookup returned %v/%d", token, gotID)
	}
}

func TestVaultInterestTotal(t *testing.T) {
	view := newTestView()
	var vaultID common.VaultID
	vaultID[0] = 1
	perBlock := common.InterestPerBlock(100*common.COIN, common.COIN/100, 1051200)
	row := &state.VaultInterest{
		Height:   100,
		PerBlock: perBlock,
	}
	if err := view.SetVaultInterest(vaultID, 5, row); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	loaded, err := view.GetVaultInterest(vaultID, 5)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	ten := loaded.TotalInterest(110)
	expected := perBlock.MulBlocks(10)
	if ten.Magnitude.Cmp(&expected.Magnitude) != 0 {
		t.Errorf("TotalInterest(110) = %s, expected %s", ten, expected)
	}
	// Below the row height nothing further accrues
	same := loaded.TotalInterest(50)
	if same.Magnitude.Cmp(&loaded.ToHeight.Magnitude) != 0 {
		t.Error("TotalInterest below row height should equal ToHeight")
	}
}

func TestAuctionLifecycle(t *testing.T) {
	view := newTestView()
	var vaultID common.VaultID
	vaultID[0] = 7
	auction := &state.Auction{
		BatchCount:         2,
		LiquidationHeight:  500,
		LiquidationPenalty: 5 * common.CENT,
	}
	if err := view.SetAuction(vaultID, auction); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	found := false
	err := view.ForEachAuctionAtHeight(500, func(id common.VaultID) bool {
		found = id == vaultID
		return true
	})
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if !found {
		t.Fatal("auction missing from height index")
	}
	if err := view.DeleteAuction(vaultID); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	err = view.ForEachAuctionAtHeight(500, func(_ common.VaultID) bool {
		t.Error("height index entry not cleaned up")
		return false
	})
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
}

func TestFuturesKeyOrdering(t *testing.T) {
	view := newTestView()
	entries := []state.FuturesUserKey{
		{Height: 200, Owner: common.Script("bob"), Ordinal: 0},
		{Height: 100, Owner: common.Script("alice"), Ordinal: 1},
		{Height: 100, Owner: common.Script("alice"), Ordinal: 0},
	}
	for _, key := range entries {
		err := view.SetFuturesEntry(key, &state.FuturesEntry{
			Source:      common.TokenAmount{Token: 1, Amount: 10},
			Destination: 2,
		})
		if err != nil {
			t.Fatalf("unexpected error: %s", err)
		}
	}
	var heights []uint32
	err := view.ForEachFuturesEntry(func(k state.FuturesUserKey, _ *state.FuturesEntry) bool {
		heights = append(heights, k.Height)
		return true
	})
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if len(heights) != 3 || heights[0] != 100 || heights[2] != 200 {
		t.Errorf("unexpected iteration order: %v", heights)
	}
}
