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

package icx_test

import (
	"io"
	"log/slog"
	"testing"

	"github.com/blinklabs-io/naiad/internal/common"
	"github.com/blinklabs-io/naiad/internal/icx"
	"github.com/blinklabs-io/naiad/internal/state"
	"github.com/blinklabs-io/naiad/internal/storage"
)

var maker = common.Script("maker")

func newEngine(t *testing.T) (*icx.Engine, *state.View, common.TokenID) {
	t.Helper()
	view := state.NewView(storage.NewMemStore())
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	gold, err := view.CreateToken(&state.Token{
		Symbol: "GOLD",
		Name:   "Gold",
		Flags:  state.TokenFlagDAT | state.TokenFlagTradeable,
	})
	if err != nil {
		t.Fatalf("token creation failed: %s", err)
	}
	return icx.New(view, logger), view, gold
}

func txid(seed byte) common.TxID {
	var ret common.TxID
	ret[0] = seed
	return ret
}

func TestCreateOrderEscrowsInternal(t *testing.T) {
	engine, view, gold := newEngine(t)
	if err := view.AddBalance(maker, common.TokenAmount{Token: gold, Amount: 10 * common.COIN}); err != nil {
		t.Fatalf("funding failed: %s", err)
	}
	err := engine.CreateOrder(txid(1), &state.ICXOrder{
		Type:       state.ICXOrderInternal,
		Token:      gold,
		Chain:      "BTC",
		Owner:      maker,
		AmountFrom: 10 * common.COIN,
		OrderPrice: common.COIN / 100,
		Expiry:     100,
		Height:     50,
	})
	if err != nil {
		t.Fatalf("order creation failed: %s", err)
	}
	balance, _ := view.GetBalance(maker, gold)
	if balance != 0 {
		t.Errorf("maker balance %s after escrow, expected 0", balance)
	}
	escrowed, _ := view.GetBalance(common.ICXEscrowContract, gold)
	if escrowed != 10*common.COIN {
		t.Errorf("escrow %s, expected 10", escrowed)
	}
}

func TestCreateOrderRequiresChain(t *testing.T) {
	engine, _, gold := newEngine(t)
	err := engine.CreateOrder(txid(1), &state.ICXOrder{
		Type:       state.ICXOrderInternal,
		Token:      gold,
		Owner:      maker,
		AmountFrom: common.COIN,
		OrderPrice: common.COIN,
		Expiry:     100,
	})
	if err == nil {
		t.Error("order without a counterparty chain should be rejected")
	}
}

func TestOrderExpiryRefund(t *testing.T) {
	engine, view, gold := newEngine(t)
	if err := view.AddBalance(maker, common.TokenAmount{Token: gold, Amount: 10 * common.COIN}); err != nil {
		t.Fatalf("funding failed: %s", err)
	}
	err := engine.CreateOrder(txid(1), &state.ICXOrder{
		Type:       state.ICXOrderInternal,
		Token:      gold,
		Chain:      "BTC",
		Owner:      maker,
		AmountFrom: 10 * common.COIN,
		OrderPrice: common.COIN / 100,
		Expiry:     100,
		Height:     50,
	})
	if err != nil {
		t.Fatalf("order creation failed: %s", err)
	}
	// Nothing fills the order; it expires at height 150
	if err := engine.ProcessExpiries(150); err != nil {
		t.Fatalf("expiry processing failed: %s", err)
	}
	order, err := view.GetICXOrder(txid(1))
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if order.Status != state.ICXOrderStatusExpired {
		t.Errorf("order status %d, expected expired", order.Status)
	}
	// The escrowed 10 GOLD went back to the owner
	balance, _ := view.GetBalance(maker, gold)
	if balance != 10*common.COIN {
		t.Errorf("refund %s, expected 10", balance)
	}
}

func TestOfferHTLCClaimFlow(t *testing.T) {
	engine, view, gold := newEngine(t)
	taker := common.Script("taker")
	if err := view.AddBalance(maker, common.TokenAmount{Token: gold, Amount: 10 * common.COIN}); err != nil {
		t.Fatalf("funding failed: %s", err)
	}
	if err := view.AddBalance(taker, common.TokenAmount{Token: common.TokenIDNative, Amount: common.COIN}); err != nil {
		t.Fatalf("funding failed: %s", err)
	}
	orderTx, offerTx, htlcTx := txid(1), txid(2), txid(3)
	err := engine.CreateOrder(orderTx, &state.ICXOrder{
		Type:       state.ICXOrderInternal,
		Token:      gold,
		Chain:      "BTC",
		Owner:      maker,
		AmountFrom: 10 * common.COIN,
		OrderPrice: common.COIN / 100,
		Expiry:     1000,
		Height:     50,
	})
	if err != nil {
		t.Fatalf("order creation failed: %s", err)
	}
	err = engine.MakeOffer(offerTx, &state.ICXOffer{
		OrderTx:  orderTx,
		Amount:   10 * common.COIN,
		Owner:    taker,
		TakerFee: common.COIN / 100,
		Expiry:   100,
		Height:   60,
	})
	if err != nil {
		t.Fatalf("offer failed: %s", err)
	}
	err = engine.SubmitDFCHTLC(htlcTx, &state.ICXHTLC{
		OfferTx: offerTx,
		Amount:  10 * common.COIN,
		Hash:    txid(9),
		Timeout: 500,
		Height:  70,
	})
	if err != nil {
		t.Fatalf("htlc failed: %s", err)
	}
	// The locked amount reduces the order's open amount
	order, _ := view.GetICXOrder(orderTx)
	if order.AmountToFill != 0 {
		t.Errorf("amount to fill %s, expected 0", order.AmountToFill)
	}
	if err := engine.ClaimDFCHTLC(offerTx, htlcTx); err != nil {
		t.Fatalf("claim failed: %s", err)
	}
	// The taker received the locked GOLD
	balance, _ := view.GetBalance(taker, gold)
	if balance != 10*common.COIN {
		t.Errorf("taker balance %s, expected 10", balance)
	}
	// A fully claimed order is filled
	order, _ = view.GetICXOrder(orderTx)
	if order.Status != state.ICXOrderStatusFilled {
		t.Errorf("order status %d, expected filled", order.Status)
	}
}

func TestHTLCTimeoutRestoresOrder(t *testing.T) {
	engine, view, gold := newEngine(t)
	taker := common.Script("taker")
	if err := view.AddBalance(maker, common.TokenAmount{Token: gold, Amount: 10 * common.COIN}); err != nil {
		t.Fatalf("funding failed: %s", err)
	}
	orderTx, offerTx, htlcTx := txid(1), txid(2), txid(3)
	err := engine.CreateOrder(orderTx, &state.ICXOrder{
		Type:       state.ICXOrderInternal,
		Token:      gold,
		Chain:      "BTC",
		Owner:      maker,
		AmountFrom: 10 * common.COIN,
		OrderPrice: common.COIN / 100,
		Expiry:     1000,
		Height:     50,
	})
	if err != nil {
		t.Fatalf("order creation failed: %s", err)
	}
	err = engine.MakeOffer(offerTx, &state.ICXOffer{
		OrderTx: orderTx,
		Amount:  10 * common.COIN,
		Owner:   taker,
		Expiry:  1000,
		Height:  60,
	})
	if err != nil {
		t.Fatalf("offer failed: %s", err)
	}
	err = engine.SubmitDFCHTLC(htlcTx, &state.ICXHTLC{
		OfferTx: offerTx,
		Amount:  10 * common.COIN,
		Hash:    txid(9),
		Timeout: 100,
		Height:  70,
	})
	if err != nil {
		t.Fatalf("htlc failed: %s", err)
	}
	// The HTLC times out unclaimed at height 170
	if err := engine.ProcessExpiries(170); err != nil {
		t.Fatalf("expiry processing failed: %s", err)
	}
	order, _ := view.GetICXOrder(orderTx)
	if order.AmountToFill != 10*common.COIN {
		t.Errorf(
			"amount to fill %s after timeout, expected 10",
			order.AmountToFill,
		)
	}
}
