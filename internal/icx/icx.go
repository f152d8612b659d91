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

package icx

import (
	"fmt"
	"log/slog"

	"github.com/blinklabs-io/naiad/internal/common"
	"github.com/blinklabs-io/naiad/internal/state"
)

// Engine runs the cross-chain atomic swap order book
type Engine struct {
	view   *state.View
	logger *slog.Logger
}

// New creates an order book engine over a view
func New(view *state.View, logger *slog.Logger) *Engine {
	return &Engine{view: view, logger: logger}
}

// CreateOrder opens an order. Internal orders escrow the offered token
// amount; external orders only advertise the external-chain asset.
func (e *Engine) CreateOrder(tx common.TxID, order *state.ICXOrder) error {
	// An internal order sells into an external chain, an external order
	// sells from one; either way the counterparty chain must be named
	if order.Chain == "" {
		return fmt.Errorf("order names no counterparty chain")
	}
	if order.Type != state.ICXOrderInternal && order.Type != state.ICXOrderExternal {
		return fmt.Errorf("unknown order type %d", order.Type)
	}
	if order.AmountFrom <= 0 {
		return fmt.Errorf("order amount must be positive")
	}
	if order.OrderPrice <= 0 {
		return fmt.Errorf("order price must be positive")
	}
	if order.Type == state.ICXOrderInternal {
		if _, err := e.view.GetToken(order.Token); err != nil {
			return err
		}
		if err := e.view.SubBalance(order.Owner, common.TokenAmount{Token: order.Token, Amount: order.AmountFrom}); err != nil {
			return err
		}
		if err := e.view.AddBalance(common.ICXEscrowContract, common.TokenAmount{Token: order.Token, Amount: order.AmountFrom}); err != nil {
			return err
		}
	}
	order.AmountToFill = order.AmountFrom
	order.Status = state.ICXOrderStatusOpen
	return e.view.SetICXOrder(tx, order)
}

// MakeOffer answers an open order, escrowing the taker fee
func (e *Engine) MakeOffer(tx common.TxID, offer *state.ICXOffer) error {
	order, err := e.view.GetICXOrder(offer.OrderTx)
	if err != nil {
		return err
	}
	if order.Status != state.ICXOrderStatusOpen {
		return fmt.Errorf("order %s is not open", offer.OrderTx)
	}
	if offer.Amount <= 0 || offer.Amount > order.AmountToFill {
		return fmt.Errorf("offer amount outside the order's open amount")
	}
	if offer.TakerFee > 0 {
		fee := common.TokenAmount{Token: common.TokenIDNative, Amount: offer.TakerFee}
		if err := e.view.SubBalance(offer.Owner, fee); err != nil {
			return err
		}
		if err := e.view.AddBalance(common.ICXEscrowContract, fee); err != nil {
			return err
		}
	}
	return e.view.SetICXOffer(tx, offer)
}

// SubmitDFCHTLC locks part of an internal order behind a hash lock
func (e *Engine) SubmitDFCHTLC(tx common.TxID, htlc *state.ICXHTLC) error {
	offer, err := e.view.GetICXOffer(htlc.OfferTx)
	if err != nil {
		return err
	}
	order, err := e.view.GetICXOrder(offer.OrderTx)
	if err != nil {
		return err
	}
	if order.Status != state.ICXOrderStatusOpen {
		return fmt.Errorf("order %s is not open", offer.OrderTx)
	}
	if htlc.Amount <= 0 || htlc.Amount > order.AmountToFill {
		return fmt.Errorf("htlc amount outside the order's open amount")
	}
	htlc.Kind = state.ICXHTLCDfc
	order.AmountToFill -= htlc.Amount
	if err := e.view.SetICXOrder(offer.OrderTx, order); err != nil {
		return err
	}
	return e.view.SetICXHTLC(tx, htlc)
}

// SubmitEXTHTLC records the external-chain hash lock for an offer
func (e *Engine) SubmitEXTHTLC(tx common.TxID, htlc *state.ICXHTLC) error {
	if _, err := e.view.GetICXOffer(htlc.OfferTx); err != nil {
		return err
	}
	if htlc.Amount <= 0 {
		return fmt.Errorf("htlc amount must be positive")
	}
	htlc.Kind = state.ICXHTLCExt
	return e.view.SetICXHTLC(tx, htlc)
}

// ClaimDFCHTLC releases a hash-locked amount to the offer's owner
func (e *Engine) ClaimDFCHTLC(offerTx, htlcTx common.TxID) error {
	htlc, err := e.view.GetICXHTLC(offerTx, htlcTx)
	if err != nil {
		return err
	}
	if htlc.Kind != state.ICXHTLCDfc {
		return fmt.Errorf("htlc %s is not a chain-side lock", htlcTx)
	}
	if htlc.Claimed || htlc.Refunded {
		return fmt.Errorf("htlc %s is already settled", htlcTx)
	}
	offer, err := e.view.GetICXOffer(offerTx)
	if err != nil {
		return err
	}
	order, err := e.view.GetICXOrder(offer.OrderTx)
	if err != nil {
		return err
	}
	amount := common.TokenAmount{Token: order.Token, Amount: htlc.Amount}
	if err := e.view.SubBalance(common.ICXEscrowContract, amount); err != nil {
		return err
	}
	if err := e.view.AddBalance(offer.Owner, amount); err != nil {
		return err
	}
	htlc.Claimed = true
	if err := e.view.SetICXHTLC(htlcTx, htlc); err != nil {
		return err
	}
	// A fully claimed order closes as filled
	if order.AmountToFill == 0 {
		order.Status = state.ICXOrderStatusFilled
		order.CloseTx = htlcTx
		if err := e.view.SetICXOrder(offer.OrderTx, order); err != nil {
			return err
		}
	}
	offer.Closed = true
	return e.view.SetICXOffer(offerTx, offer)
}

// CloseOrder refunds an order's remaining escrow and closes it
func (e *Engine) CloseOrder(tx, closeTx common.TxID, height uint32) error {
	order, err := e.view.GetICXOrder(tx)
	if err != nil {
		return err
	}
	if order.Status != state.ICXOrderStatusOpen {
		return fmt.Errorf("order %s is not open", tx)
	}
	return e.closeOrder(tx, order, closeTx, height, state.ICXOrderStatusClosed)
}

// CloseOffer refunds an offer's taker fee and closes it
func (e *Engine) CloseOffer(tx common.TxID) error {
	offer, err := e.view.GetICXOffer(tx)
	if err != nil {
		return err
	}
	if offer.Closed {
		return fmt.Errorf("offer %s is already closed", tx)
	}
	return e.closeOffer(tx, offer)
}

func (e *Engine) closeOrder(tx common.TxID, order *state.ICXOrder, closeTx common.TxID, height uint32, status state.ICXOrderStatus) error {
	if order.Type == state.ICXOrderInternal && order.AmountToFill > 0 {
		amount := common.TokenAmount{Token: order.Token, Amount: order.AmountToFill}
		if err := e.view.SubBalance(common.ICXEscrowContract, amount); err != nil {
			return err
		}
		if err := e.view.AddBalance(order.Owner, amount); err != nil {
			return err
		}
	}
	order.Status = status
	order.CloseTx = closeTx
	order.CloseHeight = height
	return e.view.SetICXOrder(tx, order)
}

func (e *Engine) closeOffer(tx common.TxID, offer *state.ICXOffer) error {
	if offer.TakerFee > 0 {
		fee := common.TokenAmount{Token: common.TokenIDNative, Amount: offer.TakerFee}
		if err := e.view.SubBalance(common.ICXEscrowContract, fee); err != nil {
			return err
		}
		if err := e.view.AddBalance(offer.Owner, fee); err != nil {
			return err
		}
	}
	offer.Closed = true
	return e.view.SetICXOffer(tx, offer)
}

// ProcessExpiries expires orders, offers and in-flight HTLCs whose
// deadlines land at this height
func (e *Engine) ProcessExpiries(height uint32) error {
	var expiredOrders []common.TxID
	err := e.view.ForEachICXOrderExpiringAt(height, func(tx common.TxID) bool {
		expiredOrders = append(expiredOrders, tx)
		return true
	})
	if err != nil {
		return err
	}
	for _, tx := range expiredOrders {
		order, err := e.view.GetICXOrder(tx)
		if err != nil {
			return err
		}
		if order.Status != state.ICXOrderStatusOpen {
			continue
		}
		if err := e.closeOrder(tx, order, tx, height, state.ICXOrderStatusExpired); err != nil {
			return err
		}
		e.logger.Debug("icx order expired", "order", tx.String())
	}

	var expiredOffers []common.TxID
	err = e.view.ForEachICXOfferExpiringAt(height, func(tx common.TxID) bool {
		expiredOffers = append(expiredOffers, tx)
		return true
	})
	if err != nil {
		return err
	}
	for _, tx := range expiredOffers {
		offer, err := e.view.GetICXOffer(tx)
		if err != nil {
			return err
		}
		if offer.Closed {
			continue
		}
		if err := e.closeOffer(tx, offer); err != nil {
			return err
		}
	}

	type expiredHTLC struct {
		offerTx common.TxID
		tx      common.TxID
	}
	var htlcs []expiredHTLC
	err = e.view.ForEachICXHTLCExpiringAt(height, func(offerTx, tx common.TxID) bool {
		htlcs = append(htlcs, expiredHTLC{offerTx: offerTx, tx: tx})
		return true
	})
	if err != nil {
		return err
	}
	for _, ref := range htlcs {
		htlc, err := e.view.GetICXHTLC(ref.offerTx, ref.tx)
		if err != nil {
			return err
		}
		if htlc.Claimed || htlc.Refunded {
			continue
		}
		offer, err := e.view.GetICXOffer(ref.offerTx)
		if err != nil {
			return err
		}
		order, err := e.view.GetICXOrder(offer.OrderTx)
		if err != nil {
			return err
		}
		if htlc.Kind == state.ICXHTLCDfc {
			// A timed-out chain-side lock returns into the order's open amount
			order.AmountToFill += htlc.Amount
			if err := e.view.SetICXOrder(offer.OrderTx, order); err != nil {
				return err
			}
		}
		htlc.Refunded = true
		if err := e.view.SetICXHTLC(ref.tx, htlc); err != nil {
			return err
		}
	}
	return nil
}
