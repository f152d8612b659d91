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
	"fmt"

	"github.com/blinklabs-io/naiad/internal/common"
)

// ICXOrderType distinguishes chain-internal and external orders
type ICXOrderType uint8

const (
	// ICXOrderInternal sells a chain token for an external-chain asset
	ICXOrderInternal ICXOrderType = iota + 1
	// ICXOrderExternal sells an external-chain asset for a chain token
	ICXOrderExternal
)

// ICXOrderStatus reflects an order's lifecycle
type ICXOrderStatus uint8

const (
	ICXOrderStatusOpen ICXOrderStatus = iota
	ICXOrderStatusClosed
	ICXOrderStatusExpired
	ICXOrderStatusFilled
)

// ICXOrder is a cross-chain atomic swap order book entry
type ICXOrder struct {
	Type         ICXOrderType
	Token        common.TokenID
	Chain        string
	Owner        common.Script
	AmountFrom   common.Amount
	AmountToFill common.Amount
	OrderPrice   common.Amount
	Expiry       uint32
	Height       uint32
	Status       ICXOrderStatus
	CloseTx      common.TxID
	CloseHeight  uint32
}

// ICXOffer answers an order with a taker amount
type ICXOffer struct {
	OrderTx  common.TxID
	Amount   common.Amount
	Owner    common.Script
	TakerFee common.Amount
	Expiry   uint32
	Height   uint32
	Closed   bool
}

// ICXHTLCKind distinguishes chain-side and external-chain HTLCs
type ICXHTLCKind uint8

const (
	ICXHTLCDfc ICXHTLCKind = iota + 1
	ICXHTLCExt
)

// ICXHTLC is a hashed time-lock contract submitted against an offer
type ICXHTLC struct {
	Kind      ICXHTLCKind
	OfferTx   common.TxID
	Amount    common.Amount
	Hash      common.TxID
	Timeout   uint32
	Height    uint32
	Claimed   bool
	Refunded  bool
	HtlcScript string
}

// SetICXOrder writes an order and, while open, its expiry index row
func (v *View) SetICXOrder(tx common.TxID, order *ICXOrder) error {
	if err := v.putRecord(icxOrderKey(tx), order); err != nil {
		return err
	}
	if order.Status == ICXOrderStatusOpen {
		return v.kv.Put(icxExpiryKey(prefixICXOrderExpiry, order.Height+order.Expiry, tx), []byte{})
	}
	return v.kv.Delete(icxExpiryKey(prefixICXOrderExpiry, order.Height+order.Expiry, tx))
}

// GetICXOrder returns an order by its creating transaction
func (v *View) GetICXOrder(tx common.TxID) (*ICXOrder, error) {
	var order ICXOrder
	ok, err := v.getRecord(icxOrderKey(tx), &order)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("icx order %s: %w", tx, common.ErrNotFound)
	}
	return &order, nil
}

// ForEachICXOrder visits all orders in creation-tx order
func (v *View) ForEachICXOrder(visitor func(tx common.TxID, order *ICXOrder) bool) error {
	return v.kv.ForEach([]byte{prefixICXOrder}, func(key, value []byte) bool {
		if len(key) != 33 {
			return true
		}
		var tx common.TxID
		copy(tx[:], key[1:])
		var order ICXOrder
		if err := decodeRecord(value, &order); err != nil {
			return true
		}
		return visitor(tx, &order)
	})
}

// ForEachICXOrderExpiringAt visits open orders whose expiry equals height
func (v *View) ForEachICXOrderExpiringAt(height uint32, visitor func(tx common.TxID) bool) error {
	prefix := appendU32([]byte{prefixICXOrderExpiry}, height)
	return v.kv.ForEach(prefix, func(key, _ []byte) bool {
		var tx common.TxID
		copy(tx[:], key[5:])
		return visitor(tx)
	})
}

// SetICXOffer writes an offer and, while open, its expiry index row
func (v *View) SetICXOffer(tx common.TxID, offer *ICXOffer) error {
	if err := v.putRecord(icxOfferKey(tx), offer); err != nil {
		return err
	}
	if !offer.Closed {
		return v.kv.Put(icxExpiryKey(prefixICXOfferExpiry, offer.Height+offer.Expiry, tx), []byte{})
	}
	return v.kv.Delete(icxExpiryKey(prefixICXOfferExpiry, offer.Height+offer.Expiry, tx))
}

// GetICXOffer returns an offer by its creating transaction
func (v *View) GetICXOffer(tx common.TxID) (*ICXOffer, error) {
	var offer ICXOffer
	ok, err := v.getRecord(icxOfferKey(tx), &offer)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("icx offer %s: %w", tx, common.ErrNotFound)
	}
	return &offer, nil
}

// ForEachICXOfferExpiringAt visits open offers whose expiry equals height
func (v *View) ForEachICXOfferExpiringAt(height uint32, visitor func(tx common.TxID) bool) error {
	prefix := appendU32([]byte{prefixICXOfferExpiry}, height)
	return v.kv.ForEach(prefix, func(key, _ []byte) bool {
		var tx common.TxID
		copy(tx[:], key[5:])
		return visitor(tx)
	})
}

// SetICXHTLC writes an HTLC under its offer, plus a timeout index row
func (v *View) SetICXHTLC(tx common.TxID, htlc *ICXHTLC) error {
	if err := v.putRecord(icxHTLCKey(htlc.OfferTx, tx), htlc); err != nil {
		return err
	}
	if !htlc.Claimed && !htlc.Refunded {
		return v.kv.Put(icxExpiryKey(prefixICXHTLCExpiry, htlc.Height+htlc.Timeout, tx), append([]byte{}, htlc.OfferTx[:]...))
	}
	return v.kv.Delete(icxExpiryKey(prefixICXHTLCExpiry, htlc.Height+htlc.Timeout, tx))
}

// GetICXHTLC returns an HTLC by (offer, tx)
func (v *View) GetICXHTLC(offerTx, tx common.TxID) (*ICXHTLC, error) {
	var htlc ICXHTLC
	ok, err := v.getRecord(icxHTLCKey(offerTx, tx), &htlc)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("icx htlc %s: %w", tx, common.ErrNotFound)
	}
	return &htlc, nil
}

// ForEachICXHTLC visits an offer's HTLCs in tx order
func (v *View) ForEachICXHTLC(offerTx common.TxID, visitor func(tx common.TxID, htlc *ICXHTLC) bool) error {
	prefix := append([]byte{prefixICXHTLC}, offerTx[:]...)
	return v.kv.ForEach(prefix, func(key, value []byte) bool {
		var tx common.TxID
		copy(tx[:], key[33:])
		var htlc ICXHTLC
		if err := decodeRecord(value, &htlc); err != nil {
			return true
		}
		return visitor(tx, &htlc)
	})
}

// ForEachICXHTLCExpiringAt visits HTLCs whose timeout lands at height
func (v *View) ForEachICXHTLCExpiringAt(height uint32, visitor func(offerTx, tx common.TxID) bool) error {
	prefix := appendU32([]byte{prefixICXHTLCExpiry}, height)
	return v.kv.ForEach(prefix, func(key, value []byte) bool {
		var tx, offerTx common.TxID
		copy(tx[:], key[5:])
		copy(offerTx[:], value)
		return visitor(offerTx, tx)
	})
}
