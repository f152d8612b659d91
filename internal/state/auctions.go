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
	"encoding/binary"
	"fmt"

	"github.com/blinklabs-io/naiad/internal/common"
)

// Auction exists iff its vault is currently in liquidation
type Auction struct {
	BatchCount         uint32
	LiquidationHeight  uint32
	LiquidationPenalty common.Amount
}

// AuctionBatch is one biddable partition of a liquidated vault
type AuctionBatch struct {
	LoanToken    common.TokenID
	LoanAmount   common.Amount
	LoanInterest common.Amount
	Collaterals  common.Balances
}

// AuctionBid is the highest qualifying bid on a batch
type AuctionBid struct {
	Owner common.Script
	Bid   common.TokenAmount
}

// SetAuction writes an auction record and its settlement-height index row
func (v *View) SetAuction(id common.VaultID, auction *Auction) error {
	if err := v.putRecord(auctionKey(id), auction); err != nil {
		return err
	}
	return v.kv.Put(auctionHeightKey(auction.LiquidationHeight, id), []byte{})
}

// GetAuction returns the auction for a vault
func (v *View) GetAuction(id common.VaultID) (*Auction, error) {
	var auction Auction
	ok, err := v.getRecord(auctionKey(id), &auction)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("auction %s: %w", id, common.ErrNotFound)
	}
	return &auction, nil
}

// DeleteAuction removes the auction, its batches, bids and height index
func (v *View) DeleteAuction(id common.VaultID) error {
	auction, err := v.GetAuction(id)
	if err != nil {
		return err
	}
	if err := v.kv.Delete(auctionKey(id)); err != nil {
		return err
	}
	if err := v.kv.Delete(auctionHeightKey(auction.LiquidationHeight, id)); err != nil {
		return err
	}
	if err := v.deleteByPrefix(append([]byte{prefixAuctionBatch}, id[:]...)); err != nil {
		return err
	}
	return v.deleteByPrefix(append([]byte{prefixAuctionBid}, id[:]...))
}

// ForEachAuction visits all auctions in vault ID order
func (v *View) ForEachAuction(visitor func(id common.VaultID, auction *Auction) bool) error {
	return v.kv.ForEach([]byte{prefixAuction}, func(key, value []byte) bool {
		if len(key) != 33 {
			return true
		}
		var id common.VaultID
		copy(id[:], key[1:])
		var auction Auction
		if err := decodeRecord(value, &auction); err != nil {
			return true
		}
		return visitor(id, &auction)
	})
}

// ForEachAuctionAtHeight visits auctions whose settlement is due at height
func (v *View) ForEachAuctionAtHeight(height uint32, visitor func(id common.VaultID) bool) error {
	prefix := appendU32([]byte{prefixAuctionHeight}, height)
	return v.kv.ForEach(prefix, func(key, _ []byte) bool {
		var id common.VaultID
		copy(id[:], key[5:])
		return visitor(id)
	})
}

// SetAuctionBatch writes a batch
func (v *View) SetAuctionBatch(id common.VaultID, index uint32, batch *AuctionBatch) error {
	return v.putRecord(auctionBatchKey(id, index), batch)
}

// GetAuctionBatch returns a batch by index
func (v *View) GetAuctionBatch(id common.VaultID, index uint32) (*AuctionBatch, error) {
	var batch AuctionBatch
	ok, err := v.getRecord(auctionBatchKey(id, index), &batch)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("auction batch %s/%d: %w", id, index, common.ErrNotFound)
	}
	return &batch, nil
}

// ForEachAuctionBatch visits a vault's batches in index order
func (v *View) ForEachAuctionBatch(id common.VaultID, visitor func(index uint32, batch *AuctionBatch) bool) error {
	prefix := append([]byte{prefixAuctionBatch}, id[:]...)
	return v.kv.ForEach(prefix, func(key, value []byte) bool {
		index := binary.BigEndian.Uint32(key[len(key)-4:])
		var batch AuctionBatch
		if err := decodeRecord(value, &batch); err != nil {
			return true
		}
		return visitor(index, &batch)
	})
}

// SetAuctionBid writes the retained bid for a batch
func (v *View) SetAuctionBid(id common.VaultID, index uint32, bid *AuctionBid) error {
	return v.putRecord(auctionBidKey(id, index), bid)
}

// GetAuctionBid returns the retained bid, nil if none
func (v *View) GetAuctionBid(id common.VaultID, index uint32) (*AuctionBid, error) {
	var bid AuctionBid
	ok, err := v.getRecord(auctionBidKey(id, index), &bid)
	if err != nil || !ok {
		return nil, err
	}
	return &bid, nil
}

// DeleteAuctionBid removes a bid row
func (v *View) DeleteAuctionBid(id common.VaultID, index uint32) error {
	return v.kv.Delete(auctionBidKey(id, index))
}
