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
	"fmt"

	"github.com/blinklabs-io/naiad/internal/common"
	"github.com/blinklabs-io/naiad/internal/pool"
	"github.com/blinklabs-io/naiad/internal/state"
)

// BidMinIncrementPct is the minimum raise over the prior bid
const BidMinIncrementPct = common.CENT // 1%

// PlaceAuctionBid escrows a bid on a batch, refunding the prior bidder.
// Only the highest qualifying bid is retained.
func (e *Engine) PlaceAuctionBid(vaultID common.VaultID, index uint32, bidder common.Script, bid common.TokenAmount) error {
	auction, err := e.view.GetAuction(vaultID)
	if err != nil {
		return err
	}
	if index >= auction.BatchCount {
		return fmt.Errorf("auction %s has no batch %d", vaultID, index)
	}
	batch, err := e.view.GetAuctionBatch(vaultID, index)
	if err != nil {
		return err
	}
	if bid.Token != batch.LoanToken {
		return fmt.Errorf("bid must be in token %d", batch.LoanToken)
	}
	minBid, err := common.MulDiv(batch.LoanAmount, common.COIN+auction.LiquidationPenalty, common.COIN)
	if err != nil {
		return err
	}
	if bid.Amount < minBid {
		return fmt.Errorf("bid %s below liquidation minimum %s", bid.Amount, minBid)
	}
	prior, err := e.view.GetAuctionBid(vaultID, index)
	if err != nil {
		return err
	}
	if prior != nil {
		raise, err := common.MulDiv(prior.Bid.Amount, common.COIN+BidMinIncrementPct, common.COIN)
		if err != nil {
			return err
		}
		if bid.Amount < raise {
			return fmt.Errorf("bid %s below required increment over %s", bid.Amount, prior.Bid.Amount)
		}
	}
	if err := e.view.SubBalance(bidder, bid); err != nil {
		return err
	}
	if err := e.view.AddBalance(common.AuctionEscrowContract, bid); err != nil {
		return err
	}
	if prior != nil {
		if err := e.view.SubBalance(common.AuctionEscrowContract, prior.Bid); err != nil {
			return err
		}
		if err := e.view.AddBalance(prior.Owner, prior.Bid); err != nil {
			return err
		}
	}
	return e.view.SetAuctionBid(vaultID, index, &state.AuctionBid{Owner: bidder, Bid: bid})
}

// ProcessAuctionEvents settles every auction whose liquidation height is
// reached: won batches pay out to the bidder, unbid batches return to the
// vault with their loans restored.
func (e *Engine) ProcessAuctionEvents(height uint32) error {
	var due []common.VaultID
	err := e.view.ForEachAuctionAtHeight(height, func(id common.VaultID) bool {
		due = append(due, id)
		return true
	})
	if err != nil {
		return err
	}
	for _, vaultID := range due {
		if err := e.settleAuction(vaultID, height); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) settleAuction(vaultID common.VaultID, height uint32) error {
	auction, err := e.view.GetAuction(vaultID)
	if err != nil {
		return err
	}
	vault, err := e.view.GetVault(vaultID)
	if err != nil {
		return err
	}
	collaterals, err := e.view.GetVaultCollateral(vaultID)
	if err != nil {
		return err
	}
	loans, err := e.view.GetVaultLoans(vaultID)
	if err != nil {
		return err
	}
	for index := uint32(0); index < auction.BatchCount; index++ {
		batch, err := e.view.GetAuctionBatch(vaultID, index)
		if err != nil {
			return err
		}
		bid, err := e.view.GetAuctionBid(vaultID, index)
		if err != nil {
			return err
		}
		if bid == nil {
			// No bid: collateral returns to the vault, the loan (with its
			// interest) is restored and the rate re-seeded
			if err := collaterals.AddBalances(batch.Collaterals); err != nil {
				return err
			}
			if batch.LoanAmount > 0 {
				if err := loans.Add(common.TokenAmount{Token: batch.LoanToken, Amount: batch.LoanAmount}); err != nil {
					return err
				}
			}
			continue
		}
		// Winning bid: bidder takes the collaterals
		if err := e.view.AddBalances(bid.Owner, batch.Collaterals); err != nil {
			return err
		}
		due, err := common.MulDiv(batch.LoanAmount, common.COIN+auction.LiquidationPenalty, common.COIN)
		if err != nil {
			return err
		}
		surplus := bid.Bid.Amount - due
		if surplus > 0 {
			// Surplus returns to the vault as collateral, auto-swapped into
			// the native coin when a pool path exists
			if err := e.payToVault(vaultID, collaterals, common.TokenAmount{Token: bid.Bid.Token, Amount: surplus}); err != nil {
				return err
			}
		}
		// The repaid principal leaves circulation against the minted supply
		principal := batch.LoanAmount - batch.LoanInterest
		if principal > 0 {
			if err := e.view.SubBalance(common.AuctionEscrowContract, common.TokenAmount{Token: bid.Bid.Token, Amount: principal}); err != nil {
				return err
			}
			if err := e.view.AddMintedAmount(batch.LoanToken, -principal); err != nil {
				return err
			}
		}
		// The penalty plus interest portion is burned
		if burnPortion := due - principal; burnPortion > 0 {
			if err := e.view.SubBalance(common.AuctionEscrowContract, common.TokenAmount{Token: bid.Bid.Token, Amount: burnPortion}); err != nil {
				return err
			}
			if err := e.view.AddBalance(common.BurnAddress, common.TokenAmount{Token: bid.Bid.Token, Amount: burnPortion}); err != nil {
				return err
			}
		}
	}
	if err := e.view.SetVaultCollateral(vaultID, collaterals); err != nil {
		return err
	}
	if err := e.view.SetVaultLoans(vaultID, loans); err != nil {
		return err
	}
	for _, token := range loans.SortedTokens() {
		if err := e.updateInterest(vaultID, vault.SchemeID, token, height); err != nil {
			return err
		}
	}
	vault.UnderLiquidation = false
	if err := e.view.SetVault(vaultID, vault); err != nil {
		return err
	}
	e.logger.Info(
		"auction settled",
		"vault", vaultID.String(),
		"batches", auction.BatchCount,
	)
	return e.view.DeleteAuction(vaultID)
}

// payToVault converts a surplus amount into native coin through the DEX
// when possible and adds it to the vault's collateral
func (e *Engine) payToVault(vaultID common.VaultID, collaterals common.Balances, amount common.TokenAmount) error {
	credit := amount
	if amount.Token != common.TokenIDNative {
		poolID, _, err := e.pools.FindPoolPair(amount.Token, common.TokenIDNative)
		if err == nil {
			out, err := e.pools.Swap(
				common.AuctionEscrowContract,
				common.AuctionEscrowContract,
				amount,
				[]common.TokenID{poolID},
				pool.MaxPrice{Integer: common.MaxMoney / common.COIN},
			)
			if err == nil {
				credit = out
			}
		}
	}
	if err := e.view.SubBalance(common.AuctionEscrowContract, credit); err != nil {
		return err
	}
	return collaterals.Add(credit)
}
