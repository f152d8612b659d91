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

package rpc

import (
	"net/http"

	"github.com/blinklabs-io/naiad/internal/common"
	"github.com/blinklabs-io/naiad/internal/state"

	"github.com/go-chi/chi/v5"
)

type vaultRow struct {
	VaultID          string            `json:"vaultId"`
	Owner            string            `json:"ownerAddress"`
	Scheme           string            `json:"loanSchemeId"`
	UnderLiquidation bool              `json:"isUnderLiquidation"`
	Collaterals      map[string]string `json:"collateralAmounts"`
	Loans            map[string]string `json:"loanAmounts"`
}

func (s *Server) vaultToRow(id common.VaultID, vault *state.Vault) (vaultRow, error) {
	row := vaultRow{
		VaultID:          id.String(),
		Owner:            vault.Owner.String(),
		Scheme:           vault.SchemeID,
		UnderLiquidation: vault.UnderLiquidation,
		Collaterals:      make(map[string]string),
		Loans:            make(map[string]string),
	}
	collaterals, err := s.view.GetVaultCollateral(id)
	if err != nil {
		return row, err
	}
	for _, token := range collaterals.SortedTokens() {
		row.Collaterals[token.String()] = collaterals[token].String()
	}
	loans, err := s.view.GetVaultLoans(id)
	if err != nil {
		return row, err
	}
	for _, token := range loans.SortedTokens() {
		row.Loans[token.String()] = loans[token].String()
	}
	return row, nil
}

func (s *Server) handleListVaults(w http.ResponseWriter, r *http.Request) {
	pg := parsePage(r)
	rows := make([]vaultRow, 0)
	var outerErr error
	err := s.view.ForEachVault(func(id common.VaultID, vault *state.Vault) bool {
		row, err := s.vaultToRow(id, vault)
		if err != nil {
			outerErr = err
			return false
		}
		rows = append(rows, row)
		return len(rows) < pg.limit
	})
	if err == nil {
		err = outerErr
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, map[string]any{"vaults": rows, "count": len(rows)})
}

func (s *Server) handleGetVault(w http.ResponseWriter, r *http.Request) {
	id, err := common.VaultIDFromString(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	vault, err := s.view.GetVault(id)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	row, err := s.vaultToRow(id, vault)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, row)
}

func (s *Server) handleListAuctions(w http.ResponseWriter, r *http.Request) {
	pg := parsePage(r)
	type batchRow struct {
		Index        uint32            `json:"index"`
		LoanToken    common.TokenID    `json:"loanToken"`
		LoanAmount   string            `json:"loanAmount"`
		LoanInterest string            `json:"loanInterest"`
		Collaterals  map[string]string `json:"collaterals"`
		Bidder       string            `json:"highestBidder,omitempty"`
		Bid          string            `json:"highestBid,omitempty"`
	}
	type auctionRow struct {
		VaultID           string     `json:"vaultId"`
		LiquidationHeight uint32     `json:"liquidationHeight"`
		Penalty           string     `json:"liquidationPenalty"`
		Batches           []batchRow `json:"batches"`
	}
	rows := make([]auctionRow, 0)
	var outerErr error
	err := s.view.ForEachAuction(func(id common.VaultID, auction *state.Auction) bool {
		row := auctionRow{
			VaultID:           id.String(),
			LiquidationHeight: auction.LiquidationHeight,
			Penalty:           auction.LiquidationPenalty.String(),
		}
		outerErr = s.view.ForEachAuctionBatch(id, func(index uint32, batch *state.AuctionBatch) bool {
			br := batchRow{
				Index:        index,
				LoanToken:    batch.LoanToken,
				LoanAmount:   batch.LoanAmount.String(),
				LoanInterest: batch.LoanInterest.String(),
				Collaterals:  make(map[string]string),
			}
			for _, token := range batch.Collaterals.SortedTokens() {
				br.Collaterals[token.String()] = batch.Collaterals[token].String()
			}
			if bid, err := s.view.GetAuctionBid(id, index); err == nil && bid != nil {
				br.Bidder = bid.Owner.String()
				br.Bid = bid.Bid.String()
			}
			row.Batches = append(row.Batches, br)
			return true
		})
		if outerErr != nil {
			return false
		}
		rows = append(rows, row)
		return len(rows) < pg.limit
	})
	if err == nil {
		err = outerErr
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, map[string]any{"auctions": rows, "count": len(rows)})
}
