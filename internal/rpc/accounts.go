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

type accountRow struct {
	Owner   string            `json:"owner"`
	Token   common.TokenID    `json:"token"`
	Amount  string            `json:"amount"`
}

func (s *Server) handleListAccounts(w http.ResponseWriter, r *http.Request) {
	pg := parsePage(r)
	rows := make([]accountRow, 0)
	err := s.view.ForEachBalance(func(owner common.Script, token common.TokenID, amount common.Amount) bool {
		if pg.start != "" && owner.String() < pg.start {
			return true
		}
		rows = append(rows, accountRow{
			Owner:  owner.String(),
			Token:  token,
			Amount: amount.String(),
		})
		return len(rows) < pg.limit
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, map[string]any{"accounts": rows, "count": len(rows)})
}

func (s *Server) handleGetAccount(w http.ResponseWriter, r *http.Request) {
	owner, err := common.ScriptFromString(chi.URLParam(r, "owner"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	balances, err := s.view.GetBalances(owner)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	ret := make(map[string]string)
	for _, token := range balances.SortedTokens() {
		ret[token.String()] = balances[token].String()
	}
	writeJSON(w, ret)
}

func (s *Server) handleAccountHistory(w http.ResponseWriter, r *http.Request) {
	if !s.cfg.Indexing.AccountIndex {
		writeError(w, http.StatusBadRequest, "account history is not indexed (-acindex)")
		return
	}
	owner, err := common.ScriptFromString(chi.URLParam(r, "owner"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	pg := parsePage(r)
	type historyRow struct {
		Height   uint32               `json:"height"`
		Txn      uint32               `json:"txn"`
		TxID     string               `json:"txid"`
		Category string               `json:"type"`
		Amounts  []common.TokenAmount `json:"amounts"`
	}
	rows := make([]historyRow, 0)
	err = s.view.ForEachHistory(owner, func(height uint32, txn uint32, entry *state.HistoryEntry) bool {
		rows = append(rows, historyRow{
			Height:   height,
			Txn:      txn,
			TxID:     entry.TxID.String(),
			Category: entry.Category,
			Amounts:  entry.Amounts,
		})
		return len(rows) < pg.limit
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, map[string]any{"history": rows, "count": len(rows)})
}

func (s *Server) handlePendingFutures(w http.ResponseWriter, r *http.Request) {
	pg := parsePage(r)
	type futuresRow struct {
		Owner       string             `json:"owner"`
		Height      uint32             `json:"submitHeight"`
		Source      common.TokenAmount `json:"source"`
		Destination common.TokenID     `json:"destination"`
	}
	rows := make([]futuresRow, 0)
	err := s.view.ForEachFuturesEntry(func(k state.FuturesUserKey, entry *state.FuturesEntry) bool {
		rows = append(rows, futuresRow{
			Owner:       k.Owner.String(),
			Height:      k.Height,
			Source:      entry.Source,
			Destination: entry.Destination,
		})
		return len(rows) < pg.limit
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, map[string]any{"futures": rows, "count": len(rows)})
}

func (s *Server) handlePendingDUSDFutures(w http.ResponseWriter, r *http.Request) {
	pg := parsePage(r)
	type dusdRow struct {
		Owner  string `json:"owner"`
		Height uint32 `json:"submitHeight"`
		Amount string `json:"amount"`
	}
	rows := make([]dusdRow, 0)
	err := s.view.ForEachDUSDFuturesEntry(func(k state.FuturesUserKey, amount common.Amount) bool {
		rows = append(rows, dusdRow{
			Owner:  k.Owner.String(),
			Height: k.Height,
			Amount: amount.String(),
		})
		return len(rows) < pg.limit
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, map[string]any{"futures": rows, "count": len(rows)})
}
