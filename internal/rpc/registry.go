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
	"strconv"

	"github.com/blinklabs-io/naiad/internal/common"
	"github.com/blinklabs-io/naiad/internal/state"

	"github.com/go-chi/chi/v5"
)

type tokenRow struct {
	ID                common.TokenID `json:"id"`
	Symbol            string         `json:"symbol"`
	Name              string         `json:"name"`
	Minted            string         `json:"minted"`
	Mintable          bool           `json:"mintable"`
	Tradeable         bool           `json:"tradeable"`
	IsDAT             bool           `json:"isDAT"`
	IsLPS             bool           `json:"isLPS"`
	IsLoanToken       bool           `json:"isLoanToken"`
	Finalized         bool           `json:"finalized"`
	CreationHeight    uint32         `json:"creationHeight"`
	DestructionHeight uint32         `json:"destructionHeight,omitempty"`
}

func tokenToRow(id common.TokenID, token *state.Token) tokenRow {
	return tokenRow{
		ID:                id,
		Symbol:            token.Symbol,
		Name:              token.Name,
		Minted:            token.Minted.String(),
		Mintable:          token.IsMintable(),
		Tradeable:         token.IsTradeable(),
		IsDAT:             token.IsDAT(),
		IsLPS:             token.IsLPS(),
		IsLoanToken:       token.IsLoanToken(),
		Finalized:         token.IsFinalized(),
		CreationHeight:    token.CreationHeight,
		DestructionHeight: token.DestructionHeight,
	}
}

func (s *Server) handleListTokens(w http.ResponseWriter, r *http.Request) {
	pg := parsePage(r)
	rows := make([]tokenRow, 0)
	err := s.view.ForEachToken(func(id common.TokenID, token *state.Token) bool {
		rows = append(rows, tokenToRow(id, token))
		return len(rows) < pg.limit
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, map[string]any{"tokens": rows, "count": len(rows)})
}

func (s *Server) handleGetToken(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "id")
	var (
		token *state.Token
		id    common.TokenID
	)
	if n, err := strconv.ParseUint(raw, 10, 32); err == nil {
		id = common.TokenID(n)
		token, err = s.view.GetToken(id)
		if err != nil {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
	} else {
		token, id = s.view.GetTokenBySymbol(raw)
		if token == nil {
			writeError(w, http.StatusNotFound, "token not found")
			return
		}
	}
	writeJSON(w, tokenToRow(id, token))
}

type poolRow struct {
	ID             common.TokenID `json:"id"`
	TokenA         common.TokenID `json:"tokenA"`
	TokenB         common.TokenID `json:"tokenB"`
	ReserveA       string         `json:"reserveA"`
	ReserveB       string         `json:"reserveB"`
	TotalLiquidity string         `json:"totalLiquidity"`
	Commission     string         `json:"commission"`
	RewardPct      string         `json:"rewardPct"`
	Status         bool           `json:"status"`
	OwnerAddress   string         `json:"ownerAddress"`
}

func poolToRow(id common.TokenID, pool *state.PoolPair) poolRow {
	return poolRow{
		ID:             id,
		TokenA:         pool.TokenA,
		TokenB:         pool.TokenB,
		ReserveA:       pool.ReserveA.String(),
		ReserveB:       pool.ReserveB.String(),
		TotalLiquidity: pool.TotalLiquidity.String(),
		Commission:     pool.Commission.String(),
		RewardPct:      pool.RewardPct.String(),
		Status:         pool.Status,
		OwnerAddress:   pool.OwnerAddress.String(),
	}
}

func (s *Server) handleListPools(w http.ResponseWriter, r *http.Request) {
	pg := parsePage(r)
	rows := make([]poolRow, 0)
	err := s.view.ForEachPoolPair(func(id common.TokenID, pool *state.PoolPair) bool {
		rows = append(rows, poolToRow(id, pool))
		return len(rows) < pg.limit
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, map[string]any{"pools": rows, "count": len(rows)})
}

func (s *Server) handleGetPool(w http.ResponseWriter, r *http.Request) {
	n, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 32)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	pool, err := s.view.GetPoolPair(common.TokenID(n))
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, poolToRow(common.TokenID(n), pool))
}

func (s *Server) handleListOrders(w http.ResponseWriter, r *http.Request) {
	pg := parsePage(r)
	type orderRow struct {
		Tx           string `json:"tx"`
		Type         uint8  `json:"type"`
		Token        uint32 `json:"token"`
		Chain        string `json:"chain"`
		Owner        string `json:"owner"`
		AmountFrom   string `json:"amountFrom"`
		AmountToFill string `json:"amountToFill"`
		OrderPrice   string `json:"orderPrice"`
		Status       uint8  `json:"status"`
	}
	rows := make([]orderRow, 0)
	err := s.view.ForEachICXOrder(func(tx common.TxID, order *state.ICXOrder) bool {
		rows = append(rows, orderRow{
			Tx:           tx.String(),
			Type:         uint8(order.Type),
			Token:        uint32(order.Token),
			Chain:        order.Chain,
			Owner:        order.Owner.String(),
			AmountFrom:   order.AmountFrom.String(),
			AmountToFill: order.AmountToFill.String(),
			OrderPrice:   order.OrderPrice.String(),
			Status:       uint8(order.Status),
		})
		return len(rows) < pg.limit
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, map[string]any{"orders": rows, "count": len(rows)})
}

func (s *Server) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	tx, err := common.VaultIDFromString(chi.URLParam(r, "tx"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	order, err := s.view.GetICXOrder(tx)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, order)
}
