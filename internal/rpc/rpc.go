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
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"sync"

	"github.com/blinklabs-io/naiad/internal/attributes"
	"github.com/blinklabs-io/naiad/internal/config"
	"github.com/blinklabs-io/naiad/internal/logging"
	"github.com/blinklabs-io/naiad/internal/state"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
)

// DefaultPageLimit bounds list responses unless the caller narrows it
const DefaultPageLimit = 100

// Server exposes read-only chain state over HTTP and WebSocket. It never
// mutates state; the wallet and transaction construction live outside the
// core.
type Server struct {
	view     *state.View
	cfg      *config.Config
	upgrader websocket.Upgrader
	wsConns  map[*websocket.Conn]bool
	wsMu     sync.RWMutex
}

// NewServer creates an RPC server over a read view
func NewServer(view *state.View, cfg *config.Config) *Server {
	return &Server{
		view:    view,
		cfg:     cfg,
		wsConns: make(map[*websocket.Conn]bool),
	}
}

// Router builds the chi route tree
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/accounts", s.handleListAccounts)
		r.Get("/accounts/{owner}", s.handleGetAccount)
		r.Get("/accounts/{owner}/history", s.handleAccountHistory)
		r.Get("/tokens", s.handleListTokens)
		r.Get("/tokens/{id}", s.handleGetToken)
		r.Get("/pools", s.handleListPools)
		r.Get("/pools/{id}", s.handleGetPool)
		r.Get("/gov", s.handleGetGov)
		r.Get("/vaults", s.handleListVaults)
		r.Get("/vaults/{id}", s.handleGetVault)
		r.Get("/auctions", s.handleListAuctions)
		r.Get("/futures/pending", s.handlePendingFutures)
		r.Get("/futures/dusd/pending", s.handlePendingDUSDFutures)
		r.Get("/icx/orders", s.handleListOrders)
		r.Get("/icx/orders/{tx}", s.handleGetOrder)
	})
	r.Get("/ws", s.handleStream)
	return r
}

// Start serves the API on the configured listen address
func (s *Server) Start() error {
	logger := logging.GetLogger()
	addr := fmt.Sprintf("%s:%d", s.cfg.Rpc.ListenAddress, s.cfg.Rpc.ListenPort)
	logger.Info("starting RPC listener", "addr", addr)
	return http.ListenAndServe(addr, s.Router())
}

type page struct {
	start string
	limit int
}

func parsePage(r *http.Request) page {
	ret := page{limit: DefaultPageLimit}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			ret.limit = n
		}
	}
	ret.start = r.URL.Query().Get("start")
	return ret
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

// handleGetGov exports the attribute store; live/* is included unless
// filter=nolive is passed
func (s *Server) handleGetGov(w http.ResponseWriter, r *http.Request) {
	filter := attributes.ExportAll
	switch r.URL.Query().Get("filter") {
	case "nolive":
		filter = attributes.ExportNoLive
	case "legacy":
		filter = attributes.ExportLegacy
	}
	export, err := attributes.NewStore(s.view).Export(filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, export)
}

// handleStream upgrades to a WebSocket that receives chain events
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLogger()
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Error("WebSocket upgrade failed", "error", err)
		return
	}
	s.wsMu.Lock()
	s.wsConns[conn] = true
	s.wsMu.Unlock()
	logger.Debug("WebSocket client connected", "remote", conn.RemoteAddr())
	defer func() {
		s.wsMu.Lock()
		delete(s.wsConns, conn)
		s.wsMu.Unlock()
		_ = conn.Close()
	}()
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}

// Broadcast pushes an event to every connected WebSocket client
func (s *Server) Broadcast(event any) {
	s.wsMu.RLock()
	defer s.wsMu.RUnlock()
	for conn := range s.wsConns {
		_ = conn.WriteJSON(event)
	}
}
