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
	"log/slog"

	"github.com/blinklabs-io/naiad/internal/attributes"
	"github.com/blinklabs-io/naiad/internal/config"
	"github.com/blinklabs-io/naiad/internal/pool"
	"github.com/blinklabs-io/naiad/internal/state"
)

// BatchThreshold is the maximum USD value of a single auction batch
const BatchThreshold = 10_000 * 100_000_000

// Engine is the vault collateralization and liquidation engine
type Engine struct {
	view   *state.View
	attrs  *attributes.Store
	pools  *pool.Engine
	cfg    *config.ChainConfig
	logger *slog.Logger
}

// New creates a loan engine over a view
func New(view *state.View, cfg *config.ChainConfig, logger *slog.Logger) *Engine {
	return &Engine{
		view:   view,
		attrs:  attributes.NewStore(view),
		pools:  pool.New(view),
		cfg:    cfg,
		logger: logger,
	}
}

// View exposes the engine's backing view
func (e *Engine) View() *state.View {
	return e.view
}
