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

package chain

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricBlockHeight = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "naiad_block_height",
		Help: "Height of the last connected block",
	})
	metricBlockTxs = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "naiad_block_transactions",
		Help:    "Transactions per connected block",
		Buckets: prometheus.ExponentialBuckets(1, 4, 8),
	})
	metricBlockDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "naiad_block_connect_seconds",
		Help:    "Wall time to process a block's events",
		Buckets: prometheus.DefBuckets,
	})
)

func observeBlock(height uint32, txs int, elapsed time.Duration) {
	metricBlockHeight.Set(float64(height))
	metricBlockTxs.Observe(float64(txs))
	metricBlockDuration.Observe(elapsed.Seconds())
}
