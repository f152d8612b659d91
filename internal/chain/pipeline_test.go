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

package chain_test

import (
	"io"
	"log/slog"
	"testing"

	"github.com/blinklabs-io/naiad/internal/chain"
	"github.com/blinklabs-io/naiad/internal/common"
	"github.com/blinklabs-io/naiad/internal/config"
	"github.com/blinklabs-io/naiad/internal/state"
	"github.com/blinklabs-io/naiad/internal/storage"
)

// allowAllUtxoView authorizes any script that appears in the transaction's
// input owners
type allowAllUtxoView struct{}

func (allowAllUtxoView) HasAuth(tx *chain.Transaction, owner common.Script) bool {
	return tx.HasInputFrom(owner)
}

func testConfig() *config.Config {
	return &config.Config{
		Chain: config.ChainConfig{
			BlocksPerDay:                 2880,
			BlocksPerYear:                1051200,
			BlocksPerPriceInterval:       120,
			BlocksCollateralAuction:      720,
			BlocksCollateralizationRatio: 1,
			OracleFreshnessSeconds:       3600,
			MinOracleFeeders:             2,
			MaxPriceDeviationPct:         30,
			BlockReward:                  405_04000000,
			IncentiveFundingPct:          25450000,
			LoanFundingPct:               24680000,
			Forks: config.ForkHeights{
				Dakota:          10,
				Eunos:           20,
				FortCanning:     30,
				FortCanningHill: 40,
				GrandCentral:    50,
			},
		},
		Indexing: config.IndexingConfig{AccountIndex: true},
	}
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func customTx(seed byte, owner common.Script, msg chain.Message) *chain.Transaction {
	return &chain.Transaction{
		Hash:        common.TxID{seed},
		Metadata:    chain.BuildMetadata(msg.Type(), msg.Serialize()),
		InputOwners: []common.Script{owner},
	}
}

func TestProcessBlockAppliesTransactions(t *testing.T) {
	base := state.NewView(storage.NewMemStore())
	pipeline := chain.NewPipeline(base, testConfig(), testLogger())
	alice := common.Script("alice")
	bob := common.Script("bob")

	block := &chain.Block{
		Height: 100,
		Time:   1000,
		Hash:   common.TxID{0xaa},
		Txs: []*chain.Transaction{
			customTx(1, alice, &chain.UtxosToAccountMsg{
				To:     alice,
				Amount: 100 * common.COIN,
			}),
			customTx(2, alice, &chain.AccountToAccountMsg{
				From: alice,
				To: []chain.AccountBalances{
					{Owner: bob, Amounts: common.Balances{common.TokenIDNative: 40 * common.COIN}},
				},
			}),
		},
	}
	if err := pipeline.ProcessBlock(block, allowAllUtxoView{}); err != nil {
		t.Fatalf("block processing failed: %s", err)
	}
	aliceBalance, _ := base.GetBalance(alice, common.TokenIDNative)
	if aliceBalance != 60*common.COIN {
		t.Errorf("alice balance %s, expected 60", aliceBalance)
	}
	bobBalance, _ := base.GetBalance(bob, common.TokenIDNative)
	if bobBalance != 40*common.COIN {
		t.Errorf("bob balance %s, expected 40", bobBalance)
	}
	// History rows were written for both transfers
	count := 0
	err := base.ForEachHistory(alice, func(_, _ uint32, _ *state.HistoryEntry) bool {
		count++
		return true
	})
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if count == 0 {
		t.Error("expected account history rows")
	}
}

func TestProcessBlockUnauthorizedTxIsFatalPostFork(t *testing.T) {
	base := state.NewView(storage.NewMemStore())
	pipeline := chain.NewPipeline(base, testConfig(), testLogger())
	alice := common.Script("alice")
	mallory := common.Script("mallory")

	// mallory tries to move alice's funds without alice's input
	tx := customTx(1, mallory, &chain.AccountToAccountMsg{
		From: alice,
		To: []chain.AccountBalances{
			{Owner: mallory, Amounts: common.Balances{common.TokenIDNative: 1}},
		},
	})
	block := &chain.Block{Height: 100, Time: 1000, Hash: common.TxID{0xab}, Txs: []*chain.Transaction{tx}}
	if err := pipeline.ProcessBlock(block, allowAllUtxoView{}); err == nil {
		t.Error("unauthorized transfer should abort the block post-dakota")
	}
}

func TestProcessBlockUndoRoundTrip(t *testing.T) {
	base := state.NewView(storage.NewMemStore())
	pipeline := chain.NewPipeline(base, testConfig(), testLogger())
	alice := common.Script("alice")

	block := &chain.Block{
		Height: 100,
		Time:   1000,
		Hash:   common.TxID{0xaa},
		Txs: []*chain.Transaction{
			customTx(1, alice, &chain.UtxosToAccountMsg{
				To:     alice,
				Amount: 100 * common.COIN,
			}),
		},
	}
	if err := pipeline.ProcessBlock(block, allowAllUtxoView{}); err != nil {
		t.Fatalf("block processing failed: %s", err)
	}
	balance, _ := base.GetBalance(alice, common.TokenIDNative)
	if balance != 100*common.COIN {
		t.Fatalf("balance %s before disconnect", balance)
	}
	if err := pipeline.DisconnectBlock(100, block.Hash); err != nil {
		t.Fatalf("disconnect failed: %s", err)
	}
	balance, _ = base.GetBalance(alice, common.TokenIDNative)
	if balance != 0 {
		t.Errorf("balance %s after disconnect, expected 0", balance)
	}
	// Community funds credited by the reward step are rolled back too
	fund, _ := base.GetCommunityBalance(state.CommunityIncentiveFunding)
	if fund != 0 {
		t.Errorf("community fund %s after disconnect, expected 0", fund)
	}
}

func TestProcessBlockSkipsNonCustomTxs(t *testing.T) {
	base := state.NewView(storage.NewMemStore())
	pipeline := chain.NewPipeline(base, testConfig(), testLogger())
	block := &chain.Block{
		Height: 100,
		Time:   1000,
		Hash:   common.TxID{0xac},
		Txs: []*chain.Transaction{
			{Hash: common.TxID{1}, Metadata: []byte("plain utxo spend")},
		},
	}
	if err := pipeline.ProcessBlock(block, allowAllUtxoView{}); err != nil {
		t.Fatalf("plain transactions must not fail a block: %s", err)
	}
}
