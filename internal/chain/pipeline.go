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
	"fmt"
	"log/slog"
	"time"

	"github.com/blinklabs-io/naiad/internal/attributes"
	"github.com/blinklabs-io/naiad/internal/common"
	"github.com/blinklabs-io/naiad/internal/config"
	"github.com/blinklabs-io/naiad/internal/futures"
	"github.com/blinklabs-io/naiad/internal/icx"
	"github.com/blinklabs-io/naiad/internal/loan"
	"github.com/blinklabs-io/naiad/internal/oracle"
	"github.com/blinklabs-io/naiad/internal/pool"
	"github.com/blinklabs-io/naiad/internal/state"
	"github.com/blinklabs-io/naiad/internal/storage"
	"github.com/blinklabs-io/naiad/internal/tokensplit"
)

// Pipeline is the single entry point for per-block event dispatch. Only
// the block-connecting thread drives it; every step runs in a nested
// overlay over the block's working cache.
type Pipeline struct {
	base   *state.View
	cfg    *config.Config
	logger *slog.Logger
}

// NewPipeline creates a pipeline over the base (persistent) view
func NewPipeline(base *state.View, cfg *config.Config, logger *slog.Logger) *Pipeline {
	return &Pipeline{base: base, cfg: cfg, logger: logger}
}

type pipelineStep struct {
	name string
	// fatal failures reject the block instead of skipping the step
	fatal bool
	run   func(view *state.View, block *Block) error
}

// ProcessBlock applies a connected block: every custom transaction, then
// the ordered event steps, then the cache flush with an undo patch.
func (p *Pipeline) ProcessBlock(block *Block, utxoView UtxoView) error {
	start := time.Now()
	working, workingOverlay := p.base.Child()

	applier := NewApplier(working, utxoView, p.cfg, p.logger)
	for txn, tx := range block.Txs {
		result := applier.Apply(tx, block.Height, block.Time, uint32(txn))
		if result.Err != nil {
			if result.Fatal {
				workingOverlay.Discard()
				return fmt.Errorf(
					"fatal %s failure in tx %s: %w",
					result.TxType, tx.Hash, result.Err,
				)
			}
			if result.Err != ErrNotCustomTx {
				p.logger.Debug(
					"custom transaction rejected",
					"tx", tx.Hash.String(),
					"type", result.TxType.String(),
					"error", result.Err.Error(),
				)
			}
		}
	}

	for _, step := range p.steps(block.Height) {
		stepView, stepOverlay := working.Child()
		if err := step.run(stepView, block); err != nil {
			stepOverlay.Discard()
			if step.fatal {
				workingOverlay.Discard()
				return fmt.Errorf("block event %s: %w", step.name, err)
			}
			p.logger.Warn(
				"block event step failed",
				"step", step.name,
				"height", block.Height,
				"error", err.Error(),
			)
			continue
		}
		if err := stepOverlay.Flush(); err != nil {
			workingOverlay.Discard()
			return fmt.Errorf("block event %s flush: %w", step.name, err)
		}
	}

	undo, err := storage.ConstructUndo(workingOverlay)
	if err != nil {
		workingOverlay.Discard()
		return err
	}
	if err := workingOverlay.Flush(); err != nil {
		return err
	}
	if err := p.base.WriteUndo(block.Height, block.Hash, undo); err != nil {
		return err
	}
	observeBlock(block.Height, len(block.Txs), time.Since(start))
	return nil
}

// DisconnectBlock reverses a block by applying its undo patch
func (p *Pipeline) DisconnectBlock(height uint32, blockHash common.TxID) error {
	undo, err := p.base.GetUndo(height, blockHash)
	if err != nil {
		return err
	}
	if err := storage.ApplyUndo(p.base.KV(), undo); err != nil {
		return err
	}
	return p.base.DeleteUndo(height, blockHash)
}

// steps is the fixed per-block event order. Steps whose activation height
// is in the future are omitted.
func (p *Pipeline) steps(height uint32) []pipelineStep {
	chainCfg := &p.cfg.Chain
	forks := chainCfg.Forks
	steps := []pipelineStep{
		{name: "rewards", run: func(view *state.View, block *Block) error {
			return p.processRewardEvents(view, block.Height)
		}},
		{name: "icx_expiry", run: func(view *state.View, block *Block) error {
			return icx.New(view, p.logger).ProcessExpiries(block.Height)
		}},
	}
	if height == forks.Eunos {
		steps = append(steps, pipelineStep{
			name: "retired_burn",
			run: func(view *state.View, block *Block) error {
				return p.processRetiredBurn(view)
			},
		})
	}
	steps = append(steps,
		pipelineStep{name: "oracles", run: func(view *state.View, block *Block) error {
			return oracle.New(view, chainCfg).ProcessPriceInterval(block.Height, block.Time)
		}},
		pipelineStep{name: "loans", run: func(view *state.View, block *Block) error {
			loans := loan.New(view, chainCfg, p.logger)
			if err := loans.ProcessSchemeEvents(block.Height); err != nil {
				return err
			}
			if err := loans.ProcessLiquidations(block.Height); err != nil {
				return err
			}
			return loans.ProcessAuctionEvents(block.Height)
		}},
		pipelineStep{name: "futures", run: func(view *state.View, block *Block) error {
			return futures.New(view, chainCfg, p.logger).ProcessFutures(block.Height)
		}},
		pipelineStep{name: "gov", run: func(view *state.View, block *Block) error {
			return p.processGovEvents(view, block.Height)
		}},
	)
	if height == forks.FortCanning {
		steps = append(steps, pipelineStep{
			name: "token_to_gov",
			run: func(view *state.View, block *Block) error {
				return p.processTokenToGovVar(view, block.Height)
			},
		})
	}
	steps = append(steps,
		// A half-done split corrupts every subsystem; it must reject the block
		pipelineStep{name: "token_splits", fatal: true, run: func(view *state.View, block *Block) error {
			return tokensplit.New(view, chainCfg, p.logger).ProcessSplits(block.Height)
		}},
		pipelineStep{name: "futures_dusd", run: func(view *state.View, block *Block) error {
			return futures.New(view, chainCfg, p.logger).ProcessDUSDFutures(block.Height)
		}},
	)
	if p.cfg.Indexing.NegativeInterest {
		steps = append(steps, pipelineStep{
			name: "negative_interest",
			run: func(view *state.View, block *Block) error {
				return p.processNegativeInterest(view, block.Height)
			},
		})
	}
	steps = append(steps,
		pipelineStep{name: "proposals", run: func(view *state.View, block *Block) error {
			return p.processProposalEvents(view, block.Height)
		}},
		pipelineStep{name: "masternodes", run: func(view *state.View, block *Block) error {
			return p.processMasternodeUpdates(view, block.Height)
		}},
	)
	if height == forks.GrandCentral {
		steps = append(steps, pipelineStep{
			name: "grand_central",
			run: func(view *state.View, block *Block) error {
				return p.processFoundationMigration(view, block.Height)
			},
		})
	}
	return steps
}

// processRewardEvents credits the community funds from the block subsidy
// and distributes pool rewards
func (p *Pipeline) processRewardEvents(view *state.View, height uint32) error {
	chainCfg := &p.cfg.Chain
	incentive, err := common.MulDiv(
		common.Amount(chainCfg.BlockReward),
		common.Amount(chainCfg.IncentiveFundingPct),
		common.COIN,
	)
	if err != nil {
		return err
	}
	if err := view.AddCommunityBalance(state.CommunityIncentiveFunding, incentive); err != nil {
		return err
	}
	if height >= chainCfg.Forks.FortCanning {
		loanShare, err := common.MulDiv(
			common.Amount(chainCfg.BlockReward),
			common.Amount(chainCfg.LoanFundingPct),
			common.COIN,
		)
		if err != nil {
			return err
		}
		if err := view.AddCommunityBalance(state.CommunityLoan, loanShare); err != nil {
			return err
		}
	}
	return pool.New(view).DistributeRewards(
		height,
		height >= chainCfg.Forks.FortCanning,
		p.logger,
	)
}

// processRetiredBurn is the one-shot foundation balance zeroing at the
// eunos fork: every configured foundation account moves to the burn address
func (p *Pipeline) processRetiredBurn(view *state.View) error {
	for _, entry := range p.cfg.Chain.FoundationMembers {
		script, err := common.ScriptFromString(entry)
		if err != nil {
			continue
		}
		balances, err := view.GetBalances(script)
		if err != nil {
			return err
		}
		if err := view.SubBalances(script, balances); err != nil {
			return err
		}
		if err := view.AddBalances(common.BurnAddress, balances); err != nil {
			return err
		}
	}
	return nil
}

// processGovEvents applies attribute changes scheduled for this height
func (p *Pipeline) processGovEvents(view *state.View, height uint32) error {
	attrs := attributes.NewStore(view)
	var scheds []*state.ScheduledGov
	err := view.ForEachScheduledGov(height, func(sched *state.ScheduledGov) bool {
		scheds = append(scheds, sched)
		return true
	})
	if err != nil {
		return err
	}
	for _, sched := range scheds {
		if err := attrs.Import(sched.Values, height, &p.cfg.Chain); err != nil {
			p.logger.Warn(
				"scheduled governance change rejected",
				"height", height,
				"error", err.Error(),
			)
		}
	}
	return view.ClearScheduledGov(height)
}

// processTokenToGovVar is the one-shot migration of legacy loan and
// collateral token records into governance attributes
func (p *Pipeline) processTokenToGovVar(view *state.View, height uint32) error {
	attrs := attributes.NewStore(view)
	var loanTokens []*state.LegacyLoanToken
	err := view.ForEachLegacyLoanToken(func(rec *state.LegacyLoanToken) bool {
		loanTokens = append(loanTokens, rec)
		return true
	})
	if err != nil {
		return err
	}
	for _, rec := range loanTokens {
		token := rec.Token
		if err := attrs.Set(attributes.TokenKey(token, attributes.TokenLoanMintingEnabled), attributes.BoolValue(rec.Mintable)); err != nil {
			return err
		}
		if err := attrs.Set(attributes.TokenKey(token, attributes.TokenLoanMintingInterest), attributes.AmountValue(rec.Interest)); err != nil {
			return err
		}
		if err := attrs.Set(attributes.TokenKey(token, attributes.TokenFixedIntervalPriceID), attributes.CurrencyPairValue(rec.FixedIntervalPriceID)); err != nil {
			return err
		}
		if err := view.DeleteLegacyLoanToken(token); err != nil {
			return err
		}
	}
	var collTokens []*state.LegacyCollateralToken
	err = view.ForEachLegacyCollateralToken(func(rec *state.LegacyCollateralToken) bool {
		collTokens = append(collTokens, rec)
		return true
	})
	if err != nil {
		return err
	}
	for _, rec := range collTokens {
		token := rec.Token
		if err := attrs.Set(attributes.TokenKey(token, attributes.TokenLoanCollateralEnabled), attributes.BoolValue(true)); err != nil {
			return err
		}
		if err := attrs.Set(attributes.TokenKey(token, attributes.TokenLoanCollateralFactor), attributes.AmountValue(rec.Factor)); err != nil {
			return err
		}
		if err := attrs.Set(attributes.TokenKey(token, attributes.TokenFixedIntervalPriceID), attributes.CurrencyPairValue(rec.FixedIntervalPriceID)); err != nil {
			return err
		}
		if err := view.DeleteLegacyCollateralToken(token); err != nil {
			return err
		}
	}
	return nil
}

// processNegativeInterest tallies the current negative per-block interest
// into its economy counter
func (p *Pipeline) processNegativeInterest(view *state.View, height uint32) error {
	attrs := attributes.NewStore(view)
	total := common.InterestAmount{}
	var vaultIDs []common.VaultID
	err := view.ForEachVault(func(id common.VaultID, _ *state.Vault) bool {
		vaultIDs = append(vaultIDs, id)
		return true
	})
	if err != nil {
		return err
	}
	for _, vaultID := range vaultIDs {
		err := view.ForEachVaultInterest(vaultID, func(_ common.TokenID, interest *state.VaultInterest) bool {
			if interest.PerBlock.Negative {
				total = total.Add(interest.PerBlock)
			}
			return true
		})
		if err != nil {
			return err
		}
	}
	current, err := total.ToSatoshisCeil()
	if err != nil {
		return err
	}
	if current < 0 {
		current = -current
	}
	return attrs.Set(
		attributes.EconKey(attributes.EconNegativeInterestCurrent),
		attributes.AmountValue(current),
	)
}

// processProposalEvents redistributes accumulated proposal fees when the
// governance flag is set
func (p *Pipeline) processProposalEvents(view *state.View, height uint32) error {
	attrs := attributes.NewStore(view)
	if !attrs.GetBool(attributes.Key{
		Type: attributes.TypeGov, TypeID: attributes.GovProposals,
		KeyID: attributes.GovFeeRedistribution,
	}) {
		return nil
	}
	// Proposal fees accumulate on the unallocated community bucket and
	// are burned on redistribution
	fees, err := view.GetCommunityBalance(state.CommunityUnallocated)
	if err != nil || fees == 0 {
		return err
	}
	if err := view.SetCommunityBalance(state.CommunityUnallocated, 0); err != nil {
		return err
	}
	return view.AddBalance(common.BurnAddress, common.TokenAmount{
		Token:  common.TokenIDNative,
		Amount: fees,
	})
}

// processMasternodeUpdates lands delayed owner changes due at this height
func (p *Pipeline) processMasternodeUpdates(view *state.View, height uint32) error {
	type pending struct {
		id   common.TxID
		node *state.Masternode
	}
	var due []pending
	err := view.ForEachMasternode(func(id common.TxID, node *state.Masternode) bool {
		if node.PendingOwnerHeight > 0 && node.PendingOwnerHeight <= height {
			due = append(due, pending{id: id, node: node})
		}
		return true
	})
	if err != nil {
		return err
	}
	for _, entry := range due {
		entry.node.Owner = entry.node.PendingOwner
		entry.node.PendingOwner = nil
		entry.node.PendingOwnerHeight = 0
		if err := view.SetMasternode(entry.id, entry.node); err != nil {
			return err
		}
	}
	return nil
}

// processFoundationMigration is the one-shot move of the configured
// foundation member set into the governance attribute
func (p *Pipeline) processFoundationMigration(view *state.View, height uint32) error {
	attrs := attributes.NewStore(view)
	members := attributes.StringSetValue(append([]string{}, p.cfg.Chain.FoundationMembers...))
	return attrs.Set(
		attributes.ParamKey(attributes.ParamFoundation, attributes.ParamMembers),
		members.Normalize(),
	)
}
