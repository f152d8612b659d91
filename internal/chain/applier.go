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
	"errors"
	"fmt"
	"log/slog"

	"github.com/blinklabs-io/naiad/internal/attributes"
	"github.com/blinklabs-io/naiad/internal/common"
	"github.com/blinklabs-io/naiad/internal/config"
	"github.com/blinklabs-io/naiad/internal/futures"
	"github.com/blinklabs-io/naiad/internal/icx"
	"github.com/blinklabs-io/naiad/internal/loan"
	"github.com/blinklabs-io/naiad/internal/oracle"
	"github.com/blinklabs-io/naiad/internal/pool"
	"github.com/blinklabs-io/naiad/internal/state"
)

// ErrNotAuthorized marks a transaction whose inputs do not satisfy the
// required auth predicate
var ErrNotAuthorized = errors.New("transaction is not authorized")

// Result is the outcome of applying one custom transaction
type Result struct {
	TxType CustomTxType
	Err    error
	// Fatal aborts block connection (post-dakota applier failures outside
	// the allowed-to-fail set)
	Fatal bool
}

// allowedToFail lists message kinds whose failures never abort a block;
// they depend on oracle liveness or external-chain state.
var allowedToFail = map[CustomTxType]bool{
	TxFutureSwap:       true,
	TxFutureSwapRefund: true,
	TxDUSDFutureSwap:   true,
	TxICXCreateOrder:   true,
	TxICXMakeOffer:     true,
	TxICXSubmitDFCHTLC: true,
	TxICXSubmitEXTHTLC: true,
	TxICXClaimDFCHTLC:  true,
	TxICXCloseOrder:    true,
	TxICXCloseOffer:    true,
}

// Applier parses and applies typed custom transactions against a view
type Applier struct {
	view   *state.View
	utxo   UtxoView
	cfg    *config.Config
	logger *slog.Logger
}

// NewApplier creates a transaction applier over a view
func NewApplier(view *state.View, utxo UtxoView, cfg *config.Config, logger *slog.Logger) *Applier {
	return &Applier{view: view, utxo: utxo, cfg: cfg, logger: logger}
}

// Apply parses, authorizes and applies a custom transaction. The message
// runs in its own overlay: it either flushes or leaves no trace. On
// success an account-history row is written when the index is enabled.
func (a *Applier) Apply(tx *Transaction, height uint32, blockTime int64, txn uint32) Result {
	txType, payload, err := SplitMetadata(tx.Metadata)
	if err != nil {
		return Result{Err: err}
	}
	msg, err := DecodeMessage(txType, payload)
	if err != nil {
		return Result{TxType: txType, Err: err}
	}
	child, overlay := a.view.Child()
	err = a.applyMessage(child, tx, msg, height, blockTime, txn)
	if err != nil {
		overlay.Discard()
		return Result{
			TxType: txType,
			Err:    err,
			Fatal:  height >= a.cfg.Chain.Forks.Dakota && !allowedToFail[txType],
		}
	}
	if a.cfg.Indexing.AccountIndex {
		if owner := historyOwner(msg); owner != nil {
			entry := &state.HistoryEntry{
				TxID:     tx.Hash,
				Category: txType.String(),
				Amounts:  historyAmounts(msg),
			}
			if err := child.WriteHistory(owner, height, txn, entry); err != nil {
				overlay.Discard()
				return Result{TxType: txType, Err: err, Fatal: true}
			}
		}
	}
	if err := overlay.Flush(); err != nil {
		return Result{TxType: txType, Err: err, Fatal: true}
	}
	return Result{TxType: txType}
}

// foundationMembers resolves the current foundation set: the governance
// attribute once migrated, the chain config before that
func (a *Applier) foundationMembers(view *state.View) []common.Script {
	attrs := attributes.NewStore(view)
	key := attributes.ParamKey(attributes.ParamFoundation, attributes.ParamMembers)
	if val, ok, err := attrs.Get(key); err == nil && ok {
		if set, isSet := val.(attributes.StringSetValue); isSet {
			ret := make([]common.Script, 0, len(set))
			for _, entry := range set {
				if script, err := common.ScriptFromString(entry); err == nil {
					ret = append(ret, script)
				}
			}
			return ret
		}
	}
	ret := make([]common.Script, 0, len(a.cfg.Chain.FoundationMembers))
	for _, entry := range a.cfg.Chain.FoundationMembers {
		if script, err := common.ScriptFromString(entry); err == nil {
			ret = append(ret, script)
		}
	}
	return ret
}

func (a *Applier) hasFoundationAuth(view *state.View, tx *Transaction) bool {
	for _, member := range a.foundationMembers(view) {
		if a.utxo.HasAuth(tx, member) {
			return true
		}
	}
	return false
}

func (a *Applier) requireAuth(tx *Transaction, owner common.Script) error {
	if !a.utxo.HasAuth(tx, owner) {
		return fmt.Errorf("%w: input owned by %s required", ErrNotAuthorized, owner)
	}
	return nil
}

func (a *Applier) requireFoundationAuth(view *state.View, tx *Transaction) error {
	if !a.hasFoundationAuth(view, tx) {
		return fmt.Errorf("%w: foundation member input required", ErrNotAuthorized)
	}
	return nil
}

func (a *Applier) applyMessage(view *state.View, tx *Transaction, msg Message, height uint32, blockTime int64, txn uint32) error {
	attrs := attributes.NewStore(view)
	pools := pool.New(view)
	loans := loan.New(view, &a.cfg.Chain, a.logger)
	fut := futures.New(view, &a.cfg.Chain, a.logger)
	orders := icx.New(view, a.logger)
	oracles := oracle.New(view, &a.cfg.Chain)

	switch m := msg.(type) {
	case *CreateMasternodeMsg:
		if len(tx.InputOwners) == 0 {
			return ErrNotAuthorized
		}
		return view.SetMasternode(tx.Hash, &state.Masternode{
			Owner:          tx.InputOwners[0],
			Operator:       m.Operator,
			CreationHeight: height,
		})
	case *ResignMasternodeMsg:
		node, err := view.GetMasternode(m.NodeID)
		if err != nil {
			return err
		}
		if err := a.requireAuth(tx, node.Owner); err != nil {
			return err
		}
		node.ResignHeight = height
		return view.SetMasternode(m.NodeID, node)
	case *UpdateMasternodeMsg:
		node, err := view.GetMasternode(m.NodeID)
		if err != nil {
			return err
		}
		if err := a.requireAuth(tx, node.Owner); err != nil {
			return err
		}
		// Owner changes are delayed and land via the block pipeline
		node.PendingOwner = m.NewOwner
		node.PendingOwnerHeight = height + a.cfg.Chain.BlocksPerDay
		return view.SetMasternode(m.NodeID, node)
	case *CreateTokenMsg:
		if m.IsDAT {
			if err := a.requireFoundationAuth(view, tx); err != nil {
				return err
			}
		}
		var flags uint8
		if m.IsDAT {
			flags |= state.TokenFlagDAT
		}
		if m.Mintable {
			flags |= state.TokenFlagMintable
		}
		if m.Tradeable {
			flags |= state.TokenFlagTradeable
		}
		_, err := view.CreateToken(&state.Token{
			Symbol:         m.Symbol,
			Name:           m.Name,
			CreationTx:     tx.Hash,
			CreationHeight: height,
			Flags:          flags,
		})
		return err
	case *UpdateTokenMsg:
		return a.updateToken(view, tx, m)
	case *MintTokenMsg:
		return a.mintToken(view, tx, m)
	case *BurnTokenMsg:
		if err := a.requireAuth(tx, m.From); err != nil {
			return err
		}
		for _, token := range m.Amounts.SortedTokens() {
			ta := common.TokenAmount{Token: token, Amount: m.Amounts[token]}
			if err := view.SubBalance(m.From, ta); err != nil {
				return err
			}
			if err := view.AddBalance(common.BurnAddress, ta); err != nil {
				return err
			}
		}
		return nil
	case *CreatePoolPairMsg:
		if err := a.requireFoundationAuth(view, tx); err != nil {
			return err
		}
		_, err := pools.CreatePoolPair(&state.PoolPair{
			TokenA:         m.TokenA,
			TokenB:         m.TokenB,
			Commission:     m.Commission,
			CustomRewards:  m.CustomRewards,
			Status:         m.Status,
			OwnerAddress:   m.OwnerAddress,
			CreationTx:     tx.Hash,
			CreationHeight: height,
		}, m.PairSymbol)
		return err
	case *UpdatePoolPairMsg:
		if err := a.requireFoundationAuth(view, tx); err != nil {
			return err
		}
		pair, err := view.GetPoolPair(m.Pool)
		if err != nil {
			return err
		}
		pair.Status = m.Status
		if m.Commission >= 0 {
			pair.Commission = m.Commission
		}
		if len(m.OwnerAddress) > 0 {
			pair.OwnerAddress = m.OwnerAddress
		}
		if len(m.CustomRewards) > 0 {
			pair.CustomRewards = m.CustomRewards
		}
		return view.SetPoolPair(m.Pool, pair)
	case *PoolSwapMsg:
		if err := a.requireAuth(tx, m.From); err != nil {
			return err
		}
		path := m.Pools
		if len(path) == 0 {
			poolID, _, err := pools.FindPoolPair(m.In.Token, m.OutToken)
			if err != nil {
				return err
			}
			path = []common.TokenID{poolID}
		}
		_, err := pools.Swap(m.From, m.To, m.In, path, pool.MaxPrice{
			Integer:  m.MaxPriceInt,
			Fraction: m.MaxPriceFrac,
		})
		return err
	case *AddLiquidityMsg:
		if err := a.requireAuth(tx, m.From); err != nil {
			return err
		}
		_, err := pools.AddLiquidity(m.From, m.ShareAddress, m.AmountA, m.AmountB, height)
		return err
	case *RemoveLiquidityMsg:
		if err := a.requireAuth(tx, m.From); err != nil {
			return err
		}
		_, _, err := pools.RemoveLiquidity(m.From, m.Amount, height)
		return err
	case *UtxosToAccountMsg:
		// Funding comes from the transaction's own UTXO inputs; the coin
		// layer has already validated them
		return view.AddBalance(m.To, common.TokenAmount{
			Token:  common.TokenIDNative,
			Amount: m.Amount,
		})
	case *AccountToUtxosMsg:
		if err := a.requireAuth(tx, m.From); err != nil {
			return err
		}
		return view.SubBalance(m.From, common.TokenAmount{
			Token:  common.TokenIDNative,
			Amount: m.Amount,
		})
	case *AccountToAccountMsg:
		if err := a.requireAuth(tx, m.From); err != nil {
			return err
		}
		return a.transfer(view, pools, m.From, m.To, height)
	case *AnyAccountsToAccountsMsg:
		for _, from := range m.From {
			if err := a.requireAuth(tx, from.Owner); err != nil {
				return err
			}
		}
		var total, totalTo common.Balances = make(common.Balances), make(common.Balances)
		for _, from := range m.From {
			if err := a.debit(view, pools, from.Owner, from.Amounts, height); err != nil {
				return err
			}
			if err := total.AddBalances(from.Amounts); err != nil {
				return err
			}
		}
		for _, to := range m.To {
			if err := a.credit(view, pools, to.Owner, to.Amounts, height); err != nil {
				return err
			}
			if err := totalTo.AddBalances(to.Amounts); err != nil {
				return err
			}
		}
		if total.String() != totalTo.String() {
			return fmt.Errorf("sum of inputs does not equal sum of outputs")
		}
		return nil
	case *SetGovVariableMsg:
		if err := a.requireFoundationAuth(view, tx); err != nil {
			return err
		}
		if m.Height > height {
			return view.ScheduleGov(m.Height, &state.ScheduledGov{Values: m.Values})
		}
		return attrs.Import(m.Values, height, &a.cfg.Chain)
	case *AppointOracleMsg:
		if err := a.requireFoundationAuth(view, tx); err != nil {
			return err
		}
		return oracles.AppointOracle(tx.Hash, m.Address, m.Weightage, m.Pairs)
	case *RemoveOracleMsg:
		if err := a.requireFoundationAuth(view, tx); err != nil {
			return err
		}
		return oracles.RemoveOracle(m.OracleID)
	case *UpdateOracleMsg:
		if err := a.requireFoundationAuth(view, tx); err != nil {
			return err
		}
		return oracles.UpdateOracle(m.OracleID, m.Address, m.Weightage, m.Pairs)
	case *SetOracleDataMsg:
		orc, err := view.GetOracle(m.OracleID)
		if err != nil {
			return err
		}
		if err := a.requireAuth(tx, orc.Address); err != nil {
			return err
		}
		prices := make(map[common.CurrencyPair]common.Amount)
		for _, p := range m.Prices {
			prices[p.Pair] = p.Value
		}
		return oracles.SetOracleData(m.OracleID, m.Timestamp, prices)
	case *CreateLoanSchemeMsg:
		if err := a.requireFoundationAuth(view, tx); err != nil {
			return err
		}
		return loans.SetLoanScheme(m.ID, m.MinColRatio, m.Rate, m.ActivateAt, height)
	case *DefaultLoanSchemeMsg:
		if err := a.requireFoundationAuth(view, tx); err != nil {
			return err
		}
		return loans.SetDefaultLoanScheme(m.ID)
	case *DestroyLoanSchemeMsg:
		if err := a.requireFoundationAuth(view, tx); err != nil {
			return err
		}
		return loans.DestroyLoanScheme(m.ID, m.DeleteAt, height)
	case *CreateVaultMsg:
		if err := a.requireAuth(tx, m.Owner); err != nil {
			return err
		}
		return loans.CreateVault(tx.Hash, m.Owner, m.SchemeID)
	case *CloseVaultMsg:
		vault, err := view.GetVault(m.VaultID)
		if err != nil {
			return err
		}
		if err := a.requireAuth(tx, vault.Owner); err != nil {
			return err
		}
		return loans.CloseVault(m.VaultID, m.To)
	case *UpdateVaultMsg:
		vault, err := view.GetVault(m.VaultID)
		if err != nil {
			return err
		}
		if err := a.requireAuth(tx, vault.Owner); err != nil {
			return err
		}
		return loans.UpdateVault(m.VaultID, m.Owner, m.SchemeID, height)
	case *DepositToVaultMsg:
		if err := a.requireAuth(tx, m.From); err != nil {
			return err
		}
		return loans.DepositToVault(m.VaultID, m.From, m.Amount)
	case *WithdrawFromVaultMsg:
		vault, err := view.GetVault(m.VaultID)
		if err != nil {
			return err
		}
		if err := a.requireAuth(tx, vault.Owner); err != nil {
			return err
		}
		return loans.WithdrawFromVault(m.VaultID, m.To, m.Amount, height)
	case *TakeLoanMsg:
		vault, err := view.GetVault(m.VaultID)
		if err != nil {
			return err
		}
		if err := a.requireAuth(tx, vault.Owner); err != nil {
			return err
		}
		to := m.To
		if len(to) == 0 {
			to = vault.Owner
		}
		for _, token := range m.Amounts.SortedTokens() {
			if err := loans.TakeLoan(m.VaultID, to, common.TokenAmount{
				Token:  token,
				Amount: m.Amounts[token],
			}, height); err != nil {
				return err
			}
		}
		return nil
	case *PaybackLoanMsg:
		if err := a.requireAuth(tx, m.From); err != nil {
			return err
		}
		for _, token := range m.Amounts.SortedTokens() {
			if err := loans.PaybackLoan(m.VaultID, m.From, common.TokenAmount{
				Token:  token,
				Amount: m.Amounts[token],
			}, height); err != nil {
				return err
			}
		}
		return nil
	case *AuctionBidMsg:
		if err := a.requireAuth(tx, m.From); err != nil {
			return err
		}
		return loans.PlaceAuctionBid(m.VaultID, m.Index, m.From, m.Bid)
	case *FutureSwapMsg:
		if err := a.requireAuth(tx, m.Owner); err != nil {
			return err
		}
		if m.Withdraw {
			return fut.WithdrawFutureSwap(m.Owner, m.Source, m.Destination)
		}
		return fut.SubmitFutureSwap(m.Owner, m.Source, m.Destination, height, txn)
	case *DUSDFutureSwapMsg:
		if err := a.requireAuth(tx, m.Owner); err != nil {
			return err
		}
		return fut.SubmitDUSDFutureSwap(m.Owner, m.Amount, height, txn)
	case *TransferDomainMsg:
		return a.transferDomain(view, tx, attrs, m)
	case *ICXCreateOrderMsg:
		if err := a.requireAuth(tx, m.Owner); err != nil {
			return err
		}
		return orders.CreateOrder(tx.Hash, &state.ICXOrder{
			Type:       state.ICXOrderType(m.OrderType),
			Token:      m.Token,
			Chain:      m.Chain,
			Owner:      m.Owner,
			AmountFrom: m.AmountFrom,
			OrderPrice: m.OrderPrice,
			Expiry:     m.Expiry,
			Height:     height,
		})
	case *ICXMakeOfferMsg:
		if err := a.requireAuth(tx, m.Owner); err != nil {
			return err
		}
		return orders.MakeOffer(tx.Hash, &state.ICXOffer{
			OrderTx:  m.OrderTx,
			Amount:   m.Amount,
			Owner:    m.Owner,
			TakerFee: m.TakerFee,
			Expiry:   m.Expiry,
			Height:   height,
		})
	case *ICXSubmitHTLCMsg:
		htlc := &state.ICXHTLC{
			OfferTx:    m.OfferTx,
			Amount:     m.Amount,
			Hash:       m.Hash,
			Timeout:    m.Timeout,
			Height:     height,
			HtlcScript: m.HtlcScript,
		}
		if m.External {
			return orders.SubmitEXTHTLC(tx.Hash, htlc)
		}
		return orders.SubmitDFCHTLC(tx.Hash, htlc)
	case *ICXClaimDFCHTLCMsg:
		return orders.ClaimDFCHTLC(m.OfferTx, m.HTLCTx)
	case *ICXCloseOrderMsg:
		order, err := view.GetICXOrder(m.OrderTx)
		if err != nil {
			return err
		}
		if err := a.requireAuth(tx, order.Owner); err != nil {
			return err
		}
		return orders.CloseOrder(m.OrderTx, tx.Hash, height)
	case *ICXCloseOfferMsg:
		offer, err := view.GetICXOffer(m.OfferTx)
		if err != nil {
			return err
		}
		if err := a.requireAuth(tx, offer.Owner); err != nil {
			return err
		}
		return orders.CloseOffer(m.OfferTx)
	}
	return fmt.Errorf("unhandled message type %s", msg.Type())
}

func (a *Applier) updateToken(view *state.View, tx *Transaction, m *UpdateTokenMsg) error {
	if err := a.requireFoundationAuth(view, tx); err != nil {
		return err
	}
	token, err := view.GetToken(m.Token)
	if err != nil {
		return err
	}
	if token.IsFinalized() {
		return fmt.Errorf("token %d is finalized", m.Token)
	}
	if m.Symbol != "" && m.Symbol != token.Symbol {
		if err := view.EraseTokenSymbol(token.Symbol); err != nil {
			return err
		}
		token.Symbol = m.Symbol
		if err := view.SetTokenSymbol(m.Symbol, m.Token); err != nil {
			return err
		}
	}
	if m.Name != "" {
		token.Name = m.Name
	}
	setFlag := func(flag uint8, on bool) {
		if on {
			token.Flags |= flag
		} else {
			token.Flags &^= flag
		}
	}
	setFlag(state.TokenFlagMintable, m.Mintable)
	setFlag(state.TokenFlagTradeable, m.Tradeable)
	if m.Finalized {
		token.Flags |= state.TokenFlagFinalized
	}
	return view.SetToken(m.Token, token)
}

func (a *Applier) mintToken(view *state.View, tx *Transaction, m *MintTokenMsg) error {
	for _, tokenID := range m.Amounts.SortedTokens() {
		token, err := view.GetToken(tokenID)
		if err != nil {
			return err
		}
		if !token.IsMintable() {
			return fmt.Errorf("token %d is not mintable", tokenID)
		}
		if token.IsDAT() {
			if err := a.requireFoundationAuth(view, tx); err != nil {
				return err
			}
		} else if err := a.requireAuth(tx, m.To); err != nil {
			return err
		}
		amount := common.TokenAmount{Token: tokenID, Amount: m.Amounts[tokenID]}
		if err := view.AddBalance(m.To, amount); err != nil {
			return err
		}
		if err := view.AddMintedAmount(tokenID, amount.Amount); err != nil {
			return err
		}
	}
	return nil
}

func (a *Applier) transferDomain(view *state.View, tx *Transaction, attrs *attributes.Store, m *TransferDomainMsg) error {
	if m.SrcDomain == m.DstDomain {
		return fmt.Errorf("transfer must cross domains")
	}
	var enabledKey attributes.Key
	switch {
	case m.SrcDomain == DomainDVM && m.DstDomain == DomainEVM:
		enabledKey = attributes.Key{
			Type: attributes.TypeTransferDomain, TypeID: attributes.TransferDVMToEVM,
			KeyID: attributes.TransferEnabled,
		}
	case m.SrcDomain == DomainEVM && m.DstDomain == DomainDVM:
		enabledKey = attributes.Key{
			Type: attributes.TypeTransferDomain, TypeID: attributes.TransferEVMToDVM,
			KeyID: attributes.TransferEnabled,
		}
	default:
		return fmt.Errorf("unknown domain pair %d -> %d", m.SrcDomain, m.DstDomain)
	}
	if !attrs.GetBool(enabledKey) {
		return fmt.Errorf("transfer domain direction is not enabled")
	}
	if m.SrcDomain == DomainDVM {
		if err := a.requireAuth(tx, m.From); err != nil {
			return err
		}
		return view.SubBalance(m.From, m.Amount)
	}
	// Funds entering the native domain were released by the embedded VM
	return view.AddBalance(m.To, m.Amount)
}

func (a *Applier) transfer(view *state.View, pools *pool.Engine, from common.Script, to []AccountBalances, height uint32) error {
	for _, dest := range to {
		if err := a.debit(view, pools, from, dest.Amounts, height); err != nil {
			return err
		}
		if err := a.credit(view, pools, dest.Owner, dest.Amounts, height); err != nil {
			return err
		}
	}
	return nil
}

// debit and credit keep pool share rows in lockstep with LP token moves
func (a *Applier) debit(view *state.View, pools *pool.Engine, owner common.Script, amounts common.Balances, height uint32) error {
	for _, token := range amounts.SortedTokens() {
		if a.isLPToken(view, token) {
			if err := pools.CalculateOwnerRewards(owner, height); err != nil {
				return err
			}
		}
		if err := view.SubBalance(owner, common.TokenAmount{Token: token, Amount: amounts[token]}); err != nil {
			return err
		}
		if a.isLPToken(view, token) {
			if err := pools.SettleAndRefreshShare(token, owner, height); err != nil {
				return err
			}
		}
	}
	return nil
}

func (a *Applier) credit(view *state.View, pools *pool.Engine, owner common.Script, amounts common.Balances, height uint32) error {
	for _, token := range amounts.SortedTokens() {
		if a.isLPToken(view, token) {
			if err := pools.CalculateOwnerRewards(owner, height); err != nil {
				return err
			}
		}
		if err := view.AddBalance(owner, common.TokenAmount{Token: token, Amount: amounts[token]}); err != nil {
			return err
		}
		if a.isLPToken(view, token) {
			if err := pools.SettleAndRefreshShare(token, owner, height); err != nil {
				return err
			}
		}
	}
	return nil
}

func (a *Applier) isLPToken(view *state.View, id common.TokenID) bool {
	token, err := view.GetToken(id)
	return err == nil && token.IsLPS()
}

// historyOwner picks the account a history row is keyed by
func historyOwner(msg Message) common.Script {
	switch m := msg.(type) {
	case *MintTokenMsg:
		return m.To
	case *BurnTokenMsg:
		return m.From
	case *PoolSwapMsg:
		return m.From
	case *AddLiquidityMsg:
		return m.From
	case *RemoveLiquidityMsg:
		return m.From
	case *UtxosToAccountMsg:
		return m.To
	case *AccountToUtxosMsg:
		return m.From
	case *AccountToAccountMsg:
		return m.From
	case *CreateVaultMsg:
		return m.Owner
	case *DepositToVaultMsg:
		return m.From
	case *WithdrawFromVaultMsg:
		return m.To
	case *TakeLoanMsg:
		return m.To
	case *PaybackLoanMsg:
		return m.From
	case *AuctionBidMsg:
		return m.From
	case *FutureSwapMsg:
		return m.Owner
	case *DUSDFutureSwapMsg:
		return m.Owner
	case *ICXCreateOrderMsg:
		return m.Owner
	case *ICXMakeOfferMsg:
		return m.Owner
	}
	return nil
}

// historyAmounts extracts the row's token amounts where the message has an
// obvious primary amount
func historyAmounts(msg Message) []common.TokenAmount {
	flatten := func(b common.Balances) []common.TokenAmount {
		ret := make([]common.TokenAmount, 0, len(b))
		for _, token := range b.SortedTokens() {
			ret = append(ret, common.TokenAmount{Token: token, Amount: b[token]})
		}
		return ret
	}
	switch m := msg.(type) {
	case *MintTokenMsg:
		return flatten(m.Amounts)
	case *BurnTokenMsg:
		return flatten(m.Amounts)
	case *PoolSwapMsg:
		return []common.TokenAmount{m.In}
	case *AddLiquidityMsg:
		return []common.TokenAmount{m.AmountA, m.AmountB}
	case *RemoveLiquidityMsg:
		return []common.TokenAmount{m.Amount}
	case *UtxosToAccountMsg:
		return []common.TokenAmount{{Token: common.TokenIDNative, Amount: m.Amount}}
	case *AccountToUtxosMsg:
		return []common.TokenAmount{{Token: common.TokenIDNative, Amount: m.Amount}}
	case *DepositToVaultMsg:
		return []common.TokenAmount{m.Amount}
	case *WithdrawFromVaultMsg:
		return []common.TokenAmount{m.Amount}
	case *TakeLoanMsg:
		return flatten(m.Amounts)
	case *PaybackLoanMsg:
		return flatten(m.Amounts)
	case *AuctionBidMsg:
		return []common.TokenAmount{m.Bid}
	case *FutureSwapMsg:
		return []common.TokenAmount{m.Source}
	case *DUSDFutureSwapMsg:
		return []common.TokenAmount{{Token: common.TokenIDNative, Amount: m.Amount}}
	}
	return nil
}
