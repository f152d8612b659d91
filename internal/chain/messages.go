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
	"sort"

	"github.com/blinklabs-io/naiad/internal/common"
)

// Message is a decoded custom transaction payload
type Message interface {
	Type() CustomTxType
	Serialize() []byte
}

// AccountBalances pairs an account with a balance map in multi-account
// transfers
type AccountBalances struct {
	Owner   common.Script
	Amounts common.Balances
}

func writeAccountBalances(w *Writer, list []AccountBalances) {
	w.U32(uint32(len(list)))
	for _, entry := range list {
		w.Script(entry.Owner)
		w.Balances(entry.Amounts)
	}
}

func readAccountBalances(r *Reader) []AccountBalances {
	n := r.U32()
	ret := make([]AccountBalances, 0, n)
	for i := uint32(0); i < n && r.Err() == nil; i++ {
		ret = append(ret, AccountBalances{
			Owner:   r.Script(),
			Amounts: r.BalancesMap(),
		})
	}
	return ret
}

func writeStringMap(w *Writer, m map[string]string) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	w.U32(uint32(len(keys)))
	for _, k := range keys {
		w.String(k)
		w.String(m[k])
	}
}

func readStringMap(r *Reader) map[string]string {
	n := r.U32()
	ret := make(map[string]string)
	for i := uint32(0); i < n && r.Err() == nil; i++ {
		k := r.String()
		ret[k] = r.String()
	}
	return ret
}

func writePairs(w *Writer, pairs []common.CurrencyPair) {
	w.U32(uint32(len(pairs)))
	for _, pair := range pairs {
		w.String(pair.Token)
		w.String(pair.Currency)
	}
}

func readPairs(r *Reader) []common.CurrencyPair {
	n := r.U32()
	ret := make([]common.CurrencyPair, 0, n)
	for i := uint32(0); i < n && r.Err() == nil; i++ {
		ret = append(ret, common.CurrencyPair{
			Token:    r.String(),
			Currency: r.String(),
		})
	}
	return ret
}

type CreateMasternodeMsg struct {
	Operator common.Script
}

func (m *CreateMasternodeMsg) Type() CustomTxType { return TxCreateMasternode }
func (m *CreateMasternodeMsg) Serialize() []byte {
	w := &Writer{}
	w.Script(m.Operator)
	return w.Payload()
}

type ResignMasternodeMsg struct {
	NodeID common.TxID
}

func (m *ResignMasternodeMsg) Type() CustomTxType { return TxResignMasternode }
func (m *ResignMasternodeMsg) Serialize() []byte {
	w := &Writer{}
	w.TxID(m.NodeID)
	return w.Payload()
}

type UpdateMasternodeMsg struct {
	NodeID   common.TxID
	NewOwner common.Script
}

func (m *UpdateMasternodeMsg) Type() CustomTxType { return TxUpdateMasternode }
func (m *UpdateMasternodeMsg) Serialize() []byte {
	w := &Writer{}
	w.TxID(m.NodeID)
	w.Script(m.NewOwner)
	return w.Payload()
}

type CreateTokenMsg struct {
	Symbol    string
	Name      string
	Mintable  bool
	Tradeable bool
	IsDAT     bool
}

func (m *CreateTokenMsg) Type() CustomTxType { return TxCreateToken }
func (m *CreateTokenMsg) Serialize() []byte {
	w := &Writer{}
	w.String(m.Symbol)
	w.String(m.Name)
	w.Bool(m.Mintable)
	w.Bool(m.Tradeable)
	w.Bool(m.IsDAT)
	return w.Payload()
}

type UpdateTokenMsg struct {
	Token     common.TokenID
	Symbol    string
	Name      string
	Mintable  bool
	Tradeable bool
	Finalized bool
}

func (m *UpdateTokenMsg) Type() CustomTxType { return TxUpdateToken }
func (m *UpdateTokenMsg) Serialize() []byte {
	w := &Writer{}
	w.U32(uint32(m.Token))
	w.String(m.Symbol)
	w.String(m.Name)
	w.Bool(m.Mintable)
	w.Bool(m.Tradeable)
	w.Bool(m.Finalized)
	return w.Payload()
}

type MintTokenMsg struct {
	To      common.Script
	Amounts common.Balances
}

func (m *MintTokenMsg) Type() CustomTxType { return TxMintToken }
func (m *MintTokenMsg) Serialize() []byte {
	w := &Writer{}
	w.Script(m.To)
	w.Balances(m.Amounts)
	return w.Payload()
}

type BurnTokenMsg struct {
	From    common.Script
	Amounts common.Balances
}

func (m *BurnTokenMsg) Type() CustomTxType { return TxBurnToken }
func (m *BurnTokenMsg) Serialize() []byte {
	w := &Writer{}
	w.Script(m.From)
	w.Balances(m.Amounts)
	return w.Payload()
}

type CreatePoolPairMsg struct {
	TokenA        common.TokenID
	TokenB        common.TokenID
	Commission    common.Amount
	OwnerAddress  common.Script
	Status        bool
	PairSymbol    string
	CustomRewards common.Balances
}

func (m *CreatePoolPairMsg) Type() CustomTxType { return TxCreatePoolPair }
func (m *CreatePoolPairMsg) Serialize() []byte {
	w := &Writer{}
	w.U32(uint32(m.TokenA))
	w.U32(uint32(m.TokenB))
	w.Amount(m.Commission)
	w.Script(m.OwnerAddress)
	w.Bool(m.Status)
	w.String(m.PairSymbol)
	w.Balances(m.CustomRewards)
	return w.Payload()
}

type UpdatePoolPairMsg struct {
	Pool          common.TokenID
	Status        bool
	Commission    common.Amount
	OwnerAddress  common.Script
	CustomRewards common.Balances
}

func (m *UpdatePoolPairMsg) Type() CustomTxType { return TxUpdatePoolPair }
func (m *UpdatePoolPairMsg) Serialize() []byte {
	w := &Writer{}
	w.U32(uint32(m.Pool))
	w.Bool(m.Status)
	w.Amount(m.Commission)
	w.Script(m.OwnerAddress)
	w.Balances(m.CustomRewards)
	return w.Payload()
}

type PoolSwapMsg struct {
	From         common.Script
	In           common.TokenAmount
	To           common.Script
	OutToken     common.TokenID
	MaxPriceInt  common.Amount
	MaxPriceFrac common.Amount
	// Pools is the explicit multi-hop route (v2); empty means direct
	Pools []common.TokenID
}

func (m *PoolSwapMsg) Type() CustomTxType {
	if len(m.Pools) > 0 {
		return TxPoolSwapV2
	}
	return TxPoolSwap
}

func (m *PoolSwapMsg) Serialize() []byte {
	w := &Writer{}
	w.Script(m.From)
	w.TokenAmount(m.In)
	w.Script(m.To)
	w.U32(uint32(m.OutToken))
	w.Amount(m.MaxPriceInt)
	w.Amount(m.MaxPriceFrac)
	if len(m.Pools) > 0 {
		w.U32(uint32(len(m.Pools)))
		for _, pool := range m.Pools {
			w.U32(uint32(pool))
		}
	}
	return w.Payload()
}

type AddLiquidityMsg struct {
	From         common.Script
	AmountA      common.TokenAmount
	AmountB      common.TokenAmount
	ShareAddress common.Script
}

func (m *AddLiquidityMsg) Type() CustomTxType { return TxAddPoolLiquidity }
func (m *AddLiquidityMsg) Serialize() []byte {
	w := &Writer{}
	w.Script(m.From)
	w.TokenAmount(m.AmountA)
	w.TokenAmount(m.AmountB)
	w.Script(m.ShareAddress)
	return w.Payload()
}

type RemoveLiquidityMsg struct {
	From   common.Script
	Amount common.TokenAmount
}

func (m *RemoveLiquidityMsg) Type() CustomTxType { return TxRemovePoolLiquidity }
func (m *RemoveLiquidityMsg) Serialize() []byte {
	w := &Writer{}
	w.Script(m.From)
	w.TokenAmount(m.Amount)
	return w.Payload()
}

type UtxosToAccountMsg struct {
	To     common.Script
	Amount common.Amount
}

func (m *UtxosToAccountMsg) Type() CustomTxType { return TxUtxosToAccount }
func (m *UtxosToAccountMsg) Serialize() []byte {
	w := &Writer{}
	w.Script(m.To)
	w.Amount(m.Amount)
	return w.Payload()
}

type AccountToUtxosMsg struct {
	From   common.Script
	Amount common.Amount
}

func (m *AccountToUtxosMsg) Type() CustomTxType { return TxAccountToUtxos }
func (m *AccountToUtxosMsg) Serialize() []byte {
	w := &Writer{}
	w.Script(m.From)
	w.Amount(m.Amount)
	return w.Payload()
}

type AccountToAccountMsg struct {
	From common.Script
	To   []AccountBalances
}

func (m *AccountToAccountMsg) Type() CustomTxType { return TxAccountToAccount }
func (m *AccountToAccountMsg) Serialize() []byte {
	w := &Writer{}
	w.Script(m.From)
	writeAccountBalances(w, m.To)
	return w.Payload()
}

type AnyAccountsToAccountsMsg struct {
	From []AccountBalances
	To   []AccountBalances
}

func (m *AnyAccountsToAccountsMsg) Type() CustomTxType { return TxAnyAccountsToAccounts }
func (m *AnyAccountsToAccountsMsg) Serialize() []byte {
	w := &Writer{}
	writeAccountBalances(w, m.From)
	writeAccountBalances(w, m.To)
	return w.Payload()
}

type SetGovVariableMsg struct {
	Values map[string]string
	// Height delays application; zero applies immediately
	Height uint32
}

func (m *SetGovVariableMsg) Type() CustomTxType {
	if m.Height > 0 {
		return TxSetGovVariableHeight
	}
	return TxSetGovVariable
}

func (m *SetGovVariableMsg) Serialize() []byte {
	w := &Writer{}
	writeStringMap(w, m.Values)
	if m.Height > 0 {
		w.U32(m.Height)
	}
	return w.Payload()
}

type AppointOracleMsg struct {
	Address   common.Script
	Weightage uint8
	Pairs     []common.CurrencyPair
}

func (m *AppointOracleMsg) Type() CustomTxType { return TxAppointOracle }
func (m *AppointOracleMsg) Serialize() []byte {
	w := &Writer{}
	w.Script(m.Address)
	w.U8(m.Weightage)
	writePairs(w, m.Pairs)
	return w.Payload()
}

type RemoveOracleMsg struct {
	OracleID common.TxID
}

func (m *RemoveOracleMsg) Type() CustomTxType { return TxRemoveOracle }
func (m *RemoveOracleMsg) Serialize() []byte {
	w := &Writer{}
	w.TxID(m.OracleID)
	return w.Payload()
}

type UpdateOracleMsg struct {
	OracleID  common.TxID
	Address   common.Script
	Weightage uint8
	Pairs     []common.CurrencyPair
}

func (m *UpdateOracleMsg) Type() CustomTxType { return TxUpdateOracle }
func (m *UpdateOracleMsg) Serialize() []byte {
	w := &Writer{}
	w.TxID(m.OracleID)
	w.Script(m.Address)
	w.U8(m.Weightage)
	writePairs(w, m.Pairs)
	return w.Payload()
}

// PricePoint is one (pair, value) report in a SetOracleData message
type PricePoint struct {
	Pair  common.CurrencyPair
	Value common.Amount
}

type SetOracleDataMsg struct {
	OracleID  common.TxID
	Timestamp int64
	Prices    []PricePoint
}

func (m *SetOracleDataMsg) Type() CustomTxType { return TxSetOracleData }
func (m *SetOracleDataMsg) Serialize() []byte {
	w := &Writer{}
	w.TxID(m.OracleID)
	w.I64(m.Timestamp)
	w.U32(uint32(len(m.Prices)))
	for _, p := range m.Prices {
		w.String(p.Pair.Token)
		w.String(p.Pair.Currency)
		w.Amount(p.Value)
	}
	return w.Payload()
}

type CreateLoanSchemeMsg struct {
	ID          string
	MinColRatio uint32
	Rate        common.Amount
	ActivateAt  uint32
}

func (m *CreateLoanSchemeMsg) Type() CustomTxType { return TxCreateLoanScheme }
func (m *CreateLoanSchemeMsg) Serialize() []byte {
	w := &Writer{}
	w.String(m.ID)
	w.U32(m.MinColRatio)
	w.Amount(m.Rate)
	w.U32(m.ActivateAt)
	return w.Payload()
}

type DefaultLoanSchemeMsg struct {
	ID string
}

func (m *DefaultLoanSchemeMsg) Type() CustomTxType { return TxDefaultLoanScheme }
func (m *DefaultLoanSchemeMsg) Serialize() []byte {
	w := &Writer{}
	w.String(m.ID)
	return w.Payload()
}

type DestroyLoanSchemeMsg struct {
	ID       string
	DeleteAt uint32
}

func (m *DestroyLoanSchemeMsg) Type() CustomTxType { return TxDestroyLoanScheme }
func (m *DestroyLoanSchemeMsg) Serialize() []byte {
	w := &Writer{}
	w.String(m.ID)
	w.U32(m.DeleteAt)
	return w.Payload()
}

type CreateVaultMsg struct {
	Owner    common.Script
	SchemeID string
}

func (m *CreateVaultMsg) Type() CustomTxType { return TxCreateVault }
func (m *CreateVaultMsg) Serialize() []byte {
	w := &Writer{}
	w.Script(m.Owner)
	w.String(m.SchemeID)
	return w.Payload()
}

type CloseVaultMsg struct {
	VaultID common.VaultID
	To      common.Script
}

func (m *CloseVaultMsg) Type() CustomTxType { return TxCloseVault }
func (m *CloseVaultMsg) Serialize() []byte {
	w := &Writer{}
	w.TxID(m.VaultID)
	w.Script(m.To)
	return w.Payload()
}

type UpdateVaultMsg struct {
	VaultID  common.VaultID
	Owner    common.Script
	SchemeID string
}

func (m *UpdateVaultMsg) Type() CustomTxType { return TxUpdateVault }
func (m *UpdateVaultMsg) Serialize() []byte {
	w := &Writer{}
	w.TxID(m.VaultID)
	w.Script(m.Owner)
	w.String(m.SchemeID)
	return w.Payload()
}

type DepositToVaultMsg struct {
	VaultID common.VaultID
	From    common.Script
	Amount  common.TokenAmount
}

func (m *DepositToVaultMsg) Type() CustomTxType { return TxDepositToVault }
func (m *DepositToVaultMsg) Serialize() []byte {
	w := &Writer{}
	w.TxID(m.VaultID)
	w.Script(m.From)
	w.TokenAmount(m.Amount)
	return w.Payload()
}

type WithdrawFromVaultMsg struct {
	VaultID common.VaultID
	To      common.Script
	Amount  common.TokenAmount
}

func (m *WithdrawFromVaultMsg) Type() CustomTxType { return TxWithdrawFromVault }
func (m *WithdrawFromVaultMsg) Serialize() []byte {
	w := &Writer{}
	w.TxID(m.VaultID)
	w.Script(m.To)
	w.TokenAmount(m.Amount)
	return w.Payload()
}

type TakeLoanMsg struct {
	VaultID common.VaultID
	To      common.Script
	Amounts common.Balances
}

func (m *TakeLoanMsg) Type() CustomTxType { return TxTakeLoan }
func (m *TakeLoanMsg) Serialize() []byte {
	w := &Writer{}
	w.TxID(m.VaultID)
	w.Script(m.To)
	w.Balances(m.Amounts)
	return w.Payload()
}

type PaybackLoanMsg struct {
	VaultID common.VaultID
	From    common.Script
	Amounts common.Balances
	// V2 selects per-token payback routing via attributes
	V2 bool
}

func (m *PaybackLoanMsg) Type() CustomTxType {
	if m.V2 {
		return TxPaybackLoanV2
	}
	return TxPaybackLoan
}

func (m *PaybackLoanMsg) Serialize() []byte {
	w := &Writer{}
	w.TxID(m.VaultID)
	w.Script(m.From)
	w.Balances(m.Amounts)
	return w.Payload()
}

type AuctionBidMsg struct {
	VaultID common.VaultID
	Index   uint32
	From    common.Script
	Bid     common.TokenAmount
}

func (m *AuctionBidMsg) Type() CustomTxType { return TxAuctionBid }
func (m *AuctionBidMsg) Serialize() []byte {
	w := &Writer{}
	w.TxID(m.VaultID)
	w.U32(m.Index)
	w.Script(m.From)
	w.TokenAmount(m.Bid)
	return w.Payload()
}

type FutureSwapMsg struct {
	Owner       common.Script
	Source      common.TokenAmount
	Destination common.TokenID
	Withdraw    bool
}

func (m *FutureSwapMsg) Type() CustomTxType {
	if m.Withdraw {
		return TxFutureSwapRefund
	}
	return TxFutureSwap
}

func (m *FutureSwapMsg) Serialize() []byte {
	w := &Writer{}
	w.Script(m.Owner)
	w.TokenAmount(m.Source)
	w.U32(uint32(m.Destination))
	return w.Payload()
}

type DUSDFutureSwapMsg struct {
	Owner  common.Script
	Amount common.Amount
}

func (m *DUSDFutureSwapMsg) Type() CustomTxType { return TxDUSDFutureSwap }
func (m *DUSDFutureSwapMsg) Serialize() []byte {
	w := &Writer{}
	w.Script(m.Owner)
	w.Amount(m.Amount)
	return w.Payload()
}

// Transfer domains
const (
	DomainDVM uint8 = 2
	DomainEVM uint8 = 3
)

type TransferDomainMsg struct {
	From      common.Script
	To        common.Script
	Amount    common.TokenAmount
	SrcDomain uint8
	DstDomain uint8
}

func (m *TransferDomainMsg) Type() CustomTxType { return TxTransferDomain }
func (m *TransferDomainMsg) Serialize() []byte {
	w := &Writer{}
	w.Script(m.From)
	w.Script(m.To)
	w.TokenAmount(m.Amount)
	w.U8(m.SrcDomain)
	w.U8(m.DstDomain)
	return w.Payload()
}

type ICXCreateOrderMsg struct {
	OrderType  uint8
	Token      common.TokenID
	Chain      string
	Owner      common.Script
	AmountFrom common.Amount
	OrderPrice common.Amount
	Expiry     uint32
}

func (m *ICXCreateOrderMsg) Type() CustomTxType { return TxICXCreateOrder }
func (m *ICXCreateOrderMsg) Serialize() []byte {
	w := &Writer{}
	w.U8(m.OrderType)
	w.U32(uint32(m.Token))
	w.String(m.Chain)
	w.Script(m.Owner)
	w.Amount(m.AmountFrom)
	w.Amount(m.OrderPrice)
	w.U32(m.Expiry)
	return w.Payload()
}

type ICXMakeOfferMsg struct {
	OrderTx  common.TxID
	Amount   common.Amount
	Owner    common.Script
	TakerFee common.Amount
	Expiry   uint32
}

func (m *ICXMakeOfferMsg) Type() CustomTxType { return TxICXMakeOffer }
func (m *ICXMakeOfferMsg) Serialize() []byte {
	w := &Writer{}
	w.TxID(m.OrderTx)
	w.Amount(m.Amount)
	w.Script(m.Owner)
	w.Amount(m.TakerFee)
	w.U32(m.Expiry)
	return w.Payload()
}

type ICXSubmitHTLCMsg struct {
	OfferTx    common.TxID
	Amount     common.Amount
	Hash       common.TxID
	Timeout    uint32
	HtlcScript string
	External   bool
}

func (m *ICXSubmitHTLCMsg) Type() CustomTxType {
	if m.External {
		return TxICXSubmitEXTHTLC
	}
	return TxICXSubmitDFCHTLC
}

func (m *ICXSubmitHTLCMsg) Serialize() []byte {
	w := &Writer{}
	w.TxID(m.OfferTx)
	w.Amount(m.Amount)
	w.TxID(m.Hash)
	w.U32(m.Timeout)
	if m.External {
		w.String(m.HtlcScript)
	}
	return w.Payload()
}

type ICXClaimDFCHTLCMsg struct {
	OfferTx common.TxID
	HTLCTx  common.TxID
	Seed    []byte
}

func (m *ICXClaimDFCHTLCMsg) Type() CustomTxType { return TxICXClaimDFCHTLC }
func (m *ICXClaimDFCHTLCMsg) Serialize() []byte {
	w := &Writer{}
	w.TxID(m.OfferTx)
	w.TxID(m.HTLCTx)
	w.Bytes(m.Seed)
	return w.Payload()
}

type ICXCloseOrderMsg struct {
	OrderTx common.TxID
}

func (m *ICXCloseOrderMsg) Type() CustomTxType { return TxICXCloseOrder }
func (m *ICXCloseOrderMsg) Serialize() []byte {
	w := &Writer{}
	w.TxID(m.OrderTx)
	return w.Payload()
}

type ICXCloseOfferMsg struct {
	OfferTx common.TxID
}

func (m *ICXCloseOfferMsg) Type() CustomTxType { return TxICXCloseOffer }
func (m *ICXCloseOfferMsg) Serialize() []byte {
	w := &Writer{}
	w.TxID(m.OfferTx)
	return w.Payload()
}

// DecodeMessage parses a payload per its type byte. The payload must be
// fully consumed.
func DecodeMessage(txType CustomTxType, payload []byte) (Message, error) {
	r := NewReader(payload)
	var msg Message
	switch txType {
	case TxCreateMasternode:
		msg = &CreateMasternodeMsg{Operator: r.Script()}
	case TxResignMasternode:
		msg = &ResignMasternodeMsg{NodeID: r.TxID()}
	case TxUpdateMasternode:
		msg = &UpdateMasternodeMsg{NodeID: r.TxID(), NewOwner: r.Script()}
	case TxCreateToken:
		msg = &CreateTokenMsg{
			Symbol:    r.String(),
			Name:      r.String(),
			Mintable:  r.Bool(),
			Tradeable: r.Bool(),
			IsDAT:     r.Bool(),
		}
	case TxUpdateToken:
		msg = &UpdateTokenMsg{
			Token:     common.TokenID(r.U32()),
			Symbol:    r.String(),
			Name:      r.String(),
			Mintable:  r.Bool(),
			Tradeable: r.Bool(),
			Finalized: r.Bool(),
		}
	case TxMintToken:
		msg = &MintTokenMsg{To: r.Script(), Amounts: r.BalancesMap()}
	case TxBurnToken:
		msg = &BurnTokenMsg{From: r.Script(), Amounts: r.BalancesMap()}
	case TxCreatePoolPair:
		msg = &CreatePoolPairMsg{
			TokenA:        common.TokenID(r.U32()),
			TokenB:        common.TokenID(r.U32()),
			Commission:    r.Amount(),
			OwnerAddress:  r.Script(),
			Status:        r.Bool(),
			PairSymbol:    r.String(),
			CustomRewards: r.BalancesMap(),
		}
	case TxUpdatePoolPair:
		msg = &UpdatePoolPairMsg{
			Pool:          common.TokenID(r.U32()),
			Status:        r.Bool(),
			Commission:    r.Amount(),
			OwnerAddress:  r.Script(),
			CustomRewards: r.BalancesMap(),
		}
	case TxPoolSwap, TxPoolSwapV2:
		swap := &PoolSwapMsg{
			From:         r.Script(),
			In:           r.TokenAmount(),
			To:           r.Script(),
			OutToken:     common.TokenID(r.U32()),
			MaxPriceInt:  r.Amount(),
			MaxPriceFrac: r.Amount(),
		}
		if txType == TxPoolSwapV2 {
			n := r.U32()
			for i := uint32(0); i < n && r.Err() == nil; i++ {
				swap.Pools = append(swap.Pools, common.TokenID(r.U32()))
			}
		}
		msg = swap
	case TxAddPoolLiquidity:
		msg = &AddLiquidityMsg{
			From:         r.Script(),
			AmountA:      r.TokenAmount(),
			AmountB:      r.TokenAmount(),
			ShareAddress: r.Script(),
		}
	case TxRemovePoolLiquidity:
		msg = &RemoveLiquidityMsg{From: r.Script(), Amount: r.TokenAmount()}
	case TxUtxosToAccount:
		msg = &UtxosToAccountMsg{To: r.Script(), Amount: r.Amount()}
	case TxAccountToUtxos:
		msg = &AccountToUtxosMsg{From: r.Script(), Amount: r.Amount()}
	case TxAccountToAccount:
		msg = &AccountToAccountMsg{From: r.Script(), To: readAccountBalances(r)}
	case TxAnyAccountsToAccounts:
		msg = &AnyAccountsToAccountsMsg{
			From: readAccountBalances(r),
			To:   readAccountBalances(r),
		}
	case TxSetGovVariable:
		msg = &SetGovVariableMsg{Values: readStringMap(r)}
	case TxSetGovVariableHeight:
		msg = &SetGovVariableMsg{Values: readStringMap(r), Height: r.U32()}
	case TxAppointOracle:
		msg = &AppointOracleMsg{
			Address:   r.Script(),
			Weightage: r.U8(),
			Pairs:     readPairs(r),
		}
	case TxRemoveOracle:
		msg = &RemoveOracleMsg{OracleID: r.TxID()}
	case TxUpdateOracle:
		msg = &UpdateOracleMsg{
			OracleID:  r.TxID(),
			Address:   r.Script(),
			Weightage: r.U8(),
			Pairs:     readPairs(r),
		}
	case TxSetOracleData:
		data := &SetOracleDataMsg{OracleID: r.TxID(), Timestamp: r.I64()}
		n := r.U32()
		for i := uint32(0); i < n && r.Err() == nil; i++ {
			data.Prices = append(data.Prices, PricePoint{
				Pair:  common.CurrencyPair{Token: r.String(), Currency: r.String()},
				Value: r.Amount(),
			})
		}
		msg = data
	case TxCreateLoanScheme:
		msg = &CreateLoanSchemeMsg{
			ID:          r.String(),
			MinColRatio: r.U32(),
			Rate:        r.Amount(),
			ActivateAt:  r.U32(),
		}
	case TxDefaultLoanScheme:
		msg = &DefaultLoanSchemeMsg{ID: r.String()}
	case TxDestroyLoanScheme:
		msg = &DestroyLoanSchemeMsg{ID: r.String(), DeleteAt: r.U32()}
	case TxCreateVault:
		msg = &CreateVaultMsg{Owner: r.Script(), SchemeID: r.String()}
	case TxCloseVault:
		msg = &CloseVaultMsg{VaultID: r.TxID(), To: r.Script()}
	case TxUpdateVault:
		msg = &UpdateVaultMsg{
			VaultID:  r.TxID(),
			Owner:    r.Script(),
			SchemeID: r.String(),
		}
	case TxDepositToVault:
		msg = &DepositToVaultMsg{
			VaultID: r.TxID(),
			From:    r.Script(),
			Amount:  r.TokenAmount(),
		}
	case TxWithdrawFromVault:
		msg = &WithdrawFromVaultMsg{
			VaultID: r.TxID(),
			To:      r.Script(),
			Amount:  r.TokenAmount(),
		}
	case TxTakeLoan:
		msg = &TakeLoanMsg{
			VaultID: r.TxID(),
			To:      r.Script(),
			Amounts: r.BalancesMap(),
		}
	case TxPaybackLoan, TxPaybackLoanV2:
		msg = &PaybackLoanMsg{
			VaultID: r.TxID(),
			From:    r.Script(),
			Amounts: r.BalancesMap(),
			V2:      txType == TxPaybackLoanV2,
		}
	case TxAuctionBid:
		msg = &AuctionBidMsg{
			VaultID: r.TxID(),
			Index:   r.U32(),
			From:    r.Script(),
			Bid:     r.TokenAmount(),
		}
	case TxFutureSwap, TxFutureSwapRefund:
		msg = &FutureSwapMsg{
			Owner:       r.Script(),
			Source:      r.TokenAmount(),
			Destination: common.TokenID(r.U32()),
			Withdraw:    txType == TxFutureSwapRefund,
		}
	case TxDUSDFutureSwap:
		msg = &DUSDFutureSwapMsg{Owner: r.Script(), Amount: r.Amount()}
	case TxTransferDomain:
		msg = &TransferDomainMsg{
			From:      r.Script(),
			To:        r.Script(),
			Amount:    r.TokenAmount(),
			SrcDomain: r.U8(),
			DstDomain: r.U8(),
		}
	case TxICXCreateOrder:
		msg = &ICXCreateOrderMsg{
			OrderType:  r.U8(),
			Token:      common.TokenID(r.U32()),
			Chain:      r.String(),
			Owner:      r.Script(),
			AmountFrom: r.Amount(),
			OrderPrice: r.Amount(),
			Expiry:     r.U32(),
		}
	case TxICXMakeOffer:
		msg = &ICXMakeOfferMsg{
			OrderTx:  r.TxID(),
			Amount:   r.Amount(),
			Owner:    r.Script(),
			TakerFee: r.Amount(),
			Expiry:   r.U32(),
		}
	case TxICXSubmitDFCHTLC:
		msg = &ICXSubmitHTLCMsg{
			OfferTx: r.TxID(),
			Amount:  r.Amount(),
			Hash:    r.TxID(),
			Timeout: r.U32(),
		}
	case TxICXSubmitEXTHTLC:
		msg = &ICXSubmitHTLCMsg{
			OfferTx:  r.TxID(),
			Amount:   r.Amount(),
			Hash:     r.TxID(),
			Timeout:  r.U32(),
			External: true,
		}
		msg.(*ICXSubmitHTLCMsg).HtlcScript = r.String()
	case TxICXClaimDFCHTLC:
		msg = &ICXClaimDFCHTLCMsg{
			OfferTx: r.TxID(),
			HTLCTx:  r.TxID(),
			Seed:    r.Bytes(),
		}
	case TxICXCloseOrder:
		msg = &ICXCloseOrderMsg{OrderTx: r.TxID()}
	case TxICXCloseOffer:
		msg = &ICXCloseOfferMsg{OfferTx: r.TxID()}
	default:
		return nil, fmt.Errorf("unknown custom transaction type 0x%02x", byte(txType))
	}
	if err := r.Done(); err != nil {
		return nil, err
	}
	return msg, nil
}
