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
	"github.com/blinklabs-io/naiad/internal/common"
)

// CustomTxType selects the message kind carried in a custom transaction
type CustomTxType byte

const (
	TxCreateMasternode      CustomTxType = 'C'
	TxResignMasternode      CustomTxType = 'R'
	TxUpdateMasternode      CustomTxType = 'm'
	TxCreateToken           CustomTxType = 'T'
	TxUpdateToken           CustomTxType = 'N'
	TxMintToken             CustomTxType = 'M'
	TxBurnToken             CustomTxType = 'F'
	TxCreatePoolPair        CustomTxType = 'p'
	TxUpdatePoolPair        CustomTxType = 'u'
	TxPoolSwap              CustomTxType = 's'
	TxPoolSwapV2            CustomTxType = 'i'
	TxAddPoolLiquidity      CustomTxType = 'l'
	TxRemovePoolLiquidity   CustomTxType = 'r'
	TxUtxosToAccount        CustomTxType = 'U'
	TxAccountToUtxos        CustomTxType = 'b'
	TxAccountToAccount      CustomTxType = 'B'
	TxAnyAccountsToAccounts CustomTxType = 'a'
	TxSetGovVariable        CustomTxType = 'G'
	TxSetGovVariableHeight  CustomTxType = 'j'
	TxAppointOracle         CustomTxType = 'o'
	TxRemoveOracle          CustomTxType = 'h'
	TxUpdateOracle          CustomTxType = 't'
	TxSetOracleData         CustomTxType = 'y'
	TxCreateLoanScheme      CustomTxType = 'L'
	TxDefaultLoanScheme     CustomTxType = 'd'
	TxDestroyLoanScheme     CustomTxType = 'D'
	TxCreateVault           CustomTxType = 'V'
	TxCloseVault            CustomTxType = 'e'
	TxUpdateVault           CustomTxType = 'v'
	TxDepositToVault        CustomTxType = 'S'
	TxWithdrawFromVault     CustomTxType = 'J'
	TxTakeLoan              CustomTxType = 'X'
	TxPaybackLoan           CustomTxType = 'H'
	TxPaybackLoanV2         CustomTxType = 'k'
	TxAuctionBid            CustomTxType = 'I'
	TxFutureSwap            CustomTxType = 'Q'
	TxFutureSwapRefund      CustomTxType = 'W'
	TxDUSDFutureSwap        CustomTxType = 'q'
	TxTransferDomain        CustomTxType = '8'
	TxICXCreateOrder        CustomTxType = '1'
	TxICXMakeOffer          CustomTxType = '2'
	TxICXSubmitDFCHTLC      CustomTxType = '3'
	TxICXSubmitEXTHTLC      CustomTxType = '4'
	TxICXClaimDFCHTLC       CustomTxType = '5'
	TxICXCloseOrder         CustomTxType = '6'
	TxICXCloseOffer         CustomTxType = '7'
)

// String names the message kind
func (t CustomTxType) String() string {
	if name, ok := txTypeNames[t]; ok {
		return name
	}
	return "Unknown"
}

var txTypeNames = map[CustomTxType]string{
	TxCreateMasternode:      "CreateMasternode",
	TxResignMasternode:      "ResignMasternode",
	TxUpdateMasternode:      "UpdateMasternode",
	TxCreateToken:           "CreateToken",
	TxUpdateToken:           "UpdateToken",
	TxMintToken:             "MintToken",
	TxBurnToken:             "BurnToken",
	TxCreatePoolPair:        "CreatePoolPair",
	TxUpdatePoolPair:        "UpdatePoolPair",
	TxPoolSwap:              "PoolSwap",
	TxPoolSwapV2:            "PoolSwapV2",
	TxAddPoolLiquidity:      "AddPoolLiquidity",
	TxRemovePoolLiquidity:   "RemovePoolLiquidity",
	TxUtxosToAccount:        "UtxosToAccount",
	TxAccountToUtxos:        "AccountToUtxos",
	TxAccountToAccount:      "AccountToAccount",
	TxAnyAccountsToAccounts: "AnyAccountsToAccounts",
	TxSetGovVariable:        "SetGovVariable",
	TxSetGovVariableHeight:  "SetGovVariableHeight",
	TxAppointOracle:         "AppointOracle",
	TxRemoveOracle:          "RemoveOracle",
	TxUpdateOracle:          "UpdateOracle",
	TxSetOracleData:         "SetOracleData",
	TxCreateLoanScheme:      "CreateLoanScheme",
	TxDefaultLoanScheme:     "DefaultLoanScheme",
	TxDestroyLoanScheme:     "DestroyLoanScheme",
	TxCreateVault:           "CreateVault",
	TxCloseVault:            "CloseVault",
	TxUpdateVault:           "UpdateVault",
	TxDepositToVault:        "DepositToVault",
	TxWithdrawFromVault:     "WithdrawFromVault",
	TxTakeLoan:              "TakeLoan",
	TxPaybackLoan:           "PaybackLoan",
	TxPaybackLoanV2:         "PaybackLoanV2",
	TxAuctionBid:            "AuctionBid",
	TxFutureSwap:            "FutureSwap",
	TxFutureSwapRefund:      "FutureSwapRefund",
	TxDUSDFutureSwap:        "DUSDFutureSwap",
	TxTransferDomain:        "TransferDomain",
	TxICXCreateOrder:        "ICXCreateOrder",
	TxICXMakeOffer:          "ICXMakeOffer",
	TxICXSubmitDFCHTLC:      "ICXSubmitDFCHTLC",
	TxICXSubmitEXTHTLC:      "ICXSubmitEXTHTLC",
	TxICXClaimDFCHTLC:       "ICXClaimDFCHTLC",
	TxICXCloseOrder:         "ICXCloseOrder",
	TxICXCloseOffer:         "ICXCloseOffer",
}

// Transaction is the slice of a UTXO transaction the core consumes: its
// hash, the OP_RETURN metadata of the first output, and the owners of its
// inputs as resolved by the UTXO layer.
type Transaction struct {
	Hash        common.TxID
	Metadata    []byte
	InputOwners []common.Script
}

// HasInputFrom reports whether any input is owned by the script
func (t *Transaction) HasInputFrom(owner common.Script) bool {
	for _, s := range t.InputOwners {
		if s.Equal(owner) {
			return true
		}
	}
	return false
}

// Block carries the per-block inputs to the event pipeline
type Block struct {
	Height uint32
	Time   int64
	Hash   common.TxID
	Txs    []*Transaction
}

// UtxoView is the external coin and script layer, referenced for
// authorization checks only.
type UtxoView interface {
	// HasAuth reports whether the transaction's inputs satisfy the
	// authorization predicate of the given script
	HasAuth(tx *Transaction, owner common.Script) bool
}
