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

package state

import (
	"encoding/binary"

	"github.com/blinklabs-io/naiad/internal/common"
)

// One-byte key family prefixes. All integer key components are big-endian so
// lexicographic order matches numeric order.
const (
	prefixBalance byte = iota + 1
	prefixToken
	prefixTokenSymbol
	prefixPoolPair
	prefixPoolShare
	prefixPoolRewardIndex
	prefixOracle
	prefixFixedIntervalPrice
	prefixAttribute
	prefixVault
	prefixVaultCollateral
	prefixVaultLoan
	prefixVaultInterest
	prefixLoanScheme
	prefixLoanSchemeOp
	prefixAuction
	prefixAuctionHeight
	prefixAuctionBatch
	prefixAuctionBid
	prefixFuturesToken
	prefixFuturesDUSD
	prefixICXOrder
	prefixICXOrderExpiry
	prefixICXOffer
	prefixICXOfferExpiry
	prefixICXHTLC
	prefixICXHTLCExpiry
	prefixCommunity
	prefixUndo
	prefixHistory
	prefixLegacyLoanToken
	prefixLegacyCollateralToken
	prefixMeta
	prefixDexFee
	prefixGovScheduled
	prefixMasternode
)

func appendU32(key []byte, v uint32) []byte {
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], v)
	return append(key, buf[:]...)
}

func balanceKey(owner common.Script, token common.TokenID) []byte {
	key := append([]byte{prefixBalance}, owner...)
	return appendU32(key, uint32(token))
}

func balancePrefix(owner common.Script) []byte {
	return append([]byte{prefixBalance}, owner...)
}

func tokenKey(id common.TokenID) []byte {
	return appendU32([]byte{prefixToken}, uint32(id))
}

func tokenSymbolKey(symbol string) []byte {
	return append([]byte{prefixTokenSymbol}, symbol...)
}

func poolPairKey(id common.TokenID) []byte {
	return appendU32([]byte{prefixPoolPair}, uint32(id))
}

func poolShareKey(pool common.TokenID, owner common.Script) []byte {
	key := appendU32([]byte{prefixPoolShare}, uint32(pool))
	return append(key, owner...)
}

func poolRewardIndexKey(pool, rewardToken common.TokenID) []byte {
	key := appendU32([]byte{prefixPoolRewardIndex}, uint32(pool))
	return appendU32(key, uint32(rewardToken))
}

func oracleKey(id common.TxID) []byte {
	return append([]byte{prefixOracle}, id[:]...)
}

func fixedIntervalPriceKey(pair common.CurrencyPair) []byte {
	key := append([]byte{prefixFixedIntervalPrice}, pair.Token...)
	key = append(key, 0x00)
	return append(key, pair.Currency...)
}

func attributeKey(k AttrKey) []byte {
	key := []byte{prefixAttribute, k.Type}
	key = appendU32(key, k.TypeID)
	key = appendU32(key, k.Key)
	return appendU32(key, k.SubID)
}

func vaultKey(id common.VaultID) []byte {
	return append([]byte{prefixVault}, id[:]...)
}

func vaultCollateralKey(id common.VaultID) []byte {
	return append([]byte{prefixVaultCollateral}, id[:]...)
}

func vaultLoanKey(id common.VaultID) []byte {
	return append([]byte{prefixVaultLoan}, id[:]...)
}

func vaultInterestKey(id common.VaultID, token common.TokenID) []byte {
	key := append([]byte{prefixVaultInterest}, id[:]...)
	return appendU32(key, uint32(token))
}

func loanSchemeKey(id string) []byte {
	return append([]byte{prefixLoanScheme}, id...)
}

func loanSchemeOpKey(height uint32, id string) []byte {
	key := appendU32([]byte{prefixLoanSchemeOp}, height)
	return append(key, id...)
}

func auctionKey(id common.VaultID) []byte {
	return append([]byte{prefixAuction}, id[:]...)
}

func auctionHeightKey(height uint32, id common.VaultID) []byte {
	key := appendU32([]byte{prefixAuctionHeight}, height)
	return append(key, id[:]...)
}

func auctionBatchKey(id common.VaultID, index uint32) []byte {
	key := append([]byte{prefixAuctionBatch}, id[:]...)
	return appendU32(key, index)
}

func auctionBidKey(id common.VaultID, index uint32) []byte {
	key := append([]byte{prefixAuctionBid}, id[:]...)
	return appendU32(key, index)
}

func futuresKey(prefix byte, k FuturesUserKey) []byte {
	key := appendU32([]byte{prefix}, k.Height)
	key = append(key, k.Owner...)
	return appendU32(key, k.Ordinal)
}

func icxOrderKey(tx common.TxID) []byte {
	return append([]byte{prefixICXOrder}, tx[:]...)
}

func icxExpiryKey(prefix byte, height uint32, tx common.TxID) []byte {
	key := appendU32([]byte{prefix}, height)
	return append(key, tx[:]...)
}

func icxOfferKey(tx common.TxID) []byte {
	return append([]byte{prefixICXOffer}, tx[:]...)
}

func icxHTLCKey(offerTx, tx common.TxID) []byte {
	key := append([]byte{prefixICXHTLC}, offerTx[:]...)
	return append(key, tx[:]...)
}

func communityKey(account CommunityAccount) []byte {
	return []byte{prefixCommunity, byte(account)}
}

func undoKey(height uint32, blockHash common.TxID) []byte {
	key := appendU32([]byte{prefixUndo}, height)
	return append(key, blockHash[:]...)
}

func historyKey(owner common.Script, height uint32, txn uint32) []byte {
	key := append([]byte{prefixHistory}, owner...)
	key = appendU32(key, height)
	return appendU32(key, txn)
}

func legacyLoanTokenKey(token common.TokenID) []byte {
	return appendU32([]byte{prefixLegacyLoanToken}, uint32(token))
}

func legacyCollateralTokenKey(token common.TokenID) []byte {
	return appendU32([]byte{prefixLegacyCollateralToken}, uint32(token))
}

func metaKey(name string) []byte {
	return append([]byte{prefixMeta}, name...)
}
