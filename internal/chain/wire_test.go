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
	"reflect"
	"testing"

	"github.com/blinklabs-io/naiad/internal/common"
)

func TestSplitMetadata(t *testing.T) {
	payload := []byte{0x01, 0x02}
	metadata := BuildMetadata(TxPoolSwap, payload)
	txType, got, err := SplitMetadata(metadata)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if txType != TxPoolSwap {
		t.Errorf("type %c, expected %c", txType, TxPoolSwap)
	}
	if string(got) != string(payload) {
		t.Errorf("payload %v, expected %v", got, payload)
	}
	if _, _, err := SplitMetadata([]byte("XXXX!")); err != ErrNotCustomTx {
		t.Errorf("expected ErrNotCustomTx, got %v", err)
	}
}

func TestMessageRoundTrips(t *testing.T) {
	owner := common.Script("owner_script")
	messages := []Message{
		&CreateTokenMsg{
			Symbol:    "GOLD",
			Name:      "Gold",
			Mintable:  true,
			Tradeable: true,
			IsDAT:     true,
		},
		&MintTokenMsg{To: owner, Amounts: common.Balances{5: 100, 7: 200}},
		&PoolSwapMsg{
			From:        owner,
			In:          common.TokenAmount{Token: 1, Amount: 100 * common.COIN},
			To:          owner,
			OutToken:    2,
			MaxPriceInt: 2,
		},
		&PoolSwapMsg{
			From:     owner,
			In:       common.TokenAmount{Token: 1, Amount: 5},
			To:       owner,
			OutToken: 3,
			Pools:    []common.TokenID{200, 201},
		},
		&AddLiquidityMsg{
			From:         owner,
			AmountA:      common.TokenAmount{Token: 1, Amount: 10},
			AmountB:      common.TokenAmount{Token: 2, Amount: 20},
			ShareAddress: owner,
		},
		&AccountToAccountMsg{
			From: owner,
			To: []AccountBalances{
				{Owner: common.Script("dest"), Amounts: common.Balances{1: 5}},
			},
		},
		&SetGovVariableMsg{
			Values: map[string]string{"v0/params/dfip2203/active": "true"},
		},
		&SetGovVariableMsg{
			Values: map[string]string{"v0/locks/token/5": "true"},
			Height: 300,
		},
		&AppointOracleMsg{
			Address:   owner,
			Weightage: 50,
			Pairs: []common.CurrencyPair{
				{Token: "TSLA", Currency: "USD"},
			},
		},
		&CreateVaultMsg{Owner: owner, SchemeID: "DEFAULT"},
		&TakeLoanMsg{
			VaultID: common.VaultID{1},
			To:      owner,
			Amounts: common.Balances{128: 50 * common.COIN},
		},
		&AuctionBidMsg{
			VaultID: common.VaultID{1},
			Index:   2,
			From:    owner,
			Bid:     common.TokenAmount{Token: 128, Amount: 55 * common.COIN},
		},
		&FutureSwapMsg{
			Owner:       owner,
			Source:      common.TokenAmount{Token: 128, Amount: 100 * common.COIN},
			Destination: 129,
		},
		&ICXCreateOrderMsg{
			OrderType:  1,
			Token:      5,
			Chain:      "BTC",
			Owner:      owner,
			AmountFrom: 10 * common.COIN,
			OrderPrice: common.COIN / 100,
			Expiry:     2880,
		},
		&ICXSubmitHTLCMsg{
			OfferTx:    common.TxID{2},
			Amount:     common.COIN,
			Hash:       common.TxID{9},
			Timeout:    500,
			HtlcScript: "ext-script",
			External:   true,
		},
	}
	for _, msg := range messages {
		decoded, err := DecodeMessage(msg.Type(), msg.Serialize())
		if err != nil {
			t.Fatalf("%s decode failed: %s", msg.Type(), err)
		}
		if !reflect.DeepEqual(msg, decoded) {
			t.Errorf(
				"%s round trip mismatch:\n  in:  %#v\n  out: %#v",
				msg.Type(), msg, decoded,
			)
		}
	}
}

func TestDecodeRejectsTrailingBytes(t *testing.T) {
	msg := &CreateVaultMsg{Owner: common.Script("x"), SchemeID: "A"}
	payload := append(msg.Serialize(), 0xff)
	if _, err := DecodeMessage(msg.Type(), payload); err == nil {
		t.Error("trailing bytes should be rejected")
	}
}

func TestDecodeRejectsTruncation(t *testing.T) {
	msg := &AuctionBidMsg{
		VaultID: common.VaultID{1},
		From:    common.Script("bidder"),
		Bid:     common.TokenAmount{Token: 1, Amount: 5},
	}
	payload := msg.Serialize()
	if _, err := DecodeMessage(msg.Type(), payload[:len(payload)-3]); err == nil {
		t.Error("truncated payload should be rejected")
	}
}

func TestDecodeUnknownType(t *testing.T) {
	if _, err := DecodeMessage(CustomTxType(0x00), nil); err == nil {
		t.Error("unknown type byte should be rejected")
	}
}
