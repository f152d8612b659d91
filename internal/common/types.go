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

package common

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// TokenID identifies a token on chain. ID 0 is the native chain coin; the
// all-ones value is the composite reward-pool wildcard used in reward routing.
type TokenID uint32

const (
	// TokenIDNative is the native chain coin
	TokenIDNative TokenID = 0
	// TokenIDAny is the composite reward-pool wildcard
	TokenIDAny TokenID = 0xffffffff
	// DctIDStart is the first ID handed out to user-created tokens
	DctIDStart TokenID = 128
)

// String returns the decimal representation of the token ID
func (t TokenID) String() string {
	return strconv.FormatUint(uint64(t), 10)
}

// VaultID is the transaction hash of the vault-creating transaction
type VaultID [32]byte

// String returns the hex representation of the vault ID
func (v VaultID) String() string {
	return hex.EncodeToString(v[:])
}

// VaultIDFromString parses a hex-encoded vault ID
func VaultIDFromString(s string) (VaultID, error) {
	var ret VaultID
	raw, err := hex.DecodeString(s)
	if err != nil {
		return ret, fmt.Errorf("invalid vault ID hex: %w", err)
	}
	if len(raw) != len(ret) {
		return ret, fmt.Errorf("invalid vault ID length: %d", len(raw))
	}
	copy(ret[:], raw)
	return ret, nil
}

// TxID is a transaction hash
type TxID = VaultID

// Script is an opaque byte string serving as account identity. It doubles as
// an authorization predicate validated against the UTXO layer.
type Script []byte

// String returns the hex representation of the script
func (s Script) String() string {
	return hex.EncodeToString(s)
}

// Equal reports whether two scripts are byte-identical
func (s Script) Equal(other Script) bool {
	return bytes.Equal(s, other)
}

// ScriptFromString parses a hex-encoded script
func ScriptFromString(str string) (Script, error) {
	raw, err := hex.DecodeString(str)
	if err != nil {
		return nil, fmt.Errorf("invalid script hex: %w", err)
	}
	return Script(raw), nil
}

// Amount is a signed 64-bit fixed-point value with 8 decimal places
type Amount int64

const (
	// COIN is the fixed-point scale of Amount
	COIN Amount = 100_000_000
	// CENT is one hundredth of COIN
	CENT Amount = 1_000_000
	// MaxMoney bounds any single Amount value
	MaxMoney Amount = 1_200_000_000 * COIN
)

// String formats the amount with 8 decimal places
func (a Amount) String() string {
	sign := ""
	v := a
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s%d.%08d", sign, v/COIN, v%COIN)
}

// AmountFromString parses a decimal amount with up to 8 fractional digits
func AmountFromString(s string) (Amount, error) {
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")
	parts := strings.SplitN(s, ".", 2)
	whole, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount: %w", err)
	}
	var frac int64
	if len(parts) == 2 {
		fracStr := parts[1]
		if len(fracStr) > 8 {
			return 0, fmt.Errorf("invalid amount: more than 8 decimal places")
		}
		fracStr += strings.Repeat("0", 8-len(fracStr))
		frac, err = strconv.ParseInt(fracStr, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid amount: %w", err)
		}
	}
	ret := whole*int64(COIN) + frac
	if neg {
		ret = -ret
	}
	return Amount(ret), nil
}

// MaxSymbolLength bounds token and currency symbols
const MaxSymbolLength = 8

// CurrencyPair names a (token, quote currency) price pair
type CurrencyPair struct {
	Token    string `json:"token"`
	Currency string `json:"currency"`
}

// String returns "TOKEN/CURRENCY"
func (p CurrencyPair) String() string {
	return p.Token + "/" + p.Currency
}

// Validate checks symbol presence and length
func (p CurrencyPair) Validate() error {
	if p.Token == "" || p.Currency == "" {
		return fmt.Errorf("empty token or currency symbol")
	}
	if len(p.Token) > MaxSymbolLength || len(p.Currency) > MaxSymbolLength {
		return fmt.Errorf("token or currency symbol longer than %d", MaxSymbolLength)
	}
	return nil
}

// TokenAmount pairs a token ID with an amount
type TokenAmount struct {
	Token  TokenID `json:"token"`
	Amount Amount  `json:"amount"`
}

// String returns "<amount>@<tokenId>"
func (t TokenAmount) String() string {
	return fmt.Sprintf("%s@%d", t.Amount, t.Token)
}

// Balances maps token IDs to amounts. No entry with amount <= 0 is ever
// stored; mutators erase rows on reaching zero.
type Balances map[TokenID]Amount

// Add folds an amount into the map, erasing the row when it reaches zero.
// Fails when the result would be negative.
func (b Balances) Add(t TokenAmount) error {
	sum, err := SafeAdd(b[t.Token], t.Amount)
	if err != nil {
		return err
	}
	if sum < 0 {
		return ErrInsufficientFunds
	}
	if sum == 0 {
		delete(b, t.Token)
		return nil
	}
	b[t.Token] = sum
	return nil
}

// Sub subtracts an amount, failing with ErrInsufficientFunds on underflow
func (b Balances) Sub(t TokenAmount) error {
	return b.Add(TokenAmount{Token: t.Token, Amount: -t.Amount})
}

// AddBalances folds another balance map into this one
func (b Balances) AddBalances(other Balances) error {
	for _, token := range other.SortedTokens() {
		if err := b.Add(TokenAmount{Token: token, Amount: other[token]}); err != nil {
			return err
		}
	}
	return nil
}

// SortedTokens returns the token IDs in ascending order. All consensus
// iteration over a Balances map must go through this.
func (b Balances) SortedTokens() []TokenID {
	tokens := make([]TokenID, 0, len(b))
	for token := range b {
		tokens = append(tokens, token)
	}
	sort.Slice(tokens, func(i, j int) bool { return tokens[i] < tokens[j] })
	return tokens
}

// Copy returns a deep copy of the balance map
func (b Balances) Copy() Balances {
	ret := make(Balances, len(b))
	for token, amount := range b {
		ret[token] = amount
	}
	return ret
}

// String returns a stable comma-separated rendering
func (b Balances) String() string {
	var sb strings.Builder
	for i, token := range b.SortedTokens() {
		if i > 0 {
			sb.WriteString(",")
		}
		sb.WriteString(TokenAmount{Token: token, Amount: b[token]}.String())
	}
	return sb.String()
}
