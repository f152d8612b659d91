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

package attributes

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/blinklabs-io/naiad/internal/common"
)

func parseBool(raw string) (Value, error) {
	switch raw {
	case "true":
		return BoolValue(true), nil
	case "false":
		return BoolValue(false), nil
	}
	return nil, fmt.Errorf("boolean attribute must be %q or %q", "true", "false")
}

// parsePercentage accepts "0.05" or "5%" forms and scales to [0, COIN]
func parsePercentage(raw string) (Value, error) {
	if strings.HasSuffix(raw, "%") {
		pctStr := strings.TrimSuffix(raw, "%")
		pct, err := common.AmountFromString(pctStr)
		if err != nil {
			return nil, err
		}
		raw = (common.Amount(pct) / 100).String()
	}
	amount, err := common.AmountFromString(raw)
	if err != nil {
		return nil, err
	}
	if amount < 0 || amount > common.COIN {
		return nil, fmt.Errorf("percentage outside [0, 1]: %s", amount)
	}
	return AmountValue(amount), nil
}

func parseAmount(raw string) (Value, error) {
	amount, err := common.AmountFromString(raw)
	if err != nil {
		return nil, err
	}
	return AmountValue(amount), nil
}

func parseUint64(raw string) (Value, error) {
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid number %q: %w", raw, err)
	}
	return Uint64Value(v), nil
}

func parseCurrencyPair(raw string) (Value, error) {
	parts := strings.Split(raw, "/")
	if len(parts) != 2 {
		return nil, fmt.Errorf("price pair must be token/currency: %q", raw)
	}
	pair := common.CurrencyPair{Token: parts[0], Currency: parts[1]}
	if err := pair.Validate(); err != nil {
		return nil, err
	}
	return CurrencyPairValue(pair), nil
}

func parseFeeDir(raw string) (Value, error) {
	switch raw {
	case "both":
		return FeeDirValue(FeeDirBoth), nil
	case "in":
		return FeeDirValue(FeeDirIn), nil
	case "out":
		return FeeDirValue(FeeDirOut), nil
	}
	return nil, fmt.Errorf("fee direction must be both, in or out: %q", raw)
}

// parseSplits parses "tokenId/multiplier" pairs. Fixed-point multipliers
// select the 64-bit fractional representation.
func parseSplits(raw string) (Value, error) {
	fractional := strings.Contains(raw, ".")
	intSplits := make(OracleSplitsValue)
	fracSplits := make(OracleSplits64Value)
	for _, entry := range strings.Split(raw, ",") {
		parts := strings.Split(entry, "/")
		if len(parts) != 2 {
			return nil, fmt.Errorf("token split must be id/multiplier: %q", entry)
		}
		tokenID, err := strconv.ParseUint(parts[0], 10, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid split token id %q: %w", parts[0], err)
		}
		if fractional {
			mult, err := common.AmountFromString(parts[1])
			if err != nil {
				return nil, err
			}
			if mult == 0 {
				return nil, fmt.Errorf("zero split multiplier for token %d", tokenID)
			}
			fracSplits[common.TokenID(tokenID)] = mult
		} else {
			mult, err := strconv.ParseInt(parts[1], 10, 32)
			if err != nil {
				return nil, fmt.Errorf("invalid split multiplier %q: %w", parts[1], err)
			}
			if mult == 0 || mult == 1 || mult == -1 {
				return nil, fmt.Errorf("invalid split multiplier %d for token %d", mult, tokenID)
			}
			intSplits[common.TokenID(tokenID)] = int32(mult)
		}
	}
	if fractional {
		return fracSplits, nil
	}
	return intSplits, nil
}

// parseSet parses a comma-separated member list; entries keep their +/-
// delta prefixes, which are merged at apply time.
func parseSet(raw string) (Value, error) {
	entries := strings.Split(raw, ",")
	ret := make(StringSetValue, 0, len(entries))
	for _, entry := range entries {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		ret = append(ret, entry)
	}
	if len(ret) == 0 {
		return nil, fmt.Errorf("empty set value")
	}
	return ret, nil
}

// ParseValue converts user string input to the typed union per (type, key)
func ParseValue(k Key, raw string) (Value, error) {
	switch k.Type {
	case TypeToken:
		switch k.KeyID {
		case TokenPaybackDFI, TokenDFIP2203, TokenLoanCollateralEnabled,
			TokenLoanMintingEnabled, TokenLoanPaybackCollateral:
			return parseBool(raw)
		case TokenPaybackDFIFeePCT, TokenLoanPaybackFeePCT,
			TokenDexInFeePct, TokenDexOutFeePct:
			return parsePercentage(raw)
		case TokenLoanCollateralFactor:
			return parsePercentage(raw)
		case TokenLoanMintingInterest:
			return parseAmount(raw)
		case TokenLoanPayback:
			return parseBool(raw)
		case TokenFixedIntervalPriceID:
			return parseCurrencyPair(raw)
		}
	case TypePoolPairs:
		switch k.KeyID {
		case PoolTokenAFeePCT, PoolTokenBFeePCT:
			return parsePercentage(raw)
		case PoolTokenAFeeDir, PoolTokenBFeeDir:
			return parseFeeDir(raw)
		}
	case TypeParams:
		switch k.KeyID {
		case ParamActive, ParamGovUnset:
			return parseBool(raw)
		case ParamPremium, ParamRewardPct:
			return parsePercentage(raw)
		case ParamMinSwap:
			return parseAmount(raw)
		case ParamBlockPeriod, ParamStartBlock:
			return parseUint64(raw)
		case ParamMembers:
			return parseSet(raw)
		}
	case TypeOracles:
		if k.TypeID == OracleFlags && k.KeyID == OracleFractionalEnabled {
			return parseBool(raw)
		}
		return parseSplits(raw)
	case TypeLocks:
		return parseBool(raw)
	case TypeEVM:
		return parseUint64(raw)
	case TypeTransferDomain:
		if k.KeyID == TransferEnabled {
			return parseBool(raw)
		}
		return parseSet(raw)
	case TypeVaults:
		if k.KeyID == VaultsEnabled {
			return parseBool(raw)
		}
		return parsePercentage(raw)
	case TypeRules:
		return parseUint64(raw)
	case TypeGov:
		switch k.KeyID {
		case GovFeeRedistribution:
			return parseBool(raw)
		case GovCFPFee:
			return parsePercentage(raw)
		case GovVotingPeriod:
			return parseUint64(raw)
		}
	case TypeLive:
		return nil, fmt.Errorf("live attributes cannot be set externally")
	}
	return nil, fmt.Errorf("no parser for attribute %s", FormatPath(k))
}

// RenderValue renders a typed value back to its user string form
func RenderValue(k Key, v Value) string {
	switch val := v.(type) {
	case BoolValue:
		if val {
			return "true"
		}
		return "false"
	case AmountValue:
		return common.Amount(val).String()
	case Int32Value:
		return strconv.FormatInt(int64(val), 10)
	case Uint32Value:
		return strconv.FormatUint(uint64(val), 10)
	case Uint64Value:
		return strconv.FormatUint(uint64(val), 10)
	case CurrencyPairValue:
		return common.CurrencyPair(val).String()
	case FeeDirValue:
		switch uint8(val) {
		case FeeDirIn:
			return "in"
		case FeeDirOut:
			return "out"
		}
		return "both"
	case BalancesValue:
		return common.Balances(val).String()
	case OracleSplitsValue:
		var sb strings.Builder
		for i, token := range sortedSplitTokens(val) {
			if i > 0 {
				sb.WriteString(",")
			}
			fmt.Fprintf(&sb, "%d/%d", token, val[token])
		}
		return sb.String()
	case OracleSplits64Value:
		var sb strings.Builder
		for i, token := range sortedSplit64Tokens(val) {
			if i > 0 {
				sb.WriteString(",")
			}
			fmt.Fprintf(&sb, "%d/%s", token, val[token])
		}
		return sb.String()
	case RefValue:
		if val.Tag != "" {
			return fmt.Sprintf("%d/%s", val.Token, val.Tag)
		}
		return fmt.Sprintf("%d/%d", val.Token, val.Height)
	case StringSetValue:
		return strings.Join(val, ",")
	}
	return ""
}

func sortedSplitTokens(m OracleSplitsValue) []common.TokenID {
	b := make(common.Balances, len(m))
	for token := range m {
		b[token] = 1
	}
	return b.SortedTokens()
}

func sortedSplit64Tokens(m OracleSplits64Value) []common.TokenID {
	b := make(common.Balances, len(m))
	for token := range m {
		b[token] = 1
	}
	return b.SortedTokens()
}
