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
	"sort"

	"github.com/blinklabs-io/naiad/internal/common"
	"github.com/blinklabs-io/naiad/internal/state"

	"github.com/fxamacker/cbor/v2"
)

// Attribute type bytes (the <type> leg of the v0 path)
const (
	TypeParams         uint8 = 'a'
	TypeEVM            uint8 = 'e'
	TypeGov            uint8 = 'g'
	TypeLive           uint8 = 'l'
	TypeOracles        uint8 = 'o'
	TypePoolPairs      uint8 = 'p'
	TypeTransferDomain uint8 = 'q'
	TypeRules          uint8 = 'r'
	TypeToken          uint8 = 't'
	TypeVaults         uint8 = 'v'
	TypeLocks          uint8 = 'L'
)

// Token attribute keys
const (
	TokenPaybackDFI uint32 = iota + 1
	TokenPaybackDFIFeePCT
	TokenLoanPayback
	TokenLoanPaybackFeePCT
	TokenLoanPaybackCollateral
	TokenDexInFeePct
	TokenDexOutFeePct
	TokenDFIP2203
	TokenFixedIntervalPriceID
	TokenLoanCollateralEnabled
	TokenLoanCollateralFactor
	TokenLoanMintingEnabled
	TokenLoanMintingInterest
	TokenAscendant
	TokenDescendant
)

// Pool pair attribute keys
const (
	PoolTokenAFeePCT uint32 = iota + 1
	PoolTokenAFeeDir
	PoolTokenBFeePCT
	PoolTokenBFeeDir
)

// Param type IDs
const (
	ParamDFIP2201 uint32 = iota + 1
	ParamDFIP2203
	ParamDFIP2206A
	ParamDFIP2206F
	ParamDFIP2211F
	ParamFeature
	ParamFoundation
)

// Param keys
const (
	ParamActive uint32 = iota + 1
	ParamMinSwap
	ParamPremium
	ParamRewardPct
	ParamBlockPeriod
	ParamStartBlock
	ParamMembers
	ParamGovUnset
)

// Oracle type IDs and keys
const (
	OracleSplits uint32 = iota + 1
	OracleFlags
)

const (
	OracleFractionalEnabled uint32 = 1
)

// Lock type IDs; the key leg carries the token ID
const (
	LocksToken uint32 = 1
)

// Live economy type ID and keys
const (
	LiveEconomy uint32 = 1
)

const (
	EconPaybackDFITokens uint32 = iota + 1
	EconPaybackTokens
	EconDFIP2203Current
	EconDFIP2203Burned
	EconDFIP2203Minted
	EconDFIP2206FCurrent
	EconDFIP2206FBurned
	EconDFIP2206FMinted
	EconNegativeInterest
	EconNegativeInterestCurrent
	EconBatchRoundingExcess
	EconConsolidatedInterest
)

// EVM / transferdomain / vaults / rules / gov spaces
const (
	EVMBlock uint32 = 1
)

const (
	EVMBlockGasLimit uint32 = iota + 1
	EVMBlockGasTarget
)

const (
	TransferDVMToEVM uint32 = iota + 1
	TransferEVMToDVM
)

const (
	TransferEnabled uint32 = iota + 1
	TransferSrcFormats
	TransferDestFormats
)

const (
	VaultsDUSDVault uint32 = iota + 1
	VaultsParams
)

const (
	VaultsEnabled uint32 = iota + 1
	VaultsLiquidationPenalty
)

const (
	RulesTx uint32 = 1
)

const (
	RulesCoreOPReturn uint32 = iota + 1
	RulesDVMOPReturn
	RulesEVMOPReturn
)

const (
	GovProposals uint32 = 1
)

const (
	GovFeeRedistribution uint32 = iota + 1
	GovCFPFee
	GovVotingPeriod
)

// Key is the typed v0 attribute key tuple
type Key struct {
	Type   uint8
	TypeID uint32
	KeyID  uint32
	SubID  uint32
}

func (k Key) stateKey() state.AttrKey {
	return state.AttrKey{Type: k.Type, TypeID: k.TypeID, Key: k.KeyID, SubID: k.SubID}
}

func fromStateKey(k state.AttrKey) Key {
	return Key{Type: k.Type, TypeID: k.TypeID, KeyID: k.Key, SubID: k.SubID}
}

// FeeDir directions for pool token fees
const (
	FeeDirBoth uint8 = iota
	FeeDirIn
	FeeDirOut
)

// Value tags used in the stored envelope
const (
	tagBool uint8 = iota + 1
	tagInt32
	tagUint32
	tagUint64
	tagAmount
	tagBalances
	tagCurrencyPair
	tagOracleSplits
	tagOracleSplits64
	tagFeeDir
	tagRef
	tagStringSet
)

// Value is the dynamic attribute value union. Exactly one concrete type
// below implements it per stored entry.
type Value interface {
	tag() uint8
}

type BoolValue bool

func (BoolValue) tag() uint8 { return tagBool }

type Int32Value int32

func (Int32Value) tag() uint8 { return tagInt32 }

type Uint32Value uint32

func (Uint32Value) tag() uint8 { return tagUint32 }

type Uint64Value uint64

func (Uint64Value) tag() uint8 { return tagUint64 }

type AmountValue common.Amount

func (AmountValue) tag() uint8 { return tagAmount }

type BalancesValue common.Balances

func (BalancesValue) tag() uint8 { return tagBalances }

type CurrencyPairValue common.CurrencyPair

func (CurrencyPairValue) tag() uint8 { return tagCurrencyPair }

// OracleSplitsValue maps token IDs to integer split multipliers
type OracleSplitsValue map[common.TokenID]int32

func (OracleSplitsValue) tag() uint8 { return tagOracleSplits }

// OracleSplits64Value maps token IDs to fixed-point split multipliers
type OracleSplits64Value map[common.TokenID]common.Amount

func (OracleSplits64Value) tag() uint8 { return tagOracleSplits64 }

type FeeDirValue uint8

func (FeeDirValue) tag() uint8 { return tagFeeDir }

// RefValue links a token to its split ascendant or descendant
type RefValue struct {
	Token common.TokenID
	Tag   string
	Height uint32
}

func (RefValue) tag() uint8 { return tagRef }

// StringSetValue is a sorted set of strings (addresses, format names)
type StringSetValue []string

func (StringSetValue) tag() uint8 { return tagStringSet }

// Normalize sorts and dedups the set in place and returns it
func (s StringSetValue) Normalize() StringSetValue {
	sort.Strings(s)
	out := s[:0]
	for i, v := range s {
		if i == 0 || v != s[i-1] {
			out = append(out, v)
		}
	}
	return out
}

// Contains reports set membership
func (s StringSetValue) Contains(v string) bool {
	for _, e := range s {
		if e == v {
			return true
		}
	}
	return false
}

type storedValue struct {
	_ struct{} `cbor:",toarray"`
	T uint8
	V cbor.RawMessage
}

// MarshalValue encodes a value into its stored envelope
func MarshalValue(v Value) ([]byte, error) {
	inner, err := cbor.Marshal(v)
	if err != nil {
		return nil, err
	}
	return cbor.Marshal(storedValue{T: v.tag(), V: inner})
}

// UnmarshalValue decodes a stored envelope back into its typed value
func UnmarshalValue(raw []byte) (Value, error) {
	var env storedValue
	if err := cbor.Unmarshal(raw, &env); err != nil {
		return nil, err
	}
	var (
		out Value
		err error
	)
	switch env.T {
	case tagBool:
		var v BoolValue
		err = cbor.Unmarshal(env.V, &v)
		out = v
	case tagInt32:
		var v Int32Value
		err = cbor.Unmarshal(env.V, &v)
		out = v
	case tagUint32:
		var v Uint32Value
		err = cbor.Unmarshal(env.V, &v)
		out = v
	case tagUint64:
		var v Uint64Value
		err = cbor.Unmarshal(env.V, &v)
		out = v
	case tagAmount:
		var v AmountValue
		err = cbor.Unmarshal(env.V, &v)
		out = v
	case tagBalances:
		v := make(BalancesValue)
		err = cbor.Unmarshal(env.V, &v)
		out = v
	case tagCurrencyPair:
		var v CurrencyPairValue
		err = cbor.Unmarshal(env.V, &v)
		out = v
	case tagOracleSplits:
		v := make(OracleSplitsValue)
		err = cbor.Unmarshal(env.V, &v)
		out = v
	case tagOracleSplits64:
		v := make(OracleSplits64Value)
		err = cbor.Unmarshal(env.V, &v)
		out = v
	case tagFeeDir:
		var v FeeDirValue
		err = cbor.Unmarshal(env.V, &v)
		out = v
	case tagRef:
		var v RefValue
		err = cbor.Unmarshal(env.V, &v)
		out = v
	case tagStringSet:
		var v StringSetValue
		err = cbor.Unmarshal(env.V, &v)
		out = v
	default:
		return nil, fmt.Errorf("unknown attribute value tag %d", env.T)
	}
	if err != nil {
		return nil, err
	}
	return out, nil
}
