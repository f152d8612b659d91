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
)

const pathVersion = "v0"

var typeNames = map[string]uint8{
	"params":         TypeParams,
	"evm":            TypeEVM,
	"gov":            TypeGov,
	"live":           TypeLive,
	"oracles":        TypeOracles,
	"poolpairs":      TypePoolPairs,
	"transferdomain": TypeTransferDomain,
	"rules":          TypeRules,
	"token":          TypeToken,
	"vaults":         TypeVaults,
	"locks":          TypeLocks,
}

var tokenKeyNames = map[string]uint32{
	"payback_dfi":             TokenPaybackDFI,
	"payback_dfi_fee_pct":     TokenPaybackDFIFeePCT,
	"loan_payback":            TokenLoanPayback,
	"loan_payback_fee_pct":    TokenLoanPaybackFeePCT,
	"loan_payback_collateral": TokenLoanPaybackCollateral,
	"dex_in_fee_pct":          TokenDexInFeePct,
	"dex_out_fee_pct":         TokenDexOutFeePct,
	"dfip2203":                TokenDFIP2203,
	"fixed_interval_price_id": TokenFixedIntervalPriceID,
	"loan_collateral_enabled": TokenLoanCollateralEnabled,
	"loan_collateral_factor":  TokenLoanCollateralFactor,
	"loan_minting_enabled":    TokenLoanMintingEnabled,
	"loan_minting_interest":   TokenLoanMintingInterest,
	"ascendant":               TokenAscendant,
	"descendant":              TokenDescendant,
}

var poolKeyNames = map[string]uint32{
	"token_a_fee_pct":       PoolTokenAFeePCT,
	"token_a_fee_direction": PoolTokenAFeeDir,
	"token_b_fee_pct":       PoolTokenBFeePCT,
	"token_b_fee_direction": PoolTokenBFeeDir,
}

var paramIDNames = map[string]uint32{
	"dfip2201":   ParamDFIP2201,
	"dfip2203":   ParamDFIP2203,
	"dfip2206a":  ParamDFIP2206A,
	"dfip2206f":  ParamDFIP2206F,
	"dfip2211f":  ParamDFIP2211F,
	"feature":    ParamFeature,
	"foundation": ParamFoundation,
}

var paramKeyNames = map[string]uint32{
	"active":       ParamActive,
	"minswap":      ParamMinSwap,
	"premium":      ParamPremium,
	"reward_pct":   ParamRewardPct,
	"block_period": ParamBlockPeriod,
	"start_block":  ParamStartBlock,
	"members":      ParamMembers,
	"gov-unset":    ParamGovUnset,
}

var econKeyNames = map[string]uint32{
	"dfi_payback_tokens":        EconPaybackDFITokens,
	"payback_tokens":            EconPaybackTokens,
	"dfip2203_current":          EconDFIP2203Current,
	"dfip2203_burned":           EconDFIP2203Burned,
	"dfip2203_minted":           EconDFIP2203Minted,
	"dfip2206f_current":         EconDFIP2206FCurrent,
	"dfip2206f_burned":          EconDFIP2206FBurned,
	"dfip2206f_minted":          EconDFIP2206FMinted,
	"negative_interest":         EconNegativeInterest,
	"negative_interest_current": EconNegativeInterestCurrent,
	"batch_rounding_excess":     EconBatchRoundingExcess,
	"consolidated_interest":     EconConsolidatedInterest,
}

var evmKeyNames = map[string]uint32{
	"gas_limit":  EVMBlockGasLimit,
	"gas_target": EVMBlockGasTarget,
}

var transferIDNames = map[string]uint32{
	"dvm-evm": TransferDVMToEVM,
	"evm-dvm": TransferEVMToDVM,
}

var transferKeyNames = map[string]uint32{
	"enabled":      TransferEnabled,
	"src-formats":  TransferSrcFormats,
	"dest-formats": TransferDestFormats,
}

var vaultsIDNames = map[string]uint32{
	"dusd-vault": VaultsDUSDVault,
	"params":     VaultsParams,
}

var vaultsKeyNames = map[string]uint32{
	"enabled":             VaultsEnabled,
	"liquidation_penalty": VaultsLiquidationPenalty,
}

var rulesKeyNames = map[string]uint32{
	"core_op_return_max_size_bytes": RulesCoreOPReturn,
	"dvm_op_return_max_size_bytes":  RulesDVMOPReturn,
	"evm_op_return_max_size_bytes":  RulesEVMOPReturn,
}

var govKeyNames = map[string]uint32{
	"fee_redistribution": GovFeeRedistribution,
	"cfp_fee":            GovCFPFee,
	"voting_period":      GovVotingPeriod,
}

func reverse(m map[string]uint32) map[uint32]string {
	ret := make(map[uint32]string, len(m))
	for name, id := range m {
		ret[id] = name
	}
	return ret
}

var (
	typeNamesRev     = func() map[uint8]string {
		ret := make(map[uint8]string, len(typeNames))
		for name, id := range typeNames {
			ret[id] = name
		}
		return ret
	}()
	tokenKeyNamesRev    = reverse(tokenKeyNames)
	poolKeyNamesRev     = reverse(poolKeyNames)
	paramIDNamesRev     = reverse(paramIDNames)
	paramKeyNamesRev    = reverse(paramKeyNames)
	econKeyNamesRev     = reverse(econKeyNames)
	evmKeyNamesRev      = reverse(evmKeyNames)
	transferIDNamesRev  = reverse(transferIDNames)
	transferKeyNamesRev = reverse(transferKeyNames)
	vaultsIDNamesRev    = reverse(vaultsIDNames)
	vaultsKeyNamesRev   = reverse(vaultsKeyNames)
	rulesKeyNamesRev    = reverse(rulesKeyNames)
	govKeyNamesRev      = reverse(govKeyNames)
)

// ParsePath parses a "v0/<type>/<id>/<key>[/<subKey>]" attribute path
func ParsePath(path string) (Key, error) {
	legs := strings.Split(path, "/")
	if len(legs) < 4 {
		return Key{}, fmt.Errorf("incomplete attribute path %q", path)
	}
	if legs[0] != pathVersion {
		return Key{}, fmt.Errorf("unsupported attribute version %q", legs[0])
	}
	attrType, ok := typeNames[legs[1]]
	if !ok {
		return Key{}, fmt.Errorf("unknown attribute type %q", legs[1])
	}
	key := Key{Type: attrType}
	id, keyLeg := legs[2], legs[3]
	var subLeg string
	if len(legs) > 4 {
		subLeg = legs[4]
	}
	switch attrType {
	case TypeToken:
		tokenID, err := strconv.ParseUint(id, 10, 32)
		if err != nil {
			return Key{}, fmt.Errorf("invalid token id %q: %w", id, err)
		}
		key.TypeID = uint32(tokenID)
		key.KeyID, ok = tokenKeyNames[keyLeg]
		if !ok {
			return Key{}, fmt.Errorf("unknown token attribute key %q", keyLeg)
		}
		if subLeg != "" {
			subID, err := strconv.ParseUint(subLeg, 10, 32)
			if err != nil {
				return Key{}, fmt.Errorf("invalid sub key %q: %w", subLeg, err)
			}
			key.SubID = uint32(subID)
		}
	case TypePoolPairs:
		poolID, err := strconv.ParseUint(id, 10, 32)
		if err != nil {
			return Key{}, fmt.Errorf("invalid pool id %q: %w", id, err)
		}
		key.TypeID = uint32(poolID)
		key.KeyID, ok = poolKeyNames[keyLeg]
		if !ok {
			return Key{}, fmt.Errorf("unknown poolpairs attribute key %q", keyLeg)
		}
	case TypeParams:
		key.TypeID, ok = paramIDNames[id]
		if !ok {
			return Key{}, fmt.Errorf("unknown param id %q", id)
		}
		key.KeyID, ok = paramKeyNames[keyLeg]
		if !ok {
			return Key{}, fmt.Errorf("unknown param key %q", keyLeg)
		}
	case TypeOracles:
		if id != "splits" {
			return Key{}, fmt.Errorf("unknown oracles id %q", id)
		}
		if keyLeg == "fractional_enabled" {
			key.TypeID = OracleFlags
			key.KeyID = OracleFractionalEnabled
			break
		}
		height, err := strconv.ParseUint(keyLeg, 10, 32)
		if err != nil {
			return Key{}, fmt.Errorf("invalid split height %q: %w", keyLeg, err)
		}
		key.TypeID = OracleSplits
		key.KeyID = uint32(height)
	case TypeLocks:
		if id != "token" {
			return Key{}, fmt.Errorf("unknown locks id %q", id)
		}
		tokenID, err := strconv.ParseUint(keyLeg, 10, 32)
		if err != nil {
			return Key{}, fmt.Errorf("invalid locked token id %q: %w", keyLeg, err)
		}
		key.TypeID = LocksToken
		key.KeyID = uint32(tokenID)
	case TypeLive:
		if id != "economy" {
			return Key{}, fmt.Errorf("unknown live id %q", id)
		}
		key.TypeID = LiveEconomy
		key.KeyID, ok = econKeyNames[keyLeg]
		if !ok {
			return Key{}, fmt.Errorf("unknown economy key %q", keyLeg)
		}
	case TypeEVM:
		if id != "block" {
			return Key{}, fmt.Errorf("unknown evm id %q", id)
		}
		key.TypeID = EVMBlock
		key.KeyID, ok = evmKeyNames[keyLeg]
		if !ok {
			return Key{}, fmt.Errorf("unknown evm key %q", keyLeg)
		}
	case TypeTransferDomain:
		key.TypeID, ok = transferIDNames[id]
		if !ok {
			return Key{}, fmt.Errorf("unknown transferdomain id %q", id)
		}
		key.KeyID, ok = transferKeyNames[keyLeg]
		if !ok {
			return Key{}, fmt.Errorf("unknown transferdomain key %q", keyLeg)
		}
	case TypeVaults:
		key.TypeID, ok = vaultsIDNames[id]
		if !ok {
			return Key{}, fmt.Errorf("unknown vaults id %q", id)
		}
		key.KeyID, ok = vaultsKeyNames[keyLeg]
		if !ok {
			return Key{}, fmt.Errorf("unknown vaults key %q", keyLeg)
		}
	case TypeRules:
		if id != "tx" {
			return Key{}, fmt.Errorf("unknown rules id %q", id)
		}
		key.TypeID = RulesTx
		key.KeyID, ok = rulesKeyNames[keyLeg]
		if !ok {
			return Key{}, fmt.Errorf("unknown rules key %q", keyLeg)
		}
	case TypeGov:
		if id != "proposals" {
			return Key{}, fmt.Errorf("unknown gov id %q", id)
		}
		key.TypeID = GovProposals
		key.KeyID, ok = govKeyNames[keyLeg]
		if !ok {
			return Key{}, fmt.Errorf("unknown gov key %q", keyLeg)
		}
	default:
		return Key{}, fmt.Errorf("unhandled attribute type %q", legs[1])
	}
	return key, nil
}

// FormatPath renders a key back into its "v0/..." path
func FormatPath(k Key) string {
	typeName := typeNamesRev[k.Type]
	switch k.Type {
	case TypeToken:
		path := fmt.Sprintf("%s/%s/%d/%s", pathVersion, typeName, k.TypeID, tokenKeyNamesRev[k.KeyID])
		if k.KeyID == TokenLoanPayback || k.KeyID == TokenLoanPaybackFeePCT {
			path = fmt.Sprintf("%s/%d", path, k.SubID)
		}
		return path
	case TypePoolPairs:
		return fmt.Sprintf("%s/%s/%d/%s", pathVersion, typeName, k.TypeID, poolKeyNamesRev[k.KeyID])
	case TypeParams:
		return fmt.Sprintf("%s/%s/%s/%s", pathVersion, typeName, paramIDNamesRev[k.TypeID], paramKeyNamesRev[k.KeyID])
	case TypeOracles:
		if k.TypeID == OracleFlags {
			return fmt.Sprintf("%s/%s/splits/fractional_enabled", pathVersion, typeName)
		}
		return fmt.Sprintf("%s/%s/splits/%d", pathVersion, typeName, k.KeyID)
	case TypeLocks:
		return fmt.Sprintf("%s/%s/token/%d", pathVersion, typeName, k.KeyID)
	case TypeLive:
		return fmt.Sprintf("%s/%s/economy/%s", pathVersion, typeName, econKeyNamesRev[k.KeyID])
	case TypeEVM:
		return fmt.Sprintf("%s/%s/block/%s", pathVersion, typeName, evmKeyNamesRev[k.KeyID])
	case TypeTransferDomain:
		return fmt.Sprintf("%s/%s/%s/%s", pathVersion, typeName, transferIDNamesRev[k.TypeID], transferKeyNamesRev[k.KeyID])
	case TypeVaults:
		return fmt.Sprintf("%s/%s/%s/%s", pathVersion, typeName, vaultsIDNamesRev[k.TypeID], vaultsKeyNamesRev[k.KeyID])
	case TypeRules:
		return fmt.Sprintf("%s/%s/tx/%s", pathVersion, typeName, rulesKeyNamesRev[k.KeyID])
	case TypeGov:
		return fmt.Sprintf("%s/%s/proposals/%s", pathVersion, typeName, govKeyNamesRev[k.KeyID])
	}
	return fmt.Sprintf("%s/unknown/%d/%d", pathVersion, k.TypeID, k.KeyID)
}
