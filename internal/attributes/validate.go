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
	"errors"
	"fmt"
	"strings"

	"github.com/blinklabs-io/naiad/internal/common"
	"github.com/blinklabs-io/naiad/internal/config"
)

// Validate checks a parsed attribute against the current chain state and
// height before it may be applied.
func (s *Store) Validate(k Key, v Value, height uint32, cfg *config.ChainConfig) error {
	if k.Type == TypeLive {
		return errors.New("live attributes cannot be set externally")
	}
	forks := cfg.Forks
	if height < forks.FortCanning {
		return fmt.Errorf("attributes inactive below height %d", forks.FortCanning)
	}
	switch k.Type {
	case TypeToken:
		return s.validateToken(k, v, height, cfg)
	case TypePoolPairs:
		if _, err := s.view.GetPoolPair(common.TokenID(k.TypeID)); err != nil {
			return err
		}
	case TypeParams:
		if (k.TypeID == ParamDFIP2203 || k.TypeID == ParamDFIP2206F) &&
			height < forks.FortCanningHill {
			return fmt.Errorf("futures attributes inactive below height %d", forks.FortCanningHill)
		}
		if k.TypeID == ParamFoundation && k.KeyID == ParamMembers {
			set, ok := v.(StringSetValue)
			if !ok {
				return errors.New("members must be an address set")
			}
			for _, entry := range set {
				addr := strings.TrimPrefix(strings.TrimPrefix(entry, "+"), "-")
				if _, err := common.ScriptFromString(addr); err != nil {
					return fmt.Errorf("invalid member address %q: %w", entry, err)
				}
			}
		}
	case TypeOracles:
		return s.validateSplits(k, v, height)
	case TypeLocks:
		if _, err := s.view.GetToken(common.TokenID(k.KeyID)); err != nil {
			return err
		}
	case TypeEVM, TypeTransferDomain:
		if height < forks.GrandCentral {
			return fmt.Errorf("attribute inactive below height %d", forks.GrandCentral)
		}
	}
	return nil
}

func (s *Store) validateToken(k Key, v Value, height uint32, cfg *config.ChainConfig) error {
	token, err := s.view.GetToken(common.TokenID(k.TypeID))
	if err != nil {
		return err
	}
	switch k.KeyID {
	case TokenLoanCollateralEnabled, TokenLoanCollateralFactor,
		TokenLoanMintingEnabled, TokenLoanMintingInterest:
		if !token.IsDAT() {
			return fmt.Errorf("token %d is not a DAT token", k.TypeID)
		}
	case TokenDFIP2203:
		if height < cfg.Forks.FortCanningHill {
			return fmt.Errorf("futures attributes inactive below height %d", cfg.Forks.FortCanningHill)
		}
	case TokenFixedIntervalPriceID:
		pair, ok := v.(CurrencyPairValue)
		if !ok {
			return errors.New("fixed interval price id must be a currency pair")
		}
		if err := common.CurrencyPair(pair).Validate(); err != nil {
			return err
		}
		// The pair must be served by at least one appointed oracle
		served, err := s.view.OracleServesPair(common.CurrencyPair(pair))
		if err != nil {
			return err
		}
		if !served {
			return fmt.Errorf("no live oracle for pair %s", common.CurrencyPair(pair))
		}
	}
	if k.KeyID == TokenLoanCollateralFactor {
		factor, ok := v.(AmountValue)
		if !ok {
			return errors.New("collateral factor must be a percentage")
		}
		// The factor must stay below every scheme's liquidation threshold
		strictest, err := s.view.StrictestSchemeRatio()
		if err != nil {
			return err
		}
		if strictest > 0 &&
			common.Amount(factor) >= common.Amount(strictest)*common.CENT {
			return fmt.Errorf(
				"collateral factor %s exceeds the minimum collateralization ratio %d%%",
				common.Amount(factor), strictest,
			)
		}
	}
	if k.KeyID == TokenLoanMintingInterest {
		rate, ok := v.(AmountValue)
		if ok && rate < 0 && height < cfg.Forks.GrandCentral {
			return fmt.Errorf("negative interest inactive below height %d", cfg.Forks.GrandCentral)
		}
	}
	return nil
}

func (s *Store) validateSplits(k Key, v Value, height uint32) error {
	if k.TypeID == OracleFlags {
		return nil
	}
	if k.KeyID <= height {
		return fmt.Errorf("split height %d is not in the future", k.KeyID)
	}
	check := func(token common.TokenID) error {
		tok, err := s.view.GetToken(token)
		if err != nil {
			return err
		}
		if !tok.IsDAT() || !tok.IsLoanToken() {
			return fmt.Errorf("token %d is not a splittable loan token", token)
		}
		if tok.IsLPS() {
			return fmt.Errorf("token %d is a pool share token", token)
		}
		return nil
	}
	switch splits := v.(type) {
	case OracleSplitsValue:
		for token := range splits {
			if err := check(token); err != nil {
				return err
			}
		}
	case OracleSplits64Value:
		if !s.GetBool(Key{Type: TypeOracles, TypeID: OracleFlags, KeyID: OracleFractionalEnabled}) {
			return errors.New("fractional splits are not enabled")
		}
		for token := range splits {
			if err := check(token); err != nil {
				return err
			}
		}
	default:
		return errors.New("splits must be a token/multiplier map")
	}
	return nil
}
