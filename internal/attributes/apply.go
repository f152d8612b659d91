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
	"strings"

	"github.com/blinklabs-io/naiad/internal/common"
	"github.com/blinklabs-io/naiad/internal/config"
	"github.com/blinklabs-io/naiad/internal/state"
)

// Apply performs an attribute's cross-subsystem effects and stores the
// resulting value. Validation is assumed to have passed.
func (s *Store) Apply(k Key, v Value, height uint32, cfg *config.ChainConfig) error {
	switch k.Type {
	case TypeToken:
		if err := s.applyToken(k, v, height, cfg); err != nil {
			return err
		}
	case TypePoolPairs:
		if err := s.applyPoolFee(k, v); err != nil {
			return err
		}
	case TypeParams:
		if k.TypeID == ParamFoundation && k.KeyID == ParamMembers {
			return s.applyMemberDelta(k, v)
		}
	case TypeOracles:
		if k.TypeID == OracleSplits {
			if err := s.applySplitSchedule(k, v, height, cfg); err != nil {
				return err
			}
		}
	case TypeTransferDomain:
		if set, ok := v.(StringSetValue); ok {
			v = set.Normalize()
		}
	}
	return s.Set(k, v)
}

func (s *Store) applyToken(k Key, v Value, height uint32, cfg *config.ChainConfig) error {
	token := common.TokenID(k.TypeID)
	switch k.KeyID {
	case TokenFixedIntervalPriceID:
		pair := common.CurrencyPair(v.(CurrencyPairValue))
		// Ensure the matching oracle record exists; prices populate at the
		// next interval boundary
		if _, err := s.view.GetFixedIntervalPrice(pair); err != nil {
			price := &state.FixedIntervalPrice{
				PriceFeedID: pair,
				Prices:      [2]common.Amount{state.PriceSentinel, state.PriceSentinel},
			}
			if err := s.view.SetFixedIntervalPrice(price); err != nil {
				return err
			}
		}
	case TokenDFIP2203:
		// Disabling futures for a token refunds every queued intent on it
		if enabled, ok := v.(BoolValue); ok && !bool(enabled) {
			if s.GetBool(TokenKey(token, TokenDFIP2203)) {
				if err := s.RefundTokenFutures(func(entry *state.FuturesEntry) bool {
					return entry.Source.Token == token || entry.Destination == token
				}); err != nil {
					return err
				}
			}
		}
	case TokenLoanMintingInterest:
		rate := common.Amount(v.(AmountValue))
		if err := s.recalculateInterest(token, rate, height, cfg); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) applyPoolFee(k Key, v Value) error {
	pool := common.TokenID(k.TypeID)
	pair, err := s.view.GetPoolPair(pool)
	if err != nil {
		return err
	}
	var token common.TokenID
	switch k.KeyID {
	case PoolTokenAFeePCT, PoolTokenAFeeDir:
		token = pair.TokenA
	case PoolTokenBFeePCT, PoolTokenBFeeDir:
		token = pair.TokenB
	default:
		return nil
	}
	fee, err := s.view.GetDexFee(pool, token)
	if err != nil {
		return err
	}
	if fee == nil {
		fee = &state.DexFee{}
	}
	switch val := v.(type) {
	case AmountValue:
		fee.Pct = common.Amount(val)
	case FeeDirValue:
		fee.Dir = uint8(val)
	}
	return s.view.SetDexFee(pool, token, fee)
}

// applyMemberDelta merges a +/- prefixed member delta into the stored full
// set. The stored value is always the resulting set, never the delta.
func (s *Store) applyMemberDelta(k Key, v Value) error {
	delta, ok := v.(StringSetValue)
	if !ok {
		return fmt.Errorf("members delta must be an address set")
	}
	var members StringSetValue
	if existing, found, err := s.Get(k); err != nil {
		return err
	} else if found {
		if set, isSet := existing.(StringSetValue); isSet {
			members = append(members, set...)
		}
	}
	for _, entry := range delta {
		switch {
		case strings.HasPrefix(entry, "-"):
			addr := strings.TrimPrefix(entry, "-")
			out := members[:0]
			for _, m := range members {
				if m != addr {
					out = append(out, m)
				}
			}
			members = out
		case strings.HasPrefix(entry, "+"):
			members = append(members, strings.TrimPrefix(entry, "+"))
		default:
			members = append(members, entry)
		}
	}
	return s.Set(k, members.Normalize())
}

// applySplitSchedule conditionally schedules a token pre-lock half a day
// before the split, or locks immediately when that point has passed.
func (s *Store) applySplitSchedule(k Key, v Value, height uint32, cfg *config.ChainConfig) error {
	splitHeight := k.KeyID
	tokens := make([]common.TokenID, 0)
	switch splits := v.(type) {
	case OracleSplitsValue:
		tokens = append(tokens, sortedSplitTokens(splits)...)
	case OracleSplits64Value:
		tokens = append(tokens, sortedSplit64Tokens(splits)...)
	}
	lockHeight := splitHeight
	if half := cfg.BlocksPerDay / 2; splitHeight > half {
		lockHeight = splitHeight - half
	}
	for _, token := range tokens {
		if lockHeight <= height {
			if err := s.Set(LockKey(token), BoolValue(true)); err != nil {
				return err
			}
			continue
		}
		sched := &state.ScheduledGov{
			Values: map[string]string{
				FormatPath(LockKey(token)): "true",
			},
		}
		if err := s.view.ScheduleGov(lockHeight, sched); err != nil {
			return err
		}
	}
	return nil
}

// RefundTokenFutures moves escrowed sources of matching queued intents back
// to their owners and erases the intents.
func (s *Store) RefundTokenFutures(match func(*state.FuturesEntry) bool) error {
	type refund struct {
		key   state.FuturesUserKey
		entry *state.FuturesEntry
	}
	var refunds []refund
	err := s.view.ForEachFuturesEntry(func(k state.FuturesUserKey, entry *state.FuturesEntry) bool {
		if match(entry) {
			refunds = append(refunds, refund{key: k, entry: entry})
		}
		return true
	})
	if err != nil {
		return err
	}
	for _, r := range refunds {
		if err := s.view.SubBalance(common.FutureSwapContract, r.entry.Source); err != nil {
			return err
		}
		if err := s.view.AddBalance(r.key.Owner, r.entry.Source); err != nil {
			return err
		}
		if err := s.AddEconomyBalance(EconDFIP2203Current, common.TokenAmount{
			Token:  r.entry.Source.Token,
			Amount: -r.entry.Source.Amount,
		}); err != nil {
			return err
		}
		if err := s.view.DeleteFuturesEntry(r.key); err != nil {
			return err
		}
	}
	return nil
}

// recalculateInterest re-seeds the per-block interest of every vault
// borrowing the token after its minting interest changed.
func (s *Store) recalculateInterest(token common.TokenID, tokenRate common.Amount, height uint32, cfg *config.ChainConfig) error {
	type vaultRef struct {
		id     common.VaultID
		scheme string
	}
	var affected []vaultRef
	err := s.view.ForEachVault(func(id common.VaultID, vault *state.Vault) bool {
		affected = append(affected, vaultRef{id: id, scheme: vault.SchemeID})
		return true
	})
	if err != nil {
		return err
	}
	for _, ref := range affected {
		loans, err := s.view.GetVaultLoans(ref.id)
		if err != nil {
			return err
		}
		balance, ok := loans[token]
		if !ok {
			continue
		}
		scheme, err := s.view.GetLoanScheme(ref.scheme)
		if err != nil {
			return err
		}
		row, err := s.view.GetVaultInterest(ref.id, token)
		if err != nil {
			return err
		}
		if row == nil {
			row = &state.VaultInterest{Height: height}
		}
		row.ToHeight = row.TotalInterest(height)
		row.Height = height
		row.PerBlock = common.InterestPerBlock(balance, scheme.Rate+tokenRate, cfg.BlocksPerYear)
		if err := s.view.SetVaultInterest(ref.id, token, row); err != nil {
			return err
		}
	}
	return nil
}
