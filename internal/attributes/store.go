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
	"github.com/blinklabs-io/naiad/internal/config"
	"github.com/blinklabs-io/naiad/internal/state"
)

// Store is the typed governance attribute registry over a state view
type Store struct {
	view *state.View
}

// NewStore creates a store over the given view
func NewStore(view *state.View) *Store {
	return &Store{view: view}
}

// Get returns the typed value under a key
func (s *Store) Get(k Key) (Value, bool, error) {
	raw, err := s.view.GetAttribute(k.stateKey())
	if err != nil || raw == nil {
		return nil, false, err
	}
	val, err := UnmarshalValue(raw)
	if err != nil {
		return nil, false, err
	}
	return val, true, nil
}

// Set stores a typed value under a key
func (s *Store) Set(k Key, v Value) error {
	raw, err := MarshalValue(v)
	if err != nil {
		return err
	}
	return s.view.SetAttribute(k.stateKey(), raw)
}

// Delete removes an attribute
func (s *Store) Delete(k Key) error {
	return s.view.DeleteAttribute(k.stateKey())
}

// ForEach visits all attributes in key order
func (s *Store) ForEach(visitor func(k Key, v Value) bool) error {
	return s.view.ForEachAttribute(func(sk state.AttrKey, raw []byte) bool {
		val, err := UnmarshalValue(raw)
		if err != nil {
			return true
		}
		return visitor(fromStateKey(sk), val)
	})
}

// Convenience key constructors

// TokenKey addresses a token attribute
func TokenKey(id common.TokenID, keyID uint32) Key {
	return Key{Type: TypeToken, TypeID: uint32(id), KeyID: keyID}
}

// PoolKey addresses a poolpairs attribute
func PoolKey(id common.TokenID, keyID uint32) Key {
	return Key{Type: TypePoolPairs, TypeID: uint32(id), KeyID: keyID}
}

// ParamKey addresses a params attribute
func ParamKey(paramID, keyID uint32) Key {
	return Key{Type: TypeParams, TypeID: paramID, KeyID: keyID}
}

// LockKey addresses a token lock flag
func LockKey(id common.TokenID) Key {
	return Key{Type: TypeLocks, TypeID: LocksToken, KeyID: uint32(id)}
}

// EconKey addresses a live economy counter
func EconKey(keyID uint32) Key {
	return Key{Type: TypeLive, TypeID: LiveEconomy, KeyID: keyID}
}

// SplitKey addresses the splits scheduled at a height
func SplitKey(height uint32) Key {
	return Key{Type: TypeOracles, TypeID: OracleSplits, KeyID: height}
}

// GetBool returns a boolean attribute, false when absent
func (s *Store) GetBool(k Key) bool {
	val, ok, err := s.Get(k)
	if err != nil || !ok {
		return false
	}
	b, ok := val.(BoolValue)
	return ok && bool(b)
}

// GetAmount returns an amount attribute or the default
func (s *Store) GetAmount(k Key, def common.Amount) common.Amount {
	val, ok, err := s.Get(k)
	if err != nil || !ok {
		return def
	}
	if a, ok := val.(AmountValue); ok {
		return common.Amount(a)
	}
	return def
}

// GetUint64 returns a numeric attribute or the default
func (s *Store) GetUint64(k Key, def uint64) uint64 {
	val, ok, err := s.Get(k)
	if err != nil || !ok {
		return def
	}
	if n, ok := val.(Uint64Value); ok {
		return uint64(n)
	}
	return def
}

// GetPair returns a currency pair attribute
func (s *Store) GetPair(k Key) (common.CurrencyPair, bool) {
	val, ok, err := s.Get(k)
	if err != nil || !ok {
		return common.CurrencyPair{}, false
	}
	if p, ok := val.(CurrencyPairValue); ok {
		return common.CurrencyPair(p), true
	}
	return common.CurrencyPair{}, false
}

// TokenLocked reports whether a token is currently locked
func (s *Store) TokenLocked(id common.TokenID) bool {
	return s.GetBool(LockKey(id))
}

// AddEconomyBalance folds a token amount into a live economy Balances
// counter. Internal bookkeeping only; never settable from user input.
func (s *Store) AddEconomyBalance(keyID uint32, delta common.TokenAmount) error {
	k := EconKey(keyID)
	val, ok, err := s.Get(k)
	if err != nil {
		return err
	}
	balances := make(BalancesValue)
	if ok {
		if existing, isBalances := val.(BalancesValue); isBalances {
			balances = existing
		}
	}
	// Economy counters clamp at zero rather than failing
	current := common.Balances(balances)[delta.Token]
	sum := current + delta.Amount
	if sum <= 0 {
		delete(balances, delta.Token)
	} else {
		balances[delta.Token] = sum
	}
	return s.Set(k, balances)
}

// AddEconomyAmount folds a plain amount into a live economy counter
func (s *Store) AddEconomyAmount(keyID uint32, delta common.Amount) error {
	k := EconKey(keyID)
	current := s.GetAmount(k, 0)
	sum, err := common.SafeAdd(current, delta)
	if err != nil {
		return err
	}
	if sum < 0 {
		sum = 0
	}
	return s.Set(k, AmountValue(sum))
}

// ExportFilter selects which attributes Export includes
type ExportFilter uint8

const (
	// ExportAll includes everything
	ExportAll ExportFilter = iota
	// ExportNoLive hides live/* bookkeeping
	ExportNoLive
	// ExportLegacy suppresses keys unknown to the pre-2.7 RPC shape
	ExportLegacy
)

// Export renders the store as a path -> value string map
func (s *Store) Export(filter ExportFilter) (map[string]string, error) {
	ret := make(map[string]string)
	err := s.ForEach(func(k Key, v Value) bool {
		if filter != ExportAll && k.Type == TypeLive {
			return true
		}
		if filter == ExportLegacy {
			switch k.Type {
			case TypeEVM, TypeTransferDomain, TypeVaults, TypeRules:
				return true
			}
		}
		// Split refs are internal; exported under their own keys
		ret[FormatPath(k)] = RenderValue(k, v)
		return true
	})
	if err != nil {
		return nil, err
	}
	return ret, nil
}

// Import parses, validates and applies a path -> value map against the
// current state. The entire map is rejected on the first failure; callers
// run imports inside an overlay.
func (s *Store) Import(values map[string]string, height uint32, cfg *config.ChainConfig) error {
	// Deterministic application order
	paths := make([]string, 0, len(values))
	for path := range values {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	for _, path := range paths {
		key, err := ParsePath(path)
		if err != nil {
			return err
		}
		val, err := ParseValue(key, values[path])
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		if err := s.Validate(key, val, height, cfg); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		if err := s.Apply(key, val, height, cfg); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
	}
	return nil
}
