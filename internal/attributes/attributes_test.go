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

package attributes_test

import (
	"testing"

	"github.com/blinklabs-io/naiad/internal/attributes"
	"github.com/blinklabs-io/naiad/internal/common"
	"github.com/blinklabs-io/naiad/internal/config"
	"github.com/blinklabs-io/naiad/internal/state"
	"github.com/blinklabs-io/naiad/internal/storage"
)

func testChainConfig() *config.ChainConfig {
	return &config.ChainConfig{
		BlocksPerDay:  2880,
		BlocksPerYear: 1051200,
		Forks: config.ForkHeights{
			Dakota:          10,
			Eunos:           20,
			FortCanning:     30,
			FortCanningHill: 40,
			GrandCentral:    50,
		},
	}
}

func newTestStore() (*attributes.Store, *state.View) {
	view := state.NewView(storage.NewMemStore())
	return attributes.NewStore(view), view
}

func TestPathRoundTrip(t *testing.T) {
	paths := []string{
		"v0/token/5/loan_minting_interest",
		"v0/token/5/dfip2203",
		"v0/token/5/fixed_interval_price_id",
		"v0/poolpairs/200/token_a_fee_pct",
		"v0/params/dfip2203/active",
		"v0/params/foundation/members",
		"v0/oracles/splits/1000",
		"v0/oracles/splits/fractional_enabled",
		"v0/locks/token/5",
		"v0/live/economy/dfip2203_burned",
		"v0/transferdomain/dvm-evm/enabled",
		"v0/vaults/params/liquidation_penalty",
		"v0/rules/tx/core_op_return_max_size_bytes",
		"v0/gov/proposals/fee_redistribution",
		"v0/evm/block/gas_limit",
	}
	for _, path := range paths {
		key, err := attributes.ParsePath(path)
		if err != nil {
			t.Fatalf("ParsePath(%q) failed: %s", path, err)
		}
		if got := attributes.FormatPath(key); got != path {
			t.Errorf("round trip %q -> %q", path, got)
		}
	}
}

func TestParsePathRejectsUnknown(t *testing.T) {
	for _, path := range []string{
		"v1/token/5/dfip2203",
		"v0/bogus/5/dfip2203",
		"v0/token/5/bogus",
		"v0/token/x/dfip2203",
	} {
		if _, err := attributes.ParsePath(path); err == nil {
			t.Errorf("ParsePath(%q) should fail", path)
		}
	}
}

func TestParseValueBool(t *testing.T) {
	key, _ := attributes.ParsePath("v0/params/dfip2203/active")
	val, err := attributes.ParseValue(key, "true")
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if b, ok := val.(attributes.BoolValue); !ok || !bool(b) {
		t.Errorf("expected BoolValue(true), got %#v", val)
	}
	if _, err := attributes.ParseValue(key, "yes"); err == nil {
		t.Error("non-canonical boolean should be rejected")
	}
}

func TestParseValuePercentage(t *testing.T) {
	key, _ := attributes.ParsePath("v0/poolpairs/200/token_a_fee_pct")
	val, err := attributes.ParseValue(key, "0.05")
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if a, ok := val.(attributes.AmountValue); !ok || common.Amount(a) != 5*common.CENT {
		t.Errorf("expected 0.05, got %#v", val)
	}
	// Percent-suffixed form scales down
	val, err = attributes.ParseValue(key, "5%")
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if a, ok := val.(attributes.AmountValue); !ok || common.Amount(a) != 5*common.CENT {
		t.Errorf("expected 5%% = 0.05, got %#v", val)
	}
	if _, err := attributes.ParseValue(key, "1.5"); err == nil {
		t.Error("percentage above 1 should be rejected")
	}
}

func TestParseValueSplits(t *testing.T) {
	key, _ := attributes.ParsePath("v0/oracles/splits/1000")
	val, err := attributes.ParseValue(key, "5/2,6/-3")
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	splits, ok := val.(attributes.OracleSplitsValue)
	if !ok {
		t.Fatalf("expected integer splits, got %#v", val)
	}
	if splits[5] != 2 || splits[6] != -3 {
		t.Errorf("unexpected split values: %v", splits)
	}
	if _, err := attributes.ParseValue(key, "5/1"); err == nil {
		t.Error("multiplier 1 should be rejected")
	}
}

func TestValueCBORRoundTrip(t *testing.T) {
	values := []attributes.Value{
		attributes.BoolValue(true),
		attributes.AmountValue(42 * common.COIN),
		attributes.Uint64Value(2880),
		attributes.CurrencyPairValue{Token: "TSLA", Currency: "USD"},
		attributes.OracleSplitsValue{5: 2},
		attributes.StringSetValue{"aa", "bb"},
		attributes.RefValue{Token: 5, Tag: "split"},
	}
	for _, val := range values {
		raw, err := attributes.MarshalValue(val)
		if err != nil {
			t.Fatalf("marshal %#v failed: %s", val, err)
		}
		if _, err := attributes.UnmarshalValue(raw); err != nil {
			t.Fatalf("unmarshal %#v failed: %s", val, err)
		}
	}
}

func TestFoundationMemberDelta(t *testing.T) {
	store, _ := newTestStore()
	cfg := testChainConfig()
	key := attributes.ParamKey(attributes.ParamFoundation, attributes.ParamMembers)
	// Seed the existing member set
	addrB := common.Script("bbbb").String()
	addrC := common.Script("cccc").String()
	if err := store.Set(key, attributes.StringSetValue{addrB, addrC}.Normalize()); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	// Apply an additive/removal delta
	addrA := common.Script("aaaa").String()
	delta := attributes.StringSetValue{"+" + addrA, "-" + addrB}
	if err := store.Apply(key, delta, 100, cfg); err != nil {
		t.Fatalf("apply failed: %s", err)
	}
	val, ok, err := store.Get(key)
	if err != nil || !ok {
		t.Fatalf("missing members attribute: %v", err)
	}
	members := val.(attributes.StringSetValue)
	if len(members) != 2 || !members.Contains(addrA) || !members.Contains(addrC) {
		t.Errorf("unexpected member set: %v", members)
	}
	if members.Contains(addrB) {
		t.Error("removed member still present")
	}
}

func TestImportRejectsLive(t *testing.T) {
	store, _ := newTestStore()
	cfg := testChainConfig()
	err := store.Import(map[string]string{
		"v0/live/economy/dfip2203_burned": "1",
	}, 100, cfg)
	if err == nil {
		t.Error("live attribute import should be rejected")
	}
}

func TestImportExportRoundTrip(t *testing.T) {
	store, view := newTestStore()
	cfg := testChainConfig()
	// Register referenced entities
	if _, err := view.CreateToken(&state.Token{
		Symbol: "TSLA",
		Name:   "Tesla",
		Flags:  state.TokenFlagDAT | state.TokenFlagLoanToken,
	}); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	values := map[string]string{
		"v0/params/dfip2203/active":       "true",
		"v0/params/dfip2203/reward_pct":   "0.05000000",
		"v0/params/dfip2203/block_period": "20",
		"v0/token/128/dfip2203":           "true",
	}
	if err := store.Import(values, 100, cfg); err != nil {
		t.Fatalf("import failed: %s", err)
	}
	export, err := store.Export(attributes.ExportNoLive)
	if err != nil {
		t.Fatalf("export failed: %s", err)
	}
	for path, expected := range values {
		if export[path] != expected {
			t.Errorf("export[%s] = %q, expected %q", path, export[path], expected)
		}
	}
}

func TestApplyPoolFeeWritesDexRow(t *testing.T) {
	store, view := newTestStore()
	cfg := testChainConfig()
	for _, symbol := range []string{"GOLD", "SILVER"} {
		if _, err := view.CreateToken(&state.Token{Symbol: symbol, Name: symbol}); err != nil {
			t.Fatalf("unexpected error: %s", err)
		}
	}
	poolID, err := view.CreateToken(&state.Token{
		Symbol: "GOLD-SIL",
		Name:   "lp",
		Flags:  state.TokenFlagLPS,
	})
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if err := view.SetPoolPair(poolID, &state.PoolPair{
		TokenA: common.DctIDStart,
		TokenB: common.DctIDStart + 1,
	}); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	key := attributes.PoolKey(poolID, attributes.PoolTokenAFeePCT)
	if err := store.Apply(key, attributes.AmountValue(common.CENT), 100, cfg); err != nil {
		t.Fatalf("apply failed: %s", err)
	}
	fee, err := view.GetDexFee(poolID, common.DctIDStart)
	if err != nil || fee == nil {
		t.Fatalf("missing DEX fee row: %v", err)
	}
	if fee.Pct != common.CENT {
		t.Errorf("fee pct %s, expected 0.01", fee.Pct)
	}
}
