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

package common_test

import (
	"testing"

	"github.com/blinklabs-io/naiad/internal/common"
)

const blocksPerYear = 1051200

func TestInterestPerBlockPrecision(t *testing.T) {
	// 50 tokens at 5% annual: per-block interest is far below one satoshi
	// and must not truncate to zero
	perBlock := common.InterestPerBlock(
		50*common.COIN,
		5*common.COIN/100,
		blocksPerYear,
	)
	if perBlock.IsZero() {
		t.Fatal("per-block interest truncated to zero")
	}
	if perBlock.Negative {
		t.Error("positive rate must not produce negative interest")
	}
}

func TestInterestLinearAccrual(t *testing.T) {
	perBlock := common.InterestPerBlock(100*common.COIN, common.COIN/100, blocksPerYear)
	// Accrual over h2-h1 blocks equals (h2-h1) * perBlock
	tenBlocks := perBlock.MulBlocks(10)
	sum := common.InterestAmount{}
	for i := 0; i < 10; i++ {
		sum = sum.Add(perBlock)
	}
	if sum.Magnitude.Cmp(&tenBlocks.Magnitude) != 0 {
		t.Errorf(
			"repeated addition %s differs from MulBlocks %s",
			sum, tenBlocks,
		)
	}
}

func TestInterestToSatoshisCeil(t *testing.T) {
	// Any positive fraction of a satoshi charges a full satoshi
	perBlock := common.InterestPerBlock(1, common.COIN, blocksPerYear)
	sats, err := perBlock.ToSatoshisCeil()
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if sats != 1 {
		t.Errorf("expected ceil to 1 satoshi, got %d", sats)
	}
}

func TestInterestNegativeTruncates(t *testing.T) {
	neg := common.InterestPerBlock(1, -common.COIN, blocksPerYear)
	if !neg.Negative {
		t.Fatal("expected negative interest")
	}
	sats, err := neg.ToSatoshisCeil()
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	// Negative interest rounds toward zero, never over-credits
	if sats != 0 {
		t.Errorf("expected truncation to 0, got %d", sats)
	}
}

func TestInterestAddSignHandling(t *testing.T) {
	pos := common.InterestFromAmount(100)
	neg := common.InterestFromAmount(-40)
	sum := pos.Add(neg)
	sats, err := sum.ToSatoshisCeil()
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if sats != 60 {
		t.Errorf("100 + (-40) = %d, expected 60", sats)
	}
	flipped := neg.Add(pos)
	if flipped.Negative {
		t.Error("sum should be positive regardless of operand order")
	}
}

func TestInterestCBORRoundTrip(t *testing.T) {
	orig := common.InterestPerBlock(123*common.COIN, 7*common.COIN/100, blocksPerYear)
	raw, err := orig.MarshalCBOR()
	if err != nil {
		t.Fatalf("marshal failed: %s", err)
	}
	var decoded common.InterestAmount
	if err := decoded.UnmarshalCBOR(raw); err != nil {
		t.Fatalf("unmarshal failed: %s", err)
	}
	if decoded.Negative != orig.Negative ||
		decoded.Magnitude.Cmp(&orig.Magnitude) != 0 {
		t.Errorf("round trip mismatch: %s != %s", decoded, orig)
	}
}
