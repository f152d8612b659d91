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
	"fmt"
	"math"
	"strings"

	"github.com/fxamacker/cbor/v2"
	"github.com/holiman/uint256"
)

// highPrecisionScale extends Amount's 8 decimal places to 24 for interest
// values; per-block interest on small loans would otherwise truncate to zero.
var highPrecisionScale = uint256.NewInt(10_000_000_000_000_000) // 10^16

// InterestAmount is a signed 128-bit fixed-point value with 24 decimal
// places, used for per-block interest accrual.
type InterestAmount struct {
	Negative  bool
	Magnitude uint256.Int
}

type interestAmountWire struct {
	_         struct{} `cbor:",toarray"`
	Negative  bool
	Magnitude []byte
}

// MarshalCBOR encodes the value as [negative, magnitudeBytes]
func (i InterestAmount) MarshalCBOR() ([]byte, error) {
	return cbor.Marshal(interestAmountWire{
		Negative:  i.Negative,
		Magnitude: i.Magnitude.Bytes(),
	})
}

// UnmarshalCBOR decodes the value from [negative, magnitudeBytes]
func (i *InterestAmount) UnmarshalCBOR(data []byte) error {
	var tmp interestAmountWire
	if err := cbor.Unmarshal(data, &tmp); err != nil {
		return err
	}
	i.Negative = tmp.Negative
	i.Magnitude.SetBytes(tmp.Magnitude)
	if i.Magnitude.IsZero() {
		i.Negative = false
	}
	return nil
}

// IsZero reports whether the value is zero
func (i InterestAmount) IsZero() bool {
	return i.Magnitude.IsZero()
}

// Neg returns the value with its sign flipped
func (i InterestAmount) Neg() InterestAmount {
	ret := i
	if !ret.Magnitude.IsZero() {
		ret.Negative = !ret.Negative
	}
	return ret
}

// Add returns i + other, sign-aware
func (i InterestAmount) Add(other InterestAmount) InterestAmount {
	var ret InterestAmount
	if i.Negative == other.Negative {
		ret.Negative = i.Negative
		ret.Magnitude.Add(&i.Magnitude, &other.Magnitude)
	} else if i.Magnitude.Cmp(&other.Magnitude) >= 0 {
		ret.Negative = i.Negative
		ret.Magnitude.Sub(&i.Magnitude, &other.Magnitude)
	} else {
		ret.Negative = other.Negative
		ret.Magnitude.Sub(&other.Magnitude, &i.Magnitude)
	}
	if ret.Magnitude.IsZero() {
		ret.Negative = false
	}
	return ret
}

// Sub returns i - other
func (i InterestAmount) Sub(other InterestAmount) InterestAmount {
	return i.Add(other.Neg())
}

// MulBlocks returns i * blocks
func (i InterestAmount) MulBlocks(blocks uint32) InterestAmount {
	ret := InterestAmount{Negative: i.Negative}
	ret.Magnitude.Mul(&i.Magnitude, uint256.NewInt(uint64(blocks)))
	if ret.Magnitude.IsZero() {
		ret.Negative = false
	}
	return ret
}

// InterestPerBlock derives the per-block interest on a loan balance from a
// COIN-scaled annual rate. The result keeps the full 24-decimal precision.
func InterestPerBlock(balance Amount, annualRate Amount, blocksPerYear uint32) InterestAmount {
	ret := InterestAmount{Negative: annualRate < 0}
	if balance <= 0 || annualRate == 0 || blocksPerYear == 0 {
		return InterestAmount{}
	}
	rate := annualRate
	if rate < 0 {
		rate = -rate
	}
	// balance and rate are both COIN-scaled; multiplying by 10^8 rather
	// than highPrecisionScale folds in the /COIN from the rate.
	ret.Magnitude.Mul(
		uint256.NewInt(uint64(balance)),
		uint256.NewInt(uint64(rate)),
	)
	ret.Magnitude.Mul(&ret.Magnitude, uint256.NewInt(100_000_000))
	ret.Magnitude.Div(&ret.Magnitude, uint256.NewInt(uint64(blocksPerYear)))
	if ret.Magnitude.IsZero() {
		ret.Negative = false
	}
	return ret
}

// ToSatoshisCeil converts the value to Amount precision. Positive interest
// rounds up so that any accrued fraction is charged; negative interest rounds
// toward zero so that it is never over-credited.
func (i InterestAmount) ToSatoshisCeil() (Amount, error) {
	quot := new(uint256.Int).Div(&i.Magnitude, highPrecisionScale)
	if !i.Negative {
		rem := new(uint256.Int).Mod(&i.Magnitude, highPrecisionScale)
		if !rem.IsZero() {
			quot.AddUint64(quot, 1)
		}
	}
	if !quot.IsUint64() || quot.Uint64() > uint64(math.MaxInt64) {
		return 0, ErrAmountOverflow
	}
	ret := Amount(quot.Uint64())
	if i.Negative {
		ret = -ret
	}
	return ret, nil
}

// ScaleMultiplier applies a token-split multiplier: amount*m when m > 0,
// amount/|m| otherwise.
func (i InterestAmount) ScaleMultiplier(multiplier int32) InterestAmount {
	ret := InterestAmount{Negative: i.Negative}
	if multiplier > 0 {
		ret.Magnitude.Mul(&i.Magnitude, uint256.NewInt(uint64(multiplier)))
	} else if multiplier < 0 {
		ret.Magnitude.Div(&i.Magnitude, uint256.NewInt(uint64(-multiplier)))
	}
	if ret.Magnitude.IsZero() {
		ret.Negative = false
	}
	return ret
}

// String renders the value with up to 24 decimal places
func (i InterestAmount) String() string {
	scale := new(uint256.Int).Mul(
		uint256.NewInt(uint64(COIN)),
		highPrecisionScale,
	)
	whole := new(uint256.Int).Div(&i.Magnitude, scale)
	frac := new(uint256.Int).Mod(&i.Magnitude, scale)
	sign := ""
	if i.Negative {
		sign = "-"
	}
	fracStr := fmt.Sprintf("%024s", frac.Dec())
	fracStr = strings.TrimRight(fracStr, "0")
	if fracStr == "" {
		return fmt.Sprintf("%s%s", sign, whole.Dec())
	}
	return fmt.Sprintf("%s%s.%s", sign, whole.Dec(), fracStr)
}

// InterestFromAmount lifts a COIN-scaled amount into interest precision
func InterestFromAmount(a Amount) InterestAmount {
	ret := InterestAmount{Negative: a < 0}
	v := a
	if v < 0 {
		v = -v
	}
	ret.Magnitude.Mul(uint256.NewInt(uint64(v)), highPrecisionScale)
	if ret.Magnitude.IsZero() {
		ret.Negative = false
	}
	return ret
}
