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
	"errors"
	"math"

	"github.com/holiman/uint256"
)

// ErrAmountOverflow is returned when fixed-point math leaves the 64-bit range
var ErrAmountOverflow = errors.New("amount overflow")

// SafeAdd adds two amounts, failing on 64-bit overflow
func SafeAdd(a, b Amount) (Amount, error) {
	if b > 0 && a > Amount(math.MaxInt64)-b {
		return 0, ErrAmountOverflow
	}
	if b < 0 && a < Amount(math.MinInt64)-b {
		return 0, ErrAmountOverflow
	}
	return a + b, nil
}

// MulDiv computes a*b/c with a 128-bit intermediate, truncating toward zero.
// All three inputs must be non-negative and c must be non-zero.
func MulDiv(a, b, c Amount) (Amount, error) {
	if a < 0 || b < 0 || c <= 0 {
		return 0, errors.New("muldiv: negative input")
	}
	prod := new(uint256.Int).Mul(
		uint256.NewInt(uint64(a)),
		uint256.NewInt(uint64(b)),
	)
	quot := prod.Div(prod, uint256.NewInt(uint64(c)))
	if !quot.IsUint64() || quot.Uint64() > uint64(math.MaxInt64) {
		return 0, ErrAmountOverflow
	}
	return Amount(quot.Uint64()), nil
}

// MulDivCeil is MulDiv rounding up instead of truncating
func MulDivCeil(a, b, c Amount) (Amount, error) {
	ret, err := MulDiv(a, b, c)
	if err != nil {
		return 0, err
	}
	prod := new(uint256.Int).Mul(
		uint256.NewInt(uint64(a)),
		uint256.NewInt(uint64(b)),
	)
	rem := prod.Mod(prod, uint256.NewInt(uint64(c)))
	if !rem.IsZero() {
		return SafeAdd(ret, 1)
	}
	return ret, nil
}

// Isqrt returns the integer square root of a*b using 128-bit intermediates.
// Used to seed initial pool liquidity.
func Isqrt(a, b Amount) Amount {
	if a <= 0 || b <= 0 {
		return 0
	}
	prod := new(uint256.Int).Mul(
		uint256.NewInt(uint64(a)),
		uint256.NewInt(uint64(b)),
	)
	root := prod.Sqrt(prod)
	if !root.IsUint64() || root.Uint64() > uint64(math.MaxInt64) {
		return Amount(math.MaxInt64)
	}
	return Amount(root.Uint64())
}
