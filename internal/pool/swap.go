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

package pool

import (
	"fmt"

	"github.com/blinklabs-io/naiad/internal/common"
	"github.com/blinklabs-io/naiad/internal/state"
)

// Engine drives the constant-product AMM pools
type Engine struct {
	view *state.View
}

// New creates a pool engine over a view
func New(view *state.View) *Engine {
	return &Engine{view: view}
}

// MaxPrice bounds the effective in/out price of a swap; Integer and
// Fraction are the COIN-scaled whole and fractional parts.
type MaxPrice struct {
	Integer  common.Amount
	Fraction common.Amount
}

// Swap routes an input amount through one or more pools and credits the
// final output to the recipient. The price bound applies to the overall
// in-to-out rate after commissions.
func (e *Engine) Swap(from, to common.Script, in common.TokenAmount, path []common.TokenID, maxPrice MaxPrice) (common.TokenAmount, error) {
	if in.Amount <= 0 {
		return common.TokenAmount{}, fmt.Errorf("swap input must be positive")
	}
	if len(path) == 0 {
		return common.TokenAmount{}, fmt.Errorf("swap path is empty")
	}
	if err := e.view.SubBalance(from, in); err != nil {
		return common.TokenAmount{}, err
	}
	current := in
	for _, poolID := range path {
		out, err := e.swapOne(poolID, current)
		if err != nil {
			return common.TokenAmount{}, err
		}
		current = out
	}
	// The overall bound is checked once against the final output
	limit, err := common.MulDiv(maxPrice.Integer*common.COIN+maxPrice.Fraction, current.Amount, common.COIN)
	if err != nil {
		return common.TokenAmount{}, err
	}
	if in.Amount > limit {
		return common.TokenAmount{}, fmt.Errorf(
			"price is higher than indicated: %s in for %s out", in, current,
		)
	}
	if err := e.view.AddBalance(to, current); err != nil {
		return common.TokenAmount{}, err
	}
	return current, nil
}

// swapOne applies the constant-product formula for a single pool hop
func (e *Engine) swapOne(poolID common.TokenID, in common.TokenAmount) (common.TokenAmount, error) {
	pool, err := e.view.GetPoolPair(poolID)
	if err != nil {
		return common.TokenAmount{}, err
	}
	if !pool.Status {
		return common.TokenAmount{}, fmt.Errorf("pool %d is not active for swaps", poolID)
	}
	lpToken, err := e.view.GetToken(poolID)
	if err != nil {
		return common.TokenAmount{}, err
	}
	if lpToken.IsDestroyed() {
		return common.TokenAmount{}, fmt.Errorf("pool %d pair token is destroyed", poolID)
	}
	forward := in.Token == pool.TokenA
	if !forward && in.Token != pool.TokenB {
		return common.TokenAmount{}, fmt.Errorf(
			"token %d does not belong to pool %d", in.Token, poolID,
		)
	}
	amount := in.Amount

	// Commission comes off the input before it touches the reserves
	if pool.Commission > 0 {
		commission, err := common.MulDiv(amount, pool.Commission, common.COIN)
		if err != nil {
			return common.TokenAmount{}, err
		}
		if forward {
			pool.BlockCommissionA += commission
		} else {
			pool.BlockCommissionB += commission
		}
		amount -= commission
	}
	// Governance DEX input fee is burned
	amount, err = e.applyDexFee(poolID, in.Token, amount, state.DexFeeDirIn)
	if err != nil {
		return common.TokenAmount{}, err
	}

	reserveIn, reserveOut := pool.ReserveA, pool.ReserveB
	outToken := pool.TokenB
	if !forward {
		reserveIn, reserveOut = pool.ReserveB, pool.ReserveA
		outToken = pool.TokenA
	}
	if reserveIn <= 0 || reserveOut <= 0 {
		return common.TokenAmount{}, fmt.Errorf("pool %d has no liquidity", poolID)
	}
	reserveInAfter, err := common.SafeAdd(reserveIn, amount)
	if err != nil {
		return common.TokenAmount{}, err
	}
	// Rounding up keeps the constant product from ever decreasing
	kept, err := common.MulDivCeil(reserveIn, reserveOut, reserveInAfter)
	if err != nil {
		return common.TokenAmount{}, err
	}
	out := reserveOut - kept
	if out < 0 || out > reserveOut-1 {
		return common.TokenAmount{}, fmt.Errorf("pool %d lacks reserves for swap", poolID)
	}

	if forward {
		pool.ReserveA = reserveInAfter
		pool.ReserveB = reserveOut - out
	} else {
		pool.ReserveB = reserveInAfter
		pool.ReserveA = reserveOut - out
	}
	if err := e.view.SetPoolPair(poolID, pool); err != nil {
		return common.TokenAmount{}, err
	}
	// Governance DEX output fee is burned
	out, err = e.applyDexFee(poolID, outToken, out, state.DexFeeDirOut)
	if err != nil {
		return common.TokenAmount{}, err
	}
	return common.TokenAmount{Token: outToken, Amount: out}, nil
}

func (e *Engine) applyDexFee(poolID, token common.TokenID, amount common.Amount, dir uint8) (common.Amount, error) {
	fee, err := e.view.GetDexFee(poolID, token)
	if err != nil || fee == nil || fee.Pct == 0 {
		return amount, err
	}
	if fee.Dir != state.DexFeeDirBoth && fee.Dir != dir {
		return amount, nil
	}
	cut, err := common.MulDiv(amount, fee.Pct, common.COIN)
	if err != nil {
		return 0, err
	}
	if cut > 0 {
		if err := e.view.AddBalance(common.BurnAddress, common.TokenAmount{Token: token, Amount: cut}); err != nil {
			return 0, err
		}
	}
	return amount - cut, nil
}
