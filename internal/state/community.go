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

package state

import (
	"github.com/blinklabs-io/naiad/internal/common"
)

// CommunityAccount names a community balance bucket funded by the block
// subsidy table.
type CommunityAccount byte

const (
	// CommunityIncentiveFunding pays base pool rewards
	CommunityIncentiveFunding CommunityAccount = iota + 1
	// CommunityLoan pays loan-pool rewards (rewardPct split)
	CommunityLoan
	// CommunityOptions is reserved future funding
	CommunityOptions
	// CommunityUnallocated accumulates undistributed subsidy
	CommunityUnallocated
)

// GetCommunityBalance returns a community bucket's balance
func (v *View) GetCommunityBalance(account CommunityAccount) (common.Amount, error) {
	var amount common.Amount
	if _, err := v.getRecord(communityKey(account), &amount); err != nil {
		return 0, err
	}
	return amount, nil
}

// SetCommunityBalance writes a community bucket's balance
func (v *View) SetCommunityBalance(account CommunityAccount, amount common.Amount) error {
	if amount <= 0 {
		return v.kv.Delete(communityKey(account))
	}
	return v.putRecord(communityKey(account), amount)
}

// AddCommunityBalance adjusts a community bucket. The balance never goes
// negative; shortfalls are clamped by the caller.
func (v *View) AddCommunityBalance(account CommunityAccount, delta common.Amount) error {
	current, err := v.GetCommunityBalance(account)
	if err != nil {
		return err
	}
	sum, err := common.SafeAdd(current, delta)
	if err != nil {
		return err
	}
	if sum < 0 {
		return common.ErrInsufficientFunds
	}
	return v.SetCommunityBalance(account, sum)
}
