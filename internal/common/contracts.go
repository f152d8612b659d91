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

// Well-known internal account scripts. These are unspendable identifiers for
// system escrows; funds held under them are only moved by consensus code.
var (
	// FutureSwapContract escrows token futures intents
	FutureSwapContract = Script("smart_contract_futures")
	// DUSDSwapContract escrows native-coin futures intents
	DUSDSwapContract = Script("smart_contract_futures_dusd")
	// AuctionEscrowContract escrows the highest auction bids
	AuctionEscrowContract = Script("smart_contract_auction")
	// ICXEscrowContract escrows open cross-chain order amounts
	ICXEscrowContract = Script("smart_contract_icx")
	// BurnAddress collects burned funds; balance closure treats it as out
	// of circulation
	BurnAddress = Script("consensus_burn_address")
)
