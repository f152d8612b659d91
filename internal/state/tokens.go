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
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/blinklabs-io/naiad/internal/common"
)

// Token flag bits
const (
	TokenFlagDAT uint8 = 1 << iota
	TokenFlagLPS
	TokenFlagMintable
	TokenFlagTradeable
	TokenFlagFinalized
	TokenFlagLoanToken
)

// Token is the on-chain token registry entry
type Token struct {
	Symbol            string
	Name              string
	CreationTx        common.TxID
	CreationHeight    uint32
	DestructionTx     common.TxID
	DestructionHeight uint32
	Flags             uint8
	Minted            common.Amount
}

// IsDAT reports the decentralized-asset flag
func (t *Token) IsDAT() bool { return t.Flags&TokenFlagDAT != 0 }

// IsLPS reports whether the token is a pool LP-share token
func (t *Token) IsLPS() bool { return t.Flags&TokenFlagLPS != 0 }

// IsMintable reports whether the token can be minted
func (t *Token) IsMintable() bool { return t.Flags&TokenFlagMintable != 0 }

// IsTradeable reports whether the token can be traded
func (t *Token) IsTradeable() bool { return t.Flags&TokenFlagTradeable != 0 }

// IsFinalized reports whether the token metadata is frozen
func (t *Token) IsFinalized() bool { return t.Flags&TokenFlagFinalized != 0 }

// IsLoanToken reports whether the token can be borrowed against vaults
func (t *Token) IsLoanToken() bool { return t.Flags&TokenFlagLoanToken != 0 }

// IsDestroyed reports whether the token has been destroyed (e.g. by a split)
func (t *Token) IsDestroyed() bool { return t.DestructionHeight > 0 }

const lastTokenIDMeta = "last_token_id"

// CreateToken registers a new token and returns its ID. User-created tokens
// get IDs starting at DctIDStart; the native coin is fixed at ID 0.
func (v *View) CreateToken(token *Token) (common.TokenID, error) {
	if len(token.Symbol) == 0 || len(token.Symbol) > common.MaxSymbolLength+3 {
		return 0, fmt.Errorf("invalid token symbol: %q", token.Symbol)
	}
	if existing, _ := v.GetTokenBySymbol(token.Symbol); existing != nil {
		return 0, fmt.Errorf("token %q already exists", token.Symbol)
	}
	var lastID uint32
	if _, err := v.getRecord(metaKey(lastTokenIDMeta), &lastID); err != nil {
		return 0, err
	}
	id := common.TokenID(lastID) + 1
	if id < common.DctIDStart {
		id = common.DctIDStart
	}
	if err := v.putRecord(metaKey(lastTokenIDMeta), uint32(id)); err != nil {
		return 0, err
	}
	if err := v.putRecord(tokenKey(id), token); err != nil {
		return 0, err
	}
	if err := v.putRecord(tokenSymbolKey(token.Symbol), uint32(id)); err != nil {
		return 0, err
	}
	return id, nil
}

// SetToken overwrites a token record in place
func (v *View) SetToken(id common.TokenID, token *Token) error {
	return v.putRecord(tokenKey(id), token)
}

// GetToken returns a token by ID
func (v *View) GetToken(id common.TokenID) (*Token, error) {
	var token Token
	ok, err := v.getRecord(tokenKey(id), &token)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("token %d: %w", id, common.ErrNotFound)
	}
	return &token, nil
}

// GetTokenBySymbol returns a token by its symbol
func (v *View) GetTokenBySymbol(symbol string) (*Token, common.TokenID) {
	var id uint32
	ok, err := v.getRecord(tokenSymbolKey(symbol), &id)
	if err != nil || !ok {
		return nil, 0
	}
	token, err := v.GetToken(common.TokenID(id))
	if err != nil {
		return nil, 0
	}
	return token, common.TokenID(id)
}

// EraseTokenSymbol drops a symbol index row (used when a split renames the
// destroyed predecessor)
func (v *View) EraseTokenSymbol(symbol string) error {
	return v.kv.Delete(tokenSymbolKey(symbol))
}

// SetTokenSymbol writes a symbol index row
func (v *View) SetTokenSymbol(symbol string, id common.TokenID) error {
	return v.putRecord(tokenSymbolKey(symbol), uint32(id))
}

// ForEachToken visits all tokens in ascending ID order
func (v *View) ForEachToken(visitor func(id common.TokenID, token *Token) bool) error {
	return v.kv.ForEach([]byte{prefixToken}, func(key, value []byte) bool {
		if len(key) != 5 {
			return true
		}
		id := common.TokenID(binary.BigEndian.Uint32(key[1:]))
		var token Token
		if err := decodeRecord(value, &token); err != nil {
			return true
		}
		return visitor(id, &token)
	})
}

// AddMintedAmount adjusts a token's minted supply
func (v *View) AddMintedAmount(id common.TokenID, delta common.Amount) error {
	token, err := v.GetToken(id)
	if err != nil {
		return err
	}
	minted, err := common.SafeAdd(token.Minted, delta)
	if err != nil {
		return err
	}
	if minted < 0 {
		minted = 0
	}
	token.Minted = minted
	return v.SetToken(id, token)
}

// NextSplitSymbol derives the successor symbol for a token split: the base
// symbol keeps its name, the destroyed predecessor gets a /vN suffix one
// higher than any existing successor version.
func NextSplitSymbol(symbol string, highestVersion int) string {
	base := symbol
	if idx := strings.Index(base, "/v"); idx >= 0 {
		base = base[:idx]
	}
	return fmt.Sprintf("%s/v%d", base, highestVersion+1)
}
