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
	"errors"
	"fmt"

	"github.com/blinklabs-io/naiad/internal/storage"

	"github.com/fxamacker/cbor/v2"
)

// Deterministic encoding for all stored records; consensus iterates and
// hashes stored bytes, so map key order must be stable.
var encMode cbor.EncMode

func init() {
	var err error
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("failed to create CBOR encoder: %s", err))
	}
}

// View is the typed record layer over a KvStore. All components read and
// write chain state through a View; the block pipeline wraps the base store
// in an overlay and hands out a View over it.
type View struct {
	kv storage.KvStore
}

// NewView creates a view over the given store
func NewView(kv storage.KvStore) *View {
	return &View{kv: kv}
}

// KV exposes the underlying store (used by the pipeline for overlay
// management and undo construction)
func (v *View) KV() storage.KvStore {
	return v.kv
}

// Child opens a nested overlay view. Changes are invisible to the parent
// until the returned overlay is flushed.
func (v *View) Child() (*View, *storage.Overlay) {
	overlay := storage.NewOverlay(v.kv)
	return NewView(overlay), overlay
}

func (v *View) getRecord(key []byte, out any) (bool, error) {
	raw, err := v.kv.Get(key)
	if err != nil {
		if errors.Is(err, storage.ErrKeyNotFound) {
			return false, nil
		}
		return false, err
	}
	if err := cbor.Unmarshal(raw, out); err != nil {
		return false, fmt.Errorf("failed to unmarshal record: %w", err)
	}
	return true, nil
}

func decodeRecord(raw []byte, out any) error {
	return cbor.Unmarshal(raw, out)
}

func (v *View) putRecord(key []byte, in any) error {
	raw, err := encMode.Marshal(in)
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}
	return v.kv.Put(key, raw)
}
