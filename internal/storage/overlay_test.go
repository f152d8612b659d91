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

package storage_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/blinklabs-io/naiad/internal/storage"
)

func TestOverlayShadowsParent(t *testing.T) {
	parent := storage.NewMemStore()
	if err := parent.Put([]byte("a1"), []byte("old")); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	overlay := storage.NewOverlay(parent)
	if err := overlay.Put([]byte("a1"), []byte("new")); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	got, err := overlay.Get([]byte("a1"))
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if string(got) != "new" {
		t.Errorf("overlay read %q, expected %q", got, "new")
	}
	// Parent is untouched until flush
	got, err = parent.Get([]byte("a1"))
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if string(got) != "old" {
		t.Errorf("parent read %q, expected %q", got, "old")
	}
}

func TestOverlayTombstone(t *testing.T) {
	parent := storage.NewMemStore()
	if err := parent.Put([]byte("a1"), []byte("v")); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	overlay := storage.NewOverlay(parent)
	if err := overlay.Delete([]byte("a1")); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if _, err := overlay.Get([]byte("a1")); !errors.Is(err, storage.ErrKeyNotFound) {
		t.Errorf("expected ErrKeyNotFound, got %v", err)
	}
}

func TestOverlayMergedIteration(t *testing.T) {
	parent := storage.NewMemStore()
	for _, key := range []string{"p1", "p3", "p5"} {
		if err := parent.Put([]byte(key), []byte("parent")); err != nil {
			t.Fatalf("unexpected error: %s", err)
		}
	}
	overlay := storage.NewOverlay(parent)
	// Insert between parent keys, overwrite one, delete one
	if err := overlay.Put([]byte("p2"), []byte("overlay")); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if err := overlay.Put([]byte("p3"), []byte("overlay")); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if err := overlay.Delete([]byte("p5")); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	var keys []string
	var values []string
	err := overlay.ForEach([]byte("p"), func(key, value []byte) bool {
		keys = append(keys, string(key))
		values = append(values, string(value))
		return true
	})
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	expected := []string{"p1", "p2", "p3"}
	if fmt.Sprint(keys) != fmt.Sprint(expected) {
		t.Errorf("iteration keys %v, expected %v", keys, expected)
	}
	if values[1] != "overlay" || values[2] != "overlay" {
		t.Errorf("unexpected values: %v", values)
	}
}

func TestOverlayFlush(t *testing.T) {
	parent := storage.NewMemStore()
	overlay := storage.NewOverlay(parent)
	if err := overlay.Put([]byte("k"), []byte("v")); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if !overlay.Dirty() {
		t.Error("overlay with changes should be dirty")
	}
	if err := overlay.Flush(); err != nil {
		t.Fatalf("flush failed: %s", err)
	}
	if overlay.Dirty() {
		t.Error("flushed overlay should be clean")
	}
	got, err := parent.Get([]byte("k"))
	if err != nil || string(got) != "v" {
		t.Errorf("parent read %q/%v after flush", got, err)
	}
}

func TestUndoRestoresParent(t *testing.T) {
	parent := storage.NewMemStore()
	if err := parent.Put([]byte("existing"), []byte("before")); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	overlay := storage.NewOverlay(parent)
	if err := overlay.Put([]byte("existing"), []byte("after")); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if err := overlay.Put([]byte("created"), []byte("x")); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if err := overlay.Delete([]byte("existing2")); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	undo, err := storage.ConstructUndo(overlay)
	if err != nil {
		t.Fatalf("undo construction failed: %s", err)
	}
	if err := overlay.Flush(); err != nil {
		t.Fatalf("flush failed: %s", err)
	}
	if err := storage.ApplyUndo(parent, undo); err != nil {
		t.Fatalf("undo apply failed: %s", err)
	}
	got, err := parent.Get([]byte("existing"))
	if err != nil || string(got) != "before" {
		t.Errorf("expected restored value, got %q/%v", got, err)
	}
	if _, err := parent.Get([]byte("created")); !errors.Is(err, storage.ErrKeyNotFound) {
		t.Errorf("created key should be removed by undo, got %v", err)
	}
}

func TestUndoSerializationRoundTrip(t *testing.T) {
	parent := storage.NewMemStore()
	if err := parent.Put([]byte("a"), []byte("1")); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	overlay := storage.NewOverlay(parent)
	if err := overlay.Put([]byte("a"), []byte("2")); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	undo, err := storage.ConstructUndo(overlay)
	if err != nil {
		t.Fatalf("undo construction failed: %s", err)
	}
	raw, err := undo.Marshal()
	if err != nil {
		t.Fatalf("marshal failed: %s", err)
	}
	decoded, err := storage.UnmarshalUndo(raw)
	if err != nil {
		t.Fatalf("unmarshal failed: %s", err)
	}
	if len(decoded.Entries) != len(undo.Entries) {
		t.Errorf(
			"entry count mismatch: %d != %d",
			len(decoded.Entries), len(undo.Entries),
		)
	}
}
