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

package chain

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/blinklabs-io/naiad/internal/common"
)

// TxMarker is the fixed ASCII tag following OP_RETURN in the first output
// of every custom transaction.
const TxMarker = "NaTx"

// ErrNotCustomTx marks a transaction without the custom metadata prefix
var ErrNotCustomTx = errors.New("not a custom transaction")

// The wire codec is consensus-normative: little-endian integers,
// u32-length-prefixed collections and strings.

// Writer builds a deterministic payload
type Writer struct {
	buf []byte
}

func (w *Writer) U8(v uint8)    { w.buf = append(w.buf, v) }
func (w *Writer) Bool(v bool)   { w.U8(map[bool]uint8{false: 0, true: 1}[v]) }
func (w *Writer) U32(v uint32)  { w.buf = binary.LittleEndian.AppendUint32(w.buf, v) }
func (w *Writer) U64(v uint64)  { w.buf = binary.LittleEndian.AppendUint64(w.buf, v) }
func (w *Writer) I64(v int64)   { w.U64(uint64(v)) }
func (w *Writer) Amount(v common.Amount) { w.I64(int64(v)) }

func (w *Writer) Bytes(v []byte) {
	w.U32(uint32(len(v)))
	w.buf = append(w.buf, v...)
}

func (w *Writer) String(v string)          { w.Bytes([]byte(v)) }
func (w *Writer) Script(v common.Script)   { w.Bytes(v) }
func (w *Writer) TxID(v common.TxID)       { w.buf = append(w.buf, v[:]...) }

func (w *Writer) TokenAmount(v common.TokenAmount) {
	w.U32(uint32(v.Token))
	w.Amount(v.Amount)
}

func (w *Writer) Balances(v common.Balances) {
	tokens := v.SortedTokens()
	w.U32(uint32(len(tokens)))
	for _, token := range tokens {
		w.TokenAmount(common.TokenAmount{Token: token, Amount: v[token]})
	}
}

// Payload returns the accumulated bytes
func (w *Writer) Payload() []byte { return w.buf }

// Reader consumes a deterministic payload; the first decoding error sticks
type Reader struct {
	buf []byte
	off int
	err error
}

// NewReader wraps a payload
func NewReader(buf []byte) *Reader {
	return &Reader{buf: buf}
}

func (r *Reader) fail(what string) {
	if r.err == nil {
		r.err = fmt.Errorf("truncated payload reading %s at offset %d", what, r.off)
	}
}

func (r *Reader) take(n int, what string) []byte {
	if r.err != nil || r.off+n > len(r.buf) {
		r.fail(what)
		return nil
	}
	ret := r.buf[r.off : r.off+n]
	r.off += n
	return ret
}

func (r *Reader) U8() uint8 {
	raw := r.take(1, "u8")
	if raw == nil {
		return 0
	}
	return raw[0]
}

func (r *Reader) Bool() bool { return r.U8() != 0 }

func (r *Reader) U32() uint32 {
	raw := r.take(4, "u32")
	if raw == nil {
		return 0
	}
	return binary.LittleEndian.Uint32(raw)
}

func (r *Reader) U64() uint64 {
	raw := r.take(8, "u64")
	if raw == nil {
		return 0
	}
	return binary.LittleEndian.Uint64(raw)
}

func (r *Reader) I64() int64                 { return int64(r.U64()) }
func (r *Reader) Amount() common.Amount      { return common.Amount(r.I64()) }

func (r *Reader) Bytes() []byte {
	n := r.U32()
	if r.err != nil || int(n) > len(r.buf)-r.off {
		r.fail("bytes")
		return nil
	}
	return append([]byte{}, r.take(int(n), "bytes")...)
}

func (r *Reader) String() string        { return string(r.Bytes()) }
func (r *Reader) Script() common.Script { return common.Script(r.Bytes()) }

func (r *Reader) TxID() common.TxID {
	var ret common.TxID
	raw := r.take(len(ret), "txid")
	copy(ret[:], raw)
	return ret
}

func (r *Reader) TokenAmount() common.TokenAmount {
	return common.TokenAmount{
		Token:  common.TokenID(r.U32()),
		Amount: r.Amount(),
	}
}

func (r *Reader) BalancesMap() common.Balances {
	n := r.U32()
	ret := make(common.Balances)
	for i := uint32(0); i < n && r.err == nil; i++ {
		ta := r.TokenAmount()
		ret[ta.Token] = ta.Amount
	}
	return ret
}

// Done checks the payload was fully and cleanly consumed
func (r *Reader) Done() error {
	if r.err != nil {
		return r.err
	}
	if r.off != len(r.buf) {
		return fmt.Errorf("%d trailing bytes in payload", len(r.buf)-r.off)
	}
	return nil
}

// Err returns the sticky decoding error
func (r *Reader) Err() error { return r.err }

// SplitMetadata strips the marker and type byte from an OP_RETURN payload
func SplitMetadata(metadata []byte) (CustomTxType, []byte, error) {
	if len(metadata) < len(TxMarker)+1 || string(metadata[:len(TxMarker)]) != TxMarker {
		return 0, nil, ErrNotCustomTx
	}
	return CustomTxType(metadata[len(TxMarker)]), metadata[len(TxMarker)+1:], nil
}

// BuildMetadata prepends the marker and type byte to a payload
func BuildMetadata(txType CustomTxType, payload []byte) []byte {
	ret := append([]byte(TxMarker), byte(txType))
	return append(ret, payload...)
}
