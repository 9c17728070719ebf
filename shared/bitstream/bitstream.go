// Package bitstream packs values into a bit-granular buffer. Bits are written
// least significant first into bytes that grow as needed.
package bitstream

import (
	"errors"
	"math"
)

// ErrOverflow is returned when a read runs past the written bits.
var ErrOverflow = errors.New("bitstream: read past end of buffer")

// Writer appends bits to a growable buffer.
type Writer struct {
	buf   []byte
	nbits int
}

// WriteBits writes the low n bits of v (n <= 64).
func (w *Writer) WriteBits(v uint64, n int) {
	for i := 0; i < n; i++ {
		if w.nbits%8 == 0 {
			w.buf = append(w.buf, 0)
		}
		if v&(1<<uint(i)) != 0 {
			w.buf[w.nbits/8] |= 1 << uint(w.nbits%8)
		}
		w.nbits++
	}
}

func (w *Writer) WriteBool(b bool) {
	if b {
		w.WriteBits(1, 1)
		return
	}
	w.WriteBits(0, 1)
}

func (w *Writer) WriteUint8(v uint8)   { w.WriteBits(uint64(v), 8) }
func (w *Writer) WriteUint32(v uint32) { w.WriteBits(uint64(v), 32) }

func (w *Writer) WriteFloat32(f float32) {
	w.WriteBits(uint64(math.Float32bits(f)), 32)
}

// WriteSigned writes v in n bits two's complement. Values outside the range
// are clamped.
func (w *Writer) WriteSigned(v int64, n int) {
	lo := -(int64(1) << uint(n-1))
	hi := int64(1)<<uint(n-1) - 1
	if v < lo {
		v = lo
	} else if v > hi {
		v = hi
	}
	w.WriteBits(uint64(v)&(1<<uint(n)-1), n)
}

// WriteIntPacked writes v in 7-bit groups, each followed by a continuation bit.
func (w *Writer) WriteIntPacked(v uint32) {
	for {
		w.WriteBits(uint64(v&0x7f), 7)
		v >>= 7
		if v == 0 {
			w.WriteBool(false)
			return
		}
		w.WriteBool(true)
	}
}

// WriteZigZag writes a signed value packed so small magnitudes stay short.
func (w *Writer) WriteZigZag(v int32) {
	w.WriteIntPacked(uint32((v << 1) ^ (v >> 31)))
}

// Bytes returns the written buffer; the last byte may be partially used.
func (w *Writer) Bytes() []byte { return w.buf }

// NumBits returns the number of bits written.
func (w *Writer) NumBits() int { return w.nbits }

// Reader consumes bits written by Writer. After the first overflow every read
// returns zero and Err reports ErrOverflow.
type Reader struct {
	buf   []byte
	nbits int
	pos   int
	err   error
}

// NewReader reads nbits bits from buf.
func NewReader(buf []byte, nbits int) *Reader {
	if nbits > len(buf)*8 || nbits < 0 {
		return &Reader{err: ErrOverflow}
	}
	return &Reader{buf: buf, nbits: nbits}
}

func (r *Reader) ReadBits(n int) uint64 {
	if r.err != nil {
		return 0
	}
	if r.pos+n > r.nbits {
		r.err = ErrOverflow
		return 0
	}
	var v uint64
	for i := 0; i < n; i++ {
		if r.buf[r.pos/8]&(1<<uint(r.pos%8)) != 0 {
			v |= 1 << uint(i)
		}
		r.pos++
	}
	return v
}

func (r *Reader) ReadBool() bool       { return r.ReadBits(1) == 1 }
func (r *Reader) ReadUint8() uint8     { return uint8(r.ReadBits(8)) }
func (r *Reader) ReadUint32() uint32   { return uint32(r.ReadBits(32)) }
func (r *Reader) ReadFloat32() float32 { return math.Float32frombits(uint32(r.ReadBits(32))) }

func (r *Reader) ReadSigned(n int) int64 {
	v := r.ReadBits(n)
	if v&(1<<uint(n-1)) != 0 {
		v |= ^uint64(0) << uint(n)
	}
	return int64(v)
}

func (r *Reader) ReadIntPacked() uint32 {
	var v uint32
	for shift := 0; shift < 35; shift += 7 {
		v |= uint32(r.ReadBits(7)) << uint(shift)
		if !r.ReadBool() {
			return v
		}
	}
	r.err = ErrOverflow
	return 0
}

func (r *Reader) ReadZigZag() int32 {
	u := r.ReadIntPacked()
	return int32(u>>1) ^ -int32(u&1)
}

// Remaining returns the unread bit count.
func (r *Reader) Remaining() int { return r.nbits - r.pos }

// Err returns ErrOverflow once a read has run past the end.
func (r *Reader) Err() error { return r.err }
