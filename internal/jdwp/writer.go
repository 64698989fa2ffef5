// Copyright (c) 2025 jdwpgdb
// Licensed under the MIT License. See LICENSE file in the project root for details.

package jdwp

import (
	"encoding/binary"
	"math"
)

// Writer appends JDWP encoded values to a growable buffer. Packet lengths are
// computed by WritePacket, never by the Writer.
type Writer struct {
	buf   []byte
	sizes IDSizes
}

// NewWriter returns an empty Writer using the identifier widths in sizes.
func NewWriter(sizes IDSizes) *Writer {
	return &Writer{sizes: sizes}
}

// Bytes returns the encoded body.
func (w *Writer) Bytes() []byte { return w.buf }

// Len returns the number of bytes written so far.
func (w *Writer) Len() int { return len(w.buf) }

// Reset discards everything written.
func (w *Writer) Reset() { w.buf = w.buf[:0] }

// Raw appends b verbatim.
func (w *Writer) Raw(b []byte) { w.buf = append(w.buf, b...) }

func (w *Writer) Bool(v bool) {
	if v {
		w.Byte(1)
	} else {
		w.Byte(0)
	}
}

func (w *Writer) Byte(v byte) { w.buf = append(w.buf, v) }

func (w *Writer) Char(v uint16) { w.buf = binary.BigEndian.AppendUint16(w.buf, v) }

func (w *Writer) Short(v int16) { w.Char(uint16(v)) }

func (w *Writer) Uint32(v uint32) { w.buf = binary.BigEndian.AppendUint32(w.buf, v) }

func (w *Writer) Int(v int32) { w.Uint32(uint32(v)) }

func (w *Writer) Uint64(v uint64) { w.buf = binary.BigEndian.AppendUint64(w.buf, v) }

func (w *Writer) Long(v int64) { w.Uint64(uint64(v)) }

func (w *Writer) Float(v float32) { w.Uint32(math.Float32bits(v)) }

func (w *Writer) Double(v float64) { w.Uint64(math.Float64bits(v)) }

// Str appends s with its 4 byte length prefix and no terminator.
func (w *Writer) Str(s string) {
	w.Int(int32(len(s)))
	w.buf = append(w.buf, s...)
}

func (w *Writer) uint(size int, v uint64) {
	for i := size - 1; i >= 0; i-- {
		w.buf = append(w.buf, byte(v>>(8*uint(i))))
	}
}

func (w *Writer) ObjectID(v ObjectID) { w.uint(w.sizes.ObjectIDSize, uint64(v)) }

func (w *Writer) ThreadID(v ThreadID) { w.uint(w.sizes.ObjectIDSize, uint64(v)) }

func (w *Writer) ThreadGroupID(v ThreadGroupID) { w.uint(w.sizes.ObjectIDSize, uint64(v)) }

func (w *Writer) ReferenceTypeID(v ReferenceTypeID) {
	w.uint(w.sizes.ReferenceTypeIDSize, uint64(v))
}

func (w *Writer) MethodID(v MethodID) { w.uint(w.sizes.MethodIDSize, uint64(v)) }

func (w *Writer) FieldID(v FieldID) { w.uint(w.sizes.FieldIDSize, uint64(v)) }

func (w *Writer) FrameID(v FrameID) { w.uint(w.sizes.FrameIDSize, uint64(v)) }

func (w *Writer) Location(l Location) {
	w.Byte(byte(l.Type))
	w.ReferenceTypeID(l.Class)
	w.MethodID(l.Method)
	w.Uint64(l.Index)
}

func (w *Writer) TaggedObjectID(v TaggedObjectID) {
	w.Byte(byte(v.Tag))
	w.ObjectID(v.Object)
}
