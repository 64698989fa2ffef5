// Copyright (c) 2025 jdwpgdb
// Licensed under the MIT License. See LICENSE file in the project root for details.

package jdwp

import (
	"encoding/binary"
	"errors"
	"math"
	"unicode/utf8"
)

// ErrMalformedPacket is returned when a packet body is shorter than its
// contents require or carries an invalid value.
var ErrMalformedPacket = errors.New("jdwp: malformed packet")

// Reader decodes JDWP values from a packet body. The first failure is sticky:
// once a read runs past the end of the buffer every later read returns the zero
// value and Err reports ErrMalformedPacket.
type Reader struct {
	data  []byte
	off   int
	sizes IDSizes
	err   error
}

// NewReader returns a Reader over data using the identifier widths in sizes.
func NewReader(data []byte, sizes IDSizes) *Reader {
	return &Reader{data: data, sizes: sizes}
}

// Err returns the first decoding error, if any.
func (r *Reader) Err() error { return r.err }

// Len returns the number of unread bytes.
func (r *Reader) Len() int { return len(r.data) - r.off }

func (r *Reader) next(n int) []byte {
	if r.err != nil {
		return nil
	}
	if n < 0 || r.off+n > len(r.data) {
		r.err = ErrMalformedPacket
		r.off = len(r.data)
		return nil
	}
	b := r.data[r.off : r.off+n]
	r.off += n
	return b
}

func (r *Reader) Bool() bool { return r.Byte() != 0 }

func (r *Reader) Byte() byte {
	b := r.next(1)
	if b == nil {
		return 0
	}
	return b[0]
}

// Char reads a UTF-16 code unit.
func (r *Reader) Char() uint16 {
	b := r.next(2)
	if b == nil {
		return 0
	}
	return binary.BigEndian.Uint16(b)
}

func (r *Reader) Short() int16 { return int16(r.Char()) }

func (r *Reader) Uint32() uint32 {
	b := r.next(4)
	if b == nil {
		return 0
	}
	return binary.BigEndian.Uint32(b)
}

func (r *Reader) Int() int32 { return int32(r.Uint32()) }

func (r *Reader) Uint64() uint64 {
	b := r.next(8)
	if b == nil {
		return 0
	}
	return binary.BigEndian.Uint64(b)
}

func (r *Reader) Long() int64 { return int64(r.Uint64()) }

func (r *Reader) Float() float32 { return math.Float32frombits(r.Uint32()) }

func (r *Reader) Double() float64 { return math.Float64frombits(r.Uint64()) }

// Str reads a length prefixed UTF-8 string.
func (r *Reader) Str() string {
	n := r.Int()
	if r.err != nil {
		return ""
	}
	b := r.next(int(n))
	if r.err != nil {
		return ""
	}
	if !utf8.Valid(b) {
		r.err = ErrMalformedPacket
		return ""
	}
	return string(b)
}

// uint reads a big endian unsigned integer of size bytes.
func (r *Reader) uint(size int) uint64 {
	b := r.next(size)
	var v uint64
	for _, c := range b {
		v = v<<8 | uint64(c)
	}
	return v
}

func (r *Reader) ObjectID() ObjectID { return ObjectID(r.uint(r.sizes.ObjectIDSize)) }

func (r *Reader) ThreadID() ThreadID { return ThreadID(r.uint(r.sizes.ObjectIDSize)) }

func (r *Reader) ThreadGroupID() ThreadGroupID {
	return ThreadGroupID(r.uint(r.sizes.ObjectIDSize))
}

func (r *Reader) ReferenceTypeID() ReferenceTypeID {
	return ReferenceTypeID(r.uint(r.sizes.ReferenceTypeIDSize))
}

func (r *Reader) MethodID() MethodID { return MethodID(r.uint(r.sizes.MethodIDSize)) }

func (r *Reader) FieldID() FieldID { return FieldID(r.uint(r.sizes.FieldIDSize)) }

func (r *Reader) FrameID() FrameID { return FrameID(r.uint(r.sizes.FrameIDSize)) }

// Location reads the four fields of a location. There is no length prefix.
func (r *Reader) Location() Location {
	return Location{
		Type:   TypeTag(r.Byte()),
		Class:  r.ReferenceTypeID(),
		Method: r.MethodID(),
		Index:  r.Uint64(),
	}
}

func (r *Reader) TaggedObjectID() TaggedObjectID {
	return TaggedObjectID{Tag: Tag(r.Byte()), Object: r.ObjectID()}
}
