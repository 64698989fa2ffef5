// Copyright (c) 2025 jdwpgdb
// Licensed under the MIT License. See LICENSE file in the project root for details.

package jdwp

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

const (
	// HeaderSize is the length of the fixed packet header.
	HeaderSize = 11

	// FlagReply marks a reply packet.
	FlagReply byte = 0x80

	// MaxPacketSize bounds the length field accepted from a peer.
	MaxPacketSize = 16 << 20
)

// Packet is one JDWP command or reply. For commands CommandSet and Command
// are set; for replies ErrorCode is set. ID correlates a reply to its command.
type Packet struct {
	ID         uint32
	Flags      byte
	CommandSet CommandSet
	Command    Command
	ErrorCode  ErrorCode
	Data       []byte
}

// IsReply reports whether p is a reply packet.
func (p *Packet) IsReply() bool { return p.Flags&FlagReply != 0 }

// Cmd returns the command set and command of a command packet.
func (p *Packet) Cmd() Cmd { return Cmd{Set: p.CommandSet, ID: p.Command} }

func (p *Packet) String() string {
	if p.IsReply() {
		return fmt.Sprintf("reply id=%d err=%v len=%d", p.ID, p.ErrorCode, len(p.Data))
	}
	return fmt.Sprintf("cmd id=%d %v len=%d", p.ID, p.Cmd(), len(p.Data))
}

// NewCommand returns a command packet.
func NewCommand(id uint32, cmd Cmd, data []byte) *Packet {
	return &Packet{ID: id, CommandSet: cmd.Set, Command: cmd.ID, Data: data}
}

// NewReply returns a reply packet for the command with the given id.
func NewReply(id uint32, code ErrorCode, data []byte) *Packet {
	return &Packet{ID: id, Flags: FlagReply, ErrorCode: code, Data: data}
}

// ReadPacket reads one packet from r. A clean end of stream before the first
// header byte returns io.EOF; a truncated packet returns io.ErrUnexpectedEOF.
// A length field smaller than the header or larger than MaxPacketSize returns
// ErrMalformedPacket.
func ReadPacket(r io.Reader) (*Packet, error) {
	var hdr [HeaderSize]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return nil, err
	}
	length := binary.BigEndian.Uint32(hdr[0:4])
	if length < HeaderSize || length > MaxPacketSize {
		return nil, fmt.Errorf("%w: length %d", ErrMalformedPacket, length)
	}
	p := &Packet{
		ID:    binary.BigEndian.Uint32(hdr[4:8]),
		Flags: hdr[8],
	}
	if p.IsReply() {
		p.ErrorCode = ErrorCode(binary.BigEndian.Uint16(hdr[9:11]))
	} else {
		p.CommandSet = CommandSet(hdr[9])
		p.Command = Command(hdr[10])
	}
	if n := length - HeaderSize; n > 0 {
		p.Data = make([]byte, n)
		if _, err := io.ReadFull(r, p.Data); err != nil {
			if errors.Is(err, io.EOF) {
				err = io.ErrUnexpectedEOF
			}
			return nil, err
		}
	}
	return p, nil
}

// WritePacket writes p to w as a single Write call, computing the length field.
func WritePacket(w io.Writer, p *Packet) error {
	buf := make([]byte, HeaderSize, HeaderSize+len(p.Data))
	binary.BigEndian.PutUint32(buf[0:4], uint32(HeaderSize+len(p.Data)))
	binary.BigEndian.PutUint32(buf[4:8], p.ID)
	buf[8] = p.Flags
	if p.IsReply() {
		binary.BigEndian.PutUint16(buf[9:11], uint16(p.ErrorCode))
	} else {
		buf[9] = byte(p.CommandSet)
		buf[10] = byte(p.Command)
	}
	buf = append(buf, p.Data...)
	_, err := w.Write(buf)
	return err
}
