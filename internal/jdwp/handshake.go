// Copyright (c) 2025 jdwpgdb
// Licensed under the MIT License. See LICENSE file in the project root for details.

package jdwp

import (
	"bytes"
	"errors"
	"io"
)

// ErrBadHandshake is returned when the peer does not open with the handshake bytes.
var ErrBadHandshake = errors.New("jdwp: bad handshake")

var handshake = []byte("JDWP-Handshake")

// AcceptHandshake performs the VM side of the handshake: it waits for the client
// to send the handshake bytes and echoes them back.
func AcceptHandshake(rw io.ReadWriter) error {
	if err := expect(rw, handshake); err != nil {
		return err
	}
	_, err := rw.Write(handshake)
	return err
}

// Handshake performs the debugger side of the handshake.
func Handshake(rw io.ReadWriter) error {
	if _, err := rw.Write(handshake); err != nil {
		return err
	}
	return expect(rw, handshake)
}

func expect(r io.Reader, want []byte) error {
	got := make([]byte, len(want))
	if _, err := io.ReadFull(r, got); err != nil {
		return err
	}
	if !bytes.Equal(got, want) {
		return ErrBadHandshake
	}
	return nil
}
