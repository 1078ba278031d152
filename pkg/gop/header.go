// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Jan Hofmeier

package gop

import (
	"encoding/binary"
	"fmt"
)

// Header sizes
const (
	HeaderSize       = 8
	HeaderPrefixSize = 4 // gid, op, length:16
)

// Header is the fixed message header.
type Header struct {
	Group  uint8
	Op     uint8 // raw operation byte, REQ_DATA flag included
	Length uint16
}

// ParseHeader reads the header at the start of b. Only the first
// HeaderPrefixSize bytes are required.
func ParseHeader(b []byte) (Header, error) {
	if len(b) < HeaderPrefixSize {
		return Header{}, fmt.Errorf("header needs %d bytes, have %d", HeaderPrefixSize, len(b))
	}
	return Header{
		Group:  b[0],
		Op:     b[1],
		Length: binary.LittleEndian.Uint16(b[2:4]),
	}, nil
}

// ID returns the message identifier.
func (h Header) ID() ID {
	return MakeID(h.Group, h.Op)
}

// ReqData reports whether the REQ_DATA flag is set.
func (h Header) ReqData() bool {
	return h.Op&ReqData != 0
}

// PayloadLength returns the declared payload length. Declared lengths
// shorter than the header yield zero.
func (h Header) PayloadLength() int {
	if int(h.Length) < HeaderSize {
		return 0
	}
	return int(h.Length) - HeaderSize
}

// Bytes encodes the header with zeroed reserved bytes.
func (h Header) Bytes() []byte {
	b := make([]byte, HeaderSize)
	b[0] = h.Group
	b[1] = h.Op
	binary.LittleEndian.PutUint16(b[2:4], h.Length)
	return b
}
