// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Jan Hofmeier

package spi

import "encoding/binary"

// Fixed-width integer helpers. Callers check bounds.

// BE16 decodes a big-endian uint16.
func BE16(b []byte) uint16 {
	return binary.BigEndian.Uint16(b)
}

// BE24 decodes a big-endian 24-bit value.
func BE24(b []byte) uint32 {
	return uint32(b[0])<<16 | uint32(b[1])<<8 | uint32(b[2])
}

// BE32 decodes a big-endian uint32.
func BE32(b []byte) uint32 {
	return binary.BigEndian.Uint32(b)
}

// LE16 decodes a little-endian uint16.
func LE16(b []byte) uint16 {
	return binary.LittleEndian.Uint16(b)
}

// LE32 decodes a little-endian uint32.
func LE32(b []byte) uint32 {
	return binary.LittleEndian.Uint32(b)
}

// PutBE24 encodes v as a big-endian 24-bit value.
func PutBE24(b []byte, v uint32) {
	b[0] = byte(v >> 16)
	b[1] = byte(v >> 8)
	b[2] = byte(v)
}
