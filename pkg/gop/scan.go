// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Jan Hofmeier

package gop

// IsHeader reports whether a bulk-write chunk is a message header: exactly
// HeaderSize bytes starting with a known group ID and operation. There is
// no type marker on the wire, so data chunks that happen to match are
// accepted too.
func IsHeader(chunk []byte) bool {
	return len(chunk) == HeaderSize && Known(chunk[0], chunk[1])
}

// FindStart returns the first offset in data where a known group ID is
// followed by a known operation of that group, or -1. A candidate needs
// at least one byte past its HeaderPrefixSize prefix.
func FindStart(data []byte) int {
	for i := 0; i+HeaderPrefixSize < len(data); i++ {
		if Known(data[i], data[i+1]) {
			return i
		}
	}
	return -1
}

// Scan finds and decodes the first message in data. It returns the
// message offset, or -1 and nil when data holds no message.
func Scan(data []byte) (int, *Message) {
	off := FindStart(data)
	if off < 0 {
		return -1, nil
	}
	m, err := Decode(data[off:])
	if err != nil {
		return -1, nil
	}
	return off, m
}
