// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Jan Hofmeier

package spi

// ResponseStatus describes the MISO response found for a transaction.
type ResponseStatus int

const (
	ResponseNotExpected ResponseStatus = iota // command has no MISO response
	ResponseOK                                // echo found and validated
	ResponseInvalid                           // echo found, trailing bytes wrong
	ResponseMissing                           // echo never found
)

func (s ResponseStatus) String() string {
	switch s {
	case ResponseNotExpected:
		return "none"
	case ResponseOK:
		return "ok"
	case ResponseInvalid:
		return "invalid"
	case ResponseMissing:
		return "no response"
	default:
		return "unknown"
	}
}

// Transaction is one decoded SPI command. Raw and Payload are views into
// the capture buffer.
type Transaction struct {
	Offset  int // MOSI offset of the command byte
	Command Command
	Raw     []byte // full MOSI frame

	Address  uint32
	Value    uint32 // SingleWrite value, SingleRead value when HasValue
	HasValue bool
	Count    uint32 // bulk byte count, DMA size
	Payload  []byte // WriteData payload

	Response       ResponseStatus
	ResponseOffset int  // MISO offset of the echo, -1 when not found
	Status         byte // SingleRead status byte
}

// End returns the MOSI offset just past the frame.
func (t *Transaction) End() int {
	return t.Offset + len(t.Raw)
}

// Acked reports whether a SingleWrite was acknowledged.
func (t *Transaction) Acked() bool {
	return t.Command == CmdSingleWrite && t.Response == ResponseOK
}
