// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Jan Hofmeier

package stream

import (
	"github.com/jan-hofmeier/winc-wifi/pkg/gop"
	"github.com/jan-hofmeier/winc-wifi/pkg/spi"
)

// EventKind classifies decoded events.
type EventKind int

const (
	EventTransaction EventKind = iota // SPI transaction decoded
	EventMessage                      // known HIF message decoded
	EventUnknownMessage               // HIF header not in the catalog
	EventTruncated                    // capture ends inside a frame
	EventFatal                        // decoding stopped
)

func (k EventKind) String() string {
	switch k {
	case EventTransaction:
		return "spi"
	case EventMessage:
		return "gop"
	case EventUnknownMessage:
		return "unknown_gop"
	case EventTruncated:
		return "truncated"
	case EventFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// Direction is the bus line a message was found on.
type Direction string

const (
	MOSI Direction = "MOSI"
	MISO Direction = "MISO"
)

// Event is one entry of the decoded stream.
type Event struct {
	Kind   EventKind
	Offset int // MOSI offset of the transaction that produced the event

	// Transaction is the decoded command; for message events it is the
	// bulk transfer that carried the header.
	Transaction *spi.Transaction

	Message       *gop.Message
	Direction     Direction
	MessageOffset int  // offset of the message header in its buffer
	Resynced      bool // found by scanning rather than chunk alignment
	Chunks        int  // bulk writes reassembled into the message

	Err error // fatal or truncation cause
}

// Partial reports whether a message event was reassembled incompletely.
func (e Event) Partial() bool {
	return e.Message != nil && e.Message.Partial
}

// IsMessage reports whether the event carries a message.
func (e Event) IsMessage() bool {
	return e.Kind == EventMessage || e.Kind == EventUnknownMessage
}
