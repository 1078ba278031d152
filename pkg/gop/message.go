// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Jan Hofmeier

package gop

// Message is a decoded HIF message.
type Message struct {
	Header   Header
	Payload  []byte // header stripped
	Partial  bool   // fewer payload bytes than declared
	Record   Record // nil when no parser exists or parsing failed
	ParseErr error
}

// NewMessage builds a message from a header and its payload, running the
// catalog parser when one exists. The payload is trimmed to the declared
// length; a shorter payload marks the message partial.
func NewMessage(h Header, payload []byte) *Message {
	want := h.PayloadLength()
	m := &Message{Header: h}
	if len(payload) >= want {
		m.Payload = payload[:want]
	} else {
		m.Payload = payload
		m.Partial = true
	}

	if parse := h.ID().Parser(); parse != nil {
		m.Record, m.ParseErr = parse(m.Payload)
	}
	return m
}

// Decode decodes the message whose header starts at data[0]. Bytes past
// the declared length are ignored.
func Decode(data []byte) (*Message, error) {
	h, err := ParseHeader(data)
	if err != nil {
		return nil, err
	}
	var payload []byte
	if len(data) > HeaderSize {
		payload = data[HeaderSize:]
	}
	return NewMessage(h, payload), nil
}

// ID returns the message identifier.
func (m *Message) ID() ID {
	return m.Header.ID()
}

// Known reports whether the message is in the catalog.
func (m *Message) Known() bool {
	return m.Header.ID().Known()
}

// Name returns the catalog name of the message.
func (m *Message) Name() string {
	return m.Header.ID().String()
}
