// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Jan Hofmeier

package gop

import (
	"fmt"
	"strings"
)

// FormatMessage renders a message heading with the transfer direction,
// followed by its record line.
func FormatMessage(m *Message, direction string) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "  %s GOP -> %s", direction, m.Name())
	if m.Header.ReqData() {
		sb.WriteString(" (REQ_DATA)")
	}
	if m.Partial {
		fmt.Fprintf(&sb, " [partial %d/%d]", len(m.Payload), m.Header.PayloadLength())
	}
	sb.WriteByte('\n')

	switch {
	case m.Record != nil:
		fmt.Fprintf(&sb, "    - %s\n", m.Record)
	case m.ParseErr != nil:
		fmt.Fprintf(&sb, "    - %v\n", m.ParseErr)
	case len(m.Payload) > 0 && !m.Known():
		sb.WriteString(FormatPayload(m.Payload))
	}

	return sb.String()
}

// FormatPayload renders raw bytes as an indented hex dump.
func FormatPayload(payload []byte) string {
	var sb strings.Builder
	for i := 0; i < len(payload); i += 16 {
		end := min(i+16, len(payload))
		fmt.Fprintf(&sb, "    %04x:", i)
		for _, b := range payload[i:end] {
			fmt.Fprintf(&sb, " %02x", b)
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}
