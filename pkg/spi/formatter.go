// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Jan Hofmeier

package spi

import (
	"fmt"
	"strings"
)

// FormatTransaction renders a transaction as a header line followed by
// indented MOSI/MISO detail lines.
func FormatTransaction(t *Transaction) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "[%d] %s\n", t.Offset, t.Command)

	switch t.Command {
	case CmdSingleRead:
		fmt.Fprintf(&sb, "  MOSI -> Addr: %s\n", RegisterName(t.Address))
		switch t.Response {
		case ResponseOK:
			fmt.Fprintf(&sb, "  MISO <- Value: 0x%08x\n", t.Value)
		case ResponseMissing:
			sb.WriteString("  MISO <- No response\n")
		default:
			sb.WriteString("  MISO <- Invalid response!\n")
		}
	case CmdSingleWrite:
		fmt.Fprintf(&sb, "  MOSI -> Addr: %s, Value: 0x%08x\n", RegisterName(t.Address), t.Value)
		switch t.Response {
		case ResponseOK:
			sb.WriteString("  MISO <- ACK\n")
		case ResponseMissing:
			sb.WriteString("  MISO <- No response\n")
		default:
			sb.WriteString("  MISO <- Invalid response!\n")
		}
	case CmdWriteData, CmdReadData:
		fmt.Fprintf(&sb, "  MOSI -> Addr: 0x%04x, Count: %d\n", t.Address, t.Count)
	case CmdDMAWrite, CmdDMARead:
		fmt.Fprintf(&sb, "  MOSI -> Addr: 0x%04x, Size: %d\n", t.Address, t.Count)
	case CmdInternalWrite:
		fmt.Fprintf(&sb, "  MOSI -> Addr: 0x%04x, Value: 0x%08x\n", t.Address, t.Value)
	case CmdInternalRead:
		fmt.Fprintf(&sb, "  MOSI -> Addr: 0x%04x\n", t.Address)
	}

	return sb.String()
}

// FormatHex renders b as space separated hex bytes.
func FormatHex(b []byte) string {
	var sb strings.Builder
	for i, v := range b {
		if i > 0 {
			sb.WriteByte(' ')
		}
		fmt.Fprintf(&sb, "%02X", v)
	}
	return sb.String()
}
