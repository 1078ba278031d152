// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Jan Hofmeier

// Package spi decodes the command framing of the WINC1500 SPI bus.
//
// A capture is a pair of byte buffers clocked together: MOSI (host to
// device) and MISO (device to host). Commands are framed on MOSI only;
// responses to single-register commands are located on MISO by scanning
// for the echoed command byte.
package spi

import "fmt"

// Command is a SPI command byte.
type Command uint8

// Command bytes
const (
	CmdDMAWrite      Command = 0xC1
	CmdDMARead       Command = 0xC2
	CmdInternalWrite Command = 0xC3
	CmdInternalRead  Command = 0xC4
	CmdTerminate     Command = 0xC5
	CmdRepeat        Command = 0xC6
	CmdWriteData     Command = 0xC7
	CmdReadData      Command = 0xC8
	CmdSingleWrite   Command = 0xC9
	CmdSingleRead    Command = 0xCA
	CmdReset         Command = 0xCF
)

// Padding is the inter-command filler byte on MOSI.
const Padding = 0x00

// Frame sizes on MOSI
const (
	SingleFrameSize   = 11 // cmd, addr:24, value:32, response slots
	BulkHeaderSize    = 7  // cmd, addr:24, count:24
	BulkPayloadOffset = 10 // header, wait:16, sentinel
	DMAFrameSize      = 6  // cmd, addr:24, size:16
	InternalWriteSize = 7  // cmd, addr:16, value:32
	ShortFrameSize    = 4  // cmd + 3 bytes
	ResetFrameSize    = 1
)

// MISO response layout for single-register commands, relative to the echo
const (
	ReadResponseSize  = 7 // echo, 0x00, status, value:32 LE
	WriteResponseSize = 2 // echo, 0x00
	StatusMask        = 0xF0
)

var commandNames = map[Command]string{
	CmdDMAWrite:      "CMD_DMA_WRITE",
	CmdDMARead:       "CMD_DMA_READ",
	CmdInternalWrite: "CMD_INTERNAL_WRITE",
	CmdInternalRead:  "CMD_INTERNAL_READ",
	CmdTerminate:     "CMD_TERMINATE",
	CmdRepeat:        "CMD_REPEAT",
	CmdWriteData:     "CMD_WRITE_DATA",
	CmdReadData:      "CMD_READ_DATA",
	CmdSingleWrite:   "CMD_SINGLE_WRITE",
	CmdSingleRead:    "CMD_SINGLE_READ",
	CmdReset:         "CMD_RESET",
}

// String returns the command name, or UNKNOWN with the raw value.
func (c Command) String() string {
	if name, ok := commandNames[c]; ok {
		return name
	}
	return fmt.Sprintf("UNKNOWN (0x%02x)", uint8(c))
}

// Known reports whether c is one of the protocol's command bytes.
func (c Command) Known() bool {
	_, ok := commandNames[c]
	return ok
}

// IsSingle reports whether c is a single-register command with a MISO response.
func (c Command) IsSingle() bool {
	return c == CmdSingleRead || c == CmdSingleWrite
}

// Commands returns every known command in byte order.
func Commands() []Command {
	cmds := make([]Command, 0, len(commandNames))
	for b := CmdDMAWrite; b <= CmdReset; b++ {
		if b.Known() {
			cmds = append(cmds, b)
		}
	}
	return cmds
}
