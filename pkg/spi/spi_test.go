// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Jan Hofmeier

package spi

import (
	"errors"
	"strings"
	"testing"
)

// ============================================================
// Test Helpers
// ============================================================

// singleFrame builds an 11-byte single-register MOSI frame
func singleFrame(cmd Command, addr, value uint32) []byte {
	b := make([]byte, SingleFrameSize)
	b[0] = byte(cmd)
	PutBE24(b[1:4], addr)
	if cmd == CmdSingleWrite {
		b[4] = byte(value >> 24)
		b[5] = byte(value >> 16)
		b[6] = byte(value >> 8)
		b[7] = byte(value)
	}
	return b
}

// bulkFrame builds a WriteData/ReadData frame with its payload
func bulkFrame(cmd Command, addr uint32, payload []byte) []byte {
	b := make([]byte, BulkPayloadOffset, BulkPayloadOffset+len(payload))
	b[0] = byte(cmd)
	PutBE24(b[1:4], addr)
	PutBE24(b[4:7], uint32(len(payload)))
	b[9] = 0xF3
	if cmd == CmdReadData {
		return b[:BulkHeaderSize]
	}
	return append(b, payload...)
}

// ============================================================
// Byte Order Tests
// ============================================================

func TestByteOrder(t *testing.T) {
	b := []byte{0x01, 0x02, 0x03, 0x04}

	if got := BE16(b); got != 0x0102 {
		t.Errorf("BE16: expected 0x0102, got 0x%04x", got)
	}
	if got := BE24(b); got != 0x010203 {
		t.Errorf("BE24: expected 0x010203, got 0x%06x", got)
	}
	if got := BE32(b); got != 0x01020304 {
		t.Errorf("BE32: expected 0x01020304, got 0x%08x", got)
	}
	if got := LE16(b); got != 0x0201 {
		t.Errorf("LE16: expected 0x0201, got 0x%04x", got)
	}
	if got := LE32(b); got != 0x04030201 {
		t.Errorf("LE32: expected 0x04030201, got 0x%08x", got)
	}

	out := make([]byte, 3)
	PutBE24(out, 0x150400)
	if BE24(out) != 0x150400 {
		t.Errorf("PutBE24 round trip failed: %X", out)
	}
}

// ============================================================
// Command Table Tests
// ============================================================

func TestCommandNames(t *testing.T) {
	tests := []struct {
		cmd      Command
		expected string
	}{
		{CmdDMAWrite, "CMD_DMA_WRITE"},
		{CmdWriteData, "CMD_WRITE_DATA"},
		{CmdSingleRead, "CMD_SINGLE_READ"},
		{CmdReset, "CMD_RESET"},
		{Command(0xAB), "UNKNOWN (0xab)"},
	}

	for _, tt := range tests {
		if got := tt.cmd.String(); got != tt.expected {
			t.Errorf("Command 0x%02x: expected %q, got %q", uint8(tt.cmd), tt.expected, got)
		}
	}

	if n := len(Commands()); n != 11 {
		t.Errorf("Expected 11 commands, got %d", n)
	}
	if Command(0xC0).Known() || Command(0xCB).Known() {
		t.Error("0xC0 and 0xCB must not be known commands")
	}
}

func TestRegisterName(t *testing.T) {
	if got := RegisterName(0x1000); got != "CHIPID_REG" {
		t.Errorf("Expected CHIPID_REG, got %s", got)
	}
	if got := RegisterName(0x150400); got != "RCV_CTRL_REG4" {
		t.Errorf("Expected RCV_CTRL_REG4, got %s", got)
	}
	if got := RegisterName(0x1234); got != "0x1234" {
		t.Errorf("Expected 0x1234, got %s", got)
	}

	regs := Registers()
	if len(regs) != 17 {
		t.Fatalf("Expected 17 registers, got %d", len(regs))
	}
	for i := 1; i < len(regs); i++ {
		if regs[i-1].Address >= regs[i].Address {
			t.Errorf("Registers not sorted at index %d", i)
		}
	}
}

// ============================================================
// Single Register Tests
// ============================================================

func TestDecode_SingleWriteAck(t *testing.T) {
	mosi := singleFrame(CmdSingleWrite, 0x1070, 0xDEADBEEF)
	miso := []byte{0, 0, 0, 0, 0, 0, 0, 0, byte(CmdSingleWrite), 0x00, 0}

	tx, next, err := Decode(mosi, 0, miso, 0)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !tx.Acked() {
		t.Error("Expected write to be acknowledged")
	}
	if tx.Address != 0x1070 || tx.Value != 0xDEADBEEF {
		t.Errorf("Expected addr 0x1070 value 0xDEADBEEF, got 0x%x 0x%x", tx.Address, tx.Value)
	}
	if tx.ResponseOffset != 8 {
		t.Errorf("Expected echo at 8, got %d", tx.ResponseOffset)
	}
	if next != 10 {
		t.Errorf("Expected MISO cursor 10 (match+2), got %d", next)
	}
	if tx.End() != SingleFrameSize {
		t.Errorf("Expected frame end %d, got %d", SingleFrameSize, tx.End())
	}
}

func TestDecode_SingleWriteNack(t *testing.T) {
	mosi := singleFrame(CmdSingleWrite, 0x1070, 1)
	miso := []byte{byte(CmdSingleWrite), 0x01}

	tx, next, err := Decode(mosi, 0, miso, 0)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if tx.Acked() {
		t.Error("Expected write not to be acknowledged")
	}
	if tx.Response != ResponseInvalid {
		t.Errorf("Expected invalid response, got %s", tx.Response)
	}
	if next != 2 {
		t.Errorf("Expected MISO cursor 2, got %d", next)
	}
}

func TestDecode_SingleReadValue(t *testing.T) {
	tests := []struct {
		name   string
		status byte
		value  []byte
		want   uint32
	}{
		{"chip id", 0xF3, []byte{0xA0, 0x02, 0x15, 0x00}, 0x001502A0},
		{"zero", 0xF0, []byte{0, 0, 0, 0}, 0},
		{"all ones", 0xFF, []byte{0xFF, 0xFF, 0xFF, 0xFF}, 0xFFFFFFFF},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mosi := singleFrame(CmdSingleRead, 0x1000, 0)
			miso := append([]byte{0, 0, 0, byte(CmdSingleRead), 0x00, tt.status}, tt.value...)

			tx, next, err := Decode(mosi, 0, miso, 0)
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if !tx.HasValue {
				t.Fatal("Expected a value")
			}
			if tx.Value != tt.want {
				t.Errorf("Expected 0x%08x, got 0x%08x", tt.want, tx.Value)
			}
			if tx.Status != tt.status {
				t.Errorf("Expected status 0x%02x, got 0x%02x", tt.status, tx.Status)
			}
			if next != 3+ReadResponseSize {
				t.Errorf("Expected MISO cursor %d, got %d", 3+ReadResponseSize, next)
			}
		})
	}
}

func TestDecode_SingleReadInvalidStatus(t *testing.T) {
	mosi := singleFrame(CmdSingleRead, 0x1000, 0)
	miso := []byte{byte(CmdSingleRead), 0x00, 0x30, 1, 2, 3, 4, 0}

	tx, next, err := Decode(mosi, 0, miso, 0)
	if err != nil {
		t.Fatalf("Invalid status must not be fatal: %v", err)
	}
	if tx.HasValue {
		t.Error("Expected no value for invalid status")
	}
	if tx.Response != ResponseInvalid {
		t.Errorf("Expected invalid response, got %s", tx.Response)
	}
	if next != ReadResponseSize {
		t.Errorf("Expected MISO cursor %d, got %d", ReadResponseSize, next)
	}
}

func TestDecode_SingleReadShortResponse(t *testing.T) {
	mosi := singleFrame(CmdSingleRead, 0x1000, 0)
	miso := []byte{0, byte(CmdSingleRead), 0x00, 0xF0, 1}

	tx, next, err := Decode(mosi, 0, miso, 0)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if tx.Response != ResponseInvalid {
		t.Errorf("Expected invalid response, got %s", tx.Response)
	}
	if next != len(miso) {
		t.Errorf("Expected MISO cursor clipped to %d, got %d", len(miso), next)
	}
}

func TestDecode_NoResponse(t *testing.T) {
	mosi := singleFrame(CmdSingleRead, 0x1000, 0)
	miso := make([]byte, 20)

	tx, next, err := Decode(mosi, 0, miso, 4)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if tx.Response != ResponseMissing {
		t.Errorf("Expected missing response, got %s", tx.Response)
	}
	if tx.ResponseOffset != -1 {
		t.Errorf("Expected response offset -1, got %d", tx.ResponseOffset)
	}
	if next != len(miso) {
		t.Errorf("Expected MISO cursor at end %d, got %d", len(miso), next)
	}
}

func TestDecode_FramingViolation(t *testing.T) {
	mosi := singleFrame(CmdSingleRead, 0x1000, 0)
	// Valid echo at 4, but a stray byte precedes it
	miso := []byte{0, 0, 0x42, 0, byte(CmdSingleRead), 0x00, 0xF0, 1, 2, 3, 4}

	_, _, err := Decode(mosi, 0, miso, 0)
	if err == nil {
		t.Fatal("Expected framing violation")
	}
	var fe *FramingError
	if !errors.As(err, &fe) {
		t.Fatalf("Expected *FramingError, got %T", err)
	}
	if fe.Offset != 2 || fe.Value != 0x42 {
		t.Errorf("Expected offset 2 value 0x42, got %d 0x%02x", fe.Offset, fe.Value)
	}
	if !IsFatal(err) {
		t.Error("Framing violation must be fatal")
	}
}

func TestFindEcho_StartsAtCursor(t *testing.T) {
	// Bytes before the cursor are not inspected
	miso := []byte{0x99, 0x99, 0, byte(CmdSingleWrite)}
	got, err := FindEcho(miso, 2, CmdSingleWrite)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if got != 3 {
		t.Errorf("Expected 3, got %d", got)
	}

	got, err = FindEcho(miso, 10, CmdSingleWrite)
	if err != nil || got != -1 {
		t.Errorf("Expected -1 past end, got %d (%v)", got, err)
	}
}

// ============================================================
// Bulk Transfer Tests
// ============================================================

func TestDecode_WriteData(t *testing.T) {
	payload := []byte{0x02, 0x41, 0x14, 0x00, 0, 0, 0, 0}
	mosi := bulkFrame(CmdWriteData, 0x1234, payload)

	tx, next, err := Decode(mosi, 0, nil, 5)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if tx.Count != 8 {
		t.Errorf("Expected count 8, got %d", tx.Count)
	}
	if string(tx.Payload) != string(payload) {
		t.Errorf("Payload mismatch: %X", tx.Payload)
	}
	if tx.End() != BulkPayloadOffset+8 {
		t.Errorf("Expected end %d, got %d", BulkPayloadOffset+8, tx.End())
	}
	if next != 5 {
		t.Errorf("WriteData must not move the MISO cursor, got %d", next)
	}
}

func TestDecode_ReadData(t *testing.T) {
	mosi := bulkFrame(CmdReadData, 0x1234, make([]byte, 300))

	tx, _, err := Decode(mosi, 0, nil, 0)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if tx.Count != 300 {
		t.Errorf("Expected count 300, got %d", tx.Count)
	}
	if tx.Payload != nil {
		t.Error("ReadData carries no MOSI payload")
	}
	if tx.End() != BulkHeaderSize {
		t.Errorf("Expected end %d, got %d", BulkHeaderSize, tx.End())
	}
}

func TestDecode_Truncated(t *testing.T) {
	tests := []struct {
		name string
		mosi []byte
	}{
		{"single read", []byte{byte(CmdSingleRead), 0, 0x10, 0}},
		{"write data header", []byte{byte(CmdWriteData), 0, 0}},
		{"write data payload", bulkFrame(CmdWriteData, 0, make([]byte, 8))[:14]},
		{"dma", []byte{byte(CmdDMAWrite), 0, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := Decode(tt.mosi, 0, nil, 0)
			if !IsTruncated(err) {
				t.Fatalf("Expected truncation, got %v", err)
			}
			if IsFatal(err) {
				t.Error("Truncation must not be fatal")
			}
		})
	}
}

func TestDecode_FixedFrames(t *testing.T) {
	tests := []struct {
		name  string
		mosi  []byte
		size  int
		addr  uint32
		value uint32
		count uint32
	}{
		{"dma write", []byte{0xC1, 0x00, 0x10, 0x00, 0x01, 0x00}, 6, 0x1000, 0, 256},
		{"internal write", []byte{0xC3, 0xE8, 0x24, 0, 0, 0, 0x52}, 7, 0xE824, 0x52, 0},
		{"internal read", []byte{0xC4, 0xE8, 0x24, 0x00}, 4, 0xE824, 0, 0},
		{"terminate", []byte{0xC5, 0, 0, 0}, 4, 0, 0, 0},
		{"reset", []byte{0xCF, 0xFF, 0xFF, 0xFF}, 1, 0, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx, _, err := Decode(tt.mosi, 0, nil, 0)
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if len(tx.Raw) != tt.size {
				t.Errorf("Expected frame size %d, got %d", tt.size, len(tx.Raw))
			}
			if tx.Address != tt.addr || tx.Value != tt.value || tx.Count != tt.count {
				t.Errorf("Fields mismatch: addr 0x%x value 0x%x count %d", tx.Address, tx.Value, tx.Count)
			}
		})
	}
}

func TestDecode_UnknownCommand(t *testing.T) {
	mosi := []byte{0x00, 0xAB}

	_, _, err := Decode(mosi, 1, nil, 0)
	var ue *UnknownCommandError
	if !errors.As(err, &ue) {
		t.Fatalf("Expected *UnknownCommandError, got %v", err)
	}
	if ue.Offset != 1 || ue.Value != 0xAB {
		t.Errorf("Expected offset 1 value 0xAB, got %d 0x%02x", ue.Offset, ue.Value)
	}
	if !IsFatal(err) {
		t.Error("Unknown command must be fatal")
	}
}

// ============================================================
// Formatter Tests
// ============================================================

func TestFormatTransaction(t *testing.T) {
	mosi := singleFrame(CmdSingleRead, 0x1000, 0)
	miso := []byte{byte(CmdSingleRead), 0x00, 0xF3, 0xA0, 0x02, 0x15, 0x00}
	tx, _, err := Decode(mosi, 0, miso, 0)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	out := FormatTransaction(tx)
	for _, want := range []string{"[0] CMD_SINGLE_READ", "Addr: CHIPID_REG", "Value: 0x001502a0"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected %q in output:\n%s", want, out)
		}
	}

	if got := FormatHex([]byte{0xCA, 0x00, 0x10}); got != "CA 00 10" {
		t.Errorf("Expected \"CA 00 10\", got %q", got)
	}
}
