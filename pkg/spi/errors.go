// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Jan Hofmeier

package spi

import (
	"errors"
	"fmt"
)

// FramingError reports a non-zero MISO byte found while scanning for a
// command echo. The stream is misaligned and decoding cannot continue.
type FramingError struct {
	Offset  int // MISO offset of the offending byte
	Value   byte
	Command Command
}

func (e *FramingError) Error() string {
	return fmt.Sprintf("framing violation: MISO byte 0x%02x at offset %d before %s echo",
		e.Value, e.Offset, e.Command)
}

// UnknownCommandError reports a MOSI byte that is neither padding nor a
// known command.
type UnknownCommandError struct {
	Offset int // MOSI offset
	Value  byte
}

func (e *UnknownCommandError) Error() string {
	return fmt.Sprintf("unknown command byte 0x%02x at offset %d", e.Value, e.Offset)
}

// TruncatedError reports a frame that runs past the end of the MOSI buffer.
type TruncatedError struct {
	Offset  int
	Command Command
	Need    int
	Have    int
}

func (e *TruncatedError) Error() string {
	return fmt.Sprintf("%s at offset %d truncated: need %d bytes, have %d",
		e.Command, e.Offset, e.Need, e.Have)
}

// IsFatal reports whether err ends a decode run.
func IsFatal(err error) bool {
	var fe *FramingError
	var ue *UnknownCommandError
	return errors.As(err, &fe) || errors.As(err, &ue)
}

// IsTruncated reports whether err is a TruncatedError.
func IsTruncated(err error) bool {
	var te *TruncatedError
	return errors.As(err, &te)
}
