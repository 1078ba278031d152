// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Jan Hofmeier

package spi

// Decode decodes the command at mosi[pos]. For single-register commands
// the response is looked up in miso starting at misoPos, and the advanced
// MISO cursor is returned; other commands return misoPos unchanged.
//
// Padding bytes are not commands: callers skip them before calling Decode.
// A *TruncatedError is returned when the frame runs past the end of mosi,
// a *FramingError or *UnknownCommandError when the stream is unusable.
func Decode(mosi []byte, pos int, miso []byte, misoPos int) (*Transaction, int, error) {
	cmd := Command(mosi[pos])

	switch cmd {
	case CmdSingleRead, CmdSingleWrite:
		return decodeSingle(mosi, pos, miso, misoPos)
	case CmdWriteData, CmdReadData:
		tx, err := decodeBulk(mosi, pos)
		return tx, misoPos, err
	case CmdReset:
		return &Transaction{
			Offset:         pos,
			Command:        cmd,
			Raw:            mosi[pos : pos+ResetFrameSize],
			ResponseOffset: -1,
		}, misoPos, nil
	case CmdDMAWrite, CmdDMARead, CmdInternalWrite, CmdInternalRead, CmdTerminate, CmdRepeat:
		tx, err := decodeFixed(mosi, pos)
		return tx, misoPos, err
	default:
		return nil, misoPos, &UnknownCommandError{Offset: pos, Value: mosi[pos]}
	}
}

func frame(mosi []byte, pos int, cmd Command, size int) ([]byte, error) {
	if pos+size > len(mosi) {
		return nil, &TruncatedError{Offset: pos, Command: cmd, Need: size, Have: len(mosi) - pos}
	}
	return mosi[pos : pos+size], nil
}

func decodeSingle(mosi []byte, pos int, miso []byte, misoPos int) (*Transaction, int, error) {
	cmd := Command(mosi[pos])
	raw, err := frame(mosi, pos, cmd, SingleFrameSize)
	if err != nil {
		return nil, misoPos, err
	}

	tx := &Transaction{
		Offset:         pos,
		Command:        cmd,
		Raw:            raw,
		Address:        BE24(raw[1:4]),
		ResponseOffset: -1,
	}
	if cmd == CmdSingleWrite {
		tx.Value = BE32(raw[4:8])
	}

	match, err := FindEcho(miso, misoPos, cmd)
	if err != nil {
		return nil, misoPos, err
	}
	if match < 0 {
		tx.Response = ResponseMissing
		return tx, len(miso), nil
	}
	tx.ResponseOffset = match

	if cmd == CmdSingleRead {
		if match+ReadResponseSize <= len(miso) &&
			miso[match+1] == 0x00 && miso[match+2]&StatusMask == StatusMask {
			tx.Status = miso[match+2]
			tx.Value = LE32(miso[match+3 : match+7])
			tx.HasValue = true
			tx.Response = ResponseOK
		} else {
			tx.Response = ResponseInvalid
		}
		return tx, min(match+ReadResponseSize, len(miso)), nil
	}

	if match+1 < len(miso) && miso[match+1] == 0x00 {
		tx.Response = ResponseOK
	} else {
		tx.Response = ResponseInvalid
	}
	return tx, min(match+WriteResponseSize, len(miso)), nil
}

// FindEcho scans miso from start for the byte cmd. Every byte skipped must
// be zero. It returns the offset of the echo, or -1 when the buffer ends
// first.
func FindEcho(miso []byte, start int, cmd Command) (int, error) {
	for i := max(start, 0); i < len(miso); i++ {
		b := miso[i]
		if b == byte(cmd) {
			return i, nil
		}
		if b != 0x00 {
			return -1, &FramingError{Offset: i, Value: b, Command: cmd}
		}
	}
	return -1, nil
}

func decodeBulk(mosi []byte, pos int) (*Transaction, error) {
	cmd := Command(mosi[pos])
	hdr, err := frame(mosi, pos, cmd, BulkHeaderSize)
	if err != nil {
		return nil, err
	}

	tx := &Transaction{
		Offset:         pos,
		Command:        cmd,
		Raw:            hdr,
		Address:        BE24(hdr[1:4]),
		Count:          BE24(hdr[4:7]),
		ResponseOffset: -1,
	}
	if cmd == CmdReadData {
		return tx, nil
	}

	raw, err := frame(mosi, pos, cmd, BulkPayloadOffset+int(tx.Count))
	if err != nil {
		return nil, err
	}
	tx.Raw = raw
	tx.Payload = raw[BulkPayloadOffset:]
	return tx, nil
}

func decodeFixed(mosi []byte, pos int) (*Transaction, error) {
	cmd := Command(mosi[pos])

	size := ShortFrameSize
	switch cmd {
	case CmdDMAWrite, CmdDMARead:
		size = DMAFrameSize
	case CmdInternalWrite:
		size = InternalWriteSize
	}

	raw, err := frame(mosi, pos, cmd, size)
	if err != nil {
		return nil, err
	}

	tx := &Transaction{Offset: pos, Command: cmd, Raw: raw, ResponseOffset: -1}
	switch cmd {
	case CmdDMAWrite, CmdDMARead:
		tx.Address = BE24(raw[1:4])
		tx.Count = uint32(BE16(raw[4:6]))
	case CmdInternalWrite:
		tx.Address = uint32(BE16(raw[1:3]))
		tx.Value = BE32(raw[3:7])
	case CmdInternalRead:
		tx.Address = uint32(BE16(raw[1:3]))
	}
	return tx, nil
}
