// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Jan Hofmeier

package capture

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ParseAnalyzerCSV reads a logic analyzer SPI export. The header row must
// name a MOSI and a MISO column; values are hex with a 0x prefix or
// decimal. Rows with an empty MOSI or MISO cell are skipped.
func ParseAnalyzerCSV(r io.Reader) (*Capture, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	head, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &LogFormatError{Line: 1, Reason: "empty CSV"}
		}
		return nil, err
	}

	mosiCol, misoCol := -1, -1
	for i, name := range head {
		switch strings.ToUpper(strings.TrimSpace(name)) {
		case "MOSI":
			mosiCol = i
		case "MISO":
			misoCol = i
		}
	}
	if mosiCol < 0 || misoCol < 0 {
		return nil, &LogFormatError{Line: 1, Reason: "header needs MOSI and MISO columns"}
	}

	c := &Capture{}
	line := 1
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, err
		}
		if mosiCol >= len(rec) || misoCol >= len(rec) {
			continue
		}
		if strings.TrimSpace(rec[mosiCol]) == "" || strings.TrimSpace(rec[misoCol]) == "" {
			continue
		}

		mosi, err := parseCell(rec[mosiCol])
		if err != nil {
			return nil, &LogFormatError{Line: line, Reason: err.Error()}
		}
		miso, err := parseCell(rec[misoCol])
		if err != nil {
			return nil, &LogFormatError{Line: line, Reason: err.Error()}
		}
		c.MOSI = append(c.MOSI, mosi)
		c.MISO = append(c.MISO, miso)
	}
	return c, nil
}

func parseCell(s string) (byte, error) {
	s = strings.TrimSpace(s)
	base := 10
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		s = s[2:]
		base = 16
	}
	v, err := strconv.ParseUint(s, base, 8)
	if err != nil {
		return 0, fmt.Errorf("bad byte value %q", s)
	}
	return byte(v), nil
}
