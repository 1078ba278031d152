// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Jan Hofmeier

package capture

import (
	"bufio"
	"encoding/hex"
	"fmt"
	"io"
	"strings"
)

// Markers printed by the probe firmware around each SPI transfer
const (
	txMarker = "Tx:"
	rxMarker = "Rx:"
)

// ParseTransferLog reads the transfer log printed by the probe firmware:
//
//	  Tx: CA 00 10 00 00 00 00 00 00 00 00
//	  Rx: 00 00 00 00 CA 00 F3 A0 02 15 00
//
// Each Tx line must be followed by an Rx line of the same length. Lines
// without a marker are console output and are skipped; the marker may
// follow other text on the same line.
func ParseTransferLog(r io.Reader) (*Capture, error) {
	c := &Capture{}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	var pending []byte
	pendingLine := 0
	line := 0

	for scanner.Scan() {
		line++
		text := scanner.Text()

		if i := strings.Index(text, txMarker); i >= 0 {
			if pending != nil {
				return nil, &LogFormatError{Line: pendingLine, Reason: "Tx without Rx"}
			}
			b, err := parseHexBytes(text[i+len(txMarker):])
			if err != nil {
				return nil, &LogFormatError{Line: line, Reason: err.Error()}
			}
			pending = b
			pendingLine = line
			continue
		}

		if i := strings.Index(text, rxMarker); i >= 0 {
			if pending == nil {
				return nil, &LogFormatError{Line: line, Reason: "Rx without Tx"}
			}
			b, err := parseHexBytes(text[i+len(rxMarker):])
			if err != nil {
				return nil, &LogFormatError{Line: line, Reason: err.Error()}
			}
			if len(b) != len(pending) {
				return nil, &LogFormatError{
					Line:   line,
					Reason: fmt.Sprintf("Rx has %d bytes, Tx has %d", len(b), len(pending)),
				}
			}
			c.MOSI = append(c.MOSI, pending...)
			c.MISO = append(c.MISO, b...)
			pending = nil
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if pending != nil {
		return nil, &LogFormatError{Line: pendingLine, Reason: "Tx without Rx"}
	}
	return c, nil
}

// parseHexBytes decodes whitespace separated two-digit hex bytes.
func parseHexBytes(s string) ([]byte, error) {
	fields := strings.Fields(s)
	out := make([]byte, 0, len(fields))
	for _, f := range fields {
		if len(f) != 2 {
			return nil, fmt.Errorf("bad hex byte %q", f)
		}
		b, err := hex.DecodeString(f)
		if err != nil {
			return nil, fmt.Errorf("bad hex byte %q", f)
		}
		out = append(out, b[0])
	}
	return out, nil
}

// WriteTransferLog writes c in the probe firmware's transfer log format,
// split into transfers of at most chunk bytes.
func WriteTransferLog(w io.Writer, c *Capture, chunk int) error {
	if len(c.MOSI) != len(c.MISO) {
		return fmt.Errorf("MOSI has %d bytes, MISO has %d", len(c.MOSI), len(c.MISO))
	}
	if chunk <= 0 {
		chunk = len(c.MOSI)
	}
	bw := bufio.NewWriter(w)
	for i := 0; i < len(c.MOSI); i += chunk {
		end := min(i+chunk, len(c.MOSI))
		writeHexLine(bw, "  "+txMarker, c.MOSI[i:end])
		writeHexLine(bw, "  "+rxMarker, c.MISO[i:end])
	}
	return bw.Flush()
}

func writeHexLine(w *bufio.Writer, prefix string, b []byte) {
	w.WriteString(prefix)
	for _, v := range b {
		fmt.Fprintf(w, " %02X", v)
	}
	w.WriteByte('\n')
}
