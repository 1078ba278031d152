// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Jan Hofmeier

// Package capture loads MOSI/MISO byte buffers from the formats SPI
// captures are stored in.
package capture

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// File names used by Save and LoadDir
const (
	MOSIFile = "mosi.bin"
	MISOFile = "miso.bin"
	LogFile  = "transfer.log"
)

// Capture is a pair of buffers clocked together on the bus.
type Capture struct {
	MOSI []byte
	MISO []byte
}

// LogFormatError reports a malformed line in a text capture.
type LogFormatError struct {
	Line   int
	Reason string
}

func (e *LogFormatError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Reason)
}

// LoadBinary reads a capture stored as two raw files.
func LoadBinary(mosiPath, misoPath string) (*Capture, error) {
	mosi, err := os.ReadFile(mosiPath)
	if err != nil {
		return nil, fmt.Errorf("reading MOSI: %w", err)
	}
	miso, err := os.ReadFile(misoPath)
	if err != nil {
		return nil, fmt.Errorf("reading MISO: %w", err)
	}
	return &Capture{MOSI: mosi, MISO: miso}, nil
}

// LoadDir reads a capture written by Save.
func LoadDir(dir string) (*Capture, error) {
	return LoadBinary(filepath.Join(dir, MOSIFile), filepath.Join(dir, MISOFile))
}

// Save writes the capture as two raw files in dir, creating it if needed.
func (c *Capture) Save(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(dir, MOSIFile), c.MOSI, 0644); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, MISOFile), c.MISO, 0644)
}

// Load reads a capture from path, choosing the format by extension: .csv
// for an analyzer export, .log or .txt for a transfer log. A directory is
// read with LoadDir.
func Load(path string) (*Capture, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return LoadDir(path)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return ParseAnalyzerCSV(f)
	case ".log", ".txt":
		return ParseTransferLog(f)
	default:
		return nil, fmt.Errorf("unsupported capture format: %s", path)
	}
}
