// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Jan Hofmeier

package cmd

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jan-hofmeier/winc-wifi/pkg/config"
	"github.com/jan-hofmeier/winc-wifi/pkg/gop"
	"github.com/jan-hofmeier/winc-wifi/pkg/stream"
)

var (
	gopDirection string
	gopFormat    string
)

var gopCmd = &cobra.Command{
	Use:   "gop HEX...",
	Short: "Decode a single host interface message",
	Long: `Decode one host interface message given as hex bytes, starting with the
8-byte header (group, opcode, length:16 little-endian, 4 reserved).

Bytes may be separated by spaces or colons and carry a 0x prefix:
  winc-spi gop 02 49 08 00 00 00 00 00
  winc-spi gop 0x01:0x2c:0x0c:0x00:0:0:0:0:0x01:0:0:0`,
	Args: cobra.MinimumNArgs(1),
	RunE: runGop,
}

func init() {
	rootCmd.AddCommand(gopCmd)
	gopCmd.Flags().StringVar(&gopDirection, "direction", string(stream.MOSI), "Direction label (MOSI or MISO)")
	gopCmd.Flags().StringVarP(&gopFormat, "format", "f", config.FormatText, "Output format (text, json)")
}

// parseHexArgs joins the arguments into one byte slice
func parseHexArgs(args []string) ([]byte, error) {
	var digits strings.Builder
	for _, arg := range args {
		for _, field := range strings.FieldsFunc(arg, func(r rune) bool {
			return r == ':' || r == ',' || r == ' '
		}) {
			field = strings.TrimPrefix(strings.TrimPrefix(field, "0x"), "0X")
			if len(field) == 1 {
				field = "0" + field
			}
			digits.WriteString(field)
		}
	}
	return hex.DecodeString(digits.String())
}

func runGop(cmd *cobra.Command, args []string) error {
	data, err := parseHexArgs(args)
	if err != nil {
		return fmt.Errorf("invalid hex: %w", err)
	}

	dir := stream.Direction(strings.ToUpper(gopDirection))
	if dir != stream.MOSI && dir != stream.MISO {
		return fmt.Errorf("unsupported direction %q (expected MOSI or MISO)", gopDirection)
	}

	ev, err := stream.NewEngine(nil, nil, stream.WithLogger(logger)).DecodeMessage(data, dir)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	switch gopFormat {
	case config.FormatText:
		fmt.Fprint(out, gop.FormatMessage(ev.Message, string(ev.Direction)))
		for _, a := range stream.Anomalies(ev) {
			fmt.Fprintln(out, warningStyle.Render("! "+a.Message))
		}
		return nil
	case config.FormatJSON:
		return writeJSON(out, stream.Summarize(ev))
	default:
		return fmt.Errorf("unsupported format %q (expected text or json)", gopFormat)
	}
}
