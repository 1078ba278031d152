// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Jan Hofmeier

package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/jan-hofmeier/winc-wifi/pkg/capture"
)

var (
	captureDir  string
	captureIdle time.Duration
)

var captureCmd = &cobra.Command{
	Use:   "capture",
	Short: "Collect a capture from the probe console",
	Long: `Read the transfer log printed by the probe firmware and save it as a capture.

The probe prints every SPI transfer as a Tx: line followed by an Rx: line.
Collection ends when the connection closes, when no data arrived for
--idle, or on Ctrl+C. The directory then holds mosi.bin, miso.bin and the
raw transfer.log, ready for 'winc-spi decode DIR'.

Supports both serial and WebSocket connections.`,
	RunE: runCapture,
}

func init() {
	rootCmd.AddCommand(captureCmd)
	captureCmd.Flags().StringVarP(&captureDir, "dir", "d", "capture", "Output directory")
	captureCmd.Flags().DurationVar(&captureIdle, "idle", 0, "Stop after this long without data (default from config)")
}

func runCapture(cmd *cobra.Command, args []string) error {
	idle := cfg.IdleTimeout
	if cmd.Flags().Changed("idle") {
		idle = captureIdle
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	conn, connInfo, err := OpenConnection(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	out := cmd.ErrOrStderr()
	fmt.Fprintf(out, "winc-spi - Capture\n")
	fmt.Fprintf(out, "Connection: %s\n", connInfo)
	fmt.Fprintf(out, "Press Ctrl+C to stop\n\n")

	collector := &capture.Collector{
		Idle: idle,
		Progress: func(total int) {
			fmt.Fprintf(out, "\rReceived %d bytes", total)
		},
	}

	c, raw, err := collector.CollectTransferLog(ctx, conn)
	fmt.Fprintln(out)
	if len(raw) > 0 {
		if mkErr := os.MkdirAll(captureDir, 0755); mkErr != nil {
			return mkErr
		}
		logPath := filepath.Join(captureDir, capture.LogFile)
		if wErr := os.WriteFile(logPath, raw, 0644); wErr != nil {
			return wErr
		}
		logger.Info().Str("path", logPath).Int("bytes", len(raw)).Msg("transfer log written")
	}
	if err != nil {
		return fmt.Errorf("collecting transfer log: %w", err)
	}
	if len(c.MOSI) == 0 {
		return fmt.Errorf("no transfers received")
	}

	if err := c.Save(captureDir); err != nil {
		return err
	}
	fmt.Fprintf(out, "Saved %d bytes per direction to %s\n", len(c.MOSI), captureDir)
	return nil
}
