// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Jan Hofmeier

package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jan-hofmeier/winc-wifi/pkg/service"
)

var serveListen string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the decoder over HTTP",
	Long: `Run an HTTP server exposing the decoder:

  POST /api/decode      {"mosi": base64, "miso": base64, "verbose": bool}
  POST /api/decode/log  transfer log text, ?verbose=true
  GET  /api/catalog     message and register tables
  GET  /healthz

'winc-spi decode --remote http://host:port' sends captures to it.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVarP(&serveListen, "listen", "l", "", "Listen address (default from config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	addr := cfg.Listen
	if cmd.Flags().Changed("listen") {
		addr = serveListen
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return service.NewServer(logger).ListenAndServe(ctx, addr)
}
