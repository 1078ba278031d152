// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Jan Hofmeier
//
// winc-spi - WINC1500 SPI Capture Decoder
//
// A CLI tool for decoding captured SPI traffic between a host and a
// WINC1500 module into SPI transactions and host interface messages.

package main

import (
	"os"

	"github.com/jan-hofmeier/winc-wifi/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
