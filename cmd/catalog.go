// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Jan Hofmeier

package cmd

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/jan-hofmeier/winc-wifi/pkg/config"
	"github.com/jan-hofmeier/winc-wifi/pkg/gop"
	"github.com/jan-hofmeier/winc-wifi/pkg/service"
	"github.com/jan-hofmeier/winc-wifi/pkg/spi"
)

var catalogFormat string

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "List known host interface messages and registers",
	RunE:  runCatalog,
}

func init() {
	rootCmd.AddCommand(catalogCmd)
	catalogCmd.Flags().StringVarP(&catalogFormat, "format", "f", config.FormatText, "Output format (text, json)")
}

func runCatalog(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	messages := gop.Catalog()
	registers := spi.Registers()

	if catalogFormat == config.FormatJSON {
		return writeJSON(out, service.CatalogResponse{Messages: messages, Registers: registers})
	}
	if catalogFormat != config.FormatText {
		return fmt.Errorf("unsupported format %q (expected text or json)", catalogFormat)
	}

	msgTable := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(headerStyle).
		Headers("ID", "GROUP", "OP", "NAME", "PARSED")
	for _, e := range messages {
		parsed := ""
		if e.HasParser {
			parsed = "yes"
		}
		msgTable.Row(fmt.Sprintf("0x%04x", uint16(e.ID)), e.Group, fmt.Sprintf("%d", e.Opcode), e.Name, parsed)
	}

	regTable := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(headerStyle).
		Headers("ADDRESS", "NAME")
	for _, r := range registers {
		regTable.Row(fmt.Sprintf("0x%06x", r.Address), r.Name)
	}

	fmt.Fprintln(out, labelStyle.Render("Messages"))
	fmt.Fprintln(out, msgTable.Render())
	fmt.Fprintln(out, labelStyle.Render("Registers"))
	fmt.Fprintln(out, regTable.Render())
	return nil
}
