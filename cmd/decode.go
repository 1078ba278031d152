// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Jan Hofmeier

package cmd

import (
	"fmt"
	"io"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fxamacker/cbor/v2"
	"github.com/spf13/cobra"

	"github.com/jan-hofmeier/winc-wifi/pkg/capture"
	"github.com/jan-hofmeier/winc-wifi/pkg/config"
	"github.com/jan-hofmeier/winc-wifi/pkg/pcapexport"
	"github.com/jan-hofmeier/winc-wifi/pkg/service"
	"github.com/jan-hofmeier/winc-wifi/pkg/store"
	"github.com/jan-hofmeier/winc-wifi/pkg/stream"
)

var (
	decodeMOSI       string
	decodeMISO       string
	decodeVerbose    bool
	decodeFormat     string
	decodeErrorsOnly bool
	decodeStats      bool
	decodeTUI        bool
	decodePcap       string
	decodeSave       string
	decodeRemote     string
	decodeOutput     string
)

var decodeCmd = &cobra.Command{
	Use:   "decode [PATH]",
	Short: "Decode a captured MOSI/MISO stream",
	Long: `Decode SPI commands and host interface messages from a capture.

PATH selects the capture:
  directory   mosi.bin and miso.bin inside it (default: current directory)
  *.log|*.txt firmware transfer log (Tx:/Rx: lines)
  *.csv       logic analyzer SPI export with MOSI and MISO columns

--mosi and --miso name the two binary files directly.

By default only messages are shown. --verbose adds every SPI transaction.
A framing error or unknown command stops the decode; everything decoded up
to that point is still reported.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runDecode,
}

func init() {
	rootCmd.AddCommand(decodeCmd)
	decodeCmd.Flags().StringVar(&decodeMOSI, "mosi", "", "MOSI binary file")
	decodeCmd.Flags().StringVar(&decodeMISO, "miso", "", "MISO binary file")
	decodeCmd.Flags().BoolVarP(&decodeVerbose, "verbose", "v", false, "Show every SPI transaction")
	decodeCmd.Flags().StringVarP(&decodeFormat, "format", "f", config.FormatText, "Output format (text, json, cbor)")
	decodeCmd.Flags().BoolVar(&decodeErrorsOnly, "errors-only", false, "Show only events with anomalies")
	decodeCmd.Flags().BoolVar(&decodeStats, "stats", false, "Print statistics after the events")
	decodeCmd.Flags().BoolVar(&decodeTUI, "tui", false, "Browse the events in a terminal UI")
	decodeCmd.Flags().StringVar(&decodePcap, "pcap", "", "Write SEND payloads as UDP packets to a pcap file")
	decodeCmd.Flags().StringVar(&decodeSave, "save", "", "Save the run to history under this name")
	decodeCmd.Flags().StringVar(&decodeRemote, "remote", "", "Decode on a winc-spi server (http://host:port)")
	decodeCmd.Flags().StringVarP(&decodeOutput, "output", "o", "", "Write output to a file instead of stdout")
}

// decodeResult is the outcome of a local or remote decode. events is nil
// for remote runs.
type decodeResult struct {
	events    []stream.Event
	summaries []stream.Summary
	stats     *stream.Statistics
	err       error
}

func loadCapture(args []string) (*capture.Capture, string, error) {
	if decodeMOSI != "" || decodeMISO != "" {
		if decodeMOSI == "" || decodeMISO == "" {
			return nil, "", fmt.Errorf("--mosi and --miso must be given together")
		}
		c, err := capture.LoadBinary(decodeMOSI, decodeMISO)
		return c, decodeMOSI + "," + decodeMISO, err
	}

	path := "."
	if len(args) > 0 {
		path = args[0]
	}
	c, err := capture.Load(path)
	return c, path, err
}

func runDecode(cmd *cobra.Command, args []string) error {
	if cmd.Flags().Changed("verbose") {
		cfg.Verbose = decodeVerbose
	}
	if cmd.Flags().Changed("format") {
		cfg.Format = decodeFormat
	}
	if cmd.Flags().Changed("errors-only") {
		cfg.ErrorsOnly = decodeErrorsOnly
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if decodeRemote != "" && decodePcap != "" {
		return fmt.Errorf("--pcap needs a local decode, it cannot be combined with --remote")
	}

	c, source, err := loadCapture(args)
	if err != nil {
		return fmt.Errorf("loading capture: %w", err)
	}
	logger.Info().
		Str("source", source).
		Int("mosi_bytes", len(c.MOSI)).
		Int("miso_bytes", len(c.MISO)).
		Msg("capture loaded")

	res, err := decodeCapture(c)
	if err != nil {
		return err
	}

	if decodePcap != "" {
		if err := writePcap(decodePcap, res.events); err != nil {
			return err
		}
	}

	if decodeSave != "" {
		id, err := saveRun(decodeSave, source, c, res)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Saved run %d (%s)\n", id, decodeSave)
	}

	if decodeTUI {
		title := fmt.Sprintf("%s (%d MOSI / %d MISO bytes)", source, len(c.MOSI), len(c.MISO))
		p := tea.NewProgram(newBrowserModel(title, res.summaries, res.stats, cfg.ErrorsOnly), tea.WithAltScreen())
		if _, err := p.Run(); err != nil {
			return err
		}
		return res.err
	}

	out := cmd.OutOrStdout()
	if decodeOutput != "" {
		f, err := os.Create(decodeOutput)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}

	if err := writeResult(out, res); err != nil {
		return err
	}
	if decodeStats && res.stats != nil {
		fmt.Fprint(cmd.ErrOrStderr(), renderStats(res.stats))
	}
	return res.err
}

func decodeCapture(c *capture.Capture) (*decodeResult, error) {
	if decodeRemote != "" {
		resp, err := service.NewClient(decodeRemote).Decode(c.MOSI, c.MISO, cfg.Verbose)
		if err != nil {
			return nil, fmt.Errorf("remote decode: %w", err)
		}
		res := &decodeResult{summaries: resp.Events, stats: resp.Stats}
		if resp.Error != "" {
			res.err = fmt.Errorf("%s", resp.Error)
		}
		return res, nil
	}

	r, err := stream.Decode(c.MOSI, c.MISO,
		stream.WithVerbose(cfg.Verbose),
		stream.WithLogger(logger),
	)
	return &decodeResult{
		events:    r.Events,
		summaries: stream.SummarizeAll(r.Events),
		stats:     r.Stats,
		err:       err,
	}, nil
}

func writeResult(w io.Writer, res *decodeResult) error {
	summaries := res.summaries
	if cfg.ErrorsOnly {
		summaries = []stream.Summary{}
		for _, s := range res.summaries {
			if len(s.Anomalies) > 0 {
				summaries = append(summaries, s)
			}
		}
	}

	switch cfg.Format {
	case config.FormatJSON:
		return writeJSON(w, summaries)
	case config.FormatCBOR:
		return cbor.NewEncoder(w).Encode(summaries)
	}

	if res.events != nil {
		return stream.WriteText(w, res.events, stream.TextOptions{
			Verbose:    cfg.Verbose,
			ErrorsOnly: cfg.ErrorsOnly,
		})
	}
	for _, s := range summaries {
		if _, err := io.WriteString(w, s.Text); err != nil {
			return err
		}
	}
	return nil
}

func writePcap(path string, events []stream.Event) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	n, err := pcapexport.WriteEvents(f, events)
	if err != nil {
		return fmt.Errorf("writing pcap: %w", err)
	}
	logger.Info().Str("path", path).Int("packets", n).Msg("pcap written")
	return nil
}

func saveRun(name, source string, c *capture.Capture, res *decodeResult) (uint64, error) {
	st, err := store.Open(cfg.StorePath)
	if err != nil {
		return 0, err
	}
	defer st.Close()

	run := &store.Run{
		Name:      name,
		Source:    source,
		CreatedAt: time.Now().UTC(),
		Verbose:   cfg.Verbose,
		MOSIBytes: len(c.MOSI),
		MISOBytes: len(c.MISO),
		Stats:     res.stats,
		Events:    res.summaries,
	}
	if res.err != nil {
		run.Error = res.err.Error()
	}
	return st.Save(run, c)
}
