// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Jan Hofmeier

package cmd

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/jan-hofmeier/winc-wifi/pkg/store"
)

var (
	historyShowEvents bool
	historyExport     string
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Manage saved decode runs",
	Long: `Saved runs are created with 'winc-spi decode --save NAME' and kept in the
history database (store_path in the config file).`,
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved runs",
	Args:  cobra.NoArgs,
	RunE:  runHistoryList,
}

var historyShowCmd = &cobra.Command{
	Use:   "show ID",
	Short: "Show a saved run",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryShow,
}

var historyDeleteCmd = &cobra.Command{
	Use:   "delete ID",
	Short: "Delete a saved run",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryDelete,
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.AddCommand(historyListCmd, historyShowCmd, historyDeleteCmd)
	historyShowCmd.Flags().BoolVarP(&historyShowEvents, "events", "e", false, "Print the stored events")
	historyShowCmd.Flags().StringVar(&historyExport, "export", "", "Write the stored capture to this directory")
}

func openHistory() (*store.Store, error) {
	return store.Open(cfg.StorePath)
}

func parseRunID(arg string) (uint64, error) {
	id, err := strconv.ParseUint(arg, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid run ID %q", arg)
	}
	return id, nil
}

func runHistoryList(cmd *cobra.Command, args []string) error {
	st, err := openHistory()
	if err != nil {
		return err
	}
	defer st.Close()

	runs, err := st.List()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(runs) == 0 {
		fmt.Fprintln(out, headerStyle.Render("(no saved runs)"))
		return nil
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(headerStyle).
		Headers("ID", "NAME", "CREATED", "MOSI", "MESSAGES", "STATUS")
	for _, r := range runs {
		var messages uint64
		if r.Stats != nil {
			messages = r.Stats.Messages
		}
		t.Row(
			strconv.FormatUint(r.ID, 10),
			r.Name,
			r.CreatedAt.Local().Format(time.DateTime),
			strconv.Itoa(r.MOSIBytes),
			strconv.FormatUint(messages, 10),
			runStatus(&r),
		)
	}
	fmt.Fprintln(out, t.Render())
	return nil
}

func runStatus(r *store.Run) string {
	if r.Error != "" {
		return "aborted"
	}
	if r.Stats != nil && r.Stats.Truncated > 0 {
		return "truncated"
	}
	return "ok"
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	id, err := parseRunID(args[0])
	if err != nil {
		return err
	}

	st, err := openHistory()
	if err != nil {
		return err
	}
	defer st.Close()

	run, err := st.Get(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("run %d not found", id)
		}
		return err
	}

	out := cmd.OutOrStdout()
	writeRunHeader(out, run)

	if historyShowEvents {
		fmt.Fprintln(out)
		for _, s := range run.Events {
			io.WriteString(out, s.Text)
		}
	}

	if historyExport != "" {
		c, err := st.Capture(id)
		if err != nil {
			return err
		}
		if err := c.Save(historyExport); err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Capture written to %s\n", historyExport)
	}
	return nil
}

func writeRunHeader(w io.Writer, run *store.Run) {
	fmt.Fprintln(w, titleStyle.Render(fmt.Sprintf("Run %d: %s", run.ID, run.Name)))
	fmt.Fprintf(w, "%s %s\n", labelStyle.Render("Source:"), run.Source)
	fmt.Fprintf(w, "%s %s\n", labelStyle.Render("Created:"), run.CreatedAt.Local().Format(time.DateTime))
	fmt.Fprintf(w, "%s %d MOSI / %d MISO bytes, verbose=%t\n",
		labelStyle.Render("Input:"), run.MOSIBytes, run.MISOBytes, run.Verbose)
	fmt.Fprintf(w, "%s %d\n", labelStyle.Render("Events:"), len(run.Events))
	if run.Error != "" {
		fmt.Fprintf(w, "%s %s\n", labelStyle.Render("Error:"), errorStyle.Render(run.Error))
	}
	if run.Stats != nil {
		fmt.Fprint(w, renderStats(run.Stats))
	}
	anomalies := 0
	for _, s := range run.Events {
		if len(s.Anomalies) > 0 {
			anomalies++
		}
	}
	if anomalies > 0 {
		fmt.Fprintln(w, warningStyle.Render(fmt.Sprintf("%d events with anomalies", anomalies)))
	}
}

func runHistoryDelete(cmd *cobra.Command, args []string) error {
	id, err := parseRunID(args[0])
	if err != nil {
		return err
	}

	st, err := openHistory()
	if err != nil {
		return err
	}
	defer st.Close()

	if err := st.Delete(id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("run %d not found", id)
		}
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted run %d\n", id)
	return nil
}
