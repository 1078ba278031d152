// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Jan Hofmeier

package stream

import (
	"fmt"
	"io"
	"strings"

	"github.com/jan-hofmeier/winc-wifi/pkg/gop"
	"github.com/jan-hofmeier/winc-wifi/pkg/spi"
)

// FormatEvent formats an event into a human-readable string. Message
// events start with the heading of the transfer that carried them.
func FormatEvent(ev Event) string {
	return formatEvent(ev, true)
}

func formatEvent(ev Event, heading bool) string {
	switch ev.Kind {
	case EventTransaction:
		return spi.FormatTransaction(ev.Transaction)

	case EventMessage, EventUnknownMessage:
		var sb strings.Builder
		if heading {
			if ev.Transaction != nil {
				fmt.Fprintf(&sb, "[%d] %s\n", ev.Offset, ev.Transaction.Command)
			} else {
				fmt.Fprintf(&sb, "[%d]\n", ev.Offset)
			}
		}
		sb.WriteString(gop.FormatMessage(ev.Message, string(ev.Direction)))
		if ev.Resynced {
			fmt.Fprintf(&sb, "    (resynced at %s offset %d)\n", ev.Direction, ev.MessageOffset)
		}
		if ev.Chunks > 1 {
			fmt.Fprintf(&sb, "    (reassembled from %d chunks)\n", ev.Chunks)
		}
		return sb.String()

	case EventTruncated:
		return fmt.Sprintf("[%d] TRUNCATED: %v\n", ev.Offset, ev.Err)

	case EventFatal:
		return fmt.Sprintf("[%d] FATAL: %v\n", ev.Offset, ev.Err)
	}
	return ""
}

// TextOptions controls WriteText.
type TextOptions struct {
	// Verbose output already contains the carrying transactions, so
	// message events are written without a heading.
	Verbose bool
	// ErrorsOnly writes only events with anomalies.
	ErrorsOnly bool
}

// WriteText writes the event stream in its text form.
func WriteText(w io.Writer, events []Event, opts TextOptions) error {
	for _, ev := range events {
		if opts.ErrorsOnly && len(Anomalies(ev)) == 0 {
			continue
		}
		heading := !opts.Verbose || opts.ErrorsOnly
		if _, err := io.WriteString(w, formatEvent(ev, heading)); err != nil {
			return err
		}
	}
	return nil
}
