// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Jan Hofmeier

package stream

import (
	"fmt"
	"sort"
	"time"
)

// Statistics tracks decode counters for one run
type Statistics struct {
	Elapsed time.Duration `json:"elapsed"`

	MOSIBytes    int    `json:"mosi_bytes"`
	MISOBytes    int    `json:"miso_bytes"`
	PaddingBytes uint64 `json:"padding_bytes"`

	// Counters
	Transactions     uint64            `json:"transactions"`
	Commands         map[string]uint64 `json:"commands"`
	Messages         uint64            `json:"messages"`
	UnknownMessages  uint64            `json:"unknown_messages"`
	PartialMessages  uint64            `json:"partial_messages"`
	ResyncedMessages uint64            `json:"resynced_messages"`
	ParseErrors      uint64            `json:"parse_errors"`
	NoResponse       uint64            `json:"no_response"`
	InvalidResponses uint64            `json:"invalid_responses"`
	Truncated        uint64            `json:"truncated"`
	Fatal            uint64            `json:"fatal"`
}

// NewStatistics creates an empty statistics tracker
func NewStatistics() *Statistics {
	return &Statistics{Commands: map[string]uint64{}}
}

// Update counts an event and its anomalies
func (s *Statistics) Update(ev Event) {
	switch ev.Kind {
	case EventTransaction:
		s.Transactions++
		s.Commands[ev.Transaction.Command.String()]++
	case EventMessage, EventUnknownMessage:
		s.Messages++
		if ev.Resynced {
			s.ResyncedMessages++
		}
	}

	for _, a := range Anomalies(ev) {
		switch a.Type {
		case AnomalyNoResponse:
			s.NoResponse++
		case AnomalyInvalidResponse:
			s.InvalidResponses++
		case AnomalyPartialMessage:
			s.PartialMessages++
		case AnomalyParseError:
			s.ParseErrors++
		case AnomalyUnknownMessage:
			s.UnknownMessages++
		case AnomalyTruncated:
			s.Truncated++
		case AnomalyFatal:
			s.Fatal++
		}
	}
}

// String returns a formatted statistics summary
func (s *Statistics) String() string {
	result := fmt.Sprintf("=== Statistics (%s) ===\n", s.Elapsed.Round(time.Microsecond))
	result += fmt.Sprintf("MOSI Bytes:      %8d\n", s.MOSIBytes)
	result += fmt.Sprintf("MISO Bytes:      %8d\n", s.MISOBytes)
	result += fmt.Sprintf("Padding Bytes:   %8d\n", s.PaddingBytes)
	result += fmt.Sprintf("Transactions:    %8d\n", s.Transactions)

	names := make([]string, 0, len(s.Commands))
	for name := range s.Commands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		result += fmt.Sprintf("  %-20s %5d\n", name, s.Commands[name])
	}

	result += fmt.Sprintf("Messages:        %8d\n", s.Messages)
	if s.ResyncedMessages > 0 {
		result += fmt.Sprintf("  Resynced:         %5d\n", s.ResyncedMessages)
	}
	if s.PartialMessages > 0 {
		result += fmt.Sprintf("  Partial:          %5d\n", s.PartialMessages)
	}
	if s.UnknownMessages > 0 {
		result += fmt.Sprintf("  Unknown:          %5d\n", s.UnknownMessages)
	}
	if s.ParseErrors > 0 {
		result += fmt.Sprintf("  Parse Errors:     %5d\n", s.ParseErrors)
	}
	if s.NoResponse > 0 {
		result += fmt.Sprintf("No Response:     %8d\n", s.NoResponse)
	}
	if s.InvalidResponses > 0 {
		result += fmt.Sprintf("Invalid Resp:    %8d\n", s.InvalidResponses)
	}
	if s.Truncated > 0 {
		result += "Capture truncated\n"
	}
	if s.Fatal > 0 {
		result += "Decode aborted (fatal error)\n"
	}
	result += "================================\n"

	return result
}

// Reset resets all statistics counters
func (s *Statistics) Reset() {
	*s = Statistics{Commands: map[string]uint64{}}
}
