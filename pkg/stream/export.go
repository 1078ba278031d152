// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Jan Hofmeier

package stream

import (
	"encoding/json"
	"io"

	"github.com/fxamacker/cbor/v2"

	"github.com/jan-hofmeier/winc-wifi/pkg/spi"
)

// Summary is the serializable form of an event.
type Summary struct {
	Kind   string `json:"kind"`
	Offset int    `json:"offset"`

	Command  string  `json:"command,omitempty"`
	Address  *uint32 `json:"address,omitempty"`
	Register string  `json:"register,omitempty"`
	Value    *uint32 `json:"value,omitempty"`
	Count    *uint32 `json:"count,omitempty"`
	Response string  `json:"response,omitempty"`

	GOP           string `json:"gop,omitempty"`
	GOPID         uint16 `json:"gop_id,omitempty"`
	ReqData       bool   `json:"req_data,omitempty"`
	Direction     string `json:"direction,omitempty"`
	MessageOffset int    `json:"message_offset,omitempty"`
	Partial       bool   `json:"partial,omitempty"`
	Resynced      bool   `json:"resynced,omitempty"`
	Chunks        int    `json:"chunks,omitempty"`
	Payload       []byte `json:"payload,omitempty"`
	RecordKind    string `json:"record_kind,omitempty"`
	Record        string `json:"record,omitempty"`

	Error     string   `json:"error,omitempty"`
	Anomalies []string `json:"anomalies,omitempty"`
	Text      string   `json:"text"`
}

// Summarize converts an event into its serializable form.
func Summarize(ev Event) Summary {
	s := Summary{
		Kind:   ev.Kind.String(),
		Offset: ev.Offset,
		Text:   FormatEvent(ev),
	}
	if ev.Err != nil {
		s.Error = ev.Err.Error()
	}
	for _, a := range Anomalies(ev) {
		s.Anomalies = append(s.Anomalies, a.Message)
	}

	if tx := ev.Transaction; tx != nil {
		s.Command = tx.Command.String()
		if ev.Kind == EventTransaction {
			addr := tx.Address
			s.Address = &addr
			if tx.Command.IsSingle() {
				s.Register = spi.RegisterName(tx.Address)
				s.Response = tx.Response.String()
			}
			if tx.Command == spi.CmdSingleWrite || tx.HasValue {
				v := tx.Value
				s.Value = &v
			}
			if tx.Count > 0 {
				c := tx.Count
				s.Count = &c
			}
		}
	}

	if m := ev.Message; m != nil {
		s.GOP = m.Name()
		s.GOPID = uint16(m.ID())
		s.ReqData = m.Header.ReqData()
		s.Direction = string(ev.Direction)
		s.MessageOffset = ev.MessageOffset
		s.Partial = m.Partial
		s.Resynced = ev.Resynced
		s.Chunks = ev.Chunks
		s.Payload = m.Payload
		if m.Record != nil {
			s.RecordKind = m.Record.Kind()
			s.Record = m.Record.String()
		}
	}
	return s
}

// SummarizeAll converts every event.
func SummarizeAll(events []Event) []Summary {
	out := make([]Summary, 0, len(events))
	for _, ev := range events {
		out = append(out, Summarize(ev))
	}
	return out
}

// WriteJSON writes the summaries as an indented JSON array.
func WriteJSON(w io.Writer, events []Event) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(SummarizeAll(events))
}

// WriteCBOR writes the summaries as a CBOR array.
func WriteCBOR(w io.Writer, events []Event) error {
	return cbor.NewEncoder(w).Encode(SummarizeAll(events))
}

// ReadCBOR decodes summaries written by WriteCBOR.
func ReadCBOR(data []byte) ([]Summary, error) {
	var out []Summary
	if err := cbor.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}
