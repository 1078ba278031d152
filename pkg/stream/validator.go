// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Jan Hofmeier

package stream

import (
	"fmt"

	"github.com/jan-hofmeier/winc-wifi/pkg/spi"
)

// AnomalyType represents the conditions worth flagging in a decoded stream
type AnomalyType int

const (
	AnomalyNoResponse AnomalyType = iota
	AnomalyInvalidResponse
	AnomalyPartialMessage
	AnomalyParseError
	AnomalyUnknownMessage
	AnomalyTruncated
	AnomalyFatal
)

func (t AnomalyType) String() string {
	switch t {
	case AnomalyNoResponse:
		return "no_response"
	case AnomalyInvalidResponse:
		return "invalid_response"
	case AnomalyPartialMessage:
		return "partial_message"
	case AnomalyParseError:
		return "parse_error"
	case AnomalyUnknownMessage:
		return "unknown_message"
	case AnomalyTruncated:
		return "truncated"
	case AnomalyFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// Anomaly describes one flagged condition of an event
type Anomaly struct {
	Type    AnomalyType
	Message string
	Details map[string]interface{}
}

// Error implements the error interface
func (a *Anomaly) Error() string {
	return a.Message
}

// Anomalies returns the conditions flagged on ev (empty if the event is clean)
func Anomalies(ev Event) []Anomaly {
	anomalies := []Anomaly{}

	switch ev.Kind {
	case EventTransaction:
		tx := ev.Transaction
		switch tx.Response {
		case spi.ResponseMissing:
			anomalies = append(anomalies, Anomaly{
				Type:    AnomalyNoResponse,
				Message: fmt.Sprintf("%s at %d: no response on MISO", tx.Command, tx.Offset),
				Details: map[string]interface{}{"offset": tx.Offset},
			})
		case spi.ResponseInvalid:
			anomalies = append(anomalies, Anomaly{
				Type:    AnomalyInvalidResponse,
				Message: fmt.Sprintf("%s at %d: invalid response", tx.Command, tx.Offset),
				Details: map[string]interface{}{"offset": tx.Offset, "miso_offset": tx.ResponseOffset},
			})
		}

	case EventMessage, EventUnknownMessage:
		m := ev.Message
		if ev.Kind == EventUnknownMessage {
			anomalies = append(anomalies, Anomaly{
				Type:    AnomalyUnknownMessage,
				Message: fmt.Sprintf("%s at %d", m.Name(), ev.Offset),
				Details: map[string]interface{}{"id": uint16(m.ID())},
			})
		}
		if m.Partial {
			anomalies = append(anomalies, Anomaly{
				Type: AnomalyPartialMessage,
				Message: fmt.Sprintf("%s at %d: %d of %d payload bytes",
					m.Name(), ev.Offset, len(m.Payload), m.Header.PayloadLength()),
				Details: map[string]interface{}{"have": len(m.Payload), "want": m.Header.PayloadLength()},
			})
		}
		if m.ParseErr != nil {
			anomalies = append(anomalies, Anomaly{
				Type:    AnomalyParseError,
				Message: fmt.Sprintf("%s at %d: %v", m.Name(), ev.Offset, m.ParseErr),
			})
		}

	case EventTruncated:
		anomalies = append(anomalies, Anomaly{
			Type:    AnomalyTruncated,
			Message: ev.Err.Error(),
			Details: map[string]interface{}{"offset": ev.Offset},
		})

	case EventFatal:
		anomalies = append(anomalies, Anomaly{
			Type:    AnomalyFatal,
			Message: ev.Err.Error(),
			Details: map[string]interface{}{"offset": ev.Offset},
		})
	}

	return anomalies
}
