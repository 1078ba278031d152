// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Jan Hofmeier

// Package stream walks a MOSI/MISO capture, decoding SPI transactions and
// reassembling the HIF messages they carry into an ordered event stream.
package stream

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/jan-hofmeier/winc-wifi/pkg/gop"
	"github.com/jan-hofmeier/winc-wifi/pkg/spi"
)

// ReadWindowSlack is added to a ReadData count to size the MISO window
// searched for its response. The window starts at the shared MISO cursor,
// so back-to-back ReadData commands can find the same response.
const ReadWindowSlack = 100

// Option configures an Engine.
type Option func(*Engine)

// WithVerbose emits every SPI transaction, not only message events.
func WithVerbose(verbose bool) Option {
	return func(e *Engine) {
		e.verbose = verbose
	}
}

// WithLogger sets the diagnostic logger.
func WithLogger(log zerolog.Logger) Option {
	return func(e *Engine) {
		e.log = log
	}
}

// Engine decodes one capture. It owns the MOSI and MISO cursors; an Engine
// must not be shared between goroutines.
type Engine struct {
	mosi []byte
	miso []byte

	pos     int // MOSI cursor
	misoPos int // MISO cursor, advanced by single-register responses

	verbose bool
	log     zerolog.Logger

	events []Event
	stats  *Statistics
}

// Result is the outcome of a decode run.
type Result struct {
	Events []Event
	Stats  *Statistics
	Err    error // fatal error that stopped the run, nil otherwise

	// Cursor positions when the run ended
	MOSIPos int
	MISOPos int
}

// NewEngine creates an engine over the two capture buffers. The buffers
// are read, never modified.
func NewEngine(mosi, miso []byte, opts ...Option) *Engine {
	e := &Engine{
		mosi: mosi,
		miso: miso,
		log:  zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Decode is a shorthand for NewEngine(mosi, miso, opts...).Decode().
func Decode(mosi, miso []byte, opts ...Option) (*Result, error) {
	return NewEngine(mosi, miso, opts...).Decode()
}

// Decode runs the capture from the start. The returned result holds every
// event up to and including a fatal one; the error is that fatal error.
func (e *Engine) Decode() (*Result, error) {
	e.pos = 0
	e.misoPos = 0
	e.events = nil
	e.stats = NewStatistics()
	e.stats.MOSIBytes = len(e.mosi)
	e.stats.MISOBytes = len(e.miso)
	start := time.Now()

	err := e.run()

	e.stats.Elapsed = time.Since(start)
	e.log.Debug().
		Int("events", len(e.events)).
		Int("mosi_pos", e.pos).
		Int("miso_pos", e.misoPos).
		Dur("elapsed", e.stats.Elapsed).
		Msg("decode finished")

	return &Result{
		Events:  e.events,
		Stats:   e.stats,
		Err:     err,
		MOSIPos: e.pos,
		MISOPos: e.misoPos,
	}, err
}

// DecodeMessage decodes a single message whose header starts at data[0],
// outside of any capture.
func (e *Engine) DecodeMessage(data []byte, dir Direction) (Event, error) {
	m, err := gop.Decode(data)
	if err != nil {
		return Event{}, err
	}
	return e.messageEvent(nil, m, dir, 0, false, 0), nil
}

func (e *Engine) run() error {
	for e.pos < len(e.mosi) {
		if e.mosi[e.pos] == spi.Padding {
			e.pos++
			e.stats.PaddingBytes++
			continue
		}

		tx, misoPos, err := spi.Decode(e.mosi, e.pos, e.miso, e.misoPos)
		if err != nil {
			if spi.IsTruncated(err) {
				e.log.Warn().Err(err).Int("offset", e.pos).Msg("capture truncated")
				e.emit(Event{Kind: EventTruncated, Offset: e.pos, Err: err})
				return nil
			}
			e.log.Error().Err(err).Int("offset", e.pos).Msg("decode aborted")
			e.emit(Event{Kind: EventFatal, Offset: e.pos, Err: err})
			return err
		}
		e.misoPos = misoPos
		e.transaction(tx)

		switch tx.Command {
		case spi.CmdWriteData:
			e.pos = e.writeData(tx)
		case spi.CmdReadData:
			e.readData(tx)
			e.pos = tx.End()
		default:
			e.pos = tx.End()
		}
	}
	return nil
}

// writeData handles a bulk write and returns the next MOSI cursor.
func (e *Engine) writeData(tx *spi.Transaction) int {
	if !gop.IsHeader(tx.Payload) {
		if off, m := gop.Scan(tx.Payload); m != nil {
			abs := tx.Offset + spi.BulkPayloadOffset + off
			e.log.Debug().Int("offset", abs).Str("gop", m.Name()).Msg("resync hit in write data")
			e.emit(e.messageEvent(tx, m, MOSI, abs, true, 1))
		}
		return tx.End()
	}

	h, _ := gop.ParseHeader(tx.Payload)
	want := h.PayloadLength()
	end := tx.End()
	chunks := 1
	var payload []byte

	e.log.Debug().Int("offset", tx.Offset).Str("gop", h.ID().String()).Int("length", want).Msg("reassembly start")

	for len(payload) < want {
		next := end
		for next < len(e.mosi) && e.mosi[next] == spi.Padding {
			next++
		}
		if next >= len(e.mosi) || spi.Command(e.mosi[next]) != spi.CmdWriteData {
			break
		}
		chunk, _, err := spi.Decode(e.mosi, next, e.miso, e.misoPos)
		if err != nil {
			// The outer loop reports the truncated frame.
			break
		}
		e.transaction(chunk)
		payload = append(payload, chunk.Payload...)
		chunks++
		end = chunk.End()
	}

	m := gop.NewMessage(h, payload)
	if m.Partial {
		e.log.Warn().
			Int("offset", tx.Offset).
			Str("gop", m.Name()).
			Int("have", len(m.Payload)).
			Int("want", want).
			Msg("partial reassembly")
	}
	e.emit(e.messageEvent(tx, m, MOSI, tx.Offset+spi.BulkPayloadOffset, false, chunks))
	return end
}

// readData searches the MISO window following the cursor for a response
// message. The cursor itself is left alone.
func (e *Engine) readData(tx *spi.Transaction) {
	start := min(e.misoPos, len(e.miso))
	stop := min(start+int(tx.Count)+ReadWindowSlack, len(e.miso))

	off, m := gop.Scan(e.miso[start:stop])
	if m == nil {
		return
	}
	e.log.Debug().Int("offset", start+off).Str("gop", m.Name()).Msg("resync hit in read window")
	e.emit(e.messageEvent(tx, m, MISO, start+off, true, 0))
}

func (e *Engine) transaction(tx *spi.Transaction) {
	ev := Event{Kind: EventTransaction, Offset: tx.Offset, Transaction: tx}
	anomaly := false
	switch tx.Response {
	case spi.ResponseMissing:
		e.log.Warn().Int("offset", tx.Offset).Str("cmd", tx.Command.String()).Msg("no response")
		anomaly = true
	case spi.ResponseInvalid:
		e.log.Warn().Int("offset", tx.Offset).Str("cmd", tx.Command.String()).Msg("invalid response")
		anomaly = true
	}
	// Response anomalies are always reported, quiet runs included.
	if e.verbose || anomaly {
		e.emit(ev)
		return
	}
	e.stats.Update(ev)
}

func (e *Engine) messageEvent(tx *spi.Transaction, m *gop.Message, dir Direction, at int, resynced bool, chunks int) Event {
	ev := Event{
		Kind:          EventMessage,
		Transaction:   tx,
		Message:       m,
		Direction:     dir,
		MessageOffset: at,
		Resynced:      resynced,
		Chunks:        chunks,
	}
	if tx != nil {
		ev.Offset = tx.Offset
	}
	if !m.Known() {
		ev.Kind = EventUnknownMessage
	}
	return ev
}

func (e *Engine) emit(ev Event) {
	if e.stats != nil {
		e.stats.Update(ev)
	}
	e.events = append(e.events, ev)
}
