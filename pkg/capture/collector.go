// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Jan Hofmeier

package capture

import (
	"bytes"
	"context"
	"errors"
	"io"
	"time"
)

// Collector accumulates a transfer log streamed from the probe console.
type Collector struct {
	// Idle ends collection once no data arrived for this long. Zero waits
	// for EOF or cancellation.
	Idle time.Duration
	// Progress, when set, is called with the running byte count.
	Progress func(total int)
}

type readResult struct {
	data []byte
	err  error
}

// Collect reads r until EOF, an idle timeout, or ctx is done, and returns
// everything read. The reader is not closed; closing it unblocks a
// pending read.
func (c *Collector) Collect(ctx context.Context, r io.Reader) ([]byte, error) {
	chunks := make(chan readResult)
	done := make(chan struct{})
	defer close(done)

	go func() {
		buf := make([]byte, 4096)
		for {
			n, err := r.Read(buf)
			res := readResult{data: append([]byte(nil), buf[:n]...), err: err}
			select {
			case chunks <- res:
			case <-done:
				return
			}
			if err != nil {
				return
			}
		}
	}()

	var out bytes.Buffer
	var idle <-chan time.Time
	var timer *time.Timer
	if c.Idle > 0 {
		timer = time.NewTimer(c.Idle)
		defer timer.Stop()
		idle = timer.C
	}

	for {
		select {
		case <-ctx.Done():
			return out.Bytes(), nil
		case <-idle:
			return out.Bytes(), nil
		case res := <-chunks:
			out.Write(res.data)
			if len(res.data) > 0 {
				if c.Progress != nil {
					c.Progress(out.Len())
				}
				if timer != nil {
					if !timer.Stop() {
						select {
						case <-timer.C:
						default:
						}
					}
					timer.Reset(c.Idle)
				}
			}
			if res.err != nil {
				if errors.Is(res.err, io.EOF) {
					return out.Bytes(), nil
				}
				return out.Bytes(), res.err
			}
		}
	}
}

// CollectTransferLog collects from r and parses the result as a transfer
// log. The raw log text is returned alongside the capture.
func (c *Collector) CollectTransferLog(ctx context.Context, r io.Reader) (*Capture, []byte, error) {
	raw, err := c.Collect(ctx, r)
	if err != nil {
		return nil, raw, err
	}
	capt, err := ParseTransferLog(bytes.NewReader(raw))
	return capt, raw, err
}
