// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Jan Hofmeier

package store

import (
	"bytes"
	"errors"
	"path/filepath"
	"testing"

	"github.com/jan-hofmeier/winc-wifi/pkg/capture"
	"github.com/jan-hofmeier/winc-wifi/pkg/gop"
	"github.com/jan-hofmeier/winc-wifi/pkg/stream"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// decodedRun decodes a one-message capture into a run
func decodedRun(t *testing.T) (*Run, *capture.Capture) {
	t.Helper()
	hdr := gop.Header{Group: gop.GidWifi, Op: 44, Length: 9}.Bytes()
	mosi := []byte{0xC7, 0, 0, 0, 0, 0, 8, 0, 0, 0xF3}
	mosi = append(mosi, hdr...)
	mosi = append(mosi, 0xC7, 0, 0, 0, 0, 0, 1, 0, 0, 0xF3, 1)
	c := &capture.Capture{MOSI: mosi, MISO: make([]byte, len(mosi))}

	res, err := stream.Decode(c.MOSI, c.MISO)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	return &Run{
		Name:      "boot",
		Source:    "test",
		MOSIBytes: len(c.MOSI),
		MISOBytes: len(c.MISO),
		Stats:     res.Stats,
		Events:    stream.SummarizeAll(res.Events),
	}, c
}

func TestStore_SaveGet(t *testing.T) {
	s := openTestStore(t)
	run, c := decodedRun(t)

	id, err := s.Save(run, c)
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if id != 1 || run.ID != 1 {
		t.Errorf("Expected first ID 1, got %d/%d", id, run.ID)
	}

	got, err := s.Get(id)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Name != "boot" || got.CreatedAt.IsZero() {
		t.Errorf("Unexpected run %+v", got)
	}
	if len(got.Events) != 1 || got.Events[0].Record != "STATE_CHANGE: Connected" {
		t.Errorf("Unexpected events %+v", got.Events)
	}
	if got.Stats == nil || got.Stats.Messages != 1 {
		t.Errorf("Unexpected stats %+v", got.Stats)
	}

	stored, err := s.Capture(id)
	if err != nil {
		t.Fatalf("Capture failed: %v", err)
	}
	if !bytes.Equal(stored.MOSI, c.MOSI) || !bytes.Equal(stored.MISO, c.MISO) {
		t.Error("Stored capture differs")
	}
}

func TestStore_ListDelete(t *testing.T) {
	s := openTestStore(t)

	for _, name := range []string{"a", "b", "c"} {
		run, _ := decodedRun(t)
		run.Name = name
		if _, err := s.Save(run, nil); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
	}

	runs, err := s.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(runs) != 3 || runs[0].Name != "a" || runs[2].Name != "c" {
		t.Fatalf("Unexpected list %+v", runs)
	}
	if runs[0].Events != nil {
		t.Error("List must not include events")
	}

	if _, err := s.Capture(runs[0].ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound for run saved without capture, got %v", err)
	}

	if err := s.Delete(runs[1].ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := s.Get(runs[1].ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound after delete, got %v", err)
	}
	if err := s.Delete(runs[1].ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound deleting twice, got %v", err)
	}

	runs, _ = s.List()
	if len(runs) != 2 {
		t.Errorf("Expected 2 runs after delete, got %d", len(runs))
	}
}
