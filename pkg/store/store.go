// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Jan Hofmeier

// Package store keeps a history of decode runs in a bbolt database.
package store

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fxamacker/cbor/v2"
	"go.etcd.io/bbolt"
	"sigs.k8s.io/yaml"

	"github.com/jan-hofmeier/winc-wifi/pkg/capture"
	"github.com/jan-hofmeier/winc-wifi/pkg/stream"
)

// Bucket names
const (
	RunsBucket     = "runs"
	CapturesBucket = "captures"
)

// ErrNotFound is returned for an unknown run ID.
var ErrNotFound = errors.New("run not found")

// Run is a stored decode run.
type Run struct {
	ID        uint64             `json:"id"`
	Name      string             `json:"name"`
	Source    string             `json:"source"`
	CreatedAt time.Time          `json:"created_at"`
	Verbose   bool               `json:"verbose"`
	MOSIBytes int                `json:"mosi_bytes"`
	MISOBytes int                `json:"miso_bytes"`
	Error     string             `json:"error,omitempty"`
	Stats     *stream.Statistics `json:"stats,omitempty"`
	Events    []stream.Summary   `json:"events,omitempty"`
}

// storedCapture is the CBOR form of a capture
type storedCapture struct {
	MOSI []byte `cbor:"1,keyasint"`
	MISO []byte `cbor:"2,keyasint"`
}

// Store wraps the history database.
type Store struct {
	DB *bbolt.DB
}

// Open opens or creates the database at path, creating its directory.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("opening history %s: %w", path, err)
	}
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening history %s: %w", path, err)
	}
	if err := db.Update(func(tx *bbolt.Tx) error {
		for _, name := range []string{RunsBucket, CapturesBucket} {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{DB: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.DB.Close()
}

func key(id uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, id)
	return b
}

// Save stores run and, when c is not nil, its capture. The assigned ID is
// set on run and returned.
func (s *Store) Save(run *Run, c *capture.Capture) (uint64, error) {
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}
	err := s.DB.Update(func(tx *bbolt.Tx) error {
		runs := tx.Bucket([]byte(RunsBucket))
		id, err := runs.NextSequence()
		if err != nil {
			return err
		}
		run.ID = id

		data, err := yaml.Marshal(run)
		if err != nil {
			return err
		}
		if err := runs.Put(key(id), data); err != nil {
			return err
		}

		if c == nil {
			return nil
		}
		raw, err := cbor.Marshal(storedCapture{MOSI: c.MOSI, MISO: c.MISO})
		if err != nil {
			return err
		}
		return tx.Bucket([]byte(CapturesBucket)).Put(key(id), raw)
	})
	if err != nil {
		return 0, err
	}
	return run.ID, nil
}

// Get returns a run with its events.
func (s *Store) Get(id uint64) (*Run, error) {
	var run *Run
	err := s.DB.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket([]byte(RunsBucket)).Get(key(id))
		if data == nil {
			return ErrNotFound
		}
		run = &Run{}
		return yaml.Unmarshal(data, run)
	})
	if err != nil {
		return nil, err
	}
	return run, nil
}

// List returns every run, oldest first, without events.
func (s *Store) List() ([]Run, error) {
	var runs []Run
	err := s.DB.View(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(RunsBucket)).ForEach(func(_, v []byte) error {
			var run Run
			if err := yaml.Unmarshal(v, &run); err != nil {
				return err
			}
			run.Events = nil
			runs = append(runs, run)
			return nil
		})
	})
	return runs, err
}

// Capture returns the capture stored with a run.
func (s *Store) Capture(id uint64) (*capture.Capture, error) {
	var c *capture.Capture
	err := s.DB.View(func(tx *bbolt.Tx) error {
		raw := tx.Bucket([]byte(CapturesBucket)).Get(key(id))
		if raw == nil {
			return ErrNotFound
		}
		var sc storedCapture
		if err := cbor.Unmarshal(raw, &sc); err != nil {
			return err
		}
		c = &capture.Capture{MOSI: sc.MOSI, MISO: sc.MISO}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Delete removes a run and its capture.
func (s *Store) Delete(id uint64) error {
	return s.DB.Update(func(tx *bbolt.Tx) error {
		runs := tx.Bucket([]byte(RunsBucket))
		if runs.Get(key(id)) == nil {
			return ErrNotFound
		}
		if err := runs.Delete(key(id)); err != nil {
			return err
		}
		return tx.Bucket([]byte(CapturesBucket)).Delete(key(id))
	})
}
