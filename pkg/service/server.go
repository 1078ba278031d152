// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Jan Hofmeier

// Package service exposes the decoder over HTTP.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/jan-hofmeier/winc-wifi/pkg/capture"
	"github.com/jan-hofmeier/winc-wifi/pkg/gop"
	"github.com/jan-hofmeier/winc-wifi/pkg/logging"
	"github.com/jan-hofmeier/winc-wifi/pkg/spi"
	"github.com/jan-hofmeier/winc-wifi/pkg/stream"
)

// MaxBodySize limits request bodies.
const MaxBodySize = 64 << 20

// DecodeRequest is the body of POST /api/decode. Byte slices travel as
// base64 strings.
type DecodeRequest struct {
	MOSI    []byte `json:"mosi"`
	MISO    []byte `json:"miso"`
	Verbose bool   `json:"verbose"`
}

// DecodeResponse is returned by both decode endpoints.
type DecodeResponse struct {
	Events []stream.Summary   `json:"events"`
	Stats  *stream.Statistics `json:"stats"`
	Error  string             `json:"error,omitempty"`
}

// CatalogResponse is returned by GET /api/catalog.
type CatalogResponse struct {
	Messages  []gop.Entry    `json:"messages"`
	Registers []spi.Register `json:"registers"`
}

// Server serves the decode API.
type Server struct {
	Router *mux.Router
	log    zerolog.Logger
}

// NewServer creates a server with its routes configured.
func NewServer(logger zerolog.Logger) *Server {
	s := &Server{log: logger}
	s.configureRouter()
	return s
}

func (s *Server) configureRouter() {
	s.Router = mux.NewRouter()
	s.Router.HandleFunc("/healthz", s.handleHealth()).Methods("GET")

	subRouter := s.Router.PathPrefix("/api").Subrouter()
	subRouter.HandleFunc("/decode", s.handleDecode()).Methods("POST")
	subRouter.HandleFunc("/decode/log", s.handleDecodeLog()).Methods("POST")
	subRouter.HandleFunc("/catalog", s.handleCatalog()).Methods("GET")
}

// Handler returns the router wrapped in recovery, compression and request
// logging.
func (s *Server) Handler() http.Handler {
	var h http.Handler = s.Router
	h = handlers.CompressHandler(h)
	h = handlers.RecoveryHandler()(h)
	return logging.RequestLogger(s.log)(h)
}

// ListenAndServe serves on addr until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	httpServer := &http.Server{
		Handler:           s.Handler(),
		Addr:              addr,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", addr).Msg("api server listening")
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

func (s *Server) handleHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

func (s *Server) handleDecode() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body DecodeRequest
		dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxBodySize))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&body); err != nil {
			http.Error(w, fmt.Sprintf("invalid request: %v", err), http.StatusBadRequest)
			return
		}
		writeJSON(w, http.StatusOK, s.decode(body.MOSI, body.MISO, body.Verbose))
	}
}

func (s *Server) handleDecodeLog() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		verbose := false
		if v := r.URL.Query().Get("verbose"); v != "" {
			parsed, err := strconv.ParseBool(v)
			if err != nil {
				http.Error(w, fmt.Sprintf("invalid verbose value %q", v), http.StatusBadRequest)
				return
			}
			verbose = parsed
		}

		c, err := capture.ParseTransferLog(http.MaxBytesReader(w, r.Body, MaxBodySize))
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		writeJSON(w, http.StatusOK, s.decode(c.MOSI, c.MISO, verbose))
	}
}

func (s *Server) handleCatalog() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, CatalogResponse{
			Messages:  gop.Catalog(),
			Registers: spi.Registers(),
		})
	}
}

// decode runs the engine; a fatal decode error is reported in the body,
// the events before it are still returned.
func (s *Server) decode(mosi, miso []byte, verbose bool) DecodeResponse {
	res, err := stream.Decode(mosi, miso,
		stream.WithVerbose(verbose),
		stream.WithLogger(s.log),
	)
	resp := DecodeResponse{
		Events: stream.SummarizeAll(res.Events),
		Stats:  res.Stats,
	}
	if err != nil {
		resp.Error = err.Error()
	}
	s.log.Debug().
		Int("mosi_bytes", len(mosi)).
		Int("miso_bytes", len(miso)).
		Int("events", len(resp.Events)).
		Msg("decoded capture")
	return resp
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
