// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Jan Hofmeier

package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/imroc/req"
)

// Client calls a remote decode API.
type Client struct {
	ApiPrefix string
}

// NewClient creates a client for the server at baseURL
// (e.g. http://127.0.0.1:8080).
func NewClient(baseURL string) *Client {
	return &Client{ApiPrefix: strings.TrimRight(baseURL, "/") + "/api"}
}

func checkStatus(r *req.Resp) error {
	if r.Response().StatusCode != 200 {
		msg := strings.TrimSpace(r.String())
		if msg == "" {
			return errors.New(r.Response().Status)
		}
		return fmt.Errorf("%s: %s", r.Response().Status, msg)
	}
	return nil
}

// Decode sends a MOSI/MISO pair for decoding.
func (c *Client) Decode(mosi, miso []byte, verbose bool) (*DecodeResponse, error) {
	body := DecodeRequest{MOSI: mosi, MISO: miso, Verbose: verbose}
	r, err := req.Post(c.ApiPrefix+"/decode", req.BodyJSON(body))
	if err != nil {
		return nil, err
	}
	if err := checkStatus(r); err != nil {
		return nil, err
	}
	resp := &DecodeResponse{}
	if err := r.ToJSON(resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// DecodeLog sends a firmware transfer log for decoding.
func (c *Client) DecodeLog(log string, verbose bool) (*DecodeResponse, error) {
	url := fmt.Sprintf("%s/decode/log?verbose=%t", c.ApiPrefix, verbose)
	r, err := req.Post(url, req.Header{"Content-Type": "text/plain"}, log)
	if err != nil {
		return nil, err
	}
	if err := checkStatus(r); err != nil {
		return nil, err
	}
	resp := &DecodeResponse{}
	if err := r.ToJSON(resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// Catalog fetches the server's message and register tables.
func (c *Client) Catalog() (*CatalogResponse, error) {
	r, err := req.Get(c.ApiPrefix + "/catalog")
	if err != nil {
		return nil, err
	}
	if err := checkStatus(r); err != nil {
		return nil, err
	}
	resp := &CatalogResponse{}
	if err := r.ToJSON(resp); err != nil {
		return nil, err
	}
	return resp, nil
}
