// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Jan Hofmeier

package gop

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// Record is a decoded message payload.
type Record interface {
	Kind() string
	String() string
}

// ParseError reports a payload shorter than its record's fixed layout.
type ParseError struct {
	Record string
	Need   int
	Have   int
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: payload too short (need %d bytes, have %d)", e.Record, e.Need, e.Have)
}

func need(record string, p []byte, n int) error {
	if len(p) < n {
		return &ParseError{Record: record, Need: n, Have: len(p)}
	}
	return nil
}

// cString returns b up to its first NUL.
func cString(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return string(b)
}

// AuthType is the security type of a connect request.
type AuthType uint8

const (
	AuthOpen AuthType = 1
	AuthPSK  AuthType = 2
)

func (a AuthType) String() string {
	switch a {
	case AuthPSK:
		return "PSK"
	case AuthOpen:
		return "open"
	default:
		return "unknown"
	}
}

// ============================================================
// Bind
// ============================================================

const bindSize = 12

// BindCommand binds a socket to a local address.
type BindCommand struct {
	Family   uint16 `json:"family"`
	Port     uint16 `json:"port"`
	IP       uint32 `json:"ip"`
	Sock     uint8  `json:"sock"`
	Reserved uint8  `json:"reserved"`
	Session  uint16 `json:"session"`
}

// ParseBindCommand decodes a big-endian bind payload.
func ParseBindCommand(p []byte) (*BindCommand, error) {
	if err := need("BIND_CMD", p, bindSize); err != nil {
		return nil, err
	}
	return &BindCommand{
		Family:   binary.BigEndian.Uint16(p[0:2]),
		Port:     binary.BigEndian.Uint16(p[2:4]),
		IP:       binary.BigEndian.Uint32(p[4:8]),
		Sock:     p[8],
		Reserved: p[9],
		Session:  binary.BigEndian.Uint16(p[10:12]),
	}, nil
}

// Bytes encodes the record in its wire layout.
func (r *BindCommand) Bytes() []byte {
	b := make([]byte, bindSize)
	binary.BigEndian.PutUint16(b[0:2], r.Family)
	binary.BigEndian.PutUint16(b[2:4], r.Port)
	binary.BigEndian.PutUint32(b[4:8], r.IP)
	b[8] = r.Sock
	b[9] = r.Reserved
	binary.BigEndian.PutUint16(b[10:12], r.Session)
	return b
}

// IPString renders the address most significant octet first.
func (r *BindCommand) IPString() string {
	return fmt.Sprintf("%d.%d.%d.%d", byte(r.IP>>24), byte(r.IP>>16), byte(r.IP>>8), byte(r.IP))
}

func (r *BindCommand) Kind() string { return "BIND_CMD" }

func (r *BindCommand) String() string {
	return fmt.Sprintf("BIND_CMD: family=%d, port=%d, ip=%s, sock=%d, session=%d",
		r.Family, r.Port, r.IPString(), r.Sock, r.Session)
}

// ============================================================
// State change
// ============================================================

// StateChange reports the WiFi connection state.
type StateChange struct {
	State uint8 `json:"state"`
}

// ParseStateChange decodes a one-byte state payload.
func ParseStateChange(p []byte) (*StateChange, error) {
	if err := need("STATE_CHANGE", p, 1); err != nil {
		return nil, err
	}
	return &StateChange{State: p[0]}, nil
}

// Connected reports whether the state byte is 1.
func (r *StateChange) Connected() bool {
	return r.State == 1
}

func (r *StateChange) Kind() string { return "STATE_CHANGE" }

func (r *StateChange) String() string {
	if r.Connected() {
		return "STATE_CHANGE: Connected"
	}
	return "STATE_CHANGE: Disconnected"
}

// ============================================================
// DHCP configuration
// ============================================================

// DhcpConfig carries the address assigned by DHCP.
type DhcpConfig struct {
	Address [4]byte `json:"address"` // wire order, least significant octet first
}

// ParseDhcpConfig decodes the address at the start of the payload.
func ParseDhcpConfig(p []byte) (*DhcpConfig, error) {
	if err := need("DHCP_CONF", p, 4); err != nil {
		return nil, err
	}
	r := &DhcpConfig{}
	copy(r.Address[:], p[:4])
	return r, nil
}

// IPString renders the address octets in reverse wire order.
func (r *DhcpConfig) IPString() string {
	a := r.Address
	return fmt.Sprintf("%d.%d.%d.%d", a[3], a[2], a[1], a[0])
}

// IP returns the address as a host-order value, most significant octet
// first.
func (r *DhcpConfig) IP() uint32 {
	return binary.LittleEndian.Uint32(r.Address[:])
}

func (r *DhcpConfig) Kind() string { return "DHCP_CONF" }

func (r *DhcpConfig) String() string {
	return "DHCP_CONF: IP Address: " + r.IPString()
}

// ============================================================
// Connect request (legacy)
// ============================================================

// Legacy connect layout. The offsets assume no structure padding on the
// device and have not been confirmed against every firmware revision.
const (
	legacyPSKSize      = 65
	legacyAuthOffset   = 65
	legacyChanOffset   = 68
	legacySSIDOffset   = 70
	legacySSIDSize     = 33
	legacyNoSaveOffset = 103
	legacySize         = legacyNoSaveOffset + 1
)

// ConnectRequestLegacy is the pre-19.x connect request.
type ConnectRequestLegacy struct {
	PSK     string   `json:"psk"`
	Auth    AuthType `json:"auth"`
	Channel uint16   `json:"channel"`
	SSID    string   `json:"ssid"`
	NoSave  bool     `json:"no_save"`
}

// ParseConnectRequestLegacy decodes a legacy connect request.
func ParseConnectRequestLegacy(p []byte) (*ConnectRequestLegacy, error) {
	if err := need("CONN_REQ_OLD", p, legacySize); err != nil {
		return nil, err
	}
	return &ConnectRequestLegacy{
		PSK:     cString(p[:legacyPSKSize]),
		Auth:    AuthType(p[legacyAuthOffset]),
		Channel: binary.BigEndian.Uint16(p[legacyChanOffset : legacyChanOffset+2]),
		SSID:    cString(p[legacySSIDOffset : legacySSIDOffset+legacySSIDSize]),
		NoSave:  p[legacyNoSaveOffset] != 0,
	}, nil
}

func (r *ConnectRequestLegacy) Kind() string { return "CONN_REQ_OLD" }

func (r *ConnectRequestLegacy) String() string {
	return fmt.Sprintf("CONN_REQ_OLD: ssid=%q, auth=%s, channel=%d, psk=%q, no_save=%t",
		r.SSID, r.Auth, r.Channel, r.PSK, r.NoSave)
}

// ============================================================
// Connect request (new)
// ============================================================

const (
	newHeaderSize   = 5
	newAuthOffset   = 44
	newPSKOffset    = 48
	newMinSize      = newAuthOffset + 1
	newPSKThreshold = 48
)

// ConnectRequestNew is the connect request of current firmware.
type ConnectRequestNew struct {
	CredentialSize uint16   `json:"credential_size"`
	Flags          uint8    `json:"flags"`
	Channel        uint8    `json:"channel"`
	SSIDLength     uint8    `json:"ssid_length"`
	SSID           string   `json:"ssid"`
	Auth           AuthType `json:"auth"`
	PSK            string   `json:"psk,omitempty"`
	HasPSK         bool     `json:"has_psk"`
}

// ParseConnectRequestNew decodes a connect request. SSID and PSK lengths
// are clipped to the payload.
func ParseConnectRequestNew(p []byte) (*ConnectRequestNew, error) {
	if err := need("CONN_REQ_NEW", p, newMinSize); err != nil {
		return nil, err
	}
	r := &ConnectRequestNew{
		CredentialSize: binary.BigEndian.Uint16(p[0:2]),
		Flags:          p[2],
		Channel:        p[3],
		SSIDLength:     p[4],
		Auth:           AuthType(p[newAuthOffset]),
	}
	end := min(newHeaderSize+int(r.SSIDLength), len(p))
	r.SSID = string(p[newHeaderSize:end])

	if r.CredentialSize > newPSKThreshold && len(p) > newPSKOffset {
		n := int(p[newPSKOffset])
		start := newPSKOffset + 1
		r.PSK = string(p[start:min(start+n, len(p))])
		r.HasPSK = true
	}
	return r, nil
}

func (r *ConnectRequestNew) Kind() string { return "CONN_REQ_NEW" }

func (r *ConnectRequestNew) String() string {
	s := fmt.Sprintf("CONN_REQ_NEW: ssid=%q, auth=%s, channel=%d, flags=0x%02x, cred_size=%d",
		r.SSID, r.Auth, r.Channel, r.Flags, r.CredentialSize)
	if r.HasPSK {
		s += fmt.Sprintf(", psk=%q", r.PSK)
	}
	return s
}

// ============================================================
// Send
// ============================================================

const sendHeaderSize = 4

// SendCommand carries application data for a socket.
type SendCommand struct {
	Sock      uint8  `json:"sock"`
	Reserved  uint8  `json:"reserved"`
	DataLen   uint16 `json:"data_len"`
	Data      []byte `json:"data"`
	Truncated bool   `json:"truncated,omitempty"` // fewer than DataLen bytes present
}

// ParseSendCommand decodes a send request.
func ParseSendCommand(p []byte) (*SendCommand, error) {
	if err := need("SEND_CMD", p, sendHeaderSize); err != nil {
		return nil, err
	}
	r := &SendCommand{
		Sock:     p[0],
		Reserved: p[1],
		DataLen:  binary.BigEndian.Uint16(p[2:4]),
	}
	end := sendHeaderSize + int(r.DataLen)
	if end > len(p) {
		end = len(p)
		r.Truncated = true
	}
	r.Data = p[sendHeaderSize:end]
	return r, nil
}

// Bytes encodes the record in its wire layout.
func (r *SendCommand) Bytes() []byte {
	b := make([]byte, sendHeaderSize, sendHeaderSize+len(r.Data))
	b[0] = r.Sock
	b[1] = r.Reserved
	binary.BigEndian.PutUint16(b[2:4], r.DataLen)
	return append(b, r.Data...)
}

func (r *SendCommand) Kind() string { return "SEND_CMD" }

func (r *SendCommand) String() string {
	s := fmt.Sprintf("SEND_CMD: sock=%d, len=%d, data=%q", r.Sock, r.DataLen, r.Data)
	if r.Truncated {
		s += fmt.Sprintf(" (truncated, %d bytes present)", len(r.Data))
	}
	return s
}
