// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Jan Hofmeier

// Package gop decodes the WINC1500 host interface (HIF) messages carried in
// SPI bulk transfers.
//
// Each message starts with an 8-byte header: group ID, operation code with
// the REQ_DATA flag in its high bit, a little-endian total length and
// reserved bytes. A message is identified by its group ID and the low
// seven bits of the operation code.
package gop

import (
	"fmt"
	"sort"
)

// Group IDs
const (
	GidMain = 0
	GidWifi = 1
	GidIP   = 2
	GidHIF  = 3
)

// ReqData is the request-with-data flag in the operation byte.
const ReqData = 0x80

// ID identifies a message: group ID in the high byte, opcode without the
// REQ_DATA flag in the low byte.
type ID uint16

// MakeID builds the identifier for a group ID and raw operation byte.
func MakeID(gid, op uint8) ID {
	return ID(uint16(gid)<<8 | uint16(op&^ReqData))
}

// Known operations
const (
	OpConnReqOld  ID = GidWifi<<8 | 40
	OpStateChange ID = GidWifi<<8 | 44
	OpDhcpConf    ID = GidWifi<<8 | 50
	OpConnReqNew  ID = GidWifi<<8 | 59
	OpBind        ID = GidIP<<8 | 65
	OpListen      ID = GidIP<<8 | 66
	OpAccept      ID = GidIP<<8 | 67
	OpSend        ID = GidIP<<8 | 69
	OpRecv        ID = GidIP<<8 | 70
	OpSendTo      ID = GidIP<<8 | 71
	OpRecvFrom    ID = GidIP<<8 | 72
	OpClose       ID = GidIP<<8 | 73
)

var groupNames = map[uint8]string{
	GidMain: "GID_MAIN",
	GidWifi: "GID_WIFI",
	GidIP:   "GID_IP",
	GidHIF:  "GID_HIF",
}

var operationNames = map[ID]string{
	OpConnReqOld:  "GOP_CONN_REQ_OLD",
	OpStateChange: "GOP_STATE_CHANGE",
	OpDhcpConf:    "GOP_DHCP_CONF",
	OpConnReqNew:  "GOP_CONN_REQ_NEW",
	OpBind:        "GOP_BIND",
	OpListen:      "GOP_LISTEN",
	OpAccept:      "GOP_ACCEPT",
	OpSend:        "GOP_SEND",
	OpRecv:        "GOP_RECV",
	OpSendTo:      "GOP_SENDTO",
	OpRecvFrom:    "GOP_RECVFROM",
	OpClose:       "GOP_CLOSE",
}

// Parser decodes a message payload (header stripped) into a record.
type Parser func(payload []byte) (Record, error)

var parsers = map[ID]Parser{
	OpBind:        adapt(ParseBindCommand),
	OpStateChange: adapt(ParseStateChange),
	OpDhcpConf:    adapt(ParseDhcpConfig),
	OpConnReqOld:  adapt(ParseConnectRequestLegacy),
	OpConnReqNew:  adapt(ParseConnectRequestNew),
	OpSend:        adapt(ParseSendCommand),
}

// adapt converts a typed parser so a failed parse yields a nil Record
// rather than a typed nil pointer.
func adapt[T Record](f func([]byte) (T, error)) Parser {
	return func(p []byte) (Record, error) {
		r, err := f(p)
		if err != nil {
			return nil, err
		}
		return r, nil
	}
}

// Group returns the group ID.
func (id ID) Group() uint8 {
	return uint8(id >> 8)
}

// Opcode returns the operation code without the REQ_DATA flag.
func (id ID) Opcode() uint8 {
	return uint8(id)
}

// Known reports whether id is in the catalog.
func (id ID) Known() bool {
	_, ok := operationNames[id]
	return ok
}

// String returns the operation name, or the numeric identifier when unknown.
func (id ID) String() string {
	if name, ok := operationNames[id]; ok {
		return name
	}
	return fmt.Sprintf("Unknown GOP (0x%04x)", uint16(id))
}

// Parser returns the payload parser for id, or nil.
func (id ID) Parser() Parser {
	return parsers[id]
}

// KnownGroup reports whether gid is a group ID.
func KnownGroup(gid uint8) bool {
	_, ok := groupNames[gid]
	return ok
}

// GroupName returns the name of gid.
func GroupName(gid uint8) string {
	if name, ok := groupNames[gid]; ok {
		return name
	}
	return fmt.Sprintf("GID_0x%02x", gid)
}

// Known reports whether gid is a group ID and op, without its REQ_DATA
// flag, is a known operation of that group.
func Known(gid, op uint8) bool {
	return KnownGroup(gid) && MakeID(gid, op).Known()
}

// Entry is one row of the catalog.
type Entry struct {
	ID        ID     `json:"id"`
	Group     string `json:"group"`
	Opcode    uint8  `json:"opcode"`
	Name      string `json:"name"`
	HasParser bool   `json:"has_parser"`
}

// Catalog returns every known operation ordered by identifier.
func Catalog() []Entry {
	entries := make([]Entry, 0, len(operationNames))
	for id, name := range operationNames {
		entries = append(entries, Entry{
			ID:        id,
			Group:     GroupName(id.Group()),
			Opcode:    id.Opcode(),
			Name:      name,
			HasParser: parsers[id] != nil,
		})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].ID < entries[j].ID })
	return entries
}
