// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Jan Hofmeier

package pcapexport

import (
	"bytes"
	"testing"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"

	"github.com/jan-hofmeier/winc-wifi/pkg/gop"
	"github.com/jan-hofmeier/winc-wifi/pkg/stream"
)

// messageEvent wraps a record in a decoded message event
func messageEvent(offset int, id gop.ID, record gop.Record) stream.Event {
	return stream.Event{
		Kind:   stream.EventMessage,
		Offset: offset,
		Message: &gop.Message{
			Header: gop.Header{Group: id.Group(), Op: id.Opcode()},
			Record: record,
		},
	}
}

func TestWriteEvents(t *testing.T) {
	events := []stream.Event{
		messageEvent(0, gop.OpDhcpConf, &gop.DhcpConfig{Address: [4]byte{0x65, 0x01, 0xA8, 0xC0}}),
		messageEvent(20, gop.OpBind, &gop.BindCommand{Family: 2, Port: 6666, Sock: 1}),
		messageEvent(100, gop.OpSend, &gop.SendCommand{Sock: 1, DataLen: 5, Data: []byte("hello")}),
		{Kind: stream.EventTransaction},
	}

	var buf bytes.Buffer
	n, err := WriteEvents(&buf, events)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if n != 1 {
		t.Fatalf("Expected 1 packet, got %d", n)
	}

	r, err := pcapgo.NewReader(&buf)
	if err != nil {
		t.Fatalf("Reading pcap failed: %v", err)
	}
	if r.LinkType() != layers.LinkTypeRaw {
		t.Errorf("Expected raw link type, got %v", r.LinkType())
	}

	data, ci, err := r.ReadPacketData()
	if err != nil {
		t.Fatalf("Reading packet failed: %v", err)
	}
	if ci.Timestamp.UnixMicro() != 100 {
		t.Errorf("Expected timestamp 100us, got %v", ci.Timestamp)
	}

	pkt := gopacket.NewPacket(data, layers.LayerTypeIPv4, gopacket.Default)
	ip, _ := pkt.Layer(layers.LayerTypeIPv4).(*layers.IPv4)
	udp, _ := pkt.Layer(layers.LayerTypeUDP).(*layers.UDP)
	if ip == nil || udp == nil {
		t.Fatalf("Expected IPv4/UDP packet, got %v", pkt)
	}
	if ip.SrcIP.String() != "192.168.1.101" {
		t.Errorf("Expected source 192.168.1.101, got %s", ip.SrcIP)
	}
	if udp.SrcPort != 6666 || udp.DstPort != 6666 {
		t.Errorf("Expected ports 6666, got %d -> %d", udp.SrcPort, udp.DstPort)
	}
	if string(udp.Payload) != "hello" {
		t.Errorf("Expected payload hello, got %q", udp.Payload)
	}
}

func TestExporter_PeerPort(t *testing.T) {
	var buf bytes.Buffer
	x, err := NewExporter(&buf)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	x.PeerPort = 9000

	if err := x.Add(messageEvent(0, gop.OpSend, &gop.SendCommand{Sock: 4, Data: []byte{1}})); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	r, err := pcapgo.NewReader(&buf)
	if err != nil {
		t.Fatalf("Reading pcap failed: %v", err)
	}
	data, _, err := r.ReadPacketData()
	if err != nil {
		t.Fatalf("Reading packet failed: %v", err)
	}
	pkt := gopacket.NewPacket(data, layers.LayerTypeIPv4, gopacket.Default)
	udp, _ := pkt.Layer(layers.LayerTypeUDP).(*layers.UDP)
	if udp == nil || udp.DstPort != 9000 || udp.SrcPort != 0 {
		t.Errorf("Expected unbound source and port 9000, got %v", udp)
	}
}
