// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Jan Hofmeier

// Package pcapexport writes the application data of decoded send requests
// as IPv4/UDP packets to a pcap file.
package pcapexport

import (
	"io"
	"net"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"

	"github.com/jan-hofmeier/winc-wifi/pkg/gop"
	"github.com/jan-hofmeier/winc-wifi/pkg/stream"
)

const snapLen = 65536

// Defaults for addresses the capture does not reveal
var (
	DefaultDeviceIP = net.IPv4(192, 168, 1, 2)
	DefaultPeerIP   = net.IPv4(192, 168, 1, 1)
)

// Exporter turns message events into packets. Bind requests map sockets
// to local ports and DHCP configuration sets the device address; each send
// request becomes one packet from the device to the peer.
type Exporter struct {
	w *pcapgo.Writer

	// Base is the timestamp of MOSI offset 0; each byte adds a microsecond.
	Base     time.Time
	DeviceIP net.IP
	PeerIP   net.IP
	// PeerPort is the destination port; zero uses the socket's local port.
	PeerPort uint16

	ports   map[uint8]uint16
	packets int
}

// NewExporter writes the pcap file header to w.
func NewExporter(w io.Writer) (*Exporter, error) {
	pw := pcapgo.NewWriter(w)
	if err := pw.WriteFileHeader(snapLen, layers.LinkTypeRaw); err != nil {
		return nil, err
	}
	return &Exporter{
		w:        pw,
		Base:     time.Unix(0, 0).UTC(),
		DeviceIP: DefaultDeviceIP,
		PeerIP:   DefaultPeerIP,
		ports:    map[uint8]uint16{},
	}, nil
}

// Add consumes one event, writing a packet for send requests.
func (x *Exporter) Add(ev stream.Event) error {
	if ev.Message == nil || ev.Message.Record == nil {
		return nil
	}

	switch r := ev.Message.Record.(type) {
	case *gop.BindCommand:
		x.ports[r.Sock] = r.Port
	case *gop.DhcpConfig:
		a := r.Address
		x.DeviceIP = net.IPv4(a[3], a[2], a[1], a[0])
	case *gop.SendCommand:
		return x.writeSend(ev.Offset, r)
	}
	return nil
}

// Packets returns the number of packets written.
func (x *Exporter) Packets() int {
	return x.packets
}

func (x *Exporter) writeSend(offset int, r *gop.SendCommand) error {
	src := x.ports[r.Sock]
	dst := x.PeerPort
	if dst == 0 {
		dst = src
	}

	ip := &layers.IPv4{
		Version:  4,
		TTL:      64,
		Protocol: layers.IPProtocolUDP,
		SrcIP:    x.DeviceIP.To4(),
		DstIP:    x.PeerIP.To4(),
	}
	udp := &layers.UDP{
		SrcPort: layers.UDPPort(src),
		DstPort: layers.UDPPort(dst),
	}
	if err := udp.SetNetworkLayerForChecksum(ip); err != nil {
		return err
	}

	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{FixLengths: true, ComputeChecksums: true}
	if err := gopacket.SerializeLayers(buf, opts, ip, udp, gopacket.Payload(r.Data)); err != nil {
		return err
	}

	data := buf.Bytes()
	ci := gopacket.CaptureInfo{
		Timestamp:     x.Base.Add(time.Duration(offset) * time.Microsecond),
		CaptureLength: len(data),
		Length:        len(data),
	}
	if err := x.w.WritePacket(ci, data); err != nil {
		return err
	}
	x.packets++
	return nil
}

// WriteEvents exports every event and returns the packet count.
func WriteEvents(w io.Writer, events []stream.Event) (int, error) {
	x, err := NewExporter(w)
	if err != nil {
		return 0, err
	}
	for _, ev := range events {
		if err := x.Add(ev); err != nil {
			return x.Packets(), err
		}
	}
	return x.Packets(), nil
}
