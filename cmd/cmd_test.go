// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Jan Hofmeier

package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jan-hofmeier/winc-wifi/pkg/capture"
	"github.com/jan-hofmeier/winc-wifi/pkg/gop"
	"github.com/jan-hofmeier/winc-wifi/pkg/spi"
	"github.com/jan-hofmeier/winc-wifi/pkg/stream"
)

// execute runs the root command with args in an isolated home directory
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())

	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

// closeCapture writes a capture holding one header-only GOP_CLOSE
func closeCapture(t *testing.T) string {
	t.Helper()
	hdr := gop.Header{Group: gop.GidIP, Op: 73, Length: gop.HeaderSize}.Bytes()
	mosi := make([]byte, spi.BulkPayloadOffset)
	mosi[0] = byte(spi.CmdWriteData)
	spi.PutBE24(mosi[1:4], 0x0F00)
	spi.PutBE24(mosi[4:7], uint32(len(hdr)))
	mosi = append(mosi, hdr...)

	dir := t.TempDir()
	c := &capture.Capture{MOSI: mosi, MISO: make([]byte, len(mosi))}
	if err := c.Save(dir); err != nil {
		t.Fatal(err)
	}
	return dir
}

// ============================================================
// Helpers
// ============================================================

func TestParseHexArgs(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    []byte
		wantErr bool
	}{
		{"separate args", []string{"02", "49", "08"}, []byte{0x02, 0x49, 0x08}, false},
		{"single string", []string{"024908"}, []byte{0x02, 0x49, 0x08}, false},
		{"colons and prefixes", []string{"0x02:0x49:8"}, []byte{0x02, 0x49, 0x08}, false},
		{"commas", []string{"ff,0"}, []byte{0xFF, 0x00}, false},
		{"not hex", []string{"zz"}, nil, true},
		{"odd digits", []string{"123"}, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseHexArgs(tt.args)
			if tt.wantErr {
				if err == nil {
					t.Error("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !bytes.Equal(got, tt.want) {
				t.Errorf("got % x, want % x", got, tt.want)
			}
		})
	}
}

func TestEventItem(t *testing.T) {
	item := eventItem{summary: stream.Summary{
		Kind:      "gop",
		Offset:    42,
		GOP:       "GOP_SEND",
		Anomalies: []string{"partial message"},
	}}
	if item.Title() != "! [42] GOP_SEND" {
		t.Errorf("Title() = %q", item.Title())
	}
	if item.Description() != "partial message" {
		t.Errorf("Description() = %q", item.Description())
	}

	plain := eventItem{summary: stream.Summary{Kind: "spi", Offset: 0, Command: "CMD_SINGLE_READ", Register: "NMI_STATE"}}
	if plain.Title() != "  [0] CMD_SINGLE_READ" || plain.Description() != "NMI_STATE" {
		t.Errorf("unexpected item %q / %q", plain.Title(), plain.Description())
	}
}

func TestFormatDetail_Payload(t *testing.T) {
	detail := formatDetail(stream.Summary{Text: "[0]\n", Payload: make([]byte, 20)})
	if !strings.Contains(detail, "Payload (20 bytes)") || !strings.Contains(detail, "0010") {
		t.Errorf("unexpected detail %q", detail)
	}
}

// ============================================================
// Commands
// ============================================================

func TestGopCommand(t *testing.T) {
	out, err := execute(t, "gop", "02", "49", "08", "00", "00", "00", "00", "00")
	if err != nil {
		t.Fatalf("gop failed: %v", err)
	}
	if !strings.Contains(out, "GOP_CLOSE") {
		t.Errorf("output %q does not name GOP_CLOSE", out)
	}
}

func TestDecodeCommand_JSON(t *testing.T) {
	dir := closeCapture(t)

	out, err := execute(t, "decode", dir, "--format", "json")
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}

	var summaries []stream.Summary
	if err := json.Unmarshal([]byte(out), &summaries); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	if len(summaries) != 1 || summaries[0].GOP != "GOP_CLOSE" {
		t.Errorf("expected one GOP_CLOSE, got %+v", summaries)
	}
}

func TestDecodeCommand_ErrorsOnlyWithoutVerbose(t *testing.T) {
	mosi := make([]byte, spi.SingleFrameSize)
	mosi[0] = byte(spi.CmdSingleRead)
	spi.PutBE24(mosi[1:4], 0x1000)

	dir := t.TempDir()
	c := &capture.Capture{MOSI: mosi, MISO: make([]byte, len(mosi))}
	if err := c.Save(dir); err != nil {
		t.Fatal(err)
	}

	out, err := execute(t, "decode", dir, "--format", "json", "--errors-only")
	decodeCmd.Flags().Set("errors-only", "false")
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}

	var summaries []stream.Summary
	if err := json.Unmarshal([]byte(out), &summaries); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	if len(summaries) != 1 {
		t.Fatalf("expected one anomaly, got %+v", summaries)
	}
	if summaries[0].Response != "no response" || len(summaries[0].Anomalies) == 0 {
		t.Errorf("expected a no-response anomaly, got %+v", summaries[0])
	}
}

func TestDecodeSaveAndHistory(t *testing.T) {
	dir := closeCapture(t)
	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	storePath := filepath.Join(t.TempDir(), "history.db")
	if err := os.WriteFile(cfgPath, []byte("store_path: "+storePath+"\n"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := execute(t, "decode", dir, "--config", cfgPath, "--save", "bench-run"); err != nil {
		t.Fatalf("decode --save failed: %v", err)
	}
	decodeSave = ""

	out, err := execute(t, "history", "list", "--config", cfgPath)
	if err != nil {
		t.Fatalf("history list failed: %v", err)
	}
	if !strings.Contains(out, "bench-run") {
		t.Errorf("history list output %q does not contain the run", out)
	}
}
