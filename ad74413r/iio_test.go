// Copyright 2023 The go-swio Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ad74413r

import (
	"errors"
	"fmt"
	"math/bits"
	"reflect"
	"testing"

	"github.com/go-swio/swio"
	"github.com/go-swio/swio/iio"
)

func newTestIIO(t *testing.T, id ChipID, cfg *Config) (*IIO, *fakeConn, *iio.Ring) {
	t.Helper()

	conn := newFakeConn()
	dev, err := New(id, conn, nil)
	if err != nil {
		t.Fatalf("could not open device: %+v", err)
	}

	ring := iio.NewRing(ScanRecordSize, 16)
	d, err := NewIIO(dev, cfg, ring)
	if err != nil {
		t.Fatalf("could not build iio surface: %+v", err)
	}

	return d, conn, ring
}

func readAttr(t *testing.T, d *IIO, ch int, name string) string {
	t.Helper()

	var buf [64]byte
	n, err := d.Device().ReadAttr(ch, name, buf[:])
	if err != nil {
		t.Fatalf("could not read %q: %+v", name, err)
	}
	return string(buf[:n])
}

func TestOffsetRanges(t *testing.T) {
	cfg := &Config{}
	cfg.Channels[0] = ChannelConfig{Enabled: true, Function: CurrentInExt}

	d, conn, _ := newTestIIO(t, AD74413R, cfg)

	for _, tc := range []struct {
		rng  Range
		want string
	}{
		{Range10V, "0"},
		{Range2P5VExtPow, "0"},
		{Range2P5VIntPow, "-32768"},
		{Range5VBiDir, "-16384"},
	} {
		conn.regs[RegAdcConfig(0)] = fieldPrep(AdcRangeMask, uint16(tc.rng))
		if got := readAttr(t, d, 0, "offset"); got != tc.want {
			t.Fatalf("range %d: invalid offset: got %q, want %q", tc.rng, got, tc.want)
		}
	}

	conn.regs[RegAdcConfig(0)] = fieldPrep(AdcRangeMask, 5)
	var buf [64]byte
	_, err := d.Device().ReadAttr(0, "offset", buf[:])
	if !errors.Is(err, swio.ErrInvalidArgument) {
		t.Fatalf("invalid error for unknown range: %+v", err)
	}
}

func TestSamplingFrequency(t *testing.T) {
	cfg := &Config{}
	cfg.Channels[0] = ChannelConfig{Enabled: true, Function: VoltageIn}

	d, conn, _ := newTestIIO(t, AD74412R, cfg)

	err := d.Device().WriteAttr(0, "sampling_frequency", []byte("20"))
	if err != nil {
		t.Fatalf("could not write sampling frequency: %+v", err)
	}

	if got := readAttr(t, d, 0, "sampling_frequency"); got != "20" {
		t.Fatalf("invalid sampling frequency: got %q, want %q", got, "20")
	}
	if got := fieldGet(EnRejDiagMask, conn.regs[RegAdcConvCtrl]); got != 1 {
		t.Fatalf("diag rejection not enabled for low rate family")
	}

	if got := readAttr(t, d, 0, "sampling_frequency_available"); got != "20 4800" {
		t.Fatalf("invalid rate set: got %q, want %q", got, "20 4800")
	}

	err = d.Device().WriteAttr(0, "sampling_frequency", []byte("123"))
	if !errors.Is(err, swio.ErrInvalidArgument) {
		t.Fatalf("invalid error for bogus rate: %+v", err)
	}
}

func TestScale(t *testing.T) {
	cfg := &Config{}
	cfg.Channels[0] = ChannelConfig{Enabled: true, Function: VoltageOut}

	d, _, _ := newTestIIO(t, AD74413R, cfg)

	// channel 0 is the loop current readback, the DAC channel follows
	// the diagnostics block.
	if got := readAttr(t, d, 0, "scale"); got != "0.000381" {
		t.Fatalf("invalid current input scale: got %q", got)
	}

	dac := -1
	for i, ch := range d.Device().Channels {
		if ch.Out {
			dac = i
		}
	}
	if dac < 0 {
		t.Fatalf("no output channel exposed")
	}
	if got := readAttr(t, d, dac, "scale"); got != "0.762940" {
		t.Fatalf("invalid voltage output scale: got %q", got)
	}
}

func chanSummary(dev *iio.Device) []string {
	var out []string
	for _, ch := range dev.Channels {
		out = append(out, fmt.Sprintf("%s/%v/out=%v/ch=%d/addr=%d/scan=%d",
			ch.Name, ch.Type, ch.Out, ch.Channel, ch.Addr, ch.ScanIndex,
		))
	}
	return out
}

func TestChannelSetup(t *testing.T) {
	cfg := &Config{}
	cfg.Channels[0] = ChannelConfig{Enabled: true, Function: VoltageOut}
	cfg.Channels[1] = ChannelConfig{Enabled: true, Function: CurrentInExt}
	cfg.Channels[3] = ChannelConfig{Enabled: true, Function: Resistance}

	d, _, _ := newTestIIO(t, AD74413R, cfg)

	want := []string{
		"/current/out=false/ch=0/addr=0/scan=0",
		"/current/out=false/ch=1/addr=1/scan=1",
		"/resistance/out=false/ch=3/addr=3/scan=2",
		"diag0/voltage/out=false/ch=4/addr=0/scan=3",
		"diag1/voltage/out=false/ch=5/addr=1/scan=4",
		"diag2/voltage/out=false/ch=6/addr=2/scan=5",
		"diag3/voltage/out=false/ch=7/addr=3/scan=6",
		"/voltage/out=true/ch=0/addr=0/scan=-1",
		"fault/voltage/out=false/ch=0/addr=0/scan=-1",
	}
	got := chanSummary(d.Device())
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("invalid channel set:\ngot= %v\nwant=%v", got, want)
	}

	if d.nADC != 3 {
		t.Fatalf("invalid active adc count: got %d, want 3", d.nADC)
	}
}

func TestApplyIdempotence(t *testing.T) {
	cfg := &Config{}
	cfg.Channels[0] = ChannelConfig{Enabled: true, Function: VoltageOut}
	cfg.Channels[2] = ChannelConfig{Enabled: true, Function: DigitalInput}

	d, _, _ := newTestIIO(t, AD74413R, cfg)

	first := chanSummary(d.Device())

	cfg.Apply = true
	err := d.ApplyConfig()
	if err != nil {
		t.Fatalf("could not apply configuration: %+v", err)
	}
	if cfg.Apply {
		t.Fatalf("apply latch not cleared")
	}
	if got := chanSummary(d.Device()); !reflect.DeepEqual(got, first) {
		t.Fatalf("channel set changed across apply:\ngot= %v\nwant=%v", got, first)
	}

	err = d.ApplyConfig()
	if err != nil {
		t.Fatalf("could not re-apply configuration: %+v", err)
	}
	if got := chanSummary(d.Device()); !reflect.DeepEqual(got, first) {
		t.Fatalf("channel set not stable across re-apply:\ngot= %v\nwant=%v", got, first)
	}
}

func TestAcquisition(t *testing.T) {
	cfg := &Config{}
	cfg.Channels[0] = ChannelConfig{Enabled: true, Function: VoltageIn}
	cfg.Channels[1] = ChannelConfig{Enabled: true, Function: CurrentInExt}

	d, conn, ring := newTestIIO(t, AD74413R, cfg)

	const mask = uint32(0b001101) // scan indices 0, 2 and 3

	err := d.UpdateChannels(mask)
	if err != nil {
		t.Fatalf("could not arm acquisition: %+v", err)
	}

	ctrl := conn.regs[RegAdcConvCtrl]
	if got := ctrl & AllChEnMask; got != 0x31 {
		t.Fatalf("invalid channel enables: got 0x%02x, want 0x31", got)
	}
	if got := ConvSeq(fieldGet(ConvSeqMask, ctrl)); got != StartCont {
		t.Fatalf("conversion not started: seq=%d", got)
	}

	conn.reads = nil
	err = d.Trigger()
	if err != nil {
		t.Fatalf("could not trigger scan: %+v", err)
	}

	want := []uint32{RegAdcResult(0), RegDiagResult(2), RegDiagResult(3)}
	if !reflect.DeepEqual(conn.reads, want) {
		t.Fatalf("invalid read sequence:\ngot= %#v\nwant=%#v", conn.reads, want)
	}
	if n := bits.OnesCount32(mask); len(conn.reads) != n {
		t.Fatalf("read count %d does not match mask population %d", len(conn.reads), n)
	}

	if ring.Len() != 1 {
		t.Fatalf("invalid ring length: got %d, want 1", ring.Len())
	}

	err = d.BufferDisable()
	if err != nil {
		t.Fatalf("could not disarm acquisition: %+v", err)
	}
	if got := ConvSeq(fieldGet(ConvSeqMask, conn.regs[RegAdcConvCtrl])); got != StopPwrDown {
		t.Fatalf("conversion not stopped: seq=%d", got)
	}
}

func TestConfigSurface(t *testing.T) {
	cfg := &Config{}
	d := NewConfigIIO(cfg)

	err := d.Device().WriteAttr(1, "function_cfg", []byte("current_in_ext"))
	if err != nil {
		t.Fatalf("could not write function: %+v", err)
	}
	if cfg.Channels[1].Function != CurrentInExt {
		t.Fatalf("function not stored: %v", cfg.Channels[1].Function)
	}
	if got := readAttr(t, d, 1, "function_cfg"); got != "current_in_ext" {
		t.Fatalf("invalid function read-back: %q", got)
	}

	err = d.Device().WriteAttr(1, "function_cfg", []byte("bogus"))
	if !errors.Is(err, swio.ErrInvalidArgument) {
		t.Fatalf("invalid error for unknown function: %+v", err)
	}

	err = d.Device().WriteAttr(1, "enabled", []byte("1"))
	if err != nil {
		t.Fatalf("could not enable channel: %+v", err)
	}
	if !cfg.Channels[1].Enabled {
		t.Fatalf("channel not enabled")
	}

	err = d.Device().WriteAttr(-1, "apply", nil)
	if err != nil {
		t.Fatalf("could not set apply latch: %+v", err)
	}
	if !cfg.Apply {
		t.Fatalf("apply latch not set")
	}
	if got := readAttr(t, d, -1, "apply"); got != "1" {
		t.Fatalf("invalid apply read-back: %q", got)
	}
}
