// Copyright 2023 The go-swio Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package adin1110

import (
	"bytes"
	"errors"
	"net"
	"testing"

	"github.com/go-swio/swio"
)

var (
	dstMAC = net.HardwareAddr{0x02, 0x00, 0xAD, 0x11, 0x10, 0x02}
	srcMAC = testMAC
)

func TestWriteFramePadding(t *testing.T) {
	dev, conn := newTestDevice(t, ADIN1110)

	frm := &Frame{
		Dst:       dstMAC,
		Src:       srcMAC,
		Ethertype: 0x0800,
		Payload:   []byte("0123456789"),
	}

	err := dev.WriteFrame(0, frm)
	if err != nil {
		t.Fatalf("could not write frame: %+v", err)
	}

	// 10 payload bytes padded so header+payload+fcs reaches 64 on
	// the wire: 46 buffer bytes, plus the 14-byte header and the
	// 2-byte fifo frame header.
	const frameLen = 62
	if got := conn.regs[RegTxFSize]; got != frameLen {
		t.Fatalf("invalid frame size: got %d, want %d", got, frameLen)
	}

	if len(conn.bursts) != 1 {
		t.Fatalf("invalid burst count: %d", len(conn.bursts))
	}
	burst := conn.bursts[0]

	if got, want := len(burst), 64+wrHeaderLen; got != want {
		t.Fatalf("invalid burst length: got %d, want %d", got, want)
	}

	if !bytes.Equal(burst[4:10], dstMAC) {
		t.Fatalf("invalid destination: % x", burst[4:10])
	}
	if !bytes.Equal(burst[10:16], srcMAC) {
		t.Fatalf("invalid source: % x", burst[10:16])
	}
	if burst[16] != 0x08 || burst[17] != 0x00 {
		t.Fatalf("invalid ethertype: % x", burst[16:18])
	}
	if !bytes.Equal(burst[18:28], frm.Payload) {
		t.Fatalf("invalid payload: % x", burst[18:28])
	}
	for i, v := range burst[28:] {
		if v != 0 {
			t.Fatalf("padding byte %d not zero: 0x%02x", i, v)
		}
	}
}

func TestWriteFrameBackpressure(t *testing.T) {
	dev, conn := newTestDevice(t, ADIN1110)

	conn.regs[RegTxSpace] = 10 // room for 16 bytes only
	conn.writes = nil

	frm := &Frame{Dst: dstMAC, Src: srcMAC, Ethertype: 0x0800, Payload: []byte("0123456789")}
	err := dev.WriteFrame(0, frm)
	if !errors.Is(err, swio.ErrTryAgain) {
		t.Fatalf("invalid error under backpressure: %+v", err)
	}

	for _, w := range conn.writes {
		if w.addr == RegTxFSize {
			t.Fatalf("frame size written despite backpressure")
		}
	}
	if len(conn.bursts) != 0 {
		t.Fatalf("frame burst despite backpressure")
	}
}

func TestWriteFrameOverflowFlush(t *testing.T) {
	dev, conn := newTestDevice(t, ADIN1110)

	conn.regs[RegStatus0] |= TxFifoErr
	conn.writes = nil

	frm := &Frame{Dst: dstMAC, Src: srcMAC, Ethertype: 0x0800, Payload: []byte("0123456789")}
	err := dev.WriteFrame(0, frm)
	if !errors.Is(err, swio.ErrTryAgain) {
		t.Fatalf("invalid error on overflow: %+v", err)
	}

	var flush []regWrite
	for _, w := range conn.writes {
		if w.addr == RegFifoClr || w.addr == RegStatus0 {
			flush = append(flush, w)
		}
	}
	want := []regWrite{{RegFifoClr, 0x2}, {RegStatus0, 0x1}}
	if len(flush) != len(want) || flush[0] != want[0] || flush[1] != want[1] {
		t.Fatalf("invalid flush sequence: %#v", flush)
	}
}

func TestReadFrame(t *testing.T) {
	dev, conn := newTestDevice(t, ADIN1110)

	payload := []byte("0123456789")
	var frame []byte
	frame = append(frame, dstMAC...)
	frame = append(frame, srcMAC...)
	frame = append(frame, 0x00, 0x08) // 0x0800, least significant first
	frame = append(frame, payload...)

	conn.rxFrame = frame
	conn.regs[RegRxFSize] = uint32(FrameHeaderLen + EthHeaderLen + len(payload))

	frm, err := dev.ReadFrame(0)
	if err != nil {
		t.Fatalf("could not read frame: %+v", err)
	}
	if frm == nil {
		t.Fatalf("no frame decoded")
	}

	if !bytes.Equal(frm.Dst, dstMAC) {
		t.Fatalf("invalid destination: %v", frm.Dst)
	}
	if !bytes.Equal(frm.Src, srcMAC) {
		t.Fatalf("invalid source: %v", frm.Src)
	}
	if frm.Ethertype != 0x0800 {
		t.Fatalf("invalid ethertype: 0x%04x", frm.Ethertype)
	}
	if !bytes.Equal(frm.Payload, payload) {
		t.Fatalf("invalid payload: %q", frm.Payload)
	}
}

func TestReadFrameEmpty(t *testing.T) {
	dev, conn := newTestDevice(t, ADIN1110)

	conn.regs[RegRxFSize] = 4

	frm, err := dev.ReadFrame(0)
	if err != nil {
		t.Fatalf("invalid error for empty fifo: %+v", err)
	}
	if frm != nil {
		t.Fatalf("decoded a frame from an empty fifo: %#v", frm)
	}
}

func TestInvalidPort(t *testing.T) {
	dev, _ := newTestDevice(t, ADIN1110)

	frm := &Frame{Dst: dstMAC, Src: srcMAC, Payload: []byte("x")}
	err := dev.WriteFrame(1, frm)
	if !errors.Is(err, swio.ErrInvalidArgument) {
		t.Fatalf("invalid error for tx port: %+v", err)
	}

	_, err = dev.ReadFrame(1)
	if !errors.Is(err, swio.ErrInvalidArgument) {
		t.Fatalf("invalid error for rx port: %+v", err)
	}
}
