// Copyright 2023 The go-swio Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ethif

import (
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/go-swio/swio"
	"github.com/go-swio/swio/adin1110"
)

// Bridge is the frame transmit/receive surface of the MAC consumed
// by Interface. *adin1110.Device implements Bridge.
type Bridge interface {
	WriteFrame(port int, frm *adin1110.Frame) error
	ReadFrame(port int) (*adin1110.Frame, error)
	LinkState() (bool, error)
}

// Interface is the link layer glue between a Bridge port and a
// network stack: it implements the stack's raw output hook and
// drains received frames into the stack from the owner's poll loop.
type Interface struct {
	msg  *log.Logger
	brd  Bridge
	stk  Stack
	port int
}

// NewInterface returns an Interface feeding the given stack from the
// given MAC port.
func NewInterface(brd Bridge, stk Stack, port int) *Interface {
	return &Interface{
		msg:  log.New(os.Stdout, "ethif: ", 0),
		brd:  brd,
		stk:  stk,
		port: port,
	}
}

// LinkOutput transmits one frame on behalf of the stack. The
// transmit FIFO may be momentarily full, so backpressure is retried
// until the frame is accepted.
func (itf *Interface) LinkOutput(frm *adin1110.Frame) error {
	for {
		err := itf.brd.WriteFrame(itf.port, frm)
		if err == nil {
			return nil
		}
		if !errors.Is(err, swio.ErrTryAgain) {
			return fmt.Errorf("ethif: could not transmit frame: %w", err)
		}
	}
}

// Poll drains all pending received frames into the stack, then runs
// the stack's timers. It returns the number of frames delivered.
// Poll is the single entry point of the cooperative loop driving
// this package.
func (itf *Interface) Poll() (int, error) {
	n := 0
	for {
		frm, err := itf.brd.ReadFrame(itf.port)
		if err != nil {
			return n, fmt.Errorf("ethif: could not read frame: %w", err)
		}
		if frm == nil {
			break
		}
		err = itf.stk.Input(frm.Dst, frm.Src, frm.Ethertype, frm.Payload)
		if err != nil {
			itf.msg.Printf("could not deliver frame: %+v", err)
		}
		n++
	}

	itf.stk.CheckTimeouts()

	return n, nil
}

// Up reports whether the underlying link is established.
func (itf *Interface) Up() (bool, error) {
	return itf.brd.LinkState()
}
