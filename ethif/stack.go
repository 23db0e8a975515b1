// Copyright 2023 The go-swio Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package ethif bridges a software TCP/IP stack onto the frame
// transmit/receive surface of an ADIN1110 family MAC, and maps a
// small connection-oriented socket API onto the stack's endpoint
// primitives.
//
// The package is written for a single-threaded poll loop: the owner
// calls Interface.Poll to drain received frames and run the stack's
// timers, and the stack invokes accept/receive callbacks only from
// within that loop.
package ethif // import "github.com/go-swio/swio/ethif"

import (
	"errors"
)

// ErrMem reports a transient allocation failure inside the network
// stack. Operations failing with ErrMem may be retried once the
// stack has freed resources.
var ErrMem = errors.New("ethif: stack out of memory")

// Conn is one connection-oriented endpoint of the network stack.
// Callbacks registered on a Conn are invoked from the owner's poll
// loop, never from another goroutine.
type Conn interface {
	// Bind attaches the endpoint to a local port.
	Bind(port uint16) error

	// Listen puts the endpoint into the listening state with the
	// given backlog and returns the endpoint to use from then on,
	// which may differ from the receiver.
	Listen(backlog int) (Conn, error)

	// SetAccept registers fn to be called for each new inbound
	// connection. A nil fn deregisters the callback.
	SetAccept(fn func(Conn) error)

	// SetRecv registers fn to be called with each received buffer.
	// The stack signals a peer-initiated close by invoking fn with
	// a nil buffer. A nil fn deregisters the callback.
	SetRecv(fn func(b *Buf) error)

	// SetError registers fn to be called when the stack aborts the
	// connection. A nil fn deregisters the callback.
	SetError(fn func(err error))

	// SendBufferSize returns the number of bytes the endpoint can
	// currently accept for sending.
	SendBufferSize() int

	// Write queues p for sending. A true more flag tells the stack
	// further data follows and output may be batched.
	Write(p []byte, more bool) error

	// Output flushes queued data to the wire.
	Output() error

	// Recved acknowledges n received bytes, opening the receive
	// window back up.
	Recved(n int)

	// Close shuts the endpoint down. Close fails with ErrMem when
	// the stack cannot allocate the closing segment.
	Close() error
}

// Stack is the software network stack consumed by this package.
type Stack interface {
	// NewConn allocates a fresh endpoint.
	NewConn() (Conn, error)

	// Input delivers one received Ethernet frame to the stack.
	Input(dst, src []byte, ethertype uint16, payload []byte) error

	// CheckTimeouts runs the stack's expired timers.
	CheckTimeouts()
}

// Buf is a received data buffer. Buffers arriving while earlier data
// is still unconsumed are chained behind the head.
type Buf struct {
	Data []byte
	Next *Buf
}

// Len returns the total number of bytes in the chain starting at b.
func (b *Buf) Len() int {
	n := 0
	for p := b; p != nil; p = p.Next {
		n += len(p.Data)
	}
	return n
}

// Chain appends p at the tail of the chain starting at b.
func (b *Buf) Chain(p *Buf) {
	q := b
	for q.Next != nil {
		q = q.Next
	}
	q.Next = p
}
