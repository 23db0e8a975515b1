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
)

// MaxSockets is the capacity of the socket pool.
const MaxSockets = 10

type sockState uint8

const (
	sockUnused sockState = iota
	sockDisconnected
	sockListening
	sockAccepting
	sockWaitingAccept
	sockConnected
)

func (st sockState) String() string {
	switch st {
	case sockUnused:
		return "unused"
	case sockDisconnected:
		return "disconnected"
	case sockListening:
		return "listening"
	case sockAccepting:
		return "accepting"
	case sockWaitingAccept:
		return "waiting-accept"
	case sockConnected:
		return "connected"
	}
	return fmt.Sprintf("sockState(%d)", uint8(st))
}

type socket struct {
	state sockState
	conn  Conn
	buf   *Buf // head of the unconsumed receive chain
	off   int  // bytes consumed from buf.Data
}

// Sockets maps socket identifiers onto a fixed pool of stack
// endpoints. All methods must be called from the poll loop that
// drives the stack.
type Sockets struct {
	msg   *log.Logger
	stk   Stack
	socks [MaxSockets]socket
}

// NewSockets returns a socket pool backed by the given stack.
func NewSockets(stk Stack) *Sockets {
	return &Sockets{
		msg: log.New(os.Stdout, "ethif: ", 0),
		stk: stk,
	}
}

func (s *Sockets) lookup(id int) (*socket, error) {
	if id < 0 || id >= MaxSockets {
		return nil, fmt.Errorf("ethif: socket id %d out of range: %w", id, swio.ErrInvalidArgument)
	}
	return &s.socks[id], nil
}

// alloc claims the first unused slot and moves it to the
// disconnected state.
func (s *Sockets) alloc() (int, error) {
	for i := range s.socks {
		if s.socks[i].state == sockUnused {
			s.socks[i].state = sockDisconnected
			return i, nil
		}
	}
	return -1, fmt.Errorf("ethif: socket pool exhausted: %w", swio.ErrNoResource)
}

func (s *Sockets) config(sk *socket) {
	sk.conn.SetRecv(func(b *Buf) error { return s.recv(sk, b) })
	sk.conn.SetError(func(err error) {
		s.msg.Printf("connection error: %+v", err)
	})
}

// recv is the receive callback shared by all sockets. A nil buffer
// signals a peer-initiated close.
func (s *Sockets) recv(sk *socket, b *Buf) error {
	if b == nil {
		sk.conn.SetRecv(nil)
		sk.state = sockDisconnected
		return nil
	}

	if sk.buf == nil {
		sk.buf = b
		sk.off = 0
	} else {
		sk.buf.Chain(b)
	}
	return nil
}

// Open allocates a socket and its underlying endpoint, returning the
// socket identifier.
func (s *Sockets) Open() (int, error) {
	id, err := s.alloc()
	if err != nil {
		return -1, err
	}

	conn, err := s.stk.NewConn()
	if err != nil {
		s.socks[id].state = sockUnused
		return -1, fmt.Errorf("ethif: could not create endpoint: %w", err)
	}

	sk := &s.socks[id]
	sk.conn = conn
	sk.buf = nil
	sk.off = 0
	s.config(sk)

	return id, nil
}

// Bind attaches the socket to a local port.
func (s *Sockets) Bind(id int, port uint16) error {
	sk, err := s.lookup(id)
	if err != nil {
		return err
	}

	if err := sk.conn.Bind(port); err != nil {
		return fmt.Errorf("ethif: could not bind port %d: %w", port, err)
	}
	return nil
}

// Listen puts the socket into the listening state.
func (s *Sockets) Listen(id int, backlog int) error {
	sk, err := s.lookup(id)
	if err != nil {
		return err
	}

	conn, err := sk.conn.Listen(backlog)
	if err != nil {
		return fmt.Errorf("ethif: could not listen: %w", err)
	}
	sk.conn = conn
	sk.state = sockListening
	s.config(sk)

	return nil
}

// accept is the stack's acceptance callback: it claims a slot for the
// inbound connection and parks it until Accept picks it up.
func (s *Sockets) accept(conn Conn) error {
	id, err := s.alloc()
	if err != nil {
		return err
	}

	sk := &s.socks[id]
	sk.conn = conn
	sk.buf = nil
	sk.off = 0
	sk.state = sockWaitingAccept
	s.config(sk)

	return nil
}

// Accept polls for an inbound connection on a listening socket. The
// first call arms the acceptance callback. When no connection is
// pending Accept fails with swio.ErrTryAgain and the caller polls
// again later.
func (s *Sockets) Accept(id int) (int, error) {
	sk, err := s.lookup(id)
	if err != nil {
		return -1, err
	}

	if sk.state != sockAccepting {
		if sk.state != sockListening {
			return -1, fmt.Errorf("ethif: accept on %v socket: %w", sk.state, swio.ErrInvalidArgument)
		}
		sk.conn.SetAccept(s.accept)
		sk.state = sockAccepting
	}

	for i := range s.socks {
		cli := &s.socks[i]
		if cli.state == sockWaitingAccept {
			cli.state = sockConnected
			return i, nil
		}
	}

	return -1, fmt.Errorf("ethif: no pending connection: %w", swio.ErrTryAgain)
}

// Send queues up to len(p) bytes for sending and returns the number
// queued. When the endpoint's send buffer cannot hold all of p, the
// excess is left to the caller and the queued part is flagged for
// batching instead of being flushed.
func (s *Sockets) Send(id int, p []byte) (int, error) {
	sk, err := s.lookup(id)
	if err != nil {
		return 0, err
	}

	if sk.state != sockConnected {
		return 0, fmt.Errorf("ethif: send on %v socket: %w", sk.state, swio.ErrInvalidArgument)
	}

	avail := sk.conn.SendBufferSize()
	more := avail < len(p)
	n := len(p)
	if more {
		n = avail
	}

	if err := sk.conn.Write(p[:n], more); err != nil {
		if errors.Is(err, ErrMem) {
			return 0, fmt.Errorf("ethif: send buffer full: %w", swio.ErrTryAgain)
		}
		return 0, fmt.Errorf("ethif: could not write: %w", err)
	}

	if !more {
		if err := sk.conn.Output(); err != nil {
			if errors.Is(err, ErrMem) {
				return 0, fmt.Errorf("ethif: could not flush output: %w", swio.ErrTryAgain)
			}
			return 0, fmt.Errorf("ethif: could not flush output: %w", err)
		}
	}

	return n, nil
}

// Recv copies up to len(p) bytes out of the socket's receive chain
// and returns the number copied. Each chain segment is acknowledged
// to the stack as it is fully consumed.
func (s *Sockets) Recv(id int, p []byte) (int, error) {
	sk, err := s.lookup(id)
	if err != nil {
		return 0, err
	}

	if sk.state != sockConnected {
		return 0, fmt.Errorf("ethif: recv on %v socket: %w", sk.state, swio.ErrInvalidArgument)
	}

	i := 0
	b := sk.buf
	for b != nil && i < len(p) {
		n := copy(p[i:], b.Data[sk.off:])
		i += n
		sk.off += n
		if sk.off == len(b.Data) {
			sk.conn.Recved(sk.off)
			sk.off = 0
			b = b.Next
		}
	}
	sk.buf = b

	return i, nil
}

// Close tears the socket down and releases its slot. Unconsumed
// receive data is acknowledged and discarded first. The endpoint
// close is retried while the stack cannot allocate the closing
// segment.
func (s *Sockets) Close(id int) error {
	sk, err := s.lookup(id)
	if err != nil {
		return err
	}

	if sk.state == sockUnused {
		return fmt.Errorf("ethif: close on unused socket: %w", swio.ErrInvalidArgument)
	}

	sk.conn.SetRecv(nil)
	sk.conn.SetError(nil)

	if sk.buf != nil {
		sk.conn.Recved(sk.buf.Len())
		sk.buf = nil
	}

	for {
		err := sk.conn.Close()
		if err == nil {
			break
		}
		if !errors.Is(err, ErrMem) {
			return fmt.Errorf("ethif: could not close endpoint: %w", err)
		}
	}

	sk.off = 0
	sk.state = sockUnused

	return nil
}
