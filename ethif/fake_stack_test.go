// Copyright 2023 The go-swio Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ethif

type fakeWrite struct {
	data []byte
	more bool
}

type fakeConn struct {
	port    uint16
	backlog int

	accept func(Conn) error
	recv   func(*Buf) error
	onErr  func(error)

	sndbuf  int
	writes  []fakeWrite
	outputs int
	recved  []int

	writeErr  error
	outputErr error
	closeErrs []error
	closes    int
}

func (c *fakeConn) Bind(port uint16) error { c.port = port; return nil }

func (c *fakeConn) Listen(backlog int) (Conn, error) {
	c.backlog = backlog
	return c, nil
}

func (c *fakeConn) SetAccept(fn func(Conn) error) { c.accept = fn }
func (c *fakeConn) SetRecv(fn func(*Buf) error)   { c.recv = fn }
func (c *fakeConn) SetError(fn func(error))       { c.onErr = fn }

func (c *fakeConn) SendBufferSize() int { return c.sndbuf }

func (c *fakeConn) Write(p []byte, more bool) error {
	if c.writeErr != nil {
		return c.writeErr
	}
	data := make([]byte, len(p))
	copy(data, p)
	c.writes = append(c.writes, fakeWrite{data: data, more: more})
	return nil
}

func (c *fakeConn) Output() error {
	if c.outputErr != nil {
		return c.outputErr
	}
	c.outputs++
	return nil
}

func (c *fakeConn) Recved(n int) { c.recved = append(c.recved, n) }

func (c *fakeConn) Close() error {
	c.closes++
	if len(c.closeErrs) == 0 {
		return nil
	}
	err := c.closeErrs[0]
	c.closeErrs = c.closeErrs[1:]
	return err
}

type fakeStack struct {
	conns  []*fakeConn
	newErr error

	inputs [][]byte
	inErr  error
	ticks  int
}

func (s *fakeStack) NewConn() (Conn, error) {
	if s.newErr != nil {
		return nil, s.newErr
	}
	conn := &fakeConn{sndbuf: 1024}
	s.conns = append(s.conns, conn)
	return conn, nil
}

func (s *fakeStack) Input(dst, src []byte, ethertype uint16, payload []byte) error {
	if s.inErr != nil {
		return s.inErr
	}
	data := make([]byte, len(payload))
	copy(data, payload)
	s.inputs = append(s.inputs, data)
	return nil
}

func (s *fakeStack) CheckTimeouts() { s.ticks++ }

var (
	_ Conn  = (*fakeConn)(nil)
	_ Stack = (*fakeStack)(nil)
)
