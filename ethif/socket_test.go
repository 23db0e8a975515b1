// Copyright 2023 The go-swio Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ethif

import (
	"bytes"
	"errors"
	"reflect"
	"testing"

	"github.com/go-swio/swio"
)

func TestOpenPoolExhaustion(t *testing.T) {
	stk := new(fakeStack)
	socks := NewSockets(stk)

	for i := 0; i < MaxSockets; i++ {
		id, err := socks.Open()
		if err != nil {
			t.Fatalf("could not open socket %d: %+v", i, err)
		}
		if id != i {
			t.Fatalf("invalid socket id: got=%d, want=%d", id, i)
		}
	}

	_, err := socks.Open()
	if !errors.Is(err, swio.ErrNoResource) {
		t.Fatalf("invalid pool exhaustion error: %+v", err)
	}
}

func TestAcceptFlow(t *testing.T) {
	stk := new(fakeStack)
	socks := NewSockets(stk)

	id, err := socks.Open()
	if err != nil {
		t.Fatalf("could not open socket: %+v", err)
	}
	if err := socks.Bind(id, 8080); err != nil {
		t.Fatalf("could not bind socket: %+v", err)
	}
	if err := socks.Listen(id, 4); err != nil {
		t.Fatalf("could not listen: %+v", err)
	}

	conn := stk.conns[0]
	if conn.port != 8080 {
		t.Fatalf("invalid bound port: got=%d, want=8080", conn.port)
	}
	if conn.backlog != 4 {
		t.Fatalf("invalid backlog: got=%d, want=4", conn.backlog)
	}
	if got, want := socks.socks[id].state, sockListening; got != want {
		t.Fatalf("invalid state after listen: got=%v, want=%v", got, want)
	}

	_, err = socks.Accept(id)
	if !errors.Is(err, swio.ErrTryAgain) {
		t.Fatalf("invalid error for empty accept: %+v", err)
	}
	if got, want := socks.socks[id].state, sockAccepting; got != want {
		t.Fatalf("invalid state after accept: got=%v, want=%v", got, want)
	}
	if conn.accept == nil {
		t.Fatalf("acceptance callback not armed")
	}

	cli := &fakeConn{sndbuf: 1024}
	if err := conn.accept(cli); err != nil {
		t.Fatalf("could not run acceptance callback: %+v", err)
	}
	if got, want := socks.socks[1].state, sockWaitingAccept; got != want {
		t.Fatalf("invalid client state: got=%v, want=%v", got, want)
	}

	cid, err := socks.Accept(id)
	if err != nil {
		t.Fatalf("could not accept connection: %+v", err)
	}
	if cid != 1 {
		t.Fatalf("invalid client id: got=%d, want=1", cid)
	}
	if got, want := socks.socks[cid].state, sockConnected; got != want {
		t.Fatalf("invalid client state: got=%v, want=%v", got, want)
	}

	_, err = socks.Accept(id)
	if !errors.Is(err, swio.ErrTryAgain) {
		t.Fatalf("invalid error for drained accept: %+v", err)
	}
}

func TestAcceptNotListening(t *testing.T) {
	stk := new(fakeStack)
	socks := NewSockets(stk)

	id, err := socks.Open()
	if err != nil {
		t.Fatalf("could not open socket: %+v", err)
	}

	_, err = socks.Accept(id)
	if !errors.Is(err, swio.ErrInvalidArgument) {
		t.Fatalf("invalid error for accept on disconnected socket: %+v", err)
	}
}

// newConnected returns a pool with one connected socket, bypassing
// the accept path.
func newConnected(t *testing.T) (*Sockets, int, *fakeConn) {
	t.Helper()

	stk := new(fakeStack)
	socks := NewSockets(stk)

	id, err := socks.Open()
	if err != nil {
		t.Fatalf("could not open socket: %+v", err)
	}
	socks.socks[id].state = sockConnected

	return socks, id, stk.conns[0]
}

func TestRecvChain(t *testing.T) {
	socks, id, conn := newConnected(t)

	seg1 := bytes.Repeat([]byte{0xAA}, 10)
	seg2 := bytes.Repeat([]byte{0xBB}, 20)
	if err := conn.recv(&Buf{Data: seg1}); err != nil {
		t.Fatalf("could not queue first segment: %+v", err)
	}
	if err := conn.recv(&Buf{Data: seg2}); err != nil {
		t.Fatalf("could not queue second segment: %+v", err)
	}
	if got, want := socks.socks[id].buf.Len(), 30; got != want {
		t.Fatalf("invalid chain length: got=%d, want=%d", got, want)
	}

	buf := make([]byte, 25)
	n, err := socks.Recv(id, buf)
	if err != nil {
		t.Fatalf("could not recv: %+v", err)
	}
	if n != 25 {
		t.Fatalf("invalid recv length: got=%d, want=25", n)
	}
	want := append(bytes.Repeat([]byte{0xAA}, 10), bytes.Repeat([]byte{0xBB}, 15)...)
	if !bytes.Equal(buf, want) {
		t.Fatalf("invalid recv data:\ngot = %x\nwant= %x", buf, want)
	}
	if got, want := conn.recved, []int{10}; !reflect.DeepEqual(got, want) {
		t.Fatalf("invalid acknowledgments: got=%v, want=%v", got, want)
	}
	if got, want := socks.socks[id].off, 15; got != want {
		t.Fatalf("invalid chain offset: got=%d, want=%d", got, want)
	}

	n, err = socks.Recv(id, buf)
	if err != nil {
		t.Fatalf("could not recv remainder: %+v", err)
	}
	if n != 5 {
		t.Fatalf("invalid remainder length: got=%d, want=5", n)
	}
	if got, want := conn.recved, []int{10, 20}; !reflect.DeepEqual(got, want) {
		t.Fatalf("invalid acknowledgments: got=%v, want=%v", got, want)
	}
	if socks.socks[id].buf != nil {
		t.Fatalf("chain not drained")
	}
}

func TestRecvPeerClose(t *testing.T) {
	socks, id, conn := newConnected(t)

	if err := conn.recv(nil); err != nil {
		t.Fatalf("could not run close notification: %+v", err)
	}
	if got, want := socks.socks[id].state, sockDisconnected; got != want {
		t.Fatalf("invalid state after peer close: got=%v, want=%v", got, want)
	}
	if conn.recv != nil {
		t.Fatalf("receive callback still armed after peer close")
	}
}

func TestSendFull(t *testing.T) {
	socks, id, conn := newConnected(t)

	msg := []byte("hello")
	n, err := socks.Send(id, msg)
	if err != nil {
		t.Fatalf("could not send: %+v", err)
	}
	if n != len(msg) {
		t.Fatalf("invalid send length: got=%d, want=%d", n, len(msg))
	}
	if len(conn.writes) != 1 {
		t.Fatalf("invalid number of writes: got=%d, want=1", len(conn.writes))
	}
	if conn.writes[0].more {
		t.Fatalf("full send flagged for batching")
	}
	if conn.outputs != 1 {
		t.Fatalf("full send not flushed: outputs=%d", conn.outputs)
	}
}

func TestSendPartial(t *testing.T) {
	socks, id, conn := newConnected(t)
	conn.sndbuf = 8

	n, err := socks.Send(id, bytes.Repeat([]byte{0xCC}, 20))
	if err != nil {
		t.Fatalf("could not send: %+v", err)
	}
	if n != 8 {
		t.Fatalf("invalid send length: got=%d, want=8", n)
	}
	if !conn.writes[0].more {
		t.Fatalf("partial send not flagged for batching")
	}
	if conn.outputs != 0 {
		t.Fatalf("partial send flushed: outputs=%d", conn.outputs)
	}
}

func TestSendBackpressure(t *testing.T) {
	socks, id, conn := newConnected(t)
	conn.writeErr = ErrMem

	_, err := socks.Send(id, []byte("hello"))
	if !errors.Is(err, swio.ErrTryAgain) {
		t.Fatalf("invalid error for exhausted send buffer: %+v", err)
	}

	conn.writeErr = nil
	conn.outputErr = ErrMem
	_, err = socks.Send(id, []byte("hello"))
	if !errors.Is(err, swio.ErrTryAgain) {
		t.Fatalf("invalid error for exhausted output: %+v", err)
	}
}

func TestSendNotConnected(t *testing.T) {
	stk := new(fakeStack)
	socks := NewSockets(stk)

	id, err := socks.Open()
	if err != nil {
		t.Fatalf("could not open socket: %+v", err)
	}

	_, err = socks.Send(id, []byte("hello"))
	if !errors.Is(err, swio.ErrInvalidArgument) {
		t.Fatalf("invalid error for send on disconnected socket: %+v", err)
	}
	_, err = socks.Recv(id, make([]byte, 8))
	if !errors.Is(err, swio.ErrInvalidArgument) {
		t.Fatalf("invalid error for recv on disconnected socket: %+v", err)
	}
}

func TestCloseRetry(t *testing.T) {
	socks, id, conn := newConnected(t)
	conn.closeErrs = []error{ErrMem, ErrMem, nil}

	if err := conn.recv(&Buf{Data: make([]byte, 10)}); err != nil {
		t.Fatalf("could not queue segment: %+v", err)
	}
	if err := conn.recv(&Buf{Data: make([]byte, 20)}); err != nil {
		t.Fatalf("could not queue segment: %+v", err)
	}

	if err := socks.Close(id); err != nil {
		t.Fatalf("could not close socket: %+v", err)
	}
	if conn.closes != 3 {
		t.Fatalf("invalid number of close attempts: got=%d, want=3", conn.closes)
	}
	if got, want := conn.recved, []int{30}; !reflect.DeepEqual(got, want) {
		t.Fatalf("unconsumed data not acknowledged: got=%v, want=%v", got, want)
	}
	if got, want := socks.socks[id].state, sockUnused; got != want {
		t.Fatalf("invalid state after close: got=%v, want=%v", got, want)
	}
	if conn.recv != nil || conn.onErr != nil {
		t.Fatalf("callbacks still armed after close")
	}

	if err := socks.Close(id); !errors.Is(err, swio.ErrInvalidArgument) {
		t.Fatalf("invalid error for double close: %+v", err)
	}
}

func TestSlotReuseAfterClose(t *testing.T) {
	socks, id, _ := newConnected(t)

	if err := socks.Close(id); err != nil {
		t.Fatalf("could not close socket: %+v", err)
	}

	nid, err := socks.Open()
	if err != nil {
		t.Fatalf("could not reopen socket: %+v", err)
	}
	if nid != id {
		t.Fatalf("slot not reused: got=%d, want=%d", nid, id)
	}
}
