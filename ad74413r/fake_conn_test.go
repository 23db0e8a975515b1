// Copyright 2023 The go-swio Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ad74413r

import (
	"encoding/binary"
	"fmt"

	"github.com/go-swio/swio/spibus"
)

type regWrite struct {
	addr uint32
	val  uint16
}

// fakeConn models the chip's register file behind the 4-byte SPI
// framing: writes land in regs, reads go through the read-select
// register and come back during a NOP frame.
type fakeConn struct {
	regs   map[uint32]uint16
	sel    uint16
	writes []regWrite
	reads  []uint32
	err    error
}

func newFakeConn() *fakeConn {
	return &fakeConn{regs: make(map[uint32]uint16)}
}

func (c *fakeConn) Transfer(tx, rx []byte) error {
	if c.err != nil {
		return c.err
	}
	if len(tx) != frameSize {
		return fmt.Errorf("fake: invalid frame size %d", len(tx))
	}
	if crc := spibus.CRC8(tx[:3]); crc != tx[3] {
		return fmt.Errorf("fake: bad crc 0x%02x, want 0x%02x", tx[3], crc)
	}

	addr := uint32(tx[0])
	val := binary.BigEndian.Uint16(tx[1:3])

	switch addr {
	case RegNop:
		if rx != nil {
			c.reads = append(c.reads, uint32(c.sel))
			rx[0] = uint8(c.sel)
			binary.BigEndian.PutUint16(rx[1:3], c.regs[uint32(c.sel)])
			rx[3] = spibus.CRC8(rx[:3])
		}
	case RegReadSelect:
		c.sel = val
	default:
		c.regs[addr] = val
		c.writes = append(c.writes, regWrite{addr, val})
	}

	return nil
}
