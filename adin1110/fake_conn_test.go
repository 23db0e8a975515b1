// Copyright 2023 The go-swio Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package adin1110

import (
	"encoding/binary"
	"fmt"
)

type regWrite struct {
	addr uint16
	val  uint32
}

// fakeConn models the MAC behind the SPI control framing: register
// writes land in regs, FIFO bursts are captured whole, MDIO access
// completes immediately and RX bursts replay a seeded frame.
type fakeConn struct {
	regs    map[uint16]uint32
	mdio    map[uint32]uint16
	writes  []regWrite
	bursts  [][]byte
	rxFrame []byte // dst+src+ethertype+payload, as the chip returns it
	err     error
}

func newFakeConn() *fakeConn {
	return &fakeConn{
		regs: map[uint16]uint32{
			RegStatus0: ResetComplete,
			RegTxSpace: 0x0FFF,
		},
		mdio: make(map[uint32]uint16),
	}
}

func (c *fakeConn) Transfer(tx, rx []byte) error {
	if c.err != nil {
		return c.err
	}
	if tx[0]&spiCD == 0 {
		return fmt.Errorf("fake: not a control frame")
	}

	addr := binary.BigEndian.Uint16(tx[0:2]) & spiAddrMask

	if tx[0]&spiRW != 0 {
		if addr == RegTx {
			burst := make([]byte, len(tx))
			copy(burst, tx)
			c.bursts = append(c.bursts, burst)
			return nil
		}
		c.store(addr, binary.BigEndian.Uint32(tx[2:6]))
		return nil
	}

	switch addr {
	case RegRx, RegRxP2:
		copy(rx[rdHeaderLen+FrameHeaderLen:], c.rxFrame)
	default:
		binary.BigEndian.PutUint32(rx[3:7], c.regs[addr])
	}
	return nil
}

func (c *fakeConn) store(addr uint16, val uint32) {
	c.writes = append(c.writes, regWrite{addr, val})

	if addr == RegMdioAcc(0) || addr == RegMdioAcc(1) {
		var (
			op   = (val & mdioOP) >> 26
			key  = (val & (mdioPrtAd | mdioDevAd)) >> 16
			data = uint16(val & mdioData)
		)
		switch op {
		case mdioOpWr:
			c.mdio[key] = data
			c.regs[addr] = val | MdioTRDone
		case mdioOpRd:
			c.regs[addr] = (val &^ mdioData) | uint32(c.mdio[key]) | MdioTRDone
		default: // address phase
			c.regs[addr] = val | MdioTRDone
		}
		return
	}

	c.regs[addr] = val
}
