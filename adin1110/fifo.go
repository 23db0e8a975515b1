// Copyright 2023 The go-swio Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package adin1110

import (
	"encoding/binary"
	"fmt"
	"net"

	"github.com/go-swio/swio"
	"github.com/go-swio/swio/spibus"
)

// Frame is one Ethernet frame moving through the chip FIFOs. The
// frame check sequence is inserted and stripped by the MAC.
type Frame struct {
	Dst       net.HardwareAddr
	Src       net.HardwareAddr
	Ethertype uint16
	Payload   []byte
}

// WriteFrame pushes a frame into the TX FIFO of the given port.
//
// Short payloads are padded so the wire frame reaches the 64-byte
// minimum. When the FIFO cannot take the frame, or reports an
// overflow after the burst, WriteFrame flushes it and returns
// swio.ErrTryAgain without side effects on the frame.
func (dev *Device) WriteFrame(port int, frm *Frame) error {
	dev.mu.Lock()
	defer dev.mu.Unlock()

	if port >= dev.Ports() {
		return fmt.Errorf("adin1110: invalid port %d: %w", port, swio.ErrInvalidArgument)
	}

	// the MAC appends the frame check sequence, so only the header
	// and payload count towards the minimum here
	var padding int
	if n := len(frm.Payload) + EthHeaderLen + FcsLen; n < MinFrameLen {
		padding = MinFrameLen - n
	}

	frameLen := len(frm.Payload) + padding + EthHeaderLen + FrameHeaderLen

	txSpace, err := dev.regRead(RegTxSpace)
	if err != nil {
		return err
	}

	// the space register counts half-words
	if frameLen > 2*(int(txSpace)-2) {
		return fmt.Errorf("adin1110: tx fifo full (%d halfwords free): %w", txSpace, swio.ErrTryAgain)
	}

	err = dev.regWrite(RegTxFSize, uint32(frameLen))
	if err != nil {
		return err
	}

	// bursts move whole 4-byte words
	aligned := (frameLen + 3) &^ 0x3

	hdr := wrHeaderLen
	tx := dev.txb[:]
	for i := range tx[:aligned+hdr+1] {
		tx[i] = 0
	}

	binary.BigEndian.PutUint16(tx[0:2], RegTx)
	tx[0] |= spiCD | spiRW

	if dev.crc {
		tx[2] = spibus.CRC8(tx[:2])
		hdr++
	}

	off := hdr
	binary.BigEndian.PutUint16(tx[off:], uint16(port))
	off += FrameHeaderLen

	copy(tx[off:], frm.Dst)
	off += EthAddrLen
	copy(tx[off:], frm.Src)
	off += EthAddrLen
	binary.BigEndian.PutUint16(tx[off:], frm.Ethertype)
	off += EthertypeLen
	copy(tx[off:], frm.Payload)

	err = dev.conn.Transfer(tx[:aligned+hdr], nil)
	if err != nil {
		return fmt.Errorf("adin1110: could not burst frame: %w", err)
	}

	status, err := dev.regRead(RegStatus0)
	if err != nil {
		return err
	}
	if status&TxFifoErr != 0 {
		// flush the TX FIFO and clear the error, values per the
		// datasheet recovery sequence
		err = dev.regWrite(RegFifoClr, 0x2)
		if err != nil {
			return err
		}
		err = dev.regWrite(RegStatus0, 0x1)
		if err != nil {
			return err
		}
		return fmt.Errorf("adin1110: tx fifo overflow: %w", swio.ErrTryAgain)
	}

	return nil
}

// ReadFrame pulls the next frame out of the RX FIFO of the given
// port. It returns nil when no complete frame is pending.
func (dev *Device) ReadFrame(port int) (*Frame, error) {
	dev.mu.Lock()
	defer dev.mu.Unlock()

	if port >= dev.Ports() {
		return nil, fmt.Errorf("adin1110: invalid port %d: %w", port, swio.ErrInvalidArgument)
	}

	fifoReg, fsizeReg := RegRx, RegRxFSize
	if port != 0 {
		fifoReg, fsizeReg = RegRxP2, RegRxP2FSize
	}

	fsize, err := dev.regRead(fsizeReg)
	if err != nil {
		return nil, err
	}
	if int(fsize) < FrameHeaderLen+EthHeaderLen {
		return nil, nil
	}

	payloadLen := int(fsize) - FrameHeaderLen - EthHeaderLen

	// bursts move whole 4-byte words, trailing bytes are zero
	aligned := (int(fsize) + 3) &^ 0x3

	hdr := rdHeaderLen
	tx := dev.txb[:]
	rx := dev.rxb[:]
	for i := range tx[:aligned+hdr+1] {
		tx[i] = 0
		rx[i] = 0
	}

	binary.BigEndian.PutUint16(tx[0:2], fifoReg)
	tx[0] |= spiCD

	if dev.crc {
		tx[2] = spibus.CRC8(tx[:2])
		hdr++
	}

	off := hdr
	binary.BigEndian.PutUint16(tx[off:], uint16(port))

	err = dev.conn.Transfer(tx[:aligned+hdr], rx[:aligned+hdr])
	if err != nil {
		return nil, fmt.Errorf("adin1110: could not burst frame: %w", err)
	}
	off += FrameHeaderLen

	frm := &Frame{
		Dst:     append(net.HardwareAddr(nil), rx[off:off+EthAddrLen]...),
		Payload: make([]byte, payloadLen),
	}
	off += EthAddrLen
	frm.Src = append(net.HardwareAddr(nil), rx[off:off+EthAddrLen]...)
	off += EthAddrLen
	// the chip delivers the ethertype least significant byte first
	frm.Ethertype = binary.LittleEndian.Uint16(rx[off:])
	off += EthertypeLen
	copy(frm.Payload, rx[off:off+payloadLen])

	return frm, nil
}
