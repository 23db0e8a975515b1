// Copyright 2023 The go-swio Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package adin1110 drives the ADIN1110 single-pair Ethernet MAC/PHY
// (and its two-port sibling, the ADIN2111) over SPI: register and
// MDIO access, resets, MAC filtering and frame transfer through the
// chip FIFOs.
package adin1110

import (
	"encoding/binary"
	"fmt"
	"log"
	"net"
	"os"
	"sync"
	"time"

	"github.com/go-swio/swio"
	"github.com/go-swio/swio/spibus"
)

// ChipID identifies the chip variant.
type ChipID uint8

const (
	ADIN1110 ChipID = iota
	ADIN2111
)

type chipInfo struct {
	phyID uint32
	ports int
}

var chips = [...]chipInfo{
	ADIN1110: {phyID: PhyIDADIN1110, ports: 1},
	ADIN2111: {phyID: PhyIDADIN2111, ports: 2},
}

const bufSize = 2048

// Device is a single MAC/PHY chip on a SPI bus.
type Device struct {
	msg  *log.Logger
	conn spibus.Conn
	rst  spibus.Pin
	chip ChipID
	mac  net.HardwareAddr
	crc  bool // append an integrity byte to outgoing frames

	// mu keeps multi-register FIFO bursts exclusive with respect to
	// concurrent register access.
	mu sync.Mutex

	txb [bufSize]byte
	rxb [bufSize]byte
}

// New opens the chip, resets it and programs the host MAC filter.
// With crc set, an integrity byte is appended to outgoing register
// and FIFO frames.
func New(chip ChipID, conn spibus.Conn, rst spibus.Pin, mac net.HardwareAddr, crc bool) (*Device, error) {
	if len(mac) != EthAddrLen {
		return nil, fmt.Errorf("adin1110: invalid mac address %q: %w", mac, swio.ErrInvalidArgument)
	}

	dev := &Device{
		msg:  log.New(os.Stdout, "adin1110: ", 0),
		conn: conn,
		rst:  rst,
		chip: chip,
		mac:  append(net.HardwareAddr(nil), mac...),
		crc:  crc,
	}

	err := dev.SwReset()
	if err != nil {
		return nil, fmt.Errorf("adin1110: could not reset device: %w", err)
	}
	// wait for the MAC and PHY digital interface to come up
	time.Sleep(90 * time.Millisecond)

	if rst != nil {
		err = rst.Set(true)
		if err != nil {
			return nil, fmt.Errorf("adin1110: could not release reset line: %w", err)
		}
	}

	err = dev.setupMac()
	if err != nil {
		return nil, fmt.Errorf("adin1110: could not setup mac: %w", err)
	}

	err = dev.setupPhy()
	if err != nil {
		return nil, fmt.Errorf("adin1110: could not setup phy: %w", err)
	}

	err = dev.checkReset()
	if err != nil {
		return nil, err
	}

	err = dev.RegWrite(0x3E, 0x77)
	if err != nil {
		return nil, err
	}

	return dev, nil
}

// Ports returns the number of ports the chip drives.
func (dev *Device) Ports() int { return chips[dev.chip].ports }

// MACAddr returns the host MAC address programmed into the filter.
func (dev *Device) MACAddr() net.HardwareAddr { return dev.mac }

// RegWrite writes a 32-bit register.
func (dev *Device) RegWrite(addr uint16, data uint32) error {
	dev.mu.Lock()
	defer dev.mu.Unlock()

	return dev.regWrite(addr, data)
}

func (dev *Device) regWrite(addr uint16, data uint32) error {
	tx := dev.txb[:wrFrameSize]

	addr &= spiAddrMask
	binary.BigEndian.PutUint16(tx[0:2], addr)
	tx[0] |= spiCD | spiRW
	binary.BigEndian.PutUint32(tx[2:6], data)

	if dev.crc {
		tx = dev.txb[:wrFrameSize+1]
		tx[2] = spibus.CRC8(tx[:2])
		binary.BigEndian.PutUint32(tx[3:7], data)
	}

	err := dev.conn.Transfer(tx, nil)
	if err != nil {
		return fmt.Errorf("adin1110: could not write register 0x%03x: %w", addr, err)
	}
	return nil
}

// RegRead reads a 32-bit register.
func (dev *Device) RegRead(addr uint16) (uint32, error) {
	dev.mu.Lock()
	defer dev.mu.Unlock()

	return dev.regRead(addr)
}

func (dev *Device) regRead(addr uint16) (uint32, error) {
	tx := dev.txb[:rdFrameSize]
	rx := dev.rxb[:rdFrameSize]

	binary.BigEndian.PutUint16(tx[0:2], addr&spiAddrMask)
	tx[0] |= spiCD
	tx[2] = 0x0

	err := dev.conn.Transfer(tx, rx)
	if err != nil {
		return 0, fmt.Errorf("adin1110: could not read register 0x%03x: %w", addr, err)
	}

	return binary.BigEndian.Uint32(rx[3:7]), nil
}

func (dev *Device) regUpdate(addr uint16, mask, data uint32) error {
	val, err := dev.regRead(addr)
	if err != nil {
		return err
	}

	val &^= mask
	val |= mask & data

	return dev.regWrite(addr, val)
}

// RegUpdate read-modify-writes the bits of mask.
func (dev *Device) RegUpdate(addr uint16, mask, data uint32) error {
	dev.mu.Lock()
	defer dev.mu.Unlock()

	return dev.regUpdate(addr, mask, data)
}

// SwReset resets both the MAC and the PHY.
func (dev *Device) SwReset() error {
	return dev.RegWrite(RegReset, 0x1)
}

// MacReset drives the software reset key sequence through the MAC and
// reports swio.ErrBusy while the MAC has not come back up.
func (dev *Device) MacReset() error {
	dev.mu.Lock()
	defer dev.mu.Unlock()

	for _, key := range []uint32{SwResetKey1, SwResetKey2, SwReleaseKey1, SwReleaseKey2} {
		err := dev.regWrite(RegSoftRst, key)
		if err != nil {
			return err
		}
	}

	val, err := dev.regRead(RegMacRstStatus)
	if err != nil {
		return err
	}
	if val == 0 {
		return fmt.Errorf("adin1110: mac reset not complete: %w", swio.ErrBusy)
	}

	return nil
}

// PhyReset pulses the hardware reset line and verifies the PHY
// identifier.
func (dev *Device) PhyReset() error {
	err := spibus.ResetPulse(dev.rst, 10*time.Millisecond, 90*time.Millisecond)
	if err != nil {
		return fmt.Errorf("adin1110: could not pulse reset line: %w", err)
	}

	id, err := dev.RegRead(RegPhyID)
	if err != nil {
		return err
	}

	if want := chips[dev.chip].phyID; id != want {
		return fmt.Errorf("adin1110: invalid phy id 0x%08x, want 0x%08x: %w",
			id, want, swio.ErrInvalidArgument,
		)
	}

	return nil
}

// checkReset completes the reset sequence: the configuration is
// latched with the SYNC bit once the MAC reports reset complete.
func (dev *Device) checkReset() error {
	val, err := dev.RegRead(RegStatus0)
	if err != nil {
		return err
	}

	if val&ResetComplete == 0 {
		return fmt.Errorf("adin1110: reset not complete: %w", swio.ErrBusy)
	}

	return dev.RegUpdate(RegConfig1, Config1Sync, Config1Sync)
}

// LinkState reports whether the link is up.
func (dev *Device) LinkState() (bool, error) {
	val, err := dev.RegRead(RegStatus1)
	if err != nil {
		return false, err
	}
	return val&LinkStateMask != 0, nil
}

// SetPromisc forwards frames with unknown destinations to the host on
// the given port.
func (dev *Device) SetPromisc(port int, promisc bool) error {
	if port >= dev.Ports() {
		return fmt.Errorf("adin1110: invalid port %d: %w", port, swio.ErrInvalidArgument)
	}

	mask := FwdUnk2Host
	if port != 0 {
		mask = FwdUnk2HostPort2
	}

	var val uint32
	if promisc {
		val = mask
	}
	return dev.RegUpdate(RegConfig2, mask, val)
}

// SetMACAddr programs the host destination filter. Matching frames
// from every port are forwarded to the host.
func (dev *Device) SetMACAddr(mac net.HardwareAddr) error {
	if len(mac) != EthAddrLen {
		return fmt.Errorf("adin1110: invalid mac address %q: %w", mac, swio.ErrInvalidArgument)
	}

	val := uint32(binary.BigEndian.Uint16(mac[0:2]))
	val |= MacAddrApply2Port | MacAddrToHost
	if dev.chip == ADIN2111 {
		val |= MacAddrApply2Port2
	}

	err := dev.RegUpdate(RegMacAddrFltUpr, 0xFFFFFFFF, val)
	if err != nil {
		return err
	}

	return dev.RegWrite(RegMacAddrFltLwr, binary.BigEndian.Uint32(mac[2:6]))
}

// setupMac enables FCS insertion, unmasks the interrupts the host
// polls on and programs the MAC filter.
func (dev *Device) setupMac() error {
	err := dev.RegUpdate(RegConfig2, CrcAppend, CrcAppend)
	if err != nil {
		return err
	}

	val := TxRdyIRQ | RxRdyIRQ | SpiErrIRQ | LinkChgIRQ
	if dev.chip == ADIN2111 {
		val |= RxRdyP2IRQ
	}

	err = dev.RegWrite(RegIMask1, val)
	if err != nil {
		return err
	}

	return dev.SetMACAddr(dev.mac)
}

// setupPhy takes the PHYs out of software power-down so that
// autonegotiation starts.
func (dev *Device) setupPhy() error {
	for p := 0; p < dev.Ports(); p++ {
		val, err := dev.MdioRead(MdioPhyID(p), MiControl)
		if err != nil {
			return err
		}

		for val&MiSoftPD != 0 {
			val &^= MiSoftPD
			err = dev.MdioWrite(MdioPhyID(p), MiControl, val)
			if err != nil {
				return err
			}

			val, err = dev.MdioRead(MdioPhyID(p), MiControl)
			if err != nil {
				return err
			}
		}
	}

	return nil
}
