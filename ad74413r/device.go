// Copyright 2023 The go-swio Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package ad74413r drives the AD74413R quad-channel software
// configurable analog I/O chip over a framed SPI register transport,
// and exposes its channels through the iio attribute surface.
package ad74413r

import (
	"encoding/binary"
	"fmt"
	"log"
	"math/bits"
	"os"
	"time"

	"github.com/go-swio/swio"
	"github.com/go-swio/swio/spibus"
)

// ChipID identifies the chip variant.
type ChipID uint8

const (
	AD74413R ChipID = iota
	AD74412R // reduced variant, two sampling rates
)

const frameSize = 4

// Device is a single AD74413R chip on a SPI bus.
type Device struct {
	msg  *log.Logger
	conn spibus.Conn
	rst  spibus.Pin // may be nil
	id   ChipID

	buf [frameSize]byte
}

// New opens the chip on the given connection, resets it and clears
// latched faults. The reset pin may be nil when the board ties the
// line high.
func New(id ChipID, conn spibus.Conn, rst spibus.Pin) (*Device, error) {
	dev := &Device{
		msg:  log.New(os.Stdout, "ad74413r: ", 0),
		conn: conn,
		rst:  rst,
		id:   id,
	}

	err := dev.Reset()
	if err != nil {
		return nil, fmt.Errorf("ad74413r: could not reset device: %w", err)
	}

	err = dev.ClearErrors()
	if err != nil {
		return nil, fmt.Errorf("ad74413r: could not clear faults: %w", err)
	}

	return dev, nil
}

// ID returns the chip variant.
func (dev *Device) ID() ChipID { return dev.id }

func fieldGet(mask, reg uint16) uint16 {
	return (reg & mask) >> uint(bits.TrailingZeros16(mask))
}

func fieldPrep(mask, val uint16) uint16 {
	return (val << uint(bits.TrailingZeros16(mask))) & mask
}

func (dev *Device) regWrite(addr uint32, val uint16) error {
	tx := dev.buf[:]
	tx[0] = uint8(addr)
	binary.BigEndian.PutUint16(tx[1:3], val)
	tx[3] = spibus.CRC8(tx[:3])

	err := dev.conn.Transfer(tx, nil)
	if err != nil {
		return fmt.Errorf("ad74413r: could not write register 0x%02x: %w", addr, err)
	}
	return nil
}

// regReadRaw selects addr for read-back and clocks the 4-byte result
// frame out during a NOP transfer.
func (dev *Device) regReadRaw(addr uint32, p []byte) error {
	err := dev.regWrite(RegReadSelect, uint16(addr))
	if err != nil {
		return err
	}

	tx := dev.buf[:]
	tx[0] = uint8(RegNop)
	binary.BigEndian.PutUint16(tx[1:3], uint16(RegNop))
	tx[3] = spibus.CRC8(tx[:3])

	err = dev.conn.Transfer(tx, p)
	if err != nil {
		return fmt.Errorf("ad74413r: could not read register 0x%02x: %w", addr, err)
	}
	return nil
}

func (dev *Device) regRead(addr uint32) (uint16, error) {
	var p [frameSize]byte
	err := dev.regReadRaw(addr, p[:])
	if err != nil {
		return 0, err
	}

	if crc := spibus.CRC8(p[:3]); crc != p[3] {
		return 0, fmt.Errorf("ad74413r: bad crc for register 0x%02x: got 0x%02x, want 0x%02x: %w",
			addr, p[3], crc, swio.ErrInvalidArgument,
		)
	}

	return binary.BigEndian.Uint16(p[1:3]), nil
}

func (dev *Device) regUpdate(addr uint32, mask, val uint16) error {
	reg, err := dev.regRead(addr)
	if err != nil {
		return err
	}

	reg &^= mask
	reg |= fieldPrep(mask, val)

	return dev.regWrite(addr, reg)
}

// ReadReg reads back a register, for debug access.
func (dev *Device) ReadReg(addr uint32) (uint32, error) {
	v, err := dev.regRead(addr)
	return uint32(v), err
}

// WriteReg writes a register, for debug access.
func (dev *Device) WriteReg(addr, val uint32) error {
	return dev.regWrite(addr, uint16(val))
}

// Reset performs a software reset via the two-key command sequence,
// preceded by a hardware reset pulse when a reset line is wired.
func (dev *Device) Reset() error {
	if dev.rst != nil {
		err := spibus.ResetPulse(dev.rst, 100*time.Microsecond, 1*time.Millisecond)
		if err != nil {
			return fmt.Errorf("ad74413r: could not pulse reset line: %w", err)
		}
	}

	err := dev.regWrite(RegCmdKey, CmdKeyReset1)
	if err != nil {
		return err
	}
	err = dev.regWrite(RegCmdKey, CmdKeyReset2)
	if err != nil {
		return err
	}
	time.Sleep(1 * time.Millisecond)

	return nil
}

// ClearErrors clears the latched fault bits.
func (dev *Device) ClearErrors() error {
	return dev.regWrite(RegAlertStatus, AlertFaultMask)
}

// SetChannelFunction programs the operating mode of channel ch. The
// channel passes through high-impedance with a zeroed DAC code, per
// the chip's mode-change sequence.
func (dev *Device) SetChannelFunction(ch int, mode Mode) error {
	if ch < 0 || ch >= NChannels {
		return fmt.Errorf("ad74413r: invalid channel %d: %w", ch, swio.ErrInvalidArgument)
	}

	err := dev.SetChannelDacCode(ch, 0)
	if err != nil {
		return err
	}

	err = dev.regUpdate(RegChFuncSetup(ch), ChFuncSetupMask, uint16(HighZ))
	if err != nil {
		return err
	}
	time.Sleep(130 * time.Microsecond)

	err = dev.regUpdate(RegChFuncSetup(ch), ChFuncSetupMask, uint16(mode))
	if err != nil {
		return err
	}
	time.Sleep(150 * time.Microsecond)

	return nil
}

// SetChannelDacCode loads a DAC code into channel ch.
func (dev *Device) SetChannelDacCode(ch int, code uint16) error {
	if code > DacCodeMax {
		return fmt.Errorf("ad74413r: dac code %d out of range: %w", code, swio.ErrInvalidArgument)
	}

	err := dev.regWrite(RegDacCode(ch), code)
	if err != nil {
		return err
	}

	return dev.regWrite(RegCmdKey, CmdKeyLDAC)
}

// SetAdcChannelEnable includes or excludes channel ch from the ADC
// conversion sequence.
func (dev *Device) SetAdcChannelEnable(ch int, on bool) error {
	var v uint16
	if on {
		v = 1
	}
	return dev.regUpdate(RegAdcConvCtrl, ChEnMask(ch), v)
}

// SetDiagChannelEnable includes or excludes diagnostic channel ch
// from the conversion sequence.
func (dev *Device) SetDiagChannelEnable(ch int, on bool) error {
	var v uint16
	if on {
		v = 1
	}
	return dev.regUpdate(RegAdcConvCtrl, DiagEnMask(ch), v)
}

// AdcRange reports the configured input range of channel ch.
func (dev *Device) AdcRange(ch int) (Range, error) {
	reg, err := dev.regRead(RegAdcConfig(ch))
	if err != nil {
		return 0, err
	}
	return Range(fieldGet(AdcRangeMask, reg)), nil
}

// SetAdcRate programs the sampling rate of channel ch through its
// rejection configuration.
func (dev *Device) SetAdcRate(ch int, rate Rate) error {
	var rej uint16
	switch rate {
	case Rate20Hz:
		rej = rej50_60
	case Rate4800Hz:
		rej = rejNone
	case Rate10Hz:
		rej = rej50_60HART
	case Rate1200Hz:
		rej = rejHART
	default:
		return fmt.Errorf("ad74413r: invalid sampling rate %d: %w", rate, swio.ErrInvalidArgument)
	}
	return dev.regUpdate(RegAdcConfig(ch), AdcRejectionMask, rej)
}

// AdcRate reports the sampling rate of channel ch.
func (dev *Device) AdcRate(ch int) (Rate, error) {
	reg, err := dev.regRead(RegAdcConfig(ch))
	if err != nil {
		return 0, err
	}

	switch fieldGet(AdcRejectionMask, reg) {
	case rej50_60:
		return Rate20Hz, nil
	case rejNone:
		return Rate4800Hz, nil
	case rej50_60HART:
		return Rate10Hz, nil
	default:
		return Rate1200Hz, nil
	}
}

// SetAdcConvSeq issues a conversion sequence command and waits for
// the ADC to settle.
func (dev *Device) SetAdcConvSeq(seq ConvSeq) error {
	err := dev.regUpdate(RegAdcConvCtrl, ConvSeqMask, uint16(seq))
	if err != nil {
		return err
	}
	time.Sleep(100 * time.Microsecond)

	return nil
}

// AdcSingle performs one single-shot conversion on channel ch and
// returns the raw code.
func (dev *Device) AdcSingle(ch int) (uint16, error) {
	err := dev.SetAdcChannelEnable(ch, true)
	if err != nil {
		return 0, err
	}

	err = dev.SetAdcConvSeq(StartSingle)
	if err != nil {
		return 0, err
	}

	rate, err := dev.AdcRate(ch)
	if err != nil {
		return 0, err
	}
	// one conversion period, plus margin for the sequencer
	time.Sleep(time.Second/time.Duration(rate) + 100*time.Microsecond)

	val, err := dev.regRead(RegAdcResult(ch))
	if err != nil {
		return 0, err
	}

	err = dev.SetAdcConvSeq(StopPwrDown)
	if err != nil {
		return 0, err
	}

	err = dev.SetAdcChannelEnable(ch, false)
	if err != nil {
		return 0, err
	}

	return val, nil
}

// Diag returns the raw diagnostic sample of diagnostic channel ch.
func (dev *Device) Diag(ch int) (uint16, error) {
	return dev.regRead(RegDiagResult(ch))
}

// SetDiag assigns the internal signal diagnostic channel ch observes.
func (dev *Device) SetDiag(ch int, mode DiagMode) error {
	return dev.regUpdate(RegDiagAssign, DiagAssignMask(ch), uint16(mode))
}

// Faults returns the latched fault bits, masking out the reset flag.
func (dev *Device) Faults() (uint16, error) {
	reg, err := dev.regRead(RegAlertStatus)
	if err != nil {
		return 0, err
	}
	return reg & AlertFaultMask, nil
}
