// Copyright 2023 The go-swio Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package spibus provides the framed register transport the swio chip
// drivers are built on: a full-duplex byte transfer primitive addressed
// by a chip-select line, a reset line, and the CRC-8 integrity byte
// appended to framed transfers when a device is opened with integrity
// checking enabled.
package spibus

import (
	"time"

	"github.com/snksoft/crc"
)

// Conn is a single-device connection on a SPI bus. Transfer issues
// exactly one full-duplex framed exchange: tx is clocked out while rx
// is filled, both len(tx) bytes long. rx may be nil for write-only
// transfers.
type Conn interface {
	Transfer(tx, rx []byte) error
}

// Pin is a level-controlled output line (reset, chip-select override).
type Pin interface {
	Set(level bool) error
}

// CRC-8 parameter set shared by the swio chips, using the
// x^8 + x^2 + x + 1 polynomial with a zero seed.
var crc8 = &crc.Parameters{Width: 8, Polynomial: 0x07, Init: 0x00, FinalXor: 0x00}

// CRC8 computes the integrity byte appended to framed transfers,
// computed over the frame bytes preceding it.
func CRC8(p []byte) uint8 {
	return uint8(crc.CalculateCRC(crc8, p))
}

// ResetPulse drives a hardware reset sequence on the given line:
// assert low for t0, deassert, then wait t1 for the device's digital
// interface to come up. The timings are device constants from the
// datasheets.
func ResetPulse(pin Pin, t0, t1 time.Duration) error {
	err := pin.Set(false)
	if err != nil {
		return err
	}
	time.Sleep(t0)

	err = pin.Set(true)
	if err != nil {
		return err
	}
	time.Sleep(t1)

	return nil
}
