// Copyright 2023 The go-swio Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package spibus

import (
	"fmt"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
)

type periphConn struct {
	conn spi.Conn
	port spi.PortCloser
}

// Open opens the named SPI port (e.g. "/dev/spidev0.0") and configures
// it for the given mode and clock frequency.
func Open(name string, mode spi.Mode, hz int64) (*periphConn, error) {
	port, err := spireg.Open(name)
	if err != nil {
		return nil, fmt.Errorf("spibus: could not open SPI port %q: %w", name, err)
	}

	conn, err := port.Connect(physic.Frequency(hz)*physic.Hertz, mode, 8)
	if err != nil {
		_ = port.Close()
		return nil, fmt.Errorf("spibus: could not configure SPI port %q: %w", name, err)
	}

	return &periphConn{conn: conn, port: port}, nil
}

func (c *periphConn) Transfer(tx, rx []byte) error {
	return c.conn.Tx(tx, rx)
}

func (c *periphConn) Close() error {
	return c.port.Close()
}

type periphPin struct {
	pin gpio.PinOut
}

// OpenPin opens the named GPIO line as an output.
func OpenPin(name string) (*periphPin, error) {
	pin := gpioreg.ByName(name)
	if pin == nil {
		return nil, fmt.Errorf("spibus: could not find GPIO pin %q", name)
	}

	err := pin.Out(gpio.High)
	if err != nil {
		return nil, fmt.Errorf("spibus: could not configure GPIO pin %q as output: %w", name, err)
	}

	return &periphPin{pin: pin}, nil
}

func (p *periphPin) Set(level bool) error {
	return p.pin.Out(gpio.Level(level))
}
