// Copyright 2023 The go-swio Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package iio describes the attribute-introspection surface the swio
// device drivers register with: named channels carrying typed
// attributes with optional read and write handlers, and the scan
// layout of buffered acquisitions.
package iio

import (
	"fmt"

	"github.com/go-swio/swio"
)

// ChanType is the physical quantity a channel measures or drives.
type ChanType uint8

const (
	Voltage ChanType = iota
	Current
	Resistance
)

func (t ChanType) String() string {
	switch t {
	case Voltage:
		return "voltage"
	case Current:
		return "current"
	case Resistance:
		return "resistance"
	}
	return fmt.Sprintf("ChanType(%d)", uint8(t))
}

// Scope describes how widely an attribute value is shared.
type Scope uint8

const (
	Separate    Scope = iota // per-channel value
	SharedByDir              // shared between channels of one direction
	SharedByAll              // one value for the whole device
)

// ChanInfo identifies the channel an attribute access targets.
type ChanInfo struct {
	Type ChanType
	Out  bool
	Addr int  // physical channel id
	Diag bool // access targets the diagnostic sample path
}

// A ShowFunc formats an attribute value into buf and returns the
// number of bytes written.
type ShowFunc func(buf []byte, ch ChanInfo) (int, error)

// A StoreFunc parses data and applies the attribute value.
type StoreFunc func(data []byte, ch ChanInfo) error

// Attribute is a named channel or device attribute. A nil Show or
// Store marks the attribute write-only or read-only.
type Attribute struct {
	Name  string
	Scope Scope
	Diag  bool // route reads through the diagnostic sample path
	Show  ShowFunc
	Store StoreFunc
}

// ScanType describes the in-buffer layout of one scan element.
type ScanType struct {
	Sign        byte
	RealBits    int
	StorageBits int
	Shift       int
	BigEndian   bool
}

// Channel is an exposed measurement or output point derived from a
// physical channel and its operating mode.
type Channel struct {
	Name      string
	Type      ChanType
	Out       bool
	Indexed   bool
	Channel   int // logical channel number
	Addr      int // physical channel id
	ScanIndex int // dense scan slot, -1 when not scan-eligible
	Scan      *ScanType
	Attrs     []Attribute
}

// Info returns the channel descriptor passed to attribute handlers.
func (ch *Channel) Info() ChanInfo {
	return ChanInfo{Type: ch.Type, Out: ch.Out, Addr: ch.Addr}
}

// Device is the introspection surface a driver registers: its exposed
// channels, device-level attributes and optional lifecycle hooks.
type Device struct {
	Channels []Channel
	Attrs    []Attribute

	PreEnable   func(mask uint32) error // buffered capture is about to start
	PostDisable func() error            // buffered capture has stopped
	Trigger     func() error            // acquire one scan record
	Read        func(p []byte, samples int) (int, error)

	DebugRegRead  func(reg uint32) (uint32, error)
	DebugRegWrite func(reg, val uint32) error
}

// ReadAttr formats the named attribute of channel ch into buf.
// A negative ch addresses the device-level attributes.
func (dev *Device) ReadAttr(ch int, name string, buf []byte) (int, error) {
	attr, info, err := dev.lookup(ch, name)
	if err != nil {
		return 0, err
	}
	if attr.Show == nil {
		return 0, fmt.Errorf("iio: attribute %q is not readable: %w", name, swio.ErrInvalidArgument)
	}
	info.Diag = info.Diag || attr.Diag
	return attr.Show(buf, info)
}

// WriteAttr parses data and stores it into the named attribute of
// channel ch. A negative ch addresses the device-level attributes.
func (dev *Device) WriteAttr(ch int, name string, data []byte) error {
	attr, info, err := dev.lookup(ch, name)
	if err != nil {
		return err
	}
	if attr.Store == nil {
		return fmt.Errorf("iio: attribute %q is not writable: %w", name, swio.ErrInvalidArgument)
	}
	info.Diag = info.Diag || attr.Diag
	return attr.Store(data, info)
}

func (dev *Device) lookup(ch int, name string) (*Attribute, ChanInfo, error) {
	var (
		info  ChanInfo
		attrs []Attribute
	)
	switch {
	case ch < 0:
		attrs = dev.Attrs
	case ch < len(dev.Channels):
		attrs = dev.Channels[ch].Attrs
		info = dev.Channels[ch].Info()
	default:
		return nil, info, fmt.Errorf("iio: no channel %d: %w", ch, swio.ErrInvalidArgument)
	}

	for i := range attrs {
		if attrs[i].Name == name {
			return &attrs[i], info, nil
		}
	}
	return nil, info, fmt.Errorf("iio: no attribute %q: %w", name, swio.ErrInvalidArgument)
}
