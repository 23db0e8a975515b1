// Copyright 2023 The go-swio Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ad74413r

import (
	"fmt"
	"sync"

	"github.com/go-swio/swio/iio"
)

// IIO exposes a Device through the iio attribute surface and runs its
// buffered acquisition.
type IIO struct {
	dev   *Device
	cfg   *Config
	dev74 *iio.Device
	sink  iio.Sink

	// mu guards the register bursts of the acquisition path against
	// a concurrent trigger.
	mu sync.Mutex

	activeMask uint32
	nActive    int
	nADC       int // enabled configurations contributing scan slots
}

// NewIIO wires dev into an attribute surface built from cfg. Enabled
// channels get their function programmed and are brought into the
// conversion sequence at the full rate; the exposed channel set is
// materialized from the configuration. Scan records produced by
// Trigger go to sink.
func NewIIO(dev *Device, cfg *Config, sink iio.Sink) (*IIO, error) {
	d := &IIO{
		dev:  dev,
		cfg:  cfg,
		sink: sink,
	}
	d.dev74 = &iio.Device{
		Attrs: []iio.Attribute{
			{Name: "back", Show: d.readBack, Store: d.writeBack},
		},
		PreEnable:     d.UpdateChannels,
		PostDisable:   d.BufferDisable,
		Trigger:       d.Trigger,
		Read:          d.ReadSamples,
		DebugRegRead:  dev.ReadReg,
		DebugRegWrite: dev.WriteReg,
	}

	for i, c := range cfg.Channels {
		if c.Enabled {
			err := dev.SetAdcChannelEnable(i, true)
			if err != nil {
				return nil, err
			}

			err = dev.SetChannelFunction(i, c.Function)
			if err != nil {
				return nil, err
			}

			err = dev.SetAdcRate(i, Rate4800Hz)
			if err != nil {
				return nil, err
			}
		}

		err := dev.SetDiagChannelEnable(i, true)
		if err != nil {
			return nil, err
		}
	}

	d.setupChannels()

	return d, nil
}

// NewConfigIIO builds the configuration-editing surface over cfg: one
// config channel per physical channel, plus the apply latch. It talks
// to no hardware.
func NewConfigIIO(cfg *Config) *IIO {
	d := &IIO{cfg: cfg}

	chans := make([]iio.Channel, NChannels)
	for i := range chans {
		chans[i] = iio.Channel{
			Name:      fmt.Sprintf("config_ch%d", i),
			Type:      iio.Voltage,
			Indexed:   true,
			Channel:   i,
			Addr:      i,
			ScanIndex: -1,
			Attrs:     d.configAttrs(),
		}
	}

	d.dev74 = &iio.Device{
		Channels: chans,
		Attrs: []iio.Attribute{
			{Name: "apply", Show: d.readApply, Store: d.writeApply},
		},
	}

	return d
}

// Device returns the registered attribute surface.
func (d *IIO) Device() *iio.Device { return d.dev74 }

// ApplyConfig commits the edited channel configuration: enabled
// channels are reprogrammed and the exposed channel set is rebuilt.
// The apply latch is cleared.
func (d *IIO) ApplyConfig() error {
	for i, c := range d.cfg.Channels {
		if !c.Enabled {
			continue
		}

		err := d.dev.SetAdcChannelEnable(i, true)
		if err != nil {
			return err
		}

		err = d.dev.SetChannelFunction(i, c.Function)
		if err != nil {
			return err
		}
	}

	d.setupChannels()
	d.cfg.Apply = false
	d.dev.msg.Printf("channel configuration applied (%d scan slots)", d.nADC+DiagCh)

	return nil
}
