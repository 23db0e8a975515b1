// Copyright 2023 The go-swio Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ad74413r

import (
	"fmt"

	"github.com/go-swio/swio"
	"github.com/go-swio/swio/iio"
)

// adcScanType is the in-buffer layout of one ADC result: a 16-bit
// code inside the chip's 32-bit big-endian result frame.
var adcScanType = iio.ScanType{
	Sign:        'u',
	RealBits:    16,
	StorageBits: 32,
	Shift:       8,
	BigEndian:   true,
}

func (d *IIO) adcChannel(typ iio.ChanType, attrs []iio.Attribute) iio.Channel {
	scan := adcScanType
	return iio.Channel{
		Type:    typ,
		Indexed: true,
		Scan:    &scan,
		Attrs:   attrs,
	}
}

func (d *IIO) dacChannel(typ iio.ChanType) iio.Channel {
	return iio.Channel{
		Type:      typ,
		Indexed:   true,
		Out:       true,
		ScanIndex: -1,
		Attrs:     d.dacAttrs(),
	}
}

func (d *IIO) diagChannel(ch int) iio.Channel {
	scan := adcScanType
	return iio.Channel{
		Name:    fmt.Sprintf("diag%d", ch),
		Type:    iio.Voltage,
		Indexed: true,
		Channel: NChannels + ch,
		Addr:    ch,
		Scan:    &scan,
		Attrs:   d.diagAttrs(),
	}
}

func (d *IIO) faultChannel() iio.Channel {
	return iio.Channel{
		Name:      "fault",
		Type:      iio.Voltage,
		ScanIndex: -1,
		Attrs: []iio.Attribute{
			{Name: "raw", Show: d.readFaultRaw},
		},
	}
}

// channelsFor returns fresh channel descriptors for one physical
// channel operating in mode m. Each call builds new slices so that
// per-channel fields never alias between physical channels.
func (d *IIO) channelsFor(m Mode) []iio.Channel {
	switch m {
	case VoltageOut:
		return []iio.Channel{
			d.adcChannel(iio.Current, d.adcAttrs()),
			d.dacChannel(iio.Voltage),
		}
	case CurrentOut:
		return []iio.Channel{
			d.adcChannel(iio.Voltage, d.adcAttrs()),
			d.dacChannel(iio.Current),
		}
	case CurrentInExt, CurrentInLoop, CurrentInExtHART, CurrentInLoopHART:
		return []iio.Channel{
			d.adcChannel(iio.Current, d.adcAttrs()),
		}
	case Resistance:
		return []iio.Channel{
			d.adcChannel(iio.Resistance, d.resistanceAttrs()),
		}
	default:
		// HighZ, VoltageIn, DigitalInput, DigitalInputLoop
		return []iio.Channel{
			d.adcChannel(iio.Voltage, d.adcAttrs()),
		}
	}
}

// setupChannels materializes the exposed channel set from the enabled
// channel configurations: input channels first, in configuration
// order, with dense scan indices, then the diagnostic channels, then
// the output channels, then the fault channel.
func (d *IIO) setupChannels() {
	var (
		chans   []iio.Channel
		scanIdx int
		nADC    int
	)

	for i, cfg := range d.cfg.Channels {
		if !cfg.Enabled {
			continue
		}
		for _, ch := range d.channelsFor(cfg.Function) {
			if ch.Out {
				continue
			}
			ch.ScanIndex = scanIdx
			scanIdx++
			ch.Channel = i
			ch.Addr = i
			chans = append(chans, ch)
		}
		nADC++
	}

	for i := 0; i < DiagCh; i++ {
		ch := d.diagChannel(i)
		ch.ScanIndex = scanIdx
		scanIdx++
		chans = append(chans, ch)
	}

	for i, cfg := range d.cfg.Channels {
		if !cfg.Enabled {
			continue
		}
		for _, ch := range d.channelsFor(cfg.Function) {
			if !ch.Out {
				continue
			}
			ch.Channel = i
			ch.Addr = i
			chans = append(chans, ch)
		}
	}

	chans = append(chans, d.faultChannel())

	d.dev74.Channels = chans
	d.nADC = nADC
}

// chanByScanIndex resolves a scan index to the physical channel of
// the input channel holding it.
func (d *IIO) chanByScanIndex(idx int) (int, error) {
	for i := range d.dev74.Channels {
		ch := &d.dev74.Channels[i]
		if ch.Out {
			continue
		}
		if ch.ScanIndex == idx {
			return ch.Channel, nil
		}
	}
	return 0, fmt.Errorf("ad74413r: no input channel with scan index %d: %w", idx, swio.ErrInvalidArgument)
}
