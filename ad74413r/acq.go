// Copyright 2023 The go-swio Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ad74413r

import (
	"fmt"
	"math/bits"

	"github.com/go-swio/swio"
)

// ScanRecordSize is the size in bytes of one scan record pushed to
// the sink.
const ScanRecordSize = 32

// UpdateChannels arms the acquisition: all conversion enables are
// cleared first, then each requested scan index is resolved to its
// channel and enabled, in increasing index order, and continuous
// conversion is started.
func (d *IIO) UpdateChannels(mask uint32) error {
	d.activeMask = mask
	d.nActive = bits.OnesCount32(mask)

	err := d.dev.regUpdate(RegAdcConvCtrl, AllChEnMask, 0)
	if err != nil {
		return err
	}

	for i := 0; i < d.nADC+DiagCh; i++ {
		if mask&(1<<uint(i)) == 0 {
			continue
		}

		ch, err := d.chanByScanIndex(i)
		if err != nil {
			return err
		}

		err = d.dev.SetAdcChannelEnable(ch, true)
		if err != nil {
			return err
		}
	}

	return d.dev.SetAdcConvSeq(StartCont)
}

// BufferDisable stops the conversion sequence, holding the trigger
// out of the registers for the duration.
func (d *IIO) BufferDisable() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.dev.SetAdcConvSeq(StopPwrDown)
}

// Trigger reads one sample for each active scan index, in increasing
// order, appends the raw 4-byte results into a scan record and pushes
// it to the sink. Indices past the ADC channel count read the
// diagnostic result registers.
func (d *IIO) Trigger() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	var (
		rec [ScanRecordSize]byte
		idx int
	)

	for i := 0; i < d.nADC+DiagCh; i++ {
		if d.activeMask&(1<<uint(i)) == 0 {
			continue
		}

		ch, err := d.chanByScanIndex(i)
		if err != nil {
			continue
		}

		var reg uint32
		if ch < d.nADC {
			reg = RegAdcResult(ch)
		} else {
			reg = RegDiagResult(ch - d.nADC)
		}

		err = d.dev.regReadRaw(reg, rec[idx:idx+4])
		if err != nil {
			return err
		}
		idx += 4
	}

	return d.sink.Push(rec[:])
}

// ReadSamples reads the requested number of samples from each active
// ADC channel into p, 4 raw bytes per sample, and returns the number
// of samples read.
func (d *IIO) ReadSamples(p []byte, samples int) (int, error) {
	if len(p) < 4*samples*d.nActive {
		return 0, fmt.Errorf("ad74413r: sample buffer too small: %w", swio.ErrInvalidArgument)
	}

	var idx int
	for i := 0; i < samples; i++ {
		for ch := 0; ch < d.nADC; ch++ {
			if d.activeMask&(1<<uint(ch)) == 0 {
				continue
			}

			err := d.dev.regReadRaw(RegAdcResult(ch), p[idx:idx+4])
			if err != nil {
				return 0, err
			}
			idx += 4
		}
	}

	return samples, nil
}
