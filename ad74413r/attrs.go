// Copyright 2023 The go-swio Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ad74413r

import (
	"fmt"

	"github.com/go-swio/swio"
	"github.com/go-swio/swio/iio"
)

var (
	sampleRatesAll = []int32{20, 4800, 10, 1200}
	sampleRates12R = []int32{20, 4800}
	slewRates      = []int32{4, 64, 150, 240}
	slewSteps      = []int32{64, 120, 500, 1820}
)

func (d *IIO) adcAttrs() []iio.Attribute {
	return []iio.Attribute{
		{
			Name:  "sampling_frequency",
			Scope: iio.SharedByAll,
			Show:  d.readSamplingFreq,
			Store: d.writeSamplingFreq,
		},
		{
			Name:  "sampling_frequency_available",
			Scope: iio.SharedByAll,
			Show:  d.readSamplingFreqAvail,
		},
		{Name: "raw", Show: d.readRaw},
		{Name: "scale", Show: d.readScale},
		{Name: "offset", Show: d.readOffset},
	}
}

func (d *IIO) resistanceAttrs() []iio.Attribute {
	return []iio.Attribute{
		{Name: "raw", Show: d.readRaw},
		{
			Name:  "sampling_frequency",
			Scope: iio.SharedByAll,
			Show:  d.readSamplingFreq,
			Store: d.writeSamplingFreq,
		},
		{
			Name:  "sampling_frequency_available",
			Scope: iio.SharedByAll,
			Show:  d.readSamplingFreqAvail,
		},
		{Name: "processed", Show: d.readProcessed},
	}
}

// diagAttrs mirrors the plain ADC set, with the raw, scale and offset
// instances routed through the diagnostic sample path. The shared
// scoping differs from the plain set on purpose.
func (d *IIO) diagAttrs() []iio.Attribute {
	return []iio.Attribute{
		{
			Name:  "sampling_frequency",
			Scope: iio.SharedByAll,
			Show:  d.readSamplingFreq,
			Store: d.writeSamplingFreq,
		},
		{
			Name:  "sampling_frequency_available",
			Scope: iio.SharedByAll,
			Show:  d.readSamplingFreqAvail,
		},
		{
			Name:  "diag_function",
			Show:  d.readDiagFunction,
			Store: d.writeDiagFunction,
		},
		{
			Name:  "diag_function_available",
			Scope: iio.SharedByAll,
			Show:  d.readDiagFunctionAvail,
		},
		{Name: "raw", Show: d.readRaw, Diag: true},
		{Name: "scale", Show: d.readScale, Diag: true},
		{Name: "offset", Show: d.readOffset, Diag: true},
	}
}

// dacAttrs carries the slew controls. The slew_rate attribute drives
// the linear step bit-field and slew_step the linear rate bit-field,
// matching the names the host tooling expects.
func (d *IIO) dacAttrs() []iio.Attribute {
	return []iio.Attribute{
		{Name: "raw", Show: d.readRaw, Store: d.writeRaw},
		{Name: "scale", Show: d.readScale},
		{Name: "offset", Show: d.readOffset},
		{Name: "slew_en", Show: d.readSlewEn, Store: d.writeSlewEn},
		{Name: "slew_rate", Show: d.readSlewStep, Store: d.writeSlewStep},
		{
			Name:  "slew_rate_available",
			Scope: iio.SharedByDir,
			Show:  d.readSlewRateAvail,
		},
		{Name: "slew_step", Show: d.readSlewRate, Store: d.writeSlewRate},
		{
			Name:  "slew_step_available",
			Scope: iio.SharedByDir,
			Show:  d.readSlewStepAvail,
		},
	}
}

func (d *IIO) configAttrs() []iio.Attribute {
	return []iio.Attribute{
		{Name: "enabled", Show: d.readCfgEnabled, Store: d.writeCfgEnabled},
		{Name: "function_cfg", Show: d.readCfgFunction, Store: d.writeCfgFunction},
		{
			Name:  "function_cfg_available",
			Scope: iio.SharedByAll,
			Show:  d.readCfgFunctionAvail,
		},
	}
}

func (d *IIO) readOffset(buf []byte, ch iio.ChanInfo) (int, error) {
	var val int64

	switch ch.Type {
	case iio.Voltage:
		val = 0
	case iio.Current:
		if !ch.Out {
			rng, err := d.dev.AdcRange(ch.Addr)
			if err != nil {
				return 0, err
			}

			switch rng {
			case Range10V, Range2P5VExtPow:
				val = 0
			case Range2P5VIntPow:
				val = -AdcMaxValue
			case Range5VBiDir:
				val = -(AdcMaxValue / 2)
			default:
				return 0, fmt.Errorf("ad74413r: unknown adc range %d: %w", rng, swio.ErrInvalidArgument)
			}
		}
	default:
		return 0, fmt.Errorf("ad74413r: no offset for %v channels: %w", ch.Type, swio.ErrInvalidArgument)
	}

	return iio.FormatInt(buf, val)
}

func (d *IIO) readRaw(buf []byte, ch iio.ChanInfo) (int, error) {
	if ch.Out {
		return 0, fmt.Errorf("ad74413r: raw is read-only on output channels: %w", swio.ErrInvalidArgument)
	}

	var (
		val uint16
		err error
	)
	if ch.Diag {
		val, err = d.dev.Diag(ch.Addr)
	} else {
		val, err = d.dev.AdcSingle(ch.Addr)
	}
	if err != nil {
		return 0, err
	}

	return iio.FormatInt(buf, int64(val))
}

func (d *IIO) writeRaw(data []byte, ch iio.ChanInfo) error {
	if ch.Type != iio.Voltage || !ch.Out {
		return fmt.Errorf("ad74413r: raw is not writable here: %w", swio.ErrInvalidArgument)
	}

	val, err := iio.ParseInt(data)
	if err != nil {
		return err
	}

	return d.dev.SetChannelDacCode(ch.Addr, uint16(val))
}

func (d *IIO) readSamplingFreq(buf []byte, _ iio.ChanInfo) (int, error) {
	rate, err := d.dev.AdcRate(0)
	if err != nil {
		return 0, err
	}
	return iio.FormatInt(buf, int64(rate))
}

func (d *IIO) writeSamplingFreq(data []byte, _ iio.ChanInfo) error {
	val, err := iio.ParseInt(data)
	if err != nil {
		return err
	}

	for i := 0; i < NChannels; i++ {
		err = d.dev.SetAdcRate(i, Rate(val))
		if err != nil {
			return err
		}
	}

	// rejection for the diagnostics channels follows the rate family
	switch Rate(val) {
	case Rate1200Hz, Rate4800Hz:
		return d.dev.regUpdate(RegAdcConvCtrl, EnRejDiagMask, 0)
	case Rate10Hz, Rate20Hz:
		return d.dev.regUpdate(RegAdcConvCtrl, EnRejDiagMask, 1)
	default:
		return fmt.Errorf("ad74413r: invalid sampling rate %d: %w", val, swio.ErrInvalidArgument)
	}
}

func (d *IIO) readSamplingFreqAvail(buf []byte, _ iio.ChanInfo) (int, error) {
	if d.dev.ID() == AD74412R {
		return iio.FormatInts(buf, sampleRates12R...)
	}
	return iio.FormatInts(buf, sampleRatesAll...)
}

func (d *IIO) readScale(buf []byte, ch iio.ChanInfo) (int, error) {
	var micro int32

	switch ch.Type {
	case iio.Voltage:
		if ch.Out {
			micro = 762940
		} else {
			micro = 152590
		}
	case iio.Current:
		if ch.Out {
			micro = 152590 / 1000
		} else {
			micro = 381470 / 1000
		}
	default:
		return 0, fmt.Errorf("ad74413r: no scale for %v channels: %w", ch.Type, swio.ErrInvalidArgument)
	}

	return iio.FormatIntMicro(buf, 0, micro, false)
}

func (d *IIO) readProcessed(buf []byte, ch iio.ChanInfo) (int, error) {
	if ch.Type != iio.Resistance {
		return 0, fmt.Errorf("ad74413r: no processed value for %v channels: %w", ch.Type, swio.ErrInvalidArgument)
	}

	raw, err := d.dev.AdcSingle(ch.Addr)
	if err != nil {
		return 0, err
	}

	// sense resistor transfer function, in ohm
	val := int64(raw) * 2100 / int64(0xFFFF-raw)

	return iio.FormatInt(buf, val)
}

func (d *IIO) readSlewEn(buf []byte, ch iio.ChanInfo) (int, error) {
	reg, err := d.dev.regRead(RegOutputConfig(ch.Addr))
	if err != nil {
		return 0, err
	}

	var val int64
	if fieldGet(SlewEnMask, reg) != 0 {
		val = 1
	}
	return iio.FormatInt(buf, val)
}

func (d *IIO) writeSlewEn(data []byte, ch iio.ChanInfo) error {
	val, err := iio.ParseInt(data)
	if err != nil {
		return err
	}

	var en uint16
	if val != 0 {
		en = 1
	}
	return d.dev.regUpdate(RegOutputConfig(ch.Addr), SlewEnMask, en)
}

func (d *IIO) readSlewStep(buf []byte, ch iio.ChanInfo) (int, error) {
	reg, err := d.dev.regRead(RegOutputConfig(ch.Addr))
	if err != nil {
		return 0, err
	}
	return iio.FormatInt(buf, int64(slewSteps[fieldGet(SlewLinStepMask, reg)]))
}

func (d *IIO) writeSlewStep(data []byte, ch iio.ChanInfo) error {
	val, err := iio.ParseInt(data)
	if err != nil {
		return err
	}

	var step SlewStep
	switch val {
	case 64:
		step = SlewStep64
	case 120:
		step = SlewStep120
	case 500:
		step = SlewStep500
	case 1820:
		step = SlewStep1820
	default:
		return fmt.Errorf("ad74413r: invalid slew step %d: %w", val, swio.ErrInvalidArgument)
	}

	return d.dev.regUpdate(RegOutputConfig(ch.Addr), SlewLinStepMask, uint16(step))
}

func (d *IIO) readSlewRate(buf []byte, ch iio.ChanInfo) (int, error) {
	reg, err := d.dev.regRead(RegOutputConfig(ch.Addr))
	if err != nil {
		return 0, err
	}
	return iio.FormatInt(buf, int64(slewRates[fieldGet(SlewLinRateMask, reg)]))
}

func (d *IIO) writeSlewRate(data []byte, ch iio.ChanInfo) error {
	val, err := iio.ParseInt(data)
	if err != nil {
		return err
	}

	var rate SlewRate
	switch val {
	case 4:
		rate = SlewRate4kHz
	case 64:
		rate = SlewRate64kHz
	case 150:
		rate = SlewRate150kHz
	case 240:
		rate = SlewRate240kHz
	default:
		return fmt.Errorf("ad74413r: invalid slew rate %d: %w", val, swio.ErrInvalidArgument)
	}

	return d.dev.regUpdate(RegOutputConfig(ch.Addr), SlewLinRateMask, uint16(rate))
}

func (d *IIO) readSlewRateAvail(buf []byte, _ iio.ChanInfo) (int, error) {
	return iio.FormatInts(buf, slewRates...)
}

func (d *IIO) readSlewStepAvail(buf []byte, _ iio.ChanInfo) (int, error) {
	return iio.FormatInts(buf, slewSteps...)
}

func (d *IIO) readDiagFunction(buf []byte, ch iio.ChanInfo) (int, error) {
	reg, err := d.dev.regRead(RegDiagAssign)
	if err != nil {
		return 0, err
	}

	mode := fieldGet(DiagAssignMask(ch.Addr), reg)
	return iio.FormatToken(buf, diagNames[mode])
}

func (d *IIO) writeDiagFunction(data []byte, ch iio.ChanInfo) error {
	name := iio.ParseToken(data)
	for i, tok := range diagNames {
		if tok == name {
			return d.dev.SetDiag(ch.Addr, DiagMode(i))
		}
	}
	return fmt.Errorf("ad74413r: unknown diag function %q: %w", name, swio.ErrInvalidArgument)
}

func (d *IIO) readDiagFunctionAvail(buf []byte, _ iio.ChanInfo) (int, error) {
	return iio.FormatTokens(buf, diagNames...)
}

func (d *IIO) readFaultRaw(buf []byte, _ iio.ChanInfo) (int, error) {
	fault, err := d.dev.Faults()
	if err != nil {
		return 0, err
	}
	return iio.FormatInt(buf, int64(fault))
}

func (d *IIO) readCfgEnabled(buf []byte, ch iio.ChanInfo) (int, error) {
	var val int64
	if d.cfg.Channels[ch.Addr].Enabled {
		val = 1
	}
	return iio.FormatInt(buf, val)
}

func (d *IIO) writeCfgEnabled(data []byte, ch iio.ChanInfo) error {
	val, err := iio.ParseInt(data)
	if err != nil {
		return err
	}
	d.cfg.Channels[ch.Addr].Enabled = val != 0
	return nil
}

func (d *IIO) readCfgFunction(buf []byte, ch iio.ChanInfo) (int, error) {
	return iio.FormatToken(buf, d.cfg.Channels[ch.Addr].Function.String())
}

func (d *IIO) writeCfgFunction(data []byte, ch iio.ChanInfo) error {
	name := iio.ParseToken(data)
	for i, tok := range modeNames {
		if tok == name {
			d.cfg.Channels[ch.Addr].Function = Mode(i)
			return nil
		}
	}
	return fmt.Errorf("ad74413r: unknown function %q: %w", name, swio.ErrInvalidArgument)
}

func (d *IIO) readCfgFunctionAvail(buf []byte, _ iio.ChanInfo) (int, error) {
	return iio.FormatTokens(buf, modeNames...)
}

func (d *IIO) readApply(buf []byte, _ iio.ChanInfo) (int, error) {
	var val int64
	if d.cfg.Apply {
		val = 1
	}
	return iio.FormatInt(buf, val)
}

func (d *IIO) writeApply(_ []byte, _ iio.ChanInfo) error {
	d.cfg.Apply = true
	return nil
}

func (d *IIO) readBack(buf []byte, _ iio.ChanInfo) (int, error) {
	var val int64
	if d.cfg.Back {
		val = 1
	}
	return iio.FormatInt(buf, val)
}

func (d *IIO) writeBack(_ []byte, _ iio.ChanInfo) error {
	d.cfg.Back = true
	return nil
}
