// Copyright 2023 The go-swio Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ad74413r

import (
	"fmt"

	"github.com/go-swio/swio"
)

// Register map of the AD74413R quad-channel software-configurable
// I/O chip. Per-channel registers take the physical channel id.
const (
	RegNop         uint32 = 0x00
	RegAdcConvCtrl uint32 = 0x23
	RegDiagAssign  uint32 = 0x24
	RegAlertStatus uint32 = 0x2E
	RegReadSelect  uint32 = 0x41
	RegCmdKey      uint32 = 0x44
	RegScratch     uint32 = 0x45
	RegSiliconRev  uint32 = 0x46
)

func RegChFuncSetup(ch int) uint32  { return 0x01 + uint32(ch) }
func RegAdcConfig(ch int) uint32    { return 0x05 + uint32(ch) }
func RegOutputConfig(ch int) uint32 { return 0x12 + uint32(ch) }
func RegDacCode(ch int) uint32      { return 0x16 + uint32(ch) }
func RegAdcResult(ch int) uint32    { return 0x26 + uint32(ch) }
func RegDiagResult(ch int) uint32   { return 0x2A + uint32(ch) }

// CMD_KEY values.
const (
	CmdKeyReset1 uint16 = 0x15FA
	CmdKeyReset2 uint16 = 0xAF51
	CmdKeyLDAC   uint16 = 0x953A
	CmdKeyDacClr uint16 = 0x73D1
)

// ADC_CONV_CTRL fields.
const (
	ConvSeqMask   uint16 = 0x3 << 8
	EnRejDiagMask uint16 = 1 << 10
	AllChEnMask   uint16 = 0x00FF // ADC and diagnostic enables
)

func ChEnMask(ch int) uint16   { return 1 << uint(ch) }
func DiagEnMask(ch int) uint16 { return 1 << uint(ch+4) }

// ADC_CONFIG fields.
const (
	AdcRangeMask     uint16 = 0x7 << 5
	AdcRejectionMask uint16 = 0x3 << 3
)

// CH_FUNC_SETUP fields.
const ChFuncSetupMask uint16 = 0x000F

// OUTPUT_CONFIG fields.
const (
	SlewEnMask      uint16 = 0x3 << 6
	SlewLinStepMask uint16 = 0x3 << 4
	SlewLinRateMask uint16 = 0x3 << 2
)

// DAC_CODE fields.
const (
	DacCodeMask uint16 = 0x1FFF
	DacCodeMax  uint16 = 8191
)

// ALERT_STATUS fields. Bit 15 flags a reset, the rest are faults.
const AlertFaultMask uint16 = 0x7FFF

// DiagAssignMask selects the DIAG_ASSIGN nibble of diagnostic
// channel ch.
func DiagAssignMask(ch int) uint16 { return 0xF << uint(4*ch) }

// AdcMaxValue is the full-scale ADC code.
const AdcMaxValue = 32768

const (
	NChannels = 4 // physical I/O channels
	DiagCh    = 4 // diagnostic channels
)

// Mode is the operating function of a physical channel.
type Mode uint8

const (
	HighZ Mode = iota
	VoltageOut
	CurrentOut
	VoltageIn
	CurrentInExt
	CurrentInLoop
	Resistance
	DigitalInput
	DigitalInputLoop
	CurrentInExtHART
	CurrentInLoopHART
)

// modeNames are the function_cfg attribute tokens, indexed by Mode.
var modeNames = []string{
	HighZ:             "high_z",
	VoltageOut:        "voltage_out",
	CurrentOut:        "current_out",
	VoltageIn:         "voltage_in",
	CurrentInExt:      "current_in_ext",
	CurrentInLoop:     "current_in_loop",
	Resistance:        "resistance",
	DigitalInput:      "digital_input",
	DigitalInputLoop:  "digital_input_loop",
	CurrentInExtHART:  "current_in_ext_hart",
	CurrentInLoopHART: "current_in_loop_hart",
}

func (m Mode) String() string {
	if int(m) < len(modeNames) {
		return modeNames[m]
	}
	return "high_z"
}

// ModeFromString maps a function_cfg token back to its Mode.
func ModeFromString(s string) (Mode, error) {
	for i, tok := range modeNames {
		if tok == s {
			return Mode(i), nil
		}
	}
	return HighZ, fmt.Errorf("ad74413r: unknown channel function %q: %w", s, swio.ErrInvalidArgument)
}

// Range is the input range an ADC channel is configured for.
type Range uint8

const (
	Range10V Range = iota
	Range2P5VExtPow
	Range2P5VIntPow
	Range5VBiDir
)

// Rate is an ADC sampling rate in samples per second. The enumerated
// values equal the rates they select.
type Rate uint16

const (
	Rate20Hz   Rate = 20
	Rate4800Hz Rate = 4800
	Rate10Hz   Rate = 10
	Rate1200Hz Rate = 1200
)

// adc rejection configurations, selected by sampling rate.
const (
	rej50_60     uint16 = 0
	rejNone      uint16 = 1
	rej50_60HART uint16 = 2
	rejHART      uint16 = 3
)

// ConvSeq is an ADC conversion sequence command.
type ConvSeq uint16

const (
	StartSingle ConvSeq = 0
	StartCont   ConvSeq = 1
	StopPwrUp   ConvSeq = 2
	StopPwrDown ConvSeq = 3
)

// SlewRate is a DAC slew update rate, in kHz.
type SlewRate uint16

const (
	SlewRate4kHz   SlewRate = 0
	SlewRate64kHz  SlewRate = 1
	SlewRate150kHz SlewRate = 2
	SlewRate240kHz SlewRate = 3
)

// SlewStep is a DAC slew increment, in DAC codes.
type SlewStep uint16

const (
	SlewStep64   SlewStep = 0
	SlewStep120  SlewStep = 1
	SlewStep500  SlewStep = 2
	SlewStep1820 SlewStep = 3
)

// DiagMode selects the internal signal a diagnostic channel observes.
type DiagMode uint8

const (
	DiagAGND DiagMode = iota
	DiagTemp
	DiagAVDD
	DiagAVSS
	DiagRefOut
	DiagALDO5V
	DiagALDO1V8
	DiagDLDO1V8
	DiagDVCC
	DiagIOVDD
	DiagSenselA
	DiagSenselB
	DiagSenselC
	DiagSenselD
)

// diagNames are the diag_function attribute tokens, indexed by
// DiagMode.
var diagNames = []string{
	DiagAGND:    "agnd",
	DiagTemp:    "temp",
	DiagAVDD:    "avdd",
	DiagAVSS:    "avss",
	DiagRefOut:  "refout",
	DiagALDO5V:  "aldo_5v",
	DiagALDO1V8: "aldo_1v8",
	DiagDLDO1V8: "dldo_1v8",
	DiagDVCC:    "dvcc",
	DiagIOVDD:   "iovdd",
	DiagSenselA: "sensel_a",
	DiagSenselB: "sensel_b",
	DiagSenselC: "sensel_c",
	DiagSenselD: "sensel_d",
}
