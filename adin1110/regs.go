// Copyright 2023 The go-swio Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package adin1110

// Register map of the ADIN1110 10BASE-T1L MAC/PHY. The second-port
// registers only exist on the ADIN2111.
const (
	RegPhyID         uint16 = 0x01
	RegReset         uint16 = 0x03
	RegConfig1       uint16 = 0x04
	RegConfig2       uint16 = 0x06
	RegStatus0       uint16 = 0x08
	RegStatus1       uint16 = 0x09
	RegIMask1        uint16 = 0x0D
	RegTxFSize       uint16 = 0x30
	RegTx            uint16 = 0x31
	RegTxSpace       uint16 = 0x32
	RegFifoClr       uint16 = 0x36
	RegMacRstStatus  uint16 = 0x3B
	RegSoftRst       uint16 = 0x3C
	RegMacAddrFltUpr uint16 = 0x50
	RegMacAddrFltLwr uint16 = 0x51
	RegRxFSize       uint16 = 0x90
	RegRx            uint16 = 0x91
	RegRxP2FSize     uint16 = 0xC0
	RegRxP2          uint16 = 0xC1
)

// RegMdioAcc returns the MDIO access register of slot x.
func RegMdioAcc(x int) uint16 { return 0x20 + uint16(x) }

// SPI control-frame bits. The 16-bit command word carries a 13-bit
// register address.
const (
	spiCD       uint8  = 1 << 7 // control/data, in the first byte
	spiRW       uint8  = 1 << 5 // write, in the first byte
	spiAddrMask uint16 = 0x1FFF
)

// Frame sizes of register transfers, without the optional integrity
// byte.
const (
	wrFrameSize = 6
	rdFrameSize = 7
	wrHeaderLen = 2
	rdHeaderLen = 3
)

// SOFT_RST key sequence.
const (
	SwResetKey1   uint32 = 0x4F1C
	SwResetKey2   uint32 = 0xC1F4
	SwReleaseKey1 uint32 = 0x6F1A
	SwReleaseKey2 uint32 = 0xA16F
)

// CONFIG1 fields.
const Config1Sync uint32 = 1 << 15

// CONFIG2 fields.
const (
	CrcAppend        uint32 = 1 << 5
	FwdUnk2Host      uint32 = 1 << 2
	FwdUnk2HostPort2 uint32 = 1 << 12
)

// STATUS0 fields.
const (
	ResetComplete uint32 = 1 << 6
	TxFifoErr     uint32 = 1 << 0
)

// STATUS1 fields.
const LinkStateMask uint32 = 1 << 0

// IMASK1 fields.
const (
	TxRdyIRQ   uint32 = 1 << 3
	RxRdyIRQ   uint32 = 1 << 4
	SpiErrIRQ  uint32 = 1 << 10
	RxRdyP2IRQ uint32 = 1 << 17
	LinkChgIRQ uint32 = 1 << 1
)

// MAC address filter fields, in the upper filter register.
const (
	MacAddrApply2Port  uint32 = 1 << 30
	MacAddrApply2Port2 uint32 = 1 << 31
	MacAddrToHost      uint32 = 1 << 16
)

// MDIOACC fields.
const (
	MdioTRDone uint32 = 1 << 31
	mdioST     uint32 = 0x3 << 28
	mdioOP     uint32 = 0x3 << 26
	mdioPrtAd  uint32 = 0x1F << 21
	mdioDevAd  uint32 = 0x1F << 16
	mdioData   uint32 = 0xFFFF
)

// MDIO operation codes.
const (
	mdioOpAddr uint32 = 0x0
	mdioOpWr   uint32 = 0x1
	mdioOpRd   uint32 = 0x3
)

// Clause 22 PHY registers.
const (
	MiControl uint32 = 0x00
	MiSoftPD  uint32 = 1 << 11
)

// PHY identifiers.
const (
	PhyIDADIN1110 uint32 = 0x0283BC91
	PhyIDADIN2111 uint32 = 0x0283BCA1
)

// Ethernet frame geometry.
const (
	EthAddrLen     = 6
	EthHeaderLen   = 14
	EthertypeLen   = 2
	FrameHeaderLen = 2  // on-chip FIFO frame header
	FcsLen         = 4  // frame check sequence, appended by the MAC
	MinFrameLen    = 64 // header + payload + trailer on the wire
)

// MdioPhyID returns the MDIO address of the PHY behind port p.
func MdioPhyID(p int) uint32 { return uint32(p) + 1 }
