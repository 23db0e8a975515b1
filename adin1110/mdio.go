// Copyright 2023 The go-swio Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package adin1110

import (
	"math/bits"
)

func mdioFieldPrep(mask, val uint32) uint32 {
	return (val << uint(bits.TrailingZeros32(mask))) & mask
}

// mdioWait polls the given MDIO access slot until the PHY flags the
// transaction done. The polling is part of the MDIO handshake, not
// error recovery.
func (dev *Device) mdioWait(slot int) (uint32, error) {
	for {
		val, err := dev.regRead(RegMdioAcc(slot))
		if err != nil {
			return 0, err
		}
		if val&MdioTRDone != 0 {
			return val, nil
		}
	}
}

// MdioRead reads a PHY register using clause 22 addressing.
func (dev *Device) MdioRead(phy, reg uint32) (uint32, error) {
	dev.mu.Lock()
	defer dev.mu.Unlock()

	val := mdioFieldPrep(mdioST, 0x1)
	val |= mdioFieldPrep(mdioOP, mdioOpRd)
	val |= mdioFieldPrep(mdioPrtAd, phy)
	val |= mdioFieldPrep(mdioDevAd, reg)

	err := dev.regWrite(RegMdioAcc(0), val)
	if err != nil {
		return 0, err
	}

	val, err = dev.mdioWait(0)
	if err != nil {
		return 0, err
	}

	return val & mdioData, nil
}

// MdioWrite writes a PHY register using clause 22 addressing.
func (dev *Device) MdioWrite(phy, reg, data uint32) error {
	dev.mu.Lock()
	defer dev.mu.Unlock()

	val := mdioFieldPrep(mdioST, 0x1)
	val |= mdioFieldPrep(mdioOP, mdioOpWr)
	val |= mdioFieldPrep(mdioPrtAd, phy)
	val |= mdioFieldPrep(mdioDevAd, reg)
	val |= mdioFieldPrep(mdioData, data)

	err := dev.regWrite(RegMdioAcc(0), val)
	if err != nil {
		return err
	}

	_, err = dev.mdioWait(0)
	return err
}

// MdioReadC45 reads a PHY register using clause 45 addressing: the
// register address goes through the first MDIO slot, the read through
// the second.
func (dev *Device) MdioReadC45(phy, dev45, reg uint32) (uint32, error) {
	dev.mu.Lock()
	defer dev.mu.Unlock()

	val := mdioFieldPrep(mdioST, 0x0)
	val |= mdioFieldPrep(mdioOP, mdioOpAddr)
	val |= mdioFieldPrep(mdioPrtAd, phy)
	val |= mdioFieldPrep(mdioDevAd, dev45)
	val |= mdioFieldPrep(mdioData, reg)

	err := dev.regWrite(RegMdioAcc(0), val)
	if err != nil {
		return 0, err
	}

	_, err = dev.mdioWait(0)
	if err != nil {
		return 0, err
	}

	val = mdioFieldPrep(mdioST, 0x0)
	val |= mdioFieldPrep(mdioOP, mdioOpRd)
	val |= mdioFieldPrep(mdioPrtAd, phy)
	val |= mdioFieldPrep(mdioDevAd, dev45)

	err = dev.regWrite(RegMdioAcc(1), val)
	if err != nil {
		return 0, err
	}

	val, err = dev.mdioWait(1)
	if err != nil {
		return 0, err
	}

	return val & mdioData, nil
}

// MdioWriteC45 writes a PHY register using clause 45 addressing.
func (dev *Device) MdioWriteC45(phy, dev45, reg, data uint32) error {
	dev.mu.Lock()
	defer dev.mu.Unlock()

	val := mdioFieldPrep(mdioST, 0x0)
	val |= mdioFieldPrep(mdioOP, mdioOpAddr)
	val |= mdioFieldPrep(mdioPrtAd, phy)
	val |= mdioFieldPrep(mdioDevAd, dev45)
	val |= mdioFieldPrep(mdioData, reg)

	err := dev.regWrite(RegMdioAcc(0), val)
	if err != nil {
		return err
	}

	val = mdioFieldPrep(mdioST, 0x0)
	val |= mdioFieldPrep(mdioOP, mdioOpWr)
	val |= mdioFieldPrep(mdioPrtAd, phy)
	val |= mdioFieldPrep(mdioDevAd, dev45)
	val |= mdioFieldPrep(mdioData, data)

	err = dev.regWrite(RegMdioAcc(1), val)
	if err != nil {
		return err
	}

	_, err = dev.mdioWait(0)
	if err != nil {
		return err
	}

	_, err = dev.mdioWait(1)
	return err
}
