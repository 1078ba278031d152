// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Jan Hofmeier

package spi

import (
	"fmt"
	"sort"
)

// Register names of the WINC1500, keyed by 24-bit address.
var registerNames = map[uint32]string{
	0x1000:   "CHIPID_REG",
	0x1014:   "EFUSE_REG",
	0x106c:   "RCV_CTRL_REG3",
	0x1070:   "RCV_CTRL_REG0",
	0x1078:   "RCV_CTRL_REG2",
	0x1084:   "RCV_CTRL_REG1",
	0x1088:   "RCV_CTRL_REG5",
	0x108c:   "NMI_STATE_REG",
	0x13f4:   "REVID_REG",
	0x1408:   "PIN_MUX_REG0",
	0x14a0:   "NMI_GP_REG1",
	0x1a00:   "NMI_EN_REG",
	0xe824:   "SPI_CFG_REG",
	0x207bc:  "HOST_WAIT_REG",
	0xc0008:  "NMI_GP_REG2",
	0xc000c:  "BOOTROM_REG",
	0x150400: "RCV_CTRL_REG4",
}

// Register is an entry of the register table.
type Register struct {
	Address uint32 `json:"address"`
	Name    string `json:"name"`
}

// RegisterName returns the symbolic name of addr, or its hex value.
func RegisterName(addr uint32) string {
	if name, ok := registerNames[addr]; ok {
		return name
	}
	return fmt.Sprintf("0x%04x", addr)
}

// Registers returns the register table sorted by address.
func Registers() []Register {
	regs := make([]Register, 0, len(registerNames))
	for addr, name := range registerNames {
		regs = append(regs, Register{Address: addr, Name: name})
	}
	sort.Slice(regs, func(i, j int) bool { return regs[i].Address < regs[j].Address })
	return regs
}
