// Copyright 2024 trim21 <trim21.me@gmail.com>
// SPDX-License-Identifier: GPL-3.0-only

/*
Package crc32c implements the CRC-32C (Castagnoli) checksum.

Two strategies compute the same value: a slicing-by-8 table driven software
algorithm and the CPU's native CRC32 instruction (SSE4.2 on amd64, the CRC32
extension on arm64). The hardware strategy is only used when Detect reports
support for it.

Unlike hash/crc32, Update works on the raw CRC register: there is no
implicit inversion before or after folding the data. Start from Seed and
call Finalize on the last value to get the conventional check value.
*/
package crc32c

import (
	"encoding/binary"
	"unsafe"
)

// Size of a CRC-32C checksum in bytes.
const Size = 4

// Castagnoli is the bit-reflected form of the CRC-32C polynomial 0x1EDC6F41.
const Castagnoli = 0x82f63b78

// Seed is the canonical initial value of a CRC-32C register.
const Seed uint32 = 0xffffffff

// Strategy folds p into crc and returns the new register value.
type Strategy func(crc uint32, p []byte) uint32

var (
	// Software is the slicing-by-8 strategy, available everywhere.
	Software Strategy = updateSoftware

	// Hardware uses the CPU CRC32 instruction. It must only be called when
	// Detect returns true.
	Hardware Strategy = updateHardware
)

var hasHardware = detect()

// Detect reports whether the CPU provides the CRC32C instruction family.
// The probe runs once per process.
func Detect() bool {
	return hasHardware
}

// Select returns the strategy to use. Hardware is returned only when it
// is both requested and supported.
func Select(useHardware bool) Strategy {
	if useHardware && hasHardware {
		return Hardware
	}

	return Software
}

// StrategyName is a human-readable name of the strategy Select would return.
func StrategyName(useHardware bool) string {
	if useHardware && hasHardware {
		return hardwareName
	}

	return "software"
}

// Update returns the result of folding p into crc.
func Update(crc uint32, p []byte, useHardware bool) uint32 {
	return Select(useHardware)(crc, p)
}

// Finalize turns a register value into the conventional CRC-32C check value.
func Finalize(crc uint32) uint32 {
	return ^crc
}

// Sum returns the CRC-32C check value of b, compatible with
// crc32.Checksum(b, crc32.MakeTable(crc32.Castagnoli)).
func Sum(b []byte) uint32 {
	return Finalize(Update(Seed, b, true))
}

func updateSoftware(crc uint32, p []byte) uint32 {
	if len(p) == 0 {
		return crc
	}

	initial := int((4 - uintptr(unsafe.Pointer(unsafe.SliceData(p)))) & 3)
	if initial > len(p) {
		initial = len(p)
	}

	for _, b := range p[:initial] {
		crc = tables[0][byte(crc)^b] ^ (crc >> 8)
	}
	p = p[initial:]

	for len(p) >= 8 {
		crc ^= binary.LittleEndian.Uint32(p)
		crc = tables[7][crc&0xff] ^
			tables[6][(crc>>8)&0xff] ^
			tables[5][(crc>>16)&0xff] ^
			tables[4][crc>>24]

		w := binary.LittleEndian.Uint32(p[4:])
		crc ^= tables[3][w&0xff] ^
			tables[2][(w>>8)&0xff] ^
			tables[1][(w>>16)&0xff] ^
			tables[0][w>>24]

		p = p[8:]
	}

	for _, b := range p {
		crc = tables[0][byte(crc)^b] ^ (crc >> 8)
	}

	return crc
}
