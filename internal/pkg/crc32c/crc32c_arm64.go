// Copyright 2024 trim21 <trim21.me@gmail.com>
// SPDX-License-Identifier: GPL-3.0-only

//go:build arm64 && !noasm

package crc32c

import (
	"runtime"

	"golang.org/x/sys/cpu"
)

const hardwareName = "arm64-crc32"

// castagnoliARM64 is defined in crc32c_arm64.s.
//
//go:noescape
func castagnoliARM64(crc uint32, p []byte) uint32

func detect() bool {
	// the CRC32 extension is mandatory on apple silicon but not reported there
	return cpu.ARM64.HasCRC32 || runtime.GOOS == "darwin"
}

func updateHardware(crc uint32, p []byte) uint32 {
	return castagnoliARM64(crc, p)
}
