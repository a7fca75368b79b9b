// Copyright 2024 trim21 <trim21.me@gmail.com>
// SPDX-License-Identifier: GPL-3.0-only

//go:build amd64 && !noasm

package crc32c

import "golang.org/x/sys/cpu"

const hardwareName = "sse4.2"

// castagnoliSSE42 is defined in crc32c_amd64.s.
//
//go:noescape
func castagnoliSSE42(crc uint32, p []byte) uint32

func detect() bool {
	return cpu.X86.HasSSE42
}

func updateHardware(crc uint32, p []byte) uint32 {
	return castagnoliSSE42(crc, p)
}
