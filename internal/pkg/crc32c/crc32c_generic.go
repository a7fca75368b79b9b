// Copyright 2024 trim21 <trim21.me@gmail.com>
// SPDX-License-Identifier: GPL-3.0-only

//go:build !(amd64 || arm64) || noasm

package crc32c

const hardwareName = "software"

func detect() bool {
	return false
}

func updateHardware(crc uint32, p []byte) uint32 {
	return updateSoftware(crc, p)
}
