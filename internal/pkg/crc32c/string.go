// Copyright 2024 trim21 <trim21.me@gmail.com>
// SPDX-License-Identifier: GPL-3.0-only

package crc32c

import (
	"bytes"

	"crcsum/internal/pkg/unsafe"
)

// String returns the CRC-32C register of s, starting from Seed.
func String(s string, useHardware bool) uint32 {
	return Update(Seed, unsafe.Bytes(s), useHardware)
}

// CString is like String for a NUL terminated byte string. Only the bytes
// before the first NUL are used; without a NUL the whole slice is.
func CString(b []byte, useHardware bool) uint32 {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}

	return Update(Seed, b, useHardware)
}
