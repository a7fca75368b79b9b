// Copyright 2024 trim21 <trim21.me@gmail.com>
// SPDX-License-Identifier: GPL-3.0-only

package unsafe

import (
	"unsafe"
)

// Bytes returns the bytes of s without copying, the result must not be modified.
func Bytes(s string) []byte {
	d := unsafe.StringData(s)
	return unsafe.Slice(d, len(s))
}

// Str returns b as a string without copying, b must not be modified afterwards.
func Str(b []byte) string {
	d := unsafe.SliceData(b)
	return unsafe.String(d, len(b))
}
