// Copyright 2024 trim21 <trim21.me@gmail.com>
// SPDX-License-Identifier: GPL-3.0-only

package crc32c

import (
	"crcsum/internal/pkg/assert"
)

// Table is the slicing-by-8 lookup table set. Table[0] is the classic
// byte-at-a-time table, Table[k] advances a byte k positions further.
type Table [8][256]uint32

var tables = makeTables(Castagnoli)

func makeTables(poly uint32) *Table {
	t := new(Table)

	for i := 0; i < 256; i++ {
		crc := uint32(i)
		for j := 0; j < 8; j++ {
			if crc&1 == 1 {
				crc = (crc >> 1) ^ poly
			} else {
				crc >>= 1
			}
		}
		t[0][i] = crc
	}

	for i := 0; i < 256; i++ {
		crc := t[0][i]
		for k := 1; k < 8; k++ {
			crc = t[0][crc&0xff] ^ (crc >> 8)
			t[k][i] = crc
		}
	}

	// poly itself is the image of 0x80 in the reflected byte table
	assert.Equal(t[0][0x80], poly, "broken crc32c table")

	return t
}
