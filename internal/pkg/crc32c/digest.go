// Copyright 2024 trim21 <trim21.me@gmail.com>
// SPDX-License-Identifier: GPL-3.0-only

package crc32c

import (
	"hash"
)

// Digest is a resumable hash.Hash32 computing CRC-32C.
type Digest struct {
	update Strategy
	crc    uint32
}

var _ hash.Hash32 = (*Digest)(nil)

// New creates a new Digest starting from Seed. Its Sum method lays out the
// check value in big-endian byte order.
func New(useHardware bool) *Digest {
	return &Digest{crc: Seed, update: Select(useHardware)}
}

func (d *Digest) Size() int { return Size }

func (d *Digest) BlockSize() int { return 1 }

func (d *Digest) Reset() { d.crc = Seed }

// Reseed continues the digest from a register value, for example one
// returned by File or Raw.
func (d *Digest) Reseed(crc uint32) { d.crc = crc }

func (d *Digest) Write(p []byte) (n int, err error) {
	d.crc = d.update(d.crc, p)
	return len(p), nil
}

// Raw returns the register value, without the final inversion.
func (d *Digest) Raw() uint32 { return d.crc }

func (d *Digest) Sum32() uint32 { return Finalize(d.crc) }

func (d *Digest) Sum(in []byte) []byte {
	s := d.Sum32()
	return append(in, byte(s>>24), byte(s>>16), byte(s>>8), byte(s))
}
