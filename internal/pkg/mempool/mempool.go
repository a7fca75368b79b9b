// Copyright 2024 trim21 <trim21.me@gmail.com>
// SPDX-License-Identifier: GPL-3.0-only

package mempool

import (
	"github.com/colega/zeropool"
	"github.com/docker/go-units"
	"github.com/valyala/bytebufferpool"
)

const DefaultScratchSize = units.MiB

// Scratch hands out scratch buffers of a fixed length.
type Scratch struct {
	pool zeropool.Pool[[]byte]
	size int
}

func NewScratch(size int) *Scratch {
	if size <= 0 {
		size = DefaultScratchSize
	}

	return &Scratch{
		size: size,
		pool: zeropool.New(func() []byte {
			return make([]byte, size)
		}),
	}
}

func (s *Scratch) Size() int {
	return s.size
}

// Get returns a buffer of exactly Size bytes, content is undefined.
func (s *Scratch) Get() []byte {
	return s.pool.Get()[:s.size]
}

func (s *Scratch) Put(b []byte) {
	if cap(b) < s.size {
		return
	}

	s.pool.Put(b[:0])
}

func Get() *bytebufferpool.ByteBuffer {
	return bytebufferpool.Get()
}

func Put(b *bytebufferpool.ByteBuffer) {
	bytebufferpool.Put(b)
}
