// Copyright 2024 trim21 <trim21.me@gmail.com>
// SPDX-License-Identifier: GPL-3.0-only

package random

import (
	"bufio"
	"crypto/rand"
	"fmt"
	"io"

	"crcsum/internal/pkg/gsync"
)

var p = gsync.NewPool(func() *bufio.Reader {
	return bufio.NewReader(rand.Reader)
})

// Bytes generate a cryptographically secure random bytes.
// Will panic if it can't read from 'crypto/rand'.
func Bytes(size int) []byte {
	reader := p.Get()
	defer p.Put(reader)

	r := make([]byte, size)
	_, err := io.ReadFull(reader, r)
	if err != nil {
		panic(fmt.Sprintf("unexpected error happened when reading from bufio.NewReader(crypto/rand.Reader) %+v", err))
	}

	return r
}
