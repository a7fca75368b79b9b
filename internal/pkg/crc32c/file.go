// Copyright 2024 trim21 <trim21.me@gmail.com>
// SPDX-License-Identifier: GPL-3.0-only

package crc32c

import (
	"errors"
	"io"

	"github.com/rs/zerolog/log"
)

// ReadError is returned by File when the underlying reader fails.
type ReadError struct {
	Err error
}

func (e *ReadError) Error() string {
	return "read() error : " + e.Err.Error()
}

func (e *ReadError) Unwrap() error {
	return e.Err
}

// File returns the CRC-32C register of everything in buf[:offset] followed
// by all data read from r, starting from Seed.
//
// buf is used as scratch space and its first offset bytes must already hold
// data, typically a header the caller read before handing the stream over.
// Each read tries to fill the whole buffer, a read that comes back short
// ends the stream.
//
// r is read sequentially, File must not be used concurrently on the same r.
func File(r io.Reader, buf []byte, offset int, useHardware bool) (uint32, error) {
	if len(buf) == 0 {
		panic("crc32c: empty scratch buffer")
	}

	if offset < 0 || offset > len(buf) {
		panic("crc32c: offset out of scratch buffer")
	}

	update := Select(useHardware)

	n, err := readFull(r, buf[offset:])
	if err != nil {
		return 0, err
	}

	n += offset
	crc := update(Seed, buf[:n])

	for n == len(buf) {
		n, err = readFull(r, buf)
		if err != nil {
			return 0, err
		}

		crc = update(crc, buf[:n])
	}

	return crc, nil
}

func readFull(r io.Reader, buf []byte) (int, error) {
	n, err := io.ReadFull(r, buf)
	if err == nil || errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return n, nil
	}

	log.Error().Caller(1).Err(err).Msg("read() error")

	return n, &ReadError{Err: err}
}
