// Copyright 2024 trim21 <trim21.me@gmail.com>
// SPDX-License-Identifier: GPL-3.0-only

package crc32c_test

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"testing/iotest"

	"github.com/samber/lo"
	"github.com/stretchr/testify/require"

	"crcsum/internal/pkg/crc32c"
	"crcsum/internal/pkg/random"
)

const bufSize = 4096

func writeFile(t *testing.T, content []byte) *os.File {
	t.Helper()

	path := filepath.Join(t.TempDir(), "data.bin")
	lo.Must0(os.WriteFile(path, content, 0o600))

	f := lo.Must(os.Open(path))
	t.Cleanup(func() { _ = f.Close() })

	return f
}

func TestFileMatchesBuffer(t *testing.T) {
	for _, size := range []int{0, 1, 100, bufSize - 1, bufSize, bufSize + 1, bufSize * 3, bufSize*5 + 17} {
		content := random.Bytes(size)
		expected := crc32c.Update(crc32c.Seed, content, false)

		for _, hw := range []bool{false, true} {
			f := writeFile(t, content)

			crc, err := crc32c.File(f, make([]byte, bufSize), 0, hw)
			require.NoError(t, err, "size %d", size)
			require.Equal(t, expected, crc, "size %d", size)
		}
	}
}

func TestFileEmpty(t *testing.T) {
	f := writeFile(t, nil)

	crc, err := crc32c.File(f, make([]byte, bufSize), 0, true)
	require.NoError(t, err)
	require.Equal(t, crc32c.Seed, crc)
}

func TestFileWithHeader(t *testing.T) {
	header := []byte("AFD header")

	for _, size := range []int{0, 10, bufSize - len(header), bufSize - len(header) + 1, bufSize * 2} {
		content := random.Bytes(size)
		expected := crc32c.Update(crc32c.Seed, append(append([]byte{}, header...), content...), false)

		buf := make([]byte, bufSize)
		copy(buf, header)

		crc, err := crc32c.File(bytes.NewReader(content), buf, len(header), false)
		require.NoError(t, err, "size %d", size)
		require.Equal(t, expected, crc, "size %d", size)
	}
}

func TestFileHeaderFillsBuffer(t *testing.T) {
	header := random.Bytes(16)
	content := random.Bytes(40)

	buf := make([]byte, len(header))
	copy(buf, header)

	crc, err := crc32c.File(bytes.NewReader(content), buf, len(buf), false)
	require.NoError(t, err)
	require.Equal(t, crc32c.Update(crc32c.Seed, append(header, content...), false), crc)
}

func TestFileShortReads(t *testing.T) {
	content := random.Bytes(bufSize*2 + 5)

	crc, err := crc32c.File(iotest.HalfReader(bytes.NewReader(content)), make([]byte, 512), 0, false)
	require.NoError(t, err)
	require.Equal(t, crc32c.Update(crc32c.Seed, content, false), crc)
}

func TestFileReadError(t *testing.T) {
	ioErr := errors.New("input/output error")

	crc, err := crc32c.File(iotest.ErrReader(ioErr), make([]byte, bufSize), 0, false)
	require.Error(t, err)
	require.Zero(t, crc)

	var readErr *crc32c.ReadError
	require.ErrorAs(t, err, &readErr)
	require.ErrorIs(t, err, ioErr)
}

func TestFileReadErrorAfterData(t *testing.T) {
	ioErr := errors.New("input/output error")
	r := io.MultiReader(bytes.NewReader(random.Bytes(bufSize*2)), iotest.ErrReader(ioErr))

	crc, err := crc32c.File(r, make([]byte, bufSize), 0, false)
	require.ErrorIs(t, err, ioErr)
	require.Zero(t, crc)
}

func TestFileInvalidArguments(t *testing.T) {
	require.Panics(t, func() {
		_, _ = crc32c.File(bytes.NewReader(nil), nil, 0, false)
	})

	require.Panics(t, func() {
		_, _ = crc32c.File(bytes.NewReader(nil), make([]byte, 8), 9, false)
	})

	require.Panics(t, func() {
		_, _ = crc32c.File(bytes.NewReader(nil), make([]byte, 8), -1, false)
	})
}
