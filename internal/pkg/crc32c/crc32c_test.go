// Copyright 2024 trim21 <trim21.me@gmail.com>
// SPDX-License-Identifier: GPL-3.0-only

package crc32c_test

import (
	"hash/crc32"
	"testing"

	"github.com/stretchr/testify/require"

	"crcsum/internal/pkg/crc32c"
	"crcsum/internal/pkg/random"
)

var castagnoli = crc32.MakeTable(crc32.Castagnoli)

// stdlib applies the inversion on both ends, undo it to get the raw register.
func stdlib(crc uint32, p []byte) uint32 {
	return ^crc32.Update(^crc, castagnoli, p)
}

func requireHardware(t *testing.T) {
	t.Helper()
	if !crc32c.Detect() {
		t.Skip("cpu doesn't support crc32c instruction")
	}
}

func TestKnownVector(t *testing.T) {
	for _, hw := range []bool{false, true} {
		crc := crc32c.Update(crc32c.Seed, []byte("123456789"), hw)
		require.Equal(t, uint32(0x1cf96d7c), crc)
		require.Equal(t, uint32(0xe3069283), crc32c.Finalize(crc))
	}

	require.Equal(t, uint32(0xe3069283), crc32c.Sum([]byte("123456789")))
}

func TestIdentity(t *testing.T) {
	for _, seed := range []uint32{0, 1, crc32c.Seed, 0xdeadbeef} {
		require.Equal(t, seed, crc32c.Update(seed, nil, false))
		require.Equal(t, seed, crc32c.Update(seed, []byte{}, false))
		require.Equal(t, seed, crc32c.Update(seed, []byte{}, true))
		require.Equal(t, seed, crc32c.Software(seed, nil))
	}
}

func TestSoftwareLengthsAndAlignment(t *testing.T) {
	backing := random.Bytes(64)

	for _, size := range []int{0, 1, 2, 3, 4, 7, 8, 9, 15, 16, 17} {
		for offset := 0; offset < 8; offset++ {
			p := backing[offset : offset+size]
			require.Equal(t, stdlib(crc32c.Seed, p), crc32c.Software(crc32c.Seed, p),
				"size %d offset %d", size, offset)
		}
	}
}

func TestSoftwareLarge(t *testing.T) {
	p := random.Bytes(1<<20 + 13)

	require.Equal(t, stdlib(crc32c.Seed, p), crc32c.Software(crc32c.Seed, p))
	require.Equal(t, stdlib(0, p[3:]), crc32c.Software(0, p[3:]))
}

func TestComposability(t *testing.T) {
	p := random.Bytes(67)
	whole := crc32c.Update(crc32c.Seed, p, false)

	for _, hw := range []bool{false, true} {
		for k := 0; k <= len(p); k++ {
			crc := crc32c.Update(crc32c.Seed, p[:k], hw)
			crc = crc32c.Update(crc, p[k:], hw)
			require.Equal(t, whole, crc, "split at %d", k)
		}
	}
}

func TestMixedStrategies(t *testing.T) {
	requireHardware(t)

	p := random.Bytes(1000)
	whole := crc32c.Software(crc32c.Seed, p)

	for k := 0; k <= len(p); k += 37 {
		crc := crc32c.Hardware(crc32c.Seed, p[:k])
		require.Equal(t, whole, crc32c.Software(crc, p[k:]), "split at %d", k)
	}
}

func TestPathEquivalence(t *testing.T) {
	requireHardware(t)

	backing := random.Bytes(128)

	for size := 0; size <= 64; size++ {
		for offset := 0; offset < 8; offset++ {
			p := backing[offset : offset+size]
			for _, seed := range []uint32{crc32c.Seed, 0, 0x9a3c11f0} {
				require.Equal(t, crc32c.Software(seed, p), crc32c.Hardware(seed, p),
					"size %d offset %d seed %#x", size, offset, seed)
			}
		}
	}

	p := random.Bytes(1<<16 + 3)
	require.Equal(t, crc32c.Software(crc32c.Seed, p), crc32c.Hardware(crc32c.Seed, p))
}

func TestSelect(t *testing.T) {
	require.Equal(t, "software", crc32c.StrategyName(false))

	p := []byte("select")
	require.Equal(t, crc32c.Software(crc32c.Seed, p), crc32c.Select(false)(crc32c.Seed, p))
	require.Equal(t, crc32c.Software(crc32c.Seed, p), crc32c.Select(true)(crc32c.Seed, p))

	if !crc32c.Detect() {
		require.Equal(t, "software", crc32c.StrategyName(true))
	}
}

func TestDetectIsStable(t *testing.T) {
	v := crc32c.Detect()
	for i := 0; i < 10; i++ {
		require.Equal(t, v, crc32c.Detect())
	}
}

func TestString(t *testing.T) {
	require.Equal(t, uint32(0x1cf96d7c), crc32c.String("123456789", false))
	require.Equal(t, uint32(0x1cf96d7c), crc32c.String("123456789", true))
	require.Equal(t, crc32c.Seed, crc32c.String("", true))
}

func TestCString(t *testing.T) {
	require.Equal(t, uint32(0x1cf96d7c), crc32c.CString([]byte("123456789\x00garbage"), false))
	require.Equal(t, uint32(0x1cf96d7c), crc32c.CString([]byte("123456789"), true))
	require.Equal(t, crc32c.Seed, crc32c.CString([]byte{0, 'a'}, false))
	require.Equal(t, crc32c.Seed, crc32c.CString(nil, false))
}

func BenchmarkSoftware(b *testing.B) {
	p := random.Bytes(64 * 1024)
	b.SetBytes(int64(len(p)))
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		crc32c.Software(crc32c.Seed, p)
	}
}

func BenchmarkHardware(b *testing.B) {
	if !crc32c.Detect() {
		b.Skip("cpu doesn't support crc32c instruction")
	}

	p := random.Bytes(64 * 1024)
	b.SetBytes(int64(len(p)))
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		crc32c.Hardware(crc32c.Seed, p)
	}
}
