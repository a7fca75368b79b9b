// Copyright 2024 trim21 <trim21.me@gmail.com>
// SPDX-License-Identifier: GPL-3.0-only

// Package monstatus publishes checksum counters into a small memory-mapped
// file, so external monitors can read them without talking to the process.
package monstatus

import (
	"encoding/binary"
	"errors"
	"sync"
	"time"

	"github.com/gofrs/flock"

	"crcsum/internal/pkg/crc32c"
)

const (
	magic   = "CRCS"
	version = 1

	// RecordSize is the size of the status file.
	RecordSize = 52
)

var (
	ErrUnsupported = errors.New("status area is not supported on this platform")
	ErrBadMagic    = errors.New("not a crcsum status file")
	ErrChecksum    = errors.New("status record checksum mismatch")
	ErrReadOnly    = errors.New("status area is attached read-only")
	ErrDetached    = errors.New("status area is detached")
)

// Record is the content of the status area.
type Record struct {
	Updated  time.Time
	Files    int64
	Bytes    int64
	Failures int64
	PID      uint32
	Hardware bool
}

// Area is a mapped status file.
type Area struct {
	lock     *flock.Flock
	path     string
	data     []byte
	mu       sync.Mutex
	writable bool
}

// Publish overwrites the record in the status area.
func (a *Area) Publish(r Record) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.data == nil {
		return ErrDetached
	}

	if !a.writable {
		return ErrReadOnly
	}

	encode(a.data[:RecordSize], r)

	return nil
}

// Load returns the current record, a record caught in the middle of an
// update fails with ErrChecksum.
func (a *Area) Load() (Record, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.data == nil {
		return Record{}, ErrDetached
	}

	var b [RecordSize]byte
	copy(b[:], a.data)

	return decode(b[:])
}

// Read attaches to the status file at path, loads the record and detaches.
func Read(path string) (Record, error) {
	a, err := Attach(path)
	if err != nil {
		return Record{}, err
	}

	r, err := a.Load()

	return r, errors.Join(err, a.Detach())
}

func encode(b []byte, r Record) {
	_ = b[RecordSize-1]

	var flags uint32
	if r.Hardware {
		flags |= 1
	}

	var updated int64
	if !r.Updated.IsZero() {
		updated = r.Updated.UnixNano()
	}

	copy(b, magic)
	binary.LittleEndian.PutUint32(b[4:], version)
	binary.LittleEndian.PutUint32(b[8:], r.PID)
	binary.LittleEndian.PutUint32(b[12:], flags)
	binary.LittleEndian.PutUint64(b[16:], uint64(r.Files))
	binary.LittleEndian.PutUint64(b[24:], uint64(r.Bytes))
	binary.LittleEndian.PutUint64(b[32:], uint64(r.Failures))
	binary.LittleEndian.PutUint64(b[40:], uint64(updated))
	binary.LittleEndian.PutUint32(b[48:], bodySum(b))
}

func bodySum(b []byte) uint32 {
	d := crc32c.New(true)
	_, _ = d.Write(b[:48])

	return d.Sum32()
}

func decode(b []byte) (Record, error) {
	if len(b) < RecordSize || string(b[:4]) != magic {
		return Record{}, ErrBadMagic
	}

	if binary.LittleEndian.Uint32(b[48:]) != bodySum(b) {
		return Record{}, ErrChecksum
	}

	r := Record{
		PID:      binary.LittleEndian.Uint32(b[8:]),
		Hardware: binary.LittleEndian.Uint32(b[12:])&1 != 0,
		Files:    int64(binary.LittleEndian.Uint64(b[16:])),
		Bytes:    int64(binary.LittleEndian.Uint64(b[24:])),
		Failures: int64(binary.LittleEndian.Uint64(b[32:])),
	}

	if updated := int64(binary.LittleEndian.Uint64(b[40:])); updated != 0 {
		r.Updated = time.Unix(0, updated)
	}

	return r, nil
}
