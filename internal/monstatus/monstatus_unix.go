// Copyright 2024 trim21 <trim21.me@gmail.com>
// SPDX-License-Identifier: GPL-3.0-only

//go:build unix

package monstatus

import (
	"errors"
	"fmt"
	"os"

	"github.com/gofrs/flock"
	"github.com/rs/zerolog/log"
	"github.com/trim21/errgo"
	"golang.org/x/sys/unix"
)

// Open creates the status file at path if needed and maps it read/write.
// Only one process can have a status file open, the others fail to take
// the lock at path + ".lock".
func Open(path string) (*Area, error) {
	lock := flock.New(path + ".lock")

	locked, err := lock.TryLock()
	if err != nil {
		return nil, errgo.Wrap(err, "failed to lock status file")
	}

	if !locked {
		return nil, fmt.Errorf("status file %q is in use by another process", path)
	}

	data, err := mapFile(path, os.O_RDWR|os.O_CREATE, unix.PROT_READ|unix.PROT_WRITE, true)
	if err != nil {
		_ = lock.Unlock()
		return nil, err
	}

	a := &Area{path: path, data: data, lock: lock, writable: true}

	encode(a.data, Record{PID: uint32(os.Getpid())})

	return a, nil
}

// Attach maps an existing status file read-only.
func Attach(path string) (*Area, error) {
	data, err := mapFile(path, os.O_RDONLY, unix.PROT_READ, false)
	if err != nil {
		return nil, err
	}

	return &Area{path: path, data: data}, nil
}

func mapFile(path string, flag int, prot int, create bool) ([]byte, error) {
	f, err := os.OpenFile(path, flag, 0o644)
	if err != nil {
		return nil, errgo.Wrap(err, "failed to open status file")
	}
	// the mapping stays valid after the file is closed
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, errgo.Wrap(err, "failed to stat status file")
	}

	size := info.Size()
	if create && size != RecordSize {
		if err = f.Truncate(RecordSize); err != nil {
			return nil, errgo.Wrap(err, "failed to resize status file")
		}
		size = RecordSize
	}

	if size < RecordSize {
		return nil, fmt.Errorf("status file %q is too small: %d bytes", path, size)
	}

	data, err := unix.Mmap(int(f.Fd()), 0, int(size), prot, unix.MAP_SHARED)
	if err != nil {
		return nil, errgo.Wrap(err, "failed to mmap status file")
	}

	return data, nil
}

// Detach unmaps the status area and releases the lock.
// The file size is checked against the mapping first, a file resized
// behind our back is reported but the mapping is released anyway.
// Detaching twice is a no-op.
func (a *Area) Detach() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.data == nil {
		return nil
	}

	var errs []error

	var st unix.Stat_t
	if err := unix.Stat(a.path, &st); err != nil {
		log.Error().Caller().Err(err).Str("path", a.path).Msg("failed to stat()")
		errs = append(errs, errgo.Wrap(err, "failed to stat"))
	} else if st.Size != int64(len(a.data)) {
		log.Error().Caller().Str("path", a.path).Int64("size", st.Size).Int("mapped", len(a.data)).
			Msg("status file size changed while attached")
		errs = append(errs, fmt.Errorf("status file %q size changed from %d to %d", a.path, len(a.data), st.Size))
	}

	if err := unix.Munmap(a.data); err != nil {
		log.Error().Caller().Err(err).Msg("munmap() error")
		errs = append(errs, errgo.Wrap(err, "munmap() error"))
	}
	a.data = nil

	if a.lock != nil {
		if err := a.lock.Unlock(); err != nil {
			errs = append(errs, errgo.Wrap(err, "failed to unlock status file"))
		}
		a.lock = nil
	}

	return errors.Join(errs...)
}
