// Copyright 2024 trim21 <trim21.me@gmail.com>
// SPDX-License-Identifier: GPL-3.0-only

//go:build unix

package monstatus_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/samber/lo"
	"github.com/stretchr/testify/require"

	"crcsum/internal/monstatus"
)

func statusPath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "status")
}

func TestOpenPublishRead(t *testing.T) {
	path := statusPath(t)

	a, err := monstatus.Open(path)
	require.NoError(t, err)
	defer a.Detach()

	info := lo.Must(os.Stat(path))
	require.Equal(t, int64(monstatus.RecordSize), info.Size())

	r, err := monstatus.Read(path)
	require.NoError(t, err)
	require.Equal(t, uint32(os.Getpid()), r.PID)
	require.Zero(t, r.Files)

	require.NoError(t, a.Publish(monstatus.Record{PID: 7, Files: 3, Bytes: 4096, Failures: 1, Hardware: true}))

	r, err = monstatus.Read(path)
	require.NoError(t, err)
	require.Equal(t, monstatus.Record{PID: 7, Files: 3, Bytes: 4096, Failures: 1, Hardware: true}, r)

	r, err = a.Load()
	require.NoError(t, err)
	require.Equal(t, int64(3), r.Files)
}

func TestOpenLocked(t *testing.T) {
	path := statusPath(t)

	a, err := monstatus.Open(path)
	require.NoError(t, err)

	_, err = monstatus.Open(path)
	require.Error(t, err)

	require.NoError(t, a.Detach())

	b, err := monstatus.Open(path)
	require.NoError(t, err)
	require.NoError(t, b.Detach())
}

func TestOpenResizesFile(t *testing.T) {
	path := statusPath(t)
	lo.Must0(os.WriteFile(path, make([]byte, 4096), 0o644))

	a, err := monstatus.Open(path)
	require.NoError(t, err)
	require.NoError(t, a.Detach())

	require.Equal(t, int64(monstatus.RecordSize), lo.Must(os.Stat(path)).Size())
}

func TestDetachTwice(t *testing.T) {
	a, err := monstatus.Open(statusPath(t))
	require.NoError(t, err)

	require.NoError(t, a.Detach())
	require.NoError(t, a.Detach())

	require.ErrorIs(t, a.Publish(monstatus.Record{}), monstatus.ErrDetached)
	_, err = a.Load()
	require.ErrorIs(t, err, monstatus.ErrDetached)
}

func TestDetachMissingFile(t *testing.T) {
	path := statusPath(t)

	a, err := monstatus.Open(path)
	require.NoError(t, err)

	lo.Must0(os.Remove(path))

	require.Error(t, a.Detach())
	require.NoError(t, a.Detach())
}

func TestDetachResizedFile(t *testing.T) {
	path := statusPath(t)

	a, err := monstatus.Open(path)
	require.NoError(t, err)

	lo.Must0(os.Truncate(path, 4096))

	require.Error(t, a.Detach())
	require.NoError(t, a.Detach())
}

func TestAttachReadOnly(t *testing.T) {
	path := statusPath(t)

	a, err := monstatus.Open(path)
	require.NoError(t, err)
	defer a.Detach()

	b, err := monstatus.Attach(path)
	require.NoError(t, err)
	defer b.Detach()

	require.ErrorIs(t, b.Publish(monstatus.Record{}), monstatus.ErrReadOnly)

	require.NoError(t, a.Publish(monstatus.Record{Files: 9}))

	r, err := b.Load()
	require.NoError(t, err)
	require.Equal(t, int64(9), r.Files)
}

func TestAttachInvalid(t *testing.T) {
	dir := t.TempDir()

	_, err := monstatus.Attach(filepath.Join(dir, "missing"))
	require.Error(t, err)

	short := filepath.Join(dir, "short")
	lo.Must0(os.WriteFile(short, []byte("abc"), 0o644))
	_, err = monstatus.Attach(short)
	require.Error(t, err)

	garbage := filepath.Join(dir, "garbage")
	lo.Must0(os.WriteFile(garbage, make([]byte, monstatus.RecordSize), 0o644))
	_, err = monstatus.Read(garbage)
	require.ErrorIs(t, err, monstatus.ErrBadMagic)
}
