// Copyright 2024 trim21 <trim21.me@gmail.com>
// SPDX-License-Identifier: GPL-3.0-only

package checksum

import (
	"slices"
	"strings"

	"github.com/puzpuzpuz/xsync/v3"
	"github.com/samber/lo"
)

type dupKey struct {
	size int64
	crc  uint32
}

// Dupes groups results with identical content, size and checksum both have to match.
// It's safe for concurrent use.
type Dupes struct {
	m *xsync.MapOf[dupKey, []string]
}

func NewDupes() *Dupes {
	return &Dupes{m: xsync.NewMapOf[dupKey, []string]()}
}

func (d *Dupes) Add(r Result) {
	if r.Err != nil || r.Path == "" {
		return
	}

	d.m.Compute(dupKey{size: r.Size, crc: r.CRC}, func(old []string, _ bool) ([]string, bool) {
		return append(slices.Clip(old), r.Path), false
	})
}

// Groups returns every set of two or more distinct paths with the same
// content, paths are sorted and groups are ordered by their first path.
func (d *Dupes) Groups() [][]string {
	var groups [][]string

	d.m.Range(func(_ dupKey, paths []string) bool {
		g := lo.Uniq(paths)
		if len(g) > 1 {
			slices.Sort(g)
			groups = append(groups, g)
		}
		return true
	})

	slices.SortFunc(groups, func(a, b []string) int {
		return strings.Compare(a[0], b[0])
	})

	return groups
}
