// Copyright 2024 trim21 <trim21.me@gmail.com>
// SPDX-License-Identifier: GPL-3.0-only

package tasks

import (
	"runtime"

	"github.com/panjf2000/ants/v2"
	"github.com/samber/lo"
)

var pool = lo.Must(ants.NewPool(runtime.NumCPU(), ants.WithPreAlloc(false)))

// Submit runs fn on the shared worker pool, blocking while all workers are busy.
func Submit(fn func()) error {
	return pool.Submit(fn)
}

// Tune changes the number of workers.
func Tune(size int) {
	if size <= 0 {
		size = runtime.NumCPU()
	}

	pool.Tune(size)
}
