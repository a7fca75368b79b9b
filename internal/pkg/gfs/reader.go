// Copyright 2024 trim21 <trim21.me@gmail.com>
// SPDX-License-Identifier: GPL-3.0-only

package gfs

import (
	"context"
	"io"

	"github.com/juju/ratelimit"
)

type contextReader struct {
	ctx context.Context
	r   io.Reader
}

// NewReader returns a reader that stops with ctx.Err() once ctx is done.
func NewReader(ctx context.Context, r io.Reader) io.Reader {
	return &contextReader{ctx, r}
}

func (r *contextReader) Read(p []byte) (int, error) {
	select {
	case <-r.ctx.Done():
		return 0, r.ctx.Err()
	default:
		return r.r.Read(p)
	}
}

// Throttle limits reads from r to the rate of bucket, nil bucket means unlimited.
func Throttle(r io.Reader, bucket *ratelimit.Bucket) io.Reader {
	if bucket == nil {
		return r
	}

	return ratelimit.Reader(r, bucket)
}

// CountingReader counts the bytes read through it.
type CountingReader struct {
	R io.Reader
	N int64
}

func (c *CountingReader) Read(p []byte) (int, error) {
	n, err := c.R.Read(p)
	c.N += int64(n)

	return n, err
}
