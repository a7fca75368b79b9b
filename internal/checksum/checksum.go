// Copyright 2024 trim21 <trim21.me@gmail.com>
// SPDX-License-Identifier: GPL-3.0-only

package checksum

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/juju/ratelimit"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/trim21/errgo"
	"go.uber.org/atomic"

	"crcsum/internal/config"
	"crcsum/internal/pkg/crc32c"
	"crcsum/internal/pkg/gfs"
	"crcsum/internal/pkg/global/tasks"
	"crcsum/internal/pkg/mempool"
)

// Result of checksumming one file or stream.
type Result struct {
	Err  error
	Path string
	Size int64
	// CRC is the raw crc32c register, see Sum for the check value.
	CRC    uint32
	Cached bool
}

// Sum returns the conventional CRC-32C check value.
func (r Result) Sum() uint32 {
	return crc32c.Finalize(r.CRC)
}

func (r Result) String() string {
	return fmt.Sprintf("%08x", r.Sum())
}

type Stats struct {
	Files    int64
	Bytes    int64
	Failures int64
}

type cacheKey struct {
	path    string
	size    int64
	modTime int64
}

type Checker struct {
	log     zerolog.Logger
	scratch *mempool.Scratch
	bucket  *ratelimit.Bucket
	cache   *expirable.LRU[cacheKey, uint32]

	files    atomic.Int64
	bytes    atomic.Int64
	failures atomic.Int64

	hardware bool
}

func New(cfg config.Checksum) *Checker {
	c := &Checker{
		log:      log.With().Str("component", "checksum").Logger(),
		scratch:  mempool.NewScratch(cfg.BufferSize),
		hardware: resolveHardware(cfg.Hardware),
	}

	if cfg.ReadLimit > 0 {
		c.bucket = ratelimit.NewBucketWithRate(float64(cfg.ReadLimit), cfg.ReadLimit)
	}

	if cfg.CacheSize > 0 {
		c.cache = expirable.NewLRU[cacheKey, uint32](cfg.CacheSize, nil, cfg.CacheTTL)
	}

	tasks.Tune(cfg.Workers)

	if c.hardware {
		hardwareGauge.Set(1)
	} else {
		hardwareGauge.Set(0)
	}

	c.log.Debug().
		Str("strategy", c.Strategy()).
		Int("buffer_size", c.scratch.Size()).
		Int64("read_limit", cfg.ReadLimit).
		Msg("checksum engine ready")

	return c
}

func resolveHardware(mode config.HardwareMode) bool {
	switch mode {
	case config.HardwareOff:
		return false
	case config.HardwareOn:
		if !crc32c.Detect() {
			log.Warn().Msg("hardware crc32c requested but cpu doesn't support it, fallback to software")
		}
	}

	return crc32c.Detect()
}

// Hardware reports whether the hardware strategy is in use.
func (c *Checker) Hardware() bool {
	return c.hardware
}

func (c *Checker) Strategy() string {
	return crc32c.StrategyName(c.hardware)
}

func (c *Checker) Stats() Stats {
	return Stats{
		Files:    c.files.Load(),
		Bytes:    c.bytes.Load(),
		Failures: c.failures.Load(),
	}
}

// File checksums the regular file at path.
// Results are cached by path, size and modification time.
func (c *Checker) File(ctx context.Context, path string) (Result, error) {
	info, err := os.Stat(path)
	if err != nil {
		return c.fail(path, errgo.Wrap(err, "failed to stat file"))
	}

	if !info.Mode().IsRegular() {
		return c.fail(path, fmt.Errorf("%s is not a regular file", path))
	}

	key := cacheKey{path: path, size: info.Size(), modTime: info.ModTime().UnixNano()}
	if c.cache != nil {
		if crc, ok := c.cache.Get(key); ok {
			return Result{Path: path, Size: info.Size(), CRC: crc, Cached: true}, nil
		}
	}

	f, err := os.Open(path)
	if err != nil {
		return c.fail(path, errgo.Wrap(err, "failed to open file"))
	}
	defer f.Close()

	start := time.Now()

	r, err := c.Reader(ctx, f)
	r.Path = path
	if err != nil {
		return r, err
	}

	c.log.Trace().Str("path", path).Int64("size", r.Size).Dur("took", time.Since(start)).Msg("checksum done")

	if c.cache != nil {
		c.cache.Add(key, r.CRC)
	}

	return r, nil
}

// Reader checksums everything read from r.
func (c *Checker) Reader(ctx context.Context, r io.Reader) (Result, error) {
	buf := c.scratch.Get()
	defer c.scratch.Put(buf)

	cr := &gfs.CountingReader{R: gfs.Throttle(gfs.NewReader(ctx, r), c.bucket)}

	crc, err := crc32c.File(cr, buf, 0, c.hardware)
	if err != nil {
		res, err := c.fail("", errgo.Wrap(err, "failed to read"))
		res.Size = cr.N
		return res, err
	}

	c.files.Inc()
	c.bytes.Add(cr.N)
	filesTotal.Inc()
	bytesTotal.Add(float64(cr.N))

	return Result{Size: cr.N, CRC: crc}, nil
}

func (c *Checker) fail(path string, err error) (Result, error) {
	c.failures.Inc()
	failuresTotal.Inc()

	return Result{Path: path, Err: err}, err
}
