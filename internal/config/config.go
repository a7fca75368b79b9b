// Copyright 2024 trim21 <trim21.me@gmail.com>
// SPDX-License-Identifier: GPL-3.0-only

package config

import (
	"fmt"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/docker/go-units"
	"github.com/pelletier/go-toml/v2"
	"github.com/trim21/errgo"

	"crcsum/internal/pkg/mempool"
)

// HardwareMode selects the crc32c strategy.
type HardwareMode string

const (
	HardwareAuto HardwareMode = "auto"
	HardwareOn   HardwareMode = "on"
	HardwareOff  HardwareMode = "off"
)

type Checksum struct {
	RawBufferSize string       `toml:"buffer-size"`
	Hardware      HardwareMode `toml:"hardware"`
	RawReadLimit  string       `toml:"read-limit"`
	RawCacheTTL   string       `toml:"cache-ttl"`
	Workers       int          `toml:"workers"`
	CacheSize     int          `toml:"cache-size"`

	// parsed values
	BufferSize int           `toml:"-"`
	ReadLimit  int64         `toml:"-"`
	CacheTTL   time.Duration `toml:"-"`
}

type Web struct {
	Root        string `toml:"root"`
	MaxParallel int    `toml:"max-parallel"`
}

type Status struct {
	File string `toml:"file"`
}

type Config struct {
	Checksum Checksum `toml:"checksum"`
	Web      Web      `toml:"web"`
	Status   Status   `toml:"status"`
}

func Default() Config {
	return Config{
		Checksum: Checksum{
			RawBufferSize: "1MiB",
			Hardware:      HardwareAuto,
			RawCacheTTL:   "5m",
			Workers:       runtime.NumCPU(),
			CacheSize:     1024,
		},
		Web: Web{MaxParallel: 4},
	}
}

func LoadFromFile(path string) (Config, error) {
	var cfg = Default()

	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, cfg.Normalize()
		}

		return Config{}, errgo.Wrap(err, "failed to read config file")
	}

	if err := toml.Unmarshal(raw, &cfg); err != nil {
		return cfg, errgo.Wrap(err, "failed to parse config file")
	}

	return cfg, cfg.Normalize()
}

// Normalize validates raw values and fills the parsed fields.
// It must be called again after fields are overridden from the command line.
func (c *Config) Normalize() error {
	switch c.Checksum.Hardware {
	case "":
		c.Checksum.Hardware = HardwareAuto
	case HardwareAuto, HardwareOn, HardwareOff:
	default:
		return fmt.Errorf("invalid `checksum.hardware` config %q, only 'auto', 'on' or 'off' are allowed", c.Checksum.Hardware)
	}

	c.Checksum.BufferSize = mempool.DefaultScratchSize
	if s := strings.TrimSpace(c.Checksum.RawBufferSize); s != "" {
		size, err := units.RAMInBytes(s)
		if err != nil {
			return errgo.Wrap(err, "failed to parse `checksum.buffer-size`")
		}

		if size <= 0 || size > units.GiB {
			return fmt.Errorf("`checksum.buffer-size` must be between 1B and 1GiB, got %q", s)
		}

		c.Checksum.BufferSize = int(size)
	}

	c.Checksum.ReadLimit = 0
	if s := strings.TrimSpace(c.Checksum.RawReadLimit); s != "" {
		limit, err := units.RAMInBytes(s)
		if err != nil {
			return errgo.Wrap(err, "failed to parse `checksum.read-limit`")
		}

		if limit < 0 {
			return fmt.Errorf("`checksum.read-limit` must not be negative, got %q", s)
		}

		c.Checksum.ReadLimit = limit
	}

	c.Checksum.CacheTTL = 0
	if s := strings.TrimSpace(c.Checksum.RawCacheTTL); s != "" {
		ttl, err := time.ParseDuration(s)
		if err != nil {
			return errgo.Wrap(err, "failed to parse `checksum.cache-ttl`")
		}

		c.Checksum.CacheTTL = ttl
	}

	if c.Checksum.Workers <= 0 {
		c.Checksum.Workers = runtime.NumCPU()
	}

	if c.Checksum.CacheSize < 0 {
		c.Checksum.CacheSize = 0
	}

	if c.Web.MaxParallel <= 0 {
		c.Web.MaxParallel = 1
	}

	return nil
}
