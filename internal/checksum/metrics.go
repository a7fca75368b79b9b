// Copyright 2024 trim21 <trim21.me@gmail.com>
// SPDX-License-Identifier: GPL-3.0-only

package checksum

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	filesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "crcsum_files_total",
		Help: "Files and streams checksummed successfully.",
	})

	bytesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "crcsum_bytes_total",
		Help: "Bytes folded into checksums.",
	})

	failuresTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "crcsum_failures_total",
		Help: "Checksums that failed, mostly on read errors.",
	})

	hardwareGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "crcsum_hardware_enabled",
		Help: "1 when the crc32 cpu instruction is used.",
	})
)

func init() {
	prometheus.MustRegister(filesTotal, bytesTotal, failuresTotal, hardwareGauge)
}
