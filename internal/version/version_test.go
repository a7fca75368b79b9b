// Copyright 2024 trim21 <trim21.me@gmail.com>
// SPDX-License-Identifier: GPL-3.0-only

package version_test

import (
	"runtime/debug"
	"testing"

	"github.com/stretchr/testify/require"

	"crcsum/internal/version"
)

func TestPrint(t *testing.T) {
	out := version.Print()

	require.Contains(t, out, "version:    0.3.0")
	require.Contains(t, out, "crc32c:")
	require.NotContains(t, out, "\n\n")
}

func TestFormatBuildInfo(t *testing.T) {
	s := version.FormatBuildInfo(&debug.BuildInfo{
		GoVersion: "go1.22.5",
		Deps: []*debug.Module{
			{Path: "github.com/rs/zerolog", Version: "v1.33.0", Sum: "h1:abc"},
			{Path: "golang.org/x/sys", Version: "v0.21.0", Replace: &debug.Module{Path: "../sys"}},
		},
		Settings: []debug.BuildSetting{{Key: "-tags", Value: "release noasm"}},
	})

	require.Contains(t, s, "go\tgo1.22.5\n")
	require.Contains(t, s, "dep\tgithub.com/rs/zerolog v1.33.0 h1:abc\n")
	require.Contains(t, s, " => ../sys")
	require.Contains(t, s, "build\t-tags=\"release noasm\"\n")
}
