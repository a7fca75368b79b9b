// Copyright 2024 trim21 <trim21.me@gmail.com>
// SPDX-License-Identifier: GPL-3.0-only

// Copyright 2016 The Prometheus Authors
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package version

import (
	"bytes"
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"
	"text/template"

	"github.com/samber/lo"

	"crcsum/internal/pkg/crc32c"
	"crcsum/internal/pkg/global"
	"crcsum/internal/pkg/sys"
)

const (
	MAJOR = 0
	MINOR = 3
	PATCH = 0
)

// Build information. Populated at build-time.
var (
	Version   string
	Revision  string
	BuildDate string

	computedRevision string
	computedTags     string
)

var versionInfoTmpl = `
version:    {{ .version }}
revision:   {{ .revision }}
platform:   {{ .platform }}
crc32c:     {{ .crc32c }}
go version: {{ .goVersion }}
{{ if .buildDate -}} build date: {{ .buildDate }} {{- end }}
{{ if .tags -}} build tags: {{ .tags }} {{- end }}
`

var versionOutput string

// Print returns version information.
func Print() string {
	return versionOutput
}

func gen() string {
	Version = fmt.Sprintf("%d.%d.%d", MAJOR, MINOR, PATCH)
	if global.Dev {
		Version += " (development)"
	}

	m := map[string]string{
		"version":   Version,
		"revision":  getRevision(),
		"buildDate": BuildDate,
		"platform":  sys.Platform,
		"crc32c":    crc32c.StrategyName(true),
		"goVersion": runtime.Version(),
		"tags":      computedTags,
	}
	t := template.Must(template.New("version").Parse(versionInfoTmpl))

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "version", m); err != nil {
		panic(err)
	}

	return strings.Join(lo.Filter(strings.Split(buf.String(), "\n"), func(item string, _ int) bool {
		return item != ""
	}), "\n")
}

func getRevision() string {
	if Revision != "" {
		return Revision
	}
	return computedRevision
}

func init() {
	computedRevision, computedTags = computeRevision()
	versionOutput = gen()
}

func computeRevision() (string, string) {
	var (
		rev      = "<unknown>"
		tags     = ""
		modified bool
	)

	buildInfo, ok := debug.ReadBuildInfo()
	if !ok {
		return rev, tags
	}
	for _, v := range buildInfo.Settings {
		switch v.Key {
		case "vcs.revision":
			rev = v.Value
		case "vcs.modified":
			modified = v.Value == "true"
		case "-tags":
			tags = v.Value
		}
	}

	if modified {
		return rev + "-modified", tags
	}

	return rev, tags
}
