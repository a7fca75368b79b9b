// Copyright 2024 trim21 <trim21.me@gmail.com>
// SPDX-License-Identifier: GPL-3.0-only

//go:build !release

package assert

import "fmt"

func Equal[T comparable](v1, v2 T, msg string) {
	if v1 != v2 {
		panic(fmt.Sprintf("%s: %v != %v", msg, v1, v2))
	}
}
