// Copyright 2024 trim21 <trim21.me@gmail.com>
// SPDX-License-Identifier: GPL-3.0-only

//go:build !unix

package monstatus

func Open(string) (*Area, error) {
	return nil, ErrUnsupported
}

func Attach(string) (*Area, error) {
	return nil, ErrUnsupported
}

func (a *Area) Detach() error {
	return nil
}
