// Copyright 2024 trim21 <trim21.me@gmail.com>
// SPDX-License-Identifier: GPL-3.0-only

package web

import (
	"errors"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/net/trace"

	"crcsum/internal/web/res"
)

type fileQuery struct {
	Path string `query:"path" validate:"required,max=4096"`
}

func (h *handler) checksumFile(w http.ResponseWriter, r *http.Request) {
	if h.root == "" {
		res.Error(w, http.StatusNotFound, "file checksum is disabled, set `web.root` to enable it")
		return
	}

	q := fileQuery{Path: r.URL.Query().Get("path")}
	if err := h.v.Struct(q); err != nil {
		res.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	path, err := resolve(h.root, q.Path)
	if err != nil {
		if errors.Is(err, errOutsideRoot) {
			res.Error(w, http.StatusBadRequest, "path is outside of web root")
			return
		}

		if errors.Is(err, fs.ErrNotExist) {
			res.Error(w, http.StatusNotFound, "file not found")
			return
		}

		res.Error(w, http.StatusInternalServerError, err.Error())
		return
	}

	tr := trace.New("checksum.file", q.Path)
	defer tr.Finish()

	info, err := os.Stat(path)
	if err != nil {
		tr.SetError()
		res.Error(w, http.StatusInternalServerError, err.Error())
		return
	}

	if !info.Mode().IsRegular() {
		tr.SetError()
		res.Error(w, http.StatusBadRequest, "path is not a regular file")
		return
	}

	result, err := h.c.File(r.Context(), path)
	if err != nil {
		tr.LazyPrintf("%v", err)
		tr.SetError()
		res.Error(w, http.StatusInternalServerError, err.Error())
		return
	}

	tr.LazyPrintf("%d bytes, crc32c %s, cached %v", result.Size, result.String(), result.Cached)
	res.JSON(w, http.StatusOK, newChecksum(result))
}

var errOutsideRoot = errors.New("path is outside of root")

// resolve joins a slash separated relative path to root and follows
// symlinks, the result must still be inside root.
func resolve(root string, rel string) (string, error) {
	root, err := filepath.EvalSymlinks(root)
	if err != nil {
		return "", err
	}

	path := filepath.Join(root, filepath.FromSlash(rel))
	if !within(root, path) {
		return "", errOutsideRoot
	}

	path, err = filepath.EvalSymlinks(path)
	if err != nil {
		return "", err
	}

	if !within(root, path) {
		return "", errOutsideRoot
	}

	return path, nil
}

func within(root, path string) bool {
	r, err := filepath.Rel(root, path)

	return err == nil && r != ".." && !strings.HasPrefix(r, ".."+string(filepath.Separator))
}
