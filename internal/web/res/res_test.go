// Copyright 2024 trim21 <trim21.me@gmail.com>
// SPDX-License-Identifier: GPL-3.0-only

package res_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/swaggest/assertjson"

	"crcsum/internal/web/res"
)

func TestJSON(t *testing.T) {
	w := httptest.NewRecorder()
	res.JSON(w, http.StatusCreated, map[string]string{"path": "a<b>"})

	require.Equal(t, http.StatusCreated, w.Code)
	require.Equal(t, "application/json", w.Header().Get("Content-Type"))
	require.Contains(t, w.Body.String(), "a<b>")
	assertjson.Equal(t, []byte(`{"path":"a<b>"}`), w.Body.Bytes())
}

func TestError(t *testing.T) {
	w := httptest.NewRecorder()
	res.Error(w, http.StatusBadRequest, "bad path")

	require.Equal(t, http.StatusBadRequest, w.Code)
	assertjson.Equal(t, []byte(`{"error":"bad path"}`), w.Body.Bytes())
}

func TestText(t *testing.T) {
	w := httptest.NewRecorder()
	res.Text(w, http.StatusServiceUnavailable, "busy")

	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	require.Equal(t, "busy", w.Body.String())
}
