// Copyright 2024 trim21 <trim21.me@gmail.com>
// SPDX-License-Identifier: GPL-3.0-only

package web

import (
	"fmt"
	"net/http"
	"reflect"
	"runtime/debug"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/net/trace"
	"golang.org/x/sync/semaphore"

	"crcsum/internal/checksum"
	"crcsum/internal/config"
	"crcsum/internal/version"
	"crcsum/internal/web/res"
)

const HeaderAuthorization = "Authorization"

type Capability struct {
	Strategy string `json:"strategy"`
	Hardware bool   `json:"hardware"`
}

type Checksum struct {
	CRC32C string `json:"crc32c"`
	Raw    string `json:"raw"`
	Size   int64  `json:"size"`
}

func newChecksum(r checksum.Result) Checksum {
	return Checksum{
		CRC32C: r.String(),
		Raw:    fmt.Sprintf("%08x", r.CRC),
		Size:   r.Size,
	}
}

type handler struct {
	c    *checksum.Checker
	v    *validator.Validate
	sem  *semaphore.Weighted
	root string
}

func New(c *checksum.Checker, cfg config.Web, token string, enableDebug bool) http.Handler {
	v := validator.New()

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("query"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	maxParallel := cfg.MaxParallel
	if maxParallel <= 0 {
		maxParallel = 1
	}

	h := &handler{
		c:    c,
		v:    v,
		sem:  semaphore.NewWeighted(int64(maxParallel)),
		root: cfg.Root,
	}

	r := chi.NewMux()
	r.Use(middleware.Recoverer)

	r.Handle("GET /metrics", promhttp.Handler())

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		res.Text(w, http.StatusOK, ".")
	})

	if enableDebug {
		info, ok := debug.ReadBuildInfo()
		if ok {
			s := []byte(version.FormatBuildInfo(info))

			r.Get("/debug/version", func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("content-type", "text/plain")
				w.WriteHeader(http.StatusOK)
				_, _ = fmt.Fprintln(w, version.Print())
				_, _ = fmt.Fprintln(w)
				_, _ = w.Write(s)
			})
		} else {
			r.Get("/debug/version", func(w http.ResponseWriter, r *http.Request) {
				_, _ = fmt.Fprintln(w, version.Print())
			})
		}

		r.HandleFunc("/debug/requests", trace.Traces)

		r.Mount("/debug", middleware.Profiler())
	}

	r.Get("/v1/capability", h.capability)

	var auth = func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get(HeaderAuthorization) != token {
				res.Error(w, http.StatusUnauthorized, "invalid token")
				return
			}

			next.ServeHTTP(w, r)
		})
	}

	r.Group(func(r chi.Router) {
		r.Use(middleware.NoCache, auth, h.limit)
		r.Post("/v1/checksum", h.checksumBody)
		r.Get("/v1/checksum", h.checksumFile)
	})

	return r
}

func (h *handler) limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !h.sem.TryAcquire(1) {
			res.Error(w, http.StatusServiceUnavailable, "too many checksum requests in progress")
			return
		}
		defer h.sem.Release(1)

		next.ServeHTTP(w, r)
	})
}

func (h *handler) capability(w http.ResponseWriter, r *http.Request) {
	res.JSON(w, http.StatusOK, Capability{
		Hardware: h.c.Hardware(),
		Strategy: h.c.Strategy(),
	})
}

func (h *handler) checksumBody(w http.ResponseWriter, r *http.Request) {
	tr := trace.New("checksum.body", r.RemoteAddr)
	defer tr.Finish()

	result, err := h.c.Reader(r.Context(), r.Body)
	if err != nil {
		tr.LazyPrintf("failed after %d bytes: %v", result.Size, err)
		tr.SetError()
		res.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	tr.LazyPrintf("%d bytes, crc32c %s", result.Size, result.String())
	res.JSON(w, http.StatusOK, newChecksum(result))
}
