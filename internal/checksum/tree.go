// Copyright 2024 trim21 <trim21.me@gmail.com>
// SPDX-License-Identifier: GPL-3.0-only

package checksum

import (
	"context"
	"errors"
	"os"
	"sync"

	"github.com/karrick/godirwalk"
	"github.com/sourcegraph/conc"
	"github.com/trim21/errgo"

	"crcsum/internal/pkg/global/tasks"
)

// Tree checksums every regular file below root on the shared worker pool.
// fn is never called concurrently. Unreadable files and directories are
// reported to fn with Result.Err set and don't stop the walk.
// Symlinks to regular files are checksummed under the link path.
func (c *Checker) Tree(ctx context.Context, root string, fn func(Result)) error {
	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)

	report := func(r Result) {
		mu.Lock()
		defer mu.Unlock()
		fn(r)
	}

	err := godirwalk.Walk(root, &godirwalk.Options{
		Unsorted: true,
		Callback: func(osPathname string, de *godirwalk.Dirent) error {
			if err := ctx.Err(); err != nil {
				return err
			}

			if de.IsSymlink() {
				return c.symlink(ctx, osPathname, &wg, report)
			}

			if !de.IsRegular() {
				return nil
			}

			return c.submit(ctx, osPathname, &wg, report)
		},
		ErrorCallback: func(osPathname string, err error) godirwalk.ErrorAction {
			if ctx.Err() != nil {
				return godirwalk.Halt
			}

			c.log.Warn().Err(err).Str("path", osPathname).Msg("failed to walk")
			r, _ := c.fail(osPathname, errgo.Wrap(err, "failed to walk"))
			report(r)

			return godirwalk.SkipNode
		},
	})

	wg.Wait()

	return err
}

// symlink handles a link found while walking the same way Paths handles a
// link given as argument: links to regular files are checksummed, dangling
// links are reported. Links to directories are not followed.
func (c *Checker) symlink(ctx context.Context, path string, wg *sync.WaitGroup, report func(Result)) error {
	info, err := os.Stat(path)
	if err != nil {
		r, _ := c.fail(path, errgo.Wrap(err, "failed to follow symlink"))
		report(r)
		return nil
	}

	if !info.Mode().IsRegular() {
		c.log.Debug().Str("path", path).Str("mode", info.Mode().String()).Msg("skip symlink to non regular file")
		return nil
	}

	return c.submit(ctx, path, wg, report)
}

func (c *Checker) submit(ctx context.Context, path string, wg *sync.WaitGroup, report func(Result)) error {
	wg.Add(1)
	err := tasks.Submit(func() {
		defer wg.Done()
		r, _ := c.File(ctx, path)
		report(r)
	})
	if err != nil {
		wg.Done()
		return errgo.Wrap(err, "failed to submit checksum task")
	}

	return nil
}

// Paths checksums files and walks directories. Each argument is handled
// concurrently, fn is never called concurrently.
func (c *Checker) Paths(ctx context.Context, paths []string, fn func(Result)) error {
	var (
		mu   sync.Mutex
		errs []error
	)

	report := func(r Result) {
		mu.Lock()
		defer mu.Unlock()
		fn(r)
	}

	wg := conc.NewWaitGroup()
	for _, path := range paths {
		wg.Go(func() {
			info, err := os.Stat(path)
			if err != nil || !info.IsDir() {
				r, _ := c.File(ctx, path)
				report(r)
				return
			}

			if err := c.Tree(ctx, path, report); err != nil {
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
			}
		})
	}

	wg.Wait()

	return errors.Join(errs...)
}
