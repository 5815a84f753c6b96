// Copyright 2025 The reposync Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package mirror copies a source tree onto a destination tree, optionally
// purging destination entries absent from the source.
package mirror

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	cp "github.com/otiai10/copy"

	"github.com/repotools/reposync/internal/errors"
	"github.com/repotools/reposync/internal/printer"
)

// Mode controls when an existing destination file is overwritten.
type Mode int

const (
	// Missing only creates files absent from the destination; existing
	// files are left untouched even when the source is newer.
	Missing Mode = iota

	// SmartSync additionally overwrites when the source size differs from
	// the destination size or the destination's modification time is older
	// than the source's. Change detection is size+mtime only; same-size
	// content edits with equal mtimes are not detected.
	SmartSync

	// All unconditionally overwrites every file.
	All
)

func (m Mode) String() string {
	switch m {
	case Missing:
		return "missing"
	case SmartSync:
		return "smart"
	case All:
		return "all"
	}
	return "unknown"
}

// ParseMode converts a CLI flag value into a Mode.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "missing":
		return Missing, nil
	case "smart", "":
		return SmartSync, nil
	case "all":
		return All, nil
	}
	return SmartSync, errors.E(errors.Op("mirror.ParseMode"), errors.InvalidParam,
		fmt.Errorf("unknown mirror mode %q, must be one of: missing, smart, all", s))
}

// Options configures a mirror pass.
type Options struct {
	Mode Mode

	// PurgeExtra removes every destination entry whose relative path has
	// no counterpart in the source.
	PurgeExtra bool

	// RetryCount is the number of additional attempts for a failed file
	// copy, with RetryDelay between attempts. A file whose retries are
	// exhausted is reported as failed without aborting the pass.
	RetryCount int
	RetryDelay time.Duration
}

// Result reports what a mirror pass did. Paths are relative to the roots
// and slash-separated.
type Result struct {
	Copied []string
	Purged []string

	// Failed lists the files whose copy failed after exhausting retries.
	Failed []string
}

// Run mirrors src onto dst according to opts. Failure is per-file and
// isolated: a failed copy is recorded in the result and reported, and the
// rest of the pass continues. The returned error covers only whole-pass
// failures such as an unreadable source root.
func Run(ctx context.Context, src, dst string, opts Options) (Result, error) {
	const op errors.Op = "mirror.Run"
	pr := printer.FromContextOrDie(ctx)
	var result Result

	if _, err := os.Stat(src); err != nil {
		return result, errors.E(op, errors.IO,
			fmt.Errorf("error reading source directory %q: %w", src, err))
	}
	if err := os.MkdirAll(dst, 0755); err != nil {
		return result, errors.E(op, errors.IO,
			fmt.Errorf("error creating destination directory %q: %w", dst, err))
	}

	if opts.PurgeExtra {
		purged, err := purgeExtra(src, dst)
		if err != nil {
			return result, errors.E(op, err)
		}
		result.Purged = purged
	}

	err := filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		target := filepath.Join(dst, rel)
		if d.IsDir() {
			return os.MkdirAll(target, 0755)
		}
		if !d.Type().IsRegular() {
			// Symlinks and specials are not mirrored.
			return nil
		}

		copyIt, err := shouldCopy(opts.Mode, path, target)
		if err != nil {
			return err
		}
		if !copyIt {
			return nil
		}

		relSlash := filepath.ToSlash(rel)
		if err := copyWithRetry(ctx, path, target, opts); err != nil {
			// Per-file failure is isolated; report it and move on.
			pr.OptPrintf(printer.NewOpt().Stderr(), "[Warn] copy failed for %q: %v\n", relSlash, err)
			result.Failed = append(result.Failed, relSlash)
			return nil
		}
		result.Copied = append(result.Copied, relSlash)
		return nil
	})
	if err != nil {
		return result, errors.E(op, errors.IO, err)
	}
	return result, nil
}

// shouldCopy applies the mode's size+mtime heuristics.
func shouldCopy(mode Mode, src, dst string) (bool, error) {
	dstInfo, err := os.Stat(dst)
	if os.IsNotExist(err) {
		return true, nil
	}
	if err != nil {
		return false, err
	}
	switch mode {
	case Missing:
		return false, nil
	case All:
		return true, nil
	}
	srcInfo, err := os.Stat(src)
	if err != nil {
		return false, err
	}
	if srcInfo.Size() != dstInfo.Size() {
		return true, nil
	}
	return dstInfo.ModTime().Before(srcInfo.ModTime()), nil
}

// copyWithRetry copies a single file, retrying on failure with a fixed
// delay, e.g. when the target is transiently locked by another process.
func copyWithRetry(ctx context.Context, src, dst string, opts Options) error {
	const op errors.Op = "mirror.copyWithRetry"
	var err error
	for attempt := 0; attempt <= opts.RetryCount; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(opts.RetryDelay):
			case <-ctx.Done():
				return errors.E(op, errors.Copy, ctx.Err())
			}
		}
		if err = cp.Copy(src, dst, cp.Options{PreserveTimes: true}); err == nil {
			return nil
		}
	}
	return errors.E(op, errors.Copy, err)
}

// purgeExtra removes destination entries that have no counterpart in the
// source. Directories are removed deepest-first so they are empty by the
// time they are deleted.
func purgeExtra(src, dst string) ([]string, error) {
	var files []string
	var dirs []string
	err := filepath.WalkDir(dst, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(dst, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		if _, err := os.Stat(filepath.Join(src, rel)); err == nil {
			return nil
		}
		if d.IsDir() {
			dirs = append(dirs, rel)
			return filepath.SkipDir
		}
		files = append(files, rel)
		return nil
	})
	if err != nil {
		return nil, err
	}

	var purged []string
	for _, rel := range files {
		if err := os.Remove(filepath.Join(dst, rel)); err != nil {
			return purged, err
		}
		purged = append(purged, filepath.ToSlash(rel))
	}
	sort.Sort(sort.Reverse(sort.StringSlice(dirs)))
	for _, rel := range dirs {
		if err := os.RemoveAll(filepath.Join(dst, rel)); err != nil {
			return purged, err
		}
		purged = append(purged, filepath.ToSlash(rel))
	}
	return purged, nil
}
