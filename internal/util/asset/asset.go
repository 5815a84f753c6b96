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

// Package asset mirrors large binary assets over plain HTTP for hosts that
// expose raw blob URLs outside git's own transfer protocol.
package asset

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"k8s.io/klog/v2"

	"github.com/repotools/reposync/internal/errors"
	"github.com/repotools/reposync/internal/printer"
	"github.com/repotools/reposync/internal/types"
	"github.com/repotools/reposync/internal/util/httputil"
	"github.com/repotools/reposync/internal/util/remote"
)

// State classifies a remote asset against its local counterpart.
type State int

const (
	// Missing means no local counterpart exists.
	Missing State = iota

	// Stale means the local modification time differs from the remote
	// commit timestamp.
	Stale

	// Matched means the local modification time equals the remote commit
	// timestamp to the second.
	Matched
)

func (s State) String() string {
	switch s {
	case Missing:
		return "missing"
	case Stale:
		return "stale"
	case Matched:
		return "matched"
	}
	return "unknown"
}

// ResolveURLs returns a copy of meta with a direct download URL attached
// to every file. The endpoint may contain {branch} and {path} placeholders;
// without placeholders, branch and path are appended as path segments.
func ResolveURLs(meta remote.RepoMetadata, endpoint string) remote.RepoMetadata {
	out := remote.RepoMetadata{
		Remote: meta.Remote,
		Branch: meta.Branch,
		Files:  make(map[string]remote.FileRecord, len(meta.Files)),
	}
	for p, rec := range meta.Files {
		rec.DownloadURL = buildURL(endpoint, meta.Branch, p)
		out.Files[p] = rec
	}
	return out
}

func buildURL(endpoint, branch, path string) string {
	if strings.Contains(endpoint, "{branch}") || strings.Contains(endpoint, "{path}") {
		url := strings.ReplaceAll(endpoint, "{branch}", branch)
		return strings.ReplaceAll(url, "{path}", path)
	}
	return strings.TrimSuffix(endpoint, "/") + "/" + branch + "/" + path
}

// Classify compares a single remote record against localRoot. A record
// without a timestamp never matches, so reruns keep retrying it.
func Classify(rec remote.FileRecord, localRoot string) State {
	info, err := os.Stat(filepath.Join(localRoot, filepath.FromSlash(rec.Path)))
	if err != nil {
		return Missing
	}
	if rec.HasModTime && info.ModTime().UTC().Truncate(time.Second).Equal(rec.ModTime.Truncate(time.Second)) {
		return Matched
	}
	return Stale
}

// Result reports what a mirror pass did.
type Result struct {
	Matched    []string
	Downloaded []string
	Removed    []string

	// Failed lists files whose download failed. They are left for the
	// next pass; classification makes a rerun idempotent.
	Failed []string
}

// Sync mirrors the assets described by meta into dest. An initial cleanup
// pass removes local files that are not present in the remote metadata at
// all. Missing files are downloaded before stale ones, and each download
// sets the local modification time to the remote commit timestamp so a
// subsequent run classifies the file as matched.
func Sync(ctx context.Context, meta remote.RepoMetadata, dest string) (Result, error) {
	const op errors.Op = "asset.Sync"
	pr := printer.FromContextOrDie(ctx)
	var result Result

	if err := os.MkdirAll(dest, 0755); err != nil {
		return result, errors.E(op, errors.IO, types.UniquePath(dest), err)
	}

	removed, err := removeUnknown(meta, dest)
	if err != nil {
		return result, errors.E(op, types.UniquePath(dest), err)
	}
	result.Removed = removed

	var missing, stale []string
	for p, rec := range meta.Files {
		switch Classify(rec, dest) {
		case Matched:
			result.Matched = append(result.Matched, p)
		case Missing:
			missing = append(missing, p)
		case Stale:
			stale = append(stale, p)
		}
	}
	sort.Strings(missing)
	sort.Strings(stale)
	klog.V(2).Infof("asset sync to %s: %d matched, %d missing, %d stale",
		dest, len(result.Matched), len(missing), len(stale))

	for _, p := range append(missing, stale...) {
		rec := meta.Files[p]
		target := filepath.Join(dest, filepath.FromSlash(p))
		err := httputil.Download(ctx, rec.DownloadURL, target, httputil.DownloadOptions{Overwrite: true})
		if err != nil {
			// Per-file failure; the next pass picks it up again.
			pr.OptPrintf(printer.NewOpt().Stderr(), "[Warn] download failed for %q: %v\n", p, err)
			result.Failed = append(result.Failed, p)
			continue
		}
		if rec.HasModTime {
			if err := os.Chtimes(target, rec.ModTime, rec.ModTime); err != nil {
				return result, errors.E(op, errors.IO, types.UniquePath(dest), err)
			}
		}
		result.Downloaded = append(result.Downloaded, p)
	}
	return result, nil
}

// removeUnknown deletes local files under dest that the remote metadata
// does not list.
func removeUnknown(meta remote.RepoMetadata, dest string) ([]string, error) {
	var removed []string
	err := filepath.WalkDir(dest, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(dest, path)
		if err != nil {
			return err
		}
		if _, known := meta.Files[filepath.ToSlash(rel)]; known {
			return nil
		}
		if err := os.Remove(path); err != nil {
			return err
		}
		removed = append(removed, filepath.ToSlash(rel))
		return nil
	})
	return removed, err
}
