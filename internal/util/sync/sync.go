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

// Package sync brings a local destination up to date with a remote branch:
// fetch metadata, partition by timestamp, sparse-fetch the stale set, copy
// it into place.
package sync

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/repotools/reposync/internal/errors"
	"github.com/repotools/reposync/internal/printer"
	"github.com/repotools/reposync/internal/types"
	"github.com/repotools/reposync/internal/util/compare"
	"github.com/repotools/reposync/internal/util/mirror"
	"github.com/repotools/reposync/internal/util/remote"
	"github.com/repotools/reposync/internal/util/sparse"
)

// Command syncs a remote branch to a local destination directory.
type Command struct {
	Remote      string
	Branch      string
	Destination string

	// PurgeExtra removes local files and directories that are not tracked
	// on the remote branch.
	PurgeExtra bool
}

// Run executes the sync pipeline. It is a straight-line sequence with no
// rollback: a failure partway leaves the destination partially updated but
// never corrupted, since each file write is independent and a re-run is
// idempotent.
func (c Command) Run(ctx context.Context) error {
	const op errors.Op = "sync.Run"
	pr := printer.FromContextOrDie(ctx)
	dest := types.UniquePath(c.Destination)

	meta, err := remote.Fetch(ctx, c.Remote, c.Branch)
	if err != nil {
		return errors.E(op, dest, err)
	}

	fileSet, err := compare.Partition(meta.Files, c.Destination)
	if err != nil {
		return errors.E(op, dest, err)
	}
	pr.Printf("%d files on %s@%s, %d need updating.\n",
		len(meta.Files), c.Remote, c.Branch, len(fileSet.Newer))

	if len(fileSet.Newer) > 0 {
		paths := make([]string, 0, len(fileSet.Newer))
		for p := range fileSet.Newer {
			paths = append(paths, p)
		}
		sort.Strings(paths)

		checkout, err := sparse.FetchFiles(ctx, c.Remote, c.Branch, paths)
		if err != nil {
			return errors.E(op, dest, err)
		}
		defer os.RemoveAll(checkout.Dir)

		result, err := mirror.Run(ctx, checkout.Dir, c.Destination, mirror.Options{
			Mode: mirror.All,
		})
		if err != nil {
			return errors.E(op, dest, err)
		}
		pr.Printf("Updated %d files.\n", len(result.Copied))
	}

	if c.PurgeExtra {
		purged, err := purgeUntracked(meta, c.Destination)
		if err != nil {
			return errors.E(op, dest, err)
		}
		if purged > 0 {
			pr.Printf("Purged %d untracked entries.\n", purged)
		}
	}
	return nil
}

// purgeUntracked removes every file under dest whose repo-relative path is
// not present in the remote metadata, then removes directories left empty.
func purgeUntracked(meta remote.RepoMetadata, dest string) (int, error) {
	var files []string
	var dirs []string
	err := filepath.WalkDir(dest, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(dest, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		if d.IsDir() {
			dirs = append(dirs, path)
			return nil
		}
		if _, tracked := meta.Files[filepath.ToSlash(rel)]; !tracked {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	purged := 0
	for _, f := range files {
		if err := os.Remove(f); err != nil {
			return purged, err
		}
		purged++
	}

	// Deepest-first so parents are empty by the time they are visited.
	sort.Sort(sort.Reverse(sort.StringSlice(dirs)))
	for _, d := range dirs {
		entries, err := os.ReadDir(d)
		if err != nil {
			return purged, err
		}
		if len(entries) == 0 {
			if err := os.Remove(d); err != nil {
				return purged, err
			}
			purged++
		}
	}
	return purged, nil
}
