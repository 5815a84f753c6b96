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

// Package remote enumerates the files at a branch HEAD of a remote
// repository along with their last-commit timestamps, without downloading
// any file contents.
package remote

import (
	"context"
	"fmt"
	"strings"
	"time"

	"k8s.io/klog/v2"

	"github.com/repotools/reposync/internal/errors"
	"github.com/repotools/reposync/internal/gitutil"
	"github.com/repotools/reposync/internal/printer"
)

// FileRecord describes a single tracked file at a branch HEAD. It is
// immutable once constructed.
type FileRecord struct {
	// Path is repo-relative with forward slashes.
	Path string

	// ModTime is the committer timestamp of the most recent commit touching
	// Path, normalized to UTC. Only valid when HasModTime is true; a record
	// without a timestamp must always be treated as newer than any local
	// baseline.
	ModTime    time.Time
	HasModTime bool

	// Subject is the subject line of that commit.
	Subject string

	// DownloadURL is a direct HTTP URL for the file content. Only set by
	// the asset mirror; empty for git-transfer syncs.
	DownloadURL string
}

// RepoMetadata is the result of enumerating a remote branch.
type RepoMetadata struct {
	Remote string
	Branch string

	// Files maps repo-relative forward-slash paths to their records.
	Files map[string]FileRecord
}

// Paths returns the keys of Files in unspecified order.
func (m RepoMetadata) Paths() []string {
	paths := make([]string, 0, len(m.Files))
	for p := range m.Files {
		paths = append(paths, p)
	}
	return paths
}

// Fetch returns the metadata for every tracked file at the HEAD of branch
// on the given remote. The transfer is blob-less: commit and tree metadata
// are fetched into a scoped temporary clone which is removed on all exit
// paths, and no file content is downloaded.
//
// A file whose commit timestamp cannot be parsed gets a record without a
// timestamp instead of aborting the whole fetch.
func Fetch(ctx context.Context, remoteURL, branch string) (RepoMetadata, error) {
	const op errors.Op = "remote.Fetch"
	pr := printer.FromContextOrDie(ctx)
	meta := RepoMetadata{
		Remote: remoteURL,
		Branch: branch,
		Files:  map[string]FileRecord{},
	}

	// Make sure the branch exists before paying for a clone.
	_, found, err := gitutil.ResolveRemoteBranch(ctx, remoteURL, branch)
	if err != nil {
		return meta, errors.E(op, errors.Repo(remoteURL), err)
	}
	if !found {
		return meta, errors.E(op, errors.BranchMissing, errors.Repo(remoteURL),
			fmt.Errorf("branch %q does not exist on the remote", branch))
	}

	dir, cleanup, err := gitutil.NewTempWorktree("reposync-meta-")
	if err != nil {
		return meta, errors.E(op, err)
	}
	defer cleanup()

	runner, err := gitutil.NewLocalGitRunner(dir)
	if err != nil {
		return meta, errors.E(op, err)
	}

	// Blob-less, checkout-less clone: all commits and trees, no content.
	_, err = runner.Run(ctx, "clone",
		"--filter=blob:none", "--no-checkout", "--single-branch",
		"--branch", branch, remoteURL, ".")
	if err != nil {
		gitutil.AmendGitExecError(err, func(e *gitutil.GitExecError) {
			e.Repo = remoteURL
			e.Ref = branch
		})
		return meta, errors.E(op, errors.Repo(remoteURL), err)
	}

	rr, err := runner.Run(ctx, "ls-tree", "-r", "--name-only", "HEAD")
	if err != nil {
		return meta, errors.E(op, errors.Repo(remoteURL), err)
	}
	paths := gitutil.ParseLsTree(rr.Stdout)
	klog.V(2).Infof("remote %s branch %s tracks %d files", remoteURL, branch, len(paths))

	for _, p := range paths {
		rec := FileRecord{Path: p}
		rr, err := runner.Run(ctx, "log", "-1", "--format=%cI%x09%s", "--", p)
		if err != nil {
			return meta, errors.E(op, errors.Repo(remoteURL), err)
		}
		when, subject, perr := gitutil.ParseLogLine(firstLine(rr.Stdout))
		rec.Subject = subject
		if perr != nil {
			// Degrade to an absent timestamp for this file only.
			pr.OptPrintf(printer.NewOpt().Stderr(),
				"[Warn] no usable commit timestamp for %q: %v\n", p, perr)
		} else {
			rec.ModTime = when
			rec.HasModTime = true
		}
		meta.Files[p] = rec
	}
	return meta, nil
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return line
}
