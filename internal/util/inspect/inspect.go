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

// Package inspect queries a local working copy for its root directory,
// current branch and repository name.
package inspect

import (
	"context"
	"fmt"
	"strings"

	"github.com/repotools/reposync/internal/errors"
	"github.com/repotools/reposync/internal/gitutil"
)

// TopLevel returns the absolute path of the root of the repository
// enclosing dir. It fails with errors.NoRepo if dir is not inside a
// working copy.
func TopLevel(ctx context.Context, dir string) (string, error) {
	const op errors.Op = "inspect.TopLevel"
	runner, err := gitutil.NewLocalGitRunner(dir)
	if err != nil {
		return "", errors.E(op, err)
	}
	rr, err := runner.Run(ctx, "rev-parse", "--show-toplevel")
	if err != nil {
		if execErrType(err) == gitutil.NotAWorkTree {
			return "", errors.E(op, errors.NoRepo,
				fmt.Errorf("%q is not inside a repository", dir))
		}
		return "", errors.E(op, err)
	}
	return strings.TrimSpace(rr.Stdout), nil
}

// CurrentBranch returns the branch name of the working copy at dir.
//
// On a detached HEAD it falls back to the branches containing the current
// commit and returns the first one git lists; the ordering of that list is
// unspecified. If no branch contains the commit, the raw commit hash is
// returned.
func CurrentBranch(ctx context.Context, dir string) (string, error) {
	const op errors.Op = "inspect.CurrentBranch"
	runner, err := gitutil.NewLocalGitRunner(dir)
	if err != nil {
		return "", errors.E(op, err)
	}
	rr, err := runner.Run(ctx, "rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		if execErrType(err) == gitutil.NotAWorkTree {
			return "", errors.E(op, errors.NoRepo,
				fmt.Errorf("%q is not inside a repository", dir))
		}
		return "", errors.E(op, err)
	}
	name := strings.TrimSpace(rr.Stdout)
	if name != "HEAD" {
		return name, nil
	}

	// Detached HEAD. Scan branches containing the current commit.
	rr, err = runner.Run(ctx, "branch", "--contains", "HEAD")
	if err != nil {
		return "", errors.E(op, err)
	}
	for _, line := range strings.Split(rr.Stdout, "\n") {
		b := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), "*"))
		if b == "" || strings.HasPrefix(b, "(") {
			continue
		}
		return b, nil
	}

	// No containing branch. Return the commit hash.
	rr, err = runner.Run(ctx, "rev-parse", "HEAD")
	if err != nil {
		return "", errors.E(op, err)
	}
	return strings.TrimSpace(rr.Stdout), nil
}

// RepoName derives a short repository name from the configured remote URL
// by taking the final path segment and stripping a trailing ".git" suffix.
// It fails with errors.NoRemote when no remote URL is configured.
func RepoName(ctx context.Context, dir string) (string, error) {
	const op errors.Op = "inspect.RepoName"
	url, err := RemoteURL(ctx, dir)
	if err != nil {
		return "", errors.E(op, err)
	}
	return NameFromURL(url), nil
}

// RemoteURL returns the URL of the repository's remote. The "origin"
// remote wins when several are configured.
func RemoteURL(ctx context.Context, dir string) (string, error) {
	const op errors.Op = "inspect.RemoteURL"
	runner, err := gitutil.NewLocalGitRunner(dir)
	if err != nil {
		return "", errors.E(op, err)
	}
	rr, err := runner.Run(ctx, "remote")
	if err != nil {
		return "", errors.E(op, err)
	}
	remotes := strings.Fields(rr.Stdout)
	if len(remotes) == 0 {
		return "", errors.E(op, errors.NoRemote,
			fmt.Errorf("repository at %q has no remote configured", dir))
	}
	remote := remotes[0]
	for _, r := range remotes {
		if r == "origin" {
			remote = r
			break
		}
	}
	rr, err = runner.Run(ctx, "remote", "get-url", remote)
	if err != nil {
		return "", errors.E(op, err)
	}
	url := strings.TrimSpace(rr.Stdout)
	if url == "" {
		return "", errors.E(op, errors.NoRemote,
			fmt.Errorf("remote %q has no URL configured", remote))
	}
	return url, nil
}

// NameFromURL returns the short repository name for a remote URL. Both
// path-style (https://host/org/repo.git) and scp-style
// (git@host:org/repo.git) URLs are handled.
func NameFromURL(url string) string {
	name := strings.TrimSuffix(url, "/")
	if i := strings.LastIndexAny(name, "/:"); i >= 0 {
		name = name[i+1:]
	}
	return strings.TrimSuffix(name, ".git")
}

func execErrType(err error) gitutil.GitExecErrorType {
	var execErr *gitutil.GitExecError
	if errors.As(err, &execErr) {
		return execErr.Type
	}
	return gitutil.Unknown
}
