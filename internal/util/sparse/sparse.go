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

// Package sparse materializes an explicit list of files from a remote
// branch using a blob-less clone and a sparse checkout.
package sparse

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"k8s.io/klog/v2"

	"github.com/repotools/reposync/internal/errors"
	"github.com/repotools/reposync/internal/gitutil"
)

// CheckoutResult describes a materialized sparse checkout. Dir is a scoped
// temporary directory owned by the caller; its lifetime ends when the
// caller has copied the files out and removed it. The tree under Dir is
// plain files with no version-control metadata.
type CheckoutResult struct {
	Remote string
	Branch string
	Dir    string
	Files  []string
}

// FetchFiles checks out exactly the given repo-relative paths from branch
// on the remote into a fresh temporary directory.
//
// An empty path list is valid and short-circuits to an empty result
// without touching the network. Any clone or checkout failure surfaces
// with the git diagnostic attached; there is no partial retry, the caller
// must re-invoke.
func FetchFiles(ctx context.Context, remoteURL, branch string, paths []string) (CheckoutResult, error) {
	const op errors.Op = "sparse.FetchFiles"
	result := CheckoutResult{
		Remote: remoteURL,
		Branch: branch,
	}
	if len(paths) == 0 {
		return result, nil
	}

	dir, cleanup, err := gitutil.NewTempWorktree("reposync-checkout-")
	if err != nil {
		return result, errors.E(op, err)
	}
	// The temp dir is handed to the caller on success only.
	success := false
	defer func() {
		if !success {
			cleanup()
		}
	}()

	runner, err := gitutil.NewLocalGitRunner(dir)
	if err != nil {
		return result, errors.E(op, err)
	}

	_, err = runner.Run(ctx, "clone",
		"--filter=blob:none", "--no-checkout", "--single-branch",
		"--branch", branch, remoteURL, ".")
	if err != nil {
		gitutil.AmendGitExecError(err, func(e *gitutil.GitExecError) {
			e.Repo = remoteURL
			e.Ref = branch
		})
		return result, errors.E(op, errors.Checkout, errors.Repo(remoteURL), err)
	}

	// Restrict the worktree to exactly the requested paths. Cone mode only
	// supports directory prefixes, so it is disabled. The patterns are
	// gitignore-style: unanchored ones match at every directory depth, so
	// each path is anchored to the repo root.
	args := make([]string, 0, len(paths)+2)
	args = append(args, "set", "--no-cone")
	for _, p := range paths {
		args = append(args, "/"+p)
	}
	if _, err := runner.Run(ctx, "sparse-checkout", args...); err != nil {
		return result, errors.E(op, errors.Checkout, errors.Repo(remoteURL), err)
	}

	// The checkout pulls blobs only for the restricted path set.
	if _, err := runner.Run(ctx, "checkout", branch); err != nil {
		gitutil.AmendGitExecError(err, func(e *gitutil.GitExecError) {
			e.Repo = remoteURL
			e.Ref = branch
		})
		return result, errors.E(op, errors.Checkout, errors.Repo(remoteURL), err)
	}

	// Strip the version-control metadata so the result is a plain tree.
	if err := os.RemoveAll(filepath.Join(dir, ".git")); err != nil {
		return result, errors.E(op, errors.IO,
			fmt.Errorf("error removing version-control metadata: %w", err))
	}

	var files []string
	for _, p := range paths {
		if _, err := os.Stat(filepath.Join(dir, filepath.FromSlash(p))); err == nil {
			files = append(files, p)
		}
	}
	klog.V(2).Infof("sparse checkout of %s materialized %d of %d requested files",
		remoteURL, len(files), len(paths))

	success = true
	result.Dir = dir
	result.Files = files
	return result, nil
}
