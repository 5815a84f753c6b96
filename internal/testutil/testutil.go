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

// Package testutil creates local git repositories for tests.
package testutil

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

// TestGitRepo manages a local git repository for testing.
type TestGitRepo struct {
	T *testing.T

	// RepoDirectory is the temp directory holding the repo.
	RepoDirectory string
}

// NewRepo initializes an empty repository with branch main in a temp
// directory that is removed when the test finishes.
func NewRepo(t *testing.T) *TestGitRepo {
	t.Helper()
	r := &TestGitRepo{
		T:             t,
		RepoDirectory: t.TempDir(),
	}
	r.Git("init", "-b", "main")
	r.Git("config", "user.email", "dev@example.com")
	r.Git("config", "user.name", "dev")
	return r
}

// Git runs a git command in the repo directory and fails the test on a
// non-zero exit.
func (r *TestGitRepo) Git(args ...string) string {
	r.T.Helper()
	return r.GitAt(r.RepoDirectory, nil, args...)
}

// GitAt runs a git command in dir with extra environment entries.
func (r *TestGitRepo) GitAt(dir string, env []string, args ...string) string {
	r.T.Helper()
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), env...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		r.T.Fatalf("git %s: %v\n%s", strings.Join(args, " "), err, out)
	}
	return string(out)
}

// CommitFile writes content to path (repo-relative, forward slashes) and
// commits it with the given committer date, e.g. "2024-01-01T00:00:00Z".
func (r *TestGitRepo) CommitFile(path, content, date string) {
	r.T.Helper()
	abs := filepath.Join(r.RepoDirectory, filepath.FromSlash(path))
	if err := os.MkdirAll(filepath.Dir(abs), 0755); err != nil {
		r.T.Fatal(err)
	}
	if err := os.WriteFile(abs, []byte(content), 0644); err != nil {
		r.T.Fatal(err)
	}
	r.Git("add", path)
	env := []string{
		"GIT_AUTHOR_DATE=" + date,
		"GIT_COMMITTER_DATE=" + date,
	}
	r.GitAt(r.RepoDirectory, env, "commit", "-m", "add "+path)
}

// Head returns the commit sha of HEAD.
func (r *TestGitRepo) Head() string {
	r.T.Helper()
	return strings.TrimSpace(r.Git("rev-parse", "HEAD"))
}
