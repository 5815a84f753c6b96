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

// Package gitutil runs the local git binary and parses its textual output.
// It owns no protocol logic of its own; everything here is a caller of
// git's plumbing commands.
package gitutil

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"k8s.io/klog/v2"

	"github.com/repotools/reposync/internal/errors"
)

// NewLocalGitRunner returns a new GitLocalRunner rooted at dir.
func NewLocalGitRunner(dir string) (*GitLocalRunner, error) {
	const op errors.Op = "gitutil.NewLocalGitRunner"
	p, err := exec.LookPath("git")
	if err != nil {
		return nil, errors.E(op, errors.Git, &GitExecError{
			Type: GitExecutableNotFound,
			Err:  err,
		})
	}

	return &GitLocalRunner{
		gitPath: p,
		Dir:     dir,
	}, nil
}

// GitLocalRunner runs git commands in a local directory.
type GitLocalRunner struct {
	// Path to the git executable.
	gitPath string

	// Dir is the directory the commands are run in.
	Dir string
}

type RunResult struct {
	Stdout string
	Stderr string
}

// Run runs a git command.
// Omit the 'git' part of the command.
// The first return value contains the output to Stdout and Stderr when
// running the command.
func (g *GitLocalRunner) Run(ctx context.Context, command string, args ...string) (RunResult, error) {
	return g.run(ctx, false, command, args...)
}

// RunVerbose runs a git command and echoes its output to the process
// streams in addition to capturing it.
func (g *GitLocalRunner) RunVerbose(ctx context.Context, command string, args ...string) (RunResult, error) {
	return g.run(ctx, true, command, args...)
}

// run runs a git command.
// Omit the 'git' part of the command.
func (g *GitLocalRunner) run(ctx context.Context, verbose bool, command string, args ...string) (RunResult, error) {
	const op errors.Op = "gitutil.run"

	fullArgs := append([]string{command}, args...)
	cmd := exec.CommandContext(ctx, g.gitPath, fullArgs...)
	cmd.Dir = g.Dir
	// Disable prompting for credentials. A repository that requires
	// interactive auth should fail rather than hang.
	cmd.Env = append(os.Environ(), "GIT_TERMINAL_PROMPT=0")

	cmdStdout := &bytes.Buffer{}
	cmdStderr := &bytes.Buffer{}
	if verbose {
		cmd.Stdout = io.MultiWriter(cmdStdout, os.Stdout)
		cmd.Stderr = io.MultiWriter(cmdStderr, os.Stderr)
	} else {
		cmd.Stdout = cmdStdout
		cmd.Stderr = cmdStderr
	}

	klog.V(4).Infof("running `git %s` in %q", strings.Join(fullArgs, " "), g.Dir)
	err := cmd.Run()
	if err != nil {
		return RunResult{}, errors.E(op, errors.Git, &GitExecError{
			Type:    determineErrorType(cmdStderr.String()),
			Command: command,
			Args:    args,
			Err:     err,
			StdOut:  cmdStdout.String(),
			StdErr:  cmdStderr.String(),
		})
	}
	return RunResult{
		Stdout: cmdStdout.String(),
		Stderr: cmdStderr.String(),
	}, nil
}

// ResolveRemoteBranch looks up branch on the remote without fetching any
// objects and returns the commit sha it references. The second return value
// is false when the branch doesn't exist on the remote.
func ResolveRemoteBranch(ctx context.Context, remote, branch string) (string, bool, error) {
	const op errors.Op = "gitutil.ResolveRemoteBranch"
	runner, err := NewLocalGitRunner(".")
	if err != nil {
		return "", false, errors.E(op, errors.Repo(remote), err)
	}
	rr, err := runner.Run(ctx, "ls-remote", "--heads", remote, branch)
	if err != nil {
		AmendGitExecError(err, func(e *GitExecError) {
			e.Repo = remote
			e.Ref = branch
		})
		return "", false, errors.E(op, errors.RemoteUnreachable, errors.Repo(remote), err)
	}
	heads, err := ParseLsRemote(rr.Stdout)
	if err != nil {
		return "", false, errors.E(op, errors.Repo(remote), err)
	}
	sha, found := heads[branch]
	return sha, found, nil
}

// NewTempWorktree creates a scoped temporary directory for a clone and
// returns the directory along with a cleanup function. The cleanup function
// must be called on every exit path.
func NewTempWorktree(pattern string) (string, func(), error) {
	const op errors.Op = "gitutil.NewTempWorktree"
	dir, err := os.MkdirTemp("", pattern)
	if err != nil {
		return "", nil, errors.E(op, errors.Internal,
			fmt.Errorf("error creating temp directory: %w", err))
	}
	return dir, func() { os.RemoveAll(dir) }, nil
}
