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

// Package cmdinfo contains the info command
package cmdinfo

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/repotools/reposync/internal/errors"
	"github.com/repotools/reposync/internal/printer"
	"github.com/repotools/reposync/internal/util/inspect"
	"github.com/repotools/reposync/internal/util/runner"
)

// NewRunner returns a command runner
func NewRunner(ctx context.Context, parent string) *Runner {
	r := &Runner{
		ctx: ctx,
	}
	c := &cobra.Command{
		Use:        "info [DIR]",
		Args:       cobra.MaximumNArgs(1),
		Short:      "Show repository root, branch and name for a working copy",
		Long: `Show metadata for the repository enclosing DIR (default: the current
directory): the top-level directory, the current branch, and the short
repository name derived from the configured remote URL.

On a detached HEAD the branch is resolved to the first branch git lists as
containing the current commit, falling back to the commit hash.`,
		Example:    "  reposync info\n  reposync info path/to/checkout",
		RunE:       r.runE,
		SuggestFor: []string{"inspect", "describe"},
	}
	r.Command = c
	return r
}

func NewCommand(ctx context.Context, parent string) *cobra.Command {
	return NewRunner(ctx, parent).Command
}

// Runner contains the run function
type Runner struct {
	ctx     context.Context
	Command *cobra.Command
}

func (r *Runner) runE(c *cobra.Command, args []string) error {
	const op errors.Op = "cmdinfo.runE"
	pr := printer.FromContextOrDie(r.ctx)

	dir := "."
	if len(args) == 1 {
		dir = args[0]
	}

	top, err := inspect.TopLevel(r.ctx, dir)
	if err != nil {
		return runner.HandleError(c, errors.E(op, err))
	}
	branch, err := inspect.CurrentBranch(r.ctx, dir)
	if err != nil {
		return runner.HandleError(c, errors.E(op, err))
	}
	pr.Printf("root:   %s\n", top)
	pr.Printf("branch: %s\n", branch)

	// The repo name requires a remote; a local-only repository still has
	// a root and a branch worth printing.
	name, err := inspect.RepoName(r.ctx, dir)
	if err != nil {
		return runner.HandleError(c, errors.E(op, err))
	}
	url, err := inspect.RemoteURL(r.ctx, dir)
	if err != nil {
		return runner.HandleError(c, errors.E(op, err))
	}
	pr.Printf("name:   %s\n", name)
	pr.Printf("remote: %s\n", url)
	return nil
}
