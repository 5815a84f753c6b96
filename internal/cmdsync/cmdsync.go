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

// Package cmdsync contains the sync command
package cmdsync

import (
	"context"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/repotools/reposync/internal/errors"
	"github.com/repotools/reposync/internal/util/runner"
	"github.com/repotools/reposync/internal/util/sync"
)

// NewRunner returns a command runner
func NewRunner(ctx context.Context, parent string) *Runner {
	r := &Runner{
		ctx: ctx,
	}
	c := &cobra.Command{
		Use:   "sync REPO_URL BRANCH LOCAL_DIR",
		Args:  cobra.ExactArgs(3),
		Short: "Bring a local directory up to date with a remote branch",
		Long: `Fetch the file metadata of BRANCH on REPO_URL, determine which files are
newer than the copies under LOCAL_DIR, check out only those files via a
sparse checkout, and copy them into place. File contents are transferred
only for the files that actually changed.

The pipeline has no rollback: a failure partway leaves LOCAL_DIR partially
updated but never corrupted, and re-running converges.`,
		Example: `  reposync sync https://example.com/org/repo.git main ./mirror
  reposync sync https://example.com/org/repo.git main ./mirror --purge`,
		RunE:       r.runE,
		PreRunE:    r.preRunE,
		SuggestFor: []string{"pull", "update"},
	}
	r.Command = c
	c.Flags().BoolVar(&r.purge, "purge", false,
		"remove local files and directories not tracked on the remote branch")
	return r
}

func NewCommand(ctx context.Context, parent string) *cobra.Command {
	return NewRunner(ctx, parent).Command
}

// Runner contains the run function
type Runner struct {
	ctx     context.Context
	Sync    sync.Command
	Command *cobra.Command
	purge   bool
}

func (r *Runner) preRunE(_ *cobra.Command, args []string) error {
	const op errors.Op = "cmdsync.preRunE"
	dest, err := filepath.Abs(args[2])
	if err != nil {
		return errors.E(op, errors.InvalidParam, err)
	}
	r.Sync = sync.Command{
		Remote:      args[0],
		Branch:      args[1],
		Destination: dest,
		PurgeExtra:  r.purge,
	}
	return nil
}

func (r *Runner) runE(c *cobra.Command, _ []string) error {
	const op errors.Op = "cmdsync.runE"
	if err := r.Sync.Run(r.ctx); err != nil {
		return runner.HandleError(c, errors.E(op, err))
	}
	return nil
}
