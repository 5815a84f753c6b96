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

// Package cmdmirror contains the mirror command
package cmdmirror

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/repotools/reposync/internal/errors"
	"github.com/repotools/reposync/internal/printer"
	"github.com/repotools/reposync/internal/util/mirror"
	"github.com/repotools/reposync/internal/util/runner"
)

// NewRunner returns a command runner
func NewRunner(ctx context.Context, parent string) *Runner {
	r := &Runner{
		ctx: ctx,
	}
	c := &cobra.Command{
		Use:   "mirror SRC DST",
		Args:  cobra.ExactArgs(2),
		Short: "Copy a source tree onto a destination tree",
		Long: `Copy the files under SRC onto DST. The mode controls when existing
destination files are overwritten:

  missing  only create files absent from DST
  smart    also overwrite when sizes differ or DST's file is older (default)
  all      unconditionally overwrite every file

Change detection is size+mtime only; a same-size edit with an equal
timestamp is not detected. Individual copy failures are retried with a
fixed delay and reported without aborting the rest of the pass.`,
		Example: `  reposync mirror ./build ./deploy
  reposync mirror ./build ./deploy --mode=all --purge --retry-count=3 --retry-delay=2s`,
		RunE:    r.runE,
		PreRunE: r.preRunE,
	}
	r.Command = c
	c.Flags().StringVar(&r.mode, "mode", "smart",
		"overwrite mode, one of: missing, smart, all")
	c.Flags().BoolVar(&r.Options.PurgeExtra, "purge", false,
		"remove destination entries that have no counterpart in the source")
	c.Flags().IntVar(&r.Options.RetryCount, "retry-count", 0,
		"number of additional attempts for a failed file copy")
	c.Flags().DurationVar(&r.Options.RetryDelay, "retry-delay", time.Second,
		"delay between copy attempts")
	return r
}

func NewCommand(ctx context.Context, parent string) *cobra.Command {
	return NewRunner(ctx, parent).Command
}

// Runner contains the run function
type Runner struct {
	ctx     context.Context
	Options mirror.Options
	Command *cobra.Command
	mode    string
}

func (r *Runner) preRunE(_ *cobra.Command, _ []string) error {
	const op errors.Op = "cmdmirror.preRunE"
	mode, err := mirror.ParseMode(r.mode)
	if err != nil {
		return errors.E(op, err)
	}
	r.Options.Mode = mode
	return nil
}

func (r *Runner) runE(c *cobra.Command, args []string) error {
	const op errors.Op = "cmdmirror.runE"
	pr := printer.FromContextOrDie(r.ctx)

	result, err := mirror.Run(r.ctx, args[0], args[1], r.Options)
	if err != nil {
		return runner.HandleError(c, errors.E(op, err))
	}
	pr.Printf("Copied %d, purged %d, failed %d.\n",
		len(result.Copied), len(result.Purged), len(result.Failed))
	if len(result.Failed) > 0 {
		return runner.HandleError(c, errors.E(op, errors.Copy,
			"some files could not be copied, re-run to retry them"))
	}
	return nil
}
