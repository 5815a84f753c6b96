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

// Package cmdassetsync contains the asset sync command
package cmdassetsync

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/repotools/reposync/internal/errors"
	"github.com/repotools/reposync/internal/printer"
	"github.com/repotools/reposync/internal/util/asset"
	"github.com/repotools/reposync/internal/util/remote"
	"github.com/repotools/reposync/internal/util/runner"
)

// NewRunner returns a command runner
func NewRunner(ctx context.Context, parent string) *Runner {
	r := &Runner{
		ctx: ctx,
	}
	c := &cobra.Command{
		Use:   "sync REPO_URL BRANCH LOCAL_DIR",
		Args:  cobra.ExactArgs(3),
		Short: "Mirror large assets over direct HTTP instead of git transfer",
		Long: `Enumerate the files of BRANCH on REPO_URL (metadata only, no blobs) and
mirror them into LOCAL_DIR with plain HTTP GETs against a raw-blob
endpoint, for hosts that serve file contents at predictable URLs.

Files whose local modification time equals the remote commit timestamp are
skipped. Missing files are downloaded before stale ones, and every
download stamps the local file with the remote timestamp so the next run
classifies it as matched. Local files unknown to the remote are removed
first. Failed downloads are picked up by the next run.`,
		Example: `  reposync asset sync https://example.com/org/models.git main ./models \
    --endpoint https://example.com/org/models/resolve`,
		RunE: r.runE,
	}
	r.Command = c
	c.Flags().StringVar(&r.endpoint, "endpoint", "",
		"base URL serving raw file contents; {branch} and {path} placeholders are supported")
	_ = c.MarkFlagRequired("endpoint")
	return r
}

func NewCommand(ctx context.Context, parent string) *cobra.Command {
	return NewRunner(ctx, parent).Command
}

// Runner contains the run function
type Runner struct {
	ctx      context.Context
	Command  *cobra.Command
	endpoint string
}

func (r *Runner) runE(c *cobra.Command, args []string) error {
	const op errors.Op = "cmdassetsync.runE"
	pr := printer.FromContextOrDie(r.ctx)

	meta, err := remote.Fetch(r.ctx, args[0], args[1])
	if err != nil {
		return runner.HandleError(c, errors.E(op, err))
	}
	meta = asset.ResolveURLs(meta, r.endpoint)

	result, err := asset.Sync(r.ctx, meta, args[2])
	if err != nil {
		return runner.HandleError(c, errors.E(op, err))
	}
	pr.Printf("Downloaded %d, matched %d, removed %d, failed %d.\n",
		len(result.Downloaded), len(result.Matched), len(result.Removed), len(result.Failed))
	if len(result.Failed) > 0 {
		return runner.HandleError(c, errors.E(op, errors.HTTP,
			"some downloads failed, re-run to retry them"))
	}
	return nil
}
