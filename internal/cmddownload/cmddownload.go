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

// Package cmddownload contains the download command
package cmddownload

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/repotools/reposync/internal/errors"
	"github.com/repotools/reposync/internal/printer"
	"github.com/repotools/reposync/internal/util/httputil"
	"github.com/repotools/reposync/internal/util/runner"
)

// NewRunner returns a command runner
func NewRunner(ctx context.Context, parent string) *Runner {
	r := &Runner{
		ctx: ctx,
	}
	c := &cobra.Command{
		Use:   "download URL DEST",
		Args:  cobra.ExactArgs(2),
		Short: "Download a single file over HTTP",
		Long: `Stream the content at URL into the file DEST. An existing DEST is an
error unless --overwrite is passed. With --extract the payload is treated
as a zip archive and unpacked into DEST's directory after the download.`,
		Example: `  reposync download https://example.com/releases/tool-v1.zip ./tool.zip --extract`,
		RunE:    r.runE,
	}
	r.Command = c
	c.Flags().BoolVar(&r.opts.Overwrite, "overwrite", false,
		"replace DEST if it already exists")
	c.Flags().BoolVar(&r.opts.Extract, "extract", false,
		"unpack the downloaded zip archive next to DEST")
	return r
}

func NewCommand(ctx context.Context, parent string) *cobra.Command {
	return NewRunner(ctx, parent).Command
}

// Runner contains the run function
type Runner struct {
	ctx     context.Context
	Command *cobra.Command
	opts    httputil.DownloadOptions
}

func (r *Runner) runE(c *cobra.Command, args []string) error {
	const op errors.Op = "cmddownload.runE"
	pr := printer.FromContextOrDie(r.ctx)

	if err := httputil.Download(r.ctx, args[0], args[1], r.opts); err != nil {
		return runner.HandleError(c, errors.E(op, err))
	}
	pr.Printf("Downloaded %q.\n", args[1])
	return nil
}
