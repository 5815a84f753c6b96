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

// Package cmdstatus contains the status command
package cmdstatus

import (
	"context"
	"sort"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/repotools/reposync/internal/errors"
	"github.com/repotools/reposync/internal/util/compare"
	"github.com/repotools/reposync/internal/util/remote"
	"github.com/repotools/reposync/internal/util/runner"
)

// NewRunner returns a command runner
func NewRunner(ctx context.Context, parent string) *Runner {
	r := &Runner{
		ctx: ctx,
	}
	c := &cobra.Command{
		Use:   "status REPO_URL BRANCH LOCAL_DIR",
		Args:  cobra.ExactArgs(3),
		Short: "Show which remote files are newer than the local copies",
		Long: `Fetch the file metadata of BRANCH on REPO_URL without downloading any
content and compare the per-file commit timestamps against LOCAL_DIR.
Files are listed as either needing an update or being up to date. LOCAL_DIR
is created if it does not exist.`,
		Example: "  reposync status https://example.com/org/repo.git main ./mirror",
		RunE:    r.runE,
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
	const op errors.Op = "cmdstatus.runE"

	meta, err := remote.Fetch(r.ctx, args[0], args[1])
	if err != nil {
		return runner.HandleError(c, errors.E(op, err))
	}
	fileSet, err := compare.Partition(meta.Files, args[2])
	if err != nil {
		return runner.HandleError(c, errors.E(op, err))
	}
	renderFileSetAsTable(c, fileSet)
	return nil
}

func renderFileSetAsTable(cmd *cobra.Command, fs compare.FileSet) {
	t := table.NewWriter()
	t.SetOutputMirror(cmd.OutOrStdout())
	t.AppendHeader(table.Row{"FILE", "STATE", "REMOTE COMMIT", "SUBJECT"})
	for _, row := range fileSetRows(fs) {
		t.AppendRow(row)
	}
	t.Render()
}

func fileSetRows(fs compare.FileSet) []table.Row {
	var paths []string
	for p := range fs.Newer {
		paths = append(paths, p)
	}
	for p := range fs.OlderOrEqual {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	rows := make([]table.Row, 0, len(paths))
	for _, p := range paths {
		rec, state := fs.OlderOrEqual[p], "up to date"
		if r, ok := fs.Newer[p]; ok {
			rec, state = r, "needs update"
		}
		stamp := "unknown"
		if rec.HasModTime {
			stamp = rec.ModTime.Format("2006-01-02 15:04:05")
		}
		rows = append(rows, table.Row{p, state, stamp, rec.Subject})
	}
	return rows
}
