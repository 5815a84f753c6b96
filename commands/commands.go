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

package commands

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/repotools/reposync/internal/cmdassetsync"
	"github.com/repotools/reposync/internal/cmddownload"
	"github.com/repotools/reposync/internal/cmdfetch"
	"github.com/repotools/reposync/internal/cmdinfo"
	"github.com/repotools/reposync/internal/cmdmirror"
	"github.com/repotools/reposync/internal/cmdstatus"
	"github.com/repotools/reposync/internal/cmdsync"
)

// GetRepoSyncCommands returns the set of reposync commands to be registered
func GetRepoSyncCommands(ctx context.Context, name string) []*cobra.Command {
	c := []*cobra.Command{
		cmdinfo.NewCommand(ctx, name),
		cmdstatus.NewCommand(ctx, name),
		cmdsync.NewCommand(ctx, name),
		cmdfetch.NewCommand(ctx, name),
		cmdmirror.NewCommand(ctx, name),
		GetAssetCommand(ctx, name),
		cmddownload.NewCommand(ctx, name),
	}

	// apply cross-cutting issues to commands
	NormalizeCommand(c...)
	return c
}

// GetAssetCommand groups the HTTP asset mirroring subcommands.
func GetAssetCommand(ctx context.Context, name string) *cobra.Command {
	asset := &cobra.Command{
		Use:   "asset",
		Short: "Mirror large binary assets over direct HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := cmd.Flags().GetBool("help")
			if err != nil {
				return err
			}
			if h {
				return cmd.Help()
			}
			return cmd.Usage()
		},
	}
	asset.AddCommand(cmdassetsync.NewCommand(ctx, name))
	return asset
}

// NormalizeCommand will modify commands to be consistent, e.g. silencing
// usage on errors
func NormalizeCommand(c ...*cobra.Command) {
	for i := range c {
		cmd := c[i]
		cmd.SilenceUsage = true
		NormalizeCommand(cmd.Commands()...)
	}
}
