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

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"k8s.io/klog/v2"

	"github.com/repotools/reposync/commands"
	"github.com/repotools/reposync/internal/printer"
	"github.com/repotools/reposync/internal/util/runner"
)

func main() {
	cmd := &cobra.Command{
		Use:   "reposync",
		Short: "Inspect and mirror Git repository state",
		Long: `reposync inspects local working copies and mirrors remote repository
state: it diffs remote commit timestamps against local files, checks out
only the files that changed, and can mirror large binary assets over
direct HTTP instead of git's own transfer protocol.`,
		SilenceUsage: true,
		// Errors are handled after return from cobra so the messages
		// coming from libraries can be adjusted.
		SilenceErrors: true,
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

	klog.InitFlags(flag.CommandLine)
	cmd.PersistentFlags().AddGoFlagSet(flag.CommandLine)
	// klog registers its flags with underscores.
	cmd.SetGlobalNormalizationFunc(func(f *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	// wire the printer and make it available through the context
	pr := printer.New(cmd.OutOrStdout(), cmd.ErrOrStderr())
	ctx := printer.WithContext(context.Background(), pr)

	// help and documentation
	cmd.InitDefaultHelpCmd()
	cmd.AddCommand(commands.GetRepoSyncCommands(ctx, "reposync")...)

	// enable stack traces
	cmd.PersistentFlags().BoolVar(&runner.StackOnError, "stack-trace", false,
		"print a stack-trace on failure")

	if _, err := exec.LookPath("git"); err != nil {
		fmt.Fprintln(os.Stderr, "reposync requires that `git` is installed and on the PATH")
		os.Exit(1)
	}

	// exit on an error
	runner.ExitOnError = true

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
