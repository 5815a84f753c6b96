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

// Package runner funnels command errors into operator-facing messages and
// exit codes.
package runner

import (
	"fmt"
	"os"

	goerrors "github.com/go-errors/errors"
	"github.com/spf13/cobra"

	"github.com/repotools/reposync/internal/errors/resolver"
)

// ExitOnError if true, will cause commands to call os.Exit instead of
// returning an error. Used for skipping printing usage on failure.
var ExitOnError bool

// StackOnError if true, will print a stack trace on failure.
var StackOnError bool

// HandleError writes err to stderr, resolved into a descriptive message
// when a resolver knows the error type, and exits non-zero when
// ExitOnError is set.
func HandleError(c *cobra.Command, err error) error {
	if err == nil {
		return nil
	}
	if StackOnError {
		if err, ok := err.(*goerrors.Error); ok {
			fmt.Fprintf(os.Stderr, "%s", err.Stack())
		}
	}

	exitCode := 1
	if rr, found := resolver.ResolveError(err); found {
		fmt.Fprintf(c.ErrOrStderr(), "%s\n", rr.Message)
		exitCode = rr.ExitCode
	} else {
		fmt.Fprintf(c.ErrOrStderr(), "Error: %v\n", err)
	}

	if ExitOnError {
		os.Exit(exitCode)
	}
	return err
}
