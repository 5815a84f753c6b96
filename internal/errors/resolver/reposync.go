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

package resolver

import (
	"fmt"

	"github.com/repotools/reposync/internal/errors"
)

//nolint:gochecknoinits
func init() {
	AddErrorResolver(&kindErrorResolver{})
}

// kindErrorResolver produces messages for *errors.Error values based on
// their Kind.
type kindErrorResolver struct{}

func (*kindErrorResolver) Resolve(err error) (ResolvedResult, bool) {
	e := firstClassified(err)
	if e == nil {
		return ResolvedResult{}, false
	}

	var msg string
	switch e.Kind {
	case errors.NoRepo:
		msg = "Error: The directory is not part of a repository."
	case errors.NoRemote:
		msg = "Error: The repository has no remote URL configured."
	case errors.BranchMissing:
		msg = fmt.Sprintf("Error: The branch does not exist on remote %q.", e.Repo)
	case errors.RemoteUnreachable:
		msg = fmt.Sprintf("Error: Remote %q could not be reached.", e.Repo)
	case errors.Checkout:
		msg = fmt.Sprintf("Error: Checkout from %q failed.", e.Repo)
	case errors.Exist:
		msg = fmt.Sprintf("Error: %q already exists. Pass --overwrite to replace it.", e.Path)
	default:
		return ResolvedResult{}, false
	}

	if e.Err != nil {
		msg += fmt.Sprintf("\nDetails:\n%v", e.Err)
	}
	return ResolvedResult{Message: msg}, true
}

// firstClassified walks the error chain and returns the first *errors.Error
// carrying a non-zero Kind. Wrapping errors often add only Op and Path
// context, so the classified kind may sit further down the chain.
func firstClassified(err error) *errors.Error {
	for err != nil {
		var e *errors.Error
		if !errors.As(err, &e) {
			return nil
		}
		if e.Kind != errors.Other {
			return e
		}
		err = e.Err
	}
	return nil
}
