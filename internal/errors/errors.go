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

// Package errors defines the error handling used by the reposync codebase.
package errors

import (
	"fmt"
	"strings"

	"github.com/repotools/reposync/internal/types"
)

// Error is an implementation of the error interface used in the reposync
// codebase.
// It is based on the design in https://commandcenter.blogspot.com/2017/12/error-handling-in-upspin.html
type Error struct {
	// Path is the path name of the object involved in the operation.
	Path types.UniquePath

	// Op is the operation being performed, for ex. remote.Fetch, mirror.Run
	Op Op

	// Repo is the URL of the remote repository involved in the operation.
	Repo Repo

	// Kind refers to the class of error.
	Kind Kind

	// Err refers to the wrapped error (if any).
	Err error
}

func (e *Error) Error() string {
	b := new(strings.Builder)

	if e.Op != "" {
		pad(b, ": ")
		b.WriteString(string(e.Op))
	}

	if e.Path != "" {
		pad(b, ": ")
		b.WriteString("path ")
		b.WriteString(string(e.Path))
	}

	if e.Repo != "" {
		pad(b, ": ")
		b.WriteString("repo ")
		b.WriteString(string(e.Repo))
	}

	if e.Kind != 0 {
		pad(b, ": ")
		b.WriteString(e.Kind.String())
	}

	if e.Err != nil {
		if wrappedErr, ok := e.Err.(*Error); ok {
			if !wrappedErr.Zero() {
				pad(b, ":\n\t")
				b.WriteString(wrappedErr.Error())
			}
		} else {
			pad(b, ": ")
			b.WriteString(e.Err.Error())
		}
	}
	if b.Len() == 0 {
		return "no error"
	}
	return b.String()
}

// pad appends the given separator to the string buffer unless it is empty.
func pad(b *strings.Builder, str string) {
	if b.Len() == 0 {
		return
	}
	b.WriteString(str)
}

func (e *Error) Zero() bool {
	return e.Op == "" && e.Path == "" && e.Repo == "" && e.Kind == 0 && e.Err == nil
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Op describes the operation being performed.
type Op string

// Repo describes the URL of the remote repository involved.
type Repo string

// Kind describes the class of errors encountered.
type Kind int

const (
	Other             Kind = iota // Unclassified. Will not be printed.
	Internal                      // Internal error.
	IO                            // Filesystem error.
	Git                           // Errors from the git binary.
	HTTP                          // Errors from an HTTP request.
	Exist                         // Item already exists.
	NoRepo                        // Directory is not part of a repository.
	NoRemote                      // Repository has no remote configured.
	BranchMissing                 // Branch does not exist on the remote.
	RemoteUnreachable             // Remote could not be contacted.
	Checkout                      // Sparse checkout failed.
	Copy                          // File copy failed.
	InvalidParam                  // Value is not valid.
	MissingParam                  // Required value is missing or empty.
)

func (k Kind) String() string {
	switch k {
	case Other:
		return "other error"
	case Internal:
		return "internal error"
	case IO:
		return "filesystem error"
	case Git:
		return "git error"
	case HTTP:
		return "http error"
	case Exist:
		return "item already exists"
	case NoRepo:
		return "not a repository"
	case NoRemote:
		return "no remote configured"
	case BranchMissing:
		return "branch not found"
	case RemoteUnreachable:
		return "remote unavailable"
	case Checkout:
		return "checkout failed"
	case Copy:
		return "copy failed"
	case InvalidParam:
		return "invalid parameter value"
	case MissingParam:
		return "missing parameter value"
	}
	return "unknown kind"
}

func E(args ...interface{}) error {
	if len(args) == 0 {
		panic("errors.E must have at least one argument")
	}

	e := &Error{}
	for _, arg := range args {
		switch a := arg.(type) {
		case types.UniquePath:
			e.Path = a
		case Op:
			e.Op = a
		case Repo:
			e.Repo = a
		case Kind:
			e.Kind = a
		case *Error:
			cp := *a
			e.Err = &cp
		case error:
			e.Err = a
		case string:
			e.Err = fmt.Errorf("%s", a)
		default:
			panic(fmt.Errorf("unknown type %T for value %v in call to errors.E", a, a))
		}
	}

	wrappedErr, ok := e.Err.(*Error)
	if !ok {
		return e
	}

	if e.Path == wrappedErr.Path {
		wrappedErr.Path = ""
	}

	if e.Op == wrappedErr.Op {
		wrappedErr.Op = ""
	}

	if e.Repo == wrappedErr.Repo {
		wrappedErr.Repo = ""
	}

	if e.Kind == wrappedErr.Kind {
		wrappedErr.Kind = 0
	}

	return e
}
