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

// Package compare partitions remote file metadata against a local
// directory by timestamp.
package compare

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/repotools/reposync/internal/errors"
	"github.com/repotools/reposync/internal/util/remote"
)

// FileSet is the result of partitioning a remote file set against a local
// directory. Newer and OlderOrEqual are disjoint and their union is the
// input set.
type FileSet struct {
	// Newer holds the files that need to be synced: the local counterpart
	// is missing, or its modification time is strictly earlier than the
	// remote commit timestamp, or the remote record has no timestamp.
	Newer map[string]remote.FileRecord

	// OlderOrEqual holds the files whose local counterpart is already up
	// to date.
	OlderOrEqual map[string]remote.FileRecord
}

// Partition classifies every remote file against localRoot.
//
// If localRoot does not exist it is created, and every remote file is
// classified as Newer since there is no local baseline to compare against.
// Remote paths use forward slashes; the local lookup converts them to the
// platform separator before stat'ing, so the partition is insensitive to
// slash direction.
func Partition(files map[string]remote.FileRecord, localRoot string) (FileSet, error) {
	const op errors.Op = "compare.Partition"
	fs := FileSet{
		Newer:        map[string]remote.FileRecord{},
		OlderOrEqual: map[string]remote.FileRecord{},
	}

	if _, err := os.Stat(localRoot); os.IsNotExist(err) {
		if err := os.MkdirAll(localRoot, 0755); err != nil {
			return fs, errors.E(op, errors.IO,
				fmt.Errorf("error creating destination directory %q: %w", localRoot, err))
		}
		for p, rec := range files {
			fs.Newer[p] = rec
		}
		return fs, nil
	}

	for p, rec := range files {
		local := filepath.Join(localRoot, filepath.FromSlash(p))
		info, err := os.Stat(local)
		switch {
		case os.IsNotExist(err):
			fs.Newer[p] = rec
		case err != nil:
			return fs, errors.E(op, errors.IO,
				fmt.Errorf("error inspecting %q: %w", local, err))
		case !rec.HasModTime:
			// No remote baseline either; treat as always newer.
			fs.Newer[p] = rec
		case info.ModTime().UTC().Before(rec.ModTime):
			fs.Newer[p] = rec
		default:
			fs.OlderOrEqual[p] = rec
		}
	}
	return fs, nil
}
